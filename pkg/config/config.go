package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIBaseURL       = "https://be-ecom-longchau-production-hehe.up.railway.app"
	DefaultLocationsBaseURL = "https://provinces.open-api.vn/api"
)

type Config struct {
	APIBaseURL       string
	LocationsBaseURL string

	StorageDSN string
	StorageKey string

	HTTPTimeout  time.Duration
	APIRateLimit int

	SearchDebounce   time.Duration
	CartPollInterval time.Duration

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	CallbackAddr string

	LogLevel string
}

// Load reads .env when present and then the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env not loaded: %v, using process environment", err)
	}

	return Config{
		APIBaseURL:       strings.TrimRight(EnvDefault("API_BASE_URL", DefaultAPIBaseURL), "/"),
		LocationsBaseURL: strings.TrimRight(EnvDefault("LOCATIONS_BASE_URL", DefaultLocationsBaseURL), "/"),

		StorageDSN: EnvDefault("STORAGE_DSN", "file:storefront.db"),
		StorageKey: os.Getenv("STORAGE_KEY"),

		HTTPTimeout:  EnvDurationDefault("HTTP_TIMEOUT", 10*time.Second),
		APIRateLimit: EnvIntDefault("API_RATE_LIMIT", 0),

		SearchDebounce:   EnvDurationDefault("SEARCH_DEBOUNCE", 500*time.Millisecond),
		CartPollInterval: EnvDurationDefault("CART_POLL_INTERVAL", 500*time.Millisecond),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		CallbackAddr: EnvDefault("CALLBACK_ADDR", ":8089"),

		LogLevel: os.Getenv("LOG_LEVEL"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
