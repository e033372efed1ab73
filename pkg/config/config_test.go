package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("SF_TEST_INT", "42")
	t.Setenv("SF_TEST_BAD_INT", "x")
	t.Setenv("SF_TEST_DUR", "250ms")
	t.Setenv("SF_TEST_BAD_DUR", "-1s")

	assert.Equal(t, 42, EnvIntDefault("SF_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("SF_TEST_BAD_INT", 1))
	assert.Equal(t, 7, EnvIntDefault("SF_TEST_MISSING", 7))

	assert.Equal(t, 250*time.Millisecond, EnvDurationDefault("SF_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, EnvDurationDefault("SF_TEST_BAD_DUR", time.Second))

	assert.Equal(t, "def", EnvDefault("SF_TEST_MISSING", "def"))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:3000/")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("SEARCH_DEBOUNCE", "")
	t.Setenv("LOCATIONS_BASE_URL", "")
	t.Setenv("ES_INDEX", "")

	cfg := Load()

	assert.Equal(t, "http://localhost:3000", cfg.APIBaseURL)
	assert.Equal(t, DefaultLocationsBaseURL, cfg.LocationsBaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.SearchDebounce)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "products", cfg.ESIndex)
}
