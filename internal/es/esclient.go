package es

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Skotchmaster/pharmacy_storefront/pkg/logging"
	"github.com/elastic/go-elasticsearch/v9"
)

type Config struct {
	URL      string
	User     string
	Password string
}

// NewClient connects to Elasticsearch and checks the cluster answers.
func NewClient(ctx context.Context, cfg Config) (*elasticsearch.Client, error) {
	l := logging.FromContext(ctx).With("component", "es")
	l.Info("es_connecting", "url", cfg.URL, "user", cfg.User)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		l.Error("es_connect_failed", "reason", "bad config", "error", err)
		return nil, fmt.Errorf("es client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		l.Error("es_connect_failed", "reason", "info request", "error", err)
		return nil, fmt.Errorf("es info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		l.Error("es_connect_failed", "status", res.StatusCode, "body", string(body))
		return nil, fmt.Errorf("es info: %s", res.Status())
	}

	l.Info("es_connected")
	return client, nil
}
