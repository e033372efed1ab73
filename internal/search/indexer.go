package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/logging"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/tidwall/gjson"
)

type productSource interface {
	GetAllProducts(ctx context.Context) ([]models.Product, error)
}

// Indexer mirrors the backend catalog into Elasticsearch for offline search.
type Indexer struct {
	ES     *elasticsearch.Client
	Index  string
	Source productSource
}

// Sync copies every backend product and returns how many were indexed.
func (ix *Indexer) Sync(ctx context.Context) (int, error) {
	ps, err := ix.Source.GetAllProducts(ctx)
	if err != nil {
		return 0, err
	}
	return ix.IndexProducts(ctx, ps)
}

// IndexProducts bulk-indexes products keyed by product code. Products
// without a code are skipped.
func (ix *Indexer) IndexProducts(ctx context.Context, ps []models.Product) (int, error) {
	l := logging.FromContext(ctx).With("handler", "search.index_products")

	var buf bytes.Buffer
	n := 0
	for _, p := range ps {
		if p.Code == "" {
			continue
		}
		meta, _ := json.Marshal(map[string]any{"index": map[string]string{"_id": p.Code}})
		doc, err := json.Marshal(p)
		if err != nil {
			return 0, fmt.Errorf("encode product %s: %w", p.Code, err)
		}
		buf.Write(meta)
		buf.WriteByte('\n')
		buf.Write(doc)
		buf.WriteByte('\n')
		n++
	}
	if n == 0 {
		return 0, nil
	}

	res, err := ix.ES.Bulk(
		&buf,
		ix.ES.Bulk.WithContext(ctx),
		ix.ES.Bulk.WithIndex(ix.Index),
		ix.ES.Bulk.WithRefresh("true"),
	)
	if err != nil {
		l.Error("index_failed", "reason", "bulk request", "error", err)
		return 0, fmt.Errorf("es bulk: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, fmt.Errorf("read es response: %w", err)
	}
	if res.IsError() {
		l.Error("index_failed", "status", res.StatusCode)
		return 0, fmt.Errorf("es bulk: %s", res.Status())
	}
	if gjson.GetBytes(raw, "errors").Bool() {
		failed := 0
		gjson.GetBytes(raw, "items").ForEach(func(_, item gjson.Result) bool {
			if item.Get("index.error").Exists() {
				failed++
			}
			return true
		})
		l.Warn("index_partial", "failed", failed, "total", n)
		return n - failed, fmt.Errorf("es bulk: %d of %d documents failed", failed, n)
	}

	l.Info("index_done", "status", "ok", "count", n)
	return n, nil
}
