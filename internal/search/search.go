// Package search finds products either through the backend search endpoint
// or in an Elasticsearch mirror of the catalog.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/tidwall/gjson"
)

const DefaultSize = 20

type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Product, error)
}

type backend interface {
	SearchProducts(ctx context.Context, query string) ([]models.Product, error)
}

// RemoteSearcher asks the storefront backend.
type RemoteSearcher struct {
	API backend
}

func (s *RemoteSearcher) Search(ctx context.Context, query string) ([]models.Product, error) {
	return s.API.SearchProducts(ctx, strings.TrimSpace(query))
}

// ESSearcher runs a fuzzy multi_match over the mirrored catalog.
type ESSearcher struct {
	ES    *elasticsearch.Client
	Index string
	Size  int
}

func (s *ESSearcher) Search(ctx context.Context, query string) ([]models.Product, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []models.Product{}, nil
	}
	size := s.Size
	if size <= 0 {
		size = DefaultSize
	}

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"tensanpham^2", "masanpham", "congdung", "motangan"},
				"fuzziness": "AUTO",
			},
		},
		"size": size,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("es search: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read es response: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s: %s", res.Status(), gjson.GetBytes(raw, "error.reason").String())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode es response: %w", err)
	}

	out := make([]models.Product, len(r.Hits.Hits))
	for i, h := range r.Hits.Hits {
		out[i] = h.Source
	}
	return out, nil
}
