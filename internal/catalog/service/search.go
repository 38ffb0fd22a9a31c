package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/putridev/sparx-shop/internal/catalog/models"
	"github.com/putridev/sparx-shop/internal/catalog/repo"
	"github.com/putridev/sparx-shop/pkg/logging"
)

// SearchProducts queries Elasticsearch when configured and falls back to
// the database otherwise.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, fmt.Errorf("%w: query required", ErrValidation)
	}
	if s.ES == nil {
		return s.Repo.ListProducts(ctx, repo.Filter{Query: query}, offset, limit)
	}
	return s.searchES(ctx, query, offset, limit)
}

func (s *CatalogService) searchES(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "category"},
				"fuzziness": "AUTO",
			},
		},
		"from": offset,
		"size": limit,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode search query: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(indexName),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search failed: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]models.Product, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		items = append(items, h.Source)
	}
	return r.Hits.Total.Value, items, nil
}

// index and deindex keep the search index in step with the catalog.
// Both are best-effort: a search that lags the catalog is acceptable, a
// failed write is not.
func (s *CatalogService) index(ctx context.Context, prod *models.Product) {
	if s.ES == nil {
		return
	}
	data, err := json.Marshal(prod)
	if err != nil {
		logging.FromContext(ctx).Error("es_index_failed", "slug", prod.Slug, "error", err)
		return
	}
	res, err := s.ES.Index(
		indexName,
		bytes.NewReader(data),
		s.ES.Index.WithDocumentID(prod.Slug),
		s.ES.Index.WithContext(ctx),
	)
	if err != nil {
		logging.FromContext(ctx).Error("es_index_failed", "slug", prod.Slug, "error", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		logging.FromContext(ctx).Error("es_index_failed", "slug", prod.Slug, "status", res.Status())
	}
}

func (s *CatalogService) deindex(ctx context.Context, slug string) {
	if s.ES == nil {
		return
	}
	res, err := s.ES.Delete(indexName, slug, s.ES.Delete.WithContext(ctx))
	if err != nil {
		logging.FromContext(ctx).Error("es_deindex_failed", "slug", slug, "error", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		logging.FromContext(ctx).Error("es_deindex_failed", "slug", slug, "status", res.Status())
	}
}
