package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"gorm.io/gorm"

	"github.com/putridev/sparx-shop/internal/catalog/models"
	"github.com/putridev/sparx-shop/internal/catalog/repo"
	"github.com/putridev/sparx-shop/internal/catalog/transport"
	"github.com/putridev/sparx-shop/internal/events"
	"github.com/putridev/sparx-shop/internal/watch"
	"github.com/putridev/sparx-shop/pkg/logging"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Collection is the watch hub collection fed by this service.
const Collection = "products"

const indexName = "products"

type CatalogService struct {
	Repo     *repo.GormRepo
	Hub      *watch.Hub
	Producer events.Publisher
	ES       *elasticsearch.Client
}

func (s *CatalogService) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, slug)
	}
	return prod, err
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.Filter, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, f, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: cannot derive slug", ErrValidation)
	}

	if _, err := s.Repo.GetProduct(ctx, slug); err == nil {
		return nil, fmt.Errorf("%w: slug %s already exists", ErrConflict, slug)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	prod := &models.Product{
		Slug:        slug,
		Name:        strings.TrimSpace(req.Name),
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Status:      models.DeriveStatus(req.Status, req.Stock),
		Description: req.Description,
		Images:      models.ImageList(req.Images),
	}

	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, map[string]any{
		"type": "product_created",
		"slug": prod.Slug,
		"name": prod.Name,
	}, prod)

	return prod, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, req transport.PatchProductRequest, slug string) (*models.Product, error) {
	if req.Price != nil && *req.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if req.Stock != nil && *req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}

	prod, err := s.Repo.PatchProduct(ctx, req, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, slug)
		}
		return nil, err
	}

	s.afterMutation(ctx, map[string]any{
		"type": "product_updated",
		"slug": prod.Slug,
		"name": prod.Name,
	}, prod)

	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, slug string) error {
	if err := s.Repo.DeleteProduct(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %s", ErrNotFound, slug)
		}
		return err
	}

	s.deindex(ctx, slug)
	s.publish(ctx, map[string]any{
		"type": "product_deleted",
		"slug": slug,
	}, slug)
	if err := s.PublishSnapshot(ctx); err != nil {
		logging.FromContext(ctx).Error("snapshot_publish_failed", "error", err)
	}
	return nil
}

// SetStock writes an absolute stock level computed by the caller from its
// last observed value. Used by order placement; deliberately not a
// transactional decrement.
func (s *CatalogService) SetStock(ctx context.Context, slug string, stock int) error {
	if err := s.Repo.SetStock(ctx, slug, stock); err != nil {
		return err
	}
	if err := s.PublishSnapshot(ctx); err != nil {
		logging.FromContext(ctx).Error("snapshot_publish_failed", "error", err)
	}
	return nil
}

// PublishSnapshot pushes the full product collection onto the watch hub.
// Called after every mutation and once at startup.
func (s *CatalogService) PublishSnapshot(ctx context.Context) error {
	if s.Hub == nil {
		return nil
	}
	items, err := s.Repo.AllProducts(ctx)
	if err != nil {
		return err
	}
	docs := make(map[string]json.RawMessage, len(items))
	for i := range items {
		data, err := json.Marshal(&items[i])
		if err != nil {
			return err
		}
		docs[items[i].Slug] = data
	}
	s.Hub.Publish(watch.Snapshot{Collection: Collection, Docs: docs})
	return nil
}

func (s *CatalogService) afterMutation(ctx context.Context, event map[string]any, prod *models.Product) {
	s.index(ctx, prod)
	s.publish(ctx, event, prod.Slug)
	if err := s.PublishSnapshot(ctx); err != nil {
		logging.FromContext(ctx).Error("snapshot_publish_failed", "error", err)
	}
}

func (s *CatalogService) publish(ctx context.Context, event map[string]any, key string) {
	if s.Producer == nil {
		return
	}
	if err := s.Producer.PublishEvent(ctx, "product_events", key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "error", err)
	}
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a url-safe slug from a display name.
func Slugify(name string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
