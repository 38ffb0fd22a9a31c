package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/putridev/sparx-shop/internal/catalog/models"
	"github.com/putridev/sparx-shop/internal/catalog/transport"
)

type GormRepo struct {
	DB *gorm.DB
}

// Filter narrows product listings. The customer-facing listing sets
// IncludeInactive=false; admin views see everything.
type Filter struct {
	IncludeInactive bool
	Category        string
	Status          string
	Query           string
}

func (r *GormRepo) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, f Filter, offset, limit int) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})

	if !f.IncludeInactive {
		q = q.Where("status <> ?", models.StatusInactive)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Query != "" {
		term := "%" + strings.ToLower(f.Query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", term, term)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := q.Order("slug ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

// AllProducts loads the whole collection, used to build watch snapshots.
func (r *GormRepo) AllProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Order("slug ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

func (r *GormRepo) PatchProduct(ctx context.Context, req transport.PatchProductRequest, slug string) (*models.Product, error) {
	var prod models.Product
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&prod).Error; err != nil {
		return nil, err
	}

	if req.Name != nil {
		prod.Name = *req.Name
	}
	if req.Price != nil {
		prod.Price = *req.Price
	}
	if req.Stock != nil {
		prod.Stock = *req.Stock
	}
	if req.Category != nil {
		prod.Category = *req.Category
	}
	if req.Status != nil {
		prod.Status = *req.Status
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Images != nil {
		prod.Images = models.ImageList(*req.Images)
	}
	prod.Status = models.DeriveStatus(prod.Status, prod.Stock)

	if err := r.DB.WithContext(ctx).Save(&prod).Error; err != nil {
		return nil, err
	}

	return &prod, nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, slug string) error {
	res := r.DB.WithContext(ctx).Where("slug = ?", slug).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetStock writes an absolute stock value. The caller computes the new
// level from its last observed stock; concurrent writers simply race,
// last write wins.
func (r *GormRepo) SetStock(ctx context.Context, slug string, stock int) error {
	var prod models.Product
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&prod).Error; err != nil {
		return err
	}
	prod.Stock = stock
	prod.Status = models.DeriveStatus(prod.Status, stock)
	return r.DB.WithContext(ctx).Save(&prod).Error
}
