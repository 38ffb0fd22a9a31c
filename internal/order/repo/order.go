package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/putridev/sparx-shop/internal/order/models"
)

type GormRepo struct {
	DB *gorm.DB
}

// Filter narrows admin order listings.
type Filter struct {
	Status string
	Query  string // matches order id or customer name
	From   int64  // created_at lower bound, ms; 0 means unbounded
	To     int64  // created_at upper bound, ms; 0 means unbounded
}

func (r *GormRepo) Create(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) Get(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) applyFilter(q *gorm.DB, f Filter) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("id LIKE ? OR customer_name LIKE ?", like, like)
	}
	if f.From > 0 {
		q = q.Where("created_at >= ?", f.From)
	}
	if f.To > 0 {
		q = q.Where("created_at <= ?", f.To)
	}
	return q
}

// List returns a newest-first page of orders plus the filtered total.
func (r *GormRepo) List(ctx context.Context, f Filter, offset, limit int) (int64, []models.Order, error) {
	q := r.applyFilter(r.DB.WithContext(ctx).Model(&models.Order{}), f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := q.Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// ListByUser returns the user's orders newest first, optionally bounded
// by creation time. Zero bounds mean unbounded.
func (r *GormRepo) ListByUser(ctx context.Context, userID string, from, to int64) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID)
	if from > 0 {
		q = q.Where("created_at >= ?", from)
	}
	if to > 0 {
		q = q.Where("created_at <= ?", to)
	}
	var orders []models.Order
	if err := q.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateFields patches the given columns on one order.
func (r *GormRepo) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListCompleted returns completed orders created inside [from, to],
// oldest first, for sales reporting.
func (r *GormRepo) ListCompleted(ctx context.Context, from, to int64) ([]models.Order, error) {
	var orders []models.Order
	q := r.DB.WithContext(ctx).
		Preload("Items").
		Where("status = ?", models.StatusCompleted)
	if from > 0 {
		q = q.Where("created_at >= ?", from)
	}
	if to > 0 {
		q = q.Where("created_at <= ?", to)
	}
	if err := q.Order("created_at ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// CountByStatus returns order counts keyed by status.
func (r *GormRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// CountSince counts orders created at or after the given timestamp.
func (r *GormRepo) CountSince(ctx context.Context, since int64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("created_at >= ?", since).
		Count(&n).Error
	return n, err
}
