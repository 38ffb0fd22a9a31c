package repo

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/putridev/sparx-shop/internal/cart/models"
)

type GormRepo struct {
	DB *gorm.DB
}

// Load returns the owner's cart entries. A missing record or a corrupt
// payload both load as an empty cart; corruption is not an error.
func (r *GormRepo) Load(ctx context.Context, ownerKey string) ([]models.Entry, error) {
	var rec models.Record
	if err := r.DB.WithContext(ctx).Where("owner_key = ?", ownerKey).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entries []models.Entry
	if err := json.Unmarshal(rec.Payload, &entries); err != nil {
		return nil, nil
	}
	return entries, nil
}

func (r *GormRepo) Save(ctx context.Context, ownerKey string, entries []models.Entry) error {
	if entries == nil {
		entries = []models.Entry{}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	rec := models.Record{OwnerKey: ownerKey, Payload: payload}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&rec).Error
}

// Owners lists every persisted cart key, used for catalog-update
// reconciliation.
func (r *GormRepo) Owners(ctx context.Context) ([]string, error) {
	var keys []string
	if err := r.DB.WithContext(ctx).Model(&models.Record{}).Pluck("owner_key", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}
