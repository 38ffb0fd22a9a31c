package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/putridev/sparx-shop/internal/settings/models"
)

type GormRepo struct {
	DB *gorm.DB
}

// Load returns the raw settings payload, nil when none was ever saved.
func (r *GormRepo) Load(ctx context.Context) ([]byte, error) {
	var rec models.Record
	if err := r.DB.WithContext(ctx).First(&rec, "id = ?", models.SingletonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec.Payload, nil
}

func (r *GormRepo) Save(ctx context.Context, payload []byte) error {
	rec := models.Record{ID: models.SingletonID, Payload: payload}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&rec).Error
}
