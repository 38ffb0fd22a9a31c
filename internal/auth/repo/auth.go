package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/putridev/sparx-shop/internal/auth/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) CreateUser(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *GormRepo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormRepo) UpdateUser(ctx context.Context, id string, fields map[string]any) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) SaveRefresh(ctx context.Context, token *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(token).Error
}

func (r *GormRepo) RefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).First(&token, "jti = ?", jti).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *GormRepo) RevokeRefresh(ctx context.Context, jti string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("jti = ?", jti).
		Update("revoked", true).Error
}

func (r *GormRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Update("revoked", true).Error
}

func (r *GormRepo) CreateReset(ctx context.Context, reset *models.PasswordReset) error {
	return r.DB.WithContext(ctx).Create(reset).Error
}

func (r *GormRepo) ResetByHash(ctx context.Context, hash string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	if err := r.DB.WithContext(ctx).First(&reset, "token_hash = ?", hash).Error; err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *GormRepo) MarkResetUsed(ctx context.Context, hash string) error {
	return r.DB.WithContext(ctx).Model(&models.PasswordReset{}).
		Where("token_hash = ?", hash).
		Update("used", true).Error
}

// PruneExpired drops refresh and reset rows past their expiry. Called
// opportunistically, never on the request path.
func (r *GormRepo) PruneExpired(ctx context.Context) error {
	now := time.Now().UnixMilli()
	if err := r.DB.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.RefreshToken{}).Error; err != nil {
		return err
	}
	return r.DB.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.PasswordReset{}).Error
}
