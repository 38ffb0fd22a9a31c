package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string `gorm:"primaryKey"          json:"id"`
	Name         string `json:"name"`
	Email        string `gorm:"uniqueIndex"         json:"email"`
	PasswordHash string `json:"-"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Role         string `json:"role"`
	// Label is the allow-list display label, kept only for admin roles.
	Label     string `json:"label,omitempty"`
	CreatedAt int64  `gorm:"autoCreateTime:milli" json:"created_at"`
	UpdatedAt int64  `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// RefreshToken stores a hash of the issued refresh token keyed by its
// JTI. The raw token never touches the database.
type RefreshToken struct {
	JTI       string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	TokenHash string
	ExpiresAt int64
	Revoked   bool
	CreatedAt int64 `gorm:"autoCreateTime:milli"`
}

// PasswordReset is a single-use reset token, stored hashed.
type PasswordReset struct {
	TokenHash string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	ExpiresAt int64
	Used      bool
	CreatedAt int64 `gorm:"autoCreateTime:milli"`
}
