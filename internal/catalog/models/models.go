package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

const (
	StatusActive   = "Active"
	StatusLowStock = "Low Stock"
	StatusInactive = "Inactive"
)

// LowStockThreshold is the stock ceiling below which a product is shown
// as "Low Stock" instead of "Active".
const LowStockThreshold = 5

// Product is keyed by its slug everywhere: routes, cart entries and
// order line items all reference products by slug, never by a surrogate id.
type Product struct {
	Slug        string    `gorm:"primaryKey"              json:"slug"`
	Name        string    `gorm:"not null"                json:"name"`
	Price       int64     `gorm:"not null"                json:"price"`
	Stock       int       `gorm:"not null"                json:"stock"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	Images      ImageList `gorm:"type:text"               json:"images"`
	CreatedAt   int64     `gorm:"autoCreateTime:milli"    json:"created_at"`
	UpdatedAt   int64     `gorm:"autoUpdateTime:milli"    json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// DeriveStatus keeps an administrative "Inactive" verbatim; otherwise the
// status follows the stock level.
func DeriveStatus(status string, stock int) string {
	if status == StatusInactive {
		return StatusInactive
	}
	if stock <= LowStockThreshold {
		return StatusLowStock
	}
	return StatusActive
}

// ImageList stores the ordered image references (absolute URLs or
// storage-relative paths) as a JSON text column.
type ImageList []string

func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		l = ImageList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *ImageList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = ImageList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported image list source %T", src)
	}
}
