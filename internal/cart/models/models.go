package models

// Entry is one cart line: a product reference plus a denormalized display
// snapshot that gets refreshed on every catalog update.
type Entry struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Qty      int    `json:"qty"`
	Image    string `json:"image"`
	Selected bool   `json:"selected"`
	Stock    int    `json:"stock"`
}

// Record is the persisted cart: the whole entry list serialized as JSON,
// keyed by the signed-in user's id or a guest key.
type Record struct {
	OwnerKey  string `gorm:"primaryKey"           json:"owner_key"`
	Payload   []byte `gorm:"type:text"            json:"-"`
	UpdatedAt int64  `gorm:"autoUpdateTime:milli" json:"updated_at"`
}

func (Record) TableName() string { return "cart_records" }
