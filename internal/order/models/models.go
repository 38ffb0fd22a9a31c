package models

// Order lifecycle. Customer checkouts start at Awaiting Upload and move
// forward when a payment proof arrives; admin-entered orders are created
// Completed.
const (
	StatusAwaitingUpload       = "Awaiting Upload"
	StatusAwaitingVerification = "Awaiting Verification"
	StatusCompleted            = "Completed"
	StatusCancelled            = "Cancelled"
)

const (
	PaymentTransfer = "TRANSFER"
	PaymentCash     = "CASH"
	PaymentCashless = "CASHLESS"
)

// Order carries a customer snapshot and line items frozen at checkout
// time. Later catalog edits never change an existing order.
type Order struct {
	ID            string `gorm:"primaryKey"                     json:"id"`
	UserID        string `gorm:"index:idx_orders_user"          json:"user_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Address       string `json:"address"`
	Note          string `json:"note"`
	Status        string `gorm:"index"                          json:"status"`
	PaymentMethod string `json:"payment_method"`
	ProofPath     string `json:"-"`
	ProofName     string `json:"proof_name,omitempty"`
	Subtotal      int64  `json:"subtotal"`
	Shipping      int64  `json:"shipping"`
	Total         int64  `json:"total"`
	Items         []Item `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     int64  `gorm:"autoCreateTime:milli;index"     json:"created_at"`
	UpdatedAt     int64  `gorm:"autoUpdateTime:milli"           json:"updated_at"`
}

// Item is a checkout-time snapshot of one cart line.
type Item struct {
	ID      uint   `gorm:"primaryKey" json:"-"`
	OrderID string `gorm:"index"      json:"-"`
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	Qty     int    `json:"qty"`
	Price   int64  `json:"price"`
	Image   string `json:"image"`
}

func ValidStatus(s string) bool {
	switch s {
	case StatusAwaitingUpload, StatusAwaitingVerification, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
