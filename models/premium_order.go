package models

import "time"

type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderPaid     OrderStatus = "paid"
	OrderDeclined OrderStatus = "declined" // refused by the gateway
	OrderFailed   OrderStatus = "failed"   // gateway unreachable; nothing was charged
	OrderSkipped  OrderStatus = "skipped"
)

type PremiumOrder struct {
	ID           uint        `gorm:"primaryKey" json:"-"`
	OrderID      string      `gorm:"index;size:40;not null" json:"order_id"`
	SessionID    string      `gorm:"index;size:36;not null" json:"session_id"`
	Method       string      `gorm:"size:20" json:"method"`
	ItemName     string      `json:"item_name"`
	Amount       int         `json:"amount"` // KRW
	BuyerEmail   string      `json:"buyer_email"`
	BuyerName    string      `json:"buyer_name"`
	BuyerTel     string      `json:"buyer_tel"`
	Status       OrderStatus `gorm:"size:16;not null" json:"status"`
	ErrorMessage string      `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Buyer is the contact block forwarded to the payment gateway.
type Buyer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Tel   string `json:"tel"`
}
