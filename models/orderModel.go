package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Order is the header row of one checkout, independent of how many sellers it spans.
// Subtotal, Shipping and Total are fixed at creation and never recomputed from the lines.
type Order struct {
	ID                string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID           string          `json:"buyerId" gorm:"type:varchar(36);not null;index"`
	Status            string          `json:"status" gorm:"type:varchar(20);not null;default:pending;index"`
	PaymentStatus     string          `json:"paymentStatus" gorm:"type:varchar(20);not null;default:pending;index"`
	Subtotal          decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	Shipping          decimal.Decimal `json:"shipping" gorm:"type:decimal(10,2);not null;default:0"`
	Total             decimal.Decimal `json:"total" gorm:"type:decimal(10,2);not null"`
	ShippingAddress   string          `json:"shippingAddress"`
	City              string          `json:"city"`
	State             string          `json:"state"`
	Zip               string          `json:"zip"`
	Country           string          `json:"country"`
	Phone             string          `json:"phone"`
	Email             string          `json:"email" gorm:"index"`
	Name              string          `json:"name"`
	PaymentReference  string          `json:"paymentReference" gorm:"type:varchar(100);index"`
	PaymentAccessCode string          `json:"paymentAccessCode" gorm:"type:varchar(100)"`
	Notes             string          `json:"notes"`
	CreatedAt         time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	Lines             []OrderLine     `json:"lines" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Buyer             *User           `json:"-" gorm:"foreignKey:BuyerID"`
}

// OrderLine is one product/seller scoped entry of an order; the unit of seller ownership.
// SellerID is captured when the line is created and is never re-derived from the product.
type OrderLine struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string          `json:"orderId" gorm:"type:varchar(36);not null;index"`
	ProductID string          `json:"productId" gorm:"type:varchar(36);not null;index"`
	SellerID  string          `json:"sellerId" gorm:"type:varchar(36);not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Total     decimal.Decimal `json:"total" gorm:"type:decimal(10,2);not null"`
	Variant   string          `json:"variant"`
	Position  int             `json:"-" gorm:"not null;default:0"`
	CreatedAt time.Time       `json:"createdAt"`
	Product   *Product        `json:"-" gorm:"foreignKey:ProductID"`
	Seller    *User           `json:"-" gorm:"foreignKey:SellerID"`
}

func IsOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func IsPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}
