package order

import (
	"time"

	"github.com/shopspring/decimal"

	domcart "example.com/storefront/internal/domain/cart"
)

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryPacked    DeliveryStatus = "PACKED"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
)

func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryPending, DeliveryPacked, DeliveryDelivered:
		return true
	default:
		return false
	}
}

type Order struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	OrderStatus    string          `json:"orderStatus"`
	DeliveryStatus DeliveryStatus  `json:"deliveryStatus"`
	PaymentMethod  string          `json:"paymentMethod"`
	OrderAmount    decimal.Decimal `json:"orderAmount"`
	ShippingCost   decimal.Decimal `json:"shippingCost"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Items          []domcart.Item  `json:"items,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}
