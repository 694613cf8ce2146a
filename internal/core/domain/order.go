package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// LineItem references exactly one variant of one product.
type LineItem struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// Order is immutable once created by checkout.
type Order struct {
	ID         string      `json:"id"`
	CustomerID string      `json:"customerId"`
	Total      float64     `json:"total"`
	Items      []LineItem  `json:"items"`
	Status     OrderStatus `json:"status,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func ValidateOrder(order Order) error {
	if order.ID == "" {
		return ErrInvalidOrder
	}
	return nil
}
