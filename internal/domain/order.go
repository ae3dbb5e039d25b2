package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
)

// KnownStatus reports whether s is one of the four lifecycle values.
// It says nothing about transition legality: staff may overwrite the
// status with any known value at any time.
func KnownStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady, OrderStatusDelivered:
		return true
	}
	return false
}

type OrderItem struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// Order.Items is a snapshot taken at checkout; mutating the cart afterwards
// must never show through here. Total is subtotal plus GST, fixed at
// creation and never recomputed.
type Order struct {
	ID             string      `json:"id"`
	StudentID      string      `json:"student_id"`
	Items          []OrderItem `json:"items"`
	Total          int64       `json:"total"`
	PaymentMethod  string      `json:"payment_method"`
	Status         OrderStatus `json:"status"`
	Token          string      `json:"token"`
	GatewayOrderID string      `json:"gateway_order_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}
