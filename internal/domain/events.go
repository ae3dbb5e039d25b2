package domain

import "time"

// OrderPlacedEvent is broadcast after a successful checkout. Consumers get
// the pickup token so they can notify the student; they must not drive the
// order's status from it.
type OrderPlacedEvent struct {
	OrderID       string      `json:"order_id"`
	StudentID     string      `json:"student_id"`
	Token         string      `json:"token"`
	Total         int64       `json:"total"`
	PaymentMethod string      `json:"payment_method"`
	Items         []OrderItem `json:"items"`
	Timestamp     time.Time   `json:"timestamp"`
}

// CartUpdatedEvent is the fire-and-forget refresh signal emitted after every
// successful cart write. No delivery or ordering guarantee; observers re-read
// the cart on receipt.
type CartUpdatedEvent struct {
	SessionID string    `json:"session_id"`
	ItemCount int       `json:"item_count"`
	Subtotal  int64     `json:"subtotal"`
	Timestamp time.Time `json:"timestamp"`
}
