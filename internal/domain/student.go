package domain

import "time"

// Student balances and prices are whole rupees.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Balance   int64     `json:"balance"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// Session ties a browser/device to a student. The cart hangs off the
// session, not the student: two students sharing a device share a cart.
type Session struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}
