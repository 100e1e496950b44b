package billing

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending = "pending"
	StatusPartial = "partial"
	StatusPaid    = "paid"
)

// BillItem is one line on a bill, stored as jsonb.
type BillItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Bill maps to the bills table. The derived columns (subtotal,
// total_amount, balance, status) are recomputed on every mutation and
// never accepted from a client.
type Bill struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	BillNumber    string     `db:"bill_number" json:"bill_number"`
	BillDate      time.Time  `db:"bill_date" json:"bill_date"`
	DueDate       *time.Time `db:"due_date" json:"due_date,omitempty"`
	Items         []BillItem `db:"items" json:"items"`
	Subtotal      float64    `db:"subtotal" json:"subtotal"`
	Tax           float64    `db:"tax" json:"tax"`
	Discount      float64    `db:"discount" json:"discount"`
	TotalAmount   float64    `db:"total_amount" json:"total_amount"`
	PaidAmount    float64    `db:"paid_amount" json:"paid_amount"`
	Balance       float64    `db:"balance" json:"balance"`
	Status        string     `db:"status" json:"status"`
	PaymentMethod *string    `db:"payment_method" json:"payment_method,omitempty"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	CreatedBy     uuid.UUID  `db:"created_by" json:"created_by"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Recompute derives subtotal, total, balance, and status from the
// items and payment state. Called after every change to items, tax,
// discount, or paid amount.
func (b *Bill) Recompute() {
	b.Subtotal = 0
	for _, it := range b.Items {
		b.Subtotal += float64(it.Quantity) * it.UnitPrice
	}
	b.TotalAmount = b.Subtotal + b.Tax - b.Discount
	b.Balance = b.TotalAmount - b.PaidAmount

	switch {
	case b.PaidAmount <= 0:
		b.Status = StatusPending
	case b.Balance > 0:
		b.Status = StatusPartial
	default:
		b.Status = StatusPaid
	}
}
