package billing

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows bill listings.
type Filter struct {
	PatientID *uuid.UUID
	Status    string
}

// Repository is the persistence boundary for bills.
type Repository interface {
	// NextBillNumber allocates a new unique bill number.
	NextBillNumber(ctx context.Context) (string, error)
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	// UpdatePayment persists the payment-derived fields.
	UpdatePayment(ctx context.Context, b *Bill) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Bill, int, error)
}
