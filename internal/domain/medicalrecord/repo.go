package medicalrecord

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows record listings.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

// Repository is the persistence boundary for medical records.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	Update(ctx context.Context, r *Record) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Record, int, error)
}
