package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows appointment listings.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
	Date      *time.Time
}

// Repository is the persistence boundary for appointments.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
	HasAppointmentBetween(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error)
	DistinctPatientIDs(ctx context.Context, doctorID uuid.UUID) ([]uuid.UUID, error)
}
