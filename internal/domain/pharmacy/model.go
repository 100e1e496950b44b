package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Medication is one prescribed line, stored as jsonb.
type Medication struct {
	Name      string  `json:"name"`
	Dosage    string  `json:"dosage"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Prescription maps to the prescriptions table.
type Prescription struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	PatientID     uuid.UUID    `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID    `db:"doctor_id" json:"doctor_id"`
	AppointmentID *uuid.UUID   `db:"appointment_id" json:"appointment_id,omitempty"`
	Medications   []Medication `db:"medications" json:"medications"`
	Instructions  *string      `db:"instructions" json:"instructions,omitempty"`
	Status        string       `db:"status" json:"status"`
	ValidUntil    *time.Time   `db:"valid_until" json:"valid_until,omitempty"`
	IsDispensed   bool         `db:"is_dispensed" json:"is_dispensed"`
	DispensedBy   *uuid.UUID   `db:"dispensed_by" json:"dispensed_by,omitempty"`
	DispensedAt   *time.Time   `db:"dispensed_at" json:"dispensed_at,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}
