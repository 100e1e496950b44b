package department

import (
	"time"

	"github.com/google/uuid"
)

// Department maps to the departments table.
type Department struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Description   *string    `db:"description" json:"description,omitempty"`
	HeadDoctorID  *uuid.UUID `db:"head_doctor_id" json:"head_doctor_id,omitempty"`
	ContactNumber *string    `db:"contact_number" json:"contact_number,omitempty"`
	Location      *string    `db:"location" json:"location,omitempty"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}
