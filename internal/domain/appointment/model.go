package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment maps to the appointments table. Date holds the calendar
// day and Time the HH:MM start of the visit.
type Appointment struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	PatientID        uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID         uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	Date             time.Time  `db:"date" json:"date"`
	Time             string     `db:"time" json:"time"`
	Type             string     `db:"type" json:"type"`
	Status           string     `db:"status" json:"status"`
	Reason           string     `db:"reason" json:"reason"`
	Symptoms         *string    `db:"symptoms" json:"symptoms,omitempty"`
	Diagnosis        *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	Prescription     *string    `db:"prescription" json:"prescription,omitempty"`
	Notes            *string    `db:"notes" json:"notes,omitempty"`
	Duration         int        `db:"duration" json:"duration"`
	Priority         string     `db:"priority" json:"priority"`
	RoomNumber       *string    `db:"room_number" json:"room_number,omitempty"`
	FollowUpRequired bool       `db:"follow_up_required" json:"follow_up_required"`
	FollowUpDate     *time.Time `db:"follow_up_date" json:"follow_up_date,omitempty"`
	CreatedBy        uuid.UUID  `db:"created_by" json:"created_by"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
)

var validTypes = map[string]bool{
	"consultation": true, "checkup": true, "surgery": true,
	"followup": true, "emergency": true, "routine": true,
}

var validPriorities = map[string]bool{
	"low": true, "normal": true, "high": true, "urgent": true,
}

// transitions lists the statuses reachable from each current status.
// completed, cancelled, and no-show are terminal.
var transitions = map[string]map[string]bool{
	StatusPending: {
		StatusConfirmed: true,
		StatusCancelled: true,
		StatusNoShow:    true,
	},
	StatusConfirmed: {
		StatusCompleted: true,
		StatusCancelled: true,
		StatusNoShow:    true,
	},
}

// CanTransition reports whether an appointment may move from one
// status to another.
func CanTransition(from, to string) bool {
	return transitions[from][to]
}
