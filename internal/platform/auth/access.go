package auth

import (
	"context"

	"github.com/google/uuid"
)

// CareChecker answers whether a doctor has a treatment relationship with a
// patient. The check is evaluated against live appointment data on every
// request, so a relationship ends when its appointments are gone.
type CareChecker interface {
	HasAppointmentBetween(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error)
}

// CanAccessPatient reports whether the authenticated account may read the
// given patient's records. Patients see themselves; doctors need an existing
// appointment with the patient; admin, receptionist, and nurse have
// facility-wide access.
func CanAccessPatient(ctx context.Context, checker CareChecker, patientID uuid.UUID) (bool, error) {
	switch RoleFromContext(ctx) {
	case RoleAdmin, RoleReceptionist, RoleNurse:
		return true, nil
	case RolePatient:
		return UserIDFromContext(ctx) == patientID, nil
	case RoleDoctor:
		return checker.HasAppointmentBetween(ctx, UserIDFromContext(ctx), patientID)
	default:
		return false, nil
	}
}
