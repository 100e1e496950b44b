package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository runs the aggregate queries behind dashboards and reports.
type Repository interface {
	CountUsersByRole(ctx context.Context) (map[string]int, error)
	CountRegistrationsOn(ctx context.Context, day time.Time) (int, error)

	CountAppointmentsByStatus(ctx context.Context) (map[string]int, error)
	CountAppointmentsOn(ctx context.Context, day time.Time, doctorID *uuid.UUID) (int, error)
	CountPendingAppointments(ctx context.Context, doctorID *uuid.UUID) (int, error)
	CountUpcomingAppointments(ctx context.Context, patientID uuid.UUID) (int, error)
	CountDistinctPatients(ctx context.Context, doctorID uuid.UUID) (int, error)

	BillingTotals(ctx context.Context, from, to *time.Time) (*FinancialTotals, error)
	PatientOutstanding(ctx context.Context, patientID uuid.UUID) (float64, error)

	CountActivePrescriptions(ctx context.Context, patientID uuid.UUID) (int, error)
	CountPendingPrescriptions(ctx context.Context) (int, error)
	CountDispensedOn(ctx context.Context, day time.Time) (int, error)

	CountLowStock(ctx context.Context) (int, error)
}
