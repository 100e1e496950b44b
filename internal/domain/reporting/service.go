package reporting

import (
	"context"
	"time"

	"github.com/hms/hms/internal/platform/auth"
)

type Service struct {
	stats Repository
}

func NewService(stats Repository) *Service {
	return &Service{stats: stats}
}

// AdminStats builds the facility-wide statistics block.
func (s *Service) AdminStats(ctx context.Context) (*AdminStats, error) {
	byRole, err := s.stats.CountUsersByRole(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.stats.CountAppointmentsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.stats.BillingTotals(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.stats.CountLowStock(ctx)
	if err != nil {
		return nil, err
	}

	out := &AdminStats{
		UsersByRole:          byRole,
		AppointmentsByStatus: byStatus,
		TotalRevenue:         totals.TotalCollected,
		OutstandingBalance:   totals.TotalOutstanding,
		LowStockItems:        lowStock,
	}
	for _, n := range byRole {
		out.TotalUsers += n
	}
	for _, n := range byStatus {
		out.TotalAppointments += n
	}
	return out, nil
}

// Financial builds a billing report over [from, to]. Zero times mean
// an unbounded side.
func (s *Service) Financial(ctx context.Context, from, to time.Time) (*FinancialReport, error) {
	var fromP, toP *time.Time
	if !from.IsZero() {
		fromP = &from
	}
	if !to.IsZero() {
		toP = &to
	}
	totals, err := s.stats.BillingTotals(ctx, fromP, toP)
	if err != nil {
		return nil, err
	}
	return &FinancialReport{From: from, To: to, FinancialTotals: *totals}, nil
}

// DoctorDashboard summarizes the calling doctor's day.
func (s *Service) DoctorDashboard(ctx context.Context) (*DoctorDashboard, error) {
	doctorID := auth.UserIDFromContext(ctx)
	today := time.Now()

	todayCount, err := s.stats.CountAppointmentsOn(ctx, today, &doctorID)
	if err != nil {
		return nil, err
	}
	pending, err := s.stats.CountPendingAppointments(ctx, &doctorID)
	if err != nil {
		return nil, err
	}
	patients, err := s.stats.CountDistinctPatients(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return &DoctorDashboard{
		TodayAppointments:   todayCount,
		PendingAppointments: pending,
		TotalPatients:       patients,
	}, nil
}

// PatientDashboard summarizes the calling patient's standing.
func (s *Service) PatientDashboard(ctx context.Context) (*PatientDashboard, error) {
	patientID := auth.UserIDFromContext(ctx)

	upcoming, err := s.stats.CountUpcomingAppointments(ctx, patientID)
	if err != nil {
		return nil, err
	}
	active, err := s.stats.CountActivePrescriptions(ctx, patientID)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.stats.PatientOutstanding(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &PatientDashboard{
		UpcomingAppointments: upcoming,
		ActivePrescriptions:  active,
		OutstandingBalance:   outstanding,
	}, nil
}

// ReceptionistDashboard summarizes the front desk's day.
func (s *Service) ReceptionistDashboard(ctx context.Context) (*ReceptionistDashboard, error) {
	today := time.Now()

	todayCount, err := s.stats.CountAppointmentsOn(ctx, today, nil)
	if err != nil {
		return nil, err
	}
	pending, err := s.stats.CountPendingAppointments(ctx, nil)
	if err != nil {
		return nil, err
	}
	registered, err := s.stats.CountRegistrationsOn(ctx, today)
	if err != nil {
		return nil, err
	}
	return &ReceptionistDashboard{
		TodayAppointments:   todayCount,
		PendingAppointments: pending,
		NewPatientsToday:    registered,
	}, nil
}

// PharmacistDashboard summarizes the pharmacy queue.
func (s *Service) PharmacistDashboard(ctx context.Context) (*PharmacistDashboard, error) {
	pending, err := s.stats.CountPendingPrescriptions(ctx)
	if err != nil {
		return nil, err
	}
	dispensed, err := s.stats.CountDispensedOn(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	lowStock, err := s.stats.CountLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return &PharmacistDashboard{
		PendingPrescriptions: pending,
		DispensedToday:       dispensed,
		LowStockItems:        lowStock,
	}, nil
}
