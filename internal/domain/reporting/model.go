package reporting

import "time"

// AdminStats is the facility-wide statistics block.
type AdminStats struct {
	TotalUsers           int            `json:"total_users"`
	UsersByRole          map[string]int `json:"users_by_role"`
	TotalAppointments    int            `json:"total_appointments"`
	AppointmentsByStatus map[string]int `json:"appointments_by_status"`
	TotalRevenue         float64        `json:"total_revenue"`
	OutstandingBalance   float64        `json:"outstanding_balance"`
	LowStockItems        int            `json:"low_stock_items"`
}

// FinancialTotals are billing aggregates over a period.
type FinancialTotals struct {
	TotalBilled      float64        `json:"total_billed"`
	TotalCollected   float64        `json:"total_collected"`
	TotalOutstanding float64        `json:"total_outstanding"`
	BillCount        int            `json:"bill_count"`
	BillsByStatus    map[string]int `json:"bills_by_status"`
}

// FinancialReport wraps the totals with the reporting window.
type FinancialReport struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	FinancialTotals
}

// DoctorDashboard is the doctor's landing summary.
type DoctorDashboard struct {
	TodayAppointments   int `json:"today_appointments"`
	PendingAppointments int `json:"pending_appointments"`
	TotalPatients       int `json:"total_patients"`
}

// PatientDashboard is the patient's landing summary.
type PatientDashboard struct {
	UpcomingAppointments int     `json:"upcoming_appointments"`
	ActivePrescriptions  int     `json:"active_prescriptions"`
	OutstandingBalance   float64 `json:"outstanding_balance"`
}

// ReceptionistDashboard is the front desk landing summary.
type ReceptionistDashboard struct {
	TodayAppointments   int `json:"today_appointments"`
	PendingAppointments int `json:"pending_appointments"`
	NewPatientsToday    int `json:"new_patients_today"`
}

// PharmacistDashboard is the pharmacy landing summary.
type PharmacistDashboard struct {
	PendingPrescriptions int `json:"pending_prescriptions"`
	DispensedToday       int `json:"dispensed_today"`
	LowStockItems        int `json:"low_stock_items"`
}
