package pharmacy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/inventory"
	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

// UserLookup resolves accounts for role checks.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// Stock is the slice of the inventory repository the dispense flow
// needs. Guarded subtracts keep quantities from going negative.
type Stock interface {
	GetByName(ctx context.Context, name string) (*inventory.Item, error)
	SubtractStock(ctx context.Context, id uuid.UUID, amount int) (*inventory.Item, error)
}

// Biller creates the pharmacy bill once every line has been deducted.
type Biller interface {
	CreateInternal(ctx context.Context, patientID uuid.UUID, items []billing.BillItem, notes string, createdBy uuid.UUID) (*billing.Bill, error)
}

// TxRunner runs fn inside a single database transaction. Production
// wiring delegates to db.WithTx.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	prescriptions Repository
	users         UserLookup
	stock         Stock
	biller        Biller
	care          auth.CareChecker
	tx            TxRunner
}

func NewService(prescriptions Repository, users UserLookup, stock Stock, biller Biller, care auth.CareChecker, tx TxRunner) *Service {
	return &Service{prescriptions: prescriptions, users: users, stock: stock, biller: biller, care: care, tx: tx}
}

// MedicationInput is one prescribed line.
type MedicationInput struct {
	Name      string  `json:"name" validate:"required"`
	Dosage    string  `json:"dosage" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

// CreateInput is the doctor's prescribe payload.
type CreateInput struct {
	PatientID     uuid.UUID         `json:"patient_id" validate:"required"`
	AppointmentID *uuid.UUID        `json:"appointment_id,omitempty"`
	Medications   []MedicationInput `json:"medications" validate:"required,min=1,dive"`
	Instructions  *string           `json:"instructions,omitempty"`
	ValidUntil    *time.Time        `json:"valid_until,omitempty"`
}

// Create writes a prescription authored by the calling doctor. The
// doctor must have an appointment with the patient.
func (s *Service) Create(ctx context.Context, in *CreateInput) (*Prescription, error) {
	doctorID := auth.UserIDFromContext(ctx)

	patient, err := s.users.GetUser(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if patient.Role != auth.RolePatient {
		return nil, apperr.Validationf("user %s is not a patient", in.PatientID)
	}

	ok, err := s.care.HasAppointmentBetween(ctx, doctorID, in.PatientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbiddenf("no treatment relationship with this patient")
	}

	for _, m := range in.Medications {
		if m.Quantity <= 0 {
			return nil, apperr.Validationf("medication %q quantity must be positive", m.Name)
		}
		if m.UnitPrice < 0 {
			return nil, apperr.Validationf("medication %q price cannot be negative", m.Name)
		}
	}
	if in.ValidUntil != nil && in.ValidUntil.Before(time.Now()) {
		return nil, apperr.Validationf("valid until cannot be in the past")
	}

	meds := make([]Medication, 0, len(in.Medications))
	for _, m := range in.Medications {
		meds = append(meds, Medication{Name: m.Name, Dosage: m.Dosage, Quantity: m.Quantity, UnitPrice: m.UnitPrice})
	}
	p := &Prescription{
		PatientID:     in.PatientID,
		DoctorID:      doctorID,
		AppointmentID: in.AppointmentID,
		Medications:   meds,
		Instructions:  in.Instructions,
		Status:        StatusActive,
		ValidUntil:    in.ValidUntil,
	}
	if err := s.prescriptions.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) canAccess(ctx context.Context, p *Prescription) error {
	userID := auth.UserIDFromContext(ctx)
	switch auth.RoleFromContext(ctx) {
	case auth.RoleAdmin, auth.RolePharmacist:
		return nil
	case auth.RolePatient:
		if p.PatientID == userID {
			return nil
		}
	case auth.RoleDoctor:
		if p.DoctorID == userID {
			return nil
		}
	}
	return apperr.Forbiddenf("not your prescription")
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canAccess(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListOwn returns the caller's prescriptions, by patient or by
// prescribing doctor.
func (s *Service) ListOwn(ctx context.Context, status string, limit, offset int) ([]*Prescription, int, error) {
	userID := auth.UserIDFromContext(ctx)
	f := Filter{Status: status}
	switch auth.RoleFromContext(ctx) {
	case auth.RolePatient:
		f.PatientID = &userID
	case auth.RoleDoctor:
		f.DoctorID = &userID
	default:
		return nil, 0, apperr.Forbiddenf("no personal prescription list for this role")
	}
	return s.prescriptions.List(ctx, f, limit, offset)
}

// Pending lists active prescriptions awaiting dispense.
func (s *Service) Pending(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	dispensed := false
	return s.prescriptions.List(ctx, Filter{Status: StatusActive, Dispensed: &dispensed}, limit, offset)
}

// DispenseResult carries what the pharmacist gets back: the completed
// prescription and the bill generated for it.
type DispenseResult struct {
	Prescription *Prescription `json:"prescription"`
	Bill         *billing.Bill `json:"bill"`
}

// Dispense hands out every medication on the prescription in one
// transaction: stock is checked and deducted per line, the
// prescription is marked dispensed, and a pharmacy bill is created.
// Any failure rolls back all of it.
func (s *Service) Dispense(ctx context.Context, id uuid.UUID) (*DispenseResult, error) {
	pharmacistID := auth.UserIDFromContext(ctx)

	var result *DispenseResult
	err := s.tx(ctx, func(ctx context.Context) error {
		p, err := s.prescriptions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.IsDispensed {
			return apperr.Conflictf("prescription already dispensed")
		}
		if p.Status == StatusCancelled {
			return apperr.Validationf("prescription is cancelled")
		}
		if p.ValidUntil != nil && time.Now().After(*p.ValidUntil) {
			return apperr.Validationf("prescription expired on %s", p.ValidUntil.Format("2006-01-02"))
		}

		billItems := make([]billing.BillItem, 0, len(p.Medications))
		for _, med := range p.Medications {
			item, err := s.stock.GetByName(ctx, med.Name)
			if err != nil {
				return err
			}
			if _, err := s.stock.SubtractStock(ctx, item.ID, med.Quantity); err != nil {
				return err
			}
			price := med.UnitPrice
			if price == 0 {
				price = item.UnitPrice
			}
			billItems = append(billItems, billing.BillItem{Name: med.Name, Quantity: med.Quantity, UnitPrice: price})
		}

		now := time.Now()
		p.IsDispensed = true
		p.DispensedBy = &pharmacistID
		p.DispensedAt = &now
		p.Status = StatusCompleted
		if err := s.prescriptions.Update(ctx, p); err != nil {
			return err
		}

		bill, err := s.biller.CreateInternal(ctx, p.PatientID, billItems, "pharmacy dispense", pharmacistID)
		if err != nil {
			return err
		}
		result = &DispenseResult{Prescription: p, Bill: bill}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel voids an undispensed prescription. Only the prescribing
// doctor or an admin may cancel.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	role := auth.RoleFromContext(ctx)
	if role != auth.RoleAdmin && !(role == auth.RoleDoctor && p.DoctorID == auth.UserIDFromContext(ctx)) {
		return nil, apperr.Forbiddenf("not your prescription")
	}
	if p.IsDispensed {
		return nil, apperr.Conflictf("prescription already dispensed")
	}
	if p.Status == StatusCancelled {
		return p, nil
	}
	p.Status = StatusCancelled
	if err := s.prescriptions.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
