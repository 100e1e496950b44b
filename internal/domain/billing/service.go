package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/notify"
	"github.com/hms/hms/internal/platform/pdfgen"
)

// UserLookup resolves patient accounts for access checks, receipts,
// and PDF rendering. identity.Service satisfies it.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

type Service struct {
	bills    Repository
	users    UserLookup
	notifier *notify.Notifier
}

func NewService(bills Repository, users UserLookup, notifier *notify.Notifier) *Service {
	return &Service{bills: bills, users: users, notifier: notifier}
}

// CreateInput is the bill creation payload.
type CreateInput struct {
	PatientID     uuid.UUID  `json:"patient_id" validate:"required"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	Items         []BillItem `json:"items" validate:"required,min=1,dive"`
	Tax           float64    `json:"tax"`
	Discount      float64    `json:"discount"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

func (s *Service) Create(ctx context.Context, in *CreateInput) (*Bill, error) {
	if len(in.Items) == 0 {
		return nil, apperr.Validationf("a bill needs at least one item")
	}
	for _, it := range in.Items {
		if it.Name == "" {
			return nil, apperr.Validationf("item name is required")
		}
		if it.Quantity <= 0 {
			return nil, apperr.Validationf("item %q: quantity must be positive", it.Name)
		}
		if it.UnitPrice < 0 {
			return nil, apperr.Validationf("item %q: unit price cannot be negative", it.Name)
		}
	}
	if in.Tax < 0 || in.Discount < 0 {
		return nil, apperr.Validationf("tax and discount cannot be negative")
	}

	patient, err := s.users.GetUser(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if patient.Role != auth.RolePatient {
		return nil, apperr.Validationf("patient_id must reference a patient account")
	}

	number, err := s.bills.NextBillNumber(ctx)
	if err != nil {
		return nil, err
	}

	b := &Bill{
		PatientID:     in.PatientID,
		AppointmentID: in.AppointmentID,
		BillNumber:    number,
		BillDate:      time.Now(),
		DueDate:       in.DueDate,
		Items:         in.Items,
		Tax:           in.Tax,
		Discount:      in.Discount,
		Notes:         in.Notes,
		CreatedBy:     auth.UserIDFromContext(ctx),
	}
	b.Recompute()
	if b.TotalAmount < 0 {
		return nil, apperr.Validationf("discount exceeds the billed amount")
	}
	if err := s.bills.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Get returns a bill after checking access: patients read only their
// own bills, staff roles read any.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if auth.RoleFromContext(ctx) == auth.RolePatient && b.PatientID != auth.UserIDFromContext(ctx) {
		return nil, apperr.Forbiddenf("not your bill")
	}
	return b, nil
}

// RecordPayment applies a payment to a bill. Payments that would push
// the balance below zero are rejected.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, amount float64, method string) (*Bill, error) {
	if amount <= 0 {
		return nil, apperr.Validationf("payment amount must be positive")
	}
	b, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if amount > b.Balance {
		return nil, apperr.Paymentf("payment of %.2f exceeds outstanding balance %.2f", amount, b.Balance)
	}

	b.PaidAmount += amount
	if method != "" {
		b.PaymentMethod = &method
	}
	b.Recompute()
	if err := s.bills.UpdatePayment(ctx, b); err != nil {
		return nil, err
	}

	if s.notifier.Enabled() {
		if patient, err := s.users.GetUser(ctx, b.PatientID); err == nil {
			s.notifier.PaymentReceived(patient.Email, b.BillNumber, amount, b.Balance)
		}
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Bill, int, error) {
	return s.bills.List(ctx, f, limit, offset)
}

// ListOwn lists the authenticated patient's bills.
func (s *Service) ListOwn(ctx context.Context, limit, offset int) ([]*Bill, int, error) {
	id := auth.UserIDFromContext(ctx)
	return s.bills.List(ctx, Filter{PatientID: &id}, limit, offset)
}

// InvoicePDF renders a bill as a printable invoice, under the same
// access rule as Get.
func (s *Service) InvoicePDF(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	patient, err := s.users.GetUser(ctx, b.PatientID)
	if err != nil {
		return nil, "", err
	}

	inv := pdfgen.Invoice{
		BillNumber:  b.BillNumber,
		PatientName: patient.FullName(),
		IssuedAt:    b.BillDate,
		Subtotal:    b.Subtotal,
		Tax:         b.Tax,
		Discount:    b.Discount,
		Total:       b.TotalAmount,
		Paid:        b.PaidAmount,
		Balance:     b.Balance,
		Status:      b.Status,
	}
	for _, it := range b.Items {
		inv.Lines = append(inv.Lines, pdfgen.InvoiceLine{
			Description: it.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	data, err := pdfgen.Render(inv)
	if err != nil {
		return nil, "", err
	}
	return data, b.BillNumber + ".pdf", nil
}

// CreateInternal creates a bill from another service, typically the
// pharmacy dispense flow running inside a transaction. No role checks
// are applied; the caller is trusted.
func (s *Service) CreateInternal(ctx context.Context, patientID uuid.UUID, items []BillItem, notes string, createdBy uuid.UUID) (*Bill, error) {
	number, err := s.bills.NextBillNumber(ctx)
	if err != nil {
		return nil, err
	}
	b := &Bill{
		PatientID:  patientID,
		BillNumber: number,
		BillDate:   time.Now(),
		Items:      items,
		Notes:      &notes,
		CreatedBy:  createdBy,
	}
	b.Recompute()
	if err := s.bills.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}
