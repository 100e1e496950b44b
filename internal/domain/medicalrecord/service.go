package medicalrecord

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/appointment"
	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

// ApptLookup resolves appointments so a record can be tied to a real
// visit.
type ApptLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
}

type Service struct {
	records Repository
	appts   ApptLookup
	care    auth.CareChecker
}

func NewService(records Repository, appts ApptLookup, care auth.CareChecker) *Service {
	return &Service{records: records, appts: appts, care: care}
}

// CreateInput is the doctor's record payload.
type CreateInput struct {
	AppointmentID uuid.UUID  `json:"appointment_id" validate:"required"`
	VisitDate     *time.Time `json:"visit_date,omitempty"`
	Diagnosis     string     `json:"diagnosis" validate:"required"`
	Treatment     *string    `json:"treatment,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

// Create writes a visit record. The calling doctor must own the
// referenced appointment; patient and doctor ids are taken from it,
// never from the client.
func (s *Service) Create(ctx context.Context, in *CreateInput) (*Record, error) {
	doctorID := auth.UserIDFromContext(ctx)

	a, err := s.appts.Get(ctx, in.AppointmentID)
	if err != nil {
		return nil, err
	}
	if a.DoctorID != doctorID {
		return nil, apperr.Forbiddenf("appointment belongs to another doctor")
	}

	visit := a.Date
	if in.VisitDate != nil {
		visit = *in.VisitDate
	}
	rec := &Record{
		PatientID:     a.PatientID,
		DoctorID:      doctorID,
		AppointmentID: a.ID,
		VisitDate:     visit,
		Diagnosis:     in.Diagnosis,
		Treatment:     in.Treatment,
		Notes:         in.Notes,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := auth.CanAccessPatient(ctx, s.care, rec.PatientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbiddenf("no access to this patient's records")
	}
	return rec, nil
}

// UpdateInput edits the clinical fields of a record.
type UpdateInput struct {
	Diagnosis string  `json:"diagnosis" validate:"required"`
	Treatment *string `json:"treatment,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// Update is restricted to the authoring doctor.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in *UpdateInput) (*Record, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.DoctorID != auth.UserIDFromContext(ctx) {
		return nil, apperr.Forbiddenf("record belongs to another doctor")
	}
	rec.Diagnosis = in.Diagnosis
	rec.Treatment = in.Treatment
	rec.Notes = in.Notes
	if err := s.records.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListOwn returns the calling patient's records.
func (s *Service) ListOwn(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	userID := auth.UserIDFromContext(ctx)
	if auth.RoleFromContext(ctx) != auth.RolePatient {
		return nil, 0, apperr.Forbiddenf("no personal record list for this role")
	}
	return s.records.List(ctx, Filter{PatientID: &userID}, limit, offset)
}

// ListForPatient is the staff view, relationship checked for doctors.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	ok, err := auth.CanAccessPatient(ctx, s.care, patientID)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, apperr.Forbiddenf("no access to this patient's records")
	}
	return s.records.List(ctx, Filter{PatientID: &patientID}, limit, offset)
}
