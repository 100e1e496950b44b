package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/notify"
)

const (
	defaultDuration = 30
	minDuration     = 15
	maxDuration     = 240

	clinicOpenHour  = 9
	clinicCloseHour = 17
	slotMinutes     = 30
)

// UserLookup resolves account ids to user records for role checks and
// notification addressing. identity.Service satisfies it.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

type Service struct {
	appts    Repository
	users    UserLookup
	notifier *notify.Notifier
}

func NewService(appts Repository, users UserLookup, notifier *notify.Notifier) *Service {
	return &Service{appts: appts, users: users, notifier: notifier}
}

// HasAppointmentBetween satisfies auth.CareChecker.
func (s *Service) HasAppointmentBetween(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	return s.appts.HasAppointmentBetween(ctx, doctorID, patientID)
}

// CreateInput is the booking payload. Patients book for themselves;
// receptionists and admins supply the patient id.
type CreateInput struct {
	PatientID    uuid.UUID  `json:"patient_id"`
	DoctorID     uuid.UUID  `json:"doctor_id" validate:"required"`
	Date         time.Time  `json:"date" validate:"required"`
	Time         string     `json:"time" validate:"required"`
	Type         string     `json:"type" validate:"required"`
	Reason       string     `json:"reason" validate:"required"`
	Symptoms     *string    `json:"symptoms,omitempty"`
	Duration     int        `json:"duration,omitempty"`
	Priority     string     `json:"priority,omitempty"`
	RoomNumber   *string    `json:"room_number,omitempty"`
	FollowUpDate *time.Time `json:"follow_up_date,omitempty"`
}

// Create books an appointment in status pending. Slot collisions are
// not checked; the available-slots endpoint is advisory.
func (s *Service) Create(ctx context.Context, in *CreateInput) (*Appointment, error) {
	if !validTypes[in.Type] {
		return nil, apperr.Validationf("invalid appointment type: %s", in.Type)
	}
	if in.Priority == "" {
		in.Priority = "normal"
	}
	if !validPriorities[in.Priority] {
		return nil, apperr.Validationf("invalid priority: %s", in.Priority)
	}
	if in.Duration == 0 {
		in.Duration = defaultDuration
	}
	if in.Duration < minDuration || in.Duration > maxDuration {
		return nil, apperr.Validationf("duration must be between %d and %d minutes", minDuration, maxDuration)
	}
	if _, err := time.Parse("15:04", in.Time); err != nil {
		return nil, apperr.Validationf("time must be in HH:MM format")
	}

	// Booking is by patient; a patient books for themselves.
	if auth.RoleFromContext(ctx) == auth.RolePatient {
		in.PatientID = auth.UserIDFromContext(ctx)
	}
	if in.PatientID == uuid.Nil {
		return nil, apperr.Validationf("patient_id is required")
	}

	patient, err := s.users.GetUser(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if patient.Role != auth.RolePatient {
		return nil, apperr.Validationf("patient_id must reference a patient account")
	}
	doctor, err := s.users.GetUser(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctor.Role != auth.RoleDoctor {
		return nil, apperr.Validationf("doctor_id must reference a doctor account")
	}

	a := &Appointment{
		PatientID:    in.PatientID,
		DoctorID:     in.DoctorID,
		Date:         in.Date,
		Time:         in.Time,
		Type:         in.Type,
		Status:       StatusPending,
		Reason:       in.Reason,
		Symptoms:     in.Symptoms,
		Duration:     in.Duration,
		Priority:     in.Priority,
		RoomNumber:   in.RoomNumber,
		FollowUpDate: in.FollowUpDate,
		CreatedBy:    auth.UserIDFromContext(ctx),
	}
	if err := s.appts.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canAccess(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// canAccess enforces the mutation matrix: patients and doctors touch
// only their own appointments, admin and receptionist touch any.
func (s *Service) canAccess(ctx context.Context, a *Appointment) error {
	switch auth.RoleFromContext(ctx) {
	case auth.RoleAdmin, auth.RoleReceptionist:
		return nil
	case auth.RolePatient:
		if a.PatientID == auth.UserIDFromContext(ctx) {
			return nil
		}
	case auth.RoleDoctor:
		if a.DoctorID == auth.UserIDFromContext(ctx) {
			return nil
		}
	}
	return apperr.Forbiddenf("not your appointment")
}

// UpdateInput carries an appointment update. A nil field leaves the
// column untouched. Status is the only field open to front-desk roles;
// everything else is the treating doctor's visit record.
type UpdateInput struct {
	Status           *string    `json:"status,omitempty"`
	Diagnosis        *string    `json:"diagnosis,omitempty"`
	Prescription     *string    `json:"prescription,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	RoomNumber       *string    `json:"room_number,omitempty"`
	FollowUpRequired *bool      `json:"follow_up_required,omitempty"`
	FollowUpDate     *time.Time `json:"follow_up_date,omitempty"`
}

// touchesVisitRecord reports whether the update writes anything beyond
// the status field.
func (in *UpdateInput) touchesVisitRecord() bool {
	return in.Diagnosis != nil || in.Prescription != nil || in.Notes != nil ||
		in.RoomNumber != nil || in.FollowUpRequired != nil || in.FollowUpDate != nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in *UpdateInput) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canAccess(ctx, a); err != nil {
		return nil, err
	}
	if in.touchesVisitRecord() && auth.RoleFromContext(ctx) != auth.RoleDoctor {
		return nil, apperr.Forbiddenf("only the treating doctor can record visit details")
	}

	if in.Status != nil && *in.Status != a.Status {
		if !CanTransition(a.Status, *in.Status) {
			return nil, apperr.Validationf("cannot move appointment from %s to %s", a.Status, *in.Status)
		}
		a.Status = *in.Status
	}
	if in.Diagnosis != nil {
		a.Diagnosis = in.Diagnosis
	}
	if in.Prescription != nil {
		a.Prescription = in.Prescription
	}
	if in.Notes != nil {
		a.Notes = in.Notes
	}
	if in.RoomNumber != nil {
		a.RoomNumber = in.RoomNumber
	}
	if in.FollowUpRequired != nil {
		a.FollowUpRequired = *in.FollowUpRequired
	}
	if in.FollowUpDate != nil {
		a.FollowUpDate = in.FollowUpDate
	}

	if err := s.appts.Update(ctx, a); err != nil {
		return nil, err
	}
	if in.Status != nil {
		s.notifyStatus(ctx, a)
	}
	return a, nil
}

// Cancel moves an appointment to cancelled under the same ownership
// rules as any other mutation.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	cancelled := StatusCancelled
	return s.Update(ctx, id, &UpdateInput{Status: &cancelled})
}

func (s *Service) notifyStatus(ctx context.Context, a *Appointment) {
	if !s.notifier.Enabled() {
		return
	}
	patient, err := s.users.GetUser(ctx, a.PatientID)
	if err != nil {
		return
	}
	when := fmt.Sprintf("%s at %s", a.Date.Format("2006-01-02"), a.Time)
	switch a.Status {
	case StatusConfirmed:
		doctor, err := s.users.GetUser(ctx, a.DoctorID)
		if err != nil {
			return
		}
		s.notifier.AppointmentConfirmed(patient.Email, patient.FullName(), doctor.LastName, when)
	case StatusCancelled:
		s.notifier.AppointmentCancelled(patient.Email, patient.FullName(), when)
	}
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	return s.appts.List(ctx, f, limit, offset)
}

// ListOwn lists the authenticated patient's or doctor's appointments.
func (s *Service) ListOwn(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	id := auth.UserIDFromContext(ctx)
	switch auth.RoleFromContext(ctx) {
	case auth.RolePatient:
		f.PatientID = &id
	case auth.RoleDoctor:
		f.DoctorID = &id
	default:
		return nil, 0, apperr.Forbiddenf("no personal appointment list for this role")
	}
	return s.appts.List(ctx, f, limit, offset)
}

// AvailableSlots returns the free 30-minute starts between 09:00 and
// 17:00 for a doctor on a given day. Pending and confirmed bookings
// block a slot; cancelled and no-show ones do not.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	booked, err := s.appts.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(booked))
	for _, t := range booked {
		taken[t] = true
	}

	slots := make([]string, 0, (clinicCloseHour-clinicOpenHour)*60/slotMinutes)
	for hour := clinicOpenHour; hour < clinicCloseHour; hour++ {
		for minute := 0; minute < 60; minute += slotMinutes {
			slot := fmt.Sprintf("%02d:%02d", hour, minute)
			if !taken[slot] {
				slots = append(slots, slot)
			}
		}
	}
	return slots, nil
}

// MyPatients returns the distinct patients a doctor has appointments
// with.
func (s *Service) MyPatients(ctx context.Context) ([]*identity.User, error) {
	doctorID := auth.UserIDFromContext(ctx)
	ids, err := s.appts.DistinctPatientIDs(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	patients := make([]*identity.User, 0, len(ids))
	for _, id := range ids {
		u, err := s.users.GetUser(ctx, id)
		if err != nil {
			continue
		}
		patients = append(patients, u)
	}
	return patients, nil
}
