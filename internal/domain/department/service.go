package department

import (
	"context"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

// UserLookup resolves accounts so a head doctor assignment can be
// verified.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

type Service struct {
	departments Repository
	users       UserLookup
}

func NewService(departments Repository, users UserLookup) *Service {
	return &Service{departments: departments, users: users}
}

// Input covers both create and update payloads.
type Input struct {
	Name          string     `json:"name" validate:"required"`
	Description   *string    `json:"description,omitempty"`
	HeadDoctorID  *uuid.UUID `json:"head_doctor_id,omitempty"`
	ContactNumber *string    `json:"contact_number,omitempty"`
	Location      *string    `json:"location,omitempty"`
}

func (s *Service) checkHeadDoctor(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	u, err := s.users.GetUser(ctx, *id)
	if err != nil {
		return err
	}
	if u.Role != auth.RoleDoctor {
		return apperr.Validationf("head of department must be a doctor")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in *Input) (*Department, error) {
	if err := s.checkHeadDoctor(ctx, in.HeadDoctorID); err != nil {
		return nil, err
	}
	d := &Department{
		Name:          in.Name,
		Description:   in.Description,
		HeadDoctorID:  in.HeadDoctorID,
		ContactNumber: in.ContactNumber,
		Location:      in.Location,
		IsActive:      true,
	}
	if err := s.departments.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Department, error) {
	return s.departments.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in *Input) (*Department, error) {
	if err := s.checkHeadDoctor(ctx, in.HeadDoctorID); err != nil {
		return nil, err
	}
	d, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Name = in.Name
	d.Description = in.Description
	d.HeadDoctorID = in.HeadDoctorID
	d.ContactNumber = in.ContactNumber
	d.Location = in.Location
	if err := s.departments.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// List returns active departments only; admins may include inactive
// ones.
func (s *Service) List(ctx context.Context, includeInactive bool, limit, offset int) ([]*Department, int, error) {
	if includeInactive && auth.RoleFromContext(ctx) != auth.RoleAdmin {
		includeInactive = false
	}
	return s.departments.List(ctx, !includeInactive, limit, offset)
}

// Delete soft deletes a department.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.departments.SetActive(ctx, id, false)
}
