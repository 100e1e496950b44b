package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/cache"
)

const (
	bcryptCost      = 12
	maxAgeYears     = 120
	doctorsCacheKey = "doctors:directory"
	doctorsCacheTTL = 5 * time.Minute
)

type Service struct {
	users  Repository
	issuer *auth.Issuer
	cache  *cache.Cache
}

func NewService(users Repository, issuer *auth.Issuer, c *cache.Cache) *Service {
	return &Service{users: users, issuer: issuer, cache: c}
}

// AccountByID satisfies auth.AccountLoader so the token middleware can
// resolve the live account behind a bearer token.
func (s *Service) AccountByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &auth.Account{ID: u.ID, Role: u.Role, Active: u.IsActive}, nil
}

// RegisterInput carries the registration payload. Role-specific fields
// are validated in Register, not by struct tags.
type RegisterInput struct {
	FirstName       string     `json:"first_name" validate:"required"`
	LastName        string     `json:"last_name" validate:"required"`
	Email           string     `json:"email" validate:"required,email"`
	Password        string     `json:"password" validate:"required,min=6"`
	Role            string     `json:"role" validate:"required"`
	Phone           *string    `json:"phone,omitempty"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	Gender          *string    `json:"gender,omitempty"`
	BloodGroup      *string    `json:"blood_group,omitempty"`
	Address         *string    `json:"address,omitempty"`
	Specialization  *string    `json:"specialization,omitempty"`
	Qualification   *string    `json:"qualification,omitempty"`
	LicenseNumber   *string    `json:"license_number,omitempty"`
	Experience      *int       `json:"experience,omitempty"`
	ConsultationFee *float64   `json:"consultation_fee,omitempty"`
	PharmacyLicense *string    `json:"pharmacy_license,omitempty"`
	DepartmentID    *uuid.UUID `json:"department_id,omitempty"`
}

func (s *Service) validateRoleFields(in *RegisterInput) error {
	if !auth.IsValidRole(in.Role) {
		return apperr.Validationf("invalid role: %s", in.Role)
	}
	switch in.Role {
	case auth.RoleDoctor:
		if in.Specialization == nil || *in.Specialization == "" {
			return apperr.Validationf("specialization is required for doctors")
		}
		if in.LicenseNumber == nil || *in.LicenseNumber == "" {
			return apperr.Validationf("license_number is required for doctors")
		}
	case auth.RolePharmacist:
		if in.PharmacyLicense == nil || *in.PharmacyLicense == "" {
			return apperr.Validationf("pharmacy_license is required for pharmacists")
		}
	}
	if in.DateOfBirth != nil {
		now := time.Now()
		if in.DateOfBirth.After(now) {
			return apperr.Validationf("date of birth cannot be in the future")
		}
		if in.DateOfBirth.Before(now.AddDate(-maxAgeYears, 0, 0)) {
			return apperr.Validationf("date of birth is more than %d years ago", maxAgeYears)
		}
	}
	return nil
}

func (s *Service) createUser(ctx context.Context, in *RegisterInput) (*User, error) {
	if err := s.validateRoleFields(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Email:           strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash:    string(hash),
		Role:            in.Role,
		Phone:           in.Phone,
		DateOfBirth:     in.DateOfBirth,
		Gender:          in.Gender,
		BloodGroup:      in.BloodGroup,
		Address:         in.Address,
		Specialization:  in.Specialization,
		Qualification:   in.Qualification,
		LicenseNumber:   in.LicenseNumber,
		Experience:      in.Experience,
		ConsultationFee: in.ConsultationFee,
		PharmacyLicense: in.PharmacyLicense,
		DepartmentID:    in.DepartmentID,
		IsActive:        true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	if u.Role == auth.RoleDoctor {
		_ = s.cache.Invalidate(ctx, doctorsCacheKey)
	}
	return u, nil
}

// Register creates an account via the public endpoint. Admin accounts
// can only be provisioned by an existing admin through CreateUser.
func (s *Service) Register(ctx context.Context, in *RegisterInput) (*User, error) {
	if in.Role == auth.RoleAdmin {
		return nil, apperr.Validationf("invalid role: %s", in.Role)
	}
	return s.createUser(ctx, in)
}

// CreateUser creates an account on behalf of an admin; any role is
// allowed.
func (s *Service) CreateUser(ctx context.Context, in *RegisterInput) (*User, error) {
	return s.createUser(ctx, in)
}

// Login verifies the credentials and returns a signed token with the
// account. Deactivated accounts and unknown emails report the same
// authentication failure.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", nil, apperr.Authf("invalid email or password")
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperr.Authf("invalid email or password")
	}
	if !u.IsActive {
		return "", nil, apperr.Authf("account is deactivated")
	}

	token, err := s.issuer.Sign(u.ID, u.Role)
	if err != nil {
		return "", nil, err
	}
	if err := s.users.RecordLogin(ctx, u.ID); err != nil {
		return "", nil, err
	}
	now := time.Now()
	u.LastLogin = &now
	return token, u, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// ProfileInput is the self-service profile update payload.
type ProfileInput struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in *ProfileInput) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.FirstName = strings.TrimSpace(in.FirstName)
	u.LastName = strings.TrimSpace(in.LastName)
	u.Email = strings.ToLower(strings.TrimSpace(in.Email))
	u.Phone = in.Phone
	u.Address = in.Address
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	if u.Role == auth.RoleDoctor {
		_ = s.cache.Invalidate(ctx, doctorsCacheKey)
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	if len(next) < 6 {
		return apperr.Validationf("new password must be at least 6 characters")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return apperr.Authf("current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id, string(hash))
}

// AdminUpdateInput is the admin-side account update payload. Role is
// deliberately absent: a role never changes after creation.
type AdminUpdateInput struct {
	FirstName       string     `json:"first_name" validate:"required"`
	LastName        string     `json:"last_name" validate:"required"`
	Email           string     `json:"email" validate:"required,email"`
	Phone           *string    `json:"phone,omitempty"`
	Address         *string    `json:"address,omitempty"`
	Specialization  *string    `json:"specialization,omitempty"`
	Qualification   *string    `json:"qualification,omitempty"`
	Experience      *int       `json:"experience,omitempty"`
	ConsultationFee *float64   `json:"consultation_fee,omitempty"`
	DepartmentID    *uuid.UUID `json:"department_id,omitempty"`
}

func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, in *AdminUpdateInput) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.FirstName = strings.TrimSpace(in.FirstName)
	u.LastName = strings.TrimSpace(in.LastName)
	u.Email = strings.ToLower(strings.TrimSpace(in.Email))
	u.Phone = in.Phone
	u.Address = in.Address
	if in.Specialization != nil {
		u.Specialization = in.Specialization
	}
	if in.Qualification != nil {
		u.Qualification = in.Qualification
	}
	if in.Experience != nil {
		u.Experience = in.Experience
	}
	if in.ConsultationFee != nil {
		u.ConsultationFee = in.ConsultationFee
	}
	if in.DepartmentID != nil {
		u.DepartmentID = in.DepartmentID
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	if u.Role == auth.RoleDoctor {
		_ = s.cache.Invalidate(ctx, doctorsCacheKey)
	}
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context, f ListFilter, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, f, limit, offset)
}

// DeactivateUser soft deletes an account; the row survives so history
// referencing it stays intact.
func (s *Service) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	if err := s.users.SetActive(ctx, id, false); err != nil {
		return err
	}
	_ = s.cache.Invalidate(ctx, doctorsCacheKey)
	return nil
}

func (s *Service) ActivateUser(ctx context.Context, id uuid.UUID) error {
	if err := s.users.SetActive(ctx, id, true); err != nil {
		return err
	}
	_ = s.cache.Invalidate(ctx, doctorsCacheKey)
	return nil
}

// Doctors returns the active doctor directory, served from Redis when
// a warm copy exists.
func (s *Service) Doctors(ctx context.Context) ([]Doctor, error) {
	var cached []Doctor
	if err := s.cache.Get(ctx, doctorsCacheKey, &cached); err == nil {
		return cached, nil
	}

	users, err := s.users.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}
	doctors := make([]Doctor, 0, len(users))
	for _, u := range users {
		doctors = append(doctors, u.PublicDoctor())
	}
	_ = s.cache.Set(ctx, doctorsCacheKey, doctors, doctorsCacheTTL)
	return doctors, nil
}
