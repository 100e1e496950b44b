package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

type mockRepo struct {
	users   map[uuid.UUID]*User
	byEmail map[string]uuid.UUID
	logins  int
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[uuid.UUID]*User), byEmail: make(map[string]uuid.UUID)}
}

func (m *mockRepo) Create(ctx context.Context, u *User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return apperr.Conflictf("email already registered")
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFoundf("user not found")
	}
	return u, nil
}

func (m *mockRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	id, ok := m.byEmail[email]
	if !ok {
		return nil, apperr.NotFoundf("user not found")
	}
	return m.users[id], nil
}

func (m *mockRepo) Update(ctx context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return apperr.NotFoundf("user not found")
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return apperr.NotFoundf("user not found")
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return apperr.NotFoundf("user not found")
	}
	u.IsActive = active
	return nil
}

func (m *mockRepo) RecordLogin(ctx context.Context, id uuid.UUID) error {
	m.logins++
	now := time.Now()
	m.users[id].LastLogin = &now
	return nil
}

func (m *mockRepo) List(ctx context.Context, f ListFilter, limit, offset int) ([]*User, int, error) {
	var items []*User
	for _, u := range m.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		items = append(items, u)
	}
	return items, len(items), nil
}

func (m *mockRepo) ListDoctors(ctx context.Context) ([]*User, error) {
	var items []*User
	for _, u := range m.users {
		if u.Role == auth.RoleDoctor && u.IsActive {
			items = append(items, u)
		}
	}
	return items, nil
}

func newTestService(repo *mockRepo) *Service {
	issuer := auth.NewIssuer([]byte("test-secret-key-for-tests"), time.Hour)
	return NewService(repo, issuer, nil)
}

func strPtr(s string) *string { return &s }

func patientInput() *RegisterInput {
	return &RegisterInput{
		FirstName: "Jane",
		LastName:  "Roe",
		Email:     "Jane.Roe@Example.com",
		Password:  "secret123",
		Role:      auth.RolePatient,
	}
}

func TestService_Register_Patient(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	u, err := svc.Register(context.Background(), patientInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Email != "jane.roe@example.com" {
		t.Errorf("expected lowercased email, got %s", u.Email)
	}
	if !u.IsActive {
		t.Error("expected new account to be active")
	}
	if u.PasswordHash == "secret123" || u.PasswordHash == "" {
		t.Error("password was not hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestService_Register_DoctorRequiresLicense(t *testing.T) {
	svc := newTestService(newMockRepo())

	in := patientInput()
	in.Role = auth.RoleDoctor
	in.Specialization = strPtr("cardiology")

	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "license_number") {
		t.Errorf("error should name the missing field: %v", err)
	}
}

func TestService_Register_PharmacistRequiresLicense(t *testing.T) {
	svc := newTestService(newMockRepo())

	in := patientInput()
	in.Role = auth.RolePharmacist

	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_Register_FutureDateOfBirth(t *testing.T) {
	svc := newTestService(newMockRepo())

	in := patientInput()
	dob := time.Now().AddDate(1, 0, 0)
	in.DateOfBirth = &dob

	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "date of birth") {
		t.Errorf("error should cite date of birth: %v", err)
	}
}

func TestService_Register_AdminRejected(t *testing.T) {
	svc := newTestService(newMockRepo())

	in := patientInput()
	in.Role = auth.RoleAdmin

	if _, err := svc.Register(context.Background(), in); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_CreateUser_AdminAllowed(t *testing.T) {
	svc := newTestService(newMockRepo())

	in := patientInput()
	in.Role = auth.RoleAdmin

	u, err := svc.CreateUser(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Role != auth.RoleAdmin {
		t.Errorf("expected admin role, got %s", u.Role)
	}
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	svc := newTestService(newMockRepo())

	if _, err := svc.Register(context.Background(), patientInput()); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	_, err := svc.Register(context.Background(), patientInput())
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestService_Login(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	u, err := svc.Register(context.Background(), patientInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	token, got, err := svc.Login(context.Background(), "jane.roe@example.com", "secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("expected user %s, got %s", u.ID, got.ID)
	}
	if got.LastLogin == nil {
		t.Error("expected last login to be stamped")
	}
	if repo.logins != 1 {
		t.Errorf("expected 1 recorded login, got %d", repo.logins)
	}

	issuer := auth.NewIssuer([]byte("test-secret-key-for-tests"), time.Hour)
	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.Subject != u.ID.String() {
		t.Errorf("token subject %s, want %s", claims.Subject, u.ID)
	}
	if claims.Role != auth.RolePatient {
		t.Errorf("token role %s, want patient", claims.Role)
	}
}

func TestService_Login_WrongPassword(t *testing.T) {
	svc := newTestService(newMockRepo())

	if _, err := svc.Register(context.Background(), patientInput()); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := svc.Login(context.Background(), "jane.roe@example.com", "wrong")
	if !errors.Is(err, apperr.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestService_Login_UnknownEmail(t *testing.T) {
	svc := newTestService(newMockRepo())

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "secret123")
	if !errors.Is(err, apperr.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestService_Login_DeactivatedAccount(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	u, err := svc.Register(context.Background(), patientInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.DeactivateUser(context.Background(), u.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, _, err = svc.Login(context.Background(), "jane.roe@example.com", "secret123")
	if !errors.Is(err, apperr.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if repo.logins != 0 {
		t.Errorf("expected no recorded login, got %d", repo.logins)
	}
}

func TestService_ChangePassword(t *testing.T) {
	svc := newTestService(newMockRepo())

	u, err := svc.Register(context.Background(), patientInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), u.ID, "wrong", "newsecret"); !errors.Is(err, apperr.ErrAuthentication) {
		t.Fatalf("expected authentication error for wrong current password, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), u.ID, "secret123", "tiny"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), u.ID, "secret123", "newsecret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "jane.roe@example.com", "newsecret"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
}

func TestService_AccountByID(t *testing.T) {
	svc := newTestService(newMockRepo())

	u, err := svc.Register(context.Background(), patientInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	acct, err := svc.AccountByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.ID != u.ID || acct.Role != auth.RolePatient || !acct.Active {
		t.Errorf("unexpected account %+v", acct)
	}

	if _, err := svc.AccountByID(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_Doctors(t *testing.T) {
	svc := newTestService(newMockRepo())

	in := patientInput()
	in.Email = "doc@example.com"
	in.Role = auth.RoleDoctor
	in.Specialization = strPtr("cardiology")
	in.LicenseNumber = strPtr("LIC-100")
	doc, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("register doctor: %v", err)
	}
	if _, err := svc.Register(context.Background(), patientInput()); err != nil {
		t.Fatalf("register patient: %v", err)
	}

	doctors, err := svc.Doctors(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doctors) != 1 {
		t.Fatalf("expected 1 doctor, got %d", len(doctors))
	}
	if doctors[0].ID != doc.ID || doctors[0].Specialization != "cardiology" {
		t.Errorf("unexpected directory entry %+v", doctors[0])
	}
}
