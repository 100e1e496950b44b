package identity

import (
	"time"

	"github.com/google/uuid"
)

// User maps to the users table. One row per account regardless of
// role; the role-specific columns are nullable and validated on
// create.
type User struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	FirstName       string     `db:"first_name" json:"first_name"`
	LastName        string     `db:"last_name" json:"last_name"`
	Email           string     `db:"email" json:"email"`
	PasswordHash    string     `db:"password_hash" json:"-"`
	Role            string     `db:"role" json:"role"`
	Phone           *string    `db:"phone" json:"phone,omitempty"`
	DateOfBirth     *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender          *string    `db:"gender" json:"gender,omitempty"`
	BloodGroup      *string    `db:"blood_group" json:"blood_group,omitempty"`
	Address         *string    `db:"address" json:"address,omitempty"`
	Specialization  *string    `db:"specialization" json:"specialization,omitempty"`
	Qualification   *string    `db:"qualification" json:"qualification,omitempty"`
	LicenseNumber   *string    `db:"license_number" json:"license_number,omitempty"`
	Experience      *int       `db:"experience" json:"experience,omitempty"`
	ConsultationFee *float64   `db:"consultation_fee" json:"consultation_fee,omitempty"`
	PharmacyLicense *string    `db:"pharmacy_license" json:"pharmacy_license,omitempty"`
	DepartmentID    *uuid.UUID `db:"department_id" json:"department_id,omitempty"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	LastLogin       *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName is used in notification emails and PDF invoices.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Doctor is the public directory projection of a doctor account.
type Doctor struct {
	ID              uuid.UUID `json:"id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Specialization  string    `json:"specialization"`
	Qualification   *string   `json:"qualification,omitempty"`
	Experience      *int      `json:"experience,omitempty"`
	ConsultationFee *float64  `json:"consultation_fee,omitempty"`
}

// PublicDoctor projects a doctor account for the unauthenticated
// directory listing.
func (u *User) PublicDoctor() Doctor {
	d := Doctor{
		ID:              u.ID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Qualification:   u.Qualification,
		Experience:      u.Experience,
		ConsultationFee: u.ConsultationFee,
	}
	if u.Specialization != nil {
		d.Specialization = *u.Specialization
	}
	return d
}
