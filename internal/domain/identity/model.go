package identity

import (
	"time"

	"github.com/google/uuid"
)

// Account maps to the users table.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	FullName     *string   `json:"full_name,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	IsActive     bool      `json:"is_active"`
	Blacklisted  bool      `json:"blacklisted"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Active reports whether the account may sign in and act.
func (a *Account) Active() bool {
	return a.IsActive && !a.Blacklisted
}

// Name is the stored full name, empty when none was given.
func (a *Account) Name() string {
	if a.FullName == nil {
		return ""
	}
	return *a.FullName
}

// DoctorProfile maps to the doctor_profiles table.
type DoctorProfile struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Bio             *string   `json:"bio,omitempty"`
	Qualification   *string   `json:"qualification,omitempty"`
	ConsultationFee *int      `json:"consultation_fee,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PatientProfile maps to the patient_profiles table.
type PatientProfile struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	DOB              *time.Time `json:"dob,omitempty"`
	Gender           *string    `json:"gender,omitempty"`
	Address          *string    `json:"address,omitempty"`
	EmergencyContact *string    `json:"emergency_contact,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type RegisterInput struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}

type ProfileUpdate struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
}

type DoctorInput struct {
	RegisterInput
	Bio             *string `json:"bio"`
	Qualification   *string `json:"qualification"`
	ConsultationFee *int    `json:"consultation_fee"`
}

type DoctorProfileUpdate struct {
	Bio             *string `json:"bio"`
	Qualification   *string `json:"qualification"`
	ConsultationFee *int    `json:"consultation_fee"`
}

type PatientProfileUpdate struct {
	DOB              *string `json:"dob"`
	Gender           *string `json:"gender"`
	Address          *string `json:"address"`
	EmergencyContact *string `json:"emergency_contact"`
}

// Counts feeds the admin dashboard. Inactive includes blacklisted accounts.
type Counts struct {
	Total    int `json:"total_users"`
	Active   int `json:"active_users"`
	Inactive int `json:"inactive_users"`
}

// Credential is the result of a successful login.
type Credential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Account   *Account  `json:"user"`
}

// Owner names the rows an account owns in other packages.
type Owner struct {
	AccountID uuid.UUID
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
}

const dateLayout = "2006-01-02"
