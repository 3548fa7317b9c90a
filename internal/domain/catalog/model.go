package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Specialization maps to the specializations table.
type Specialization struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DoctorSpecialization links a doctor profile to a specialization.
type DoctorSpecialization struct {
	ID               uuid.UUID `json:"id"`
	DoctorID         uuid.UUID `json:"doctor_id"`
	SpecializationID uuid.UUID `json:"specialization_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// Doctor is the public listing row: profile, account name and the names of
// the linked specializations.
type Doctor struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Username        string    `json:"username"`
	FullName        *string   `json:"full_name,omitempty"`
	Bio             *string   `json:"bio,omitempty"`
	Qualification   *string   `json:"qualification,omitempty"`
	ConsultationFee *int      `json:"consultation_fee,omitempty"`
	Specializations []string  `json:"specializations"`
}

type SpecializationInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}
