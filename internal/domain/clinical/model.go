package clinical

import (
	"time"

	"github.com/google/uuid"

	"github.com/prjwlhere/hospital-management-system/internal/domain/scheduling"
)

// Treatment maps to the treatments table.
type Treatment struct {
	ID            uuid.UUID        `json:"id"`
	AppointmentID uuid.UUID        `json:"appointment_id"`
	DoctorID      uuid.UUID        `json:"doctor_id"`
	Diagnosis     *string          `json:"diagnosis,omitempty"`
	Prescription  *string          `json:"prescription,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
	FollowupDate  *scheduling.Date `json:"followup_date,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type TreatmentInput struct {
	Diagnosis    *string `json:"diagnosis"`
	Prescription *string `json:"prescription"`
	Notes        *string `json:"notes"`
	FollowupDate *string `json:"followup_date"`
}
