package clinical

import (
	"context"

	"github.com/google/uuid"
)

type TreatmentRepository interface {
	Create(ctx context.Context, t *Treatment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error)
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*Treatment, error)
	DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error
	// DeleteByPatient removes treatments on any of the patient's appointments.
	DeleteByPatient(ctx context.Context, patientID uuid.UUID) error
}
