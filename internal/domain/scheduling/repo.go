package scheduling

import (
	"context"

	"github.com/google/uuid"
)

// SlotRepository persists availability slots. Lookups return db.ErrNotFound.
type SlotRepository interface {
	Create(ctx context.Context, s *Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	List(ctx context.Context, q SlotQuery) ([]*Slot, error)
	// Claim locks a slot that is active and not linked to any appointment.
	// It leaves is_active alone: that flag belongs to the doctor, and the
	// appointment link alone marks a slot as taken. db.ErrNotFound means the
	// slot is missing, withdrawn or already linked.
	Claim(ctx context.Context, id uuid.UUID) (*Slot, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	// Delete removes a slot only while no appointment references it.
	// db.ErrNotFound means it is missing or still referenced.
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error
}

// AppointmentRepository persists appointments and their status history.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetBySlot(ctx context.Context, slotID uuid.UUID) (*Appointment, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	// CompareAndSetStatus moves the appointment to to only while its status
	// is still from. db.ErrNotFound means no row matched.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
	UnlinkSlot(ctx context.Context, id uuid.UUID) error
	DeleteByPatient(ctx context.Context, patientID uuid.UUID) error
	DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error

	AppendHistory(ctx context.Context, h *HistoryEntry) error
	History(ctx context.Context, appointmentID uuid.UUID) ([]*HistoryEntry, error)
}
