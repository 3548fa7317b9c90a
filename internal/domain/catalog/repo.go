package catalog

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateSpecialization(ctx context.Context, s *Specialization) error
	GetSpecialization(ctx context.Context, id uuid.UUID) (*Specialization, error)
	ListSpecializations(ctx context.Context) ([]*Specialization, error)

	LinkDoctor(ctx context.Context, link *DoctorSpecialization) error
	// UnlinkDoctor returns db.ErrNotFound when no such link exists.
	UnlinkDoctor(ctx context.Context, doctorID, specializationID uuid.UUID) error
	DeleteDoctorLinks(ctx context.Context, doctorID uuid.UUID) error

	// ListDoctors returns active doctors. A non-empty filter keeps doctors
	// with a specialization whose name (case-insensitive) or id matches.
	ListDoctors(ctx context.Context, specialization string) ([]*Doctor, error)
}
