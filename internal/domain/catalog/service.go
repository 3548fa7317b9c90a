package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/prjwlhere/hospital-management-system/internal/domain/identity"
	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
)

// Directory resolves the doctor profile that belongs to an account.
type Directory interface {
	DoctorProfileID(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error)
}

type Service struct {
	repo      Repository
	directory Directory
}

func NewService(repo Repository, directory Directory) *Service {
	return &Service{repo: repo, directory: directory}
}

func (s *Service) ListSpecializations(ctx context.Context) ([]*Specialization, error) {
	specs, err := s.repo.ListSpecializations(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "list specializations")
	}
	if specs == nil {
		specs = []*Specialization{}
	}
	return specs, nil
}

func (s *Service) CreateSpecialization(ctx context.Context, in SpecializationInput) (*Specialization, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.InvalidInput("name is required")
	}
	spec := &Specialization{Name: name, Description: in.Description}
	if err := s.repo.CreateSpecialization(ctx, spec); err != nil {
		if errors.Is(err, db.ErrUniqueViolation) {
			return nil, apperr.Wrap(apperr.KindConflict, err, "specialization already exists")
		}
		return nil, apperr.Internal(err, "create specialization")
	}
	return spec, nil
}

// AddDoctorSpecialization links the calling doctor to a specialization.
func (s *Service) AddDoctorSpecialization(ctx context.Context, accountID, specializationID uuid.UUID) (*DoctorSpecialization, error) {
	doctorID, err := s.directory.DoctorProfileID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetSpecialization(ctx, specializationID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound("specialization not found")
		}
		return nil, apperr.Internal(err, "load specialization")
	}

	link := &DoctorSpecialization{DoctorID: doctorID, SpecializationID: specializationID}
	if err := s.repo.LinkDoctor(ctx, link); err != nil {
		switch {
		case errors.Is(err, db.ErrUniqueViolation):
			return nil, apperr.Wrap(apperr.KindConflict, err, "specialization already linked")
		case errors.Is(err, db.ErrForeignKeyAbsent):
			return nil, apperr.Wrap(apperr.KindNotFound, err, "specialization not found")
		}
		return nil, apperr.Internal(err, "link specialization")
	}
	return link, nil
}

func (s *Service) RemoveDoctorSpecialization(ctx context.Context, accountID, specializationID uuid.UUID) error {
	doctorID, err := s.directory.DoctorProfileID(ctx, accountID)
	if err != nil {
		return err
	}
	if err := s.repo.UnlinkDoctor(ctx, doctorID, specializationID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apperr.NotFound("specialization link not found")
		}
		return apperr.Internal(err, "unlink specialization")
	}
	return nil
}

func (s *Service) ListDoctors(ctx context.Context, specialization string) ([]*Doctor, error) {
	docs, err := s.repo.ListDoctors(ctx, strings.TrimSpace(specialization))
	if err != nil {
		return nil, apperr.Internal(err, "list doctors")
	}
	if docs == nil {
		docs = []*Doctor{}
	}
	return docs, nil
}

// PurgeOwner drops a doctor's specialization links ahead of account deletion.
func (s *Service) PurgeOwner(ctx context.Context, owner identity.Owner) error {
	if owner.DoctorID == nil {
		return nil
	}
	return s.repo.DeleteDoctorLinks(ctx, *owner.DoctorID)
}
