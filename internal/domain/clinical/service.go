package clinical

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/prjwlhere/hospital-management-system/internal/domain/identity"
	"github.com/prjwlhere/hospital-management-system/internal/domain/scheduling"
	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
	"github.com/prjwlhere/hospital-management-system/internal/platform/auth"
	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
)

// Appointments is the part of the booking engine treatments rely on.
type Appointments interface {
	FindAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
	GetAppointment(ctx context.Context, actor auth.Actor, id uuid.UUID) (*scheduling.Appointment, error)
}

type Directory interface {
	DoctorProfileID(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error)
}

type Service struct {
	treatments   TreatmentRepository
	appointments Appointments
	directory    Directory
}

func NewService(treatments TreatmentRepository, appointments Appointments, directory Directory) *Service {
	return &Service{treatments: treatments, appointments: appointments, directory: directory}
}

// AddTreatment records a treatment on a confirmed or completed appointment.
// Only the appointment's own doctor may write one.
func (s *Service) AddTreatment(ctx context.Context, actor auth.Actor, appointmentID uuid.UUID, in TreatmentInput) (*Treatment, error) {
	appt, err := s.appointments.FindAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	doctorID, err := s.directory.DoctorProfileID(ctx, actor.AccountID)
	if err != nil || doctorID != appt.DoctorID {
		if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
		return nil, apperr.Forbidden("only the appointment's doctor may record a treatment")
	}

	if appt.Status != scheduling.StatusConfirmed && appt.Status != scheduling.StatusCompleted {
		return nil, apperr.InvalidInput("treatment requires a confirmed or completed appointment, this one is %s", appt.Status)
	}

	t := &Treatment{
		AppointmentID: appt.ID,
		DoctorID:      doctorID,
		Diagnosis:     trimToNil(in.Diagnosis),
		Prescription:  trimToNil(in.Prescription),
		Notes:         trimToNil(in.Notes),
	}
	if raw := trimToNil(in.FollowupDate); raw != nil {
		d, err := scheduling.ParseDate(*raw)
		if err != nil {
			return nil, apperr.InvalidInput("followup_date must be YYYY-MM-DD")
		}
		if d.Before(appt.Date.Time) {
			return nil, apperr.InvalidInput("followup_date must not precede the appointment")
		}
		t.FollowupDate = &d
	}

	if err := s.treatments.Create(ctx, t); err != nil {
		if errors.Is(err, db.ErrForeignKeyAbsent) {
			return nil, apperr.Wrap(apperr.KindNotFound, err, "appointment not found")
		}
		return nil, apperr.Internal(err, "create treatment")
	}
	return t, nil
}

// ListTreatments returns the treatments of an appointment the actor takes
// part in.
func (s *Service) ListTreatments(ctx context.Context, actor auth.Actor, appointmentID uuid.UUID) ([]*Treatment, error) {
	if _, err := s.appointments.GetAppointment(ctx, actor, appointmentID); err != nil {
		return nil, err
	}
	out, err := s.treatments.ListByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, apperr.Internal(err, "list treatments")
	}
	if out == nil {
		out = []*Treatment{}
	}
	return out, nil
}

func (s *Service) GetTreatment(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Treatment, error) {
	t, err := s.treatments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound("treatment not found")
		}
		return nil, apperr.Internal(err, "load treatment")
	}
	if _, err := s.appointments.GetAppointment(ctx, actor, t.AppointmentID); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) PurgeOwner(ctx context.Context, owner identity.Owner) error {
	if owner.PatientID != nil {
		if err := s.treatments.DeleteByPatient(ctx, *owner.PatientID); err != nil {
			return err
		}
	}
	if owner.DoctorID != nil {
		if err := s.treatments.DeleteByDoctor(ctx, *owner.DoctorID); err != nil {
			return err
		}
	}
	return nil
}

func trimToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
