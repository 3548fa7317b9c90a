package scheduling

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/prjwlhere/hospital-management-system/internal/domain/identity"
	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
	"github.com/prjwlhere/hospital-management-system/internal/platform/auth"
	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
)

// Directory resolves the profile rows owned by an account.
type Directory interface {
	DoctorProfileID(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error)
	PatientProfileID(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error)
}

// Recorder receives booking and transition events, typically for metrics.
type Recorder interface {
	ObserveBooking(outcome string)
	ObserveTransition(from, to string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveBooking(string)            {}
func (nopRecorder) ObserveTransition(string, string) {}

type Service struct {
	slots     SlotRepository
	appts     AppointmentRepository
	tx        db.TxManager
	directory Directory
	recorder  Recorder
}

func NewService(slots SlotRepository, appts AppointmentRepository, tx db.TxManager, directory Directory, recorder Recorder) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{slots: slots, appts: appts, tx: tx, directory: directory, recorder: recorder}
}

// -- Availability --

// DeclareSlot publishes a bookable slot for the calling doctor.
func (s *Service) DeclareSlot(ctx context.Context, doctorAccountID uuid.UUID, in SlotInput) (*Slot, error) {
	date, err := ParseDate(in.Date)
	if err != nil {
		return nil, apperr.InvalidInput("%s", err.Error())
	}
	label, err := ParseTimeSlot(in.TimeSlot)
	if err != nil {
		return nil, apperr.InvalidInput("%s", err.Error())
	}
	doctorID, err := s.directory.DoctorProfileID(ctx, doctorAccountID)
	if err != nil {
		return nil, err
	}

	slot := &Slot{DoctorID: doctorID, Date: date, TimeSlot: label, IsActive: true}
	if err := s.slots.Create(ctx, slot); err != nil {
		if errors.Is(err, db.ErrUniqueViolation) {
			return nil, apperr.Wrap(apperr.KindConflict, err, "slot already declared for this date and time")
		}
		return nil, apperr.Internal(err, "create slot")
	}
	return slot, nil
}

func (s *Service) ListSlots(ctx context.Context, q SlotQuery) ([]*Slot, error) {
	if q.From != nil && q.To != nil && q.To.Before(q.From.Time) {
		return nil, apperr.InvalidInput("to must not be before from")
	}
	slots, err := s.slots.List(ctx, q)
	if err != nil {
		return nil, apperr.Internal(err, "list slots")
	}
	if slots == nil {
		slots = []*Slot{}
	}
	return slots, nil
}

// DeactivateSlot withdraws a slot from booking without deleting it.
func (s *Service) DeactivateSlot(ctx context.Context, actor auth.Actor, slotID uuid.UUID) (*Slot, error) {
	slot, err := s.ownedSlot(ctx, actor, slotID)
	if err != nil {
		return nil, err
	}
	if err := s.slots.SetActive(ctx, slot.ID, false); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, apperr.Internal(err, "deactivate slot")
	}
	slot.IsActive = false
	return slot, nil
}

// DeleteSlot removes a slot that no appointment references.
func (s *Service) DeleteSlot(ctx context.Context, actor auth.Actor, slotID uuid.UUID) error {
	slot, err := s.ownedSlot(ctx, actor, slotID)
	if err != nil {
		return err
	}
	if err := s.slots.Delete(ctx, slot.ID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrSlotInUse
		}
		return apperr.Internal(err, "delete slot")
	}
	return nil
}

func (s *Service) ownedSlot(ctx context.Context, actor auth.Actor, slotID uuid.UUID) (*Slot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, apperr.Internal(err, "load slot")
	}
	if actor.IsAdmin() {
		return slot, nil
	}
	if actor.Role == auth.RoleDoctor {
		doctorID, err := s.directory.DoctorProfileID(ctx, actor.AccountID)
		if err == nil && doctorID == slot.DoctorID {
			return slot, nil
		}
	}
	return nil, apperr.Forbidden("slot belongs to another doctor")
}

// -- Booking --

// BookSlot turns an available slot into a booked appointment. Claiming the
// slot, inserting the appointment and writing the first history row happen
// in one transaction; of concurrent bookings for one slot exactly one wins
// and the rest get Conflict.
func (s *Service) BookSlot(ctx context.Context, patientAccountID, slotID uuid.UUID, reason *string) (*Appointment, error) {
	patientID, err := s.directory.PatientProfileID(ctx, patientAccountID)
	if err != nil {
		return nil, err
	}

	var appt *Appointment
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		slot, err := s.slots.Claim(ctx, slotID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return s.unclaimable(ctx, slotID)
			}
			return apperr.Internal(err, "claim slot")
		}

		appt = &Appointment{
			PatientID:      patientID,
			DoctorID:       slot.DoctorID,
			AvailabilityID: &slot.ID,
			Date:           slot.Date,
			TimeSlot:       slot.TimeSlot,
			Status:         StatusBooked,
			Reason:         trimToNil(reason),
		}
		if err := s.appts.Create(ctx, appt); err != nil {
			if errors.Is(err, db.ErrUniqueViolation) {
				return apperr.Wrap(apperr.KindConflict, err, ErrSlotUnavailable.Message)
			}
			return apperr.Internal(err, "create appointment")
		}

		entry := &HistoryEntry{AppointmentID: appt.ID, NewStatus: StatusBooked, ChangedBy: &patientAccountID}
		if err := s.appts.AppendHistory(ctx, entry); err != nil {
			return apperr.Internal(err, "record status history")
		}
		return nil
	})
	s.recorder.ObserveBooking(bookingOutcome(err))
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// unclaimable explains a failed claim: the slot is gone, or it exists but
// is inactive or already taken.
func (s *Service) unclaimable(ctx context.Context, slotID uuid.UUID) error {
	if _, err := s.slots.GetByID(ctx, slotID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrSlotNotFound
		}
		return apperr.Internal(err, "load slot")
	}
	return ErrSlotUnavailable
}

func bookingOutcome(err error) string {
	switch {
	case err == nil:
		return outcomeBooked
	case apperr.Is(err, apperr.KindConflict):
		return outcomeConflict
	case apperr.Is(err, apperr.KindNotFound):
		return outcomeNotFound
	default:
		return outcomeError
	}
}

// -- Status transitions --

// TransitionStatus moves an appointment one step along its lifecycle and
// appends the matching history row. Cancelling releases the linked slot so
// it can be booked again.
func (s *Service) TransitionStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, status string, note *string) (*Appointment, error) {
	to, ok := ParseStatus(strings.ToLower(strings.TrimSpace(status)))
	if !ok {
		return nil, apperr.InvalidInput("unknown status %q", status)
	}

	var (
		from    Status
		updated *Appointment
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		appt, err := s.loadAppointment(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authorizeParticipant(ctx, actor, appt); err != nil {
			return err
		}
		// a finished appointment refuses every move, whoever asks
		if appt.Status.Terminal() {
			return apperr.InvalidTransition("appointment is already %s", appt.Status)
		}
		if actor.Role == auth.RolePatient && to != StatusCancelled {
			return apperr.Forbidden("patients may only cancel appointments")
		}
		if !CanTransition(appt.Status, to) {
			return apperr.InvalidTransition("cannot change status from %s to %s", appt.Status, to)
		}

		from = appt.Status
		updated, err = s.appts.CompareAndSetStatus(ctx, appt.ID, from, to)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return ErrStatusChanged
			}
			return apperr.Internal(err, "update appointment status")
		}

		if to == StatusCancelled && updated.AvailabilityID != nil {
			if err := s.releaseSlot(ctx, updated); err != nil {
				return err
			}
		}

		entry := &HistoryEntry{
			AppointmentID: appt.ID,
			OldStatus:     &from,
			NewStatus:     to,
			ChangedBy:     &actor.AccountID,
			Note:          trimToNil(note),
		}
		if err := s.appts.AppendHistory(ctx, entry); err != nil {
			return apperr.Internal(err, "record status history")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recorder.ObserveTransition(string(from), string(to))
	return updated, nil
}

// Cancel is TransitionStatus to cancelled.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, id uuid.UUID, note *string) (*Appointment, error) {
	return s.TransitionStatus(ctx, actor, id, string(StatusCancelled), note)
}

// releaseSlot drops the appointment's link to its slot. A slot the doctor
// has withdrawn stays withdrawn.
func (s *Service) releaseSlot(ctx context.Context, appt *Appointment) error {
	if err := s.appts.UnlinkSlot(ctx, appt.ID); err != nil {
		return apperr.Internal(err, "unlink slot")
	}
	appt.AvailabilityID = nil
	return nil
}

func (s *Service) authorizeParticipant(ctx context.Context, actor auth.Actor, appt *Appointment) error {
	switch actor.Role {
	case auth.RoleAdmin:
		return nil
	case auth.RoleDoctor:
		if id, err := s.directory.DoctorProfileID(ctx, actor.AccountID); err == nil && id == appt.DoctorID {
			return nil
		}
	case auth.RolePatient:
		if id, err := s.directory.PatientProfileID(ctx, actor.AccountID); err == nil && id == appt.PatientID {
			return nil
		}
	}
	return apperr.Forbidden("not a participant of this appointment")
}

// -- Reads --

// GetAppointment returns the appointment when actor is a participant or an
// admin.
func (s *Service) GetAppointment(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := s.loadAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(ctx, actor, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// FindAppointment loads an appointment without any access check.
func (s *Service) FindAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.loadAppointment(ctx, id)
}

// ListAppointments scopes the filter to the actor: patients and doctors see
// their own appointments, admins whatever the filter selects.
func (s *Service) ListAppointments(ctx context.Context, actor auth.Actor, f Filter, limit, offset int) ([]*Appointment, int, error) {
	switch actor.Role {
	case auth.RoleAdmin:
	case auth.RoleDoctor:
		id, err := s.directory.DoctorProfileID(ctx, actor.AccountID)
		if err != nil {
			return nil, 0, err
		}
		f.DoctorID = &id
	case auth.RolePatient:
		id, err := s.directory.PatientProfileID(ctx, actor.AccountID)
		if err != nil {
			return nil, 0, err
		}
		f.PatientID = &id
	default:
		return nil, 0, apperr.Forbidden("unknown role")
	}

	appts, total, err := s.appts.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err, "list appointments")
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	return appts, total, nil
}

// History returns the status log oldest first.
func (s *Service) History(ctx context.Context, actor auth.Actor, id uuid.UUID) ([]*HistoryEntry, error) {
	if _, err := s.GetAppointment(ctx, actor, id); err != nil {
		return nil, err
	}
	entries, err := s.appts.History(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "load status history")
	}
	return entries, nil
}

func (s *Service) loadAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, apperr.Internal(err, "load appointment")
	}
	return appt, nil
}

// PurgeOwner removes appointments and slots held by an account's profile
// ahead of account deletion. Slots booked by a deleted patient become
// bookable again once their appointments are gone.
func (s *Service) PurgeOwner(ctx context.Context, owner identity.Owner) error {
	if owner.PatientID != nil {
		if err := s.appts.DeleteByPatient(ctx, *owner.PatientID); err != nil {
			return err
		}
	}
	if owner.DoctorID != nil {
		if err := s.appts.DeleteByDoctor(ctx, *owner.DoctorID); err != nil {
			return err
		}
		if err := s.slots.DeleteByDoctor(ctx, *owner.DoctorID); err != nil {
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
