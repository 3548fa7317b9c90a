package clinical

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prjwlhere/hospital-management-system/internal/domain/scheduling"
	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
	"github.com/prjwlhere/hospital-management-system/internal/platform/auth"
	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
)

type mockTreatmentRepo struct {
	mu         sync.Mutex
	treatments map[uuid.UUID]*Treatment
	// patientOf stands in for the appointments join used by DeleteByPatient.
	patientOf map[uuid.UUID]uuid.UUID
}

func newMockTreatmentRepo() *mockTreatmentRepo {
	return &mockTreatmentRepo{
		treatments: make(map[uuid.UUID]*Treatment),
		patientOf:  make(map[uuid.UUID]uuid.UUID),
	}
}

func (m *mockTreatmentRepo) Create(_ context.Context, t *Treatment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	m.treatments[t.ID] = &cp
	return nil
}

func (m *mockTreatmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Treatment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.treatments[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockTreatmentRepo) ListByAppointment(_ context.Context, appointmentID uuid.UUID) ([]*Treatment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Treatment
	for _, t := range m.treatments {
		if t.AppointmentID == appointmentID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockTreatmentRepo) DeleteByDoctor(_ context.Context, doctorID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.treatments {
		if t.DoctorID == doctorID {
			delete(m.treatments, id)
		}
	}
	return nil
}

func (m *mockTreatmentRepo) DeleteByPatient(_ context.Context, patientID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.treatments {
		if m.patientOf[t.AppointmentID] == patientID {
			delete(m.treatments, id)
		}
	}
	return nil
}

// fakeBooking holds appointments and profile ownership.
type fakeBooking struct {
	appts    map[uuid.UUID]*scheduling.Appointment
	doctors  map[uuid.UUID]uuid.UUID
	patients map[uuid.UUID]uuid.UUID
}

func (f *fakeBooking) FindAppointment(_ context.Context, id uuid.UUID) (*scheduling.Appointment, error) {
	a, ok := f.appts[id]
	if !ok {
		return nil, scheduling.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeBooking) GetAppointment(ctx context.Context, actor auth.Actor, id uuid.UUID) (*scheduling.Appointment, error) {
	a, err := f.FindAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.IsAdmin():
		return a, nil
	case actor.Role == auth.RoleDoctor && f.doctors[actor.AccountID] == a.DoctorID:
		return a, nil
	case actor.Role == auth.RolePatient && f.patients[actor.AccountID] == a.PatientID:
		return a, nil
	}
	return nil, apperr.Forbidden("not a participant of this appointment")
}

func (f *fakeBooking) DoctorProfileID(_ context.Context, accountID uuid.UUID) (uuid.UUID, error) {
	id, ok := f.doctors[accountID]
	if !ok {
		return uuid.Nil, apperr.NotFound("doctor profile not found")
	}
	return id, nil
}

type testEnv struct {
	svc     *Service
	repo    *mockTreatmentRepo
	booking *fakeBooking
}

func newTestEnv() *testEnv {
	repo := newMockTreatmentRepo()
	booking := &fakeBooking{
		appts:    map[uuid.UUID]*scheduling.Appointment{},
		doctors:  map[uuid.UUID]uuid.UUID{},
		patients: map[uuid.UUID]uuid.UUID{},
	}
	return &testEnv{svc: NewService(repo, booking, booking), repo: repo, booking: booking}
}

type party struct {
	Actor     auth.Actor
	ProfileID uuid.UUID
}

func (e *testEnv) doctor() party {
	p := party{Actor: auth.Actor{AccountID: uuid.New(), Role: auth.RoleDoctor}, ProfileID: uuid.New()}
	e.booking.doctors[p.Actor.AccountID] = p.ProfileID
	return p
}

func (e *testEnv) patient() party {
	p := party{Actor: auth.Actor{AccountID: uuid.New(), Role: auth.RolePatient}, ProfileID: uuid.New()}
	e.booking.patients[p.Actor.AccountID] = p.ProfileID
	return p
}

func (e *testEnv) appointment(d, p party, status scheduling.Status) *scheduling.Appointment {
	date, _ := scheduling.ParseDate("2024-06-01")
	a := &scheduling.Appointment{
		ID:        uuid.New(),
		PatientID: p.ProfileID,
		DoctorID:  d.ProfileID,
		Date:      date,
		TimeSlot:  "09:00-10:00",
		Status:    status,
	}
	e.booking.appts[a.ID] = a
	e.repo.patientOf[a.ID] = p.ProfileID
	return a
}
