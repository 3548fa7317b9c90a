package scheduling

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
	"github.com/prjwlhere/hospital-management-system/internal/platform/auth"
	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
	"github.com/prjwlhere/hospital-management-system/internal/platform/db/dbtest"
)

// memState backs both mock repositories so slot claims can see linked
// appointments, the way the NOT EXISTS subquery does in SQL.
type memState struct {
	mu      sync.Mutex
	slots   map[uuid.UUID]*Slot
	appts   map[uuid.UUID]*Appointment
	history []*HistoryEntry
	clock   time.Time

	failHistory bool
}

func newMemState() *memState {
	return &memState{
		slots: make(map[uuid.UUID]*Slot),
		appts: make(map[uuid.UUID]*Appointment),
		clock: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (m *memState) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	slots := make(map[uuid.UUID]Slot, len(m.slots))
	for id, s := range m.slots {
		slots[id] = *s
	}
	appts := make(map[uuid.UUID]Appointment, len(m.appts))
	for id, a := range m.appts {
		appts[id] = *a
	}
	history := append([]*HistoryEntry(nil), m.history...)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.slots = make(map[uuid.UUID]*Slot, len(slots))
		for id, s := range slots {
			s := s
			m.slots[id] = &s
		}
		m.appts = make(map[uuid.UUID]*Appointment, len(appts))
		for id, a := range appts {
			a := a
			m.appts[id] = &a
		}
		m.history = history
	}
}

func (m *memState) linked(slotID uuid.UUID) bool {
	for _, a := range m.appts {
		if a.AvailabilityID != nil && *a.AvailabilityID == slotID {
			return true
		}
	}
	return false
}

// -- Slots --

type mockSlotRepo struct{ *memState }

func (r mockSlotRepo) Create(_ context.Context, s *Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.slots {
		if existing.DoctorID == s.DoctorID && existing.Date.Equal(s.Date.Time) && existing.TimeSlot == s.TimeSlot {
			return &db.ConstraintError{Sentinel: db.ErrUniqueViolation, Constraint: "uq_doctor_date_slot"}
		}
	}
	s.ID = uuid.New()
	s.CreatedAt = r.clock
	s.UpdatedAt = r.clock
	cp := *s
	r.slots[s.ID] = &cp
	return nil
}

func (r mockSlotRepo) GetByID(_ context.Context, id uuid.UUID) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r mockSlotRepo) List(_ context.Context, q SlotQuery) ([]*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Slot
	for _, s := range r.slots {
		if s.DoctorID != q.DoctorID {
			continue
		}
		if q.From != nil && s.Date.Before(q.From.Time) {
			continue
		}
		if q.To != nil && s.Date.After(q.To.Time) {
			continue
		}
		if q.OnlyAvailable && (!s.IsActive || r.linked(s.ID)) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].TimeSlot < out[j].TimeSlot
	})
	return out, nil
}

func (r mockSlotRepo) Claim(_ context.Context, id uuid.UUID) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok || !s.IsActive || r.linked(id) {
		return nil, db.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r mockSlotRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return db.ErrNotFound
	}
	s.IsActive = active
	return nil
}

func (r mockSlotRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[id]; !ok || r.linked(id) {
		return db.ErrNotFound
	}
	delete(r.slots, id)
	return nil
}

func (r mockSlotRepo) DeleteByDoctor(_ context.Context, doctorID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.slots {
		if s.DoctorID == doctorID {
			delete(r.slots, id)
			for _, a := range r.appts {
				if a.AvailabilityID != nil && *a.AvailabilityID == id {
					a.AvailabilityID = nil
				}
			}
		}
	}
	return nil
}

// -- Appointments --

type mockApptRepo struct{ *memState }

func (r mockApptRepo) Create(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.appts {
		if a.AvailabilityID != nil && existing.AvailabilityID != nil && *existing.AvailabilityID == *a.AvailabilityID {
			return &db.ConstraintError{Sentinel: db.ErrUniqueViolation, Constraint: "uq_appointment_availability"}
		}
		if existing.Status != StatusCancelled && existing.DoctorID == a.DoctorID &&
			existing.Date.Equal(a.Date.Time) && existing.TimeSlot == a.TimeSlot {
			return &db.ConstraintError{Sentinel: db.ErrUniqueViolation, Constraint: "uq_doctor_date_appointment"}
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = r.clock
	a.UpdatedAt = r.clock
	cp := *a
	r.appts[a.ID] = &cp
	return nil
}

func (r mockApptRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r mockApptRepo) GetBySlot(_ context.Context, slotID uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appts {
		if a.AvailabilityID != nil && *a.AvailabilityID == slotID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r mockApptRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*Appointment
	for _, a := range r.appts {
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		cp := *a
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TimeSlot > all[j].TimeSlot })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r mockApptRepo) CompareAndSetStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok || a.Status != from {
		return nil, db.ErrNotFound
	}
	a.Status = to
	cp := *a
	return &cp, nil
}

func (r mockApptRepo) UnlinkSlot(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.appts[id]; ok {
		a.AvailabilityID = nil
	}
	return nil
}

func (r mockApptRepo) DeleteByPatient(_ context.Context, patientID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, a := range r.appts {
		if a.PatientID == patientID {
			r.deleteAppt(id)
		}
	}
	return nil
}

func (r mockApptRepo) DeleteByDoctor(_ context.Context, doctorID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, a := range r.appts {
		if a.DoctorID == doctorID {
			r.deleteAppt(id)
		}
	}
	return nil
}

// deleteAppt mirrors ON DELETE CASCADE on the history table.
func (r mockApptRepo) deleteAppt(id uuid.UUID) {
	delete(r.appts, id)
	kept := r.history[:0]
	for _, h := range r.history {
		if h.AppointmentID != id {
			kept = append(kept, h)
		}
	}
	r.history = kept
}

func (r mockApptRepo) AppendHistory(_ context.Context, h *HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failHistory {
		return errors.New("history table unavailable")
	}
	r.clock = r.clock.Add(time.Millisecond)
	h.ID = uuid.New()
	h.ChangedAt = r.clock
	cp := *h
	r.history = append(r.history, &cp)
	return nil
}

func (r mockApptRepo) History(_ context.Context, appointmentID uuid.UUID) ([]*HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*HistoryEntry
	for _, h := range r.history {
		if h.AppointmentID == appointmentID {
			cp := *h
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChangedAt.Before(out[j].ChangedAt) })
	return out, nil
}

// -- Collaborators --

type fakeDirectory struct {
	doctors  map[uuid.UUID]uuid.UUID
	patients map[uuid.UUID]uuid.UUID
}

func (d *fakeDirectory) DoctorProfileID(_ context.Context, accountID uuid.UUID) (uuid.UUID, error) {
	if id, ok := d.doctors[accountID]; ok {
		return id, nil
	}
	return uuid.Nil, apperr.NotFound("doctor profile not found")
}

func (d *fakeDirectory) PatientProfileID(_ context.Context, accountID uuid.UUID) (uuid.UUID, error) {
	if id, ok := d.patients[accountID]; ok {
		return id, nil
	}
	return uuid.Nil, apperr.NotFound("patient profile not found")
}

type countingRecorder struct {
	mu          sync.Mutex
	bookings    map[string]int
	transitions map[string]int
}

func (r *countingRecorder) ObserveBooking(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[outcome]++
}

func (r *countingRecorder) ObserveTransition(from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions[from+"->"+to]++
}

type testEnv struct {
	svc      *Service
	state    *memState
	tx       *dbtest.TxManager
	dir      *fakeDirectory
	recorder *countingRecorder
}

func newTestEnv() *testEnv {
	state := newMemState()
	dir := &fakeDirectory{doctors: map[uuid.UUID]uuid.UUID{}, patients: map[uuid.UUID]uuid.UUID{}}
	rec := &countingRecorder{bookings: map[string]int{}, transitions: map[string]int{}}
	tx := dbtest.NewTxManager(state)
	svc := NewService(mockSlotRepo{state}, mockApptRepo{state}, tx, dir, rec)
	return &testEnv{svc: svc, state: state, tx: tx, dir: dir, recorder: rec}
}

// participant is an account with its resolved profile.
type participant struct {
	Actor     auth.Actor
	ProfileID uuid.UUID
}

func (e *testEnv) doctor() participant {
	p := participant{Actor: auth.Actor{AccountID: uuid.New(), Role: auth.RoleDoctor}, ProfileID: uuid.New()}
	e.dir.doctors[p.Actor.AccountID] = p.ProfileID
	return p
}

func (e *testEnv) patient() participant {
	p := participant{Actor: auth.Actor{AccountID: uuid.New(), Role: auth.RolePatient}, ProfileID: uuid.New()}
	e.dir.patients[p.Actor.AccountID] = p.ProfileID
	return p
}

func admin() auth.Actor {
	return auth.Actor{AccountID: uuid.New(), Role: auth.RoleAdmin}
}

func (e *testEnv) slot(d participant, date, label string) *Slot {
	s, err := e.svc.DeclareSlot(context.Background(), d.Actor.AccountID, SlotInput{Date: date, TimeSlot: label})
	if err != nil {
		panic(err)
	}
	return s
}

func (e *testEnv) book(p participant, s *Slot) *Appointment {
	a, err := e.svc.BookSlot(context.Background(), p.Actor.AccountID, s.ID, nil)
	if err != nil {
		panic(err)
	}
	return a
}
