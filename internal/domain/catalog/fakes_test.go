package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
)

type mockRepo struct {
	mu      sync.Mutex
	specs   map[uuid.UUID]*Specialization
	links   map[uuid.UUID]*DoctorSpecialization
	doctors map[uuid.UUID]*Doctor
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		specs:   make(map[uuid.UUID]*Specialization),
		links:   make(map[uuid.UUID]*DoctorSpecialization),
		doctors: make(map[uuid.UUID]*Doctor),
	}
}

func (m *mockRepo) CreateSpecialization(_ context.Context, s *Specialization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.specs {
		if existing.Name == s.Name {
			return &db.ConstraintError{Sentinel: db.ErrUniqueViolation, Constraint: "specializations_name_key"}
		}
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	cp := *s
	m.specs[s.ID] = &cp
	return nil
}

func (m *mockRepo) GetSpecialization(_ context.Context, id uuid.UUID) (*Specialization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.specs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepo) ListSpecializations(context.Context) ([]*Specialization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Specialization
	for _, s := range m.specs {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepo) LinkDoctor(_ context.Context, link *DoctorSpecialization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.DoctorID == link.DoctorID && l.SpecializationID == link.SpecializationID {
			return &db.ConstraintError{Sentinel: db.ErrUniqueViolation, Constraint: "uq_doctor_specialization"}
		}
	}
	link.ID = uuid.New()
	link.CreatedAt = time.Now()
	cp := *link
	m.links[link.ID] = &cp
	return nil
}

func (m *mockRepo) UnlinkDoctor(_ context.Context, doctorID, specializationID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.links {
		if l.DoctorID == doctorID && l.SpecializationID == specializationID {
			delete(m.links, id)
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *mockRepo) DeleteDoctorLinks(_ context.Context, doctorID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.links {
		if l.DoctorID == doctorID {
			delete(m.links, id)
		}
	}
	return nil
}

func (m *mockRepo) ListDoctors(_ context.Context, specialization string) ([]*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Doctor
	for _, d := range m.doctors {
		cp := *d
		cp.Specializations = []string{}
		match := specialization == ""
		for _, l := range m.links {
			if l.DoctorID != d.ID {
				continue
			}
			s := m.specs[l.SpecializationID]
			cp.Specializations = append(cp.Specializations, s.Name)
			if strings.EqualFold(s.Name, specialization) || s.ID.String() == specialization {
				match = true
			}
		}
		if match {
			sort.Strings(cp.Specializations)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// fakeDirectory maps doctor accounts to profile ids.
type fakeDirectory map[uuid.UUID]uuid.UUID

func (f fakeDirectory) DoctorProfileID(_ context.Context, accountID uuid.UUID) (uuid.UUID, error) {
	id, ok := f[accountID]
	if !ok {
		return uuid.Nil, apperr.NotFound("doctor profile not found")
	}
	return id, nil
}

type testEnv struct {
	svc       *Service
	repo      *mockRepo
	directory fakeDirectory
}

func newTestEnv() *testEnv {
	repo := newMockRepo()
	dir := fakeDirectory{}
	return &testEnv{svc: NewService(repo, dir), repo: repo, directory: dir}
}

// addDoctor registers a doctor account and returns (account id, profile id).
func (e *testEnv) addDoctor(username string) (uuid.UUID, uuid.UUID) {
	accountID, profileID := uuid.New(), uuid.New()
	e.directory[accountID] = profileID
	e.repo.doctors[profileID] = &Doctor{ID: profileID, UserID: accountID, Username: username}
	return accountID, profileID
}
