package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prjwlhere/hospital-management-system/internal/platform/auth"
	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
	"github.com/prjwlhere/hospital-management-system/internal/platform/db/dbtest"
)

// -- Mock Repositories --

type mockAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*Account
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: make(map[uuid.UUID]*Account)}
}

func (m *mockAccountRepo) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[uuid.UUID]Account, len(m.accounts))
	for id, a := range m.accounts {
		saved[id] = *a
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.accounts = make(map[uuid.UUID]*Account, len(saved))
		for id, a := range saved {
			a := a
			m.accounts[id] = &a
		}
	}
}

func (m *mockAccountRepo) Create(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Username == a.Username {
			return &db.ConstraintError{Sentinel: db.ErrUniqueViolation, Constraint: "users_username_key"}
		}
		if existing.Email == a.Email {
			return &db.ConstraintError{Sentinel: db.ErrUniqueViolation, Constraint: "users_email_key"}
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *mockAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAccountRepo) GetByUsername(_ context.Context, username string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockAccountRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Username == username || a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAccountRepo) EmailTaken(_ context.Context, email string, except uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email && a.ID != except {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAccountRepo) Update(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.accounts[a.ID]
	if !ok {
		return db.ErrNotFound
	}
	existing.FullName, existing.Phone, existing.Email = a.FullName, a.Phone, a.Email
	existing.UpdatedAt = time.Now()
	return nil
}

func (m *mockAccountRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return db.ErrNotFound
	}
	a.IsActive = active
	return nil
}

func (m *mockAccountRepo) SetBlacklisted(_ context.Context, id uuid.UUID, blacklisted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return db.ErrNotFound
	}
	a.Blacklisted = blacklisted
	return nil
}

func (m *mockAccountRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *mockAccountRepo) Counts(_ context.Context) (Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c Counts
	for _, a := range m.accounts {
		c.Total++
		if a.Active() {
			c.Active++
		} else {
			c.Inactive++
		}
	}
	return c, nil
}

func (m *mockAccountRepo) List(_ context.Context, role string, limit, offset int) ([]*Account, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Account
	for _, a := range m.accounts {
		if role == "" || a.Role == role {
			out = append(out, a)
		}
	}
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

type mockProfileRepo struct {
	mu       sync.Mutex
	doctors  map[uuid.UUID]*DoctorProfile
	patients map[uuid.UUID]*PatientProfile
	failNext bool
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{
		doctors:  make(map[uuid.UUID]*DoctorProfile),
		patients: make(map[uuid.UUID]*PatientProfile),
	}
}

func (m *mockProfileRepo) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := make(map[uuid.UUID]DoctorProfile, len(m.doctors))
	for k, v := range m.doctors {
		docs[k] = *v
	}
	pats := make(map[uuid.UUID]PatientProfile, len(m.patients))
	for k, v := range m.patients {
		pats[k] = *v
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.doctors = make(map[uuid.UUID]*DoctorProfile, len(docs))
		for k, v := range docs {
			v := v
			m.doctors[k] = &v
		}
		m.patients = make(map[uuid.UUID]*PatientProfile, len(pats))
		for k, v := range pats {
			v := v
			m.patients[k] = &v
		}
	}
}

func (m *mockProfileRepo) CreateDoctor(_ context.Context, p *DoctorProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return db.ErrForeignKeyAbsent
	}
	p.ID = uuid.New()
	cp := *p
	m.doctors[p.UserID] = &cp
	return nil
}

func (m *mockProfileRepo) CreatePatient(_ context.Context, p *PatientProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return db.ErrForeignKeyAbsent
	}
	p.ID = uuid.New()
	cp := *p
	m.patients[p.UserID] = &cp
	return nil
}

func (m *mockProfileRepo) GetDoctorByUserID(_ context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.doctors[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProfileRepo) GetPatientByUserID(_ context.Context, userID uuid.UUID) (*PatientProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProfileRepo) UpdateDoctor(_ context.Context, p *DoctorProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.doctors[p.UserID] = &cp
	return nil
}

func (m *mockProfileRepo) UpdatePatient(_ context.Context, p *PatientProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.patients[p.UserID] = &cp
	return nil
}

func (m *mockProfileRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.doctors, userID)
	delete(m.patients, userID)
	return nil
}

// plainHasher keeps tests fast; bcrypt itself is covered in the password package.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (plainHasher) Verify(hash, plain string) bool { return hash == "hashed:"+plain }

type digitsOnlyPhones struct{}

func (digitsOnlyPhones) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Trim(raw, "+0123456789 ") != "" {
		return "", errInvalidPhone
	}
	return "+" + strings.TrimLeft(strings.ReplaceAll(raw, " ", ""), "+"), nil
}

var errInvalidPhone = errors.New("invalid phone")

var testSigningKey = []byte("identity-test-signing-key")

type testEnv struct {
	svc      *Service
	accounts *mockAccountRepo
	profiles *mockProfileRepo
	tx       *dbtest.TxManager
	issuer   *auth.TokenIssuer
}

func newTestEnv() *testEnv {
	accounts := newMockAccountRepo()
	profiles := newMockProfileRepo()
	tx := dbtest.NewTxManager(accounts, profiles)
	issuer := auth.NewTokenIssuer(testSigningKey, 24*time.Hour, nil)
	svc := NewService(accounts, profiles, tx, plainHasher{}, digitsOnlyPhones{}, issuer)
	return &testEnv{svc: svc, accounts: accounts, profiles: profiles, tx: tx, issuer: issuer}
}

func strPtr(s string) *string { return &s }
