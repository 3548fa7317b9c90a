package export

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
)

type mockJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
}

func (m *mockJobRepo) Create(_ context.Context, j *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j.ID = uuid.New()
	j.CreatedAt = time.Now()
	j.UpdatedAt = j.CreatedAt
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *mockJobRepo) GetByID(_ context.Context, id uuid.UUID) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *mockJobRepo) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*Job, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Job
	for _, j := range m.jobs {
		if j.UserID == userID {
			cp := *j
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(a, b int) bool { return all[a].CreatedAt.After(all[b].CreatedAt) })
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

func (m *mockJobRepo) UpdateStatus(_ context.Context, j *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.jobs[j.ID]
	if !ok {
		return db.ErrNotFound
	}
	cur.Status = j.Status
	if j.FilePath != nil {
		cur.FilePath = j.FilePath
	}
	cur.CompletedAt = nil
	if j.Status == JobDone {
		now := time.Now()
		cur.CompletedAt = &now
	}
	cur.UpdatedAt = time.Now()
	*j = *cur
	return nil
}

func (m *mockJobRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, j := range m.jobs {
		if j.UserID == userID {
			delete(m.jobs, id)
		}
	}
	return nil
}

type reportKey struct {
	doctor      uuid.UUID
	month, year int
}

type mockReportRepo struct {
	mu      sync.Mutex
	reports map[reportKey]*MonthlyReport
	doctors map[uuid.UUID]bool
}

func (m *mockReportRepo) Upsert(_ context.Context, r *MonthlyReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.doctors[r.DoctorID] {
		return &db.ConstraintError{Sentinel: db.ErrForeignKeyAbsent}
	}
	k := reportKey{r.DoctorID, r.Month, r.Year}
	now := time.Now()
	if cur, ok := m.reports[k]; ok {
		cur.ReportPath = r.ReportPath
		cur.UpdatedAt = now
		*r = *cur
		return nil
	}
	r.ID = uuid.New()
	r.CreatedAt, r.UpdatedAt = now, now
	cp := *r
	m.reports[k] = &cp
	return nil
}

func (m *mockReportRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*MonthlyReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*MonthlyReport
	for k, r := range m.reports {
		if k.doctor == doctorID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockReportRepo) DeleteByDoctor(_ context.Context, doctorID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.reports {
		if k.doctor == doctorID {
			delete(m.reports, k)
		}
	}
	return nil
}

type fakeDirectory map[uuid.UUID]uuid.UUID

func (d fakeDirectory) DoctorProfileID(_ context.Context, accountID uuid.UUID) (uuid.UUID, error) {
	id, ok := d[accountID]
	if !ok {
		return uuid.Nil, apperr.NotFound("doctor profile not found")
	}
	return id, nil
}

type testEnv struct {
	svc     *Service
	jobs    *mockJobRepo
	reports *mockReportRepo
	dir     fakeDirectory
}

func newTestEnv() *testEnv {
	jobs := &mockJobRepo{jobs: map[uuid.UUID]*Job{}}
	reports := &mockReportRepo{reports: map[reportKey]*MonthlyReport{}, doctors: map[uuid.UUID]bool{}}
	dir := fakeDirectory{}
	return &testEnv{svc: NewService(jobs, reports, dir), jobs: jobs, reports: reports, dir: dir}
}

// addDoctor returns an account id and the doctor profile behind it.
func (e *testEnv) addDoctor() (uuid.UUID, uuid.UUID) {
	account, profile := uuid.New(), uuid.New()
	e.dir[account] = profile
	e.reports.doctors[profile] = true
	return account, profile
}
