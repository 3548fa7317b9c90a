package export

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

const maxJobTypeLen = 50

type Directory interface {
	DoctorProfileID(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error)
}

type Service struct {
	jobs      JobRepository
	reports   ReportRepository
	directory Directory
}

func NewService(jobs JobRepository, reports ReportRepository, directory Directory) *Service {
	return &Service{jobs: jobs, reports: reports, directory: directory}
}

// RequestExport queues a pending job for the caller.
func (s *Service) RequestExport(ctx context.Context, userID uuid.UUID, in JobInput) (*Job, error) {
	jobType := strings.TrimSpace(in.JobType)
	if jobType == "" {
		return nil, apperr.InvalidInput("job_type is required")
	}
	if len(jobType) > maxJobTypeLen {
		return nil, apperr.InvalidInput("job_type must be at most %d characters", maxJobTypeLen)
	}
	j := &Job{UserID: userID, JobType: jobType, Status: JobPending}
	if err := s.jobs.Create(ctx, j); err != nil {
		if errors.Is(err, db.ErrForeignKeyAbsent) {
			return nil, apperr.Wrap(apperr.KindNotFound, err, "user not found")
		}
		return nil, apperr.Internal(err, "create export job")
	}
	return j, nil
}

func (s *Service) GetJob(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Job, error) {
	j, err := s.loadJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && j.UserID != actor.AccountID {
		return nil, apperr.Forbidden("export job belongs to another user")
	}
	return j, nil
}

func (s *Service) ListJobs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Job, int, error) {
	jobs, total, err := s.jobs.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err, "list export jobs")
	}
	if jobs == nil {
		jobs = []*Job{}
	}
	return jobs, total, nil
}

// UpdateJobStatus moves a job to any known status. Moving to done stamps
// completed_at.
func (s *Service) UpdateJobStatus(ctx context.Context, id uuid.UUID, in JobStatusInput) (*Job, error) {
	status, ok := ParseJobStatus(strings.TrimSpace(in.Status))
	if !ok {
		return nil, apperr.InvalidInput("status must be one of pending, running, done, failed")
	}
	j := &Job{ID: id, Status: status, FilePath: trimToNil(in.FilePath)}
	if err := s.jobs.UpdateStatus(ctx, j); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound("export job not found")
		}
		return nil, apperr.Internal(err, "update export job")
	}
	return j, nil
}

func (s *Service) loadJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	j, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound("export job not found")
		}
		return nil, apperr.Internal(err, "load export job")
	}
	return j, nil
}

func (s *Service) UpsertMonthlyReport(ctx context.Context, in ReportInput) (*MonthlyReport, error) {
	if in.DoctorID == uuid.Nil {
		return nil, apperr.InvalidInput("doctor_id is required")
	}
	if in.Month < 1 || in.Month > 12 {
		return nil, apperr.InvalidInput("month must be between 1 and 12")
	}
	if in.Year < 1 {
		return nil, apperr.InvalidInput("year must be positive")
	}
	m := &MonthlyReport{DoctorID: in.DoctorID, Month: in.Month, Year: in.Year, ReportPath: trimToNil(in.ReportPath)}
	if err := s.reports.Upsert(ctx, m); err != nil {
		if errors.Is(err, db.ErrForeignKeyAbsent) {
			return nil, apperr.Wrap(apperr.KindNotFound, err, "doctor not found")
		}
		return nil, apperr.Internal(err, "upsert monthly report")
	}
	return m, nil
}

func (s *Service) ListMonthlyReports(ctx context.Context, doctorID uuid.UUID) ([]*MonthlyReport, error) {
	out, err := s.reports.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, apperr.Internal(err, "list monthly reports")
	}
	if out == nil {
		out = []*MonthlyReport{}
	}
	return out, nil
}

// ListOwnMonthlyReports resolves the calling doctor's profile first.
func (s *Service) ListOwnMonthlyReports(ctx context.Context, accountID uuid.UUID) ([]*MonthlyReport, error) {
	doctorID, err := s.directory.DoctorProfileID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.ListMonthlyReports(ctx, doctorID)
}

func (s *Service) PurgeOwner(ctx context.Context, owner identity.Owner) error {
	if err := s.jobs.DeleteByUser(ctx, owner.AccountID); err != nil {
		return err
	}
	if owner.DoctorID != nil {
		return s.reports.DeleteByDoctor(ctx, *owner.DoctorID)
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
