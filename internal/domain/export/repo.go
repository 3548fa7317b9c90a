package export

import (
	"context"

	"github.com/google/uuid"
)

type JobRepository interface {
	Create(ctx context.Context, j *Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*Job, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Job, int, error)
	// UpdateStatus stores status and file path; completed_at is set when
	// status is done and cleared otherwise.
	UpdateStatus(ctx context.Context, j *Job) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type ReportRepository interface {
	// Upsert inserts or replaces the report for (doctor, month, year).
	Upsert(ctx context.Context, r *MonthlyReport) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*MonthlyReport, error)
	DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error
}
