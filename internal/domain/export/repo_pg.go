package export

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
)

type jobRepoPG struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) JobRepository {
	return &jobRepoPG{pool: pool}
}

func (r *jobRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const jobCols = `id, user_id, job_type, status, file_path, created_at, updated_at, completed_at`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.UserID, &j.JobType, &j.Status, &j.FilePath,
		&j.CreatedAt, &j.UpdatedAt, &j.CompletedAt)
	if err != nil {
		return nil, db.Classify(err)
	}
	return &j, nil
}

func (r *jobRepoPG) Create(ctx context.Context, j *Job) error {
	j.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO export_jobs (id, user_id, job_type, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		j.ID, j.UserID, j.JobType, j.Status,
	).Scan(&j.CreatedAt, &j.UpdatedAt)
	return db.Classify(err)
}

func (r *jobRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Job, error) {
	return scanJob(r.conn(ctx).QueryRow(ctx, `SELECT `+jobCols+` FROM export_jobs WHERE id = $1`, id))
}

func (r *jobRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Job, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM export_jobs WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+jobCols+` FROM export_jobs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, j)
	}
	return out, total, rows.Err()
}

func (r *jobRepoPG) UpdateStatus(ctx context.Context, j *Job) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE export_jobs
		SET status = $2,
			file_path = COALESCE($3, file_path),
			completed_at = CASE WHEN $4 THEN NOW() ELSE NULL END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+jobCols,
		j.ID, j.Status, j.FilePath, j.Status == JobDone,
	).Scan(&j.ID, &j.UserID, &j.JobType, &j.Status, &j.FilePath,
		&j.CreatedAt, &j.UpdatedAt, &j.CompletedAt)
	return db.Classify(err)
}

func (r *jobRepoPG) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM export_jobs WHERE user_id = $1`, userID)
	return err
}

type reportRepoPG struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

func (r *reportRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

func (r *reportRepoPG) Upsert(ctx context.Context, m *MonthlyReport) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO monthly_reports (id, doctor_id, month, year, report_path)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (doctor_id, month, year)
		DO UPDATE SET report_path = EXCLUDED.report_path, updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		uuid.New(), m.DoctorID, m.Month, m.Year, m.ReportPath,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return db.Classify(err)
}

func (r *reportRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*MonthlyReport, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, doctor_id, month, year, report_path, created_at, updated_at
		FROM monthly_reports
		WHERE doctor_id = $1
		ORDER BY year DESC, month DESC`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*MonthlyReport
	for rows.Next() {
		var m MonthlyReport
		if err := rows.Scan(&m.ID, &m.DoctorID, &m.Month, &m.Year, &m.ReportPath,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *reportRepoPG) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM monthly_reports WHERE doctor_id = $1`, doctorID)
	return err
}
