package clinical

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prjwlhere/hospital-management-system/internal/domain/scheduling"
	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
)

type treatmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewTreatmentRepo(pool *pgxpool.Pool) TreatmentRepository {
	return &treatmentRepoPG{pool: pool}
}

func (r *treatmentRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const treatmentColumns = `id, appointment_id, doctor_id, diagnosis, prescription, notes, followup_date,
	created_at, updated_at`

func scanTreatment(row pgx.Row) (*Treatment, error) {
	var (
		t        Treatment
		followup *time.Time
	)
	err := row.Scan(&t.ID, &t.AppointmentID, &t.DoctorID, &t.Diagnosis, &t.Prescription, &t.Notes,
		&followup, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, db.Classify(err)
	}
	if followup != nil {
		t.FollowupDate = &scheduling.Date{Time: *followup}
	}
	return &t, nil
}

func (r *treatmentRepoPG) Create(ctx context.Context, t *Treatment) error {
	t.ID = uuid.New()
	var followup *time.Time
	if t.FollowupDate != nil {
		followup = &t.FollowupDate.Time
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO treatments (id, appointment_id, doctor_id, diagnosis, prescription, notes, followup_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		t.ID, t.AppointmentID, t.DoctorID, t.Diagnosis, t.Prescription, t.Notes, followup,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	return db.Classify(err)
}

func (r *treatmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	return scanTreatment(r.conn(ctx).QueryRow(ctx, `SELECT `+treatmentColumns+` FROM treatments WHERE id = $1`, id))
}

func (r *treatmentRepoPG) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*Treatment, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+treatmentColumns+` FROM treatments
		WHERE appointment_id = $1 ORDER BY created_at`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Treatment
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *treatmentRepoPG) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM treatments WHERE doctor_id = $1`, doctorID)
	return err
}

func (r *treatmentRepoPG) DeleteByPatient(ctx context.Context, patientID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM treatments
		WHERE appointment_id IN (SELECT id FROM appointments WHERE patient_id = $1)`, patientID)
	return err
}
