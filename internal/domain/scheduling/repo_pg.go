package scheduling

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
)

// -- Slot Repository --

type slotRepoPG struct {
	pool *pgxpool.Pool
}

func NewSlotRepo(pool *pgxpool.Pool) SlotRepository {
	return &slotRepoPG{pool: pool}
}

func (r *slotRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const slotColumns = `id, doctor_id, date, time_slot, is_active, created_at, updated_at`

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	err := row.Scan(&s.ID, &s.DoctorID, &s.Date.Time, &s.TimeSlot, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, db.Classify(err)
	}
	return &s, nil
}

func (r *slotRepoPG) Create(ctx context.Context, s *Slot) error {
	s.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctor_availability (id, doctor_id, date, time_slot, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		s.ID, s.DoctorID, s.Date.Time, s.TimeSlot, s.IsActive,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return db.Classify(err)
}

func (r *slotRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return scanSlot(r.conn(ctx).QueryRow(ctx, `SELECT `+slotColumns+` FROM doctor_availability WHERE id = $1`, id))
}

func (r *slotRepoPG) List(ctx context.Context, q SlotQuery) ([]*Slot, error) {
	where := []string{"doctor_id = $1"}
	args := []interface{}{q.DoctorID}
	if q.From != nil {
		args = append(args, q.From.Time)
		where = append(where, fmt.Sprintf("date >= $%d", len(args)))
	}
	if q.To != nil {
		args = append(args, q.To.Time)
		where = append(where, fmt.Sprintf("date <= $%d", len(args)))
	}
	if q.OnlyAvailable {
		where = append(where, "is_active",
			"NOT EXISTS (SELECT 1 FROM appointments ap WHERE ap.availability_id = doctor_availability.id)")
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT `+slotColumns+` FROM doctor_availability
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY date, time_slot`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *slotRepoPG) Claim(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return scanSlot(r.conn(ctx).QueryRow(ctx, `
		UPDATE doctor_availability SET updated_at = NOW()
		WHERE id = $1 AND is_active
			AND NOT EXISTS (SELECT 1 FROM appointments WHERE availability_id = $1)
		RETURNING `+slotColumns, id))
}

func (r *slotRepoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE doctor_availability SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *slotRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM doctor_availability
		WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM appointments WHERE availability_id = $1)`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *slotRepoPG) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctor_availability WHERE doctor_id = $1`, doctorID)
	return err
}

// -- Appointment Repository --

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepo(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const apptColumns = `id, patient_id, doctor_id, availability_id, date, time_slot, status, reason,
	created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.AvailabilityID, &a.Date.Time, &a.TimeSlot,
		&a.Status, &a.Reason, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, db.Classify(err)
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, availability_id, date, time_slot, status, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.AvailabilityID, a.Date.Time, a.TimeSlot, a.Status, a.Reason,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.Classify(err)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+apptColumns+` FROM appointments WHERE id = $1`, id))
}

func (r *appointmentRepoPG) GetBySlot(ctx context.Context, slotID uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptColumns+` FROM appointments WHERE availability_id = $1`, slotID))
}

func (r *appointmentRepoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	where := []string{"TRUE"}
	var args []interface{}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		where = append(where, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if f.DoctorID != nil {
		args = append(args, *f.DoctorID)
		where = append(where, fmt.Sprintf("doctor_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(`SELECT %s FROM appointments WHERE %s
		ORDER BY date DESC, time_slot DESC LIMIT $%d OFFSET $%d`, apptColumns, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *appointmentRepoPG) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+apptColumns, id, from, to))
}

func (r *appointmentRepoPG) UnlinkSlot(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointments SET availability_id = NULL, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *appointmentRepoPG) DeleteByPatient(ctx context.Context, patientID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE patient_id = $1`, patientID)
	return err
}

func (r *appointmentRepoPG) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE doctor_id = $1`, doctorID)
	return err
}

func (r *appointmentRepoPG) AppendHistory(ctx context.Context, h *HistoryEntry) error {
	h.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment_status_history (id, appointment_id, old_status, new_status, changed_by_user_id, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING changed_at`,
		h.ID, h.AppointmentID, h.OldStatus, h.NewStatus, h.ChangedBy, h.Note,
	).Scan(&h.ChangedAt)
	return db.Classify(err)
}

func (r *appointmentRepoPG) History(ctx context.Context, appointmentID uuid.UUID) ([]*HistoryEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, appointment_id, old_status, new_status, changed_by_user_id, note, changed_at
		FROM appointment_status_history
		WHERE appointment_id = $1
		ORDER BY changed_at, id`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ID, &h.AppointmentID, &h.OldStatus, &h.NewStatus, &h.ChangedBy, &h.Note, &h.ChangedAt); err != nil {
			return nil, err
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}
