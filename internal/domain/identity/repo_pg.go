package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
)

// -- Account Repository --

type accountRepoPG struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) AccountRepository {
	return &accountRepoPG{pool: pool}
}

func (r *accountRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const accountColumns = `id, username, email, password_hash, role, full_name, phone,
	is_active, blacklisted, created_at, updated_at`

func (r *accountRepoPG) Create(ctx context.Context, a *Account) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, full_name, phone, is_active, blacklisted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		a.ID, a.Username, a.Email, a.PasswordHash, a.Role, a.FullName, a.Phone, a.IsActive, a.Blacklisted,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.Classify(err)
}

func (r *accountRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return scanAccount(r.conn(ctx).QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id))
}

func (r *accountRepoPG) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return scanAccount(r.conn(ctx).QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE username = $1`, username))
}

func (r *accountRepoPG) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`, username, email,
	).Scan(&exists)
	return exists, err
}

func (r *accountRepoPG) EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`, email, except,
	).Scan(&taken)
	return taken, err
}

func (r *accountRepoPG) Update(ctx context.Context, a *Account) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE users SET full_name = $2, phone = $3, email = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.FullName, a.Phone, a.Email,
	).Scan(&a.UpdatedAt)
	return db.Classify(err)
}

func (r *accountRepoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.execOne(ctx, `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
}

func (r *accountRepoPG) SetBlacklisted(ctx context.Context, id uuid.UUID, blacklisted bool) error {
	return r.execOne(ctx, `UPDATE users SET blacklisted = $2, updated_at = NOW() WHERE id = $1`, id, blacklisted)
}

func (r *accountRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (r *accountRepoPG) execOne(ctx context.Context, sql string, args ...interface{}) error {
	tag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *accountRepoPG) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active AND NOT blacklisted),
		       COUNT(*) FILTER (WHERE NOT is_active OR blacklisted)
		FROM users`).Scan(&c.Total, &c.Active, &c.Inactive)
	return c, err
}

func (r *accountRepoPG) List(ctx context.Context, role string, limit, offset int) ([]*Account, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE ($1::text = '' OR role = $1)`, role).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT `+accountColumns+` FROM users
		WHERE ($1::text = '' OR role = $1)
		ORDER BY created_at, username LIMIT $2 OFFSET $3`, role, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Role, &a.FullName, &a.Phone,
		&a.IsActive, &a.Blacklisted, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, db.Classify(err)
	}
	return &a, nil
}

// -- Profile Repository --

type profileRepoPG struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepoPG{pool: pool}
}

func (r *profileRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

func (r *profileRepoPG) CreateDoctor(ctx context.Context, p *DoctorProfile) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctor_profiles (id, user_id, bio, qualification, consultation_fee)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.Bio, p.Qualification, p.ConsultationFee,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Classify(err)
}

func (r *profileRepoPG) CreatePatient(ctx context.Context, p *PatientProfile) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_profiles (id, user_id, dob, gender, address, emergency_contact)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.DOB, p.Gender, p.Address, p.EmergencyContact,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Classify(err)
}

func (r *profileRepoPG) GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	var p DoctorProfile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, user_id, bio, qualification, consultation_fee, created_at, updated_at
		FROM doctor_profiles WHERE user_id = $1`, userID,
	).Scan(&p.ID, &p.UserID, &p.Bio, &p.Qualification, &p.ConsultationFee, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, db.Classify(err)
	}
	return &p, nil
}

func (r *profileRepoPG) GetPatientByUserID(ctx context.Context, userID uuid.UUID) (*PatientProfile, error) {
	var p PatientProfile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, user_id, dob, gender, address, emergency_contact, created_at, updated_at
		FROM patient_profiles WHERE user_id = $1`, userID,
	).Scan(&p.ID, &p.UserID, &p.DOB, &p.Gender, &p.Address, &p.EmergencyContact, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, db.Classify(err)
	}
	return &p, nil
}

func (r *profileRepoPG) UpdateDoctor(ctx context.Context, p *DoctorProfile) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE doctor_profiles SET bio = $2, qualification = $3, consultation_fee = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.Bio, p.Qualification, p.ConsultationFee,
	).Scan(&p.UpdatedAt)
	return db.Classify(err)
}

func (r *profileRepoPG) UpdatePatient(ctx context.Context, p *PatientProfile) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient_profiles SET dob = $2, gender = $3, address = $4, emergency_contact = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.DOB, p.Gender, p.Address, p.EmergencyContact,
	).Scan(&p.UpdatedAt)
	return db.Classify(err)
}

func (r *profileRepoPG) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctor_profiles WHERE user_id = $1`, userID); err != nil {
		return err
	}
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient_profiles WHERE user_id = $1`, userID)
	return err
}
