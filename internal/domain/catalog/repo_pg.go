package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) CreateSpecialization(ctx context.Context, s *Specialization) error {
	s.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO specializations (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		s.ID, s.Name, s.Description,
	).Scan(&s.CreatedAt)
	return db.Classify(err)
}

func (r *repoPG) GetSpecialization(ctx context.Context, id uuid.UUID) (*Specialization, error) {
	var s Specialization
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, name, description, created_at FROM specializations WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt)
	if err != nil {
		return nil, db.Classify(err)
	}
	return &s, nil
}

func (r *repoPG) ListSpecializations(ctx context.Context) ([]*Specialization, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name, description, created_at FROM specializations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Specialization
	for rows.Next() {
		var s Specialization
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *repoPG) LinkDoctor(ctx context.Context, link *DoctorSpecialization) error {
	link.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctor_specializations (id, doctor_id, specialization_id)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		link.ID, link.DoctorID, link.SpecializationID,
	).Scan(&link.CreatedAt)
	return db.Classify(err)
}

func (r *repoPG) UnlinkDoctor(ctx context.Context, doctorID, specializationID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM doctor_specializations WHERE doctor_id = $1 AND specialization_id = $2`,
		doctorID, specializationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteDoctorLinks(ctx context.Context, doctorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctor_specializations WHERE doctor_id = $1`, doctorID)
	return err
}

func (r *repoPG) ListDoctors(ctx context.Context, specialization string) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT d.id, u.id, u.username, u.full_name, d.bio, d.qualification, d.consultation_fee,
			COALESCE(array_agg(s.name ORDER BY s.name) FILTER (WHERE s.id IS NOT NULL), '{}')
		FROM doctor_profiles d
		JOIN users u ON u.id = d.user_id
		LEFT JOIN doctor_specializations ds ON ds.doctor_id = d.id
		LEFT JOIN specializations s ON s.id = ds.specialization_id
		WHERE u.is_active AND NOT u.blacklisted
		GROUP BY d.id, u.id
		HAVING $1::text = '' OR COALESCE(bool_or(lower(s.name) = lower($1) OR s.id::text = $1), false)
		ORDER BY u.username`, specialization)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.UserID, &d.Username, &d.FullName, &d.Bio,
			&d.Qualification, &d.ConsultationFee, &d.Specializations); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
