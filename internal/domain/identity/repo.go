package identity

import (
	"context"

	"github.com/google/uuid"
)

// AccountRepository persists accounts. Lookups return db.ErrNotFound and
// inserts db.ErrUniqueViolation wrapped in a *db.ConstraintError.
type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error)
	Update(ctx context.Context, a *Account) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetBlacklisted(ctx context.Context, id uuid.UUID, blacklisted bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	Counts(ctx context.Context) (Counts, error)
	List(ctx context.Context, role string, limit, offset int) ([]*Account, int, error)
}

type ProfileRepository interface {
	CreateDoctor(ctx context.Context, p *DoctorProfile) error
	CreatePatient(ctx context.Context, p *PatientProfile) error
	GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error)
	GetPatientByUserID(ctx context.Context, userID uuid.UUID) (*PatientProfile, error)
	UpdateDoctor(ctx context.Context, p *DoctorProfile) error
	UpdatePatient(ctx context.Context, p *PatientProfile) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// Dependent removes rows another package keeps for an account. DeleteAccount
// runs every dependent inside its transaction before the profile and account
// rows go.
type Dependent interface {
	PurgeOwner(ctx context.Context, owner Owner) error
}

type DependentFunc func(ctx context.Context, owner Owner) error

func (f DependentFunc) PurgeOwner(ctx context.Context, owner Owner) error {
	return f(ctx, owner)
}
