package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
	"github.com/prjwlhere/hospital-management-system/internal/platform/auth"
	"github.com/prjwlhere/hospital-management-system/internal/platform/db"
	"github.com/prjwlhere/hospital-management-system/internal/platform/password"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

type PhoneNormalizer interface {
	Normalize(raw string) (string, error)
}

type TokenIssuer interface {
	Issue(s auth.Subject) (string, *auth.Claims, error)
}

type Service struct {
	accounts   AccountRepository
	profiles   ProfileRepository
	tx         db.TxManager
	hasher     PasswordHasher
	phones     PhoneNormalizer
	tokens     TokenIssuer
	dependents []Dependent
}

func NewService(accounts AccountRepository, profiles ProfileRepository, tx db.TxManager,
	hasher PasswordHasher, phones PhoneNormalizer, tokens TokenIssuer) *Service {
	return &Service{accounts: accounts, profiles: profiles, tx: tx, hasher: hasher, phones: phones, tokens: tokens}
}

// AddDependents registers packages whose rows must go before an account is
// deleted. They run in registration order.
func (s *Service) AddDependents(deps ...Dependent) {
	s.dependents = append(s.dependents, deps...)
}

// -- Registration & login --

// Register creates a patient account and its empty profile in one
// transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	acct, err := s.newAccount(ctx, in, auth.RolePatient)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.insertAccount(ctx, acct, in); err != nil {
			return err
		}
		if err := s.profiles.CreatePatient(ctx, &PatientProfile{UserID: acct.ID}); err != nil {
			return apperr.Internal(err, "create patient profile")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// CreateDoctor onboards a doctor account with its profile.
func (s *Service) CreateDoctor(ctx context.Context, in DoctorInput) (*Account, *DoctorProfile, error) {
	if in.ConsultationFee != nil && *in.ConsultationFee < 0 {
		return nil, nil, apperr.InvalidInput("consultation_fee must not be negative")
	}
	acct, err := s.newAccount(ctx, in.RegisterInput, auth.RoleDoctor)
	if err != nil {
		return nil, nil, err
	}

	profile := &DoctorProfile{Bio: in.Bio, Qualification: in.Qualification, ConsultationFee: in.ConsultationFee}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.insertAccount(ctx, acct, in.RegisterInput); err != nil {
			return err
		}
		profile.UserID = acct.ID
		if err := s.profiles.CreateDoctor(ctx, profile); err != nil {
			return apperr.Internal(err, "create doctor profile")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return acct, profile, nil
}

// CreateAdmin is used by the bootstrap seed only.
func (s *Service) CreateAdmin(ctx context.Context, in RegisterInput) (*Account, error) {
	acct, err := s.newAccount(ctx, in, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.insertAccount(ctx, acct, in)
	}); err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *Service) newAccount(ctx context.Context, in RegisterInput, role string) (*Account, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, apperr.InvalidInput("Missing required fields")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, apperr.InvalidInput("invalid email address")
	}
	phone, err := s.normalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, apperr.InvalidInput("password is too long")
		}
		return nil, apperr.Internal(err, "hash password")
	}

	return &Account{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		FullName:     emptyToNil(in.FullName),
		Phone:        phone,
		IsActive:     true,
	}, nil
}

// insertAccount checks uniqueness up front and again through the unique
// constraints, which decide concurrent registrations.
func (s *Service) insertAccount(ctx context.Context, acct *Account, in RegisterInput) error {
	exists, err := s.accounts.ExistsByUsernameOrEmail(ctx, acct.Username, acct.Email)
	if err != nil {
		return apperr.Internal(err, "check existing user")
	}
	if exists {
		return apperr.Conflict("User already exists")
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, db.ErrUniqueViolation) {
			return apperr.Wrap(apperr.KindConflict, err, "User already exists")
		}
		return apperr.Internal(err, "create user")
	}
	return nil
}

// Authenticate verifies credentials and issues a token whose claims snapshot
// the account as it is now.
func (s *Service) Authenticate(ctx context.Context, username, plain string) (*Credential, error) {
	username = strings.TrimSpace(username)
	if username == "" || plain == "" {
		return nil, apperr.InvalidInput("Missing credentials")
	}

	acct, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.Unauthorized("Invalid username or password")
		}
		return nil, apperr.Internal(err, "load user")
	}
	if !s.hasher.Verify(acct.PasswordHash, plain) {
		return nil, apperr.Unauthorized("Invalid username or password")
	}
	if !acct.Active() {
		return nil, apperr.Forbidden("account is disabled")
	}

	token, claims, err := s.tokens.Issue(auth.Subject{
		AccountID: acct.ID,
		Username:  acct.Username,
		Role:      acct.Role,
		FullName:  acct.Name(),
		IsActive:  acct.IsActive,
	})
	if err != nil {
		return nil, apperr.Internal(err, "issue token")
	}
	return &Credential{Token: token, ExpiresAt: claims.ExpiresAt.Time, Account: acct}, nil
}

// -- Profile --

func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	acct, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	return acct, nil
}

// UpdateProfile applies the fields that are present.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*Account, error) {
	acct, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.FullName != nil {
		acct.FullName = emptyToNil(upd.FullName)
	}
	if upd.Phone != nil {
		phone, err := s.normalizePhone(upd.Phone)
		if err != nil {
			return nil, err
		}
		acct.Phone = phone
	}
	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperr.InvalidInput("invalid email address")
		}
		taken, err := s.accounts.EmailTaken(ctx, email, acct.ID)
		if err != nil {
			return nil, apperr.Internal(err, "check email")
		}
		if taken {
			return nil, apperr.Conflict("email already in use")
		}
		acct.Email = email
	}

	if err := s.accounts.Update(ctx, acct); err != nil {
		switch {
		case errors.Is(err, db.ErrUniqueViolation):
			return nil, apperr.Wrap(apperr.KindConflict, err, "email already in use")
		case errors.Is(err, db.ErrNotFound):
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err, "update user")
	}
	return acct, nil
}

func (s *Service) GetDoctorProfile(ctx context.Context, accountID uuid.UUID) (*DoctorProfile, error) {
	p, err := s.profiles.GetDoctorByUserID(ctx, accountID)
	if err != nil {
		return nil, lookupErr(err, "doctor profile")
	}
	return p, nil
}

func (s *Service) UpdateDoctorProfile(ctx context.Context, accountID uuid.UUID, upd DoctorProfileUpdate) (*DoctorProfile, error) {
	p, err := s.GetDoctorProfile(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if upd.Bio != nil {
		p.Bio = emptyToNil(upd.Bio)
	}
	if upd.Qualification != nil {
		p.Qualification = emptyToNil(upd.Qualification)
	}
	if upd.ConsultationFee != nil {
		if *upd.ConsultationFee < 0 {
			return nil, apperr.InvalidInput("consultation_fee must not be negative")
		}
		p.ConsultationFee = upd.ConsultationFee
	}
	if err := s.profiles.UpdateDoctor(ctx, p); err != nil {
		return nil, apperr.Internal(err, "update doctor profile")
	}
	return p, nil
}

func (s *Service) GetPatientProfile(ctx context.Context, accountID uuid.UUID) (*PatientProfile, error) {
	p, err := s.profiles.GetPatientByUserID(ctx, accountID)
	if err != nil {
		return nil, lookupErr(err, "patient profile")
	}
	return p, nil
}

func (s *Service) UpdatePatientProfile(ctx context.Context, accountID uuid.UUID, upd PatientProfileUpdate) (*PatientProfile, error) {
	p, err := s.GetPatientProfile(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if upd.DOB != nil {
		if strings.TrimSpace(*upd.DOB) == "" {
			p.DOB = nil
		} else {
			dob, err := time.Parse(dateLayout, strings.TrimSpace(*upd.DOB))
			if err != nil {
				return nil, apperr.InvalidInput("dob must be YYYY-MM-DD")
			}
			if dob.After(time.Now()) {
				return nil, apperr.InvalidInput("dob must not be in the future")
			}
			p.DOB = &dob
		}
	}
	if upd.Gender != nil {
		p.Gender = emptyToNil(upd.Gender)
	}
	if upd.Address != nil {
		p.Address = emptyToNil(upd.Address)
	}
	if upd.EmergencyContact != nil {
		p.EmergencyContact = emptyToNil(upd.EmergencyContact)
	}
	if err := s.profiles.UpdatePatient(ctx, p); err != nil {
		return nil, apperr.Internal(err, "update patient profile")
	}
	return p, nil
}

// DoctorProfileID resolves the doctor profile owned by an account.
func (s *Service) DoctorProfileID(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error) {
	p, err := s.GetDoctorProfile(ctx, accountID)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

// PatientProfileID resolves the patient profile owned by an account.
func (s *Service) PatientProfileID(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error) {
	p, err := s.GetPatientProfile(ctx, accountID)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

// -- Administration --

func (s *Service) Counts(ctx context.Context) (Counts, error) {
	c, err := s.accounts.Counts(ctx)
	if err != nil {
		return Counts{}, apperr.Internal(err, "count users")
	}
	return c, nil
}

func (s *Service) ListAccounts(ctx context.Context, role string, limit, offset int) ([]*Account, int, error) {
	if role != "" && !auth.ValidRole(role) {
		return nil, 0, apperr.InvalidInput("unknown role %q", role)
	}
	accts, total, err := s.accounts.List(ctx, role, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err, "list users")
	}
	return accts, total, nil
}

// SetActive flips the active flag. Admin accounts cannot be deactivated.
// Tokens already issued keep their embedded is_active claim until expiry.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Account, error) {
	acct, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if !active && acct.Role == auth.RoleAdmin {
		return nil, apperr.Forbidden("admin accounts cannot be deactivated")
	}
	if err := s.accounts.SetActive(ctx, id, active); err != nil {
		return nil, lookupErr(err, "user")
	}
	acct.IsActive = active
	return acct, nil
}

func (s *Service) SetBlacklisted(ctx context.Context, id uuid.UUID, blacklisted bool) (*Account, error) {
	acct, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if blacklisted && acct.Role == auth.RoleAdmin {
		return nil, apperr.Forbidden("admin accounts cannot be blacklisted")
	}
	if err := s.accounts.SetBlacklisted(ctx, id, blacklisted); err != nil {
		return nil, lookupErr(err, "user")
	}
	acct.Blacklisted = blacklisted
	return acct, nil
}

// DeleteAccount removes an account and everything it owns in one
// transaction: dependents first, then the profile, then the account row.
func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		acct, err := s.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		if acct.Role == auth.RoleAdmin {
			return apperr.Forbidden("admin accounts cannot be deleted")
		}

		owner := Owner{AccountID: acct.ID}
		switch acct.Role {
		case auth.RoleDoctor:
			if p, err := s.profiles.GetDoctorByUserID(ctx, acct.ID); err == nil {
				owner.DoctorID = &p.ID
			} else if !errors.Is(err, db.ErrNotFound) {
				return apperr.Internal(err, "load doctor profile")
			}
		case auth.RolePatient:
			if p, err := s.profiles.GetPatientByUserID(ctx, acct.ID); err == nil {
				owner.PatientID = &p.ID
			} else if !errors.Is(err, db.ErrNotFound) {
				return apperr.Internal(err, "load patient profile")
			}
		}

		for _, dep := range s.dependents {
			if err := dep.PurgeOwner(ctx, owner); err != nil {
				return apperr.Internal(err, "delete owned records")
			}
		}
		if err := s.profiles.DeleteByUserID(ctx, acct.ID); err != nil {
			return apperr.Internal(err, "delete profile")
		}
		if err := s.accounts.Delete(ctx, acct.ID); err != nil {
			return lookupErr(err, "user")
		}
		return nil
	})
}

func (s *Service) normalizePhone(raw *string) (*string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	if s.phones == nil {
		v := strings.TrimSpace(*raw)
		return &v, nil
	}
	e164, err := s.phones.Normalize(*raw)
	if err != nil {
		return nil, apperr.InvalidInput("invalid phone number")
	}
	return &e164, nil
}

func lookupErr(err error, what string) error {
	if errors.Is(err, db.ErrNotFound) {
		return apperr.NotFound("%s not found", what)
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(err, "load "+what)
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
