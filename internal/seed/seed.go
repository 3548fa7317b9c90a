// Package seed loads the bootstrap admin and a small demo dataset. Every step
// is skipped when its row already exists, so running it twice is harmless.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prjwlhere/hospital-management-system/internal/domain/catalog"
	"github.com/prjwlhere/hospital-management-system/internal/domain/identity"
	"github.com/prjwlhere/hospital-management-system/internal/domain/scheduling"
	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
)

var Specializations = []string{"Cardiology", "Neurology", "Orthopedics", "Pediatrics", "Dermatology"}

const (
	demoSlotDays  = 3
	demoTimeSlot  = "09:00-10:00"
	demoDoctor    = "drsmith"
	demoPatient   = "johndoe"
	demoDOB       = "1990-05-15"
	demoDateStyle = "2006-01-02"
)

type Accounts interface {
	CreateAdmin(ctx context.Context, in identity.RegisterInput) (*identity.Account, error)
	CreateDoctor(ctx context.Context, in identity.DoctorInput) (*identity.Account, *identity.DoctorProfile, error)
	Register(ctx context.Context, in identity.RegisterInput) (*identity.Account, error)
	UpdatePatientProfile(ctx context.Context, accountID uuid.UUID, upd identity.PatientProfileUpdate) (*identity.PatientProfile, error)
}

type Catalog interface {
	CreateSpecialization(ctx context.Context, in catalog.SpecializationInput) (*catalog.Specialization, error)
}

type Slots interface {
	DeclareSlot(ctx context.Context, doctorAccountID uuid.UUID, in scheduling.SlotInput) (*scheduling.Slot, error)
}

type Admin struct {
	Username string
	Email    string
	Password string
}

type Seeder struct {
	accounts Accounts
	catalog  Catalog
	slots    Slots
	admin    Admin
	logger   zerolog.Logger
	now      func() time.Time
}

func New(accounts Accounts, cat Catalog, slots Slots, admin Admin, logger zerolog.Logger) *Seeder {
	return &Seeder{accounts: accounts, catalog: cat, slots: slots, admin: admin, logger: logger, now: time.Now}
}

// Result counts what a run created.
type Result struct {
	Accounts        int
	Specializations int
	Slots           int
}

func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result

	created, err := s.seedAdmin(ctx)
	if err != nil {
		return res, err
	}
	if created {
		res.Accounts++
	}

	for _, name := range Specializations {
		_, err := s.catalog.CreateSpecialization(ctx, catalog.SpecializationInput{Name: name})
		switch {
		case err == nil:
			res.Specializations++
		case apperr.Is(err, apperr.KindConflict):
		default:
			return res, fmt.Errorf("seed specialization %s: %w", name, err)
		}
	}

	slots, created, err := s.seedDoctor(ctx)
	if err != nil {
		return res, err
	}
	if created {
		res.Accounts++
	}
	res.Slots = slots

	created, err = s.seedPatient(ctx)
	if err != nil {
		return res, err
	}
	if created {
		res.Accounts++
	}

	s.logger.Info().
		Int("accounts", res.Accounts).
		Int("specializations", res.Specializations).
		Int("slots", res.Slots).
		Msg("seed complete")
	return res, nil
}

func (s *Seeder) seedAdmin(ctx context.Context) (bool, error) {
	_, err := s.accounts.CreateAdmin(ctx, identity.RegisterInput{
		Username: s.admin.Username,
		Email:    s.admin.Email,
		Password: s.admin.Password,
		FullName: strPtr("System Administrator"),
	})
	return s.created(err, "admin", s.admin.Username)
}

// seedDoctor declares the demo slots only when the doctor is new.
func (s *Seeder) seedDoctor(ctx context.Context) (int, bool, error) {
	fee := 500
	acct, _, err := s.accounts.CreateDoctor(ctx, identity.DoctorInput{
		RegisterInput: identity.RegisterInput{
			Username: demoDoctor,
			Email:    demoDoctor + "@example.com",
			Password: "doctor123",
			FullName: strPtr("Dr. John Smith"),
			Phone:    strPtr("9123456780"),
		},
		Bio:             strPtr("Experienced cardiologist with 10+ years in practice."),
		Qualification:   strPtr("MBBS, MD (Cardiology)"),
		ConsultationFee: &fee,
	})
	created, err := s.created(err, "doctor", demoDoctor)
	if err != nil || !created {
		return 0, false, err
	}

	today := s.now()
	n := 0
	for i := 0; i < demoSlotDays; i++ {
		date := today.AddDate(0, 0, i).Format(demoDateStyle)
		_, err := s.slots.DeclareSlot(ctx, acct.ID, scheduling.SlotInput{Date: date, TimeSlot: demoTimeSlot})
		if err != nil && !apperr.Is(err, apperr.KindConflict) {
			return n, true, fmt.Errorf("seed slot %s: %w", date, err)
		}
		if err == nil {
			n++
		}
	}
	return n, true, nil
}

func (s *Seeder) seedPatient(ctx context.Context) (bool, error) {
	acct, err := s.accounts.Register(ctx, identity.RegisterInput{
		Username: demoPatient,
		Email:    demoPatient + "@example.com",
		Password: "patient123",
		FullName: strPtr("John Doe"),
		Phone:    strPtr("9876543210"),
	})
	created, err := s.created(err, "patient", demoPatient)
	if err != nil || !created {
		return false, err
	}
	_, err = s.accounts.UpdatePatientProfile(ctx, acct.ID, identity.PatientProfileUpdate{
		DOB:              strPtr(demoDOB),
		Gender:           strPtr("Male"),
		Address:          strPtr("123 Main St, City"),
		EmergencyContact: strPtr("Jane Doe - 9876543211"),
	})
	if err != nil {
		return true, fmt.Errorf("seed patient profile: %w", err)
	}
	return true, nil
}

// created folds a Conflict into "already there".
func (s *Seeder) created(err error, kind, username string) (bool, error) {
	if err == nil {
		s.logger.Info().Str("username", username).Msgf("created %s", kind)
		return true, nil
	}
	if apperr.Is(err, apperr.KindConflict) {
		s.logger.Info().Str("username", username).Msgf("%s already exists", kind)
		return false, nil
	}
	return false, fmt.Errorf("seed %s %s: %w", kind, username, err)
}

func strPtr(s string) *string { return &s }
