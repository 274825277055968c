package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"raceday-api/models"
	"raceday-api/repositories"
	"raceday-api/utils"
)

// SignUpInput is a self-service account request
type SignUpInput struct {
	Username    string
	Password1   string
	Password2   string
	FirstName   string
	LastName    string
	City        string
	DateOfBirth *models.Date
	Gender      models.Gender
	PhoneNumber string
	Email       string
}

// UpdateRunnerInput replaces the editable profile. Username may be echoed
// back but never changed. Password changes only when NewPassword is set.
type UpdateRunnerInput struct {
	Username        string
	FirstName       string
	LastName        string
	City            string
	DateOfBirth     *models.Date
	Gender          models.Gender
	PhoneNumber     string
	Email           string
	NewPassword     string
	ConfirmPassword string
	IsStaff         *bool
}

// RunnerProfile is a runner with their derived age and registrations
type RunnerProfile struct {
	models.Runner
	Age           *int                                    `json:"age"`
	Registrations *repositories.Page[models.Registration] `json:"registrations"`
}

type RunnerService struct {
	runners       *repositories.RunnerRepository
	registrations *repositories.RegistrationRepository
	mailer        Mailer
	logger        *slog.Logger
	clock         Clock
}

func NewRunnerService(runners *repositories.RunnerRepository, registrations *repositories.RegistrationRepository, mailer Mailer, logger *slog.Logger, clock Clock) *RunnerService {
	return &RunnerService{
		runners:       runners,
		registrations: registrations,
		mailer:        mailer,
		logger:        logger,
		clock:         clock,
	}
}

func validateProfile(firstName, lastName, city string, dob *models.Date, gender models.Gender, phone, email string, today models.Date) error {
	switch {
	case strings.TrimSpace(firstName) == "":
		return Invalidf("first_name", "This field is required.")
	case utils.TooLong(firstName, 30):
		return Invalidf("first_name", "Ensure this value has at most 30 characters.")
	case strings.TrimSpace(lastName) == "":
		return Invalidf("last_name", "This field is required.")
	case utils.TooLong(lastName, 30):
		return Invalidf("last_name", "Ensure this value has at most 30 characters.")
	case utils.TooLong(city, 30):
		return Invalidf("city", "Ensure this value has at most 30 characters.")
	case dob == nil:
		return Invalidf("date_of_birth", "This field is required.")
	case dob.After(today.Time):
		return Invalidf("date_of_birth", "Date of birth cannot be in the future.")
	case gender != "" && !gender.Valid():
		return Invalidf("gender", "Select a valid choice. %s is not one of the available choices.", gender)
	case phone != "" && !utils.IsValidPhoneNumber(phone):
		return Invalidf("phone_number", "Enter a valid phone number.")
	case email != "" && !utils.IsValidEmail(email):
		return Invalidf("email", "Enter a valid email address.")
	}
	return nil
}

func (s *RunnerService) today() models.Date {
	y, m, d := s.clock().Date()
	return models.NewDate(y, m, d)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *RunnerService) SignUp(ctx context.Context, in SignUpInput) (*models.Runner, error) {
	username := strings.TrimSpace(in.Username)
	if !utils.IsValidUsername(username) {
		return nil, Invalidf("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	if err := validateProfile(in.FirstName, in.LastName, in.City, in.DateOfBirth, in.Gender, in.PhoneNumber, in.Email, s.today()); err != nil {
		return nil, err
	}
	if !utils.IsValidPassword(in.Password1) {
		return nil, Invalidf("password1", "This password is too short or entirely numeric. It must contain at least 8 characters.")
	}
	if in.Password1 != in.Password2 {
		return nil, Invalid("password2", ErrPasswordMismatch)
	}

	taken, err := s.runners.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, Invalid("username", ErrUsernameTaken)
	}

	hashed, err := hashPassword(in.Password1)
	if err != nil {
		return nil, err
	}

	runner := &models.Runner{
		Username:    username,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		City:        strings.TrimSpace(in.City),
		DateOfBirth: in.DateOfBirth,
		Gender:      in.Gender,
		PhoneNumber: optional(in.PhoneNumber),
		Email:       strings.TrimSpace(in.Email),
		Password:    hashed,
	}
	if err := s.runners.Create(ctx, runner); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, Invalid("username", ErrUsernameTaken)
		}
		return nil, err
	}

	s.logger.Info("Runner signed up", slog.Uint64("runner_id", uint64(runner.ID)), slog.String("username", runner.Username))

	if err := s.mailer.SendWelcomeEmail(*runner); err != nil {
		s.logger.Warn("Failed to send welcome email", slog.Uint64("runner_id", uint64(runner.ID)), slog.Any("error", err))
	}
	return runner, nil
}

// Authenticate checks a username and password pair
func (s *RunnerService) Authenticate(ctx context.Context, username, password string) (*models.Runner, error) {
	runner, err := s.runners.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(runner.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return runner, nil
}

// ResolveActor checks credentials from a session or token against the
// stored runner. Deleted runners and changed passwords yield
// ErrInvalidCredentials. Staff rights come from the row, not the credentials.
func (s *RunnerService) ResolveActor(ctx context.Context, creds Credentials) (Actor, error) {
	runner, err := s.runners.FindByID(ctx, creds.RunnerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return Actor{}, ErrInvalidCredentials
		}
		return Actor{}, err
	}
	if subtle.ConstantTimeCompare([]byte(runner.CredentialFingerprint()), []byte(creds.Fingerprint)) != 1 {
		return Actor{}, ErrInvalidCredentials
	}
	return Actor{RunnerID: runner.ID, IsStaff: runner.IsStaff}, nil
}

func (s *RunnerService) Find(ctx context.Context, id uint) (*models.Runner, error) {
	runner, err := s.runners.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return runner, nil
}

// Get returns the runner profile with one page of their registrations
func (s *RunnerService) Get(ctx context.Context, id uint, page repositories.PageRequest) (*RunnerProfile, error) {
	runner, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	regs, err := s.registrations.ListForRunner(ctx, id, page)
	if err != nil {
		return nil, err
	}
	return &RunnerProfile{
		Runner:        *runner,
		Age:           runner.AgeOn(s.clock()),
		Registrations: regs,
	}, nil
}

func (s *RunnerService) List(ctx context.Context, search string, page repositories.PageRequest) (*repositories.Page[models.Runner], error) {
	return s.runners.List(ctx, search, page)
}

// Update rewrites the runner's profile. It reports whether the password
// changed so the caller can re-issue the session.
func (s *RunnerService) Update(ctx context.Context, actor Actor, id uint, in UpdateRunnerInput) (*models.Runner, bool, error) {
	if !CanModify(actor, id) {
		return nil, false, ErrForbidden
	}
	runner, err := s.Find(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if in.Username != "" && in.Username != runner.Username {
		return nil, false, Invalidf("username", "Username cannot be changed.")
	}
	if err := validateProfile(in.FirstName, in.LastName, in.City, in.DateOfBirth, in.Gender, in.PhoneNumber, in.Email, s.today()); err != nil {
		return nil, false, err
	}
	if in.NewPassword != "" && in.NewPassword != in.ConfirmPassword {
		return nil, false, &ValidationError{Message: "Passwords do not match!", Err: ErrPasswordMismatch}
	}
	if in.NewPassword != "" && !utils.IsValidPassword(in.NewPassword) {
		return nil, false, Invalidf("new_password", "This password is too short or entirely numeric. It must contain at least 8 characters.")
	}
	if in.IsStaff != nil && !actor.IsStaff {
		return nil, false, ErrForbidden
	}

	runner.FirstName = strings.TrimSpace(in.FirstName)
	runner.LastName = strings.TrimSpace(in.LastName)
	runner.City = strings.TrimSpace(in.City)
	runner.DateOfBirth = in.DateOfBirth
	runner.Gender = in.Gender
	runner.PhoneNumber = optional(in.PhoneNumber)
	runner.Email = strings.TrimSpace(in.Email)
	if in.IsStaff != nil {
		runner.IsStaff = *in.IsStaff
	}

	passwordChanged := false
	if in.NewPassword != "" {
		hashed, err := hashPassword(in.NewPassword)
		if err != nil {
			return nil, false, err
		}
		runner.Password = hashed
		passwordChanged = true
	}

	if err := s.runners.Update(ctx, runner); err != nil {
		return nil, false, err
	}

	s.logger.Info("Runner updated",
		slog.Uint64("runner_id", uint64(runner.ID)),
		slog.Uint64("actor_id", uint64(actor.RunnerID)),
		slog.Bool("password_changed", passwordChanged),
	)
	return runner, passwordChanged, nil
}

func (s *RunnerService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !CanModify(actor, id) {
		return ErrForbidden
	}
	if err := s.runners.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	s.logger.Info("Runner deleted", slog.Uint64("runner_id", uint64(id)), slog.Uint64("actor_id", uint64(actor.RunnerID)))
	return nil
}
