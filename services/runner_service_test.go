package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"raceday-api/models"
	"raceday-api/repositories"
	"raceday-api/testutils"
)

func signUpInput(username string) SignUpInput {
	dob := models.NewDate(1999, time.August, 29)
	return SignUpInput{
		Username:    username,
		Password1:   "s3cret-pass",
		Password2:   "s3cret-pass",
		FirstName:   "Olena",
		LastName:    "Shevchenko",
		City:        "Kyiv",
		DateOfBirth: &dob,
		Gender:      models.GenderFemale,
		PhoneNumber: "+380501234567",
		Email:       "olena@example.com",
	}
}

func TestRunnerServiceSignUpAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	runner, err := f.runners.SignUp(ctx, signUpInput("olena"))
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", runner.Password)
	assert.False(t, runner.IsStaff)
	assert.Equal(t, []string{"olena"}, f.mailer.welcomed)

	got, err := f.runners.Authenticate(ctx, "olena", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, runner.ID, got.ID)

	_, err = f.runners.Authenticate(ctx, "olena", "wrong-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.runners.Authenticate(ctx, "nobody", "s3cret-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRunnerServiceSignUpValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutils.CreateRunner(t, f.db, "taken", false)

	tests := []struct {
		name      string
		mutate    func(in *SignUpInput)
		wantField string
		wantErr   error
	}{
		{"username taken", func(in *SignUpInput) { in.Username = "taken" }, "username", ErrUsernameTaken},
		{"bad username", func(in *SignUpInput) { in.Username = "a b" }, "username", ErrInvalidInput},
		{"passwords differ", func(in *SignUpInput) { in.Password2 = "other-pass" }, "password2", ErrPasswordMismatch},
		{"numeric password", func(in *SignUpInput) { in.Password1, in.Password2 = "12345678", "12345678" }, "password1", ErrInvalidInput},
		{"missing first name", func(in *SignUpInput) { in.FirstName = " " }, "first_name", ErrInvalidInput},
		{"last name too long", func(in *SignUpInput) { in.LastName = strings.Repeat("ш", 31) }, "last_name", ErrInvalidInput},
		{"city too long", func(in *SignUpInput) { in.City = strings.Repeat("к", 31) }, "city", ErrInvalidInput},
		{"missing date of birth", func(in *SignUpInput) { in.DateOfBirth = nil }, "date_of_birth", ErrInvalidInput},
		{"unknown gender", func(in *SignUpInput) { in.Gender = "X" }, "gender", ErrInvalidInput},
		{"bad phone", func(in *SignUpInput) { in.PhoneNumber = "call me" }, "phone_number", ErrInvalidInput},
		{"bad email", func(in *SignUpInput) { in.Email = "not-an-email" }, "email", ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := signUpInput("fresh")
			tt.mutate(&in)
			_, err := f.runners.SignUp(ctx, in)
			require.ErrorIs(t, err, tt.wantErr)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestRunnerServiceSignUpAcceptsNonASCII(t *testing.T) {
	f := newFixture(t)

	in := signUpInput("олена_ш")
	in.FirstName = "Олена"
	in.LastName = "Шевченко-Коваленко"
	in.City = strings.Repeat("к", 30)

	runner, err := f.runners.SignUp(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Шевченко-Коваленко", runner.LastName)
	assert.Equal(t, "олена_ш", runner.Username)
}

func updateInput(r models.Runner) UpdateRunnerInput {
	return UpdateRunnerInput{
		Username:    r.Username,
		FirstName:   "Renamed",
		LastName:    r.LastName,
		City:        "Odesa",
		DateOfBirth: r.DateOfBirth,
		Gender:      r.Gender,
	}
}

func TestRunnerServiceUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, err := f.runners.SignUp(ctx, signUpInput("owner"))
	require.NoError(t, err)
	other := testutils.CreateRunner(t, f.db, "other", false)
	staff := testutils.CreateRunner(t, f.db, "staff", true)
	ownerActor := Actor{RunnerID: owner.ID}

	t.Run("someone else is forbidden", func(t *testing.T) {
		_, _, err := f.runners.Update(ctx, actorFor(other), owner.ID, updateInput(*owner))
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("password mismatch is a form error", func(t *testing.T) {
		in := updateInput(*owner)
		in.NewPassword = "new-password"
		in.ConfirmPassword = "different"
		_, _, err := f.runners.Update(ctx, ownerActor, owner.ID, in)
		require.ErrorIs(t, err, ErrPasswordMismatch)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Empty(t, verr.Field)
		assert.Equal(t, "Passwords do not match!", verr.Message)

		_, err = f.runners.Authenticate(ctx, "owner", "s3cret-pass")
		require.NoError(t, err)
	})

	t.Run("username cannot change", func(t *testing.T) {
		in := updateInput(*owner)
		in.Username = "renamed"
		_, _, err := f.runners.Update(ctx, ownerActor, owner.ID, in)
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("only staff grant staff", func(t *testing.T) {
		in := updateInput(*owner)
		yes := true
		in.IsStaff = &yes
		_, _, err := f.runners.Update(ctx, ownerActor, owner.ID, in)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("profile without password", func(t *testing.T) {
		updated, changed, err := f.runners.Update(ctx, ownerActor, owner.ID, updateInput(*owner))
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, "Renamed", updated.FirstName)
		assert.Nil(t, updated.PhoneNumber)

		stored, err := f.runners.Find(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, "owner", stored.Username)
		assert.Equal(t, "Odesa", stored.City)
	})

	t.Run("staff changes password", func(t *testing.T) {
		in := updateInput(*owner)
		in.NewPassword = "brand-new-pass"
		in.ConfirmPassword = "brand-new-pass"
		_, changed, err := f.runners.Update(ctx, actorFor(staff), owner.ID, in)
		require.NoError(t, err)
		assert.True(t, changed)

		_, err = f.runners.Authenticate(ctx, "owner", "brand-new-pass")
		require.NoError(t, err)
	})
}

func TestRunnerServiceResolveActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, err := f.runners.SignUp(ctx, signUpInput("owner"))
	require.NoError(t, err)
	staff := testutils.CreateRunner(t, f.db, "staff", true)
	issued := Credentials{RunnerID: owner.ID, Fingerprint: owner.CredentialFingerprint()}

	actor, err := f.runners.ResolveActor(ctx, issued)
	require.NoError(t, err)
	assert.Equal(t, Actor{RunnerID: owner.ID}, actor)

	t.Run("staff flag is read from the runner", func(t *testing.T) {
		require.NoError(t, f.db.Model(&models.Runner{}).Where("id = ?", staff.ID).Update("is_staff", false).Error)
		actor, err := f.runners.ResolveActor(ctx, Credentials{RunnerID: staff.ID, Fingerprint: staff.CredentialFingerprint()})
		require.NoError(t, err)
		assert.False(t, actor.IsStaff)
	})

	t.Run("password change invalidates", func(t *testing.T) {
		in := updateInput(*owner)
		in.NewPassword = "brand-new-pass"
		in.ConfirmPassword = "brand-new-pass"
		updated, _, err := f.runners.Update(ctx, Actor{RunnerID: owner.ID}, owner.ID, in)
		require.NoError(t, err)

		_, err = f.runners.ResolveActor(ctx, issued)
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = f.runners.ResolveActor(ctx, Credentials{RunnerID: owner.ID, Fingerprint: updated.CredentialFingerprint()})
		require.NoError(t, err)
	})

	t.Run("deleted runner", func(t *testing.T) {
		require.NoError(t, f.runners.Delete(ctx, Actor{RunnerID: owner.ID}, owner.ID))
		_, err := f.runners.ResolveActor(ctx, Credentials{RunnerID: owner.ID, Fingerprint: "anything"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRunnerServiceGetAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d10 := testutils.CreateDistance(t, f.db, 10)
	event := testutils.CreateEvent(t, f.db, "Upcoming", "Kyiv", now.Add(time.Hour), now, d10)
	runner := testutils.CreateRunner(t, f.db, "runner", false)
	other := testutils.CreateRunner(t, f.db, "other", false)
	testutils.CreateRegistration(t, f.db, event, runner, d10, now)

	profile, err := f.runners.Get(ctx, runner.ID, repositories.PageRequest{Page: 1})
	require.NoError(t, err)
	require.NotNil(t, profile.Age)
	assert.Equal(t, 24, *profile.Age)
	assert.Equal(t, int64(1), profile.Registrations.Total)

	require.ErrorIs(t, f.runners.Delete(ctx, actorFor(other), runner.ID), ErrForbidden)
	require.NoError(t, f.runners.Delete(ctx, actorFor(runner), runner.ID))

	_, err = f.runners.Get(ctx, runner.ID, repositories.PageRequest{Page: 1})
	require.ErrorIs(t, err, ErrNotFound)

	var regs int64
	require.NoError(t, f.db.Model(&models.Registration{}).Count(&regs).Error)
	assert.Zero(t, regs)
}
