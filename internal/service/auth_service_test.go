package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopie/internal/domain"
	"shopie/internal/token"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestProperty_RegistrationCreatesHashedPasswords(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("passwords are hashed with bcrypt and not stored as plaintext", prop.ForAll(
		func(email string, password string, firstName string) bool {
			env := newTestEnv()
			ctx := context.Background()

			resp, err := env.auth.Register(ctx, RegisterInput{Email: email, Password: password, FirstName: firstName})
			if err != nil {
				t.Logf("Registration failed: %v", err)
				return false
			}

			stored, err := env.store.Users().FindByID(ctx, resp.User.ID)
			if err != nil {
				return false
			}

			return stored.PasswordHash != password &&
				bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(password)) == nil &&
				stored.Role == domain.RoleCustomer
		},
		gen.RegexMatch(`[a-z]{5,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{6,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_LoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, err := env.auth.Register(ctx, RegisterInput{Email: "known@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	properties := gopter.NewProperties(nil)

	properties.Property("wrong password and unknown email yield the same error", prop.ForAll(
		func(password string, unknownEmail string) bool {
			if password == "correct-horse" {
				return true
			}

			_, wrongPassword := env.auth.Login(ctx, "known@example.com", password)
			_, unknownUser := env.auth.Login(ctx, unknownEmail, password)

			return wrongPassword != nil && unknownUser != nil &&
				domain.KindOf(wrongPassword) == domain.KindUnauthorized &&
				domain.KindOf(wrongPassword) == domain.KindOf(unknownUser) &&
				domain.MessageOf(wrongPassword) == domain.MessageOf(unknownUser)
		},
		gen.RegexMatch(`[A-Za-z0-9]{6,20}`),
		gen.RegexMatch(`[a-z]{5,10}@nowhere\.test`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRegisterIssuesTokenAndSendsWelcome(t *testing.T) {
	env := newTestEnv()

	resp, err := env.auth.Register(context.Background(), RegisterInput{
		Email: "  Jane@Example.com ", Password: "secret1", FirstName: "Jane", LastName: "Doe",
	})
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", resp.User.Email)
	claims, err := env.tokens.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID.String(), claims.Subject)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, domain.RoleCustomer, claims.Role)
	assert.WithinDuration(t, env.clock.Now().Add(token.DefaultAccessExpiry), resp.ExpiresAt, time.Second)

	assert.Len(t, env.mailer.byKind("welcome"), 1)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Email: "jane@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, RegisterInput{Email: "JANE@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "User with this email already exists", domain.MessageOf(err))
}

func TestRegisterSucceedsWhenWelcomeEmailFails(t *testing.T) {
	env := newTestEnv()
	env.mailer.err = errors.New("smtp down")

	resp, err := env.auth.Register(context.Background(), RegisterInput{Email: "jane@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	env := newTestEnv()

	_, err := env.auth.Register(context.Background(), RegisterInput{Email: "jane@example.com", Password: "12345"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestForgotPasswordUnknownEmailSucceedsSilently(t *testing.T) {
	env := newTestEnv()

	err := env.auth.ForgotPassword(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, env.mailer.byKind("reset"))
}

func TestForgotPasswordSucceedsWhenMailFails(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, err := env.auth.Register(ctx, RegisterInput{Email: "jane@example.com", Password: "secret1"})
	require.NoError(t, err)

	env.mailer.err = errors.New("smtp down")
	assert.NoError(t, env.auth.ForgotPassword(ctx, "jane@example.com"))
}

func requestReset(t *testing.T, env *testEnv, email string) string {
	t.Helper()
	require.NoError(t, env.auth.ForgotPassword(context.Background(), email))
	mails := env.mailer.byKind("reset")
	require.NotEmpty(t, mails)
	return mails[len(mails)-1].token
}

func TestResetPasswordIsSingleUse(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, err := env.auth.Register(ctx, RegisterInput{Email: "jane@example.com", Password: "old-password"})
	require.NoError(t, err)

	resetToken := requestReset(t, env, "jane@example.com")
	stored, err := env.store.Users().FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.ResetToken)
	assert.Equal(t, resetToken, *stored.ResetToken)

	require.NoError(t, env.auth.ResetPassword(ctx, resetToken, "new-password"))

	_, err = env.auth.Login(ctx, "jane@example.com", "new-password")
	assert.NoError(t, err)
	_, err = env.auth.Login(ctx, "jane@example.com", "old-password")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Len(t, env.mailer.byKind("password-changed"), 1)

	err = env.auth.ResetPassword(ctx, resetToken, "another-password")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, "Invalid or expired reset token", domain.MessageOf(err))
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, err := env.auth.Register(ctx, RegisterInput{Email: "jane@example.com", Password: "old-password"})
	require.NoError(t, err)

	resetToken := requestReset(t, env, "jane@example.com")
	env.clock.Advance(token.DefaultResetExpiry + time.Minute)

	err = env.auth.ResetPassword(ctx, resetToken, "new-password")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestResetPasswordRejectsSupersededToken(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, err := env.auth.Register(ctx, RegisterInput{Email: "jane@example.com", Password: "old-password"})
	require.NoError(t, err)

	first := requestReset(t, env, "jane@example.com")
	second := requestReset(t, env, "jane@example.com")
	require.NotEqual(t, first, second)

	assert.ErrorIs(t, env.auth.ResetPassword(ctx, first, "new-password"), domain.ErrUnauthorized)
	assert.NoError(t, env.auth.ResetPassword(ctx, second, "new-password"))
}

func TestResetPasswordRejectsAccessToken(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	resp, err := env.auth.Register(ctx, RegisterInput{Email: "jane@example.com", Password: "old-password"})
	require.NoError(t, err)

	err = env.auth.ResetPassword(ctx, resp.AccessToken, "new-password")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorIs(t, env.auth.ResetPassword(ctx, "garbage", "new-password"), domain.ErrUnauthorized)
}

func TestRefreshToken(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	resp, err := env.auth.Register(ctx, RegisterInput{Email: "jane@example.com", Password: "secret1"})
	require.NoError(t, err)

	env.clock.Advance(time.Minute)
	refreshed, err := env.auth.RefreshToken(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.ExpiresAt.After(resp.ExpiresAt))

	_, err = env.auth.RefreshToken(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.auth.EnsureAdmin(ctx, "admin@shopie.local", "admin-password"))
	require.NoError(t, env.auth.EnsureAdmin(ctx, "admin@shopie.local", "admin-password"))
	require.NoError(t, env.auth.EnsureAdmin(ctx, "", ""))

	admin, err := env.store.Users().FindByEmail(ctx, "admin@shopie.local")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	stats, err := env.store.Users().Stats(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)

	resp, err := env.auth.Login(ctx, "admin@shopie.local", "admin-password")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, resp.User.Role)
}

func TestLoginSurfacesStoreFailureAsInternal(t *testing.T) {
	env := newTestEnv()
	env.store.Fail(errors.New("connection refused"))

	_, err := env.auth.Login(context.Background(), "jane@example.com", "secret1")
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
}
