package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"shopie/internal/domain"
	"shopie/internal/mail"
	"shopie/internal/repository"
	"shopie/internal/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidResetToken  = "Invalid or expired reset token"
)

// AuthResponse is returned by every operation that issues a session token
type AuthResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

// RegisterInput carries the fields accepted at sign-up
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResponse, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	RefreshToken(ctx context.Context, userID uuid.UUID) (*AuthResponse, error)
	EnsureAdmin(ctx context.Context, email, password string) error
}

type authService struct {
	users  repository.UserRepository
	tokens *token.Manager
	mailer mail.Mailer
	hasher passwordHasher
	logger *zap.Logger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(
	users repository.UserRepository,
	tokens *token.Manager,
	mailer mail.Mailer,
	bcryptCost int,
	logger *zap.Logger,
) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		mailer: mailer,
		hasher: newPasswordHasher(bcryptCost),
		logger: logger,
		now:    time.Now,
	}
}

// Register creates a customer account and signs the user in
func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResponse, error) {
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	email := normalizeEmail(in.Email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ConflictError("User with this email already exists")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, domain.InternalError("failed to check existing user", err)
	}

	hashedPassword, err := s.hasher.hash(in.Password)
	if err != nil {
		return nil, domain.InternalError("failed to register user", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashedPassword,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Role:         domain.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, domain.ConflictError("User with this email already exists")
		}
		return nil, domain.InternalError("failed to register user", err)
	}

	if err := s.mailer.SendWelcomeEmail(ctx, user.Email, user.FirstName); err != nil {
		s.logger.Warn("Failed to send welcome email", zap.String("email", user.Email), zap.Error(err))
	}

	return s.issue(user)
}

// Login verifies credentials. Unknown emails and wrong passwords fail identically.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn a comparison so response time does not reveal whether the email exists.
			s.hasher.verify(s.dummy(), password)
			return nil, domain.UnauthorizedError(msgInvalidCredentials)
		}
		return nil, domain.InternalError("failed to log in", err)
	}

	if !s.hasher.verify(user.PasswordHash, password) {
		return nil, domain.UnauthorizedError(msgInvalidCredentials)
	}

	return s.issue(user)
}

// ForgotPassword stores a reset token and mails it when the account exists.
// It reports success either way.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Debug("Password reset requested for unknown email")
			return nil
		}
		return domain.InternalError("failed to process password reset", err)
	}

	resetToken, expiresAt, err := s.tokens.IssueReset(user)
	if err != nil {
		return domain.InternalError("failed to process password reset", err)
	}

	expiresAt = expiresAt.UTC()
	user.ResetToken = &resetToken
	user.ResetTokenExpiry = &expiresAt
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return domain.InternalError("failed to process password reset", err)
	}

	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, resetToken, expiresAt.Sub(s.now())); err != nil {
		s.logger.Error("Failed to send password reset email", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	return nil
}

// ResetPassword consumes a reset token. The token is single use.
func (s *authService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	claims, err := s.tokens.ParseReset(resetToken)
	if err != nil {
		return domain.UnauthorizedError(msgInvalidResetToken)
	}
	userID, err := claims.UserID()
	if err != nil {
		return domain.UnauthorizedError(msgInvalidResetToken)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.UnauthorizedError(msgInvalidResetToken)
		}
		return domain.InternalError("failed to reset password", err)
	}

	now := s.now()
	if user.ResetToken == nil || *user.ResetToken != resetToken ||
		user.ResetTokenExpiry == nil || user.ResetTokenExpiry.Before(now) {
		return domain.UnauthorizedError(msgInvalidResetToken)
	}

	hashedPassword, err := s.hasher.hash(newPassword)
	if err != nil {
		return domain.InternalError("failed to reset password", err)
	}

	user.PasswordHash = hashedPassword
	user.ResetToken = nil
	user.ResetTokenExpiry = nil
	user.UpdatedAt = now.UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return domain.InternalError("failed to reset password", err)
	}

	if err := s.mailer.SendPasswordChangeConfirmation(ctx, user.Email); err != nil {
		s.logger.Warn("Failed to send password change confirmation", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	return nil
}

// RefreshToken reissues a session token for an authenticated subject
func (s *authService) RefreshToken(ctx context.Context, userID uuid.UUID) (*AuthResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domain.UnauthorizedError("User not found")
		}
		return nil, domain.InternalError("failed to refresh token", err)
	}

	return s.issue(user)
}

// EnsureAdmin creates the bootstrap admin account if it does not exist yet
func (s *authService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return domain.InternalError("failed to look up admin user", err)
	}

	hashedPassword, err := s.hasher.hash(password)
	if err != nil {
		return domain.InternalError("failed to create admin user", err)
	}

	now := s.now().UTC()
	admin := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, admin); err != nil && !errors.Is(err, repository.ErrUserAlreadyExists) {
		return domain.InternalError("failed to create admin user", err)
	}

	s.logger.Info("Admin user created", zap.String("email", email))
	return nil
}

func (s *authService) issue(user *domain.User) (*AuthResponse, error) {
	accessToken, expiresAt, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, domain.InternalError("failed to issue token", err)
	}
	return &AuthResponse{User: user, AccessToken: accessToken, ExpiresAt: expiresAt}, nil
}

func (s *authService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.hash(uuid.NewString())
	})
	return s.dummyHash
}
