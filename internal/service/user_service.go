package service

import (
	"context"
	"errors"
	"time"

	"shopie/internal/domain"
	"shopie/internal/mail"
	"shopie/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecentSignupWindow bounds the "recent signups" figure in user stats
const RecentSignupWindow = 30 * 24 * time.Hour

// ProfileUpdate is a partial update of a user's own profile. Nil fields are left unchanged.
type ProfileUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
	Phone     *string
}

// CreateUserInput is used by admins to create accounts of any role
type CreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      domain.Role
}

// UserUpdate is an admin partial update. Nil fields are left unchanged.
type UserUpdate struct {
	ProfileUpdate
	Password *string
	Role     *domain.Role
}

// UserService defines the interface for account self-service and user administration
type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*domain.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	DeleteAccount(ctx context.Context, userID uuid.UUID) error

	ListUsers(ctx context.Context, filter repository.UserFilter) ([]*domain.User, domain.Pagination, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, in UserUpdate) (*domain.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) (*domain.User, error)
	DeleteUser(ctx context.Context, actorID, id uuid.UUID) error
	Stats(ctx context.Context) (*domain.UserStats, error)
}

type userService struct {
	users  repository.UserRepository
	mailer mail.Mailer
	hasher passwordHasher
	logger *zap.Logger
	now    func() time.Time
}

// NewUserService creates a new instance of UserService
func NewUserService(users repository.UserRepository, mailer mail.Mailer, bcryptCost int, logger *zap.Logger) UserService {
	return &userService{
		users:  users,
		mailer: mailer,
		hasher: newPasswordHasher(bcryptCost),
		logger: logger,
		now:    time.Now,
	}
}

func (s *userService) find(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domain.NotFoundError("User not found")
		}
		return nil, domain.InternalError("failed to load user", err)
	}
	return user, nil
}

func (s *userService) save(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserAlreadyExists):
			return domain.ConflictError("Email already exists")
		case errors.Is(err, repository.ErrUserNotFound):
			return domain.NotFoundError("User not found")
		}
		return domain.InternalError("failed to update user", err)
	}
	return nil
}

// applyProfile copies the non-nil fields of in onto user, checking that a
// new email is not already taken by someone else.
func (s *userService) applyProfile(ctx context.Context, user *domain.User, in ProfileUpdate) error {
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != user.Email {
			other, err := s.users.FindByEmail(ctx, email)
			if err == nil && other.ID != user.ID {
				return domain.ConflictError("Email already exists")
			}
			if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
				return domain.InternalError("failed to check email", err)
			}
			user.Email = email
		}
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	return nil
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.find(ctx, userID)
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*domain.User, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.applyProfile(ctx, user, in); err != nil {
		return nil, err
	}
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one
func (s *userService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.find(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.verify(user.PasswordHash, currentPassword) {
		return domain.ValidationError("Current password is incorrect")
	}

	hashedPassword, err := s.hasher.hash(newPassword)
	if err != nil {
		return domain.InternalError("failed to change password", err)
	}
	user.PasswordHash = hashedPassword
	if err := s.save(ctx, user); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordChangeConfirmation(ctx, user.Email); err != nil {
		s.logger.Warn("Failed to send password change confirmation", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return nil
}

// DeleteAccount removes the user and, by cascade, their cart
func (s *userService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.NotFoundError("User not found")
		}
		return domain.InternalError("failed to delete account", err)
	}
	return nil
}

func (s *userService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]*domain.User, domain.Pagination, error) {
	page, err := filter.PageRequest.Normalize()
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, domain.Pagination{}, domain.ValidationError("role must be one of CUSTOMER, ADMIN")
	}
	filter.PageRequest = page

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, domain.Pagination{}, domain.InternalError("failed to list users", err)
	}
	return users, domain.NewPagination(page, total), nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.find(ctx, id)
}

func (s *userService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	if !role.Valid() {
		return nil, domain.ValidationError("role must be one of CUSTOMER, ADMIN")
	}

	hashedPassword, err := s.hasher.hash(in.Password)
	if err != nil {
		return nil, domain.InternalError("failed to create user", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hashedPassword,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, domain.ConflictError("User with this email already exists")
		}
		return nil, domain.InternalError("failed to create user", err)
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, in UserUpdate) (*domain.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyProfile(ctx, user, in.ProfileUpdate); err != nil {
		return nil, err
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, domain.ValidationError("role must be one of CUSTOMER, ADMIN")
		}
		user.Role = *in.Role
	}
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		hashedPassword, err := s.hasher.hash(*in.Password)
		if err != nil {
			return nil, domain.InternalError("failed to update user", err)
		}
		user.PasswordHash = hashedPassword
	}
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) (*domain.User, error) {
	return s.UpdateUser(ctx, id, UserUpdate{Role: &role})
}

// DeleteUser removes another user's account. Admins cannot delete themselves here.
func (s *userService) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return domain.ValidationError("You cannot delete your own account from the admin panel")
	}
	return s.DeleteAccount(ctx, id)
}

func (s *userService) Stats(ctx context.Context) (*domain.UserStats, error) {
	stats, err := s.users.Stats(ctx, s.now().Add(-RecentSignupWindow).UTC())
	if err != nil {
		return nil, domain.InternalError("failed to load user stats", err)
	}
	return stats, nil
}
