package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/imunetrack/imunetrack-api/internal/domain"
	"github.com/imunetrack/imunetrack-api/internal/platform/logger"
	"github.com/imunetrack/imunetrack-api/internal/redact"
	"github.com/imunetrack/imunetrack-api/internal/service/auth"
	"github.com/imunetrack/imunetrack-api/internal/store"
)

// UserUpdate carries the fields to change on a user. Nil fields are left
// untouched.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

// UserService provides account management and credential checks.
type UserService interface {
	// ListUsers returns every user ordered by ID.
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID int64) (*domain.User, error)

	// GetUserByEmail retrieves a user by their email address
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// CreateUser registers a user, hashing the password before it is stored.
	CreateUser(ctx context.Context, name, email, password string) (*domain.User, error)

	// UpdateUser applies the non-nil fields of upd and returns the result.
	UpdateUser(ctx context.Context, userID int64, upd UserUpdate) (*domain.User, error)

	// DeleteUser deletes a user and, by cascade, their dose history.
	DeleteUser(ctx context.Context, userID int64) error

	// Authenticate checks credentials. An unknown email and a wrong password
	// both yield (nil, false, nil); only storage failures return an error.
	Authenticate(ctx context.Context, email, password string) (*domain.User, bool, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	txRunner  store.TxRunner
	hasher    auth.PasswordHasher
	now       func() time.Time
	logger    *slog.Logger
}

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	txRunner store.TxRunner,
	hasher auth.PasswordHasher,
	logger *slog.Logger,
	opts ...Option,
) *UserServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	o := applyOptions(opts)
	return &UserServiceImpl{
		userStore: userStore,
		txRunner:  txRunner,
		hasher:    hasher,
		now:       o.now,
		logger:    logger.With("component", "user_service"),
	}
}

// ListUsers implements UserService.
func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userStore.List(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list users",
			"error", redact.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser implements UserService.
func (s *UserServiceImpl) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve user",
				"error", redact.Error(err),
				"user_id", userID)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// GetUserByEmail implements UserService. The lookup is case-insensitive.
func (s *UserServiceImpl) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Debug("user not found by email",
				"email", redact.Email(email))
		} else {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve user by email",
				"error", redact.Error(err),
				"email", redact.Email(email))
		}
		return nil, fmt.Errorf("failed to retrieve user by email: %w", err)
	}
	return user, nil
}

// CreateUser implements UserService.
func (s *UserServiceImpl) CreateUser(ctx context.Context, name, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(name, email, password)
	if err != nil {
		log.Debug("rejected user input", "error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.HashedPassword, err = s.hasher.Hash(password)
	if err != nil {
		log.Error("failed to hash password", "error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	now := s.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	err = s.txRunner.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		if err := ensureEmailFree(ctx, txStore, user.Email, 0); err != nil {
			return err
		}
		return txStore.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("attempted to create user with existing email",
				"email", redact.Email(user.Email))
		} else {
			log.Error("failed to save user",
				"error", redact.Error(err),
				"email", redact.Email(user.Email))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("user created",
		"user_id", user.ID,
		"email", redact.Email(user.Email))
	return user, nil
}

// UpdateUser implements UserService.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, userID int64, upd UserUpdate) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("user_id", userID)

	var updated *domain.User
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		user, err := txStore.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if upd.Name != nil {
			if err := domain.ValidateName("name", *upd.Name); err != nil {
				return err
			}
			user.Name = strings.TrimSpace(*upd.Name)
		}

		if upd.Email != nil {
			email := domain.NormalizeEmail(*upd.Email)
			if err := domain.ValidateEmail(email); err != nil {
				return err
			}
			if email != user.Email {
				if err := ensureEmailFree(ctx, txStore, email, user.ID); err != nil {
					return err
				}
			}
			user.Email = email
		}

		if upd.Password != nil {
			if err := domain.ValidatePassword(*upd.Password); err != nil {
				return err
			}
			hash, err := s.hasher.Hash(*upd.Password)
			if err != nil {
				return err
			}
			user.HashedPassword = hash
		}

		user.UpdatedAt = s.now().UTC()
		if err := txStore.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound),
			errors.Is(err, store.ErrDuplicate),
			errors.Is(err, domain.ErrValidation):
			log.Debug("user update rejected", "error", redact.Error(err))
		default:
			log.Error("failed to update user", "error", redact.Error(err))
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	log.Info("user updated")
	return updated, nil
}

// DeleteUser implements UserService.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With("user_id", userID)

	err := s.txRunner.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Delete(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("attempted to delete non-existent user")
		} else {
			log.Error("failed to delete user", "error", redact.Error(err))
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	log.Info("user deleted")
	return nil
}

// Authenticate implements UserService.
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("authentication failed", "reason", "unknown email")
			return nil, false, nil
		}
		log.Error("failed to load user for authentication", "error", redact.Error(err))
		return nil, false, fmt.Errorf("failed to authenticate: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			log.Warn("stored password hash could not be compared",
				"user_id", user.ID,
				"error", err)
		}
		log.Debug("authentication failed", "reason", "password mismatch", "user_id", user.ID)
		return nil, false, nil
	}

	log.Info("user authenticated", "user_id", user.ID)
	return user, true, nil
}

// ensureEmailFree returns store.ErrEmailExists when email belongs to a user
// other than ownerID.
func ensureEmailFree(ctx context.Context, users store.UserStore, email string, ownerID int64) error {
	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != ownerID:
		return store.ErrEmailExists
	case err == nil, errors.Is(err, store.ErrUserNotFound):
		return nil
	default:
		return err
	}
}
