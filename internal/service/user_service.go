package service

import (
	"context"
	"errors"
	"strings"

	"coffeeshop/internal/entity"
	"coffeeshop/internal/repository"
	"coffeeshop/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

// UserService covers profile reads and the owner-or-admin management operations.
type UserService struct {
	users        repository.UserRepository
	securityLogs repository.SecurityLogRepository
	security     securityRecorder
	passwordHash PasswordHasher
}

func NewUserService(
	users repository.UserRepository,
	securityLogs repository.SecurityLogRepository,
	passwordHash PasswordHasher,
	logger logrus.FieldLogger,
) *UserService {
	return &UserService{
		users:        users,
		securityLogs: securityLogs,
		security:     securityRecorder{logs: securityLogs, logger: loggerOrDefault(logger)},
		passwordHash: passwordHash,
	}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, skip, limit int) ([]entity.User, int64, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	users, err := s.users.List(ctx, skip, limit)
	if err != nil {
		return nil, 0, storageError(err)
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, 0, storageError(err)
	}
	return users, total, nil
}

// Update applies patch to the target user. Only admins may change roles.
func (s *UserService) Update(ctx context.Context, actor Actor, id uuid.UUID, patch UserPatch) (*entity.User, error) {
	if !CanModifyUser(actor, id) {
		return nil, ErrUnauthorized
	}
	if patch.Role != nil {
		if !actor.IsAdmin() {
			return nil, ErrUnauthorized
		}
		if !patch.Role.Valid() {
			return nil, ErrInvalidInput
		}
	}
	if patch.Password != nil && strings.TrimSpace(*patch.Password) == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return user, nil
	}

	fields := make(map[string]any, 4)
	changed := make([]string, 0, 4)
	if patch.FirstName != nil {
		fields["first_name"] = *patch.FirstName
		changed = append(changed, "first_name")
	}
	if patch.LastName != nil {
		fields["last_name"] = *patch.LastName
		changed = append(changed, "last_name")
	}
	if patch.Password != nil {
		hash, err := s.passwordHash.Hash(*patch.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
		changed = append(changed, "password")
	}
	if patch.Role != nil {
		fields["role"] = string(*patch.Role)
		changed = append(changed, "role")
	}

	if err := s.users.Update(ctx, user.ID, fields); err != nil {
		return nil, storageError(err)
	}
	if user, err = s.Get(ctx, id); err != nil {
		return nil, err
	}

	s.security.record(ctx, &user.ID, nil, entity.UserUpdated, map[string]any{
		"actor_id": actor.ID.String(),
		"fields":   changed,
	})
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrUnauthorized
	}
	if actor.ID == id {
		return ErrCannotDeleteSelf
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return storageError(err)
	}

	s.security.record(ctx, &actor.ID, nil, entity.UserDeleted, map[string]any{"deleted_user_id": id.String()})
	return nil
}

// Activity returns the most recent audit entries of a user.
func (s *UserService) Activity(ctx context.Context, id uuid.UUID, limit int) ([]entity.SecurityLog, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.securityLogs == nil {
		return nil, nil
	}
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}
	logs, err := s.securityLogs.ListByUser(ctx, id, limit)
	if err != nil {
		return nil, storageError(err)
	}
	return logs, nil
}

// CreateAdmin registers an already verified administrator.
func (s *UserService) CreateAdmin(ctx context.Context, email string, password string) (*entity.User, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, ErrInvalidInput
	}
	hash, err := s.passwordHash.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:        email,
		PasswordHash: hash,
		Role:         entity.UserRoleAdmin,
		IsVerified:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, storageError(err)
	}
	return user, nil
}
