package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/anjali-menon/learnspace-api/internal/events"
	"github.com/anjali-menon/learnspace-api/internal/models"
	"github.com/anjali-menon/learnspace-api/internal/repository"
	"github.com/anjali-menon/learnspace-api/internal/session"
)

// UserService covers profile self-service and the admin user operations.
type UserService interface {
	UpdateInfo(ctx context.Context, userID, name, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	userRepo   repository.UserRepository
	sessions   session.Store
	publisher  events.Publisher
	sessionTTL time.Duration
	hashCost   int
	logger     *zap.SugaredLogger
}

func NewUserService(
	userRepo repository.UserRepository,
	sessions session.Store,
	publisher events.Publisher,
	sessionTTL time.Duration,
	hashCost int,
	logger *zap.SugaredLogger,
) UserService {
	return &userService{
		userRepo:   userRepo,
		sessions:   sessions,
		publisher:  publisher,
		sessionTTL: sessionTTL,
		hashCost:   hashCost,
		logger:     logger,
	}
}

// UpdateInfo changes name and/or email. Empty fields are left alone. A
// changed email goes through the same uniqueness check as registration.
func (s *userService) UpdateInfo(ctx context.Context, userID, name, email string) (*models.User, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if email != "" && email != user.Email {
		if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("check email: %w", err)
		}
		user.Email = email
	}
	if name != "" {
		user.Name = name
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.refreshSnapshot(ctx, user)
	return user, nil
}

// UpdatePassword verifies the old password before re-hashing the new one.
func (s *userService) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) (*models.User, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == "" {
		// Social-auth accounts have no password to change.
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return nil, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.refreshSnapshot(ctx, user)
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateRole assigns a role from the closed enum. The target's cached
// session is left untouched; the new role applies at their next login.
func (s *userService) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	user, err := s.userRepo.UpdateRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update role: %w", err)
	}

	s.publisher.Publish(events.Event{
		Type:   events.TypeUserRoleUpdated,
		UserID: user.ID.Hex(),
		Email:  user.Email,
		Role:   string(user.Role),
	})
	return user, nil
}

// DeleteUser removes the record and its cached session so outstanding
// refresh tokens die with it.
func (s *userService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		s.logger.Warnf("delete session for %s: %v", id, err)
	}

	s.publisher.Publish(events.Event{
		Type:   events.TypeUserDeleted,
		UserID: id,
		Email:  user.Email,
	})
	return nil
}

func (s *userService) findUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// refreshSnapshot rewrites the cached session after a profile change so /me
// sees the update without a re-login. Tokens are kept as they were. A user
// with no live session has nothing to refresh.
func (s *userService) refreshSnapshot(ctx context.Context, user *models.User) {
	sess, err := s.sessions.Get(ctx, user.ID.Hex())
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			s.logger.Warnf("load session for %s: %v", user.ID.Hex(), err)
		}
		return
	}
	sess.User = *user
	if err := s.sessions.Save(ctx, user.ID.Hex(), sess, s.sessionTTL); err != nil {
		s.logger.Warnf("refresh session for %s: %v", user.ID.Hex(), err)
	}
}
