package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/anjali-menon/learnspace-api/internal/events"
	"github.com/anjali-menon/learnspace-api/internal/mailer"
	"github.com/anjali-menon/learnspace-api/internal/metrics"
	"github.com/anjali-menon/learnspace-api/internal/models"
	"github.com/anjali-menon/learnspace-api/internal/repository"
	"github.com/anjali-menon/learnspace-api/internal/session"
	"github.com/anjali-menon/learnspace-api/internal/token"
)

// RegisterInput holds a pending registration. Nothing is persisted until
// the emailed code comes back.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService drives the credential lifecycle: registration, activation,
// login, token refresh and logout.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (activationToken string, err error)
	Activate(ctx context.Context, activationToken, activationCode string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	SocialAuth(ctx context.Context, email, name, avatarURL string) (*models.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*models.Session, error)
	Logout(ctx context.Context, userID string) error
}

type authService struct {
	userRepo            repository.UserRepository
	sessions            session.Store
	tokens              *token.Manager
	mail                mailer.Mailer
	publisher           events.Publisher
	sessionTTL          time.Duration
	hashCost            int
	revalidateOnRefresh bool
	logger              *zap.SugaredLogger
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessions session.Store,
	tokens *token.Manager,
	mail mailer.Mailer,
	publisher events.Publisher,
	sessionTTL time.Duration,
	hashCost int,
	revalidateOnRefresh bool,
	logger *zap.SugaredLogger,
) AuthService {
	return &authService{
		userRepo:            userRepo,
		sessions:            sessions,
		tokens:              tokens,
		mail:                mail,
		publisher:           publisher,
		sessionTTL:          sessionTTL,
		hashCost:            hashCost,
		revalidateOnRefresh: revalidateOnRefresh,
		logger:              logger,
	}
}

// Register checks the email is free, signs the pending registration into an
// activation token and emails the code. No user record is created here; the
// token is the only carrier of the pending state.
func (s *authService) Register(ctx context.Context, input RegisterInput) (string, error) {
	_, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err == nil {
		return "", ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return "", fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	code := token.NewActivationCode()
	activationToken, err := s.tokens.IssueActivation(token.RegistrationPayload{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
	}, code)
	if err != nil {
		return "", fmt.Errorf("issue activation token: %w", err)
	}

	if err := s.mail.SendActivationEmail(ctx, input.Email, input.Name, code); err != nil {
		metrics.MailFailures.Inc()
		s.logger.Errorf("activation mail to %s: %v", input.Email, err)
		return "", ErrMailDispatch
	}

	metrics.Registrations.Inc()
	return activationToken, nil
}

// Activate consumes an activation token and creates the user. The email
// uniqueness re-check closes the race window between two registrations for
// the same address; replaying a consumed token fails there too.
func (s *authService) Activate(ctx context.Context, activationToken, activationCode string) (*models.User, error) {
	payload, code, err := s.tokens.VerifyActivation(activationToken)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if code != activationCode {
		return nil, ErrActivationCodeMismatch
	}

	_, err = s.userRepo.FindByEmail(ctx, payload.Email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("recheck email: %w", err)
	}

	user := &models.User{
		Name:         payload.Name,
		Email:        payload.Email,
		PasswordHash: payload.PasswordHash,
		Role:         models.RoleUser,
		IsVerified:   true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.Activations.Inc()
	s.publisher.Publish(events.Event{
		Type:   events.TypeUserActivated,
		UserID: user.ID.Hex(),
		Email:  user.Email,
		Name:   user.Name,
	})
	return user, nil
}

// Login verifies the password and issues a fresh session. Unknown email and
// wrong password produce the same error so accounts cannot be enumerated.
func (s *authService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user.PasswordHash == "" {
		// Social-auth account without a password.
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(ctx, user)
}

// SocialAuth logs in a user whose identity was verified upstream. A missing
// account is created on the spot, pre-activated and without a password.
func (s *authService) SocialAuth(ctx context.Context, email, name, avatarURL string) (*models.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		user = &models.User{
			Name:       name,
			Email:      email,
			Avatar:     models.Avatar{URL: avatarURL},
			Role:       models.RoleUser,
			IsVerified: true,
		}
		if createErr := s.userRepo.Create(ctx, user); createErr != nil {
			if repository.IsDuplicateKey(createErr) {
				// Concurrent social login for the same new address.
				if user, err = s.userRepo.FindByEmail(ctx, email); err != nil {
					return nil, fmt.Errorf("find user after duplicate: %w", err)
				}
			} else {
				return nil, fmt.Errorf("create social user: %w", createErr)
			}
		}
	} else if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	return s.issueSession(ctx, user)
}

// Refresh mints a new token pair from the cached snapshot. By default the
// credential store is not consulted, so role or ban changes only take
// effect at the next login; auth.revalidate_on_refresh flips that.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	user := sess.User
	if s.revalidateOnRefresh {
		fresh, err := s.userRepo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, ErrUnauthenticated
			}
			return nil, fmt.Errorf("revalidate user: %w", err)
		}
		user = *fresh
	}

	newSess, err := s.writeSession(ctx, &user)
	if err != nil {
		return nil, err
	}
	metrics.TokenRefreshes.Inc()
	return newSess, nil
}

// Logout drops the cached session. Repeating it is a no-op.
func (s *authService) Logout(ctx context.Context, userID string) error {
	return s.sessions.Delete(ctx, userID)
}

func (s *authService) issueSession(ctx context.Context, user *models.User) (*models.Session, error) {
	sess, err := s.writeSession(ctx, user)
	if err != nil {
		return nil, err
	}
	metrics.Logins.Inc()
	s.publisher.Publish(events.Event{
		Type:   events.TypeUserLoggedIn,
		UserID: user.ID.Hex(),
		Email:  user.Email,
	})
	return sess, nil
}

// writeSession mints an access/refresh pair and overwrites the user's
// snapshot, resetting its TTL.
func (s *authService) writeSession(ctx context.Context, user *models.User) (*models.Session, error) {
	access, _, err := s.tokens.IssueAccess(user.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, _, err := s.tokens.IssueRefresh(user.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	sess := &models.Session{
		User:         *user,
		AccessToken:  access,
		RefreshToken: refresh,
	}
	if err := s.sessions.Save(ctx, user.ID.Hex(), sess, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}
