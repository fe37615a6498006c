package token

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMissingSecret means the manager was built without a signing secret.
	ErrMissingSecret = errors.New("token: signing secret not configured")
	// ErrTokenInvalid covers any verification failure, expiry included.
	// Callers treat it as a recoverable authorization failure.
	ErrTokenInvalid = errors.New("token: invalid or expired token")
)

// Audience values distinguishing the three token kinds.
const (
	audActivation = "activation"
	audAccess     = "access"
	audRefresh    = "refresh"
)

// activationTTL is fixed: the emailed code is only meant to survive one
// registration attempt.
const activationTTL = 5 * time.Minute

// RegistrationPayload is the pending registration carried inside an
// activation token. The server keeps no copy of it.
type RegistrationPayload struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

type activationClaims struct {
	User RegistrationPayload `json:"user"`
	Code string              `json:"activation_code"`
	jwt.RegisteredClaims
}

type sessionClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Manager signs and verifies the three token kinds, each with its own
// secret and TTL.
type Manager struct {
	activationSecret []byte
	accessSecret     []byte
	refreshSecret    []byte
	accessTTL        time.Duration
	refreshTTL       time.Duration
}

func NewManager(activationSecret, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		activationSecret: []byte(activationSecret),
		accessSecret:     []byte(accessSecret),
		refreshSecret:    []byte(refreshSecret),
		accessTTL:        accessTTL,
		refreshTTL:       refreshTTL,
	}
}

// NewActivationCode returns a 4-digit code in [1000, 9999]. The code alone
// is weak; it is only ever checked together with the signed token.
func NewActivationCode() string {
	return fmt.Sprintf("%d", 1000+rand.Intn(9000))
}

// IssueActivation signs the pending registration together with code.
func (m *Manager) IssueActivation(payload RegistrationPayload, code string) (string, error) {
	if len(m.activationSecret) == 0 {
		return "", ErrMissingSecret
	}
	now := time.Now()
	claims := &activationClaims{
		User: payload,
		Code: code,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{audActivation},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(activationTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.activationSecret)
}

// VerifyActivation returns the embedded registration and code.
func (m *Manager) VerifyActivation(tokenStr string) (RegistrationPayload, string, error) {
	claims := &activationClaims{}
	if err := m.parse(tokenStr, claims, m.activationSecret, audActivation); err != nil {
		return RegistrationPayload{}, "", err
	}
	return claims.User, claims.Code, nil
}

// IssueAccess signs a short-lived credential carrying the user id.
func (m *Manager) IssueAccess(userID string) (string, time.Time, error) {
	return m.issueSession(userID, m.accessSecret, audAccess, m.accessTTL)
}

// IssueRefresh signs the longer-lived credential used only to mint new pairs.
func (m *Manager) IssueRefresh(userID string) (string, time.Time, error) {
	return m.issueSession(userID, m.refreshSecret, audRefresh, m.refreshTTL)
}

// VerifyAccess returns the user id carried by a valid access token.
func (m *Manager) VerifyAccess(tokenStr string) (string, error) {
	return m.verifySession(tokenStr, m.accessSecret, audAccess)
}

// VerifyRefresh returns the user id carried by a valid refresh token.
func (m *Manager) VerifyRefresh(tokenStr string) (string, error) {
	return m.verifySession(tokenStr, m.refreshSecret, audRefresh)
}

func (m *Manager) issueSession(userID string, secret []byte, aud string, ttl time.Duration) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}
	now := time.Now()
	exp := now.Add(ttl)
	claims := &sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Audience:  jwt.ClaimStrings{aud},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", aud, err)
	}
	return signed, exp, nil
}

func (m *Manager) verifySession(tokenStr string, secret []byte, aud string) (string, error) {
	claims := &sessionClaims{}
	if err := m.parse(tokenStr, claims, secret, aud); err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", ErrTokenInvalid
	}
	return claims.UserID, nil
}

func (m *Manager) parse(tokenStr string, claims jwt.Claims, secret []byte, aud string) error {
	if len(secret) == 0 {
		return ErrMissingSecret
	}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	}, jwt.WithAudience(aud))
	if err != nil || !tok.Valid {
		return ErrTokenInvalid
	}
	return nil
}
