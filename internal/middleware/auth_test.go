package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anjali-menon/learnspace-api/internal/models"
	"github.com/anjali-menon/learnspace-api/internal/session"
	"github.com/anjali-menon/learnspace-api/internal/token"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newMemStore() *memStore {
	return &memStore{sessions: map[string]*models.Session{}}
}

func (s *memStore) Save(_ context.Context, userID string, sess *models.Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[userID] = &cp
	return nil
}

func (s *memStore) Get(_ context.Context, userID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, session.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *memStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

func newTestApp(t *testing.T, store session.Store, tokens *token.Manager) *fiber.App {
	t.Helper()
	app := fiber.New()
	protect := Protect(tokens, store)
	app.Get("/me", protect, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "user": UserFromCtx(c)})
	})
	app.Get("/admin", protect, RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})
	return app
}

func seedSession(t *testing.T, store session.Store, tokens *token.Manager, role models.Role) (string, *models.User) {
	t.Helper()
	user := &models.User{
		ID:         primitive.NewObjectID(),
		Name:       "Mike",
		Email:      "mike@x.com",
		Role:       role,
		IsVerified: true,
	}
	access, _, err := tokens.IssueAccess(user.ID.Hex())
	require.NoError(t, err)
	err = store.Save(context.Background(), user.ID.Hex(), &models.Session{User: *user, AccessToken: access}, time.Hour)
	require.NoError(t, err)
	return access, user
}

func doRequest(t *testing.T, app *fiber.App, path, cookie string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: AccessCookie, Value: cookie})
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestProtectAllowsValidSession(t *testing.T) {
	store := newMemStore()
	tokens := token.NewManager("a", "b", "c", 5*time.Minute, time.Hour)
	app := newTestApp(t, store, tokens)
	access, _ := seedSession(t, store, tokens, models.RoleUser)

	resp := doRequest(t, app, "/me", access)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectRejectsMissingCookie(t *testing.T) {
	store := newMemStore()
	tokens := token.NewManager("a", "b", "c", 5*time.Minute, time.Hour)
	app := newTestApp(t, store, tokens)

	resp := doRequest(t, app, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectRejectsBadToken(t *testing.T) {
	store := newMemStore()
	tokens := token.NewManager("a", "b", "c", 5*time.Minute, time.Hour)
	app := newTestApp(t, store, tokens)

	resp := doRequest(t, app, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectRejectsEvictedSession(t *testing.T) {
	store := newMemStore()
	tokens := token.NewManager("a", "b", "c", 5*time.Minute, time.Hour)
	app := newTestApp(t, store, tokens)
	access, user := seedSession(t, store, tokens, models.RoleUser)

	require.NoError(t, store.Delete(context.Background(), user.ID.Hex()))

	// The token still verifies, but without a snapshot the request is
	// unauthenticated.
	resp := doRequest(t, app, "/me", access)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRoleForbidsUser(t *testing.T) {
	store := newMemStore()
	tokens := token.NewManager("a", "b", "c", 5*time.Minute, time.Hour)
	app := newTestApp(t, store, tokens)
	access, _ := seedSession(t, store, tokens, models.RoleUser)

	resp := doRequest(t, app, "/admin", access)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRequireRoleAllowsAdmin(t *testing.T) {
	store := newMemStore()
	tokens := token.NewManager("a", "b", "c", 5*time.Minute, time.Hour)
	app := newTestApp(t, store, tokens)
	access, _ := seedSession(t, store, tokens, models.RoleAdmin)

	resp := doRequest(t, app, "/admin", access)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
