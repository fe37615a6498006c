package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anjali-menon/learnspace-api/internal/config"
	"github.com/anjali-menon/learnspace-api/internal/models"
	"github.com/anjali-menon/learnspace-api/internal/services"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, input services.RegisterInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *mockAuthService) Activate(ctx context.Context, activationToken, activationCode string) (*models.User, error) {
	args := m.Called(ctx, activationToken, activationCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockAuthService) SocialAuth(ctx context.Context, email, name, avatarURL string) (*models.Session, error) {
	args := m.Called(ctx, email, name, avatarURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func testCookieCfg() config.CookieCfg {
	return config.CookieCfg{
		Secure:        false,
		SameSite:      "Lax",
		AccessMaxAge:  5 * time.Minute,
		RefreshMaxAge: 72 * time.Hour,
	}
}

func newAuthTestApp(svc services.AuthService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	h := NewAuthHandler(svc, testCookieCfg())
	app.Post("/registration", h.Register)
	app.Post("/activation", h.Activate)
	app.Post("/login", h.Login)
	app.Post("/socialAuth", h.SocialAuth)
	app.Get("/refreshToken", h.Refresh)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func testSession() *models.Session {
	return &models.Session{
		User: models.User{
			ID:         primitive.NewObjectID(),
			Name:       "Mike",
			Email:      "mike@x.com",
			Role:       models.RoleUser,
			IsVerified: true,
		},
		AccessToken:  "access-token-value",
		RefreshToken: "refresh-token-value",
	}
}

func TestRegisterReturnsActivationToken(t *testing.T) {
	svc := new(mockAuthService)
	svc.On("Register", mock.Anything, services.RegisterInput{
		Name: "Mike", Email: "mike@x.com", Password: "secret1",
	}).Return("activation-token", nil)
	app := newAuthTestApp(svc)

	resp := postJSON(t, app, "/registration", fiber.Map{
		"name": "Mike", "email": "mike@x.com", "password": "secret1",
	})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "activation-token", body["activation_token"])
	assert.Contains(t, body["message"], "mike@x.com")
	svc.AssertExpectations(t)
}

func TestRegisterValidation(t *testing.T) {
	svc := new(mockAuthService)
	app := newAuthTestApp(svc)

	resp := postJSON(t, app, "/registration", fiber.Map{"name": "Mike", "email": "not-an-email", "password": "secret1"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	assert.Equal(t, false, body["success"])
	svc.AssertNotCalled(t, "Register")
}

func TestRegisterDuplicateEmailStatus(t *testing.T) {
	svc := new(mockAuthService)
	svc.On("Register", mock.Anything, mock.Anything).Return("", services.ErrEmailTaken)
	app := newAuthTestApp(svc)

	resp := postJSON(t, app, "/registration", fiber.Map{"name": "Mike", "email": "mike@x.com", "password": "secret1"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, services.ErrEmailTaken.Error(), body["message"])
}

func TestRegisterMailFailureStatus(t *testing.T) {
	svc := new(mockAuthService)
	svc.On("Register", mock.Anything, mock.Anything).Return("", services.ErrMailDispatch)
	app := newAuthTestApp(svc)

	resp := postJSON(t, app, "/registration", fiber.Map{"name": "Mike", "email": "mike@x.com", "password": "secret1"})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestActivateCodeMismatchStatus(t *testing.T) {
	svc := new(mockAuthService)
	svc.On("Activate", mock.Anything, "tok", "1234").Return(nil, services.ErrActivationCodeMismatch)
	app := newAuthTestApp(svc)

	resp := postJSON(t, app, "/activation", fiber.Map{"activation_token": "tok", "activation_code": "1234"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	assert.Equal(t, services.ErrActivationCodeMismatch.Error(), body["message"])
}

func TestLoginSetsCookiesAndBody(t *testing.T) {
	sess := testSession()
	svc := new(mockAuthService)
	svc.On("Login", mock.Anything, "mike@x.com", "secret1").Return(sess, nil)
	app := newAuthTestApp(svc)

	resp := postJSON(t, app, "/login", fiber.Map{"email": "mike@x.com", "password": "secret1"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "access-token-value", body["access_token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "mike@x.com", user["email"])
	// The password hash never appears in a response.
	_, leaked := user["password_hash"]
	assert.False(t, leaked)

	access := cookieByName(resp, "access_token")
	require.NotNil(t, access)
	assert.Equal(t, "access-token-value", access.Value)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)

	refresh := cookieByName(resp, "refresh_token")
	require.NotNil(t, refresh)
	assert.Equal(t, "refresh-token-value", refresh.Value)
	assert.True(t, refresh.HttpOnly)
	assert.Greater(t, refresh.MaxAge, access.MaxAge)
}

func TestLoginInvalidCredentialsStatus(t *testing.T) {
	svc := new(mockAuthService)
	svc.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, services.ErrInvalidCredentials)
	app := newAuthTestApp(svc)

	resp := postJSON(t, app, "/login", fiber.Map{"email": "mike@x.com", "password": "wrong"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	assert.Equal(t, services.ErrInvalidCredentials.Error(), body["message"])
}

func TestRefreshWithoutCookie(t *testing.T) {
	svc := new(mockAuthService)
	app := newAuthTestApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/refreshToken", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	svc.AssertNotCalled(t, "Refresh")
}

func TestRefreshRewritesCookies(t *testing.T) {
	sess := testSession()
	svc := new(mockAuthService)
	svc.On("Refresh", mock.Anything, "old-refresh").Return(sess, nil)
	app := newAuthTestApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/refreshToken", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "old-refresh"})
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	assert.Equal(t, "access-token-value", body["access_token"])
	require.NotNil(t, cookieByName(resp, "access_token"))
	require.NotNil(t, cookieByName(resp, "refresh_token"))
}

func TestRefreshAfterLogoutStatus(t *testing.T) {
	svc := new(mockAuthService)
	svc.On("Refresh", mock.Anything, "stale").Return(nil, services.ErrUnauthenticated)
	app := newAuthTestApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/refreshToken", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "stale"})
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutClearsCookies(t *testing.T) {
	sess := testSession()
	svc := new(mockAuthService)
	svc.On("Logout", mock.Anything, sess.User.ID.Hex()).Return(nil)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	h := NewAuthHandler(svc, testCookieCfg())
	app.Get("/logout", func(c *fiber.Ctx) error {
		c.Locals("currentUser", &sess.User)
		return c.Next()
	}, h.Logout)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	assert.Equal(t, "Logged out successfully", body["message"])
	for _, name := range []string{"access_token", "refresh_token"} {
		ck := cookieByName(resp, name)
		require.NotNil(t, ck)
		assert.Empty(t, ck.Value)
		assert.True(t, ck.Expires.Before(time.Now()))
	}
	svc.AssertExpectations(t)
}

func TestSocialAuth(t *testing.T) {
	sess := testSession()
	svc := new(mockAuthService)
	svc.On("SocialAuth", mock.Anything, "mike@x.com", "Mike", "https://img.example/m.png").Return(sess, nil)
	app := newAuthTestApp(svc)

	resp := postJSON(t, app, "/socialAuth", fiber.Map{
		"email": "mike@x.com", "name": "Mike", "avatar": "https://img.example/m.png",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, cookieByName(resp, "access_token"))
	svc.AssertExpectations(t)
}
