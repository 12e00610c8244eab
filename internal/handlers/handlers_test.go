package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Varun5711/easywedding/internal/auth"
	"github.com/Varun5711/easywedding/internal/cache"
	"github.com/Varun5711/easywedding/internal/logger"
	usermodel "github.com/Varun5711/easywedding/internal/models/user"
	"github.com/Varun5711/easywedding/internal/service"
	"github.com/Varun5711/easywedding/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

func newTestRouter(t *testing.T, authenticator service.Authenticator) http.Handler {
	t.Helper()
	log := logger.NewWithWriter("test", io.Discard, logger.DEBUG)

	if authenticator == nil {
		hasher, err := auth.NewHasher(bcrypt.MinCost, 4)
		require.NoError(t, err)
		authenticator = service.NewAuthService(
			storage.NewMemoryUserStorage(),
			hasher,
			auth.NewJWTManager("handler-secret", 7*24*time.Hour),
			log,
		)
	}

	invitations := service.NewInvitationService(
		storage.NewMemoryInvitationStorage(),
		cache.NewInvitationCache(100, time.Minute, nil, time.Hour),
		"http://localhost:3000",
		30*24*time.Hour,
		log,
	)

	return NewRouter(RouterConfig{
		Auth:           authenticator,
		Invitations:    invitations,
		RequestTimeout: 5 * time.Second,
		Log:            log,
	})
}

func do(t *testing.T, h http.Handler, method, path, body, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

type authData struct {
	User  map[string]interface{} `json:"user"`
	Token string                 `json:"token"`
}

func registerUser(t *testing.T, h http.Handler, email string) authData {
	t.Helper()
	rec, env := do(t, h, http.MethodPost, "/api/auth/register",
		`{"email":"`+email+`","password":"secret1","name":"Kim"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var data authData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data
}

func TestRegisterEndpoint(t *testing.T) {
	h := newTestRouter(t, nil)

	rec, env := do(t, h, http.MethodPost, "/api/auth/register", `{"email":"a@b.com","password":"secret1","name":"Kim"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Message)

	var data authData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.Token)
	for _, key := range []string{"id", "email", "name", "isGuest", "createdAt", "updatedAt"} {
		assert.Contains(t, data.User, key)
	}
	assert.NotContains(t, data.User, "passwordHash")
	assert.NotContains(t, data.User, "PasswordHash")
	assert.NotContains(t, rec.Body.String(), "$2a$")
	assert.Equal(t, false, data.User["isGuest"])
}

func TestRegisterEndpoint_Errors(t *testing.T) {
	h := newTestRouter(t, nil)
	registerUser(t, h, "a@b.com")

	rec, env := do(t, h, http.MethodPost, "/api/auth/register", `{"email":"a@b.com","password":"secret1","name":"Kim"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "email already registered", env.Error)

	rec, env = do(t, h, http.MethodPost, "/api/auth/register", `{"email":"c@d.com","password":"abcde","name":"Kim"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid input", env.Error)
	assert.Contains(t, env.Details, "password")

	rec, env = do(t, h, http.MethodPost, "/api/auth/register", `{"email":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid input", env.Error)
}

func TestLoginEndpoint(t *testing.T) {
	h := newTestRouter(t, nil)
	reg := registerUser(t, h, "a@b.com")

	rec, env := do(t, h, http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var data authData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEqual(t, reg.Token, data.Token)
	assert.Equal(t, reg.User["id"], data.User["id"])

	wrongRec, wrong := do(t, h, http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"wrong"}`, "")
	unknownRec, unknown := do(t, h, http.MethodPost, "/api/auth/login", `{"email":"z@b.com","password":"wrong"}`, "")

	assert.Equal(t, http.StatusUnauthorized, wrongRec.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownRec.Code)
	assert.Equal(t, "invalid email or password", wrong.Error)
	assert.Equal(t, wrong, unknown)
	assert.Equal(t, wrongRec.Body.String(), unknownRec.Body.String())
}

type brokenAuthenticator struct{}

func (brokenAuthenticator) Register(context.Context, *usermodel.RegisterRequest) (*usermodel.AuthResponse, error) {
	return nil, fmt.Errorf("%w: pq: connection reset", service.ErrInternal)
}

func (brokenAuthenticator) Login(context.Context, *usermodel.LoginRequest) (*usermodel.AuthResponse, error) {
	return nil, errors.New("unexpected")
}

func (brokenAuthenticator) VerifyToken(context.Context, string) (*auth.Claims, error) {
	return nil, auth.ErrInvalidToken
}

func (brokenAuthenticator) Profile(context.Context, string) (*usermodel.User, error) {
	return nil, service.ErrInternal
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	h := newTestRouter(t, brokenAuthenticator{})

	rec, env := do(t, h, http.MethodPost, "/api/auth/register", `{"email":"a@b.com","password":"secret1","name":"Kim"}`, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", env.Error)
	assert.NotContains(t, rec.Body.String(), "connection reset")

	rec, env = do(t, h, http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", env.Error)
}

func TestMeEndpoint(t *testing.T) {
	h := newTestRouter(t, nil)
	reg := registerUser(t, h, "a@b.com")

	rec, env := do(t, h, http.MethodGet, "/api/auth/me", "", reg.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"email":"a@b.com"`)

	rec, _ = do(t, h, http.MethodGet, "/api/auth/me", "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

const invitationBody = `{
	"groomName": "Raj",
	"brideName": "Simran",
	"weddingDate": "2026-12-12",
	"weddingTime": "18:00",
	"venueName": "Taj Palace",
	"venueAddress": "Mumbai",
	"message": "Please join us for our wedding",
	"theme": "modern"
}`

func TestInvitationEndpoints(t *testing.T) {
	h := newTestRouter(t, nil)
	owner := registerUser(t, h, "owner@example.com")
	other := registerUser(t, h, "other@example.com")

	rec, _ := do(t, h, http.MethodPost, "/api/invitations", invitationBody, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := do(t, h, http.MethodPost, "/api/invitations", invitationBody, owner.Token)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Invitation struct {
			UUID string `json:"uuid"`
		} `json:"invitation"`
		ShareURL string `json:"shareUrl"`
		QRCode   string `json:"qrCode"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	id := created.Invitation.UUID
	assert.Equal(t, "http://localhost:3000/invite/"+id, created.ShareURL)
	assert.True(t, strings.HasPrefix(created.QRCode, "data:image/png;base64,"))

	rec, env = do(t, h, http.MethodGet, "/api/invitations/"+id, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"groomName":"Raj"`)

	rec, _ = do(t, h, http.MethodGet, "/api/invitations/6f1c2a8e-3f7b-4c1d-9a2e-1b2c3d4e5f60", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = do(t, h, http.MethodGet, "/api/invitations", "", owner.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), id)

	rec, _ = do(t, h, http.MethodGet, "/api/invitations/"+id+"/stats", "", owner.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, h, http.MethodGet, "/api/invitations/"+id+"/stats", "", other.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, env.Success)

	rec, _ = do(t, h, http.MethodGet, "/api/invitations/"+id+"/qr?size=128", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestInvitationCreate_Validation(t *testing.T) {
	h := newTestRouter(t, nil)
	owner := registerUser(t, h, "owner@example.com")

	body := strings.Replace(invitationBody, `"2026-12-12"`, `"12/12/2026"`, 1)
	rec, env := do(t, h, http.MethodPost, "/api/invitations", body, owner.Token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid input", env.Error)
	assert.Contains(t, env.Details, "weddingDate")
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, nil)

	rec, env := do(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

type healthBody struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	ViewBacklog *int64            `json:"viewBacklog"`
}

func TestHealth_ReportsDependencies(t *testing.T) {
	h := NewHealthHandler(
		[]HealthCheck{
			{Name: "store", Check: func(context.Context) error { return nil }},
			{Name: "redis", Check: func(context.Context) error { return nil }},
		},
		func(context.Context) (int64, error) { return 7, nil },
		logger.NewWithWriter("test", io.Discard, logger.DEBUG),
	)

	rec, env := do(t, h, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var body healthBody
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]string{"store": "ok", "redis": "ok"}, body.Checks)
	require.NotNil(t, body.ViewBacklog)
	assert.Equal(t, int64(7), *body.ViewBacklog)
}

func TestHealth_FailingCheckIsUnavailable(t *testing.T) {
	h := NewHealthHandler(
		[]HealthCheck{
			{Name: "store", Check: func(context.Context) error { return nil }},
			{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: connection refused") }},
		},
		func(context.Context) (int64, error) { return 0, errors.New("dial tcp: connection refused") },
		logger.NewWithWriter("test", io.Discard, logger.DEBUG),
	)

	rec, env := do(t, h, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "service unavailable", env.Error)
	assert.NotContains(t, rec.Body.String(), "connection refused")

	var body healthBody
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unavailable", body.Checks["redis"])
	assert.Nil(t, body.ViewBacklog)
}
