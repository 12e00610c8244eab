package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Varun5711/easywedding/internal/auth"
	"github.com/Varun5711/easywedding/internal/logger"
	"github.com/Varun5711/easywedding/internal/models"
	usermodel "github.com/Varun5711/easywedding/internal/models/user"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type stubAuthenticator struct {
	tokens *auth.JWTManager
}

func (s stubAuthenticator) Register(context.Context, *usermodel.RegisterRequest) (*usermodel.AuthResponse, error) {
	return nil, nil
}

func (s stubAuthenticator) Login(context.Context, *usermodel.LoginRequest) (*usermodel.AuthResponse, error) {
	return nil, nil
}

func (s stubAuthenticator) VerifyToken(_ context.Context, token string) (*auth.Claims, error) {
	return s.tokens.ValidateToken(token)
}

func (s stubAuthenticator) Profile(context.Context, string) (*usermodel.User, error) {
	return nil, nil
}

func discard() *logger.Logger {
	return logger.NewWithWriter("test", io.Discard, logger.DEBUG)
}

func decodeEnvelope(t *testing.T, body io.Reader) models.Envelope {
	t.Helper()
	var env models.Envelope
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	return env
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewJWTManager("mw-secret", time.Hour)
	m := NewAuthMiddleware(stubAuthenticator{tokens: tokens}, discard())

	var gotUser string
	h := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	token, _, err := tokens.GenerateToken("user-1", "a@b.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = ""
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusNoContent && gotUser != "user-1" {
				t.Errorf("user id in context = %q, want user-1", gotUser)
			}
			if tt.status == http.StatusUnauthorized {
				env := decodeEnvelope(t, rec.Body)
				if env.Success || env.Error == "" {
					t.Errorf("unexpected envelope: %+v", env)
				}
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("test", &buf, logger.DEBUG)

	h := Recovery(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	env := decodeEnvelope(t, rec.Body)
	if env.Error != "internal error" {
		t.Errorf("error = %q, want 'internal error'", env.Error)
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Error("expected panic value to be logged")
	}
}

func TestTimeout(t *testing.T) {
	var hasDeadline bool
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !hasDeadline {
		t.Error("expected request context to carry a deadline")
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("order = %v", order)
	}
}

func TestRateLimiter_DisabledWithoutRedis(t *testing.T) {
	rl := NewRateLimiter(nil, 1, time.Minute, "auth", nil, discard())

	calls := 0
	h := rl.Limit(func(w http.ResponseWriter, r *http.Request) { calls++ })
	for i := 0; i < 5; i++ {
		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	}

	if calls != 5 {
		t.Errorf("calls = %d, want 5", calls)
	}
	if rl.String() != "disabled" {
		t.Errorf("String() = %q", rl.String())
	}
}

func TestRateLimiter_SpoofedForwardedForSharesPeerLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	resolver, err := NewClientIPResolver([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("NewClientIPResolver: %v", err)
	}
	rl := NewRateLimiter(client, 3, time.Minute, "auth", resolver, discard())

	calls := 0
	h := rl.Limit(func(w http.ResponseWriter, r *http.Request) { calls++ })

	var last *httptest.ResponseRecorder
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		last = httptest.NewRecorder()
		h(last, req)
	}

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Errorf("last status = %d, want 429", last.Code)
	}
	if keys := mr.Keys(); len(keys) != 1 || keys[0] != "ratelimit:auth:203.0.113.7" {
		t.Errorf("rate limit keys = %v", keys)
	}
}
