package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Varun5711/easywedding/internal/auth"
	"github.com/Varun5711/easywedding/internal/logger"
	usermodel "github.com/Varun5711/easywedding/internal/models/user"
	"github.com/Varun5711/easywedding/internal/storage"
	"github.com/Varun5711/easywedding/internal/validation"
)

// Authenticator is what the HTTP layer needs from the user service. It is served
// in-process by AuthService or remotely by rpc.UserClient.
type Authenticator interface {
	Register(ctx context.Context, req *usermodel.RegisterRequest) (*usermodel.AuthResponse, error)
	Login(ctx context.Context, req *usermodel.LoginRequest) (*usermodel.AuthResponse, error)
	VerifyToken(ctx context.Context, token string) (*auth.Claims, error)
	Profile(ctx context.Context, userID string) (*usermodel.User, error)
}

type AuthService struct {
	store  storage.CredentialStore
	hasher *auth.Hasher
	tokens *auth.JWTManager
	log    *logger.Logger
	now    func() time.Time
}

var _ Authenticator = (*AuthService)(nil)

func NewAuthService(store storage.CredentialStore, hasher *auth.Hasher, tokens *auth.JWTManager, log *logger.Logger) *AuthService {
	return &AuthService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		log:    log,
		now:    time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, req *usermodel.RegisterRequest) (*usermodel.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	if err := validation.ValidateRegistration(req.Email, req.Password, name); err != nil {
		return nil, newValidationError(err)
	}

	existing, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("register: lookup failed: %v", err)
		return nil, internalError(err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	passwordHash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		s.log.Error("register: hash failed: %v", err)
		return nil, internalError(err)
	}

	now := s.now().UTC()
	user := &usermodel.User{
		Email:        req.Email,
		Name:         name,
		PasswordHash: passwordHash,
		IsGuest:      false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Nothing is written once the caller has gone away.
	if err := ctx.Err(); err != nil {
		return nil, internalError(err)
	}

	id, err := s.store.Insert(ctx, user)
	if errors.Is(err, storage.ErrDuplicateEmail) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		s.log.Error("register: insert failed: %v", err)
		return nil, internalError(err)
	}
	user.ID = id

	s.log.Info("user registered: id=%s", id)
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req *usermodel.LoginRequest) (*usermodel.AuthResponse, error) {
	if err := validation.ValidateLogin(req.Email, req.Password); err != nil {
		return nil, newValidationError(err)
	}

	user, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("login: lookup failed: %v", err)
		return nil, internalError(err)
	}

	// Unknown emails are compared against the dummy hash so both branches cost the
	// same bcrypt work and fail the same way.
	hash := s.hasher.DummyHash()
	if user != nil {
		hash = user.PasswordHash
	}

	err = s.hasher.Compare(ctx, hash, req.Password)
	if err == nil && user == nil {
		err = auth.ErrPasswordMismatch
	}
	if errors.Is(err, auth.ErrPasswordMismatch) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		s.log.Error("login: compare failed: %v", err)
		return nil, internalError(err)
	}

	return s.issue(user)
}

func (s *AuthService) VerifyToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*usermodel.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		s.log.Error("profile: lookup failed: %v", err)
		return nil, internalError(err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user.Public(), nil
}

func (s *AuthService) issue(user *usermodel.User) (*usermodel.AuthResponse, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		s.log.Error("failed to generate token: %v", err)
		return nil, internalError(fmt.Errorf("generate token: %w", err))
	}

	return &usermodel.AuthResponse{
		User:      user.Public(),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
