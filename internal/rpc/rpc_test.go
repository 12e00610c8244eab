package rpc

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/Varun5711/easywedding/internal/auth"
	"github.com/Varun5711/easywedding/internal/logger"
	usermodel "github.com/Varun5711/easywedding/internal/models/user"
	"github.com/Varun5711/easywedding/internal/service"
	"github.com/Varun5711/easywedding/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

func newTestClient(t *testing.T) *UserClient {
	t.Helper()

	log := logger.NewWithWriter("test", io.Discard, logger.DEBUG)
	hasher, err := auth.NewHasher(bcrypt.MinCost, 4)
	require.NoError(t, err)
	svc := service.NewAuthService(
		storage.NewMemoryUserStorage(),
		hasher,
		auth.NewJWTManager("rpc-secret", time.Hour),
		log,
	)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterUserServer(srv, NewUserServer(svc, log))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	client, err := NewUserClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestUserClient_RegisterLoginVerifyProfile(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	reg, err := c.Register(ctx, &usermodel.RegisterRequest{Email: "a@b.com", Password: "secret1", Name: "Kim"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.User.ID)
	assert.Equal(t, "Kim", reg.User.Name)
	assert.Empty(t, reg.User.PasswordHash)

	login, err := c.Login(ctx, &usermodel.LoginRequest{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEqual(t, reg.Token, login.Token)

	claims, err := c.VerifyToken(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)

	profile, err := c.Profile(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", profile.Email)
}

func TestUserClient_ErrorsMapBackToSentinels(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.Register(ctx, &usermodel.RegisterRequest{Email: "a@b.com", Password: "secret1", Name: "Kim"})
	require.NoError(t, err)

	_, err = c.Register(ctx, &usermodel.RegisterRequest{Email: "a@b.com", Password: "secret1", Name: "Kim"})
	assert.ErrorIs(t, err, service.ErrDuplicateEmail)

	_, err = c.Register(ctx, &usermodel.RegisterRequest{Email: "c@d.com", Password: "abcde", Name: "Kim"})
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "password", ve.Field)
	assert.ErrorIs(t, err, service.ErrValidation)

	_, wrong := c.Login(ctx, &usermodel.LoginRequest{Email: "a@b.com", Password: "wrong"})
	_, unknown := c.Login(ctx, &usermodel.LoginRequest{Email: "x@y.com", Password: "wrong"})
	assert.ErrorIs(t, wrong, service.ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, service.ErrInvalidCredentials)

	_, err = c.VerifyToken(ctx, "garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = c.Profile(ctx, "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}
