package rpc

import (
	"context"
	"fmt"

	"github.com/Varun5711/easywedding/internal/auth"
	usermodel "github.com/Varun5711/easywedding/internal/models/user"
	"github.com/Varun5711/easywedding/internal/service"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// UserClient calls a remote user service. It satisfies service.Authenticator.
type UserClient struct {
	conn *grpc.ClientConn
}

var _ service.Authenticator = (*UserClient)(nil)

func NewUserClient(address string, opts ...grpc.DialOption) (*UserClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service client: %w", err)
	}
	return &UserClient{conn: conn}, nil
}

func (c *UserClient) Close() error {
	return c.conn.Close()
}

func (c *UserClient) invoke(ctx context.Context, method string, in, out any) error {
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return fromStatus(err)
	}
	return nil
}

func (c *UserClient) Register(ctx context.Context, req *usermodel.RegisterRequest) (*usermodel.AuthResponse, error) {
	out := new(usermodel.AuthResponse)
	if err := c.invoke(ctx, methodRegister, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *UserClient) Login(ctx context.Context, req *usermodel.LoginRequest) (*usermodel.AuthResponse, error) {
	out := new(usermodel.AuthResponse)
	if err := c.invoke(ctx, methodLogin, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *UserClient) VerifyToken(ctx context.Context, token string) (*auth.Claims, error) {
	out := new(auth.Claims)
	if err := c.invoke(ctx, methodVerifyToken, &VerifyTokenRequest{Token: token}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *UserClient) Profile(ctx context.Context, userID string) (*usermodel.User, error) {
	out := new(usermodel.User)
	if err := c.invoke(ctx, methodGetProfile, &GetProfileRequest{UserID: userID}, out); err != nil {
		return nil, err
	}
	return out, nil
}
