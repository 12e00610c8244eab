package rpc

import (
	"context"
	"errors"

	"github.com/Varun5711/easywedding/internal/auth"
	"github.com/Varun5711/easywedding/internal/logger"
	usermodel "github.com/Varun5711/easywedding/internal/models/user"
	"github.com/Varun5711/easywedding/internal/service"
	"google.golang.org/grpc"
)

const serviceName = "easywedding.user.v1.UserService"

const (
	methodRegister    = "/" + serviceName + "/Register"
	methodLogin       = "/" + serviceName + "/Login"
	methodVerifyToken = "/" + serviceName + "/VerifyToken"
	methodGetProfile  = "/" + serviceName + "/GetProfile"
)

type VerifyTokenRequest struct {
	Token string `json:"token"`
}

type GetProfileRequest struct {
	UserID string `json:"userId"`
}

type userServiceServer interface {
	Register(context.Context, *usermodel.RegisterRequest) (*usermodel.AuthResponse, error)
	Login(context.Context, *usermodel.LoginRequest) (*usermodel.AuthResponse, error)
	VerifyToken(context.Context, *VerifyTokenRequest) (*auth.Claims, error)
	GetProfile(context.Context, *GetProfileRequest) (*usermodel.User, error)
}

// UserServer adapts an Authenticator to the gRPC service.
type UserServer struct {
	svc service.Authenticator
	log *logger.Logger
}

func NewUserServer(svc service.Authenticator, log *logger.Logger) *UserServer {
	return &UserServer{svc: svc, log: log}
}

// fail logs internal failures before their cause is dropped from the status.
func (s *UserServer) fail(method string, err error) error {
	if errors.Is(err, service.ErrInternal) {
		s.log.Error("%s: %v", method, err)
	}
	return toStatus(err)
}

func (s *UserServer) Register(ctx context.Context, req *usermodel.RegisterRequest) (*usermodel.AuthResponse, error) {
	res, err := s.svc.Register(ctx, req)
	if err != nil {
		return nil, s.fail("Register", err)
	}
	return res, nil
}

func (s *UserServer) Login(ctx context.Context, req *usermodel.LoginRequest) (*usermodel.AuthResponse, error) {
	res, err := s.svc.Login(ctx, req)
	if err != nil {
		return nil, s.fail("Login", err)
	}
	return res, nil
}

func (s *UserServer) VerifyToken(ctx context.Context, req *VerifyTokenRequest) (*auth.Claims, error) {
	claims, err := s.svc.VerifyToken(ctx, req.Token)
	if err != nil {
		return nil, s.fail("VerifyToken", err)
	}
	return claims, nil
}

func (s *UserServer) GetProfile(ctx context.Context, req *GetProfileRequest) (*usermodel.User, error) {
	u, err := s.svc.Profile(ctx, req.UserID)
	if err != nil {
		return nil, s.fail("GetProfile", err)
	}
	return u, nil
}

func unaryHandler[Req any, Res any](method string, call func(*UserServer, context.Context, *Req) (*Res, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		s := srv.(*UserServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*userServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(methodRegister, (*UserServer).Register)},
		{MethodName: "Login", Handler: unaryHandler(methodLogin, (*UserServer).Login)},
		{MethodName: "VerifyToken", Handler: unaryHandler(methodVerifyToken, (*UserServer).VerifyToken)},
		{MethodName: "GetProfile", Handler: unaryHandler(methodGetProfile, (*UserServer).GetProfile)},
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterUserServer(registrar grpc.ServiceRegistrar, srv *UserServer) {
	registrar.RegisterService(&serviceDesc, srv)
}
