package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/Varun5711/easywedding/internal/auth"
	"github.com/Varun5711/easywedding/internal/service"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus converts a service error into a gRPC status. Internal causes are not
// sent to the caller.
func toStatus(err error) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		st := status.New(codes.InvalidArgument, service.ErrValidation.Error())
		detailed, derr := st.WithDetails(&errdetails.BadRequest{
			FieldViolations: []*errdetails.BadRequest_FieldViolation{
				{Field: ve.Field, Description: ve.Message},
			},
		})
		if derr != nil {
			return st.Err()
		}
		return detailed.Err()
	case errors.Is(err, service.ErrDuplicateEmail):
		return status.Error(codes.AlreadyExists, service.ErrDuplicateEmail.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, service.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, auth.ErrInvalidToken.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, service.ErrNotFound.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, context.Canceled.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, context.DeadlineExceeded.Error())
	default:
		return status.Error(codes.Internal, service.ErrInternal.Error())
	}
}

// fromStatus maps a gRPC status back onto the service sentinels so remote and
// in-process callers see the same errors.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %w", service.ErrInternal, err)
	}

	switch st.Code() {
	case codes.InvalidArgument:
		for _, d := range st.Details() {
			if br, ok := d.(*errdetails.BadRequest); ok && len(br.GetFieldViolations()) > 0 {
				fv := br.GetFieldViolations()[0]
				return &service.ValidationError{Field: fv.GetField(), Message: fv.GetDescription()}
			}
		}
		return &service.ValidationError{Message: st.Message()}
	case codes.AlreadyExists:
		return service.ErrDuplicateEmail
	case codes.Unauthenticated:
		if st.Message() == auth.ErrInvalidToken.Error() {
			return auth.ErrInvalidToken
		}
		return service.ErrInvalidCredentials
	case codes.NotFound:
		return service.ErrNotFound
	case codes.Canceled:
		return fmt.Errorf("%w: %w", service.ErrInternal, context.Canceled)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %w", service.ErrInternal, context.DeadlineExceeded)
	default:
		return fmt.Errorf("%w: %s", service.ErrInternal, st.Message())
	}
}
