package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Varun5711/easywedding/internal/models/invitation"
	usermodel "github.com/Varun5711/easywedding/internal/models/user"
)

var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrDuplicateUUID  = errors.New("invitation uuid already exists")
)

// CredentialStore is the durable set of user records. Lookups return (nil, nil) when
// nothing matches. Insert enforces email uniqueness atomically and reports a conflict
// as ErrDuplicateEmail; it assigns an ID when the user has none.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*usermodel.User, error)
	FindByID(ctx context.Context, id string) (*usermodel.User, error)
	Insert(ctx context.Context, u *usermodel.User) (string, error)
}

type InvitationStore interface {
	Create(ctx context.Context, inv *invitation.Invitation) error
	GetByUUID(ctx context.Context, uuid string) (*invitation.Invitation, error)
	ListByUser(ctx context.Context, userID string) ([]*invitation.Invitation, error)
	IncrementViews(ctx context.Context, counts map[string]int64) error
	// DeactivateExpired returns the UUIDs it switched off.
	DeactivateExpired(ctx context.Context, now time.Time) ([]string, error)
}
