package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultCost is the bcrypt work factor used for stored credentials.
const DefaultCost = 12

var ErrPasswordMismatch = errors.New("password does not match")

// Hasher runs bcrypt with a bounded number of concurrent operations so a burst of
// register/login calls cannot occupy every CPU.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted

	// dummy is compared against on logins for unknown emails.
	dummy string
}

// NewHasher fails when bcrypt rejects cost, since the dummy hash is computed up front.
func NewHasher(cost, concurrency int) (*Hasher, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &Hasher{
		cost:  cost,
		sem:   semaphore.NewWeighted(int64(concurrency)),
		dummy: string(dummy),
	}, nil
}

func (h *Hasher) Cost() int {
	return h.cost
}

func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// DummyHash returns a hash of a random secret at the hasher's cost. Comparing against
// it takes as long as a real comparison and never matches.
func (h *Hasher) DummyHash() string {
	return h.dummy
}

// Compare returns ErrPasswordMismatch when the password is wrong and any other error
// when the stored hash itself is unusable.
func (h *Hasher) Compare(ctx context.Context, hashedPassword, password string) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}
