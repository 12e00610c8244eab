package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Varun5711/easywedding/internal/models/invitation"
	usermodel "github.com/Varun5711/easywedding/internal/models/user"
	"github.com/google/uuid"
)

// MemoryUserStorage keeps users in process memory. Email uniqueness is
// checked and recorded under one write lock.
type MemoryUserStorage struct {
	mu      sync.RWMutex
	byID    map[string]*usermodel.User
	byEmail map[string]string
}

func NewMemoryUserStorage() *MemoryUserStorage {
	return &MemoryUserStorage{
		byID:    make(map[string]*usermodel.User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryUserStorage) Insert(ctx context.Context, u *usermodel.User) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[u.Email]; exists {
		return "", ErrDuplicateEmail
	}

	if u.ID == "" {
		u.ID = uuid.New().String()
	}

	stored := *u
	s.byID[stored.ID] = &stored
	s.byEmail[stored.Email] = stored.ID
	return stored.ID, nil
}

func (s *MemoryUserStorage) FindByEmail(ctx context.Context, email string) (*usermodel.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byEmail[email]
	if !exists {
		return nil, nil
	}
	u := *s.byID[id]
	return &u, nil
}

func (s *MemoryUserStorage) FindByID(ctx context.Context, id string) (*usermodel.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.byID[id]
	if !exists {
		return nil, nil
	}
	u := *stored
	return &u, nil
}

type MemoryInvitationStorage struct {
	mu          sync.RWMutex
	invitations map[string]*invitation.Invitation
}

func NewMemoryInvitationStorage() *MemoryInvitationStorage {
	return &MemoryInvitationStorage{
		invitations: make(map[string]*invitation.Invitation),
	}
}

func copyInvitation(inv *invitation.Invitation) *invitation.Invitation {
	c := *inv
	c.Photos = append([]string{}, inv.Photos...)
	return &c
}

func (s *MemoryInvitationStorage) Create(ctx context.Context, inv *invitation.Invitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invitations[inv.UUID]; exists {
		return ErrDuplicateUUID
	}

	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.Photos == nil {
		inv.Photos = []string{}
	}

	s.invitations[inv.UUID] = copyInvitation(inv)
	return nil
}

func (s *MemoryInvitationStorage) GetByUUID(ctx context.Context, id string) (*invitation.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, exists := s.invitations[id]
	if !exists {
		return nil, nil
	}
	return copyInvitation(inv), nil
}

func (s *MemoryInvitationStorage) ListByUser(ctx context.Context, userID string) ([]*invitation.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*invitation.Invitation{}
	for _, inv := range s.invitations {
		if inv.UserID == userID {
			result = append(result, copyInvitation(inv))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryInvitationStorage) IncrementViews(ctx context.Context, counts map[string]int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, count := range counts {
		if inv, exists := s.invitations[id]; exists {
			inv.ViewCount += count
		}
	}
	return nil
}

func (s *MemoryInvitationStorage) DeactivateExpired(ctx context.Context, now time.Time) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, inv := range s.invitations {
		if inv.IsActive && !inv.ExpiresAt.After(now) {
			inv.IsActive = false
			inv.UpdatedAt = now
			ids = append(ids, inv.UUID)
		}
	}
	return ids, nil
}
