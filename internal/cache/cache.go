package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Varun5711/easywedding/internal/models/invitation"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "invitation:"

// InvitationCache is a process-local LRU in front of an optional Redis tier. With a
// nil Redis client it behaves as an L1-only cache.
type InvitationCache struct {
	l1    *LRU[*invitation.Invitation]
	l2    *redis.Client
	l2TTL time.Duration
}

func NewInvitationCache(l1Capacity int, l1TTL time.Duration, redisClient *redis.Client, l2TTL time.Duration) *InvitationCache {
	return &InvitationCache{
		l1:    NewLRU[*invitation.Invitation](l1Capacity, l1TTL),
		l2:    redisClient,
		l2TTL: l2TTL,
	}
}

func clone(inv *invitation.Invitation) *invitation.Invitation {
	c := *inv
	c.Photos = append([]string{}, inv.Photos...)
	return &c
}

// Get returns a copy of the cached invitation. Redis errors other than a miss are
// returned so callers can log them; the caller still falls back to the store.
func (c *InvitationCache) Get(ctx context.Context, uuid string) (*invitation.Invitation, bool, error) {
	if inv, found := c.l1.Get(uuid); found {
		return clone(inv), true, nil
	}

	if c.l2 == nil {
		return nil, false, nil
	}

	val, err := c.l2.Get(ctx, keyPrefix+uuid).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var inv invitation.Invitation
	if err := json.Unmarshal(val, &inv); err != nil {
		return nil, false, err
	}

	c.l1.Set(uuid, clone(&inv))
	return &inv, true, nil
}

func (c *InvitationCache) Set(ctx context.Context, inv *invitation.Invitation) error {
	c.l1.Set(inv.UUID, clone(inv))

	if c.l2 == nil {
		return nil
	}

	data, err := json.Marshal(inv)
	if err != nil {
		return err
	}
	return c.l2.Set(ctx, keyPrefix+inv.UUID, data, c.l2TTL).Err()
}

func (c *InvitationCache) Delete(ctx context.Context, uuid string) error {
	c.l1.Delete(uuid)

	if c.l2 == nil {
		return nil
	}
	return c.l2.Del(ctx, keyPrefix+uuid).Err()
}
