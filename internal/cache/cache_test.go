package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Varun5711/easywedding/internal/models/invitation"
)

func TestInvitationCache_L1Only(t *testing.T) {
	ctx := context.Background()
	c := NewInvitationCache(10, time.Minute, nil, time.Hour)

	inv := &invitation.Invitation{UUID: "abc", GroomName: "Raj", Photos: []string{"https://example.com/a.jpg"}}
	if err := c.Set(ctx, inv); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, found, err := c.Get(ctx, "abc")
	if err != nil || !found {
		t.Fatalf("Get = (%v, %v, %v), want hit", got, found, err)
	}
	if got.GroomName != "Raj" {
		t.Errorf("GroomName = %q, want Raj", got.GroomName)
	}

	got.Photos[0] = "mutated"
	again, _, _ := c.Get(ctx, "abc")
	if again.Photos[0] != "https://example.com/a.jpg" {
		t.Error("cached value must not alias returned copies")
	}

	if err := c.Delete(ctx, "abc"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, found, _ := c.Get(ctx, "abc"); found {
		t.Error("expected miss after delete")
	}
}
