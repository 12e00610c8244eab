package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Varun5711/easywedding/internal/cache"
	"github.com/Varun5711/easywedding/internal/config"
	"github.com/Varun5711/easywedding/internal/lock"
	"github.com/Varun5711/easywedding/internal/logger"
	"github.com/Varun5711/easywedding/internal/redis"
	"github.com/Varun5711/easywedding/internal/service"
	"github.com/Varun5711/easywedding/internal/storage"
)

const cleanupLockKey = "lock:invitation-cleanup"

func main() {
	log := logger.New("cleanup-worker")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: %v", err)
	}
	for _, warning := range cfg.Diagnostics() {
		log.Warn("%s", warning)
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil && !errors.Is(err, redis.ErrDisabled) {
		log.Fatal("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	stores, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer stores.Close()

	invitations := service.NewInvitationService(
		stores.Invitations,
		cache.NewInvitationCache(0, 0, redisClient.Raw(), cfg.Cache.L2TTL),
		cfg.Services.BaseURL,
		cfg.Invitation.TTL,
		log.With("invitations"),
	)

	var leader *lock.DistributedLock
	if raw := redisClient.Raw(); raw != nil {
		leader = lock.NewDistributedLock(raw, cleanupLockKey, cfg.Cleanup.LockTTL)
	}

	log.Info("Cleanup worker started. Running every %s", cfg.Cleanup.Interval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	runCleanup(ctx, invitations, leader, log)

	ticker := time.NewTicker(cfg.Cleanup.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runCleanup(ctx, invitations, leader, log)
		case <-sigChan:
			log.Info("Shutting down")
			return
		}
	}
}

func runCleanup(ctx context.Context, invitations *service.InvitationService, leader *lock.DistributedLock, log *logger.Logger) {
	if leader != nil {
		acquired, err := leader.Acquire(ctx)
		if err != nil {
			log.Error("Failed to acquire cleanup lock: %v", err)
			return
		}
		if !acquired {
			log.Debug("Another worker holds the cleanup lock, skipping")
			return
		}
		defer func() {
			if err := leader.Release(ctx); err != nil && !errors.Is(err, lock.ErrLockNotHeld) {
				log.Warn("Failed to release cleanup lock: %v", err)
			}
		}()
	}

	log.Info("Starting cleanup of expired invitations...")

	count, err := invitations.DeactivateExpired(ctx)
	if err != nil {
		log.Error("Failed to deactivate expired invitations: %v", err)
		return
	}

	if count > 0 {
		log.Info("Deactivated %d expired invitations", count)
	} else {
		log.Info("No expired invitations found")
	}
}
