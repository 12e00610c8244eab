package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Varun5711/easywedding/internal/auth"
	"github.com/Varun5711/easywedding/internal/cache"
	"github.com/Varun5711/easywedding/internal/clickhouse"
	"github.com/Varun5711/easywedding/internal/config"
	"github.com/Varun5711/easywedding/internal/events"
	"github.com/Varun5711/easywedding/internal/handlers"
	"github.com/Varun5711/easywedding/internal/logger"
	"github.com/Varun5711/easywedding/internal/middleware"
	"github.com/Varun5711/easywedding/internal/redis"
	"github.com/Varun5711/easywedding/internal/rpc"
	"github.com/Varun5711/easywedding/internal/service"
	"github.com/Varun5711/easywedding/internal/storage"
)

func main() {
	log := logger.New("api-gateway")
	log.SetStdLog()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: %v", err)
	}
	for _, warning := range cfg.Diagnostics() {
		log.Warn("%s", warning)
	}

	stores, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer stores.Close()

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil && !errors.Is(err, redis.ErrDisabled) {
		log.Fatal("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	var authenticator service.Authenticator
	if cfg.Services.UserServiceAddr != "" {
		client, err := rpc.NewUserClient(cfg.Services.UserServiceAddr)
		if err != nil {
			log.Fatal("Failed to connect to user-service: %v", err)
		}
		defer client.Close()
		authenticator = client
		log.Info("Using remote user-service at %s", cfg.Services.UserServiceAddr)
	} else {
		hasher, err := auth.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.HashConcurrency)
		if err != nil {
			log.Fatal("Failed to create password hasher: %v", err)
		}
		authenticator = service.NewAuthService(
			stores.Users,
			hasher,
			auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
			log.With("auth"),
		)
	}

	invitations := service.NewInvitationService(
		stores.Invitations,
		cache.NewInvitationCache(cfg.Cache.L1Capacity, cfg.Cache.L1TTL, redisClient.Raw(), cfg.Cache.L2TTL),
		cfg.Services.BaseURL,
		cfg.Invitation.TTL,
		log.With("invitations"),
	)
	health := []handlers.HealthCheck{{Name: "store", Check: stores.Ping}}
	var viewBacklog func(context.Context) (int64, error)
	if redisClient != nil {
		producer := events.NewViewProducer(redisClient.Raw(), cfg.Redis.StreamName)
		invitations.WithViewPublisher(producer)
		health = append(health, handlers.HealthCheck{Name: "redis", Check: redisClient.Ping})
		viewBacklog = producer.StreamLength
	}
	if cfg.ClickHouse.Addr != "" {
		ch, err := clickhouse.NewClient(ctx, cfg.ClickHouse)
		if err != nil {
			log.Warn("ClickHouse unavailable, device stats disabled: %v", err)
		} else {
			defer ch.Close()
			invitations.WithDeviceStats(ch)
		}
	}

	clientIPs, err := middleware.NewClientIPResolver(cfg.Services.TrustedProxies)
	if err != nil {
		log.Fatal("Invalid TRUSTED_PROXIES: %v", err)
	}

	limiter := middleware.NewRateLimiter(redisClient.Raw(), cfg.RateLimit.Requests, cfg.RateLimit.Window, "auth", clientIPs, log.With("ratelimit"))
	log.Info("Auth rate limit: %s", limiter)

	server := &http.Server{
		Addr: ":" + cfg.Services.APIGatewayPort,
		Handler: handlers.NewRouter(handlers.RouterConfig{
			Auth:           authenticator,
			Invitations:    invitations,
			RateLimiter:    limiter,
			ClientIP:       clientIPs,
			HealthChecks:   health,
			ViewBacklog:    viewBacklog,
			RequestTimeout: cfg.Services.RequestTimeout,
			Log:            log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Listening on :%s", cfg.Services.APIGatewayPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down api-gateway...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed: %v", err)
	}
}
