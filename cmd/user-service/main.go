package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/Varun5711/easywedding/internal/auth"
	"github.com/Varun5711/easywedding/internal/config"
	"github.com/Varun5711/easywedding/internal/logger"
	"github.com/Varun5711/easywedding/internal/rpc"
	"github.com/Varun5711/easywedding/internal/service"
	"github.com/Varun5711/easywedding/internal/storage"
	"google.golang.org/grpc"
)

func main() {
	log := logger.New("user-service")
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
	if stores.DB != nil {
		log.Debug("Database pools: %+v", stores.DB.Stats())
	}

	hasher, err := auth.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.HashConcurrency)
	if err != nil {
		log.Fatal("Failed to create password hasher: %v", err)
	}

	authService := service.NewAuthService(
		stores.Users,
		hasher,
		auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		log.With("auth"),
	)

	lis, err := net.Listen("tcp", ":"+cfg.Services.UserServicePort)
	if err != nil {
		log.Fatal("Failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer()
	rpc.RegisterUserServer(grpcServer, rpc.NewUserServer(authService, log.With("rpc")))

	log.Info("User service listening on port %s (store=%s)", cfg.Services.UserServicePort, cfg.Store.Driver)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal("Failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down user service...")
	grpcServer.GracefulStop()
	log.Info("User service stopped")
}
