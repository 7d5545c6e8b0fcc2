package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-auth-stepup/internal/config"
	"github.com/go-auth-stepup/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-auth-stepup/internal/infrastructure/jwt"
	"github.com/go-auth-stepup/internal/infrastructure/sns"
	"github.com/go-auth-stepup/internal/infrastructure/verify"
	transporthttp "github.com/go-auth-stepup/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	tokenProvider, err := jwtinfra.NewProvider(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("token provider: %v", err)
	}

	// SNS alert sender is optional; alerts are best-effort.
	var alertSender sns.AlertSender
	if cfg.AlertsEnabled {
		if sender, err := sns.NewSender(cfg); err == nil {
			alertSender = sender
		} else {
			log.Printf("WARN: SNS sender not available: %v", err)
		}
	}

	deps := &transporthttp.Deps{
		UserRepo:      dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		HandleRepo:    dynamo.NewHandleRepo(dynamoClient, cfg.DynamoTables.VerificationHandles),
		Gateway:       verify.NewClient(cfg),
		AlertSender:   alertSender,
		TokenProvider: tokenProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
