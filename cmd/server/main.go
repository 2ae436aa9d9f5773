package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/ignite/deliverability/internal/api"
	"github.com/ignite/deliverability/internal/config"
	"github.com/ignite/deliverability/internal/ingest"
	"github.com/ignite/deliverability/internal/metrics"
	"github.com/ignite/deliverability/internal/repository/postgres"
	"github.com/ignite/deliverability/internal/service/settings"
	"github.com/ignite/deliverability/internal/service/stats"
	"github.com/ignite/deliverability/internal/service/suppression"
	"github.com/ignite/deliverability/internal/service/tracking"
	"github.com/ignite/deliverability/internal/velocity"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

func main() {
	log.Println("Starting deliverability server...")

	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Database
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	// Redis is optional: without it suppression velocity tracking is off.
	var velocityCounter *velocity.Counter
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		velocityCounter = velocity.NewCounter(redisClient)
		log.Printf("Suppression velocity tracking enabled (redis=%s)", cfg.Redis.Addr)
	}

	m := metrics.New()

	// Repositories
	deliveryRepo := postgres.NewDeliveryRepo(db)
	suppressionRepo := postgres.NewSuppressionRepo(db)
	settingsRepo := postgres.NewSettingsRepo(db)
	auditRepo := postgres.NewAuditRepo(db)
	statsRepo := postgres.NewStatsRepo(db)

	// Services
	settingsSvc := settings.NewService(settingsRepo, auditRepo)
	suppressionSvc := suppression.NewService(suppressionRepo, velocityCounter, m)
	trackingSvc := tracking.NewService(deliveryRepo, auditRepo, settingsSvc, suppressionSvc, m)
	statsSvc := stats.NewService(statsRepo, velocityCounter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SQS is optional: with a queue configured, inbound events are published
	// and a consumer processes them; without one the API processes inline.
	var publisher api.EventPublisher
	if cfg.SQS.EventsQueueURL != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SQS.Region))
		if err != nil {
			log.Fatalf("Failed to load AWS config: %v", err)
		}
		sqsClient := sqs.NewFromConfig(awsCfg)
		publisher = ingest.NewPublisher(sqsClient, cfg.SQS.EventsQueueURL)

		consumer := ingest.NewConsumer(sqsClient, cfg.SQS.EventsQueueURL, trackingSvc)
		consumer.Start(ctx)
		defer consumer.Stop()
	}

	handlers := &api.Handlers{
		Tracking:    trackingSvc,
		Publisher:   publisher,
		Settings:    settingsSvc,
		Suppression: suppressionSvc,
		Stats:       statsSvc,
	}
	router := api.SetupRoutes(handlers, m.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
