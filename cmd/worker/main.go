package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/ignite/deliverability/internal/config"
	"github.com/ignite/deliverability/internal/ingest"
	"github.com/ignite/deliverability/internal/metrics"
	"github.com/ignite/deliverability/internal/repository/postgres"
	"github.com/ignite/deliverability/internal/service/settings"
	"github.com/ignite/deliverability/internal/service/suppression"
	"github.com/ignite/deliverability/internal/service/tracking"
	"github.com/ignite/deliverability/internal/velocity"
	"github.com/ignite/deliverability/internal/worker"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

func main() {
	log.Println("Starting deliverability worker...")

	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	var velocityCounter *velocity.Counter
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		velocityCounter = velocity.NewCounter(redisClient)
	}

	m := metrics.New()

	deliveryRepo := postgres.NewDeliveryRepo(db)
	suppressionRepo := postgres.NewSuppressionRepo(db)
	settingsRepo := postgres.NewSettingsRepo(db)
	auditRepo := postgres.NewAuditRepo(db)

	settingsSvc := settings.NewService(settingsRepo, auditRepo)
	suppressionSvc := suppression.NewService(suppressionRepo, velocityCounter, m)
	trackingSvc := tracking.NewService(deliveryRepo, auditRepo, settingsSvc, suppressionSvc, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Retention cleanup
	interval := time.Duration(cfg.Worker.CleanupIntervalMinutes) * time.Minute
	retention := worker.NewRetentionWorker(trackingSvc, interval)
	go retention.Start(ctx)

	// Event consumer (optional)
	if cfg.SQS.EventsQueueURL != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SQS.Region))
		if err != nil {
			log.Fatalf("Failed to load AWS config: %v", err)
		}
		consumer := ingest.NewConsumer(sqs.NewFromConfig(awsCfg), cfg.SQS.EventsQueueURL, trackingSvc)
		consumer.Start(ctx)
		defer consumer.Stop()
	}

	log.Println("Worker running...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")
	cancel()
	time.Sleep(2 * time.Second)
	log.Println("Worker stopped")
}
