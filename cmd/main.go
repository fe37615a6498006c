package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/anjali-menon/learnspace-api/internal/config"
	"github.com/anjali-menon/learnspace-api/internal/database"
	"github.com/anjali-menon/learnspace-api/internal/events"
	"github.com/anjali-menon/learnspace-api/internal/handlers"
	"github.com/anjali-menon/learnspace-api/internal/mailer"
	"github.com/anjali-menon/learnspace-api/internal/metrics"
	"github.com/anjali-menon/learnspace-api/internal/middleware"
	"github.com/anjali-menon/learnspace-api/internal/repository"
	"github.com/anjali-menon/learnspace-api/internal/routes"
	"github.com/anjali-menon/learnspace-api/internal/services"
	"github.com/anjali-menon/learnspace-api/internal/session"
	"github.com/anjali-menon/learnspace-api/internal/token"
)

const sweepInterval = 24 * time.Hour

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.App.Env == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()
	sugar.Infof("starting learnspace-api in %s mode on port %d", cfg.App.Env, cfg.App.Port)

	metrics.Init()

	db, mongoClient, err := database.ConnectMongo(cfg.Mongo.URI, cfg.Mongo.Database, sugar)
	if err != nil {
		sugar.Fatal(err)
	}
	rdb, err := database.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, sugar)
	if err != nil {
		sugar.Fatal(err)
	}

	userRepo := repository.NewMongoUserRepo(db)
	notificationRepo := repository.NewMongoNotificationRepo(db)
	sessions := session.NewRedisStore(rdb)
	tokens := token.NewManager(
		cfg.JWT.ActivationSecret,
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.AccessTTL,
		cfg.RefreshTTL,
	)
	mail := mailer.NewBrevoClient(cfg.Brevo.APIKey, cfg.Brevo.FromEmail, cfg.Brevo.FromName, sugar)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, sugar)
	}
	defer publisher.Close()

	authSvc := services.NewAuthService(
		userRepo, sessions, tokens, mail, publisher,
		cfg.SessionTTL, cfg.Auth.PasswordHashCost, cfg.Auth.RevalidateOnRefresh, sugar,
	)
	userSvc := services.NewUserService(userRepo, sessions, publisher, cfg.SessionTTL, cfg.Auth.PasswordHashCost, sugar)
	notificationSvc := services.NewNotificationService(notificationRepo, sugar)

	bg, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()

	go notificationSvc.RunSweeper(bg, sweepInterval)

	if cfg.Kafka.Enabled {
		consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, notificationRepo, sugar)
		defer consumer.Close()
		go func() {
			if err := consumer.Start(bg); err != nil && !errors.Is(err, context.Canceled) {
				sugar.Errorf("event consumer stopped: %v", err)
			}
		}()
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.App.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.App.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.App.IdleTimeout) * time.Second,
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.Origin,
		AllowCredentials: true,
	}))
	app.Use(middleware.RequestLogger(logger))

	limiter := middleware.NewRateLimiter(rdb, "rate_limit", cfg.Auth.RateLimitPerMinute, time.Minute)
	routes.Setup(app, routes.Deps{
		Auth:          handlers.NewAuthHandler(authSvc, cfg.Cookies),
		Users:         handlers.NewUserHandler(userSvc),
		Notifications: handlers.NewNotificationHandler(notificationSvc),
		Tokens:        tokens,
		Sessions:      sessions,
		Limiter:       limiter,
	})

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.App.Port)); err != nil {
			sugar.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	sugar.Info("shutting down...")

	cancelBg()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		sugar.Errorf("server shutdown: %v", err)
	}
	if err := mongoClient.Disconnect(ctx); err != nil {
		sugar.Errorf("mongo disconnect: %v", err)
	}
	if err := rdb.Close(); err != nil {
		sugar.Errorf("redis close: %v", err)
	}
	sugar.Info("shutdown complete")
}
