package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/VKx64/Farely-Backend/internal/config"
	"github.com/VKx64/Farely-Backend/internal/database"
	"github.com/VKx64/Farely-Backend/internal/delivery"
	"github.com/VKx64/Farely-Backend/internal/events"
	"github.com/VKx64/Farely-Backend/internal/handlers"
	"github.com/VKx64/Farely-Backend/internal/middleware"
	"github.com/VKx64/Farely-Backend/internal/ratelimit"
	"github.com/VKx64/Farely-Backend/internal/repository"
	"github.com/VKx64/Farely-Backend/internal/routes"
	"github.com/VKx64/Farely-Backend/internal/server"
	"github.com/VKx64/Farely-Backend/internal/services"
	"github.com/VKx64/Farely-Backend/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.App.Env)
	defer func() {
		_ = logger.Sync()
	}()
	sugar := logger.Sugar()
	sugar.Infof("Starting identity service in %s environment on port %d", cfg.App.Env, cfg.App.Port)

	db, mongoClient, err := database.ConnectMongo(cfg.Mongo.URI, cfg.Mongo.Database, sugar)
	if err != nil {
		sugar.Fatal(err)
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// Rate limiters: in-process fixed windows by default, a shared Redis
	// counter when an address is configured (multi-instance deployments).
	var otpLimiter, generalLimiter ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		rdb, err := database.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, sugar)
		if err != nil {
			sugar.Fatal(err)
		}
		defer rdb.Close()
		otpLimiter = ratelimit.NewRedisWindow(rdb, "otp_rl", cfg.Security.OtpRateLimitMax, cfg.OtpRateWindow())
		generalLimiter = ratelimit.NewRedisWindow(rdb, "rl", cfg.Security.RateLimitMax, cfg.RateWindow())
	} else {
		otpWindow := ratelimit.NewFixedWindow(cfg.Security.OtpRateLimitMax, cfg.OtpRateWindow())
		otpWindow.StartSweeper(rootCtx, 5*time.Minute)
		generalWindow := ratelimit.NewFixedWindow(cfg.Security.RateLimitMax, cfg.RateWindow())
		generalWindow.StartSweeper(rootCtx, 5*time.Minute)
		otpLimiter = otpWindow
		generalLimiter = generalWindow
	}

	publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	if publisher == nil {
		sugar.Info("Kafka not configured, lifecycle events disabled")
	}

	userRepo := repository.NewMongoUserRepo(db, cfg.User.Collection)
	jwtManager := utils.NewJWTManager(cfg.App.JWT.Secret, cfg.TokenTTL())
	sender := delivery.NewLogSender(logger)

	authSvc := services.NewAuthService(userRepo, jwtManager, sender, publisher,
		otpLimiter, cfg.OtpTTL(), cfg.Security.PasswordHashCost, logger)
	userSvc := services.NewUserService(userRepo, publisher)

	ah := handlers.NewAuthHandler(authSvc, logger)
	uh := handlers.NewUserHandler(userSvc, logger)

	app := server.New(cfg, logger)
	general := middleware.RateLimit(generalLimiter, middleware.ClientIP, logger)
	routes.Setup(app, ah, uh, general, jwtManager, userRepo)

	go func() {
		listenAddr := fmt.Sprintf(":%d", cfg.App.Port)
		sugar.Infof("Server listening on %s", listenAddr)
		if err := app.Listen(listenAddr); err != nil {
			sugar.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	sugar.Info("Shutting down server...")
	cancelRoot()

	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := app.ShutdownWithContext(ctxShut); err != nil {
		sugar.Errorf("Fiber app shutdown error: %v", err)
	}
	if err := mongoClient.Disconnect(ctxShut); err != nil {
		sugar.Errorf("MongoDB disconnect error: %v", err)
	}
	if err := publisher.Close(); err != nil {
		sugar.Errorf("Kafka producer close error: %v", err)
	}

	sugar.Info("Graceful shutdown complete")
}
