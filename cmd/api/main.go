package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"fruitbox/internal/config"
	"fruitbox/internal/db"
	"fruitbox/internal/email"
	apihttp "fruitbox/internal/http"
	"fruitbox/internal/leaderboard"
	"fruitbox/internal/queue"
	"fruitbox/internal/repository"
	"fruitbox/internal/service"
	"fruitbox/internal/session"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := redisClient.Ping(ctxPing).Err(); err != nil {
		// El gateway arranca igual: cada request reporta el backend caido.
		logger.Warn("redis ping failed", zap.Error(err))
	}
	cancel()

	hostname, _ := os.Hostname()
	sessionStore := session.NewRedisStore(redisClient)
	scoreQueue := queue.NewRedisQueue(redisClient, cfg.ScoreStream, cfg.ScoreGroup, hostname)
	board := leaderboard.NewRedisBoard(redisClient, cfg.LeaderboardKey)
	userRepo := repository.NewPgUserRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	sessionTTL := time.Duration(cfg.SessionTTLSeconds) * time.Second
	authSvc := service.NewAuthService(logger, userRepo, sessionStore, emailSender, sessionTTL)
	scoreSvc := service.NewScoreService(logger, scoreQueue, board, cfg.RankingSize)

	authHandler := apihttp.NewAuthHandler(logger, authSvc, cfg.SessionCookie, cfg.SessionTTLSeconds)
	scoreHandler := apihttp.NewScoreHandler(logger, scoreSvc)
	router := apihttp.NewRouter(logger, sessionStore, cfg.SessionCookie, authHandler, scoreHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
