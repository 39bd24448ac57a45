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

	"fruitbox/internal/config"
	"fruitbox/internal/db"
	"fruitbox/internal/leaderboard"
	"fruitbox/internal/queue"
	"fruitbox/internal/repository"
	"fruitbox/internal/service"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const ensureGroupRetryDelay = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8])
	scoreQueue := queue.NewRedisQueue(redisClient, cfg.ScoreStream, cfg.ScoreGroup, consumerName)

	// El grupo tiene que existir antes de leer; si el broker no responde se
	// reintenta, igual que el resto del loop de consumo.
	for {
		err := scoreQueue.EnsureGroup(ctx)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return
		}
		logger.Warn("ensure consumer group failed, retrying", zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(ensureGroupRetryDelay):
		}
	}

	board := leaderboard.NewRedisBoard(redisClient, cfg.LeaderboardKey)
	scoreRepo := repository.NewPgScoreRepository(pool)
	consumer := service.NewScoreConsumer(logger, scoreQueue, board, scoreRepo)

	logger.Info("worker started",
		zap.String("stream", cfg.ScoreStream),
		zap.String("group", cfg.ScoreGroup),
		zap.String("consumer", consumerName),
	)

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("worker error", zap.Error(err))
	}

	logger.Info("worker stopped")
}
