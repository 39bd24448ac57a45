package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"fruitbox/internal/domain"
	"fruitbox/internal/leaderboard"
	"fruitbox/internal/queue"
)

var (
	ErrQueueUnavailable   = errors.New("score queue unavailable")
	ErrRankingUnavailable = errors.New("ranking backend unavailable")
)

// ScoreService es el gateway de submissions: valida, encola y nada mas. La
// actualizacion del leaderboard es trabajo exclusivo del consumer.
type ScoreService struct {
	logger   *zap.Logger
	queue    queue.ScoreQueue
	board    leaderboard.Leaderboard
	topCount int
}

func NewScoreService(logger *zap.Logger, q queue.ScoreQueue, board leaderboard.Leaderboard, topCount int) *ScoreService {
	if topCount <= 0 {
		topCount = 10
	}
	return &ScoreService{
		logger:   logger,
		queue:    q,
		board:    board,
		topCount: topCount,
	}
}

// Submit encola exactamente un mensaje durable por llamada exitosa. Acepta
// cualquier entero, incluidos cero y negativos: filtrar puntajes bajos es una
// optimizacion del cliente, no un invariante del servidor.
func (s *ScoreService) Submit(ctx context.Context, emailAddr string, score int) error {
	if s.queue == nil {
		return fmt.Errorf("%w: queue not configured", ErrQueueUnavailable)
	}
	sub := domain.ScoreSubmission{Email: emailAddr, Score: score}
	if err := s.queue.Enqueue(ctx, sub); err != nil {
		if s.logger != nil {
			s.logger.Error("enqueue score failed", zap.Error(err), zap.String("email", emailAddr))
		}
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	return nil
}

// Ranking devuelve el top-N actual del leaderboard.
func (s *ScoreService) Ranking(ctx context.Context) ([]domain.RankingEntry, error) {
	if s.board == nil {
		return nil, fmt.Errorf("%w: leaderboard not configured", ErrRankingUnavailable)
	}
	entries, err := s.board.TopN(ctx, s.topCount)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("leaderboard read failed", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", ErrRankingUnavailable, err)
	}
	if entries == nil {
		entries = []domain.RankingEntry{}
	}
	return entries, nil
}
