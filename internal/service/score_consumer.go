package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fruitbox/internal/domain"
	"fruitbox/internal/leaderboard"
	"fruitbox/internal/queue"
	"fruitbox/internal/repository"
)

const receiveRetryDelay = 5 * time.Second

// ScoreConsumer drena la cola de puntajes y aplica actualizaciones al
// leaderboard. El ack va solo despues de que historial y leaderboard
// quedaron escritos; cualquier falla antes deja el mensaje pendiente y el
// broker lo reentrega. Raise es max, no suma, asi que una reentrega aplicada
// dos veces no cambia el resultado.
type ScoreConsumer struct {
	logger *zap.Logger
	queue  queue.ScoreQueue
	board  leaderboard.Leaderboard
	scores repository.ScoreRepository
}

func NewScoreConsumer(logger *zap.Logger, q queue.ScoreQueue, board leaderboard.Leaderboard, scores repository.ScoreRepository) *ScoreConsumer {
	return &ScoreConsumer{
		logger: logger,
		queue:  q,
		board:  board,
		scores: scores,
	}
}

// Run consume mensajes hasta que el contexto se cancele.
func (c *ScoreConsumer) Run(ctx context.Context) error {
	for {
		if err := c.ProcessOne(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("receive message failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(receiveRetryDelay):
			}
		}
	}
}

// ProcessOne espera un mensaje y lo procesa. Devuelve error solo cuando el
// receive falla; las fallas de procesamiento se resuelven via ack/no-ack.
func (c *ScoreConsumer) ProcessOne(ctx context.Context) error {
	msg, err := c.queue.Receive(ctx)
	if err != nil {
		return err
	}
	c.handle(ctx, msg)
	return nil
}

func (c *ScoreConsumer) handle(ctx context.Context, msg queue.Message) {
	sub, err := decodeSubmission(msg.Payload)
	if err != nil {
		// Mensaje veneno: la reentrega no lo va a arreglar, se confirma y
		// se descarta para no bloquear la cola.
		c.logger.Warn("discarding unparseable score message",
			zap.String("id", msg.ID),
			zap.Error(err),
		)
		if ackErr := c.queue.Ack(ctx, msg.ID); ackErr != nil {
			c.logger.Error("ack poison message failed", zap.String("id", msg.ID), zap.Error(ackErr))
		}
		return
	}

	if c.scores != nil {
		entry := domain.ScoreEntry{
			ID:        uuid.NewString(),
			Email:     sub.Email,
			Score:     sub.Score,
			CreatedAt: time.Now().UTC(),
		}
		if err := c.scores.Insert(ctx, entry); err != nil {
			// Sin ack: el broker reentrega cuando el backend vuelva.
			c.logger.Error("insert score history failed",
				zap.String("email", sub.Email),
				zap.Error(err),
			)
			return
		}
	}

	if err := c.board.Raise(ctx, sub.Email, sub.Score); err != nil {
		c.logger.Error("leaderboard raise failed",
			zap.String("email", sub.Email),
			zap.Error(err),
		)
		return
	}

	if err := c.queue.Ack(ctx, msg.ID); err != nil {
		// La reentrega volvera a aplicar Raise, que es idempotente.
		c.logger.Error("ack message failed", zap.String("id", msg.ID), zap.Error(err))
		return
	}

	c.logger.Info("score applied",
		zap.String("email", sub.Email),
		zap.Int("score", sub.Score),
	)
}

func decodeSubmission(payload []byte) (domain.ScoreSubmission, error) {
	var raw struct {
		Email string `json:"email"`
		Score *int   `json:"score"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.ScoreSubmission{}, err
	}
	if strings.TrimSpace(raw.Email) == "" {
		return domain.ScoreSubmission{}, errors.New("missing email")
	}
	if raw.Score == nil {
		return domain.ScoreSubmission{}, errors.New("missing score")
	}
	return domain.ScoreSubmission{Email: raw.Email, Score: *raw.Score}, nil
}
