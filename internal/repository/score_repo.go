package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"fruitbox/internal/domain"
)

// ScoreRepository define el contrato de persistencia del historial de
// puntajes. El historial acepta duplicados: con entrega at-least-once el
// mismo submission puede insertarse mas de una vez.
type ScoreRepository interface {
	Insert(ctx context.Context, entry domain.ScoreEntry) error
}

// PgScoreRepository implementa ScoreRepository usando pgxpool.
type PgScoreRepository struct {
	pool *pgxpool.Pool
}

func NewPgScoreRepository(pool *pgxpool.Pool) *PgScoreRepository {
	return &PgScoreRepository{pool: pool}
}

func (r *PgScoreRepository) Insert(ctx context.Context, entry domain.ScoreEntry) error {
	const query = `
		INSERT INTO scores (id, user_email, score, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.Email,
		entry.Score,
		entry.CreatedAt,
	)
	return err
}
