package leaderboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fruitbox/internal/domain"
)

type redisZClient interface {
	ZAddGT(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
}

type redisBoard struct {
	client redisZClient
	key    string
}

// NewRedisBoard crea un Leaderboard sobre un sorted set de Redis. ZADD GT es
// el primitivo atomico de "set si es mayor": puntajes menores al guardado no
// tocan el set.
func NewRedisBoard(client *redis.Client, key string) Leaderboard {
	if client == nil {
		return nil
	}
	return &redisBoard{
		client: client,
		key:    key,
	}
}

func (b *redisBoard) Raise(ctx context.Context, email string, score int) error {
	return b.client.ZAddGT(ctx, b.key, redis.Z{
		Score:  float64(score),
		Member: email,
	}).Err()
}

func (b *redisBoard) TopN(ctx context.Context, n int) ([]domain.RankingEntry, error) {
	if n <= 0 {
		return []domain.RankingEntry{}, nil
	}
	members, err := b.client.ZRevRangeWithScores(ctx, b.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]domain.RankingEntry, 0, len(members))
	for _, z := range members {
		email, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected member type %T", z.Member)
		}
		entries = append(entries, domain.RankingEntry{
			Email: email,
			Score: int(z.Score),
		})
	}
	return entries, nil
}
