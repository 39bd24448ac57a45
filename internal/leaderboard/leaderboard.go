package leaderboard

import (
	"context"
	"sort"
	"sync"

	"fruitbox/internal/domain"
)

// Leaderboard mantiene el mejor puntaje conocido por usuario. Raise es un
// "set si es mayor" atomico, nunca read-modify-write en la aplicacion, asi
// dos workers concurrentes no pueden pisarse actualizaciones.
//
// Desempate en TopN: a igual puntaje, orden lexicografico inverso por
// usuario. Es la regla del ZREVRANGE de Redis; la implementacion en memoria
// la replica para que el orden sea estable entre lecturas.
type Leaderboard interface {
	Raise(ctx context.Context, email string, score int) error
	TopN(ctx context.Context, n int) ([]domain.RankingEntry, error)
}

type memoryBoard struct {
	mu     sync.Mutex
	scores map[string]int
}

// NewMemoryBoard crea un Leaderboard en memoria para pruebas.
func NewMemoryBoard() Leaderboard {
	return &memoryBoard{
		scores: make(map[string]int),
	}
}

func (b *memoryBoard) Raise(_ context.Context, email string, score int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	current, ok := b.scores[email]
	if !ok || score > current {
		b.scores[email] = score
	}
	return nil
}

func (b *memoryBoard) TopN(_ context.Context, n int) ([]domain.RankingEntry, error) {
	if n <= 0 {
		return []domain.RankingEntry{}, nil
	}
	b.mu.Lock()
	entries := make([]domain.RankingEntry, 0, len(b.scores))
	for email, score := range b.scores {
		entries = append(entries, domain.RankingEntry{Email: email, Score: score})
	}
	b.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Email > entries[j].Email
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}
