package domain

import "time"

// ScoreSubmission es el payload que viaja por la cola entre gateway y worker.
type ScoreSubmission struct {
	Email string `json:"email"`
	Score int    `json:"score"`
}

// ScoreEntry es una fila del historial de puntajes en Postgres.
type ScoreEntry struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// RankingEntry es una posicion del leaderboard, score descendente.
type RankingEntry struct {
	Email string `json:"user"`
	Score int    `json:"score"`
}
