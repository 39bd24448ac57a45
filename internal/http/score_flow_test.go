package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"go.uber.org/zap"

	"fruitbox/internal/domain"
	"fruitbox/internal/service"
)

// Escenario completo del flujo asincrono: login, submit, worker drena la
// cola, el ranking refleja el maximo. Un puntaje menor posterior no pisa el
// guardado; uno mayor si lo sube.
func TestScoreFlowEndToEnd(t *testing.T) {
	env := setupEnv(t)
	consumer := service.NewScoreConsumer(zap.NewNop(), env.queue, env.board, nil)
	ctx := context.Background()

	cookie := joinAndLogin(t, env, "a@x.com", "secret123")

	submitAndDrain := func(score int) {
		t.Helper()
		rec := performRequest(env.router, http.MethodPost, "/score", map[string]int{"score": score}, cookie)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("submit %d: expected 202, got %d", score, rec.Code)
		}
		if err := consumer.ProcessOne(ctx); err != nil {
			t.Fatalf("consumer failed: %v", err)
		}
	}

	ranking := func() []domain.RankingEntry {
		t.Helper()
		rec := performRequest(env.router, http.MethodGet, "/ranking", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("ranking: expected 200, got %d", rec.Code)
		}
		var body struct {
			Ranking []domain.RankingEntry `json:"ranking"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode ranking: %v", err)
		}
		return body.Ranking
	}

	submitAndDrain(37)
	top := ranking()
	if len(top) != 1 || top[0].Email != "a@x.com" || top[0].Score != 37 {
		t.Fatalf("after 37: unexpected ranking %+v", top)
	}

	submitAndDrain(20)
	top = ranking()
	if len(top) != 1 || top[0].Score != 37 {
		t.Fatalf("after 20: score must stay at 37, got %+v", top)
	}

	submitAndDrain(50)
	top = ranking()
	if len(top) != 1 || top[0].Score != 50 {
		t.Fatalf("after 50: expected 50, got %+v", top)
	}
}
