package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fruitbox/internal/service"
)

// ScoreHandler mantiene dependencias para submission y ranking.
type ScoreHandler struct {
	logger    *zap.Logger
	scoreServ *service.ScoreService
}

// NewScoreHandler crea una instancia de ScoreHandler con dependencias necesarias.
func NewScoreHandler(logger *zap.Logger, scoreServ *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{
		logger:    logger,
		scoreServ: scoreServ,
	}
}

// SubmitScore maneja POST /score, detras del middleware de sesion. Responde
// 202: "aceptado para procesamiento asincrono", no "rankeado".
func (h *ScoreHandler) SubmitScore(c *gin.Context) {
	record, ok := GetSessionRecord(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not logged in"})
		return
	}

	// Puntero para que cero pase el binding required.
	var req struct {
		Score *int `json:"score" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid score request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "score missing or not a number"})
		return
	}

	if err := h.scoreServ.Submit(c.Request.Context(), record.Email, *req.Score); err != nil {
		if errors.Is(err, service.ErrQueueUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "score queue unavailable, retry later"})
			return
		}
		h.logger.Error("submit score failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not submit score"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"ok": true, "message": "score accepted for asynchronous processing"})
}

// GetRanking maneja GET /ranking.
func (h *ScoreHandler) GetRanking(c *gin.Context) {
	entries, err := h.scoreServ.Ranking(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrRankingUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "ranking backend unavailable"})
			return
		}
		h.logger.Error("ranking failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not load ranking"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "ranking": entries})
}
