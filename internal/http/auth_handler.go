package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fruitbox/internal/service"
)

// AuthHandler mantiene dependencias para endpoints de cuentas y sesiones.
type AuthHandler struct {
	logger     *zap.Logger
	authServ   *service.AuthService
	cookieName string
	cookieTTL  int
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, authServ *service.AuthService, cookieName string, cookieTTLSeconds int) *AuthHandler {
	return &AuthHandler{
		logger:     logger,
		authServ:   authServ,
		cookieName: cookieName,
		cookieTTL:  cookieTTLSeconds,
	}
}

// Join maneja POST /join.
func (h *AuthHandler) Join(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Name     string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid join request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request"})
		return
	}

	user, err := h.authServ.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "email already registered"})
		case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request"})
		default:
			h.logger.Error("register failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not register"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "message": "registration complete", "user": user})
}

// Login maneja POST /login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request"})
		return
	}

	record, token, err := h.authServ.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid credentials"})
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "auth backend unavailable"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, h.cookieTTL, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "logged in", "user": record.Email})
}

// Logout maneja POST /logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, err := c.Cookie(h.cookieName)
	if err == nil && token != "" {
		if err := h.authServ.Logout(c.Request.Context(), token); err != nil {
			// La cookie se borra igual; la clave expira sola por TTL.
			h.logger.Warn("delete session failed", zap.Error(err))
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "logged out"})
}

// CheckSession maneja GET /check, detras del middleware de sesion.
func (h *AuthHandler) CheckSession(c *gin.Context) {
	record, ok := GetSessionRecord(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not logged in"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": record.Email})
}
