package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fruitbox/internal/domain"
	"fruitbox/internal/email"
	"fruitbox/internal/repository"
	"fruitbox/internal/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrEmailTaken         = errors.New("email already registered")
)

// AuthService coordina registro, login y sesiones compartidas. La identidad
// nunca vive en memoria del proceso: siempre pasa por el session.Store.
type AuthService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	sessions    session.Store
	emailSender email.Sender
	sessionTTL  time.Duration
}

func NewAuthService(logger *zap.Logger, users repository.UserRepository, sessions session.Store, emailSender email.Sender, sessionTTL time.Duration) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = time.Hour
	}
	return &AuthService{
		logger:      logger,
		users:       users,
		sessions:    sessions,
		emailSender: emailSender,
		sessionTTL:  sessionTTL,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("auth service not configured")
	}

	emailAddr := normalizeEmail(input.Email)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	password := strings.TrimSpace(input.Password)
	if password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	_, err := s.users.GetByEmail(ctx, emailAddr)
	if err == nil {
		return domain.User{}, ErrEmailTaken
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: string(hashBytes),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}

	// La bienvenida es best-effort, el registro ya quedo persistido.
	if s.emailSender != nil {
		if err := s.emailSender.SendWelcome(ctx, user.Email, user.Name); err != nil {
			if s.logger != nil {
				s.logger.Warn("send welcome email failed", zap.Error(err), zap.String("email", user.Email))
			}
		}
	}

	return user, nil
}

// Login valida credenciales y crea la sesion compartida. Devuelve el registro
// y el token opaco que el handler entrega como cookie.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (domain.SessionRecord, string, error) {
	if s.users == nil || s.sessions == nil {
		return domain.SessionRecord{}, "", errors.New("auth service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.SessionRecord{}, "", ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SessionRecord{}, "", ErrInvalidCredentials
		}
		return domain.SessionRecord{}, "", err
	}
	if user.PasswordHash == "" {
		return domain.SessionRecord{}, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.SessionRecord{}, "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	record := domain.SessionRecord{
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Put(ctx, token, record, s.sessionTTL); err != nil {
		return domain.SessionRecord{}, "", fmt.Errorf("store session: %w", err)
	}
	return record, token, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s.sessions == nil {
		return errors.New("auth service not configured")
	}
	return s.sessions.Delete(ctx, token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
