package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"fruitbox/internal/domain"
)

// ErrNotFound indica que no existe sesion valida para el token. Las fallas
// del backend se propagan tal cual y nunca se confunden con este error.
var ErrNotFound = errors.New("session not found")

const defaultTTL = time.Hour

// Store define el contrato compartido de sesiones entre servicios
// independientes. Cada Put refresca el TTL (expiracion deslizante).
type Store interface {
	Get(ctx context.Context, token string) (domain.SessionRecord, error)
	Put(ctx context.Context, token string, record domain.SessionRecord, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

type redisKVClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisStore struct {
	client redisKVClient
	prefix string
}

// NewRedisStore crea un Store respaldado por Redis con claves "session:<token>".
// La expiracion la maneja Redis nativamente, no hay barrido de limpieza.
func NewRedisStore(client *redis.Client) Store {
	if client == nil {
		return nil
	}
	return &redisStore{
		client: client,
		prefix: "session:",
	}
}

func (s *redisStore) Get(ctx context.Context, token string) (domain.SessionRecord, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.SessionRecord{}, ErrNotFound
	}
	raw, err := s.client.Get(ctx, s.prefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return domain.SessionRecord{}, ErrNotFound
	}
	if err != nil {
		return domain.SessionRecord{}, err
	}
	var record domain.SessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return domain.SessionRecord{}, fmt.Errorf("decode session: %w", err)
	}
	return record, nil
}

func (s *redisStore) Put(ctx context.Context, token string, record domain.SessionRecord, ttl time.Duration) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("session token is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.client.Set(ctx, s.prefix+token, payload, ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+token).Err()
}

type memoryEntry struct {
	record    domain.SessionRecord
	expiresAt time.Time
}

type memoryStore struct {
	mu    sync.Mutex
	items map[string]memoryEntry
}

// NewMemoryStore crea un Store en memoria para pruebas y desarrollo local.
func NewMemoryStore() Store {
	return &memoryStore{
		items: make(map[string]memoryEntry),
	}
}

func (s *memoryStore) Get(_ context.Context, token string) (domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[strings.TrimSpace(token)]
	if !ok {
		return domain.SessionRecord{}, ErrNotFound
	}
	if time.Now().UTC().After(entry.expiresAt) {
		delete(s.items, strings.TrimSpace(token))
		return domain.SessionRecord{}, ErrNotFound
	}
	return entry.record, nil
}

func (s *memoryStore) Put(_ context.Context, token string, record domain.SessionRecord, ttl time.Duration) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("session token is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[token] = memoryEntry{
		record:    record,
		expiresAt: time.Now().UTC().Add(ttl),
	}
	return nil
}

func (s *memoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, strings.TrimSpace(token))
	return nil
}
