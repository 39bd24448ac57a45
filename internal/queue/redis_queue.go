package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"fruitbox/internal/domain"
)

const (
	payloadField   = "payload"
	readBlock      = 5 * time.Second
	pendingMinIdle = time.Minute
)

type redisStreamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
}

// RedisQueue implementa ScoreQueue sobre un stream de Redis con consumer
// group. El broker persiste las entradas una vez aceptado el XADD y las
// entradas leidas sin ack quedan pendientes hasta reclamo o reentrega.
type RedisQueue struct {
	client   redisStreamClient
	stream   string
	group    string
	consumer string
}

func NewRedisQueue(client *redis.Client, stream, group, consumer string) *RedisQueue {
	if client == nil {
		return nil
	}
	return &RedisQueue{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
	}
}

// EnsureGroup crea el consumer group (y el stream si no existe). Es
// idempotente: tolerar BUSYGROUP permite que cada worker lo invoque al inicio.
func (q *RedisQueue) EnsureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, sub domain.ScoreSubmission) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	return q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{payloadField: string(payload)},
	}).Err()
}

// Receive bloquea hasta obtener un mensaje. Primero reclama entregas
// pendientes de consumers caidos (XAUTOCLAIM) y despues lee entradas nuevas.
func (q *RedisQueue) Receive(ctx context.Context) (Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Message{}, err
		}

		claimed, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   q.stream,
			Group:    q.group,
			Consumer: q.consumer,
			MinIdle:  pendingMinIdle,
			Start:    "0-0",
			Count:    1,
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return Message{}, err
		}
		if len(claimed) > 0 {
			return fromXMessage(claimed[0]), nil
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: q.consumer,
			Streams:  []string{q.stream, ">"},
			Count:    1,
			Block:    readBlock,
		}).Result()
		if errors.Is(err, redis.Nil) {
			// Block expiro sin mensajes nuevos.
			continue
		}
		if err != nil {
			return Message{}, err
		}
		for _, st := range streams {
			if len(st.Messages) > 0 {
				return fromXMessage(st.Messages[0]), nil
			}
		}
	}
}

func (q *RedisQueue) Ack(ctx context.Context, id string) error {
	return q.client.XAck(ctx, q.stream, q.group, id).Err()
}

func fromXMessage(msg redis.XMessage) Message {
	var payload []byte
	if raw, ok := msg.Values[payloadField]; ok {
		if s, ok := raw.(string); ok {
			payload = []byte(s)
		}
	}
	return Message{ID: msg.ID, Payload: payload}
}
