package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"fruitbox/internal/domain"
)

func TestMemoryQueue_EnqueueReceiveAck(t *testing.T) {
	q := NewMemoryQueue(8)
	ctx := context.Background()

	if err := q.Enqueue(ctx, domain.ScoreSubmission{Email: "a@x.com", Score: 37}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	msg, err := q.Receive(ctx)
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	var sub domain.ScoreSubmission
	if err := json.Unmarshal(msg.Payload, &sub); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if sub.Email != "a@x.com" || sub.Score != 37 {
		t.Fatalf("unexpected payload: %+v", sub)
	}

	if q.PendingCount() != 1 {
		t.Fatalf("expected 1 pending before ack, got %d", q.PendingCount())
	}
	if err := q.Ack(ctx, msg.ID); err != nil {
		t.Fatalf("ack failed: %v", err)
	}
	if q.PendingCount() != 0 {
		t.Fatalf("expected 0 pending after ack, got %d", q.PendingCount())
	}
}

func TestMemoryQueue_RedeliverPending(t *testing.T) {
	q := NewMemoryQueue(8)
	ctx := context.Background()

	_ = q.Enqueue(ctx, domain.ScoreSubmission{Email: "a@x.com", Score: 37})
	msg, err := q.Receive(ctx)
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}

	// Sin ack: el broker reentrega.
	if n := q.RedeliverPending(); n != 1 {
		t.Fatalf("expected 1 redelivered, got %d", n)
	}
	again, err := q.Receive(ctx)
	if err != nil {
		t.Fatalf("second receive failed: %v", err)
	}
	if again.ID != msg.ID {
		t.Fatalf("expected same delivery id, got %q vs %q", again.ID, msg.ID)
	}
}

func TestMemoryQueue_ReceiveHonorsContext(t *testing.T) {
	q := NewMemoryQueue(8)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := q.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

type mockRedisStreamClient struct {
	lastAdd        *redis.XAddArgs
	lastRead       *redis.XReadGroupArgs
	lastAckIDs     []string
	groupCreated   bool
	groupCreateErr error

	addErr    error
	claimMsgs []redis.XMessage
	claimErr  error
	readVal   []redis.XStream
	readErr   error
	ackErr    error
}

func (m *mockRedisStreamClient) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	m.lastAdd = a
	cmd := redis.NewStringCmd(ctx)
	if m.addErr != nil {
		cmd.SetErr(m.addErr)
		return cmd
	}
	cmd.SetVal("1-0")
	return cmd
}

func (m *mockRedisStreamClient) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	m.lastRead = a
	cmd := redis.NewXStreamSliceCmd(ctx)
	if m.readErr != nil {
		cmd.SetErr(m.readErr)
		return cmd
	}
	cmd.SetVal(m.readVal)
	return cmd
}

func (m *mockRedisStreamClient) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	m.lastAckIDs = ids
	cmd := redis.NewIntCmd(ctx)
	if m.ackErr != nil {
		cmd.SetErr(m.ackErr)
		return cmd
	}
	cmd.SetVal(int64(len(ids)))
	return cmd
}

func (m *mockRedisStreamClient) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	m.groupCreated = true
	cmd := redis.NewStatusCmd(ctx)
	if m.groupCreateErr != nil {
		cmd.SetErr(m.groupCreateErr)
		return cmd
	}
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisStreamClient) XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd {
	cmd := redis.NewXAutoClaimCmd(ctx)
	if m.claimErr != nil {
		cmd.SetErr(m.claimErr)
		return cmd
	}
	cmd.SetVal(m.claimMsgs, "0-0")
	return cmd
}

func newTestRedisQueue(client redisStreamClient) *RedisQueue {
	return &RedisQueue{
		client:   client,
		stream:   "scores:submissions",
		group:    "score-workers",
		consumer: "worker-1",
	}
}

func TestRedisQueue_EnqueueMarshalsPayload(t *testing.T) {
	mock := &mockRedisStreamClient{}
	q := newTestRedisQueue(mock)

	if err := q.Enqueue(context.Background(), domain.ScoreSubmission{Email: "a@x.com", Score: 37}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if mock.lastAdd == nil || mock.lastAdd.Stream != "scores:submissions" {
		t.Fatalf("unexpected XAdd args: %+v", mock.lastAdd)
	}
	raw, ok := mock.lastAdd.Values.(map[string]interface{})[payloadField].(string)
	if !ok {
		t.Fatalf("expected string payload field")
	}
	var sub domain.ScoreSubmission
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if sub.Email != "a@x.com" || sub.Score != 37 {
		t.Fatalf("unexpected payload: %+v", sub)
	}
}

func TestRedisQueue_EnqueuePropagatesBrokerError(t *testing.T) {
	mock := &mockRedisStreamClient{addErr: errors.New("connection refused")}
	q := newTestRedisQueue(mock)

	if err := q.Enqueue(context.Background(), domain.ScoreSubmission{Email: "a@x.com", Score: 1}); err == nil {
		t.Fatalf("expected broker error")
	}
}

func TestRedisQueue_ReceivePrefersClaimedPending(t *testing.T) {
	mock := &mockRedisStreamClient{
		claimMsgs: []redis.XMessage{
			{ID: "1-1", Values: map[string]interface{}{payloadField: `{"email":"a@x.com","score":5}`}},
		},
	}
	q := newTestRedisQueue(mock)

	msg, err := q.Receive(context.Background())
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if msg.ID != "1-1" {
		t.Fatalf("expected claimed message, got %+v", msg)
	}
	if mock.lastRead != nil {
		t.Fatalf("XReadGroup should not run when a pending entry was claimed")
	}
}

func TestRedisQueue_ReceiveReadsNewEntries(t *testing.T) {
	mock := &mockRedisStreamClient{
		readVal: []redis.XStream{
			{
				Stream: "scores:submissions",
				Messages: []redis.XMessage{
					{ID: "2-1", Values: map[string]interface{}{payloadField: `{"email":"b@x.com","score":9}`}},
				},
			},
		},
	}
	q := newTestRedisQueue(mock)

	msg, err := q.Receive(context.Background())
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if msg.ID != "2-1" || string(msg.Payload) != `{"email":"b@x.com","score":9}` {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if mock.lastRead == nil || mock.lastRead.Group != "score-workers" {
		t.Fatalf("unexpected XReadGroup args: %+v", mock.lastRead)
	}
}

func TestRedisQueue_ReceivePropagatesBrokerError(t *testing.T) {
	mock := &mockRedisStreamClient{readErr: errors.New("connection refused")}
	q := newTestRedisQueue(mock)

	if _, err := q.Receive(context.Background()); err == nil {
		t.Fatalf("expected broker error")
	}
}

func TestRedisQueue_AckPassesID(t *testing.T) {
	mock := &mockRedisStreamClient{}
	q := newTestRedisQueue(mock)

	if err := q.Ack(context.Background(), "2-1"); err != nil {
		t.Fatalf("ack failed: %v", err)
	}
	if len(mock.lastAckIDs) != 1 || mock.lastAckIDs[0] != "2-1" {
		t.Fatalf("unexpected ack ids: %+v", mock.lastAckIDs)
	}
}

func TestRedisQueue_EnsureGroupToleratesBusyGroup(t *testing.T) {
	mock := &mockRedisStreamClient{
		groupCreateErr: errors.New("BUSYGROUP Consumer Group name already exists"),
	}
	q := newTestRedisQueue(mock)

	if err := q.EnsureGroup(context.Background()); err != nil {
		t.Fatalf("BUSYGROUP should be tolerated, got %v", err)
	}
	if !mock.groupCreated {
		t.Fatalf("expected XGroupCreateMkStream call")
	}
	mock.groupCreateErr = errors.New("connection refused")
	if err := q.EnsureGroup(context.Background()); err == nil {
		t.Fatalf("expected broker error")
	}
}
