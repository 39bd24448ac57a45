package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"fruitbox/internal/domain"
)

// MemoryQueue implementa ScoreQueue en memoria para pruebas y desarrollo
// local. Reproduce la semantica at-least-once: lo recibido sin ack queda
// pendiente y puede reentregarse con RedeliverPending.
type MemoryQueue struct {
	mu      sync.Mutex
	ch      chan Message
	pending map[string]Message
	seq     int
}

func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 64
	}
	return &MemoryQueue{
		ch:      make(chan Message, buffer),
		pending: make(map[string]Message),
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, sub domain.ScoreSubmission) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	return q.push(payload)
}

// EnqueueRaw encola un payload arbitrario, util para simular mensajes
// corruptos de productores ajenos.
func (q *MemoryQueue) EnqueueRaw(payload []byte) error {
	return q.push(payload)
}

func (q *MemoryQueue) push(payload []byte) error {
	q.mu.Lock()
	q.seq++
	msg := Message{ID: fmt.Sprintf("mem-%d", q.seq), Payload: payload}
	q.mu.Unlock()

	select {
	case q.ch <- msg:
		return nil
	default:
		return errors.New("memory queue full")
	}
}

func (q *MemoryQueue) Receive(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case msg := <-q.ch:
		q.mu.Lock()
		q.pending[msg.ID] = msg
		q.mu.Unlock()
		return msg, nil
	}
}

func (q *MemoryQueue) Ack(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, id)
	return nil
}

// RedeliverPending reencola todo lo entregado y no confirmado, simulando la
// reentrega del broker tras la caida de un consumer.
func (q *MemoryQueue) RedeliverPending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for id, msg := range q.pending {
		select {
		case q.ch <- msg:
			delete(q.pending, id)
			n++
		default:
		}
	}
	return n
}

// PendingCount expone cuantas entregas esperan ack.
func (q *MemoryQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Len expone cuantos mensajes esperan entrega.
func (q *MemoryQueue) Len() int {
	return len(q.ch)
}
