package queue

import (
	"context"

	"fruitbox/internal/domain"
)

// Message es una entrega pendiente de ack. El ID identifica la entrega ante
// el broker, no al contenido: el mismo payload puede entregarse mas de una vez.
type Message struct {
	ID      string
	Payload []byte
}

// ScoreQueue es el canal durable entre el gateway de submissions y los
// workers. Semantica at-least-once: un mensaje recibido y no confirmado
// con Ack vuelve a entregarse.
type ScoreQueue interface {
	Enqueue(ctx context.Context, sub domain.ScoreSubmission) error
	Receive(ctx context.Context) (Message, error)
	Ack(ctx context.Context, id string) error
}
