package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message — конверт события.
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// RunStartedPayload — полезная нагрузка события run.started.
type RunStartedPayload struct {
	RunID     uuid.UUID `json:"run_id"`
	Flow      string    `json:"flow"`
	StartedAt time.Time `json:"started_at"`
}

// RunFinishedPayload — полезная нагрузка события run.finished.
type RunFinishedPayload struct {
	RunID      uuid.UUID `json:"run_id"`
	Flow       string    `json:"flow"`
	Outcome    string    `json:"outcome"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
}

// Publisher публикует события в обменник celesta.runs.
type Publisher struct {
	conn *Connection
}

// NewPublisher создаёт Publisher поверх соединения.
func NewPublisher(conn *Connection) *Publisher {
	return &Publisher{conn: conn}
}

// Publish сериализует полезную нагрузку и публикует событие.
// Сообщения персистентны: переживают рестарт брокера.
func (p *Publisher) Publish(ctx context.Context, key RoutingKey, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	msg := Message{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx,
			string(RunsExchange),
			string(key),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish %s: %w", key, err)
		}
		return nil
	})
}
