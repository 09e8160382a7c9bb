package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// LeadEventPayload es el mensaje que viaja por q.lead-events.
type LeadEventPayload struct {
	Event         string    `json:"event"`
	LeadID        string    `json:"lead_id"`
	ClienteID     string    `json:"cliente_id"`
	ProfesionalID string    `json:"profesional_id,omitempty"`
	Servicio      string    `json:"servicio"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type QueueProducerInterface interface {
	PublishLeadEvent(ctx context.Context, payload LeadEventPayload) error
}

// channelPublisher es el subconjunto de *amqp.Channel que usa el productor.
type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch channelPublisher
}

func NewProducer(ch channelPublisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishLeadEvent(ctx context.Context, payload LeadEventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error al convertir payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    payload.OccurredAt,
			Type:         payload.Event,
		},
	)
	if err != nil {
		return fmt.Errorf("falla al publicar en RabbitMQ: %w", err)
	}
	return nil
}

// LogProducer se usa cuando RABBITMQ_URL no está configurado: solo registra el evento.
type LogProducer struct {
	Logger *zap.Logger
}

func (p *LogProducer) PublishLeadEvent(_ context.Context, payload LeadEventPayload) error {
	if p.Logger != nil {
		p.Logger.Info("📭 Cola deshabilitada, evento solo registrado",
			zap.String("event", payload.Event),
			zap.String("lead_id", payload.LeadID))
	}
	return nil
}
