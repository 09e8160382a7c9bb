package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// LeadEventHandler procesa un evento de lead (notificaciones, integraciones).
type LeadEventHandler interface {
	HandleLeadEvent(ctx context.Context, payload LeadEventPayload) error
}

// channelConsumer es el subconjunto de *amqp.Channel que usa el worker.
type channelConsumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel channelConsumer
	Handler LeadEventHandler
	Logger  *zap.Logger
}

func NewWorker(ch channelConsumer, handler LeadEventHandler, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{Channel: ch, Handler: handler, Logger: logger}
}

// Start consume la cola hasta que se cancele el contexto o se cierre el canal.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"sumee-notifier",
		false, // ack manual
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("falla al registrar consumidor RabbitMQ: %w", err)
	}

	w.Logger.Info("📬 Worker esperando eventos", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("⚠️ Worker de eventos detenido")
			return nil
		case d, ok := <-msgs:
			if !ok {
				w.Logger.Warn("⚠️ Canal de RabbitMQ cerrado")
				return nil
			}
			w.process(ctx, d)
		}
	}
}

func (w *Worker) process(ctx context.Context, d amqp.Delivery) {
	var payload LeadEventPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		w.Logger.Error("❌ [WORKER] JSON inválido", zap.Error(err))
		// Mensaje malformado: sin requeue para no trabar la cola.
		d.Nack(false, false)
		return
	}

	log := w.Logger.With(zap.String("event", payload.Event), zap.String("lead_id", payload.LeadID))
	log.Info("📥 [WORKER] Evento recibido")

	if err := w.Handler.HandleLeadEvent(ctx, payload); err != nil {
		log.Error("❌ [WORKER] Error procesando evento", zap.Error(err))
		d.Nack(false, false)
		return
	}

	log.Info("✅ [WORKER] Evento procesado")
	d.Ack(false)
}
