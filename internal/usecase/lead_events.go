package usecase

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/entity"
	"github.com/sumeeapp/sumee-api/internal/infra/queue"
)

const ActorSistema = "sistema"

// leadEventEmitter registra el evento en lead_events y lo publica en la cola.
// Ninguna de las dos fallas interrumpe la operación que lo origina.
type leadEventEmitter struct {
	events  entity.LeadEventRepositoryInterface
	queue   QueueProducerInterface
	metrics Metrics
	logger  *zap.Logger
}

func (e leadEventEmitter) emit(ctx context.Context, lead *entity.Lead, actorID, actorRole, eventType string, payload map[string]any, at time.Time) {
	log := e.logger.With(zap.String("lead_id", lead.ID), zap.String("event", eventType))

	if e.events != nil {
		var raw json.RawMessage
		if payload != nil {
			raw, _ = json.Marshal(payload)
		}
		err := e.events.Insert(ctx, &entity.LeadEvent{
			LeadID:    lead.ID,
			ActorID:   actorID,
			ActorRole: actorRole,
			EventType: eventType,
			Payload:   raw,
			CreatedAt: at,
		})
		if err != nil {
			log.Warn("⚠️ No se pudo registrar el evento del lead", zap.Error(err))
		}
	}

	if e.queue == nil {
		return
	}

	msg := queue.LeadEventPayload{
		Event:      eventType,
		LeadID:     lead.ID,
		ClienteID:  lead.ClienteID,
		Servicio:   lead.Servicio,
		OccurredAt: at,
	}
	if lead.ProfesionalAsignadoID != nil {
		msg.ProfesionalID = *lead.ProfesionalAsignadoID
	}
	if err := e.queue.PublishLeadEvent(ctx, msg); err != nil {
		e.metrics.IntegrationError("rabbitmq")
		log.Error("❌ Falla al publicar evento en la cola", zap.Error(err))
	}
}
