package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/entity"
	"github.com/sumeeapp/sumee-api/internal/infra/queue"
)

// NotifyLeadEventUseCase consume eventos de la cola y envía los correos al cliente.
type NotifyLeadEventUseCase struct {
	Leads         entity.LeadRepositoryInterface
	Profiles      entity.ProfileRepositoryInterface
	Professionals entity.ProfessionalRepositoryInterface
	Email         EmailService
	Logger        *zap.Logger
}

func NewNotifyLeadEventUseCase(
	leads entity.LeadRepositoryInterface,
	profiles entity.ProfileRepositoryInterface,
	professionals entity.ProfessionalRepositoryInterface,
	email EmailService,
	logger *zap.Logger,
) *NotifyLeadEventUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotifyLeadEventUseCase{
		Leads:         leads,
		Profiles:      profiles,
		Professionals: professionals,
		Email:         email,
		Logger:        logger,
	}
}

// HandleLeadEvent devuelve error solo cuando el mensaje debe ir a la DLQ.
func (uc *NotifyLeadEventUseCase) HandleLeadEvent(ctx context.Context, payload queue.LeadEventPayload) error {
	switch payload.Event {
	case entity.EventLeadCreated, entity.EventLeadAccepted:
	default:
		uc.Logger.Debug("Evento sin notificación", zap.String("event", payload.Event))
		return nil
	}

	lead, err := uc.Leads.FindByID(ctx, payload.LeadID)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			uc.Logger.Warn("⚠️ Lead del evento no existe", zap.String("lead_id", payload.LeadID))
			return nil
		}
		return fmt.Errorf("buscar lead: %w", err)
	}

	client, err := uc.Profiles.FindByUserID(ctx, lead.ClienteID)
	if err != nil {
		if errors.Is(err, entity.ErrProfileNotFound) {
			return nil
		}
		return fmt.Errorf("buscar cliente: %w", err)
	}
	if client.Email == "" {
		uc.Logger.Warn("⚠️ Cliente sin email, se omite notificación", zap.String("lead_id", lead.ID))
		return nil
	}

	if payload.Event == entity.EventLeadCreated {
		if err := uc.Email.SendLeadCreated(ctx, client.Email, lead); err != nil {
			return fmt.Errorf("email lead.created: %w", err)
		}
		uc.Logger.Info("📧 Confirmación de solicitud enviada", zap.String("lead_id", lead.ID))
		return nil
	}

	proID := payload.ProfesionalID
	if proID == "" && lead.ProfesionalAsignadoID != nil {
		proID = *lead.ProfesionalAsignadoID
	}
	if proID == "" {
		return nil
	}

	pro, err := uc.Professionals.FindByUserID(ctx, proID)
	if err != nil {
		if errors.Is(err, entity.ErrProfileNotFound) {
			return nil
		}
		return fmt.Errorf("buscar profesional: %w", err)
	}

	if err := uc.Email.SendLeadAccepted(ctx, client.Email, lead, pro); err != nil {
		return fmt.Errorf("email lead.accepted: %w", err)
	}
	uc.Logger.Info("📧 Aviso de lead aceptado enviado", zap.String("lead_id", lead.ID))
	return nil
}
