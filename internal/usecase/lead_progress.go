package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

const DefaultContactMethod = "whatsapp"

// LeadProgressUseCase cubre los pasos posteriores a la aceptación:
// contacto, agenda y confirmación de cita, y cierre del trabajo.
type LeadProgressUseCase struct {
	Leads   entity.LeadRepositoryInterface
	Events  entity.LeadEventRepositoryInterface
	Queue   QueueProducerInterface
	Metrics Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

func NewLeadProgressUseCase(
	leads entity.LeadRepositoryInterface,
	events entity.LeadEventRepositoryInterface,
	queue QueueProducerInterface,
	metrics Metrics,
	logger *zap.Logger,
) *LeadProgressUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadProgressUseCase{
		Leads:   leads,
		Events:  events,
		Queue:   queue,
		Metrics: metrics,
		Logger:  logger,
		Now:     time.Now,
	}
}

func (uc *LeadProgressUseCase) emitter() leadEventEmitter {
	return leadEventEmitter{events: uc.Events, queue: uc.Queue, metrics: uc.Metrics, logger: uc.Logger}
}

func (uc *LeadProgressUseCase) Contact(ctx context.Context, input ContactLeadInput) (*entity.Lead, error) {
	leadID, ok := normalizeLeadID(input.LeadID)
	if !ok {
		return nil, domainErr(CodeValidation, "El ID del lead es obligatorio.")
	}
	input.LeadID = leadID
	if input.User.ID == "" {
		return nil, domainErr(CodeUnauthorized, "Debes iniciar sesión como profesional para reportar el contacto.")
	}

	lead, err := uc.load(ctx, input.LeadID)
	if err != nil {
		return nil, err
	}
	if !lead.IsAssignedTo(input.User.ID) {
		return nil, domainErr(CodeForbidden, "Solo el profesional asignado puede reportar el contacto.")
	}
	if lead.Estado != entity.LeadAceptado {
		return nil, domainErr(CodeLeadInvalidState, "No se pudo registrar el contacto: el lead no está en estado aceptado.")
	}

	method := strings.TrimSpace(input.Method)
	if method == "" {
		method = DefaultContactMethod
	}

	now := uc.Now().UTC()
	updated, err := uc.Leads.MarkContacted(ctx, lead.ID, input.User.ID, method, strings.TrimSpace(input.Notes), now)
	if err != nil {
		return nil, uc.mapUpdateErr(err, "No se pudo registrar el contacto.")
	}

	uc.emitter().emit(ctx, updated, input.User.ID, entity.RoleProfesional, entity.EventLeadContacted,
		map[string]any{"method": method}, now)
	return updated, nil
}

func (uc *LeadProgressUseCase) Appointment(ctx context.Context, input AppointmentInput) (*entity.Lead, error) {
	leadID, ok := normalizeLeadID(input.LeadID)
	if !ok {
		return nil, domainErr(CodeValidation, "El ID del lead es obligatorio.")
	}
	input.LeadID = leadID
	if input.User.ID == "" {
		return nil, domainErr(CodeUnauthorized, "Debes iniciar sesión para actualizar la cita de este trabajo.")
	}

	lead, err := uc.load(ctx, input.LeadID)
	if err != nil {
		return nil, err
	}

	if input.Action == "confirm" {
		return uc.confirm(ctx, lead, input.User)
	}
	return uc.schedule(ctx, lead, input)
}

func (uc *LeadProgressUseCase) schedule(ctx context.Context, lead *entity.Lead, input AppointmentInput) (*entity.Lead, error) {
	isClient := lead.ClienteID == input.User.ID
	if !lead.IsAssignedTo(input.User.ID) && !isClient {
		return nil, domainErr(CodeForbidden, "No tienes permisos para agendar esta cita.")
	}

	if strings.TrimSpace(input.AppointmentAt) == "" {
		return nil, domainErr(CodeValidation, "Debes proporcionar la fecha y hora de la cita.")
	}
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(input.AppointmentAt))
	if err != nil {
		return nil, domainErr(CodeValidation, "La fecha de la cita no es válida.")
	}

	now := uc.Now().UTC()
	if !at.After(now) {
		return nil, domainErr(CodeValidation, "La cita debe programarse en el futuro.")
	}
	if lead.Estado != entity.LeadAceptado && lead.Estado != entity.LeadContactado {
		return nil, domainErr(CodeLeadInvalidState, "No se pudo actualizar la cita. Verifica la información e inténtalo nuevamente.")
	}

	updated, err := uc.Leads.ScheduleAppointment(ctx, lead.ID, at.UTC(), strings.TrimSpace(input.Notes))
	if err != nil {
		return nil, uc.mapUpdateErr(err, "No se pudo actualizar la cita. Verifica la información e inténtalo nuevamente.")
	}

	role := entity.RoleProfesional
	if isClient {
		role = entity.RoleClient
	}
	uc.emitter().emit(ctx, updated, input.User.ID, role, entity.EventAppointmentScheduled,
		map[string]any{"appointment_at": at.UTC()}, now)
	return updated, nil
}

func (uc *LeadProgressUseCase) confirm(ctx context.Context, lead *entity.Lead, user entity.AuthUser) (*entity.Lead, error) {
	if lead.ClienteID != user.ID {
		return nil, domainErr(CodeForbidden, "Solo el cliente puede confirmar la cita.")
	}
	if lead.AppointmentStatus != entity.AppointmentScheduled {
		return nil, domainErr(CodeLeadInvalidState, "No hay una cita agendada para confirmar.")
	}

	updated, err := uc.Leads.ConfirmAppointment(ctx, lead.ID)
	if err != nil {
		return nil, uc.mapUpdateErr(err, "No se pudo confirmar la cita.")
	}

	uc.emitter().emit(ctx, updated, user.ID, entity.RoleClient, entity.EventAppointmentConfirmed, nil, uc.Now().UTC())
	return updated, nil
}

func (uc *LeadProgressUseCase) Complete(ctx context.Context, input CompleteLeadInput) (*entity.Lead, error) {
	leadID, ok := normalizeLeadID(input.LeadID)
	if !ok {
		return nil, domainErr(CodeValidation, "El ID del lead es obligatorio.")
	}
	input.LeadID = leadID
	if input.User.ID == "" {
		return nil, domainErr(CodeUnauthorized, "Debes iniciar sesión como profesional para cerrar el trabajo.")
	}

	lead, err := uc.load(ctx, input.LeadID)
	if err != nil {
		return nil, err
	}
	if !lead.IsAssignedTo(input.User.ID) {
		return nil, domainErr(CodeForbidden, "Solo el profesional asignado puede cerrar el trabajo.")
	}
	if lead.Estado != entity.LeadEnProgreso {
		return nil, domainErr(CodeLeadInvalidState, "El trabajo debe estar en progreso para marcarlo como completado.")
	}

	now := uc.Now().UTC()
	updated, err := uc.Leads.Complete(ctx, lead.ID, input.User.ID, now)
	if err != nil {
		return nil, uc.mapUpdateErr(err, "No se pudo marcar el trabajo como completado.")
	}

	uc.emitter().emit(ctx, updated, input.User.ID, entity.RoleProfesional, entity.EventLeadCompleted, nil, now)
	return updated, nil
}

func (uc *LeadProgressUseCase) load(ctx context.Context, leadID string) (*entity.Lead, error) {
	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, domainErr(CodeLeadNotFound, "No encontramos el lead solicitado.")
		}
		return nil, technicalErr(CodeDatabase, "No se pudo consultar el lead.", err)
	}
	return lead, nil
}

// mapUpdateErr traduce el fallo de una actualización condicionada.
func (uc *LeadProgressUseCase) mapUpdateErr(err error, msg string) error {
	if errors.Is(err, entity.ErrLeadInvalidState) || errors.Is(err, entity.ErrLeadNotFound) {
		return domainErr(CodeLeadInvalidState, msg)
	}
	uc.Logger.Error("❌ Error actualizando lead", zap.Error(err))
	return technicalErr(CodeDatabase, msg, err)
}
