package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

// Pasos de la cadena de aceptación, usados como etiqueta de métricas.
const (
	AcceptStepRPC        = "rpc"
	AcceptStepUser       = "user"
	AcceptStepAdmin      = "admin"
	AcceptStepIdempotent = "idempotent"
)

const msgLeadTaken = "Este lead ya fue aceptado por otro profesional."

type AcceptLeadUseCase struct {
	Leads    entity.LeadRepositoryInterface
	Profiles entity.ProfileRepositoryInterface
	Events   entity.LeadEventRepositoryInterface
	Queue    QueueProducerInterface
	Metrics  Metrics
	Logger   *zap.Logger
	Now      func() time.Time
}

func NewAcceptLeadUseCase(
	leads entity.LeadRepositoryInterface,
	profiles entity.ProfileRepositoryInterface,
	events entity.LeadEventRepositoryInterface,
	queue QueueProducerInterface,
	metrics Metrics,
	logger *zap.Logger,
) *AcceptLeadUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcceptLeadUseCase{
		Leads:    leads,
		Profiles: profiles,
		Events:   events,
		Queue:    queue,
		Metrics:  metrics,
		Logger:   logger,
		Now:      time.Now,
	}
}

func (uc *AcceptLeadUseCase) Execute(ctx context.Context, input AcceptLeadInput) (*AcceptLeadOutput, error) {
	if input.User.ID == "" {
		return nil, domainErr(CodeUnauthorized, "Debes iniciar sesión como profesional para aceptar leads.")
	}
	leadID, ok := normalizeLeadID(input.LeadID)
	if !ok {
		return nil, domainErr(CodeValidation, "El ID del lead es obligatorio.")
	}
	input.LeadID = leadID

	profile, err := uc.Profiles.FindByUserID(ctx, input.User.ID)
	if err != nil {
		if errors.Is(err, entity.ErrProfileNotFound) {
			return nil, domainErr(CodeForbidden, "Solo los profesionales pueden aceptar leads.")
		}
		return nil, technicalErr(CodeDatabase, "No se pudo verificar tu perfil.", err)
	}
	if !profile.IsProfessional() {
		return nil, domainErr(CodeForbidden, "Solo los profesionales pueden aceptar leads.")
	}

	now := uc.Now().UTC()
	params := entity.AcceptLeadParams{
		LeadID:         input.LeadID,
		ProfessionalID: input.User.ID,
		AssignedAt:     now,
		Deadline:       now.Add(entity.ContactWindow),
	}

	log := uc.Logger.With(zap.String("lead_id", input.LeadID), zap.String("user_id", input.User.ID))

	lead, step, err := uc.accept(ctx, input.User, params, log)
	if err != nil {
		return nil, err
	}

	uc.Metrics.LeadAccepted(step)
	log.Info("✅ Lead aceptado", zap.String("step", step))

	if step != AcceptStepIdempotent {
		emitter := leadEventEmitter{events: uc.Events, queue: uc.Queue, metrics: uc.Metrics, logger: uc.Logger}
		emitter.emit(ctx, lead, input.User.ID, entity.RoleProfesional, entity.EventLeadAccepted, map[string]any{
			"contact_deadline_at": params.Deadline,
			"step":                step,
		}, now)
	}

	return &AcceptLeadOutput{Lead: lead, Step: step}, nil
}

// accept recorre la cadena RPC → lectura → actualización como usuario → actualización administrativa.
// Todas las actualizaciones exigen estado nuevo y sin profesional asignado.
func (uc *AcceptLeadUseCase) accept(ctx context.Context, user entity.AuthUser, params entity.AcceptLeadParams, log *zap.Logger) (*entity.Lead, string, error) {
	lead, err := uc.Leads.AcceptViaRPC(ctx, params)
	if err == nil {
		return lead, AcceptStepRPC, nil
	}
	if !errors.Is(err, entity.ErrLeadAlreadyAssigned) {
		log.Warn("⚠️ RPC accept_lead falló, usando respaldo", zap.Error(err))
	}

	current, err := uc.Leads.FindByID(ctx, params.LeadID)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, "", domainErr(CodeLeadNotFound, "No encontramos el lead solicitado.")
		}
		return nil, "", technicalErr(CodeDatabase, "No se pudo consultar el lead.", err)
	}

	if current.IsAssignedTo(user.ID) {
		return current, AcceptStepIdempotent, nil
	}
	if !current.IsOpen() {
		return nil, "", uc.conflict(log)
	}

	lead, err = uc.Leads.AcceptAsUser(ctx, user, params)
	if err == nil {
		return lead, AcceptStepUser, nil
	}
	log.Warn("⚠️ Actualización con credenciales del usuario falló, usando credencial de servicio", zap.Error(err))

	lead, err = uc.Leads.AcceptAsAdmin(ctx, params)
	if err == nil {
		return lead, AcceptStepAdmin, nil
	}
	if errors.Is(err, entity.ErrLeadAlreadyAssigned) {
		return nil, "", uc.conflict(log)
	}

	log.Error("❌ No se pudo aceptar el lead", zap.Error(err))
	return nil, "", technicalErr(CodeDatabase, "No se pudo aceptar el lead. Intenta nuevamente.", err)
}

func (uc *AcceptLeadUseCase) conflict(log *zap.Logger) error {
	uc.Metrics.LeadAcceptConflict()
	log.Info("🔒 Lead ya asignado a otro profesional")
	return domainErr(CodeLeadAlreadyAssigned, msgLeadTaken)
}
