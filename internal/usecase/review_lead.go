package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

type ReviewLeadUseCase struct {
	Leads         entity.LeadRepositoryInterface
	Reviews       entity.LeadReviewRepositoryInterface
	Professionals entity.ProfessionalRepositoryInterface
	Events        entity.LeadEventRepositoryInterface
	Queue         QueueProducerInterface
	Metrics       Metrics
	Logger        *zap.Logger
	Now           func() time.Time
}

func NewReviewLeadUseCase(
	leads entity.LeadRepositoryInterface,
	reviews entity.LeadReviewRepositoryInterface,
	professionals entity.ProfessionalRepositoryInterface,
	events entity.LeadEventRepositoryInterface,
	queue QueueProducerInterface,
	metrics Metrics,
	logger *zap.Logger,
) *ReviewLeadUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewLeadUseCase{
		Leads:         leads,
		Reviews:       reviews,
		Professionals: professionals,
		Events:        events,
		Queue:         queue,
		Metrics:       metrics,
		Logger:        logger,
		Now:           time.Now,
	}
}

func (uc *ReviewLeadUseCase) Execute(ctx context.Context, input ReviewLeadInput) (*ReviewLeadOutput, error) {
	leadID, ok := normalizeLeadID(input.LeadID)
	if !ok {
		return nil, domainErr(CodeValidation, "El ID del lead es obligatorio.")
	}
	input.LeadID = leadID
	if input.Rating == nil {
		return nil, domainErr(CodeValidation, "La calificación es obligatoria.")
	}
	if !isValidRating(*input.Rating) {
		return nil, domainErr(CodeValidation, "La calificación debe estar entre 1 y 5.")
	}
	if input.User.ID == "" {
		return nil, domainErr(CodeUnauthorized, "Debes iniciar sesión para dejar una reseña.")
	}

	lead, err := uc.Leads.FindByID(ctx, input.LeadID)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, domainErr(CodeLeadNotFound, "No encontramos el lead solicitado.")
		}
		return nil, technicalErr(CodeDatabase, "No se pudo consultar el lead.", err)
	}
	if lead.ClienteID != input.User.ID {
		return nil, domainErr(CodeForbidden, "Solo el cliente que solicitó el servicio puede dejar una reseña.")
	}
	if lead.Estado != entity.LeadCompletado {
		return nil, domainErr(CodeLeadInvalidState, "Solo puedes calificar trabajos completados.")
	}

	existing, err := uc.Reviews.FindByLeadID(ctx, lead.ID)
	if err != nil {
		return nil, technicalErr(CodeDatabase, "No se pudo registrar la reseña.", err)
	}
	if existing != nil {
		return nil, domainErr(CodeReviewExists, "Este trabajo ya tiene una reseña.")
	}

	now := uc.Now().UTC()
	review := &entity.LeadReview{
		ID:        uuid.New().String(),
		LeadID:    lead.ID,
		Rating:    *input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
		CreatedBy: input.User.ID,
		CreatedAt: now,
	}

	if err := uc.Reviews.Create(ctx, review); err != nil {
		// Dos envíos simultáneos: el índice único decide.
		if errors.Is(err, entity.ErrReviewAlreadyExists) {
			return nil, domainErr(CodeReviewExists, "Este trabajo ya tiene una reseña.")
		}
		return nil, technicalErr(CodeDatabase, "No se pudo registrar la reseña.", err)
	}

	if lead.ProfesionalAsignadoID != nil {
		if err := uc.Professionals.RefreshRating(ctx, *lead.ProfesionalAsignadoID); err != nil {
			uc.Logger.Warn("⚠️ No se pudo recalcular la calificación del profesional",
				zap.String("profesional_id", *lead.ProfesionalAsignadoID), zap.Error(err))
		}
	}

	emitter := leadEventEmitter{events: uc.Events, queue: uc.Queue, metrics: uc.Metrics, logger: uc.Logger}
	emitter.emit(ctx, lead, input.User.ID, entity.RoleClient, entity.EventLeadReviewed,
		map[string]any{"rating": review.Rating}, now)

	return &ReviewLeadOutput{Review: review}, nil
}
