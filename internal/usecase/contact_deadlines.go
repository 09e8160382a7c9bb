package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/entity"
)

// ContactDeadlinesUseCase penaliza a los profesionales que no contactaron al cliente a tiempo.
type ContactDeadlinesUseCase struct {
	Leads   entity.LeadRepositoryInterface
	Metrics Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

func NewContactDeadlinesUseCase(leads entity.LeadRepositoryInterface, metrics Metrics, logger *zap.Logger) *ContactDeadlinesUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactDeadlinesUseCase{Leads: leads, Metrics: metrics, Logger: logger, Now: time.Now}
}

// Execute aplica la penalización una sola vez por lead; la fila de evento
// contact_deadline_missed marca los leads ya procesados.
func (uc *ContactDeadlinesUseCase) Execute(ctx context.Context) (*DeadlineSweepOutput, error) {
	overdue, err := uc.Leads.ListOverdueContacts(ctx, uc.Now().UTC())
	if err != nil {
		return nil, technicalErr(CodeDatabase, "No se pudieron consultar los leads vencidos.", err)
	}

	processed := 0
	for _, lead := range overdue {
		if ctx.Err() != nil {
			break
		}
		var professionalID string
		if lead.ProfesionalAsignadoID != nil {
			professionalID = *lead.ProfesionalAsignadoID
		}
		if err := uc.Leads.ApplyDeadlinePenalty(ctx, lead.ID, professionalID, entity.DeadlinePenalty); err != nil {
			uc.Logger.Error("❌ Error aplicando penalización", zap.String("lead_id", lead.ID), zap.Error(err))
			continue
		}
		processed++
		uc.Metrics.DeadlinePenalty()
		uc.Logger.Info("⏰ Plazo de contacto vencido, penalización aplicada",
			zap.String("lead_id", lead.ID), zap.Int("penalty", entity.DeadlinePenalty))
	}

	return &DeadlineSweepOutput{Processed: processed}, nil
}
