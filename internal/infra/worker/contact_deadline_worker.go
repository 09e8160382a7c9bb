package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/usecase"
)

const defaultTickInterval = time.Minute

// deadlineSweeper es el caso de uso que penaliza los plazos de contacto vencidos.
type deadlineSweeper interface {
	Execute(ctx context.Context) (*usecase.DeadlineSweepOutput, error)
}

type ContactDeadlineWorker struct {
	sweeper      deadlineSweeper
	tickInterval time.Duration
	logger       *zap.Logger
}

func NewContactDeadlineWorker(sweeper deadlineSweeper, tick time.Duration, logger *zap.Logger) *ContactDeadlineWorker {
	if tick <= 0 {
		tick = defaultTickInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactDeadlineWorker{
		sweeper:      sweeper,
		tickInterval: tick,
		logger:       logger,
	}
}

// Start corre un barrido inmediato y luego uno por tick hasta que se cancele el contexto.
func (w *ContactDeadlineWorker) Start(ctx context.Context) {
	w.logger.Info("🕒 Worker de plazos de contacto iniciado", zap.Duration("tick", w.tickInterval))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("⚠️ Worker de plazos de contacto detenido")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ContactDeadlineWorker) sweep(ctx context.Context) {
	out, err := w.sweeper.Execute(ctx)
	if err != nil {
		w.logger.Error("❌ Error revisando plazos de contacto", zap.Error(err))
		return
	}
	if out.Processed > 0 {
		w.logger.Info("✅ Leads penalizados por plazo vencido", zap.Int("processed", out.Processed))
	}
}
