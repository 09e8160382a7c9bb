package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/usecase"
)

type deadlineSweeper interface {
	Execute(ctx context.Context) (*usecase.DeadlineSweepOutput, error)
}

type CronHandler struct {
	Deadlines deadlineSweeper
	Secret    string
	Logger    *zap.Logger
}

func NewCronHandler(deadlines deadlineSweeper, secret string, logger *zap.Logger) *CronHandler {
	return &CronHandler{Deadlines: deadlines, Secret: secret, Logger: orNop(logger)}
}

// HandleLeadDeadlines exige "Authorization: Bearer <CRON_SECRET>" cuando el secreto está configurado.
func (h *CronHandler) HandleLeadDeadlines(w http.ResponseWriter, r *http.Request) {
	if h.Secret != "" {
		got := r.Header.Get("Authorization")
		want := "Bearer " + h.Secret
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
			return
		}
	}

	out, err := h.Deadlines.Execute(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
