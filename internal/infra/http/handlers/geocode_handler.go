package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/usecase"
)

type geocodeExecutor interface {
	Execute(ctx context.Context, input usecase.ReverseGeocodeInput) (*usecase.ReverseGeocodeOutput, error)
}

type GeocodeHandler struct {
	Geocode geocodeExecutor
	Logger  *zap.Logger
}

type geocodeResponse struct {
	Success bool                          `json:"success"`
	Data    *usecase.ReverseGeocodeOutput `json:"data,omitempty"`
	Error   string                        `json:"error,omitempty"`
}

func NewGeocodeHandler(uc geocodeExecutor, logger *zap.Logger) *GeocodeHandler {
	return &GeocodeHandler{Geocode: uc, Logger: orNop(logger)}
}

func (h *GeocodeHandler) HandleReverse(w http.ResponseWriter, r *http.Request) {
	var input usecase.ReverseGeocodeInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, geocodeResponse{Error: "JSON inválido"})
		return
	}
	input.Caller = currentUser(r)

	out, err := h.Geocode.Execute(r.Context(), input)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.Logger.Error("❌ Error en geocodificación inversa", zap.Error(err))
		}
		writeJSON(w, status, geocodeResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, geocodeResponse{Success: true, Data: out})
}
