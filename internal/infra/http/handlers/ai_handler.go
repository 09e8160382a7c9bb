package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/usecase"
)

type assistantExecutor interface {
	Execute(ctx context.Context, input usecase.AIAssistantInput) (*usecase.AIAssistantOutput, error)
}

type searchExecutor interface {
	Execute(ctx context.Context, input usecase.AISearchInput) (*usecase.AISearchOutput, error)
}

type AIHandler struct {
	Assistant assistantExecutor
	Search    searchExecutor
	Logger    *zap.Logger
}

func NewAIHandler(assistant assistantExecutor, search searchExecutor, logger *zap.Logger) *AIHandler {
	return &AIHandler{Assistant: assistant, Search: search, Logger: orNop(logger)}
}

func (h *AIHandler) HandleAssistant(w http.ResponseWriter, r *http.Request) {
	var input usecase.AIAssistantInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "JSON inválido"})
		return
	}

	out, err := h.Assistant.Execute(r.Context(), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSearch responde siempre con la forma del resultado de búsqueda, también en errores.
func (h *AIHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var input usecase.AISearchInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, emptySearch("JSON inválido"))
		return
	}

	out, err := h.Search.Execute(r.Context(), input)
	if err != nil {
		status := statusFor(err)
		msg := "Error al analizar la descripción. Por favor, intenta de nuevo."
		var de *usecase.DomainError
		if errors.As(err, &de) {
			msg = de.Message
		} else {
			h.Logger.Error("❌ Error en búsqueda IA", zap.Error(err))
		}
		writeJSON(w, status, emptySearch(msg))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func emptySearch(reasoning string) *usecase.AISearchOutput {
	return &usecase.AISearchOutput{
		Alternatives:  []usecase.ServiceMatch{},
		Reasoning:     reasoning,
		PreFilledData: map[string]any{},
	}
}
