package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/entity"
	"github.com/sumeeapp/sumee-api/internal/infra/http/middleware"
	"github.com/sumeeapp/sumee-api/internal/usecase"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor traduce los errores de los casos de uso a códigos HTTP.
func statusFor(err error) int {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case usecase.CodeUnauthorized:
			return http.StatusUnauthorized
		case usecase.CodeForbidden:
			return http.StatusForbidden
		case usecase.CodeLeadNotFound, usecase.CodeProfileNotFound:
			return http.StatusNotFound
		case usecase.CodeLeadAlreadyAssigned, usecase.CodeReviewExists:
			return http.StatusConflict
		default:
			return http.StatusBadRequest
		}
	}

	var pe *usecase.PaymentError
	if errors.As(err, &pe) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError responde {"error": ...}; los errores técnicos se registran aquí
// y nunca exponen el error interno.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("❌ Error interno", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func currentUser(r *http.Request) entity.AuthUser {
	user, _ := middleware.UserFromContext(r.Context())
	return user
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
