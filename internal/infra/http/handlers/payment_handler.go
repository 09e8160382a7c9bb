package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/usecase"
)

type paymentExecutor interface {
	Execute(ctx context.Context, input usecase.PaymentInput) (*usecase.PaymentOutput, error)
}

type webhookExecutor interface {
	Execute(ctx context.Context, payload []byte, signature string) error
}

type PaymentHandler struct {
	Payments paymentExecutor
	Webhook  webhookExecutor
	Logger   *zap.Logger
}

type paymentErrorResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	StripeError string `json:"stripeError,omitempty"`
}

func NewPaymentHandler(payments paymentExecutor, webhook webhookExecutor, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{Payments: payments, Webhook: webhook, Logger: orNop(logger)}
}

func (h *PaymentHandler) HandlePayments(w http.ResponseWriter, r *http.Request) {
	var input usecase.PaymentInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, paymentErrorResponse{Error: "JSON inválido"})
		return
	}
	input.User = currentUser(r)

	out, err := h.Payments.Execute(r.Context(), input)
	if err != nil {
		resp := paymentErrorResponse{Error: err.Error()}
		var pe *usecase.PaymentError
		if errors.As(err, &pe) {
			resp.StripeError = pe.StripeError
		}
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.Logger.Error("❌ Error procesando pago", zap.Error(err))
		}
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// maxWebhookBody limita el cuerpo que se lee antes de validar la firma.
const maxWebhookBody = 1 << 16

func (h *PaymentHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No se pudo leer el cuerpo"})
		return
	}

	if err := h.Webhook.Execute(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
