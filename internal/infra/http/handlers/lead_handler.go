package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/sumeeapp/sumee-api/internal/entity"
	"github.com/sumeeapp/sumee-api/internal/usecase"
)

type leadCreator interface {
	Execute(ctx context.Context, input usecase.CreateLeadInput) (*usecase.CreateLeadOutput, error)
}

type leadAccepter interface {
	Execute(ctx context.Context, input usecase.AcceptLeadInput) (*usecase.AcceptLeadOutput, error)
}

type leadProgressor interface {
	Contact(ctx context.Context, input usecase.ContactLeadInput) (*entity.Lead, error)
	Appointment(ctx context.Context, input usecase.AppointmentInput) (*entity.Lead, error)
	Complete(ctx context.Context, input usecase.CompleteLeadInput) (*entity.Lead, error)
}

type leadReviewer interface {
	Execute(ctx context.Context, input usecase.ReviewLeadInput) (*usecase.ReviewLeadOutput, error)
}

type leadDetailer interface {
	Execute(ctx context.Context, leadID string, user entity.AuthUser) (*usecase.LeadDetailsOutput, error)
}

type LeadHandler struct {
	Create   leadCreator
	Accept   leadAccepter
	Progress leadProgressor
	Review   leadReviewer
	Details  leadDetailer
	Logger   *zap.Logger
}

type leadResponse struct {
	Lead *entity.Lead `json:"lead"`
}

func NewLeadHandler(
	create leadCreator,
	accept leadAccepter,
	progress leadProgressor,
	review leadReviewer,
	details leadDetailer,
	logger *zap.Logger,
) *LeadHandler {
	return &LeadHandler{
		Create:   create,
		Accept:   accept,
		Progress: progress,
		Review:   review,
		Details:  details,
		Logger:   orNop(logger),
	}
}

func (h *LeadHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateLeadInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "JSON inválido"})
		return
	}
	input.ClienteID = currentUser(r).ID

	out, err := h.Create.Execute(r.Context(), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *LeadHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	var input usecase.AcceptLeadInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "El ID del lead es obligatorio."})
		return
	}
	input.User = currentUser(r)

	out, err := h.Accept.Execute(r.Context(), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LeadHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	var input usecase.ContactLeadInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "JSON inválido"})
		return
	}
	input.User = currentUser(r)

	lead, err := h.Progress.Contact(r.Context(), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, leadResponse{Lead: lead})
}

func (h *LeadHandler) HandleAppointment(w http.ResponseWriter, r *http.Request) {
	var input usecase.AppointmentInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "JSON inválido"})
		return
	}
	input.User = currentUser(r)

	lead, err := h.Progress.Appointment(r.Context(), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, leadResponse{Lead: lead})
}

func (h *LeadHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	var input usecase.CompleteLeadInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "JSON inválido"})
		return
	}
	input.User = currentUser(r)

	lead, err := h.Progress.Complete(r.Context(), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, leadResponse{Lead: lead})
}

func (h *LeadHandler) HandleReview(w http.ResponseWriter, r *http.Request) {
	var input usecase.ReviewLeadInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "JSON inválido"})
		return
	}
	input.User = currentUser(r)

	out, err := h.Review.Execute(r.Context(), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *LeadHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	out, err := h.Details.Execute(r.Context(), r.URL.Query().Get("leadId"), currentUser(r))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
