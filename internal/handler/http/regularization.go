package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/regularization"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type RegularizationHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	ListPending(w http.ResponseWriter, r *http.Request)
	Review(w http.ResponseWriter, r *http.Request)
}

type regularizationHandlerImpl struct {
	regularizationService regularization.RegularizationService
}

func NewRegularizationHandler(regularizationService regularization.RegularizationService) RegularizationHandler {
	return &regularizationHandlerImpl{
		regularizationService: regularizationService,
	}
}

// Submit implements RegularizationHandler.
func (h *regularizationHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	var req regularization.SubmitRegularizationRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Submit regularization decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.regularizationService.Submit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Regularization request submitted", result)
}

// ListMine implements RegularizationHandler.
func (h *regularizationHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	result, err := h.regularizationService.ListMine(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListPending implements RegularizationHandler.
func (h *regularizationHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	result, err := h.regularizationService.ListPending(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Review implements RegularizationHandler.
func (h *regularizationHandlerImpl) Review(w http.ResponseWriter, r *http.Request) {
	var req regularization.ReviewRegularizationRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Review regularization decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.regularizationService.Review(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Regularization request "+string(req.Status), result)
}
