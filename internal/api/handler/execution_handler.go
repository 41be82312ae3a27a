package handler

import (
	"encoding/json"
	"net/http"

	"code_arena/internal/app/service"
	"code_arena/internal/common"

	"github.com/go-chi/chi/v5"
)

type ExecutionHandler struct {
	executionService *service.ExecutionService
}

func NewExecutionHandler(es *service.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{executionService: es}
}

// RegisterRoutes mounts /run and /submit. Neither needs a token.
func (h *ExecutionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/run", h.runCode)
	r.Post("/submit", h.submit)
}

func (h *ExecutionHandler) runCode(w http.ResponseWriter, r *http.Request) {
	var req service.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := h.executionService.Run(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ExecutionHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := h.executionService.Submit(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}
