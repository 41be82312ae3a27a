package handler

import (
	"net/http"

	"code_arena/internal/app/service"
	"code_arena/internal/common"

	"github.com/rs/zerolog/log"
)

type HealthHandler struct {
	healthService *service.HealthService
}

func NewHealthHandler(hs *service.HealthService) *HealthHandler {
	return &HealthHandler{healthService: hs}
}

type dbFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

func (h *HealthHandler) TestDB(w http.ResponseWriter, r *http.Request) {
	report, err := h.healthService.TestDB(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Database test failed")
		common.RespondWithJSON(w, http.StatusInternalServerError, dbFailure{
			Success: false,
			Error:   "Database connection failed",
			Details: err.Error(),
		})
		return
	}
	common.RespondWithJSON(w, http.StatusOK, report)
}
