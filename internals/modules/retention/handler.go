package retention

import (
	"encoding/json"
	"net/http"
	"time"

	"routepulse/pkg/apperror"
	"routepulse/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type PruneRequest struct {
	// Cutoff overrides the configured retention age, RFC3339.
	Cutoff string `json:"cutoff"`
}

type PruneResponse struct {
	Pruned int64  `json:"pruned"`
	Cutoff string `json:"cutoff"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// PruneNow is the admin trigger mirroring the nightly loop.
func (h *Handler) PruneNow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	cutoff := h.service.clock.Now().Add(-h.service.maxAge)
	if r.Body != nil && r.ContentLength > 0 {
		var req PruneRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
			return
		}
		if req.Cutoff != "" {
			parsed, err := time.Parse(time.RFC3339, req.Cutoff)
			if err != nil {
				utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "cutoff must be RFC3339")
				return
			}
			cutoff = parsed
		}
	}

	pruned, err := h.service.PruneOlderThan(ctx, cutoff)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "prune finished", PruneResponse{
		Pruned: pruned,
		Cutoff: cutoff.UTC().Format(time.RFC3339),
	})
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/retention/prune", h.PruneNow)
	return r
}
