package poll

import (
	"net/http"
	middle "routepulse/internals/middleware"
	"routepulse/pkg/apperror"
	"routepulse/pkg/utils"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ExecutePoll is the manual trigger. It runs the same admission checks
// as the background loop, so a caller cannot sidestep windows or quota.
func (h *Handler) ExecutePoll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	userID, ok := middle.UserIDFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	routeID, err := uuid.Parse(chi.URLParam(r, "routeID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid route id")
		return
	}

	// ownership check before any side effect
	if _, err := h.service.routeSvc.GetRoute(ctx, userID, routeID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	out, err := h.service.ExecutePoll(ctx, routeID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, reqID, "poll recorded", ExecutePollResponse{
		SessionID:   out.Session.ID.String(),
		State:       string(out.Session.State),
		PollCount:   out.Session.PollCount,
		DurationSec: out.Record.DurationSec,
		DistanceM:   out.Record.DistanceM,
		Provider:    out.Record.Provider,
		Rerouted:    out.Record.Rerouted,
		PolledAt:    out.Record.PolledAt.UTC().Format(time.RFC3339),
	})
}

// ListProviders reports the configured provider identifiers, so a
// client knows what it can put in a route or triple test.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	names := h.service.providers.Names()
	sort.Strings(names)

	utils.WriteJSON(w, http.StatusOK, reqID, "", names)
}
