package baseline

import (
	"net/http"
	"strconv"
	"time"

	middle "routepulse/internals/middleware"
	"routepulse/pkg/apperror"
	"routepulse/pkg/utils"

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

// /routes/{routeID}/baseline?weekday=N  (0 = Monday ... 6 = Sunday)
func (h *Handler) GetBaseline(w http.ResponseWriter, r *http.Request) {
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

	weekday, ok := parseWeekdayParam(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "weekday must be 0 (monday) to 6 (sunday)")
		return
	}

	resp, err := h.service.GetBaseline(ctx, userID, routeID, weekday)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "baseline computed", resp)
}

// /baseline/volatility?weekday=N
func (h *Handler) GetVolatility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	weekday, ok := parseWeekdayParam(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "weekday must be 0 (monday) to 6 (sunday)")
		return
	}

	slots, err := h.service.GetVolatility(ctx, weekday)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "volatility computed", slots)
}

// /providers/usage?date=2026-08-28  (defaults to today, UTC)
func (h *Handler) GetProviderUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	day := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	usage, err := h.service.GetProviderUsage(ctx, day)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "provider usage", usage)
}

// parseWeekdayParam reads the Monday-first index the API exposes and
// converts it to time.Weekday (Sunday-first).
func parseWeekdayParam(r *http.Request) (time.Weekday, bool) {
	raw := r.URL.Query().Get("weekday")
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > 6 {
		return 0, false
	}
	return time.Weekday((n + 1) % 7), true
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/volatility", h.GetVolatility)
	return r
}
