package route

import (
	"encoding/json"
	"net/http"
	middle "routepulse/internals/middleware"
	"routepulse/pkg/apperror"
	"routepulse/pkg/utils"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service, validator *validator.Validate) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
	}
}

func (h *Handler) CreateRoute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	userID, ok := middle.UserIDFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	var req CreateRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}

	rt, err := h.service.CreateRoute(ctx, CreateRouteCmd{
		UserID:      userID,
		Origin:      req.Origin,
		Destination: req.Destination,
		Provider:    req.Provider,
		Timezone:    req.Timezone,
	})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, reqID, "route created", toRouteResponse(rt))
}

// /routes?offset=0&limit=20
func (h *Handler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	userID, ok := middle.UserIDFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	limit := parseQueryInt(r, "limit", 20)
	offset := parseQueryInt(r, "offset", 0)

	routes, err := h.service.ListRoutes(ctx, userID, limit, offset)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	list := make([]RouteResponse, 0, len(routes))
	for i := range routes {
		list = append(list, toRouteResponse(routes[i]))
	}

	resp := ListRoutesResponse{
		UserID: userID.String(),
		Limit:  limit,
		Offset: offset,
		Routes: list,
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "", resp)
}

func (h *Handler) UpdateRouteStatus(w http.ResponseWriter, r *http.Request) {
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

	var req UpdateRouteStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}

	if err := h.service.UpdateRouteStatus(ctx, userID, routeID, Status(req.Status)); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "route status updated", nil)
}

func (h *Handler) StartWindow(w http.ResponseWriter, r *http.Request) {
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

	var req CreateWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}

	start, err := ParseClockMinute(req.Start)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}
	end, err := ParseClockMinute(req.End)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}
	weekdays, err := ParseWeekdays(req.Weekdays)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	win, err := h.service.StartWindow(ctx, userID, CreateWindowCmd{
		RouteID:         routeID,
		StartMinute:     start,
		EndMinute:       end,
		Weekdays:        weekdays,
		ExcludeHolidays: req.ExcludeHolidays,
	})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, reqID, "window started", toWindowResponse(win))
}

func (h *Handler) UpdateWindow(w http.ResponseWriter, r *http.Request) {
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
	windowID, err := uuid.Parse(chi.URLParam(r, "windowID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid window id")
		return
	}

	var req UpdateWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}

	if err := h.service.SetWindowActive(ctx, userID, UpdateWindowCmd{
		RouteID:  routeID,
		WindowID: windowID,
		Active:   *req.Active,
	}); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}
	utils.WriteJSON[any](w, http.StatusOK, reqID, "window updated", nil)
}

func (h *Handler) ListWindows(w http.ResponseWriter, r *http.Request) {
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

	if _, err := h.service.GetRoute(ctx, userID, routeID); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	windows, err := h.service.ListWindows(ctx, routeID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	list := make([]WindowResponse, 0, len(windows))
	for i := range windows {
		list = append(list, toWindowResponse(windows[i]))
	}
	utils.WriteJSON(w, http.StatusOK, reqID, "", list)
}

func toRouteResponse(rt Route) RouteResponse {
	return RouteResponse{
		ID:          rt.ID.String(),
		Origin:      rt.Origin,
		Destination: rt.Destination,
		Provider:    rt.Provider,
		Timezone:    rt.Timezone,
		Status:      string(rt.Status),
	}
}

func toWindowResponse(w MonitoringWindow) WindowResponse {
	return WindowResponse{
		ID:              w.ID.String(),
		RouteID:         w.RouteID.String(),
		Start:           FormatClockMinute(w.StartMinute),
		End:             FormatClockMinute(w.EndMinute),
		Weekdays:        w.Weekdays.String(),
		ExcludeHolidays: w.ExcludeHolidays,
		Active:          w.Active,
	}
}

func parseQueryInt(r *http.Request, key string, fallback int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v < 0 {
		return fallback
	}
	return int32(v)
}
