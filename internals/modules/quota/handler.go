package quota

import (
	"net/http"
	middle "routepulse/internals/middleware"
	"routepulse/pkg/apperror"
	"routepulse/pkg/clock"
	"routepulse/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	service *Service
	clock   clock.Clock
}

func NewHandler(service *Service, clk clock.Clock) *Handler {
	return &Handler{
		service: service,
		clock:   clk,
	}
}

type StatusResponse struct {
	UsageDate string `json:"usage_date"`
	Used      int32  `json:"used"`
	Limit     int32  `json:"limit"`
	Remaining int32  `json:"remaining"`
}

func (h *Handler) GetQuotaStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	userID, ok := middle.UserIDFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	st, err := h.service.GetStatus(ctx, userID, h.clock.Now())
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "", StatusResponse{
		UsageDate: st.UsageDate.Format("2006-01-02"),
		Used:      st.Used,
		Limit:     st.Limit,
		Remaining: st.Remaining(),
	})
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetQuotaStatus)
	return r
}
