package tripletest

import (
	"encoding/json"
	"net/http"
	"time"

	middle "routepulse/internals/middleware"
	"routepulse/pkg/apperror"
	"routepulse/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type RunRequest struct {
	Origin      string `json:"origin" validate:"required"`
	Destination string `json:"destination" validate:"required"`
	Provider    string `json:"provider" validate:"required"`
	ScheduledAt string `json:"scheduled_at"`
	OffsetsSec  []int  `json:"offsets_sec"`
}

type ShotResponse struct {
	ShotIndex   int    `json:"shot_index"`
	OffsetSec   int    `json:"offset_sec"`
	FiredAt     string `json:"fired_at,omitempty"`
	Success     bool   `json:"success"`
	DurationSec *int32 `json:"duration_sec"`
	DistanceM   *int32 `json:"distance_m"`
	ErrorCode   string `json:"error_code,omitempty"`
}

type SessionResponse struct {
	ID             string         `json:"id"`
	Origin         string         `json:"origin"`
	Destination    string         `json:"destination"`
	Provider       string         `json:"provider"`
	ScheduledAt    string         `json:"scheduled_at"`
	IdealShotIndex *int           `json:"ideal_shot_index"`
	AvgDurationSec *float64       `json:"avg_duration_sec"`
	AvgDistanceM   *float64       `json:"avg_distance_m"`
	Shots          []ShotResponse `json:"shots"`
}

type Handler struct {
	coordinator *Coordinator
	validator   *validator.Validate
	shotCount   int
	shotSpacing time.Duration
}

func NewHandler(coordinator *Coordinator, validator *validator.Validate, shotCount int, shotSpacing time.Duration) *Handler {
	return &Handler{
		coordinator: coordinator,
		validator:   validator,
		shotCount:   shotCount,
		shotSpacing: shotSpacing,
	}
}

// StartTripleTest persists the session and returns it pending; the
// shots fire in the background at their offsets and the caller reads
// the finished session from the GET endpoint.
func (h *Handler) StartTripleTest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	userID, ok := middle.UserIDFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "")
		return
	}

	scheduledAt := time.Now()
	if req.ScheduledAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "scheduled_at must be RFC3339")
			return
		}
		scheduledAt = parsed
	}

	offsets := req.OffsetsSec
	if len(offsets) == 0 {
		spacing := int(h.shotSpacing.Seconds())
		for i := 0; i < h.shotCount; i++ {
			offsets = append(offsets, i*spacing)
		}
	}

	sess, err := h.coordinator.Start(ctx, RunCmd{
		UserID:      userID,
		Origin:      req.Origin,
		Destination: req.Destination,
		Provider:    req.Provider,
		ScheduledAt: scheduledAt,
		OffsetsSec:  offsets,
	})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusAccepted, reqID, "triple test started", toSessionResponse(sess))
}

func (h *Handler) GetTripleTest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	userID, ok := middle.UserIDFromContext(ctx)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "")
		return
	}

	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid session id")
		return
	}

	sess, err := h.coordinator.GetSession(ctx, userID, sessionID)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "triple test", toSessionResponse(sess))
}

func toSessionResponse(sess Session) SessionResponse {
	resp := SessionResponse{
		ID:             sess.ID.String(),
		Origin:         sess.Origin,
		Destination:    sess.Destination,
		Provider:       sess.Provider,
		ScheduledAt:    sess.ScheduledAt.UTC().Format(time.RFC3339),
		IdealShotIndex: sess.IdealShotIndex,
		AvgDurationSec: sess.AvgDurationSec,
		AvgDistanceM:   sess.AvgDistanceM,
		Shots:          make([]ShotResponse, 0, len(sess.Shots)),
	}
	for _, s := range sess.Shots {
		sr := ShotResponse{
			ShotIndex:   s.ShotIndex,
			OffsetSec:   s.OffsetSec,
			Success:     s.Success,
			DurationSec: s.DurationSec,
			DistanceM:   s.DistanceM,
			ErrorCode:   s.ErrorCode,
		}
		if s.FiredAt != nil {
			sr.FiredAt = s.FiredAt.UTC().Format(time.RFC3339)
		}
		resp.Shots = append(resp.Shots, sr)
	}
	return resp
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.StartTripleTest)
	r.Get("/{sessionID}", h.GetTripleTest)
	return r
}
