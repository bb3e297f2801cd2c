package session

import (
	"context"
	"routepulse/internals/modules/route"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	repo   *Repository
	logger *zerolog.Logger
}

func NewService(repo *Repository, logger *zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetOrCreate lazily materializes the day's session for a route. Safe
// to call concurrently for the same key; everyone observes one row.
func (s *Service) GetOrCreate(ctx context.Context, routeID uuid.UUID, date time.Time, holidayExcluded bool) (MonitoringSession, error) {
	return s.repo.GetOrCreate(ctx, routeID, date, holidayExcluded)
}

func (s *Service) Get(ctx context.Context, routeID uuid.UUID, date time.Time) (MonitoringSession, error) {
	return s.repo.Get(ctx, routeID, date)
}

func (s *Service) ListRecords(ctx context.Context, sessionID uuid.UUID, includeDeleted bool) ([]PollRecord, error) {
	return s.repo.ListRecords(ctx, sessionID, includeDeleted)
}

// WindowsElapsed reports whether every window covering the route has
// ended at nowLocal, or the calendar date rolled past the session date.
func WindowsElapsed(sess MonitoringSession, windows []route.MonitoringWindow, nowLocal time.Time) bool {
	sy, sm, sd := sess.Date.Date()
	ny, nm, nd := nowLocal.Date()
	if ny > sy || (ny == sy && (nm > sm || (nm == sm && nd > sd))) {
		return true
	}

	tod := route.MinuteOfDay(nowLocal)
	for _, w := range windows {
		if !w.Active {
			continue
		}
		if tod < w.EndMinute {
			return false
		}
	}
	return true
}

// CloseIfWindowElapsed completes the session when its day is over.
// Idempotent; a completed session stays completed.
func (s *Service) CloseIfWindowElapsed(ctx context.Context, sess MonitoringSession, windows []route.MonitoringWindow, nowLocal time.Time) (bool, error) {
	if sess.State == StateCompleted {
		return false, nil
	}
	if !WindowsElapsed(sess, windows, nowLocal) {
		return false, nil
	}

	if err := s.repo.Close(ctx, sess.ID); err != nil {
		return false, err
	}
	s.logger.Debug().
		Str("session_id", sess.ID.String()).
		Str("route_id", sess.RouteID.String()).
		Msg("monitoring session completed")
	return true, nil
}
