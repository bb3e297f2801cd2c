package route

import (
	"context"
	"routepulse/pkg/apperror"
	"routepulse/pkg/clock"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	repo   *Repository
	cache  Cache
	clock  clock.Clock
	logger *zerolog.Logger
}

func NewService(repo *Repository, cache Cache, clk clock.Clock, logger *zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		clock:  clk,
		logger: logger,
	}
}

func (s *Service) CreateRoute(ctx context.Context, cmd CreateRouteCmd) (Route, error) {
	const op string = "service.route.create_route"

	if cmd.Timezone != "" {
		if _, err := time.LoadLocation(cmd.Timezone); err != nil {
			return Route{}, &apperror.Error{
				Kind:    apperror.InvalidInput,
				Op:      op,
				Message: "unknown timezone",
			}
		}
	}

	rt, err := s.repo.Create(ctx, cmd)
	if err != nil {
		return Route{}, err
	}
	_ = s.cache.SetRoute(ctx, rt)

	return rt, nil
}

func (s *Service) GetRoute(ctx context.Context, userID, routeID uuid.UUID) (Route, error) {
	rt, exists := s.cache.GetRoute(ctx, routeID)
	if exists {
		if rt.UserID == userID {
			return rt, nil
		}
		return Route{}, &apperror.Error{
			Kind:    apperror.Forbidden,
			Op:      "service.route.get_route",
			Message: "route belongs to another user",
		}
	}

	rtDB, err := s.repo.Get(ctx, userID, routeID)
	if err != nil {
		return Route{}, err
	}
	_ = s.cache.SetRoute(ctx, rtDB)

	return rtDB, nil
}

// LoadRoute is the ownerless lookup used by the background poll path.
func (s *Service) LoadRoute(ctx context.Context, routeID uuid.UUID) (Route, error) {
	rt, exists := s.cache.GetRoute(ctx, routeID)
	if exists {
		return rt, nil
	}

	rtDB, err := s.repo.GetByID(ctx, routeID)
	if err != nil {
		return Route{}, err
	}
	_ = s.cache.SetRoute(ctx, rtDB)

	return rtDB, nil
}

func (s *Service) ListRoutes(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]Route, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) ListWindows(ctx context.Context, routeID uuid.UUID) ([]MonitoringWindow, error) {
	return s.repo.ListWindows(ctx, routeID)
}

// StartWindow attaches an active monitoring window to a route and seeds
// the schedule set so polling begins at the window's next occurrence.
func (s *Service) StartWindow(ctx context.Context, userID uuid.UUID, cmd CreateWindowCmd) (MonitoringWindow, error) {
	const op string = "service.route.start_window"

	if cmd.StartMinute < 0 || cmd.EndMinute > 24*60 || cmd.StartMinute >= cmd.EndMinute {
		return MonitoringWindow{}, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: "window start must be before end within the same day",
		}
	}
	if cmd.Weekdays.IsEmpty() {
		return MonitoringWindow{}, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: "weekday mask is empty",
		}
	}

	rt, err := s.GetRoute(ctx, userID, cmd.RouteID)
	if err != nil {
		return MonitoringWindow{}, err
	}

	w, err := s.repo.CreateWindow(ctx, cmd)
	if err != nil {
		return MonitoringWindow{}, err
	}

	nowLocal := s.clock.Now().In(rt.Location())
	firstRun := NextWindowOpen(w, nowLocal)
	if err := s.cache.Schedule(ctx, rt.ID.String(), firstRun); err != nil {
		s.logger.Error().Err(err).Str("route_id", rt.ID.String()).Msg("failed to seed poll schedule")
	}

	return w, nil
}

// SetWindowActive flips a window on or off without deleting its
// definition. Deactivating the last window simply stops polling once
// the schedule entry fires and finds nothing eligible.
func (s *Service) SetWindowActive(ctx context.Context, userID uuid.UUID, cmd UpdateWindowCmd) error {
	rt, err := s.GetRoute(ctx, userID, cmd.RouteID)
	if err != nil {
		return err
	}
	if err := s.repo.SetWindowActive(ctx, cmd.RouteID, cmd.WindowID, cmd.Active); err != nil {
		return err
	}

	if cmd.Active {
		windows, err := s.repo.ListWindows(ctx, cmd.RouteID)
		if err != nil {
			return err
		}
		nowLocal := s.clock.Now().In(rt.Location())
		for _, w := range windows {
			if w.ID != cmd.WindowID {
				continue
			}
			if err := s.cache.Schedule(ctx, rt.ID.String(), NextWindowOpen(w, nowLocal)); err != nil {
				s.logger.Error().Err(err).Str("route_id", rt.ID.String()).Msg("failed to reschedule reactivated window")
			}
		}
	}
	return nil
}

// SeedSchedules registers a next run for every active route, so a
// fresh schedule set starts polling without waiting for writes.
// Existing entries win over seeded ones.
func (s *Service) SeedSchedules(ctx context.Context) (int, error) {
	routes, err := s.repo.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	items := make(map[string]time.Time, len(routes))
	for _, rt := range routes {
		windows, err := s.repo.ListWindows(ctx, rt.ID)
		if err != nil {
			return 0, err
		}
		nowLocal := s.clock.Now().In(rt.Location())

		var first time.Time
		found := false
		for _, w := range windows {
			if !w.Active {
				continue
			}
			open := NextWindowOpen(w, nowLocal)
			if !found || open.Before(first) {
				first = open
				found = true
			}
		}
		if found {
			items[rt.ID.String()] = first
		}
	}

	if err := s.cache.ScheduleBatch(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// UpdateRouteStatus pauses or resumes a route. Pausing clears every
// cached artifact so the background loops stop ticking it.
func (s *Service) UpdateRouteStatus(ctx context.Context, userID, routeID uuid.UUID, status Status) error {
	const op string = "service.route.update_route_status"

	rt, err := s.GetRoute(ctx, userID, routeID)
	if err != nil {
		return err
	}
	if rt.Status == status {
		return &apperror.Error{
			Kind:    apperror.Conflict,
			Op:      op,
			Message: "route already in requested state",
		}
	}

	if err := s.repo.UpdateStatus(ctx, userID, routeID, status); err != nil {
		return err
	}
	_ = s.cache.DelRoute(ctx, routeID)

	switch status {
	case StatusActive:
		if err := s.cache.Schedule(ctx, routeID.String(), s.clock.Now()); err != nil {
			s.logger.Error().Err(err).Str("route_id", routeID.String()).Msg("failed to reschedule resumed route")
		}
	default:
		_ = s.cache.DelSchedule(ctx, routeID.String())
	}

	return nil
}

// NextWindowOpen returns the first instant at or after nowLocal at which
// the window's time range opens on an enabled weekday. Holidays are not
// considered here; the poll path re-checks eligibility at fire time.
func NextWindowOpen(w MonitoringWindow, nowLocal time.Time) time.Time {
	day := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, nowLocal.Location())

	for i := 0; i < 8; i++ {
		candidate := day.AddDate(0, 0, i)
		if !w.Weekdays.Contains(candidate.Weekday()) {
			continue
		}
		open := candidate.Add(time.Duration(w.StartMinute) * time.Minute)
		if i == 0 && MinuteOfDay(nowLocal) >= w.EndMinute {
			continue // today's range already elapsed
		}
		if open.Before(nowLocal) {
			open = nowLocal
		}
		return open
	}
	return nowLocal // unreachable for a non-empty mask
}
