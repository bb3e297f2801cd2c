package baseline

import (
	"context"
	"time"

	"routepulse/internals/modules/route"
	"routepulse/pkg/clock"

	"github.com/google/uuid"
)

type RouteService interface {
	GetRoute(ctx context.Context, userID, routeID uuid.UUID) (route.Route, error)
}

type Service struct {
	repo        *Repository
	routeSvc    RouteService
	clock       clock.Clock
	minSessions int
	lookback    time.Duration
}

func NewService(repo *Repository, routeSvc RouteService, clk clock.Clock, minSessions int, lookback time.Duration) *Service {
	return &Service{
		repo:        repo,
		routeSvc:    routeSvc,
		clock:       clk,
		minSessions: minSessions,
		lookback:    lookback,
	}
}

// GetBaseline recomputes the route's weekday baseline from history.
// Nothing is cached or persisted, the slots are always derived fresh.
func (s *Service) GetBaseline(ctx context.Context, userID, routeID uuid.UUID, weekday time.Weekday) (Response, error) {
	rt, err := s.routeSvc.GetRoute(ctx, userID, routeID)
	if err != nil {
		return Response{}, err
	}

	samples, err := s.repo.ListRouteSamples(ctx, routeID)
	if err != nil {
		return Response{}, err
	}

	return ComputeBaseline(routeID, weekday, rt.Location(), samples, s.minSessions), nil
}

// GetVolatility is the cross-route rollup grouped by provider.
func (s *Service) GetVolatility(ctx context.Context, weekday time.Weekday) ([]VolatilitySlot, error) {
	since := s.clock.Now().Add(-s.lookback)
	samples, err := s.repo.ListGlobalSamples(ctx, since)
	if err != nil {
		return nil, err
	}
	return ComputeVolatility(weekday, samples), nil
}

func (s *Service) GetProviderUsage(ctx context.Context, day time.Time) ([]ProviderUsage, error) {
	return s.repo.ProviderUsage(ctx, day)
}
