package poll

import (
	"context"
	"errors"
	"routepulse/internals/modules/provider"
	"routepulse/internals/modules/quota"
	"routepulse/internals/modules/route"
	"routepulse/internals/modules/session"
	"routepulse/pkg/apperror"
	"routepulse/pkg/clock"
	"routepulse/pkg/db"
	"routepulse/pkg/rabbitmq"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type RouteService interface {
	LoadRoute(ctx context.Context, routeID uuid.UUID) (route.Route, error)
	GetRoute(ctx context.Context, userID, routeID uuid.UUID) (route.Route, error)
	ListWindows(ctx context.Context, routeID uuid.UUID) ([]route.MonitoringWindow, error)
}

type HolidayCalendar interface {
	IsHoliday(date time.Time) bool
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, routingKey, eventType string, payload any) error
}

type Service struct {
	dbPool          db.Querier
	routeSvc        RouteService
	sessionSvc      *session.Service
	sessionRepo     *session.Repository
	quotaSvc        *quota.Service
	providers       *provider.Registry
	holidays        HolidayCalendar
	publisher       EventPublisher
	clock           clock.Clock
	pollInterval    time.Duration
	providerTimeout time.Duration
	logger          *zerolog.Logger
}

func NewService(
	dbPool db.Querier,
	routeSvc RouteService,
	sessionSvc *session.Service,
	sessionRepo *session.Repository,
	quotaSvc *quota.Service,
	providers *provider.Registry,
	holidays HolidayCalendar,
	publisher EventPublisher,
	clk clock.Clock,
	pollInterval time.Duration,
	providerTimeout time.Duration,
	logger *zerolog.Logger,
) *Service {
	return &Service{
		dbPool:          dbPool,
		routeSvc:        routeSvc,
		sessionSvc:      sessionSvc,
		sessionRepo:     sessionRepo,
		quotaSvc:        quotaSvc,
		providers:       providers,
		holidays:        holidays,
		publisher:       publisher,
		clock:           clk,
		pollInterval:    pollInterval,
		providerTimeout: providerTimeout,
		logger:          logger,
	}
}

// SessionDate normalizes a local instant to its calendar date, stored
// timezone free so the (route, date) uniqueness key is stable.
func SessionDate(nowLocal time.Time) time.Time {
	return time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, time.UTC)
}

// ExecutePoll runs one poll attempt for a route end to end:
// eligibility, session, quota pre-check, provider fetch, then an atomic
// commit of quota reservation + session advance + poll record. Quota is
// reserved only after a successful provider response, so a failed fetch
// costs the user nothing.
func (s *Service) ExecutePoll(ctx context.Context, routeID uuid.UUID) (Outcome, error) {
	const op string = "service.poll.execute_poll"

	rt, err := s.routeSvc.LoadRoute(ctx, routeID)
	if err != nil {
		return Outcome{}, err
	}
	if rt.Status != route.StatusActive {
		return Outcome{}, &apperror.Error{
			Kind:    apperror.WindowIneligible,
			Op:      op,
			Message: "route is not active",
		}
	}

	nowLocal := s.clock.Now().In(rt.Location())
	isHoliday := s.holidays.IsHoliday(nowLocal)

	windows, err := s.routeSvc.ListWindows(ctx, routeID)
	if err != nil {
		return Outcome{}, err
	}

	eligible := false
	holidayExcluded := false
	for _, w := range windows {
		if route.IsEligible(w, nowLocal, isHoliday) {
			eligible = true
			break
		}
		if isHoliday && w.Active && w.ExcludeHolidays && w.Weekdays.Contains(nowLocal.Weekday()) {
			holidayExcluded = true
		}
	}
	if !eligible {
		return Outcome{}, &apperror.Error{
			Kind:    apperror.WindowIneligible,
			Op:      op,
			Message: "no monitoring window is open",
		}
	}

	sess, err := s.sessionSvc.GetOrCreate(ctx, routeID, SessionDate(nowLocal), holidayExcluded)
	if err != nil {
		return Outcome{}, err
	}
	if sess.State == session.StateCompleted {
		return Outcome{}, &apperror.Error{
			Kind:    apperror.SessionClosed,
			Op:      op,
			Message: "monitoring session already completed",
		}
	}

	// cheap pre-check so an exhausted user never triggers a provider
	// call; the reservation inside the commit stays the authority
	now := s.clock.Now()
	ok, err := s.quotaSvc.HasHeadroom(ctx, rt.UserID, now)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return Outcome{}, &apperror.Error{
			Kind:    apperror.QuotaExceeded,
			Op:      op,
			Message: "daily poll quota exhausted",
		}
	}

	fetcher, err := s.providers.Get(rt.Provider)
	if err != nil {
		return Outcome{}, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	res, err := fetcher.Fetch(fetchCtx, rt.Origin, rt.Destination)
	cancel()
	if err != nil {
		var pf *provider.Failure
		code := provider.CodeUnknown
		if errors.As(err, &pf) {
			code = pf.Code
		}
		return Outcome{}, &apperror.Error{
			Kind:    apperror.ProviderFailure,
			Op:      op,
			Message: code,
			Err:     err,
		}
	}

	rec, err := s.commitPoll(ctx, session.RecordPollCmd{
		SessionID:   sess.ID,
		UserID:      rt.UserID,
		PolledAt:    now,
		DurationSec: res.DurationSec,
		DistanceM:   res.DistanceM,
		Provider:    rt.Provider,
		Rerouted:    res.Rerouted,
		RawPayload:  res.Raw,
		Units:       1,
	})
	if err != nil {
		return Outcome{}, err
	}

	sess.PollCount++
	sess.QuotaConsumed++
	sess.State = session.StateActive
	if sess.FirstPollAt == nil {
		sess.FirstPollAt = &now
	}
	sess.LastPollAt = &now

	s.publishPollRecorded(ctx, rt, rec)

	return Outcome{Session: sess, Record: rec}, nil
}

// commitPoll binds the quota reservation and the poll record into one
// transaction: either both persist or neither does.
func (s *Service) commitPoll(ctx context.Context, cmd session.RecordPollCmd) (session.PollRecord, error) {
	const op string = "service.poll.commit_poll"

	tx, err := s.dbPool.Begin(ctx)
	if err != nil {
		return session.PollRecord{}, apperror.New(apperror.DatabaseErr, op, err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.quotaSvc.TryConsume(ctx, tx, cmd.UserID, cmd.PolledAt, cmd.Units); err != nil {
		return session.PollRecord{}, err
	}

	rec, err := s.sessionRepo.WithTx(tx).ApplyPoll(ctx, cmd)
	if err != nil {
		return session.PollRecord{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return session.PollRecord{}, apperror.New(apperror.DatabaseErr, op, err)
	}
	return rec, nil
}

func (s *Service) publishPollRecorded(ctx context.Context, rt route.Route, rec session.PollRecord) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishEvent(ctx, "poll.recorded", "poll.recorded", rabbitmq.PollRecordedEvent{
		RouteID:     rt.ID,
		SessionID:   rec.SessionID,
		UserID:      rec.UserID,
		Provider:    rec.Provider,
		PolledAt:    rec.PolledAt,
		DurationSec: rec.DurationSec,
		DistanceM:   rec.DistanceM,
		Rerouted:    rec.Rerouted,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("route_id", rt.ID.String()).Msg("failed to publish poll event")
	}
}

// CloseElapsedSession completes the day's session once every window has
// ended; returns the computed next run for the schedule set.
func (s *Service) CloseElapsedSession(ctx context.Context, routeID uuid.UUID) error {
	rt, err := s.routeSvc.LoadRoute(ctx, routeID)
	if err != nil {
		return err
	}
	nowLocal := s.clock.Now().In(rt.Location())

	sess, err := s.sessionSvc.Get(ctx, routeID, SessionDate(nowLocal))
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			return nil // nothing ran today
		}
		return err
	}

	windows, err := s.routeSvc.ListWindows(ctx, routeID)
	if err != nil {
		return err
	}

	_, err = s.sessionSvc.CloseIfWindowElapsed(ctx, sess, windows, nowLocal)
	return err
}

// NextRun computes when the schedule set should fire this route again.
func (s *Service) NextRun(ctx context.Context, routeID uuid.UUID, lastPollAt *time.Time) (time.Time, bool) {
	rt, err := s.routeSvc.LoadRoute(ctx, routeID)
	if err != nil || rt.Status != route.StatusActive {
		return time.Time{}, false
	}
	windows, err := s.routeSvc.ListWindows(ctx, routeID)
	if err != nil {
		return time.Time{}, false
	}

	nowLocal := s.clock.Now().In(rt.Location())
	return nextRunAcrossWindows(windows, lastPollAt, nowLocal, s.pollInterval)
}
