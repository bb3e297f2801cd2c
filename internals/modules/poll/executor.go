package poll

import (
	"context"
	"time"

	"routepulse/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ScheduleStore is the slice of the redis client the executor needs to
// acknowledge jobs and plan the next run.
type ScheduleStore interface {
	Schedule(ctx context.Context, routeID string, nextRun time.Time) error
	AckJob(ctx context.Context, routeID string) error
	IncrementRetry(ctx context.Context, routeID uuid.UUID) (int64, error)
	ClearRetry(ctx context.Context, routeID uuid.UUID) error
}

// Executor drains the job channel and runs one poll per job. Every
// terminal outcome acks the inflight entry and plants the next run, so
// a route never falls out of the schedule while it stays active.
type Executor struct {
	ctx          context.Context
	workerCount  int
	jobChan      chan JobPayload
	pollSvc      *Service
	store        ScheduleStore
	retryBudget  int64
	retryBackoff time.Duration
	logger       *zerolog.Logger
}

func NewExecutor(
	ctx context.Context,
	workerCount int,
	jobChan chan JobPayload,
	pollSvc *Service,
	store ScheduleStore,
	retryBudget int64,
	logger *zerolog.Logger,
) *Executor {

	return &Executor{
		ctx:          ctx,
		workerCount:  workerCount,
		jobChan:      jobChan,
		pollSvc:      pollSvc,
		store:        store,
		retryBudget:  retryBudget,
		retryBackoff: 30 * time.Second,
		logger:       logger,
	}
}

func (ew *Executor) StartWorkers() {
	for range ew.workerCount {
		go ew.startWork()
	}
}

func (ew *Executor) startWork() {
	for {
		select {
		case <-ew.ctx.Done():
			return
		case job, ok := <-ew.jobChan:
			if !ok {
				return
			}
			ew.handleJob(job)
		}
	}
}

func (ew *Executor) handleJob(job JobPayload) {
	out, err := ew.pollSvc.ExecutePoll(ew.ctx, job.RouteID)
	if err == nil {
		_ = ew.store.ClearRetry(ew.ctx, job.RouteID)
		ew.logger.Debug().
			Str("route_id", job.RouteID.String()).
			Int32("duration_sec", out.Record.DurationSec).
			Msg("poll recorded")
		ew.finish(job.RouteID, out.Session.LastPollAt)
		return
	}

	switch {
	case apperror.IsKind(err, apperror.ProviderFailure):
		ew.handleProviderFailure(job.RouteID, err)

	case apperror.IsKind(err, apperror.QuotaExceeded):
		// nothing more today, come back at the UTC day boundary
		ew.logger.Info().Str("route_id", job.RouteID.String()).Msg("quota exhausted, deferring to next day")
		ew.ackAndSchedule(job.RouteID, nextUTCMidnight(time.Now()))

	case apperror.IsKind(err, apperror.WindowIneligible),
		apperror.IsKind(err, apperror.SessionClosed):
		if cerr := ew.pollSvc.CloseElapsedSession(ew.ctx, job.RouteID); cerr != nil {
			ew.logger.Error().Err(cerr).Str("route_id", job.RouteID.String()).Msg("failed to close elapsed session")
		}
		ew.finish(job.RouteID, nil)

	case apperror.IsKind(err, apperror.NotFound):
		// route deleted under us, drop it from the schedule
		_ = ew.store.AckJob(ew.ctx, job.RouteID.String())

	default:
		ew.logger.Error().Err(err).Str("route_id", job.RouteID.String()).Msg("poll execution failed")
		ew.ackAndSchedule(job.RouteID, time.Now().Add(ew.retryBackoff))
	}
}

func (ew *Executor) handleProviderFailure(routeID uuid.UUID, cause error) {
	attempts, err := ew.store.IncrementRetry(ew.ctx, routeID)
	if err != nil {
		ew.logger.Error().Err(err).Str("route_id", routeID.String()).Msg("failed to bump retry counter")
		attempts = ew.retryBudget + 1 // fail safe, stop retrying
	}

	if attempts <= ew.retryBudget {
		ew.logger.Warn().Err(cause).
			Str("route_id", routeID.String()).
			Int64("attempt", attempts).
			Msg("provider failure, retrying")
		ew.ackAndSchedule(routeID, time.Now().Add(ew.retryBackoff))
		return
	}

	ew.logger.Error().Err(cause).
		Str("route_id", routeID.String()).
		Msg("provider failure, retry budget spent")
	_ = ew.store.ClearRetry(ew.ctx, routeID)
	ew.finish(routeID, nil)
}

// finish acks the inflight entry and plants the regular next run.
func (ew *Executor) finish(routeID uuid.UUID, lastPollAt *time.Time) {
	next, ok := ew.pollSvc.NextRun(ew.ctx, routeID, lastPollAt)
	if !ok {
		// paused, deleted or windowless; leave it out of the schedule
		_ = ew.store.AckJob(ew.ctx, routeID.String())
		return
	}
	ew.ackAndSchedule(routeID, next)
}

func (ew *Executor) ackAndSchedule(routeID uuid.UUID, at time.Time) {
	id := routeID.String()
	if err := ew.store.Schedule(ew.ctx, id, at); err != nil {
		// the inflight entry stays, the reclaimer will resurface it
		ew.logger.Error().Err(err).Str("route_id", id).Msg("failed to reschedule route")
		return
	}
	_ = ew.store.AckJob(ew.ctx, id)
}

func nextUTCMidnight(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
