package tripletest

import (
	"context"
	"errors"
	"sync"
	"time"

	"routepulse/internals/modules/provider"
	"routepulse/pkg/apperror"
	"routepulse/pkg/clock"
	"routepulse/pkg/rabbitmq"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, routingKey, eventType string, payload any) error
}

// Coordinator runs comparison sessions: N shots fired at fixed offsets,
// each in its own goroutine with its own timeout. One shot failing or
// timing out never touches its siblings.
type Coordinator struct {
	repo        *Repository
	providers   *provider.Registry
	publisher   EventPublisher
	clock       clock.Clock
	waitUntil   func(ctx context.Context, t time.Time) error
	spawn       func(fn func())
	shotTimeout time.Duration
	logger      *zerolog.Logger
}

func NewCoordinator(
	repo *Repository,
	providers *provider.Registry,
	publisher EventPublisher,
	clk clock.Clock,
	shotTimeout time.Duration,
	logger *zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		repo:        repo,
		providers:   providers,
		publisher:   publisher,
		clock:       clk,
		waitUntil:   sleepUntil,
		spawn:       func(fn func()) { go fn() },
		shotTimeout: shotTimeout,
		logger:      logger,
	}
}

func sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Start persists the session, then hands the shots to a detached run.
// Shots live for shot_count * shot_spacing, well past any request
// deadline, so the caller gets the pending session back and polls the
// read endpoint for results.
func (c *Coordinator) Start(ctx context.Context, cmd RunCmd) (Session, error) {
	const op string = "service.tripletest.start"

	if len(cmd.OffsetsSec) == 0 {
		return Session{}, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: "at least one shot offset is required",
		}
	}

	// resolve the provider up front so an unknown name fails before
	// any row exists
	if _, err := c.providers.Get(cmd.Provider); err != nil {
		return Session{}, err
	}

	sess := Session{
		ID:          uuid.New(),
		UserID:      cmd.UserID,
		Origin:      cmd.Origin,
		Destination: cmd.Destination,
		Provider:    cmd.Provider,
		ScheduledAt: cmd.ScheduledAt,
		CreatedAt:   c.clock.Now(),
	}
	for i, offset := range cmd.OffsetsSec {
		sess.Shots = append(sess.Shots, Shot{
			ID:        uuid.New(),
			SessionID: sess.ID,
			ShotIndex: i,
			OffsetSec: offset,
		})
	}

	if err := c.repo.CreateSession(ctx, sess); err != nil {
		return Session{}, err
	}

	// the run mutates its shots, so the caller gets its own copy
	out := sess
	out.Shots = append([]Shot(nil), sess.Shots...)

	runCtx := context.WithoutCancel(ctx)
	c.spawn(func() { c.run(runCtx, cmd, sess) })

	return out, nil
}

// run fires every shot, waits for all of them and finalizes the
// aggregates.
func (c *Coordinator) run(ctx context.Context, cmd RunCmd, sess Session) {
	var wg sync.WaitGroup
	for i := range sess.Shots {
		wg.Add(1)
		go func(shot *Shot) {
			defer wg.Done()
			c.fireShot(ctx, cmd, shot)
		}(&sess.Shots[i])
	}
	wg.Wait()

	sess.IdealShotIndex, sess.AvgDurationSec, sess.AvgDistanceM = Finalize(sess.Shots)
	if err := c.repo.FinalizeSession(ctx, sess); err != nil {
		c.logger.Error().Err(err).
			Str("session_id", sess.ID.String()).
			Msg("failed to finalize triple test session")
		return
	}

	c.publishCompleted(ctx, sess)
}

func (c *Coordinator) fireShot(ctx context.Context, cmd RunCmd, shot *Shot) {
	fireAt := cmd.ScheduledAt.Add(time.Duration(shot.OffsetSec) * time.Second)
	if err := c.waitUntil(ctx, fireAt); err != nil {
		shot.ErrorCode = provider.CodeUnknown
		c.saveShot(ctx, shot)
		return
	}

	firedAt := c.clock.Now()
	shot.FiredAt = &firedAt

	fetcher, err := c.providers.Get(cmd.Provider)
	if err != nil {
		shot.ErrorCode = provider.CodeUnknown
		c.saveShot(ctx, shot)
		return
	}

	shotCtx, cancel := context.WithTimeout(ctx, c.shotTimeout)
	res, err := fetcher.Fetch(shotCtx, cmd.Origin, cmd.Destination)
	cancel()
	if err != nil {
		var pf *provider.Failure
		shot.ErrorCode = provider.CodeUnknown
		if errors.As(err, &pf) {
			shot.ErrorCode = pf.Code
		}
		c.logger.Warn().Err(err).
			Str("session_id", shot.SessionID.String()).
			Int("shot_index", shot.ShotIndex).
			Msg("triple test shot failed")
		c.saveShot(ctx, shot)
		return
	}

	shot.Success = true
	shot.DurationSec = &res.DurationSec
	shot.DistanceM = &res.DistanceM
	c.saveShot(ctx, shot)
}

func (c *Coordinator) saveShot(ctx context.Context, shot *Shot) {
	if err := c.repo.SaveShotResult(ctx, *shot); err != nil {
		c.logger.Error().Err(err).
			Str("session_id", shot.SessionID.String()).
			Int("shot_index", shot.ShotIndex).
			Msg("failed to persist shot result")
	}
}

// Finalize derives the session aggregates from resolved shots: the
// ideal shot holds the minimum duration among successes, ties going to
// the lowest index; averages cover successes only. Zero successes
// leaves everything nil.
func Finalize(shots []Shot) (idealIndex *int, avgDuration, avgDistance *float64) {
	var (
		sumDur, sumDist float64
		n               int
		bestIdx         int
		bestDur         int32
	)

	for _, s := range shots {
		if !s.Success || s.DurationSec == nil {
			continue
		}
		d := *s.DurationSec
		if n == 0 || d < bestDur {
			bestDur = d
			bestIdx = s.ShotIndex
		}
		sumDur += float64(d)
		if s.DistanceM != nil {
			sumDist += float64(*s.DistanceM)
		}
		n++
	}
	if n == 0 {
		return nil, nil, nil
	}

	avgDur := sumDur / float64(n)
	avgDist := sumDist / float64(n)
	return &bestIdx, &avgDur, &avgDist
}

func (c *Coordinator) publishCompleted(ctx context.Context, sess Session) {
	if c.publisher == nil {
		return
	}

	var ideal *int32
	if sess.IdealShotIndex != nil {
		v := int32(*sess.IdealShotIndex)
		ideal = &v
	}
	successes := 0
	for _, s := range sess.Shots {
		if s.Success {
			successes++
		}
	}

	err := c.publisher.PublishEvent(ctx, "tripletest.completed", "tripletest.completed", rabbitmq.TripleTestCompletedEvent{
		SessionID:      sess.ID,
		Provider:       sess.Provider,
		IdealShotIndex: ideal,
		SuccessCount:   successes,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("session_id", sess.ID.String()).Msg("failed to publish triple test event")
	}
}

func (c *Coordinator) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (Session, error) {
	return c.repo.GetSession(ctx, userID, sessionID)
}
