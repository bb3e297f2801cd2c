package poll

import (
	"context"
	"time"

	"routepulse/config"
	"routepulse/pkg/redisstore"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Scheduler pops due routes from the redis schedule set and feeds the
// executor workers. The fetch script moves each popped route to the
// inflight set, so a crash between pop and execution is recoverable.
type Scheduler struct {
	ctx               context.Context
	jobChan           chan JobPayload
	redisSvc          *redisstore.Client
	interval          time.Duration
	batchSize         int
	visibilityTimeout time.Duration
	logger            *zerolog.Logger
}

func NewScheduler(
	ctx context.Context,
	schedulerConfig *config.SchedulerConfig,
	jobChan chan JobPayload,
	redisSvc *redisstore.Client,
	logger *zerolog.Logger,
) *Scheduler {

	return &Scheduler{
		ctx:               ctx,
		jobChan:           jobChan,
		redisSvc:          redisSvc,
		interval:          schedulerConfig.Interval,
		batchSize:         schedulerConfig.BatchSize,
		visibilityTimeout: schedulerConfig.VisibilityTimeout,
		logger:            logger,
	}
}

func (sc *Scheduler) Run() {
	if sc.interval <= 0 {
		panic("schedule loop interval must be > 0")
	}
	sc.logger.Info().Msg("Scheduler started")
	ticker := time.NewTicker(sc.interval)
	defer func() {
		ticker.Stop()
		sc.logger.Info().Msg("Scheduler stopped")
	}()

	for {
		select {
		case <-sc.ctx.Done():
			return

		case <-ticker.C:
			sc.doWork()
		}
	}
}

func (sc *Scheduler) doWork() {
	now := time.Now()

	ids, err := sc.redisSvc.FetchAndMoveToInflight(sc.ctx, fetchDueRoutesScript, now, sc.batchSize, sc.visibilityTimeout)
	if err != nil {
		// transient redis error, log and move on
		sc.logger.Error().Err(err).Msg("error fetching due routes from redis")
		return
	}

	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			// corrupted member, drop it so it cannot loop forever
			sc.logger.Warn().Str("member", raw).Msg("dropping unparseable schedule member")
			_ = sc.redisSvc.AckJob(sc.ctx, raw)
			continue
		}

		select {
		case sc.jobChan <- JobPayload{RouteID: id}:
			// handed to a worker
		case <-sc.ctx.Done():
			return
		}
	}
}
