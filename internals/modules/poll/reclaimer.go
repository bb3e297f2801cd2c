package poll

import (
	"context"
	"time"

	"routepulse/config"
	"routepulse/pkg/redisstore"

	"github.com/rs/zerolog"
)

// Reclaimer moves routes whose visibility timeout expired from inflight
// back to the schedule set, covering worker crashes and lost acks.
type Reclaimer struct {
	ctx      context.Context
	interval time.Duration
	limit    int
	redisSvc *redisstore.Client
	logger   *zerolog.Logger
}

func NewReclaimer(
	ctx context.Context,
	reclaimerConfig *config.ReclaimerConfig,
	redisSvc *redisstore.Client,
	logger *zerolog.Logger,
) *Reclaimer {

	return &Reclaimer{
		ctx:      ctx,
		redisSvc: redisSvc,
		interval: reclaimerConfig.Interval,
		limit:    reclaimerConfig.Limit,
		logger:   logger,
	}
}

func (r *Reclaimer) Run() {
	if r.interval <= 0 {
		panic("reclaim loop interval must be > 0")
	}
	r.logger.Info().Msg("Reclaimer started")
	ticker := time.NewTicker(r.interval)
	defer func() {
		ticker.Stop()
		r.logger.Info().Msg("Reclaimer stopped")
	}()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			r.doWork()
		}
	}
}

func (r *Reclaimer) doWork() {
	count, err := r.redisSvc.ReclaimRoutes(r.ctx, reclaimRoutesScript, time.Now(), r.limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("error reclaiming routes from redis")
		return
	}
	if count > 0 {
		r.logger.Info().Msgf("Reclaimed %d routes", count)
	}
}
