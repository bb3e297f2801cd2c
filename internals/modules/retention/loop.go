package retention

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Loop runs the pruner on its own cadence, independent of polling.
type Loop struct {
	ctx      context.Context
	service  *Service
	interval time.Duration
	logger   *zerolog.Logger
}

func NewLoop(ctx context.Context, service *Service, interval time.Duration, logger *zerolog.Logger) *Loop {
	return &Loop{
		ctx:      ctx,
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

func (l *Loop) Run() {
	if l.interval <= 0 {
		panic("prune loop interval must be > 0")
	}
	l.logger.Info().Msg("Pruner started")
	ticker := time.NewTicker(l.interval)
	defer func() {
		ticker.Stop()
		l.logger.Info().Msg("Pruner stopped")
	}()

	for {
		select {
		case <-l.ctx.Done():
			return

		case <-ticker.C:
			if _, err := l.service.Prune(l.ctx); err != nil {
				l.logger.Error().Err(err).Msg("retention prune failed")
			}
		}
	}
}
