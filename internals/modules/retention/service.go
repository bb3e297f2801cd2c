package retention

import (
	"context"
	"time"

	"routepulse/pkg/clock"

	"github.com/rs/zerolog"
)

type Service struct {
	repo      *Repository
	clock     clock.Clock
	maxAge    time.Duration
	batchSize int
	logger    *zerolog.Logger
}

func NewService(repo *Repository, clk clock.Clock, maxAge time.Duration, batchSize int, logger *zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		clock:     clk,
		maxAge:    maxAge,
		batchSize: batchSize,
		logger:    logger,
	}
}

// PruneOlderThan loops PruneBatch until a batch comes back empty, so
// live poll writes only ever contend with one small statement at a
// time. Rerunning with the same cutoff prunes zero rows.
func (s *Service) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	for {
		n, err := s.repo.PruneBatch(ctx, cutoff, s.batchSize)
		if err != nil {
			return total, err
		}
		total += n
		if n == 0 || int(n) < s.batchSize {
			break
		}
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}
	}
	if total > 0 {
		s.logger.Info().Int64("pruned", total).Time("cutoff", cutoff).Msg("retention prune finished")
	}
	return total, nil
}

// Prune applies the configured retention age to the current instant.
func (s *Service) Prune(ctx context.Context) (int64, error) {
	return s.PruneOlderThan(ctx, s.clock.Now().Add(-s.maxAge))
}
