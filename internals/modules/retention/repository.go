package retention

import (
	"context"
	"time"

	"routepulse/pkg/db"
	"routepulse/pkg/utils"

	"github.com/rs/zerolog"
)

type Repository struct {
	db     db.Querier
	logger *zerolog.Logger
}

func NewRepository(dbExecutor db.Querier, logger *zerolog.Logger) *Repository {
	return &Repository{
		db:     dbExecutor,
		logger: logger,
	}
}

// PruneBatch soft deletes one batch of aged records and scrubs their
// raw payloads. The deleted = FALSE guard keeps the statement
// idempotent, rows already soft deleted for any reason are never
// touched again.
func (r *Repository) PruneBatch(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	const op string = "repo.retention.prune_batch"

	tag, err := r.db.Exec(ctx, `
		UPDATE poll_records
		SET deleted = TRUE, raw_payload = NULL
		WHERE id IN (
			SELECT id FROM poll_records
			WHERE deleted = FALSE AND polled_at < $1
			LIMIT $2
		)
	`, cutoff, batchSize)
	if err != nil {
		return 0, utils.WrapRepoError(op, err, false, r.logger)
	}
	return tag.RowsAffected(), nil
}
