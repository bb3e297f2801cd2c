package quota

import (
	"context"
	"errors"
	"routepulse/pkg/apperror"
	"routepulse/pkg/db"
	"routepulse/pkg/utils"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(q db.Querier) *Repository {
	return &Repository{db: q, logger: r.logger}
}

// TryConsume reserves units against the user's daily cap in one
// conditional upsert. Both branches carry the guard: the insert refuses
// a first reservation already over the limit, the update refuses an
// increment past it. Either way a loser gets zero returned rows, which
// surfaces as QuotaExceeded with no mutation.
func (r *Repository) TryConsume(ctx context.Context, userID uuid.UUID, day time.Time, units, limit int32) (int32, error) {
	const op string = "repo.quota.try_consume"

	row := r.db.QueryRow(ctx, `
		INSERT INTO user_quota_usage (user_id, usage_date, used)
		SELECT $1, $2, $3 WHERE $3 <= $4
		ON CONFLICT (user_id, usage_date)
		DO UPDATE SET used = user_quota_usage.used + $3
		WHERE user_quota_usage.used + $3 <= $4
		RETURNING used
	`, userID, day, units, limit)

	var used int32
	if err := row.Scan(&used); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &apperror.Error{
				Kind:    apperror.QuotaExceeded,
				Op:      op,
				Message: "daily poll quota exhausted",
			}
		}
		return 0, utils.WrapRepoError(op, err, false, r.logger)
	}
	return used, nil
}

// GetUsage reads the user's consumed units for a day; absent row means
// zero consumption.
func (r *Repository) GetUsage(ctx context.Context, userID uuid.UUID, day time.Time) (int32, error) {
	const op string = "repo.quota.get_usage"

	row := r.db.QueryRow(ctx, `
		SELECT used FROM user_quota_usage
		WHERE user_id = $1 AND usage_date = $2
	`, userID, day)

	var used int32
	if err := row.Scan(&used); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, utils.WrapRepoError(op, err, false, r.logger)
	}
	return used, nil
}
