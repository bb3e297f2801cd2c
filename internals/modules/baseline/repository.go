package baseline

import (
	"context"
	"time"

	"routepulse/pkg/db"
	"routepulse/pkg/utils"

	"github.com/google/uuid"
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

// ListRouteSamples returns every non-deleted poll record of a route,
// projected down to what the aggregator needs. Weekday filtering stays
// in Go because it depends on the route's timezone.
func (r *Repository) ListRouteSamples(ctx context.Context, routeID uuid.UUID) ([]Sample, error) {
	const op string = "repo.baseline.list_route_samples"

	rows, err := r.db.Query(ctx, `
		SELECT p.session_id, p.provider, p.polled_at, p.duration_sec
		FROM poll_records p
		JOIN monitoring_sessions s ON s.id = p.session_id
		WHERE s.route_id = $1 AND p.deleted = FALSE
	`, routeID)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	samples := make([]Sample, 0)
	for rows.Next() {
		var s Sample
		if err := rows.Scan(&s.SessionID, &s.Provider, &s.PolledAt, &s.DurationSec); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return samples, nil
}

// ListGlobalSamples pulls recent non-deleted records across all active
// routes, carrying each route's timezone so bucketing happens in local
// time per route.
func (r *Repository) ListGlobalSamples(ctx context.Context, since time.Time) ([]Sample, error) {
	const op string = "repo.baseline.list_global_samples"

	rows, err := r.db.Query(ctx, `
		SELECT p.session_id, p.provider, rt.timezone, p.polled_at, p.duration_sec
		FROM poll_records p
		JOIN monitoring_sessions s ON s.id = p.session_id
		JOIN routes rt ON rt.id = s.route_id
		WHERE rt.status = 'active' AND p.deleted = FALSE AND p.polled_at >= $1
	`, since)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	samples := make([]Sample, 0)
	for rows.Next() {
		var s Sample
		if err := rows.Scan(&s.SessionID, &s.Provider, &s.Timezone, &s.PolledAt, &s.DurationSec); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return samples, nil
}

// ProviderUsage rolls up poll counts per provider for one UTC day.
// Soft deleted rows still count, the poll happened and spent quota.
func (r *Repository) ProviderUsage(ctx context.Context, day time.Time) ([]ProviderUsage, error) {
	const op string = "repo.baseline.provider_usage"

	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	rows, err := r.db.Query(ctx, `
		SELECT provider, COUNT(*)
		FROM poll_records
		WHERE polled_at >= $1 AND polled_at < $2
		GROUP BY provider
		ORDER BY provider
	`, from, to)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	usage := make([]ProviderUsage, 0)
	for rows.Next() {
		var u ProviderUsage
		if err := rows.Scan(&u.Provider, &u.PollCount); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		u.QuotaUnits = u.PollCount // 1 unit per poll today
		usage = append(usage, u)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return usage, nil
}
