package session

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

const sessionColumns = `id, route_id, session_date, state, first_poll_at, last_poll_at, poll_count, quota_consumed, holiday_excluded`

// GetOrCreate inserts the session row for (routeID, date) if absent.
// The unique constraint on (route_id, session_date) makes this safe
// under concurrent creators: a loser sees zero returned rows and
// re-reads the winner's row instead of erroring.
func (r *Repository) GetOrCreate(ctx context.Context, routeID uuid.UUID, date time.Time, holidayExcluded bool) (MonitoringSession, error) {
	const op string = "repo.session.get_or_create"

	row := r.db.QueryRow(ctx, `
		INSERT INTO monitoring_sessions (id, route_id, session_date, state, poll_count, quota_consumed, holiday_excluded)
		VALUES ($1,$2,$3,'pending',0,0,$4)
		ON CONFLICT (route_id, session_date) DO NOTHING
		RETURNING `+sessionColumns+`
	`, uuid.New(), routeID, date, holidayExcluded)

	sess, err := scanSession(row)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return MonitoringSession{}, utils.WrapRepoError(op, err, false, r.logger)
	}

	// lost the insert race, the winner's row must exist
	return r.Get(ctx, routeID, date)
}

func (r *Repository) Get(ctx context.Context, routeID uuid.UUID, date time.Time) (MonitoringSession, error) {
	const op string = "repo.session.get"

	row := r.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM monitoring_sessions
		WHERE route_id = $1 AND session_date = $2
	`, routeID, date)

	sess, err := scanSession(row)
	if err != nil {
		return MonitoringSession{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return sess, nil
}

// RecordPoll advances the session aggregates in one guarded UPDATE.
// The state guard makes a poll against a completed session a no-op at
// the row level, which surfaces as SessionClosed.
func (r *Repository) RecordPoll(ctx context.Context, sessionID uuid.UUID, polledAt time.Time, units int32) error {
	const op string = "repo.session.record_poll"

	tag, err := r.db.Exec(ctx, `
		UPDATE monitoring_sessions
		SET state = 'active',
		    first_poll_at = COALESCE(first_poll_at, $2),
		    last_poll_at = $2,
		    poll_count = poll_count + 1,
		    quota_consumed = quota_consumed + $3
		WHERE id = $1 AND state <> 'completed'
	`, sessionID, polledAt, units)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return &apperror.Error{
			Kind:    apperror.SessionClosed,
			Op:      op,
			Message: "monitoring session already completed",
		}
	}
	return nil
}

// Close transitions the session to completed. Idempotent: closing an
// already completed session affects zero rows and is not an error.
func (r *Repository) Close(ctx context.Context, sessionID uuid.UUID) error {
	const op string = "repo.session.close"

	_, err := r.db.Exec(ctx, `
		UPDATE monitoring_sessions SET state = 'completed'
		WHERE id = $1 AND state <> 'completed'
	`, sessionID)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

// ApplyPoll persists one successful poll: the session advance, then the
// record insert. Callers run it inside a transaction so the quota
// reservation and the record land together or not at all.
func (r *Repository) ApplyPoll(ctx context.Context, cmd RecordPollCmd) (PollRecord, error) {
	if err := r.RecordPoll(ctx, cmd.SessionID, cmd.PolledAt, cmd.Units); err != nil {
		return PollRecord{}, err
	}

	rec := PollRecord{
		ID:          uuid.New(),
		SessionID:   cmd.SessionID,
		UserID:      cmd.UserID,
		PolledAt:    cmd.PolledAt,
		DurationSec: cmd.DurationSec,
		DistanceM:   cmd.DistanceM,
		Provider:    cmd.Provider,
		Rerouted:    cmd.Rerouted,
		RawPayload:  cmd.RawPayload,
	}
	if err := r.InsertPollRecord(ctx, rec); err != nil {
		return PollRecord{}, err
	}
	return rec, nil
}

func (r *Repository) InsertPollRecord(ctx context.Context, rec PollRecord) error {
	const op string = "repo.session.insert_poll_record"

	_, err := r.db.Exec(ctx, `
		INSERT INTO poll_records (id, session_id, user_id, polled_at, duration_sec, distance_m, provider, rerouted, deleted, raw_payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,FALSE,$9)
	`, rec.ID, rec.SessionID, rec.UserID, rec.PolledAt, rec.DurationSec, rec.DistanceM, rec.Provider, rec.Rerouted, rec.RawPayload)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

// ListRecords returns a session's poll records. The deleted-inclusive
// mode exists for audit surfaces; normal readers keep includeDeleted
// false so soft deleted rows stay invisible.
func (r *Repository) ListRecords(ctx context.Context, sessionID uuid.UUID, includeDeleted bool) ([]PollRecord, error) {
	const op string = "repo.session.list_records"

	query := `
		SELECT id, session_id, user_id, polled_at, duration_sec, distance_m, provider, rerouted, deleted, raw_payload
		FROM poll_records
		WHERE session_id = $1
	`
	if !includeDeleted {
		query += ` AND deleted = FALSE`
	}
	query += ` ORDER BY polled_at`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	records := make([]PollRecord, 0)
	for rows.Next() {
		var rec PollRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.UserID, &rec.PolledAt, &rec.DurationSec, &rec.DistanceM, &rec.Provider, &rec.Rerouted, &rec.Deleted, &rec.RawPayload); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return records, nil
}

func scanSession(row pgx.Row) (MonitoringSession, error) {
	var sess MonitoringSession
	var state string

	err := row.Scan(&sess.ID, &sess.RouteID, &sess.Date, &state, &sess.FirstPollAt, &sess.LastPollAt, &sess.PollCount, &sess.QuotaConsumed, &sess.HolidayExcluded)
	if err != nil {
		return MonitoringSession{}, err
	}
	sess.State = State(state)
	return sess, nil
}
