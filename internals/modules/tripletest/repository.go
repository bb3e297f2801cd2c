package tripletest

import (
	"context"

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

func (r *Repository) CreateSession(ctx context.Context, sess Session) error {
	const op string = "repo.tripletest.create_session"

	_, err := r.db.Exec(ctx, `
		INSERT INTO triple_test_sessions (id, user_id, origin, destination, provider, scheduled_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, sess.ID, sess.UserID, sess.Origin, sess.Destination, sess.Provider, sess.ScheduledAt, sess.CreatedAt)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}

	for _, shot := range sess.Shots {
		_, err := r.db.Exec(ctx, `
			INSERT INTO triple_test_shots (id, session_id, shot_index, offset_sec, success, error_code)
			VALUES ($1,$2,$3,$4,FALSE,'')
		`, shot.ID, sess.ID, shot.ShotIndex, shot.OffsetSec)
		if err != nil {
			return utils.WrapRepoError(op, err, false, r.logger)
		}
	}
	return nil
}

func (r *Repository) SaveShotResult(ctx context.Context, shot Shot) error {
	const op string = "repo.tripletest.save_shot_result"

	_, err := r.db.Exec(ctx, `
		UPDATE triple_test_shots
		SET fired_at = $2, success = $3, duration_sec = $4, distance_m = $5, error_code = $6
		WHERE id = $1
	`, shot.ID, shot.FiredAt, shot.Success, shot.DurationSec, shot.DistanceM, shot.ErrorCode)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func (r *Repository) FinalizeSession(ctx context.Context, sess Session) error {
	const op string = "repo.tripletest.finalize_session"

	_, err := r.db.Exec(ctx, `
		UPDATE triple_test_sessions
		SET ideal_shot_index = $2, avg_duration_sec = $3, avg_distance_m = $4
		WHERE id = $1
	`, sess.ID, sess.IdealShotIndex, sess.AvgDurationSec, sess.AvgDistanceM)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (Session, error) {
	const op string = "repo.tripletest.get_session"

	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, origin, destination, provider, scheduled_at,
		       ideal_shot_index, avg_duration_sec, avg_distance_m, created_at
		FROM triple_test_sessions
		WHERE id = $1 AND user_id = $2
	`, sessionID, userID)

	var sess Session
	err := row.Scan(&sess.ID, &sess.UserID, &sess.Origin, &sess.Destination, &sess.Provider,
		&sess.ScheduledAt, &sess.IdealShotIndex, &sess.AvgDurationSec, &sess.AvgDistanceM, &sess.CreatedAt)
	if err != nil {
		return Session{}, utils.WrapRepoError(op, err, true, r.logger)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, session_id, shot_index, offset_sec, fired_at, success, duration_sec, distance_m, error_code
		FROM triple_test_shots
		WHERE session_id = $1
		ORDER BY shot_index
	`, sessionID)
	if err != nil {
		return Session{}, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	for rows.Next() {
		var shot Shot
		if err := rows.Scan(&shot.ID, &shot.SessionID, &shot.ShotIndex, &shot.OffsetSec,
			&shot.FiredAt, &shot.Success, &shot.DurationSec, &shot.DistanceM, &shot.ErrorCode); err != nil {
			return Session{}, utils.WrapRepoError(op, err, false, r.logger)
		}
		sess.Shots = append(sess.Shots, shot)
	}
	if err := rows.Err(); err != nil {
		return Session{}, utils.WrapRepoError(op, err, false, r.logger)
	}
	return sess, nil
}
