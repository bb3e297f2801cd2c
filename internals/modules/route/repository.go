package route

import (
	"context"
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

func (r *Repository) Create(ctx context.Context, cmd CreateRouteCmd) (Route, error) {
	const op string = "repo.route.create"

	rt := Route{
		ID:          uuid.New(),
		UserID:      cmd.UserID,
		Origin:      cmd.Origin,
		Destination: cmd.Destination,
		Provider:    cmd.Provider,
		Timezone:    cmd.Timezone,
		Status:      StatusActive,
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO routes (id, user_id, origin, destination, provider, timezone, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, rt.ID, rt.UserID, rt.Origin, rt.Destination, rt.Provider, rt.Timezone, string(rt.Status))

	if err := row.Scan(&rt.CreatedAt); err != nil {
		return Route{}, utils.WrapRepoError(op, err, false, r.logger)
	}
	return rt, nil
}

func (r *Repository) GetByID(ctx context.Context, routeID uuid.UUID) (Route, error) {
	const op string = "repo.route.get_by_id"

	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, origin, destination, provider, timezone, status, created_at
		FROM routes
		WHERE id = $1 AND status <> 'deleted'
	`, routeID)

	rt, err := scanRoute(row)
	if err != nil {
		return Route{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return rt, nil
}

func (r *Repository) Get(ctx context.Context, userID, routeID uuid.UUID) (Route, error) {
	const op string = "repo.route.get"

	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, origin, destination, provider, timezone, status, created_at
		FROM routes
		WHERE id = $1 AND user_id = $2 AND status <> 'deleted'
	`, routeID, userID)

	rt, err := scanRoute(row)
	if err != nil {
		return Route{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return rt, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]Route, error) {
	const op string = "repo.route.list_by_user"

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, origin, destination, provider, timezone, status, created_at
		FROM routes
		WHERE user_id = $1 AND status <> 'deleted'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	routes := make([]Route, 0)
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		routes = append(routes, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return routes, nil
}

// ListActive returns every active route regardless of owner, for the
// schedule seeding pass at process start.
func (r *Repository) ListActive(ctx context.Context) ([]Route, error) {
	const op string = "repo.route.list_active"

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, origin, destination, provider, timezone, status, created_at
		FROM routes
		WHERE status = 'active'
	`)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	routes := make([]Route, 0)
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		routes = append(routes, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return routes, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, userID, routeID uuid.UUID, status Status) error {
	const op string = "repo.route.update_status"

	tag, err := r.db.Exec(ctx, `
		UPDATE routes SET status = $3
		WHERE id = $1 AND user_id = $2 AND status <> 'deleted'
	`, routeID, userID, string(status))
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: "route not found",
		}
	}
	return nil
}

func (r *Repository) CreateWindow(ctx context.Context, cmd CreateWindowCmd) (MonitoringWindow, error) {
	const op string = "repo.route.create_window"

	w := MonitoringWindow{
		ID:              uuid.New(),
		RouteID:         cmd.RouteID,
		StartMinute:     cmd.StartMinute,
		EndMinute:       cmd.EndMinute,
		Weekdays:        cmd.Weekdays,
		ExcludeHolidays: cmd.ExcludeHolidays,
		Active:          true,
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO monitoring_windows (id, route_id, start_minute, end_minute, weekday_mask, exclude_holidays, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, w.ID, w.RouteID, w.StartMinute, w.EndMinute, int16(w.Weekdays), w.ExcludeHolidays, w.Active)
	if err != nil {
		return MonitoringWindow{}, utils.WrapRepoError(op, err, false, r.logger)
	}
	return w, nil
}

func (r *Repository) ListWindows(ctx context.Context, routeID uuid.UUID) ([]MonitoringWindow, error) {
	const op string = "repo.route.list_windows"

	rows, err := r.db.Query(ctx, `
		SELECT id, route_id, start_minute, end_minute, weekday_mask, exclude_holidays, active
		FROM monitoring_windows
		WHERE route_id = $1
		ORDER BY start_minute
	`, routeID)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	windows := make([]MonitoringWindow, 0)
	for rows.Next() {
		var w MonitoringWindow
		var mask int16
		if err := rows.Scan(&w.ID, &w.RouteID, &w.StartMinute, &w.EndMinute, &mask, &w.ExcludeHolidays, &w.Active); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		w.Weekdays = WeekdaySet(mask)
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	return windows, nil
}

func (r *Repository) SetWindowActive(ctx context.Context, routeID, windowID uuid.UUID, active bool) error {
	const op string = "repo.route.set_window_active"

	tag, err := r.db.Exec(ctx, `
		UPDATE monitoring_windows SET active = $3
		WHERE id = $1 AND route_id = $2
	`, windowID, routeID, active)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: "window not found",
		}
	}
	return nil
}

func scanRoute(row pgx.Row) (Route, error) {
	var rt Route
	var status string
	var createdAt time.Time

	if err := row.Scan(&rt.ID, &rt.UserID, &rt.Origin, &rt.Destination, &rt.Provider, &rt.Timezone, &status, &createdAt); err != nil {
		return Route{}, err
	}
	rt.Status = Status(status)
	rt.CreatedAt = createdAt
	return rt, nil
}
