package route

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Cache interface {
	GetRoute(ctx context.Context, id uuid.UUID) (Route, bool)
	SetRoute(ctx context.Context, rt Route) error
	DelRoute(ctx context.Context, id uuid.UUID) error
	Schedule(ctx context.Context, routeID string, runAt time.Time) error
	ScheduleBatch(ctx context.Context, items map[string]time.Time) error
	DelSchedule(ctx context.Context, routeID string) error
}
