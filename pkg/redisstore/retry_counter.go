package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IncrementRetry tracks consecutive provider failures for a route so the
// scheduler can stop re-ticking a route that keeps failing.
func (c *Client) IncrementRetry(ctx context.Context, routeID uuid.UUID) (int64, error) {
	key := fmt.Sprintf("route:retry:%v", routeID)

	var count int64

	err := retry(ctx, 2, func() error {
		var err error
		count, err = c.rdb.Incr(ctx, key).Result()
		if err != nil {
			return err
		}

		c.rdb.Expire(ctx, key, 1*time.Hour)
		return nil
	})

	return count, err
}

func (c *Client) ClearRetry(ctx context.Context, routeID uuid.UUID) error {
	key := fmt.Sprintf("route:retry:%v", routeID)

	return retry(ctx, 2, func() error {
		return c.rdb.Del(ctx, key).Err()
	})
}
