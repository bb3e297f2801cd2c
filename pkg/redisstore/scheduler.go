package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const scheduleKey string = "route:schedule"
const inflightKey string = "route:inflight"

// Schedule registers the next poll instant for a route in the schedule set.
func (c *Client) Schedule(ctx context.Context, routeID string, nextRun time.Time) error {
	return retry(ctx, 3, func() error {
		return c.rdb.ZAdd(ctx, scheduleKey, redis.Z{
			Score:  float64(nextRun.UnixMilli()),
			Member: routeID,
		}).Err()
	})
}

// ScheduleBatch seeds next runs for many routes at once. NX keeps an
// already scheduled route's earlier entry untouched, so a restart
// never delays a live schedule.
func (c *Client) ScheduleBatch(ctx context.Context, items map[string]time.Time) error {
	if len(items) == 0 {
		return nil
	}

	members := make([]redis.Z, 0, len(items))
	for routeID, runAt := range items {
		members = append(members, redis.Z{
			Score:  float64(runAt.UnixMilli()),
			Member: routeID,
		})
	}

	return retry(ctx, 3, func() error {
		return c.rdb.ZAddNX(ctx, scheduleKey, members...).Err()
	})
}

func (c *Client) DelSchedule(ctx context.Context, routeID string) error {
	return c.rdb.ZRem(ctx, scheduleKey, routeID).Err()
}

// FetchAndMoveToInflight atomically pops due routes from the schedule set
// and parks them in the inflight set with a visibility timeout, so a
// crashed worker never loses a poll.
func (c *Client) FetchAndMoveToInflight(ctx context.Context, script string, now time.Time, limit int, visibilityTimeout time.Duration) ([]string, error) {

	nowMillis := now.UnixMilli()
	visibilityMillis := visibilityTimeout.Milliseconds()

	result, err := c.rdb.Eval(
		ctx,
		script,
		[]string{scheduleKey, inflightKey},
		nowMillis,
		limit,
		visibilityMillis,
	).Result()

	if err != nil {
		return nil, err
	}

	rawItems, ok := result.([]any)
	if !ok {
		return nil, nil
	}

	jobs := make([]string, 0, len(rawItems))

	for _, item := range rawItems {
		if str, ok := item.(string); ok {
			jobs = append(jobs, str)
		}
	}

	return jobs, nil
}

func (c *Client) AckJob(ctx context.Context, routeID string) error {
	return c.rdb.ZRem(ctx, inflightKey, routeID).Err()
}

// ReclaimRoutes moves inflight entries whose visibility timeout expired
// back to the schedule set.
func (c *Client) ReclaimRoutes(ctx context.Context, script string, now time.Time, limit int) (int64, error) {

	nowMillis := now.UnixMilli()

	result, err := c.rdb.Eval(ctx, script, []string{inflightKey, scheduleKey}, nowMillis, limit).Result()
	if err != nil {
		return 0, err
	}
	count, ok := result.(int64)
	if !ok {
		return 0, nil
	}

	return count, nil
}
