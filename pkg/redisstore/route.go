package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"routepulse/internals/modules/route"
	"time"

	"github.com/google/uuid"
)

func (c *Client) SetRoute(ctx context.Context, rt route.Route) error {
	key := fmt.Sprintf("route:%v", rt.ID.String())

	jsonRt, err := json.Marshal(rt)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, jsonRt, 24*time.Hour).Err()
}

func (c *Client) GetRoute(ctx context.Context, id uuid.UUID) (route.Route, bool) {
	key := fmt.Sprintf("route:%v", id.String())

	res, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return route.Route{}, false
	}
	var rt route.Route
	if err := json.Unmarshal(res, &rt); err != nil {
		return route.Route{}, false
	}

	return rt, true
}

func (c *Client) DelRoute(ctx context.Context, id uuid.UUID) error {
	key := fmt.Sprintf("route:%v", id.String())

	return c.rdb.Del(ctx, key).Err()
}
