package sanitary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const planCacheTTL = 12 * time.Hour

// PlanCache caches per-farm plan strings in Redis.
type PlanCache struct {
	client *redis.Client
}

// NewPlanCache constructs PlanCache.
func NewPlanCache(client *redis.Client) *PlanCache {
	return &PlanCache{client: client}
}

func planKey(farmID int64) string {
	return fmt.Sprintf("farm:%d:sanitary_plan", farmID)
}

// Get returns the cached plan and whether it was present.
func (c *PlanCache) Get(ctx context.Context, farmID int64) (string, bool, error) {
	val, err := c.client.Get(ctx, planKey(farmID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores the plan with a TTL.
func (c *PlanCache) Set(ctx context.Context, farmID int64, plan string) error {
	return c.client.Set(ctx, planKey(farmID), plan, planCacheTTL).Err()
}

// Invalidate drops the cached plan.
func (c *PlanCache) Invalidate(ctx context.Context, farmID int64) error {
	return c.client.Del(ctx, planKey(farmID)).Err()
}
