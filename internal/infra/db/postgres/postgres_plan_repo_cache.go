package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"careerdev-subscription/internal/domain/model"
	"careerdev-subscription/internal/domain/ports/repository"
	"careerdev-subscription/internal/infra/metrics"
	red "careerdev-subscription/internal/infra/redis"
)

var _ repository.PlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator puts a Redis cache in front of the plan
// catalog. Plans change only on seed/admin writes, so a generous TTL
// plus write-through invalidation is enough.
type planRepoCacheDecorator struct {
	inner repository.PlanRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPlanRepoCacheDecorator(inner repository.PlanRepository, cache red.RedisClient, ttl time.Duration) repository.PlanRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &planRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *planRepoCacheDecorator) FindByTier(ctx context.Context, tx repository.Tx, tier model.Tier) (*model.PlanDefinition, error) {
	key := fmt.Sprintf("plan:%s", tier)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var plan model.PlanDefinition
		if json.Unmarshal([]byte(val), &plan) == nil {
			metrics.IncCacheRequest("plan", "hit")
			return &plan, nil
		}
	}

	metrics.IncCacheRequest("plan", "miss")
	plan, err := d.inner.FindByTier(ctx, tx, tier)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		if bytes, err := json.Marshal(plan); err == nil {
			_ = d.cache.Set(ctx, key, bytes, d.ttl)
		}
	}
	return plan, nil
}

func (d *planRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.PlanDefinition, error) {
	const key = "plans:all"
	if val, err := d.cache.Get(ctx, key); err == nil {
		var plans []*model.PlanDefinition
		if json.Unmarshal([]byte(val), &plans) == nil {
			metrics.IncCacheRequest("plan_list", "hit")
			return plans, nil
		}
	}

	metrics.IncCacheRequest("plan_list", "miss")
	plans, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		if bytes, err := json.Marshal(plans); err == nil {
			_ = d.cache.Set(ctx, key, bytes, d.ttl)
		}
	}
	return plans, nil
}

// Writes invalidate both the per-tier entry and the full list.
func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.PlanDefinition) error {
	_ = d.cache.Del(ctx, fmt.Sprintf("plan:%s", plan.Tier), "plans:all")
	return d.inner.Save(ctx, tx, plan)
}
