//go:build !integration

package postgres

import (
	"context"
	"time"

	"careerdev-subscription/internal/domain"
	"careerdev-subscription/internal/domain/model"
	"careerdev-subscription/internal/domain/ports/repository"
)

// mockRedisClient implements redis.RedisClient for decorator tests.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return "", domain.ErrNotFound
}

func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}

func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, keys...)
	}
	return nil
}

func (m *mockRedisClient) Close() error { return nil }

// mockInnerPlanRepo stands in for the database-backed plan repo.
type mockInnerPlanRepo struct {
	SaveFunc       func(ctx context.Context, tx repository.Tx, plan *model.PlanDefinition) error
	FindByTierFunc func(ctx context.Context, tx repository.Tx, tier model.Tier) (*model.PlanDefinition, error)
	ListAllFunc    func(ctx context.Context, tx repository.Tx) ([]*model.PlanDefinition, error)
}

var _ repository.PlanRepository = (*mockInnerPlanRepo)(nil)

func (m *mockInnerPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.PlanDefinition) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, plan)
	}
	return nil
}

func (m *mockInnerPlanRepo) FindByTier(ctx context.Context, tx repository.Tx, tier model.Tier) (*model.PlanDefinition, error) {
	if m.FindByTierFunc != nil {
		return m.FindByTierFunc(ctx, tx, tier)
	}
	return nil, domain.ErrNotFound
}

func (m *mockInnerPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.PlanDefinition, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx, tx)
	}
	return nil, nil
}
