package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"careerdev-subscription/internal/domain"
	"careerdev-subscription/internal/domain/model"
	"careerdev-subscription/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.PlanRepository = (*planRepo)(nil)

type planRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, plan *model.PlanDefinition) error {
	const q = `
INSERT INTO subscription_plans (tier, name, price_paise, currency, limits, quiz30_enabled)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (tier) DO UPDATE SET
  name           = EXCLUDED.name,
  price_paise    = EXCLUDED.price_paise,
  currency       = EXCLUDED.currency,
  limits         = EXCLUDED.limits,
  quiz30_enabled = EXCLUDED.quiz30_enabled;`

	limits, err := json.Marshal(plan.Limits)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	_, err = execSQL(ctx, r.pool, tx, q,
		plan.Tier, plan.Name, plan.PricePaise, plan.Currency, limits, plan.Quiz30MinEnabled,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *planRepo) FindByTier(ctx context.Context, tx repository.Tx, tier model.Tier) (*model.PlanDefinition, error) {
	const q = `
SELECT tier, name, price_paise, currency, limits, quiz30_enabled
  FROM subscription_plans
 WHERE tier = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, tier)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func (r *planRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.PlanDefinition, error) {
	const q = `
SELECT tier, name, price_paise, currency, limits, quiz30_enabled
  FROM subscription_plans;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.PlanDefinition
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanPlan(row pgx.Row) (*model.PlanDefinition, error) {
	var (
		p      model.PlanDefinition
		limits []byte
	)
	if err := row.Scan(&p.Tier, &p.Name, &p.PricePaise, &p.Currency, &limits, &p.Quiz30MinEnabled); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if err := json.Unmarshal(limits, &p.Limits); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return &p, nil
}
