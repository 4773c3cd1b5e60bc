package repository

import (
	"context"

	"careerdev-subscription/internal/domain/model"
)

// PlanRepository is the port for the static plan catalog.
type PlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.PlanDefinition) error
	FindByTier(ctx context.Context, tx Tx, tier model.Tier) (*model.PlanDefinition, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.PlanDefinition, error)
}
