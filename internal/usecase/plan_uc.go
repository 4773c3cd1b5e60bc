package usecase

import (
	"context"

	"careerdev-subscription/internal/domain/model"
	"careerdev-subscription/internal/domain/ports/repository"
)

// PlanUseCase exposes the read-only plan catalog.
type PlanUseCase struct {
	repo repository.PlanRepository
}

func NewPlanUseCase(repo repository.PlanRepository) *PlanUseCase {
	return &PlanUseCase{repo: repo}
}

func (uc *PlanUseCase) Get(ctx context.Context, tier model.Tier) (*model.PlanDefinition, error) {
	return uc.repo.FindByTier(ctx, nil, tier)
}

func (uc *PlanUseCase) List(ctx context.Context) ([]*model.PlanDefinition, error) {
	return uc.repo.ListAll(ctx, nil)
}

// Seed installs the default catalog when the plans table is empty.
func (uc *PlanUseCase) Seed(ctx context.Context) (int, error) {
	existing, err := uc.repo.ListAll(ctx, nil)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	n := 0
	for _, p := range model.DefaultPlans() {
		if err := uc.repo.Save(ctx, nil, p); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
