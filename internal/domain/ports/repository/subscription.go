package repository

import (
	"context"
	"time"

	"careerdev-subscription/internal/domain/model"
)

// SubscriptionRepository is the port for user subscription state.
// One record per user id.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, sub *model.UserSubscription) error
	FindByUser(ctx context.Context, tx Tx, userID string) (*model.UserSubscription, error)

	// IncrementUsage bumps the feature counter by exactly 1, but only
	// while it is below limit (limit < 0 means unlimited). Returns
	// domain.ErrQuotaExceeded when the conditional update matched no
	// row, so a racing commit can never push a counter past its
	// ceiling.
	IncrementUsage(ctx context.Context, tx Tx, userID string, feature model.Feature, limit int64) error

	// ResetUsage zeroes every counter and stamps the reset time.
	ResetUsage(ctx context.Context, tx Tx, userID string, at time.Time) error

	// CountByTier returns the number of subscriptions per tier, for the
	// subscriptions gauge.
	CountByTier(ctx context.Context, tx Tx) (map[model.Tier]int, error)
}
