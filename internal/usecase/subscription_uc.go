package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"careerdev-subscription/internal/domain"
	"careerdev-subscription/internal/domain/model"
	"careerdev-subscription/internal/domain/ports/repository"
)

// CheckResult is the structured outcome of a quota check. Denial is a
// normal outcome, not an error: Reason carries the upgrade prompt shown
// to the user.
type CheckResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Limit   int64  `json:"limit,omitempty"` // model.Unlimited when no ceiling applies
	Used    int64  `json:"used,omitempty"`
}

// SubscriptionUseCase is the ledger: it gates feature usage against
// plan limits, tracks usage, and applies tier changes. The check and
// the commit are separate calls; callers that need them race-free wrap
// both in the gate's per-user lock (see GateUseCase). CommitUsage is
// additionally a conditional increment at the storage layer, so even an
// unlocked caller cannot push a counter past its ceiling.
type SubscriptionUseCase struct {
	subs  repository.SubscriptionRepository
	plans repository.PlanRepository
	log   *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, plans repository.PlanRepository, logger *zerolog.Logger) *SubscriptionUseCase {
	return &SubscriptionUseCase{subs: subs, plans: plans, log: logger}
}

// GetOrCreate returns the user's subscription, bootstrapping a free-tier
// record on first access. The 30-day usage reset is applied lazily here,
// on every read, rather than by a background timer.
func (uc *SubscriptionUseCase) GetOrCreate(ctx context.Context, userID string) (*model.UserSubscription, error) {
	sub, err := uc.subs.FindByUser(ctx, nil, userID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		sub, err = model.NewUserSubscription(userID, time.Now())
		if err != nil {
			return nil, err
		}
		if err := uc.subs.Save(ctx, nil, sub); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				// lost a create race; the other writer's record wins
				return uc.subs.FindByUser(ctx, nil, userID)
			}
			return nil, err
		}
		return sub, nil
	default:
		return nil, err
	}

	if sub.ResetDue(time.Now()) {
		now := time.Now()
		if err := uc.subs.ResetUsage(ctx, nil, userID, now); err != nil {
			return nil, err
		}
		sub.ResetUsage(now)
		uc.log.Info().Str("user_id", userID).Msg("usage counters reset")
	}
	return sub, nil
}

// ResetIfDue applies the lazy 30-day reset without returning the record.
func (uc *SubscriptionUseCase) ResetIfDue(ctx context.Context, userID string) error {
	_, err := uc.GetOrCreate(ctx, userID)
	return err
}

// CheckAndReserve looks up the plan's limit for the feature and decides
// whether one more use is allowed. extended requests the 30-minute quiz
// variant, which is gated by the plan's boolean flag on top of the
// numeric quota; both axes must pass.
//
// The caller must not increment usage itself: a successful check is
// paired with CommitUsage, which the ledger owns.
func (uc *SubscriptionUseCase) CheckAndReserve(ctx context.Context, userID string, feature model.Feature, extended bool) (CheckResult, error) {
	if !feature.Known() {
		return CheckResult{}, domain.ErrInvalidArgument
	}
	sub, err := uc.GetOrCreate(ctx, userID)
	if err != nil {
		return CheckResult{}, err
	}
	plan, err := uc.plans.FindByTier(ctx, nil, sub.Tier)
	if err != nil {
		return CheckResult{Allowed: false, Reason: "Invalid subscription plan"}, nil
	}

	if extended && feature == model.FeatureQuizGenerates && !plan.Quiz30MinEnabled {
		return CheckResult{Allowed: false, Reason: uc.quiz30Prompt(ctx)}, nil
	}

	limit := plan.Limit(feature)
	used := sub.Used(feature)
	if limit == model.Unlimited {
		return CheckResult{Allowed: true, Limit: model.Unlimited, Used: used}, nil
	}
	if used >= limit {
		return CheckResult{
			Allowed: false,
			Reason:  uc.upgradePrompt(ctx, sub.Tier, feature, limit),
			Limit:   limit,
			Used:    used,
		}, nil
	}
	return CheckResult{Allowed: true, Limit: limit, Used: used}, nil
}

// CommitUsage increments the feature counter by exactly 1. Only call it
// right after a successful CheckAndReserve for the same feature. The
// underlying update is conditional on used < limit.
func (uc *SubscriptionUseCase) CommitUsage(ctx context.Context, userID string, feature model.Feature) error {
	if !feature.Known() {
		return domain.ErrInvalidArgument
	}
	sub, err := uc.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	plan, err := uc.plans.FindByTier(ctx, nil, sub.Tier)
	if err != nil {
		return err
	}
	return uc.subs.IncrementUsage(ctx, nil, userID, feature, plan.Limit(feature))
}

// Upgrade moves the user to a new tier and restamps the subscription
// window at one month from now. Usage counters are deliberately not
// reset: the 30-day cycle governs them independently of tier changes.
// An unknown tier is rejected without touching state.
//
// tx may carry a database transaction so the payment callback can apply
// the upgrade atomically with the payment's state flip; pass nil
// otherwise.
func (uc *SubscriptionUseCase) Upgrade(ctx context.Context, tx repository.Tx, userID string, newTier model.Tier) error {
	if !newTier.Known() {
		return domain.ErrInvalidPlan
	}
	sub, err := uc.subs.FindByUser(ctx, tx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		sub, err = model.NewUserSubscription(userID, time.Now())
	}
	if err != nil {
		return err
	}
	if err := sub.ApplyUpgrade(newTier, time.Now()); err != nil {
		return err
	}
	if err := uc.subs.Save(ctx, tx, sub); err != nil {
		return err
	}
	uc.log.Info().Str("user_id", userID).Str("tier", string(newTier)).Msg("subscription upgraded")
	return nil
}

// CountByTier exposes the per-tier subscription counts for metrics.
func (uc *SubscriptionUseCase) CountByTier(ctx context.Context) (map[model.Tier]int, error) {
	return uc.subs.CountByTier(ctx, nil)
}

func rupees(paise int64) string {
	return decimal.New(paise, -2).String()
}

// upgradePrompt names the next tier up with its price, matching the
// product's denial copy per current tier.
func (uc *SubscriptionUseCase) upgradePrompt(ctx context.Context, tier model.Tier, feature model.Feature, limit int64) string {
	next, err := uc.plans.FindByTier(ctx, nil, tier.Next())
	if err != nil || next.IsZero() || next.Tier == tier {
		return fmt.Sprintf("You've reached your monthly limit of %d %s.", limit, feature)
	}
	if tier == model.TierFree {
		return fmt.Sprintf("You've used your free trial for %s! Upgrade to %s (₹%s/month) to continue using this feature.",
			feature, next.Name, rupees(next.PricePaise))
	}
	suffix := "for more features!"
	if next.Tier == model.TierPremium {
		suffix = "for unlimited access!"
	}
	return fmt.Sprintf("You've reached your monthly limit of %d %s. Upgrade to %s (₹%s/month) %s",
		limit, feature, next.Name, rupees(next.PricePaise), suffix)
}

// quiz30Prompt points at the cheapest tier whose plan enables the
// 30-minute quiz.
func (uc *SubscriptionUseCase) quiz30Prompt(ctx context.Context) string {
	plans, err := uc.plans.ListAll(ctx, nil)
	if err == nil {
		for _, p := range plans {
			if p.Quiz30MinEnabled {
				return fmt.Sprintf("The 30-minute quiz is available from the %s plan (₹%s/month). Upgrade to unlock it.",
					p.Name, rupees(p.PricePaise))
			}
		}
	}
	return "The 30-minute quiz is not available on your plan."
}
