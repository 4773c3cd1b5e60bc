package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"careerdev-subscription/internal/domain"
	"careerdev-subscription/internal/domain/model"
	"careerdev-subscription/internal/infra/metrics"
)

// UserLocker serializes gate calls per user. Satisfied by the redis
// locker.
type UserLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// GateResult is what a gated feature call returns: the quota decision
// and, when allowed, the feature's output.
type GateResult struct {
	CheckResult
	Output string `json:"output,omitempty"`
}

// GateUseCase is the thin layer every feature-producing action goes
// through. Its whole contract: never run a feature without a prior
// successful reservation, and never commit usage without having run the
// feature. A per-user lock brackets check+run+commit so two racing
// requests cannot both pass the quota check.
type GateUseCase struct {
	subs    *SubscriptionUseCase
	locker  UserLocker
	lockTTL time.Duration
	log     *zerolog.Logger
}

func NewGateUseCase(subs *SubscriptionUseCase, locker UserLocker, logger *zerolog.Logger) *GateUseCase {
	return &GateUseCase{subs: subs, locker: locker, lockTTL: 30 * time.Second, log: logger}
}

// Use gates one feature invocation. run produces the feature's output;
// it is only called after a successful reservation, and usage is only
// committed after run returns without error.
func (uc *GateUseCase) Use(ctx context.Context, userID string, feature model.Feature, extended bool, run func(ctx context.Context) (string, error)) (GateResult, error) {
	key := "gate:" + userID
	token, err := uc.locker.TryLock(ctx, key, uc.lockTTL)
	if err != nil {
		return GateResult{}, domain.ErrLockNotAcquired
	}
	defer func() {
		if err := uc.locker.Unlock(ctx, key, token); err != nil {
			uc.log.Warn().Str("user_id", userID).Err(err).Msg("gate unlock failed")
		}
	}()

	check, err := uc.subs.CheckAndReserve(ctx, userID, feature, extended)
	if err != nil {
		return GateResult{}, err
	}
	if !check.Allowed {
		metrics.IncQuotaDenied(string(feature))
		return GateResult{CheckResult: check}, nil
	}

	out, err := run(ctx)
	if err != nil {
		// feature failed; the reservation is abandoned, nothing committed
		return GateResult{}, err
	}
	if err := uc.subs.CommitUsage(ctx, userID, feature); err != nil {
		return GateResult{}, err
	}
	metrics.IncFeatureUse(string(feature))
	return GateResult{CheckResult: check, Output: out}, nil
}
