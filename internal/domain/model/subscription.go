package model

import (
	"time"

	"careerdev-subscription/internal/domain"
)

// UsageResetInterval is the cadence on which usage counters roll over.
// Deliberately decoupled from the subscription window: an upgrade restamps
// the window but never touches the counters.
const UsageResetInterval = 30 * 24 * time.Hour

// UserSubscription is the durable record of a user's plan state.
// Exactly one exists per user id.
type UserSubscription struct {
	UserID    string // UUID of user
	Tier      Tier
	StartAt   time.Time
	EndAt     time.Time // StartAt + 1 month
	AutoRenew bool
	Usage     map[Feature]int64
	LastReset time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUserSubscription bootstraps a user on the free tier with zeroed
// usage counters and the reset clock starting now.
func NewUserSubscription(userID string, now time.Time) (*UserSubscription, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &UserSubscription{
		UserID:    userID,
		Tier:      TierFree,
		StartAt:   now,
		EndAt:     now.AddDate(0, 1, 0),
		AutoRenew: false,
		Usage:     zeroUsage(),
		LastReset: now,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func zeroUsage() map[Feature]int64 {
	u := make(map[Feature]int64, len(AllFeatures))
	for _, f := range AllFeatures {
		u[f] = 0
	}
	return u
}

// Used returns the counter for a feature; missing entries count as zero.
func (s *UserSubscription) Used(f Feature) int64 {
	if s.Usage == nil {
		return 0
	}
	return s.Usage[f]
}

// ResetDue reports whether the 30-day usage window has elapsed.
func (s *UserSubscription) ResetDue(now time.Time) bool {
	return now.Sub(s.LastReset) >= UsageResetInterval
}

// ResetUsage zeroes every counter and restarts the reset clock.
func (s *UserSubscription) ResetUsage(now time.Time) {
	s.Usage = zeroUsage()
	s.LastReset = now
	s.UpdatedAt = now
}

// ApplyUpgrade moves the subscription to a new tier and restamps the
// window. Usage counters are left untouched on purpose: the reset is
// governed solely by the 30-day cycle.
func (s *UserSubscription) ApplyUpgrade(newTier Tier, now time.Time) error {
	if !newTier.Known() {
		return domain.ErrInvalidPlan
	}
	s.Tier = newTier
	s.StartAt = now
	s.EndAt = now.AddDate(0, 1, 0)
	s.UpdatedAt = now
	return nil
}
