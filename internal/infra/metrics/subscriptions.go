package metrics

import (
	"careerdev-subscription/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		subscriptionsTotal,
		quotaDeniedTotal,
		featureUseTotal,
	)
}

var (
	subscriptionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_total",
			Help: "Current number of subscriptions by tier.",
		},
		[]string{"tier"}, // 'free', 'starter', 'pro', 'premium'
	)

	quotaDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_denied_total",
			Help: "Feature requests denied by the quota gate, per feature.",
		},
		[]string{"feature"},
	)

	featureUseTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feature_use_total",
			Help: "Committed feature uses, per feature.",
		},
		[]string{"feature"},
	)
)

func IncQuotaDenied(feature string) { quotaDeniedTotal.WithLabelValues(feature).Inc() }

func IncFeatureUse(feature string) { featureUseTotal.WithLabelValues(feature).Inc() }

func SetSubscriptionsTotal(counts map[model.Tier]int) {
	tiers := []model.Tier{model.TierFree, model.TierStarter, model.TierPro, model.TierPremium}
	for _, tier := range tiers {
		if count, ok := counts[tier]; ok {
			subscriptionsTotal.WithLabelValues(string(tier)).Set(float64(count))
		}
	}
}
