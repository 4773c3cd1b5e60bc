package model

import (
	"careerdev-subscription/internal/domain"
)

// Tier is a named subscription level. Tiers form a total order of
// increasing entitlement; upgrades only move forward.
type Tier string

const (
	TierFree    Tier = "free"
	TierStarter Tier = "starter"
	TierPro     Tier = "pro"
	TierPremium Tier = "premium"
)

var tierOrder = []Tier{TierFree, TierStarter, TierPro, TierPremium}

// Known reports whether t is one of the four catalog tiers.
func (t Tier) Known() bool {
	for _, k := range tierOrder {
		if t == k {
			return true
		}
	}
	return false
}

// Rank returns the entitlement order of the tier (free=0 .. premium=3),
// or -1 for an unknown tier.
func (t Tier) Rank() int {
	for i, k := range tierOrder {
		if t == k {
			return i
		}
	}
	return -1
}

// Next returns the tier one step up, or t itself when already at the top
// or unknown. Used to build upgrade prompts on quota denial.
func (t Tier) Next() Tier {
	r := t.Rank()
	if r < 0 || r >= len(tierOrder)-1 {
		return t
	}
	return tierOrder[r+1]
}

// Feature names a metered capability. The values are the wire/storage
// identifiers used in the API and the usage columns.
type Feature string

const (
	FeatureResumes          Feature = "resumes"
	FeatureCoverLetters     Feature = "cover_letters"
	FeatureMockInterviews   Feature = "mock_interviews"
	FeatureQuizGenerates    Feature = "quiz_generates"
	FeatureRoadmapGenerator Feature = "roadmap_generator"
	FeatureProjectFeedback  Feature = "project_feedback"
	FeatureSalaryGuide      Feature = "salary_guide"
	FeatureHRContactList    Feature = "hr_contact_list"
)

// AllFeatures lists every metered feature in a stable order.
var AllFeatures = []Feature{
	FeatureResumes,
	FeatureCoverLetters,
	FeatureMockInterviews,
	FeatureQuizGenerates,
	FeatureRoadmapGenerator,
	FeatureProjectFeedback,
	FeatureSalaryGuide,
	FeatureHRContactList,
}

// Known reports whether f is a catalog feature.
func (f Feature) Known() bool {
	for _, k := range AllFeatures {
		if f == k {
			return true
		}
	}
	return false
}

// Unlimited is the sentinel limit meaning a feature has no ceiling on
// the plan.
const Unlimited int64 = -1

// PlanDefinition is a static catalog entry: one per tier, read-only,
// seeded at process start.
type PlanDefinition struct {
	Tier             Tier
	Name             string
	PricePaise       int64 // monthly price in paise; 0 for the free tier
	Currency         string
	Limits           map[Feature]int64 // Unlimited means no ceiling
	Quiz30MinEnabled bool              // extended-duration quiz gate, orthogonal to the quota
}

func (p *PlanDefinition) IsZero() bool { return p == nil || p.Tier == "" }

// Limit returns the ceiling for a feature on this plan. A missing entry
// counts as zero (feature not included).
func (p *PlanDefinition) Limit(f Feature) int64 {
	if p == nil || p.Limits == nil {
		return 0
	}
	n, ok := p.Limits[f]
	if !ok {
		return 0
	}
	return n
}

// NewPlanDefinition validates and constructs a catalog entry.
func NewPlanDefinition(tier Tier, name string, pricePaise int64, limits map[Feature]int64, quiz30 bool) (*PlanDefinition, error) {
	if !tier.Known() || name == "" || pricePaise < 0 || limits == nil {
		return nil, domain.ErrInvalidArgument
	}
	return &PlanDefinition{
		Tier:             tier,
		Name:             name,
		PricePaise:       pricePaise,
		Currency:         "INR",
		Limits:           limits,
		Quiz30MinEnabled: quiz30,
	}, nil
}

// DefaultPlans is the shipped four-tier catalog.
func DefaultPlans() []*PlanDefinition {
	return []*PlanDefinition{
		{
			Tier: TierFree, Name: "Free Trial", PricePaise: 0, Currency: "INR",
			Limits: map[Feature]int64{
				FeatureResumes:          1,
				FeatureCoverLetters:     1,
				FeatureMockInterviews:   1,
				FeatureQuizGenerates:    1,
				FeatureRoadmapGenerator: 1,
				FeatureProjectFeedback:  1,
				FeatureSalaryGuide:      1,
				FeatureHRContactList:    0,
			},
		},
		{
			Tier: TierStarter, Name: "Starter", PricePaise: 900, Currency: "INR",
			Limits: map[Feature]int64{
				FeatureResumes:          3,
				FeatureCoverLetters:     10,
				FeatureMockInterviews:   3,
				FeatureQuizGenerates:    10,
				FeatureRoadmapGenerator: 3,
				FeatureProjectFeedback:  10,
				FeatureSalaryGuide:      15,
				FeatureHRContactList:    30, // 1 HR email per day for 30 days
			},
		},
		{
			Tier: TierPro, Name: "Pro", PricePaise: 6900, Currency: "INR",
			Quiz30MinEnabled: true,
			Limits: map[Feature]int64{
				FeatureResumes:          10,
				FeatureCoverLetters:     50,
				FeatureMockInterviews:   15,
				FeatureQuizGenerates:    50,
				FeatureRoadmapGenerator: Unlimited,
				FeatureProjectFeedback:  Unlimited,
				FeatureSalaryGuide:      Unlimited,
				FeatureHRContactList:    150, // 5 HR emails per day for 30 days
			},
		},
		{
			Tier: TierPremium, Name: "Premium", PricePaise: 10900, Currency: "INR",
			Quiz30MinEnabled: true,
			Limits: map[Feature]int64{
				FeatureResumes:          Unlimited,
				FeatureCoverLetters:     Unlimited,
				FeatureMockInterviews:   Unlimited,
				FeatureQuizGenerates:    Unlimited,
				FeatureRoadmapGenerator: Unlimited,
				FeatureProjectFeedback:  Unlimited,
				FeatureSalaryGuide:      Unlimited,
				FeatureHRContactList:    300, // 10 HR emails per day for 30 days
			},
		},
	}
}
