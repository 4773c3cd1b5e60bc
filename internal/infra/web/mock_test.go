//go:build !integration

package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"careerdev-subscription/internal/config"
	"careerdev-subscription/internal/domain"
	"careerdev-subscription/internal/domain/model"
	"careerdev-subscription/internal/domain/ports/adapter"
	"careerdev-subscription/internal/domain/ports/repository"
	"careerdev-subscription/internal/infra/gateway"
	"careerdev-subscription/internal/usecase"
)

const testJWTSecret = "test-secret"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:        0,
			PublicURL:   "https://career.test",
			JWTSecret:   testJWTSecret,
			MetricsPath: "/metrics",
		},
	}
}

func mintToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	return signed
}

func authed(req *http.Request, userID string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+mintToken(userID))
	return req
}

// ---- in-memory repositories ----

type fakeSubRepo struct {
	mu   sync.Mutex
	subs map[string]*model.UserSubscription
}

var _ repository.SubscriptionRepository = (*fakeSubRepo)(nil)

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{subs: make(map[string]*model.UserSubscription)}
}

func (r *fakeSubRepo) Save(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.subs[s.UserID] = &cp
	return nil
}

func (r *fakeSubRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubRepo) IncrementUsage(ctx context.Context, tx repository.Tx, userID string, feature model.Feature, limit int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if limit >= 0 && s.Usage[feature] >= limit {
		return domain.ErrQuotaExceeded
	}
	s.Usage[feature]++
	return nil
}

func (r *fakeSubRepo) ResetUsage(ctx context.Context, tx repository.Tx, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[userID]
	if !ok {
		return domain.ErrNotFound
	}
	s.ResetUsage(at)
	return nil
}

func (r *fakeSubRepo) CountByTier(ctx context.Context, tx repository.Tx) (map[model.Tier]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[model.Tier]int)
	for _, s := range r.subs {
		out[s.Tier]++
	}
	return out, nil
}

type fakePlanRepo struct {
	plans map[model.Tier]*model.PlanDefinition
}

var _ repository.PlanRepository = (*fakePlanRepo)(nil)

func newFakePlanRepo() *fakePlanRepo {
	r := &fakePlanRepo{plans: make(map[model.Tier]*model.PlanDefinition)}
	for _, p := range model.DefaultPlans() {
		r.plans[p.Tier] = p
	}
	return r
}

func (r *fakePlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.PlanDefinition) error {
	r.plans[p.Tier] = p
	return nil
}

func (r *fakePlanRepo) FindByTier(ctx context.Context, tx repository.Tx, tier model.Tier) (*model.PlanDefinition, error) {
	p, ok := r.plans[tier]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (r *fakePlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.PlanDefinition, error) {
	order := []model.Tier{model.TierFree, model.TierStarter, model.TierPro, model.TierPremium}
	var out []*model.PlanDefinition
	for _, t := range order {
		if p, ok := r.plans[t]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*model.Payment
}

var _ repository.PaymentRepository = (*fakePaymentRepo)(nil)

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]*model.Payment)}
}

func (r *fakePaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.payments[p.TxnID]; exists {
		return domain.ErrAlreadyExists
	}
	cp := *p
	r.payments[p.TxnID] = &cp
	return nil
}

func (r *fakePaymentRepo) FindByTxnID(ctx context.Context, tx repository.Tx, txnID string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[txnID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, refID string, verifiedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID != id {
			continue
		}
		if p.Status != model.PaymentStatusPending {
			return domain.ErrPaymentNotPending
		}
		p.Status = status
		if refID != "" {
			p.RefID = refID
		}
		p.VerifiedAt = verifiedAt
		return nil
	}
	return domain.ErrNotFound
}

func (r *fakePaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Payment, error) {
	return nil, nil
}

// ---- locker and generator ----

type fakeLocker struct{}

func (fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "token", nil
}
func (fakeLocker) Unlock(ctx context.Context, key, token string) error { return nil }

type fakeGenerator struct {
	out string
	err error
}

var _ adapter.ContentGenerator = (*fakeGenerator)(nil)

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.out, g.err
}

// newTestServer wires a full server on in-memory repositories with real
// PayU/PhonePe signers.
func newTestServer() (*Server, *fakeSubRepo, *fakePaymentRepo) {
	logger := zerolog.Nop()
	subRepo := newFakeSubRepo()
	planRepo := newFakePlanRepo()
	payRepo := newFakePaymentRepo()

	payu, _ := gateway.NewPayUSigner("merchant-key", "merchant-salt", "")
	phonepe, _ := gateway.NewPhonePeSigner("MERCHANTUAT", "salt-key-1", "1", "")
	registry := gateway.NewRegistry(payu, phonepe)

	subUC := usecase.NewSubscriptionUseCase(subRepo, planRepo, &logger)
	gateUC := usecase.NewGateUseCase(subUC, fakeLocker{}, &logger)
	planUC := usecase.NewPlanUseCase(planRepo)
	payUC := usecase.NewPaymentUseCase(payRepo, planRepo, subUC, registry, nil, "https://career.test", &logger)

	srv := NewServer(testConfig(), gateUC, subUC, planUC, payUC, &fakeGenerator{out: "generated"}, &logger)
	return srv, subRepo, payRepo
}
