//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"careerdev-subscription/internal/domain"
	"careerdev-subscription/internal/domain/model"
	"careerdev-subscription/internal/domain/ports/adapter"
	"careerdev-subscription/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// =============================
// Repositories
// =============================

// ---- Mock SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]*model.UserSubscription

	SaveFunc           func(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error
	FindByUserFunc     func(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscription, error)
	IncrementUsageFunc func(ctx context.Context, tx repository.Tx, userID string, feature model.Feature, limit int64) error
	ResetUsageFunc     func(ctx context.Context, tx repository.Tx, userID string, at time.Time) error
	CountByTierFunc    func(ctx context.Context, tx repository.Tx) (map[model.Tier]int, error)
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{subs: make(map[string]*model.UserSubscription)}
}

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.subs[s.UserID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscription, error) {
	if m.FindByUserFunc != nil {
		return m.FindByUserFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) IncrementUsage(ctx context.Context, tx repository.Tx, userID string, feature model.Feature, limit int64) error {
	if m.IncrementUsageFunc != nil {
		return m.IncrementUsageFunc(ctx, tx, userID, feature, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if limit >= 0 && s.Usage[feature] >= limit {
		return domain.ErrQuotaExceeded
	}
	s.Usage[feature]++
	return nil
}

func (m *MockSubscriptionRepo) ResetUsage(ctx context.Context, tx repository.Tx, userID string, at time.Time) error {
	if m.ResetUsageFunc != nil {
		return m.ResetUsageFunc(ctx, tx, userID, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[userID]
	if !ok {
		return domain.ErrNotFound
	}
	s.ResetUsage(at)
	return nil
}

func (m *MockSubscriptionRepo) CountByTier(ctx context.Context, tx repository.Tx) (map[model.Tier]int, error) {
	if m.CountByTierFunc != nil {
		return m.CountByTierFunc(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[model.Tier]int)
	for _, s := range m.subs {
		out[s.Tier]++
	}
	return out, nil
}

// stored returns the live record for assertions.
func (m *MockSubscriptionRepo) stored(userID string) *model.UserSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[userID]
}

// ---- Mock PlanRepository ----

type MockPlanRepo struct {
	mu    sync.Mutex
	plans map[model.Tier]*model.PlanDefinition

	FindByTierFunc func(ctx context.Context, tx repository.Tx, tier model.Tier) (*model.PlanDefinition, error)
	ListAllFunc    func(ctx context.Context, tx repository.Tx) ([]*model.PlanDefinition, error)
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{plans: make(map[model.Tier]*model.PlanDefinition)}
}

// NewMockPlanRepoWithDefaults returns a plan repo pre-loaded with the
// standard catalog.
func NewMockPlanRepoWithDefaults() *MockPlanRepo {
	m := NewMockPlanRepo()
	for _, p := range model.DefaultPlans() {
		m.plans[p.Tier] = p
	}
	return m
}

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.PlanDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[plan.Tier] = plan
	return nil
}

func (m *MockPlanRepo) FindByTier(ctx context.Context, tx repository.Tx, tier model.Tier) (*model.PlanDefinition, error) {
	if m.FindByTierFunc != nil {
		return m.FindByTierFunc(ctx, tx, tier)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[tier]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *MockPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.PlanDefinition, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order := []model.Tier{model.TierFree, model.TierStarter, model.TierPro, model.TierPremium}
	var out []*model.PlanDefinition
	for _, t := range order {
		if p, ok := m.plans[t]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ---- Mock PaymentRepository ----

type MockPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*model.Payment // by txn id

	SaveFunc                  func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	FindByTxnIDFunc           func(ctx context.Context, tx repository.Tx, txnID string) (*model.Payment, error)
	UpdateStatusIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, refID string, verifiedAt *time.Time) error
	ListPendingOlderThanFunc  func(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Payment, error)
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{payments: make(map[string]*model.Payment)}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.payments[p.TxnID]; exists {
		return domain.ErrAlreadyExists
	}
	cp := *p
	m.payments[p.TxnID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByTxnID(ctx context.Context, tx repository.Tx, txnID string) (*model.Payment, error) {
	if m.FindByTxnIDFunc != nil {
		return m.FindByTxnIDFunc(ctx, tx, txnID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[txnID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, refID string, verifiedAt *time.Time) error {
	if m.UpdateStatusIfPendingFunc != nil {
		return m.UpdateStatusIfPendingFunc(ctx, tx, id, status, refID, verifiedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
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
		p.UpdatedAt = time.Now()
		return nil
	}
	return domain.ErrNotFound
}

func (m *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Payment, error) {
	if m.ListPendingOlderThanFunc != nil {
		return m.ListPendingOlderThanFunc(ctx, tx, cutoff, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.payments {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(cutoff) {
			cp := *p
			out = append(out, &cp)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) stored(txnID string) *model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[txnID]
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}

// =============================
// Adapters
// =============================

// ---- Mock UserLocker ----

type MockLocker struct {
	mu     sync.Mutex
	locked map[string]string

	TryLockFunc func(ctx context.Context, key string, ttl time.Duration) (string, error)
	UnlockFunc  func(ctx context.Context, key, token string) error
}

func NewMockLocker() *MockLocker {
	return &MockLocker{locked: make(map[string]string)}
}

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.TryLockFunc != nil {
		return m.TryLockFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locked[key]; held {
		return "", domain.ErrLockNotAcquired
	}
	m.locked[key] = "token"
	return "token", nil
}

func (m *MockLocker) Unlock(ctx context.Context, key, token string) error {
	if m.UnlockFunc != nil {
		return m.UnlockFunc(ctx, key, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locked, key)
	return nil
}

// ---- Mock GatewaySigner ----

type MockSigner struct {
	NameVal string

	NewTransactionIDFunc func() string
	BuildRequestFunc     func(intent adapter.PaymentIntent) (*adapter.SignedRequest, error)
	ParseCallbackFunc    func(raw map[string]string) (*adapter.Callback, error)
	VerifyCallbackFunc   func(cb *adapter.Callback) bool
}

var _ adapter.GatewaySigner = (*MockSigner)(nil)

func (m *MockSigner) Name() string { return m.NameVal }

func (m *MockSigner) NewTransactionID() string {
	if m.NewTransactionIDFunc != nil {
		return m.NewTransactionIDFunc()
	}
	return "CAREER_1000_aaaaaa"
}

func (m *MockSigner) BuildRequest(intent adapter.PaymentIntent) (*adapter.SignedRequest, error) {
	if m.BuildRequestFunc != nil {
		return m.BuildRequestFunc(intent)
	}
	return &adapter.SignedRequest{
		Gateway:   m.NameVal,
		TxnID:     intent.TxnID,
		Endpoint:  "https://gateway.test/pay",
		Fields:    map[string]string{"txnid": intent.TxnID},
		Signature: "sig",
	}, nil
}

func (m *MockSigner) ParseCallback(raw map[string]string) (*adapter.Callback, error) {
	if m.ParseCallbackFunc != nil {
		return m.ParseCallbackFunc(raw)
	}
	return &adapter.Callback{
		Gateway:   m.NameVal,
		TxnID:     raw["txnid"],
		Status:    raw["status"],
		RefID:     raw["refid"],
		Fields:    raw,
		Signature: raw["hash"],
	}, nil
}

func (m *MockSigner) VerifyCallback(cb *adapter.Callback) bool {
	if m.VerifyCallbackFunc != nil {
		return m.VerifyCallbackFunc(cb)
	}
	return true
}

// ---- Mock GatewayRegistry ----

type MockRegistry struct {
	signers map[string]adapter.GatewaySigner
}

func NewMockRegistry(signers ...adapter.GatewaySigner) *MockRegistry {
	m := &MockRegistry{signers: make(map[string]adapter.GatewaySigner)}
	for _, s := range signers {
		m.signers[s.Name()] = s
	}
	return m
}

func (m *MockRegistry) Get(name string) (adapter.GatewaySigner, error) {
	s, ok := m.signers[name]
	if !ok {
		return nil, domain.ErrUnknownGateway
	}
	return s, nil
}

func (m *MockRegistry) Names() []string {
	out := make([]string, 0, len(m.signers))
	for n := range m.signers {
		out = append(out, n)
	}
	return out
}
