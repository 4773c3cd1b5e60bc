package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"careerdev-subscription/internal/domain"
	"careerdev-subscription/internal/domain/model"
	"careerdev-subscription/internal/domain/ports/adapter"
	"careerdev-subscription/internal/domain/ports/repository"
	"careerdev-subscription/internal/infra/metrics"
)

// GatewayRegistry resolves a configured signer by gateway name.
type GatewayRegistry interface {
	Get(name string) (adapter.GatewaySigner, error)
	Names() []string
}

// PaymentUseCase owns the payment lifecycle: build a signed initiation
// request, persist it as pending, and reconcile the gateway's callback
// into a verified (or failed) payment plus the subscription upgrade.
type PaymentUseCase struct {
	payments repository.PaymentRepository
	plans    repository.PlanRepository
	subs     *SubscriptionUseCase
	gateways GatewayRegistry
	tm       repository.TransactionManager
	cbBase   string // public base URL the gateway redirects back to
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	plans repository.PlanRepository,
	subs *SubscriptionUseCase,
	gateways GatewayRegistry,
	tm repository.TransactionManager,
	callbackBase string,
	logger *zerolog.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		payments: payments,
		plans:    plans,
		subs:     subs,
		gateways: gateways,
		tm:       tm,
		cbBase:   callbackBase,
		log:      logger,
	}
}

// Initiate builds the signed field set for an upgrade purchase and
// persists the pending payment before any redirect material is handed
// out. The transaction id is generated locally, first.
func (uc *PaymentUseCase) Initiate(ctx context.Context, userID, email, name string, tier model.Tier, gatewayName string) (*model.Payment, *adapter.SignedRequest, error) {
	if !tier.Known() {
		return nil, nil, domain.ErrInvalidPlan
	}
	plan, err := uc.plans.FindByTier(ctx, nil, tier)
	if err != nil {
		return nil, nil, err
	}
	if plan.PricePaise <= 0 {
		// the free tier is not purchasable
		return nil, nil, domain.ErrInvalidPlan
	}
	signer, err := uc.gateways.Get(gatewayName)
	if err != nil {
		return nil, nil, err
	}

	txnID := signer.NewTransactionID()
	req, err := signer.BuildRequest(adapter.PaymentIntent{
		TxnID:       txnID,
		UserID:      userID,
		PlanTier:    string(tier),
		AmountPaise: plan.PricePaise,
		Email:       email,
		FirstName:   name,
		SuccessURL:  uc.callbackURL(signer.Name(), "success", txnID),
		FailureURL:  uc.callbackURL(signer.Name(), "failure", txnID),
	})
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	p := &model.Payment{
		ID:          uuid.NewString(),
		UserID:      userID,
		PlanTier:    tier,
		Gateway:     signer.Name(),
		TxnID:       txnID,
		AmountPaise: plan.PricePaise,
		Currency:    plan.Currency,
		Status:      model.PaymentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.payments.Save(ctx, nil, p); err != nil {
		return nil, nil, err
	}
	metrics.IncPayment("initiated")
	uc.log.Info().Str("txn_id", txnID).Str("gateway", signer.Name()).Str("plan", string(tier)).Msg("payment initiated")
	return p, req, nil
}

func (uc *PaymentUseCase) callbackURL(gateway, status, txnID string) string {
	return fmt.Sprintf("%s/api/v1/payments/callback/%s?status=%s&platform=career-dev&txnid=%s", uc.cbBase, gateway, status, txnID)
}

// HandleCallback reconciles a gateway's report of an outcome. The
// signature is checked first and decides everything: an unverified
// callback changes no state no matter what status it claims. A verified
// callback consumes the pending payment exactly once; replays see the
// already-final record and are no-ops.
func (uc *PaymentUseCase) HandleCallback(ctx context.Context, gatewayName string, raw map[string]string) (*model.Payment, error) {
	signer, err := uc.gateways.Get(gatewayName)
	if err != nil {
		return nil, err
	}
	cb, err := signer.ParseCallback(raw)
	if err != nil {
		metrics.IncPaymentVerify("fail", "bad_fields")
		return nil, err
	}
	if !signer.VerifyCallback(cb) {
		metrics.IncPaymentVerify("fail", "signature_mismatch")
		uc.log.Warn().Str("txn_id", cb.TxnID).Str("gateway", gatewayName).Str("claimed_status", cb.Status).
			Msg("callback signature mismatch; discarding")
		return nil, domain.ErrVerificationFailed
	}
	metrics.IncPaymentVerify("ok", "")

	p, err := uc.payments.FindByTxnID(ctx, nil, cb.TxnID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PaymentStatusPending {
		// already reconciled; report the final state
		return p, nil
	}
	if cb.Fields != nil {
		if echoed, ok := cb.Fields["amount"]; ok && echoed != "" && echoed != amountFieldFor(p) {
			metrics.IncPaymentVerify("fail", "amount_mismatch")
			return nil, domain.ErrVerificationFailed
		}
	}
	return uc.resolve(ctx, p, cb)
}

// amountFieldFor renders the stored amount the way the gateway echoes
// it, for the cross-check against the callback.
func amountFieldFor(p *model.Payment) string {
	d := p.AmountPaise / 100
	c := p.AmountPaise % 100
	return fmt.Sprintf("%d.%02d", d, c)
}

// Reconcile applies a status-poll outcome obtained by the reconciler.
// The probe response came over our own authenticated request, so there
// is no callback signature to check; pending poll results are skipped.
func (uc *PaymentUseCase) Reconcile(ctx context.Context, cb *adapter.Callback) (*model.Payment, error) {
	if cb.Status == "pending" {
		return nil, nil
	}
	p, err := uc.payments.FindByTxnID(ctx, nil, cb.TxnID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PaymentStatusPending {
		return p, nil
	}
	return uc.resolve(ctx, p, cb)
}

// resolve flips the pending payment and, on success, applies the tier
// upgrade. Both run in one transaction when a manager is wired.
func (uc *PaymentUseCase) resolve(ctx context.Context, p *model.Payment, cb *adapter.Callback) (*model.Payment, error) {
	now := time.Now()
	if cb.Status != "success" {
		if err := uc.payments.UpdateStatusIfPending(ctx, nil, p.ID, model.PaymentStatusFailed, cb.RefID, nil); err != nil {
			if errors.Is(err, domain.ErrPaymentNotPending) {
				return uc.payments.FindByTxnID(ctx, nil, p.TxnID)
			}
			return nil, err
		}
		metrics.IncPayment("failed")
		p.Status = model.PaymentStatusFailed
		p.RefID = cb.RefID
		p.UpdatedAt = now
		return p, nil
	}

	apply := func(ctx context.Context, tx repository.Tx) error {
		if err := uc.payments.UpdateStatusIfPending(ctx, tx, p.ID, model.PaymentStatusVerified, cb.RefID, &now); err != nil {
			return err
		}
		return uc.subs.Upgrade(ctx, tx, p.UserID, p.PlanTier)
	}

	var err error
	if uc.tm != nil {
		err = uc.tm.WithTx(ctx, pgx.TxOptions{}, apply)
	} else {
		err = apply(ctx, nil)
	}
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotPending) {
			return uc.payments.FindByTxnID(ctx, nil, p.TxnID)
		}
		return nil, err
	}
	metrics.IncPayment("verified")
	p.Status = model.PaymentStatusVerified
	p.RefID = cb.RefID
	p.VerifiedAt = &now
	p.UpdatedAt = now
	uc.log.Info().Str("txn_id", p.TxnID).Str("plan", string(p.PlanTier)).Msg("payment verified and subscription applied")
	return p, nil
}

// ListStalePending feeds the reconciler.
func (uc *PaymentUseCase) ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]*model.Payment, error) {
	return uc.payments.ListPendingOlderThan(ctx, nil, time.Now().Add(-olderThan), limit)
}

// Signer exposes the registry for callers that need to build probes.
func (uc *PaymentUseCase) Signer(name string) (adapter.GatewaySigner, error) {
	return uc.gateways.Get(name)
}
