package sched

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"careerdev-subscription/internal/domain/ports/adapter"
	"careerdev-subscription/internal/usecase"
)

// PaymentReconciler periodically scans for stale pending payments and
// tries to finalize them through the gateway's status API. This covers
// the cases where the browser redirect never arrived or the process
// crashed mid-callback. Gateways without a status API (PayU) are
// skipped; their pendings stay until a callback or manual review.
type PaymentReconciler struct {
	uc         *usecase.PaymentUseCase
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to retry
	client     *http.Client
	log        *zerolog.Logger
}

func NewPaymentReconciler(uc *usecase.PaymentUseCase, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	compLog := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{
		uc:         uc,
		interval:   interval,
		staleAfter: staleAfter,
		client:     &http.Client{Timeout: 15 * time.Second},
		log:        &compLog,
	}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	w.log.Info().Msg("Starting payment reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment reconciler")
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	pending, err := w.uc.ListStalePending(ctx, w.staleAfter, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("list pending failed")
		return
	}
	for _, p := range pending {
		signer, err := w.uc.Signer(p.Gateway)
		if err != nil {
			continue
		}
		poller, ok := signer.(adapter.StatusPoller)
		if !ok {
			// no status API for this gateway
			continue
		}
		cb, err := w.poll(ctx, poller, p.TxnID)
		if err != nil {
			w.log.Warn().Str("txn_id", p.TxnID).Err(err).Msg("status poll failed")
			continue
		}
		if _, err := w.uc.Reconcile(ctx, cb); err != nil {
			w.log.Warn().Str("txn_id", p.TxnID).Err(err).Msg("reconcile failed")
			continue
		}
		w.log.Info().Str("txn_id", p.TxnID).Str("status", cb.Status).Msg("payment reconciled")
	}
}

func (w *PaymentReconciler) poll(ctx context.Context, poller adapter.StatusPoller, txnID string) (*adapter.Callback, error) {
	probe, err := poller.BuildStatusProbe(txnID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probe.Endpoint, bytes.NewReader(nil))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range probe.Headers {
		req.Header.Set(k, v)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return poller.ParseStatusResponse(body)
}
