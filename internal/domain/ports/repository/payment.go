package repository

import (
	"context"
	"time"

	"careerdev-subscription/internal/domain/model"
)

// PaymentRepository is the port for payment attempt records.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByTxnID(ctx context.Context, tx Tx, txnID string) (*model.Payment, error)

	// UpdateStatusIfPending transitions a payment out of pending.
	// Returns domain.ErrPaymentNotPending when the row was already
	// final, which makes callback replays harmless.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, refID string, verifiedAt *time.Time) error

	// ListPendingOlderThan feeds the reconciler with stale pendings.
	ListPendingOlderThan(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.Payment, error)
}
