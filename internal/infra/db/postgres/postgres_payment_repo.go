package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"careerdev-subscription/internal/domain"
	"careerdev-subscription/internal/domain/model"
	"careerdev-subscription/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

const selectPaymentSQL = `
SELECT id, user_id, plan_tier, gateway, txn_id, amount_paise, currency, status, ref_id, created_at, updated_at, verified_at
  FROM payments`

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, user_id, plan_tier, gateway, txn_id, amount_paise, currency, status, ref_id, created_at, updated_at, verified_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12);`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.PlanTier, p.Gateway, p.TxnID, p.AmountPaise, p.Currency, p.Status, p.RefID, p.CreatedAt, p.UpdatedAt, p.VerifiedAt,
	)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			// txn_id carries a UNIQUE constraint; a collision surfaces
			// here and the caller regenerates the id.
			if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
				return domain.ErrAlreadyExists
			}
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *paymentRepo) FindByTxnID(ctx context.Context, tx repository.Tx, txnID string) (*model.Payment, error) {
	q := selectPaymentSQL + ` WHERE txn_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, txnID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, refID string, verifiedAt *time.Time) error {
	const q = `
UPDATE payments
   SET status=$2, ref_id=COALESCE(NULLIF($3,''), ref_id), verified_at=COALESCE($4, verified_at), updated_at=NOW()
 WHERE id=$1 AND status='pending';`
	ct, err := execSQL(ctx, r.pool, tx, q, id, status, refID, verifiedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrPaymentNotPending
	}
	return nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Payment, error) {
	const q = selectPaymentSQL + `
 WHERE status='pending' AND created_at < $1
 ORDER BY created_at ASC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, cutoff, limit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.UserID, &p.PlanTier, &p.Gateway, &p.TxnID, &p.AmountPaise, &p.Currency, &p.Status, &p.RefID, &p.CreatedAt, &p.UpdatedAt, &p.VerifiedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
