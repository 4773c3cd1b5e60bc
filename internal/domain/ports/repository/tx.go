package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via `tx`. Repository methods accept a
// `tx repository.Tx` and must gracefully accept nil (non-transactional
// path); the concrete type is infra-defined (pgx.Tx for Postgres).
//
// The payment callback path relies on this to flip a pending payment
// and apply the subscription upgrade atomically.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
