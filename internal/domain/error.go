package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidPlan        = errors.New("invalid subscription plan")
	ErrQuotaExceeded      = errors.New("feature quota exceeded")
	ErrVerificationFailed = errors.New("payment signature verification failed")
	ErrPaymentNotPending  = errors.New("payment is not pending")
	ErrUnknownGateway     = errors.New("unknown payment gateway")
	ErrMissingSecret      = errors.New("payment gateway secret not configured")
	ErrLockNotAcquired    = errors.New("could not acquire user lock")

	// Infra-level errors surfaced by repositories
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid transaction execution context")
)
