package gateway

import (
	"crypto/rand"
	"fmt"
	"time"
)

const txnAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newTransactionID produces "CAREER_<unix-millis>_<6 random base36 chars>".
// Uniqueness is probabilistic; the payments table carries a UNIQUE
// constraint on txn_id so the negligible collision case surfaces as an
// insert error before any redirect happens.
func newTransactionID(now time.Time) string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the platform RNG is broken; fall
		// back to a time-derived suffix rather than panicking mid-request.
		nano := now.UnixNano()
		for i := range b {
			b[i] = byte(nano >> (i * 8))
		}
	}
	for i := range b {
		b[i] = txnAlphabet[int(b[i])%len(txnAlphabet)]
	}
	return fmt.Sprintf("CAREER_%d_%s", now.UnixMilli(), string(b[:]))
}
