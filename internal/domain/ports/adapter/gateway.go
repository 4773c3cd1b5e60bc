package adapter

// PaymentIntent carries everything a gateway signer needs to build a
// signed initiation request. The txn id is generated first, via
// GatewaySigner.NewTransactionID, and passed in here.
type PaymentIntent struct {
	TxnID       string
	UserID      string
	PlanTier    string
	AmountPaise int64
	Email       string
	FirstName   string
	SuccessURL  string
	FailureURL  string
}

// SignedRequest is the fully-formed, signed field set for one gateway.
// The surrounding system transmits it (form POST for PayU, JSON body +
// X-VERIFY header for PhonePe); the core only builds and signs it.
type SignedRequest struct {
	Gateway   string
	TxnID     string
	Endpoint  string            // gateway URL or API path to submit to
	Fields    map[string]string // form fields (PayU) or request body entries (PhonePe)
	Headers   map[string]string // extra headers (PhonePe X-VERIFY); nil for PayU
	Signature string            // the computed hash, also present in Fields/Headers
}

// Callback is a gateway's report of an outcome, normalized across
// providers. Raw echoed fields stay available for the hash recompute.
type Callback struct {
	Gateway   string
	TxnID     string
	Status    string // "success" | "failure" | raw gateway value
	RefID     string // gateway payment id, if echoed
	Fields    map[string]string
	Signature string
}

// GatewaySigner is the strategy port for one payment provider's hash
// formulas. Each provider documents its own request and callback field
// orderings; they are not mirror images, so each implementation encodes
// both independently. Signing and verification are pure: no I/O, no
// side effects, safe for concurrent use.
type GatewaySigner interface {
	Name() string

	// NewTransactionID produces a locally unique transaction id
	// (timestamp + random component under a namespace prefix).
	NewTransactionID() string

	// BuildRequest computes the request-formula signature over the
	// intent and returns the complete field set to transmit.
	BuildRequest(intent PaymentIntent) (*SignedRequest, error)

	// ParseCallback extracts the normalized callback from the raw
	// key/value fields the gateway posted back.
	ParseCallback(raw map[string]string) (*Callback, error)

	// VerifyCallback recomputes the callback-formula digest and reports
	// whether it matches the supplied signature. The reported status
	// plays no part in the result: a callback claiming success still
	// fails verification if the hash does not match.
	VerifyCallback(cb *Callback) bool
}

// StatusPoller is implemented by gateways that expose a server-side
// status API. The reconciler uses it to finalize stale pending payments
// whose browser redirect never arrived. PayU has no such API; PhonePe
// does.
type StatusPoller interface {
	// BuildStatusProbe returns the signed request for a status poll.
	BuildStatusProbe(txnID string) (*SignedRequest, error)
	// ParseStatusResponse maps the poll response body onto a Callback.
	ParseStatusResponse(body []byte) (*Callback, error)
}
