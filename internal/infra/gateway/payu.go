package gateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"careerdev-subscription/internal/domain"
	"careerdev-subscription/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.GatewaySigner = (*PayUSigner)(nil)

// PayUSigner implements the PayU hash formulas.
//
// Request:  sha512(key|txnid|amount|productinfo|firstname|email|udf1|udf2|udf3|udf4|udf5||||||salt)
// Callback: sha512(salt|status||||||udf5|udf4|udf3|udf2|udf1|email|firstname|productinfo|amount|txnid|key)
//
// The two orderings are documented separately by PayU and are not
// mirror images of each other.
type PayUSigner struct {
	key     string
	salt    string
	baseURL string
}

func NewPayUSigner(key, salt, baseURL string) (*PayUSigner, error) {
	if key == "" || salt == "" {
		return nil, domain.ErrMissingSecret
	}
	if baseURL == "" {
		baseURL = "https://secure.payu.in/_payment"
	}
	return &PayUSigner{key: key, salt: salt, baseURL: baseURL}, nil
}

func (s *PayUSigner) Name() string { return "payu" }

func (s *PayUSigner) NewTransactionID() string { return newTransactionID(time.Now()) }

func sha512Hex(in string) string {
	sum := sha512.Sum512([]byte(in))
	return hex.EncodeToString(sum[:])
}

// amountString renders paise the way PayU expects the amount field:
// a decimal rupee string, e.g. 10900 -> "109.00".
func amountString(paise int64) string {
	return decimal.New(paise, -2).StringFixed(2)
}

func (s *PayUSigner) requestHash(txnid, amount, productinfo, firstname, email string, udf [5]string) string {
	parts := []string{
		s.key, txnid, amount, productinfo, firstname, email,
		udf[0], udf[1], udf[2], udf[3], udf[4],
		"", "", "", "", "",
		s.salt,
	}
	return sha512Hex(strings.Join(parts, "|"))
}

func (s *PayUSigner) callbackHash(status, txnid, amount, productinfo, firstname, email string, udf [5]string) string {
	parts := []string{
		s.salt, status,
		"", "", "", "", "",
		udf[4], udf[3], udf[2], udf[1], udf[0],
		email, firstname, productinfo, amount, txnid, s.key,
	}
	return sha512Hex(strings.Join(parts, "|"))
}

// BuildRequest assembles the PayU form field set. The five user-defined
// fields carry plan, user, platform tag, txn reference and transaction
// type so the callback can be reconciled without extra lookups.
func (s *PayUSigner) BuildRequest(intent adapter.PaymentIntent) (*adapter.SignedRequest, error) {
	if intent.TxnID == "" || intent.Email == "" {
		return nil, domain.ErrInvalidArgument
	}
	firstname := intent.FirstName
	if firstname == "" {
		firstname = "User"
	}
	amount := amountString(intent.AmountPaise)
	productinfo := "CareerDev-" + intent.PlanTier
	udf := [5]string{intent.PlanTier, intent.UserID, "career-dev", intent.TxnID, "subscription"}

	hash := s.requestHash(intent.TxnID, amount, productinfo, firstname, intent.Email, udf)
	fields := map[string]string{
		"key":              s.key,
		"txnid":            intent.TxnID,
		"amount":           amount,
		"productinfo":      productinfo,
		"firstname":        firstname,
		"email":            intent.Email,
		"phone":            "",
		"surl":             intent.SuccessURL,
		"furl":             intent.FailureURL,
		"service_provider": "payu_paisa",
		"udf1":             udf[0],
		"udf2":             udf[1],
		"udf3":             udf[2],
		"udf4":             udf[3],
		"udf5":             udf[4],
		"hash":             hash,
	}
	return &adapter.SignedRequest{
		Gateway:   s.Name(),
		TxnID:     intent.TxnID,
		Endpoint:  s.baseURL,
		Fields:    fields,
		Signature: hash,
	}, nil
}

// ParseCallback lifts the raw form post into a normalized Callback.
// Every echoed field stays available for the hash recompute.
func (s *PayUSigner) ParseCallback(raw map[string]string) (*adapter.Callback, error) {
	txnid := raw["txnid"]
	if txnid == "" {
		return nil, domain.ErrInvalidArgument
	}
	status := raw["status"]
	if status == "" {
		status = "failure"
	}
	return &adapter.Callback{
		Gateway:   s.Name(),
		TxnID:     txnid,
		Status:    status,
		RefID:     raw["mihpayid"],
		Fields:    raw,
		Signature: raw["hash"],
	}, nil
}

// VerifyCallback recomputes the reverse-order digest over the echoed
// fields and compares it to the supplied signature in constant time.
// The reported status participates in the hash but not in the decision:
// a tampered status flips the digest and the callback fails closed.
func (s *PayUSigner) VerifyCallback(cb *adapter.Callback) bool {
	if cb == nil || cb.Signature == "" {
		return false
	}
	f := cb.Fields
	udf := [5]string{f["udf1"], f["udf2"], f["udf3"], f["udf4"], f["udf5"]}
	want := s.callbackHash(f["status"], f["txnid"], f["amount"], f["productinfo"], f["firstname"], f["email"], udf)
	got := strings.ToLower(cb.Signature)
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
