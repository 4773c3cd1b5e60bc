package gateway

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"careerdev-subscription/internal/domain"
	"careerdev-subscription/internal/domain/ports/adapter"
)

// Compile-time checks
var (
	_ adapter.GatewaySigner = (*PhonePeSigner)(nil)
	_ adapter.StatusPoller  = (*PhonePeSigner)(nil)
)

// PhonePeSigner implements the PhonePe checksum scheme:
//
//	X-VERIFY = sha256(base64(payload) + endpoint + saltKey) + "###" + saltIndex
//
// Callbacks carry the response payload base64-encoded with the checksum
// computed over the payload alone (empty endpoint). PhonePe also
// exposes a status API, so the signer doubles as a StatusPoller.
type PhonePeSigner struct {
	merchantID string
	saltKey    string
	saltIndex  string
	baseURL    string
}

func NewPhonePeSigner(merchantID, saltKey, saltIndex, baseURL string) (*PhonePeSigner, error) {
	if merchantID == "" || saltKey == "" {
		return nil, domain.ErrMissingSecret
	}
	if saltIndex == "" {
		saltIndex = "1"
	}
	if baseURL == "" {
		baseURL = "https://api.phonepe.com/apis/hermes"
	}
	return &PhonePeSigner{merchantID: merchantID, saltKey: saltKey, saltIndex: saltIndex, baseURL: baseURL}, nil
}

func (s *PhonePeSigner) Name() string { return "phonepe" }

func (s *PhonePeSigner) NewTransactionID() string { return newTransactionID(time.Now()) }

func (s *PhonePeSigner) checksum(payload, endpoint string) string {
	sum := sha256.Sum256([]byte(payload + endpoint + s.saltKey))
	return hex.EncodeToString(sum[:]) + "###" + s.saltIndex
}

type phonePePayload struct {
	MerchantID            string `json:"merchantId"`
	MerchantTransactionID string `json:"merchantTransactionId"`
	MerchantUserID        string `json:"merchantUserId"`
	Amount                int64  `json:"amount"` // paise
	RedirectURL           string `json:"redirectUrl"`
	RedirectMode          string `json:"redirectMode"`
	CallbackURL           string `json:"callbackUrl"`
	PaymentInstrument     struct {
		Type string `json:"type"`
	} `json:"paymentInstrument"`
}

type phonePeResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantID            string `json:"merchantId"`
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		State                 string `json:"state"`
	} `json:"data"`
}

const phonePePayEndpoint = "/pg/v1/pay"

func (s *PhonePeSigner) BuildRequest(intent adapter.PaymentIntent) (*adapter.SignedRequest, error) {
	if intent.TxnID == "" || intent.UserID == "" {
		return nil, domain.ErrInvalidArgument
	}
	p := phonePePayload{
		MerchantID:            s.merchantID,
		MerchantTransactionID: intent.TxnID,
		MerchantUserID:        intent.UserID,
		Amount:                intent.AmountPaise,
		RedirectURL:           intent.SuccessURL,
		RedirectMode:          "POST",
		CallbackURL:           intent.SuccessURL,
	}
	p.PaymentInstrument.Type = "PAY_PAGE"

	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal phonepe payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	xVerify := s.checksum(encoded, phonePePayEndpoint)

	return &adapter.SignedRequest{
		Gateway:  s.Name(),
		TxnID:    intent.TxnID,
		Endpoint: s.baseURL + phonePePayEndpoint,
		Fields:   map[string]string{"request": encoded},
		Headers: map[string]string{
			"Content-Type": "application/json",
			"X-VERIFY":     xVerify,
		},
		Signature: xVerify,
	}, nil
}

// ParseCallback decodes the base64 response PhonePe posts back. The
// X-VERIFY header travels in raw["checksum"].
func (s *PhonePeSigner) ParseCallback(raw map[string]string) (*adapter.Callback, error) {
	encoded := raw["response"]
	if encoded == "" {
		return nil, domain.ErrInvalidArgument
	}
	body, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode phonepe response: %w", err)
	}
	var resp phonePeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse phonepe response: %w", err)
	}
	status := "failure"
	if resp.Success && resp.Code == "PAYMENT_SUCCESS" {
		status = "success"
	}
	return &adapter.Callback{
		Gateway:   s.Name(),
		TxnID:     resp.Data.MerchantTransactionID,
		Status:    status,
		RefID:     resp.Data.TransactionID,
		Fields:    raw,
		Signature: raw["checksum"],
	}, nil
}

// VerifyCallback recomputes the checksum over the still-encoded payload.
// Decoding first and re-encoding would not round-trip reliably, so the
// original base64 string is what gets hashed.
func (s *PhonePeSigner) VerifyCallback(cb *adapter.Callback) bool {
	if cb == nil || cb.Signature == "" {
		return false
	}
	encoded := cb.Fields["response"]
	if encoded == "" {
		return false
	}
	want := s.checksum(encoded, "")
	return subtle.ConstantTimeCompare([]byte(want), []byte(cb.Signature)) == 1
}

// BuildStatusProbe signs a GET against the status endpoint. The
// checksum for a bodyless request covers the endpoint path alone.
func (s *PhonePeSigner) BuildStatusProbe(txnID string) (*adapter.SignedRequest, error) {
	if txnID == "" {
		return nil, domain.ErrInvalidArgument
	}
	endpoint := fmt.Sprintf("/pg/v1/status/%s/%s", s.merchantID, txnID)
	xVerify := s.checksum("", endpoint)
	return &adapter.SignedRequest{
		Gateway:  s.Name(),
		TxnID:    txnID,
		Endpoint: s.baseURL + endpoint,
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"X-VERIFY":      xVerify,
			"X-MERCHANT-ID": s.merchantID,
		},
		Signature: xVerify,
	}, nil
}

func (s *PhonePeSigner) ParseStatusResponse(body []byte) (*adapter.Callback, error) {
	var resp phonePeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse phonepe status response: %w", err)
	}
	status := "failure"
	if resp.Success && resp.Code == "PAYMENT_SUCCESS" {
		status = "success"
	}
	if resp.Code == "PAYMENT_PENDING" {
		status = "pending"
	}
	return &adapter.Callback{
		Gateway: s.Name(),
		TxnID:   resp.Data.MerchantTransactionID,
		Status:  status,
		RefID:   resp.Data.TransactionID,
	}, nil
}
