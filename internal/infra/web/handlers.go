package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"careerdev-subscription/internal/domain"
	"careerdev-subscription/internal/domain/model"
	"careerdev-subscription/internal/infra/logging"
	"careerdev-subscription/internal/infra/metrics"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidPlan), errors.Is(err, domain.ErrUnknownGateway):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrVerificationFailed):
		http.Error(w, "Verification failed", http.StatusBadRequest)
	case errors.Is(err, domain.ErrLockNotAcquired):
		http.Error(w, "Another request is in progress", http.StatusTooManyRequests)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// GET /api/v1/plans
func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	plans, err := s.planUC.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	type planView struct {
		Tier       string           `json:"tier"`
		Name       string           `json:"name"`
		PricePaise int64            `json:"price_paise"`
		Currency   string           `json:"currency"`
		Limits     map[string]int64 `json:"limits"`
		Quiz30Min  bool             `json:"quiz_30min_enabled"`
	}
	out := make([]planView, 0, len(plans))
	for _, p := range plans {
		limits := make(map[string]int64, len(p.Limits))
		for f, l := range p.Limits {
			limits[string(f)] = l
		}
		out = append(out, planView{
			Tier:       string(p.Tier),
			Name:       p.Name,
			PricePaise: p.PricePaise,
			Currency:   p.Currency,
			Limits:     limits,
			Quiz30Min:  p.Quiz30MinEnabled,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/v1/subscription
func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	sub, err := s.subUC.GetOrCreate(ctx, logging.UserID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	usage := make(map[string]int64, len(sub.Usage))
	for f, n := range sub.Usage {
		usage[string(f)] = n
	}
	writeJSON(w, http.StatusOK, struct {
		Tier      string           `json:"tier"`
		StartAt   time.Time        `json:"start_at"`
		EndAt     time.Time        `json:"end_at"`
		AutoRenew bool             `json:"auto_renew"`
		Usage     map[string]int64 `json:"usage"`
		LastReset time.Time        `json:"last_reset"`
	}{
		Tier:      string(sub.Tier),
		StartAt:   sub.StartAt,
		EndAt:     sub.EndAt,
		AutoRenew: sub.AutoRenew,
		Usage:     usage,
		LastReset: sub.LastReset,
	})
}

type featureUseRequest struct {
	Prompt           string `json:"prompt"`
	ExtendedDuration bool   `json:"extended_duration"`
}

// POST /api/v1/features/{feature}
func (s *Server) handleFeatureUse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/features/"), "/")
	feature := model.Feature(name)
	if !feature.Known() {
		http.Error(w, "Unknown feature", http.StatusBadRequest)
		return
	}

	var req featureUseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	result, err := s.gateUC.Use(ctx, logging.UserID(ctx), feature, req.ExtendedDuration, func(ctx context.Context) (string, error) {
		return s.gen.Generate(ctx, req.Prompt)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if !result.Allowed {
		writeJSON(w, http.StatusPaymentRequired, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type paymentInitiateRequest struct {
	Tier    string `json:"tier"`
	Gateway string `json:"gateway"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// POST /api/v1/payments/initiate
func (s *Server) handlePaymentInitiate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req paymentInitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	p, signed, err := s.payUC.Initiate(ctx, logging.UserID(ctx), req.Email, req.Name, model.Tier(req.Tier), req.Gateway)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		TxnID    string            `json:"txn_id"`
		Gateway  string            `json:"gateway"`
		Endpoint string            `json:"endpoint"`
		Fields   map[string]string `json:"fields"`
		Headers  map[string]string `json:"headers,omitempty"`
		Status   string            `json:"status"`
	}{
		TxnID:    p.TxnID,
		Gateway:  signed.Gateway,
		Endpoint: signed.Endpoint,
		Fields:   signed.Fields,
		Headers:  signed.Headers,
		Status:   string(p.Status),
	})
}

// POST /api/v1/payments/callback/{gateway}
//
// PayU posts a form; PhonePe posts JSON with the base64 response plus
// an X-VERIFY header. Both are normalized to a flat field map before
// the use case sees them.
func (s *Server) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	gateway := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/payments/callback/"), "/")

	raw, err := s.callbackFields(gateway, r)
	if err != nil {
		http.Error(w, "Invalid callback payload", http.StatusBadRequest)
		return
	}

	start := time.Now()
	p, err := s.payUC.HandleCallback(r.Context(), gateway, raw)
	if err != nil {
		metrics.ObservePaymentVerify("fail", time.Since(start).Seconds())
		writeError(w, err)
		return
	}
	metrics.ObservePaymentVerify("ok", time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, struct {
		TxnID  string `json:"txn_id"`
		Status string `json:"status"`
	}{TxnID: p.TxnID, Status: string(p.Status)})
}

func (s *Server) callbackFields(gateway string, r *http.Request) (map[string]string, error) {
	switch gateway {
	case "phonepe":
		var body struct {
			Response string `json:"response"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, err
		}
		return map[string]string{
			"response": body.Response,
			"checksum": r.Header.Get("X-VERIFY"),
		}, nil
	default:
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		raw := make(map[string]string, len(r.PostForm))
		for k, vs := range r.PostForm {
			if len(vs) > 0 {
				raw[k] = vs[0]
			}
		}
		if len(raw) == 0 {
			return nil, fmt.Errorf("empty callback body")
		}
		return raw, nil
	}
}
