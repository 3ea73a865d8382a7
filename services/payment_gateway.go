package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"stylefit/models"
	"stylefit/resilience"
)

// PaymentRequest mirrors the fields the hosted checkout expects.
type PaymentRequest struct {
	PG          string `json:"pg"`
	PayMethod   string `json:"pay_method"`
	MerchantUID string `json:"merchant_uid"`
	Name        string `json:"name"`
	Amount      int    `json:"amount"`
	BuyerEmail  string `json:"buyer_email"`
	BuyerName   string `json:"buyer_name"`
	BuyerTel    string `json:"buyer_tel"`
}

type PaymentResult struct {
	Success  bool   `json:"success"`
	ErrorMsg string `json:"error_msg,omitempty"`
}

type PaymentGateway interface {
	RequestPay(ctx context.Context, req PaymentRequest) (PaymentResult, error)
}

// HTTPPaymentGateway posts payment requests to a gateway endpoint. Transport
// failures are retried and tracked by a circuit breaker; a decline is a normal result.
type HTTPPaymentGateway struct {
	baseURL  string
	client   *http.Client
	breaker  *resilience.CircuitBreaker
	attempts int
	backoff  time.Duration
	logger   *zap.Logger
}

func NewHTTPPaymentGateway(baseURL string, logger *zap.Logger) *HTTPPaymentGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPPaymentGateway{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 15 * time.Second},
		breaker:  resilience.NewCircuitBreaker(5, 30*time.Second, logger),
		attempts: 3,
		backoff:  300 * time.Millisecond,
		logger:   logger,
	}
}

func (g *HTTPPaymentGateway) RequestPay(ctx context.Context, req PaymentRequest) (PaymentResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return PaymentResult{}, err
	}

	var result PaymentResult
	err = g.breaker.Execute(func() error {
		return resilience.Retry(ctx, g.attempts, g.backoff, g.logger, func() error {
			r, err := g.post(ctx, body)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
	})
	if err != nil {
		return PaymentResult{}, fmt.Errorf("%w: payment gateway: %v", models.ErrServiceUnavailable, err)
	}
	return result, nil
}

func (g *HTTPPaymentGateway) post(ctx context.Context, body []byte) (PaymentResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return PaymentResult{}, &resilience.Permanent{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return PaymentResult{}, fmt.Errorf("payment request error: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return PaymentResult{}, fmt.Errorf("read payment response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return PaymentResult{}, fmt.Errorf("payment gateway error (%d): %s", resp.StatusCode, preview(respBytes))
	}

	var out PaymentResult
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return PaymentResult{}, &resilience.Permanent{
			Err: fmt.Errorf("decode payment response: %v | body: %s", err, preview(respBytes)),
		}
	}
	if resp.StatusCode != http.StatusOK && out.Success {
		out.Success = false
	}
	if !out.Success && out.ErrorMsg == "" {
		out.ErrorMsg = fmt.Sprintf("payment failed with status %d", resp.StatusCode)
	}
	return out, nil
}

func preview(b []byte) string {
	s := string(b)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
