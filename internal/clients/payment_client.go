package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/freshmart/grocery-api/pkg/circuitbreaker"
	"github.com/freshmart/grocery-api/pkg/errors"
	"github.com/freshmart/grocery-api/pkg/logger"
	"github.com/freshmart/grocery-api/pkg/retry"
)

// PaymentClient talks to the external payment gateway. Calls are retried
// with backoff and guarded by a circuit breaker; the order workflow uses it
// best-effort only.
type PaymentClient struct {
	baseURL     string
	httpClient  *http.Client
	logger      logger.Logger
	retryConfig *retry.Config
	breaker     *circuitbreaker.CircuitBreaker
}

// PaymentIntentRequest asks the gateway to open a payment for an order.
type PaymentIntentRequest struct {
	OrderID    string  `json:"order_id"`
	CustomerID string  `json:"customer_id"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
}

// PaymentIntentResponse is the gateway's reply.
type PaymentIntentResponse struct {
	IntentID   string `json:"intent_id,omitempty"`
	OrderID    string `json:"order_id,omitempty"`
	Status     string `json:"status,omitempty"`
	PaymentURL string `json:"payment_url,omitempty"`
	Error      string `json:"error,omitempty"`
}

// NewPaymentClient creates a gateway client.
func NewPaymentClient(baseURL string, logger logger.Logger) *PaymentClient {
	return &PaymentClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
		retryConfig: &retry.Config{
			MaxAttempts:     3,
			BackoffStrategy: retry.NewDefaultExponentialBackoff(),
			Logger:          logger,
			RetryableErrors: []error{
				errors.ErrTimeout,
				errors.ErrTemporaryFailure,
				errors.ErrServiceUnavailable,
			},
		},
		breaker: circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			HalfOpenMaxCalls: 2,
		}),
	}
}

// CreatePaymentIntent opens a payment intent for an online-payment order.
func (c *PaymentClient) CreatePaymentIntent(ctx context.Context, req *PaymentIntentRequest) (*PaymentIntentResponse, error) {
	if !c.breaker.Allow() {
		c.logger.Warn("Payment gateway circuit open, skipping call", "orderID", req.OrderID)
		return nil, errors.NewTemporaryError("payment gateway unavailable")
	}

	var response *PaymentIntentResponse

	err := retry.Do(ctx, func() error {
		resp, err := c.post(ctx, "/api/v1/payment-intents", req)
		if err != nil {
			return err
		}
		response = resp
		return nil
	}, c.retryConfig)

	if err != nil {
		c.breaker.Failure()
		return nil, err
	}

	c.breaker.Success()
	return response, nil
}

func (c *PaymentClient) post(ctx context.Context, path string, payload interface{}) (*PaymentIntentResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to encode request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, errors.NewTimeoutError("payment gateway request timed out")
		}
		return nil, errors.NewTemporaryError(fmt.Sprintf("payment gateway request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to read response: %v", err))
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, errors.NewTemporaryError(fmt.Sprintf("payment gateway error: %d", resp.StatusCode))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("payment gateway rejected request: %d", resp.StatusCode))
	}

	var response PaymentIntentResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to decode response: %v", err))
	}

	return &response, nil
}
