package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrMalformedResponse marks a body that was neither a success nor a failure
// envelope where one was expected. It must never be coerced into either.
var ErrMalformedResponse = errors.New("unexpected response from payment backend")

// APIError is a response the backend produced deliberately: a non-2xx status
// or an explicit {success:false} envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment backend returned status %d", e.Status)
	}
	return fmt.Sprintf("payment backend returned status %d: %s", e.Status, e.Message)
}

type OrderItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Paper   string `json:"paper"`
	Price   int64  `json:"price"`
}

type CreateOrderRequest struct {
	UserID           string      `json:"userId"`
	CartItems        []OrderItem `json:"cartItems"`
	TotalAmount      int64       `json:"totalAmount"`
	Currency         string      `json:"currency"`
	Email            string      `json:"email"`
	Name             string      `json:"name"`
	Phone            string      `json:"phone"`
	SubscriptionType string      `json:"subscriptionType"`
}

type OrderCreated struct {
	OrderID  string
	KeyID    string
	Amount   int64
	Currency string
}

type VerifyResult struct {
	Verified bool
	Message  string
}

// envelope is the common response shape of the order and verification
// endpoints.
type envelope struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	KeyID    string `json:"key_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	OrderID  string `json:"order_id"`
}

type reply struct {
	status int
	body   []byte
}

type Client struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[*reply]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: baseURL,
		timeout: timeout,
		breaker: gobreaker.NewCircuitBreaker[*reply](gobreaker.Settings{
			Name: "payment-backend",
		}),
	}
}

// CreateOrder posts the checkout snapshot to the order-creation endpoint.
// Failures are typed: transport errors wrap the cause (retryable), backend
// refusals come back as *APIError with the most specific message available.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderCreated, error) {
	rep, err := c.post(ctx, "/api/payment/checkout", req)
	if err != nil {
		return nil, err
	}

	var env envelope
	decodeErr := json.Unmarshal(rep.body, &env)

	if rep.status < 200 || rep.status > 299 {
		msg := "order creation failed"
		if decodeErr == nil && env.Message != "" {
			msg = env.Message
		}
		return nil, &APIError{Status: rep.status, Message: msg}
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%w: status %d: %v", ErrMalformedResponse, rep.status, decodeErr)
	}
	if !env.Success {
		return nil, &APIError{Status: rep.status, Message: env.Message}
	}
	if env.OrderID == "" || env.KeyID == "" {
		return nil, fmt.Errorf("%w: success envelope missing order_id or key_id", ErrMalformedResponse)
	}

	return &OrderCreated{
		OrderID:  env.OrderID,
		KeyID:    env.KeyID,
		Amount:   env.Amount,
		Currency: env.Currency,
	}, nil
}

// VerifyPayment forwards the gateway callback fields for the authoritative
// signature check. Only an explicit {success:true} yields Verified; a 2xx
// body that is not JSON is ErrMalformedResponse, never a guess either way.
func (c *Client) VerifyPayment(ctx context.Context, paymentID, orderID, signature string) (*VerifyResult, error) {
	req := struct {
		PaymentID string `json:"paymentId"`
		OrderID   string `json:"orderId"`
		Signature string `json:"signature"`
	}{paymentID, orderID, signature}

	rep, err := c.post(ctx, "/api/payment/verify", req)
	if err != nil {
		return nil, err
	}

	var env envelope
	decodeErr := json.Unmarshal(rep.body, &env)

	if rep.status < 200 || rep.status > 299 {
		msg := "payment verification failed"
		if decodeErr == nil && env.Message != "" {
			msg = env.Message
		}
		return nil, &APIError{Status: rep.status, Message: msg}
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%w: status %d: %v", ErrMalformedResponse, rep.status, decodeErr)
	}

	return &VerifyResult{Verified: env.Success, Message: env.Message}, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*reply, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rep, err := c.breaker.Execute(func() (*reply, error) {
		req, reqErr := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("Content-Type", "application/json")

		resp, doErr := c.http.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		defer resp.Body.Close()

		data, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr != nil {
			return nil, readErr
		}
		return &reply{status: resp.StatusCode, body: data}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("payment backend request %s failed: %w", path, err)
	}
	return rep, nil
}
