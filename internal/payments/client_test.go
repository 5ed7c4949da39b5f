package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderRequest() CreateOrderRequest {
	return CreateOrderRequest{
		UserID:      "user-1",
		CartItems:   []OrderItem{{ID: "c1", Title: "Audit Crash Course", Price: 100000}},
		TotalAmount: 100000,
		Currency:    "INR",
		Email:       "student@example.com",
		Name:        "A Student",
	}
}

func TestCreateOrder_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/payment/checkout", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(100000), req.TotalAmount)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":  true,
			"order_id": "order_abc",
			"key_id":   "rzp_test_key",
			"amount":   100000,
			"currency": "INR",
		})
	}))
	defer server.Close()

	sut := NewClient(server.URL, time.Second)
	created, err := sut.CreateOrder(context.Background(), orderRequest())

	require.NoError(t, err)
	assert.Equal(t, "order_abc", created.OrderID)
	assert.Equal(t, "rzp_test_key", created.KeyID)
	assert.Equal(t, int64(100000), created.Amount)
	assert.Equal(t, "INR", created.Currency)
}

func TestCreateOrder_BackendRefusal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "amount mismatch",
		})
	}))
	defer server.Close()

	sut := NewClient(server.URL, time.Second)
	_, err := sut.CreateOrder(context.Background(), orderRequest())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "amount mismatch", apiErr.Message)
}

func TestCreateOrder_SuccessFalseEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "gateway unavailable",
		})
	}))
	defer server.Close()

	sut := NewClient(server.URL, time.Second)
	_, err := sut.CreateOrder(context.Background(), orderRequest())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "gateway unavailable", apiErr.Message)
}

func TestCreateOrder_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>proxy error</html>"))
	}))
	defer server.Close()

	sut := NewClient(server.URL, time.Second)
	_, err := sut.CreateOrder(context.Background(), orderRequest())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestCreateOrder_SuccessEnvelopeMissingIdentifiers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer server.Close()

	sut := NewClient(server.URL, time.Second)
	_, err := sut.CreateOrder(context.Background(), orderRequest())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestCreateOrder_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	sut := NewClient(server.URL, time.Second)
	_, err := sut.CreateOrder(context.Background(), orderRequest())

	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport errors must stay untyped")
	assert.False(t, errors.Is(err, ErrMalformedResponse))
}

func TestVerifyPayment_Verified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/payment/verify", r.URL.Path)

		var req struct {
			PaymentID string `json:"paymentId"`
			OrderID   string `json:"orderId"`
			Signature string `json:"signature"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pay_1", req.PaymentID)
		assert.Equal(t, "order_abc", req.OrderID)
		assert.Equal(t, "sig", req.Signature)

		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer server.Close()

	sut := NewClient(server.URL, time.Second)
	result, err := sut.VerifyPayment(context.Background(), "pay_1", "order_abc", "sig")

	require.NoError(t, err)
	assert.True(t, result.Verified)
}

func TestVerifyPayment_Refused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "signature mismatch",
		})
	}))
	defer server.Close()

	sut := NewClient(server.URL, time.Second)
	result, err := sut.VerifyPayment(context.Background(), "pay_1", "order_abc", "bad-sig")

	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, "signature mismatch", result.Message)
}

func TestVerifyPayment_MalformedBodyIsNeverCoerced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	sut := NewClient(server.URL, time.Second)
	result, err := sut.VerifyPayment(context.Background(), "pay_1", "order_abc", "sig")

	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Nil(t, result)
}

func TestVerifyPayment_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{"message": "verification crashed"})
	}))
	defer server.Close()

	sut := NewClient(server.URL, time.Second)
	_, err := sut.VerifyPayment(context.Background(), "pay_1", "order_abc", "sig")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "verification crashed", apiErr.Message)
}
