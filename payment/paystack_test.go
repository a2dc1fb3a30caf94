package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaystackServer(t *testing.T, handler http.HandlerFunc) *Paystack {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPaystack(srv.URL, "sk_test", 5*time.Second)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestPaystackInitialize(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var got map[string]any
		gw := newPaystackServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/transaction/initialize", r.URL.Path)
			assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			writeJSON(w, http.StatusOK, map[string]any{
				"status":  true,
				"message": "Authorization URL created",
				"data": map[string]any{
					"authorization_url": "https://checkout.paystack.com/abc",
					"access_code":       "abc",
					"reference":         "ref-1",
				},
			})
		})

		res, err := gw.Initialize(context.Background(), InitializeRequest{
			Email:       "buyer@example.com",
			AmountMinor: 2500,
			CallbackURL: "http://api/order/confirmation?orderId=o1",
			Metadata:    map[string]string{"buyerId": "b1", "orderId": "o1"},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://checkout.paystack.com/abc", res.AuthorizationURL)
		assert.Equal(t, "ref-1", res.Reference)
		assert.Equal(t, "abc", res.AccessCode)

		assert.Equal(t, float64(2500), got["amount"])
		assert.Equal(t, "buyer@example.com", got["email"])
		assert.Equal(t, map[string]any{"buyerId": "b1", "orderId": "o1"}, got["metadata"])
	})

	t.Run("Rejected status flag", func(t *testing.T) {
		gw := newPaystackServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"status": false, "message": "Invalid key"})
		})
		_, err := gw.Initialize(context.Background(), InitializeRequest{Email: "a@b.c", AmountMinor: 100})
		assert.True(t, errors.Is(err, ErrGatewayRejected))
	})

	t.Run("Non 2xx", func(t *testing.T) {
		gw := newPaystackServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"status": false, "message": "Invalid key"})
		})
		_, err := gw.Initialize(context.Background(), InitializeRequest{Email: "a@b.c", AmountMinor: 100})
		assert.True(t, errors.Is(err, ErrGatewayRejected))
	})

	t.Run("Missing authorization url", func(t *testing.T) {
		gw := newPaystackServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"status": true, "data": map[string]any{"reference": "r"}})
		})
		_, err := gw.Initialize(context.Background(), InitializeRequest{Email: "a@b.c", AmountMinor: 100})
		assert.True(t, errors.Is(err, ErrGatewayResponse))
	})
}

func TestPaystackVerify(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		gw := newPaystackServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transaction/verify/ref-1", r.URL.Path)
			writeJSON(w, http.StatusOK, map[string]any{
				"status": true,
				"data":   map[string]any{"status": "success", "reference": "ref-1", "amount": 2500},
			})
		})
		v, err := gw.Verify(context.Background(), "ref-1")
		require.NoError(t, err)
		assert.True(t, v.Succeeded())
		assert.Equal(t, int64(2500), v.AmountMinor)
		assert.NotEmpty(t, v.Raw)
	})

	t.Run("Abandoned transaction", func(t *testing.T) {
		gw := newPaystackServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"status": true,
				"data":   map[string]any{"status": "abandoned", "reference": "ref-2"},
			})
		})
		v, err := gw.Verify(context.Background(), "ref-2")
		require.NoError(t, err)
		assert.False(t, v.Succeeded())
	})

	t.Run("Unknown reference", func(t *testing.T) {
		gw := newPaystackServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"status": false, "message": "Transaction reference not found"})
		})
		_, err := gw.Verify(context.Background(), "nope")
		assert.True(t, errors.Is(err, ErrGatewayRejected))
	})
}
