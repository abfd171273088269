package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoClient_CreateAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/btc/create/", r.URL.Path)
		assert.Equal(t, "https://api.example.com/webhooks/crypto?payment_id=1&secret=s", r.URL.Query().Get("callback"))
		assert.Equal(t, "bc1payout", r.URL.Query().Get("address"))
		assert.Equal(t, "1", r.URL.Query().Get("pending"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","address_in":"bc1deposit","address_out":"bc1payout","minimum_transaction_coin":0.0001}`))
	}))
	defer srv.Close()

	c := NewCryptoClient(srv.URL, 2*time.Second)
	addr, err := c.CreateAddress(context.Background(), AddressRequest{
		Coin:          "btc",
		CallbackURL:   "https://api.example.com/webhooks/crypto?payment_id=1&secret=s",
		PayoutAddress: "bc1payout",
	})
	require.NoError(t, err)
	assert.Equal(t, "bc1deposit", addr.AddressIn)
	assert.Equal(t, 0.0001, addr.MinimumTransaction)
}

func TestCryptoClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":"error","error":"rate limited"}`))
	}))
	defer srv.Close()

	c := NewCryptoClient(srv.URL, 2*time.Second)
	_, err := c.CreateAddress(context.Background(), AddressRequest{Coin: "btc"})

	var ext *ExternalServiceError
	require.True(t, errors.As(err, &ext))
	assert.Equal(t, http.StatusTooManyRequests, ext.StatusCode)
	assert.Equal(t, "rate limited", ext.Message)
}

func TestCryptoClient_ErrorStatusInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"error","error":"unknown coin"}`))
	}))
	defer srv.Close()

	c := NewCryptoClient(srv.URL, 2*time.Second)
	_, err := c.CreateAddress(context.Background(), AddressRequest{Coin: "doge"})

	var ext *ExternalServiceError
	require.True(t, errors.As(err, &ext))
	assert.Equal(t, http.StatusOK, ext.StatusCode)
	assert.Equal(t, "unknown coin", ext.Message)
}
