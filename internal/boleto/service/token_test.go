package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gustavo653/Snarf-sub000/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSourceCachesUntilExpiry(t *testing.T) {
	var exchanges int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "client_credentials", r.FormValue("grant_type"))

		n := atomic.AddInt32(&exchanges, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			w.Write([]byte(`{"access_token":"token-one","token_type":"Bearer","expires_in":600}`))
			return
		}
		w.Write([]byte(`{"access_token":"token-two","token_type":"Bearer","expires_in":600}`))
	}))
	defer server.Close()

	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	source := newTokenSource(server.Client(), fakeClock, server.URL, "id", "secret")

	ctx := context.Background()

	first, err := source.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-one", first)

	// Still valid, no new exchange.
	second, err := source.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-one", second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&exchanges))

	// Past expiry a single new exchange happens.
	fakeClock.Advance(10 * time.Minute)
	third, err := source.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-two", third)
	assert.Equal(t, int32(2), atomic.LoadInt32(&exchanges))
}

func TestTokenSourceExchangeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	fakeClock := clock.NewFakeClock(time.Now().UTC())
	source := newTokenSource(server.Client(), fakeClock, server.URL, "id", "bad")

	_, err := source.Token(context.Background())
	require.Error(t, err)
}

func TestTokenSourceRejectsMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":"shape"}`))
	}))
	defer server.Close()

	fakeClock := clock.NewFakeClock(time.Now().UTC())
	source := newTokenSource(server.Client(), fakeClock, server.URL, "id", "secret")

	_, err := source.Token(context.Background())
	require.Error(t, err)
}
