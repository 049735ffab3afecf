package fiat_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cake2ct/internal/adapter/fiat"
	"github.com/iho/cake2ct/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *fiat.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return fiat.NewClient(fiat.Config{
		BaseURL:           srv.URL,
		Timeout:           2 * time.Second,
		MaxRetries:        2,
		RequestsPerSecond: 1000,
		CacheExpiry:       time.Hour,
	}, zerolog.Nop())
}

func TestClientResolvesRate(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2021-03-14", r.URL.Path)
		assert.Equal(t, "USD", r.URL.Query().Get("base"))
		assert.Equal(t, "EUR", r.URL.Query().Get("symbols"))
		fmt.Fprint(w, `{"base":"USD","date":"2021-03-14","rates":{"EUR":0.8375}}`)
	}))

	day := time.Date(2021, 3, 14, 9, 26, 53, 0, time.UTC)
	got, err := client.Rate(context.Background(), day, "USD", "EUR")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("0.8375")), "rate = %s", got)
}

func TestClientKeepsRateDigitsExact(t *testing.T) {
	// More digits than a float64 can carry; the rate must come back
	// token for token.
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rates":{"EUR":0.8123456789012345678901}}`)
	}))

	got, err := client.Rate(context.Background(), time.Date(2021, 3, 14, 0, 0, 0, 0, time.UTC), "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "0.8123456789012345678901", got.String())
}

func TestClientCachesPerDayAndPair(t *testing.T) {
	var calls atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"rates":{"EUR":0.9}}`)
	}))

	day := time.Date(2021, 3, 14, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		// Different clock times on the same day share one lookup.
		at := day.Add(time.Duration(i) * time.Hour)
		_, err := client.Rate(context.Background(), at, "USD", "EUR")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), calls.Load(), "same day must be served from cache")

	_, err := client.Rate(context.Background(), day.AddDate(0, 0, 1), "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load(), "a new day must trigger a new lookup")
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unknown currency", http.StatusNotFound)
	}))

	_, err := client.Rate(context.Background(), time.Now(), "USD", "XXX")
	require.ErrorIs(t, err, domain.ErrRateUnavailable)
	assert.Equal(t, int64(1), calls.Load(), "client errors must not be retried")
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"rates":{"EUR":0.9}}`)
	}))

	got, err := client.Rate(context.Background(), time.Now(), "USD", "EUR")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("0.9")), "rate = %s", got)
	assert.Equal(t, int64(2), calls.Load(), "expected exactly one retry")
}

func TestClientMissingRateIsUnavailable(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rates":{}}`)
	}))

	_, err := client.Rate(context.Background(), time.Now(), "USD", "EUR")
	require.ErrorIs(t, err, domain.ErrRateUnavailable)
}
