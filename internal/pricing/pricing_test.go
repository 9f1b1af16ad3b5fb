package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPrices(t *testing.T) {
	var gotIDs string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIDs = r.URL.Query().Get("ids")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"USDC": {"price": 1.0001}, "RAY": {"price": 2.35}}}`))
	}))
	defer server.Close()

	svc := NewService(server.URL, zap.NewNop())

	prices, err := svc.Prices(context.Background(), []string{"USDC", "RAY", "OBSCURE"})
	require.NoError(t, err)

	assert.Equal(t, "USDC,RAY,OBSCURE", gotIDs)
	assert.Equal(t, 1.0001, prices["USDC"])
	assert.Equal(t, 2.35, prices["RAY"])
	// Symbols the source does not know map to zero, never an error.
	assert.Equal(t, 0.0, prices["OBSCURE"])
}

func TestPrices_EmptySymbolsSkipsRequest(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		requests++
	}))
	defer server.Close()

	svc := NewService(server.URL, zap.NewNop())

	prices, err := svc.Prices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
	assert.Zero(t, requests)
}

func TestPrices_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`nope`))
	}))
	defer server.Close()

	svc := NewService(server.URL, zap.NewNop())

	_, err := svc.Prices(context.Background(), []string{"USDC"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPrices_ClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unknown ids", http.StatusBadRequest)
	}))
	defer server.Close()

	svc := NewService(server.URL, zap.NewNop())

	_, err := svc.Prices(context.Background(), []string{"USDC"})
	assert.ErrorIs(t, err, ErrUnavailable)
}
