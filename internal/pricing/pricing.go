// ==================================
// File: internal/pricing/pricing.go
// ==================================
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const (
	defaultRequestTimeout = 5 * time.Second
	maxElapsedRetryTime   = 10 * time.Second
)

// ErrUnavailable is returned on network or parse failure. The orchestrator
// degrades to an all-zero price map instead of aborting.
var ErrUnavailable = errors.New("pricing: price source unavailable")

// Service resolves reference-currency prices per asset symbol.
type Service struct {
	client  *http.Client
	logger  *zap.Logger
	baseURL string
}

type apiPrice struct {
	Price float64 `json:"price"`
}

type apiResponse struct {
	Data map[string]apiPrice `json:"data"`
}

// NewService creates a price resolver backed by the pricing API.
func NewService(baseURL string, logger *zap.Logger) *Service {
	return &Service{
		client: &http.Client{
			Timeout: defaultRequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxConnsPerHost:     100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:  logger.Named("pricing"),
		baseURL: baseURL,
	}
}

// Prices maps each requested symbol to its unit price. Symbols the source
// does not know stay at 0; that is never an error.
func (s *Service) Prices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	op := func() (map[string]float64, error) {
		return s.fetchPrices(ctx, symbols)
	}

	prices, err := backoff.Retry(
		ctx,
		op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsedRetryTime),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return prices, nil
}

func (s *Service) fetchPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	reqURL := fmt.Sprintf("%s/price?ids=%s", s.baseURL, url.QueryEscape(strings.Join(symbols, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	s.logger.Debug("price request completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("symbols", len(symbols)),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var response apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}

	prices := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		prices[symbol] = response.Data[symbol].Price
	}

	return prices, nil
}
