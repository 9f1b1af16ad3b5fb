// ==================================
// File: internal/discovery/discovery.go
// ==================================
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

const (
	defaultRequestTimeout = 5 * time.Second
	maxElapsedRetryTime   = 10 * time.Second
)

// ErrUnavailable is returned when the holdings source is unreachable or
// answers with a malformed or unsuccessful response. The orchestrator treats
// it as fatal for the sweep.
var ErrUnavailable = errors.New("discovery: holdings source unavailable")

// Holding is one fungible-asset balance held by an account. The mint stays a
// raw string: a malformed mint is a per-asset build failure later, not a
// discovery failure.
type Holding struct {
	Mint     string
	Name     string
	Symbol   string
	Balance  float64
	Decimals uint8
}

// Service fetches all token holdings of a wallet from the discovery API.
type Service struct {
	client  *http.Client
	logger  *zap.Logger
	baseURL string
	apiKey  string
	network string
}

type apiTokenInfo struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type apiToken struct {
	Address string       `json:"address"`
	Balance float64      `json:"balance"`
	Info    apiTokenInfo `json:"info"`
}

type apiResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Result  []apiToken `json:"result"`
}

// NewService creates a holdings discovery service.
func NewService(baseURL, apiKey, network string, logger *zap.Logger) *Service {
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
		logger:  logger.Named("discovery"),
		baseURL: baseURL,
		apiKey:  apiKey,
		network: network,
	}
}

// WalletHoldings returns every fungible-asset balance of the wallet, in the
// order the source reports them. Transient HTTP failures are retried with
// exponential backoff; exhaustion surfaces ErrUnavailable.
func (s *Service) WalletHoldings(ctx context.Context, wallet solana.PublicKey) ([]Holding, error) {
	op := func() ([]Holding, error) {
		return s.fetchHoldings(ctx, wallet)
	}

	holdings, err := backoff.Retry(
		ctx,
		op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsedRetryTime),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return holdings, nil
}

func (s *Service) fetchHoldings(ctx context.Context, wallet solana.PublicKey) ([]Holding, error) {
	reqURL := fmt.Sprintf("%s/sol/v1/wallet/all_tokens?network=%s&wallet=%s",
		s.baseURL, url.QueryEscape(s.network), wallet.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	s.logger.Debug("holdings request completed",
		zap.Duration("duration", time.Since(start)),
		zap.String("wallet", wallet.String()),
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

	if !response.Success {
		return nil, backoff.Permanent(fmt.Errorf("source returned unsuccessful response: %s", response.Message))
	}

	holdings := make([]Holding, 0, len(response.Result))
	for _, token := range response.Result {
		holdings = append(holdings, Holding{
			Mint:     token.Address,
			Name:     token.Info.Name,
			Symbol:   token.Info.Symbol,
			Balance:  token.Balance,
			Decimals: token.Info.Decimals,
		})
	}

	s.logger.Debug("holdings fetched",
		zap.String("wallet", wallet.String()),
		zap.Int("count", len(holdings)))

	return holdings, nil
}
