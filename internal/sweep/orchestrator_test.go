package sweep

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solsweep/internal/discovery"
)

const (
	testAccount     = "9aE476sH92Vz7DMPyq5WLPkrKWivxeuTKEFKd2sZZcde"
	testDestination = "2VhgfoY8zMLcpF5NhoArSua2iCoduqEFLMSaRXFhistJ"
	mintUSDC        = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	mintWSOL        = "So11111111111111111111111111111111111111112"
	mintRAY         = "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"
)

type fakeProvider struct {
	account    solana.PublicKey
	connectErr error

	mu          sync.Mutex
	submitted   []*solana.Transaction
	submitErrOn map[int]error
}

func (p *fakeProvider) Connect(_ context.Context) (solana.PublicKey, error) {
	if p.connectErr != nil {
		return solana.PublicKey{}, p.connectErr
	}
	return p.account, nil
}

func (p *fakeProvider) SignAndSubmit(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	call := len(p.submitted)
	p.submitted = append(p.submitted, tx)
	if err, ok := p.submitErrOn[call]; ok {
		return solana.Signature{}, err
	}
	var sig solana.Signature
	sig[0] = byte(call + 1)
	return sig, nil
}

func (p *fakeProvider) submitCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.submitted)
}

type fakeNetwork struct {
	balance    uint64
	balanceErr error
}

func (n *fakeNetwork) GetBalance(_ context.Context, _ solana.PublicKey) (uint64, error) {
	return n.balance, n.balanceErr
}

func (n *fakeNetwork) GetRecentBlockhash(_ context.Context) (solana.Hash, error) {
	return solana.Hash{}, nil
}

func (n *fakeNetwork) ConfirmTransaction(_ context.Context, _ solana.Signature) (bool, error) {
	return true, nil
}

type fakeHoldings struct {
	holdings []discovery.Holding
	err      error
}

func (f *fakeHoldings) WalletHoldings(_ context.Context, _ solana.PublicKey) ([]discovery.Holding, error) {
	return f.holdings, f.err
}

type fakePrices struct {
	prices map[string]float64
	err    error
}

func (f *fakePrices) Prices(_ context.Context, _ []string) (map[string]float64, error) {
	return f.prices, f.err
}

func newTestSweeper(t *testing.T, provider *fakeProvider, network *fakeNetwork, holdings *fakeHoldings, prices *fakePrices) *Sweeper {
	t.Helper()

	s := New(
		Config{
			Destination:     solana.MustPublicKeyFromBase58(testDestination),
			MinValue:        50,
			ConfirmDeadline: 300 * time.Millisecond,
		},
		Deps{
			Provider: provider,
			Network:  network,
			Holdings: holdings,
			Prices:   prices,
			Logger:   zap.NewNop(),
		},
	)
	s.watcher.pollInterval = 2 * time.Millisecond
	return s
}

func testProvider() *fakeProvider {
	return &fakeProvider{account: solana.MustPublicKeyFromBase58(testAccount)}
}

func TestSweep_RankedOrderTransferred(t *testing.T) {
	provider := testProvider()
	holdings := &fakeHoldings{holdings: []discovery.Holding{
		{Mint: mintWSOL, Symbol: "MID", Balance: 80, Decimals: 9},
		{Mint: mintRAY, Symbol: "DUST", Balance: 5, Decimals: 6},
		{Mint: mintUSDC, Symbol: "TOP", Balance: 120, Decimals: 6},
	}}
	prices := &fakePrices{prices: map[string]float64{"MID": 1, "DUST": 1, "TOP": 1}}

	s := newTestSweeper(t, provider, &fakeNetwork{balance: 2_000_000_000}, holdings, prices)

	session, err := s.Run(context.Background())
	require.NoError(t, err)

	// [120, 80] with threshold 50: the dust asset never makes the list.
	require.Len(t, session.Outcomes, 2)
	assert.Equal(t, "TOP", session.Outcomes[0].Symbol)
	assert.Equal(t, "MID", session.Outcomes[1].Symbol)
	assert.Equal(t, OutcomeConfirmed, session.Outcomes[0].Status)
	assert.Equal(t, OutcomeConfirmed, session.Outcomes[1].Status)

	require.NotNil(t, session.NativeOutcome)
	assert.Equal(t, "SOL", session.NativeOutcome.Symbol)
	assert.Equal(t, OutcomeConfirmed, session.NativeOutcome.Status)

	// Two asset transfers plus the native one.
	assert.Equal(t, 3, provider.submitCount())
}

func TestSweep_BuildFailureIsIsolated(t *testing.T) {
	provider := testProvider()
	holdings := &fakeHoldings{holdings: []discovery.Holding{
		{Mint: mintUSDC, Symbol: "TOP", Balance: 120, Decimals: 6},
		{Mint: "garbage-mint", Symbol: "BAD", Balance: 80, Decimals: 6},
		{Mint: mintWSOL, Symbol: "MID", Balance: 60, Decimals: 9},
	}}
	prices := &fakePrices{prices: map[string]float64{"TOP": 1, "BAD": 1, "MID": 1}}

	s := newTestSweeper(t, provider, &fakeNetwork{balance: 1_000_000_000}, holdings, prices)

	session, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, session.Outcomes, 3)
	assert.Equal(t, OutcomeConfirmed, session.Outcomes[0].Status)
	assert.Equal(t, OutcomeBuildFailed, session.Outcomes[1].Status)
	assert.Error(t, session.Outcomes[1].Err)
	assert.Equal(t, OutcomeConfirmed, session.Outcomes[2].Status,
		"a bad asset must not prevent sweeping the assets ranked after it")
}

func TestSweep_SubmitRejectionIsIsolated(t *testing.T) {
	provider := testProvider()
	provider.submitErrOn = map[int]error{0: errors.New("insufficient funds for fees")}
	holdings := &fakeHoldings{holdings: []discovery.Holding{
		{Mint: mintUSDC, Symbol: "TOP", Balance: 120, Decimals: 6},
		{Mint: mintWSOL, Symbol: "MID", Balance: 80, Decimals: 9},
	}}
	prices := &fakePrices{prices: map[string]float64{"TOP": 1, "MID": 1}}

	s := newTestSweeper(t, provider, &fakeNetwork{balance: 0}, holdings, prices)

	session, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, session.Outcomes, 2)
	assert.Equal(t, OutcomeRejected, session.Outcomes[0].Status)
	assert.Equal(t, OutcomeConfirmed, session.Outcomes[1].Status)
}

func TestSweep_DiscoveryFailureAbortsBeforeAnyTransfer(t *testing.T) {
	provider := testProvider()
	holdings := &fakeHoldings{err: discovery.ErrUnavailable}

	s := newTestSweeper(t, provider, &fakeNetwork{balance: 1_000_000_000}, holdings, &fakePrices{})

	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, discovery.ErrUnavailable)
	assert.Zero(t, provider.submitCount(), "no submit may happen after a discovery failure")
}

func TestSweep_AuthenticationFailureAborts(t *testing.T) {
	provider := testProvider()
	provider.connectErr = errors.New("user declined")

	s := newTestSweeper(t, provider, &fakeNetwork{}, &fakeHoldings{}, &fakePrices{})

	_, err := s.Run(context.Background())
	assert.Error(t, err)
	assert.Zero(t, provider.submitCount())
}

func TestSweep_PricingFailureDegradesToNoAssets(t *testing.T) {
	provider := testProvider()
	holdings := &fakeHoldings{holdings: []discovery.Holding{
		{Mint: mintUSDC, Symbol: "TOP", Balance: 120, Decimals: 6},
	}}
	prices := &fakePrices{err: errors.New("price source down")}

	s := newTestSweeper(t, provider, &fakeNetwork{balance: 1_500_000_000}, holdings, prices)

	session, err := s.Run(context.Background())
	require.NoError(t, err, "pricing failure must degrade, not abort")

	assert.Empty(t, session.Outcomes, "zero-priced assets fall below the threshold")
	require.NotNil(t, session.NativeOutcome, "native transfer still runs")
	assert.Equal(t, 1, provider.submitCount())
}

func TestSweep_EmptyRankedListStillTransfersNative(t *testing.T) {
	provider := testProvider()

	s := newTestSweeper(t, provider, &fakeNetwork{balance: 3_000_000_000}, &fakeHoldings{}, &fakePrices{prices: map[string]float64{}})

	session, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, session.Outcomes)
	require.NotNil(t, session.NativeOutcome)
	assert.Equal(t, OutcomeConfirmed, session.NativeOutcome.Status)
}

func TestSweep_ZeroNativeBalanceSkipsNativeTransfer(t *testing.T) {
	provider := testProvider()

	s := newTestSweeper(t, provider, &fakeNetwork{balance: 0}, &fakeHoldings{}, &fakePrices{})

	session, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Nil(t, session.NativeOutcome)
	assert.Zero(t, provider.submitCount())
}

func TestSweep_BalanceQueryFailureSkipsNativeOnly(t *testing.T) {
	provider := testProvider()
	holdings := &fakeHoldings{holdings: []discovery.Holding{
		{Mint: mintUSDC, Symbol: "TOP", Balance: 120, Decimals: 6},
	}}
	prices := &fakePrices{prices: map[string]float64{"TOP": 1}}

	s := newTestSweeper(t, provider, &fakeNetwork{balanceErr: errors.New("rpc down")}, holdings, prices)

	session, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, session.Outcomes, 1)
	assert.Equal(t, OutcomeConfirmed, session.Outcomes[0].Status)
	assert.Nil(t, session.NativeOutcome)
}
