// internal/sweep/orchestrator.go
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solsweep/internal/discovery"
	"github.com/rovshanmuradov/solsweep/internal/wallet"
)

const lamportsPerSol = 1e9

// HoldingsSource discovers every fungible-asset balance of an account.
type HoldingsSource interface {
	WalletHoldings(ctx context.Context, wallet solana.PublicKey) ([]discovery.Holding, error)
}

// PriceSource resolves reference-currency prices per asset symbol.
type PriceSource interface {
	Prices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// NetworkClient is the read side of the ledger the sweep needs: balance,
// checkpoint and confirmation queries.
type NetworkClient interface {
	CheckpointClient
	ConfirmationClient
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
}

// Config carries the sweep parameters, read-only after initialization.
type Config struct {
	Destination     solana.PublicKey
	MinValue        float64
	ConfirmDeadline time.Duration
}

// Deps are the external collaborators injected into the orchestrator.
type Deps struct {
	Provider wallet.Provider
	Network  NetworkClient
	Holdings HoldingsSource
	Prices   PriceSource
	Logger   *zap.Logger
}

// Sweeper drives one sweep: authenticate, discover, price, rank, transfer
// each ranked asset in order, then transfer the native balance. Distinct
// Sweepers may run concurrently; nothing is shared beyond the injected
// collaborators.
type Sweeper struct {
	provider    wallet.Provider
	network     NetworkClient
	holdings    HoldingsSource
	prices      PriceSource
	builder     *Builder
	watcher     *Watcher
	destination solana.PublicKey
	minValue    float64
	logger      *zap.Logger
}

// New creates a sweep orchestrator.
func New(cfg Config, deps Deps) *Sweeper {
	logger := deps.Logger.Named("sweep")
	return &Sweeper{
		provider:    deps.Provider,
		network:     deps.Network,
		holdings:    deps.Holdings,
		prices:      deps.Prices,
		builder:     NewBuilder(deps.Network),
		watcher:     NewWatcher(deps.Network, logger, cfg.ConfirmDeadline),
		destination: cfg.Destination,
		minValue:    cfg.MinValue,
		logger:      logger,
	}
}

// Run executes one full sweep. Only authentication and discovery failures
// abort the run; every per-asset failure is converted into that asset's
// recorded outcome and the loop advances.
func (s *Sweeper) Run(ctx context.Context) (*Session, error) {
	session := &Session{StartedAt: time.Now().UTC()}

	s.setPhase(phaseAuthenticating)
	account, err := s.provider.Connect(ctx)
	if err != nil {
		s.setPhase(phaseAborted)
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	session.Account = account

	log := s.logger.With(zap.String("account", account.String()))
	log.Info("wallet connected")

	// Native balance is measured once, at the start; the final transfer
	// moves this snapshot even if the balance drifts during the sweep.
	var solBalance float64
	if lamports, err := s.network.GetBalance(ctx, account); err != nil {
		log.Warn("failed to measure native balance", zap.Error(err))
	} else {
		solBalance = float64(lamports) / lamportsPerSol
	}

	s.setPhase(phaseDiscovering)
	holdings, err := s.holdings.WalletHoldings(ctx, account)
	if err != nil {
		s.setPhase(phaseAborted)
		return nil, fmt.Errorf("holdings discovery failed: %w", err)
	}

	s.setPhase(phasePricing)
	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		symbols = append(symbols, h.Symbol)
	}
	prices, err := s.prices.Prices(ctx, symbols)
	if err != nil {
		// Degrade to zero prices: the threshold filter then drops
		// everything and the sweep becomes a no-op for assets.
		log.Warn("pricing unavailable, defaulting all prices to zero", zap.Error(err))
		prices = map[string]float64{}
	}

	s.setPhase(phaseRanking)
	ranked := Rank(holdings, prices, s.minValue)
	session.Ranked = ranked
	log.Info("holdings ranked",
		zap.Int("discovered", len(holdings)),
		zap.Int("ranked", len(ranked)),
		zap.Float64("min_value", s.minValue))

	s.setPhase(phaseTransferringAssets)
	for i, ph := range ranked {
		if ctx.Err() != nil {
			log.Warn("sweep cancelled mid-loop", zap.Int("remaining", len(ranked)-i))
			break
		}

		log.Info("initiating transfer",
			zap.String("symbol", ph.Symbol),
			zap.Float64("balance", ph.Balance),
			zap.Float64("value", ph.Value),
			zap.Int("rank", i))

		outcome := s.transferAsset(ctx, account, ph)
		session.Outcomes = append(session.Outcomes, outcome)
		s.logOutcome(log, outcome)
	}

	s.setPhase(phaseTransferringNative)
	if solBalance > 0 {
		log.Info("initiating native transfer", zap.Float64("sol", solBalance))
		outcome := s.transferNative(ctx, account, solBalance)
		session.NativeOutcome = &outcome
		s.logOutcome(log, outcome)
	} else {
		log.Info("no native balance to transfer")
	}

	s.setPhase(phaseDone)
	session.FinishedAt = time.Now().UTC()
	return session, nil
}

// transferAsset runs build, submit and confirm for one asset. Every failure
// becomes the asset's outcome; nothing escapes to the caller.
func (s *Sweeper) transferAsset(ctx context.Context, account solana.PublicKey, ph PricedHolding) Outcome {
	out := Outcome{Symbol: ph.Symbol}

	tx, err := s.builder.BuildTokenTransfer(ctx, account, s.destination, ph.Holding)
	if err != nil {
		out.Status = OutcomeBuildFailed
		out.Err = err
		return out
	}

	return s.submitAndWatch(ctx, out, tx)
}

func (s *Sweeper) transferNative(ctx context.Context, account solana.PublicKey, sol float64) Outcome {
	out := Outcome{Symbol: "SOL"}

	tx, err := s.builder.BuildNativeTransfer(ctx, account, s.destination, sol)
	if err != nil {
		out.Status = OutcomeBuildFailed
		out.Err = err
		return out
	}

	return s.submitAndWatch(ctx, out, tx)
}

func (s *Sweeper) submitAndWatch(ctx context.Context, out Outcome, tx *solana.Transaction) Outcome {
	sig, err := s.provider.SignAndSubmit(ctx, tx)
	if err != nil {
		out.Status = OutcomeRejected
		out.Err = err
		return out
	}
	out.Signature = sig

	if err := s.watcher.Await(ctx, sig); err != nil {
		// Outcome unknown: the transfer may still land. Keep the signature
		// for external reconciliation, do not retry.
		out.Status = OutcomeTimedOut
		out.Err = err
		return out
	}

	out.Status = OutcomeConfirmed
	return out
}

func (s *Sweeper) logOutcome(log *zap.Logger, out Outcome) {
	fields := []zap.Field{
		zap.String("symbol", out.Symbol),
		zap.String("status", string(out.Status)),
	}
	if !out.Signature.IsZero() {
		fields = append(fields, zap.String("signature", out.Signature.String()))
	}
	if out.Err != nil {
		fields = append(fields, zap.Error(out.Err))
	}
	switch out.Status {
	case OutcomeConfirmed:
		log.Info("transfer confirmed", fields...)
	default:
		log.Warn("transfer not confirmed", fields...)
	}
}

func (s *Sweeper) setPhase(p phase) {
	s.logger.Debug("phase transition", zap.String("phase", string(p)))
}
