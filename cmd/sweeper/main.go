// ====================================
// File: cmd/sweeper/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solsweep/internal/config"
	"github.com/rovshanmuradov/solsweep/internal/discovery"
	"github.com/rovshanmuradov/solsweep/internal/ledger"
	"github.com/rovshanmuradov/solsweep/internal/logger"
	"github.com/rovshanmuradov/solsweep/internal/pricing"
	"github.com/rovshanmuradov/solsweep/internal/sweep"
	"github.com/rovshanmuradov/solsweep/internal/wallet"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		fallback.Fatal("Failed to load configuration", zap.Error(err))
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting sweeper")

	ledgerClient, err := ledger.NewClient(cfg.RPCList, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize ledger client", zap.Error(err))
	}

	provider, err := wallet.NewKeypair(cfg.PrivateKey, ledgerClient)
	if err != nil {
		log.Fatal("Failed to initialize signing provider", zap.Error(err))
	}

	destination, err := solana.PublicKeyFromBase58(cfg.Destination)
	if err != nil {
		log.Fatal("Invalid destination address", zap.Error(err))
	}

	sweeper := sweep.New(
		sweep.Config{
			Destination:     destination,
			MinValue:        cfg.MinValueUSD,
			ConfirmDeadline: time.Duration(cfg.ConfirmTimeout) * time.Millisecond,
		},
		sweep.Deps{
			Provider: provider,
			Network:  ledgerClient,
			Holdings: discovery.NewService(cfg.DiscoveryURL, cfg.DiscoveryAPIKey, cfg.Network, log.Logger),
			Prices:   pricing.NewService(cfg.PricingURL, log.Logger),
			Logger:   log.Logger,
		},
	)

	session, err := sweeper.Run(ctx)
	if err != nil {
		log.Fatal("Sweep aborted", zap.Error(err))
	}

	confirmed := 0
	for _, out := range session.Outcomes {
		if out.Status == sweep.OutcomeConfirmed {
			confirmed++
		}
	}
	log.Info("Sweep finished",
		zap.String("account", session.Account.String()),
		zap.Int("ranked", len(session.Ranked)),
		zap.Int("confirmed", confirmed),
		zap.Int("attempted", len(session.Outcomes)),
		zap.Duration("took", session.FinishedAt.Sub(session.StartedAt)))
}
