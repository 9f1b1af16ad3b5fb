// ====================================
// File: cmd/relay/main.go
// ====================================
package main

import (
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solsweep/internal/config"
	"github.com/rovshanmuradov/solsweep/internal/logger"
	"github.com/rovshanmuradov/solsweep/internal/relay"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		fallback.Fatal("Failed to load configuration", zap.Error(err))
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = "relay.log"
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	mailer, err := relay.NewSendgridMailer(cfg.MailAPIKey, cfg.MailFrom, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize mailer", zap.Error(err))
	}

	server := relay.NewServer(mailer, cfg.MailRecipients, cfg.RelayViewsDir, log.Logger)
	if err := server.Run(cfg.RelayListen); err != nil {
		log.Fatal("Relay server error", zap.Error(err))
	}
}
