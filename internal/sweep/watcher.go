// internal/sweep/watcher.go
package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// ErrConfirmationTimeout is returned when the deadline fires before the
// network reports confirmation. The transfer may still land later; the
// signature is kept for external reconciliation and never retried.
var ErrConfirmationTimeout = errors.New("sweep: confirmation timed out")

const defaultPollInterval = 500 * time.Millisecond

// ConfirmationClient answers whether a submitted transfer has confirmed.
type ConfirmationClient interface {
	ConfirmTransaction(ctx context.Context, signature solana.Signature) (bool, error)
}

// Watcher races network confirmation against a fixed deadline.
type Watcher struct {
	client       ConfirmationClient
	logger       *zap.Logger
	pollInterval time.Duration
	deadline     time.Duration
}

// NewWatcher creates a confirmation watcher with the given deadline.
func NewWatcher(client ConfirmationClient, logger *zap.Logger, deadline time.Duration) *Watcher {
	return &Watcher{
		client:       client,
		logger:       logger.Named("watcher"),
		pollInterval: defaultPollInterval,
		deadline:     deadline,
	}
}

// Await blocks until the network confirms the signature or the deadline
// elapses, whichever happens first. The poll context is bounded by the
// deadline so no pending status query outlives the race.
func (w *Watcher) Await(ctx context.Context, signature solana.Signature) error {
	pollCtx, cancel := context.WithTimeout(ctx, w.deadline)
	defer cancel()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	deadline := time.After(w.deadline)
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			w.logger.Warn("confirmation deadline elapsed",
				zap.String("signature", signature.String()),
				zap.Duration("deadline", w.deadline))
			return ErrConfirmationTimeout
		case <-ticker.C:
			confirmed, err := w.client.ConfirmTransaction(pollCtx, signature)
			if err != nil {
				w.logger.Warn("confirmation check failed",
					zap.String("signature", signature.String()),
					zap.Error(err))
				continue
			}
			if confirmed {
				w.logger.Debug("transaction confirmed",
					zap.String("signature", signature.String()),
					zap.Duration("took", time.Since(start)))
				return nil
			}
		}
	}
}
