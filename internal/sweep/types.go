// internal/sweep/types.go
package sweep

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/solsweep/internal/discovery"
)

// OutcomeStatus classifies how a single transfer attempt ended.
type OutcomeStatus string

const (
	OutcomeConfirmed   OutcomeStatus = "confirmed"
	OutcomeTimedOut    OutcomeStatus = "timed_out"
	OutcomeRejected    OutcomeStatus = "rejected"
	OutcomeBuildFailed OutcomeStatus = "build_failed"
)

// Outcome records the result of exactly one transfer attempt. Outcomes are
// never aggregated into a retry queue; each asset gets one attempt per sweep.
type Outcome struct {
	Symbol    string
	Status    OutcomeStatus
	Signature solana.Signature
	Err       error
}

// PricedHolding is a holding with its resolved unit price and computed value
// in the reference currency.
type PricedHolding struct {
	discovery.Holding
	Price float64
	Value float64
}

// Session is the record of one whole sweep run. It lives only for the
// duration of the invocation and is not persisted.
type Session struct {
	Account       solana.PublicKey
	Ranked        []PricedHolding
	Outcomes      []Outcome
	NativeOutcome *Outcome
	StartedAt     time.Time
	FinishedAt    time.Time
}

type phase string

const (
	phaseAuthenticating     phase = "authenticating"
	phaseDiscovering        phase = "discovering"
	phasePricing            phase = "pricing"
	phaseRanking            phase = "ranking"
	phaseTransferringAssets phase = "transferring_assets"
	phaseTransferringNative phase = "transferring_native"
	phaseDone               phase = "done"
	phaseAborted            phase = "aborted"
)
