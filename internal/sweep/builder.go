// internal/sweep/builder.go
package sweep

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/solsweep/internal/discovery"
)

// CheckpointClient provides the latest network checkpoint required to build
// a valid, time-bounded transaction.
type CheckpointClient interface {
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
}

// Builder constructs transfer transactions. Instructions are built fresh per
// asset and never reused across attempts.
type Builder struct {
	client CheckpointClient
}

// NewBuilder creates a transfer builder on top of the given checkpoint source.
func NewBuilder(client CheckpointClient) *Builder {
	return &Builder{client: client}
}

// ToBaseUnits converts a human-readable amount to the smallest indivisible
// unit: round(amount * 10^decimals). The conversion goes through a decimal
// type so magnitudes beyond float64's safe integer range stay exact.
func ToBaseUnits(amount float64, decimals uint8) (uint64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("negative amount: %f", amount)
	}
	units := decimal.NewFromFloat(amount).Shift(int32(decimals)).Round(0).BigInt()
	if !units.IsUint64() {
		return 0, fmt.Errorf("amount %f with %d decimals overflows base units", amount, decimals)
	}
	return units.Uint64(), nil
}

// BuildTokenTransfer builds a transaction moving the full holding from the
// source's token sub-account to the destination's. The destination
// sub-account is derived deterministically and need not exist yet; creating
// it is the network layer's concern.
func (b *Builder) BuildTokenTransfer(ctx context.Context, source, destination solana.PublicKey, h discovery.Holding) (*solana.Transaction, error) {
	mint, err := solana.PublicKeyFromBase58(h.Mint)
	if err != nil {
		return nil, fmt.Errorf("invalid mint address %q: %w", h.Mint, err)
	}

	sourceATA, _, err := solana.FindAssociatedTokenAddress(source, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive source token account: %w", err)
	}

	destATA, _, err := solana.FindAssociatedTokenAddress(destination, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive destination token account: %w", err)
	}

	amount, err := ToBaseUnits(h.Balance, h.Decimals)
	if err != nil {
		return nil, err
	}

	blockhash, err := b.client.GetRecentBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	transferIx := token.NewTransferInstruction(
		amount,
		sourceATA,
		destATA,
		source,
		[]solana.PublicKey{},
	).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{transferIx},
		blockhash,
		solana.TransactionPayer(source),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return tx, nil
}

// BuildNativeTransfer builds a system-program transfer of the given SOL
// amount from source to destination.
func (b *Builder) BuildNativeTransfer(ctx context.Context, source, destination solana.PublicKey, sol float64) (*solana.Transaction, error) {
	lamports, err := ToBaseUnits(sol, 9)
	if err != nil {
		return nil, err
	}

	blockhash, err := b.client.GetRecentBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	transferIx := system.NewTransferInstruction(
		lamports,
		source,
		destination,
	).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{transferIx},
		blockhash,
		solana.TransactionPayer(source),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return tx, nil
}
