// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"golang.org/x/sync/semaphore"
)

// ErrUnavailable is returned when the signing capability cannot be obtained.
var ErrUnavailable = errors.New("wallet: signing capability unavailable")

// Provider is the external capability that holds key material. The sweep
// core never sees private keys; it only asks the provider to connect and to
// sign-and-submit fully built transactions.
type Provider interface {
	// Connect establishes the session and returns the account identity used
	// as the transfer source for the lifetime of one sweep.
	Connect(ctx context.Context) (solana.PublicKey, error)
	// SignAndSubmit signs the transaction and submits it to the network,
	// returning the tracking signature.
	SignAndSubmit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Submitter sends a signed transaction to the ledger network.
type Submitter interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Keypair is a local Provider backed by a base58-encoded private key.
// Signing is a one-at-a-time capability: concurrent sweeps sharing a Keypair
// are serialized on a weighted semaphore.
type Keypair struct {
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey
	submitter  Submitter
	ataCache   map[string]solana.PublicKey
	signSem    *semaphore.Weighted
}

// NewKeypair creates a local signing provider from a base58-encoded private key.
func NewKeypair(privateKeyBase58 string, submitter Submitter) (*Keypair, error) {
	privateKeyBytes, err := base58.Decode(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(privateKeyBytes) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKeyBytes))
	}
	if submitter == nil {
		return nil, errors.New("submitter is required")
	}
	privateKey := solana.PrivateKey(privateKeyBytes)
	return &Keypair{
		privateKey: privateKey,
		publicKey:  privateKey.PublicKey(),
		submitter:  submitter,
		ataCache:   make(map[string]solana.PublicKey),
		signSem:    semaphore.NewWeighted(1),
	}, nil
}

// Connect returns the account identity for this keypair.
func (k *Keypair) Connect(_ context.Context) (solana.PublicKey, error) {
	if k.privateKey == nil {
		return solana.PublicKey{}, ErrUnavailable
	}
	return k.publicKey, nil
}

// SignAndSubmit signs the transaction with the keypair and submits it.
func (k *Keypair) SignAndSubmit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if err := k.signSem.Acquire(ctx, 1); err != nil {
		return solana.Signature{}, err
	}
	defer k.signSem.Release(1)

	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(k.publicKey) {
			return &k.privateKey
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return k.submitter.SendTransaction(ctx, tx)
}

// ATA returns the associated token account address for the given mint,
// computed once and cached for the lifetime of the keypair.
func (k *Keypair) ATA(mint solana.PublicKey) (solana.PublicKey, error) {
	mintStr := mint.String()
	if ata, ok := k.ataCache[mintStr]; ok {
		return ata, nil
	}
	ata, _, err := solana.FindAssociatedTokenAddress(k.publicKey, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	k.ataCache[mintStr] = ata
	return ata, nil
}

// String returns the wallet's public key.
func (k *Keypair) String() string {
	return k.publicKey.String()
}
