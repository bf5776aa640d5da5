package domain

import "context"

// WalletRepository is the durable persistence adapter for the wallet
// state. After any successful UpdateWallet, reloading with GetWallet must
// reproduce state observably equivalent to the one flushed.
type WalletRepository interface {
	// GetWallet returns the persisted wallet snapshot, or nil without
	// error when none exists yet.
	GetWallet(ctx context.Context) (*Wallet, error)
	// InsertWallet persists the initial snapshot of a new wallet.
	InsertWallet(ctx context.Context, wallet *Wallet) error
	// UpdateWallet flushes the current wallet state, replacing the stored
	// snapshot.
	UpdateWallet(ctx context.Context, wallet *Wallet) error
}
