package domain

import "context"

// SeedRepository persists and retrieves the wallet's seed material.
type SeedRepository interface {
	// GetOrCreateSeed returns the seed record stored for walletName, or
	// atomically generates, persists and returns a new one. Idempotent
	// after the first generation: the same wallet name always yields the
	// same mnemonic. A stored-but-unparseable mnemonic is surfaced as
	// ErrSeedCorrupted, never regenerated.
	GetOrCreateSeed(ctx context.Context, walletName string) (*SeedRecord, error)
}
