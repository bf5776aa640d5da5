package explorer

import (
	"context"
	"errors"
)

var (
	// ErrNetwork is returned for transport-level failures. The caller may
	// retry the whole cycle.
	ErrNetwork = errors.New("chain source network error")
	// ErrProtocol is returned for malformed or unexpected responses. The
	// caller should abort, not retry blindly.
	ErrProtocol = errors.New("chain source protocol error")
	// ErrTxRejected is returned when the chain source refuses a broadcast
	// transaction. Distinct from ErrNetwork: the transaction must not be
	// treated as sent.
	ErrTxRejected = errors.New("transaction rejected by network")
)

// Service is the interface to a remote block-explorer-style data source.
type Service interface {
	// Tip returns the current chain tip.
	Tip(ctx context.Context) (BlockRef, error)
	// Sync fetches an incremental update for all script fingerprints in
	// the request, running at most parallelism fetches concurrently.
	Sync(ctx context.Context, req SyncRequest, parallelism int) (*SyncUpdate, error)
	// Broadcast publishes a raw signed transaction and returns its txid.
	Broadcast(ctx context.Context, txHex string) (string, error)
}
