package domain

import (
	"github.com/hotwallet-network/hotwallet-daemon/pkg/explorer"
	"github.com/hotwallet-network/hotwallet-daemon/pkg/wallet"
)

// coinbaseMaturity is the number of confirmations before coinbase
// outputs become spendable.
const coinbaseMaturity = 100

// ScriptInfo tracks one revealed script of a keychain.
type ScriptInfo struct {
	Keychain wallet.Keychain
	Index    uint32
	Address  string
	// Script is the hex-encoded scriptPubKey, also the key of the
	// Scripts map.
	Script string
	// Used is set once the script appears in a known transaction or has
	// been consumed as a change destination. A used script is never
	// handed out again.
	Used bool
}

// LedgerTx is one known transaction of the wallet ledger.
type LedgerTx struct {
	Txid     string
	Inputs   []explorer.TxInput
	Outputs  []explorer.TxOutput
	Size     int
	Weight   int
	Fee      uint64
	Coinbase bool

	Confirmed   bool
	BlockHeight uint32
	BlockTime   int64
}

// Wallet is the full mutable chain-state of the hot wallet: immutable
// derived keychains plus the ledger of known transactions and derivation
// watermarks. Exactly one instance exists per process; concurrent access
// is coordinated by the application layer, never by this type.
type Wallet struct {
	WalletName         string
	Network            string
	ExternalDescriptor string
	InternalDescriptor string
	ExternalXpub       string
	InternalXpub       string

	// NextIndexes is the next never-revealed derivation index per
	// keychain.
	NextIndexes map[wallet.Keychain]uint32
	// Scripts indexes every revealed script by its hex scriptPubKey.
	Scripts map[string]*ScriptInfo
	// Txs indexes every known transaction by txid.
	Txs map[string]*LedgerTx
	Tip explorer.BlockRef
}

// NewWalletOpts is the struct given to NewWallet.
type NewWalletOpts struct {
	WalletName         string
	Network            string
	ExternalDescriptor string
	InternalDescriptor string
	ExternalXpub       string
	InternalXpub       string
}

// NewWallet returns an empty wallet state for freshly-derived keychains.
func NewWallet(opts NewWalletOpts) (*Wallet, error) {
	if len(opts.WalletName) <= 0 {
		return nil, ErrNullWalletName
	}
	if _, err := wallet.ChainParams(opts.Network); err != nil {
		return nil, err
	}
	return &Wallet{
		WalletName:         opts.WalletName,
		Network:            opts.Network,
		ExternalDescriptor: opts.ExternalDescriptor,
		InternalDescriptor: opts.InternalDescriptor,
		ExternalXpub:       opts.ExternalXpub,
		InternalXpub:       opts.InternalXpub,
		NextIndexes: map[wallet.Keychain]uint32{
			wallet.External: 0,
			wallet.Internal: 0,
		},
		Scripts: map[string]*ScriptInfo{},
		Txs:     map[string]*LedgerTx{},
	}, nil
}

// MatchesDescriptors reports whether the persisted wallet was derived
// from the same descriptors as the given ones. A mismatch on reload is a
// fatal configuration error for the caller.
func (w *Wallet) MatchesDescriptors(external, internal string) bool {
	return w.ExternalDescriptor == external && w.InternalDescriptor == internal
}

// AddressInfo describes one derived address.
type AddressInfo struct {
	Keychain wallet.Keychain
	Index    uint32
	Address  string
	Script   string
}

// Balance is the wallet balance split by confirmation trust.
type Balance struct {
	// Confirmed is the value of confirmed, mature unspent outputs.
	Confirmed uint64
	// TrustedPending is the unconfirmed value coming from the wallet's
	// own transactions (change).
	TrustedPending uint64
	// UntrustedPending is the unconfirmed value received from foreign
	// transactions.
	UntrustedPending uint64
	// Immature is the value of coinbase outputs still maturing.
	Immature uint64
}

// Total returns the spendable-or-pending sum, excluding immature coins.
func (b Balance) Total() uint64 {
	return b.Confirmed + b.TrustedPending + b.UntrustedPending
}

// ChainPosition is the confirmation status of a transaction.
type ChainPosition struct {
	Confirmed bool
	Height    uint32
	BlockTime int64
}

// TransactionRecord is a read-only projection of one ledger transaction
// for display. Recomputed from the wallet state on each call.
type TransactionRecord struct {
	Txid     string
	Sent     uint64
	Received uint64
	Fee      uint64
	// FeeRate in sat/vbyte, rounded down.
	FeeRate       uint64
	ChainPosition ChainPosition
}
