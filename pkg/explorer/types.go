package explorer

// SyncRequest is a point-in-time snapshot of the script fingerprints the
// wallet currently watches, encoded as addresses. It is built fresh per
// sync cycle.
type SyncRequest struct {
	Addresses []string
}

// BlockRef identifies a block by height and hash.
type BlockRef struct {
	Height uint32 `json:"height"`
	Hash   string `json:"hash"`
}

// SyncUpdate is the externally-fetched delta to be merged into the
// wallet state: the chain tip plus every transaction currently known to
// touch a watched script.
type SyncUpdate struct {
	Tip BlockRef
	Txs []TxInfo
}

// TxInfo describes one transaction touching a watched script.
type TxInfo struct {
	Txid     string
	Version  int32
	Locktime uint32
	Inputs   []TxInput
	Outputs  []TxOutput
	Size     int
	Weight   int
	Fee      uint64

	Confirmed   bool
	BlockHeight uint32
	BlockHash   string
	BlockTime   int64
}

// TxInput is a transaction input along with the output it consumes.
type TxInput struct {
	Txid       string
	Vout       uint32
	IsCoinbase bool
	// PrevScript is the hex-encoded scriptPubKey of the consumed output.
	PrevScript string
	PrevValue  uint64
}

// TxOutput is a transaction output.
type TxOutput struct {
	// Script is the hex-encoded scriptPubKey.
	Script string
	Value  uint64
}
