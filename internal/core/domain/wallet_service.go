package domain

import (
	"fmt"
	"sort"

	"github.com/hotwallet-network/hotwallet-daemon/pkg/explorer"
	"github.com/hotwallet-network/hotwallet-daemon/pkg/wallet"
)

// BuildSyncRequest snapshots the script fingerprints revealed so far
// across both keychains, ordered by keychain and derivation index.
func (w *Wallet) BuildSyncRequest() explorer.SyncRequest {
	scripts := w.sortedScripts()
	addresses := make([]string, 0, len(scripts))
	for _, info := range scripts {
		addresses = append(addresses, info.Address)
	}
	return explorer.SyncRequest{Addresses: addresses}
}

// ApplyUpdate merges a sync update into the ledger. Idempotent: merging
// is keyed by txid and overwrites confirmation status, so re-applying the
// same update leaves the state unchanged. An update whose confirmation
// heights exceed its own tip is rejected with ErrInconsistentUpdate.
func (w *Wallet) ApplyUpdate(update *explorer.SyncUpdate) error {
	for _, tx := range update.Txs {
		if tx.Confirmed && tx.BlockHeight > update.Tip.Height {
			return fmt.Errorf(
				"%w: tx %s confirmed at %d beyond tip %d",
				ErrInconsistentUpdate, tx.Txid, tx.BlockHeight, update.Tip.Height,
			)
		}
	}

	for _, tx := range update.Txs {
		coinbase := len(tx.Inputs) > 0 && tx.Inputs[0].IsCoinbase
		w.Txs[tx.Txid] = &LedgerTx{
			Txid:        tx.Txid,
			Inputs:      tx.Inputs,
			Outputs:     tx.Outputs,
			Size:        tx.Size,
			Weight:      tx.Weight,
			Fee:         tx.Fee,
			Coinbase:    coinbase,
			Confirmed:   tx.Confirmed,
			BlockHeight: tx.BlockHeight,
			BlockTime:   tx.BlockTime,
		}

		for _, out := range tx.Outputs {
			if info, ok := w.Scripts[out.Script]; ok {
				info.Used = true
			}
		}
		for _, in := range tx.Inputs {
			if info, ok := w.Scripts[in.PrevScript]; ok {
				info.Used = true
			}
		}
	}

	w.Tip = update.Tip
	return nil
}

// NextUnusedAddress returns the first never-used address of the keychain,
// revealing a new index if every revealed one is already used. Revealing
// advances the watermark observed by future sync requests: this is a
// mutation even on a nominally read path.
func (w *Wallet) NextUnusedAddress(keychain wallet.Keychain) (AddressInfo, error) {
	var candidate *ScriptInfo
	for _, info := range w.sortedScripts() {
		if info.Keychain == keychain && !info.Used {
			candidate = info
			break
		}
	}
	if candidate == nil {
		revealed, err := w.reveal(keychain)
		if err != nil {
			return AddressInfo{}, err
		}
		candidate = revealed
	}

	return AddressInfo{
		Keychain: candidate.Keychain,
		Index:    candidate.Index,
		Address:  candidate.Address,
		Script:   candidate.Script,
	}, nil
}

// PeekChangeScript derives the destination the next ReserveChangeScript
// call will return, without mutating any state. Callers use it to build
// a candidate transaction before committing the reservation.
func (w *Wallet) PeekChangeScript() (AddressInfo, error) {
	params, err := wallet.ChainParams(w.Network)
	if err != nil {
		return AddressInfo{}, err
	}
	index := w.NextIndexes[wallet.Internal]
	address, script, err := wallet.DeriveTaprootScript(w.InternalXpub, index, params)
	if err != nil {
		return AddressInfo{}, fmt.Errorf("deriving %s/%d: %w", wallet.Internal, index, err)
	}
	return AddressInfo{
		Keychain: wallet.Internal,
		Index:    index,
		Address:  address,
		Script:   script,
	}, nil
}

// ReserveChangeScript reveals the next internal index and marks it used
// immediately, so a once-reserved change destination is never handed out
// again even if the transaction spending to it ends up rejected.
func (w *Wallet) ReserveChangeScript() (AddressInfo, error) {
	info, err := w.reveal(wallet.Internal)
	if err != nil {
		return AddressInfo{}, err
	}
	info.Used = true
	return AddressInfo{
		Keychain: info.Keychain,
		Index:    info.Index,
		Address:  info.Address,
		Script:   info.Script,
	}, nil
}

func (w *Wallet) reveal(keychain wallet.Keychain) (*ScriptInfo, error) {
	xpub := w.ExternalXpub
	if keychain == wallet.Internal {
		xpub = w.InternalXpub
	} else if keychain != wallet.External {
		return nil, ErrUnknownKeychain
	}

	params, err := wallet.ChainParams(w.Network)
	if err != nil {
		return nil, err
	}

	index := w.NextIndexes[keychain]
	address, script, err := wallet.DeriveTaprootScript(xpub, index, params)
	if err != nil {
		return nil, fmt.Errorf("revealing %s/%d: %w", keychain, index, err)
	}

	info := &ScriptInfo{
		Keychain: keychain,
		Index:    index,
		Address:  address,
		Script:   script,
	}
	w.Scripts[script] = info
	w.NextIndexes[keychain] = index + 1
	return info, nil
}

// utxo is an unspent owned output with its containing transaction.
type utxo struct {
	tx     *LedgerTx
	vout   uint32
	value  uint64
	script *ScriptInfo
}

func (w *Wallet) unspents() []utxo {
	spent := make(map[string]bool)
	for _, tx := range w.Txs {
		for _, in := range tx.Inputs {
			spent[fmt.Sprintf("%s:%d", in.Txid, in.Vout)] = true
		}
	}

	var unspents []utxo
	for _, tx := range w.Txs {
		for vout, out := range tx.Outputs {
			info, ok := w.Scripts[out.Script]
			if !ok {
				continue
			}
			if spent[fmt.Sprintf("%s:%d", tx.Txid, uint32(vout))] {
				continue
			}
			unspents = append(unspents, utxo{
				tx:     tx,
				vout:   uint32(vout),
				value:  out.Value,
				script: info,
			})
		}
	}
	return unspents
}

// isOwnTransfer reports whether every input of the transaction consumes
// one of the wallet's own scripts.
func (w *Wallet) isOwnTransfer(tx *LedgerTx) bool {
	if len(tx.Inputs) <= 0 {
		return false
	}
	for _, in := range tx.Inputs {
		if _, ok := w.Scripts[in.PrevScript]; !ok {
			return false
		}
	}
	return true
}

// Balance is a pure computation over the current ledger state.
func (w *Wallet) Balance() Balance {
	var balance Balance
	for _, u := range w.unspents() {
		switch {
		case u.tx.Coinbase && w.confirmations(u.tx) < coinbaseMaturity:
			balance.Immature += u.value
		case u.tx.Confirmed:
			balance.Confirmed += u.value
		case w.isOwnTransfer(u.tx):
			balance.TrustedPending += u.value
		default:
			balance.UntrustedPending += u.value
		}
	}
	return balance
}

func (w *Wallet) confirmations(tx *LedgerTx) uint32 {
	if !tx.Confirmed || tx.BlockHeight > w.Tip.Height {
		return 0
	}
	return w.Tip.Height - tx.BlockHeight + 1
}

// Spendables returns the unspent outputs usable for building a spend,
// excluding coinbase outputs still maturing. Unconfirmed coins are
// included so that freshly-received change is spendable right away.
func (w *Wallet) Spendables() []wallet.Utxo {
	var spendables []wallet.Utxo
	for _, u := range w.unspents() {
		if u.tx.Coinbase && w.confirmations(u.tx) < coinbaseMaturity {
			continue
		}
		spendables = append(spendables, wallet.Utxo{
			Txid:     u.tx.Txid,
			Vout:     u.vout,
			Value:    u.value,
			Script:   u.script.Script,
			Keychain: u.script.Keychain,
			Index:    u.script.Index,
		})
	}
	sort.Slice(spendables, func(i, j int) bool {
		if spendables[i].Txid != spendables[j].Txid {
			return spendables[i].Txid < spendables[j].Txid
		}
		return spendables[i].Vout < spendables[j].Vout
	})
	return spendables
}

// Transactions projects the ledger into display records, recomputed on
// every call. Confirmed transactions order by ascending confirmation
// height, unconfirmed ones follow.
func (w *Wallet) Transactions() []TransactionRecord {
	records := make([]TransactionRecord, 0, len(w.Txs))
	for _, tx := range w.Txs {
		var sent, received uint64
		for _, in := range tx.Inputs {
			if _, ok := w.Scripts[in.PrevScript]; ok {
				sent += in.PrevValue
			}
		}
		for _, out := range tx.Outputs {
			if _, ok := w.Scripts[out.Script]; ok {
				received += out.Value
			}
		}

		var feeRate uint64
		if vsize := uint64((tx.Weight + 3) / 4); vsize > 0 {
			feeRate = tx.Fee / vsize
		}

		records = append(records, TransactionRecord{
			Txid:     tx.Txid,
			Sent:     sent,
			Received: received,
			Fee:      tx.Fee,
			FeeRate:  feeRate,
			ChainPosition: ChainPosition{
				Confirmed: tx.Confirmed,
				Height:    tx.BlockHeight,
				BlockTime: tx.BlockTime,
			},
		})
	}

	sort.Slice(records, func(i, j int) bool {
		pi, pj := records[i].ChainPosition, records[j].ChainPosition
		if pi.Confirmed != pj.Confirmed {
			return pi.Confirmed
		}
		if pi.Confirmed && pi.Height != pj.Height {
			return pi.Height < pj.Height
		}
		return records[i].Txid < records[j].Txid
	})
	return records
}

func (w *Wallet) sortedScripts() []*ScriptInfo {
	scripts := make([]*ScriptInfo, 0, len(w.Scripts))
	for _, info := range w.Scripts {
		scripts = append(scripts, info)
	}
	sort.Slice(scripts, func(i, j int) bool {
		if scripts[i].Keychain != scripts[j].Keychain {
			return scripts[i].Keychain == wallet.External
		}
		return scripts[i].Index < scripts[j].Index
	})
	return scripts
}
