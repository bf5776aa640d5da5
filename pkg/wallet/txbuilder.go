package wallet

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/coinset"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txrules"
)

// Utxo is an unspent owned output, annotated with the keychain and index
// that derived its script so that it can be signed.
type Utxo struct {
	Txid     string
	Vout     uint32
	Value    uint64
	Script   string
	Keychain Keychain
	Index    uint32
}

// BuildTxOpts is the struct given to BuildTx.
type BuildTxOpts struct {
	// Utxos is the spendable set to select inputs from.
	Utxos []Utxo
	// RecipientScript and Amount define the single recipient output.
	RecipientScript []byte
	Amount          uint64
	// Note is attached as an unspendable data output.
	Note []byte
	// FeeRatePerVByte in sat/vbyte.
	FeeRatePerVByte uint64
	// ChangeScript receives the change output, if any.
	ChangeScript []byte
}

func (o BuildTxOpts) validate() error {
	if len(o.RecipientScript) <= 0 {
		return ErrNullRecipient
	}
	if o.FeeRatePerVByte <= 0 {
		return ErrInvalidFeeRate
	}
	if len(o.Note) > txscript.MaxDataCarrierSize {
		return ErrNoteTooLong
	}
	if txrules.IsDustAmount(
		btcutil.Amount(o.Amount), len(o.RecipientScript),
		txrules.DefaultRelayFeePerKb,
	) {
		return ErrDustOutput
	}
	return nil
}

// TxPayload is a partially-or-fully-signed transaction exchanged between
// the build, sign and finalize steps.
type TxPayload struct {
	Packet *psbt.Packet
	// SelectedUtxos are the inputs of the unsigned transaction, in input
	// order.
	SelectedUtxos []Utxo
	ChangeAmount  uint64
	Fee           uint64
}

// coin adapts a Utxo to the coinset.Coin interface.
type coin struct {
	utxo   Utxo
	hash   *chainhash.Hash
	script []byte
}

func newCoin(u Utxo) (*coin, error) {
	hash, err := chainhash.NewHashFromStr(u.Txid)
	if err != nil {
		return nil, fmt.Errorf("invalid utxo txid %s: %w", u.Txid, err)
	}
	script, err := hex.DecodeString(u.Script)
	if err != nil {
		return nil, fmt.Errorf("invalid utxo script: %w", err)
	}
	return &coin{u, hash, script}, nil
}

func (c *coin) Hash() *chainhash.Hash { return c.hash }
func (c *coin) Index() uint32         { return c.utxo.Vout }
func (c *coin) Value() btcutil.Amount { return btcutil.Amount(c.utxo.Value) }
func (c *coin) PkScript() []byte      { return c.script }
func (c *coin) NumConfs() int64       { return 1 }
func (c *coin) ValueAge() int64       { return int64(c.utxo.Value) }

// BuildTx constructs an unsigned transaction with exactly one recipient
// output, one data output carrying the note, and a change output when the
// remainder clears the dust threshold. Input selection and the fee are
// settled together by iterating selection against the estimated virtual
// size at the requested fee rate. The wallet state is not touched: the
// caller owns the change-index reservation backing ChangeScript.
func (w *SigningWallet) BuildTx(opts BuildTxOpts) (*TxPayload, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	noteScript, err := txscript.NullDataScript(opts.Note)
	if err != nil {
		return nil, fmt.Errorf("building data output: %w", err)
	}

	coins := make([]coinset.Coin, 0, len(opts.Utxos))
	for _, u := range opts.Utxos {
		c, err := newCoin(u)
		if err != nil {
			return nil, err
		}
		coins = append(coins, c)
	}
	selector := &coinset.MinNumberCoinSelector{
		MaxInputs:       len(coins),
		MinChangeAmount: 0,
	}

	var selected []coinset.Coin
	fee := uint64(0)
	for i := 0; i < 10; i++ {
		result, err := selector.CoinSelect(
			btcutil.Amount(opts.Amount+fee), coins,
		)
		if err != nil {
			return nil, ErrInsufficientFunds
		}
		selected = result.Coins()

		// estimate the fee for a candidate including a change output, so
		// the estimate never undershoots the final shape
		candidate := buildUnsignedTx(
			selected, opts.RecipientScript, opts.Amount, noteScript,
			opts.ChangeScript, 0,
		)
		nextFee := opts.FeeRatePerVByte * uint64(estimateVSize(candidate, len(selected)))
		if nextFee == fee {
			break
		}
		fee = nextFee
	}

	total := uint64(0)
	for _, c := range selected {
		total += uint64(c.Value())
	}
	if total < opts.Amount+fee {
		return nil, ErrInsufficientFunds
	}

	change := total - opts.Amount - fee
	if change > 0 && txrules.IsDustAmount(
		btcutil.Amount(change), len(opts.ChangeScript),
		txrules.DefaultRelayFeePerKb,
	) {
		// dust change folds into the fee
		fee += change
		change = 0
	}

	unsignedTx := buildUnsignedTx(
		selected, opts.RecipientScript, opts.Amount, noteScript,
		opts.ChangeScript, change,
	)

	packet, err := psbt.NewFromUnsignedTx(unsignedTx)
	if err != nil {
		return nil, fmt.Errorf("building psbt: %w", err)
	}

	selectedUtxos := selectedInInputOrder(opts.Utxos, selected)
	for i, u := range selectedUtxos {
		script, _ := hex.DecodeString(u.Script)
		packet.Inputs[i].WitnessUtxo = wire.NewTxOut(int64(u.Value), script)
		packet.Inputs[i].SighashType = txscript.SigHashDefault
	}

	return &TxPayload{
		Packet:        packet,
		SelectedUtxos: selectedUtxos,
		ChangeAmount:  change,
		Fee:           fee,
	}, nil
}

func buildUnsignedTx(
	selected []coinset.Coin,
	recipientScript []byte, amount uint64,
	noteScript []byte,
	changeScript []byte, change uint64,
) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	for _, c := range selected {
		outpoint := wire.NewOutPoint(c.Hash(), c.Index())
		tx.AddTxIn(wire.NewTxIn(outpoint, nil, nil))
	}
	tx.AddTxOut(wire.NewTxOut(int64(amount), recipientScript))
	tx.AddTxOut(wire.NewTxOut(0, noteScript))
	if change > 0 {
		tx.AddTxOut(wire.NewTxOut(int64(change), changeScript))
	}
	return tx
}

func selectedInInputOrder(utxos []Utxo, selected []coinset.Coin) []Utxo {
	byOutpoint := make(map[string]Utxo, len(utxos))
	for _, u := range utxos {
		byOutpoint[fmt.Sprintf("%s:%d", u.Txid, u.Vout)] = u
	}
	ordered := make([]Utxo, 0, len(selected))
	for _, c := range selected {
		ordered = append(
			ordered, byOutpoint[fmt.Sprintf("%s:%d", c.Hash(), c.Index())],
		)
	}
	return ordered
}

// SignTx signs every input of the payload with a BIP-86 key-spend
// signature and finalizes all inputs whose signature data is complete.
// It returns whether the payload is fully signed and finalizable.
func (w *SigningWallet) SignTx(payload *TxPayload) (bool, error) {
	prevouts := make(map[wire.OutPoint]*wire.TxOut)
	for i, in := range payload.Packet.UnsignedTx.TxIn {
		prevouts[in.PreviousOutPoint] = payload.Packet.Inputs[i].WitnessUtxo
	}
	prevoutFetcher := txscript.NewMultiPrevOutFetcher(prevouts)
	sigHashes := txscript.NewTxSigHashes(payload.Packet.UnsignedTx, prevoutFetcher)

	for i, utxo := range payload.SelectedUtxos {
		privateKey, err := w.DerivePrivateKey(utxo.Keychain, utxo.Index)
		if err != nil {
			return false, err
		}

		input := payload.Packet.Inputs[i]
		signature, err := txscript.RawTxInTaprootSignature(
			payload.Packet.UnsignedTx, sigHashes, i,
			input.WitnessUtxo.Value, input.WitnessUtxo.PkScript,
			nil, input.SighashType, privateKey,
		)
		if err != nil {
			return false, fmt.Errorf("signing input %d: %w", i, err)
		}

		payload.Packet.Inputs[i].TaprootKeySpendSig = signature
		payload.Packet.Inputs[i].TaprootInternalKey = schnorr.SerializePubKey(
			privateKey.PubKey(),
		)
	}

	if err := psbt.MaybeFinalizeAll(payload.Packet); err != nil {
		return false, fmt.Errorf("finalizing inputs: %w", err)
	}

	return payload.Packet.IsComplete(), nil
}

// FinalizeTx extracts the broadcastable raw transaction from a fully
// signed payload.
func FinalizeTx(payload *TxPayload) (txHex, txid string, err error) {
	if !payload.Packet.IsComplete() {
		return "", "", ErrNotFinalized
	}

	finalTx, err := psbt.Extract(payload.Packet)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrNotFinalized, err)
	}

	var buf bytes.Buffer
	if err := finalTx.Serialize(&buf); err != nil {
		return "", "", err
	}

	return hex.EncodeToString(buf.Bytes()), finalTx.TxHash().String(), nil
}
