package wallet

import "github.com/btcsuite/btcd/wire"

const (
	// schnorrSigSize is the size of a BIP-340 signature with the default
	// sighash flag.
	schnorrSigSize = 64
	// keySpendWitnessSize is the serialized witness of a taproot key
	// spend: item count, item length and the signature itself.
	keySpendWitnessSize = 1 + 1 + schnorrSigSize
	// witnessMarkerSize accounts for the segwit marker and flag bytes.
	witnessMarkerSize = 2
)

// estimateVSize returns the virtual size of the transaction once every
// input carries a taproot key-spend witness. The base size comes from the
// unsigned serialization, the witness size is fixed per input.
func estimateVSize(tx *wire.MsgTx, numInputs int) int {
	baseSize := tx.SerializeSizeStripped()
	totalSize := baseSize + witnessMarkerSize + numInputs*keySpendWitnessSize

	weight := baseSize*3 + totalSize
	return (weight + 3) / 4
}
