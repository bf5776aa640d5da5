package wallet

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// DerivePrivateKey returns the private key of the given keychain index,
// untweaked. Taproot output-key tweaking happens at signing time.
func (w *SigningWallet) DerivePrivateKey(
	keychain Keychain, index uint32,
) (*btcec.PrivateKey, error) {
	xprv, ok := w.branchXprvs[keychain]
	if !ok {
		return nil, ErrUnknownKeychain
	}
	child, err := xprv.Derive(index)
	if err != nil {
		return nil, fmt.Errorf("deriving key %s/%d: %w", keychain, index, err)
	}
	return child.ECPrivKey()
}

// DeriveTaprootScript derives the taproot address and scriptPubKey of the
// given index of a branch xpub. Public-side derivation only: it is usable
// without any key material and always matches DerivePrivateKey's output
// key for the same branch and index.
func DeriveTaprootScript(
	branchXpub string, index uint32, params *chaincfg.Params,
) (address, scriptHex string, err error) {
	xpub, err := hdkeychain.NewKeyFromString(branchXpub)
	if err != nil {
		return "", "", fmt.Errorf("invalid branch xpub: %w", err)
	}
	child, err := xpub.Derive(index)
	if err != nil {
		return "", "", fmt.Errorf("deriving index %d: %w", index, err)
	}
	pubKey, err := child.ECPubKey()
	if err != nil {
		return "", "", err
	}

	outputKey := txscript.ComputeTaprootKeyNoScript(pubKey)
	addr, err := btcutil.NewAddressTaproot(
		schnorr.SerializePubKey(outputKey), params,
	)
	if err != nil {
		return "", "", err
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return "", "", err
	}

	return addr.EncodeAddress(), hex.EncodeToString(script), nil
}
