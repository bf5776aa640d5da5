package wallet

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
)

// Keychain identifies one of the two derivation branches of the wallet.
type Keychain string

const (
	// External is the receive branch.
	External Keychain = "external"
	// Internal is the change branch.
	Internal Keychain = "internal"
)

func (k Keychain) branch() (uint32, error) {
	switch k {
	case External:
		return 0, nil
	case Internal:
		return 1, nil
	default:
		return 0, ErrUnknownKeychain
	}
}

// bip86Purpose is the purpose index of the single-key taproot derivation
// scheme (BIP-86).
const bip86Purpose = 86

// NewSigningWalletOpts is the struct given to NewSigningWallet.
type NewSigningWalletOpts struct {
	Mnemonic string
	Network  string
}

func (o NewSigningWalletOpts) validate() error {
	if err := ValidateMnemonic(o.Mnemonic); err != nil {
		return err
	}
	if _, err := ChainParams(o.Network); err != nil {
		return err
	}
	return nil
}

// SigningWallet holds the wallet's derived account keys. Derivation is
// deterministic, the same mnemonic and network always produce the same
// descriptors and keys. Immutable for the process lifetime.
type SigningWallet struct {
	chainParams *chaincfg.Params
	accountXprv *hdkeychain.ExtendedKey
	branchXprvs map[Keychain]*hdkeychain.ExtendedKey
	branchXpubs map[Keychain]*hdkeychain.ExtendedKey
	descriptors map[Keychain]string
}

// NewSigningWallet derives the wallet's two keychains from the mnemonic
// with the BIP-86 scheme m/86'/coin'/0'/{0,1}/*.
func NewSigningWallet(opts NewSigningWalletOpts) (*SigningWallet, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	params, _ := ChainParams(opts.Network)

	seed := bip39.NewSeed(opts.Mnemonic, "")
	master, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, fmt.Errorf("deriving master key: %w", err)
	}

	masterPub, err := master.ECPubKey()
	if err != nil {
		return nil, err
	}
	fingerprint := hex.EncodeToString(
		btcutil.Hash160(masterPub.SerializeCompressed())[:4],
	)

	purpose, err := master.Derive(hdkeychain.HardenedKeyStart + bip86Purpose)
	if err != nil {
		return nil, fmt.Errorf("deriving purpose key: %w", err)
	}
	coin, err := purpose.Derive(hdkeychain.HardenedKeyStart + params.HDCoinType)
	if err != nil {
		return nil, fmt.Errorf("deriving coin type key: %w", err)
	}
	account, err := coin.Derive(hdkeychain.HardenedKeyStart)
	if err != nil {
		return nil, fmt.Errorf("deriving account key: %w", err)
	}

	w := &SigningWallet{
		chainParams: params,
		accountXprv: account,
		branchXprvs: make(map[Keychain]*hdkeychain.ExtendedKey),
		branchXpubs: make(map[Keychain]*hdkeychain.ExtendedKey),
		descriptors: make(map[Keychain]string),
	}

	for _, keychain := range []Keychain{External, Internal} {
		branch, _ := keychain.branch()
		xprv, err := account.Derive(branch)
		if err != nil {
			return nil, fmt.Errorf("deriving %s branch: %w", keychain, err)
		}
		xpub, err := xprv.Neuter()
		if err != nil {
			return nil, err
		}
		w.branchXprvs[keychain] = xprv
		w.branchXpubs[keychain] = xpub
		w.descriptors[keychain] = fmt.Sprintf(
			"tr([%s/%d'/%d'/0']%s/%d/*)",
			fingerprint, bip86Purpose, params.HDCoinType, xpub.String(), branch,
		)
	}

	return w, nil
}

// ChainParams returns the wallet's network parameters.
func (w *SigningWallet) ChainParams() *chaincfg.Params {
	return w.chainParams
}

// Descriptor returns the deterministic descriptor string of a keychain.
func (w *SigningWallet) Descriptor(keychain Keychain) (string, error) {
	descriptor, ok := w.descriptors[keychain]
	if !ok {
		return "", ErrUnknownKeychain
	}
	return descriptor, nil
}

// Xpub returns the extended public key of a keychain branch in base58
// format. It is enough to derive addresses without key material.
func (w *SigningWallet) Xpub(keychain Keychain) (string, error) {
	xpub, ok := w.branchXpubs[keychain]
	if !ok {
		return "", ErrUnknownKeychain
	}
	return xpub.String(), nil
}
