package wallet

import (
	"github.com/tyler-smith/go-bip39"
)

const entropyBits = 256

// NewMnemonic returns a new BIP-39 mnemonic sentence backed by 256 bits
// of cryptographically-random entropy.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// ValidateMnemonic returns ErrInvalidMnemonic if the sentence fails the
// wordlist or checksum check.
func ValidateMnemonic(mnemonic string) error {
	if len(mnemonic) <= 0 {
		return ErrNullMnemonic
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return ErrInvalidMnemonic
	}
	return nil
}
