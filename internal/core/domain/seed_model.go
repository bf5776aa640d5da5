package domain

import (
	"github.com/hotwallet-network/hotwallet-daemon/pkg/wallet"
)

// SeedRecord holds the seed material of a wallet, keyed by wallet name.
// Created once per wallet name and immutable thereafter.
type SeedRecord struct {
	WalletName string
	Mnemonic   string
}

// NewSeedRecord generates fresh key material for the given wallet name:
// 256 bits of cryptographically-random entropy encoded as a BIP-39
// mnemonic sentence.
func NewSeedRecord(walletName string) (*SeedRecord, error) {
	if len(walletName) <= 0 {
		return nil, ErrNullWalletName
	}
	mnemonic, err := wallet.NewMnemonic()
	if err != nil {
		return nil, err
	}
	return &SeedRecord{
		WalletName: walletName,
		Mnemonic:   mnemonic,
	}, nil
}

// Validate returns ErrSeedCorrupted if the stored mnemonic text does not
// parse as a valid BIP-39 sentence.
func (s *SeedRecord) Validate() error {
	if err := wallet.ValidateMnemonic(s.Mnemonic); err != nil {
		return ErrSeedCorrupted
	}
	return nil
}
