package wallet

import "errors"

var (
	// ErrNullNetwork ...
	ErrNullNetwork = errors.New("network must not be null")
	// ErrUnknownNetwork ...
	ErrUnknownNetwork = errors.New("unknown network")
	// ErrNullMnemonic ...
	ErrNullMnemonic = errors.New("mnemonic must not be null")
	// ErrInvalidMnemonic is returned when a mnemonic sentence fails the
	// BIP-39 checksum or wordlist check.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	// ErrUnknownKeychain ...
	ErrUnknownKeychain = errors.New("unknown keychain")
	// ErrInsufficientFunds is returned when the spendable set cannot cover
	// the requested amount plus fees.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidFeeRate ...
	ErrInvalidFeeRate = errors.New("fee rate must be a positive number of sat/vbyte")
	// ErrDustOutput is returned when the recipient output is below the
	// network dust threshold.
	ErrDustOutput = errors.New("output amount is below the dust threshold")
	// ErrNoteTooLong is returned when the note exceeds the standard data
	// carrier size.
	ErrNoteTooLong = errors.New("note exceeds the maximum data carrier size")
	// ErrNullRecipient ...
	ErrNullRecipient = errors.New("recipient script must not be null")
	// ErrNotFinalized is returned when extracting a raw transaction from a
	// payload whose signature data is incomplete.
	ErrNotFinalized = errors.New("payload is not fully signed")
)
