package application

import "errors"

var (
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("invalid address for the wallet network")
	// ErrInvalidAmount ...
	ErrInvalidAmount = errors.New("amount must be an integer number of satoshis")
	// ErrInvalidFeeRate ...
	ErrInvalidFeeRate = errors.New("fee rate must be an integer number of sat/vbyte")
	// ErrInvalidNote ...
	ErrInvalidNote = errors.New("note exceeds the maximum data carrier size")
	// ErrNotFinalized is thrown when signing did not produce a fully
	// finalizable transaction. Fatal for the spend attempt, nothing is
	// broadcast.
	ErrNotFinalized = errors.New("transaction could not be fully signed")
	// ErrStoreOutOfSync is thrown when in-memory state advanced beyond
	// durable storage because of a failed flush. Spends are refused until
	// a successful flush is observed.
	ErrStoreOutOfSync = errors.New(
		"wallet store is out of sync with in-memory state, retry after a successful sync",
	)
)

// IsValidationError reports whether the error was raised by spend-input
// validation, before any wallet state was touched.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAddress) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidFeeRate) ||
		errors.Is(err, ErrInvalidNote)
}
