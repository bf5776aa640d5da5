package domain

import "errors"

var (
	// ErrSeedCorrupted is thrown when stored key material fails to parse.
	// Generating a replacement would orphan existing funds, so corruption
	// is surfaced instead.
	ErrSeedCorrupted = errors.New("stored seed is corrupted")
	// ErrNullWalletName ...
	ErrNullWalletName = errors.New("wallet name must not be null")
	// ErrDescriptorMismatch is thrown when the persisted wallet descriptors
	// do not match the freshly-derived ones. This is a configuration error,
	// never silently reset.
	ErrDescriptorMismatch = errors.New(
		"persisted descriptors do not match the derived ones, " +
			"check wallet network and key material",
	)
	// ErrInconsistentUpdate is thrown when a sync update references
	// confirmation heights beyond its own chain tip.
	ErrInconsistentUpdate = errors.New("sync update is inconsistent with its chain tip")
	// ErrUnknownKeychain ...
	ErrUnknownKeychain = errors.New("unknown keychain")
)
