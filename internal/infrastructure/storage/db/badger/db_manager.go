package dbbadger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
)

// DbManager holds the badgerhold stores in a single data structure: one
// store for seed material, one for wallet state snapshots.
type DbManager struct {
	SeedStore   *badgerhold.Store
	WalletStore *badgerhold.Store
}

// NewDbManager opens (or creates if not exists) the badger stores on
// disk under dedicated directories of the base data dir.
func NewDbManager(baseDbDir string, logger badger.Logger) (*DbManager, error) {
	seedDb, err := createDb(filepath.Join(baseDbDir, "seed"), logger)
	if err != nil {
		return nil, fmt.Errorf("opening seed db: %w", err)
	}

	walletDb, err := createDb(filepath.Join(baseDbDir, "wallet"), logger)
	if err != nil {
		return nil, fmt.Errorf("opening wallet db: %w", err)
	}

	return &DbManager{
		SeedStore:   seedDb,
		WalletStore: walletDb,
	}, nil
}

// Close closes both stores.
func (d *DbManager) Close() error {
	if err := d.SeedStore.Close(); err != nil {
		return err
	}
	return d.WalletStore.Close()
}

// JSONEncode is a custom JSON based encoder for badger
func JSONEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer
	if err := json.NewEncoder(&buff).Encode(value); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// JSONDecode is a custom JSON based decoder for badger
func JSONDecode(data []byte, value interface{}) error {
	return json.NewDecoder(bytes.NewReader(data)).Decode(value)
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	return badgerhold.Open(badgerhold.Options{
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
