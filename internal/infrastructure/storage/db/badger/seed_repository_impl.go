package dbbadger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/hotwallet-network/hotwallet-daemon/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type seedRepositoryImpl struct {
	db *DbManager
}

// NewSeedRepositoryImpl returns a badger-backed domain.SeedRepository.
func NewSeedRepositoryImpl(db *DbManager) domain.SeedRepository {
	return seedRepositoryImpl{db: db}
}

// GetOrCreateSeed loads the seed record for walletName, or generates and
// persists a new one inside a single badger transaction. The generated
// record is only returned once committed, so key material is never
// created and silently discarded.
func (r seedRepositoryImpl) GetOrCreateSeed(
	ctx context.Context, walletName string,
) (*domain.SeedRecord, error) {
	if len(walletName) <= 0 {
		return nil, domain.ErrNullWalletName
	}

	var record *domain.SeedRecord
	err := r.db.SeedStore.Badger().Update(func(tx *badger.Txn) error {
		var stored domain.SeedRecord
		err := r.db.SeedStore.TxGet(tx, walletName, &stored)
		if err == nil {
			if err := stored.Validate(); err != nil {
				return err
			}
			record = &stored
			return nil
		}
		if !errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("reading seed record: %w", err)
		}

		generated, err := domain.NewSeedRecord(walletName)
		if err != nil {
			return err
		}
		if err := r.db.SeedStore.TxInsert(tx, walletName, generated); err != nil {
			return fmt.Errorf("storing seed record: %w", err)
		}
		record = generated
		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}
