package dbbadger

import (
	"context"
	"errors"
	"fmt"

	"github.com/hotwallet-network/hotwallet-daemon/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type walletRepositoryImpl struct {
	db         *DbManager
	walletName string
}

// NewWalletRepositoryImpl returns a badger-backed domain.WalletRepository
// storing the snapshot of the named wallet.
func NewWalletRepositoryImpl(db *DbManager, walletName string) domain.WalletRepository {
	return walletRepositoryImpl{db: db, walletName: walletName}
}

func (r walletRepositoryImpl) GetWallet(ctx context.Context) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := r.db.WalletStore.Get(r.walletName, &wallet)
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading wallet snapshot: %w", err)
	}
	return &wallet, nil
}

func (r walletRepositoryImpl) InsertWallet(
	ctx context.Context, wallet *domain.Wallet,
) error {
	if err := r.db.WalletStore.Insert(r.walletName, wallet); err != nil {
		return fmt.Errorf("storing wallet snapshot: %w", err)
	}
	return nil
}

func (r walletRepositoryImpl) UpdateWallet(
	ctx context.Context, wallet *domain.Wallet,
) error {
	if err := r.db.WalletStore.Upsert(r.walletName, wallet); err != nil {
		return fmt.Errorf("flushing wallet snapshot: %w", err)
	}
	return nil
}
