package dbbadger_test

import (
	"context"
	"strings"
	"testing"

	"github.com/hotwallet-network/hotwallet-daemon/internal/core/domain"
	dbbadger "github.com/hotwallet-network/hotwallet-daemon/internal/infrastructure/storage/db/badger"
	"github.com/hotwallet-network/hotwallet-daemon/pkg/explorer"
	"github.com/hotwallet-network/hotwallet-daemon/pkg/wallet"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func newTestDb(t *testing.T) *dbbadger.DbManager {
	t.Helper()
	db, err := dbbadger.NewDbManager(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetOrCreateSeed(t *testing.T) {
	db := newTestDb(t)
	repo := dbbadger.NewSeedRepositoryImpl(db)

	created, err := repo.GetOrCreateSeed(ctx, "primary")
	require.NoError(t, err)
	require.Equal(t, "primary", created.WalletName)
	require.NoError(t, wallet.ValidateMnemonic(created.Mnemonic))
	require.Len(t, strings.Fields(created.Mnemonic), 24)

	// a second call returns the stored record, never a fresh one
	loaded, err := repo.GetOrCreateSeed(ctx, "primary")
	require.NoError(t, err)
	require.Equal(t, created.Mnemonic, loaded.Mnemonic)

	// distinct wallet names get distinct material
	other, err := repo.GetOrCreateSeed(ctx, "secondary")
	require.NoError(t, err)
	require.NotEqual(t, created.Mnemonic, other.Mnemonic)
}

func TestFailingGetOrCreateSeed(t *testing.T) {
	db := newTestDb(t)
	repo := dbbadger.NewSeedRepositoryImpl(db)

	_, err := repo.GetOrCreateSeed(ctx, "")
	require.ErrorIs(t, err, domain.ErrNullWalletName)

	// a record whose mnemonic no longer parses must never be returned
	err = db.SeedStore.Insert("primary", &domain.SeedRecord{
		WalletName: "primary",
		Mnemonic:   "definitely not a mnemonic sentence",
	})
	require.NoError(t, err)

	record, err := repo.GetOrCreateSeed(ctx, "primary")
	require.Nil(t, record)
	require.ErrorIs(t, err, domain.ErrSeedCorrupted)
}

func TestWalletSnapshotRoundTrip(t *testing.T) {
	db := newTestDb(t)
	repo := dbbadger.NewWalletRepositoryImpl(db, "primary")

	// absent snapshot reads back as nil without error
	missing, err := repo.GetWallet(ctx)
	require.NoError(t, err)
	require.Nil(t, missing)

	signer, err := wallet.NewSigningWallet(wallet.NewSigningWalletOpts{
		Mnemonic: testMnemonic(t),
		Network:  wallet.NetworkSignet,
	})
	require.NoError(t, err)
	externalDescriptor, _ := signer.Descriptor(wallet.External)
	internalDescriptor, _ := signer.Descriptor(wallet.Internal)
	externalXpub, _ := signer.Xpub(wallet.External)
	internalXpub, _ := signer.Xpub(wallet.Internal)

	w, err := domain.NewWallet(domain.NewWalletOpts{
		WalletName:         "primary",
		Network:            wallet.NetworkSignet,
		ExternalDescriptor: externalDescriptor,
		InternalDescriptor: internalDescriptor,
		ExternalXpub:       externalXpub,
		InternalXpub:       internalXpub,
	})
	require.NoError(t, err)
	require.NoError(t, repo.InsertWallet(ctx, w))

	// mutate and flush, then reload and compare the full state
	addr, err := w.NextUnusedAddress(wallet.External)
	require.NoError(t, err)
	err = w.ApplyUpdate(&explorer.SyncUpdate{
		Tip: explorer.BlockRef{Height: 100, Hash: "tiphash"},
		Txs: []explorer.TxInfo{{
			Txid: strings.Repeat("ab", 32),
			Inputs: []explorer.TxInput{{
				Txid: strings.Repeat("cd", 32), PrevScript: "5120ff", PrevValue: 60_000,
			}},
			Outputs:     []explorer.TxOutput{{Script: addr.Script, Value: 50_000}},
			Fee:         500,
			Confirmed:   true,
			BlockHeight: 90,
		}},
	})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateWallet(ctx, w))

	reloaded, err := repo.GetWallet(ctx)
	require.NoError(t, err)
	require.Equal(t, w, reloaded)
	require.Equal(t, w.Balance(), reloaded.Balance())
	require.True(t, reloaded.MatchesDescriptors(externalDescriptor, internalDescriptor))
}

func testMnemonic(t *testing.T) string {
	t.Helper()
	words := make([]string, 24)
	for i := range words {
		words[i] = "abandon"
	}
	words[23] = "art"
	return strings.Join(words, " ")
}
