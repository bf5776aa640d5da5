package application_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hotwallet-network/hotwallet-daemon/internal/core/application"
	"github.com/hotwallet-network/hotwallet-daemon/internal/core/domain"
	"github.com/hotwallet-network/hotwallet-daemon/pkg/explorer"
	"github.com/hotwallet-network/hotwallet-daemon/pkg/wallet"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	ctx          = context.Background()
	testMnemonic = strings.Repeat("abandon ", 23) + "art"
)

type testEnv struct {
	service     application.WalletService
	wallet      *domain.Wallet
	signer      *wallet.SigningWallet
	explorerSvc *mockExplorer
	repo        *mockWalletRepo
	receive     domain.AddressInfo
}

// newTestEnv wires a service around a wallet holding one confirmed
// external coin of the given value, or an empty wallet when funds is 0.
func newTestEnv(t *testing.T, funds uint64) *testEnv {
	t.Helper()

	signer, err := wallet.NewSigningWallet(wallet.NewSigningWalletOpts{
		Mnemonic: testMnemonic,
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

	receive, err := w.NextUnusedAddress(wallet.External)
	require.NoError(t, err)

	if funds > 0 {
		err := w.ApplyUpdate(&explorer.SyncUpdate{
			Tip: explorer.BlockRef{Height: 100, Hash: "tip100"},
			Txs: []explorer.TxInfo{{
				Txid: strings.Repeat("aa", 32),
				Inputs: []explorer.TxInput{{
					Txid: strings.Repeat("cc", 32), PrevScript: "5120ff",
					PrevValue: funds + 500,
				}},
				Outputs:     []explorer.TxOutput{{Script: receive.Script, Value: funds}},
				Fee:         500,
				Confirmed:   true,
				BlockHeight: 90,
			}},
		})
		require.NoError(t, err)
	}

	explorerSvc := &mockExplorer{}
	repo := &mockWalletRepo{}

	service, err := application.NewWalletService(application.NewWalletServiceOpts{
		Wallet:           w,
		Signer:           signer,
		WalletRepository: repo,
		ExplorerService:  explorerSvc,
		SyncParallelism:  5,
	})
	require.NoError(t, err)

	return &testEnv{
		service:     service,
		wallet:      w,
		signer:      signer,
		explorerSvc: explorerSvc,
		repo:        repo,
		receive:     receive,
	}
}

func (e *testEnv) recipientAddress(t *testing.T) string {
	t.Helper()
	xpub, err := e.signer.Xpub(wallet.External)
	require.NoError(t, err)
	// a never-revealed index stands in for a foreign recipient
	address, _, err := wallet.DeriveTaprootScript(xpub, 9, e.signer.ChainParams())
	require.NoError(t, err)
	return address
}

func TestViewWallet(t *testing.T) {
	env := newTestEnv(t, 0)

	update := &explorer.SyncUpdate{
		Tip: explorer.BlockRef{Height: 100, Hash: "tip100"},
		Txs: []explorer.TxInfo{{
			Txid: strings.Repeat("aa", 32),
			Inputs: []explorer.TxInput{{
				Txid: strings.Repeat("cc", 32), PrevScript: "5120ff", PrevValue: 50_500,
			}},
			Outputs:     []explorer.TxOutput{{Script: env.receive.Script, Value: 50_000}},
			Fee:         500,
			Confirmed:   true,
			BlockHeight: 90,
		}},
	}
	env.explorerSvc.On(
		"Sync", mock.Anything,
		explorer.SyncRequest{Addresses: []string{env.receive.Address}}, 5,
	).Return(update, nil)
	env.repo.On("UpdateWallet", mock.Anything, env.wallet).Return(nil)

	view, err := env.service.ViewWallet(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(50_000), view.Balance.Confirmed)
	require.Len(t, view.Transactions, 1)

	// the funded address is used now, the view shows the next one
	require.NotEmpty(t, view.NextAddress)
	require.NotEqual(t, env.receive.Address, view.NextAddress)

	env.repo.AssertNumberOfCalls(t, "UpdateWallet", 1)
}

func TestFailingViewWallet(t *testing.T) {
	env := newTestEnv(t, 0)
	env.explorerSvc.On("Sync", mock.Anything, mock.Anything, 5).
		Return(nil, explorer.ErrNetwork)

	view, err := env.service.ViewWallet(ctx)
	require.Nil(t, view)
	require.ErrorIs(t, err, explorer.ErrNetwork)

	// nothing was mutated, nothing flushed
	env.repo.AssertNotCalled(t, "UpdateWallet", mock.Anything, mock.Anything)
}

func TestSpend(t *testing.T) {
	env := newTestEnv(t, 100_000)
	env.explorerSvc.On("Broadcast", mock.Anything, mock.Anything).Return("ignored", nil)
	env.repo.On("UpdateWallet", mock.Anything, env.wallet).Return(nil)

	txid, err := env.service.Spend(ctx, application.SpendRequest{
		Address: env.recipientAddress(t),
		Amount:  "1000",
		FeeRate: "1",
		Note:    "hi",
	})
	require.NoError(t, err)
	require.Len(t, txid, 64)

	// the broadcast transaction is in the ledger and the coin is spent
	recorded, ok := env.wallet.Txs[txid]
	require.True(t, ok)
	require.False(t, recorded.Confirmed)

	balance := env.wallet.Balance()
	require.Equal(t, uint64(0), balance.Confirmed)
	require.Equal(t, uint64(100_000-1000)-recorded.Fee, balance.TrustedPending)

	// the change index is consumed
	require.Equal(t, uint32(1), env.wallet.NextIndexes[wallet.Internal])

	env.explorerSvc.AssertNumberOfCalls(t, "Broadcast", 1)
	env.repo.AssertNumberOfCalls(t, "UpdateWallet", 1)
}

func TestFailingSpendValidation(t *testing.T) {
	env := newTestEnv(t, 100_000)
	valid := env.recipientAddress(t)

	tests := []struct {
		name     string
		req      application.SpendRequest
		expected error
	}{
		{
			"malformed address",
			application.SpendRequest{Address: "nonsense", Amount: "1000", FeeRate: "1"},
			application.ErrInvalidAddress,
		},
		{
			"wrong network address",
			application.SpendRequest{
				Address: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", Amount: "1000", FeeRate: "1",
			},
			application.ErrInvalidAddress,
		},
		{
			"non-numeric amount",
			application.SpendRequest{Address: valid, Amount: "ten", FeeRate: "1"},
			application.ErrInvalidAmount,
		},
		{
			"null fee rate",
			application.SpendRequest{Address: valid, Amount: "1000", FeeRate: "0"},
			application.ErrInvalidFeeRate,
		},
		{
			"oversized note",
			application.SpendRequest{
				Address: valid, Amount: "1000", FeeRate: "1",
				Note: strings.Repeat("x", 81),
			},
			application.ErrInvalidNote,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txid, err := env.service.Spend(ctx, tt.req)
			require.Empty(t, txid)
			require.ErrorIs(t, err, tt.expected)
			require.True(t, application.IsValidationError(err))
		})
	}

	// rejected before any lock: no network call, no flush, no reservation
	env.explorerSvc.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything)
	env.repo.AssertNotCalled(t, "UpdateWallet", mock.Anything, mock.Anything)
	require.Equal(t, uint32(0), env.wallet.NextIndexes[wallet.Internal])
}

func TestFailingSpendInsufficientFunds(t *testing.T) {
	env := newTestEnv(t, 0)

	txid, err := env.service.Spend(ctx, application.SpendRequest{
		Address: env.recipientAddress(t),
		Amount:  "1000",
		FeeRate: "1",
	})
	require.Empty(t, txid)
	require.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	env.explorerSvc.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything)
	env.repo.AssertNotCalled(t, "UpdateWallet", mock.Anything, mock.Anything)
	require.Equal(t, uint32(0), env.wallet.NextIndexes[wallet.Internal])
}

func TestSpendBroadcastRejected(t *testing.T) {
	env := newTestEnv(t, 100_000)
	env.explorerSvc.On("Broadcast", mock.Anything, mock.Anything).
		Return("", explorer.ErrTxRejected)
	env.repo.On("UpdateWallet", mock.Anything, env.wallet).Return(nil)

	txid, err := env.service.Spend(ctx, application.SpendRequest{
		Address: env.recipientAddress(t),
		Amount:  "1000",
		FeeRate: "1",
	})
	require.Empty(t, txid)
	require.ErrorIs(t, err, explorer.ErrTxRejected)

	// the rejected transaction is not in the ledger but the consumed
	// change index was reserved and flushed
	require.Len(t, env.wallet.Txs, 1)
	require.Equal(t, uint64(100_000), env.wallet.Balance().Confirmed)
	require.Equal(t, uint32(1), env.wallet.NextIndexes[wallet.Internal])
	env.repo.AssertNumberOfCalls(t, "UpdateWallet", 1)
}

func TestSpendRefusedWhileStoreOutOfSync(t *testing.T) {
	env := newTestEnv(t, 100_000)
	recipient := env.recipientAddress(t)
	env.explorerSvc.On("Broadcast", mock.Anything, mock.Anything).Return("ignored", nil)

	// the first flush fails, later ones succeed
	env.repo.On("UpdateWallet", mock.Anything, env.wallet).
		Return(errors.New("disk full")).Once()
	env.repo.On("UpdateWallet", mock.Anything, env.wallet).Return(nil)

	_, err := env.service.Spend(ctx, application.SpendRequest{
		Address: recipient, Amount: "1000", FeeRate: "1",
	})
	require.Error(t, err)

	// further spends are refused without touching the network
	txid, err := env.service.Spend(ctx, application.SpendRequest{
		Address: recipient, Amount: "1000", FeeRate: "1",
	})
	require.Empty(t, txid)
	require.ErrorIs(t, err, application.ErrStoreOutOfSync)
	env.explorerSvc.AssertNumberOfCalls(t, "Broadcast", 1)

	// a successful flush on a view cycle clears the refusal
	env.explorerSvc.On("Sync", mock.Anything, mock.Anything, 5).
		Return(&explorer.SyncUpdate{Tip: env.wallet.Tip}, nil)
	_, err = env.service.ViewWallet(ctx)
	require.NoError(t, err)

	txid, err = env.service.Spend(ctx, application.SpendRequest{
		Address: recipient, Amount: "1000", FeeRate: "1",
	})
	require.NoError(t, err)
	require.Len(t, txid, 64)
	env.explorerSvc.AssertNumberOfCalls(t, "Broadcast", 2)
}

func TestViewNeverObservesPartialSpend(t *testing.T) {
	env := newTestEnv(t, 100_000)
	recipient := env.recipientAddress(t)
	tip := env.wallet.Tip

	// the flush stalls inside the spend's write-locked section, widening
	// the window a racing reader would need to observe a partial state
	env.explorerSvc.On("Broadcast", mock.Anything, mock.Anything).Return("ignored", nil)
	env.explorerSvc.On("Sync", mock.Anything, mock.Anything, 5).
		Return(&explorer.SyncUpdate{Tip: tip}, nil)
	env.repo.On("UpdateWallet", mock.Anything, env.wallet).
		Run(func(args mock.Arguments) { time.Sleep(20 * time.Millisecond) }).
		Return(nil)

	spendDone := make(chan error, 1)
	go func() {
		_, err := env.service.Spend(ctx, application.SpendRequest{
			Address: recipient, Amount: "1000", FeeRate: "1",
		})
		spendDone <- err
	}()

	// every view is fully pre-spend or fully post-spend, never a mix of
	// the two ledgers
	for i := 0; i < 10; i++ {
		view, err := env.service.ViewWallet(ctx)
		require.NoError(t, err)

		switch len(view.Transactions) {
		case 1:
			require.Equal(t, uint64(100_000), view.Balance.Confirmed)
			require.Equal(t, uint64(0), view.Balance.TrustedPending)
		case 2:
			require.Equal(t, uint64(0), view.Balance.Confirmed)
			spend := view.Transactions[1]
			require.Equal(t, uint64(100_000-1000)-spend.Fee, view.Balance.TrustedPending)
		default:
			t.Fatalf("observed %d transactions", len(view.Transactions))
		}
	}

	require.NoError(t, <-spendDone)
}

func TestConcurrentSpendsSelectDisjointInputs(t *testing.T) {
	env := newTestEnv(t, 100_000)
	env.explorerSvc.On("Broadcast", mock.Anything, mock.Anything).Return("ignored", nil)
	env.repo.On("UpdateWallet", mock.Anything, env.wallet).Return(nil)

	// funds cover exactly one of the competing spends
	const spenders = 5
	var wg sync.WaitGroup
	errs := make([]error, spenders)
	for i := 0; i < spenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.service.Spend(ctx, application.SpendRequest{
				Address: env.recipientAddress(t),
				Amount:  "90000",
				FeeRate: "1",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, wallet.ErrInsufficientFunds)
		}
	}
	require.Equal(t, 1, succeeded)
	env.explorerSvc.AssertNumberOfCalls(t, "Broadcast", 1)
}

/**** MOCKS ****/

type mockExplorer struct {
	mock.Mock
}

func (m *mockExplorer) Tip(ctx context.Context) (explorer.BlockRef, error) {
	args := m.Called(ctx)
	return args.Get(0).(explorer.BlockRef), args.Error(1)
}

func (m *mockExplorer) Sync(
	ctx context.Context, req explorer.SyncRequest, parallelism int,
) (*explorer.SyncUpdate, error) {
	args := m.Called(ctx, req, parallelism)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*explorer.SyncUpdate), args.Error(1)
}

func (m *mockExplorer) Broadcast(ctx context.Context, txHex string) (string, error) {
	args := m.Called(ctx, txHex)
	return args.String(0), args.Error(1)
}

type mockWalletRepo struct {
	mock.Mock
}

func (m *mockWalletRepo) GetWallet(ctx context.Context) (*domain.Wallet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *mockWalletRepo) InsertWallet(ctx context.Context, w *domain.Wallet) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *mockWalletRepo) UpdateWallet(ctx context.Context, w *domain.Wallet) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}
