package application

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/wire"
	"github.com/google/uuid"
	"github.com/hotwallet-network/hotwallet-daemon/internal/core/domain"
	"github.com/hotwallet-network/hotwallet-daemon/pkg/explorer"
	"github.com/hotwallet-network/hotwallet-daemon/pkg/wallet"
	log "github.com/sirupsen/logrus"
)

// WalletView is the response of a view request.
type WalletView struct {
	NextAddress  string
	Balance      domain.Balance
	Transactions []domain.TransactionRecord
}

// SpendRequest carries the raw, unvalidated fields of a spend request as
// received from the inbound surface.
type SpendRequest struct {
	Address string
	Amount  string
	FeeRate string
	Note    string
}

// WalletService sequences wallet-state access, chain sync, persistence
// and spending under the locking discipline each request type requires.
type WalletService interface {
	// ViewWallet runs one demand-driven sync cycle and returns the
	// post-update balance, next receive address and transaction history.
	ViewWallet(ctx context.Context) (*WalletView, error)
	// Spend builds, signs, broadcasts and persists a single spend. Spends
	// are serialized: no second spend selects inputs before the first
	// one's flush (or failure) completes.
	Spend(ctx context.Context, req SpendRequest) (string, error)
}

// NewWalletServiceOpts is the struct given to NewWalletService.
type NewWalletServiceOpts struct {
	Wallet           *domain.Wallet
	Signer           *wallet.SigningWallet
	WalletRepository domain.WalletRepository
	ExplorerService  explorer.Service
	SyncParallelism  int
}

func (o NewWalletServiceOpts) validate() error {
	if o.Wallet == nil || o.Signer == nil || o.WalletRepository == nil ||
		o.ExplorerService == nil {
		return errors.New("wallet, signer, repository and explorer must not be null")
	}
	return nil
}

type walletService struct {
	wallet          *domain.Wallet
	signer          *wallet.SigningWallet
	walletRepo      domain.WalletRepository
	explorerSvc     explorer.Service
	syncParallelism int

	// stateMtx guards the wallet state, storeMtx guards the persistence
	// handle. Lock ordering: stateMtx before storeMtx, always.
	stateMtx sync.RWMutex
	storeMtx sync.RWMutex
	// storeOutOfSync is set when a flush fails after an in-memory
	// mutation. Guarded by stateMtx.
	storeOutOfSync bool
}

// NewWalletService returns the orchestration layer for the given wallet
// state, signer, persistence adapter and chain source.
func NewWalletService(opts NewWalletServiceOpts) (WalletService, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	parallelism := opts.SyncParallelism
	if parallelism < 1 {
		parallelism = 1
	}
	return &walletService{
		wallet:          opts.Wallet,
		signer:          opts.Signer,
		walletRepo:      opts.WalletRepository,
		explorerSvc:     opts.ExplorerService,
		syncParallelism: parallelism,
	}, nil
}

func (s *walletService) ViewWallet(ctx context.Context) (*WalletView, error) {
	logger := log.WithField("cycle", shortID())

	// snapshot the revealed scripts under read lock, then release it for
	// the network-bound sync call
	s.stateMtx.RLock()
	syncRequest := s.wallet.BuildSyncRequest()
	s.stateMtx.RUnlock()

	logger.Debugf("syncing %d watched scripts", len(syncRequest.Addresses))
	update, err := s.explorerSvc.Sync(ctx, syncRequest, s.syncParallelism)
	if err != nil {
		return nil, err
	}

	// apply, read the next unused address (itself a mutation) and flush
	// as one critical section, so concurrent readers observe either the
	// fully-pre or fully-post state
	nextAddress, err := s.applyAndFlush(ctx, logger, update)
	if err != nil {
		return nil, err
	}

	s.stateMtx.RLock()
	defer s.stateMtx.RUnlock()
	return &WalletView{
		NextAddress:  nextAddress,
		Balance:      s.wallet.Balance(),
		Transactions: s.wallet.Transactions(),
	}, nil
}

func (s *walletService) applyAndFlush(
	ctx context.Context, logger *log.Entry, update *explorer.SyncUpdate,
) (string, error) {
	s.stateMtx.Lock()
	defer s.stateMtx.Unlock()

	logger.Debugf("applying update with %d txs at tip %d", len(update.Txs), update.Tip.Height)
	if err := s.wallet.ApplyUpdate(update); err != nil {
		return "", err
	}

	addressInfo, err := s.wallet.NextUnusedAddress(wallet.External)
	if err != nil {
		return "", err
	}

	if err := s.flush(ctx); err != nil {
		return "", err
	}

	return addressInfo.Address, nil
}

// flush persists the wallet state under the store lock. The caller must
// hold the state write lock. A failed flush trips the out-of-sync state
// that refuses spends until a later flush succeeds.
func (s *walletService) flush(ctx context.Context) error {
	s.storeMtx.Lock()
	err := s.walletRepo.UpdateWallet(ctx, s.wallet)
	s.storeMtx.Unlock()

	if err != nil {
		s.storeOutOfSync = true
		return fmt.Errorf("flushing wallet state: %w", err)
	}
	s.storeOutOfSync = false
	return nil
}

func (s *walletService) Spend(ctx context.Context, req SpendRequest) (string, error) {
	logger := log.WithField("spend", shortID())

	// validation happens before any lock is acquired
	intent, err := parseSpendRequest(req, s.signer.ChainParams())
	if err != nil {
		return "", err
	}
	logger.Debugf(
		"spend %s sats with fee rate %s sat/vbyte", req.Amount, req.FeeRate,
	)

	// the write lock spans build+sign+broadcast+flush: serializing spends
	// is the simplest policy that rules out double-spending the same
	// inputs or change index
	s.stateMtx.Lock()
	defer s.stateMtx.Unlock()

	if s.storeOutOfSync {
		return "", ErrStoreOutOfSync
	}

	change, err := s.wallet.PeekChangeScript()
	if err != nil {
		return "", err
	}
	changeScript, err := hex.DecodeString(change.Script)
	if err != nil {
		return "", err
	}

	// build and sign; nothing is mutated yet, a failure here leaves no
	// trace in wallet state
	payload, err := s.signer.BuildTx(wallet.BuildTxOpts{
		Utxos:           s.wallet.Spendables(),
		RecipientScript: intent.recipientScript,
		Amount:          intent.amount,
		Note:            intent.note,
		FeeRatePerVByte: intent.feeRatePerVByte,
		ChangeScript:    changeScript,
	})
	if err != nil {
		return "", err
	}

	isFullySigned, err := s.signer.SignTx(payload)
	if err != nil {
		return "", err
	}
	if !isFullySigned {
		return "", ErrNotFinalized
	}

	txHex, txid, err := wallet.FinalizeTx(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFinalized, err)
	}

	// the change index is consumed from the moment a signature exists for
	// it, whatever the broadcast outcome: a once-signed index is never
	// handed out again
	if payload.ChangeAmount > 0 {
		if _, err := s.wallet.ReserveChangeScript(); err != nil {
			return "", err
		}
	}

	logger.WithField("txid", txid).Debug("broadcasting")
	if _, err := s.explorerSvc.Broadcast(ctx, txHex); err != nil {
		// the rejected transaction is not recorded as broadcast, but the
		// consumed change index is flushed so it cannot be reused
		if flushErr := s.flush(ctx); flushErr != nil {
			logger.WithError(flushErr).Error("flush after failed broadcast")
		}
		return "", err
	}

	if err := s.recordBroadcast(payload, txHex, txid); err != nil {
		return "", err
	}
	if err := s.flush(ctx); err != nil {
		return "", err
	}

	logger.WithField("txid", txid).Info("spend broadcast and persisted")
	return txid, nil
}

// recordBroadcast merges the freshly-broadcast transaction into the
// wallet state so balances reflect the pending change right away.
func (s *walletService) recordBroadcast(
	payload *wallet.TxPayload, txHex, txid string,
) error {
	rawTx, err := hex.DecodeString(txHex)
	if err != nil {
		return err
	}
	var msgTx wire.MsgTx
	if err := msgTx.Deserialize(bytes.NewReader(rawTx)); err != nil {
		return err
	}

	inputs := make([]explorer.TxInput, 0, len(payload.SelectedUtxos))
	for _, u := range payload.SelectedUtxos {
		inputs = append(inputs, explorer.TxInput{
			Txid:       u.Txid,
			Vout:       u.Vout,
			PrevScript: u.Script,
			PrevValue:  u.Value,
		})
	}
	outputs := make([]explorer.TxOutput, 0, len(msgTx.TxOut))
	for _, out := range msgTx.TxOut {
		outputs = append(outputs, explorer.TxOutput{
			Script: hex.EncodeToString(out.PkScript),
			Value:  uint64(out.Value),
		})
	}

	baseSize := msgTx.SerializeSizeStripped()
	totalSize := msgTx.SerializeSize()

	return s.wallet.ApplyUpdate(&explorer.SyncUpdate{
		Tip: s.wallet.Tip,
		Txs: []explorer.TxInfo{{
			Txid:    txid,
			Version: msgTx.Version,
			Inputs:  inputs,
			Outputs: outputs,
			Size:    totalSize,
			Weight:  baseSize*3 + totalSize,
			Fee:     payload.Fee,
		}},
	})
}

func shortID() string {
	return uuid.NewString()[:8]
}
