package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hotwallet-network/hotwallet-daemon/internal/config"
	"github.com/hotwallet-network/hotwallet-daemon/internal/core/application"
	"github.com/hotwallet-network/hotwallet-daemon/internal/core/domain"
	dbbadger "github.com/hotwallet-network/hotwallet-daemon/internal/infrastructure/storage/db/badger"
	"github.com/hotwallet-network/hotwallet-daemon/internal/interface/web"
	"github.com/hotwallet-network/hotwallet-daemon/pkg/explorer/esplora"
	"github.com/hotwallet-network/hotwallet-daemon/pkg/wallet"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	ctx := context.Background()
	walletName := config.GetString(config.WalletNameKey)
	network := config.GetString(config.NetworkKey)

	dbDir := filepath.Join(config.GetString(config.DatadirKey), config.DbLocation)
	if err := os.MkdirAll(dbDir, 0700); err != nil {
		log.WithError(err).Fatal("creating datadir")
	}
	dbManager, err := dbbadger.NewDbManager(dbDir, nil)
	if err != nil {
		log.WithError(err).Fatal("opening stores")
	}
	defer dbManager.Close()

	explorerSvc, err := esplora.NewService(config.GetString(config.ExplorerEndpointKey))
	if err != nil {
		log.WithError(err).Fatal("connecting to chain data provider")
	}

	// the wallet identity is derived once at startup; no seed, no wallet
	seedRepo := dbbadger.NewSeedRepositoryImpl(dbManager)
	seed, err := seedRepo.GetOrCreateSeed(ctx, walletName)
	if err != nil {
		log.WithError(err).Fatal("loading seed material")
	}

	signer, err := wallet.NewSigningWallet(wallet.NewSigningWalletOpts{
		Mnemonic: seed.Mnemonic,
		Network:  network,
	})
	if err != nil {
		log.WithError(err).Fatal("deriving keychains")
	}

	walletRepo := dbbadger.NewWalletRepositoryImpl(dbManager, walletName)
	walletState, err := loadOrCreateWallet(ctx, walletRepo, signer, walletName, network)
	if err != nil {
		log.WithError(err).Fatal("loading wallet state")
	}

	walletSvc, err := application.NewWalletService(application.NewWalletServiceOpts{
		Wallet:           walletState,
		Signer:           signer,
		WalletRepository: walletRepo,
		ExplorerService:  explorerSvc,
		SyncParallelism:  config.GetInt(config.SyncParallelismKey),
	})
	if err != nil {
		log.WithError(err).Fatal("creating wallet service")
	}

	server := &http.Server{
		Addr:    config.GetString(config.ListenAddrKey),
		Handler: web.NewHandler(walletSvc),
	}
	go func() {
		log.Infof("listening on http://%s", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("serving web interface")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutting down web interface")
	}
}

// loadOrCreateWallet reconstructs the wallet state from the persisted
// snapshot, verifying the stored descriptors match the freshly-derived
// ones, or initializes and persists an empty state when none exists.
func loadOrCreateWallet(
	ctx context.Context,
	walletRepo domain.WalletRepository,
	signer *wallet.SigningWallet,
	walletName, network string,
) (*domain.Wallet, error) {
	externalDescriptor, _ := signer.Descriptor(wallet.External)
	internalDescriptor, _ := signer.Descriptor(wallet.Internal)
	log.Debugf("external descriptor: %s", externalDescriptor)
	log.Debugf("internal descriptor: %s", internalDescriptor)

	stored, err := walletRepo.GetWallet(ctx)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		if !stored.MatchesDescriptors(externalDescriptor, internalDescriptor) {
			return nil, domain.ErrDescriptorMismatch
		}
		return stored, nil
	}

	externalXpub, _ := signer.Xpub(wallet.External)
	internalXpub, _ := signer.Xpub(wallet.Internal)
	fresh, err := domain.NewWallet(domain.NewWalletOpts{
		WalletName:         walletName,
		Network:            network,
		ExternalDescriptor: externalDescriptor,
		InternalDescriptor: internalDescriptor,
		ExternalXpub:       externalXpub,
		InternalXpub:       internalXpub,
	})
	if err != nil {
		return nil, err
	}
	if err := walletRepo.InsertWallet(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}
