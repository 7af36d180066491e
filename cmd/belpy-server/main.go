// @title        BELPY mint API
// @version      1.0
// @description  Wallet session, NFT gallery and mint flow for the BELPY collection site.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AlexZinkM/belpy-mint/internal/api"
	"github.com/AlexZinkM/belpy-mint/internal/balance"
	"github.com/AlexZinkM/belpy-mint/internal/client"
	"github.com/AlexZinkM/belpy-mint/internal/config"
	"github.com/AlexZinkM/belpy-mint/internal/handler"
	"github.com/AlexZinkM/belpy-mint/internal/logging"
	"github.com/AlexZinkM/belpy-mint/internal/metadata"
	"github.com/AlexZinkM/belpy-mint/internal/mint"
	"github.com/AlexZinkM/belpy-mint/internal/mintconfig"
	"github.com/AlexZinkM/belpy-mint/internal/nft"
	"github.com/AlexZinkM/belpy-mint/internal/wallet"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "belpy-server: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(config.Get().LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "belpy-server: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.Get(), logger); err != nil {
		logger.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	solanaClient := client.NewSolanaClient(config.GetSolanaRPCURL(),
		client.WithSolanaLogger(logger.Named("solana")),
		client.WithUpdateAuthority(cfg.CollectionUpdateAuthority),
	)

	resolver := metadata.NewResolver(cfg.IPFSGateway,
		metadata.WithHTTPClient(&http.Client{Timeout: cfg.MetadataTimeout}),
		metadata.WithRateLimit(cfg.MetadataRPS, cfg.MetadataConcurrency),
		metadata.WithLogger(logger.Named("metadata")),
	)

	nfts := nft.NewService(nft.Config{
		Source:       solanaClient,
		Metadata:     resolver,
		CacheTimeout: cfg.NFTCacheTimeout,
		MaxEntries:   cfg.NFTCacheMaxEntries,
		Concurrency:  cfg.MetadataConcurrency,
		Logger:       logger.Named("nft"),
	})

	store, closeStore, err := newSessionStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	session := wallet.NewManager(wallet.Config{
		Providers:       newProviders(cfg, solanaClient),
		Store:           store,
		Balance:         balance.NewStore(),
		Listeners:       []wallet.Listener{nfts},
		SkipAutoConnect: cfg.SkipAutoConnect,
		Logger:          logger.Named("wallet"),
	})

	mintConfig := mintconfig.NewService(newConfigSource(cfg, logger), logger.Named("mintconfig"))
	flow := mint.NewFlow(&mint.SimulatedMinter{
		Delay:          cfg.MintDelay,
		SuccessRate:    cfg.MintSuccessRate,
		CollectionName: cfg.CollectionName,
		Logger:         logger.Named("mint"),
	}, mintConfig, logger.Named("mint"))

	router := api.SetupRouter(api.Handlers{
		Config:  handler.NewConfigHandler(mintConfig, logger),
		NFTs:    handler.NewNftHandler(nfts, client.ValidateAddress, logger),
		Session: handler.NewSessionHandler(session, logger),
		Mint:    handler.NewMintHandler(flow, session, logger),
		Logger:  logger.Named("http"),
	})

	go session.Start(ctx)

	server := &http.Server{
		Addr:              ":" + config.GetPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("belpy-server listening", zap.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown error", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	flow.Wait()
	session.Wait()
	nfts.Wait()
	logger.Info("belpy-server stopped")
	return nil
}

func newSessionStore(cfg *config.Config) (wallet.Store, func(), error) {
	if cfg.RedisURL == "" {
		return wallet.NewFileStore(cfg.SessionStorePath), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	return wallet.NewRedisStore(rdb), func() { _ = rdb.Close() }, nil
}

func newProviders(cfg *config.Config, balances wallet.BalanceFetcher) []wallet.Provider {
	var passphrase wallet.PassphraseSource = wallet.TerminalPassphrase{}
	if cfg.KeystorePassphrase != "" {
		passphrase = wallet.StaticPassphrase(cfg.KeystorePassphrase)
	}
	return []wallet.Provider{
		wallet.NewKeystoreProvider(cfg.KeystorePath, passphrase, balances),
		wallet.NewKeypairProvider(cfg.KeypairPath, balances),
		wallet.NewWatchProvider(cfg.WatchAddress, balances),
	}
}

func newConfigSource(cfg *config.Config, logger *zap.Logger) mintconfig.Source {
	if cfg.ConfigURL != "" {
		return mintconfig.NewHTTPSource(cfg.ConfigURL)
	}
	return &mintconfig.EnvSource{
		CandyMachineID: cfg.CandyMachineID,
		CollectionName: cfg.CollectionName,
		PriceLamports:  cfg.MintPriceLamports,
		Supply:         cfg.MintSupply,
		Rates:          client.NewCoinGeckoClient(""),
		Logger:         logger.Named("mintconfig"),
	}
}
