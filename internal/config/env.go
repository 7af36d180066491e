package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config contains all configuration parameters for the application.
type Config struct {
	Port         string `envconfig:"PORT" default:"8080"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	SolanaRPCURL string `envconfig:"SOLANA_RPC_URL" default:"https://api.mainnet-beta.solana.com"`

	// Metadata resolution
	IPFSGateway         string        `envconfig:"IPFS_GATEWAY" default:"https://ipfs.io/ipfs/"`
	MetadataTimeout     time.Duration `envconfig:"METADATA_TIMEOUT" default:"10s"`
	MetadataRPS         float64       `envconfig:"METADATA_RPS" default:"10"`
	MetadataConcurrency int           `envconfig:"METADATA_CONCURRENCY" default:"8"`

	// NFT collection
	NFTCacheTimeout           time.Duration `envconfig:"NFT_CACHE_TIMEOUT" default:"5m"`
	NFTCacheMaxEntries        int           `envconfig:"NFT_CACHE_MAX_ENTRIES" default:"10000"`
	CollectionUpdateAuthority string        `envconfig:"COLLECTION_UPDATE_AUTHORITY"`

	// Mint configuration. ConfigURL wins over the local candy machine values when set.
	ConfigURL         string        `envconfig:"CONFIG_URL"`
	CandyMachineID    string        `envconfig:"CANDY_MACHINE_ID"`
	CollectionName    string        `envconfig:"COLLECTION_NAME" default:"BELPY"`
	MintPriceLamports uint64        `envconfig:"MINT_PRICE_LAMPORTS" default:"100000000"`
	MintSupply        uint64        `envconfig:"MINT_SUPPLY" default:"10000"`
	MintDelay         time.Duration `envconfig:"MINT_DELAY" default:"2s"`
	MintSuccessRate   float64       `envconfig:"MINT_SUCCESS_RATE" default:"0.9"`

	// Wallet session
	SkipAutoConnect    bool   `envconfig:"SKIP_AUTO_CONNECT" default:"false"`
	SessionStorePath   string `envconfig:"SESSION_STORE_PATH" default:".belpy/session.json"`
	RedisURL           string `envconfig:"REDIS_URL"`
	KeystorePath       string `envconfig:"KEYSTORE_PATH"`
	KeystorePassphrase string `envconfig:"KEYSTORE_PASSPHRASE"`
	KeypairPath        string `envconfig:"KEYPAIR_PATH"`
	WatchAddress       string `envconfig:"WATCH_ADDRESS"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

// Validate rejects values the services cannot work with.
func (c *Config) Validate() error {
	if c.NFTCacheTimeout <= 0 {
		return errors.New("NFT_CACHE_TIMEOUT must be positive")
	}
	if c.MintSuccessRate < 0 || c.MintSuccessRate > 1 {
		return errors.New("MINT_SUCCESS_RATE must be between 0 and 1")
	}
	if c.NFTCacheMaxEntries <= 0 {
		return errors.New("NFT_CACHE_MAX_ENTRIES must be positive")
	}
	if c.MetadataConcurrency <= 0 {
		return errors.New("METADATA_CONCURRENCY must be positive")
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetSolanaRPCURL returns Solana RPC URL from configuration
func GetSolanaRPCURL() string {
	return Get().SolanaRPCURL
}
