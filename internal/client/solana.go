package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	tokenmetadata "github.com/gagliardetto/metaplex-go/clients/token-metadata"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/AlexZinkM/belpy-mint/internal/logging"
	"github.com/AlexZinkM/belpy-mint/internal/model"
)

const (
	tokenMetadataProgramAddress = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s" // Metaplex Token Metadata program
	maxAccountsPerRequest       = 100                                            // getMultipleAccounts limit
	defaultRPCTimeout           = 20 * time.Second
)

var tokenMetadataProgramID = solana.MustPublicKeyFromBase58(tokenMetadataProgramAddress)

// ErrInvalidAddress is returned for strings that are not base58 Solana public keys.
var ErrInvalidAddress = errors.New("invalid Solana address")

// SolanaClient is a client for working with Solana RPC
type SolanaClient struct {
	rpcClient       *rpc.Client
	rpcURL          string
	updateAuthority *solana.PublicKey // optional collection filter
	timeout         time.Duration
	logger          *zap.Logger
}

// SolanaOption configures a SolanaClient.
type SolanaOption func(*SolanaClient)

// WithUpdateAuthority keeps only NFTs whose metadata update authority matches.
func WithUpdateAuthority(address string) SolanaOption {
	return func(c *SolanaClient) {
		if address == "" {
			return
		}
		if pk, err := solana.PublicKeyFromBase58(address); err == nil {
			c.updateAuthority = &pk
		} else {
			c.logger.Warn("ignoring invalid update authority", zap.String("address", address), zap.Error(err))
		}
	}
}

// WithSolanaLogger sets the logger.
func WithSolanaLogger(l *zap.Logger) SolanaOption {
	return func(c *SolanaClient) { c.logger = logging.OrNop(l) }
}

// NewSolanaClient creates a new Solana client for the given RPC endpoint.
func NewSolanaClient(rpcURL string, opts ...SolanaOption) *SolanaClient {
	c := &SolanaClient{
		rpcClient: rpc.New(rpcURL),
		rpcURL:    rpcURL,
		timeout:   defaultRPCTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateAddress checks that address is a base58 Solana public key.
func ValidateAddress(address string) error {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return nil
}

// GetBalance gets SOL balance in lamports for address
func (c *SolanaClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	owner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	balance, err := c.rpcClient.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get SOL balance: %w", err)
	}
	return balance.Value, nil
}

// parsedTokenAccount is the jsonParsed data of an SPL token account
type parsedTokenAccount struct {
	Parsed struct {
		Info struct {
			Mint        string `json:"mint"`
			Owner       string `json:"owner"`
			TokenAmount struct {
				Amount   string `json:"amount"`
				Decimals int    `json:"decimals"`
			} `json:"tokenAmount"`
		} `json:"info"`
		Type string `json:"type"`
	} `json:"parsed"`
}

// ListNFTs lists NFTs held by owner in RPC order: token accounts holding exactly
// one unit of a zero-decimals mint that has a Metaplex metadata account.
func (c *SolanaClient) ListNFTs(ctx context.Context, owner string) ([]model.NftItem, error) {
	ownerPubkey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	mints, err := c.nftMints(ctx, ownerPubkey)
	if err != nil {
		return nil, err
	}
	if len(mints) == 0 {
		return []model.NftItem{}, nil
	}

	items := make([]model.NftItem, 0, len(mints))
	for start := 0; start < len(mints); start += maxAccountsPerRequest {
		end := min(start+maxAccountsPerRequest, len(mints))
		batch, err := c.metadataForMints(ctx, mints[start:end])
		if err != nil {
			return nil, err
		}
		items = append(items, batch...)
	}
	return items, nil
}

// nftMints returns the mints of NFT-shaped token accounts owned by owner
func (c *SolanaClient) nftMints(ctx context.Context, owner solana.PublicKey) ([]solana.PublicKey, error) {
	programID := solana.TokenProgramID
	accounts, err := c.rpcClient.GetTokenAccountsByOwner(
		ctx,
		owner,
		&rpc.GetTokenAccountsConfig{ProgramId: &programID},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingJSONParsed},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get token accounts by owner: %w", err)
	}

	seen := make(map[solana.PublicKey]struct{}, len(accounts.Value))
	mints := make([]solana.PublicKey, 0, len(accounts.Value))
	for _, acc := range accounts.Value {
		if acc == nil || acc.Account.Data == nil {
			continue
		}
		raw := acc.Account.Data.GetRawJSON()
		if raw == nil {
			continue
		}
		var parsed parsedTokenAccount
		if err := json.Unmarshal(raw, &parsed); err != nil {
			c.logger.Debug("skipping unparsable token account", zap.String("account", acc.Pubkey.String()), zap.Error(err))
			continue
		}
		info := parsed.Parsed.Info
		if info.TokenAmount.Decimals != 0 || info.TokenAmount.Amount != "1" {
			continue
		}
		mint, err := solana.PublicKeyFromBase58(info.Mint)
		if err != nil {
			continue
		}
		if _, dup := seen[mint]; dup {
			continue
		}
		seen[mint] = struct{}{}
		mints = append(mints, mint)
	}
	return mints, nil
}

// metadataForMints loads and decodes Metaplex metadata accounts for mints
func (c *SolanaClient) metadataForMints(ctx context.Context, mints []solana.PublicKey) ([]model.NftItem, error) {
	pdas := make([]solana.PublicKey, len(mints))
	for i, mint := range mints {
		pda, err := metadataAddress(mint)
		if err != nil {
			return nil, err
		}
		pdas[i] = pda
	}

	res, err := c.rpcClient.GetMultipleAccounts(ctx, pdas...)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata accounts: %w", err)
	}

	items := make([]model.NftItem, 0, len(mints))
	for i, acc := range res.Value {
		if i >= len(mints) {
			break
		}
		if acc == nil || acc.Data == nil || !acc.Owner.Equals(tokenMetadataProgramID) {
			continue
		}
		var md tokenmetadata.Metadata
		if err := bin.NewBorshDecoder(acc.Data.GetBinary()).Decode(&md); err != nil {
			c.logger.Debug("skipping undecodable metadata", zap.String("mint", mints[i].String()), zap.Error(err))
			continue
		}
		if c.updateAuthority != nil && !md.UpdateAuthority.Equals(*c.updateAuthority) {
			continue
		}
		items = append(items, model.NftItem{
			Mint:   mints[i].String(),
			Name:   trimPadding(md.Data.Name),
			Symbol: trimPadding(md.Data.Symbol),
			URI:    trimPadding(md.Data.Uri),
		})
	}
	return items, nil
}

// metadataAddress derives the Metaplex metadata PDA of mint
func metadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte("metadata"),
			tokenMetadataProgramID.Bytes(),
			mint.Bytes(),
		},
		tokenMetadataProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to find metadata PDA: %w", err)
	}
	return pda, nil
}

// trimPadding strips the NUL padding of fixed-size on-chain strings
func trimPadding(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}
