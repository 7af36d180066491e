package mint

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/AlexZinkM/belpy-mint/internal/logging"
)

const (
	DefaultDelay       = 2 * time.Second
	DefaultSuccessRate = 0.9
)

// SimulatedMinter fakes a mint for UI development: it waits Delay and
// succeeds with probability SuccessRate. Nothing is sent on chain.
type SimulatedMinter struct {
	Delay          time.Duration
	SuccessRate    float64
	CollectionName string
	// Rand returns values in [0,1); nil uses math/rand/v2.
	Rand   func() float64
	Logger *zap.Logger
}

func (m *SimulatedMinter) Mint(ctx context.Context, req Request) Outcome {
	select {
	case <-time.After(m.Delay):
	case <-ctx.Done():
		return &Failure{Reason: "Mint timed out. Please try again."}
	}

	random := m.Rand
	if random == nil {
		random = rand.Float64
	}
	if random() >= m.SuccessRate {
		return &Failure{Reason: "Transaction failed. Please try again."}
	}

	asset := solana.NewWallet().PublicKey()
	name := m.CollectionName
	if v, ok := req.Config["collectionName"].(string); ok && v != "" {
		name = v
	}
	if name == "" {
		name = "BELPY"
	}
	number := int(random()*10000) + 1

	return &Success{
		Address:   asset.String(),
		Name:      fmt.Sprintf("%s #%04d", name, number),
		Image:     fmt.Sprintf("/nfts/%04d.png", number),
		URI:       fmt.Sprintf("/nfts/%04d.json", number),
		Signature: m.signature(ctx, req, asset).String(),
	}
}

// signature signs the asset address with the connected wallet, falling
// back to a throwaway key for wallets that cannot sign
func (m *SimulatedMinter) signature(ctx context.Context, req Request, asset solana.PublicKey) solana.Signature {
	if req.Signer != nil {
		sig, err := req.Signer.SignIfNeeded(ctx, asset.Bytes())
		if err == nil {
			return sig
		}
		logging.OrNop(m.Logger).Debug("wallet cannot sign, using synthetic signature", zap.Error(err))
	}
	sig, err := solana.NewWallet().PrivateKey.Sign(asset.Bytes())
	if err != nil {
		return solana.Signature{}
	}
	return sig
}
