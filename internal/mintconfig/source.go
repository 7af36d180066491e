package mintconfig

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/AlexZinkM/belpy-mint/internal/common"
	"github.com/AlexZinkM/belpy-mint/internal/logging"
)

const maxConfigBytes = 1 << 20

// HTTPSource reads the snapshot from a remote endpoint returning
// {"success": true, ...}.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source for url.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build config request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to get config: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxConfigBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if ok, _ := snap["success"].(bool); !ok {
		return nil, fmt.Errorf("config endpoint reported failure")
	}
	delete(snap, "success")

	// a SOL price string gets the lamports value the env source also reports
	if price, ok := snap["price"].(string); ok {
		if _, has := snap["priceLamports"]; !has {
			lamports, err := common.SOLToLamports(price)
			if err != nil {
				return nil, fmt.Errorf("invalid config price %q: %w", price, err)
			}
			snap["priceLamports"] = lamports
		}
	}
	return snap, nil
}

// RateSource quotes SOL in USD.
type RateSource interface {
	GetSOLtoUSDRate(ctx context.Context) (float64, error)
}

// EnvSource builds the snapshot from locally configured candy machine values.
type EnvSource struct {
	CandyMachineID string
	CollectionName string
	PriceLamports  uint64
	Supply         uint64
	// Rates is optional; a failed quote only drops priceUsd.
	Rates  RateSource
	Logger *zap.Logger
}

func (s *EnvSource) Fetch(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{
		"collectionName": s.CollectionName,
		"priceLamports":  s.PriceLamports,
		"price":          common.LamportsToSOL(s.PriceLamports),
		"supply":         s.Supply,
	}
	if s.CandyMachineID != "" {
		id, err := solana.PublicKeyFromBase58(s.CandyMachineID)
		if err != nil {
			return nil, fmt.Errorf("invalid candy machine id: %w", err)
		}
		snap["candyMachineId"] = id.String()
	}

	if s.Rates != nil {
		rate, err := s.Rates.GetSOLtoUSDRate(ctx)
		if err != nil {
			logging.OrNop(s.Logger).Warn("SOL/USD quote unavailable", zap.Error(err))
		} else {
			snap["priceUsd"] = common.LamportsToUSD(s.PriceLamports, rate)
		}
	}
	return snap, nil
}
