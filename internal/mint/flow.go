// Package mint drives the confirm, submit and result cycle of a mint action.
package mint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/AlexZinkM/belpy-mint/internal/logging"
	"github.com/AlexZinkM/belpy-mint/internal/mintconfig"
)

var (
	// ErrMintInProgress is returned for any action other than waiting while minting.
	ErrMintInProgress = errors.New("mint in progress")
	// ErrNotConfirming is returned by Submit outside the Confirming state.
	ErrNotConfirming = errors.New("mint not confirmed")
	// ErrWalletRequired is returned by Submit without a connected wallet.
	ErrWalletRequired = errors.New("wallet not connected")
)

const defaultMintTimeout = 2 * time.Minute

// State is the mint flow state.
type State int

const (
	StateIdle State = iota
	StateConfirming
	StateMinting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfirming:
		return "confirming"
	case StateMinting:
		return "minting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Outcome is the result of one mint attempt: *Success or *Failure.
type Outcome interface {
	isOutcome()
}

// Success describes the minted asset.
type Success struct {
	Address   string `json:"address"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	URI       string `json:"uri"`
	Signature string `json:"signature"`
}

// Failure carries a human readable reason.
type Failure struct {
	Reason string `json:"reason"`
}

func (*Success) isOutcome() {}
func (*Failure) isOutcome() {}

// Signer signs with the connected wallet when it holds a key.
type Signer interface {
	SignIfNeeded(ctx context.Context, message []byte) (solana.Signature, error)
}

// Request is the input of one mint attempt.
type Request struct {
	Attempt uint64
	Owner   string
	Signer  Signer
	Config  mintconfig.Snapshot
}

// Minter performs the mint. It reports failures as *Failure, never as a panic.
type Minter interface {
	Mint(ctx context.Context, req Request) Outcome
}

// ConfigProvider supplies the mint configuration.
type ConfigProvider interface {
	Get(ctx context.Context) (mintconfig.Snapshot, error)
}

// Status is the read model of the flow.
type Status struct {
	State   string   `json:"state"`
	Attempt uint64   `json:"attempt"`
	Success *Success `json:"success,omitempty"`
	Failure *Failure `json:"failure,omitempty"`
}

// Flow is the mint state machine.
type Flow struct {
	minter  Minter
	config  ConfigProvider
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	state   State
	attempt uint64
	outcome Outcome
	cfg     mintconfig.Snapshot
	wg      sync.WaitGroup
}

// NewFlow creates an idle flow.
func NewFlow(minter Minter, config ConfigProvider, logger *zap.Logger) *Flow {
	return &Flow{
		minter:  minter,
		config:  config,
		timeout: defaultMintTimeout,
		logger:  logging.OrNop(logger),
	}
}

// Confirm opens a new mint cycle. It needs the mint config; a config
// failure leaves the flow where it was.
func (f *Flow) Confirm(ctx context.Context) error {
	f.mu.Lock()
	switch f.state {
	case StateMinting:
		f.mu.Unlock()
		return ErrMintInProgress
	case StateConfirming:
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	cfg, err := f.config.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load mint config: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateMinting {
		return ErrMintInProgress
	}
	f.state = StateConfirming
	f.outcome = nil
	f.cfg = cfg
	return nil
}

// Cancel returns to Idle from Confirming or a terminal state.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateMinting {
		return ErrMintInProgress
	}
	f.state = StateIdle
	f.outcome = nil
	return nil
}

// Submit starts the mint for the confirmed cycle and returns its attempt number.
// The minter runs in the background; Status reports the result.
func (f *Flow) Submit(req Request) (uint64, error) {
	if req.Owner == "" {
		return 0, ErrWalletRequired
	}

	f.mu.Lock()
	switch f.state {
	case StateMinting:
		f.mu.Unlock()
		return 0, ErrMintInProgress
	case StateConfirming:
	default:
		f.mu.Unlock()
		return 0, ErrNotConfirming
	}
	f.attempt++
	req.Attempt = f.attempt
	req.Config = f.cfg.Clone()
	f.state = StateMinting
	f.mu.Unlock()

	f.logger.Info("mint submitted", zap.Uint64("attempt", req.Attempt), zap.String("owner", req.Owner))

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()
		f.Complete(req.Attempt, f.minter.Mint(ctx, req))
	}()
	return req.Attempt, nil
}

// Complete records the outcome of attempt. It reports false and changes
// nothing when attempt is not the one currently minting.
func (f *Flow) Complete(attempt uint64, outcome Outcome) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if attempt != f.attempt || f.state != StateMinting {
		f.logger.Debug("ignoring late mint completion", zap.Uint64("attempt", attempt), zap.Stringer("state", f.state))
		return false
	}

	switch o := outcome.(type) {
	case *Success:
		f.state = StateSucceeded
		f.logger.Info("mint succeeded", zap.Uint64("attempt", attempt), zap.String("address", o.Address))
	case *Failure:
		f.state = StateFailed
		f.logger.Warn("mint failed", zap.Uint64("attempt", attempt), zap.String("reason", o.Reason))
	default:
		outcome = &Failure{Reason: "mint returned no result"}
		f.state = StateFailed
	}
	f.outcome = outcome
	return true
}

// Status returns the current state and, in a terminal state, the outcome.
func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := Status{State: f.state.String(), Attempt: f.attempt}
	if f.state.terminal() {
		switch o := f.outcome.(type) {
		case *Success:
			c := *o
			st.Success = &c
		case *Failure:
			c := *o
			st.Failure = &c
		}
	}
	return st
}

// Wait blocks until running mints have completed.
func (f *Flow) Wait() {
	f.wg.Wait()
}
