package wallet

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AlexZinkM/belpy-mint/internal/balance"
	"github.com/AlexZinkM/belpy-mint/internal/common"
	"github.com/AlexZinkM/belpy-mint/internal/logging"
)

const balanceTimeout = 15 * time.Second

// Listener is notified after the session changes hands.
type Listener interface {
	OnConnect(address string)
	OnDisconnect(address string)
}

// Config holds the dependencies of the session manager.
type Config struct {
	Providers       []Provider
	Store           Store
	Balance         *balance.Store
	Listeners       []Listener
	SkipAutoConnect bool
	Logger          *zap.Logger
}

// Manager is the single source of truth for who is connected.
type Manager struct {
	providers map[Type]Provider
	store     Store
	balance   *balance.Store
	listeners []Listener
	skipAuto  bool
	logger    *zap.Logger

	mu      sync.Mutex
	state   State
	pending Type
	active  Provider
	address string
	// epoch changes on every connect and disconnect; background work
	// commits only if it still matches
	epoch uint64
	ready bool

	readyCh   chan struct{}
	readyOnce sync.Once
	wg        sync.WaitGroup
}

// NewManager creates a manager in the Idle state.
func NewManager(cfg Config) *Manager {
	providers := make(map[Type]Provider, len(cfg.Providers))
	for _, p := range cfg.Providers {
		providers[p.Type()] = p
	}
	b := cfg.Balance
	if b == nil {
		b = balance.NewStore()
	}
	return &Manager{
		providers: providers,
		store:     cfg.Store,
		balance:   b,
		listeners: cfg.Listeners,
		skipAuto:  cfg.SkipAutoConnect,
		logger:    logging.OrNop(cfg.Logger),
		state:     StateIdle,
		readyCh:   make(chan struct{}),
	}
}

// Balance returns the read side of the balance store.
func (m *Manager) Balance() balance.Reader {
	return m.balance
}

// Start runs the one-shot auto-connect from the persisted last wallet.
// The session is ready when it returns, whatever the outcome.
func (m *Manager) Start(ctx context.Context) {
	defer m.markReady()

	if m.skipAuto || m.store == nil {
		m.settleIdle()
		return
	}

	last, err := m.store.LastWallet(ctx)
	if err != nil {
		m.logger.Warn("failed to read last wallet", zap.Error(err))
	}
	if last == "" {
		m.settleIdle()
		return
	}

	if _, err := m.Connect(ctx, last); err != nil {
		m.logger.Info("auto-connect failed", zap.String("wallet", string(last)), zap.Error(err))
		return
	}
	m.logger.Info("auto-connected", zap.String("wallet", string(last)))
}

// Ready is closed once the startup auto-connect attempt has finished.
func (m *Manager) Ready() <-chan struct{} {
	return m.readyCh
}

func (m *Manager) markReady() {
	m.mu.Lock()
	m.ready = true
	m.mu.Unlock()
	m.readyOnce.Do(func() { close(m.readyCh) })
}

func (m *Manager) settleIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle {
		m.state = StateDisconnected
	}
}

// Connect connects the wallet of type t and returns its address.
// It is valid only while no wallet is connected; a call made while another
// connect or disconnect is pending fails with ErrSessionBusy.
func (m *Manager) Connect(ctx context.Context, t Type) (string, error) {
	m.mu.Lock()
	switch m.state {
	case StateConnecting, StateDisconnecting:
		m.mu.Unlock()
		return "", newError(ErrSessionBusy, t, nil)
	case StateConnected:
		m.mu.Unlock()
		return "", newError(ErrAlreadyConnected, m.active.Type(), nil)
	}

	p, ok := m.providers[t]
	if !ok || !p.Detected() {
		m.state = StateDisconnected
		m.mu.Unlock()
		return "", newError(ErrWalletUnavailable, t, nil)
	}
	m.state = StateConnecting
	m.pending = t
	m.mu.Unlock()

	address, err := p.Connect(ctx)
	if err == nil && address == "" {
		err = newError(ErrProviderError, t, errNotConnected)
	}
	if err != nil {
		m.mu.Lock()
		m.pending = ""
		m.state = StateDisconnected
		m.mu.Unlock()
		m.logger.Warn("wallet connect failed", zap.String("wallet", string(t)), zap.Error(err))
		return "", classify(t, err)
	}

	// Connecting holds until the wallet is persisted and listeners are told.
	if m.store != nil {
		if err := m.store.SaveLastWallet(ctx, t); err != nil {
			m.logger.Warn("failed to persist last wallet", zap.String("wallet", string(t)), zap.Error(err))
		}
	}
	for _, l := range m.listeners {
		l.OnConnect(address)
	}

	m.mu.Lock()
	m.pending = ""
	m.state = StateConnected
	m.active = p
	m.address = address
	m.epoch++
	epoch := m.epoch
	m.mu.Unlock()

	m.logger.Info("wallet connected", zap.String("wallet", string(t)), zap.String("address", address))
	m.scheduleBalance(epoch, p, address)
	return address, nil
}

// Disconnect ends the session. The provider call is best effort: the
// session always ends Disconnected. It is a no-op when nothing is connected.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateConnecting, StateDisconnecting:
		m.mu.Unlock()
		return newError(ErrSessionBusy, m.pending, nil)
	case StateConnected:
	default:
		m.mu.Unlock()
		return nil
	}
	p, address := m.active, m.address
	m.state = StateDisconnecting
	m.mu.Unlock()

	if err := p.Disconnect(ctx); err != nil {
		m.logger.Warn("provider disconnect failed", zap.String("wallet", string(p.Type())), zap.Error(err))
	}

	m.mu.Lock()
	m.active = nil
	m.address = ""
	m.epoch++
	m.balance.Set("", 0)
	m.mu.Unlock()

	// Disconnecting holds until the stored wallet is cleared and listeners are told.
	if m.store != nil {
		if err := m.store.ClearLastWallet(ctx); err != nil {
			m.logger.Warn("failed to clear last wallet", zap.Error(err))
		}
	}
	for _, l := range m.listeners {
		l.OnDisconnect(address)
	}

	m.mu.Lock()
	m.state = StateDisconnected
	m.mu.Unlock()

	m.logger.Info("wallet disconnected", zap.String("wallet", string(p.Type())), zap.String("address", address))
	return nil
}

// RefreshBalance reloads the balance of the connected address.
func (m *Manager) RefreshBalance(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateConnected {
		m.mu.Unlock()
		return nil
	}
	epoch, p, address := m.epoch, m.active, m.address
	m.mu.Unlock()

	return m.refreshBalance(ctx, epoch, p, address)
}

func (m *Manager) scheduleBalance(epoch uint64, p Provider, address string) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), balanceTimeout)
		defer cancel()
		if err := m.refreshBalance(ctx, epoch, p, address); err != nil {
			m.logger.Warn("failed to refresh balance", zap.String("address", address), zap.Error(err))
		}
	}()
}

// refreshBalance commits the result only if the session it was started for is still current
func (m *Manager) refreshBalance(ctx context.Context, epoch uint64, p Provider, address string) error {
	lamports, err := p.Balance(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch || m.address != address {
		m.logger.Debug("discarding stale balance", zap.String("address", address))
		return nil
	}
	m.balance.Set(address, lamports)
	return nil
}

// Account returns the connected address together with its provider, read
// atomically. Both are zero when nothing is connected.
func (m *Manager) Account() (string, Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateConnected {
		return "", nil
	}
	return m.address, m.active
}

// AvailableWallets returns the catalog entries whose providers are detected.
func (m *Manager) AvailableWallets() []Descriptor {
	out := make([]Descriptor, 0, len(catalog))
	for _, d := range catalog {
		if p, ok := m.providers[d.Type]; ok && p.Detected() {
			out = append(out, d)
		}
	}
	return out
}

// Snapshot returns the current read model.
func (m *Manager) Snapshot() Snapshot {
	available := m.AvailableWallets()

	m.mu.Lock()
	snap := Snapshot{
		Address:          m.address,
		IsConnected:      m.state == StateConnected,
		IsReady:          m.ready,
		State:            m.state.String(),
		AvailableWallets: available,
	}
	if m.active != nil {
		snap.Wallet = m.active.Type()
	} else if m.state == StateConnecting {
		snap.Wallet = m.pending
	}
	m.mu.Unlock()

	snap.Balance = common.LamportsToSOL(0)
	if b := m.balance.Snapshot(); snap.IsConnected && b.Address == snap.Address {
		snap.Balance = b.SOL
		snap.Lamports = b.Lamports
	}
	return snap
}

// Wait blocks until background balance refreshes have finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}
