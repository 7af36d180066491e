package wallet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/AlexZinkM/belpy-mint/internal/crypto"
)

// Provider is the capability every wallet adapter exposes to the session manager.
type Provider interface {
	Type() Type
	// Detected reports whether the provider's prerequisites exist locally.
	Detected() bool
	// Connect unlocks the account and returns its address.
	Connect(ctx context.Context) (string, error)
	Disconnect(ctx context.Context) error
	// Address is empty while disconnected.
	Address() string
	Balance(ctx context.Context) (uint64, error)
	// SignIfNeeded signs message with the connected key, if the provider holds one.
	SignIfNeeded(ctx context.Context, message []byte) (solana.Signature, error)
}

// BalanceFetcher reads the native balance of an address.
type BalanceFetcher interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
}

var errNotConnected = errors.New("not connected")

// account is the connected state shared by the providers
type account struct {
	balances BalanceFetcher

	mu      sync.RWMutex
	address string
	key     solana.PrivateKey
}

func (a *account) set(address string, key solana.PrivateKey) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.address = address
	a.key = key
}

func (a *account) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.key)
	a.address = ""
	a.key = nil
}

func (a *account) Address() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.address
}

func (a *account) Disconnect(context.Context) error {
	a.reset()
	return nil
}

func (a *account) Balance(ctx context.Context) (uint64, error) {
	address := a.Address()
	if address == "" {
		return 0, errNotConnected
	}
	if a.balances == nil {
		return 0, errors.New("no balance source configured")
	}
	return a.balances.GetBalance(ctx, address)
}

func (a *account) sign(t Type, message []byte) (solana.Signature, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.key == nil {
		return solana.Signature{}, newError(ErrProviderError, t, errNotConnected)
	}
	sig, err := a.key.Sign(message)
	if err != nil {
		return solana.Signature{}, newError(ErrProviderError, t, fmt.Errorf("failed to sign: %w", err))
	}
	return sig, nil
}

func fileDetected(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// KeystoreProvider unlocks an encrypted .cwt keystore.
type KeystoreProvider struct {
	account
	path       string
	passphrase PassphraseSource
}

// NewKeystoreProvider creates a provider for the keystore at path.
func NewKeystoreProvider(path string, passphrase PassphraseSource, balances BalanceFetcher) *KeystoreProvider {
	return &KeystoreProvider{account: account{balances: balances}, path: path, passphrase: passphrase}
}

func (p *KeystoreProvider) Type() Type     { return TypeKeystore }
func (p *KeystoreProvider) Detected() bool { return fileDetected(p.path) }

func (p *KeystoreProvider) Connect(ctx context.Context) (string, error) {
	if !p.Detected() {
		return "", newError(ErrWalletUnavailable, TypeKeystore, fmt.Errorf("keystore %q not found", p.path))
	}
	if p.passphrase == nil {
		return "", newError(ErrUserRejected, TypeKeystore, ErrPassphraseDeclined)
	}

	pass, err := p.passphrase.Passphrase(ctx)
	if err != nil {
		if errors.Is(err, ErrPassphraseDeclined) || errors.Is(err, context.Canceled) {
			return "", newError(ErrUserRejected, TypeKeystore, err)
		}
		return "", newError(ErrProviderError, TypeKeystore, err)
	}
	defer clear(pass)

	cwt, data, err := crypto.DecryptWallet(p.path, pass)
	if err != nil {
		if errors.Is(err, crypto.ErrInvalidPassphrase) {
			return "", newError(ErrUserRejected, TypeKeystore, err)
		}
		return "", newError(ErrProviderError, TypeKeystore, err)
	}

	key := solana.PrivateKey(data.PrivateKey)
	if len(key) != 64 {
		clear(key)
		return "", newError(ErrProviderError, TypeKeystore, fmt.Errorf("invalid private key length %d", len(key)))
	}
	address := key.PublicKey().String()
	if cwt.Address != "" && cwt.Address != address {
		clear(key)
		return "", newError(ErrProviderError, TypeKeystore, fmt.Errorf("keystore address %s does not match key", cwt.Address))
	}

	p.set(address, key)
	return address, nil
}

func (p *KeystoreProvider) SignIfNeeded(_ context.Context, message []byte) (solana.Signature, error) {
	return p.sign(TypeKeystore, message)
}

// KeypairProvider loads a Solana CLI keypair file.
type KeypairProvider struct {
	account
	path string
}

// NewKeypairProvider creates a provider for the keypair file at path.
func NewKeypairProvider(path string, balances BalanceFetcher) *KeypairProvider {
	return &KeypairProvider{account: account{balances: balances}, path: path}
}

func (p *KeypairProvider) Type() Type     { return TypeKeypair }
func (p *KeypairProvider) Detected() bool { return fileDetected(p.path) }

func (p *KeypairProvider) Connect(context.Context) (string, error) {
	if !p.Detected() {
		return "", newError(ErrWalletUnavailable, TypeKeypair, fmt.Errorf("keypair %q not found", p.path))
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(p.path)
	if err != nil {
		return "", newError(ErrProviderError, TypeKeypair, fmt.Errorf("failed to load keypair: %w", err))
	}
	address := key.PublicKey().String()
	p.set(address, key)
	return address, nil
}

func (p *KeypairProvider) SignIfNeeded(_ context.Context, message []byte) (solana.Signature, error) {
	return p.sign(TypeKeypair, message)
}

// WatchProvider follows a configured address without any key.
type WatchProvider struct {
	account
	watch string
}

// NewWatchProvider creates a read-only provider for address.
func NewWatchProvider(address string, balances BalanceFetcher) *WatchProvider {
	return &WatchProvider{account: account{balances: balances}, watch: strings.TrimSpace(address)}
}

func (p *WatchProvider) Type() Type     { return TypeWatch }
func (p *WatchProvider) Detected() bool { return p.watch != "" }

func (p *WatchProvider) Connect(context.Context) (string, error) {
	if !p.Detected() {
		return "", newError(ErrWalletUnavailable, TypeWatch, errors.New("no watch address configured"))
	}
	pub, err := solana.PublicKeyFromBase58(p.watch)
	if err != nil {
		return "", newError(ErrProviderError, TypeWatch, fmt.Errorf("invalid watch address: %w", err))
	}
	p.set(pub.String(), nil)
	return pub.String(), nil
}

func (p *WatchProvider) SignIfNeeded(context.Context, []byte) (solana.Signature, error) {
	return solana.Signature{}, newError(ErrProviderError, TypeWatch, errors.New("watch-only wallet cannot sign"))
}
