package mint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexZinkM/belpy-mint/internal/mintconfig"
)

type staticConfig struct {
	snap mintconfig.Snapshot
	err  error
}

func (c staticConfig) Get(context.Context) (mintconfig.Snapshot, error) {
	return c.snap, c.err
}

// gatedMinter returns its outcome once released
type gatedMinter struct {
	release chan struct{}
	outcome Outcome
	reqs    chan Request
}

func newGatedMinter(outcome Outcome) *gatedMinter {
	return &gatedMinter{release: make(chan struct{}), outcome: outcome, reqs: make(chan Request, 4)}
}

func (g *gatedMinter) Mint(ctx context.Context, req Request) Outcome {
	g.reqs <- req
	select {
	case <-g.release:
		return g.outcome
	case <-ctx.Done():
		return &Failure{Reason: "canceled"}
	}
}

var testConfig = staticConfig{snap: mintconfig.Snapshot{"price": "0.1"}}

func TestFlowHappyPath(t *testing.T) {
	minter := newGatedMinter(&Success{Address: "Asset1", Name: "BELPY #0001"})
	f := NewFlow(minter, testConfig, nil)

	assert.Equal(t, "idle", f.Status().State)
	require.NoError(t, f.Confirm(context.Background()))
	assert.Equal(t, "confirming", f.Status().State)

	attempt, err := f.Submit(Request{Owner: "Wal1etAddrXYZ"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), attempt)

	req := <-minter.reqs
	assert.Equal(t, uint64(1), req.Attempt)
	assert.Equal(t, "0.1", req.Config["price"])
	assert.Equal(t, "minting", f.Status().State)

	close(minter.release)
	f.Wait()

	st := f.Status()
	assert.Equal(t, "succeeded", st.State)
	require.NotNil(t, st.Success)
	assert.Equal(t, "Asset1", st.Success.Address)
	assert.Nil(t, st.Failure)
}

func TestFlowMintingDisablesCancel(t *testing.T) {
	minter := newGatedMinter(&Failure{Reason: "Transaction failed. Please try again."})
	f := NewFlow(minter, testConfig, nil)

	require.NoError(t, f.Confirm(context.Background()))
	_, err := f.Submit(Request{Owner: "A"})
	require.NoError(t, err)
	<-minter.reqs

	assert.ErrorIs(t, f.Cancel(), ErrMintInProgress)
	assert.ErrorIs(t, f.Confirm(context.Background()), ErrMintInProgress)
	_, err = f.Submit(Request{Owner: "A"})
	assert.ErrorIs(t, err, ErrMintInProgress)
	assert.Equal(t, "minting", f.Status().State)

	close(minter.release)
	f.Wait()

	st := f.Status()
	assert.Equal(t, "failed", st.State)
	require.NotNil(t, st.Failure)
	assert.Equal(t, "Transaction failed. Please try again.", st.Failure.Reason)

	// terminal result can be closed
	require.NoError(t, f.Cancel())
	st = f.Status()
	assert.Equal(t, "idle", st.State)
	assert.Nil(t, st.Failure)
}

func TestFlowLateCompletionIgnored(t *testing.T) {
	minter := newGatedMinter(&Success{Address: "Asset1"})
	f := NewFlow(minter, testConfig, nil)

	require.NoError(t, f.Confirm(context.Background()))
	attempt, err := f.Submit(Request{Owner: "A"})
	require.NoError(t, err)
	<-minter.reqs
	close(minter.release)
	f.Wait()
	require.Equal(t, "succeeded", f.Status().State)

	// a duplicate completion of the same attempt does not overwrite
	assert.False(t, f.Complete(attempt, &Failure{Reason: "late"}))
	st := f.Status()
	assert.Equal(t, "succeeded", st.State)
	assert.Equal(t, "Asset1", st.Success.Address)

	// nor does one from a superseded attempt while the next is minting
	minter2 := newGatedMinter(&Success{Address: "Asset2"})
	f.minter = minter2
	require.NoError(t, f.Confirm(context.Background()))
	next, err := f.Submit(Request{Owner: "A"})
	require.NoError(t, err)
	<-minter2.reqs
	assert.False(t, f.Complete(attempt, &Success{Address: "stale"}))
	assert.Equal(t, "minting", f.Status().State)

	close(minter2.release)
	f.Wait()
	st = f.Status()
	assert.Equal(t, next, st.Attempt)
	assert.Equal(t, "Asset2", st.Success.Address)
}

func TestFlowConfirmRequiresConfig(t *testing.T) {
	f := NewFlow(newGatedMinter(nil), staticConfig{err: mintconfig.ErrConfigFetchFailed}, nil)

	err := f.Confirm(context.Background())
	assert.ErrorIs(t, err, mintconfig.ErrConfigFetchFailed)
	assert.Equal(t, "idle", f.Status().State)
}

func TestFlowSubmitPreconditions(t *testing.T) {
	f := NewFlow(newGatedMinter(nil), testConfig, nil)

	_, err := f.Submit(Request{Owner: "A"})
	assert.ErrorIs(t, err, ErrNotConfirming)

	require.NoError(t, f.Confirm(context.Background()))
	_, err = f.Submit(Request{})
	assert.ErrorIs(t, err, ErrWalletRequired)
	assert.Equal(t, "confirming", f.Status().State)

	require.NoError(t, f.Cancel())
	assert.Equal(t, "idle", f.Status().State)
}

func TestFlowNilOutcomeFails(t *testing.T) {
	minter := newGatedMinter(nil)
	f := NewFlow(minter, testConfig, nil)
	require.NoError(t, f.Confirm(context.Background()))
	_, err := f.Submit(Request{Owner: "A"})
	require.NoError(t, err)
	<-minter.reqs
	close(minter.release)
	f.Wait()

	assert.Equal(t, "failed", f.Status().State)
}

type keySigner struct {
	key solana.PrivateKey
}

func (k keySigner) SignIfNeeded(_ context.Context, msg []byte) (solana.Signature, error) {
	return k.key.Sign(msg)
}

type refusingSigner struct{}

func (refusingSigner) SignIfNeeded(context.Context, []byte) (solana.Signature, error) {
	return solana.Signature{}, errors.New("watch-only wallet cannot sign")
}

func TestSimulatedMinterSuccess(t *testing.T) {
	w := solana.NewWallet()
	m := &SimulatedMinter{Delay: time.Millisecond, SuccessRate: 0.9, Rand: func() float64 { return 0.5 }}

	out := m.Mint(context.Background(), Request{
		Owner:  w.PublicKey().String(),
		Signer: keySigner{key: w.PrivateKey},
		Config: mintconfig.Snapshot{"collectionName": "BELPY"},
	})

	s, ok := out.(*Success)
	require.True(t, ok)
	assert.Equal(t, "BELPY #5001", s.Name)
	assert.Equal(t, "/nfts/5001.png", s.Image)
	assert.Equal(t, "/nfts/5001.json", s.URI)

	asset, err := solana.PublicKeyFromBase58(s.Address)
	require.NoError(t, err)
	sig, err := solana.SignatureFromBase58(s.Signature)
	require.NoError(t, err)
	assert.True(t, sig.Verify(w.PublicKey(), asset.Bytes()))
}

func TestSimulatedMinterFallbackSignature(t *testing.T) {
	m := &SimulatedMinter{Delay: time.Millisecond, SuccessRate: 1, Rand: func() float64 { return 0 }}

	out := m.Mint(context.Background(), Request{Owner: "A", Signer: refusingSigner{}})
	s, ok := out.(*Success)
	require.True(t, ok)
	assert.Equal(t, "BELPY #0001", s.Name)
	_, err := solana.SignatureFromBase58(s.Signature)
	assert.NoError(t, err)
}

func TestSimulatedMinterFailure(t *testing.T) {
	m := &SimulatedMinter{Delay: time.Millisecond, SuccessRate: 0.9, Rand: func() float64 { return 0.95 }}

	out := m.Mint(context.Background(), Request{Owner: "A"})
	f, ok := out.(*Failure)
	require.True(t, ok)
	assert.NotEmpty(t, f.Reason)
}

func TestSimulatedMinterCanceled(t *testing.T) {
	m := &SimulatedMinter{Delay: time.Hour, SuccessRate: 1}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := m.Mint(ctx, Request{Owner: "A"}).(*Failure)
	assert.True(t, ok)
}
