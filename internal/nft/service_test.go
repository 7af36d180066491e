package nft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexZinkM/belpy-mint/internal/metadata"
	"github.com/AlexZinkM/belpy-mint/internal/model"
)

// fakeSource returns per-address items, optionally blocking until released
type fakeSource struct {
	mu      sync.Mutex
	items   map[string][]model.NftItem
	err     error
	calls   atomic.Int32
	started chan string
	release chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{items: map[string][]model.NftItem{}}
}

func (f *fakeSource) set(address string, items ...model.NftItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[address] = items
}

func (f *fakeSource) ListNFTs(ctx context.Context, owner string) ([]model.NftItem, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- owner
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.NftItem(nil), f.items[owner]...), nil
}

type fakeMetadata struct {
	docs map[string]metadata.Metadata
}

func (f *fakeMetadata) ResolveURI(uri string) string {
	return "resolved:" + uri
}

func (f *fakeMetadata) FetchMetadata(_ context.Context, uri string) (metadata.Metadata, bool) {
	md, ok := f.docs[uri]
	return md, ok
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(src Source, md MetadataFetcher) (*Service, *clock) {
	s := NewService(Config{Source: src, Metadata: md, CacheTimeout: time.Minute})
	c := &clock{now: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}
	s.now = c.Now
	return s, c
}

func belpyItems() []model.NftItem {
	return []model.NftItem{
		{Mint: "Nft1", Name: "BELPY #0001", URI: "ipfs://meta1"},
		{Mint: "Nft2", Name: "BELPY #0002", URI: "ipfs://meta2"},
	}
}

func TestGetUserNfts(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.set("Wal1etAddrXYZ", belpyItems()...)
	md := &fakeMetadata{docs: map[string]metadata.Metadata{
		"ipfs://meta1": {"name": "BELPY #0001 (gold)", "image": "ipfs://img1"},
	}}
	s, _ := newTestService(src, md)

	res := s.GetUserNfts(context.Background(), "Wal1etAddrXYZ")
	require.True(t, res.Success)
	require.Len(t, res.NFTs, 2)

	assert.Equal(t, model.NftRecord{
		NftAddress:  "Nft1",
		Name:        "BELPY #0001 (gold)",
		ImageURL:    "resolved:ipfs://img1",
		MetadataURI: "ipfs://meta1",
	}, res.NFTs[0])
	// metadata missing: on-chain name kept, no image
	assert.Equal(t, model.NftRecord{
		NftAddress:  "Nft2",
		Name:        "BELPY #0002",
		MetadataURI: "ipfs://meta2",
	}, res.NFTs[1])
}

func TestGetUserNftsDeduplicatesAndKeepsOrder(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	var items []model.NftItem
	for i := 9; i >= 0; i-- {
		items = append(items, model.NftItem{Mint: fmt.Sprintf("Nft%d", i)})
	}
	items = append(items, model.NftItem{Mint: "Nft3"}, model.NftItem{Mint: ""})
	src.set("addr", items...)
	s, _ := newTestService(src, &fakeMetadata{})

	res := s.GetUserNfts(context.Background(), "addr")
	require.True(t, res.Success)
	require.Len(t, res.NFTs, 10)
	for i, rec := range res.NFTs {
		assert.Equal(t, fmt.Sprintf("Nft%d", 9-i), rec.NftAddress)
	}

	again := s.GetUserNfts(context.Background(), "addr")
	assert.Equal(t, res.NFTs, again.NFTs)
}

func TestGetUserNftsFailureDegrades(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.err = errors.New("rpc down")
	s, _ := newTestService(src, &fakeMetadata{})

	res := s.GetUserNfts(context.Background(), "addr")
	assert.False(t, res.Success)
	assert.NotNil(t, res.NFTs)
	assert.Empty(t, res.NFTs)

	// failures are not cached
	src.mu.Lock()
	src.err = nil
	src.mu.Unlock()
	src.set("addr", model.NftItem{Mint: "Nft1"})
	res = s.GetUserNfts(context.Background(), "addr")
	assert.True(t, res.Success)
	assert.Len(t, res.NFTs, 1)
}

func TestGetUserNftsEmptyAddress(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	s, _ := newTestService(src, nil)

	res := s.GetUserNfts(context.Background(), "  ")
	assert.False(t, res.Success)
	assert.Empty(t, res.NFTs)
	assert.Zero(t, src.calls.Load())
}

func TestGetUserNftsConcurrentCallsShareOneFetch(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.set("Wal1etAddrXYZ", belpyItems()...)
	src.started = make(chan string, 4)
	src.release = make(chan struct{})
	s, _ := newTestService(src, &fakeMetadata{})

	results := make([]Result, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.GetUserNfts(context.Background(), "Wal1etAddrXYZ")
		}()
	}

	<-src.started
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	require.True(t, results[0].Success)
	require.True(t, results[1].Success)
	assert.Equal(t, results[0], results[1])
	assert.Same(t, &results[0].NFTs[0], &results[1].NFTs[0])
}

func TestGetUserNftsStaleWhileRevalidate(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.set("addr", model.NftItem{Mint: "Nft1", Name: "old"})
	s, clk := newTestService(src, &fakeMetadata{})

	first := s.GetUserNfts(context.Background(), "addr")
	require.True(t, first.Success)
	require.Equal(t, int32(1), src.calls.Load())

	// fresh: served from cache
	clk.Advance(30 * time.Second)
	s.GetUserNfts(context.Background(), "addr")
	assert.Equal(t, int32(1), src.calls.Load())

	// expired: stale value returned immediately while one refetch runs
	src.set("addr", model.NftItem{Mint: "Nft1", Name: "new"})
	src.release = make(chan struct{})
	clk.Advance(time.Minute)

	stale := s.GetUserNfts(context.Background(), "addr")
	staleAgain := s.GetUserNfts(context.Background(), "addr")
	assert.Equal(t, "old", stale.NFTs[0].Name)
	assert.Equal(t, "old", staleAgain.NFTs[0].Name)

	close(src.release)
	s.Wait()
	assert.Equal(t, int32(2), src.calls.Load())

	fresh := s.GetUserNfts(context.Background(), "addr")
	assert.Equal(t, "new", fresh.NFTs[0].Name)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestRefreshSupersedesBackgroundFetch(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.set("addr", model.NftItem{Mint: "Nft1", Name: "v1"})
	s, clk := newTestService(src, &fakeMetadata{})
	s.GetUserNfts(context.Background(), "addr")

	// background refetch blocks; the manual refresh completes first
	bg := &blockingSource{inner: src, release: make(chan struct{}), started: make(chan struct{}, 1)}
	s.source = bg
	src.set("addr", model.NftItem{Mint: "Nft1", Name: "v2-background"})
	clk.Advance(2 * time.Minute)
	s.GetUserNfts(context.Background(), "addr")
	<-bg.started

	bg.passThrough.Store(true)
	src.set("addr", model.NftItem{Mint: "Nft1", Name: "v3-manual"})
	manual := s.Refresh(context.Background(), "addr")
	require.True(t, manual.Success)
	assert.Equal(t, "v3-manual", manual.NFTs[0].Name)

	// the slower background result arrives late and must be discarded
	src.set("addr", model.NftItem{Mint: "Nft1", Name: "v2-background"})
	close(bg.release)
	s.Wait()

	got := s.GetUserNfts(context.Background(), "addr")
	assert.Equal(t, "v3-manual", got.NFTs[0].Name)
}

// blockingSource blocks the first call until released; later calls pass through
type blockingSource struct {
	inner       Source
	release     chan struct{}
	started     chan struct{}
	once        sync.Once
	passThrough atomic.Bool
}

func (b *blockingSource) ListNFTs(ctx context.Context, owner string) ([]model.NftItem, error) {
	if b.passThrough.Load() {
		return b.inner.ListNFTs(ctx, owner)
	}
	b.once.Do(func() { b.started <- struct{}{} })
	<-b.release
	return b.inner.ListNFTs(ctx, owner)
}

func TestDifferentAddressNeverGetsPreviousRecords(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.set("Wal1etAddrXYZ", belpyItems()...)
	s, _ := newTestService(src, &fakeMetadata{})

	s.OnConnect("Wal1etAddrXYZ")
	s.Wait()
	first := s.GetUserNfts(context.Background(), "Wal1etAddrXYZ")
	require.Len(t, first.NFTs, 2)
	assert.Equal(t, "BELPY #0001", first.NFTs[0].Name)
	assert.Equal(t, "BELPY #0002", first.NFTs[1].Name)

	s.OnDisconnect("Wal1etAddrXYZ")

	other := s.GetUserNfts(context.Background(), "0therWa11et")
	assert.True(t, other.Success)
	assert.Empty(t, other.NFTs)

	// the forgotten address is fetched again rather than served from cache
	calls := src.calls.Load()
	s.GetUserNfts(context.Background(), "Wal1etAddrXYZ")
	assert.Equal(t, calls+1, src.calls.Load())
}

func TestGetUserNftsContextCanceled(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.set("addr", model.NftItem{Mint: "Nft1"})
	src.release = make(chan struct{})
	s, _ := newTestService(src, &fakeMetadata{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res := s.GetUserNfts(ctx, "addr")
	assert.False(t, res.Success)

	// the abandoned fetch still completes and fills the cache
	close(src.release)
	require.Eventually(t, func() bool {
		return s.GetUserNfts(context.Background(), "addr").Success
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), src.calls.Load())
}

func (s *Service) tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

func TestFailedLookupsAreNotTracked(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.err = errors.New("rpc down")
	s, _ := newTestService(src, &fakeMetadata{})

	for i := range 1000 {
		res := s.GetUserNfts(context.Background(), fmt.Sprintf("addr-%d", i))
		require.False(t, res.Success)
	}
	assert.Zero(t, s.tracked())

	res := s.Refresh(context.Background(), "addr-0")
	assert.False(t, res.Success)
	assert.Zero(t, s.tracked())
}

func TestExpiredResultIsRefetched(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.set("addr", model.NftItem{Mint: "Nft1", Name: "old"})
	s, clk := newTestService(src, &fakeMetadata{})

	s.GetUserNfts(context.Background(), "addr")
	src.set("addr", model.NftItem{Mint: "Nft1", Name: "new"})

	// far past the cache timeout the old result is no longer served
	clk.Advance(evictFactor * time.Minute)
	res := s.GetUserNfts(context.Background(), "addr")
	require.True(t, res.Success)
	assert.Equal(t, "new", res.NFTs[0].Name)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestSweepEvictsExpiredAndOldest(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	s := NewService(Config{Source: src, Metadata: &fakeMetadata{}, CacheTimeout: time.Minute, MaxEntries: 3})
	clk := &clock{now: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}
	s.now = clk.Now

	s.GetUserNfts(context.Background(), "expired")
	clk.Advance(evictFactor * time.Minute)

	for _, address := range []string{"a", "b", "c"} {
		clk.Advance(time.Second)
		s.GetUserNfts(context.Background(), address)
	}
	// the expired address went in the first sweep after it aged out
	assert.Equal(t, 3, s.tracked())

	clk.Advance(time.Second)
	s.GetUserNfts(context.Background(), "d")
	assert.Equal(t, 3, s.tracked())

	s.mu.Lock()
	_, oldest := s.keys["a"]
	_, newest := s.keys["d"]
	s.mu.Unlock()
	assert.False(t, oldest)
	assert.True(t, newest)
}
