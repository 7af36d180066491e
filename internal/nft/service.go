// Package nft serves the NFTs owned by a wallet with a per-address
// stale-while-revalidate cache.
package nft

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/AlexZinkM/belpy-mint/internal/logging"
	"github.com/AlexZinkM/belpy-mint/internal/metadata"
	"github.com/AlexZinkM/belpy-mint/internal/model"
)

const (
	// DefaultCacheTimeout is how long a successful result is served as fresh.
	DefaultCacheTimeout = 5 * time.Minute

	// DefaultMaxEntries bounds the number of addresses tracked at once.
	DefaultMaxEntries = 10000

	defaultConcurrency  = 8
	defaultFetchTimeout = 60 * time.Second
	// results older than evictFactor cache timeouts are dropped instead of served stale
	evictFactor = 10
)

// Source lists the NFTs held by an address.
type Source interface {
	ListNFTs(ctx context.Context, owner string) ([]model.NftItem, error)
}

// MetadataFetcher resolves token URIs and fetches metadata documents.
type MetadataFetcher interface {
	ResolveURI(uri string) string
	FetchMetadata(ctx context.Context, uri string) (metadata.Metadata, bool)
}

// Result is the outcome of a lookup. NFTs is never nil.
type Result struct {
	Success bool
	NFTs    []model.NftRecord
}

type entry struct {
	nfts      []model.NftRecord
	fetchedAt time.Time
}

// keyState is tracked while an address has a cached result or a fetch in
// flight. Forget removes it; fetches holding a removed state do not commit.
type keyState struct {
	generation uint64
	entry      *entry
	refreshing bool
	inflight   int
}

func (ks *keyState) idle() bool {
	return ks.inflight == 0 && !ks.refreshing
}

// Config holds the configuration for the NFT service.
type Config struct {
	Source       Source
	Metadata     MetadataFetcher
	CacheTimeout time.Duration
	// EvictAfter is the age past which a result is dropped. Defaults to ten cache timeouts.
	EvictAfter   time.Duration
	MaxEntries   int
	Concurrency  int
	Logger       *zap.Logger
}

// Service fetches, caches and deduplicates NFT lookups per address.
type Service struct {
	source       Source
	metadata     MetadataFetcher
	cacheTimeout time.Duration
	evictAfter   time.Duration
	maxEntries   int
	concurrency  int
	logger       *zap.Logger

	mu        sync.Mutex
	keys      map[string]*keyState
	lastSweep time.Time
	group     singleflight.Group
	wg        sync.WaitGroup
	now       func() time.Time
}

// NewService creates a new NFT service.
func NewService(cfg Config) *Service {
	timeout := cfg.CacheTimeout
	if timeout <= 0 {
		timeout = DefaultCacheTimeout
	}
	evictAfter := cfg.EvictAfter
	if evictAfter < timeout {
		evictAfter = evictFactor * timeout
	}
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		source:       cfg.Source,
		metadata:     cfg.Metadata,
		cacheTimeout: timeout,
		evictAfter:   evictAfter,
		maxEntries:   maxEntries,
		concurrency:  concurrency,
		logger:       logging.OrNop(cfg.Logger),
		keys:         make(map[string]*keyState),
		now:          time.Now,
	}
}

// GetUserNfts returns the NFTs owned by address. A fresh cached result is
// returned as is; an expired one is returned immediately while a single
// background refetch replaces it. Failures yield Success=false and no NFTs.
func (s *Service) GetUserNfts(ctx context.Context, address string) Result {
	address = strings.TrimSpace(address)
	if address == "" {
		return failed()
	}

	s.mu.Lock()
	if ks, ok := s.keys[address]; ok && ks.entry != nil {
		age := s.now().Sub(ks.entry.fetchedAt)
		if age < s.evictAfter {
			if age >= s.cacheTimeout && !ks.refreshing {
				ks.refreshing = true
				s.wg.Add(1)
				go s.revalidate(address, ks)
			}
			e := ks.entry
			s.mu.Unlock()
			return Result{Success: true, NFTs: e.nfts}
		}
		ks.entry = nil
	}
	s.mu.Unlock()

	return s.load(ctx, address)
}

// Refresh fetches address now, bypassing the cache. Its result supersedes
// any fetch for the same address that is still in flight.
func (s *Service) Refresh(ctx context.Context, address string) Result {
	address = strings.TrimSpace(address)
	if address == "" {
		return failed()
	}

	s.mu.Lock()
	s.state(address).generation++
	s.mu.Unlock()
	s.group.Forget(address)

	return s.load(ctx, address)
}

// Forget drops the cached result for address and discards fetches in flight.
func (s *Service) Forget(address string) {
	s.mu.Lock()
	delete(s.keys, address)
	s.mu.Unlock()
	s.group.Forget(address)
}

// Prefetch warms the cache for address in the background.
func (s *Service) Prefetch(address string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.GetUserNfts(context.Background(), address)
	}()
}

// Wait blocks until background fetches started so far have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// load joins or starts the single in-flight fetch for address
func (s *Service) load(ctx context.Context, address string) Result {
	ch := s.group.DoChan(address, func() (any, error) {
		return s.fetch(address), nil
	})
	select {
	case res := <-ch:
		return res.Val.(Result)
	case <-ctx.Done():
		s.logger.Warn("nft lookup abandoned", zap.String("address", address), zap.Error(ctx.Err()))
		return failed()
	}
}

func (s *Service) revalidate(address string, ks *keyState) {
	defer s.wg.Done()
	s.load(context.Background(), address)

	s.mu.Lock()
	ks.refreshing = false
	s.release(address, ks)
	s.mu.Unlock()
}

// fetch performs one lookup and commits it if the key's generation is unchanged
func (s *Service) fetch(address string) Result {
	s.mu.Lock()
	ks := s.state(address)
	ks.inflight++
	generation := ks.generation
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultFetchTimeout)
	defer cancel()

	items, err := s.source.ListNFTs(ctx, address)
	if err != nil {
		s.logger.Error("failed to list nfts", zap.String("address", address), zap.Error(err))
		s.mu.Lock()
		ks.inflight--
		s.release(address, ks)
		s.mu.Unlock()
		return failed()
	}

	records := s.resolve(ctx, items)

	s.mu.Lock()
	defer s.mu.Unlock()
	ks.inflight--
	if s.keys[address] != ks || ks.generation != generation {
		s.logger.Debug("discarding superseded nft result", zap.String("address", address))
		s.release(address, ks)
		return Result{Success: true, NFTs: records}
	}
	ks.entry = &entry{nfts: records, fetchedAt: s.now()}
	s.sweep()
	return Result{Success: true, NFTs: records}
}

// resolve turns listed items into records, preserving order and dropping duplicates
func (s *Service) resolve(ctx context.Context, items []model.NftItem) []model.NftRecord {
	unique := make([]model.NftItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Mint == "" {
			continue
		}
		if _, dup := seen[it.Mint]; dup {
			continue
		}
		seen[it.Mint] = struct{}{}
		unique = append(unique, it)
	}

	records := make([]model.NftRecord, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, it := range unique {
		g.Go(func() error {
			records[i] = s.record(gctx, it)
			return nil
		})
	}
	_ = g.Wait()
	return records
}

func (s *Service) record(ctx context.Context, it model.NftItem) model.NftRecord {
	rec := model.NftRecord{
		NftAddress:  it.Mint,
		Name:        it.Name,
		MetadataURI: it.URI,
	}
	if it.URI == "" || s.metadata == nil {
		return rec
	}
	md, ok := s.metadata.FetchMetadata(ctx, it.URI)
	if !ok {
		return rec
	}
	if name := md.Name(); name != "" {
		rec.Name = name
	}
	if image := md.Image(); image != "" {
		rec.ImageURL = s.metadata.ResolveURI(image)
	}
	return rec
}

// release stops tracking address once ks holds no result and no work. Callers hold s.mu.
func (s *Service) release(address string, ks *keyState) {
	if s.keys[address] == ks && ks.entry == nil && ks.idle() {
		delete(s.keys, address)
	}
}

// sweep drops expired results at most once per cache timeout, then the
// oldest idle results while more than maxEntries are tracked. Callers hold s.mu.
func (s *Service) sweep() {
	now := s.now()
	if len(s.keys) <= s.maxEntries && now.Sub(s.lastSweep) < s.cacheTimeout {
		return
	}
	s.lastSweep = now

	type aged struct {
		address   string
		fetchedAt time.Time
	}
	var idle []aged
	for address, ks := range s.keys {
		if !ks.idle() || ks.entry == nil {
			continue
		}
		if now.Sub(ks.entry.fetchedAt) >= s.evictAfter {
			delete(s.keys, address)
			continue
		}
		idle = append(idle, aged{address, ks.entry.fetchedAt})
	}

	excess := len(s.keys) - s.maxEntries
	if excess <= 0 {
		return
	}
	slices.SortFunc(idle, func(a, b aged) int { return a.fetchedAt.Compare(b.fetchedAt) })
	for _, a := range idle[:min(excess, len(idle))] {
		delete(s.keys, a.address)
	}
	s.logger.Debug("evicted nft results", zap.Int("count", min(excess, len(idle))))
}

// state returns the key state for address, creating it. Callers hold s.mu.
func (s *Service) state(address string) *keyState {
	ks, ok := s.keys[address]
	if !ok {
		ks = &keyState{}
		s.keys[address] = ks
	}
	return ks
}

func failed() Result {
	return Result{Success: false, NFTs: []model.NftRecord{}}
}
