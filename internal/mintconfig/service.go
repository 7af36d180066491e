// Package mintconfig loads the candy machine parameters once per process.
package mintconfig

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/AlexZinkM/belpy-mint/internal/logging"
)

// ErrConfigFetchFailed is returned when the config could not be loaded.
// The previous snapshot, if any, is kept and the next Get retries.
var ErrConfigFetchFailed = errors.New("config fetch failed")

const fetchTimeout = 15 * time.Second

// Snapshot is an opaque key/value bag describing the mintable collection.
type Snapshot map[string]any

// Clone returns a deep copy so callers cannot mutate the shared value.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	return cloneValue(map[string]any(s)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case Snapshot:
		return Snapshot(cloneValue(map[string]any(t)).(map[string]any))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Source fetches a fresh snapshot.
type Source interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// Service caches the first successful snapshot until Invalidate is called.
type Service struct {
	source Source
	logger *zap.Logger

	mu       sync.RWMutex
	snapshot Snapshot
	loaded   bool

	// generation is bumped by Invalidate; a fetch started before it does
	// not mark the config loaded
	generation uint64
	group      singleflight.Group
}

// NewService creates a config service reading from source.
func NewService(source Source, logger *zap.Logger) *Service {
	return &Service{source: source, logger: logging.OrNop(logger)}
}

// Get returns the snapshot, fetching it on first use. Concurrent callers
// share a single fetch.
func (s *Service) Get(ctx context.Context) (Snapshot, error) {
	s.mu.RLock()
	if s.loaded {
		snap := s.snapshot.Clone()
		s.mu.RUnlock()
		return snap, nil
	}
	s.mu.RUnlock()

	ch := s.group.DoChan("config", func() (any, error) {
		return s.fetch()
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Snapshot).Clone(), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrConfigFetchFailed, ctx.Err())
	}
}

// Cached returns the last successful snapshot without fetching.
func (s *Service) Cached() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, false
	}
	return s.snapshot.Clone(), true
}

// Invalidate makes the next Get fetch again. The current snapshot stays
// available through Cached until the refetch succeeds.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.generation++
	s.mu.Unlock()
	s.group.Forget("config")
}

func (s *Service) fetch() (Snapshot, error) {
	s.mu.RLock()
	generation := s.generation
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	snap, err := s.source.Fetch(ctx)
	if err != nil {
		s.logger.Error("failed to fetch mint config", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrConfigFetchFailed, err)
	}
	if snap == nil {
		snap = Snapshot{}
	}

	s.mu.Lock()
	s.snapshot = snap
	s.loaded = s.generation == generation
	s.mu.Unlock()

	s.logger.Info("mint config loaded", zap.Int("keys", len(snap)))
	return snap, nil
}
