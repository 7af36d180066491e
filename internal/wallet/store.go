package wallet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Store persists the last connected wallet type for auto-connect.
// LastWallet returns "" when nothing is stored.
type Store interface {
	LastWallet(ctx context.Context) (Type, error)
	SaveLastWallet(ctx context.Context, t Type) error
	ClearLastWallet(ctx context.Context) error
}

type sessionFile struct {
	LastWallet Type `json:"lastWallet"`
}

// FileStore keeps the last wallet in a small JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) LastWallet(context.Context) (Type, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read session file: %w", err)
	}
	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("failed to unmarshal session file: %w", err)
	}
	return f.LastWallet, nil
}

func (s *FileStore) SaveLastWallet(_ context.Context, t Type) error {
	data, err := json.Marshal(sessionFile{LastWallet: t})
	if err != nil {
		return fmt.Errorf("failed to marshal session file: %w", err)
	}
	return s.write(data)
}

func (s *FileStore) ClearLastWallet(context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// write replaces the file atomically
func (s *FileStore) write(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

const defaultRedisKey = "belpy:session:last_wallet"

// RedisStore keeps the last wallet under a single Redis key.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisKeyPrefix namespaces the key, e.g. per deployment.
func WithRedisKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.key = prefix + ":" + defaultRedisKey
		}
	}
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, key: defaultRedisKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) LastWallet(ctx context.Context) (Type, error) {
	v, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get last wallet: %w", err)
	}
	return Type(v), nil
}

func (s *RedisStore) SaveLastWallet(ctx context.Context, t Type) error {
	if err := s.client.Set(ctx, s.key, string(t), 0).Err(); err != nil {
		return fmt.Errorf("failed to save last wallet: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearLastWallet(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear last wallet: %w", err)
	}
	return nil
}
