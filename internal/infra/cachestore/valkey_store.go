package cachestore

import (
	"context"

	"github.com/valkey-io/valkey-go"
)

const defaultValkeyPrefix = "booksum:cache"

// ValkeyStore persists cache entries in a Valkey-compatible database. Entries
// never expire.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = defaultValkeyPrefix
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Get(ctx context.Context, key string) (string, bool, error) {
	cmd := s.client.B().Get().Key(s.entryKey(key)).Build()
	value, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *ValkeyStore) Put(ctx context.Context, key, value string) error {
	return s.client.Do(ctx, s.client.B().Set().Key(s.entryKey(key)).Value(value).Build()).Error()
}

// Len counts the distinct keys under the store prefix. SCAN may return a key
// more than once, so keys are de-duplicated across batches.
func (s *ValkeyStore) Len(ctx context.Context) (int, error) {
	seen := make(keySet)
	err := s.scan(ctx, func(keys []string) error {
		seen.add(keys)
		return nil
	})
	return len(seen), err
}

// Clear deletes every key under the store prefix.
func (s *ValkeyStore) Clear(ctx context.Context) error {
	return s.scan(ctx, func(keys []string) error {
		if len(keys) == 0 {
			return nil
		}
		return s.client.Do(ctx, s.client.B().Del().Key(keys...).Build()).Error()
	})
}

func (s *ValkeyStore) scan(ctx context.Context, visit func(keys []string) error) error {
	var cursor uint64
	for {
		entry, err := s.client.Do(ctx, s.client.B().Scan().Cursor(cursor).Match(s.prefix+":*").Count(500).Build()).AsScanEntry()
		if err != nil {
			return err
		}
		if err := visit(entry.Elements); err != nil {
			return err
		}
		if entry.Cursor == 0 {
			return nil
		}
		cursor = entry.Cursor
	}
}

type keySet map[string]struct{}

func (k keySet) add(keys []string) {
	for _, key := range keys {
		k[key] = struct{}{}
	}
}

func (s *ValkeyStore) entryKey(key string) string {
	return s.prefix + ":" + key
}

var _ Store = (*ValkeyStore)(nil)
