package summarizer

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"log/slog"

	apperrors "github.com/yanqian/booksum/pkg/errors"
)

// Operation names used as the first component of cache keys.
const (
	opSummarize  = "summarize"
	opSynthesize = "synthesize"
)

// KeyFunc derives a cache key from an operation name and its ordered
// arguments. Equal inputs must always produce equal keys.
type KeyFunc func(op string, args ...any) (string, error)

// DefaultKey hashes args with SHA-256 and prefixes the digest with the
// operation name. Strings are hashed as raw bytes so invalid UTF-8 stays
// distinct; other values are hashed by their JSON encoding. Every field is
// length prefixed.
func DefaultKey(op string, args ...any) (string, error) {
	h := sha256.New()
	writeField(h, 'o', []byte(op))
	for i, arg := range args {
		switch v := arg.(type) {
		case string:
			writeField(h, 's', []byte(v))
		case []string:
			writeField(h, 'l', binary.BigEndian.AppendUint64(nil, uint64(len(v))))
			for _, item := range v {
				writeField(h, 's', []byte(item))
			}
		default:
			payload, err := json.Marshal(v)
			if err != nil {
				return "", fmt.Errorf("encode %s argument %d: %w", op, i, err)
			}
			writeField(h, 'j', payload)
		}
	}
	return op + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

func writeField(h hash.Hash, tag byte, data []byte) {
	var header [9]byte
	header[0] = tag
	binary.BigEndian.PutUint64(header[1:], uint64(len(data)))
	h.Write(header[:])
	h.Write(data)
}

// Memoizer reads the store before computing a value and writes every
// successfully computed value back.
type Memoizer struct {
	store  CacheStore
	key    KeyFunc
	logger *slog.Logger
}

// NewMemoizer wraps store. A nil key func selects DefaultKey.
func NewMemoizer(store CacheStore, key KeyFunc, logger *slog.Logger) *Memoizer {
	if key == nil {
		key = DefaultKey
	}
	return &Memoizer{store: store, key: key, logger: logger.With("component", "summarizer.memo")}
}

// Do returns the cached value for (op, args) or computes and stores it.
// Failed computations are never stored.
func (m *Memoizer) Do(ctx context.Context, op string, args []any, compute func(ctx context.Context) (string, error)) (string, error) {
	key, err := m.key(op, args...)
	if err != nil {
		return "", apperrors.Wrap(CodeCache, "derive cache key", err)
	}

	value, ok, err := m.store.Get(ctx, key)
	if err != nil {
		return "", apperrors.Wrap(CodeCache, "read cache", err)
	}
	if ok {
		m.logger.Debug("cache hit", "op", op, "key", key)
		return value, nil
	}

	value, err = compute(ctx)
	if err != nil {
		return "", err
	}
	if err := m.store.Put(ctx, key, value); err != nil {
		return "", apperrors.Wrap(CodeCache, "write cache", err)
	}
	m.logger.Debug("cache stored", "op", op, "key", key)
	return value, nil
}
