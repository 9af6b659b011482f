package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

var errEmptyResponse = errors.New("empty response")

// Cached wraps an Evaluator with a persistent response cache so that a
// repeated brief does not trigger a second model call. Only successful
// replies are stored.
type Cached struct {
	inner Evaluator
	db    *badger.DB
}

// CacheOptions configures the response cache.
type CacheOptions struct {
	// Dir is the directory for cache data files. Required unless InMemory.
	Dir string
	// InMemory keeps the cache in memory only.
	InMemory bool
}

// NewCached opens the cache and wraps inner.
func NewCached(inner Evaluator, opts CacheOptions) (*Cached, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("llm cache: directory is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("open llm cache: %w", err)
	}
	return &Cached{inner: inner, db: db}, nil
}

func cacheKey(model, instruction string) []byte {
	sum := sha256.Sum256([]byte(model + "\x00" + instruction))
	return []byte("resp:" + hex.EncodeToString(sum[:]))
}

// Evaluate returns the cached reply for (model, instruction) or calls the
// wrapped evaluator and stores its reply.
func (c *Cached) Evaluate(ctx context.Context, model, instruction string) (string, error) {
	key := cacheKey(model, instruction)

	var hit []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		hit, err = item.ValueCopy(nil)
		return err
	})
	if err == nil {
		return string(hit), nil
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return "", fmt.Errorf("read llm cache: %w", err)
	}

	text, err := c.inner.Evaluate(ctx, model, instruction)
	if err != nil {
		return "", err
	}
	// A failed cache write is not a failed call.
	_ = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, []byte(text))
	})
	return text, nil
}

var _ Forgetter = (*Cached)(nil)

// Forget removes the cached reply for (model, instruction).
func (c *Cached) Forget(model, instruction string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(cacheKey(model, instruction))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Usage forwards to the wrapped evaluator when it tracks usage.
func (c *Cached) Usage() *Usage {
	if r, ok := c.inner.(UsageReporter); ok {
		return r.Usage()
	}
	return &Usage{}
}

// Close closes the cache database and the wrapped evaluator.
func (c *Cached) Close() error {
	err := c.db.Close()
	if cerr := Close(c.inner); err == nil {
		err = cerr
	}
	return err
}

var (
	_ Evaluator     = (*Cached)(nil)
	_ UsageReporter = (*Cached)(nil)
)
