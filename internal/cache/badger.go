package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/quantmind-br/cargomirror-go/internal/domain"
)

// gcDiscardRatio is the share of stale data that makes a value log file
// worth rewriting.
const gcDiscardRatio = 0.5

// BadgerCache stores fetched documents and assets in BadgerDB, keyed by
// GenerateKey.
type BadgerCache struct {
	db       *badger.DB
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Stats summarizes the cache contents
type Stats struct {
	Entries   int64
	LSMBytes  int64
	VlogBytes int64
}

// NewBadgerCache opens (or creates) a cache. A directory cache runs value
// log GC in the background until Close.
func NewBadgerCache(opts Options) (*BadgerCache, error) {
	badgerOpts, err := badgerOptions(opts)
	if err != nil {
		return nil, err
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	c := &BadgerCache{db: db, stop: make(chan struct{})}

	interval := opts.GCInterval
	if interval == 0 {
		interval = DefaultGCInterval
	}
	if interval > 0 && !opts.InMemory {
		c.wg.Add(1)
		go c.runGC(interval)
	}
	return c, nil
}

func badgerOptions(opts Options) (badger.Options, error) {
	var bo badger.Options
	if opts.InMemory {
		bo = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dir := opts.Directory
		if dir == "" {
			d, err := DefaultDirectory()
			if err != nil {
				return bo, err
			}
			dir = d
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return bo, err
		}
		bo = badger.DefaultOptions(dir)
	}
	if !opts.Logger {
		bo = bo.WithLogger(nil)
	}
	return bo, nil
}

func (c *BadgerCache) runGC(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			// ErrNoRewrite just means nothing was worth collecting
			_ = c.db.RunValueLogGC(gcDiscardRatio)
		}
	}
}

// Get returns the body stored for url, or domain.ErrCacheMiss
func (c *BadgerCache) Get(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(url))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrCacheMiss
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores body for url. A non-positive ttl never expires.
func (c *BadgerCache) Set(ctx context.Context, url string, body []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := badger.NewEntry(key(url), body)
	if ttl > 0 {
		e = e.WithTTL(ttl)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(e)
	})
}

// Has reports whether a live entry exists for url
func (c *BadgerCache) Has(ctx context.Context, url string) bool {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key(url))
		return err
	})
	return err == nil
}

// Delete removes the entry for url
func (c *BadgerCache) Delete(ctx context.Context, url string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(url))
	})
}

// Close stops garbage collection and releases the database
func (c *BadgerCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
	return c.db.Close()
}

// Clear removes every entry
func (c *BadgerCache) Clear() error {
	return c.db.DropAll()
}

// Stats counts live entries and reports the on-disk footprint
func (c *BadgerCache) Stats() Stats {
	var s Stats
	_ = c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			s.Entries++
		}
		return nil
	})
	s.LSMBytes, s.VlogBytes = c.db.Size()
	return s
}

func key(url string) []byte {
	return []byte(GenerateKey(url))
}
