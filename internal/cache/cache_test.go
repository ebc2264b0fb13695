package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/quantmind-br/cargomirror-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryCache(t *testing.T) *BadgerCache {
	t.Helper()
	c, err := NewBadgerCache(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Empty(t, opts.Directory)
	assert.False(t, opts.InMemory)
	assert.Equal(t, DefaultGCInterval, opts.GCInterval)
}

func TestGenerateKey(t *testing.T) {
	tests := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{"identical", "https://freight.cargo.site/i/H/a.png", "https://freight.cargo.site/i/H/a.png", true},
		{"host case", "https://FREIGHT.cargo.site/i/H/a.png", "https://freight.cargo.site/i/H/a.png", true},
		{"default port", "https://freight.cargo.site:443/i/H/a.png", "https://freight.cargo.site/i/H/a.png", true},
		{"fragment ignored", "https://example.com/page#top", "https://example.com/page", true},
		{"dot segments", "https://example.com/a/../b", "https://example.com/b", true},
		{"query kept", "https://static.cargo.site/p.png?resize=200", "https://static.cargo.site/p.png?resize=400", false},
		{"query order", "https://static.cargo.site/p.png?w=1&h=2", "https://static.cargo.site/p.png?h=2&w=1", true},
		{"protocol relative", "//freight.cargo.site/i/H/a.png", "https://freight.cargo.site/i/H/a.png", true},
		{"different path", "https://example.com/a", "https://example.com/b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka, kb := GenerateKey(tt.a), GenerateKey(tt.b)
			assert.Len(t, ka, 64)
			if tt.equal {
				assert.Equal(t, ka, kb)
			} else {
				assert.NotEqual(t, ka, kb)
			}
		})
	}
}

func TestNormalizeForKey(t *testing.T) {
	assert.Equal(t, "https://example.com/", normalizeForKey("https://example.com"))
	assert.Equal(t, "https://example.com/x", normalizeForKey("//example.com/x"))
	assert.Equal(t, "http://example.com/x", normalizeForKey("HTTP://example.com:80/x"))
	assert.Equal(t, "https://example.com:8443/x", normalizeForKey("https://example.com:8443/x"))
	assert.Equal(t, "https://example.com/x?a=1&b=2", normalizeForKey("https://example.com/x?b=2&a=1#frag"))
	assert.Equal(t, "%zz", normalizeForKey("%zz"))
}

func TestNewBadgerCache(t *testing.T) {
	t.Run("in-memory", func(t *testing.T) {
		c, err := NewBadgerCache(Options{InMemory: true})
		require.NoError(t, err)
		assert.NoError(t, c.Close())
	})

	t.Run("directory with gc", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "cache")
		c, err := NewBadgerCache(Options{Directory: dir, GCInterval: 10 * time.Millisecond})
		require.NoError(t, err)
		require.NoError(t, c.Set(context.Background(), "https://example.com", []byte("x"), 0))
		time.Sleep(30 * time.Millisecond)
		assert.NoError(t, c.Close())
		assert.DirExists(t, dir)
	})

	t.Run("default directory under home", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		c, err := NewBadgerCache(Options{GCInterval: -1})
		require.NoError(t, err)
		require.NoError(t, c.Close())

		assert.DirExists(t, filepath.Join(home, ".cargomirror", "cache"))
	})
}

func TestBadgerCache_Operations(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache(t)
	key := "https://freight.cargo.site/w/1200/q/75/i/H/a.png"

	_, err := c.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	assert.False(t, c.Has(ctx, key))

	require.NoError(t, c.Set(ctx, key, []byte{0x89, 'P', 'N', 'G'}, time.Hour))
	assert.True(t, c.Has(ctx, key))

	value, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, value)
	assert.Equal(t, int64(1), c.Stats().Entries)

	require.NoError(t, c.Delete(ctx, key))
	assert.False(t, c.Has(ctx, key))

	require.NoError(t, c.Set(ctx, key, []byte("again"), 0))
	require.NoError(t, c.Clear())
	assert.Equal(t, int64(0), c.Stats().Entries)
}

func TestBadgerCache_CancelledContext(t *testing.T) {
	c := newMemoryCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Set(ctx, "https://example.com", []byte("x"), 0), context.Canceled)
	_, err := c.Get(ctx, "https://example.com")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, c.Has(context.Background(), "https://example.com"))
}

func TestBadgerCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		url := fmt.Sprintf("https://static.cargo.site/asset-%d.png", i)
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, url, []byte("content"), time.Hour)
		}()
		go func() {
			defer wg.Done()
			_, _ = c.Get(ctx, url)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), c.Stats().Entries)
}

func TestBadgerCache_CloseIsIdempotentForGC(t *testing.T) {
	c, err := NewBadgerCache(Options{Directory: t.TempDir()})
	require.NoError(t, err)

	c.stopOnce.Do(func() { close(c.stop) })
	assert.NoError(t, c.Close())
}
