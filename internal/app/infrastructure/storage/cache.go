package storage

import (
	"encoding/json"
	"fmt"
	"github.com/maypok86/otter/v2"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type CacheOptions struct {
	Capacity int
	// TTL counts from the last write. Zero keeps entries until evicted by size.
	TTL time.Duration
	// File enables JSON persistence. Entries are loaded on start.
	File string
	// FlushOnChange writes the file after every mutation,
	// otherwise only FlushToDisk and Close do.
	FlushOnChange bool
}

type Cache[T any] struct {
	outer *otter.Cache[string, T]
	opts  CacheOptions

	flushMu sync.Mutex
}

func NewCache[T any](opts CacheOptions) (*Cache[T], error) {
	c := &Cache[T]{opts: opts}

	o := &otter.Options[string, T]{InitialCapacity: opts.Capacity}
	if opts.Capacity > 0 {
		o.MaximumSize = opts.Capacity
	}
	if opts.TTL > 0 {
		o.ExpiryCalculator = otter.ExpiryWriting[string, T](opts.TTL)
	}

	var err error
	c.outer, err = otter.New(o)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	if opts.File != "" {
		if err := c.loadFromDisk(); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", opts.File, err)
		}
	}

	return c, nil
}

func (c *Cache[T]) Set(key string, val T) error {
	c.outer.Set(key, val)
	return c.changed()
}

func (c *Cache[T]) Get(key string) (T, bool) {
	return c.outer.GetIfPresent(key)
}

func (c *Cache[T]) Delete(key string) error {
	c.outer.Invalidate(key)
	return c.changed()
}

func (c *Cache[T]) Clear() error {
	c.outer.InvalidateAll()
	return c.changed()
}

func (c *Cache[T]) All() map[string]T {
	out := make(map[string]T)
	for k, v := range c.outer.All() {
		out[k] = v
	}
	return out
}

func (c *Cache[T]) Len() int {
	return c.outer.EstimatedSize()
}

func (c *Cache[T]) changed() error {
	if c.opts.File != "" && c.opts.FlushOnChange {
		return c.FlushToDisk()
	}
	return nil
}

func (c *Cache[T]) FlushToDisk() error {
	if c.opts.File == "" {
		return nil
	}

	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	data, err := json.MarshalIndent(c.All(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	return writeAtomic(c.opts.File, data, 0600)
}

func (c *Cache[T]) loadFromDisk() error {
	data, err := os.ReadFile(c.opts.File)
	if err != nil {
		return err
	}

	var items map[string]T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}

	for k, v := range items {
		c.outer.Set(k, v)
	}

	return nil
}

// Close writes the file one last time.
func (c *Cache[T]) Close() error {
	return c.FlushToDisk()
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", filepath.Base(path), time.Now().UnixNano()))
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
