// Package cache memoizes decoded Program values keyed by the xxhash of
// their source blob, so repeated invocations of the same code (e.g. a
// service's accumulate logic invoked across many work items in one block)
// skip re-running the decoder and basic-block walk (spec §5 Supplemented
// Features: "Program cache").
package cache

import (
	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jamzig/jamnode/internal/log"
	"github.com/jamzig/jamnode/internal/pvm"
)

var logger = log.Default().Module("cache")

// ProgramCache is safe for concurrent use only insofar as the underlying
// lru.Cache is; callers sharing one cache across goroutines must still
// respect the PVM's single-threaded execution model per invocation (spec
// §5 Concurrency & Resource Model).
type ProgramCache struct {
	inner *lru.Cache[uint64, *pvm.Program]
}

// New returns a cache holding at most size decoded programs.
func New(size int) (*ProgramCache, error) {
	inner, err := lru.New[uint64, *pvm.Program](size)
	if err != nil {
		return nil, err
	}
	return &ProgramCache{inner: inner}, nil
}

// Get decodes blob, reusing a cached Program when blob's content hash was
// seen before. The returned Program must not be mutated — it may be
// shared across callers.
func (c *ProgramCache) Get(blob []byte) (*pvm.Program, error) {
	key := xxhash.Sum64(blob)
	if prog, ok := c.inner.Get(key); ok {
		return prog, nil
	}
	prog, err := pvm.Decode(blob)
	if err != nil {
		logger.Warn("program decode failed", "key", key, "len", len(blob), "err", err)
		return nil, err
	}
	if evicted := c.inner.Add(key, prog); evicted {
		logger.Debug("program cache evicted an entry", "size", c.inner.Len())
	}
	return prog, nil
}

// Len reports the number of decoded programs currently cached.
func (c *ProgramCache) Len() int { return c.inner.Len() }

// Purge evicts every cached entry.
func (c *ProgramCache) Purge() { c.inner.Purge() }
