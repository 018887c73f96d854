package core

import (
	"crypto/sha256"

	"github.com/coocood/freecache"
)

var (
	purgatoryValue = []byte{0x1}

	// Entries never expire, an applied write stays applied.
	purgatoryExpiration = 0

	// The smallest size accepted by the underlying cache.
	minimumPurgatorySize = 512 * 1024
)

// Purgatory is the set of writes that were already appended
// into the local storage.
type Purgatory interface {
	// Set will add a new entry to the purgatory.
	// Returns true if the value did not exists previously
	// and false otherwise. An entry the cache refuses is an
	// error, never a silent miss.
	Set(key string) (bool, error)

	// Contains verify if the given value exists in purgatory.
	Contains(key string) bool

	// Del removes the entry, returns true if it existed.
	Del(key string) bool

	// Size is the number of entries.
	Size() int64
}

// CachePurgatory implements the Purgatory interface on top of an
// off-heap cache, so a long running replica does not grow the GC
// pressure with every applied line.
//
// Entries are stored by the SHA-256 digest of the key. The cache
// refuses entries larger than 1/1024 of its size, and a line can be
// as large as a frame, so the raw key is never stored.
type CachePurgatory struct {
	// Delegate structure that will handle all entries.
	delegate *freecache.Cache
}

// NewPurgatory creates a purgatory using at most size bytes.
func NewPurgatory(size int) Purgatory {
	if size < minimumPurgatorySize {
		size = minimumPurgatorySize
	}
	return &CachePurgatory{
		delegate: freecache.NewCache(size),
	}
}

func digest(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	return sum[:]
}

// Set implements the Purgatory interface.
func (c *CachePurgatory) Set(key string) (bool, error) {
	old, err := c.delegate.GetOrSet(digest(key), purgatoryValue, purgatoryExpiration)
	if err != nil {
		return false, err
	}
	return old == nil, nil
}

// Contains implements the Purgatory interface.
func (c *CachePurgatory) Contains(key string) bool {
	v, err := c.delegate.Get(digest(key))
	return v != nil && err == nil
}

// Del implements the Purgatory interface.
func (c *CachePurgatory) Del(key string) bool {
	return c.delegate.Del(digest(key))
}

// Size implements the Purgatory interface.
func (c *CachePurgatory) Size() int64 {
	return c.delegate.EntryCount()
}
