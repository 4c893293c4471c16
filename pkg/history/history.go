package history

import (
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/timemux/timemux-go/pkg/snapshot"
)

// ErrInvalidDepth is returned when a record is created with depth < 1.
var ErrInvalidDepth = errors.New("history depth must be at least 1")

// DefaultDepth is the tick record depth used when none is configured.
const DefaultDepth = 64

// Entry is one recorded tick.
type Entry struct {
	// Snapshot captured by the tick.
	Snapshot snapshot.Snapshot `cbor:"1,keyasint"`

	// Delivered is the number of callbacks notified.
	Delivered int `cbor:"2,keyasint"`

	// Faults is the number of deliveries that panicked.
	Faults int `cbor:"3,keyasint,omitempty"`
}

// Record is a bounded, eviction-ordered record of recent ticks.
// Safe for concurrent use.
type Record struct {
	cache *lru.Cache[uint64, Entry]
}

// NewRecord creates a Record holding at most depth ticks.
func NewRecord(depth int) (*Record, error) {
	if depth < 1 {
		return nil, ErrInvalidDepth
	}
	cache, err := lru.New[uint64, Entry](depth)
	if err != nil {
		return nil, err
	}
	return &Record{cache: cache}, nil
}

// Add records a tick. Once the record is full the oldest tick is evicted.
func (r *Record) Add(entry Entry) {
	r.cache.Add(entry.Snapshot.Sequence, entry)
}

// Get returns the recorded tick for a snapshot sequence.
func (r *Record) Get(sequence uint64) (Entry, bool) {
	return r.cache.Peek(sequence)
}

// Recent returns up to n of the most recent ticks, oldest first.
// Sequences only ever grow and entries are never touched after Add, so
// the cache's eviction order is capture order.
func (r *Record) Recent(n int) []Entry {
	keys := r.cache.Keys()
	if n < len(keys) {
		keys = keys[len(keys)-n:]
	}

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		if entry, ok := r.cache.Peek(k); ok {
			out = append(out, entry)
		}
	}
	return out
}

// Len returns the number of recorded ticks.
func (r *Record) Len() int {
	return r.cache.Len()
}
