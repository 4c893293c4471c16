package snapshot

import (
	"fmt"
	"time"
)

// Snapshot is one captured "current time" value.
// CBOR encoding uses integer keys for compactness.
type Snapshot struct {
	// Time is the wall-clock reading at capture.
	Time time.Time `cbor:"1,keyasint"`

	// Sequence identifies the capture event. 0 is the initial snapshot an
	// engine is constructed with; each tick increments it by one.
	Sequence uint64 `cbor:"2,keyasint"`
}

// Initial returns the sequence-0 snapshot used at engine construction,
// before any tick has occurred.
func Initial(t time.Time) Snapshot {
	return Snapshot{Time: t, Sequence: 0}
}

// New returns a snapshot for the given capture event.
func New(t time.Time, sequence uint64) Snapshot {
	return Snapshot{Time: t, Sequence: sequence}
}

// Equal reports whether both snapshots came from the same capture event.
// Two captures whose clock readings happen to coincide are not equal.
func (s Snapshot) Equal(other Snapshot) bool {
	return s.Sequence == other.Sequence
}

// Before reports whether s was captured before other.
func (s Snapshot) Before(other Snapshot) bool {
	return s.Sequence < other.Sequence
}

// IsInitial reports whether this is the construction-time snapshot.
func (s Snapshot) IsInitial() bool {
	return s.Sequence == 0
}

// String returns the default display form: the capture time in RFC 3339
// with the sequence appended.
func (s Snapshot) String() string {
	return fmt.Sprintf("%s#%d", s.Time.Format(time.RFC3339Nano), s.Sequence)
}
