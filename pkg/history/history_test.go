package history

import (
	"testing"
	"time"

	"github.com/timemux/timemux-go/pkg/snapshot"
)

func addTick(t *testing.T, r *Record, seq uint64, delivered int) {
	t.Helper()
	r.Add(Entry{
		Snapshot:  snapshot.New(time.Unix(int64(seq), 0), seq),
		Delivered: delivered,
	})
}

func TestNewRecordInvalidDepth(t *testing.T) {
	if _, err := NewRecord(0); err != ErrInvalidDepth {
		t.Errorf("NewRecord(0) error = %v, want ErrInvalidDepth", err)
	}
}

func TestRecordGet(t *testing.T) {
	r, err := NewRecord(8)
	if err != nil {
		t.Fatalf("NewRecord failed: %v", err)
	}

	addTick(t, r, 1, 3)
	addTick(t, r, 2, 2)

	entry, ok := r.Get(2)
	if !ok {
		t.Fatal("Get(2) = false, want recorded tick")
	}
	if entry.Delivered != 2 {
		t.Errorf("Delivered = %d, want 2", entry.Delivered)
	}
	if _, ok := r.Get(99); ok {
		t.Error("Get(99) = true for unrecorded sequence")
	}
}

func TestRecordEvictsOldest(t *testing.T) {
	r, err := NewRecord(3)
	if err != nil {
		t.Fatalf("NewRecord failed: %v", err)
	}

	for seq := uint64(1); seq <= 5; seq++ {
		addTick(t, r, seq, 1)
	}

	if got := r.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	if _, ok := r.Get(1); ok {
		t.Error("oldest tick should have been evicted")
	}
	if _, ok := r.Get(5); !ok {
		t.Error("newest tick missing")
	}
}

func TestRecentOrder(t *testing.T) {
	r, err := NewRecord(10)
	if err != nil {
		t.Fatalf("NewRecord failed: %v", err)
	}

	for seq := uint64(1); seq <= 4; seq++ {
		addTick(t, r, seq, 1)
	}

	recent := r.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d entries, want 2", len(recent))
	}
	if recent[0].Snapshot.Sequence != 3 || recent[1].Snapshot.Sequence != 4 {
		t.Errorf("Recent(2) sequences = %d,%d, want 3,4",
			recent[0].Snapshot.Sequence, recent[1].Snapshot.Sequence)
	}

	// Asking for more than recorded returns everything, oldest first.
	all := r.Recent(100)
	if len(all) != 4 || all[0].Snapshot.Sequence != 1 {
		t.Errorf("Recent(100) = %d entries starting at %d, want 4 starting at 1",
			len(all), all[0].Snapshot.Sequence)
	}
}
