package buffer

import (
	"sync"
	"testing"
	"time"

	v1 "olimpiad/pkg/api/v1"
)

func TestRevisionBuffer_Lifecycle(t *testing.T) {
	buf := NewRevisionBuffer(3)

	events, ok := buf.GetSince(0)
	if !ok || len(events) != 0 {
		t.Error("empty buffer should return no events and ok=true")
	}
	if buf.Latest() != 0 {
		t.Errorf("empty buffer latest should be 0, got %d", buf.Latest())
	}

	buf.Add(v1.SchemaEvent{Revision: 1})
	buf.Add(v1.SchemaEvent{Revision: 2})
	buf.Add(v1.SchemaEvent{Revision: 3})

	// Revisions start at 1, so a client that has seen nothing can replay all.
	events, ok = buf.GetSince(0)
	if !ok || len(events) != 3 {
		t.Fatalf("GetSince(0) = %d events, ok=%v; want 3, true", len(events), ok)
	}

	// Wrap: logical contents become [2, 3, 4].
	buf.Add(v1.SchemaEvent{Revision: 4})
	if buf.Latest() != 4 {
		t.Errorf("expected latest 4, got %d", buf.Latest())
	}

	// Revision 1 was evicted; a client at 0 has a gap.
	if _, ok = buf.GetSince(0); ok {
		t.Error("GetSince(0) should require a resync after revision 1 was evicted")
	}

	// A client at 1 needs 2.. which is still held.
	events, ok = buf.GetSince(1)
	if !ok || len(events) != 3 {
		t.Fatalf("GetSince(1) = %d events, ok=%v; want 3, true", len(events), ok)
	}

	events, ok = buf.GetSince(2)
	if !ok {
		t.Fatal("GetSince(2) should be valid")
	}
	if len(events) != 2 || events[0].Revision != 3 || events[1].Revision != 4 {
		t.Errorf("expected [3 4], got %+v", events)
	}

	events, ok = buf.GetSince(4)
	if !ok || len(events) != 0 {
		t.Error("up-to-date client should get nothing and ok=true")
	}
}

func TestRevisionBuffer_ConcurrentAccess(t *testing.T) {
	buf := NewRevisionBuffer(64)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int64(1); i <= 500; i++ {
			buf.Add(v1.SchemaEvent{Revision: i, At: time.Now()})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				events, ok := buf.GetSince(buf.Latest() - 10)
				if !ok {
					continue
				}
				for j := 1; j < len(events); j++ {
					if events[j].Revision <= events[j-1].Revision {
						t.Errorf("events out of order: %d after %d", events[j].Revision, events[j-1].Revision)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}
