package buffer

import (
	"sort"
	"sync"

	v1 "olimpiad/pkg/api/v1"
)

// RevisionBuffer keeps the most recent schema events in a ring so a stream
// client that reconnects can replay what it missed. Events must be added in
// increasing revision order.
type RevisionBuffer struct {
	mu     sync.RWMutex
	events []v1.SchemaEvent
	size   int
	head   int
	isFull bool
}

func NewRevisionBuffer(size int) *RevisionBuffer {
	if size <= 0 {
		size = 1000
	}
	return &RevisionBuffer{
		events: make([]v1.SchemaEvent, size),
		size:   size,
	}
}

func (b *RevisionBuffer) Add(evt v1.SchemaEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[b.head] = evt
	b.head = (b.head + 1) % b.size
	if b.head == 0 {
		b.isFull = true
	}
}

// Latest returns the newest revision held, or 0 when empty.
func (b *RevisionBuffer) Latest() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.head == 0 && !b.isFull {
		return 0
	}
	return b.events[(b.head-1+b.size)%b.size].Revision
}

// GetSince returns every event newer than lastRev. ok is false when events
// after lastRev have already been evicted and the caller must resync from a
// full listing instead.
func (b *RevisionBuffer) GetSince(lastRev int64) (events []v1.SchemaEvent, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count, start := b.head, 0
	if b.isFull {
		count, start = b.size, b.head
	}
	if count == 0 {
		return nil, true
	}

	// lastRev+1 must still be in the ring for the replay to be gapless.
	if lastRev+1 < b.events[start].Revision {
		return nil, false
	}

	at := func(i int) v1.SchemaEvent { return b.events[(start+i)%b.size] }
	idx := sort.Search(count, func(i int) bool { return at(i).Revision > lastRev })
	if idx == count {
		return nil, true
	}

	out := make([]v1.SchemaEvent, 0, count-idx)
	for i := idx; i < count; i++ {
		out = append(out, at(i))
	}
	return out, true
}
