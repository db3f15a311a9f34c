package episode

import (
	"errors"
	"sync"
)

// DefaultCapacity is the number of episodes retained for the feed.
const DefaultCapacity = 10

var ErrNotFound = errors.New("no episodes found")

// Ledger is the bounded, chronological history of produced episodes.
// Appending past capacity evicts the oldest records first.
type Ledger struct {
	mu       sync.RWMutex
	records  []Record
	capacity int
}

// NewLedger returns a Ledger holding at most capacity records. Capacities
// outside 1..DefaultCapacity are replaced by DefaultCapacity.
func NewLedger(capacity int) *Ledger {
	if capacity <= 0 || capacity > DefaultCapacity {
		capacity = DefaultCapacity
	}
	return &Ledger{
		records:  make([]Record, 0, capacity),
		capacity: capacity,
	}
}

// Append stores r as the newest record and returns the retained history
// as it stood right after the append.
func (l *Ledger) Append(r Record) []Record {
	retained, _ := l.AppendEvicting(r)
	return retained
}

// AppendEvicting is Append that also returns the records pushed out by it,
// oldest first.
func (l *Ledger) AppendEvicting(r Record) (retained, evicted []Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, r.clone())
	if over := len(l.records) - l.capacity; over > 0 {
		evicted = make([]Record, over)
		copy(evicted, l.records[:over])
		// copy down instead of reslicing so evicted records can be collected
		n := copy(l.records, l.records[over:])
		clear(l.records[n:])
		l.records = l.records[:n]
	}
	return l.snapshot(), evicted
}

// Latest returns the most recently appended record or ErrNotFound.
func (l *Ledger) Latest() (Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.records) == 0 {
		return Record{}, ErrNotFound
	}
	return l.records[len(l.records)-1].clone(), nil
}

// All returns a copy of the retained records, oldest first.
func (l *Ledger) All() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot()
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *Ledger) Cap() int { return l.capacity }

func (l *Ledger) snapshot() []Record {
	out := make([]Record, len(l.records))
	for i, r := range l.records {
		out[i] = r.clone()
	}
	return out
}
