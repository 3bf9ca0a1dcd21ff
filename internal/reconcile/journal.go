package reconcile

import (
	"sync"
	"time"

	"github.com/gantry-sh/gantry/internal/graph"
)

// Entry is one append-only journal record of a node state transition or a
// retry attempt.
type Entry struct {
	Time time.Time
	Node string
	From graph.State
	To   graph.State

	// Attempt and Delay are set on retry entries: the attempt that just
	// failed and the backoff before the next one.
	Attempt int
	Delay   time.Duration

	// Error carries failure detail, empty on clean transitions.
	Error string
}

// Journal is the append-only audit trail of a reconciliation run.
type Journal struct {
	mu      sync.Mutex
	entries []Entry
}

// NewJournal returns an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Transition appends a state-transition entry.
func (j *Journal) Transition(node string, from, to graph.State, err error) {
	e := Entry{Time: time.Now(), Node: node, From: from, To: to}
	if err != nil {
		e.Error = err.Error()
	}
	j.append(e)
}

// Retry appends a backoff entry for a failed attempt.
func (j *Journal) Retry(node string, attempt int, delay time.Duration, err error) {
	e := Entry{
		Time:    time.Now(),
		Node:    node,
		From:    graph.StateApplying,
		To:      graph.StateApplying,
		Attempt: attempt,
		Delay:   delay,
	}
	if err != nil {
		e.Error = err.Error()
	}
	j.append(e)
}

func (j *Journal) append(e Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
}

// Entries returns a copy of all journal entries in append order.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Entry{}, j.entries...)
}

// ForNode returns the entries for one logical name, in append order.
func (j *Journal) ForNode(name string) []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []Entry
	for _, e := range j.entries {
		if e.Node == name {
			out = append(out, e)
		}
	}
	return out
}
