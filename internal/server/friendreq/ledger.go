// Package friendreq implements the ledger of pending, time-limited friend
// requests. Accepting a request mutates the shared social graph, so every
// ledger operation is serialized behind a single mutex.
package friendreq

import (
	"errors"
	"sync"
	"time"

	"github.com/simplesocial/simplesocial/internal/common"
	"github.com/simplesocial/simplesocial/internal/server/social"
)

// DefaultMaxAge is how long a pending request stays answerable.
const DefaultMaxAge = 3 * 24 * time.Hour

type entry struct {
	sender    string
	createdAt time.Time
}

// Ledger holds pending friend requests keyed by recipient. Expired entries
// are swept lazily, when the recipient next responds to any request.
type Ledger struct {
	mu      sync.Mutex
	graph   *social.Graph
	maxAge  time.Duration
	pending map[string][]entry

	// now is swappable for tests.
	now func() time.Time
}

// NewLedger creates a Ledger over the given graph.
func NewLedger(graph *social.Graph, maxAge time.Duration) (*Ledger, error) {
	if graph == nil {
		return nil, errors.New("friendreq: nil graph")
	}
	if maxAge <= 0 {
		return nil, errors.New("friendreq: maxAge must be positive")
	}
	return &Ledger{
		graph:   graph,
		maxAge:  maxAge,
		pending: make(map[string][]entry),
		now:     time.Now,
	}, nil
}

// AddOrRenew records a friend request from sender to recipient, replacing
// any earlier pending request between the same pair (which restarts its
// expiry clock). It is a no-op when the two are already friends and fails
// with common.ErrNotFound when either user is unknown to the graph.
func (l *Ledger) AddOrRenew(sender, recipient string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.graph.HasUser(sender) || !l.graph.HasUser(recipient) {
		return common.ErrNotFound
	}
	if l.graph.AreFriends(sender, recipient) {
		return nil
	}

	entries := l.pending[recipient]
	kept := entries[:0]
	for _, e := range entries {
		if e.sender != sender {
			kept = append(kept, e)
		}
	}
	l.pending[recipient] = append(kept, entry{sender: sender, createdAt: l.now()})
	return nil
}

// Respond resolves the pending request from sender to recipient. It first
// sweeps all of the recipient's entries older than the maximum age; if no
// matching request remains it returns false. On accept the symmetric
// friendship is established through the graph; a graph failure (a user
// vanished meanwhile) downgrades the result to false.
func (l *Ledger) Respond(sender, recipient string, accept bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked(recipient)

	entries := l.pending[recipient]
	idx := -1
	for i, e := range entries {
		if e.sender == sender {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	l.pending[recipient] = append(entries[:idx], entries[idx+1:]...)
	if !accept {
		return true
	}
	return l.graph.AddFriendship(sender, recipient) == nil
}

// PendingFrom returns the senders of the recipient's still-valid requests,
// oldest first.
func (l *Ledger) PendingFrom(recipient string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked(recipient)

	entries := l.pending[recipient]
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.sender)
	}
	return out
}

func (l *Ledger) sweepLocked(recipient string) {
	entries, ok := l.pending[recipient]
	if !ok {
		return
	}
	now := l.now()
	kept := entries[:0]
	for _, e := range entries {
		if now.Sub(e.createdAt) <= l.maxAge {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(l.pending, recipient)
		return
	}
	l.pending[recipient] = kept
}
