// Package notify implements the best-effort publish/subscribe fanout for new
// posts. Online followers get posts pushed over their registered receiver;
// undeliverable posts are queued per recipient and replayed, in order, the
// next time that recipient registers.
package notify

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/simplesocial/simplesocial/internal/common"
	"github.com/simplesocial/simplesocial/internal/logging"
	"github.com/simplesocial/simplesocial/internal/server/session"
	"github.com/simplesocial/simplesocial/internal/server/social"
)

// Receiver is a live delivery target for one user. Notify must not block:
// implementations fail fast (buffer full, endpoint gone) so a slow consumer
// degrades to backlog queueing instead of stalling the publisher.
type Receiver interface {
	Username() string
	Notify(author, content string) error
	Close()
}

// SessionStore is the slice of the session authority the fanout needs.
type SessionStore interface {
	Get(token session.Token) (session.Session, bool)
}

// SocialGraph is the slice of the social graph the fanout needs.
type SocialGraph interface {
	HasUser(username string) bool
	AreFriends(u1, u2 string) bool
	AddSubscription(follower, followee string) error
	Followers(author string) []string
}

// Fanout routes newly published posts to followers. It keeps one live
// receiver per user plus a per-user backlog of posts that could not be
// delivered. Duplicates across registration and fanout races are possible;
// exactly-once delivery is not a goal.
type Fanout struct {
	sessions SessionStore
	graph    SocialGraph
	log      logging.Logger

	mu        sync.Mutex
	receivers map[string]Receiver
	backlog   map[string][]*social.Post
}

func NewFanout(sessions SessionStore, graph SocialGraph, log logging.Logger) *Fanout {
	return &Fanout{
		sessions:  sessions,
		graph:     graph,
		log:       log.With("module", "notify"),
		receivers: make(map[string]Receiver),
		backlog:   make(map[string][]*social.Post),
	}
}

// Authorize validates a registration attempt without side effects: the token
// must belong to a live session and, when followee is non-empty, the followee
// must exist and be a friend of the session's user. It returns the
// authenticated username.
func (f *Fanout) Authorize(token session.Token, followee string) (string, error) {
	s, ok := f.sessions.Get(token)
	if !ok {
		return "", common.ErrUnauthorized
	}
	if followee != "" {
		if !f.graph.HasUser(followee) {
			return "", common.ErrNotFound
		}
		if !f.graph.AreFriends(s.Username, followee) {
			return "", common.ErrNotFriends
		}
	}
	return s.Username, nil
}

// Register authenticates the receiver by token, optionally records a follow
// link on followee, makes the receiver the live delivery target for its user
// and synchronously flushes that user's backlog in insertion order. A failed
// delivery during the flush stops it; the remaining entries stay queued.
func (f *Fanout) Register(token session.Token, followee string, r Receiver) error {
	username, err := f.Authorize(token, followee)
	if err != nil {
		return err
	}
	if followee != "" {
		if err := f.graph.AddSubscription(username, followee); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if old, ok := f.receivers[username]; ok && old != r {
		old.Close()
	}
	f.receivers[username] = r

	queued := f.backlog[username]
	for len(queued) > 0 {
		p := queued[0]
		if err := r.Notify(p.Author, p.Content); err != nil {
			f.log.Warn(context.Background(), "backlog flush interrupted",
				"user", username, "remaining", len(queued))
			break
		}
		queued = queued[1:]
	}
	if len(queued) == 0 {
		delete(f.backlog, username)
	} else {
		f.backlog[username] = queued
	}
	return nil
}

// Unregister removes r as the live receiver for username. It is a no-op
// when a newer receiver has already replaced r.
func (f *Fanout) Unregister(username string, r Receiver) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if current, ok := f.receivers[username]; ok && current == r {
		delete(f.receivers, username)
	}
}

// NotifyPost delivers the post to every follower of its author. Attempts run
// independently and in parallel; any failure (including "no receiver
// registered") queues the post on that follower's backlog. One follower's
// failure never blocks delivery to the others. NotifyPost returns after all
// attempts finish.
func (f *Fanout) NotifyPost(ctx context.Context, post *social.Post) {
	followers := f.graph.Followers(post.Author)
	if len(followers) == 0 {
		return
	}

	g, _ := errgroup.WithContext(ctx)
	for _, follower := range followers {
		follower := follower
		g.Go(func() error {
			f.mu.Lock()
			r, ok := f.receivers[follower]
			f.mu.Unlock()

			if ok {
				if err := r.Notify(post.Author, post.Content); err == nil {
					return nil
				}
			}
			f.mu.Lock()
			f.backlog[follower] = append(f.backlog[follower], post)
			f.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// Backlog returns a copy of the queued, undelivered posts for username.
func (f *Fanout) Backlog(username string) []*social.Post {
	f.mu.Lock()
	defer f.mu.Unlock()

	queued := f.backlog[username]
	out := make([]*social.Post, len(queued))
	copy(out, queued)
	return out
}
