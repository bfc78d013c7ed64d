package social

import (
	"sort"
	"strings"
	"sync"

	"github.com/simplesocial/simplesocial/internal/common"
)

// Graph is the shared social graph store. One reader-writer lock guards the
// whole structure; accessors return copies, never live internal state.
type Graph struct {
	mu    sync.RWMutex
	users map[string]*User
	dirty bool
}

func NewGraph() *Graph {
	return &Graph{users: make(map[string]*User)}
}

// AddUser creates and indexes a user. Returns common.ErrAlreadyExists when
// the username is taken.
func (g *Graph) AddUser(username, password string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.users[username]; ok {
		return common.ErrAlreadyExists
	}
	g.users[username] = newUser(username, password)
	g.dirty = true
	return nil
}

// HasUser reports whether the username is registered.
func (g *Graph) HasUser(username string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.users[username]
	return ok
}

// Authenticate checks a username/password pair. Passwords are opaque
// comparable strings; it returns common.ErrInvalidCredentials on mismatch
// and common.ErrNotFound for an unknown user.
func (g *Graph) Authenticate(username, password string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	u, ok := g.users[username]
	if !ok {
		return common.ErrNotFound
	}
	if u.Password != password {
		return common.ErrInvalidCredentials
	}
	return nil
}

// AddFriendship records the mirrored friend edge between two users.
// Idempotent when they are already friends.
func (g *Graph) AddFriendship(u1, u2 string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	a, ok := g.users[u1]
	if !ok {
		return common.ErrNotFound
	}
	b, ok := g.users[u2]
	if !ok {
		return common.ErrNotFound
	}
	a.Friends[u2] = struct{}{}
	b.Friends[u1] = struct{}{}
	g.dirty = true
	return nil
}

// AreFriends reports whether the mirrored friend edge exists.
func (g *Graph) AreFriends(u1, u2 string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	a, ok := g.users[u1]
	if !ok {
		return false
	}
	_, ok = a.Friends[u2]
	return ok
}

// Friends returns the sorted usernames of a user's friends.
func (g *Graph) Friends(username string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	u, ok := g.users[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	return sortedKeys(u.Friends), nil
}

// Followers returns the sorted usernames subscribed to the given author.
// Unknown authors have no followers.
func (g *Graph) Followers(author string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	u, ok := g.users[author]
	if !ok {
		return nil
	}
	return sortedKeys(u.Followers)
}

// AddPost appends a post to the author's history and returns it.
func (g *Graph) AddPost(author, content string) (*Post, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, ok := g.users[author]
	if !ok {
		return nil, common.ErrNotFound
	}
	p := newPost(author, content)
	u.Posts = append(u.Posts, p)
	g.dirty = true
	return p, nil
}

// Posts returns the author's post history in publication order.
func (g *Graph) Posts(author string) ([]*Post, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	u, ok := g.users[author]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := make([]*Post, len(u.Posts))
	copy(out, u.Posts)
	return out, nil
}

// AddSubscription records follower's interest in followee's posts. The
// friendship precondition is checked only here, at subscribe time; it is a
// silent no-op when the two are not friends.
func (g *Graph) AddSubscription(follower, followee string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	f, ok := g.users[follower]
	if !ok {
		return common.ErrNotFound
	}
	target, ok := g.users[followee]
	if !ok {
		return common.ErrNotFound
	}
	if _, friends := f.Friends[followee]; !friends {
		return nil
	}
	target.Followers[follower] = struct{}{}
	g.dirty = true
	return nil
}

// FindUsers returns the sorted usernames containing query as a
// case-sensitive substring, or every username when query is empty.
func (g *Graph) FindUsers(query string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, 0, len(g.users))
	for name := range g.users {
		if query == "" || strings.Contains(name, query) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered users.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.users)
}

// Dirty reports whether the graph changed since the last ClearDirty.
func (g *Graph) Dirty() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.dirty
}

func (g *Graph) ClearDirty() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.dirty = false
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
