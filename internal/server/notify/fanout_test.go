package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesocial/simplesocial/internal/common"
	"github.com/simplesocial/simplesocial/internal/logging"
	"github.com/simplesocial/simplesocial/internal/server/session"
	"github.com/simplesocial/simplesocial/internal/server/social"
)

type fakeReceiver struct {
	mu       sync.Mutex
	username string
	frames   []Frame
	failAll  bool
	failFrom int // fail every Notify once this many frames were accepted; 0 disables
}

func (r *fakeReceiver) Username() string { return r.username }
func (r *fakeReceiver) Close()           {}

func (r *fakeReceiver) Notify(author, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll || (r.failFrom > 0 && len(r.frames) >= r.failFrom) {
		return errors.New("delivery refused")
	}
	r.frames = append(r.frames, Frame{Author: author, Content: content})
	return nil
}

func (r *fakeReceiver) delivered() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

type fanoutFixture struct {
	graph    *social.Graph
	sessions *session.Manager
	fanout   *Fanout
	tokens   map[string]session.Token
}

// newFixture registers the users, makes them all mutual friends of the first
// one and logs everyone in.
func newFixture(t *testing.T, usernames ...string) *fanoutFixture {
	t.Helper()
	g := social.NewGraph()
	sm, err := session.NewManager(time.Hour)
	require.NoError(t, err)
	t.Cleanup(sm.Close)

	tokens := make(map[string]session.Token)
	for _, u := range usernames {
		require.NoError(t, g.AddUser(u, "pw"))
		token, err := sm.Login(u)
		require.NoError(t, err)
		tokens[u] = token
	}
	for _, u := range usernames[1:] {
		require.NoError(t, g.AddFriendship(usernames[0], u))
	}

	log := logging.NewDefault()
	return &fanoutFixture{
		graph:    g,
		sessions: sm,
		fanout:   NewFanout(sm, g, log),
		tokens:   tokens,
	}
}

func (f *fanoutFixture) publish(t *testing.T, author, content string) *social.Post {
	t.Helper()
	p, err := f.graph.AddPost(author, content)
	require.NoError(t, err)
	f.fanout.NotifyPost(context.Background(), p)
	return p
}

func TestRegister_InvalidToken(t *testing.T) {
	fx := newFixture(t, "alice")

	err := fx.fanout.Register(session.Token{9, 9, 9, 9}, "", &fakeReceiver{username: "alice"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestRegister_FolloweePreconditions(t *testing.T) {
	fx := newFixture(t, "bob", "alice")
	require.NoError(t, fx.graph.AddUser("carol", "pw"))

	recv := &fakeReceiver{username: "bob"}

	err := fx.fanout.Register(fx.tokens["bob"], "ghost", recv)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// carol exists but is not bob's friend
	err = fx.fanout.Register(fx.tokens["bob"], "carol", recv)
	assert.ErrorIs(t, err, common.ErrNotFriends)

	require.NoError(t, fx.fanout.Register(fx.tokens["bob"], "alice", recv))
	assert.Equal(t, []string{"bob"}, fx.graph.Followers("alice"))
}

func TestNotifyPost_LiveDelivery(t *testing.T) {
	fx := newFixture(t, "alice", "bob")
	require.NoError(t, fx.graph.AddSubscription("bob", "alice"))

	recv := &fakeReceiver{username: "bob"}
	require.NoError(t, fx.fanout.Register(fx.tokens["bob"], "", recv))

	fx.publish(t, "alice", "hello")

	assert.Equal(t, []Frame{{Author: "alice", Content: "hello"}}, recv.delivered())
	assert.Empty(t, fx.fanout.Backlog("bob"))
}

func TestNotifyPost_QueuesThenFlushesOnRegistration(t *testing.T) {
	fx := newFixture(t, "alice", "bob")
	require.NoError(t, fx.graph.AddSubscription("bob", "alice"))

	post := fx.publish(t, "alice", "hello")
	require.Len(t, fx.fanout.Backlog("bob"), 1)
	assert.Equal(t, post.ID, fx.fanout.Backlog("bob")[0].ID)

	recv := &fakeReceiver{username: "bob"}
	require.NoError(t, fx.fanout.Register(fx.tokens["bob"], "", recv))

	// delivered exactly once during the flush, with the original fields
	assert.Equal(t, []Frame{{Author: "alice", Content: "hello"}}, recv.delivered())
	assert.Empty(t, fx.fanout.Backlog("bob"))
}

func TestRegister_FlushStopsAtFirstFailure(t *testing.T) {
	fx := newFixture(t, "alice", "bob")
	require.NoError(t, fx.graph.AddSubscription("bob", "alice"))

	fx.publish(t, "alice", "one")
	fx.publish(t, "alice", "two")
	fx.publish(t, "alice", "three")
	require.Len(t, fx.fanout.Backlog("bob"), 3)

	recv := &fakeReceiver{username: "bob", failFrom: 1}
	require.NoError(t, fx.fanout.Register(fx.tokens["bob"], "", recv))

	assert.Equal(t, []Frame{{Author: "alice", Content: "one"}}, recv.delivered())

	remaining := fx.fanout.Backlog("bob")
	require.Len(t, remaining, 2)
	assert.Equal(t, "two", remaining[0].Content)
	assert.Equal(t, "three", remaining[1].Content)
}

func TestNotifyPost_OneFailureDoesNotBlockOthers(t *testing.T) {
	fx := newFixture(t, "alice", "bob", "carol")
	require.NoError(t, fx.graph.AddSubscription("bob", "alice"))
	require.NoError(t, fx.graph.AddSubscription("carol", "alice"))

	good := &fakeReceiver{username: "bob"}
	bad := &fakeReceiver{username: "carol", failAll: true}
	require.NoError(t, fx.fanout.Register(fx.tokens["bob"], "", good))
	require.NoError(t, fx.fanout.Register(fx.tokens["carol"], "", bad))

	fx.publish(t, "alice", "hello")

	assert.Equal(t, []Frame{{Author: "alice", Content: "hello"}}, good.delivered())
	assert.Empty(t, fx.fanout.Backlog("bob"))
	require.Len(t, fx.fanout.Backlog("carol"), 1)
}

func TestUnregister_OnlyRemovesOwnRegistration(t *testing.T) {
	fx := newFixture(t, "alice", "bob")
	require.NoError(t, fx.graph.AddSubscription("bob", "alice"))

	first := &fakeReceiver{username: "bob"}
	require.NoError(t, fx.fanout.Register(fx.tokens["bob"], "", first))

	second := &fakeReceiver{username: "bob"}
	require.NoError(t, fx.fanout.Register(fx.tokens["bob"], "", second))

	// a stale unregister from the replaced receiver must not drop the new one
	fx.fanout.Unregister("bob", first)
	fx.publish(t, "alice", "hello")
	assert.Equal(t, []Frame{{Author: "alice", Content: "hello"}}, second.delivered())

	fx.fanout.Unregister("bob", second)
	fx.publish(t, "alice", "again")
	require.Len(t, fx.fanout.Backlog("bob"), 1)
}

func TestNotifyPost_NoFollowers(t *testing.T) {
	fx := newFixture(t, "alice")
	// must simply return, queueing nothing
	fx.publish(t, "alice", "into the void")
	assert.Empty(t, fx.fanout.Backlog("alice"))
}
