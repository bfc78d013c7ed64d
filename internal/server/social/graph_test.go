package social

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesocial/simplesocial/internal/common"
)

func newGraphWith(t *testing.T, usernames ...string) *Graph {
	t.Helper()
	g := NewGraph()
	for _, u := range usernames {
		require.NoError(t, g.AddUser(u, "pw"))
	}
	return g
}

func TestAddUser_UniqueUsernames(t *testing.T) {
	g := NewGraph()

	require.NoError(t, g.AddUser("alice", "secret"))
	err := g.AddUser("alice", "other")
	require.ErrorIs(t, err, common.ErrAlreadyExists)
	assert.Equal(t, 1, g.Len())
}

func TestAuthenticate(t *testing.T) {
	g := newGraphWith(t, "alice")

	assert.NoError(t, g.Authenticate("alice", "pw"))
	assert.ErrorIs(t, g.Authenticate("alice", "wrong"), common.ErrInvalidCredentials)
	assert.ErrorIs(t, g.Authenticate("ghost", "pw"), common.ErrNotFound)
}

func TestAddFriendship_Mirrored(t *testing.T) {
	g := newGraphWith(t, "alice", "bob")

	require.NoError(t, g.AddFriendship("alice", "bob"))
	assert.True(t, g.AreFriends("alice", "bob"))
	assert.True(t, g.AreFriends("bob", "alice"))

	// idempotent
	require.NoError(t, g.AddFriendship("bob", "alice"))
	friends, err := g.Friends("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, friends)
}

func TestAddFriendship_UnknownUser(t *testing.T) {
	g := newGraphWith(t, "alice")

	err := g.AddFriendship("alice", "ghost")
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.False(t, g.AreFriends("alice", "ghost"))
}

func TestAddSubscription_RequiresFriendshipAtSubscribeTime(t *testing.T) {
	g := newGraphWith(t, "alice", "bob")

	// not friends yet: silent no-op
	require.NoError(t, g.AddSubscription("bob", "alice"))
	assert.Empty(t, g.Followers("alice"))

	require.NoError(t, g.AddFriendship("alice", "bob"))
	require.NoError(t, g.AddSubscription("bob", "alice"))
	assert.Equal(t, []string{"bob"}, g.Followers("alice"))

	// unknown parties are an error, not a no-op
	assert.ErrorIs(t, g.AddSubscription("ghost", "alice"), common.ErrNotFound)
	assert.ErrorIs(t, g.AddSubscription("bob", "ghost"), common.ErrNotFound)
}

func TestAddPost_AppendsInOrder(t *testing.T) {
	g := newGraphWith(t, "alice")

	p1, err := g.AddPost("alice", "first")
	require.NoError(t, err)
	p2, err := g.AddPost("alice", "second")
	require.NoError(t, err)
	assert.NotEqual(t, p1.ID, p2.ID)

	posts, err := g.Posts("alice")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "first", posts[0].Content)
	assert.Equal(t, "second", posts[1].Content)

	_, err = g.AddPost("ghost", "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestFindUsers(t *testing.T) {
	g := newGraphWith(t, "alice", "alina", "bob")

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "substring", query: "ali", want: []string{"alice", "alina"}},
		{name: "case sensitive", query: "ALI", want: []string{}},
		{name: "empty query returns all", query: "", want: []string{"alice", "alina", "bob"}},
		{name: "no hit", query: "zz", want: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := g.FindUsers(tc.query)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("FindUsers(%q) mismatch (-want +got):\n%s", tc.query, diff)
			}
		})
	}
}

func TestDirtyFlag(t *testing.T) {
	g := NewGraph()
	assert.False(t, g.Dirty())

	require.NoError(t, g.AddUser("alice", "pw"))
	assert.True(t, g.Dirty())

	g.ClearDirty()
	assert.False(t, g.Dirty())

	// read-only calls never mark the graph dirty
	g.FindUsers("")
	_ = g.HasUser("alice")
	assert.False(t, g.Dirty())
}

func TestFriends_UnknownUser(t *testing.T) {
	g := NewGraph()
	_, err := g.Friends("ghost")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}
