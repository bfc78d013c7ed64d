package client

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesocial/simplesocial/internal/common"
	"github.com/simplesocial/simplesocial/internal/logging"
	"github.com/simplesocial/simplesocial/internal/server/config"
	"github.com/simplesocial/simplesocial/internal/server/friendreq"
	"github.com/simplesocial/simplesocial/internal/server/notify"
	"github.com/simplesocial/simplesocial/internal/server/session"
	"github.com/simplesocial/simplesocial/internal/server/social"
	"github.com/simplesocial/simplesocial/internal/server/tcp"
)

// startServer spins up a real TCP endpoint and returns a client bound to it.
func startServer(t *testing.T) (*Client, *social.Graph) {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.EndpointAddr = "127.0.0.1:0"
	cfg.ConnTimeout = 2 * time.Second

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	graph := social.NewGraph()
	sessions, err := session.NewManager(session.DefaultMaxDuration)
	require.NoError(t, err)
	ledger, err := friendreq.NewLedger(graph, friendreq.DefaultMaxAge)
	require.NoError(t, err)
	fanout := notify.NewFanout(sessions, graph, log)

	srv := tcp.NewServer(cfg, log, graph, sessions, ledger, fanout)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	go srv.Run(ctx)
	t.Cleanup(func() {
		cancel()
		sessions.Close()
	})

	return New(srv.Addr().String(), 2*time.Second), graph
}

func TestClient_RegisterAndLogin(t *testing.T) {
	c, _ := startServer(t)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, "alice", "secret"))

	token, err := c.Login(ctx, "alice", "secret", 0)
	require.NoError(t, err)
	assert.NotEqual(t, Token{}, token)
}

func TestClient_RegisterDuplicate(t *testing.T) {
	c, _ := startServer(t)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, "alice", "secret"))
	err := c.Register(ctx, "alice", "other")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestClient_LoginWrongPassword(t *testing.T) {
	c, _ := startServer(t)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, "alice", "secret"))
	_, err := c.Login(ctx, "alice", "wrong", 0)
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestClient_LogoutInvalidatesToken(t *testing.T) {
	c, _ := startServer(t)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, "alice", "secret"))
	token, err := c.Login(ctx, "alice", "secret", 0)
	require.NoError(t, err)

	require.NoError(t, c.Logout(ctx, token))
	err = c.Logout(ctx, token)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestClient_FindUsers(t *testing.T) {
	c, _ := startServer(t)
	ctx := context.Background()

	for _, u := range []string{"alice", "bob", "carol"} {
		require.NoError(t, c.Register(ctx, u, "pw"))
	}
	token, err := c.Login(ctx, "alice", "pw", 0)
	require.NoError(t, err)

	users, err := c.FindUsers(ctx, token, "o")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, users)

	all, err := c.FindUsers(ctx, token, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestClient_FriendsOnlineFlags(t *testing.T) {
	c, graph := startServer(t)
	ctx := context.Background()

	for _, u := range []string{"alice", "bob", "carol"} {
		require.NoError(t, c.Register(ctx, u, "pw"))
	}
	require.NoError(t, graph.AddFriendship("alice", "bob"))
	require.NoError(t, graph.AddFriendship("alice", "carol"))

	token, err := c.Login(ctx, "alice", "pw", 0)
	require.NoError(t, err)
	_, err = c.Login(ctx, "bob", "pw", 0)
	require.NoError(t, err)

	friends, err := c.Friends(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, []Friend{
		{Username: "bob", Online: true},
		{Username: "carol", Online: false},
	}, friends)
}

func TestClient_Publish(t *testing.T) {
	c, graph := startServer(t)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, "alice", "pw"))
	token, err := c.Login(ctx, "alice", "pw", 0)
	require.NoError(t, err)

	require.NoError(t, c.Publish(ctx, token, "first post"))

	posts, err := graph.Posts("alice")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "first post", posts[0].Content)
}

func TestClient_FriendRequestErrors(t *testing.T) {
	c, _ := startServer(t)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, "alice", "pw"))
	require.NoError(t, c.Register(ctx, "bob", "pw"))
	token, err := c.Login(ctx, "alice", "pw", 0)
	require.NoError(t, err)

	err = c.SendFriendRequest(ctx, token, "nobody")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// bob is registered but has no session to forward the request to
	err = c.SendFriendRequest(ctx, token, "bob")
	assert.ErrorIs(t, err, common.ErrUserOffline)

	// nothing pending from bob
	err = c.AcceptFriendRequest(ctx, token, "bob")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestClient_ServerUnavailable(t *testing.T) {
	c := New("127.0.0.1:1", 200*time.Millisecond)
	err := c.Register(context.Background(), "alice", "pw")
	assert.ErrorIs(t, err, ErrUnavailable)
}
