package cli

import (
	"bufio"
	"context"
	"log"
	"os"
	"sync"

	"github.com/simplesocial/simplesocial/internal/client/client"
	"github.com/simplesocial/simplesocial/internal/client/config"
	"github.com/simplesocial/simplesocial/internal/client/friendreq"
	"github.com/simplesocial/simplesocial/internal/client/keepalive"
	"github.com/simplesocial/simplesocial/internal/logging"
)

type App struct {
	config    *config.Config
	api       *client.Client
	responder *keepalive.Responder
	listener  *friendreq.Listener
	reader    *bufio.Reader

	mu       sync.Mutex
	token    client.Token
	loggedIn bool
	userName string
	pending  []string
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {

	app := &App{
		config: c,
		api:    client.New(c.ServerEndpointAddr, c.ConnTimeout),
		reader: bufio.NewReader(os.Stdin),
	}

	listener, err := friendreq.NewListener(c.ListenPort, logger, app.onFriendRequest)
	if err != nil {
		return nil, err
	}
	app.listener = listener

	responder, err := keepalive.NewResponder(c.KeepAliveGroup, c.KeepAliveReplyAddr, logger)
	if err != nil {
		return nil, err
	}
	app.responder = responder

	return app, nil
}

// onFriendRequest runs on the listener goroutine whenever the server forwards
// a friend request to this client.
func (a *App) onFriendRequest(requester string) {
	a.mu.Lock()
	a.pending = append(a.pending, requester)
	a.mu.Unlock()
	printlnFn("Friend request from " + requester + " — use 'accept' or 'deny'")
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loggedIn
}

func (a *App) sessionToken() client.Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *App) setSession(userName string, token client.Token) {
	a.mu.Lock()
	a.userName = userName
	a.token = token
	a.loggedIn = true
	a.mu.Unlock()
	a.responder.SetToken(token)
}

func (a *App) clearSession() {
	a.mu.Lock()
	a.userName = ""
	a.token = client.Token{}
	a.loggedIn = false
	a.pending = nil
	a.mu.Unlock()
	a.responder.ClearToken()
}

func (a *App) status() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loggedIn {
		return "not logged in"
	}
	return a.userName
}

// Run starts the background listeners and enters the REPL. It returns when
// the user exits or stdin is closed.
func (a *App) Run(ctx context.Context) {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := a.listener.Run(ctx); err != nil {
			log.Printf("friend request listener stopped: %v", err)
		}
	}()
	go func() {
		if err := a.responder.Run(ctx); err != nil {
			log.Printf("keepalive responder stopped: %v", err)
		}
	}()

	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}
