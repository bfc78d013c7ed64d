// Package friendreq receives friend requests forwarded by the server.
package friendreq

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/simplesocial/simplesocial/internal/logging"
)

const readTimeout = 5 * time.Second

// Listener accepts the server's friend-request connections on the port the
// client advertised at login. Each connection carries the requester's
// username as raw UTF-8, terminated by the server closing its side.
type Listener struct {
	ln      net.Listener
	log     logging.Logger
	handler func(requester string)
}

// NewListener binds the given TCP port (0 picks an ephemeral one) and calls
// handler for every received friend request.
func NewListener(port int, log logging.Logger, handler func(requester string)) (*Listener, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	return &Listener{
		ln:      ln,
		log:     log.With("module", "friendreq_listener"),
		handler: handler,
	}, nil
}

// Port returns the bound TCP port, to be advertised at login.
func (l *Listener) Port() int {
	return l.ln.Addr().(*net.TCPAddr).Port
}

// Run accepts forwarded friend requests until ctx is canceled.
func (l *Listener) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.ln.Close()
	}()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go l.receive(ctx, conn)
	}
}

func (l *Listener) receive(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	b, err := io.ReadAll(conn)
	if err != nil || len(b) == 0 {
		return
	}

	requester := string(b)
	l.log.Info(ctx, "friend request received", "from", requester)
	l.handler(requester)
}
