// Package keepalive answers the server's multicast liveness probes.
package keepalive

import (
	"context"
	"net"
	"sync"

	"github.com/simplesocial/simplesocial/internal/logging"
	"github.com/simplesocial/simplesocial/internal/wire"
)

// Responder joins the keep-alive multicast group and replies to each probe
// with the current session token. While no token is set, probes are ignored,
// so the server sees the user go idle after logout.
type Responder struct {
	probes *net.UDPConn
	reply  net.Conn
	log    logging.Logger

	mu       sync.Mutex
	token    [wire.TokenSize]byte
	hasToken bool
}

// NewResponder joins the multicast group and binds the reply path
// immediately so failures surface at startup.
func NewResponder(group, replyAddr string, log logging.Logger) (*Responder, error) {
	groupAddr, err := net.ResolveUDPAddr("udp4", group)
	if err != nil {
		return nil, err
	}
	probes, err := net.ListenMulticastUDP("udp4", nil, groupAddr)
	if err != nil {
		return nil, err
	}
	reply, err := net.Dial("udp", replyAddr)
	if err != nil {
		probes.Close()
		return nil, err
	}
	return &Responder{
		probes: probes,
		reply:  reply,
		log:    log.With("module", "keepalive_responder"),
	}, nil
}

// Addr returns the local address of the probe socket.
func (r *Responder) Addr() net.Addr {
	return r.probes.LocalAddr()
}

// SetToken installs the session token used for probe replies.
func (r *Responder) SetToken(token [wire.TokenSize]byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token = token
	r.hasToken = true
}

// ClearToken stops probe replies until the next SetToken.
func (r *Responder) ClearToken() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hasToken = false
}

func (r *Responder) currentToken() ([wire.TokenSize]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.token, r.hasToken
}

// Run serves probe replies until ctx is canceled.
func (r *Responder) Run(ctx context.Context) error {
	defer r.reply.Close()
	defer r.probes.Close()

	go func() {
		<-ctx.Done()
		r.probes.Close()
	}()

	r.log.Info(ctx, "joined keepalive group", "addr", r.Addr().String())

	buf := make([]byte, 16)
	for {
		n, _, err := r.probes.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if n != 1 || buf[0] != wire.KeepAliveProbe {
			continue
		}
		token, ok := r.currentToken()
		if !ok {
			continue
		}
		if _, err := r.reply.Write(token[:]); err != nil {
			r.log.Warn(ctx, "probe reply failed", "error", err)
		}
	}
}
