// Package keepalive implements the liveness tracker: a periodic multicast
// probe datagram and a unicast listener for token-only replies. A valid
// reply refreshes its session's last-action time, which is what marks a user
// "active" for presence queries.
package keepalive

import (
	"context"
	"net"
	"time"

	"github.com/simplesocial/simplesocial/internal/logging"
	"github.com/simplesocial/simplesocial/internal/server/session"
	"github.com/simplesocial/simplesocial/internal/wire"
)

// Sessions is the slice of the session authority the tracker needs.
type Sessions interface {
	Touch(token session.Token) error
}

// Prober periodically sends a 1-byte probe datagram to the multicast group.
type Prober struct {
	group    string
	interval time.Duration
	log      logging.Logger
}

func NewProber(group string, interval time.Duration, log logging.Logger) *Prober {
	return &Prober{
		group:    group,
		interval: interval,
		log:      log.With("module", "keepalive_prober"),
	}
}

// Run emits probes until ctx is canceled.
func (p *Prober) Run(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", p.group)
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	p.log.Info(ctx, "probe emitter started", "group", p.group, "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	probe := []byte{wire.KeepAliveProbe}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := conn.Write(probe); err != nil {
				p.log.Warn(ctx, "probe send failed", "error", err)
			}
		}
	}
}

// ReplyListener receives token-only reply datagrams on a unicast port.
// Replies of the wrong size or carrying an unknown token are dropped
// silently.
type ReplyListener struct {
	conn     *net.UDPConn
	sessions Sessions
	log      logging.Logger
}

// NewReplyListener binds the reply socket immediately so the effective
// address is known before Run is called.
func NewReplyListener(addr string, sessions Sessions, log logging.Logger) (*ReplyListener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, err
	}
	return &ReplyListener{
		conn:     conn,
		sessions: sessions,
		log:      log.With("module", "keepalive_listener"),
	}, nil
}

// Addr returns the bound reply address.
func (l *ReplyListener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Run consumes replies until ctx is canceled.
func (l *ReplyListener) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	l.log.Info(ctx, "reply listener started", "addr", l.Addr().String())

	buf := make([]byte, 64)
	for {
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if n != session.TokenLength {
			continue
		}
		var token session.Token
		copy(token[:], buf[:n])
		if err := l.sessions.Touch(token); err != nil {
			continue
		}
	}
}
