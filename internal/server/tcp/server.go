// Package tcp implements the connection dispatcher: it accepts one TCP
// connection per request, decodes the opcode, routes to a handler and writes
// the response back. Concurrency is bounded by a direct-handoff worker pool;
// connections arriving while every worker is busy are dropped and clients
// are expected to retry.
package tcp

import (
	"context"
	"errors"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/simplesocial/simplesocial/internal/logging"
	"github.com/simplesocial/simplesocial/internal/server/config"
	"github.com/simplesocial/simplesocial/internal/server/friendreq"
	"github.com/simplesocial/simplesocial/internal/server/notify"
	"github.com/simplesocial/simplesocial/internal/server/session"
	"github.com/simplesocial/simplesocial/internal/server/social"
)

// poolGrowthFactor caps spare workers at this multiple of the core size.
const poolGrowthFactor = 25

// Server dispatches request connections to opcode handlers. Handlers get
// their collaborators through this struct rather than package globals.
type Server struct {
	addr         string
	connTimeout  time.Duration
	activeWindow time.Duration

	log      logging.Logger
	graph    *social.Graph
	sessions *session.Manager
	ledger   *friendreq.Ledger
	fanout   *notify.Fanout

	pool *Pool

	mu sync.Mutex
	ln net.Listener
}

func NewServer(cfg *config.Config, log logging.Logger, graph *social.Graph,
	sessions *session.Manager, ledger *friendreq.Ledger, fanout *notify.Fanout) *Server {

	core := runtime.NumCPU()
	return &Server{
		addr:         cfg.EndpointAddr,
		connTimeout:  cfg.ConnTimeout,
		activeWindow: cfg.ActiveWindow,
		log:          log.With("module", "tcp_server"),
		graph:        graph,
		sessions:     sessions,
		ledger:       ledger,
		fanout:       fanout,
		pool:         NewPool(core, core*poolGrowthFactor, DefaultIdleTimeout),
	}
}

// Listen binds the request endpoint. Separate from Run so callers learn the
// effective address before serving starts.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Run accepts connections until ctx is canceled, then stops accepting and
// waits for in-flight handlers to finish or time out naturally.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
		s.mu.Lock()
		ln = s.ln
		s.mu.Unlock()
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.log.Info(ctx, "server started", "addr", ln.Addr().String())
	defer s.pool.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error(ctx, "accept failed", "error", err)
			continue
		}

		if !s.pool.Submit(func() { s.handle(ctx, conn) }) {
			// No free worker: reject at the transport layer.
			conn.Close()
		}
	}
}
