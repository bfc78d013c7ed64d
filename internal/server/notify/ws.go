package notify

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/simplesocial/simplesocial/internal/common"
	"github.com/simplesocial/simplesocial/internal/logging"
	"github.com/simplesocial/simplesocial/internal/server/session"
)

// Frame is one delivered notification on the websocket stream.
type Frame struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

const (
	// sendBufferSize bounds the per-receiver outbound queue; a full queue
	// counts as a failed delivery and falls back to the backlog.
	sendBufferSize = 16

	writeTimeout = 5 * time.Second
)

var (
	errReceiverClosed = errors.New("notify: receiver closed")
	errSendBufferFull = errors.New("notify: send buffer full")
)

// Service is the remote callback registry: clients register a live receiver
// by opening a websocket at GET /v1/notifications?token=<hex>[&follow=<user>]
// and then read Frame messages until they disconnect.
type Service struct {
	fanout   *Fanout
	log      logging.Logger
	upgrader websocket.Upgrader
}

func NewService(fanout *Fanout, log logging.Logger) *Service {
	return &Service{
		fanout: fanout,
		log:    log.With("module", "notify_http"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP surface of the notification service.
func (s *Service) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/v1/notifications", s.subscribe)
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

// Run serves the notification endpoint until ctx is canceled.
func (s *Service) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info(ctx, "notification service started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Service) subscribe(c *gin.Context) {
	token, err := parseToken(c.Query("token"))
	if err != nil {
		c.String(http.StatusUnauthorized, "bad token")
		return
	}
	follow := c.Query("follow")

	// Authorization errors must surface as HTTP statuses, so check before
	// hijacking the connection.
	if _, err := s.fanout.Authorize(token, follow); err != nil {
		switch {
		case errors.Is(err, common.ErrUnauthorized):
			c.String(http.StatusUnauthorized, "invalid token")
		case errors.Is(err, common.ErrNotFound):
			c.String(http.StatusForbidden, "no such user")
		case errors.Is(err, common.ErrNotFriends):
			c.String(http.StatusForbidden, "not a friend")
		default:
			c.String(http.StatusInternalServerError, "registration failed")
		}
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	sess, ok := s.fanout.sessions.Get(token)
	if !ok {
		conn.Close()
		return
	}

	recv := newWSReceiver(sess.Username, conn)
	go recv.writeLoop()

	if err := s.fanout.Register(token, follow, recv); err != nil {
		// The session vanished between the precheck and now.
		recv.Close()
		return
	}
	s.log.Info(c.Request.Context(), "receiver registered", "user", sess.Username, "follow", follow)

	// Block reading until the client goes away, then drop the registration.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.fanout.Unregister(sess.Username, recv)
	recv.Close()
}

func parseToken(hexToken string) (session.Token, error) {
	var token session.Token
	b, err := hex.DecodeString(hexToken)
	if err != nil {
		return token, err
	}
	if len(b) != session.TokenLength {
		return token, errors.New("notify: bad token length")
	}
	copy(token[:], b)
	return token, nil
}

// wsReceiver adapts a websocket connection to the Receiver interface. Notify
// enqueues onto a bounded channel drained by writeLoop, so the publisher
// never blocks on a slow or dead client.
type wsReceiver struct {
	username string
	conn     *websocket.Conn
	out      chan Frame
	done     chan struct{}
	once     sync.Once
}

func newWSReceiver(username string, conn *websocket.Conn) *wsReceiver {
	return &wsReceiver{
		username: username,
		conn:     conn,
		out:      make(chan Frame, sendBufferSize),
		done:     make(chan struct{}),
	}
}

func (r *wsReceiver) Username() string { return r.username }

func (r *wsReceiver) Notify(author, content string) error {
	select {
	case <-r.done:
		return errReceiverClosed
	default:
	}
	select {
	case r.out <- Frame{Author: author, Content: content}:
		return nil
	default:
		return errSendBufferFull
	}
}

func (r *wsReceiver) writeLoop() {
	for {
		select {
		case <-r.done:
			return
		case f := <-r.out:
			r.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := r.conn.WriteJSON(f); err != nil {
				r.Close()
				return
			}
		}
	}
}

func (r *wsReceiver) Close() {
	r.once.Do(func() {
		close(r.done)
		r.conn.Close()
	})
}
