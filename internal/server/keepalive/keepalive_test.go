package keepalive

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesocial/simplesocial/internal/common"
	"github.com/simplesocial/simplesocial/internal/logging"
	"github.com/simplesocial/simplesocial/internal/server/session"
	"github.com/simplesocial/simplesocial/internal/wire"
)

type recordingSessions struct {
	mu      sync.Mutex
	valid   session.Token
	touched int
}

func (r *recordingSessions) Touch(token session.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.valid {
		return common.ErrInvalidToken
	}
	r.touched++
	return nil
}

func (r *recordingSessions) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.touched
}

func TestReplyListener_RefreshesSessionOnValidToken(t *testing.T) {
	sessions := &recordingSessions{valid: session.Token{1, 2, 3, 4}}

	l, err := NewReplyListener("127.0.0.1:0", sessions, logging.NewDefault())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	conn, err := net.Dial("udp4", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// malformed size: silently dropped
	_, err = conn.Write([]byte{1, 2})
	require.NoError(t, err)
	// unknown token: silently dropped
	_, err = conn.Write([]byte{9, 9, 9, 9})
	require.NoError(t, err)
	// valid reply
	_, err = conn.Write([]byte{1, 2, 3, 4})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return sessions.count() == 1 },
		2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestProber_SendsProbesUntilCanceled(t *testing.T) {
	// point the "group" at a plain loopback socket; the prober only sends
	sink, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer sink.Close()

	p := NewProber(sink.LocalAddr().String(), 10*time.Millisecond, logging.NewDefault())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	sink.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 8)
	n, _, err := sink.ReadFromUDP(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, wire.KeepAliveProbe, buf[0])

	cancel()
	require.NoError(t, <-done)
}

func TestNewReplyListener_BadAddr(t *testing.T) {
	_, err := NewReplyListener("not-an-addr", &recordingSessions{}, logging.NewDefault())
	require.Error(t, err)
}
