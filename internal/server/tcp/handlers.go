package tcp

import (
	"bufio"
	"context"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/simplesocial/simplesocial/internal/server/session"
	"github.com/simplesocial/simplesocial/internal/wire"
)

// handle serves one request connection. Malformed requests and transport
// failures close the connection without a response and never escape the
// handler; nothing here may bring down the dispatcher.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error(ctx, "handler panic", "panic", r)
		}
	}()

	conn.SetDeadline(time.Now().Add(s.connTimeout))

	r := bufio.NewReader(conn)
	opcode, err := r.ReadByte()
	if err != nil {
		return
	}

	switch opcode {
	case wire.OpRegister:
		s.register(ctx, r, conn)
	case wire.OpLogin:
		s.login(r, conn)
	case wire.OpLogout:
		s.logout(r, conn)
	case wire.OpFindUser:
		s.findUser(r, conn)
	case wire.OpGetFriends:
		s.getFriends(r, conn)
	case wire.OpPublish:
		s.publish(ctx, r, conn)
	case wire.OpForwardFriendRequest:
		s.forwardFriendRequest(r, conn)
	case wire.OpAcceptFriendRequest:
		s.respondFriendRequest(r, conn, true)
	case wire.OpDenyFriendRequest:
		s.respondFriendRequest(r, conn, false)
	default:
		// Unrecognized opcode: drop the connection without a response.
	}
}

func (s *Server) writeResp(w io.Writer, code byte) {
	_, _ = w.Write([]byte{code})
}

// validateToken performs the implicit token-validation round that precedes
// every authenticated request: it reads a token, answers OK or
// INVALID_TOKEN, refreshes the session's last action on success and returns
// the session.
func (s *Server) validateToken(r io.Reader, w io.Writer) (session.Session, bool) {
	raw, err := wire.ReadToken(r)
	if err != nil {
		return session.Session{}, false
	}
	sess, ok := s.sessions.Get(session.Token(raw))
	if !ok {
		s.writeResp(w, wire.RespInvalidToken)
		return session.Session{}, false
	}
	s.writeResp(w, wire.RespOK)
	_ = s.sessions.Touch(sess.Token)
	return sess, true
}

func (s *Server) register(ctx context.Context, r io.Reader, w io.Writer) {
	username, password, ok, err := wire.ReadCredentials(r)
	if err != nil || !ok {
		return
	}
	if err := s.graph.AddUser(username, password); err != nil {
		s.writeResp(w, wire.RespInvalidCredentials)
		return
	}
	s.writeResp(w, wire.RespOK)
	s.log.Info(ctx, "new user", "username", username)
}

func (s *Server) login(r io.Reader, conn net.Conn) {
	var portBuf [2]byte
	if _, err := io.ReadFull(r, portBuf[:]); err != nil {
		return
	}
	username, password, ok, err := wire.ReadCredentials(r)
	if err != nil || !ok {
		return
	}

	if err := s.graph.Authenticate(username, password); err != nil {
		s.writeResp(conn, wire.RespInvalidCredentials)
		return
	}
	token, err := s.sessions.Login(username)
	if err != nil {
		s.writeResp(conn, wire.RespInvalidCredentials)
		return
	}

	_, _ = conn.Write([]byte{wire.RespOK})
	_, _ = conn.Write(token[:])

	// Remember where to forward friend requests: the connection's source
	// address plus the port the client advertised.
	if host, _, err := net.SplitHostPort(conn.RemoteAddr().String()); err == nil {
		port := wire.DecodePort(portBuf)
		s.sessions.SetAddr(username, net.JoinHostPort(host, strconv.Itoa(port)))
	}
}

func (s *Server) logout(r io.Reader, w io.Writer) {
	sess, ok := s.validateToken(r, w)
	if !ok {
		return
	}
	s.sessions.LogoutToken(sess.Token)
	s.writeResp(w, wire.RespOK)
}

func (s *Server) findUser(r io.Reader, w io.Writer) {
	if _, ok := s.validateToken(r, w); !ok {
		return
	}
	query, err := wire.ReadString(r)
	if err != nil {
		return
	}
	usernames := s.graph.FindUsers(query)
	_, _ = w.Write([]byte(wire.JoinLines(usernames)))
}

func (s *Server) getFriends(r io.Reader, w io.Writer) {
	sess, ok := s.validateToken(r, w)
	if !ok {
		return
	}
	friends, err := s.graph.Friends(sess.Username)
	if err != nil {
		return
	}

	active := s.sessions.ActiveUsers(s.activeWindow)
	lines := make([]string, 0, len(friends))
	for _, friend := range friends {
		flag := "0"
		if _, online := active[friend]; online {
			flag = "1"
		}
		lines = append(lines, flag+friend)
	}
	_, _ = w.Write([]byte(wire.JoinLines(lines)))
}

func (s *Server) publish(ctx context.Context, r io.Reader, w io.Writer) {
	sess, ok := s.validateToken(r, w)
	if !ok {
		return
	}
	content, err := wire.ReadString(r)
	if err != nil || content == "" {
		return
	}

	post, err := s.graph.AddPost(sess.Username, content)
	if err != nil {
		return
	}
	s.fanout.NotifyPost(ctx, post)
	s.writeResp(w, wire.RespOK)
}

func (s *Server) forwardFriendRequest(r io.Reader, w io.Writer) {
	sess, ok := s.validateToken(r, w)
	if !ok {
		return
	}
	target, err := wire.ReadString(r)
	if err != nil {
		return
	}

	if !s.graph.HasUser(target) {
		s.writeResp(w, wire.RespUserNotFound)
		return
	}
	if s.graph.AreFriends(sess.Username, target) {
		s.writeResp(w, wire.RespBadRequest)
		return
	}

	targetSess, online := s.sessions.GetByUser(target)
	if !online || targetSess.Addr == "" {
		s.writeResp(w, wire.RespUserOffline)
		return
	}
	if err := s.deliverFriendRequest(targetSess.Addr, sess.Username); err != nil {
		s.writeResp(w, wire.RespUserOffline)
		return
	}

	if err := s.ledger.AddOrRenew(sess.Username, target); err != nil {
		s.writeResp(w, wire.RespUserNotFound)
		return
	}
	s.writeResp(w, wire.RespOK)
}

// deliverFriendRequest contacts the recipient on its last-known address and
// writes the requester's username as raw UTF-8.
func (s *Server) deliverFriendRequest(addr, requester string) error {
	peer, err := net.DialTimeout("tcp", addr, s.connTimeout)
	if err != nil {
		return err
	}
	defer peer.Close()

	peer.SetWriteDeadline(time.Now().Add(s.connTimeout))
	_, err = peer.Write([]byte(requester))
	return err
}

func (s *Server) respondFriendRequest(r io.Reader, w io.Writer, accept bool) {
	sess, ok := s.validateToken(r, w)
	if !ok {
		return
	}
	sender, err := wire.ReadString(r)
	if err != nil {
		return
	}

	if !s.graph.HasUser(sender) {
		s.writeResp(w, wire.RespUserNotFound)
		return
	}
	if s.ledger.Respond(sender, sess.Username, accept) {
		s.writeResp(w, wire.RespOK)
		return
	}
	s.writeResp(w, wire.RespBadRequest)
}
