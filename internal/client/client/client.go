// Package client implements the TCP request API of the simplesocial server.
// Every call opens one connection, writes a single request, half-closes the
// write side and reads the response until EOF.
package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/simplesocial/simplesocial/internal/common"
	"github.com/simplesocial/simplesocial/internal/wire"
)

// Token is a session token as issued by the server at login.
type Token = [wire.TokenSize]byte

// Friend is one entry of the friend list, with its liveness flag.
type Friend struct {
	Username string
	Online   bool
}

// Client issues one-shot requests against the server's TCP endpoint.
type Client struct {
	addr    string
	timeout time.Duration
}

func New(addr string, timeout time.Duration) *Client {
	return &Client{addr: addr, timeout: timeout}
}

// roundTrip dials the server, sends the request and returns the complete
// response payload.
func (c *Client) roundTrip(ctx context.Context, request []byte) ([]byte, error) {
	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := conn.Write(request); err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.CloseWrite(); err != nil {
			return nil, err
		}
	}

	return io.ReadAll(conn)
}

// respError maps a wire response code onto a sentinel error, nil for OK.
func respError(code byte) error {
	switch code {
	case wire.RespOK:
		return nil
	case wire.RespUserNotFound:
		return common.ErrNotFound
	case wire.RespInvalidToken:
		return common.ErrInvalidToken
	case wire.RespInvalidCredentials:
		return common.ErrInvalidCredentials
	case wire.RespUserOffline:
		return common.ErrUserOffline
	case wire.RespBadRequest:
		return ErrBadRequest
	default:
		return fmt.Errorf("unexpected response code %d", code)
	}
}

// authedRequest sends a token-authenticated request and strips the leading
// token-validation response byte. The remainder of the payload is returned.
func (c *Client) authedRequest(ctx context.Context, opcode byte, token Token, trailer []byte) ([]byte, error) {
	request := append([]byte{opcode}, token[:]...)
	request = append(request, trailer...)

	resp, err := c.roundTrip(ctx, request)
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, ErrUnavailable
	}
	if err := respError(resp[0]); err != nil {
		return nil, err
	}
	return resp[1:], nil
}

// resultErr interprets a one-byte operation result that follows the
// validation byte.
func resultErr(payload []byte) error {
	if len(payload) == 0 {
		return ErrUnavailable
	}
	return respError(payload[0])
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, username, password string) error {
	request := append([]byte{wire.OpRegister}, []byte(username+"\n"+password)...)
	resp, err := c.roundTrip(ctx, request)
	if err != nil {
		return err
	}
	return resultErr(resp)
}

// Login authenticates and returns the session token. listenPort is the local
// TCP port where this client accepts forwarded friend requests.
func (c *Client) Login(ctx context.Context, username, password string, listenPort int) (Token, error) {
	port := wire.EncodePort(listenPort)
	request := append([]byte{wire.OpLogin}, port[:]...)
	request = append(request, []byte(username+"\n"+password)...)

	resp, err := c.roundTrip(ctx, request)
	if err != nil {
		return Token{}, err
	}
	if err := resultErr(resp); err != nil {
		return Token{}, err
	}
	if len(resp) != 1+wire.TokenSize {
		return Token{}, fmt.Errorf("malformed login response (%d bytes)", len(resp))
	}

	var token Token
	copy(token[:], resp[1:])
	return token, nil
}

// Logout terminates the session bound to token.
func (c *Client) Logout(ctx context.Context, token Token) error {
	payload, err := c.authedRequest(ctx, wire.OpLogout, token, nil)
	if err != nil {
		return err
	}
	return resultErr(payload)
}

// FindUsers returns the usernames containing query. An empty query matches
// everyone.
func (c *Client) FindUsers(ctx context.Context, token Token, query string) ([]string, error) {
	payload, err := c.authedRequest(ctx, wire.OpFindUser, token, []byte(query))
	if err != nil {
		return nil, err
	}
	return wire.SplitLines(string(payload)), nil
}

// Friends returns the caller's friend list with liveness flags.
func (c *Client) Friends(ctx context.Context, token Token) ([]Friend, error) {
	payload, err := c.authedRequest(ctx, wire.OpGetFriends, token, nil)
	if err != nil {
		return nil, err
	}

	lines := wire.SplitLines(string(payload))
	friends := make([]Friend, 0, len(lines))
	for _, line := range lines {
		if len(line) < 2 {
			return nil, fmt.Errorf("malformed friend entry %q", line)
		}
		friends = append(friends, Friend{Username: line[1:], Online: line[0] == '1'})
	}
	return friends, nil
}

// Publish posts content to the caller's followers.
func (c *Client) Publish(ctx context.Context, token Token, content string) error {
	payload, err := c.authedRequest(ctx, wire.OpPublish, token, []byte(content))
	if err != nil {
		return err
	}
	return resultErr(payload)
}

// SendFriendRequest forwards a friend request to username, who must be
// online to receive it.
func (c *Client) SendFriendRequest(ctx context.Context, token Token, username string) error {
	payload, err := c.authedRequest(ctx, wire.OpForwardFriendRequest, token, []byte(username))
	if err != nil {
		return err
	}
	return resultErr(payload)
}

// AcceptFriendRequest accepts a pending friend request from username.
func (c *Client) AcceptFriendRequest(ctx context.Context, token Token, username string) error {
	payload, err := c.authedRequest(ctx, wire.OpAcceptFriendRequest, token, []byte(username))
	if err != nil {
		return err
	}
	return resultErr(payload)
}

// DenyFriendRequest rejects a pending friend request from username.
func (c *Client) DenyFriendRequest(ctx context.Context, token Token, username string) error {
	payload, err := c.authedRequest(ctx, wire.OpDenyFriendRequest, token, []byte(username))
	if err != nil {
		return err
	}
	return resultErr(payload)
}
