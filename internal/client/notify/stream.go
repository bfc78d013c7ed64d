// Package notify consumes the server's websocket notification stream.
package notify

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/simplesocial/simplesocial/internal/wire"
)

// Notification is one message received on the stream.
type Notification struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// Stream is an open notification subscription. Notifications queued by the
// server while the user was offline are delivered first.
type Stream struct {
	conn *websocket.Conn
}

// Subscribe opens the notification stream for the posts of followee, who
// must be a friend of the session owner.
func Subscribe(ctx context.Context, rawURL string, token [wire.TokenSize]byte, followee string) (*Stream, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", hex.EncodeToString(token[:]))
	q.Set("follow", followee)
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("subscription rejected: %s", resp.Status)
		}
		return nil, err
	}
	return &Stream{conn: conn}, nil
}

// Next blocks until the next notification arrives or the stream fails.
func (s *Stream) Next() (Notification, error) {
	var n Notification
	if err := s.conn.ReadJSON(&n); err != nil {
		return Notification{}, err
	}
	return n, nil
}

// Close terminates the subscription.
func (s *Stream) Close() error {
	return s.conn.Close()
}
