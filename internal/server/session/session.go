// Package session implements the token-based session authority: it issues
// opaque tokens at login, authenticates every request against them, tracks
// per-session liveness and evicts sessions after a maximum lifetime.
package session

import "time"

// TokenLength is the size of a session token in bytes.
const TokenLength = 4

// Token is the opaque fixed-size credential proving an authenticated
// session. Tokens are compared by exact byte equality.
type Token [TokenLength]byte

// Session binds a user to a token. Addr is the user's last-known network
// address, learned at login and used to forward friend requests.
type Session struct {
	Username   string
	Token      Token
	CreatedAt  time.Time
	LastAction time.Time
	Addr       string
}
