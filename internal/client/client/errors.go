package client

import "errors"

var (
	// ErrUnavailable indicates the server could not be reached or closed the
	// connection without a response.
	ErrUnavailable = errors.New("server unavailable")

	// ErrBadRequest indicates the server rejected the request as invalid in
	// the current state, e.g. accepting a friend request that is not pending.
	ErrBadRequest = errors.New("bad request")
)
