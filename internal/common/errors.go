// Package common defines shared constants and sentinel errors used across
// client and server layers of simplesocial. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Auth errors (bad credentials or invalid/expired token).
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthorized       = errors.New("unauthorized")

	// Social-graph / ledger errors.
	ErrAlreadyFriends = errors.New("already friends")
	ErrNotFriends     = errors.New("not friends")
	ErrRequestExpired = errors.New("request expired or absent")

	// Forwarding / delivery errors.
	ErrUserOffline = errors.New("user offline")
)
