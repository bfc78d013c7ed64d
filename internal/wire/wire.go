// Package wire defines the binary request/response protocol spoken over TCP.
//
// Each connection carries exactly one request: a one-byte opcode, an optional
// 4-byte session token, and a trailing UTF-8 payload. The client half-closes
// its side after writing, so the server reads the trailing payload to EOF.
// Multi-byte integers are little-endian; '\n' separates concatenated text
// fields within a single payload.
package wire

import (
	"io"
	"strings"
)

// Request opcodes.
const (
	OpRegister             byte = 0
	OpLogin                byte = 1
	OpLogout               byte = 2
	OpForwardFriendRequest byte = 3
	OpFindUser             byte = 4
	OpGetFriends           byte = 5
	OpPublish              byte = 6
	OpAcceptFriendRequest  byte = 7
	OpDenyFriendRequest    byte = 8
)

// Response codes.
const (
	RespOK                 byte = 0
	RespUserNotFound       byte = 1
	RespInvalidToken       byte = 2
	RespInvalidCredentials byte = 3
	RespUserOffline        byte = 4
	RespBadRequest         byte = 5
)

// TokenSize is the length in bytes of a session token on the wire.
const TokenSize = 4

// KeepAliveProbe is the payload of the multicast liveness probe datagram.
const KeepAliveProbe byte = '?'

// ReadToken reads exactly TokenSize bytes from r.
func ReadToken(r io.Reader) ([TokenSize]byte, error) {
	var token [TokenSize]byte
	_, err := io.ReadFull(r, token[:])
	return token, err
}

// ReadString reads the trailing payload (up to EOF) as a UTF-8 string.
func ReadString(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadCredentials reads the trailing payload and splits it into username and
// password at the first '\n'. ok is false when the separator is missing.
func ReadCredentials(r io.Reader) (username, password string, ok bool, err error) {
	s, err := ReadString(r)
	if err != nil {
		return "", "", false, err
	}
	parts := strings.SplitN(s, "\n", 2)
	if len(parts) != 2 {
		return "", "", false, nil
	}
	return parts[0], parts[1], true, nil
}

// EncodePort encodes a TCP port as two little-endian bytes.
func EncodePort(port int) [2]byte {
	return [2]byte{byte(port), byte(port >> 8)}
}

// DecodePort decodes a little-endian 2-byte port.
func DecodePort(b [2]byte) int {
	return int(b[0]) | int(b[1])<<8
}

// JoinLines joins the given fields with '\n', the list separator used in
// protocol responses.
func JoinLines(fields []string) string {
	return strings.Join(fields, "\n")
}

// SplitLines splits a '\n'-joined response payload. An empty payload yields
// no fields.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
