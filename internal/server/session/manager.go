package session

import (
	"errors"
	"sync"
	"time"

	"github.com/simplesocial/simplesocial/internal/common"
)

// DefaultMaxDuration is the default maximum session lifetime.
const DefaultMaxDuration = 24 * time.Hour

// Manager owns every active session. One reader-writer lock guards the whole
// session map; a single one-shot timer, always targeting the oldest session,
// enforces the maximum lifetime regardless of session count.
type Manager struct {
	mu          sync.RWMutex
	maxDuration time.Duration
	byUser      map[string]*Session
	byToken     map[Token]*Session
	oldest      *Session
	evictTimer  *time.Timer
	evictGen    uint64
}

// NewManager creates a Manager evicting sessions older than maxDuration.
func NewManager(maxDuration time.Duration) (*Manager, error) {
	if maxDuration <= 0 {
		return nil, errors.New("session: maxDuration must be positive")
	}
	return &Manager{
		maxDuration: maxDuration,
		byUser:      make(map[string]*Session),
		byToken:     make(map[Token]*Session),
	}, nil
}

// Login starts a session for the user or refreshes an existing one. At most
// one live session exists per user: logging in again returns the same token
// and only updates the last-action time.
func (m *Manager) Login(username string) (Token, error) {
	if username == "" {
		return Token{}, errors.New("session: empty username")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.byUser[username]; ok {
		s.LastAction = time.Now()
		return s.Token, nil
	}

	now := time.Now()
	s := &Session{
		Username:   username,
		Token:      m.newTokenLocked(),
		CreatedAt:  now,
		LastAction: now,
	}
	m.byUser[username] = s
	m.byToken[s.Token] = s
	if len(m.byUser) == 1 {
		m.rearmLocked()
	}
	return s.Token, nil
}

// Logout removes the user's session. No-op when the user has none.
func (m *Manager) Logout(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byUser[username]
	if !ok {
		return
	}
	m.removeLocked(s)
	if s == m.oldest {
		m.rearmLocked()
	}
}

// LogoutToken removes the session identified by token. No-op when the token
// matches no session.
func (m *Manager) LogoutToken(token Token) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byToken[token]
	if !ok {
		return
	}
	m.removeLocked(s)
	if s == m.oldest {
		m.rearmLocked()
	}
}

// Get returns a copy of the session identified by token.
func (m *Manager) Get(token Token) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byToken[token]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// GetByUser returns a copy of the user's session.
func (m *Manager) GetByUser(username string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byUser[username]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Touch refreshes the session's last-action time. Returns
// common.ErrInvalidToken when the token matches no session.
func (m *Manager) Touch(token Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byToken[token]
	if !ok {
		return common.ErrInvalidToken
	}
	s.LastAction = time.Now()
	return nil
}

// SetAddr records the last-known network address for the user's session.
func (m *Manager) SetAddr(username, addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.byUser[username]; ok {
		s.Addr = addr
	}
}

// ActiveUsers returns the users whose last action falls within the window.
func (m *Manager) ActiveUsers(window time.Duration) map[string]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	out := make(map[string]struct{})
	for name, s := range m.byUser {
		if now.Sub(s.LastAction) < window {
			out[name] = struct{}{}
		}
	}
	return out
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.byUser)
}

// Close cancels the eviction timer. Sessions themselves are not persisted.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.evictTimer != nil {
		m.evictTimer.Stop()
		m.evictTimer = nil
	}
	m.evictGen++
	m.oldest = nil
}

func (m *Manager) removeLocked(s *Session) {
	delete(m.byUser, s.Username)
	delete(m.byToken, s.Token)
}

// newTokenLocked draws random tokens until one does not collide with an
// active session. Tokens only need to be unique among live sessions.
func (m *Manager) newTokenLocked() Token {
	for {
		var t Token
		copy(t[:], common.GenerateRandByteArray(TokenLength))
		if _, taken := m.byToken[t]; !taken {
			return t
		}
	}
}

// rearmLocked cancels any pending timer and arms a fresh one for the oldest
// session. Sessions already past the maximum lifetime are evicted on the
// spot and the scan repeats, so at most one timer is ever outstanding.
func (m *Manager) rearmLocked() {
	if m.evictTimer != nil {
		m.evictTimer.Stop()
		m.evictTimer = nil
	}
	m.evictGen++

	for {
		m.oldest = nil
		for _, s := range m.byUser {
			if m.oldest == nil || s.CreatedAt.Before(m.oldest.CreatedAt) {
				m.oldest = s
			}
		}
		if m.oldest == nil {
			return
		}

		remaining := m.maxDuration - time.Since(m.oldest.CreatedAt)
		if remaining > 0 {
			gen := m.evictGen
			m.evictTimer = time.AfterFunc(remaining, func() { m.onEvictTimer(gen) })
			return
		}
		m.removeLocked(m.oldest)
	}
}

func (m *Manager) onEvictTimer(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A login or logout re-armed the timer after this fire was scheduled.
	if gen != m.evictGen {
		return
	}
	if m.oldest != nil {
		m.removeLocked(m.oldest)
	}
	m.rearmLocked()
}
