// Package session tracks logged-in sessions on the server: when they began,
// when they were last used and whether the user has passed the step-up
// passcode. None of this is a security boundary beyond the signed token; the
// passcode prompt is a speed bump against accidental destructive actions.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknown = errors.New("session not found")
	ErrExpired = errors.New("session expired")
)

type Session struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenantId"`
	Subject      string    `json:"subject"`
	Role         Role      `json:"role"`
	StartedAt    time.Time `json:"startedAt"`
	LastActivity time.Time `json:"lastActivity"`
	StepUp       bool      `json:"stepUp"`
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
	now      func() time.Time
}

func NewManager(idle time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		idle:     idle,
		now:      time.Now,
	}
}

func (m *Manager) IdleTimeout() time.Duration { return m.idle }

func (m *Manager) Start(tenantID, subject string, role Role) Session {
	now := m.now()
	s := &Session{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Subject:      subject,
		Role:         role,
		StartedAt:    now,
		LastActivity: now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return *s
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	return now.Sub(s.LastActivity) > m.idle
}

// Touch records activity on the session. An idle session is ended instead,
// which also drops its step-up flag.
func (m *Manager) Touch(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrUnknown
	}
	now := m.now()
	if m.expired(s, now) {
		delete(m.sessions, id)
		return Session{}, ErrExpired
	}
	s.LastActivity = now
	return *s, nil
}

// GrantStepUp caches a passed passcode check for the rest of the session.
func (m *Manager) GrantStepUp(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return ErrUnknown
	}
	s.StepUp = true
	return nil
}

func (m *Manager) End(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep ends every idle session and returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every minute until done is closed.
func (m *Manager) StartSweeper(done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					slog.Info("idle sessions ended", "count", n)
				}
			case <-done:
				return
			}
		}
	}()
}
