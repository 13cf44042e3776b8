package review

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/solarch-labs/advisor/internal/domain"
)

// ErrSessionNotFound is returned when a turn references an unknown session.
var ErrSessionNotFound = errors.New("review session not found")

const sweepInterval = 5 * time.Minute

// Manager holds active review sessions in memory, keyed by session ID. Each
// session carries its own mutex so turns for one session are serialized
// while different sessions proceed independently.
type Manager struct {
	engine   *Engine
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	logger   *slog.Logger
}

type sessionEntry struct {
	mu      sync.Mutex
	session *domain.ReviewSession
}

// NewManager creates an empty session manager.
func NewManager(engine *Engine, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		engine:   engine,
		sessions: make(map[string]*sessionEntry),
		logger:   logger,
	}
}

// Start creates and registers a session seeded with one service.
func (m *Manager) Start(initialService string) (*domain.ReviewSession, string, error) {
	session, greeting, err := m.engine.StartSession(initialService)
	if err != nil {
		return nil, "", err
	}

	m.mu.Lock()
	m.sessions[session.ID] = &sessionEntry{session: session}
	m.mu.Unlock()

	m.logger.Info("review session started", "session_id", session.ID, "service", initialService)
	return session, greeting, nil
}

// HandleTurn runs one engine turn under the session's lock. The phase after
// the turn is returned as well so callers never re-read the session outside
// the lock.
func (m *Manager) HandleTurn(ctx context.Context, sessionID, userText string) (string, domain.Phase, error) {
	entry := m.lookup(sessionID)
	if entry == nil {
		return "", "", ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	reply, err := m.engine.HandleTurn(ctx, entry.session, userText)
	if err != nil {
		return "", "", err
	}
	return reply, entry.session.Phase, nil
}

// Summary renders the report for a session; an unknown ID yields the
// no-review placeholder.
func (m *Manager) Summary(sessionID string) SummaryReport {
	entry := m.lookup(sessionID)
	if entry == nil {
		return m.engine.Summary(nil)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return m.engine.Summary(entry.session)
}

// Has reports whether a session is registered.
func (m *Manager) Has(sessionID string) bool {
	return m.lookup(sessionID) != nil
}

// Delete removes a session, releasing its state.
func (m *Manager) Delete(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

func (m *Manager) lookup(sessionID string) *sessionEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[sessionID]
}

// StartTTLWorker runs a background goroutine that periodically sweeps for
// sessions idle longer than ttl and drops them, bounding memory held by
// abandoned interviews.
func (m *Manager) StartTTLWorker(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		m.logger.Info("session TTL worker started", "interval", sweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				m.sweepExpired(ttl)
			case <-ctx.Done():
				m.logger.Info("session TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func (m *Manager) sweepExpired(ttl time.Duration) {
	cutoff := time.Now().UTC().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, entry := range m.sessions {
		// UpdatedAt is written by turns under entry.mu, so the sweep must
		// hold the same lock to read it.
		entry.mu.Lock()
		expired := entry.session.UpdatedAt.Before(cutoff)
		entry.mu.Unlock()
		if expired {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("expired review sessions removed", "count", removed)
	}
}
