package workflow

import (
	"context"
	"slices"
	"sync"
	"time"

	"nutrisense"
)

// Checkpoint is the state saved after a step, grouped by session.
type Checkpoint struct {
	SessionID string
	Sequence  int
	Step      string
	Next      string
	State     nutrisense.State
	Timestamp time.Time
}

type Checkpointer interface {
	Save(ctx context.Context, cp Checkpoint) error
}

type noopCheckpointer struct{}

func (noopCheckpointer) Save(context.Context, Checkpoint) error { return nil }

// MemoryCheckpointer keeps checkpoints in process memory until the session
// is deleted.
type MemoryCheckpointer struct {
	mu       sync.RWMutex
	sessions map[string][]Checkpoint
}

func NewMemoryCheckpointer() *MemoryCheckpointer {
	return &MemoryCheckpointer{sessions: map[string][]Checkpoint{}}
}

func (m *MemoryCheckpointer) Save(_ context.Context, cp Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[cp.SessionID] = append(m.sessions[cp.SessionID], cp)
	return nil
}

// List returns the session's checkpoints in step order.
func (m *MemoryCheckpointer) List(sessionID string) []Checkpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.sessions[sessionID])
}

func (m *MemoryCheckpointer) Latest(sessionID string) (Checkpoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cps := m.sessions[sessionID]
	if len(cps) == 0 {
		return Checkpoint{}, false
	}
	return cps[len(cps)-1], true
}

func (m *MemoryCheckpointer) Delete(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// Sessions returns the number of sessions with stored checkpoints.
func (m *MemoryCheckpointer) Sessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
