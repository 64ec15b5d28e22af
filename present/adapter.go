package present

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"time"

	"nutrisense"
	"nutrisense/workflow"

	"github.com/google/uuid"
)

// Sessions tracks the identifiers of runs in flight. It holds no state
// beyond the identifier and its start time.
type Sessions struct {
	mu     sync.Mutex
	active map[string]time.Time
}

func NewSessions() *Sessions {
	return &Sessions{active: map[string]time.Time{}}
}

// Start registers and returns a fresh session identifier.
func (s *Sessions) Start() string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[id] = time.Now()
	return id
}

func (s *Sessions) End(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}

// Active returns the identifiers of running sessions, sorted.
func (s *Sessions) Active() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Runner runs a workflow over a state. *workflow.Graph implements it.
type Runner interface {
	Run(ctx context.Context, state *nutrisense.State) iter.Seq[workflow.Snapshot]
}

type checkpointStore interface {
	Delete(sessionID string)
}

// Transcript is everything one request produced.
type Transcript struct {
	SessionID string           `json:"session_id"`
	Query     string           `json:"query"`
	Steps     []string         `json:"steps"`
	Messages  []string         `json:"messages"`
	Final     nutrisense.State `json:"final"`
}

type Adapter struct {
	runner      Runner
	poster      nutrisense.ChatPoster
	channel     string
	sessions    *Sessions
	checkpoints checkpointStore
}

type AdapterOption func(*Adapter)

// WithCheckpoints discards a session's checkpoints when its run ends.
func WithCheckpoints(c checkpointStore) AdapterOption {
	return func(a *Adapter) { a.checkpoints = c }
}

func WithSessions(s *Sessions) AdapterOption {
	return func(a *Adapter) { a.sessions = s }
}

func NewAdapter(runner Runner, poster nutrisense.ChatPoster, channel string, opts ...AdapterOption) *Adapter {
	a := &Adapter{runner: runner, poster: poster, channel: channel, sessions: NewSessions()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handle runs query through the workflow and posts each new section as it
// appears. Reading stops at the first terminal snapshot.
func (a *Adapter) Handle(ctx context.Context, query string) (*Transcript, error) {
	id := a.sessions.Start()
	defer a.sessions.End(id)
	if a.checkpoints != nil {
		defer a.checkpoints.Delete(id)
	}

	slog.Info("PRESENTER: Handling request", "session_id", id, "query_len", len(query))

	t := &Transcript{SessionID: id, Query: query}
	p := NewPresenter()
	state := nutrisense.NewState(id, query)

	post := func(msgs []string) error {
		for _, m := range msgs {
			if err := a.poster.PostMessage(ctx, a.channel, m); err != nil {
				return fmt.Errorf("post message: %w", err)
			}
			t.Messages = append(t.Messages, m)
		}
		return nil
	}

	for snap := range a.runner.Run(ctx, state) {
		t.Steps = append(t.Steps, snap.Step)
		t.Final = snap.State
		if err := post(p.Present(snap.State)); err != nil {
			return t, err
		}
		if snap.State.Terminal() {
			break
		}
	}

	if err := post(p.Finish(t.Final)); err != nil {
		return t, err
	}
	if err := ctx.Err(); err != nil {
		return t, err
	}

	slog.Info("PRESENTER: Request finished", "session_id", id, "steps", len(t.Steps), "messages", len(t.Messages))
	return t, nil
}

// WriterPoster prints messages to w, for terminals and logs.
type WriterPoster struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterPoster(w io.Writer) *WriterPoster {
	return &WriterPoster{w: w}
}

func (p *WriterPoster) PostMessage(_ context.Context, _ string, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.w, "%s\n\n", message)
	return err
}
