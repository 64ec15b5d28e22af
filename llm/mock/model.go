// Package mock provides a deterministic nutrisense.Model for tests and
// offline demos.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"nutrisense"
)

type reply struct {
	raw json.RawMessage
	err error
}

// Model answers each request from a per-name script. Scripted replies are
// consumed in order and the last one repeats. Requests with no script go to
// the fallback, if any.
type Model struct {
	mu       sync.Mutex
	scripts  map[string][]reply
	fallback func(req nutrisense.ModelRequest) (json.RawMessage, error)
	requests []nutrisense.ModelRequest
}

func New() *Model {
	return &Model{scripts: map[string][]reply{}}
}

// NewDemo answers every request with canned content derived from the
// request text, so the whole workflow runs offline.
func NewDemo() *Model {
	m := New()
	m.fallback = demo
	return m
}

// On queues a reply for requests named name. v may be a string, []byte,
// json.RawMessage or any value that marshals to JSON.
func (m *Model) On(name string, v any) *Model {
	var raw json.RawMessage
	switch t := v.(type) {
	case string:
		raw = json.RawMessage(t)
	case []byte:
		raw = t
	case json.RawMessage:
		raw = t
	default:
		b, err := json.Marshal(v)
		if err != nil {
			panic(fmt.Sprintf("mock: cannot marshal reply for %s: %v", name, err))
		}
		raw = b
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[name] = append(m.scripts[name], reply{raw: raw})
	return m
}

// OnError queues a failure for requests named name.
func (m *Model) OnError(name string, err error) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[name] = append(m.scripts[name], reply{err: err})
	return m
}

func (m *Model) Invoke(ctx context.Context, req nutrisense.ModelRequest) (json.RawMessage, error) {
	slog.Info("LLM_CLIENT: Invoked", "backend", "mock", "request", req.Name, "messages_len", len(req.Messages))

	m.mu.Lock()
	m.requests = append(m.requests, req)
	queue := m.scripts[req.Name]
	var r *reply
	if len(queue) > 0 {
		r = &queue[0]
		if len(queue) > 1 {
			m.scripts[req.Name] = queue[1:]
		}
	}
	fallback := m.fallback
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nutrisense.NewModelError(req.Name, err)
	}

	switch {
	case r != nil:
		return r.raw, r.err
	case fallback != nil:
		return fallback(req)
	default:
		return nil, &nutrisense.ModelError{Model: req.Name, Kind: nutrisense.ModelErrorUnavailable, Err: fmt.Errorf("no scripted reply for %q", req.Name)}
	}
}

// Requests returns every request received, in order.
func (m *Model) Requests() []nutrisense.ModelRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

// Calls counts requests named name.
func (m *Model) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.requests {
		if r.Name == name {
			n++
		}
	}
	return n
}
