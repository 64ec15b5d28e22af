package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"nutrisense"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder builds steps that note their execution order.
type recorder struct {
	ran []string
}

func (r *recorder) step(name string, u nutrisense.Update, err error) Step {
	return func(ctx context.Context, state *nutrisense.State) (nutrisense.Update, error) {
		r.ran = append(r.ran, name)
		return u, err
	}
}

func collect(g *Graph, state *nutrisense.State) []Snapshot {
	var out []Snapshot
	for snap := range g.Run(context.Background(), state) {
		out = append(out, snap)
	}
	return out
}

func steps(snaps []Snapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.Step
	}
	return out
}

func TestCompile(t *testing.T) {
	noop := func(context.Context, *nutrisense.State) (nutrisense.Update, error) { return nutrisense.Update{}, nil }
	route := func(*nutrisense.State) string { return End }

	tests := []struct {
		name    string
		build   func() *Builder
		wantErr error
	}{
		{
			name: "valid linear graph",
			build: func() *Builder {
				return NewBuilder().AddNode("a", noop).AddNode("b", noop).AddEdge("a", "b").SetEntry("a")
			},
		},
		{
			name:    "missing entry",
			build:   func() *Builder { return NewBuilder().AddNode("a", noop) },
			wantErr: ErrNoEntry,
		},
		{
			name:    "unknown entry",
			build:   func() *Builder { return NewBuilder().AddNode("a", noop).SetEntry("z") },
			wantErr: ErrUnknownNode,
		},
		{
			name: "edge to unknown node",
			build: func() *Builder {
				return NewBuilder().AddNode("a", noop).AddEdge("a", "z").SetEntry("a")
			},
			wantErr: ErrUnknownNode,
		},
		{
			name: "router destination unknown",
			build: func() *Builder {
				return NewBuilder().AddNode("a", noop).AddConditionalEdges("a", route, "z").SetEntry("a")
			},
			wantErr: ErrUnknownNode,
		},
		{
			name: "duplicate node",
			build: func() *Builder {
				return NewBuilder().AddNode("a", noop).AddNode("a", noop).SetEntry("a")
			},
			wantErr: ErrDuplicateNode,
		},
		{
			name: "two outgoing edges",
			build: func() *Builder {
				return NewBuilder().AddNode("a", noop).AddNode("b", noop).
					AddEdge("a", "b").AddConditionalEdges("a", route, "b").SetEntry("a")
			},
			wantErr: ErrDuplicateEdge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := tt.build().Compile()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, g)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, g.Nodes())
		})
	}
}

func TestRun_OrderAndSnapshots(t *testing.T) {
	rec := &recorder{}
	g, err := NewBuilder().
		AddNode("first", rec.step("first", nutrisense.Update{
			Messages: []nutrisense.Message{nutrisense.AssistantMessage("first", "one")},
		}, nil)).
		AddNode("second", rec.step("second", nutrisense.Update{Visualization: "plot.png"}, nil)).
		AddEdge("first", "second").
		SetEntry("first").
		Compile()
	require.NoError(t, err)

	snaps := collect(g, nutrisense.NewState("s1", "hello"))
	require.Len(t, snaps, 2)
	assert.Equal(t, []string{"first", "second"}, rec.ran)
	assert.Equal(t, []string{"first", "second"}, steps(snaps))
	assert.Equal(t, 1, snaps[0].Sequence)
	assert.Equal(t, "second", snaps[0].Next)
	assert.Equal(t, End, snaps[1].Next)

	// Earlier snapshots are not mutated by later steps.
	assert.Len(t, snaps[0].State.Messages, 2)
	assert.Empty(t, snaps[0].State.Visualization)
	assert.Equal(t, "plot.png", snaps[1].State.Visualization)
}

func TestRun_ConditionalRouting(t *testing.T) {
	tests := []struct {
		name string
		pick string
		want []string
	}{
		{name: "route to left", pick: "left", want: []string{"start", "left"}},
		{name: "route to right", pick: "right", want: []string{"start", "right"}},
		{name: "route to end", pick: End, want: []string{"start"}},
		{name: "undeclared destination ends run", pick: "nowhere", want: []string{"start"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			g, err := NewBuilder().
				AddNode("start", rec.step("start", nutrisense.Update{}, nil)).
				AddNode("left", rec.step("left", nutrisense.Update{}, nil)).
				AddNode("right", rec.step("right", nutrisense.Update{}, nil)).
				AddConditionalEdges("start", func(*nutrisense.State) string { return tt.pick }, "left", "right").
				SetEntry("start").
				Compile()
			require.NoError(t, err)

			snaps := collect(g, nutrisense.NewState("s", "q"))
			assert.Equal(t, tt.want, steps(snaps))
			assert.Equal(t, tt.want, rec.ran)
		})
	}
}

func TestRun_AtMostOnce(t *testing.T) {
	rec := &recorder{}
	g, err := NewBuilder().
		AddNode("a", rec.step("a", nutrisense.Update{}, nil)).
		AddNode("b", rec.step("b", nutrisense.Update{}, nil)).
		AddEdge("a", "b").
		AddConditionalEdges("b", func(*nutrisense.State) string { return "a" }, "a").
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	snaps := collect(g, nutrisense.NewState("s", "q"))
	assert.Equal(t, []string{"a", "b"}, rec.ran)
	assert.Len(t, snaps, 2)
}

func TestRun_StepFailureContinues(t *testing.T) {
	rec := &recorder{}
	g, err := NewBuilder().
		AddNode("flaky", rec.step("flaky", nutrisense.Update{}, errors.New("quota exceeded"))).
		AddNode("after", rec.step("after", nutrisense.Update{}, nil)).
		AddEdge("flaky", "after").
		SetEntry("flaky").
		Compile()
	require.NoError(t, err)

	snaps := collect(g, nutrisense.NewState("s", "q"))
	require.Len(t, snaps, 2)
	assert.Equal(t, []string{"flaky", "after"}, rec.ran)

	failed := snaps[0].State
	assert.Equal(t, "step flaky: quota exceeded", failed.Error)
	assert.Empty(t, failed.Blocked)
	last := failed.Messages[len(failed.Messages)-1]
	assert.Equal(t, "flaky", last.Name)
	assert.Equal(t, nutrisense.RoleAssistant, last.Role)
	assert.Contains(t, last.Content, "quota exceeded")
}

func TestRun_StepSuppliedFailureMessage(t *testing.T) {
	rec := &recorder{}
	custom := nutrisense.Update{Messages: []nutrisense.Message{nutrisense.AssistantMessage("gen", "Error generating recipe: boom")}}
	g, err := NewBuilder().
		AddNode("gen", rec.step("gen", custom, errors.New("boom"))).
		SetEntry("gen").
		Compile()
	require.NoError(t, err)

	snaps := collect(g, nutrisense.NewState("s", "q"))
	require.Len(t, snaps, 1)
	msgs := snaps[0].State.Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "Error generating recipe: boom", msgs[1].Content)
}

func TestRun_FailClosedHalts(t *testing.T) {
	rec := &recorder{}
	g, err := NewBuilder().
		AddNode("guard", rec.step("guard", nutrisense.Update{}, errors.New("model unavailable")), FailClosed()).
		AddNode("after", rec.step("after", nutrisense.Update{}, nil)).
		AddEdge("guard", "after").
		SetEntry("guard").
		Compile()
	require.NoError(t, err)

	snaps := collect(g, nutrisense.NewState("s", "q"))
	require.Len(t, snaps, 1)
	assert.Equal(t, []string{"guard"}, rec.ran)
	assert.Equal(t, "Processing error: model unavailable", snaps[0].State.Blocked)
	assert.Equal(t, End, snaps[0].Next)
}

func TestRun_BlockedStateHalts(t *testing.T) {
	rec := &recorder{}
	g, err := NewBuilder().
		AddNode("guard", rec.step("guard", nutrisense.Update{Blocked: "Empty or invalid query"}, nil)).
		AddNode("after", rec.step("after", nutrisense.Update{}, nil)).
		AddEdge("guard", "after").
		SetEntry("guard").
		Compile()
	require.NoError(t, err)

	snaps := collect(g, nutrisense.NewState("s", ""))
	assert.Equal(t, []string{"guard"}, steps(snaps))
}

func TestRun_PanicBecomesFailure(t *testing.T) {
	g, err := NewBuilder().
		AddNode("boom", func(context.Context, *nutrisense.State) (nutrisense.Update, error) {
			panic("nil map")
		}).
		SetEntry("boom").
		Compile()
	require.NoError(t, err)

	snaps := collect(g, nutrisense.NewState("s", "q"))
	require.Len(t, snaps, 1)
	assert.True(t, strings.Contains(snaps[0].State.Error, "panic: nil map"))
}

func TestRun_ConsumerStopsEarly(t *testing.T) {
	rec := &recorder{}
	g, err := NewBuilder().
		AddNode("a", rec.step("a", nutrisense.Update{}, nil)).
		AddNode("b", rec.step("b", nutrisense.Update{}, nil)).
		AddEdge("a", "b").
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	for range g.Run(context.Background(), nutrisense.NewState("s", "q")) {
		break
	}
	assert.Equal(t, []string{"a"}, rec.ran)
}

func TestRun_CancelledContext(t *testing.T) {
	rec := &recorder{}
	g, err := NewBuilder().
		AddNode("a", rec.step("a", nutrisense.Update{}, nil)).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var n int
	for range g.Run(ctx, nutrisense.NewState("s", "q")) {
		n++
	}
	assert.Zero(t, n)
	assert.Empty(t, rec.ran)
}

type memLogger struct{ logs []nutrisense.StepLog }

func (m *memLogger) LogStep(s nutrisense.StepLog) error {
	m.logs = append(m.logs, s)
	return nil
}

func TestRun_LogsAndCheckpoints(t *testing.T) {
	rec := &recorder{}
	logger := &memLogger{}
	cps := NewMemoryCheckpointer()
	g, err := NewBuilder().
		AddNode("a", rec.step("a", nutrisense.Update{}, nil)).
		AddNode("b", rec.step("b", nutrisense.Update{}, errors.New("bad"))).
		AddEdge("a", "b").
		SetEntry("a").
		Compile(WithRunLogger(logger), WithCheckpointer(cps))
	require.NoError(t, err)

	collect(g, nutrisense.NewState("sess-1", "q"))

	require.Len(t, logger.logs, 2)
	assert.Equal(t, "a", logger.logs[0].Step)
	assert.Equal(t, "b", logger.logs[0].Next)
	assert.Equal(t, "step b: bad", logger.logs[1].Error)

	list := cps.List("sess-1")
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[1].Sequence)
	latest, ok := cps.Latest("sess-1")
	require.True(t, ok)
	assert.Equal(t, "b", latest.Step)
}
