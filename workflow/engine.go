package workflow

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"nutrisense"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Graph is a compiled, immutable workflow. It is safe to run concurrently
// with distinct states.
type Graph struct {
	entry        string
	order        []string
	nodes        map[string]*node
	edges        map[string]string
	conditionals map[string]conditional

	logger       nutrisense.RunLogger
	checkpointer Checkpointer
	tracer       trace.Tracer
	meter        metric.Meter
	instruments  instruments
}

// Snapshot is the state after one executed step.
type Snapshot struct {
	Sequence int
	Step     string
	Next     string
	State    nutrisense.State
}

// StepError wraps a failure with the step that produced it.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("step %s: %v", e.Step, e.Err) }

func (e *StepError) Unwrap() error { return e.Err }

type instruments struct {
	runs         metric.Int64Counter
	runsBlocked  metric.Int64Counter
	steps        metric.Int64Counter
	stepFailures metric.Int64Counter
	stepDuration metric.Float64Histogram
}

func newInstruments(m metric.Meter) instruments {
	var in instruments
	in.runs, _ = m.Int64Counter("workflow_runs_total",
		metric.WithDescription("Total number of workflow runs started"))
	in.runsBlocked, _ = m.Int64Counter("workflow_runs_blocked_total",
		metric.WithDescription("Total number of workflow runs halted by a block"))
	in.steps, _ = m.Int64Counter("workflow_steps_total",
		metric.WithDescription("Total number of executed workflow steps"))
	in.stepFailures, _ = m.Int64Counter("workflow_step_failures_total",
		metric.WithDescription("Total number of workflow steps that failed"))
	in.stepDuration, _ = m.Float64Histogram("workflow_step_duration_seconds",
		metric.WithDescription("Duration of individual workflow steps in seconds"))
	return in
}

// Run executes the graph over state and yields a snapshot after every step.
// Each node runs at most once. The run ends when a router returns End, a node
// has no outgoing edge, the state is blocked, ctx is done, or the consumer
// stops iterating.
func (g *Graph) Run(ctx context.Context, state *nutrisense.State) iter.Seq[Snapshot] {
	return func(yield func(Snapshot) bool) {
		ctx, span := g.tracer.Start(ctx, "Workflow.Run",
			trace.WithAttributes(attribute.String("session.id", state.SessionID)))
		defer span.End()

		g.instruments.runs.Add(ctx, 1)
		slog.Info("WORKFLOW: Starting run", "session_id", state.SessionID, "entry", g.entry)

		visited := make(map[string]bool, len(g.nodes))
		current := g.entry
		for seq := 1; current != End; seq++ {
			if err := ctx.Err(); err != nil {
				slog.Warn("WORKFLOW: Run cancelled", "session_id", state.SessionID, "pending_step", current, "error", err)
				span.RecordError(err)
				span.SetStatus(codes.Error, "run cancelled")
				return
			}
			if visited[current] {
				err := fmt.Errorf("workflow: step %s already ran", current)
				slog.Error("WORKFLOW: Refusing to revisit step", "session_id", state.SessionID, "step", current)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return
			}
			visited[current] = true
			n := g.nodes[current]

			start := time.Now()
			update, halt := g.execute(ctx, n, state)
			state.Apply(update)
			if state.Terminal() {
				halt = true
			}

			next := End
			if !halt {
				next = g.next(current, state)
			}
			g.record(ctx, seq, n.name, time.Since(start), next, update, state)

			if !yield(Snapshot{Sequence: seq, Step: current, Next: next, State: state.Snapshot()}) {
				slog.Info("WORKFLOW: Consumer stopped reading", "session_id", state.SessionID, "step", current)
				return
			}

			if halt {
				g.instruments.runsBlocked.Add(ctx, 1)
				span.SetAttributes(attribute.String("workflow.blocked", state.Blocked))
				slog.Info("WORKFLOW: Run blocked", "session_id", state.SessionID, "step", current, "reason", state.Blocked)
				return
			}
			current = next
		}

		span.SetStatus(codes.Ok, "")
		slog.Info("WORKFLOW: Run finished", "session_id", state.SessionID)
	}
}

// execute runs one node and converts failures into an update. halt reports a
// failure of a fail-closed node.
func (g *Graph) execute(ctx context.Context, n *node, state *nutrisense.State) (nutrisense.Update, bool) {
	ctx, span := g.tracer.Start(ctx, "Workflow.Step", trace.WithAttributes(attribute.String("workflow.step", n.name)))
	defer span.End()

	slog.Info("STEP: Starting", "session_id", state.SessionID, "step", n.name)

	update, err := invoke(ctx, n, state)
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return update, false
	}

	stepErr := &StepError{Step: n.name, Err: err}
	span.RecordError(stepErr)
	span.SetStatus(codes.Error, err.Error())
	g.instruments.stepFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("step", n.name)))
	slog.Error("STEP: Failed", "session_id", state.SessionID, "step", n.name, "error", err, "fail_closed", n.failClosed)

	return failureUpdate(n, update, stepErr), n.failClosed
}

func invoke(ctx context.Context, n *node, state *nutrisense.State) (u nutrisense.Update, err error) {
	defer func() {
		if r := recover(); r != nil {
			u, err = nutrisense.Update{}, fmt.Errorf("panic: %v", r)
		}
	}()
	return n.step(ctx, state)
}

// failureUpdate keeps the step's own messages when it supplied any, and
// otherwise adds one tagged with the step name.
func failureUpdate(n *node, u nutrisense.Update, err *StepError) nutrisense.Update {
	if len(u.Messages) == 0 {
		u.Messages = []nutrisense.Message{
			nutrisense.AssistantMessage(n.name, fmt.Sprintf("⚠️ Error in %s: %v", n.name, err.Err)),
		}
	}
	u.Error = err.Error()
	if n.failClosed && u.Blocked == "" {
		u.Blocked = "Processing error: " + err.Err.Error()
	}
	return u
}

func (g *Graph) next(from string, state *nutrisense.State) string {
	if to, ok := g.edges[from]; ok {
		return to
	}
	c, ok := g.conditionals[from]
	if !ok {
		return End
	}
	to := c.router(state)
	if !c.destinations[to] {
		slog.Error("WORKFLOW: Router returned undeclared destination", "from", from, "to", to)
		return End
	}
	return to
}

func (g *Graph) record(ctx context.Context, seq int, step string, elapsed time.Duration, next string, u nutrisense.Update, state *nutrisense.State) {
	outcome := "ok"
	if u.Error != "" {
		outcome = "error"
	}
	attrs := metric.WithAttributes(attribute.String("step", step), attribute.String("outcome", outcome))
	g.instruments.steps.Add(ctx, 1, attrs)
	g.instruments.stepDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("step", step)))

	now := time.Now()
	if err := g.logger.LogStep(nutrisense.StepLog{
		SessionID:  state.SessionID,
		Sequence:   seq,
		Step:       step,
		Timestamp:  now,
		DurationMS: elapsed.Milliseconds(),
		Next:       next,
		Messages:   u.Messages,
		Blocked:    u.Blocked,
		Error:      u.Error,
	}); err != nil {
		slog.Warn("WORKFLOW: Failed to log step", "step", step, "error", err)
	}

	if err := g.checkpointer.Save(ctx, Checkpoint{
		SessionID: state.SessionID,
		Sequence:  seq,
		Step:      step,
		Next:      next,
		State:     state.Snapshot(),
		Timestamp: now,
	}); err != nil {
		slog.Warn("WORKFLOW: Failed to save checkpoint", "step", step, "error", err)
	}

	slog.Info("STEP: Finished", "session_id", state.SessionID, "step", step, "outcome", outcome, "next", next, "duration_ms", elapsed.Milliseconds())
}
