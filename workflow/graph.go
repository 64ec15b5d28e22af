// Package workflow runs a directed graph of steps over a shared state and
// yields the state after every step.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"nutrisense"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// End is the pseudo-node a router returns to finish the run.
const End = "__end__"

var (
	ErrNoEntry       = errors.New("workflow: entry node not set")
	ErrUnknownNode   = errors.New("workflow: unknown node")
	ErrDuplicateNode = errors.New("workflow: duplicate node")
	ErrDuplicateEdge = errors.New("workflow: node already has an outgoing edge")
)

// Step performs one unit of work and returns a partial update. A step may
// return a non-nil update together with an error; the update's messages are
// then used as the user-facing failure message.
type Step func(ctx context.Context, state *nutrisense.State) (nutrisense.Update, error)

// Router picks the next node name, or End.
type Router func(state *nutrisense.State) string

type node struct {
	name       string
	step       Step
	failClosed bool
}

type NodeOption func(*node)

// FailClosed makes a failure of the node block and halt the run.
func FailClosed() NodeOption {
	return func(n *node) { n.failClosed = true }
}

type conditional struct {
	router       Router
	destinations map[string]bool
}

// Builder assembles a Graph. Errors are collected and reported by Compile.
type Builder struct {
	entry        string
	order        []string
	nodes        map[string]*node
	edges        map[string]string
	conditionals map[string]conditional
	errs         []error
}

func NewBuilder() *Builder {
	return &Builder{
		nodes:        map[string]*node{},
		edges:        map[string]string{},
		conditionals: map[string]conditional{},
	}
}

func (b *Builder) AddNode(name string, step Step, opts ...NodeOption) *Builder {
	if name == "" || name == End {
		b.errs = append(b.errs, fmt.Errorf("workflow: invalid node name %q", name))
		return b
	}
	if _, ok := b.nodes[name]; ok {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrDuplicateNode, name))
		return b
	}
	n := &node{name: name, step: step}
	for _, opt := range opts {
		opt(n)
	}
	b.nodes[name] = n
	b.order = append(b.order, name)
	return b
}

// AddEdge adds an unconditional transition.
func (b *Builder) AddEdge(from, to string) *Builder {
	if b.hasOutgoing(from) {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrDuplicateEdge, from))
		return b
	}
	b.edges[from] = to
	return b
}

// AddConditionalEdges routes from a node through router. The router may only
// return one of destinations or End.
func (b *Builder) AddConditionalEdges(from string, router Router, destinations ...string) *Builder {
	if b.hasOutgoing(from) {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrDuplicateEdge, from))
		return b
	}
	dest := map[string]bool{End: true}
	for _, d := range destinations {
		dest[d] = true
	}
	b.conditionals[from] = conditional{router: router, destinations: dest}
	return b
}

func (b *Builder) SetEntry(name string) *Builder {
	b.entry = name
	return b
}

func (b *Builder) hasOutgoing(from string) bool {
	_, e := b.edges[from]
	_, c := b.conditionals[from]
	return e || c
}

// Compile validates the graph and returns a runnable Graph.
func (b *Builder) Compile(opts ...Option) (*Graph, error) {
	errs := append([]error(nil), b.errs...)

	if b.entry == "" {
		errs = append(errs, ErrNoEntry)
	} else if _, ok := b.nodes[b.entry]; !ok {
		errs = append(errs, fmt.Errorf("%w: entry %s", ErrUnknownNode, b.entry))
	}

	known := func(name string) bool {
		_, ok := b.nodes[name]
		return ok || name == End
	}
	for from, to := range b.edges {
		if !known(from) || !known(to) {
			errs = append(errs, fmt.Errorf("%w: edge %s -> %s", ErrUnknownNode, from, to))
		}
	}
	for from, c := range b.conditionals {
		if !known(from) {
			errs = append(errs, fmt.Errorf("%w: router from %s", ErrUnknownNode, from))
		}
		for d := range c.destinations {
			if !known(d) {
				errs = append(errs, fmt.Errorf("%w: router %s -> %s", ErrUnknownNode, from, d))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	g := &Graph{
		entry:        b.entry,
		order:        b.order,
		nodes:        b.nodes,
		edges:        b.edges,
		conditionals: b.conditionals,
		logger:       nutrisense.NewNoOpRunLogger(),
		checkpointer: noopCheckpointer{},
		tracer:       otel.Tracer(nutrisense.TracerNameWorkflow),
		meter:        otel.Meter(nutrisense.TracerNameWorkflow),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.instruments = newInstruments(g.meter)
	return g, nil
}

// Option configures a compiled Graph.
type Option func(*Graph)

func WithRunLogger(l nutrisense.RunLogger) Option {
	return func(g *Graph) { g.logger = l }
}

func WithCheckpointer(c Checkpointer) Option {
	return func(g *Graph) { g.checkpointer = c }
}

func WithTracer(t trace.Tracer) Option {
	return func(g *Graph) { g.tracer = t }
}

func WithMeter(m metric.Meter) Option {
	return func(g *Graph) { g.meter = m }
}

// Nodes returns node names in insertion order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.order)
}
