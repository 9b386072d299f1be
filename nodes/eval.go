package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/gmlewis/extrude-curve/nodes"

// ErrCycle is returned when a graph's links form a cycle.
var ErrCycle = errors.New("node graph contains a cycle")

// GroupInput exposes the graph's interface inputs as outputs.
type GroupInput struct {
	g *Graph
}

func (op *GroupInput) bind(g *Graph)       { op.g = g }
func (op *GroupInput) Type() string        { return "GroupInput" }
func (op *GroupInput) DisplayName() string { return "Group Input" }

func (op *GroupInput) Sockets() (inputs, outputs []SocketDecl) {
	for _, s := range op.g.Inputs() {
		outputs = append(outputs, s.decl())
	}
	return nil, outputs
}

// Exec is never called: the evaluator supplies the group inputs.
func (op *GroupInput) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	return nil, errors.New("group input evaluated outside of its graph")
}

// GroupOutput receives the graph's interface outputs. When a graph holds
// several group output nodes, the active one wins.
type GroupOutput struct {
	IsActiveOutput bool

	g *Graph
}

func (op *GroupOutput) bind(g *Graph)       { op.g = g }
func (op *GroupOutput) Type() string        { return "GroupOutput" }
func (op *GroupOutput) DisplayName() string { return "Group Output" }

func (op *GroupOutput) Sockets() (inputs, outputs []SocketDecl) {
	for _, s := range op.g.Outputs() {
		inputs = append(inputs, s.decl())
	}
	return inputs, nil
}

// Exec is never called: the evaluator collects the group outputs.
func (op *GroupOutput) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	return nil, nil
}

// Validate reports invalid links and cycles.
func (g *Graph) Validate() error {
	var bad []string
	for _, l := range g.Links {
		if !l.Valid {
			bad = append(bad, l.String())
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("graph %q has invalid links: %v", g.Name, strings.Join(bad, ", "))
	}
	_, err := g.order()
	return err
}

// order returns the nodes sorted so that every node comes after the nodes
// feeding it. Ties keep creation order.
func (g *Graph) order() ([]*Node, error) {
	deps := make(map[*Node][]*Node, len(g.Nodes))
	for _, l := range g.Links {
		deps[l.To.node] = append(deps[l.To.node], l.From.node)
	}
	done := make(map[*Node]bool, len(g.Nodes))
	out := make([]*Node, 0, len(g.Nodes))
	for len(out) < len(g.Nodes) {
		progress := false
		for _, n := range g.Nodes {
			if done[n] {
				continue
			}
			ready := true
			for _, d := range deps[n] {
				if !done[d] {
					ready = false
					break
				}
			}
			if !ready {
				continue
			}
			done[n] = true
			out = append(out, n)
			progress = true
		}
		if !progress {
			return nil, fmt.Errorf("graph %q: %w", g.Name, ErrCycle)
		}
	}
	return out, nil
}

// Evaluate runs the graph. inputs maps interface input names to values;
// missing inputs take their defaults and numeric inputs are clamped to
// their bounds. The returned values follow the order of the interface
// outputs. Evaluation is pure: input geometry is never modified.
func (g *Graph) Evaluate(ctx context.Context, inputs map[string]Value) ([]Value, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "nodes.Evaluate",
		trace.WithAttributes(
			attribute.String("graph.name", g.Name),
			attribute.Int("graph.nodes", len(g.Nodes)),
		))
	defer span.End()

	if err := g.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	order, _ := g.order()

	var groupIn []Value
	for _, s := range g.Inputs() {
		groupIn = append(groupIn, s.clamp(inputs[s.Name]))
	}

	linksTo := map[*Socket][]*Link{}
	for _, l := range g.Links {
		linksTo[l.To] = append(linksTo[l.To], l)
	}

	results := make(map[*Node][]Value, len(g.Nodes))
	var outNode *Node
	var outArgs Args
	for _, n := range order {
		args := make(Args, len(n.Inputs))
		for i, s := range n.Inputs {
			links := linksTo[s]
			if len(links) == 0 {
				if !s.MultiInput {
					args[i] = []Value{s.Default}
				}
				continue
			}
			for _, l := range links {
				args[i] = append(args[i], results[l.From.node][l.From.index])
			}
		}

		switch op := n.Op.(type) {
		case *GroupInput:
			results[n] = groupIn
		case *GroupOutput:
			if outNode == nil || (op.IsActiveOutput && !outNode.Op.(*GroupOutput).IsActiveOutput) {
				outNode, outArgs = n, args
			}
		default:
			vals, err := g.exec(ctx, n, args)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			results[n] = vals
		}
	}

	var out []Value
	for i, s := range g.Outputs() {
		var v Value
		if outNode != nil && i < len(outArgs) {
			v = outArgs.Value(i)
		}
		out = append(out, finalize(s, v))
	}
	return out, nil
}

func (g *Graph) exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, n.Op.Type(),
		trace.WithAttributes(attribute.String("node.name", n.Name)))
	defer span.End()

	vals, err := n.Op.Exec(ctx, n, args)
	if err != nil {
		err = fmt.Errorf("node %q (%v): %w", n.Name, n.Op.Type(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(vals) != len(n.Outputs) {
		return nil, fmt.Errorf("node %q (%v) returned %v values for %v outputs", n.Name, n.Op.Type(), len(vals), len(n.Outputs))
	}
	return vals, nil
}

// finalize converts an output value to its interface kind. Output
// geometry is copied and stripped of internal attributes.
func finalize(s *InterfaceSocket, v Value) Value {
	if v == nil {
		v = s.Default
	}
	if s.Kind != KindGeometry {
		return Convert(v, s.Kind)
	}
	g := AsGeometry(v).Copy()
	if g.Mesh != nil {
		for _, name := range g.Mesh.FaceAttrNames() {
			if strings.HasPrefix(name, anonymousPrefix) {
				g.Mesh.RemoveFaceAttr(name)
			}
		}
	}
	return g
}

// anonymousPrefix marks attributes that only live inside a graph evaluation.
const anonymousPrefix = "."
