// Package nodes is a small geometry node graph: typed sockets, nodes that
// compute meshes and fields, links between named sockets, and an eager
// evaluator that runs a graph in dependency order.
package nodes

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// InOut is the direction of an interface socket.
type InOut int

const (
	Input InOut = iota
	Output
)

func (io InOut) String() string {
	if io == Output {
		return "OUTPUT"
	}
	return "INPUT"
}

// Panel groups interface sockets for display.
type Panel struct {
	Name string
}

// InterfaceSocket is an input or output of a whole graph.
type InterfaceSocket struct {
	Name    string
	InOut   InOut
	Kind    Kind
	Default Value
	// Min and Max bound numeric inputs.
	Min, Max             float64
	Description          string
	DefaultAttributeName string
	AttributeDomain      Domain
	Panel                *Panel
}

// clamp converts v to the socket kind and bounds numeric values.
func (s *InterfaceSocket) clamp(v Value) Value {
	if v == nil {
		v = s.Default
	}
	v = Convert(v, s.Kind)
	if IsField(v) {
		return v
	}
	switch s.Kind {
	case KindFloat:
		return Float(math.Max(s.Min, math.Min(s.Max, AsFloat(v))))
	case KindInt:
		return Int(math.Max(s.Min, math.Min(s.Max, float64(AsInt(v)))))
	}
	return v
}

// SocketDecl declares a node socket.
type SocketDecl struct {
	Name       string
	Kind       Kind
	Default    Value
	MultiInput bool
}

// Socket is an input or output of a node.
type Socket struct {
	Name       string
	Kind       Kind
	Default    Value
	MultiInput bool

	node   *Node
	index  int
	output bool
}

// Node returns the node owning the socket.
func (s *Socket) Node() *Node { return s.node }

// IsOutput reports whether s is an output socket.
func (s *Socket) IsOutput() bool { return s.output }

func (s *Socket) String() string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v.%v", s.node.Name, s.Name)
}

// Args are the values arriving at a node's inputs, one slice per input
// socket. Multi-input sockets may receive several values.
type Args [][]Value

// Value returns the first value of input i.
func (a Args) Value(i int) Value {
	if len(a[i]) == 0 {
		return nil
	}
	return a[i][0]
}

func (a Args) Float(i int) float64                  { return AsFloat(a.Value(i)) }
func (a Args) Int(i int) int                        { return AsInt(a.Value(i)) }
func (a Args) Bool(i int) bool                      { return AsBool(a.Value(i)) }
func (a Args) Vector(i int) mgl64.Vec3              { return AsVector(a.Value(i)) }
func (a Args) Geometry(i int) *Geometry             { return AsGeometry(a.Value(i)) }
func (a Args) Multi(i int) []Value                  { return a[i] }
func (a Args) FieldAt(i int, fc FieldContext) Value { return At(a.Value(i), fc) }

// Op is the computation performed by a node.
type Op interface {
	// Type identifies the kind of node, e.g. "FillCurve".
	Type() string
	// DisplayName is the default node name, e.g. "Fill Curve".
	DisplayName() string
	Sockets() (inputs, outputs []SocketDecl)
	Exec(ctx context.Context, n *Node, args Args) ([]Value, error)
}

// Node is an instance of an Op placed in a graph.
type Node struct {
	Name     string
	Label    string
	Location mgl64.Vec2
	Width    float64
	Height   float64
	Inputs   []*Socket
	Outputs  []*Socket
	Op       Op

	graph *Graph
	index int
}

// Input returns the first input socket with the given name, or nil.
func (n *Node) Input(name string) *Socket {
	for _, s := range n.Inputs {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Output returns the first output socket with the given name, or nil.
func (n *Node) Output(name string) *Socket {
	for _, s := range n.Outputs {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func (n *Node) addSockets(decls []SocketDecl, output bool) {
	for _, d := range decls {
		s := &Socket{
			Name:       d.Name,
			Kind:       d.Kind,
			Default:    d.Default,
			MultiInput: d.MultiInput,
			node:       n,
			output:     output,
		}
		if output {
			s.index = len(n.Outputs)
			n.Outputs = append(n.Outputs, s)
		} else {
			s.index = len(n.Inputs)
			n.Inputs = append(n.Inputs, s)
		}
	}
}

// Link connects an output socket to an input socket.
type Link struct {
	From  *Socket
	To    *Socket
	Valid bool
}

func (l *Link) String() string {
	return fmt.Sprintf("%v -> %v", l.From, l.To)
}

// Graph is a named node tree with an interface of inputs and outputs.
type Graph struct {
	Name                  string
	Description           string
	ColorTag              string
	DefaultGroupNodeWidth float64
	IsModifier            bool

	Interface []*InterfaceSocket
	Panels    []*Panel
	Nodes     []*Node
	Links     []*Link
}

// New returns an empty graph.
func New(name string) *Graph {
	return &Graph{Name: name, ColorTag: "NONE", DefaultGroupNodeWidth: 140}
}

// NewPanel adds an interface panel.
func (g *Graph) NewPanel(name string) *Panel {
	p := &Panel{Name: name}
	g.Panels = append(g.Panels, p)
	return p
}

// NewSocket adds an interface socket. panel may be nil.
// Group input and output nodes already in the graph gain the new socket.
func (g *Graph) NewSocket(name string, io InOut, kind Kind, panel *Panel) *InterfaceSocket {
	s := &InterfaceSocket{
		Name:            name,
		InOut:           io,
		Kind:            kind,
		Default:         Convert(nil, kind),
		Min:             -math.MaxFloat32,
		Max:             math.MaxFloat32,
		AttributeDomain: DomainPoint,
		Panel:           panel,
	}
	if kind == KindInt {
		s.Min, s.Max = math.MinInt32, math.MaxInt32
	}
	if kind == KindGeometry {
		s.Default = nil
	}
	g.Interface = append(g.Interface, s)

	decl := []SocketDecl{s.decl()}
	for _, n := range g.Nodes {
		switch n.Op.(type) {
		case *GroupInput:
			if io == Input {
				n.addSockets(decl, true)
			}
		case *GroupOutput:
			if io == Output {
				n.addSockets(decl, false)
			}
		}
	}
	return s
}

func (s *InterfaceSocket) decl() SocketDecl {
	return SocketDecl{Name: s.Name, Kind: s.Kind, Default: s.Default}
}

// Inputs returns the interface inputs in order.
func (g *Graph) Inputs() []*InterfaceSocket { return g.sockets(Input) }

// Outputs returns the interface outputs in order.
func (g *Graph) Outputs() []*InterfaceSocket { return g.sockets(Output) }

func (g *Graph) sockets(io InOut) []*InterfaceSocket {
	var out []*InterfaceSocket
	for _, s := range g.Interface {
		if s.InOut == io {
			out = append(out, s)
		}
	}
	return out
}

// graphBinder is implemented by ops whose sockets depend on the graph.
type graphBinder interface {
	bind(g *Graph)
}

// AddNode places a new node running op. The node is named after the op,
// with a numeric suffix when the name is taken ("Math", "Math.001").
func (g *Graph) AddNode(op Op) *Node {
	if b, ok := op.(graphBinder); ok {
		b.bind(g)
	}
	n := &Node{
		Name:   g.uniqueName(op.DisplayName()),
		Width:  140,
		Height: 100,
		Op:     op,
		graph:  g,
		index:  len(g.Nodes),
	}
	in, out := op.Sockets()
	n.addSockets(in, false)
	n.addSockets(out, true)
	g.Nodes = append(g.Nodes, n)
	return n
}

func (g *Graph) uniqueName(base string) string {
	name := base
	for i := 1; g.Node(name) != nil; i++ {
		name = fmt.Sprintf("%v.%03d", base, i)
	}
	return name
}

// Node returns the node with the given name, or nil.
func (g *Graph) Node(name string) *Node {
	for _, n := range g.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Link connects from (an output) to to (an input). Linking an input that
// is not multi-input replaces its existing link. Links between sockets of
// incompatible kinds, or that do not run from an output to an input of
// this graph, are kept but marked invalid and make Evaluate fail.
func (g *Graph) Link(from, to *Socket) *Link {
	l := &Link{From: from, To: to}
	l.Valid = from != nil && to != nil &&
		from.output && !to.output &&
		from.node.graph == g && to.node.graph == g &&
		from.node != to.node &&
		convertible(from.Kind, to.Kind)

	if to != nil && !to.MultiInput {
		links := g.Links[:0]
		for _, old := range g.Links {
			if old.To != to {
				links = append(links, old)
			}
		}
		g.Links = links
	}
	g.Links = append(g.Links, l)
	return l
}

// LinksTo returns the links arriving at s in creation order.
func (g *Graph) LinksTo(s *Socket) []*Link {
	var out []*Link
	for _, l := range g.Links {
		if l.To == s {
			out = append(out, l)
		}
	}
	return out
}

// Library is a registry of named graphs shared by everything that uses
// them. It is safe for concurrent use.
type Library struct {
	mu     sync.Mutex
	graphs map[string]*Graph
	names  []string
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{graphs: map[string]*Graph{}}
}

// Get returns the named graph.
func (l *Library) Get(name string) (*Graph, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	g, ok := l.graphs[name]
	return g, ok
}

// GetOrCreate returns the named graph, calling build to create and register
// it on first use. Later calls return the same graph.
func (l *Library) GetOrCreate(name string, build func(name string) *Graph) *Graph {
	l.mu.Lock()
	defer l.mu.Unlock()
	if g, ok := l.graphs[name]; ok {
		return g
	}
	g := build(name)
	l.graphs[name] = g
	l.names = append(l.names, name)
	return g
}

// Remove drops the named graph from the library.
func (l *Library) Remove(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.graphs[name]; !ok {
		return
	}
	delete(l.graphs, name)
	for i, n := range l.names {
		if n == name {
			l.names = append(l.names[:i], l.names[i+1:]...)
			break
		}
	}
}

// Names returns the registered graph names in registration order.
func (l *Library) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}
