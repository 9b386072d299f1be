// Package scene is a minimal host for node groups: objects carrying curve or
// mesh data, modifier stacks that run node groups on them, and the shared
// library those groups live in.
package scene

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/gmlewis/extrude-curve/curve"
	"github.com/gmlewis/extrude-curve/extrude"
	"github.com/gmlewis/extrude-curve/mesh"
	"github.com/gmlewis/extrude-curve/nodes"
)

// ModifierName is the name given to Extrude Curve modifiers.
const ModifierName = "Extrude Curve (ECM)"

// ErrNotCurve is returned when the Extrude Curve modifier is requested for
// something other than a curve object.
var ErrNotCurve = errors.New("please select a curve object")

// ObjectType is the kind of data an object holds.
type ObjectType string

const (
	Curve ObjectType = "CURVE"
	Mesh  ObjectType = "MESH"
	Empty ObjectType = "EMPTY"
)

// Object is a named piece of geometry with a modifier stack.
type Object struct {
	ID        uuid.UUID
	Name      string
	Type      ObjectType
	Curve     *curve.Curve
	Mesh      *mesh.Mesh
	Modifiers []*Modifier
}

// Scene holds objects and the node group library they share.
type Scene struct {
	Library *nodes.Library
	Objects []*Object
	Active  *Object
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{Library: nodes.NewLibrary()}
}

// AddCurve adds a curve object and makes it active.
func (s *Scene) AddCurve(name string, c *curve.Curve) *Object {
	return s.add(&Object{Name: name, Type: Curve, Curve: c})
}

// AddMesh adds a mesh object and makes it active.
func (s *Scene) AddMesh(name string, m *mesh.Mesh) *Object {
	return s.add(&Object{Name: name, Type: Mesh, Mesh: m})
}

// AddEmpty adds an object without data and makes it active.
func (s *Scene) AddEmpty(name string) *Object {
	return s.add(&Object{Name: name, Type: Empty})
}

func (s *Scene) add(obj *Object) *Object {
	obj.ID = uuid.New()
	s.Objects = append(s.Objects, obj)
	s.Active = obj
	return obj
}

// Object returns the object with the given name, or nil.
func (s *Scene) Object(name string) *Object {
	for _, obj := range s.Objects {
		if obj.Name == name {
			return obj
		}
	}
	return nil
}

// AddExtrudeCurveModifier appends an Extrude Curve modifier to obj, which
// must be a curve object. Otherwise ErrNotCurve is returned and nothing
// changes, including the library.
func (s *Scene) AddExtrudeCurveModifier(obj *Object) (*Modifier, error) {
	if obj == nil || obj.Type != Curve {
		return nil, ErrNotCurve
	}
	m := newModifier(ModifierName, extrude.NodeGroup(s.Library))
	obj.Modifiers = append(obj.Modifiers, m)
	return m, nil
}

// AddExtrudeCurveModifierToActive is AddExtrudeCurveModifier on the active
// object.
func (s *Scene) AddExtrudeCurveModifierToActive() (*Modifier, error) {
	return s.AddExtrudeCurveModifier(s.Active)
}

// AddExtrudeCurveNode adds a group node running the shared Extrude Curve
// group to tree at the cursor location.
func (s *Scene) AddExtrudeCurveNode(tree *nodes.Graph, cursor mgl64.Vec2) *nodes.Node {
	n := tree.AddNode(&nodes.Group{Tree: extrude.NodeGroup(s.Library)})
	n.Location = cursor
	return n
}

// Modifier runs a node group on an object's geometry. Its parameters are
// the group's non-geometry inputs.
type Modifier struct {
	Name  string
	Group *nodes.Graph
	Show  bool

	values map[string]nodes.Value
}

func newModifier(name string, g *nodes.Graph) *Modifier {
	m := &Modifier{Name: name, Group: g, Show: true, values: map[string]nodes.Value{}}
	for _, p := range m.Params() {
		m.values[p.Name] = p.Default
	}
	return m
}

// Param describes one modifier parameter.
type Param struct {
	Name        string
	Kind        nodes.Kind
	Default     nodes.Value
	Min, Max    float64
	Description string
	Panel       string
}

// Params lists the parameters in interface order.
func (m *Modifier) Params() []Param {
	var out []Param
	for _, s := range m.Group.Inputs() {
		if s.Kind == nodes.KindGeometry {
			continue
		}
		p := Param{
			Name:        s.Name,
			Kind:        s.Kind,
			Default:     s.Default,
			Min:         s.Min,
			Max:         s.Max,
			Description: s.Description,
		}
		if s.Panel != nil {
			p.Panel = s.Panel.Name
		}
		out = append(out, p)
	}
	return out
}

func (m *Modifier) param(name string) (Param, bool) {
	for _, p := range m.Params() {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Get returns the current value of a parameter.
func (m *Modifier) Get(name string) (nodes.Value, error) {
	if _, ok := m.param(name); !ok {
		return nil, fmt.Errorf("modifier %q has no parameter %q", m.Name, name)
	}
	return m.values[name], nil
}

// Set assigns a parameter, converting it to the parameter's kind and
// clamping numbers to its bounds. The stored value is returned.
func (m *Modifier) Set(name string, v nodes.Value) (nodes.Value, error) {
	p, ok := m.param(name)
	if !ok {
		return nil, fmt.Errorf("modifier %q has no parameter %q", m.Name, name)
	}
	if nodes.IsField(v) {
		return nil, fmt.Errorf("modifier %q: parameter %q needs a single value", m.Name, name)
	}
	v = nodes.Convert(v, p.Kind)
	switch p.Kind {
	case nodes.KindFloat:
		v = nodes.Float(math.Max(p.Min, math.Min(p.Max, nodes.AsFloat(v))))
	case nodes.KindInt:
		v = nodes.Int(math.Max(p.Min, math.Min(p.Max, float64(nodes.AsInt(v)))))
	}
	m.values[name] = v
	return v, nil
}

// SetParams assigns all Extrude Curve parameters.
func (m *Modifier) SetParams(p extrude.Params) error {
	for name, v := range p.Inputs() {
		if _, err := m.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

// Apply runs the modifier on geometry.
func (m *Modifier) Apply(ctx context.Context, in *nodes.Geometry) (*nodes.Geometry, error) {
	args := map[string]nodes.Value{}
	for name, v := range m.values {
		args[name] = v
	}
	var geomIn string
	for _, s := range m.Group.Inputs() {
		if s.Kind == nodes.KindGeometry {
			geomIn = s.Name
			break
		}
	}
	if geomIn != "" {
		args[geomIn] = in
	}
	out, err := m.Group.Evaluate(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("modifier %q: %w", m.Name, err)
	}
	for i, s := range m.Group.Outputs() {
		if s.Kind == nodes.KindGeometry {
			return nodes.AsGeometry(out[i]), nil
		}
	}
	return &nodes.Geometry{}, nil
}

// Evaluate returns the object's geometry after its visible modifiers ran
// in order. The object's own data is never modified.
func (obj *Object) Evaluate(ctx context.Context) (*nodes.Geometry, error) {
	g := &nodes.Geometry{Curve: obj.Curve, Mesh: obj.Mesh}
	for _, m := range obj.Modifiers {
		if !m.Show {
			continue
		}
		out, err := m.Apply(ctx, g)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", obj.Name, err)
		}
		g = out
	}
	return g.Copy(), nil
}
