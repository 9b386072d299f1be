package nodes

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// JoinGeometry merges every geometry linked to its multi-input, in link order.
type JoinGeometry struct{}

func (op *JoinGeometry) Type() string        { return "JoinGeometry" }
func (op *JoinGeometry) DisplayName() string { return "Join Geometry" }

func (op *JoinGeometry) Sockets() (inputs, outputs []SocketDecl) {
	return []SocketDecl{{Name: "Geometry", Kind: KindGeometry, MultiInput: true}},
		[]SocketDecl{{Name: "Geometry", Kind: KindGeometry}}
}

func (op *JoinGeometry) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	out := &Geometry{}
	for _, v := range args.Multi(0) {
		out.Join(AsGeometry(v))
	}
	return []Value{out}, nil
}

// Switch passes True when Switch is set and False otherwise.
type Switch struct {
	Kind Kind
}

func (op *Switch) Type() string        { return "Switch" }
func (op *Switch) DisplayName() string { return "Switch" }

func (op *Switch) Sockets() (inputs, outputs []SocketDecl) {
	zero := Convert(nil, op.Kind)
	if op.Kind == KindGeometry {
		zero = nil
	}
	return []SocketDecl{
			{Name: "Switch", Kind: KindBool, Default: Bool(false)},
			{Name: "False", Kind: op.Kind, Default: zero},
			{Name: "True", Kind: op.Kind, Default: zero},
		},
		[]SocketDecl{{Name: "Output", Kind: op.Kind}}
}

func (op *Switch) Properties() map[string]interface{} {
	return map[string]interface{}{"input_type": op.Kind.String()}
}

func (op *Switch) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	if op.Kind == KindGeometry {
		// Geometry cannot vary per element, so the switch is a single value.
		if args.Bool(0) {
			return []Value{args.Geometry(2)}, nil
		}
		return []Value{args.Geometry(1)}, nil
	}
	out := lift(op.Kind, []Value{args.Value(0), args.Value(1), args.Value(2)}, func(v []Value) Value {
		if AsBool(v[0]) {
			return Convert(v[2], op.Kind)
		}
		return Convert(v[1], op.Kind)
	})
	return []Value{out}, nil
}

// GeometryToInstance wraps each linked geometry into its own instance.
type GeometryToInstance struct{}

func (op *GeometryToInstance) Type() string        { return "GeometryToInstance" }
func (op *GeometryToInstance) DisplayName() string { return "Geometry to Instance" }

func (op *GeometryToInstance) Sockets() (inputs, outputs []SocketDecl) {
	return []SocketDecl{{Name: "Geometry", Kind: KindGeometry, MultiInput: true}},
		[]SocketDecl{{Name: "Instances", Kind: KindGeometry}}
}

func (op *GeometryToInstance) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	out := &Geometry{}
	for _, v := range args.Multi(0) {
		g := AsGeometry(v)
		if g.IsEmpty() {
			continue
		}
		out.Instances = append(out.Instances, Instance{Geometry: g, Transform: mgl64.Ident4()})
	}
	return []Value{out}, nil
}

// InstanceOnPoints places a copy of Instance on every selected point of
// Points. Rotation is an XYZ Euler angle in radians. Rotation, Scale and
// Selection are evaluated per point.
type InstanceOnPoints struct{}

func (op *InstanceOnPoints) Type() string        { return "InstanceOnPoints" }
func (op *InstanceOnPoints) DisplayName() string { return "Instance on Points" }

func (op *InstanceOnPoints) Sockets() (inputs, outputs []SocketDecl) {
	return []SocketDecl{
			{Name: "Points", Kind: KindGeometry},
			{Name: "Selection", Kind: KindBool, Default: Bool(true)},
			{Name: "Instance", Kind: KindGeometry},
			{Name: "Rotation", Kind: KindVector, Default: Vector{}},
			{Name: "Scale", Kind: KindVector, Default: Vector{1, 1, 1}},
		},
		[]SocketDecl{{Name: "Instances", Kind: KindGeometry}}
}

func (op *InstanceOnPoints) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	points := args.Geometry(0)
	inst := args.Geometry(2)
	out := &Geometry{}
	if points.Mesh == nil || inst.IsEmpty() {
		return []Value{out}, nil
	}
	m := points.Mesh
	for i, p := range m.Verts {
		fc := FieldContext{Mesh: m, Domain: DomainPoint, Index: i}
		if !AsBool(args.FieldAt(1, fc)) {
			continue
		}
		rot := AsVector(args.FieldAt(3, fc))
		scale := AsVector(args.FieldAt(4, fc))
		out.Instances = append(out.Instances, Instance{
			Geometry:  inst,
			Transform: instanceTransform(p, rot, scale),
		})
	}
	return []Value{out}, nil
}

// instanceTransform composes translation, XYZ Euler rotation and scale.
func instanceTransform(pos, rot, scale mgl64.Vec3) mgl64.Mat4 {
	r := mgl64.HomogRotate3DZ(rot[2]).Mul4(mgl64.HomogRotate3DY(rot[1])).Mul4(mgl64.HomogRotate3DX(rot[0]))
	return mgl64.Translate3D(pos[0], pos[1], pos[2]).Mul4(r).Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))
}

// RealizeInstances converts all instances into real geometry.
type RealizeInstances struct{}

func (op *RealizeInstances) Type() string        { return "RealizeInstances" }
func (op *RealizeInstances) DisplayName() string { return "Realize Instances" }

func (op *RealizeInstances) Sockets() (inputs, outputs []SocketDecl) {
	return []SocketDecl{{Name: "Geometry", Kind: KindGeometry}},
		[]SocketDecl{{Name: "Geometry", Kind: KindGeometry}}
}

func (op *RealizeInstances) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	return []Value{args.Geometry(0).Realize()}, nil
}

// Group runs another graph as a single node. Its sockets mirror the
// graph's interface at the time the node is added.
type Group struct {
	Tree *Graph
}

func (op *Group) Type() string        { return "Group" }
func (op *Group) DisplayName() string { return "Group" }

func (op *Group) Sockets() (inputs, outputs []SocketDecl) {
	if op.Tree == nil {
		return nil, nil
	}
	for _, s := range op.Tree.Inputs() {
		inputs = append(inputs, s.decl())
	}
	for _, s := range op.Tree.Outputs() {
		outputs = append(outputs, s.decl())
	}
	return inputs, outputs
}

func (op *Group) Properties() map[string]interface{} {
	if op.Tree == nil {
		return map[string]interface{}{"node_tree": ""}
	}
	return map[string]interface{}{"node_tree": op.Tree.Name}
}

func (op *Group) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	if op.Tree == nil {
		return make([]Value, len(n.Outputs)), nil
	}
	in := map[string]Value{}
	for i, s := range n.Inputs {
		if _, ok := in[s.Name]; !ok {
			in[s.Name] = args.Value(i)
		}
	}
	out, err := op.Tree.Evaluate(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("group %q: %w", op.Tree.Name, err)
	}
	if len(out) != len(n.Outputs) {
		return nil, fmt.Errorf("group %q changed its interface: %v outputs, node has %v", op.Tree.Name, len(out), len(n.Outputs))
	}
	return out, nil
}
