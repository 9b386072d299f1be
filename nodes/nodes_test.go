package nodes

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"

	"github.com/gmlewis/extrude-curve/curve"
)

func square() *curve.Curve {
	return curve.New(curve.NewPoly(true,
		mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 1, 0}, mgl64.Vec3{0, 1, 0}))
}

// passThrough returns a graph with a Geometry input and output and the two
// group nodes.
func passThrough(name string) (*Graph, *Node, *Node) {
	g := New(name)
	in := g.AddNode(&GroupInput{})
	out := g.AddNode(&GroupOutput{IsActiveOutput: true})
	g.NewSocket("Geometry", Output, KindGeometry, nil)
	g.NewSocket("Geometry", Input, KindGeometry, nil)
	return g, in, out
}

func TestUniqueNames(t *testing.T) {
	g := New("t")
	var got []string
	for i := 0; i < 3; i++ {
		got = append(got, g.AddNode(&Math{Operation: MathAdd}).Name)
	}
	got = append(got, g.AddNode(&FlipFaces{}).Name)
	want := []string{"Math", "Math.001", "Math.002", "Flip Faces"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%v", diff)
	}
}

func TestLinkReplacesSingleInput(t *testing.T) {
	g := New("t")
	a := g.AddNode(&Math{Operation: MathAdd})
	b := g.AddNode(&Math{Operation: MathAdd})
	c := g.AddNode(&Math{Operation: MathAdd})
	g.Link(a.Outputs[0], c.Inputs[0])
	g.Link(b.Outputs[0], c.Inputs[0])
	links := g.LinksTo(c.Inputs[0])
	if len(links) != 1 || links[0].From.Node() != b {
		t.Errorf("LinksTo = %v, want single link from %v", links, b.Name)
	}

	j := g.AddNode(&JoinGeometry{})
	f1 := g.AddNode(&FlipFaces{})
	f2 := g.AddNode(&FlipFaces{})
	g.Link(f1.Output("Mesh"), j.Input("Geometry"))
	g.Link(f2.Output("Mesh"), j.Input("Geometry"))
	if got := len(g.LinksTo(j.Input("Geometry"))); got != 2 {
		t.Errorf("multi-input links = %v, want 2", got)
	}
}

func TestInvalidLinkFailsEvaluation(t *testing.T) {
	g, _, out := passThrough("t")
	m := g.AddNode(&Math{Operation: MathAdd})
	l := g.Link(m.Outputs[0], out.Input("Geometry"))
	if l.Valid {
		t.Fatal("float to geometry link marked valid")
	}
	if _, err := g.Evaluate(context.Background(), nil); err == nil {
		t.Error("Evaluate succeeded with an invalid link")
	}
}

func TestCycle(t *testing.T) {
	g := New("t")
	a := g.AddNode(&Math{Operation: MathAdd})
	b := g.AddNode(&Math{Operation: MathAdd})
	g.Link(a.Outputs[0], b.Inputs[0])
	g.Link(b.Outputs[0], a.Inputs[0])
	if err := g.Validate(); !errors.Is(err, ErrCycle) {
		t.Errorf("Validate = %v, want ErrCycle", err)
	}
}

func TestEvaluateClampsInputs(t *testing.T) {
	g := New("t")
	in := g.AddNode(&GroupInput{})
	out := g.AddNode(&GroupOutput{})
	s := g.NewSocket("Segments", Input, KindInt, nil)
	s.Default, s.Min, s.Max = Int(1), 1, 1000
	g.NewSocket("Value", Output, KindInt, nil)
	g.Link(in.Output("Segments"), out.Input("Value"))

	tests := []struct {
		name string
		in   Value
		want Value
	}{
		{name: "default", in: nil, want: Int(1)},
		{name: "in range", in: Int(7), want: Int(7)},
		{name: "below", in: Int(-3), want: Int(1)},
		{name: "above", in: Int(5000), want: Int(1000)},
		{name: "float truncates", in: Float(2.9), want: Int(2)},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %v", i, tt.name), func(t *testing.T) {
			got, err := g.Evaluate(context.Background(), map[string]Value{"Segments": tt.in})
			if err != nil {
				t.Fatal(err)
			}
			if got[0] != tt.want {
				t.Errorf("Evaluate = %v, want %v", got[0], tt.want)
			}
		})
	}
}

func TestMath(t *testing.T) {
	tests := []struct {
		op    MathOperation
		clamp bool
		a, b  float64
		want  float64
	}{
		{op: MathAdd, a: 2, b: 1, want: 3},
		{op: MathSubtract, a: 2, b: 5, want: -3},
		{op: MathMultiply, a: 2, b: 5, want: 10},
		{op: MathDivide, a: 3, b: 2, want: 1.5},
		{op: MathDivide, a: 3, b: 0, want: 0},
		{op: MathMinimum, a: 3, b: 2, want: 2},
		{op: MathMaximum, a: 3, b: 2, want: 3},
		{op: MathModulo, a: 7, b: 0, want: 0},
		{op: MathAdd, clamp: true, a: 2, b: 1, want: 1},
		{op: MathLessThan, a: -1, b: 0, want: 1},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %v", i, tt.op), func(t *testing.T) {
			n := &Node{}
			got, err := (&Math{Operation: tt.op, UseClamp: tt.clamp}).Exec(context.Background(), n,
				Args{{Float(tt.a)}, {Float(tt.b)}, {Float(0)}})
			if err != nil {
				t.Fatal(err)
			}
			if got[0] != Float(tt.want) {
				t.Errorf("Math = %v, want %v", got[0], tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		kind Kind
		op   CompareOperation
		a, b Value
		want bool
	}{
		{kind: KindInt, op: CompareLessThan, a: Int(2), b: Int(3), want: true},
		{kind: KindInt, op: CompareLessThan, a: Int(3), b: Int(3), want: false},
		{kind: KindFloat, op: CompareLessThan, a: Float(-0.5), b: Float(0), want: true},
		{kind: KindFloat, op: CompareLessThan, a: Float(0), b: Float(0), want: false},
		{kind: KindFloat, op: CompareEqual, a: Float(1), b: Float(1.0005), want: true},
		{kind: KindInt, op: CompareEqual, a: Float(1.9), b: Int(1), want: true},
		{kind: KindFloat, op: CompareGreaterEqual, a: Float(1), b: Float(1), want: true},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %v", i, tt.op), func(t *testing.T) {
			got, err := (&Compare{DataType: tt.kind, Operation: tt.op}).Exec(context.Background(), &Node{},
				Args{{tt.a}, {tt.b}, {Float(0.001)}})
			if err != nil {
				t.Fatal(err)
			}
			if got[0] != Bool(tt.want) {
				t.Errorf("Compare(%v, %v) = %v, want %v", tt.a, tt.b, got[0], tt.want)
			}
		})
	}
}

func TestMeshLine(t *testing.T) {
	tests := []struct {
		name   string
		op     *MeshLine
		count  int
		offset Vector
		want   []mgl64.Vec3
	}{
		{
			name:   "end points",
			op:     &MeshLine{CountMode: CountTotal, Mode: LineEndPoints},
			count:  3,
			offset: Vector{0, 0, 2},
			want:   []mgl64.Vec3{{0, 0, 0}, {0, 0, 1}, {0, 0, 2}},
		},
		{
			name:   "offset",
			op:     &MeshLine{CountMode: CountTotal, Mode: LineOffset},
			count:  3,
			offset: Vector{0, 0, 2},
			want:   []mgl64.Vec3{{0, 0, 0}, {0, 0, 2}, {0, 0, 4}},
		},
		{
			name:   "single end point",
			op:     &MeshLine{CountMode: CountTotal, Mode: LineEndPoints},
			count:  1,
			offset: Vector{0, 0, 2},
			want:   []mgl64.Vec3{{0, 0, 0}},
		},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %v", i, tt.name), func(t *testing.T) {
			got, err := tt.op.Exec(context.Background(), &Node{},
				Args{{Int(tt.count)}, {Float(1)}, {Vector{}}, {tt.offset}})
			if err != nil {
				t.Fatal(err)
			}
			m := AsGeometry(got[0]).Mesh
			if diff := cmp.Diff(tt.want, m.Verts); diff != "" {
				t.Errorf("verts mismatch (-want +got):\n%v", diff)
			}
			if len(m.LooseEdges) != len(tt.want)-1 {
				t.Errorf("loose edges = %v, want %v", len(m.LooseEdges), len(tt.want)-1)
			}
		})
	}
}

func TestFillCurveFacesUp(t *testing.T) {
	ccw := square()
	cw := curve.New(curve.NewPoly(true,
		mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 1, 0}, mgl64.Vec3{1, 0, 0}))
	open := curve.New(curve.NewPoly(false,
		mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 1, 0}))

	tests := []struct {
		name  string
		c     *curve.Curve
		mode  FillMode
		faces int
	}{
		{name: "ccw", c: ccw, mode: FillNGons, faces: 1},
		{name: "cw", c: cw, mode: FillNGons, faces: 1},
		{name: "triangles", c: cw, mode: FillTriangles, faces: 2},
		{name: "open", c: open, mode: FillNGons, faces: 0},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %v", i, tt.name), func(t *testing.T) {
			got, err := (&FillCurve{Mode: tt.mode}).Exec(context.Background(), &Node{}, Args{{CurveGeometry(tt.c)}})
			if err != nil {
				t.Fatal(err)
			}
			m := AsGeometry(got[0]).Mesh
			if m.NumFaces() != tt.faces {
				t.Fatalf("faces = %v, want %v", m.NumFaces(), tt.faces)
			}
			for f := range m.Faces {
				if n := m.FaceNormal(f); n[2] < 0.99 {
					t.Errorf("face %v normal = %v, want +Z", f, n)
				}
			}
		})
	}
}

func TestExtrudeMesh(t *testing.T) {
	fill, err := (&FillCurve{Mode: FillNGons}).Exec(context.Background(), &Node{}, Args{{CurveGeometry(square())}})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		individual bool
		scale      float64
		topZ       float64
	}{
		{name: "region", individual: false, scale: 2, topZ: 2},
		{name: "individual", individual: true, scale: 2, topZ: 2},
		{name: "negative", individual: false, scale: -1, topZ: -1},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %v", i, tt.name), func(t *testing.T) {
			n := &Node{Name: "Extrude Mesh"}
			got, err := (&ExtrudeMesh{Mode: ExtrudeFaces}).Exec(context.Background(), n,
				Args{fill[:1], {Bool(true)}, {nil}, {Float(tt.scale)}, {Bool(tt.individual)}})
			if err != nil {
				t.Fatal(err)
			}
			m := AsGeometry(got[0]).Mesh
			if m.NumVerts() != 8 || m.NumFaces() != 5 {
				t.Fatalf("got %v verts %v faces, want 8 and 5", m.NumVerts(), m.NumFaces())
			}
			var tops, sides int
			for f := range m.Faces {
				fc := FieldContext{Mesh: m, Domain: DomainFace, Index: f}
				top, side := AsBool(At(got[1], fc)), AsBool(At(got[2], fc))
				if top == side {
					t.Errorf("face %v: top=%v side=%v", f, top, side)
				}
				if top {
					tops++
					if c := m.FaceCenter(f); math.Abs(c[2]-tt.topZ) > 1e-9 {
						t.Errorf("top face z = %v, want %v", c[2], tt.topZ)
					}
				} else {
					sides++
				}
			}
			if tops != 1 || sides != 4 {
				t.Errorf("tops=%v sides=%v, want 1 and 4", tops, sides)
			}
			if AsGeometry(fill[0]).Mesh.NumFaces() != 1 {
				t.Error("input mesh was modified")
			}
		})
	}
}

func TestInstanceOnPointsRealize(t *testing.T) {
	ctx := context.Background()
	line, err := (&MeshLine{CountMode: CountTotal, Mode: LineEndPoints}).Exec(ctx, &Node{},
		Args{{Int(3)}, {Float(1)}, {Vector{}}, {Vector{0, 0, 2}}})
	if err != nil {
		t.Fatal(err)
	}
	fill, err := (&FillCurve{}).Exec(ctx, &Node{}, Args{{CurveGeometry(square())}})
	if err != nil {
		t.Fatal(err)
	}
	inst, err := (&GeometryToInstance{}).Exec(ctx, &Node{}, Args{fill})
	if err != nil {
		t.Fatal(err)
	}
	idx, _ := (&Index{}).Exec(ctx, &Node{}, nil)
	sel, err := (&Compare{DataType: KindInt, Operation: CompareLessThan}).Exec(ctx, &Node{},
		Args{idx, {Int(2)}, {Float(0)}})
	if err != nil {
		t.Fatal(err)
	}
	pts, err := (&InstanceOnPoints{}).Exec(ctx, &Node{},
		Args{line, sel, inst, {Vector{}}, {Vector{1, 1, 1}}})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(AsGeometry(pts[0]).Instances); got != 2 {
		t.Fatalf("instances = %v, want 2", got)
	}
	realized, err := (&RealizeInstances{}).Exec(ctx, &Node{}, Args{pts})
	if err != nil {
		t.Fatal(err)
	}
	m := AsGeometry(realized[0]).Mesh
	var zs []float64
	for f := range m.Faces {
		zs = append(zs, m.FaceCenter(f)[2])
	}
	if diff := cmp.Diff([]float64{0, 1}, zs); diff != "" {
		t.Errorf("face heights mismatch (-want +got):\n%v", diff)
	}
}

func TestInstanceTransform(t *testing.T) {
	m := instanceTransform(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{0, 0, math.Pi / 2}, mgl64.Vec3{2, 2, 2})
	got := m.Mul4x1(mgl64.Vec4{1, 0, 0, 1}).Vec3()
	want := mgl64.Vec3{1, 4, 3}
	if !got.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("transform = %v, want %v", got, want)
	}
}

func TestSwitch(t *testing.T) {
	a, b := MeshGeometry(nil), CurveGeometry(square())
	op := &Switch{Kind: KindGeometry}
	for _, on := range []bool{false, true} {
		got, err := op.Exec(context.Background(), &Node{}, Args{{Bool(on)}, {a}, {b}})
		if err != nil {
			t.Fatal(err)
		}
		want := a
		if on {
			want = b
		}
		if got[0] != Value(want) {
			t.Errorf("Switch(%v) picked the wrong input", on)
		}
	}

	idx, _ := (&Index{}).Exec(context.Background(), &Node{}, nil)
	got, err := (&Switch{Kind: KindFloat}).Exec(context.Background(), &Node{}, Args{idx, {Float(1)}, {Float(2)}})
	if err != nil {
		t.Fatal(err)
	}
	if !IsField(got[0]) {
		t.Fatal("Switch with a field condition returned a single value")
	}
	if v := At(got[0], FieldContext{Index: 0}); v != Float(1) {
		t.Errorf("Switch at 0 = %v, want 1", v)
	}
	if v := At(got[0], FieldContext{Index: 3}); v != Float(2) {
		t.Errorf("Switch at 3 = %v, want 2", v)
	}
}

func TestNestedGroupStripsInternalAttributes(t *testing.T) {
	inner, in, out := passThrough("inner")
	fill := inner.AddNode(&FillCurve{})
	ext := inner.AddNode(&ExtrudeMesh{})
	inner.Link(in.Output("Geometry"), fill.Input("Curve"))
	inner.Link(fill.Output("Mesh"), ext.Input("Mesh"))
	inner.Link(ext.Output("Mesh"), out.Input("Geometry"))

	outer, oin, oout := passThrough("outer")
	grp := outer.AddNode(&Group{Tree: inner})
	outer.Link(oin.Output("Geometry"), grp.Input("Geometry"))
	outer.Link(grp.Output("Geometry"), oout.Input("Geometry"))

	got, err := outer.Evaluate(context.Background(), map[string]Value{"Geometry": CurveGeometry(square())})
	if err != nil {
		t.Fatal(err)
	}
	m := AsGeometry(got[0]).Mesh
	if m.NumFaces() != 5 {
		t.Errorf("faces = %v, want 5", m.NumFaces())
	}
	if names := m.FaceAttrNames(); len(names) != 0 {
		t.Errorf("attributes leaked: %v", names)
	}
}

func TestDescribe(t *testing.T) {
	g, in, out := passThrough("d")
	f := g.AddNode(&FlipFaces{})
	f.Location = mgl64.Vec2{10, 20}
	g.Link(in.Output("Geometry"), f.Input("Mesh"))
	g.Link(f.Output("Mesh"), out.Input("Geometry"))

	d := Describe(g)
	links := d["links"].([]interface{})
	want := []interface{}{
		map[string]interface{}{"from": "Group Input.Geometry", "to": "Flip Faces.Mesh", "valid": true},
		map[string]interface{}{"from": "Flip Faces.Mesh", "to": "Group Output.Geometry", "valid": true},
	}
	if diff := cmp.Diff(want, links); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%v", diff)
	}
	nodes := d["nodes"].([]interface{})
	flip := nodes[2].(map[string]interface{})
	if diff := cmp.Diff([]interface{}{10.0, 20.0}, flip["location"]); diff != "" {
		t.Errorf("location mismatch (-want +got):\n%v", diff)
	}
}
