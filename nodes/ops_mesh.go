package nodes

import (
	"context"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gmlewis/extrude-curve/mesh"
)

// FillMode selects how FillCurve fills each spline.
type FillMode string

const (
	FillNGons     FillMode = "NGONS"
	FillTriangles FillMode = "TRIANGLES"
)

// FillCurve fills the cyclic splines of the input curve together with the
// even-odd rule, so a spline nested inside another one cuts a hole. Faces
// point toward +Z when the curve is not vertical. Open splines and splines
// with fewer than three points produce nothing.
type FillCurve struct {
	Mode FillMode
}

func (op *FillCurve) Type() string        { return "FillCurve" }
func (op *FillCurve) DisplayName() string { return "Fill Curve" }

func (op *FillCurve) Sockets() (inputs, outputs []SocketDecl) {
	return []SocketDecl{{Name: "Curve", Kind: KindGeometry}},
		[]SocketDecl{{Name: "Mesh", Kind: KindGeometry}}
}

func (op *FillCurve) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	in := args.Geometry(0)
	out := &Geometry{}
	if in.Curve == nil {
		return []Value{out}, nil
	}
	var loops [][]mgl64.Vec3
	for _, s := range in.Curve.Splines {
		if pts := s.Evaluate(); s.Cyclic && len(pts) >= 3 {
			loops = append(loops, pts)
		}
	}
	m, err := mesh.Fill(loops, op.Mode == FillTriangles)
	if err != nil {
		return nil, fmt.Errorf("fill curve: %v", err)
	}
	out.Mesh = m
	return []Value{out}, nil
}

func (op *FillCurve) Properties() map[string]interface{} {
	return map[string]interface{}{"mode": string(op.Mode)}
}

// ExtrudeMode selects the elements ExtrudeMesh extrudes.
type ExtrudeMode string

const ExtrudeFaces ExtrudeMode = "FACES"

// ExtrudeMesh extrudes the selected faces. The extruded faces are moved by
// Offset times Offset Scale; when Offset is not linked they move along
// their normal. New side faces join the moved faces to the rest.
//
// Individual extrudes each face on its own. Otherwise connected selected
// faces move together as one region and only the region boundary gets
// side faces.
//
// The Top and Side outputs are face fields selecting the moved faces and
// the new side faces.
type ExtrudeMesh struct {
	Mode ExtrudeMode
}

func (op *ExtrudeMesh) Type() string        { return "ExtrudeMesh" }
func (op *ExtrudeMesh) DisplayName() string { return "Extrude Mesh" }

func (op *ExtrudeMesh) Sockets() (inputs, outputs []SocketDecl) {
	return []SocketDecl{
			{Name: "Mesh", Kind: KindGeometry},
			{Name: "Selection", Kind: KindBool, Default: Bool(true)},
			{Name: "Offset", Kind: KindVector},
			{Name: "Offset Scale", Kind: KindFloat, Default: Float(1)},
			{Name: "Individual", Kind: KindBool, Default: Bool(true)},
		}, []SocketDecl{
			{Name: "Mesh", Kind: KindGeometry},
			{Name: "Top", Kind: KindBool},
			{Name: "Side", Kind: KindBool},
		}
}

func (op *ExtrudeMesh) Properties() map[string]interface{} {
	return map[string]interface{}{"mode": string(op.Mode)}
}

func (op *ExtrudeMesh) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	if op.Mode != "" && op.Mode != ExtrudeFaces {
		return nil, fmt.Errorf("unsupported extrude mode %q", op.Mode)
	}
	topName := anonymousPrefix + n.Name + ".top"
	sideName := anonymousPrefix + n.Name + ".side"
	top := faceAttrField(topName)
	side := faceAttrField(sideName)

	in := args.Geometry(0)
	out := in.Copy()
	if out.Mesh == nil {
		return []Value{out, top, side}, nil
	}
	src := in.Mesh

	sel := make([]bool, src.NumFaces())
	for i := range sel {
		sel[i] = AsBool(args.FieldAt(1, FieldContext{Mesh: src, Domain: DomainFace, Index: i}))
	}
	offset := args.Value(2)
	scale := args.Float(3)

	ex := &extruder{src: src, m: out.Mesh, sel: sel, offset: offset, scale: scale}
	if args.Bool(4) {
		ex.individual()
	} else {
		ex.region()
	}
	out.Mesh.SetFaceAttr(topName, ex.top)
	out.Mesh.SetFaceAttr(sideName, ex.side)
	out.Mesh.RemoveUnusedVerts()
	return []Value{out, top, side}, nil
}

func faceAttrField(name string) *Field {
	return NewField(KindBool, func(fc FieldContext) Value {
		if fc.Mesh == nil || fc.Domain != DomainFace {
			return Bool(false)
		}
		vals := fc.Mesh.FaceAttr(name)
		return Bool(fc.Index < len(vals) && vals[fc.Index])
	})
}

type extruder struct {
	src    *mesh.Mesh
	m      *mesh.Mesh
	sel    []bool
	offset Value
	scale  float64

	top, side []bool
}

func (ex *extruder) addFace(loop []int, top, side bool) {
	ex.m.AddFace(loop...)
	ex.top = append(ex.top, top)
	ex.side = append(ex.side, side)
}

func (ex *extruder) faceOffset(i int) mgl64.Vec3 {
	if ex.offset == nil {
		return ex.src.FaceNormal(i)
	}
	return AsVector(At(ex.offset, FieldContext{Mesh: ex.src, Domain: DomainFace, Index: i}))
}

func (ex *extruder) individual() {
	nf := ex.m.NumFaces()
	ex.top = make([]bool, nf)
	ex.side = make([]bool, nf)
	for i := 0; i < nf; i++ {
		if !ex.sel[i] {
			continue
		}
		d := ex.faceOffset(i).Mul(ex.scale)
		f := ex.m.Faces[i]
		moved := make([]int, len(f))
		for j, v := range f {
			moved[j] = ex.m.AddVert(ex.m.Verts[v].Add(d))
		}
		for j := range f {
			k := (j + 1) % len(f)
			ex.addFace([]int{f[j], f[k], moved[k], moved[j]}, false, true)
		}
		ex.m.Faces[i] = moved
		ex.top[i] = true
	}
}

func (ex *extruder) region() {
	nf := ex.m.NumFaces()
	ex.top = make([]bool, nf)
	ex.side = make([]bool, nf)

	// Count how many selected faces use each edge.
	uses := map[[2]int]int{}
	key := func(a, b int) [2]int {
		if a > b {
			a, b = b, a
		}
		return [2]int{a, b}
	}
	for i, f := range ex.m.Faces[:nf] {
		if !ex.sel[i] {
			continue
		}
		for j, v := range f {
			uses[key(v, f[(j+1)%len(f)])]++
		}
	}

	// Vertex offsets average the offsets of the selected faces around them.
	sum := map[int]mgl64.Vec3{}
	var order []int
	for i, f := range ex.m.Faces[:nf] {
		if !ex.sel[i] {
			continue
		}
		var d mgl64.Vec3
		if ex.offset == nil {
			d = ex.src.FaceNormal(i)
		}
		for _, v := range f {
			if _, ok := sum[v]; !ok {
				order = append(order, v)
			}
			sum[v] = sum[v].Add(d)
		}
	}
	moved := map[int]int{}
	for _, v := range order {
		var d mgl64.Vec3
		if ex.offset == nil {
			if l := sum[v].Len(); l > 0 {
				d = sum[v].Mul(1 / l)
			}
		} else {
			d = AsVector(At(ex.offset, FieldContext{Mesh: ex.src, Domain: DomainPoint, Index: v}))
		}
		moved[v] = ex.m.AddVert(ex.m.Verts[v].Add(d.Mul(ex.scale)))
	}

	for i := 0; i < nf; i++ {
		if !ex.sel[i] {
			continue
		}
		f := ex.m.Faces[i]
		for j, a := range f {
			b := f[(j+1)%len(f)]
			if uses[key(a, b)] != 1 {
				continue
			}
			ex.addFace([]int{a, b, moved[b], moved[a]}, false, true)
		}
		loop := make([]int, len(f))
		for j, v := range f {
			loop[j] = moved[v]
		}
		ex.m.Faces[i] = loop
		ex.top[i] = true
	}
}

// DeleteDomain is the element type DeleteGeometry removes.
type DeleteDomain string

const (
	DeletePoint DeleteDomain = "POINT"
	DeleteFace  DeleteDomain = "FACE"
)

// DeleteMode controls what else is removed with deleted faces.
type DeleteMode string

const (
	// DeleteAll also removes the vertices left unused.
	DeleteAll DeleteMode = "ALL"
	// DeleteOnlyFace keeps the vertices.
	DeleteOnlyFace DeleteMode = "ONLY_FACE"
)

// DeleteGeometry removes the selected elements of the mesh.
type DeleteGeometry struct {
	Domain DeleteDomain
	Mode   DeleteMode
}

func (op *DeleteGeometry) Type() string        { return "DeleteGeometry" }
func (op *DeleteGeometry) DisplayName() string { return "Delete Geometry" }

func (op *DeleteGeometry) Sockets() (inputs, outputs []SocketDecl) {
	return []SocketDecl{
			{Name: "Geometry", Kind: KindGeometry},
			{Name: "Selection", Kind: KindBool, Default: Bool(true)},
		},
		[]SocketDecl{{Name: "Geometry", Kind: KindGeometry}}
}

func (op *DeleteGeometry) Properties() map[string]interface{} {
	return map[string]interface{}{"domain": string(op.Domain), "mode": string(op.Mode)}
}

func (op *DeleteGeometry) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	in := args.Geometry(0)
	out := in.Copy()
	if out.Mesh == nil {
		return []Value{out}, nil
	}
	switch op.Domain {
	case DeleteFace, "":
		sel := evalSelection(args, 1, in.Mesh, DomainFace, in.Mesh.NumFaces())
		out.Mesh.DeleteFaces(func(i int) bool { return sel[i] }, op.Mode == DeleteOnlyFace)
	case DeletePoint:
		sel := evalSelection(args, 1, in.Mesh, DomainPoint, in.Mesh.NumVerts())
		out.Mesh.DeleteVerts(func(i int) bool { return sel[i] })
	default:
		return nil, fmt.Errorf("unsupported delete domain %q", op.Domain)
	}
	return []Value{out}, nil
}

func evalSelection(args Args, i int, m *mesh.Mesh, d Domain, n int) []bool {
	sel := make([]bool, n)
	for j := range sel {
		sel[j] = AsBool(args.FieldAt(i, FieldContext{Mesh: m, Domain: d, Index: j}))
	}
	return sel
}

// MergeByDistance welds selected vertices closer than Distance.
type MergeByDistance struct {
	// Mode is always "ALL": every selected vertex may merge with any other.
	Mode string
}

func (op *MergeByDistance) Type() string        { return "MergeByDistance" }
func (op *MergeByDistance) DisplayName() string { return "Merge by Distance" }

func (op *MergeByDistance) Sockets() (inputs, outputs []SocketDecl) {
	return []SocketDecl{
			{Name: "Geometry", Kind: KindGeometry},
			{Name: "Selection", Kind: KindBool, Default: Bool(true)},
			{Name: "Distance", Kind: KindFloat, Default: Float(0.001)},
		},
		[]SocketDecl{{Name: "Geometry", Kind: KindGeometry}}
}

func (op *MergeByDistance) Properties() map[string]interface{} {
	return map[string]interface{}{"mode": "ALL"}
}

func (op *MergeByDistance) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	in := args.Geometry(0)
	out := in.Copy()
	if out.Mesh == nil {
		return []Value{out}, nil
	}
	sel := evalSelection(args, 1, in.Mesh, DomainPoint, in.Mesh.NumVerts())
	out.Mesh.MergeByDistance(math.Max(0, args.Float(2)), func(i int) bool { return sel[i] })
	return []Value{out}, nil
}

// FlipFaces reverses the winding of the selected faces.
type FlipFaces struct{}

func (op *FlipFaces) Type() string        { return "FlipFaces" }
func (op *FlipFaces) DisplayName() string { return "Flip Faces" }

func (op *FlipFaces) Sockets() (inputs, outputs []SocketDecl) {
	return []SocketDecl{
			{Name: "Mesh", Kind: KindGeometry},
			{Name: "Selection", Kind: KindBool, Default: Bool(true)},
		},
		[]SocketDecl{{Name: "Mesh", Kind: KindGeometry}}
}

func (op *FlipFaces) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	in := args.Geometry(0)
	out := in.Copy()
	if out.Mesh == nil {
		return []Value{out}, nil
	}
	sel := evalSelection(args, 1, in.Mesh, DomainFace, in.Mesh.NumFaces())
	out.Mesh.FlipFaces(func(i int) bool { return sel[i] })
	return []Value{out}, nil
}

// LineCountMode selects how MeshLine determines its number of points.
type LineCountMode string

const (
	CountTotal      LineCountMode = "TOTAL"
	CountResolution LineCountMode = "RESOLUTION"
)

// LineMode selects the meaning of MeshLine's Offset input.
type LineMode string

const (
	// LineOffset places point i at Start + i*Offset.
	LineOffset LineMode = "OFFSET"
	// LineEndPoints spreads the points evenly from Start to Offset.
	LineEndPoints LineMode = "END_POINTS"
)

// MeshLine generates a chain of points connected by loose edges.
type MeshLine struct {
	CountMode LineCountMode
	Mode      LineMode
}

func (op *MeshLine) Type() string        { return "MeshLine" }
func (op *MeshLine) DisplayName() string { return "Mesh Line" }

func (op *MeshLine) Sockets() (inputs, outputs []SocketDecl) {
	return []SocketDecl{
			{Name: "Count", Kind: KindInt, Default: Int(10)},
			{Name: "Resolution", Kind: KindFloat, Default: Float(1)},
			{Name: "Start Location", Kind: KindVector, Default: Vector{}},
			{Name: "Offset", Kind: KindVector, Default: Vector{0, 0, 1}},
		},
		[]SocketDecl{{Name: "Mesh", Kind: KindGeometry}}
}

func (op *MeshLine) Properties() map[string]interface{} {
	return map[string]interface{}{"count_mode": string(op.CountMode), "mode": string(op.Mode)}
}

func (op *MeshLine) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	start := args.Vector(2)
	offset := args.Vector(3)

	count := args.Int(0)
	if op.Mode == LineEndPoints && op.CountMode == CountResolution {
		res := args.Float(1)
		if res <= 0 {
			count = 0
		} else {
			count = int(offset.Sub(start).Len()/res) + 1
		}
	}

	m := mesh.New()
	for i := 0; i < count; i++ {
		var p mgl64.Vec3
		switch {
		case op.Mode != LineEndPoints:
			p = start.Add(offset.Mul(float64(i)))
		case count == 1:
			p = start
		default:
			p = start.Add(offset.Sub(start).Mul(float64(i) / float64(count-1)))
		}
		m.AddVert(p)
		if i > 0 {
			m.LooseEdges = append(m.LooseEdges, [2]int{i - 1, i})
		}
	}
	return []Value{MeshGeometry(m)}, nil
}
