// Package extrude builds the "Extrude Curve" node group, which turns a
// closed profile curve into an extruded mesh shell with optional caps and
// any number of stacked segments.
package extrude

import (
	"context"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gmlewis/extrude-curve/curve"
	"github.com/gmlewis/extrude-curve/mesh"
	"github.com/gmlewis/extrude-curve/nodes"
)

const (
	// GroupName is the name of the node group in a library.
	GroupName = "ECM_ExtrudeCurve"

	// MaxSegments bounds the Segments input.
	MaxSegments = 1000

	// WeldDistance is the distance below which vertices are merged.
	WeldDistance = 0.001
)

// Interface socket names.
const (
	SocketGeometry  = "Geometry"
	SocketHeight    = "Height"
	SocketSegments  = "Segments"
	SocketTopCap    = "Top Cap"
	SocketBottomCap = "Bottom Cap"
)

// Params are the inputs of the node group.
type Params struct {
	Height    float64
	Segments  int
	TopCap    bool
	BottomCap bool
}

// DefaultParams returns the node group defaults.
func DefaultParams() Params {
	return Params{Height: 1, Segments: 1, TopCap: true, BottomCap: true}
}

// Inputs returns p as interface input values.
func (p Params) Inputs() map[string]nodes.Value {
	return map[string]nodes.Value{
		SocketHeight:    nodes.Float(p.Height),
		SocketSegments:  nodes.Int(p.Segments),
		SocketTopCap:    nodes.Bool(p.TopCap),
		SocketBottomCap: nodes.Bool(p.BottomCap),
	}
}

// NodeGroup returns the shared node group from lib, building it on first use.
func NodeGroup(lib *nodes.Library) *nodes.Graph {
	return lib.GetOrCreate(GroupName, build)
}

// Evaluate runs the node group on c and returns the resulting mesh.
// c is not modified.
func Evaluate(ctx context.Context, lib *nodes.Library, c *curve.Curve, p Params) (*mesh.Mesh, error) {
	in := p.Inputs()
	in[SocketGeometry] = nodes.CurveGeometry(c)
	out, err := NodeGroup(lib).Evaluate(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("Evaluate: %v", err)
	}
	g := nodes.AsGeometry(out[0])
	if g.Mesh == nil {
		return mesh.New(), nil
	}
	return g.Mesh, nil
}

func build(name string) *nodes.Graph {
	g := nodes.New(name)
	g.IsModifier = true

	g.NewSocket(SocketGeometry, nodes.Output, nodes.KindGeometry, nil)
	g.NewSocket(SocketGeometry, nodes.Input, nodes.KindGeometry, nil)

	extrusion := g.NewPanel("Extrusion")
	height := g.NewSocket(SocketHeight, nodes.Input, nodes.KindFloat, extrusion)
	height.Default = nodes.Float(1)
	height.Min, height.Max = -math.MaxFloat32, math.MaxFloat32
	height.Description = "Extrusion distance in Z"
	height.DefaultAttributeName = "height"

	segments := g.NewSocket(SocketSegments, nodes.Input, nodes.KindInt, extrusion)
	segments.Default = nodes.Int(1)
	segments.Min, segments.Max = 1, MaxSegments
	segments.Description = "Divisions along the extrusion"
	segments.DefaultAttributeName = "segments"

	caps := g.NewPanel("Caps")
	top := g.NewSocket(SocketTopCap, nodes.Input, nodes.KindBool, caps)
	top.Default = nodes.Bool(true)
	top.Description = "Close the top end"
	bottom := g.NewSocket(SocketBottomCap, nodes.Input, nodes.KindBool, caps)
	bottom.Default = nodes.Bool(true)
	bottom.Description = "Close the bottom end"

	add := func(op nodes.Op, label string, x, y float64) *nodes.Node {
		n := g.AddNode(op)
		n.Label = label
		n.Location = mgl64.Vec2{x, y}
		return n
	}

	groupInput := add(&nodes.GroupInput{}, "", -914.1019287109375, -214.44473266601562)
	groupOutput := add(&nodes.GroupOutput{IsActiveOutput: true}, "", 2496.602294921875, -107.43557739257812)
	fillSide := add(&nodes.FillCurve{Mode: nodes.FillNGons}, "Fill Curve - Side", -410.20501708984375, 43.73919677734375)
	extrudeSide := add(&nodes.ExtrudeMesh{Mode: nodes.ExtrudeFaces}, "", 62.53750991821289, 86.04241180419922)
	deleteTop := add(&nodes.DeleteGeometry{Domain: nodes.DeleteFace, Mode: nodes.DeleteAll}, "", 288.0355529785156, 96.89566040039062)
	fillBottom := add(&nodes.FillCurve{Mode: nodes.FillNGons}, "Fill Curve - Bottom", -135.30230712890625, -231.11346435546875)
	fillTop := add(&nodes.FillCurve{Mode: nodes.FillNGons}, "Fill Curve  - Top", -136.7638702392578, -394.2537841796875)
	join := add(&nodes.JoinGeometry{}, "", 1657.5579833984375, -56.1291389465332)
	bottomSwitch := add(&nodes.Switch{Kind: nodes.KindGeometry}, "", 327.56903076171875, -109.78105926513672)
	topSwitch := add(&nodes.Switch{Kind: nodes.KindGeometry}, "", 463.58636474609375, -290.51336669921875)
	extrudeTop := add(&nodes.ExtrudeMesh{Mode: nodes.ExtrudeFaces}, "", 47.495262145996094, -382.26019287109375)
	deleteSide := add(&nodes.DeleteGeometry{Domain: nodes.DeleteFace, Mode: nodes.DeleteAll}, "", 262.5473937988281, -360.5662841796875)
	merge := add(&nodes.MergeByDistance{Mode: "ALL"}, "", 1887.29931640625, -72.58911895751953)
	flipBottom := add(&nodes.FlipFaces{}, "", 128.00955200195312, -227.7783203125)
	step := add(&nodes.Math{Operation: nodes.MathDivide}, "", -206.6744842529297, -40.98670959472656)
	instanceOnPoints := add(&nodes.InstanceOnPoints{}, "", 1271.6912841796875, 255.62095642089844)
	toInstance := add(&nodes.GeometryToInstance{}, "", 551.1242065429688, 38.29910659790039)
	toInstance.Width = 160
	line := add(&nodes.MeshLine{CountMode: nodes.CountTotal, Mode: nodes.LineEndPoints}, "", 765.3663940429688, 338.7535095214844)
	lineEnd := add(&nodes.CombineXYZ{}, "", 561.1982421875, 198.4735565185547)
	pointCount := add(&nodes.Math{Operation: nodes.MathAdd}, "", 373.308349609375, 310.4452819824219)
	keepPoint := add(&nodes.Compare{DataType: nodes.KindInt, Operation: nodes.CompareLessThan}, "", 1028.47705078125, 99.3311767578125)
	index := add(&nodes.Index{}, "", 767.3814086914062, 80.76202392578125)
	realize := add(&nodes.RealizeInstances{}, "", 1477.8134765625, 130.27734375)
	flipAll := add(&nodes.FlipFaces{}, "", 2119.72802734375, -260.9518127441406)
	signSwitch := add(&nodes.Switch{Kind: nodes.KindGeometry}, "", 2295.09228515625, -103.82646179199219)
	isNegative := add(&nodes.Compare{DataType: nodes.KindFloat, Operation: nodes.CompareLessThan}, "", 1890.8580322265625, -255.4117431640625)

	extrudeSide.Input("Individual").Default = nodes.Bool(false)
	extrudeTop.Input("Individual").Default = nodes.Bool(true)
	merge.Input("Distance").Default = nodes.Float(WeldDistance)
	lineEnd.Input("X").Default = nodes.Float(0)
	lineEnd.Input("Y").Default = nodes.Float(0)
	line.Input("Start Location").Default = nodes.Vector{}
	pointCount.Inputs[1].Default = nodes.Float(1)
	isNegative.Input("B").Default = nodes.Float(0)

	gin := func(name string) *nodes.Socket { return groupInput.Output(name) }

	// Side wall ring: fill, extrude one step, drop the moved faces.
	g.Link(gin(SocketGeometry), fillSide.Input("Curve"))
	g.Link(gin(SocketHeight), step.Inputs[0])
	g.Link(gin(SocketSegments), step.Inputs[1])
	g.Link(fillSide.Output("Mesh"), extrudeSide.Input("Mesh"))
	g.Link(step.Output("Value"), extrudeSide.Input("Offset Scale"))
	g.Link(extrudeSide.Output("Mesh"), deleteTop.Input("Geometry"))
	g.Link(extrudeSide.Output("Top"), deleteTop.Input("Selection"))

	// Stack the ring on the first Segments points of a line to Height.
	g.Link(deleteTop.Output("Geometry"), toInstance.Input("Geometry"))
	g.Link(gin(SocketSegments), pointCount.Inputs[0])
	g.Link(pointCount.Output("Value"), line.Input("Count"))
	g.Link(gin(SocketHeight), lineEnd.Input("Z"))
	g.Link(lineEnd.Output("Vector"), line.Input("Offset"))
	g.Link(index.Output("Index"), keepPoint.Input("A"))
	g.Link(gin(SocketSegments), keepPoint.Input("B"))
	g.Link(line.Output("Mesh"), instanceOnPoints.Input("Points"))
	g.Link(keepPoint.Output("Result"), instanceOnPoints.Input("Selection"))
	g.Link(toInstance.Output("Instances"), instanceOnPoints.Input("Instance"))
	g.Link(instanceOnPoints.Output("Instances"), realize.Input("Geometry"))

	// Top cap: the fill moved up by Height.
	g.Link(gin(SocketGeometry), fillTop.Input("Curve"))
	g.Link(fillTop.Output("Mesh"), extrudeTop.Input("Mesh"))
	g.Link(gin(SocketHeight), extrudeTop.Input("Offset Scale"))
	g.Link(extrudeTop.Output("Mesh"), deleteSide.Input("Geometry"))
	g.Link(extrudeTop.Output("Side"), deleteSide.Input("Selection"))
	g.Link(gin(SocketTopCap), topSwitch.Input("Switch"))
	g.Link(deleteSide.Output("Geometry"), topSwitch.Input("True"))

	// Bottom cap: the fill facing down.
	g.Link(gin(SocketGeometry), fillBottom.Input("Curve"))
	g.Link(fillBottom.Output("Mesh"), flipBottom.Input("Mesh"))
	g.Link(gin(SocketBottomCap), bottomSwitch.Input("Switch"))
	g.Link(flipBottom.Output("Mesh"), bottomSwitch.Input("True"))

	g.Link(topSwitch.Output("Output"), join.Input("Geometry"))
	g.Link(bottomSwitch.Output("Output"), join.Input("Geometry"))
	g.Link(realize.Output("Geometry"), join.Input("Geometry"))

	// Weld, then flip everything when extruding downward.
	g.Link(join.Output("Geometry"), merge.Input("Geometry"))
	g.Link(merge.Output("Geometry"), flipAll.Input("Mesh"))
	g.Link(gin(SocketHeight), isNegative.Input("A"))
	g.Link(isNegative.Output("Result"), signSwitch.Input("Switch"))
	g.Link(merge.Output("Geometry"), signSwitch.Input("False"))
	g.Link(flipAll.Output("Mesh"), signSwitch.Input("True"))
	g.Link(signSwitch.Output("Output"), groupOutput.Input(SocketGeometry))

	return g
}
