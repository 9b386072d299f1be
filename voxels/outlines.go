package voxels

import "image"

// Edge represents the exposed edges of a voxel within its slice.
type Edge byte

const (
	Top Edge = 1 << iota
	Left
	Bottom
	Right
)

func (e Edge) HasTop() bool    { return e&Top == Top }
func (e Edge) HasLeft() bool   { return e&Left == Left }
func (e Edge) HasBottom() bool { return e&Bottom == Bottom }
func (e Edge) HasRight() bool  { return e&Right == Right }

// Outline maps the boundary pixels of a label to their exposed edges.
type Outline map[image.Point]Edge

// findEdges returns the pixels of label that touch empty space, with the
// edges that touch it. Diagonal neighbors do not hide an edge.
func findEdges(label *Label) Outline {
	in := make(map[image.Point]bool, len(label.pixels))
	for _, p := range label.pixels {
		in[p] = true
	}

	edges := Outline{}
	for _, p := range label.pixels {
		var e Edge
		if !in[image.Pt(p.X, p.Y-1)] {
			e |= Top
		}
		if !in[image.Pt(p.X-1, p.Y)] {
			e |= Left
		}
		if !in[image.Pt(p.X, p.Y+1)] {
			e |= Bottom
		}
		if !in[image.Pt(p.X+1, p.Y)] {
			e |= Right
		}
		if e != 0 {
			edges[p] = e
		}
	}
	return edges
}

// Perimeter returns the number of horizontal (top or bottom) and vertical
// (left or right) edges in the outline.
func (o Outline) Perimeter() (horizontal, vertical int) {
	for _, e := range o {
		if e.HasTop() {
			horizontal++
		}
		if e.HasBottom() {
			horizontal++
		}
		if e.HasLeft() {
			vertical++
		}
		if e.HasRight() {
			vertical++
		}
	}
	return horizontal, vertical
}
