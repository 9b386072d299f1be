package voxels

import (
	"image"
)

// Label represents a connected component label: an island of solid pixels
// joined through their edges or corners.
type Label struct {
	xmin, ymin, xmax, ymax int
	// pixels are in raster order.
	pixels []image.Point
}

func (l *Label) add(p image.Point) {
	if len(l.pixels) == 0 {
		l.xmin, l.xmax, l.ymin, l.ymax = p.X, p.X, p.Y, p.Y
	}
	if p.X < l.xmin {
		l.xmin = p.X
	}
	if p.X > l.xmax {
		l.xmax = p.X
	}
	if p.Y < l.ymin {
		l.ymin = p.Y
	}
	if p.Y > l.ymax {
		l.ymax = p.Y
	}
	l.pixels = append(l.pixels, p)
}

// Bounds returns the smallest rectangle holding the label.
func (l *Label) Bounds() image.Rectangle {
	return image.Rect(l.xmin, l.ymin, l.xmax+1, l.ymax+1)
}

// Len returns the number of pixels in the label.
func (l *Label) Len() int { return len(l.pixels) }

// connectedComponentLabeling labels the 8-connected solid regions of img
// using two passes and a union-find table of provisional labels. Labels
// are returned in the raster order of their first pixel and pixel
// coordinates are relative to img.Bounds().Min.
func connectedComponentLabeling(img image.Image) []*Label {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	solid := func(u, v int) bool {
		r, _, _, _ := img.At(b.Min.X+u, b.Min.Y+v).RGBA()
		return r != 0
	}

	parent := []int{0} // label 0 is the background
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		switch {
		case ra < rb:
			parent[rb] = ra
		case rb < ra:
			parent[ra] = rb
		}
	}

	labels := make([]int, w*h)
	for v := 0; v < h; v++ {
		for u := 0; u < w; u++ {
			if !solid(u, v) {
				continue
			}
			var label int
			for _, n := range [][2]int{{-1, 0}, {-1, -1}, {0, -1}, {1, -1}} {
				nu, nv := u+n[0], v+n[1]
				if nu < 0 || nv < 0 || nu >= w {
					continue
				}
				nl := labels[nv*w+nu]
				if nl == 0 {
					continue
				}
				if label == 0 {
					label = nl
				} else {
					union(label, nl)
				}
			}
			if label == 0 {
				label = len(parent)
				parent = append(parent, label)
			}
			labels[v*w+u] = label
		}
	}

	var out []*Label
	byRoot := map[int]*Label{}
	for i, label := range labels {
		if label == 0 {
			continue
		}
		root := find(label)
		l, ok := byRoot[root]
		if !ok {
			l = &Label{}
			byRoot[root] = l
			out = append(out, l)
		}
		l.add(image.Pt(i%w, i/w))
	}
	return out
}
