// Package stl writes meshes as binary STL files. Triangles are streamed to
// disk by a background writer and the triangle count is patched into the
// header when the file is closed.
package stl

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gmlewis/extrude-curve/mesh"
)

const (
	headerSize = 80
	bufSize    = 10000
)

// Client is a streaming binary STL file writer.
type Client struct {
	wg sync.WaitGroup // ensures file is closed
	ch chan Tri

	mu  sync.RWMutex
	err error
}

// Tri is one STL triangle record.
type Tri struct {
	N, V1, V2, V3 [3]float32
	_             uint16 // attribute byte count
}

// New creates filename and starts the writer. header is stored in the
// 80 byte STL header and truncated if longer.
func New(filename, header string) (*Client, error) {
	out, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	var hdr struct {
		Text  [headerSize]uint8
		Count uint32 // patched on Close
	}
	copy(hdr.Text[:], header)
	if err := binary.Write(out, binary.LittleEndian, &hdr); err != nil {
		out.Close()
		return nil, fmt.Errorf("error writing header: %v", err)
	}

	c := &Client{ch: make(chan Tri, bufSize)}
	c.start(out)
	return c, nil
}

func (c *Client) start(out writeSeekCloser) {
	c.wg.Add(1)
	go func() {
		err := writer(out, c.ch)
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		c.wg.Done()
	}()
}

// Write queues a triangle. It returns the first error of the writer, if any.
func (c *Client) Write(t *Tri) error {
	c.ch <- *t
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Close flushes the queued triangles and finalizes the file.
func (c *Client) Close() error {
	close(c.ch)
	c.wg.Wait()
	return c.err
}

type writeSeekCloser interface {
	io.Writer
	io.Seeker
	io.Closer
}

func writer(out writeSeekCloser, ch <-chan Tri) error {
	var count uint32
	var werr error
	for t := range ch {
		if werr != nil {
			continue // drain so that Write never blocks
		}
		if err := binary.Write(out, binary.LittleEndian, &t); err != nil {
			werr = fmt.Errorf("write triangle %v: %v", count, err)
			continue
		}
		count++
	}
	if werr != nil {
		out.Close()
		return werr
	}

	if _, err := out.Seek(headerSize, io.SeekStart); err != nil {
		out.Close()
		return fmt.Errorf("seek: %v", err)
	}
	if err := binary.Write(out, binary.LittleEndian, &count); err != nil {
		out.Close()
		return fmt.Errorf("write count %v: %v", count, err)
	}
	return out.Close()
}

// Tris triangulates m and returns its triangles with unit face normals.
// Degenerate triangles are skipped.
func Tris(m *mesh.Mesh) []Tri {
	var out []Tri
	for _, t := range m.Triangulate() {
		a, b, c := m.Verts[t[0]], m.Verts[t[1]], m.Verts[t[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		l := n.Len()
		if l == 0 {
			continue
		}
		out = append(out, Tri{
			N:  vec32(n.Mul(1 / l)),
			V1: vec32(a),
			V2: vec32(b),
			V3: vec32(c),
		})
	}
	return out
}

func vec32(v mgl64.Vec3) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}

// WriteMesh writes m to filename as a binary STL file.
func WriteMesh(filename string, m *mesh.Mesh) error {
	c, err := New(filename, "extrude-curve")
	if err != nil {
		return fmt.Errorf("WriteMesh: %v", err)
	}
	for _, t := range Tris(m) {
		if err := c.Write(&t); err != nil {
			c.Close()
			return fmt.Errorf("WriteMesh: %v", err)
		}
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("WriteMesh: %v", err)
	}
	return nil
}
