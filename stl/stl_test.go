package stl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"

	"github.com/gmlewis/extrude-curve/mesh"
)

func TestWriter(t *testing.T) {
	tests := []struct {
		name     string
		tris     []Tri
		failAt   int
		wantErr  bool
		wantSeek int
	}{
		{name: "no triangles", failAt: -1, wantSeek: 1},
		{name: "two triangles", tris: make([]Tri, 2), failAt: -1, wantSeek: 1},
		{name: "write error", tris: make([]Tri, 3), failAt: 1, wantErr: true},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %v", i, tt.name), func(t *testing.T) {
			out := &fakeFile{failAt: tt.failAt}
			c := &Client{ch: make(chan Tri, bufSize)}
			c.start(out)

			for _, tri := range tt.tris {
				c.Write(&tri)
			}
			err := c.Close()
			if (err != nil) != tt.wantErr {
				t.Fatalf("c.Close = %v, wantErr %v", err, tt.wantErr)
			}

			if out.closes != 1 {
				t.Errorf("expected 1 close, got %v", out.closes)
			}
			if out.seeks != tt.wantSeek {
				t.Errorf("expected %v seeks, got %v", tt.wantSeek, out.seeks)
			}
			if !tt.wantErr && out.writes != len(tt.tris)+1 { // +1 for the final count
				t.Errorf("expected %v writes, got %v", len(tt.tris)+1, out.writes)
			}
		})
	}
}

type fakeFile struct {
	failAt int
	closes int
	seeks  int
	writes int
}

func (f *fakeFile) Close() error {
	f.closes++
	return nil
}

func (f *fakeFile) Seek(offset int64, whence int) (int64, error) {
	f.seeks++
	return offset, nil
}

func (f *fakeFile) Write(p []byte) (n int, err error) {
	if f.writes == f.failAt {
		return 0, errors.New("disk full")
	}
	f.writes++
	return len(p), nil
}

func TestTris(t *testing.T) {
	m := mesh.New()
	for _, v := range []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}} {
		m.AddVert(v)
	}
	m.AddFace(0, 1, 2, 3)
	m.AddFace(0, 1, 1) // degenerate

	got := Tris(m)
	if len(got) != 2 {
		t.Fatalf("Tris = %v triangles, want 2", len(got))
	}
	for _, tri := range got {
		if diff := cmp.Diff([3]float32{0, 0, 1}, tri.N); diff != "" {
			t.Errorf("normal mismatch (-want +got):\n%v", diff)
		}
	}
}

func TestWriteMesh(t *testing.T) {
	m := mesh.New()
	for _, v := range []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
		m.AddVert(v)
	}
	m.AddFace(0, 2, 1)
	m.AddFace(0, 1, 3)
	m.AddFace(1, 2, 3)
	m.AddFace(0, 3, 2)

	filename := filepath.Join(t.TempDir(), "tet.stl")
	if err := WriteMesh(filename, m); err != nil {
		t.Fatal(err)
	}
	buf, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(buf), headerSize+4+4*50; got != want {
		t.Fatalf("file size = %v, want %v", got, want)
	}
	if got := binary.LittleEndian.Uint32(buf[headerSize:]); got != 4 {
		t.Errorf("triangle count = %v, want 4", got)
	}
	if got := string(buf[:13]); got != "extrude-curve" {
		t.Errorf("header = %q, want extrude-curve", got)
	}
}
