// extrude-curve-stats slices an extruded job at a series of resolutions
// and lists the resulting binvox file sizes and measured volumes so that a
// correlation might be inferred.
//
// Resolutions are tried from coarse to fine and the search stops once a
// file exceeds -max bytes. Jobs are measured concurrently.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/gmlewis/extrude-curve/binvox"
	"github.com/gmlewis/extrude-curve/config"
	"github.com/gmlewis/extrude-curve/scene"
	"github.com/gmlewis/extrude-curve/slicer"
	"github.com/gmlewis/extrude-curve/voxels"
)

var inputs = []float32{200, 175, 150, 125, 100, 75, 60, 50, 45, 42}

var (
	maxSize = flag.Int64("max", 50000000, "Stop searching once file size exceeds max")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	dir, err := os.MkdirTemp("", "extrude-curve-stats")
	check("MkdirTemp: %v", err)
	defer os.RemoveAll(dir)

	jobs := flag.Args()
	if len(jobs) == 0 {
		jobs = []string{""}
	}

	results := make([][]string, len(jobs))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, job := range jobs {
		i, job := i, job // per-iteration copies (go1.21 loop semantics)
		g.Go(func() error {
			pts, err := measure(i, job, dir)
			if err != nil {
				return fmt.Errorf("%q: %v", job, err)
			}
			results[i] = pts
			return nil
		})
	}
	check("measure: %v", g.Wait())

	var pts []string
	for _, r := range results {
		pts = append(pts, r...)
	}
	fmt.Printf("%v\n", strings.Join(pts, "\n"))
	log.Printf("Done.")
}

// measure evaluates one job and slices it at every resolution until the
// binvox file exceeds maxSize.
func measure(n int, job, dir string) ([]string, error) {
	cfg, err := config.Load(job)
	if err != nil {
		return nil, err
	}

	s := scene.New()
	obj := s.AddCurve("Curve", cfg.BuildCurve())
	mod, err := s.AddExtrudeCurveModifierToActive()
	if err != nil {
		return nil, err
	}
	if err := mod.SetParams(cfg.Params()); err != nil {
		return nil, err
	}
	geom, err := obj.Evaluate(context.Background())
	if err != nil {
		return nil, err
	}
	name := filepath.Base(cfg.Output.Base)
	log.Printf("%v: %v faces, exact volume %0.4f", name, geom.Mesh.NumFaces(), geom.Mesh.Volume())

	var pts []string
	for _, res := range inputs {
		sl, err := slicer.New(geom.Mesh, res, res, res)
		if err != nil {
			return nil, err
		}

		baseName := filepath.Join(dir, fmt.Sprintf("%v-%v-%v", n, name, res))
		if err := binvox.Slice(baseName, sl); err != nil {
			return nil, fmt.Errorf("binvox.Slice: %v", err)
		}
		fi, err := os.Stat(baseName + ".binvox")
		if err != nil {
			return nil, err
		}
		log.Printf("Found: %v - size: %v", fi.Name(), humanize.Bytes(uint64(fi.Size())))
		if err := os.Remove(baseName + ".binvox"); err != nil {
			return nil, err
		}

		r, err := voxels.Analyze(sl)
		if err != nil {
			return nil, fmt.Errorf("voxels.Analyze: %v", err)
		}
		pts = append(pts, fmt.Sprintf("%v\t%v\t%v\t%0.4f\t%0.4f", name, res, fi.Size(), r.Volume, r.Area))

		if fi.Size() >= *maxSize {
			break
		}
	}
	return pts, nil
}

func check(fmtStr string, args ...interface{}) {
	if err := args[len(args)-1]; err != nil {
		log.Fatalf(fmtStr, args...)
	}
}
