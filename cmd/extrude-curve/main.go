// extrude-curve builds the Extrude Curve node group, applies it as a
// modifier to a profile curve and writes the resulting solid.
//
// The job (profile curve, extrusion parameters and outputs) is read from a
// YAML file given by -config, or extrude-curve.yaml if present, and may be
// overridden by ECM_ environment variables (a .env file is honored) and
// finally by command-line flags.
//
// By default, only an STL file is written. Sliced outputs (-zip, -svx,
// -binvox, -dlp) voxelize the mesh at -res microns.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"

	"github.com/gmlewis/extrude-curve/binvox"
	"github.com/gmlewis/extrude-curve/config"
	"github.com/gmlewis/extrude-curve/mesh"
	"github.com/gmlewis/extrude-curve/nodes"
	"github.com/gmlewis/extrude-curve/photon"
	"github.com/gmlewis/extrude-curve/scene"
	"github.com/gmlewis/extrude-curve/slicer"
	"github.com/gmlewis/extrude-curve/stl"
	"github.com/gmlewis/extrude-curve/telemetry"
	"github.com/gmlewis/extrude-curve/viewer"
	"github.com/gmlewis/extrude-curve/voxels"
	"github.com/gmlewis/extrude-curve/zipper"
)

var (
	configFile = flag.String("config", "", "YAML job file (default is extrude-curve.yaml if present)")
	view       = flag.Bool("view", false, "Show the resulting mesh in a window")
	stats      = flag.Bool("stats", false, "Slice the mesh and report its volume, area and islands")
	trace      = flag.Bool("trace", false, "Print node evaluation spans to stderr")

	height     = flag.Float64("height", 0, "Extrusion height")
	segments   = flag.Int("segments", 0, "Number of segments along the extrusion")
	topCap     = flag.Bool("top", true, "Fill the top of the extrusion")
	bottomCap  = flag.Bool("bottom", true, "Fill the bottom of the extrusion")
	radius     = flag.Float64("radius", 0, "Radius of a circle profile")
	resolution = flag.Int("resolution", 0, "Number of points of a circle profile")

	base        = flag.String("o", "", "Base name of the output files")
	microns     = flag.Float64("res", 0, "Resolution in microns for sliced outputs (default is 42.0)")
	writeSTL    = flag.Bool("stl", true, "Write an STL file")
	writeZip    = flag.Bool("zip", false, "Write slices to a zip file (default resolution is X:65,Y:60,Z:30 microns)")
	writeSVX    = flag.Bool("svx", false, "Write slices to an svx voxel file")
	writeBinvox = flag.Bool("binvox", false, "Write a binvox file")
	writeDLP    = flag.Bool("dlp", false, "Write a ChiTuBox .cbddlp file (default resolution is X:47.25,Y:47.25,Z:50 microns)")
	dump        = flag.String("dump", "", "Write a YAML description of the node group to this file (- for stdout)")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("godotenv: %v", err)
	}

	cfg, err := config.Load(*configFile)
	check("config.Load: %v", err)
	applyFlags(cfg)
	check("invalid job: %v", cfg.Validate())

	ctx := context.Background()
	if *trace {
		shutdown, err := telemetry.InitTracer("extrude-curve", os.Stderr)
		check("InitTracer: %v", err)
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Printf("tracer shutdown: %v", err)
			}
		}()
	}

	s := scene.New()
	obj := s.AddCurve("Curve", cfg.BuildCurve())
	mod, err := s.AddExtrudeCurveModifierToActive()
	check("AddExtrudeCurveModifierToActive: %v", err)
	check("SetParams: %v", mod.SetParams(cfg.Params()))

	if cfg.Output.Dump != "" {
		check("dump: %v", writeDump(cfg.Output.Dump, mod.Group))
	}

	geom, err := obj.Evaluate(ctx)
	check("Evaluate: %v", err)
	m := geom.Mesh
	if m.Empty() {
		log.Printf("The modifier produced no mesh.")
		return
	}
	lo, hi := m.Bounds()
	log.Printf("Mesh: %v verts, %v faces, manifold=%v, volume=%0.4f, bounds=%v-%v",
		m.NumVerts(), m.NumFaces(), m.IsManifold(), m.Volume(), lo, hi)

	baseName := cfg.Output.Base
	if cfg.Output.STL {
		log.Printf("Writing: %v.stl", baseName)
		check("stl.WriteMesh: %v", stl.WriteMesh(baseName+".stl", m))
	}

	if cfg.Sliced() || *stats {
		slice(cfg, m)
	}

	if *view {
		check("viewer.Show: %v", viewer.Show(obj.Name, m))
	}

	log.Println("Done.")
}

// applyFlags overrides the job with the flags given on the command line.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "height":
			cfg.Extrude.Height = *height
		case "segments":
			cfg.Extrude.Segments = *segments
		case "top":
			cfg.Extrude.TopCap = *topCap
		case "bottom":
			cfg.Extrude.BottomCap = *bottomCap
		case "radius":
			cfg.Curve.Radius = *radius
		case "resolution":
			cfg.Curve.Resolution = *resolution
		case "o":
			cfg.Output.Base = *base
		case "res":
			cfg.Output.Res = *microns
		case "stl":
			cfg.Output.STL = *writeSTL
		case "zip":
			cfg.Output.Zip = *writeZip
		case "svx":
			cfg.Output.SVX = *writeSVX
		case "binvox":
			cfg.Output.Binvox = *writeBinvox
		case "dlp":
			cfg.Output.DLP = *writeDLP
		case "dump":
			cfg.Output.Dump = *dump
		}
	})
}

func writeDump(filename string, g *nodes.Graph) error {
	buf, err := yaml.Parser().Marshal(nodes.Describe(g))
	if err != nil {
		return err
	}
	if filename == "-" {
		_, err := os.Stdout.Write(buf)
		return err
	}
	log.Printf("Writing: %v", filename)
	return os.WriteFile(filename, buf, 0644)
}

func slice(cfg *config.Config, m *mesh.Mesh) {
	xRes, yRes, zRes := cfg.Resolution()
	log.Printf("Resolution in microns: X: %v, Y: %v, Z: %v", xRes, yRes, zRes)

	sl, err := slicer.New(m, xRes, yRes, zRes)
	check("slicer.New: %v", err)
	baseName := cfg.Output.Base

	if cfg.Output.Binvox {
		log.Printf("Slicing into a binvox file (%v slices)...", sl.NumZSlices())
		check("binvox.Slice: %v", binvox.Slice(baseName, sl))
	}

	if cfg.Output.DLP {
		log.Printf("Slicing into a cbddlp file (%v slices)...", sl.NumZSlices())
		check("photon.Slice: %v", photon.Slice(baseName, zRes, cfg.PhotonSettings(), sl))
	}

	if cfg.Output.SVX {
		log.Printf("Slicing into an SVX file (%v slices)...", sl.NumZSlices())
		md := zipper.Metadata{Author: cfg.Author, Date: time.Now().Format("2006-01-02")}
		check("zipper.SVXSlice: %v", zipper.SVXSlice(baseName, sl, md))
	}

	if cfg.Output.Zip {
		log.Printf("Slicing into a ZIP file (%v slices)...", sl.NumZSlices())
		check("zipper.Slice: %v", zipper.Slice(baseName, sl))
	}

	if *stats {
		r, err := voxels.Analyze(sl)
		check("voxels.Analyze: %v", err)
		fmt.Printf("grid:\t%vx%vx%v\n", r.NX, r.NY, r.NZ)
		fmt.Printf("voxels:\t%v\n", r.Voxels)
		fmt.Printf("volume:\t%0.4f\n", r.Volume)
		fmt.Printf("area:\t%0.4f\n", r.Area)
		fmt.Printf("islands:\t%v\n", r.MaxIslands)
	}
}

func check(fmtStr string, args ...interface{}) {
	if err := args[len(args)-1]; err != nil {
		log.Fatalf(fmtStr, args...)
	}
}
