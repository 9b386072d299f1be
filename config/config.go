// Package config loads extrude-curve job files. A job names the profile
// curve, the Extrude Curve parameters and the files to write.
//
// Values come from a YAML file, then from ECM_ prefixed environment
// variables where "__" separates levels (ECM_EXTRUDE__HEIGHT=2), then from
// built-in defaults for anything still unset.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gmlewis/extrude-curve/curve"
	"github.com/gmlewis/extrude-curve/extrude"
	"github.com/gmlewis/extrude-curve/photon"
)

// DefaultFile is read when no job file is given and it exists.
const DefaultFile = "extrude-curve.yaml"

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "ECM_"

// Config is an extrude-curve job.
type Config struct {
	Author  string        `koanf:"author"`
	Curve   CurveConfig   `koanf:"curve"`
	Extrude ExtrudeConfig `koanf:"extrude"`
	Output  OutputConfig  `koanf:"output"`
	Photon  PhotonConfig  `koanf:"photon"`
}

// CurveConfig describes the profile curve.
type CurveConfig struct {
	Type       string         `koanf:"type"` // circle, bezier_circle, poly
	Radius     float64        `koanf:"radius"`
	Resolution int            `koanf:"resolution"`
	Splines    []SplineConfig `koanf:"splines"` // poly only
}

// SplineConfig is one poly spline. Points have two or three coordinates.
type SplineConfig struct {
	Cyclic bool        `koanf:"cyclic"`
	Points [][]float64 `koanf:"points"`
}

// ExtrudeConfig holds the Extrude Curve parameters.
type ExtrudeConfig struct {
	Height    float64 `koanf:"height"`
	Segments  int     `koanf:"segments"`
	TopCap    bool    `koanf:"top_cap"`
	BottomCap bool    `koanf:"bottom_cap"`
}

// OutputConfig selects the files to write. Res is in microns; zero picks a
// default for the selected outputs.
type OutputConfig struct {
	Base   string  `koanf:"base"`
	STL    bool    `koanf:"stl"`
	Zip    bool    `koanf:"zip"`
	SVX    bool    `koanf:"svx"`
	Binvox bool    `koanf:"binvox"`
	DLP    bool    `koanf:"dlp"`
	Res    float64 `koanf:"res"`
	Dump   string  `koanf:"dump"` // YAML description of the node group
}

// PhotonConfig holds the resin printer settings for DLP output.
type PhotonConfig struct {
	NormalExposure float64 `koanf:"normal_exposure"`
	BottomExposure float64 `koanf:"bottom_exposure"`
	OffTime        float64 `koanf:"off_time"`
	BottomLayers   int     `koanf:"bottom_layers"`
}

func defaults() map[string]interface{} {
	p := extrude.DefaultParams()
	ps := photon.DefaultSettings()
	return map[string]interface{}{
		"curve.type":             "circle",
		"curve.radius":           1.0,
		"curve.resolution":       32,
		"extrude.height":         p.Height,
		"extrude.segments":       p.Segments,
		"extrude.top_cap":        p.TopCap,
		"extrude.bottom_cap":     p.BottomCap,
		"output.base":            "extrude-curve",
		"output.stl":             true,
		"photon.normal_exposure": float64(ps.NormalExposure),
		"photon.bottom_exposure": float64(ps.BottomExposure),
		"photon.off_time":        float64(ps.OffTime),
		"photon.bottom_layers":   ps.BottomLayers,
	}
}

// Load reads the job in filename. An empty filename reads DefaultFile if it
// exists and otherwise uses the environment and defaults only.
func Load(filename string) (*Config, error) {
	k := koanf.New(".")

	path := filename
	if path == "" {
		path = DefaultFile
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if filename != "" || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %v: %v", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %v", err)
	}

	for key, v := range defaults() {
		if !k.Exists(key) {
			k.Set(key, v)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first problem with the job.
func (c *Config) Validate() error {
	switch c.Curve.Type {
	case "circle", "bezier_circle":
		if c.Curve.Radius <= 0 {
			return fmt.Errorf("curve.radius must be positive, got %v", c.Curve.Radius)
		}
		if c.Curve.Type == "circle" && c.Curve.Resolution < 3 {
			return fmt.Errorf("curve.resolution must be at least 3, got %v", c.Curve.Resolution)
		}
		if c.Curve.Type == "bezier_circle" && c.Curve.Resolution < 1 {
			return fmt.Errorf("curve.resolution must be at least 1, got %v", c.Curve.Resolution)
		}
	case "poly":
		if len(c.Curve.Splines) == 0 {
			return errors.New("curve.splines must list at least one spline")
		}
		for i, s := range c.Curve.Splines {
			if len(s.Points) < 2 {
				return fmt.Errorf("curve.splines[%v] needs at least 2 points, got %v", i, len(s.Points))
			}
			for j, p := range s.Points {
				if len(p) != 2 && len(p) != 3 {
					return fmt.Errorf("curve.splines[%v].points[%v] must have 2 or 3 values, got %v", i, j, len(p))
				}
			}
		}
	default:
		return fmt.Errorf("unknown curve.type %q", c.Curve.Type)
	}

	if c.Output.Res < 0 {
		return fmt.Errorf("output.res must not be negative, got %v", c.Output.Res)
	}
	if c.Output.Base == "" {
		return errors.New("output.base must not be empty")
	}
	return nil
}

// BuildCurve returns the profile curve of the job.
func (c *Config) BuildCurve() *curve.Curve {
	switch c.Curve.Type {
	case "bezier_circle":
		return curve.BezierCircle(c.Curve.Radius, c.Curve.Resolution)
	case "poly":
		out := curve.New()
		for _, s := range c.Curve.Splines {
			pts := make([]mgl64.Vec3, len(s.Points))
			for i, p := range s.Points {
				copy(pts[i][:], p)
			}
			out.Splines = append(out.Splines, curve.NewPoly(s.Cyclic, pts...))
		}
		return out
	default:
		return curve.Circle(c.Curve.Radius, c.Curve.Resolution)
	}
}

// Params returns the Extrude Curve parameters of the job.
func (c *Config) Params() extrude.Params {
	return extrude.Params{
		Height:    c.Extrude.Height,
		Segments:  c.Extrude.Segments,
		TopCap:    c.Extrude.TopCap,
		BottomCap: c.Extrude.BottomCap,
	}
}

// PhotonSettings returns the printer settings for DLP output.
func (c *Config) PhotonSettings() photon.Settings {
	return photon.Settings{
		NormalExposure: float32(c.Photon.NormalExposure),
		BottomExposure: float32(c.Photon.BottomExposure),
		OffTime:        float32(c.Photon.OffTime),
		BottomLayers:   c.Photon.BottomLayers,
	}
}

// Resolution returns the voxel size in microns for sliced outputs. Without
// an explicit resolution, DLP output uses the printer's native pixel size,
// ZIP output uses X:65, Y:60, Z:30 and everything else uses 42.
func (c *Config) Resolution() (x, y, z float32) {
	switch {
	case c.Output.Res > 0:
		r := float32(c.Output.Res)
		return r, r, r
	case c.Output.DLP:
		return 47.25, 47.25, 50
	case c.Output.Zip:
		return 65, 60, 30
	default:
		return 42, 42, 42
	}
}

// Sliced reports whether any voxel output is selected.
func (c *Config) Sliced() bool {
	return c.Output.Zip || c.Output.SVX || c.Output.Binvox || c.Output.DLP
}
