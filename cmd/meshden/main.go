// Command meshden denoises a binary STL model with bilateral normal
// filtering or Laplacian smoothing.
//
//	meshden -in noisy.stl -out clean.stl -scheme global -preview clean.png
package main

import (
	"errors"
	"flag"
	"log"
	"time"

	"github.com/soypat/meshden"
	"github.com/soypat/meshden/denoise"
	"github.com/soypat/meshden/geom"
	"github.com/soypat/meshden/mesh"
	"github.com/soypat/meshden/render"
)

func main() {
	var (
		in       = flag.String("in", "", "input binary STL file (required)")
		out      = flag.String("out", "denoised.stl", "output binary STL file")
		scheme   = flag.String("scheme", "", "normal filtering scheme: local or global (overrides config)")
		config   = flag.String("config", "", "JSON denoising configuration file")
		smooth   = flag.String("smooth", "", "run Laplacian smoothing instead: explicit or implicit")
		iters    = flag.Int("iters", 10, "explicit smoothing iterations")
		timestep = flag.Float64("timestep", 0.001, "implicit smoothing time step")
		uniform  = flag.Bool("uniform", false, "use uniform instead of cotangent Laplacian weights")
		weld     = flag.Float64("weld", 0, "vertex welding tolerance, zero infers it from the model")
		preview  = flag.String("preview", "", "write a shaded PNG preview of the result")
		hist     = flag.String("hist", "", "write a PNG histogram of vertex displacements")
		quiet    = flag.Bool("quiet", false, "silence library diagnostics")
	)
	flag.Parse()
	log.SetFlags(0)
	if *in == "" {
		flag.Usage()
		log.Fatal("missing -in")
	}
	if *quiet {
		meshden.SetLogger(nil)
	}

	cfg := denoise.DefaultConfig()
	if *config != "" {
		var err error
		cfg, err = denoise.LoadConfig(*config)
		if err != nil {
			log.Fatal(err)
		}
	}
	if *scheme != "" {
		s, err := denoise.ParseScheme(*scheme)
		if err != nil {
			log.Fatal(err)
		}
		cfg.Scheme = s
	}

	model, err := render.LoadSTL(*in)
	if errors.Is(err, render.ErrNormalMismatch) {
		log.Printf("warning: %v", err)
	} else if err != nil {
		log.Fatal(err)
	}
	m, err := render.ToMesh(model, *weld)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("loaded %s: %d vertices, %d faces, %d edges", *in, m.NumVertices(), m.NumFaces(), m.NumEdges())

	before := m.Clone()
	start := time.Now()
	if err := run(m, cfg, *smooth, *iters, *timestep, *uniform); err != nil {
		log.Fatal(err)
	}
	log.Printf("processed in %s, mean distance to input %.4g", time.Since(start), geom.MeanDistance(m, before))

	if err := render.CreateSTL(*out, render.NewMeshReader(m)); err != nil {
		log.Fatal(err)
	}
	if *preview != "" {
		if err := render.SavePreviewPNG(*preview, m, render.DefaultView()); err != nil {
			log.Fatal(err)
		}
	}
	if *hist != "" {
		if err := saveHistogram(*hist, geom.Displacements(before, m)); err != nil {
			log.Fatal(err)
		}
	}
}

func run(m *mesh.SurfaceMesh, cfg denoise.Config, smooth string, iters int, timestep float64, uniform bool) error {
	switch smooth {
	case "":
		return denoise.New(cfg).Denoise(m)
	case "explicit":
		denoise.ExplicitSmooth(m, iters, uniform)
		return nil
	case "implicit":
		return denoise.ImplicitSmooth(m, timestep, uniform, true)
	}
	return errors.New("unknown smoothing mode " + smooth)
}
