// Package meshden denoises triangle and polygon surface meshes while
// keeping their sharp features.
//
// Meshes live in a half-edge data structure (package mesh) with dynamic
// per-element properties (package props). Package denoise filters face
// normals with a bilateral kernel and moves vertices to match them, and
// package render converts meshes to and from STL triangle soups.
//
// Quick start:
//
//	model, _ := render.LoadSTL("noisy.stl")
//	m, _ := render.ToMesh(model, 0)
//	if err := meshden.Denoise(m, denoise.Global); err != nil {
//		log.Fatal(err)
//	}
//	render.CreateSTL("clean.stl", render.NewMeshReader(m))
package meshden

import (
	"github.com/soypat/meshden/denoise"
	"github.com/soypat/meshden/internal/monitoring"
	"github.com/soypat/meshden/mesh"
)

// Denoise runs bilateral denoising on m with the default parameters of the
// given scheme.
func Denoise(m *mesh.SurfaceMesh, scheme denoise.Scheme) error {
	cfg := denoise.DefaultConfig()
	cfg.Scheme = scheme
	return denoise.New(cfg).Denoise(m)
}

// SetLogger replaces the diagnostic logger of all meshden packages. It
// defaults to log.Printf. Passing nil silences diagnostics.
func SetLogger(f func(format string, v ...interface{})) {
	monitoring.SetLogger(f)
}
