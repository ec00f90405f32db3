package render

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/meshden/internal/monitoring"
	"github.com/soypat/meshden/mesh"
)

// welder merges points closer than tol by hashing them into cells of side
// tol and searching the neighboring cells.
type welder struct {
	tol   float64
	cells map[[3]int64][]mesh.Vertex
	m     *mesh.SurfaceMesh
}

func (w *welder) cell(p r3.Vec) [3]int64 {
	return [3]int64{
		int64(math.Floor(p.X / w.tol)),
		int64(math.Floor(p.Y / w.tol)),
		int64(math.Floor(p.Z / w.tol)),
	}
}

func (w *welder) vertex(p r3.Vec) mesh.Vertex {
	c := w.cell(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, v := range w.cells[[3]int64{c[0] + dx, c[1] + dy, c[2] + dz}] {
					if r3.Norm(r3.Sub(w.m.Point(v), p)) <= w.tol {
						return v
					}
				}
			}
		}
	}
	v := w.m.AddVertex(p)
	w.cells[c] = append(w.cells[c], v)
	return v
}

// ToMesh builds a surface mesh from a triangle soup, merging vertices
// closer than tol. If tol is zero it is inferred from the shortest
// triangle side. Triangles that collapse after welding or would make the
// mesh non-manifold are skipped and reported in the log.
func ToMesh(model []Triangle3, tol float64) (*mesh.SurfaceMesh, error) {
	minSide, maxSide := math.Inf(1), 0.0
	for _, t := range model {
		for j := range t.V {
			side := r3.Norm(r3.Sub(t.V[(j+1)%3], t.V[j]))
			minSide = math.Min(minSide, side)
			maxSide = math.Max(maxSide, side)
		}
	}
	suggested := minSide / 256
	switch {
	case tol < 0:
		return nil, errors.New("render: negative vertex tolerance")
	case len(model) > 0 && tol > maxSide/2:
		return nil, fmt.Errorf("render: vertex tolerance too large to generate mesh, suggested tolerance: %g", suggested)
	case tol == 0:
		tol = suggested
	}
	if len(model) > 0 && !(tol > 0) {
		return nil, errors.New("render: model has degenerate triangles, set a vertex tolerance")
	}
	m := mesh.New()
	m.Reserve(len(model)/2, 3*len(model)/2, len(model))
	w := welder{tol: tol, cells: make(map[[3]int64][]mesh.Vertex), m: m}
	var skipped int
	for _, t := range model {
		a, b, c := w.vertex(t.V[0]), w.vertex(t.V[1]), w.vertex(t.V[2])
		if _, err := m.AddTriangle(a, b, c); err != nil {
			skipped++
		}
	}
	if skipped > 0 {
		monitoring.Logf("render: skipped %d/%d triangles while building mesh", skipped, len(model))
	}
	if len(model) > 0 && m.NumFaces() == 0 {
		return nil, errors.New("render: no triangle could be added to mesh")
	}
	// Drop vertices only referenced by skipped triangles.
	for v := range m.Vertices() {
		if m.IsIsolated(v) {
			m.DeleteVertex(v)
		}
	}
	m.CollectGarbage()
	return m, nil
}

// FromMesh returns the fan triangulation of the live faces of m.
func FromMesh(m *mesh.SurfaceMesh) []Triangle3 {
	model := make([]Triangle3, 0, m.NumFaces())
	for f := range m.Faces() {
		model = appendFace(model, m, f)
	}
	return model
}
