package denoise

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/meshden/geom"
	"github.com/soypat/meshden/internal/sparse"
	"github.com/soypat/meshden/mesh"
)

// Scratch properties, removed before the smoothing functions return.
const (
	propCotan   = "e:cotan"
	propLaplace = "v:laplace"
	propArea    = "v:area"
	propIndex   = "v:idx"
)

// edgeWeights stores the Laplace weight of every edge: 1 when uniform is
// set, else the non-negative part of the cotangent weight.
func edgeWeights(m *mesh.SurfaceMesh, uniform bool) mesh.Property[mesh.Edge, float64] {
	w := mesh.EdgePropertyOf(m, propCotan, 1.0)
	for e := range m.Edges() {
		if uniform {
			w.Set(e, 1)
		} else {
			w.Set(e, math.Max(0, geom.CotanWeight(m, e)))
		}
	}
	return w
}

// ExplicitSmooth runs iterations of explicit Laplacian smoothing with a
// step of one half. Border vertices do not move.
func ExplicitSmooth(m *mesh.SurfaceMesh, iterations int, uniform bool) {
	if m.NumVertices() == 0 || iterations <= 0 {
		return
	}
	weight := edgeWeights(m, uniform)
	defer m.RemoveEdgeProperty(propCotan)
	laplace := mesh.VertexPropertyOf(m, propLaplace, r3.Vec{})
	defer m.RemoveVertexProperty(propLaplace)

	for it := 0; it < iterations; it++ {
		for v := range m.Vertices() {
			var (
				l  r3.Vec
				ww float64
			)
			if !m.IsBorderVertex(v) {
				p := m.Point(v)
				for h := range m.HalfedgesAroundVertex(v) {
					w := weight.At(h.Edge())
					ww += w
					l = r3.Add(l, r3.Scale(w, r3.Sub(m.Point(m.ToVertex(h)), p)))
				}
			}
			if ww > 0 {
				l = r3.Scale(1/ww, l)
			} else {
				l = r3.Vec{}
			}
			laplace.Set(v, l)
		}
		for v := range m.Vertices() {
			m.SetPoint(v, r3.Add(m.Point(v), r3.Scale(0.5, laplace.At(v))))
		}
	}
}

// ImplicitSmooth performs one backward Euler step of Laplacian smoothing
// over the interior vertices. With rescale set the surface area and
// centroid of m are restored afterwards. On error m is unchanged.
func ImplicitSmooth(m *mesh.SurfaceMesh, timestep float64, uniform, rescale bool) error {
	if m.NumVertices() == 0 {
		return nil
	}
	var (
		areaBefore   float64
		centerBefore r3.Vec
	)
	if rescale {
		areaBefore = geom.SurfaceArea(m)
		centerBefore = geom.Centroid(m)
	}

	weight := edgeWeights(m, uniform)
	defer m.RemoveEdgeProperty(propCotan)
	vweight := mesh.VertexPropertyOf(m, propArea, 0.0)
	defer m.RemoveVertexProperty(propArea)
	idx := mesh.VertexPropertyOf(m, propIndex, -1)
	defer m.RemoveVertexProperty(propIndex)

	var free []mesh.Vertex
	for v := range m.Vertices() {
		idx.Set(v, -1)
		if m.IsBorderVertex(v) {
			continue
		}
		idx.Set(v, len(free))
		free = append(free, v)
		vw := 1 / float64(m.Valence(v))
		if !uniform {
			if area := geom.VoronoiArea(m, v); area > 0 {
				vw = 0.5 / area
			}
		}
		vweight.Set(v, vw)
	}
	n := len(free)
	if n == 0 {
		return nil
	}

	ab := sparse.NewBuilder(n, n)
	rhs := mat.NewDense(n, 3, nil)
	for i, v := range free {
		b := r3.Scale(1/vweight.At(v), m.Point(v))
		var ww float64
		for h := range m.HalfedgesAroundVertex(v) {
			vv := m.ToVertex(h)
			w := weight.At(h.Edge())
			ww += w
			if j := idx.At(vv); j >= 0 {
				ab.Add(i, j, -timestep*w)
			} else {
				b = r3.Add(b, r3.Scale(timestep*w, m.Point(vv)))
			}
		}
		ab.Add(i, i, 1/vweight.At(v)+timestep*ww)
		rhs.SetRow(i, []float64{b.X, b.Y, b.Z})
	}
	x, err := solveSPD(ab.CSR(), rhs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSolver, err)
	}
	for i, v := range free {
		m.SetPoint(v, r3.Vec{X: x.At(i, 0), Y: x.At(i, 1), Z: x.At(i, 2)})
	}

	if rescale {
		areaAfter := geom.SurfaceArea(m)
		if areaAfter > 0 {
			scale := math.Sqrt(areaBefore / areaAfter)
			for v := range m.Vertices() {
				m.SetPoint(v, r3.Scale(scale, m.Point(v)))
			}
		}
		shift := r3.Sub(centerBefore, geom.Centroid(m))
		for v := range m.Vertices() {
			m.SetPoint(v, r3.Add(m.Point(v), shift))
		}
	}
	return nil
}
