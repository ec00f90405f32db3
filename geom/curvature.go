package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/meshden/internal/d3"
	"github.com/soypat/meshden/mesh"
)

// cotBound clamps cotangents, which corresponds to angles in [3°, 177°].
const cotBound = 19.1

func clampCot(v float64) float64 {
	return math.Max(-cotBound, math.Min(cotBound, v))
}

// CotanWeight returns the sum of the cotangents of the angles opposite to
// e in its incident triangles. Border sides contribute nothing.
func CotanWeight(m *mesh.SurfaceMesh, e mesh.Edge) float64 {
	var w float64
	for i := 0; i < 2; i++ {
		h := e.Halfedge(i)
		if m.IsBorderHalfedge(h) {
			continue
		}
		p0 := m.Point(m.ToVertex(h))
		p1 := m.Point(m.FromVertex(h))
		p2 := m.Point(m.ToVertex(m.Next(h)))
		d0, d1 := r3.Sub(p0, p2), r3.Sub(p1, p2)
		area := r3.Norm(r3.Cross(d0, d1))
		if area > math.SmallestNonzeroFloat64 {
			w += clampCot(r3.Dot(d0, d1) / area)
		}
	}
	return w
}

// VoronoiArea returns the mixed Voronoi area of v: the Voronoi region
// inside non-obtuse triangles and a fixed fraction of obtuse ones.
func VoronoiArea(m *mesh.SurfaceMesh, v mesh.Vertex) float64 {
	var area float64
	for h0 := range m.HalfedgesAroundVertex(v) {
		if m.IsBorderHalfedge(h0) {
			continue
		}
		h1 := m.Next(h0)
		h2 := m.Next(h1)
		p := m.Point(m.ToVertex(h2))
		q := m.Point(m.ToVertex(h0))
		r := m.Point(m.ToVertex(h1))
		pq, qr, pr := r3.Sub(q, p), r3.Sub(r, q), r3.Sub(r, p)
		triArea := r3.Norm(r3.Cross(pq, pr))
		if triArea <= math.SmallestNonzeroFloat64 {
			continue
		}
		dotp := r3.Dot(pq, pr)
		dotq := -r3.Dot(qr, pq)
		dotr := r3.Dot(qr, pr)
		switch {
		case dotp < 0:
			area += 0.25 * triArea
		case dotq < 0 || dotr < 0:
			area += 0.125 * triArea
		default:
			cotq, cotr := dotq/triArea, dotr/triArea
			area += 0.125 * (r3.Norm2(pr)*clampCot(cotq) + r3.Norm2(pq)*clampCot(cotr))
		}
	}
	return area
}

// VoronoiAreaBarycentric returns a third of the area of the faces around v.
func VoronoiAreaBarycentric(m *mesh.SurfaceMesh, v mesh.Vertex) float64 {
	var area float64
	p := m.Point(v)
	for h := range m.HalfedgesAroundVertex(v) {
		if m.IsBorderHalfedge(h) {
			continue
		}
		q := m.Point(m.ToVertex(h))
		r := m.Point(m.ToVertex(m.Next(h)))
		area += r3.Norm(r3.Cross(r3.Sub(q, p), r3.Sub(r, p))) / 6
	}
	return area
}

// Laplace returns the cotangent Laplace-Beltrami vector at v normalized by
// its Voronoi area. It points along the mean curvature normal.
func Laplace(m *mesh.SurfaceMesh, v mesh.Vertex) r3.Vec {
	if m.IsIsolated(v) {
		return r3.Vec{}
	}
	var (
		lap  r3.Vec
		wsum float64
	)
	for h := range m.HalfedgesAroundVertex(v) {
		w := CotanWeight(m, h.Edge())
		wsum += w
		lap = r3.Add(lap, r3.Scale(w, m.Point(m.ToVertex(h))))
	}
	lap = r3.Sub(lap, r3.Scale(wsum, m.Point(v)))
	area := VoronoiArea(m, v)
	if area <= math.SmallestNonzeroFloat64 {
		return r3.Vec{}
	}
	return r3.Scale(1/(2*area), lap)
}

// AngleSum returns the sum of the corner angles at v. Border vertices
// return zero.
func AngleSum(m *mesh.SurfaceMesh, v mesh.Vertex) float64 {
	if m.IsBorderVertex(v) {
		return 0
	}
	var sum float64
	p0 := m.Point(v)
	for h := range m.HalfedgesAroundVertex(v) {
		p1 := m.Point(m.ToVertex(h))
		p2 := m.Point(m.ToVertex(m.CCWRotated(h)))
		sum += d3.Angle(r3.Sub(p1, p0), r3.Sub(p2, p0))
	}
	return sum
}

// Curvature holds discrete curvatures of a vertex.
type Curvature struct {
	Mean  float64
	Gauss float64
	Min   float64
	Max   float64
}

// VertexCurvature estimates the curvatures at v. Values at border
// vertices are unreliable.
func VertexCurvature(m *mesh.SurfaceMesh, v mesh.Vertex) Curvature {
	var c Curvature
	area := VoronoiArea(m, v)
	if area <= math.SmallestNonzeroFloat64 {
		return c
	}
	c.Mean = 0.5 * r3.Norm(Laplace(m, v))
	c.Gauss = (2*math.Pi - AngleSum(m, v)) / area
	s := math.Sqrt(math.Max(0, c.Mean*c.Mean-c.Gauss))
	c.Min = c.Mean - s
	c.Max = c.Mean + s
	return c
}
