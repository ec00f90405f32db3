// Package geom computes geometric quantities of surface meshes: face
// normals, areas and centroids, whole-mesh measures and the discrete
// differential operators used by smoothing.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/meshden/internal/d3"
	"github.com/soypat/meshden/mesh"
)

// FaceNormal returns the unit normal of f. Triangles use the cross product
// of two edges, larger polygons Newell's method. Degenerate faces have a
// zero normal.
func FaceNormal(m *mesh.SurfaceMesh, f mesh.Face) r3.Vec {
	h := m.FaceHalfedge(f)
	end := h
	p0 := m.Point(m.ToVertex(h))
	h = m.Next(h)
	p1 := m.Point(m.ToVertex(h))
	h = m.Next(h)
	p2 := m.Point(m.ToVertex(h))
	if m.Next(h) == end {
		return d3.Triangle{p1, p2, p0}.Normal()
	}
	return d3.Unit(newell(m, f))
}

// newell returns twice the vector area of f.
func newell(m *mesh.SurfaceMesh, f mesh.Face) r3.Vec {
	var n r3.Vec
	for h := range m.HalfedgesAroundFace(f) {
		p := m.Point(m.FromVertex(h))
		q := m.Point(m.ToVertex(h))
		n = r3.Add(n, r3.Cross(p, q))
	}
	return n
}

// VertexNormal returns the angle weighted mean of the normals of the faces
// around v, the zero vector for isolated vertices.
func VertexNormal(m *mesh.SurfaceMesh, v mesh.Vertex) r3.Vec {
	var n r3.Vec
	p0 := m.Point(v)
	for h := range m.HalfedgesAroundVertex(v) {
		if m.IsBorderHalfedge(h) {
			continue
		}
		p1 := r3.Sub(m.Point(m.ToVertex(h)), p0)
		p2 := r3.Sub(m.Point(m.FromVertex(m.Prev(h))), p0)
		angle := d3.Angle(p1, p2)
		n = r3.Add(n, r3.Scale(angle, FaceNormal(m, m.Face(h))))
	}
	return d3.Unit(n)
}

// CornerNormal returns the normal of the corner of face(h) at the target
// of h. Incident faces whose normal is within crease radians of face(h)'s
// are averaged with angle weights, so edges sharper than crease stay
// sharp. A crease near zero gives the face normal, one near π the vertex
// normal. Border halfedges have a zero corner normal.
func CornerNormal(m *mesh.SurfaceMesh, h mesh.Halfedge, crease float64) r3.Vec {
	const minCrease, maxCrease = 0.01, math.Pi * 179 / 180
	switch {
	case m.IsBorderHalfedge(h):
		return r3.Vec{}
	case crease < minCrease:
		return FaceNormal(m, m.Face(h))
	case crease > maxCrease:
		return VertexNormal(m, m.ToVertex(h))
	}
	cosCrease := math.Cos(crease)
	nf := FaceNormal(m, m.Face(h))
	p0 := m.Point(m.ToVertex(h))
	var nn r3.Vec
	end := h
	for {
		if !m.IsBorderHalfedge(h) {
			n := FaceNormal(m, m.Face(h))
			if r3.Dot(n, nf) >= cosCrease {
				p1 := r3.Sub(m.Point(m.ToVertex(m.Next(h))), p0)
				p2 := r3.Sub(m.Point(m.FromVertex(h)), p0)
				nn = r3.Add(nn, r3.Scale(d3.Angle(p1, p2), n))
			}
		}
		h = m.Next(h).Opposite()
		if h == end {
			break
		}
	}
	return d3.Unit(nn)
}

// FaceCentroid returns the mean of the corners of f.
func FaceCentroid(m *mesh.SurfaceMesh, f mesh.Face) r3.Vec {
	var c r3.Vec
	n := 0
	for v := range m.VerticesAroundFace(f) {
		c = r3.Add(c, m.Point(v))
		n++
	}
	if n == 0 {
		return c
	}
	return r3.Scale(1/float64(n), c)
}

// TriangleArea returns the area of the triangle (a, b, c).
func TriangleArea(a, b, c r3.Vec) float64 {
	return d3.Triangle{a, b, c}.Area()
}

// FaceArea returns the area of f. Non-planar polygons get the area of
// their projection onto the mean plane.
func FaceArea(m *mesh.SurfaceMesh, f mesh.Face) float64 {
	return 0.5 * r3.Norm(newell(m, f))
}

// SurfaceArea returns the summed area of all faces.
func SurfaceArea(m *mesh.SurfaceMesh) float64 {
	var area float64
	for f := range m.Faces() {
		area += FaceArea(m, f)
	}
	return area
}

// triangles calls fn for the fan triangulation of every face.
func triangles(m *mesh.SurfaceMesh, fn func(a, b, c r3.Vec)) {
	for f := range m.Faces() {
		var first, prev r3.Vec
		i := 0
		for v := range m.VerticesAroundFace(f) {
			p := m.Point(v)
			switch i {
			case 0:
				first = p
			case 1:
			default:
				fn(first, prev, p)
			}
			prev = p
			i++
		}
	}
}

// Volume returns the volume enclosed by a closed mesh.
func Volume(m *mesh.SurfaceMesh) float64 {
	var vol float64
	triangles(m, func(a, b, c r3.Vec) {
		vol += r3.Dot(a, r3.Cross(b, c)) / 6
	})
	if vol < 0 {
		return -vol
	}
	return vol
}

// Centroid returns the area weighted centroid of the surface. Meshes
// without area fall back to the mean vertex position.
func Centroid(m *mesh.SurfaceMesh) r3.Vec {
	var (
		center r3.Vec
		area   float64
	)
	triangles(m, func(a, b, c r3.Vec) {
		tri := d3.Triangle{a, b, c}
		w := tri.Area()
		area += w
		center = r3.Add(center, r3.Scale(w, tri.Centroid()))
	})
	if area > 0 {
		return r3.Scale(1/area, center)
	}
	var pts d3.Set
	for v := range m.Vertices() {
		pts = append(pts, m.Point(v))
	}
	return pts.Mean()
}

// Bounds returns the bounding box of the live vertices. The box of an
// empty mesh has Min > Max.
func Bounds(m *mesh.SurfaceMesh) r3.Box {
	b := d3.Empty()
	for v := range m.Vertices() {
		b = b.Include(m.Point(v))
	}
	return r3.Box(b)
}

// FaceNormals returns the normal of every face indexed by mesh.Face.
// Deleted faces hold the zero vector.
func FaceNormals(m *mesh.SurfaceMesh) []r3.Vec {
	return perFace(m, FaceNormal)
}

// FaceCentroids returns the centroid of every face indexed by mesh.Face.
func FaceCentroids(m *mesh.SurfaceMesh) []r3.Vec {
	return perFace(m, FaceCentroid)
}

// FaceAreas returns the area of every face indexed by mesh.Face.
func FaceAreas(m *mesh.SurfaceMesh) []float64 {
	return perFace(m, FaceArea)
}

func perFace[T any](m *mesh.SurfaceMesh, fn func(*mesh.SurfaceMesh, mesh.Face) T) []T {
	out := make([]T, m.FacesSize())
	for f := range m.Faces() {
		out[f] = fn(m, f)
	}
	return out
}
