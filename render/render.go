// Package render moves surface meshes in and out of triangle soups: binary
// STL files, vertex welding and shaded PNG previews.
package render

import (
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/meshden/internal/d3"
	"github.com/soypat/meshden/mesh"
)

// Triangle3 is a triangle with counter clockwise vertex order.
type Triangle3 struct {
	V [3]r3.Vec
}

// Normal returns the unit normal of t, the zero vector if t is degenerate.
func (t Triangle3) Normal() r3.Vec {
	return d3.Triangle(t.V).Normal()
}

// Degenerate reports whether two vertices of t lie within tol of each other.
func (t Triangle3) Degenerate(tol float64) bool {
	return d3.EqualWithin(t.V[0], t.V[1], tol) ||
		d3.EqualWithin(t.V[1], t.V[2], tol) ||
		d3.EqualWithin(t.V[2], t.V[0], tol)
}

// TriangleReader streams triangles. ReadTriangles returns io.EOF once all
// triangles have been read.
type TriangleReader interface {
	ReadTriangles(t []Triangle3) (int, error)
}

// MeshReader streams the faces of a surface mesh as triangles. Polygons
// are fan triangulated.
type MeshReader struct {
	m    *mesh.SurfaceMesh
	next mesh.Face
	// pending triangles of a face that did not fit in the last read.
	pending []Triangle3
}

var _ TriangleReader = (*MeshReader)(nil)

// NewMeshReader returns a reader over the live faces of m. m must not be
// modified while reading.
func NewMeshReader(m *mesh.SurfaceMesh) *MeshReader {
	return &MeshReader{m: m}
}

// ReadTriangles implements TriangleReader.
func (r *MeshReader) ReadTriangles(dst []Triangle3) (n int, err error) {
	for n < len(dst) {
		if len(r.pending) > 0 {
			c := copy(dst[n:], r.pending)
			r.pending = r.pending[c:]
			n += c
			continue
		}
		if int(r.next) >= r.m.FacesSize() {
			return n, io.EOF
		}
		f := r.next
		r.next++
		if r.m.IsDeletedFace(f) {
			continue
		}
		r.pending = appendFace(r.pending[:0], r.m, f)
	}
	return n, nil
}

// Len returns the number of triangles left to read.
func (r *MeshReader) Len() int {
	n := len(r.pending)
	for f := r.next; int(f) < r.m.FacesSize(); f++ {
		if !r.m.IsDeletedFace(f) {
			n += r.m.FaceValence(f) - 2
		}
	}
	return n
}

// appendFace appends the fan triangulation of f to dst.
func appendFace(dst []Triangle3, m *mesh.SurfaceMesh, f mesh.Face) []Triangle3 {
	var first, prev r3.Vec
	i := 0
	for v := range m.VerticesAroundFace(f) {
		p := m.Point(v)
		if i == 0 {
			first = p
		} else if i > 1 {
			dst = append(dst, Triangle3{V: [3]r3.Vec{first, prev, p}})
		}
		prev = p
		i++
	}
	return dst
}
