package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/soypat/meshden/internal/d3"
	"github.com/soypat/meshden/mesh"
)

// vertexPoint is a kd-tree element carrying the vertex it was built from.
type vertexPoint struct {
	p r3.Vec
	v mesh.Vertex
}

func (a vertexPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	b := c.(vertexPoint)
	switch d {
	case 0:
		return a.p.X - b.p.X
	case 1:
		return a.p.Y - b.p.Y
	case 2:
		return a.p.Z - b.p.Z
	}
	panic("geom: illegal dimension")
}

func (a vertexPoint) Dims() int { return 3 }

func (a vertexPoint) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(a.p, c.(vertexPoint).p))
}

type vertexPoints []vertexPoint

func (p vertexPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p vertexPoints) Len() int                              { return len(p) }
func (p vertexPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }
func (p vertexPoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(plane{vertexPoints: p, dim: d}, kdtree.MedianOfMedians(plane{vertexPoints: p, dim: d}))
}

// plane sorts vertexPoints along one axis.
type plane struct {
	vertexPoints
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool { return p.vertexPoints[i].Compare(p.vertexPoints[j], p.dim) < 0 }
func (p plane) Swap(i, j int)      { p.vertexPoints[i], p.vertexPoints[j] = p.vertexPoints[j], p.vertexPoints[i] }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.vertexPoints = p.vertexPoints[start:end]
	return p
}

// VertexTree answers nearest vertex queries on a snapshot of a mesh's
// vertex positions. It does not follow later edits of the mesh.
type VertexTree struct {
	tree *kdtree.Tree
}

// NewVertexTree indexes the live vertices of m.
func NewVertexTree(m *mesh.SurfaceMesh) *VertexTree {
	pts := make(vertexPoints, 0, m.NumVertices())
	for v := range m.Vertices() {
		pts = append(pts, vertexPoint{p: m.Point(v), v: v})
	}
	return &VertexTree{tree: kdtree.New(pts, false)}
}

// Nearest returns the vertex closest to p and its distance. It returns
// mesh.NoVertex and +Inf for an empty tree.
func (t *VertexTree) Nearest(p r3.Vec) (mesh.Vertex, float64) {
	if t.tree.Len() == 0 {
		return mesh.NoVertex, math.Inf(1)
	}
	c, d2 := t.tree.Nearest(vertexPoint{p: p})
	return c.(vertexPoint).v, math.Sqrt(d2)
}

// DistanceToSurface approximates the distance from p to the surface of m:
// it returns the smallest distance from p to the faces around the vertex of
// m nearest to p. tree must index m.
func DistanceToSurface(m *mesh.SurfaceMesh, tree *VertexTree, p r3.Vec) float64 {
	v, d := tree.Nearest(p)
	if !v.IsValid() {
		return d
	}
	for f := range m.FacesAroundVertex(v) {
		h := m.FaceHalfedge(f)
		first := m.Point(m.ToVertex(h))
		for h = m.Next(h); m.Next(h) != m.FaceHalfedge(f); h = m.Next(h) {
			tri := d3.Triangle{first, m.Point(m.ToVertex(h)), m.Point(m.ToVertex(m.Next(h)))}
			d = math.Min(d, r3.Norm(r3.Sub(p, tri.Closest(p))))
		}
	}
	return d
}

// MeanDistance returns the mean distance from the vertices of a to the
// surface of b. It is zero if a has no vertices.
func MeanDistance(a, b *mesh.SurfaceMesh) float64 {
	if a.NumVertices() == 0 {
		return 0
	}
	tree := NewVertexTree(b)
	dist := make([]float64, 0, a.NumVertices())
	for v := range a.Vertices() {
		dist = append(dist, DistanceToSurface(b, tree, a.Point(v)))
	}
	return stat.Mean(dist, nil)
}

// Displacements returns how far every live vertex of after moved from its
// position in before. Both meshes must share vertex handles.
func Displacements(before, after *mesh.SurfaceMesh) []float64 {
	var d []float64
	for v := range after.Vertices() {
		if int(v) >= before.VerticesSize() {
			break
		}
		d = append(d, r3.Norm(r3.Sub(after.Point(v), before.Point(v))))
	}
	return d
}
