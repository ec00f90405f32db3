package mesh

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/soypat/meshden/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func tetrahedron(t *testing.T) *SurfaceMesh {
	t.Helper()
	m := New()
	v0 := m.AddVertex(r3.Vec{X: 0, Y: 0, Z: 0})
	v1 := m.AddVertex(r3.Vec{X: 1, Y: 0, Z: 0})
	v2 := m.AddVertex(r3.Vec{X: 0, Y: 1, Z: 0})
	v3 := m.AddVertex(r3.Vec{X: 0, Y: 0, Z: 1})
	for _, tri := range [][3]Vertex{{v0, v2, v1}, {v0, v1, v3}, {v1, v2, v3}, {v0, v3, v2}} {
		_, err := m.AddTriangle(tri[0], tri[1], tri[2])
		require.NoError(t, err)
	}
	return m
}

// grid returns an n by n vertex triangulated grid in the z=0 plane.
func grid(t *testing.T, n int) *SurfaceMesh {
	t.Helper()
	m := New()
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			m.AddVertex(r3.Vec{X: float64(i), Y: float64(j)})
		}
	}
	at := func(i, j int) Vertex { return Vertex(j*n + i) }
	for j := 0; j < n-1; j++ {
		for i := 0; i < n-1; i++ {
			_, err := m.AddTriangle(at(i, j), at(i+1, j), at(i+1, j+1))
			require.NoError(t, err)
			_, err = m.AddTriangle(at(i, j), at(i+1, j+1), at(i, j+1))
			require.NoError(t, err)
		}
	}
	return m
}

// checkTopology verifies the halfedge invariants of every live element.
func checkTopology(t *testing.T, m *SurfaceMesh) {
	t.Helper()
	for h := range m.Halfedges() {
		require.True(t, m.IsValidHalfedge(m.Next(h)), "halfedge %d has no next", h)
		require.Equal(t, h, m.Prev(m.Next(h)), "prev(next(%d))", h)
		require.Equal(t, m.FromVertex(h), m.ToVertex(m.Prev(h)), "halfedge %d chain broken", h)
		require.Equal(t, m.Face(h), m.Face(m.Next(h)), "halfedge %d face mismatch", h)
		require.False(t, m.IsDeletedHalfedge(m.Next(h)))
		if f := m.Face(h); f.IsValid() {
			require.True(t, m.IsValidFace(f))
			require.False(t, m.IsDeletedFace(f))
		}
	}
	for v := range m.Vertices() {
		h := m.VertexHalfedge(v)
		if !h.IsValid() {
			continue
		}
		require.True(t, m.IsValidHalfedge(h))
		require.Equal(t, v, m.FromVertex(h), "vertex %d outgoing halfedge", v)
	}
	for f := range m.Faces() {
		for h := range m.HalfedgesAroundFace(f) {
			require.Equal(t, f, m.Face(h))
		}
	}
	require.Len(t, m.Points(), m.VerticesSize())
	require.Len(t, m.hconn.Data(), m.HalfedgesSize())
	require.Len(t, m.edeleted.Data(), m.EdgesSize())
	require.Len(t, m.fconn.Data(), m.FacesSize())
}

func TestAddTriangle(t *testing.T) {
	m := New()
	a := m.AddVertex(r3.Vec{})
	b := m.AddVertex(r3.Vec{X: 1})
	c := m.AddVertex(r3.Vec{Y: 1})
	f, err := m.AddTriangle(a, b, c)
	require.NoError(t, err)
	assert.Equal(t, Face(0), f)
	assert.Equal(t, 3, m.NumVertices())
	assert.Equal(t, 3, m.NumEdges())
	assert.Equal(t, 6, m.NumHalfedges())
	assert.Equal(t, 1, m.NumFaces())
	for v := range m.Vertices() {
		assert.True(t, m.IsBorderVertex(v))
		assert.Equal(t, 2, m.Valence(v))
	}
	for e := range m.Edges() {
		assert.True(t, m.IsBorderEdge(e))
	}
	assert.Equal(t, []Vertex{b, c, a}, slices.Collect(m.VerticesAroundFace(f)))
	assert.True(t, m.IsTriangleMesh())
	assert.True(t, m.IsBorderFace(f))
	checkTopology(t, m)
}

func TestTetrahedronClosed(t *testing.T) {
	m := tetrahedron(t)
	assert.Equal(t, 4, m.NumVertices())
	assert.Equal(t, 6, m.NumEdges())
	assert.Equal(t, 4, m.NumFaces())
	for v := range m.Vertices() {
		assert.False(t, m.IsBorderVertex(v))
		assert.Equal(t, 3, m.Valence(v))
		assert.Len(t, slices.Collect(m.FacesAroundVertex(v)), 3)
	}
	for e := range m.Edges() {
		assert.False(t, m.IsBorderEdge(e))
	}
	for f := range m.Faces() {
		assert.Equal(t, 3, m.FaceValence(f))
		assert.False(t, m.IsBorderFace(f))
	}
	checkTopology(t, m)
}

func TestAddFaceErrors(t *testing.T) {
	m := tetrahedron(t)
	nv, ne, nf := m.VerticesSize(), m.EdgesSize(), m.FacesSize()

	_, err := m.AddTriangle(0, 2, 1)
	assert.ErrorIs(t, err, ErrComplexVertex, "closed mesh has no border vertices")

	_, err = m.AddFace(0, 1)
	assert.ErrorIs(t, err, ErrDegenerateFace)
	_, err = m.AddFace(0, 1, 1)
	assert.ErrorIs(t, err, ErrDegenerateFace)
	_, err = m.AddFace(0, 1, 17)
	assert.ErrorIs(t, err, ErrDegenerateFace)

	assert.Equal(t, nv, m.VerticesSize())
	assert.Equal(t, ne, m.EdgesSize())
	assert.Equal(t, nf, m.FacesSize())

	g := grid(t, 2)
	_, err = g.AddTriangle(0, 1, 3)
	assert.ErrorIs(t, err, ErrComplexEdge, "halfedge 0->1 already has a face")
	checkTopology(t, g)
}

func TestAddFaceRelinksPatches(t *testing.T) {
	m := New()
	center := m.AddVertex(r3.Vec{})
	var ring [6]Vertex
	for i := range ring {
		a := float64(i) * math.Pi / 3
		ring[i] = m.AddVertex(r3.Vec{X: math.Cos(a), Y: math.Sin(a)})
	}
	// Fill alternating wedges first so later faces must join separate patches.
	for _, i := range []int{0, 2, 4, 1, 3, 5} {
		_, err := m.AddTriangle(center, ring[i], ring[(i+1)%6])
		require.NoError(t, err, "wedge %d", i)
		checkTopology(t, m)
	}
	assert.False(t, m.IsBorderVertex(center))
	assert.Equal(t, 6, m.Valence(center))
	assert.Equal(t, 6, m.NumFaces())
	assert.Equal(t, 12, m.NumEdges())

	// Disjoint triangles sharing a single vertex then bridged by a third.
	m = New()
	vs := make([]Vertex, 5)
	for i := range vs {
		vs[i] = m.AddVertex(r3.Vec{X: float64(i)})
	}
	_, err := m.AddTriangle(vs[0], vs[1], vs[2])
	require.NoError(t, err)
	_, err = m.AddTriangle(vs[0], vs[3], vs[4])
	require.NoError(t, err)
	assert.False(t, m.IsManifold(vs[0]), "two gaps at the shared vertex")
	_, err = m.AddTriangle(vs[0], vs[2], vs[3])
	require.NoError(t, err)
	assert.True(t, m.IsManifold(vs[0]))
	checkTopology(t, m)
}

func TestAddEdge(t *testing.T) {
	orig := monitoring.Logf
	defer func() { monitoring.Logf = orig }()
	var logged []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		logged = append(logged, fmt.Sprintf(format, v...))
	})

	m := New()
	a := m.AddVertex(r3.Vec{})
	b := m.AddVertex(r3.Vec{X: 1})
	c := m.AddVertex(r3.Vec{Y: 1})
	eab, err := m.AddEdge(a, b)
	require.NoError(t, err)
	ebc, err := m.AddEdge(b, c)
	require.NoError(t, err)
	assert.Equal(t, 2, m.NumEdges())
	assert.Equal(t, 2, m.Valence(b))
	checkTopology(t, m)

	again, err := m.AddEdge(b, a)
	require.NoError(t, err)
	assert.Equal(t, eab, again)
	assert.Equal(t, 2, m.NumEdges())
	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "already joins")

	f, err := m.AddTriangle(a, b, c)
	require.NoError(t, err)
	assert.Equal(t, 3, m.NumEdges(), "existing edges must be reused")
	assert.Equal(t, f, m.Face(m.FindHalfedge(b, c)))
	assert.Equal(t, ebc, m.FindEdge(c, b))
	checkTopology(t, m)

	m.DeleteEdge(eab)
	assert.True(t, m.IsDeletedFace(f))
	assert.Panics(t, func() { m.AddEdge(a, a) })

	closed := tetrahedron(t)
	_, err = closed.AddEdge(0, closed.AddVertex(r3.Vec{X: 5}))
	assert.ErrorIs(t, err, ErrComplexVertex)
}

func TestDeleteVertexCollectGarbage(t *testing.T) {
	m := grid(t, 4)
	const center = Vertex(9) // (1,2): removing it isolates no neighbour.
	neighbours := slices.Collect(m.VerticesAroundVertex(center))
	require.Len(t, neighbours, 6)
	nv := m.VerticesSize()
	movedPoint := m.Point(Vertex(nv - 1))

	m.DeleteVertex(center)
	assert.True(t, m.HasGarbage())
	assert.True(t, m.IsDeletedVertex(center))
	assert.Equal(t, nv-1, m.NumVertices())
	assert.Equal(t, 12, m.NumFaces())
	for _, v := range neighbours {
		assert.NotContains(t, slices.Collect(m.VerticesAroundVertex(v)), center)
		assert.True(t, m.IsBorderVertex(v))
	}
	checkTopology(t, m)

	m.CollectGarbage()
	assert.False(t, m.HasGarbage())
	assert.Equal(t, nv-1, m.VerticesSize())
	assert.Equal(t, m.NumVertices(), m.VerticesSize())
	assert.Equal(t, m.NumEdges(), m.EdgesSize())
	assert.Equal(t, 12, m.FacesSize())
	assert.Equal(t, movedPoint, m.Point(center), "last vertex fills the hole")
	checkTopology(t, m)
	for v := range m.Vertices() {
		for w := range m.VerticesAroundVertex(v) {
			assert.True(t, m.IsValidVertex(w))
		}
	}
}

func TestDeleteEdgeCascades(t *testing.T) {
	m := tetrahedron(t)
	e := m.FindEdge(0, 1)
	require.True(t, e.IsValid())
	m.DeleteEdge(e)
	assert.Equal(t, 2, m.NumFaces())
	assert.Equal(t, 5, m.NumEdges())
	assert.Equal(t, 4, m.NumVertices())
	assert.False(t, m.FindEdge(0, 1).IsValid())
	checkTopology(t, m)

	m.DeleteEdge(e)
	assert.Equal(t, 2, m.NumFaces(), "second delete is a no-op")

	m.CollectGarbage()
	checkTopology(t, m)
	assert.Equal(t, 5, m.EdgesSize())
	assert.Equal(t, 10, m.HalfedgesSize())
}

func TestDeleteAllFaces(t *testing.T) {
	m := grid(t, 3)
	for _, f := range slices.Collect(m.Faces()) {
		m.DeleteFace(f)
	}
	assert.Zero(t, m.NumFaces())
	assert.Zero(t, m.NumEdges())
	assert.Zero(t, m.NumVertices(), "vertices left isolated are deleted")
	m.CollectGarbage()
	assert.True(t, m.IsEmpty())
	assert.Zero(t, m.HalfedgesSize())
}

func TestCollectGarbageIdempotent(t *testing.T) {
	m := grid(t, 4)
	m.DeleteVertex(5)
	m.DeleteFace(Face(m.FacesSize() - 1))
	m.CollectGarbage()

	w, err := AddVertexProperty(m, "v:weight", 0.0)
	require.NoError(t, err)
	for v := range m.Vertices() {
		w.Set(v, float64(v))
	}
	points := slices.Clone(m.Points())
	weights := slices.Clone(w.Data())
	sizes := [4]int{m.VerticesSize(), m.HalfedgesSize(), m.EdgesSize(), m.FacesSize()}

	m.CollectGarbage()
	if diff := cmp.Diff(points, m.Points()); diff != "" {
		t.Errorf("points changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(weights, w.Data()); diff != "" {
		t.Errorf("weights changed (-want +got):\n%s", diff)
	}
	assert.Equal(t, sizes, [4]int{m.VerticesSize(), m.HalfedgesSize(), m.EdgesSize(), m.FacesSize()})
}

func TestCollectGarbageCarriesUserProperties(t *testing.T) {
	m := grid(t, 3)
	id, err := AddVertexProperty(m, "v:id", NoVertex)
	require.NoError(t, err)
	for v := range m.Vertices() {
		id.Set(v, v)
	}
	fid := FacePropertyOf(m, "f:id", -1)
	for f := range m.Faces() {
		fid.Set(f, int(f))
	}
	m.DeleteVertex(0)
	m.CollectGarbage()
	for v := range m.Vertices() {
		want := r3.Vec{X: float64(int(id.At(v)) % 3), Y: float64(int(id.At(v)) / 3)}
		assert.Equal(t, want, m.Point(v), "property moved with vertex %d", v)
	}
	seen := map[int]bool{}
	for f := range m.Faces() {
		assert.False(t, seen[fid.At(f)])
		seen[fid.At(f)] = true
	}
	assert.Len(t, seen, m.NumFaces())
}

func TestCloneIndependent(t *testing.T) {
	m := tetrahedron(t)
	tag := VertexPropertyOf(m, "v:tag", "")
	tag.Set(0, "apex")
	cp := m.Clone()
	cp.SetPoint(0, r3.Vec{X: 9})
	GetVertexProperty[string](cp, "v:tag").Set(0, "moved")
	cp.DeleteVertex(1)
	cp.CollectGarbage()

	assert.Equal(t, r3.Vec{}, m.Point(0))
	assert.Equal(t, "apex", tag.At(0))
	assert.Equal(t, 4, m.NumFaces())
	assert.False(t, m.HasGarbage())
	checkTopology(t, m)
	checkTopology(t, cp)
}

func TestPropertyAccessors(t *testing.T) {
	m := grid(t, 2)
	_, err := AddFaceProperty(m, "f:normal", r3.Vec{})
	require.NoError(t, err)
	_, err = AddFaceProperty(m, "f:normal", r3.Vec{})
	assert.Error(t, err)
	assert.False(t, GetFaceProperty[int](m, "f:normal").Valid())

	ep := EdgePropertyOf(m, "e:cotan", 0.0)
	assert.Len(t, ep.Data(), m.EdgesSize())
	hp := HalfedgePropertyOf(m, "h:flag", false)
	assert.Len(t, hp.Data(), m.HalfedgesSize())
	mp, err := AddModelProperty(m, "m:name", "grid")
	require.NoError(t, err)
	assert.Equal(t, "grid", mp.Get())
	assert.Equal(t, "grid", GetModelProperty[string](m, "m:name").Get())

	assert.False(t, m.RemoveVertexProperty("v:point"), "standard properties stay")
	assert.False(t, m.RemoveFaceProperty("f:connectivity"))
	assert.True(t, m.RemoveEdgeProperty("e:cotan"))
	assert.True(t, m.RemoveHalfedgeProperty("h:flag"))
	assert.True(t, m.RemoveModelProperty("m:name"))

	var buf bytes.Buffer
	require.NoError(t, m.PropertyStats(&buf))
	assert.Contains(t, buf.String(), "v:point")
	assert.Contains(t, buf.String(), "f:normal")
	assert.NotContains(t, buf.String(), "e:cotan")

	m.Clear()
	assert.True(t, m.IsEmpty())
	assert.False(t, GetFaceProperty[r3.Vec](m, "f:normal").Valid())
	assert.True(t, m.PointProperty().Valid())
	m.Reserve(10, 30, 20)
	v := m.AddVertex(r3.Vec{Z: 1})
	assert.Equal(t, r3.Vec{Z: 1}, m.Point(v))
}

func TestIteratorsStopEarly(t *testing.T) {
	m := grid(t, 3)
	n := 0
	for range m.Faces() {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
	for v := range m.VerticesAroundVertex(4) {
		assert.True(t, m.IsValidVertex(v))
		break
	}
	// Iteration is restartable.
	assert.Equal(t, slices.Collect(m.Edges()), slices.Collect(m.Edges()))
	assert.Len(t, slices.Collect(m.Halfedges()), 2*m.NumEdges())
}
