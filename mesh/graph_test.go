package mesh

import (
	"bytes"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// square returns a 4-cycle with one diagonal.
func square() *Graph {
	g := NewGraph()
	a := g.AddVertex(r3.Vec{})
	b := g.AddVertex(r3.Vec{X: 1})
	c := g.AddVertex(r3.Vec{X: 1, Y: 1})
	d := g.AddVertex(r3.Vec{Y: 1})
	g.AddEdge(a, b)
	g.AddEdge(b, c)
	g.AddEdge(c, d)
	g.AddEdge(d, a)
	g.AddEdge(a, c)
	return g
}

func checkGraph(t *testing.T, g *Graph) {
	t.Helper()
	for e := range g.Edges() {
		s, d := g.Source(e), g.Target(e)
		require.True(t, g.IsValidVertex(s) && g.IsValidVertex(d))
		require.False(t, g.IsDeletedVertex(s) || g.IsDeletedVertex(d))
		require.Contains(t, g.edgesOf(s), e)
		require.Contains(t, g.edgesOf(d), e)
	}
	for v := range g.Vertices() {
		for _, e := range g.edgesOf(v) {
			require.True(t, g.IsValidEdge(e))
			require.False(t, g.IsDeletedEdge(e))
		}
	}
}

func TestGraphBasics(t *testing.T) {
	g := square()
	assert.Equal(t, 4, g.NumVertices())
	assert.Equal(t, 5, g.NumEdges())
	assert.Equal(t, 3, g.Valence(0))
	assert.Equal(t, 2, g.Valence(1))
	assert.Equal(t, Edge(4), g.FindEdge(2, 0))
	assert.False(t, g.FindEdge(1, 3).IsValid())
	assert.InDelta(t, 1.4142135623730951, g.EdgeLength(4), 1e-12)
	assert.ElementsMatch(t, []Vertex{1, 3, 2}, slices.Collect(g.VerticesAroundVertex(0)))
	assert.Equal(t, Vertex(0), g.EdgeVertex(0, 0))
	assert.Equal(t, Vertex(1), g.EdgeVertex(0, 1))

	assert.Equal(t, Edge(0), g.AddEdge(1, 0), "existing edge is returned")
	assert.Equal(t, 5, g.NumEdges())
	assert.Panics(t, func() { g.AddEdge(2, 2) })
	checkGraph(t, g)
}

func TestGraphDeleteVertexCollectGarbage(t *testing.T) {
	g := square()
	nv := g.VerticesSize()
	g.DeleteVertex(0)
	assert.True(t, g.HasGarbage())
	assert.Equal(t, 3, g.NumVertices())
	assert.Equal(t, 2, g.NumEdges(), "incident edges cascade")
	for v := range g.Vertices() {
		assert.NotContains(t, slices.Collect(g.VerticesAroundVertex(v)), Vertex(0))
	}
	checkGraph(t, g)

	g.CollectGarbage()
	assert.False(t, g.HasGarbage())
	assert.Equal(t, nv-1, g.VerticesSize())
	assert.Equal(t, 2, g.EdgesSize())
	checkGraph(t, g)
	// (0,1) was last and fills slot 0.
	assert.Equal(t, r3.Vec{Y: 1}, g.Point(0))
	assert.True(t, g.FindEdge(0, 2).IsValid())
	assert.True(t, g.FindEdge(1, 2).IsValid())
	assert.False(t, g.FindEdge(0, 1).IsValid())
}

func TestGraphCollectGarbageIdempotent(t *testing.T) {
	g := square()
	g.DeleteEdge(g.FindEdge(0, 2))
	g.CollectGarbage()
	snapshot := func() [][]Edge {
		var lists [][]Edge
		for v := range g.Vertices() {
			lists = append(lists, slices.Clone(g.edgesOf(v)))
		}
		return lists
	}
	before := snapshot()
	g.CollectGarbage()
	if diff := cmp.Diff(before, snapshot()); diff != "" {
		t.Errorf("incidence changed (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, g.EdgesSize())
}

func TestGraphCloneIndependent(t *testing.T) {
	g := square()
	cp := g.Clone()
	cp.DeleteEdge(0)
	assert.Len(t, g.edgesOf(0), 3, "clone must not share incidence lists")
	assert.Len(t, cp.edgesOf(0), 2)
	w := EdgePropertyOf(cp, "e:weight", 1.0)
	assert.Len(t, w.Data(), cp.EdgesSize())
	assert.False(t, GetEdgeProperty[float64](g, "e:weight").Valid())
}

func TestFromSurface(t *testing.T) {
	m := tetrahedron(t)
	g := FromSurface(m)
	assert.Equal(t, 4, g.NumVertices())
	assert.Equal(t, 6, g.NumEdges())
	for v := range g.Vertices() {
		assert.Equal(t, 3, g.Valence(v))
		assert.Equal(t, m.Point(v), g.Point(v))
	}
	var buf bytes.Buffer
	require.NoError(t, g.PropertyStats(&buf))
	assert.Contains(t, buf.String(), "e:connectivity")
	assert.False(t, g.RemoveVertexProperty("v:point"))
}
