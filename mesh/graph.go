package mesh

import (
	"io"
	"iter"
	"slices"

	"github.com/soypat/meshden/internal/monitoring"
	"github.com/soypat/meshden/props"
	"gonum.org/v1/gonum/spatial/r3"
)

// incidence lists the edges touching a graph vertex.
type incidence struct {
	edges []Edge
}

// Clone implements props.Cloner so cloned graphs do not share lists.
func (in incidence) Clone() incidence {
	return incidence{edges: slices.Clone(in.edges)}
}

type endpoints struct {
	source, target Vertex
}

// Graph is a vertex/edge network without faces, such as a wireframe or
// the edge skeleton of a surface. Deleted elements stay in the pools,
// flagged, until CollectGarbage.
type Graph struct {
	vprops props.Container
	eprops props.Container
	mprops props.Container

	vconn    props.Property[incidence]
	econn    props.Property[endpoints]
	vpoint   props.Property[r3.Vec]
	vdeleted props.Property[bool]
	edeleted props.Property[bool]

	deletedVertices int
	deletedEdges    int
	garbage         bool
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	g := &Graph{}
	mustAdd(&g.vprops, propVertexConn, incidence{})
	mustAdd(&g.vprops, propPoint, r3.Vec{})
	mustAdd(&g.vprops, propVertexDel, false)
	mustAdd(&g.eprops, propEdgeConn, endpoints{NoVertex, NoVertex})
	mustAdd(&g.eprops, propEdgeDel, false)
	g.mprops.PushBack()
	g.bind()
	return g
}

func (g *Graph) bind() {
	g.vconn = mustGet[incidence](&g.vprops, propVertexConn)
	g.vpoint = mustGet[r3.Vec](&g.vprops, propPoint)
	g.vdeleted = mustGet[bool](&g.vprops, propVertexDel)
	g.econn = mustGet[endpoints](&g.eprops, propEdgeConn)
	g.edeleted = mustGet[bool](&g.eprops, propEdgeDel)
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	cp := &Graph{
		vprops:          *g.vprops.Clone(),
		eprops:          *g.eprops.Clone(),
		mprops:          *g.mprops.Clone(),
		deletedVertices: g.deletedVertices,
		deletedEdges:    g.deletedEdges,
		garbage:         g.garbage,
	}
	cp.bind()
	return cp
}

// FromSurface builds the edge graph of a surface mesh. Graph vertex i
// corresponds to surface vertex i only if m has no garbage.
func FromSurface(m *SurfaceMesh) *Graph {
	g := NewGraph()
	g.vprops.Reserve(m.NumVertices())
	g.eprops.Reserve(m.NumEdges())
	vmap := make([]Vertex, m.VerticesSize())
	for v := range m.Vertices() {
		vmap[v] = g.AddVertex(m.Point(v))
	}
	for e := range m.Edges() {
		g.AddEdge(vmap[m.EdgeVertex(e, 0)], vmap[m.EdgeVertex(e, 1)])
	}
	return g
}

func (g *Graph) VertexProps() *props.Container { return &g.vprops }
func (g *Graph) EdgeProps() *props.Container   { return &g.eprops }
func (g *Graph) ModelProps() *props.Container  { return &g.mprops }

// RemoveVertexProperty removes a user vertex property.
func (g *Graph) RemoveVertexProperty(name string) bool {
	return !isStandard(name) && g.vprops.Remove(name)
}

// RemoveEdgeProperty removes a user edge property.
func (g *Graph) RemoveEdgeProperty(name string) bool {
	return !isStandard(name) && g.eprops.Remove(name)
}

// PropertyStats writes the property names of every element kind to w.
func (g *Graph) PropertyStats(w io.Writer) error {
	return writeStats(w, []statGroup{
		{"vertex", &g.vprops},
		{"edge", &g.eprops},
		{"model", &g.mprops},
	})
}

func (g *Graph) VerticesSize() int { return g.vprops.Size() }
func (g *Graph) EdgesSize() int    { return g.eprops.Size() }
func (g *Graph) NumVertices() int  { return g.VerticesSize() - g.deletedVertices }
func (g *Graph) NumEdges() int     { return g.EdgesSize() - g.deletedEdges }
func (g *Graph) HasGarbage() bool  { return g.garbage }

func (g *Graph) IsValidVertex(v Vertex) bool   { return v >= 0 && int(v) < g.VerticesSize() }
func (g *Graph) IsValidEdge(e Edge) bool       { return e >= 0 && int(e) < g.EdgesSize() }
func (g *Graph) IsDeletedVertex(v Vertex) bool { return g.vdeleted.At(int(v)) }
func (g *Graph) IsDeletedEdge(e Edge) bool     { return g.edeleted.At(int(e)) }

func (g *Graph) Point(v Vertex) r3.Vec         { return g.vpoint.At(int(v)) }
func (g *Graph) SetPoint(v Vertex, p r3.Vec)   { g.vpoint.Set(int(v), p) }
func (g *Graph) Points() []r3.Vec              { return g.vpoint.Data() }
func (g *Graph) Source(e Edge) Vertex          { return g.econn.At(int(e)).source }
func (g *Graph) Target(e Edge) Vertex          { return g.econn.At(int(e)).target }
func (g *Graph) Valence(v Vertex) int          { return len(g.vconn.At(int(v)).edges) }
func (g *Graph) IsIsolated(v Vertex) bool      { return g.Valence(v) == 0 }
func (g *Graph) EdgeLength(e Edge) float64     { return r3.Norm(r3.Sub(g.Point(g.Target(e)), g.Point(g.Source(e)))) }
func (g *Graph) edgesOf(v Vertex) []Edge       { return g.vconn.At(int(v)).edges }
func (g *Graph) setEdgesOf(v Vertex, e []Edge) { g.vconn.Ptr(int(v)).edges = e }

// EdgeVertex returns the source (i == 0) or target (i == 1) of e.
func (g *Graph) EdgeVertex(e Edge, i int) Vertex {
	if i == 0 {
		return g.Source(e)
	}
	return g.Target(e)
}

// AddVertex appends an isolated vertex at p.
func (g *Graph) AddVertex(p r3.Vec) Vertex {
	g.vprops.PushBack()
	v := Vertex(g.VerticesSize() - 1)
	g.vpoint.Set(int(v), p)
	return v
}

// AddEdge joins v0 and v1. If they are already joined the existing edge is
// returned.
func (g *Graph) AddEdge(v0, v1 Vertex) Edge {
	if v0 == v1 {
		panic("mesh: AddEdge with equal endpoints")
	}
	if e := g.FindEdge(v0, v1); e.IsValid() {
		monitoring.Logf("mesh: edge %d already joins vertices %d and %d", e, v0, v1)
		return e
	}
	g.eprops.PushBack()
	e := Edge(g.EdgesSize() - 1)
	g.econn.Set(int(e), endpoints{source: v0, target: v1})
	g.setEdgesOf(v0, append(g.edgesOf(v0), e))
	g.setEdgesOf(v1, append(g.edgesOf(v1), e))
	return e
}

// FindEdge returns the edge joining a and b in either direction, or NoEdge.
func (g *Graph) FindEdge(a, b Vertex) Edge {
	for _, e := range g.edgesOf(a) {
		if g.opposite(e, a) == b {
			return e
		}
	}
	return NoEdge
}

func (g *Graph) opposite(e Edge, v Vertex) Vertex {
	c := g.econn.At(int(e))
	if c.source == v {
		return c.target
	}
	return c.source
}

// Vertices iterates over live vertices.
func (g *Graph) Vertices() iter.Seq[Vertex] {
	return func(yield func(Vertex) bool) {
		n := g.VerticesSize()
		for i := 0; i < n; i++ {
			if g.vdeleted.At(i) {
				continue
			}
			if !yield(Vertex(i)) {
				return
			}
		}
	}
}

// Edges iterates over live edges.
func (g *Graph) Edges() iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		n := g.EdgesSize()
		for i := 0; i < n; i++ {
			if g.edeleted.At(i) {
				continue
			}
			if !yield(Edge(i)) {
				return
			}
		}
	}
}

// EdgesAroundVertex iterates over the edges incident to v.
func (g *Graph) EdgesAroundVertex(v Vertex) iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		for _, e := range g.edgesOf(v) {
			if !yield(e) {
				return
			}
		}
	}
}

// VerticesAroundVertex iterates over the neighbours of v.
func (g *Graph) VerticesAroundVertex(v Vertex) iter.Seq[Vertex] {
	return func(yield func(Vertex) bool) {
		for _, e := range g.edgesOf(v) {
			if !yield(g.opposite(e, v)) {
				return
			}
		}
	}
}

// DeleteEdge deletes e and drops it from its endpoints' incidence lists.
func (g *Graph) DeleteEdge(e Edge) {
	if g.IsDeletedEdge(e) {
		return
	}
	c := g.econn.At(int(e))
	g.setEdgesOf(c.source, slices.DeleteFunc(g.edgesOf(c.source), func(x Edge) bool { return x == e }))
	g.setEdgesOf(c.target, slices.DeleteFunc(g.edgesOf(c.target), func(x Edge) bool { return x == e }))
	g.edeleted.Set(int(e), true)
	g.deletedEdges++
	g.garbage = true
}

// DeleteVertex deletes v and every edge incident to it.
func (g *Graph) DeleteVertex(v Vertex) {
	if g.IsDeletedVertex(v) {
		return
	}
	for _, e := range slices.Clone(g.edgesOf(v)) {
		g.DeleteEdge(e)
	}
	g.vdeleted.Set(int(v), true)
	g.deletedVertices++
	g.garbage = true
}

// CollectGarbage removes deleted elements and remaps incidence lists and
// edge endpoints.
func (g *Graph) CollectGarbage() {
	if !g.garbage {
		return
	}
	nV, nE := g.VerticesSize(), g.EdgesSize()
	vmap := mustAdd(&g.vprops, "v:garbage-collection", NoVertex)
	emap := mustAdd(&g.eprops, "e:garbage-collection", NoEdge)
	for i := 0; i < nV; i++ {
		vmap.Set(i, Vertex(i))
	}
	for i := 0; i < nE; i++ {
		emap.Set(i, Edge(i))
	}
	nV = partition(nV, g.vdeleted.Data(), g.vprops.Swap)
	nE = partition(nE, g.edeleted.Data(), g.eprops.Swap)

	for i := 0; i < nV; i++ {
		edges := g.edgesOf(Vertex(i))
		for j, e := range edges {
			edges[j] = emap.At(int(e))
		}
	}
	for i := 0; i < nE; i++ {
		c := g.econn.Ptr(i)
		c.source = vmap.At(int(c.source))
		c.target = vmap.At(int(c.target))
	}

	g.vprops.Remove(vmap.Name())
	g.eprops.Remove(emap.Name())
	g.vprops.Resize(nV)
	g.vprops.FreeMemory()
	g.eprops.Resize(nE)
	g.eprops.FreeMemory()
	g.deletedVertices, g.deletedEdges = 0, 0
	g.garbage = false
}
