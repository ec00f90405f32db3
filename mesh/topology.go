package mesh

import "iter"

// Connectivity queries. Handles must be valid for m.

func (m *SurfaceMesh) VertexHalfedge(v Vertex) Halfedge { return m.vconn.At(int(v)).halfedge }
func (m *SurfaceMesh) FaceHalfedge(f Face) Halfedge     { return m.fconn.At(int(f)).halfedge }
func (m *SurfaceMesh) ToVertex(h Halfedge) Vertex       { return m.hconn.At(int(h)).vertex }
func (m *SurfaceMesh) FromVertex(h Halfedge) Vertex     { return m.ToVertex(h.Opposite()) }
func (m *SurfaceMesh) Next(h Halfedge) Halfedge         { return m.hconn.At(int(h)).next }
func (m *SurfaceMesh) Prev(h Halfedge) Halfedge         { return m.hconn.At(int(h)).prev }
func (m *SurfaceMesh) Face(h Halfedge) Face             { return m.hconn.At(int(h)).face }
func (m *SurfaceMesh) Opposite(h Halfedge) Halfedge     { return h.Opposite() }
func (m *SurfaceMesh) EdgeOf(h Halfedge) Edge           { return h.Edge() }

// EdgeHalfedge returns the i'th (0 or 1) halfedge of e.
func (m *SurfaceMesh) EdgeHalfedge(e Edge, i int) Halfedge { return e.Halfedge(i) }

// EdgeVertex returns the i'th (0 or 1) vertex of e.
func (m *SurfaceMesh) EdgeVertex(e Edge, i int) Vertex { return m.ToVertex(e.Halfedge(i)) }

// CWRotated returns the halfedge after h clockwise around h's source vertex.
func (m *SurfaceMesh) CWRotated(h Halfedge) Halfedge { return m.Next(h.Opposite()) }

// CCWRotated returns the halfedge after h counter-clockwise around h's source vertex.
func (m *SurfaceMesh) CCWRotated(h Halfedge) Halfedge { return m.Prev(h).Opposite() }

func (m *SurfaceMesh) setVertexHalfedge(v Vertex, h Halfedge) { m.vconn.Ptr(int(v)).halfedge = h }
func (m *SurfaceMesh) setFaceHalfedge(f Face, h Halfedge)     { m.fconn.Ptr(int(f)).halfedge = h }
func (m *SurfaceMesh) setVertex(h Halfedge, v Vertex)         { m.hconn.Ptr(int(h)).vertex = v }
func (m *SurfaceMesh) setFace(h Halfedge, f Face)             { m.hconn.Ptr(int(h)).face = f }
func (m *SurfaceMesh) setPrev(h, prev Halfedge)               { m.hconn.Ptr(int(h)).prev = prev }

// setNext links h to next and next back to h.
func (m *SurfaceMesh) setNext(h, next Halfedge) {
	m.hconn.Ptr(int(h)).next = next
	m.hconn.Ptr(int(next)).prev = h
}

// IsBorderHalfedge reports whether h has no incident face.
func (m *SurfaceMesh) IsBorderHalfedge(h Halfedge) bool { return !m.Face(h).IsValid() }

// IsBorderEdge reports whether either halfedge of e is a border halfedge.
func (m *SurfaceMesh) IsBorderEdge(e Edge) bool {
	return m.IsBorderHalfedge(e.Halfedge(0)) || m.IsBorderHalfedge(e.Halfedge(1))
}

// IsBorderVertex reports whether v lies on a border. Isolated vertices are
// border vertices.
func (m *SurfaceMesh) IsBorderVertex(v Vertex) bool {
	h := m.VertexHalfedge(v)
	return !(h.IsValid() && m.Face(h).IsValid())
}

// IsBorderFace reports whether any edge of f is on the border.
func (m *SurfaceMesh) IsBorderFace(f Face) bool {
	for h := range m.HalfedgesAroundFace(f) {
		if m.IsBorderHalfedge(h.Opposite()) {
			return true
		}
	}
	return false
}

// IsIsolated reports whether v has no incident edge.
func (m *SurfaceMesh) IsIsolated(v Vertex) bool { return !m.VertexHalfedge(v).IsValid() }

// IsManifold reports whether the fan of v has at most one gap.
func (m *SurfaceMesh) IsManifold(v Vertex) bool {
	gaps := 0
	for h := range m.HalfedgesAroundVertex(v) {
		if m.IsBorderHalfedge(h) {
			gaps++
		}
	}
	return gaps < 2
}

// Valence returns the number of edges incident to v.
func (m *SurfaceMesh) Valence(v Vertex) int {
	n := 0
	for range m.HalfedgesAroundVertex(v) {
		n++
	}
	return n
}

// FaceValence returns the number of corners of f.
func (m *SurfaceMesh) FaceValence(f Face) int {
	n := 0
	for range m.HalfedgesAroundFace(f) {
		n++
	}
	return n
}

// IsTriangleMesh reports whether every live face is a triangle.
func (m *SurfaceMesh) IsTriangleMesh() bool {
	for f := range m.Faces() {
		if m.FaceValence(f) != 3 {
			return false
		}
	}
	return true
}

// FindHalfedge returns the halfedge from start to end, or NoHalfedge.
func (m *SurfaceMesh) FindHalfedge(start, end Vertex) Halfedge {
	for h := range m.HalfedgesAroundVertex(start) {
		if m.ToVertex(h) == end {
			return h
		}
	}
	return NoHalfedge
}

// FindEdge returns the edge joining a and b, or NoEdge.
func (m *SurfaceMesh) FindEdge(a, b Vertex) Edge {
	h := m.FindHalfedge(a, b)
	if !h.IsValid() {
		return NoEdge
	}
	return h.Edge()
}

// Iterators. They read the pool size when iteration starts and skip deleted
// elements. The mesh must not be mutated while iterating.

// Vertices iterates over live vertices.
func (m *SurfaceMesh) Vertices() iter.Seq[Vertex] {
	return func(yield func(Vertex) bool) {
		n := m.VerticesSize()
		for i := 0; i < n; i++ {
			if m.garbage && m.vdeleted.At(i) {
				continue
			}
			if !yield(Vertex(i)) {
				return
			}
		}
	}
}

// Halfedges iterates over halfedges of live edges.
func (m *SurfaceMesh) Halfedges() iter.Seq[Halfedge] {
	return func(yield func(Halfedge) bool) {
		n := m.HalfedgesSize()
		for i := 0; i < n; i++ {
			if m.garbage && m.edeleted.At(i/2) {
				continue
			}
			if !yield(Halfedge(i)) {
				return
			}
		}
	}
}

// Edges iterates over live edges.
func (m *SurfaceMesh) Edges() iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		n := m.EdgesSize()
		for i := 0; i < n; i++ {
			if m.garbage && m.edeleted.At(i) {
				continue
			}
			if !yield(Edge(i)) {
				return
			}
		}
	}
}

// Faces iterates over live faces.
func (m *SurfaceMesh) Faces() iter.Seq[Face] {
	return func(yield func(Face) bool) {
		n := m.FacesSize()
		for i := 0; i < n; i++ {
			if m.garbage && m.fdeleted.At(i) {
				continue
			}
			if !yield(Face(i)) {
				return
			}
		}
	}
}

// HalfedgesAroundVertex iterates counter-clockwise over the outgoing
// halfedges of v.
func (m *SurfaceMesh) HalfedgesAroundVertex(v Vertex) iter.Seq[Halfedge] {
	return func(yield func(Halfedge) bool) {
		start := m.VertexHalfedge(v)
		if !start.IsValid() {
			return
		}
		h := start
		for {
			if !yield(h) {
				return
			}
			h = m.CCWRotated(h)
			if h == start {
				return
			}
		}
	}
}

// VerticesAroundVertex iterates over the neighbours of v.
func (m *SurfaceMesh) VerticesAroundVertex(v Vertex) iter.Seq[Vertex] {
	return func(yield func(Vertex) bool) {
		for h := range m.HalfedgesAroundVertex(v) {
			if !yield(m.ToVertex(h)) {
				return
			}
		}
	}
}

// FacesAroundVertex iterates over the faces incident to v.
func (m *SurfaceMesh) FacesAroundVertex(v Vertex) iter.Seq[Face] {
	return func(yield func(Face) bool) {
		for h := range m.HalfedgesAroundVertex(v) {
			f := m.Face(h)
			if f.IsValid() && !yield(f) {
				return
			}
		}
	}
}

// HalfedgesAroundFace iterates over the halfedges bounding f.
func (m *SurfaceMesh) HalfedgesAroundFace(f Face) iter.Seq[Halfedge] {
	return func(yield func(Halfedge) bool) {
		start := m.FaceHalfedge(f)
		if !start.IsValid() {
			return
		}
		h := start
		for {
			if !yield(h) {
				return
			}
			h = m.Next(h)
			if h == start {
				return
			}
		}
	}
}

// VerticesAroundFace iterates over the corners of f.
func (m *SurfaceMesh) VerticesAroundFace(f Face) iter.Seq[Vertex] {
	return func(yield func(Vertex) bool) {
		for h := range m.HalfedgesAroundFace(f) {
			if !yield(m.ToVertex(h)) {
				return
			}
		}
	}
}
