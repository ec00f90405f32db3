package mesh

import (
	"errors"
	"fmt"

	"github.com/soypat/meshden/internal/monitoring"
	"gonum.org/v1/gonum/spatial/r3"
)

// Topology errors returned by element insertion. The mesh is left unchanged
// when they are returned.
var (
	ErrComplexVertex  = errors.New("mesh: complex vertex")
	ErrComplexEdge    = errors.New("mesh: complex edge")
	ErrPatchRelink    = errors.New("mesh: patch re-linking failed")
	ErrDegenerateFace = errors.New("mesh: degenerate face")
)

// AddVertex appends an isolated vertex at p.
func (m *SurfaceMesh) AddVertex(p r3.Vec) Vertex {
	m.vprops.PushBack()
	v := Vertex(m.VerticesSize() - 1)
	m.vpoint.Set(int(v), p)
	return v
}

// AddEdge joins v0 and v1 with a face-less edge. If they are already joined
// the existing edge is returned. Both vertices must be isolated or on the
// border so the new edge can be threaded into their fans.
func (m *SurfaceMesh) AddEdge(v0, v1 Vertex) (Edge, error) {
	if v0 == v1 {
		panic("mesh: AddEdge with equal endpoints")
	}
	if e := m.FindEdge(v0, v1); e.IsValid() {
		monitoring.Logf("mesh: edge %d already joins vertices %d and %d", e, v0, v1)
		return e, nil
	}
	if !m.IsBorderVertex(v0) {
		return NoEdge, fmt.Errorf("%w: %d is interior", ErrComplexVertex, v0)
	}
	if !m.IsBorderVertex(v1) {
		return NoEdge, fmt.Errorf("%w: %d is interior", ErrComplexVertex, v1)
	}
	hb0, hb1 := m.VertexHalfedge(v0), m.VertexHalfedge(v1)
	h0 := m.newEdge(v0, v1)
	h1 := h0.Opposite()
	if hb0.IsValid() {
		m.setNext(m.Prev(hb0), h0)
		m.setNext(h1, hb0)
	} else {
		m.setNext(h1, h0)
		m.setVertexHalfedge(v0, h0)
	}
	if hb1.IsValid() {
		m.setNext(m.Prev(hb1), h1)
		m.setNext(h0, hb1)
	} else {
		m.setNext(h0, h1)
		m.setVertexHalfedge(v1, h1)
	}
	return h0.Edge(), nil
}

// AddTriangle adds the face (v0, v1, v2).
func (m *SurfaceMesh) AddTriangle(v0, v1, v2 Vertex) (Face, error) {
	return m.AddFace(v0, v1, v2)
}

// AddQuad adds the face (v0, v1, v2, v3).
func (m *SurfaceMesh) AddQuad(v0, v1, v2, v3 Vertex) (Face, error) {
	return m.AddFace(v0, v1, v2, v3)
}

// AddFace adds a face bounded by vs in counter-clockwise order. Patches
// already incident to the new face's vertices are re-linked so that the
// result stays manifold; if that is impossible an error is returned.
func (m *SurfaceMesh) AddFace(vs ...Vertex) (Face, error) {
	n := len(vs)
	if n < 3 {
		return NoFace, fmt.Errorf("%w: %d vertices", ErrDegenerateFace, n)
	}
	for i, v := range vs {
		if !m.IsValidVertex(v) || m.IsDeletedVertex(v) {
			return NoFace, fmt.Errorf("%w: bad vertex %d", ErrDegenerateFace, v)
		}
		for _, w := range vs[:i] {
			if v == w {
				return NoFace, fmt.Errorf("%w: repeated vertex %d", ErrDegenerateFace, v)
			}
		}
	}

	hs := resizeScratch(&m.addHalfedges, n)
	isNew := resizeScratch(&m.addIsNew, n)
	needsAdj := resizeScratch(&m.addNeedsAdj, n)
	clear(needsAdj)
	cache := m.addNextCache[:0]

	for i := 0; i < n; i++ {
		ii := (i + 1) % n
		if !m.IsBorderVertex(vs[i]) {
			return NoFace, fmt.Errorf("%w: %d", ErrComplexVertex, vs[i])
		}
		hs[i] = m.FindHalfedge(vs[i], vs[ii])
		isNew[i] = !hs[i].IsValid()
		if !isNew[i] && !m.IsBorderHalfedge(hs[i]) {
			return NoFace, fmt.Errorf("%w: %d-%d", ErrComplexEdge, vs[i], vs[ii])
		}
	}

	// Re-link patches whose border loops would otherwise cross the face.
	for i := 0; i < n; i++ {
		ii := (i + 1) % n
		if isNew[i] || isNew[ii] {
			continue
		}
		innerPrev, innerNext := hs[i], hs[ii]
		if m.Next(innerPrev) == innerNext {
			continue
		}
		// Search a free gap between boundaryPrev and boundaryNext.
		outerPrev := innerNext.Opposite()
		boundaryPrev := outerPrev
		for {
			boundaryPrev = m.Next(boundaryPrev).Opposite()
			if m.IsBorderHalfedge(boundaryPrev) && boundaryPrev != innerPrev {
				break
			}
		}
		boundaryNext := m.Next(boundaryPrev)
		if boundaryNext == innerNext {
			return NoFace, ErrPatchRelink
		}
		patchStart := m.Next(innerPrev)
		patchEnd := m.Prev(innerNext)
		cache = append(cache,
			[2]Halfedge{boundaryPrev, patchStart},
			[2]Halfedge{patchEnd, boundaryNext},
			[2]Halfedge{innerPrev, innerNext},
		)
	}

	// No errors past this point.
	for i := 0; i < n; i++ {
		if isNew[i] {
			hs[i] = m.newEdge(vs[i], vs[(i+1)%n])
		}
	}
	m.fprops.PushBack()
	f := Face(m.FacesSize() - 1)
	m.setFaceHalfedge(f, hs[n-1])

	for i := 0; i < n; i++ {
		ii := (i + 1) % n
		v := vs[ii]
		innerPrev, innerNext := hs[i], hs[ii]
		id := 0
		if isNew[i] {
			id |= 1
		}
		if isNew[ii] {
			id |= 2
		}
		if id != 0 {
			outerPrev := innerNext.Opposite()
			outerNext := innerPrev.Opposite()
			switch id {
			case 1: // prev is new, next is old.
				boundaryPrev := m.Prev(innerNext)
				cache = append(cache, [2]Halfedge{boundaryPrev, outerNext})
				m.setVertexHalfedge(v, outerNext)
			case 2: // next is new, prev is old.
				boundaryNext := m.Next(innerPrev)
				cache = append(cache, [2]Halfedge{outerPrev, boundaryNext})
				m.setVertexHalfedge(v, boundaryNext)
			case 3: // both new.
				if !m.VertexHalfedge(v).IsValid() {
					m.setVertexHalfedge(v, outerNext)
					cache = append(cache, [2]Halfedge{outerPrev, outerNext})
				} else {
					boundaryNext := m.VertexHalfedge(v)
					boundaryPrev := m.Prev(boundaryNext)
					cache = append(cache,
						[2]Halfedge{boundaryPrev, outerNext},
						[2]Halfedge{outerPrev, boundaryNext},
					)
				}
			}
			cache = append(cache, [2]Halfedge{innerPrev, innerNext})
		} else {
			needsAdj[ii] = m.VertexHalfedge(v) == innerNext
		}
		m.setFace(hs[i], f)
	}

	for _, link := range cache {
		m.setNext(link[0], link[1])
	}
	m.addNextCache = cache
	for i := 0; i < n; i++ {
		if needsAdj[i] {
			m.adjustOutgoingHalfedge(vs[i])
		}
	}
	return f, nil
}

// newEdge appends an unlinked edge and returns its halfedge start->end.
func (m *SurfaceMesh) newEdge(start, end Vertex) Halfedge {
	m.eprops.PushBack()
	m.hprops.PushBack()
	m.hprops.PushBack()
	h0 := Halfedge(m.HalfedgesSize() - 2)
	m.setVertex(h0, end)
	m.setVertex(h0.Opposite(), start)
	return h0
}

// adjustOutgoingHalfedge makes a border halfedge the outgoing halfedge of v
// if v has one.
func (m *SurfaceMesh) adjustOutgoingHalfedge(v Vertex) {
	start := m.VertexHalfedge(v)
	if !start.IsValid() {
		return
	}
	h := start
	for {
		if m.IsBorderHalfedge(h) {
			m.setVertexHalfedge(v, h)
			return
		}
		h = m.CWRotated(h)
		if h == start {
			return
		}
	}
}

func resizeScratch[T any](s *[]T, n int) []T {
	if cap(*s) < n {
		*s = make([]T, n)
	}
	*s = (*s)[:n]
	return *s
}
