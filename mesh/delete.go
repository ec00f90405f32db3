package mesh

// DeleteVertex deletes v together with every face and edge incident to it.
func (m *SurfaceMesh) DeleteVertex(v Vertex) {
	if m.IsDeletedVertex(v) {
		return
	}
	var faces []Face
	for f := range m.FacesAroundVertex(v) {
		faces = append(faces, f)
	}
	for _, f := range faces {
		m.DeleteFace(f)
	}
	// Face-less edges survive face deletion.
	if !m.IsDeletedVertex(v) {
		var edges []Edge
		for h := range m.HalfedgesAroundVertex(v) {
			edges = append(edges, h.Edge())
		}
		for _, e := range edges {
			m.unlinkEdge(e, false)
		}
		m.markVertexDeleted(v)
	}
	m.garbage = true
}

// DeleteEdge deletes e and its incident faces. An edge without faces is
// unlinked from its endpoints, which stay in the mesh.
func (m *SurfaceMesh) DeleteEdge(e Edge) {
	if m.IsDeletedEdge(e) {
		return
	}
	f0 := m.Face(e.Halfedge(0))
	f1 := m.Face(e.Halfedge(1))
	if !f0.IsValid() && !f1.IsValid() {
		m.unlinkEdge(e, false)
		m.garbage = true
		return
	}
	if f0.IsValid() {
		m.DeleteFace(f0)
	}
	if f1.IsValid() {
		m.DeleteFace(f1)
	}
}

// DeleteFace deletes f. Edges of f left without faces are deleted, as are
// vertices left without edges.
func (m *SurfaceMesh) DeleteFace(f Face) {
	if m.IsDeletedFace(f) {
		return
	}
	m.fdeleted.Set(int(f), true)
	m.deletedFaces++

	var (
		borderEdges [4]Edge
		corners     [4]Vertex
	)
	edges := borderEdges[:0]
	verts := corners[:0]
	for h := range m.HalfedgesAroundFace(f) {
		m.setFace(h, NoFace)
		if m.IsBorderHalfedge(h.Opposite()) {
			edges = append(edges, h.Edge())
		}
		verts = append(verts, m.ToVertex(h))
	}
	for _, e := range edges {
		m.unlinkEdge(e, true)
	}
	for _, v := range verts {
		m.adjustOutgoingHalfedge(v)
	}
	m.garbage = true
}

// unlinkEdge removes a face-less edge from the halfedge loops and marks it
// deleted. Endpoints left without edges are deleted if dropIsolated is set,
// otherwise they become isolated.
func (m *SurfaceMesh) unlinkEdge(e Edge, dropIsolated bool) {
	h0, h1 := e.Halfedge(0), e.Halfedge(1)
	v0, v1 := m.ToVertex(h0), m.ToVertex(h1)
	next0, prev0 := m.Next(h0), m.Prev(h0)
	next1, prev1 := m.Next(h1), m.Prev(h1)

	m.setNext(prev0, next1)
	m.setNext(prev1, next0)
	if !m.IsDeletedEdge(e) {
		m.edeleted.Set(int(e), true)
		m.deletedEdges++
	}
	m.releaseVertex(v0, h1, next0, dropIsolated)
	m.releaseVertex(v1, h0, next1, dropIsolated)
	m.garbage = true
}

// releaseVertex fixes the outgoing halfedge of v after its outgoing
// halfedge out was unlinked; next is what followed the incoming twin of out.
func (m *SurfaceMesh) releaseVertex(v Vertex, out, next Halfedge, dropIsolated bool) {
	if m.VertexHalfedge(v) != out {
		return
	}
	if next != out {
		m.setVertexHalfedge(v, next)
		return
	}
	m.setVertexHalfedge(v, NoHalfedge)
	if dropIsolated {
		m.markVertexDeleted(v)
	}
}

func (m *SurfaceMesh) markVertexDeleted(v Vertex) {
	if !m.vdeleted.At(int(v)) {
		m.vdeleted.Set(int(v), true)
		m.deletedVertices++
	}
}

// CollectGarbage removes deleted elements from the pools. Live elements are
// moved to the front; every stored handle is remapped. Handles held by the
// caller are invalidated.
func (m *SurfaceMesh) CollectGarbage() {
	if !m.garbage {
		return
	}
	nV, nE, nF := m.VerticesSize(), m.EdgesSize(), m.FacesSize()
	nH := m.HalfedgesSize()

	vmap := mustAdd(&m.vprops, "v:garbage-collection", NoVertex)
	hmap := mustAdd(&m.hprops, "h:garbage-collection", NoHalfedge)
	fmap := mustAdd(&m.fprops, "f:garbage-collection", NoFace)
	for i := 0; i < nV; i++ {
		vmap.Set(i, Vertex(i))
	}
	for i := 0; i < nH; i++ {
		hmap.Set(i, Halfedge(i))
	}
	for i := 0; i < nF; i++ {
		fmap.Set(i, Face(i))
	}

	// Each index takes part in at most one swap so the resulting
	// permutation is its own inverse and the maps can be read both ways.
	nV = partition(nV, m.vdeleted.Data(), m.vprops.Swap)
	nE = partition(nE, m.edeleted.Data(), func(i, j int) {
		m.eprops.Swap(i, j)
		m.hprops.Swap(2*i, 2*j)
		m.hprops.Swap(2*i+1, 2*j+1)
	})
	nH = 2 * nE
	nF = partition(nF, m.fdeleted.Data(), m.fprops.Swap)

	for i := 0; i < nV; i++ {
		v := Vertex(i)
		if !m.IsIsolated(v) {
			m.setVertexHalfedge(v, hmap.At(int(m.VertexHalfedge(v))))
		}
	}
	for i := 0; i < nH; i++ {
		h := Halfedge(i)
		m.setVertex(h, vmap.At(int(m.ToVertex(h))))
		m.setNext(h, hmap.At(int(m.Next(h))))
		if !m.IsBorderHalfedge(h) {
			m.setFace(h, fmap.At(int(m.Face(h))))
		}
	}
	for i := 0; i < nF; i++ {
		f := Face(i)
		m.setFaceHalfedge(f, hmap.At(int(m.FaceHalfedge(f))))
	}

	m.vprops.Remove(vmap.Name())
	m.hprops.Remove(hmap.Name())
	m.fprops.Remove(fmap.Name())

	m.vprops.Resize(nV)
	m.vprops.FreeMemory()
	m.hprops.Resize(nH)
	m.hprops.FreeMemory()
	m.eprops.Resize(nE)
	m.eprops.FreeMemory()
	m.fprops.Resize(nF)
	m.fprops.FreeMemory()

	m.deletedVertices, m.deletedEdges, m.deletedFaces = 0, 0, 0
	m.garbage = false
}

// partition moves live elements (deleted[i] false) in front of deleted ones
// using swap and returns the live count.
func partition(n int, deleted []bool, swap func(i, j int)) int {
	if n == 0 {
		return 0
	}
	i0, i1 := 0, n-1
	for {
		for !deleted[i0] && i0 < i1 {
			i0++
		}
		for deleted[i1] && i0 < i1 {
			i1--
		}
		if i0 >= i1 {
			break
		}
		swap(i0, i1)
	}
	if deleted[i0] {
		return i0
	}
	return i0 + 1
}
