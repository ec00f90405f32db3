// Package mesh implements the connectivity kernels used by the denoiser: a
// halfedge based SurfaceMesh for polygonal surfaces and an incidence list
// Graph for edge networks. Elements are addressed by integer handles and
// carry their attributes in props containers.
package mesh

import (
	"fmt"
	"io"

	"github.com/soypat/meshden/props"
	"gonum.org/v1/gonum/spatial/r3"
)

// Standard property names.
const (
	propVertexConn   = "v:connectivity"
	propHalfedgeConn = "h:connectivity"
	propEdgeConn     = "e:connectivity"
	propFaceConn     = "f:connectivity"
	propPoint        = "v:point"
	propVertexDel    = "v:deleted"
	propEdgeDel      = "e:deleted"
	propFaceDel      = "f:deleted"
)

type vertexConn struct {
	halfedge Halfedge // outgoing, a border one if the vertex is on the border.
}

type halfedgeConn struct {
	face   Face
	vertex Vertex // target vertex.
	next   Halfedge
	prev   Halfedge
}

type faceConn struct {
	halfedge Halfedge
}

// SurfaceMesh is a halfedge data structure for manifold polygonal surfaces.
// Deleted elements stay in the pools, flagged, until CollectGarbage.
type SurfaceMesh struct {
	vprops props.Container
	hprops props.Container
	eprops props.Container
	fprops props.Container
	mprops props.Container

	vconn    props.Property[vertexConn]
	hconn    props.Property[halfedgeConn]
	fconn    props.Property[faceConn]
	vpoint   props.Property[r3.Vec]
	vdeleted props.Property[bool]
	edeleted props.Property[bool]
	fdeleted props.Property[bool]

	deletedVertices int
	deletedEdges    int
	deletedFaces    int
	garbage         bool

	// scratch storage for AddFace.
	addHalfedges []Halfedge
	addIsNew     []bool
	addNeedsAdj  []bool
	addNextCache [][2]Halfedge
}

// Number of standard arrays per container, registered before any user one.
const (
	nStdVertexProps   = 3
	nStdHalfedgeProps = 1
	nStdEdgeProps     = 1
	nStdFaceProps     = 2
)

// New returns an empty surface mesh.
func New() *SurfaceMesh {
	m := &SurfaceMesh{}
	mustAdd(&m.vprops, propVertexConn, vertexConn{halfedge: NoHalfedge})
	mustAdd(&m.vprops, propPoint, r3.Vec{})
	mustAdd(&m.vprops, propVertexDel, false)
	mustAdd(&m.hprops, propHalfedgeConn, halfedgeConn{face: NoFace, vertex: NoVertex, next: NoHalfedge, prev: NoHalfedge})
	mustAdd(&m.eprops, propEdgeDel, false)
	mustAdd(&m.fprops, propFaceConn, faceConn{halfedge: NoHalfedge})
	mustAdd(&m.fprops, propFaceDel, false)
	m.mprops.PushBack()
	m.bind()
	return m
}

// bind looks up the standard properties after the containers changed owner.
func (m *SurfaceMesh) bind() {
	m.vconn = mustGet[vertexConn](&m.vprops, propVertexConn)
	m.vpoint = mustGet[r3.Vec](&m.vprops, propPoint)
	m.vdeleted = mustGet[bool](&m.vprops, propVertexDel)
	m.hconn = mustGet[halfedgeConn](&m.hprops, propHalfedgeConn)
	m.edeleted = mustGet[bool](&m.eprops, propEdgeDel)
	m.fconn = mustGet[faceConn](&m.fprops, propFaceConn)
	m.fdeleted = mustGet[bool](&m.fprops, propFaceDel)
}

// Clone returns a deep copy of m including user properties.
func (m *SurfaceMesh) Clone() *SurfaceMesh {
	cp := &SurfaceMesh{
		vprops:          *m.vprops.Clone(),
		hprops:          *m.hprops.Clone(),
		eprops:          *m.eprops.Clone(),
		fprops:          *m.fprops.Clone(),
		mprops:          *m.mprops.Clone(),
		deletedVertices: m.deletedVertices,
		deletedEdges:    m.deletedEdges,
		deletedFaces:    m.deletedFaces,
		garbage:         m.garbage,
	}
	cp.bind()
	return cp
}

// Clear removes all elements and user properties.
func (m *SurfaceMesh) Clear() {
	m.vprops.TruncateArrays(nStdVertexProps)
	m.hprops.TruncateArrays(nStdHalfedgeProps)
	m.eprops.TruncateArrays(nStdEdgeProps)
	m.fprops.TruncateArrays(nStdFaceProps)
	m.vprops.Resize(0)
	m.hprops.Resize(0)
	m.eprops.Resize(0)
	m.fprops.Resize(0)
	m.vprops.FreeMemory()
	m.hprops.FreeMemory()
	m.eprops.FreeMemory()
	m.fprops.FreeMemory()
	m.mprops.Clear()
	m.mprops.Resize(1)
	m.deletedVertices, m.deletedEdges, m.deletedFaces = 0, 0, 0
	m.garbage = false
}

// Reserve allocates room for nv vertices, ne edges and nf faces.
func (m *SurfaceMesh) Reserve(nv, ne, nf int) {
	m.vprops.Reserve(nv)
	m.hprops.Reserve(2 * ne)
	m.eprops.Reserve(ne)
	m.fprops.Reserve(nf)
}

// VertexProps returns the vertex property container.
func (m *SurfaceMesh) VertexProps() *props.Container { return &m.vprops }

// HalfedgeProps returns the halfedge property container.
func (m *SurfaceMesh) HalfedgeProps() *props.Container { return &m.hprops }

// EdgeProps returns the edge property container.
func (m *SurfaceMesh) EdgeProps() *props.Container { return &m.eprops }

// FaceProps returns the face property container.
func (m *SurfaceMesh) FaceProps() *props.Container { return &m.fprops }

// ModelProps returns the model property container, which has one element.
func (m *SurfaceMesh) ModelProps() *props.Container { return &m.mprops }

func isStandard(name string) bool {
	switch name {
	case propVertexConn, propHalfedgeConn, propEdgeConn, propFaceConn,
		propPoint, propVertexDel, propEdgeDel, propFaceDel:
		return true
	}
	return false
}

// RemoveVertexProperty removes a user vertex property. Standard properties
// are never removed.
func (m *SurfaceMesh) RemoveVertexProperty(name string) bool {
	return !isStandard(name) && m.vprops.Remove(name)
}

// RemoveHalfedgeProperty removes a user halfedge property.
func (m *SurfaceMesh) RemoveHalfedgeProperty(name string) bool {
	return !isStandard(name) && m.hprops.Remove(name)
}

// RemoveEdgeProperty removes a user edge property.
func (m *SurfaceMesh) RemoveEdgeProperty(name string) bool {
	return !isStandard(name) && m.eprops.Remove(name)
}

// RemoveFaceProperty removes a user face property.
func (m *SurfaceMesh) RemoveFaceProperty(name string) bool {
	return !isStandard(name) && m.fprops.Remove(name)
}

// RemoveModelProperty removes a model property.
func (m *SurfaceMesh) RemoveModelProperty(name string) bool {
	return m.mprops.Remove(name)
}

// PropertyStats writes the property names of every element kind to w.
func (m *SurfaceMesh) PropertyStats(w io.Writer) error {
	return writeStats(w, []statGroup{
		{"vertex", &m.vprops},
		{"halfedge", &m.hprops},
		{"edge", &m.eprops},
		{"face", &m.fprops},
		{"model", &m.mprops},
	})
}

type statGroup struct {
	kind string
	c    *props.Container
}

func writeStats(w io.Writer, groups []statGroup) error {
	for _, g := range groups {
		if _, err := fmt.Fprintf(w, "%s properties:\n", g.kind); err != nil {
			return err
		}
		for _, name := range g.c.Names() {
			if _, err := fmt.Fprintf(w, "\t%s (%s)\n", name, g.c.TypeOf(name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Sizes. The *Size methods count deleted elements too.

func (m *SurfaceMesh) VerticesSize() int  { return m.vprops.Size() }
func (m *SurfaceMesh) HalfedgesSize() int { return m.hprops.Size() }
func (m *SurfaceMesh) EdgesSize() int     { return m.eprops.Size() }
func (m *SurfaceMesh) FacesSize() int     { return m.fprops.Size() }

func (m *SurfaceMesh) NumVertices() int  { return m.VerticesSize() - m.deletedVertices }
func (m *SurfaceMesh) NumHalfedges() int { return m.HalfedgesSize() - 2*m.deletedEdges }
func (m *SurfaceMesh) NumEdges() int     { return m.EdgesSize() - m.deletedEdges }
func (m *SurfaceMesh) NumFaces() int     { return m.FacesSize() - m.deletedFaces }

// IsEmpty reports whether the mesh has no live vertices.
func (m *SurfaceMesh) IsEmpty() bool { return m.NumVertices() == 0 }

// HasGarbage reports whether deleted elements await CollectGarbage.
func (m *SurfaceMesh) HasGarbage() bool { return m.garbage }

// Validity of a handle against the current pools.

func (m *SurfaceMesh) IsValidVertex(v Vertex) bool       { return v >= 0 && int(v) < m.VerticesSize() }
func (m *SurfaceMesh) IsValidHalfedge(h Halfedge) bool   { return h >= 0 && int(h) < m.HalfedgesSize() }
func (m *SurfaceMesh) IsValidEdge(e Edge) bool           { return e >= 0 && int(e) < m.EdgesSize() }
func (m *SurfaceMesh) IsValidFace(f Face) bool           { return f >= 0 && int(f) < m.FacesSize() }
func (m *SurfaceMesh) IsDeletedVertex(v Vertex) bool     { return m.vdeleted.At(int(v)) }
func (m *SurfaceMesh) IsDeletedEdge(e Edge) bool         { return m.edeleted.At(int(e)) }
func (m *SurfaceMesh) IsDeletedFace(f Face) bool         { return m.fdeleted.At(int(f)) }
func (m *SurfaceMesh) IsDeletedHalfedge(h Halfedge) bool { return m.edeleted.At(int(h.Edge())) }

// Point returns the position of v.
func (m *SurfaceMesh) Point(v Vertex) r3.Vec { return m.vpoint.At(int(v)) }

// SetPoint moves v to p.
func (m *SurfaceMesh) SetPoint(v Vertex, p r3.Vec) { m.vpoint.Set(int(v), p) }

// Points returns the vertex position array, indexed by Vertex.
func (m *SurfaceMesh) Points() []r3.Vec { return m.vpoint.Data() }

// PointProperty returns the standard vertex position property.
func (m *SurfaceMesh) PointProperty() Property[Vertex, r3.Vec] {
	return Property[Vertex, r3.Vec]{m.vpoint}
}
