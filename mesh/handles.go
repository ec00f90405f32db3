package mesh

// Handles are plain indices into the element pools of a mesh. A negative
// handle is the null handle. A non-null handle is valid for a mesh while it
// is smaller than the matching pool size; CollectGarbage relocates elements
// so handles held across it must be considered stale.
type (
	Vertex   int
	Halfedge int
	Edge     int
	Face     int
)

// Null handles.
const (
	NoVertex   Vertex   = -1
	NoHalfedge Halfedge = -1
	NoEdge     Edge     = -1
	NoFace     Face     = -1
)

// IsValid reports whether v is not the null handle.
func (v Vertex) IsValid() bool { return v >= 0 }

// IsValid reports whether h is not the null handle.
func (h Halfedge) IsValid() bool { return h >= 0 }

// IsValid reports whether e is not the null handle.
func (e Edge) IsValid() bool { return e >= 0 }

// IsValid reports whether f is not the null handle.
func (f Face) IsValid() bool { return f >= 0 }

// Opposite returns the other halfedge of h's edge.
// Halfedges of edge e are 2e and 2e+1.
func (h Halfedge) Opposite() Halfedge { return h ^ 1 }

// Edge returns the edge h belongs to.
func (h Halfedge) Edge() Edge { return Edge(h >> 1) }

// Halfedge returns the i'th (0 or 1) halfedge of e.
func (e Edge) Halfedge(i int) Halfedge { return Halfedge(2*int(e) + i) }
