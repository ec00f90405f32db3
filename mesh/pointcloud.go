package mesh

import (
	"io"
	"iter"

	"github.com/soypat/meshden/props"
	"gonum.org/v1/gonum/spatial/r3"
)

// PointCloud is a set of vertices without connectivity, such as scanner
// samples. Deleted vertices stay in the pool, flagged, until
// CollectGarbage.
type PointCloud struct {
	vprops props.Container
	mprops props.Container

	vpoint   props.Property[r3.Vec]
	vdeleted props.Property[bool]

	deletedVertices int
	garbage         bool
}

// NewPointCloud returns an empty point cloud.
func NewPointCloud() *PointCloud {
	pc := &PointCloud{}
	mustAdd(&pc.vprops, propPoint, r3.Vec{})
	mustAdd(&pc.vprops, propVertexDel, false)
	pc.mprops.PushBack()
	pc.bind()
	return pc
}

func (pc *PointCloud) bind() {
	pc.vpoint = mustGet[r3.Vec](&pc.vprops, propPoint)
	pc.vdeleted = mustGet[bool](&pc.vprops, propVertexDel)
}

// Clone returns a deep copy of pc.
func (pc *PointCloud) Clone() *PointCloud {
	cp := &PointCloud{
		vprops:          *pc.vprops.Clone(),
		mprops:          *pc.mprops.Clone(),
		deletedVertices: pc.deletedVertices,
		garbage:         pc.garbage,
	}
	cp.bind()
	return cp
}

// PointsOf returns the live vertex positions of m as a point cloud. Cloud
// vertex i corresponds to surface vertex i only if m has no garbage.
func PointsOf(m *SurfaceMesh) *PointCloud {
	pc := NewPointCloud()
	pc.vprops.Reserve(m.NumVertices())
	for v := range m.Vertices() {
		pc.AddVertex(m.Point(v))
	}
	return pc
}

func (pc *PointCloud) VertexProps() *props.Container { return &pc.vprops }
func (pc *PointCloud) ModelProps() *props.Container  { return &pc.mprops }

// RemoveVertexProperty removes a user vertex property.
func (pc *PointCloud) RemoveVertexProperty(name string) bool {
	return !isStandard(name) && pc.vprops.Remove(name)
}

// PropertyStats writes the property names of every element kind to w.
func (pc *PointCloud) PropertyStats(w io.Writer) error {
	return writeStats(w, []statGroup{
		{"vertex", &pc.vprops},
		{"model", &pc.mprops},
	})
}

func (pc *PointCloud) VerticesSize() int             { return pc.vprops.Size() }
func (pc *PointCloud) NumVertices() int              { return pc.VerticesSize() - pc.deletedVertices }
func (pc *PointCloud) IsEmpty() bool                 { return pc.NumVertices() == 0 }
func (pc *PointCloud) HasGarbage() bool              { return pc.garbage }
func (pc *PointCloud) IsValidVertex(v Vertex) bool   { return v >= 0 && int(v) < pc.VerticesSize() }
func (pc *PointCloud) IsDeletedVertex(v Vertex) bool { return pc.vdeleted.At(int(v)) }
func (pc *PointCloud) Point(v Vertex) r3.Vec         { return pc.vpoint.At(int(v)) }
func (pc *PointCloud) SetPoint(v Vertex, p r3.Vec)   { pc.vpoint.Set(int(v), p) }
func (pc *PointCloud) Points() []r3.Vec              { return pc.vpoint.Data() }

// AddVertex appends a vertex at p.
func (pc *PointCloud) AddVertex(p r3.Vec) Vertex {
	pc.vprops.PushBack()
	v := Vertex(pc.VerticesSize() - 1)
	pc.vpoint.Set(int(v), p)
	return v
}

// Vertices iterates over live vertices.
func (pc *PointCloud) Vertices() iter.Seq[Vertex] {
	return func(yield func(Vertex) bool) {
		n := pc.VerticesSize()
		for i := 0; i < n; i++ {
			if pc.vdeleted.At(i) {
				continue
			}
			if !yield(Vertex(i)) {
				return
			}
		}
	}
}

// DeleteVertex flags v as deleted.
func (pc *PointCloud) DeleteVertex(v Vertex) {
	if pc.IsDeletedVertex(v) {
		return
	}
	pc.vdeleted.Set(int(v), true)
	pc.deletedVertices++
	pc.garbage = true
}

// CollectGarbage removes deleted vertices. Live vertices keep their
// relative order only if no deleted vertex precedes them.
func (pc *PointCloud) CollectGarbage() {
	if !pc.garbage {
		return
	}
	nV := partition(pc.VerticesSize(), pc.vdeleted.Data(), pc.vprops.Swap)
	pc.vprops.Resize(nV)
	pc.vprops.FreeMemory()
	pc.deletedVertices = 0
	pc.garbage = false
}
