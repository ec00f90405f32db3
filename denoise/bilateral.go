// Package denoise removes noise from surface meshes while keeping sharp
// features. It filters face normals with a bilateral kernel, either by
// repeated local averaging or with one global sparse solve, then moves
// vertices so that faces agree with the filtered normals.
package denoise

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/soypat/meshden/geom"
	"github.com/soypat/meshden/internal/d3"
	"github.com/soypat/meshden/internal/monitoring"
	"github.com/soypat/meshden/internal/sparse"
	"github.com/soypat/meshden/mesh"
)

var (
	// ErrBusy is returned when a Bilateral is used while it is already
	// processing a mesh.
	ErrBusy = errors.New("denoise: engine busy")
	// ErrSolver is returned when the global normal system cannot be solved.
	ErrSolver = errors.New("denoise: global solve failed")
)

// solveSPD is replaced in tests.
var solveSPD = sparse.SolveSPD

// State is the phase of a Bilateral engine.
type State int

const (
	Idle State = iota
	NormalsComputed
	VertexesUpdated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case NormalsComputed:
		return "normals computed"
	case VertexesUpdated:
		return "vertexes updated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Bilateral is a bilateral normal filtering engine. An engine processes
// one mesh at a time and may be reused once a call returns.
type Bilateral struct {
	cfg   Config
	mu    sync.Mutex
	state atomic.Int32

	// Working set indexed by mesh.Face, valid during one call.
	normals   []r3.Vec
	areas     []float64
	centroids []r3.Vec
	sigmaC    float64
}

// New returns an engine using cfg. The configuration is validated when
// the engine runs.
func New(cfg Config) *Bilateral {
	return &Bilateral{cfg: cfg}
}

// Config returns the engine configuration.
func (b *Bilateral) Config() Config { return b.cfg }

// State returns the current phase. It may be called from any goroutine.
func (b *Bilateral) State() State { return State(b.state.Load()) }

// SigmaC returns the spatial bandwidth computed by the last run.
func (b *Bilateral) SigmaC() float64 { return b.sigmaC }

// Denoise filters the face normals of m and moves its vertices to match
// them. A mesh without vertices is left alone. On error the vertex
// positions of m are unchanged. Deleted elements are collected on success.
func (b *Bilateral) Denoise(m *mesh.SurfaceMesh) error {
	if !b.mu.TryLock() {
		return ErrBusy
	}
	defer b.mu.Unlock()
	if err := b.cfg.Validate(); err != nil {
		return err
	}
	if m.NumVertices() == 0 {
		return nil
	}
	defer b.reset()
	if err := b.filter(m); err != nil {
		return err
	}
	b.setState(NormalsComputed)
	ReconstructVertices(m, b.normals, b.cfg.VertexIterations, b.cfg.FixBoundary)
	b.setState(VertexesUpdated)
	m.CollectGarbage()
	return nil
}

// FilterNormals returns the filtered normal of every face of m indexed by
// mesh.Face without moving any vertex. Deleted faces hold the zero vector.
func (b *Bilateral) FilterNormals(m *mesh.SurfaceMesh) ([]r3.Vec, error) {
	if !b.mu.TryLock() {
		return nil, ErrBusy
	}
	defer b.mu.Unlock()
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	defer b.reset()
	if err := b.filter(m); err != nil {
		return nil, err
	}
	return b.normals, nil
}

func (b *Bilateral) setState(s State) {
	old := State(b.state.Swap(int32(s)))
	monitoring.Logf("denoise: %v -> %v", old, s)
}

func (b *Bilateral) reset() {
	b.state.Store(int32(Idle))
	b.normals, b.areas, b.centroids = nil, nil, nil
}

func (b *Bilateral) filter(m *mesh.SurfaceMesh) error {
	b.snapshot(m)
	monitoring.Logf("denoise: %v scheme on %d faces, sigma_c=%.4g", b.cfg.Scheme, m.NumFaces(), b.sigmaC)
	switch b.cfg.Scheme {
	case Local:
		b.filterLocal(m)
	case Global:
		return b.filterGlobal(m)
	}
	return nil
}

// snapshot captures the initial normals, areas and centroids of m and
// derives the spatial bandwidth from them.
func (b *Bilateral) snapshot(m *mesh.SurfaceMesh) {
	b.normals = geom.FaceNormals(m)
	b.areas = geom.FaceAreas(m)
	b.centroids = geom.FaceCentroids(m)
	var dist []float64
	for f := range m.Faces() {
		for g := range neighbors(m, f) {
			if g > f {
				dist = append(dist, r3.Norm(r3.Sub(b.centroids[f], b.centroids[g])))
			}
		}
	}
	b.sigmaC = 0
	if len(dist) > 0 {
		b.sigmaC = b.cfg.SigmaCScale * stat.Mean(dist, nil)
	}
}

// neighbors yields the faces sharing an edge with f.
func neighbors(m *mesh.SurfaceMesh, f mesh.Face) iter.Seq[mesh.Face] {
	return func(yield func(mesh.Face) bool) {
		for h := range m.HalfedgesAroundFace(f) {
			g := m.Face(h.Opposite())
			if g.IsValid() && !yield(g) {
				return
			}
		}
	}
}

// weight returns the bilateral weight of face j in the neighborhood of
// face i. A zero spatial bandwidth disables the spatial term.
func (b *Bilateral) weight(i, j mesh.Face, normals []r3.Vec) float64 {
	w := b.areas[j]
	if b.sigmaC > 0 {
		d2 := r3.Norm2(r3.Sub(b.centroids[i], b.centroids[j]))
		w *= math.Exp(-0.5 * d2 / (b.sigmaC * b.sigmaC))
	}
	n2 := r3.Norm2(r3.Sub(normals[i], normals[j]))
	return w * math.Exp(-0.5*n2/(b.cfg.SigmaS*b.cfg.SigmaS))
}

func (b *Bilateral) filterLocal(m *mesh.SurfaceMesh) {
	cur := b.normals
	next := make([]r3.Vec, len(cur))
	for it := 0; it < b.cfg.NormalIterations; it++ {
		for f := range m.Faces() {
			var (
				sum  r3.Vec
				wsum float64
			)
			for g := range neighbors(m, f) {
				w := b.weight(f, g, cur)
				wsum += w
				sum = r3.Add(sum, r3.Scale(w, cur[g]))
			}
			if wsum > 0 {
				next[f] = d3.Unit(r3.Scale(1/wsum, sum))
			} else {
				next[f] = cur[f]
			}
		}
		cur, next = next, cur
	}
	b.normals = cur
}

// globalSystem assembles ((1-λ)MᵀM + λI) x = λ n0 over the live faces of
// m, where M = I - D·W. It returns the faces in row order.
func (b *Bilateral) globalSystem(m *mesh.SurfaceMesh) (a *sparse.CSR, rhs *mat.Dense, faces []mesh.Face) {
	row := make([]int, m.FacesSize())
	for f := range m.Faces() {
		row[f] = len(faces)
		faces = append(faces, f)
	}
	k := len(faces)
	wb := sparse.NewBuilder(k, k)
	dinv := make([]float64, k)
	for i, f := range faces {
		var wsum float64
		for g := range neighbors(m, f) {
			w := b.weight(f, g, b.normals)
			wsum += w
			wb.Add(i, row[g], w)
		}
		if wsum > 0 {
			dinv[i] = 1 / wsum
		}
	}
	id := sparse.Identity(k)
	mm := sparse.AddScaled(1, id, -1, wb.CSR().ScaleRows(dinv))
	lambda := b.cfg.Smoothness
	a = sparse.AddScaled(1-lambda, mm.Transpose().Mul(mm), lambda, id)

	rhs = mat.NewDense(k, 3, nil)
	for i, f := range faces {
		n := b.normals[f]
		rhs.SetRow(i, []float64{lambda * n.X, lambda * n.Y, lambda * n.Z})
	}
	return a, rhs, faces
}

func (b *Bilateral) filterGlobal(m *mesh.SurfaceMesh) error {
	if m.NumFaces() == 0 {
		return nil
	}
	a, rhs, faces := b.globalSystem(m)
	x, err := solveSPD(a, rhs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSolver, err)
	}
	for i, f := range faces {
		n := r3.Vec{X: x.At(i, 0), Y: x.At(i, 1), Z: x.At(i, 2)}
		if n != (r3.Vec{}) {
			n = d3.Unit(n)
		}
		b.normals[f] = n
	}
	return nil
}

// ReconstructVertices moves the vertices of m so that its faces align with
// normals, indexed by mesh.Face. Every round each free vertex moves by the
// mean projection of its offset to the incident face centroids onto the
// face normals. Border vertices stay put when fixBoundary is set.
func ReconstructVertices(m *mesh.SurfaceMesh, normals []r3.Vec, iterations int, fixBoundary bool) {
	if iterations <= 0 || m.NumVertices() == 0 {
		return
	}
	pts := m.Points()
	cur := make([]r3.Vec, len(pts))
	copy(cur, pts)
	next := make([]r3.Vec, len(pts))
	centroids := make([]r3.Vec, m.FacesSize())
	for it := 0; it < iterations; it++ {
		for f := range m.Faces() {
			var (
				c r3.Vec
				n int
			)
			for v := range m.VerticesAroundFace(f) {
				c = r3.Add(c, cur[v])
				n++
			}
			centroids[f] = r3.Scale(1/float64(n), c)
		}
		for v := range m.Vertices() {
			p := cur[v]
			next[v] = p
			if fixBoundary && m.IsBorderVertex(v) {
				continue
			}
			var (
				disp r3.Vec
				n    int
			)
			for f := range m.FacesAroundVertex(v) {
				nf := normals[f]
				disp = r3.Add(disp, r3.Scale(r3.Dot(nf, r3.Sub(centroids[f], p)), nf))
				n++
			}
			if n > 0 {
				next[v] = r3.Add(p, r3.Scale(1/float64(n), disp))
			}
		}
		cur, next = next, cur
	}
	copy(pts, cur)
}
