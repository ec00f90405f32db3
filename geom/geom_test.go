package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/meshden/internal/d3"
	"github.com/soypat/meshden/mesh"
)

const tol = 1e-12

func tetrahedron(t *testing.T) *mesh.SurfaceMesh {
	t.Helper()
	m := mesh.New()
	for _, p := range []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}} {
		m.AddVertex(p)
	}
	for _, tri := range [][3]mesh.Vertex{{0, 2, 1}, {0, 1, 3}, {1, 2, 3}, {0, 3, 2}} {
		if _, err := m.AddTriangle(tri[0], tri[1], tri[2]); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func grid(t *testing.T, n int) *mesh.SurfaceMesh {
	t.Helper()
	m := mesh.New()
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			m.AddVertex(r3.Vec{X: float64(i), Y: float64(j)})
		}
	}
	at := func(i, j int) mesh.Vertex { return mesh.Vertex(j*n + i) }
	for j := 0; j < n-1; j++ {
		for i := 0; i < n-1; i++ {
			if _, err := m.AddTriangle(at(i, j), at(i+1, j), at(i+1, j+1)); err != nil {
				t.Fatal(err)
			}
			if _, err := m.AddTriangle(at(i, j), at(i+1, j+1), at(i, j+1)); err != nil {
				t.Fatal(err)
			}
		}
	}
	return m
}

func TestFaceQuantities(t *testing.T) {
	m := mesh.New()
	a := m.AddVertex(r3.Vec{})
	b := m.AddVertex(r3.Vec{X: 2})
	c := m.AddVertex(r3.Vec{X: 2, Y: 1})
	d := m.AddVertex(r3.Vec{Y: 1})
	quad, err := m.AddQuad(a, b, c, d)
	if err != nil {
		t.Fatal(err)
	}
	if got := FaceNormal(m, quad); !d3.EqualWithin(got, r3.Vec{Z: 1}, tol) {
		t.Errorf("quad normal = %v", got)
	}
	if got := FaceArea(m, quad); math.Abs(got-2) > tol {
		t.Errorf("quad area = %v", got)
	}
	if got := FaceCentroid(m, quad); !d3.EqualWithin(got, r3.Vec{X: 1, Y: 0.5}, tol) {
		t.Errorf("quad centroid = %v", got)
	}

	e := m.AddVertex(r3.Vec{X: 4})
	f := m.AddVertex(r3.Vec{X: 6})
	flat, err := m.AddTriangle(b, e, f)
	if err != nil {
		t.Fatal(err)
	}
	if got := FaceNormal(m, flat); got != (r3.Vec{}) {
		t.Errorf("degenerate normal = %v, want zero", got)
	}
	if got := FaceArea(m, flat); got != 0 {
		t.Errorf("degenerate area = %v", got)
	}
	if got := TriangleArea(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}); got != 0.5 {
		t.Errorf("TriangleArea = %v", got)
	}
	areas := FaceAreas(m)
	if len(areas) != m.FacesSize() || math.Abs(areas[quad]-2) > tol {
		t.Errorf("FaceAreas = %v", areas)
	}
}

func TestTetrahedronMeasures(t *testing.T) {
	m := tetrahedron(t)
	if got := Volume(m); math.Abs(got-1./6) > tol {
		t.Errorf("volume = %v", got)
	}
	wantArea := 1.5 + math.Sqrt(3)/2
	if got := SurfaceArea(m); math.Abs(got-wantArea) > tol {
		t.Errorf("area = %v, want %v", got, wantArea)
	}
	normals := FaceNormals(m)
	want := []r3.Vec{{Z: -1}, {Y: -1}, d3.Unit(r3.Vec{X: 1, Y: 1, Z: 1}), {X: -1}}
	for i, n := range normals {
		if !d3.EqualWithin(n, want[i], tol) {
			t.Errorf("face %d normal = %v, want %v", i, n, want[i])
		}
	}
	if got := VertexNormal(m, 0); !d3.EqualWithin(got, d3.Unit(r3.Vec{X: -1, Y: -1, Z: -1}), tol) {
		t.Errorf("vertex normal = %v", got)
	}
	centroids := FaceCentroids(m)
	if !d3.EqualWithin(centroids[2], r3.Vec{X: 1. / 3, Y: 1. / 3, Z: 1. / 3}, tol) {
		t.Errorf("centroid = %v", centroids[2])
	}
	// Gauss-Bonnet: total angle defect of a sphere is 4π.
	var defect float64
	for v := range m.Vertices() {
		defect += 2*math.Pi - AngleSum(m, v)
	}
	if math.Abs(defect-4*math.Pi) > 1e-9 {
		t.Errorf("angle defect = %v, want 4π", defect)
	}
	b := Bounds(m)
	if !d3.Box(b).Equals(d3.Box{Max: d3.Elem(1)}, 0) {
		t.Errorf("bounds = %v", b)
	}
}

func TestCornerNormal(t *testing.T) {
	m := tetrahedron(t)
	h := m.FindHalfedge(1, 0) // corner of face 0 at vertex 0
	if m.Face(h) != 0 {
		t.Fatalf("halfedge %d lies on face %d", h, m.Face(h))
	}
	smooth := d3.Unit(r3.Vec{X: -1, Y: -1, Z: -1})
	for _, test := range []struct {
		crease float64
		want   r3.Vec
	}{
		{crease: 0, want: r3.Vec{Z: -1}},
		{crease: math.Pi / 4, want: r3.Vec{Z: -1}},
		{crease: math.Pi/2 + 0.01, want: smooth},
		{crease: math.Pi, want: smooth},
	} {
		if got := CornerNormal(m, h, test.crease); !d3.EqualWithin(got, test.want, tol) {
			t.Errorf("crease %.3f: corner normal = %v, want %v", test.crease, got, test.want)
		}
	}

	g := grid(t, 3)
	for h := range g.Halfedges() {
		got := CornerNormal(g, h, math.Pi/3)
		if g.IsBorderHalfedge(h) {
			if got != (r3.Vec{}) {
				t.Errorf("border halfedge %d: corner normal = %v", h, got)
			}
		} else if !d3.EqualWithin(got, r3.Vec{Z: 1}, tol) {
			t.Errorf("halfedge %d: corner normal = %v", h, got)
		}
	}
}

func TestFlatGridOperators(t *testing.T) {
	m := grid(t, 3)
	const center = mesh.Vertex(4)
	if got := Laplace(m, center); !d3.EqualWithin(got, r3.Vec{}, tol) {
		t.Errorf("laplace on plane = %v", got)
	}
	if got := VoronoiArea(m, center); math.Abs(got-1) > tol {
		t.Errorf("voronoi area = %v", got)
	}
	if got := VoronoiAreaBarycentric(m, center); math.Abs(got-1) > tol {
		t.Errorf("barycentric area = %v", got)
	}
	if got := AngleSum(m, center); math.Abs(got-2*math.Pi) > tol {
		t.Errorf("angle sum = %v", got)
	}
	if got := AngleSum(m, 0); got != 0 {
		t.Errorf("border angle sum = %v", got)
	}
	c := VertexCurvature(m, center)
	if math.Abs(c.Mean) > tol || math.Abs(c.Gauss) > tol {
		t.Errorf("curvature on plane = %+v", c)
	}
	if got := CotanWeight(m, m.FindEdge(4, 5)); math.Abs(got-2) > tol {
		t.Errorf("axis edge cotan weight = %v", got)
	}
	if got := CotanWeight(m, m.FindEdge(4, 8)); math.Abs(got) > tol {
		t.Errorf("diagonal cotan weight = %v", got)
	}
	if got := Centroid(m); !d3.EqualWithin(got, r3.Vec{X: 1, Y: 1}, tol) {
		t.Errorf("centroid = %v", got)
	}
	if got := VertexNormal(m, center); !d3.EqualWithin(got, r3.Vec{Z: 1}, tol) {
		t.Errorf("vertex normal = %v", got)
	}
}

func TestCotanClamp(t *testing.T) {
	m := mesh.New()
	a := m.AddVertex(r3.Vec{})
	b := m.AddVertex(r3.Vec{X: 1})
	c := m.AddVertex(r3.Vec{X: 0.5, Y: 1e-9})
	if _, err := m.AddTriangle(a, b, c); err != nil {
		t.Fatal(err)
	}
	// Angle at c is nearly π, its cotangent is clamped.
	if got := CotanWeight(m, m.FindEdge(a, b)); got != -cotBound {
		t.Errorf("clamped weight = %v", got)
	}
}

func TestVertexTree(t *testing.T) {
	m := grid(t, 4)
	tree := NewVertexTree(m)
	v, d := tree.Nearest(r3.Vec{X: 2.1, Y: 0.8, Z: 0})
	if v != 6 || math.Abs(d-math.Hypot(0.1, 0.2)) > tol {
		t.Errorf("nearest = %d at %v", v, d)
	}
	if got := DistanceToSurface(m, tree, r3.Vec{X: 1.5, Y: 1.25, Z: -2}); math.Abs(got-2) > tol {
		t.Errorf("distance to surface = %v", got)
	}

	lifted := m.Clone()
	for v := range lifted.Vertices() {
		p := lifted.Point(v)
		p.Z += 0.5
		lifted.SetPoint(v, p)
	}
	if got := MeanDistance(m, m); got != 0 {
		t.Errorf("self distance = %v", got)
	}
	if got := MeanDistance(lifted, m); math.Abs(got-0.5) > tol {
		t.Errorf("lifted distance = %v", got)
	}
	disp := Displacements(m, lifted)
	if len(disp) != m.NumVertices() || math.Abs(disp[3]-0.5) > tol {
		t.Errorf("displacements = %v", disp)
	}

	empty := NewVertexTree(mesh.New())
	if v, d := empty.Nearest(r3.Vec{}); v.IsValid() || !math.IsInf(d, 1) {
		t.Errorf("empty tree returned %d, %v", v, d)
	}
}
