package denoise

import (
	"math"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/meshden/geom"
	"github.com/soypat/meshden/internal/d3"
	"github.com/soypat/meshden/mesh"
)

func propNames(m *mesh.SurfaceMesh) [][]string {
	return [][]string{m.VertexProps().Names(), m.EdgeProps().Names()}
}

func TestExplicitSmoothUniformStep(t *testing.T) {
	m := bump(t, 0.3)
	names := propNames(m)
	ExplicitSmooth(m, 1, true)
	// Half of the mean offset to the six neighbors.
	assert.InDelta(t, 0.15, m.Point(center).Z, 1e-12)
	assert.InDelta(t, 0.5*0.3/6, m.Point(7).Z, 1e-12)
	assert.Zero(t, m.Point(0).Z)
	if diff := cmp.Diff(names, propNames(m)); diff != "" {
		t.Errorf("scratch properties left behind:\n%s", diff)
	}
}

func TestExplicitSmoothCotan(t *testing.T) {
	m := noisy(t, 6)
	before := slices.Clone(m.Points())
	var rough float64
	for v := range m.Vertices() {
		if !m.IsBorderVertex(v) {
			rough += r3.Norm(geom.Laplace(m, v))
		}
	}
	ExplicitSmooth(m, 5, false)
	var smooth float64
	for v := range m.Vertices() {
		if m.IsBorderVertex(v) {
			assert.Equal(t, before[v], m.Point(v))
		} else {
			smooth += r3.Norm(geom.Laplace(m, v))
		}
	}
	assert.Less(t, smooth, rough)
}

func TestImplicitSmoothFlatPatch(t *testing.T) {
	for _, uniform := range []bool{true, false} {
		m := grid(t, 5)
		before := slices.Clone(m.Points())
		names := propNames(m)
		require.NoError(t, ImplicitSmooth(m, 0.5, uniform, false))
		for v, p := range m.Points() {
			assert.True(t, d3.EqualWithin(p, before[v], tol), "uniform=%v vertex %d at %v", uniform, v, p)
		}
		assert.Equal(t, names, propNames(m))
	}
}

func TestImplicitSmoothBump(t *testing.T) {
	for _, uniform := range []bool{true, false} {
		m := bump(t, 0.3)
		require.NoError(t, ImplicitSmooth(m, 1, uniform, false))
		z := m.Point(center).Z
		assert.Greater(t, z, 0.0)
		assert.Less(t, z, 0.3)
		assert.Zero(t, m.Point(0).Z)
	}
}

func TestImplicitSmoothRescale(t *testing.T) {
	m := noisy(t, 6)
	area := geom.SurfaceArea(m)
	c := geom.Centroid(m)
	require.NoError(t, ImplicitSmooth(m, 0.2, false, true))
	assert.InDelta(t, area, geom.SurfaceArea(m), 1e-9)
	assert.True(t, d3.EqualWithin(c, geom.Centroid(m), 1e-9))
}

func TestSmoothEmptyMesh(t *testing.T) {
	m := mesh.New()
	ExplicitSmooth(m, 3, false)
	require.NoError(t, ImplicitSmooth(m, 1, false, true))
	assert.True(t, m.IsEmpty())
	// Only border vertices: nothing to solve.
	tri := mesh.New()
	a := tri.AddVertex(r3.Vec{})
	b := tri.AddVertex(r3.Vec{X: 1})
	c := tri.AddVertex(r3.Vec{Y: 1, Z: math.Pi})
	_, err := tri.AddTriangle(a, b, c)
	require.NoError(t, err)
	require.NoError(t, ImplicitSmooth(tri, 1, true, false))
	assert.Equal(t, math.Pi, tri.Point(c).Z)
}
