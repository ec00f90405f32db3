package render

import (
	"errors"
	"image"
	"math"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/soypat/meshden/geom"
	"github.com/soypat/meshden/mesh"
)

// View configures the camera of a preview.
type View struct {
	// what position (point) to look at
	LookAt r3.Vec
	// which way is up (direction)
	Up r3.Vec
	// where the camera/eye is located (point)
	Eye       r3.Vec
	Near, Far float64
	// Output size in pixels.
	Width, Height int
	// Supersampling factor, 1 disables antialiasing.
	Scale int
	// Crease angle in radians. Edges whose dihedral angle exceeds it are
	// drawn sharp, zero gives flat shading.
	Crease float64
}

// DefaultView looks at the origin from (3,3,3) with z up. Meshes are fit
// into the bi-unit cube before drawing so it suits any model.
func DefaultView() View {
	return View{
		Up:     r3.Vec{Z: 1},
		Eye:    r3.Vec{X: 3, Y: 3, Z: 3},
		Near:   1,
		Far:    10,
		Width:  800,
		Height: 600,
		Scale:  2,
		Crease: math.Pi / 6,
	}
}

// Preview renders a phong shaded image of m.
func Preview(m *mesh.SurfaceMesh, view View) (image.Image, error) {
	tris := previewTriangles(m, view.Crease)
	if len(tris) == 0 {
		return nil, errors.New("render: nothing to preview")
	}
	if view.Width <= 0 || view.Height <= 0 {
		return nil, errors.New("render: preview size must be positive")
	}
	scale := max(view.Scale, 1)
	const fovy = 30 // vertical field of view in degrees
	var (
		eye    = fauxgl.V(view.Eye.X, view.Eye.Y, view.Eye.Z)
		center = fauxgl.V(view.LookAt.X, view.LookAt.Y, view.LookAt.Z)
		up     = fauxgl.V(view.Up.X, view.Up.Y, view.Up.Z)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
		color  = fauxgl.HexColor("#468966")
	)
	fm := fauxgl.NewTriangleMesh(tris)
	// fit mesh in a bi-unit cube centered at the origin
	fm.BiUnitCube()

	context := fauxgl.NewContext(view.Width*scale, view.Height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(view.Width) / float64(view.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = color
	context.Shader = shader
	context.DrawMesh(fm)
	img := context.Image()
	if scale > 1 {
		// downsample image for antialiasing
		img = resize.Resize(uint(view.Width), uint(view.Height), img, resize.Bilinear)
	}
	return img, nil
}

// SavePreviewPNG renders m as seen from view into a PNG file at path.
func SavePreviewPNG(path string, m *mesh.SurfaceMesh, view View) error {
	img, err := Preview(m, view)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(path, img)
}

// previewTriangles fan triangulates the faces of m carrying a corner
// normal on every vertex.
func previewTriangles(m *mesh.SurfaceMesh, crease float64) []*fauxgl.Triangle {
	tris := make([]*fauxgl.Triangle, 0, m.NumFaces())
	var corners []fauxgl.Vertex
	for f := range m.Faces() {
		corners = corners[:0]
		for h := range m.HalfedgesAroundFace(f) {
			corners = append(corners, fauxgl.Vertex{
				Position: vecToFauxgl(m.Point(m.ToVertex(h))),
				Normal:   vecToFauxgl(geom.CornerNormal(m, h, crease)),
			})
		}
		for i := 2; i < len(corners); i++ {
			tris = append(tris, fauxgl.NewTriangle(corners[0], corners[i-1], corners[i]))
		}
	}
	return tris
}

func vecToFauxgl(v r3.Vec) fauxgl.Vector {
	return fauxgl.V(v.X, v.Y, v.Z)
}
