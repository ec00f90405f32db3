package render

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	stlHeaderSize   = 84
	stlTriangleSize = 50
	// maxNormalMismatches is the number of stored normals disagreeing with
	// their vertices tolerated before reading stops.
	maxNormalMismatches = 10_000
)

// ErrNormalMismatch is returned alongside the triangles read when some
// stored STL normals disagree with their vertex winding. The triangles are
// usable; the stored normals are discarded.
var ErrNormalMismatch = errors.New("stl: stored normal does not match triangle vertices")

// stlHeader defines the STL file header.
type stlHeader struct {
	_     [80]uint8 // Header
	Count uint32    // Number of triangles
}

// stlTriangle defines the triangle data within an STL file.
type stlTriangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
	_       uint16 // Attribute byte count
}

func stlFromTriangle(t Triangle3) (d stlTriangle) {
	d.Normal = vecTo3F32(t.Normal())
	d.Vertex1 = vecTo3F32(t.V[0])
	d.Vertex2 = vecTo3F32(t.V[1])
	d.Vertex3 = vecTo3F32(t.V[2])
	return d
}

// WriteSTL writes model to w in binary STL format.
func WriteSTL(w io.Writer, model []Triangle3) error {
	if len(model) == 0 {
		return errors.New("stl: empty triangle slice")
	}
	header := stlHeader{Count: uint32(len(model))}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	var b [stlTriangleSize]byte
	for _, triangle := range model {
		stlFromTriangle(triangle).put(b[:])
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	return nil
}

const trianglesInBuffer = 1 << 10

// stlEncoder adapts a TriangleReader to an io.Reader of STL triangle records.
type stlEncoder struct {
	r   TriangleReader
	buf [trianglesInBuffer]Triangle3
}

func (e *stlEncoder) Read(b []byte) (int, error) {
	ntMax := min(len(b)/stlTriangleSize, len(e.buf))
	if ntMax == 0 {
		return 0, errors.New("stl: encoder requires at least 50 bytes to write a single triangle")
	}
	nt, err := e.r.ReadTriangles(e.buf[:ntMax])
	if nt > ntMax {
		panic("bug: ReadTriangles read more triangles than available in buffer")
	}
	for i, triangle := range e.buf[:nt] {
		stlFromTriangle(triangle).put(b[i*stlTriangleSize:])
	}
	return nt * stlTriangleSize, err
}

// CreateSTL streams the triangles of r into a new binary STL file at path.
func CreateSTL(path string, r TriangleReader) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	// The header is written last, once the triangle count is known.
	if _, err = file.Seek(stlHeaderSize, io.SeekStart); err != nil {
		return err
	}
	n, err := io.CopyBuffer(file, &stlEncoder{r: r}, make([]byte, stlTriangleSize*trianglesInBuffer))
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("stl: no triangles to write")
	}
	if _, err = file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	header := stlHeader{Count: uint32(n / stlTriangleSize)}
	if err = binary.Write(file, binary.LittleEndian, &header); err != nil {
		return err
	}
	return file.Close()
}

// LoadSTL reads the binary STL file at path. See ReadSTL.
func LoadSTL(path string) ([]Triangle3, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return ReadSTL(fp)
}

// ReadSTL reads a binary STL stream. Triangles with non finite or
// coincident vertices are rejected. If stored normals disagree with the
// vertices the triangles are still returned together with an error
// wrapping ErrNormalMismatch.
func ReadSTL(r io.Reader) (output []Triangle3, readErr error) {
	var header stlHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, errors.New("stl: encountered EOF while reading header")
		}
		return nil, fmt.Errorf("stl: header read failed: %w", err)
	}
	if header.Count == 0 {
		return nil, errors.New("stl: header indicates 0 triangles present")
	}
	var (
		buf        [stlTriangleSize]byte
		d          stlTriangle
		mismatches int
	)
	output = make([]Triangle3, 0, min(int(header.Count), 1<<20))
	for i := 0; i < int(header.Count); i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("stl: %d/%d triangles read: %w", i, header.Count, err)
		}
		d.get(buf[:])
		if err := d.validate(); errors.Is(err, ErrNormalMismatch) {
			mismatches++
			if mismatches > maxNormalMismatches {
				return output, fmt.Errorf("stl: too many normal mismatches (%d): %w", mismatches, err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("stl: triangle %d: %w", i, err)
		}
		output = append(output, d.toTriangle3())
	}
	if mismatches > 0 {
		readErr = fmt.Errorf("%d/%d triangles: %w", mismatches, header.Count, ErrNormalMismatch)
	}
	return output, readErr
}

func (t stlTriangle) put(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to marshal stlTriangle")
	}
	put3F32(b, t.Normal)
	put3F32(b[12:], t.Vertex1)
	put3F32(b[24:], t.Vertex2)
	put3F32(b[36:], t.Vertex3)
	binary.LittleEndian.PutUint16(b[48:], 0)
}

func (t *stlTriangle) get(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to unmarshal stlTriangle")
	}
	get3F32(b, &t.Normal)
	get3F32(b[12:], &t.Vertex1)
	get3F32(b[24:], &t.Vertex2)
	get3F32(b[36:], &t.Vertex3)
}

func put3F32(b []byte, f [3]float32) {
	_ = b[11] // early bounds check
	binary.LittleEndian.PutUint32(b, math.Float32bits(f[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(f[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(f[2]))
}

func get3F32(b []byte, f *[3]float32) {
	_ = b[11] // early bounds check
	f[0] = math.Float32frombits(binary.LittleEndian.Uint32(b))
	f[1] = math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
	f[2] = math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))
}

func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

func (t stlTriangle) validate() error {
	const (
		epsilon = 1e-12
		normTol = 5e-2
	)
	if bad3F32(t.Vertex1) || bad3F32(t.Vertex2) || bad3F32(t.Vertex3) {
		return errors.New("inf/NaN vertex")
	}
	if t.degenerate(epsilon) {
		return errors.New("degenerate triangle")
	}
	if bad3F32(t.Normal) {
		return ErrNormalMismatch
	}
	// Some writers leave the normal zeroed.
	if t.Normal == ([3]float32{}) {
		return nil
	}
	calc := t.normalFromVertices()
	if !equalWithin3F32(calc, t.Normal, normTol) {
		return ErrNormalMismatch
	}
	return nil
}

func vecTo3F32(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func r3From3F32(f [3]float32) r3.Vec {
	return r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])}
}

func (t stlTriangle) normalFromVertices() [3]float32 {
	return vecTo3F32(t.toTriangle3().Normal())
}

func (t stlTriangle) degenerate(tol float32) bool {
	return equalWithin3F32(t.Vertex1, t.Vertex2, tol) ||
		equalWithin3F32(t.Vertex2, t.Vertex3, tol) ||
		equalWithin3F32(t.Vertex3, t.Vertex1, tol)
}

func equalWithin3F32(a, b [3]float32, tol float32) bool {
	return math32.Abs(a[0]-b[0]) <= tol &&
		math32.Abs(a[1]-b[1]) <= tol &&
		math32.Abs(a[2]-b[2]) <= tol
}

func (t stlTriangle) toTriangle3() Triangle3 {
	return Triangle3{V: [3]r3.Vec{
		r3From3F32(t.Vertex1),
		r3From3F32(t.Vertex2),
		r3From3F32(t.Vertex3),
	}}
}
