package render

import (
	"io"
	"slices"
)

// ReadAll reads r until io.EOF and returns the triangles read. Readers
// with a Len method, such as MeshReader, are read into a single
// allocation.
func ReadAll(r TriangleReader) ([]Triangle3, error) {
	sized, ok := r.(interface{ Len() int })
	size := 1 << 12
	if ok {
		size = sized.Len()
	}
	result := make([]Triangle3, 0, size)
	for {
		if len(result) == cap(result) {
			if ok && sized.Len() == 0 {
				return result, nil
			}
			result = slices.Grow(result, 1024)
		}
		n, err := r.ReadTriangles(result[len(result):cap(result)])
		result = result[:len(result)+n]
		if err == io.EOF {
			return result, nil
		} else if err != nil {
			return result, err
		}
	}
}
