// Package sparse holds the compressed sparse row matrices used to assemble
// the linear systems of the global normal filter and implicit smoothing.
// Matrices implement gonum's mat.Matrix so they interoperate with mat.
package sparse

import (
	"fmt"
	"slices"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Builder accumulates matrix entries in triplet form. Entries added to the
// same position are summed.
type Builder struct {
	r, c int
	rows []int
	cols []int
	vals []float64
}

// NewBuilder returns a builder for an r by c matrix.
func NewBuilder(r, c int) *Builder {
	if r < 0 || c < 0 {
		panic(mat.ErrNegativeDimension)
	}
	return &Builder{r: r, c: c}
}

// Add accumulates v at (i, j).
func (b *Builder) Add(i, j int, v float64) {
	if uint(i) >= uint(b.r) || uint(j) >= uint(b.c) {
		panic(fmt.Sprintf("sparse: entry (%d,%d) outside %dx%d", i, j, b.r, b.c))
	}
	b.rows = append(b.rows, i)
	b.cols = append(b.cols, j)
	b.vals = append(b.vals, v)
}

// Len returns the number of accumulated entries.
func (b *Builder) Len() int { return len(b.vals) }

// CSR compresses the accumulated entries. Columns are sorted within each row
// and duplicates are summed; explicit zeros are kept.
func (b *Builder) CSR() *CSR {
	m := &CSR{r: b.r, c: b.c, indptr: make([]int, b.r+1)}
	for _, i := range b.rows {
		m.indptr[i+1]++
	}
	for i := 0; i < b.r; i++ {
		m.indptr[i+1] += m.indptr[i]
	}
	ind := make([]int, len(b.vals))
	data := make([]float64, len(b.vals))
	next := slices.Clone(m.indptr[:b.r])
	for k, i := range b.rows {
		ind[next[i]] = b.cols[k]
		data[next[i]] = b.vals[k]
		next[i]++
	}
	// Sort each row and sum duplicates in place.
	m.ind = ind[:0]
	m.data = data[:0]
	start := 0
	for i := 0; i < b.r; i++ {
		end := m.indptr[i+1]
		row := rowSorter{ind[start:end], data[start:end]}
		sort.Sort(row)
		m.indptr[i] = len(m.ind)
		for k := range row.ind {
			if k > 0 && row.ind[k] == row.ind[k-1] {
				m.data[len(m.data)-1] += row.data[k]
				continue
			}
			m.ind = append(m.ind, row.ind[k])
			m.data = append(m.data, row.data[k])
		}
		start = end
	}
	m.indptr[b.r] = len(m.ind)
	return m
}

type rowSorter struct {
	ind  []int
	data []float64
}

func (s rowSorter) Len() int           { return len(s.ind) }
func (s rowSorter) Less(i, j int) bool { return s.ind[i] < s.ind[j] }
func (s rowSorter) Swap(i, j int) {
	s.ind[i], s.ind[j] = s.ind[j], s.ind[i]
	s.data[i], s.data[j] = s.data[j], s.data[i]
}

// CSR is an immutable compressed sparse row matrix.
type CSR struct {
	r, c   int
	indptr []int
	ind    []int
	data   []float64
}

var _ mat.Matrix = (*CSR)(nil)

// Identity returns the n by n identity matrix.
func Identity(n int) *CSR {
	m := &CSR{r: n, c: n, indptr: make([]int, n+1), ind: make([]int, n), data: make([]float64, n)}
	for i := 0; i < n; i++ {
		m.indptr[i+1] = i + 1
		m.ind[i] = i
		m.data[i] = 1
	}
	return m
}

// Dims returns the matrix dimensions.
func (m *CSR) Dims() (r, c int) { return m.r, m.c }

// At returns the element at (i, j).
func (m *CSR) At(i, j int) float64 {
	if uint(i) >= uint(m.r) {
		panic(mat.ErrRowAccess)
	}
	if uint(j) >= uint(m.c) {
		panic(mat.ErrColAccess)
	}
	row := m.ind[m.indptr[i]:m.indptr[i+1]]
	k, ok := slices.BinarySearch(row, j)
	if !ok {
		return 0
	}
	return m.data[m.indptr[i]+k]
}

// T returns the implicit transpose of m.
func (m *CSR) T() mat.Matrix { return mat.Transpose{Matrix: m} }

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int { return len(m.data) }

// RowDo calls fn for every stored entry of row i in column order.
func (m *CSR) RowDo(i int, fn func(j int, v float64)) {
	for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
		fn(m.ind[k], m.data[k])
	}
}

// Transpose returns the explicit transpose of m.
func (m *CSR) Transpose() *CSR {
	b := NewBuilder(m.c, m.r)
	for i := 0; i < m.r; i++ {
		m.RowDo(i, func(j int, v float64) { b.Add(j, i, v) })
	}
	return b.CSR()
}

// Mul returns the product m*n.
func (m *CSR) Mul(n *CSR) *CSR {
	if m.c != n.r {
		panic(mat.ErrShape)
	}
	b := NewBuilder(m.r, n.c)
	acc := make(map[int]float64)
	for i := 0; i < m.r; i++ {
		clear(acc)
		m.RowDo(i, func(k int, a float64) {
			n.RowDo(k, func(j int, v float64) { acc[j] += a * v })
		})
		for j, v := range acc {
			b.Add(i, j, v)
		}
	}
	return b.CSR()
}

// MulVec stores m*x in dst. dst must not alias x.
func (m *CSR) MulVec(dst, x []float64) {
	if len(x) != m.c || len(dst) != m.r {
		panic(mat.ErrShape)
	}
	for i := 0; i < m.r; i++ {
		var sum float64
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			sum += m.data[k] * x[m.ind[k]]
		}
		dst[i] = sum
	}
}

// Diagonal returns the diagonal entries of a square matrix.
func (m *CSR) Diagonal() []float64 {
	if m.r != m.c {
		panic(mat.ErrSquare)
	}
	d := make([]float64, m.r)
	for i := range d {
		d[i] = m.At(i, i)
	}
	return d
}

// AddScaled returns alpha*a + beta*b.
func AddScaled(alpha float64, a *CSR, beta float64, b *CSR) *CSR {
	if a.r != b.r || a.c != b.c {
		panic(mat.ErrShape)
	}
	bld := NewBuilder(a.r, a.c)
	for i := 0; i < a.r; i++ {
		a.RowDo(i, func(j int, v float64) { bld.Add(i, j, alpha*v) })
		b.RowDo(i, func(j int, v float64) { bld.Add(i, j, beta*v) })
	}
	return bld.CSR()
}

// ScaleRows returns diag(s)*m.
func (m *CSR) ScaleRows(s []float64) *CSR {
	if len(s) != m.r {
		panic(mat.ErrShape)
	}
	cp := &CSR{r: m.r, c: m.c, indptr: slices.Clone(m.indptr), ind: slices.Clone(m.ind), data: slices.Clone(m.data)}
	for i := 0; i < m.r; i++ {
		for k := cp.indptr[i]; k < cp.indptr[i+1]; k++ {
			cp.data[k] *= s[i]
		}
	}
	return cp
}

// SymDense copies the upper triangle of a square m into a dense symmetric
// matrix. Callers assemble m symmetric.
func (m *CSR) SymDense() *mat.SymDense {
	if m.r != m.c {
		panic(mat.ErrSquare)
	}
	s := mat.NewSymDense(m.r, nil)
	for i := 0; i < m.r; i++ {
		m.RowDo(i, func(j int, v float64) {
			if j >= i {
				s.SetSym(i, j, v)
			}
		})
	}
	return s
}
