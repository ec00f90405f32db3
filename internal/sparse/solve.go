package sparse

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNotPositiveDefinite = errors.New("sparse: matrix is not positive definite")
	ErrIllConditioned      = errors.New("sparse: matrix is ill-conditioned")
)

const (
	// DenseLimit is the largest system factorized with a dense Cholesky
	// decomposition. Larger systems use conjugate gradients.
	DenseLimit = 3000
	// MaxCondition bounds the accepted condition number of a factorization.
	MaxCondition = 1e14
	// Tolerance is the relative residual at which conjugate gradients stop.
	Tolerance = 1e-10
)

// SolveSPD solves a*x = b for every column of b, where a is symmetric
// positive definite. b is left untouched.
func SolveSPD(a *CSR, b *mat.Dense) (*mat.Dense, error) {
	n, c := a.Dims()
	if n != c {
		panic(mat.ErrSquare)
	}
	if br, _ := b.Dims(); br != n {
		panic(mat.ErrShape)
	}
	if n <= DenseLimit {
		return solveCholesky(a, b)
	}
	return solveCG(a, b)
}

func solveCholesky(a *CSR, b *mat.Dense) (*mat.Dense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(a.SymDense()); !ok {
		return nil, ErrNotPositiveDefinite
	}
	if cond := chol.Cond(); cond > MaxCondition || math.IsNaN(cond) {
		return nil, fmt.Errorf("%w: condition number %.3g", ErrIllConditioned, cond)
	}
	var x mat.Dense
	err := chol.SolveTo(&x, b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllConditioned, err)
	}
	return &x, nil
}

// solveCG runs Jacobi preconditioned conjugate gradients per column.
func solveCG(a *CSR, b *mat.Dense) (*mat.Dense, error) {
	n, nrhs := b.Dims()
	diag := a.Diagonal()
	for i, d := range diag {
		if !(d > 0) {
			return nil, fmt.Errorf("%w: diagonal entry %d is %g", ErrNotPositiveDefinite, i, d)
		}
	}
	x := mat.NewDense(n, nrhs, nil)
	col := make([]float64, n)
	for j := 0; j < nrhs; j++ {
		mat.Col(col, j, b)
		sol, err := cg(a, diag, col)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", j, err)
		}
		x.SetCol(j, sol)
	}
	return x, nil
}

func cg(a *CSR, diag, b []float64) ([]float64, error) {
	n := len(b)
	x := make([]float64, n)
	r := append([]float64(nil), b...)
	z := make([]float64, n)
	floats.DivTo(z, r, diag)
	p := append([]float64(nil), z...)
	ap := make([]float64, n)
	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		return x, nil
	}
	rz := floats.Dot(r, z)
	for it := 0; it < 10*n; it++ {
		a.MulVec(ap, p)
		pap := floats.Dot(p, ap)
		if !(pap > 0) {
			return nil, ErrNotPositiveDefinite
		}
		alpha := rz / pap
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, ap)
		if floats.Norm(r, 2) <= Tolerance*bnorm {
			return x, nil
		}
		floats.DivTo(z, r, diag)
		rzNext := floats.Dot(r, z)
		beta := rzNext / rz
		rz = rzNext
		floats.AddScaledTo(p, z, beta, p)
	}
	return nil, fmt.Errorf("%w: no convergence after %d iterations", ErrIllConditioned, 10*n)
}
