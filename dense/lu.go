// Package dense holds the small dense kernels applied once per finite element:
// batched LU with partial pivoting, closed-form 2x2 and 3x3 inverses, norms and
// a few matrix helpers. Every matrix is column-major, a[i + j*m].
package dense

import (
	"errors"
	"fmt"
	"math"
)

var ErrSingularPivot = errors.New("dense: singular pivot")

// Factor computes the in-place LU factorisation of the m x m block a with
// partial pivoting. ipiv[t] receives the row swapped with row t at step t.
// The unit lower factor is stored below the diagonal.
func Factor(m int, a []float64, ipiv []int32) error {
	for t := 0; t < m; t++ {
		piv := t
		amax := math.Abs(a[t+t*m])
		for j := t + 1; j < m; j++ {
			if b := math.Abs(a[j+t*m]); b > amax {
				amax = b
				piv = j
			}
		}
		ipiv[t] = int32(piv)
		if piv != t {
			for j := 0; j < m; j++ {
				a[t+j*m], a[piv+j*m] = a[piv+j*m], a[t+j*m]
			}
		}
		if amax == 0 {
			return fmt.Errorf("%w: column %d of %dx%d block", ErrSingularPivot, t, m, m)
		}
		inv := 1 / a[t+t*m]
		for j := t + 1; j < m; j++ {
			a[j+t*m] *= inv
		}
		for k := t + 1; k < m; k++ {
			aik := a[t+k*m]
			for j := t + 1; j < m; j++ {
				a[j+k*m] -= aik * a[j+t*m]
			}
		}
	}
	return nil
}

// LSolve applies the row permutation and the unit lower factor to the n
// right-hand sides stored contiguously in x (column k at x[k*m:]).
func LSolve(m, n int, lu []float64, ipiv []int32, x []float64) {
	for k := 0; k < n; k++ {
		xk := x[k*m : (k+1)*m]
		for i := 0; i < m; i++ {
			p := ipiv[i]
			xk[i], xk[p] = xk[p], xk[i]
		}
		for j := 0; j < m; j++ {
			xj := xk[j]
			for i := j + 1; i < m; i++ {
				xk[i] -= lu[i+j*m] * xj
			}
		}
	}
}

// USolve back-substitutes the upper factor for n right-hand sides
func USolve(m, n int, lu []float64, x []float64) {
	for k := 0; k < n; k++ {
		xk := x[k*m : (k+1)*m]
		for j := m - 1; j >= 0; j-- {
			xk[j] /= lu[j+j*m]
			xj := xk[j]
			for i := 0; i < j; i++ {
				xk[i] -= lu[i+j*m] * xj
			}
		}
	}
}

// Solve runs LSolve then USolve
func Solve(m, n int, lu []float64, ipiv []int32, x []float64) {
	LSolve(m, n, lu, ipiv, x)
	USolve(m, n, lu, x)
}

// Invert writes the inverse of the factored block into inv (m*m values)
func Invert(m int, lu []float64, ipiv []int32, inv []float64) {
	Diag(m, m*m, 1, inv)
	Solve(m, m, lu, ipiv, inv)
}

// LUDet is the product of the pivots, negated once per row swap
func LUDet(m int, lu []float64, ipiv []int32) float64 {
	det := 1.0
	for i := 0; i < m; i++ {
		det *= lu[i+i*m]
		if int(ipiv[i]) != i {
			det = -det
		}
	}
	return det
}
