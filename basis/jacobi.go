// Package basis provides the one-dimensional ingredients of tensor-product
// elements: orthonormal Jacobi polynomials, Gauss and Gauss-Lobatto rules and
// Lagrange interpolation tables built from them.
package basis

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// JacobiP evaluates the orthonormal Jacobi polynomial of type (alpha,beta)
// and order n at the points x on [-1,1].
func JacobiP(x []float64, alpha, beta float64, n int) []float64 {
	np := len(x)
	gamma0 := Gamma0(alpha, beta)
	pm := make([]float64, np)
	for i := range pm {
		pm[i] = 1 / math.Sqrt(gamma0)
	}
	if n == 0 {
		return pm
	}

	gamma1 := Gamma1(alpha, beta)
	p := make([]float64, np)
	for i := range p {
		p[i] = ((alpha+beta+2)*x[i]/2 + (alpha-beta)/2) / math.Sqrt(gamma1)
	}
	if n == 1 {
		return p
	}

	// three term recurrence, pm holds order i-1 and p order i
	aold := 2 / (2 + alpha + beta) * math.Sqrt((alpha+1)*(beta+1)/(alpha+beta+3))
	for i := 1; i < n; i++ {
		fi := float64(i)
		h1 := 2*fi + alpha + beta
		anew := 2 / (h1 + 2) * math.Sqrt((fi+1)*(fi+1+alpha+beta)*
			(fi+1+alpha)*(fi+1+beta)/(h1+1)/(h1+3))
		bnew := -(alpha*alpha - beta*beta) / h1 / (h1 + 2)
		for j := range p {
			next := (-aold*pm[j] + (x[j]-bnew)*p[j]) / anew
			pm[j], p[j] = p[j], next
		}
		aold = anew
	}
	return p
}

// GradJacobiP is the derivative of JacobiP, using
// d/dx P_n^(a,b) = sqrt(n(n+a+b+1)) P_{n-1}^(a+1,b+1)
func GradJacobiP(x []float64, alpha, beta float64, n int) []float64 {
	dp := make([]float64, len(x))
	if n == 0 {
		return dp
	}
	p := JacobiP(x, alpha+1, beta+1, n-1)
	scale := math.Sqrt(float64(n) * (float64(n) + alpha + beta + 1))
	for i := range dp {
		dp[i] = scale * p[i]
	}
	return dp
}

// JacobiGQ returns the n+1 point Gauss-Jacobi rule of type (alpha,beta) on
// [-1,1], nodes ascending, from the eigen decomposition of the Jacobi matrix.
func JacobiGQ(alpha, beta float64, n int) (x, w []float64) {
	if n == 0 {
		return []float64{-(alpha - beta) / (alpha + beta + 2)}, []float64{2}
	}

	h1 := make([]float64, n+1)
	for i := range h1 {
		h1[i] = 2*float64(i) + alpha + beta
	}
	d0 := make([]float64, n+1)
	fac := beta*beta - alpha*alpha
	for i := range d0 {
		d0[i] = fac / (h1[i] * (h1[i] + 2))
	}
	if alpha+beta < 1e-15 {
		d0[0] = 0
	}
	d1 := make([]float64, n)
	for i := range d1 {
		ip1 := float64(i + 1)
		d1[i] = 2 / (h1[i] + 2) * math.Sqrt(
			ip1*(ip1+alpha+beta)*(ip1+alpha)*(ip1+beta)/(h1[i]+1)/(h1[i]+3))
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(symTriDiagonal(d0, d1), true); !ok {
		panic("basis: eigenvalue decomposition failed")
	}
	x = eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	w = make([]float64, n+1)
	g0 := Gamma0(alpha, beta)
	for i := range w {
		v := vecs.At(0, i)
		w[i] = v * v * g0
	}
	return x, w
}

// JacobiGL returns the n+1 Gauss-Lobatto nodes of type (alpha,beta) on
// [-1,1]: the endpoints plus the zeros of P'_n.
func JacobiGL(alpha, beta float64, n int) []float64 {
	switch n {
	case 0:
		return []float64{0}
	case 1:
		return []float64{-1, 1}
	}
	xint, _ := JacobiGQ(alpha+1, beta+1, n-2)
	x := make([]float64, n+1)
	x[0] = -1
	copy(x[1:n], xint)
	x[n] = 1
	return x
}

func Gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1
	return math.Gamma(alpha+1) * math.Gamma(beta+1) * math.Pow(2, ab1) / ab1 /
		math.Gamma(ab1)
}

func Gamma1(alpha, beta float64) float64 {
	return (alpha + 1) * (beta + 1) * Gamma0(alpha, beta) / (alpha + beta + 3)
}

func symTriDiagonal(d0, d1 []float64) *mat.SymDense {
	n := len(d0)
	t := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		t.SetSym(i, i, d0[i])
		if i < n-1 {
			t.SetSym(i, i+1, d1[i])
		}
	}
	return t
}
