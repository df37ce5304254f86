package basis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Lagrange is the nodal basis on [0,1] interpolating at Nodes. It is
// evaluated through the modal Legendre basis, l(x) = V(x) V(nodes)^-1.
type Lagrange struct {
	Nodes []float64
	vinv  *mat.Dense
}

func NewLagrange(nodes []float64) (*Lagrange, error) {
	n := len(nodes)
	if n == 0 {
		return nil, fmt.Errorf("basis: Lagrange basis without nodes")
	}
	v := vandermonde(n-1, nodes)
	var vinv mat.Dense
	if err := vinv.Inverse(v); err != nil {
		return nil, fmt.Errorf("basis: Lagrange nodes %v: %w", nodes, err)
	}
	return &Lagrange{Nodes: append([]float64(nil), nodes...), vinv: &vinv}, nil
}

// Len is the number of basis functions
func (l *Lagrange) Len() int { return len(l.Nodes) }

// Eval returns the value of every basis function at x
func (l *Lagrange) Eval(x float64) []float64 {
	return l.apply(vandermonde(l.Len()-1, []float64{x}))
}

// Deriv returns d/dx of every basis function at x
func (l *Lagrange) Deriv(x float64) []float64 {
	return l.apply(gradVandermonde(l.Len()-1, []float64{x}))
}

func (l *Lagrange) apply(v *mat.Dense) []float64 {
	var row mat.Dense
	row.Mul(v, l.vinv)
	return mat.Row(nil, 0, &row)
}

// Tables returns B[q][j] = l_j(x_q) and G[q][j] = l_j'(x_q), flattened as
// B[j + n*q].
func (l *Lagrange) Tables(x []float64) (b, g []float64) {
	var bm, gm mat.Dense
	bm.Mul(vandermonde(l.Len()-1, x), l.vinv)
	gm.Mul(gradVandermonde(l.Len()-1, x), l.vinv)
	return flatten(&bm), flatten(&gm)
}

func flatten(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}

// vandermonde evaluates the orthonormal Legendre modes up to order n at the
// [0,1] points x, one row per point.
func vandermonde(n int, x []float64) *mat.Dense {
	r := fromUnit(x)
	v := mat.NewDense(len(x), n+1, nil)
	for j := 0; j <= n; j++ {
		v.SetCol(j, JacobiP(r, 0, 0, j))
	}
	return v
}

func gradVandermonde(n int, x []float64) *mat.Dense {
	r := fromUnit(x)
	v := mat.NewDense(len(x), n+1, nil)
	for j := 0; j <= n; j++ {
		dp := GradJacobiP(r, 0, 0, j)
		// dr/dx = 2
		for i := range dp {
			dp[i] *= 2
		}
		v.SetCol(j, dp)
	}
	return v
}

func fromUnit(x []float64) []float64 {
	r := make([]float64, len(x))
	for i, v := range x {
		r[i] = 2*v - 1
	}
	return r
}
