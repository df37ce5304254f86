package basis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJacobiPMatchesLegendre(t *testing.T) {
	x := []float64{-1, -0.3, 0, 0.5, 1}
	// orthonormal Legendre: sqrt((2n+1)/2) P_n
	p2 := func(x float64) float64 { return (3*x*x - 1) / 2 }
	p3 := func(x float64) float64 { return (5*x*x*x - 3*x) / 2 }
	got2 := JacobiP(x, 0, 0, 2)
	got3 := JacobiP(x, 0, 0, 3)
	for i, xi := range x {
		assert.InDelta(t, math.Sqrt(2.5)*p2(xi), got2[i], 1e-14)
		assert.InDelta(t, math.Sqrt(3.5)*p3(xi), got3[i], 1e-14)
	}

	d3 := GradJacobiP(x, 0, 0, 3)
	for i, xi := range x {
		assert.InDelta(t, math.Sqrt(3.5)*(15*xi*xi-3)/2, d3[i], 1e-13)
	}
}

func TestJacobiPOrthonormal(t *testing.T) {
	x, w := JacobiGQ(1, 2, 8)
	for m := 0; m < 5; m++ {
		for n := 0; n < 5; n++ {
			pm := JacobiP(x, 1, 2, m)
			pn := JacobiP(x, 1, 2, n)
			var s float64
			for i := range x {
				s += w[i] * pm[i] * pn[i]
			}
			want := 0.0
			if m == n {
				want = 1
			}
			assert.InDelta(t, want, s, 1e-12, "m=%d n=%d", m, n)
		}
	}
}

func TestGaussLegendreExactness(t *testing.T) {
	for n := 1; n <= 6; n++ {
		x, w := GaussLegendre(n)
		require.Len(t, x, n)
		for deg := 0; deg <= 2*n-1; deg++ {
			var s float64
			for i := range x {
				s += w[i] * math.Pow(x[i], float64(deg))
			}
			assert.InDelta(t, 1/float64(deg+1), s, 1e-13, "n=%d deg=%d", n, deg)
		}
		for i := 1; i < n; i++ {
			assert.Less(t, x[i-1], x[i])
		}
	}
}

func TestGaussLobattoNodes(t *testing.T) {
	assert.Equal(t, []float64{0.5}, GaussLobatto(1))
	assert.Equal(t, []float64{0, 1}, GaussLobatto(2))
	x := GaussLobatto(3)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1}, x, 1e-15)
	x = GaussLobatto(4)
	s := 1 / math.Sqrt(5)
	assert.InDeltaSlice(t, []float64{0, (1 - s) / 2, (1 + s) / 2, 1}, x, 1e-14)
}

func TestLagrangeInterpolates(t *testing.T) {
	nodes := GaussLobatto(4)
	l, err := NewLagrange(nodes)
	require.NoError(t, err)
	for i, xi := range nodes {
		v := l.Eval(xi)
		for j := range v {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, v[j], 1e-13)
		}
	}

	// reproduces a cubic and its derivative
	f := func(x float64) float64 { return x*x*x - 2*x + 1 }
	df := func(x float64) float64 { return 3*x*x - 2 }
	for _, x := range []float64{0.1, 0.37, 0.9} {
		v, d := l.Eval(x), l.Deriv(x)
		var fv, dv float64
		for j, xj := range nodes {
			fv += v[j] * f(xj)
			dv += d[j] * f(xj)
		}
		assert.InDelta(t, f(x), fv, 1e-13)
		assert.InDelta(t, df(x), dv, 1e-12)
	}

	xq, _ := GaussLegendre(3)
	b, g := l.Tables(xq)
	require.Len(t, b, 12)
	assert.InDeltaSlice(t, l.Eval(xq[1]), b[4:8], 1e-14)
	assert.InDeltaSlice(t, l.Deriv(xq[2]), g[8:12], 1e-14)

	_, err = NewLagrange(nil)
	assert.Error(t, err)
}

func TestTensorRuleOrdering(t *testing.T) {
	ips := TensorRule(3, 2)
	require.Len(t, ips, 8)
	x, _ := GaussLegendre(2)
	assert.Equal(t, x[1], ips[1].X)
	assert.Equal(t, x[0], ips[1].Y)
	assert.Equal(t, x[1], ips[2].Y)
	assert.Equal(t, x[1], ips[4].Z)
	var vol float64
	for _, ip := range ips {
		vol += ip.Weight
	}
	assert.InDelta(t, 1, vol, 1e-14)
	assert.Equal(t, ips[5].Z, ips[5].Coord(2))
	assert.Panics(t, func() { TensorRule(4, 2) })
}
