package pa

import (
	"math"
	"math/rand"
	"testing"

	"github.com/notargets/PAKernel/array"
	"github.com/notargets/PAKernel/basis"
	"github.com/notargets/PAKernel/dense"
	"github.com/notargets/PAKernel/device"
	"github.com/notargets/PAKernel/fem"
	"github.com/notargets/PAKernel/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gonum.org/v1/gonum/mat"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func host(workers int) device.Backend {
	return device.NewHost(device.Config{Workers: workers})
}

func randomTwists(dim int, seed int64) func(int) int {
	rng := rand.New(rand.NewSource(seed))
	n := len(mesh.ProperRotations(dim))
	cache := make(map[int]int)
	return func(e int) int {
		if r, ok := cache[e]; ok {
			return r
		}
		cache[e] = rng.Intn(n)
		return cache[e]
	}
}

func warp(x []float64) []float64 {
	y := append([]float64(nil), x...)
	y[0] += 0.07 * math.Sin(2*math.Pi*x[len(x)-1]/2)
	if len(x) > 1 {
		y[1] += 0.05 * math.Cos(2*math.Pi*x[0]/2)
	}
	return y
}

// twistedSpace is a warped box of side 2 with randomly rotated elements
func twistedSpace(t *testing.T, dim, order int, periodic bool) *fem.Space {
	t.Helper()
	cfg := mesh.CartesianConfig{
		Dim: dim, N: [3]int{2, 2, 2}, Length: [3]float64{2, 2, 2},
		Twist: randomTwists(dim, int64(7+dim)), Warp: warp,
	}
	if periodic {
		n := mesh.MinPeriodic(dim)
		cfg.N = [3]int{n, n, n}
		cfg.Periodic = [3]bool{true, true, true}
	}
	m, err := mesh.Cartesian(cfg)
	require.NoError(t, err)
	s, err := fem.NewSpace(m, order)
	require.NoError(t, err)
	return s
}

// refShape evaluates every element basis function and its reference
// gradient at ip
func refShape(l *basis.Lagrange, dim int, ip basis.IntegrationPoint) (phi []float64, grad [][3]float64) {
	n := l.Len()
	var b, g [3][]float64
	for a := 0; a < dim; a++ {
		b[a], g[a] = l.Eval(ip.Coord(a)), l.Deriv(ip.Coord(a))
	}
	nd := 1
	for a := 0; a < dim; a++ {
		nd *= n
	}
	phi = make([]float64, nd)
	grad = make([][3]float64, nd)
	for i := 0; i < nd; i++ {
		var idx [3]int
		for a, r := 0, i; a < dim; a++ {
			idx[a], r = r%n, r/n
		}
		phi[i] = 1
		for a := 0; a < dim; a++ {
			phi[i] *= b[a][idx[a]]
			grad[i][a] = 1
			for c := 0; c < dim; c++ {
				if c == a {
					grad[i][a] *= g[c][idx[c]]
				} else {
					grad[i][a] *= b[c][idx[c]]
				}
			}
		}
	}
	return phi, grad
}

// elementMatrix assembles the full matrix of one element from the physical
// basis, the slow way.
func elementMatrix(t *testing.T, s *fem.Space, e, order int, kind OpKind,
	coef fem.Coefficient, beta fem.VectorCoefficient) *mat.Dense {
	t.Helper()
	dim := s.Dim()
	l, err := basis.NewLagrange(s.Nodes1D())
	require.NoError(t, err)
	nd := s.ElementDofs()
	a := mat.NewDense(nd, nd, nil)
	tr := s.Mesh.ElementTransformation(e)
	for _, ip := range fem.IntRule(dim, order) {
		phi, rg := refShape(l, dim, ip)
		jac := tr.Jacobian(ip)
		det := dense.Det(dim, jac)
		inv := make([]float64, dim*dim)
		switch dim {
		case 1:
			inv[0] = 1 / jac[0]
		case 2:
			dense.Inverse2(jac, inv)
		case 3:
			dense.Inverse3(jac, inv)
		}
		x := tr.Transform(ip)
		pg := make([][3]float64, nd)
		for i := range pg {
			for c := 0; c < dim; c++ {
				for b := 0; b < dim; b++ {
					pg[i][c] += inv[b+dim*c] * rg[i][b]
				}
			}
		}
		var bv [3]float64
		if beta != nil {
			beta.Eval(e, x, bv[:dim])
		}
		w := ip.Weight * det
		for i := 0; i < nd; i++ {
			for j := 0; j < nd; j++ {
				var v float64
				switch kind {
				case BtDB:
					v = coef.Eval(e, x) * phi[i] * phi[j]
				case GtDG:
					for c := 0; c < dim; c++ {
						v += pg[i][c] * pg[j][c]
					}
					v *= coef.Eval(e, x)
				case BtDG:
					for c := 0; c < dim; c++ {
						v += bv[c] * pg[j][c]
					}
					v *= phi[i]
				}
				a.Set(i, j, a.At(i, j)+w*v)
			}
		}
	}
	return a
}

func oracleMult(t *testing.T, s *fem.Space, order int, kind OpKind,
	coef fem.Coefficient, beta fem.VectorCoefficient, x []float64) []float64 {
	nd := s.ElementDofs()
	y := make([]float64, len(x))
	for e := 0; e < s.NumElements(); e++ {
		a := elementMatrix(t, s, e, order, kind, coef, beta)
		var ye mat.VecDense
		ye.MulVec(a, mat.NewVecDense(nd, x[e*nd:(e+1)*nd]))
		copy(y[e*nd:], ye.RawVector().Data)
	}
	return y
}

func randomVector(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	x := make([]float64, n)
	for i := range x {
		x[i] = rng.NormFloat64()
	}
	return x
}

func assertClose(t *testing.T, want, got []float64, tol float64, msgAndArgs ...any) {
	t.Helper()
	require.Len(t, got, len(want))
	scale := 1.0
	for _, v := range want {
		scale = max(scale, math.Abs(v))
	}
	assert.InDeltaSlice(t, want, got, tol*scale, msgAndArgs...)
}

var (
	density = fem.FunctionCoefficient(func(x []float64) float64 { return 1 + 0.5*x[0]*x[0] })
	kappa   = fem.FunctionCoefficient(func(x []float64) float64 { return 2 + math.Sin(x[len(x)-1]) })
	swirl   = fem.FunctionVector(func(x []float64, v []float64) {
		for i := range v {
			v[i] = float64(i+1) + 0.3*x[(i+1)%len(x)]
		}
	})
)

func TestDomainOperatorsMatchAssembledMatrices(t *testing.T) {
	for dim := 1; dim <= 3; dim++ {
		s := twistedSpace(t, dim, 2, false)
		order := 2*s.Order + 1
		x := randomVector(s.Size(), int64(dim))
		y := make([]float64, s.Size())

		mass, err := NewDomainOperator(host(3), s, order, Mass{}, fem.Coefficient(density))
		require.NoError(t, err)
		require.NoError(t, mass.Mult(x, y))
		assertClose(t, oracleMult(t, s, order, BtDB, density, nil, x), y, 1e-12, "mass dim %d", dim)
		mass.Free()

		diff, err := NewDomainOperator(host(3), s, order, Diffusion{}, fem.Coefficient(kappa))
		require.NoError(t, err)
		require.NoError(t, diff.Mult(x, y))
		assertClose(t, oracleMult(t, s, order, GtDG, kappa, nil, x), y, 1e-11, "diffusion dim %d", dim)
		diff.Free()

		conv, err := NewDomainOperator(host(3), s, order, Convection{}, fem.VectorCoefficient(swirl))
		require.NoError(t, err)
		require.NoError(t, conv.Mult(x, y))
		assertClose(t, oracleMult(t, s, order, BtDG, nil, swirl, x), y, 1e-11, "convection dim %d", dim)
		conv.Free()
	}
}

func TestMassOnSingleQuadraturePoint(t *testing.T) {
	m, err := mesh.Cartesian(mesh.CartesianConfig{Dim: 2, N: [3]int{1, 1}})
	require.NoError(t, err)
	s, err := fem.NewSpace(m, 1)
	require.NoError(t, err)

	op, err := NewDomainOperator(host(1), s, 1, Mass{}, fem.Coefficient(fem.ConstantCoefficient(2)))
	require.NoError(t, err)
	defer op.Free()
	assert.Equal(t, [4]int{1, 1, 1, 1}, op.D.Dims())
	assert.InDelta(t, 2, op.D.At3(0, 0, 0), 1e-15)

	x := []float64{3, 3, 3, 3}
	y := []float64{1, 1, 1, 1}
	require.NoError(t, op.AddMult(x, y))
	// every bilinear basis function is 1/4 at the center
	assert.InDeltaSlice(t, []float64{2.5, 2.5, 2.5, 2.5}, y, 1e-14)
}

func TestStiffnessAnnihilatesConstants(t *testing.T) {
	for dim := 1; dim <= 3; dim++ {
		s := twistedSpace(t, dim, 3, false)
		op, err := NewDomainOperator(host(0), s, 2*s.Order, Diffusion{}, fem.Coefficient(kappa))
		require.NoError(t, err)
		x := make([]float64, s.Size())
		for i := range x {
			x[i] = 4.5
		}
		y := make([]float64, s.Size())
		require.NoError(t, op.Mult(x, y))
		assert.InDeltaSlice(t, make([]float64, s.Size()), y, 1e-11, "dim %d", dim)
		op.Free()
	}
}

func TestDomainConcurrencyIsBitIdentical(t *testing.T) {
	m, err := mesh.Cartesian(mesh.CartesianConfig{
		Dim: 3, N: [3]int{5, 5, 4}, Twist: randomTwists(3, 1), Warp: warp,
	})
	require.NoError(t, err)
	s, err := fem.NewSpace(m, 2)
	require.NoError(t, err)
	x := randomVector(s.Size(), 5)

	apply := func(workers int) []float64 {
		op, err := NewDomainOperator(host(workers), s, 5, Diffusion{}, fem.Coefficient(kappa))
		require.NoError(t, err)
		defer op.Free()
		y := make([]float64, s.Size())
		require.NoError(t, op.Mult(x, y))
		return y
	}
	serial := apply(1)
	for _, w := range []int{2, 7, 16} {
		assert.Equal(t, serial, apply(w), "workers %d", w)
	}
}

func TestDomainRecordsPhases(t *testing.T) {
	rt := &device.RecordingTracer{}
	b := device.NewHost(device.Config{Workers: 2, Tracer: rt})
	s := twistedSpace(t, 2, 1, false)
	op, err := NewDomainOperator(b, s, 3, Mass{}, fem.Coefficient(fem.ConstantCoefficient(1)))
	require.NoError(t, err)
	defer op.Free()
	assert.Equal(t, []string{
		"enter pa.domain.setup",
		"enter fem.jacobians", "exit fem.jacobians",
		"exit pa.domain.setup",
	}, rt.Events)
}

func TestDomainShapeErrors(t *testing.T) {
	s := twistedSpace(t, 2, 1, false)
	op, err := NewDomainOperator(host(1), s, 2, Convection{}, fem.VectorCoefficient(fem.ConstantVector{1, 0}))
	require.NoError(t, err)
	defer op.Free()
	assert.Equal(t, BtDG, op.Op())
	assert.Equal(t, "BtDG", op.Op().String())
	err = op.AddMult(make([]float64, 3), make([]float64, s.Size()))
	assert.ErrorIs(t, err, array.ErrShape)
}
