package fem

import (
	"testing"

	"github.com/notargets/PAKernel/device"
	"github.com/notargets/PAKernel/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxSpace(t *testing.T, dim, order int) *Space {
	t.Helper()
	m, err := mesh.Cartesian(mesh.CartesianConfig{
		Dim: dim, N: [3]int{2, 3, 2}, Length: [3]float64{2, 6, 1},
	})
	require.NoError(t, err)
	s, err := NewSpace(m, order)
	require.NoError(t, err)
	return s
}

func TestSpaceSizes(t *testing.T) {
	s := boxSpace(t, 3, 2)
	assert.Equal(t, 3, s.Dofs1D())
	assert.Equal(t, 27, s.ElementDofs())
	assert.Equal(t, 27*12, s.Size())
	assert.Equal(t, 1, NQuads1D(1))
	assert.Equal(t, 3, NQuads1D(4))
	assert.Len(t, IntRule(2, 4), 9)
	assert.Len(t, FaceRule(3, 2), 4)
	assert.Len(t, FaceRule(1, 7), 1)

	_, err := NewSpace(s.Mesh, 0)
	assert.Error(t, err)
}

func TestBasisTables(t *testing.T) {
	s := boxSpace(t, 2, 3)
	tb := s.Basis(6)
	require.Equal(t, 4, tb.Dofs1D)
	require.Equal(t, 4, tb.Quads1D)
	for q := 0; q < tb.Quads1D; q++ {
		var sb, sg float64
		for d := 0; d < tb.Dofs1D; d++ {
			sb += tb.B[d+tb.Dofs1D*q]
			sg += tb.G[d+tb.Dofs1D*q]
		}
		assert.InDelta(t, 1, sb, 1e-14)
		assert.InDelta(t, 0, sg, 1e-12)
	}
	assert.InDeltaSlice(t, []float64{1, 0, 0, 0}, tb.B0, 1e-14)
	assert.InDeltaSlice(t, []float64{0, 0, 0, 1}, tb.B1, 1e-14)
}

func TestEvalJacobians(t *testing.T) {
	s := boxSpace(t, 2, 1)
	for _, workers := range []int{1, 4} {
		jac, err := EvalJacobians(device.NewHost(device.Config{Workers: workers}), s, 3)
		require.NoError(t, err)
		assert.Equal(t, [4]int{2, 2, 4, 6}, jac.Dims())
		for i := 0; i < 4*6; i++ {
			assert.InDeltaSlice(t, []float64{1, 0, 0, 2}, jac.Data()[4*i:4*i+4], 1e-14)
		}
	}
}

func TestProjectNodes(t *testing.T) {
	s := boxSpace(t, 3, 2)
	u := s.Project(func(x []float64) float64 { return x[0] + 10*x[1] + 100*x[2] })
	// element 1 sits at x in [1,2]; its last node is the far corner (2, 2, 0.5)
	nd := s.ElementDofs()
	assert.InDelta(t, 2+20+50, u[nd*1+nd-1], 1e-12)
	assert.InDelta(t, 1, u[nd*1], 1e-12)

	c := ConstantVector{1, 2, 3}
	v := make([]float64, 3)
	c.Eval(0, nil, v)
	assert.Equal(t, []float64{1, 2, 3}, v)
	assert.Equal(t, 4.0, FunctionCoefficient(func(x []float64) float64 { return 2 * x[0] }).Eval(3, []float64{2}))
}
