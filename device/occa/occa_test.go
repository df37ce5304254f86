package occa

import (
	"math/rand"
	"testing"

	"github.com/notargets/PAKernel/array"
	"github.com/notargets/PAKernel/dense"
	"github.com/notargets/PAKernel/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testBackend(t *testing.T) *Backend {
	t.Helper()
	dev, err := CreateTestDevice(zaptest.NewLogger(t))
	if err != nil {
		t.Skipf("no OCCA device: %v", err)
	}
	b := New(dev, device.Config{Workers: 2})
	t.Cleanup(b.Free)
	return b
}

func TestArraysLiveOnDevice(t *testing.T) {
	b := testBackend(t)
	a, err := array.AllocXYZ[float64](b, 3, 4)
	require.NoError(t, err)
	defer a.Free()
	_, isOCCA := a.Memory().(*Memory)
	require.True(t, isOCCA)
	assert.Equal(t, make([]float64, 12), a.Data())

	src := make([]float64, 12)
	for i := range src {
		src[i] = float64(i) + 0.25
	}
	require.NoError(t, a.AssignHost(src))
	clone, err := a.Clone()
	require.NoError(t, err)
	defer clone.Free()
	clone.Pull()
	assert.Equal(t, src, clone.Data())

	clone.Set2(0, 0, -1)
	clone.Push()
	a.Pull()
	assert.Equal(t, 0.25, a.At2(0, 0))
}

func TestMallocZeroBytes(t *testing.T) {
	b := testBackend(t)
	_, err := b.Malloc(0)
	assert.ErrorIs(t, err, device.ErrZeroBytes)
	_, err = handle(nil)
	assert.ErrorIs(t, err, ErrForeignMemory)
}

func randomBlocks(t *testing.T, backend device.Backend, m, n int, seed int64) *dense.Blocks {
	t.Helper()
	blocks, err := dense.NewBlocks(backend, m, n)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(seed))
	for e := 0; e < n; e++ {
		v := make([]float64, m*m)
		for i := range v {
			v[i] = rng.NormFloat64()
		}
		blocks.SetBlock(e, v)
	}
	blocks.Data.Push()
	return blocks
}

func TestBlockSolverMatchesHost(t *testing.T) {
	b := testBackend(t)
	solver, err := NewBlockSolver(b)
	require.NoError(t, err)
	defer solver.Free()

	const m, n, nrhs = 5, 40, 2
	onDevice := randomBlocks(t, b, m, n, 3)
	defer onDevice.Free()
	onHost := randomBlocks(t, device.NewHost(device.Config{Workers: 1}), m, n, 3)
	defer onHost.Free()

	require.NoError(t, solver.Factor(onDevice))
	require.NoError(t, onHost.Factor())
	assert.Equal(t, onHost.Pivots.Data(), onDevice.Pivots.Data())
	assert.InDeltaSlice(t, onHost.Data.Data(), onDevice.Data.Data(), 1e-12)

	rhsHost, err := array.AllocXYZ[float64](device.NewHost(device.Config{}), m, nrhs, n)
	require.NoError(t, err)
	defer rhsHost.Free()
	rhsDev, err := array.AllocXYZ[float64](b, m, nrhs, n)
	require.NoError(t, err)
	defer rhsDev.Free()
	for i := range rhsHost.Data() {
		rhsHost.Set(i, float64(i%7)-3)
	}
	require.NoError(t, rhsDev.AssignHost(rhsHost.Data()))

	require.NoError(t, onHost.Solve(rhsHost, nrhs))
	require.NoError(t, solver.Solve(onDevice, rhsDev, nrhs))
	assert.InDeltaSlice(t, rhsHost.Data(), rhsDev.Data(), 1e-10)

	assert.ErrorIs(t, solver.Solve(onDevice, rhsDev, nrhs+1), array.ErrShape)
}

func TestBlockSolverReportsSingularBlock(t *testing.T) {
	b := testBackend(t)
	solver, err := NewBlockSolver(b)
	require.NoError(t, err)
	defer solver.Free()

	blocks := randomBlocks(t, b, 3, 20, 4)
	defer blocks.Free()
	blocks.SetBlock(11, []float64{1, 2, 4, 2, 4, 8, 0, 0, 1})
	blocks.Data.Push()
	err = solver.Factor(blocks)
	assert.ErrorIs(t, err, dense.ErrSingularPivot)
	assert.ErrorContains(t, err, "block 11")
}
