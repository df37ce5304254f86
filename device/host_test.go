package device

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestForallVisitsEveryIndexOnce checks chunking for a range of worker counts
func TestForallVisitsEveryIndexOnce(t *testing.T) {
	for _, workers := range []int{1, 2, 3, 7, 64} {
		for _, n := range []int{0, 1, 5, 100, 1001} {
			t.Run(fmt.Sprintf("workers=%d/n=%d", workers, n), func(t *testing.T) {
				h := NewHost(Config{Workers: workers})
				counts := make([]int32, n)
				err := h.Forall(n, func(i int) error {
					atomic.AddInt32(&counts[i], 1)
					return nil
				})
				require.NoError(t, err)
				for i, c := range counts {
					assert.Equal(t, int32(1), c, "index %d", i)
				}
			})
		}
	}
}

func TestForallReturnsFirstError(t *testing.T) {
	sentinel := errors.New("boom")
	for _, workers := range []int{1, 4} {
		h := NewHost(Config{Workers: workers})
		err := h.Forall(50, func(i int) error {
			if i == 17 {
				return fmt.Errorf("iteration %d: %w", i, sentinel)
			}
			return nil
		})
		assert.ErrorIs(t, err, sentinel)
	}
}

func TestHostMemoryRoundTrip(t *testing.T) {
	h := NewHost(Config{})
	defer h.Free()

	src := []float64{1.5, -2.25, 3e-300, 4}
	bytes := int64(len(src) * 8)
	mem, err := h.Malloc(bytes)
	require.NoError(t, err)
	defer mem.Free()
	assert.Equal(t, bytes, mem.Bytes())

	mem.CopyFrom(unsafe.Pointer(&src[0]), bytes)

	other, err := h.Malloc(bytes)
	require.NoError(t, err)
	other.CopyFromMemory(mem, bytes)

	dst := make([]float64, len(src))
	other.CopyTo(unsafe.Pointer(&dst[0]), bytes)
	assert.Equal(t, src, dst)

	// the two allocations must not alias
	dst[0] = 99
	other.CopyFrom(unsafe.Pointer(&dst[0]), 8)
	back := make([]float64, 1)
	mem.CopyTo(unsafe.Pointer(&back[0]), 8)
	assert.Equal(t, 1.5, back[0])
}

func TestHostMallocZero(t *testing.T) {
	h := NewHost(Config{})
	_, err := h.Malloc(0)
	assert.ErrorIs(t, err, ErrZeroBytes)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Resolve(Config{})
	assert.Equal(t, ModeHost, cfg.Mode)
	assert.Positive(t, cfg.Workers)
	assert.NotNil(t, cfg.Logger)
	assert.IsType(t, NopTracer{}, cfg.Tracer)
}

func TestZapTracerLogsPhases(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tr := NewZapTracer(zap.New(core))

	func() {
		defer Trace(tr, "outer")()
		defer Trace(tr, "inner")()
	}()

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, "enter", entries[0].Message)
	assert.Equal(t, "outer", entries[0].ContextMap()["phase"])
	assert.Equal(t, "exit", entries[2].Message)
	assert.Equal(t, "inner", entries[2].ContextMap()["phase"])
	assert.Equal(t, "outer", entries[3].ContextMap()["phase"])
}

func TestRecordingTracerOrder(t *testing.T) {
	rt := &RecordingTracer{}
	func() {
		defer Trace(rt, "a")()
	}()
	assert.Equal(t, []string{"enter a", "exit a"}, rt.Events)
}
