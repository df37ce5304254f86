package device

import (
	"errors"
	"fmt"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrZeroBytes is returned when an allocation of zero bytes is requested
var ErrZeroBytes = errors.New("device: zero byte allocation")

// Host is the Go backend: memory lives on the Go heap and Forall fans work
// out to a bounded pool of goroutines.
type Host struct {
	cfg Config
}

// NewHost creates a host backend. Workers <= 1 executes Forall serially.
func NewHost(cfg Config) *Host {
	cfg = cfg.withDefaults()
	cfg.Mode = ModeHost
	h := &Host{cfg: cfg}
	cfg.Logger.Debug("created device", zap.String("mode", cfg.Mode),
		zap.Int("workers", cfg.Workers))
	return h
}

func (h *Host) Mode() string        { return h.cfg.Mode }
func (h *Host) Workers() int        { return h.cfg.Workers }
func (h *Host) Logger() *zap.Logger { return h.cfg.Logger }
func (h *Host) Tracer() Tracer      { return h.cfg.Tracer }
func (h *Host) Finish()             {}
func (h *Host) Free()               {}

// Malloc allocates 8-byte aligned, zeroed host memory
func (h *Host) Malloc(bytes int64) (Memory, error) {
	if bytes <= 0 {
		return nil, fmt.Errorf("%w: requested %d", ErrZeroBytes, bytes)
	}
	words := (bytes + 7) / 8
	return &hostMemory{buf: make([]uint64, words), bytes: bytes}, nil
}

// Forall splits [0,n) into one contiguous chunk per worker. Every iteration
// index is visited exactly once regardless of the worker count.
func (h *Host) Forall(n int, body func(i int) error) error {
	return forall(h.cfg.Workers, n, body)
}

func forall(workers, n int, body func(i int) error) error {
	if n <= 0 {
		return nil
	}
	if workers <= 1 || n == 1 {
		for i := 0; i < n; i++ {
			if err := body(i); err != nil {
				return err
			}
		}
		return nil
	}
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		lo, hi := start, min(start+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := body(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Executor runs Forall on the host for backends whose kernels are Go code
type Executor struct {
	Workers int
}

func (ex Executor) Forall(n int, body func(i int) error) error {
	return forall(ex.Workers, n, body)
}

type hostMemory struct {
	buf   []uint64
	bytes int64
}

func (m *hostMemory) Bytes() int64 { return m.bytes }

func (m *hostMemory) Ptr() unsafe.Pointer {
	if len(m.buf) == 0 {
		return nil
	}
	return unsafe.Pointer(&m.buf[0])
}

func (m *hostMemory) view() []byte {
	return unsafe.Slice((*byte)(m.Ptr()), m.bytes)
}

func (m *hostMemory) CopyFrom(src unsafe.Pointer, bytes int64) {
	copy(m.view()[:bytes], unsafe.Slice((*byte)(src), bytes))
}

func (m *hostMemory) CopyTo(dst unsafe.Pointer, bytes int64) {
	copy(unsafe.Slice((*byte)(dst), bytes), m.view()[:bytes])
}

func (m *hostMemory) CopyFromMemory(src Memory, bytes int64) {
	if hm, ok := src.(HostMemory); ok {
		m.CopyFrom(hm.Ptr(), bytes)
		return
	}
	src.CopyTo(m.Ptr(), bytes)
}

func (m *hostMemory) Free() {
	m.buf = nil
	m.bytes = 0
}
