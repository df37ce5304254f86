package device

import (
	"runtime"
	"unsafe"

	"go.uber.org/zap"
)

// Memory is a single device allocation owned by exactly one array.
type Memory interface {
	Bytes() int64
	// CopyFrom transfers bytes from host memory at src into the allocation
	CopyFrom(src unsafe.Pointer, bytes int64)
	// CopyTo transfers bytes from the allocation into host memory at dst
	CopyTo(dst unsafe.Pointer, bytes int64)
	// CopyFromMemory duplicates bytes from another allocation of the same backend
	CopyFromMemory(src Memory, bytes int64)
	Free()
}

// HostMemory is implemented by allocations the host can address directly.
// Arrays backed by HostMemory alias it instead of keeping a staging copy.
type HostMemory interface {
	Memory
	Ptr() unsafe.Pointer
}

// Backend is the execution and allocation strategy selected once at startup
// and passed to every array, block set and operator constructor.
type Backend interface {
	Mode() string
	Malloc(bytes int64) (Memory, error)
	// Forall runs body for every i in [0,n). Iterations must not depend on
	// each other. Forall returns after all iterations finished, with the
	// first error reported by any of them.
	Forall(n int, body func(i int) error) error
	// Finish blocks until all outstanding device work has completed
	Finish()
	Logger() *zap.Logger
	Tracer() Tracer
	Free()
}

// Config holds configuration for creating a Backend
type Config struct {
	Mode    string // "Host" for the Go backend, OCCA mode names otherwise
	Workers int    // Concurrent workers for Forall, <= 0 means GOMAXPROCS
	Logger  *zap.Logger
	Tracer  Tracer
}

const ModeHost = "Host"

func (cfg Config) withDefaults() Config {
	if cfg.Mode == "" {
		cfg.Mode = ModeHost
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = NopTracer{}
	}
	return cfg
}

// Resolve returns cfg with zero values replaced by defaults. Backends
// implemented outside this package use it to share the same defaults.
func Resolve(cfg Config) Config {
	return cfg.withDefaults()
}
