// Package occa runs device arrays and batched dense kernels on an OCCA
// device through the gocca binding.
package occa

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/notargets/PAKernel/device"
	"github.com/notargets/gocca"
	"go.uber.org/zap"
)

var ErrForeignMemory = errors.New("occa: memory does not belong to an OCCA device")

// Backend allocates on an OCCA device. Go kernels passed to Forall run on
// the host executor against the staged host views.
type Backend struct {
	Device *gocca.OCCADevice
	cfg    device.Config
	exec   device.Executor
}

// New wraps an open device. The backend takes ownership and frees it.
func New(dev *gocca.OCCADevice, cfg device.Config) *Backend {
	cfg = device.Resolve(cfg)
	cfg.Mode = dev.Mode()
	return &Backend{
		Device: dev,
		cfg:    cfg,
		exec:   device.Executor{Workers: cfg.Workers},
	}
}

// Open creates a device from OCCA properties such as {"mode": "Serial"}
func Open(props string, cfg device.Config) (*Backend, error) {
	dev, err := gocca.NewDevice(props)
	if err != nil {
		return nil, fmt.Errorf("occa: opening device %s: %w", props, err)
	}
	return New(dev, cfg), nil
}

// CreateTestDevice opens the first available device, preferring parallel
// modes over Serial.
func CreateTestDevice(logger *zap.Logger) (*gocca.OCCADevice, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	backends := []string{
		`{"mode": "OpenMP"}`,
		`{"mode": "CUDA", "device_id": 0}`,
		`{"mode": "Serial"}`,
	}
	var errs []error
	for _, props := range backends {
		dev, err := gocca.NewDevice(props)
		if err == nil {
			logger.Info("created device", zap.String("mode", dev.Mode()))
			return dev, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("occa: no device available: %w", errors.Join(errs...))
}

func (b *Backend) Mode() string        { return b.cfg.Mode }
func (b *Backend) Logger() *zap.Logger { return b.cfg.Logger }
func (b *Backend) Tracer() device.Tracer {
	return b.cfg.Tracer
}

func (b *Backend) Finish() { b.Device.Finish() }

func (b *Backend) Free() { b.Device.Free() }

func (b *Backend) Forall(n int, body func(i int) error) error {
	return b.exec.Forall(n, body)
}

// Malloc allocates bytes on the device. Contents are undefined until the
// first transfer.
func (b *Backend) Malloc(bytes int64) (device.Memory, error) {
	if bytes <= 0 {
		return nil, fmt.Errorf("%w: requested %d", device.ErrZeroBytes, bytes)
	}
	mem := b.Device.Malloc(bytes, nil, nil)
	if mem == nil {
		return nil, fmt.Errorf("occa: %s device could not allocate %d bytes", b.Mode(), bytes)
	}
	return &Memory{mem: mem, bytes: bytes}, nil
}

// Memory is one OCCA allocation
type Memory struct {
	mem   *gocca.OCCAMemory
	bytes int64
}

func (m *Memory) Bytes() int64 { return m.bytes }

// OCCA returns the handle passed to kernels
func (m *Memory) OCCA() *gocca.OCCAMemory { return m.mem }

func (m *Memory) CopyFrom(src unsafe.Pointer, bytes int64) { m.mem.CopyFrom(src, bytes) }

func (m *Memory) CopyTo(dst unsafe.Pointer, bytes int64) { m.mem.CopyTo(dst, bytes) }

// CopyFromMemory stages through the host; the binding exposes no device to
// device transfer.
func (m *Memory) CopyFromMemory(src device.Memory, bytes int64) {
	if bytes <= 0 {
		return
	}
	stage := make([]byte, bytes)
	src.CopyTo(unsafe.Pointer(&stage[0]), bytes)
	m.mem.CopyFrom(unsafe.Pointer(&stage[0]), bytes)
}

func (m *Memory) Free() {
	if m.mem != nil {
		m.mem.Free()
		m.mem = nil
	}
}

// handle extracts the OCCA allocation behind an array's memory
func handle(mem device.Memory) (*gocca.OCCAMemory, error) {
	m, ok := mem.(*Memory)
	if !ok || m.mem == nil {
		return nil, ErrForeignMemory
	}
	return m.mem, nil
}
