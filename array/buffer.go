// Package array provides owning containers for flat numeric buffers that may
// live on the host or on a device, addressed with up to four extents.
package array

import (
	"errors"
	"fmt"
	"io"
	"unsafe"

	"github.com/notargets/PAKernel/device"
)

var (
	ErrZeroSize = errors.New("array: zero size allocation")
	ErrShape    = errors.New("array: invalid shape")
)

// Scalar lists the element types a device buffer can hold
type Scalar interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// buffer is the storage shared by both addressing layouts. It is either
// empty or fully allocated.
type buffer[T Scalar] struct {
	backend device.Backend
	mem     device.Memory
	// data is the host view. For host memory it aliases mem, otherwise it is
	// a staging copy kept in sync with Push and Pull.
	data    []T
	aliased bool
	size    int
	dims    [4]int
}

func elemSize[T Scalar]() int64 {
	var zero T
	return int64(unsafe.Sizeof(zero))
}

func isFloat[T Scalar]() bool {
	var one T = 1
	return one/2 != 0
}

func extents(dims []int) ([4]int, int, error) {
	var d [4]int
	if len(dims) == 0 || len(dims) > 4 {
		return d, 0, fmt.Errorf("%w: %d extents, want 1 to 4", ErrShape, len(dims))
	}
	size := 1
	for i := range d {
		d[i] = 1
		if i < len(dims) {
			d[i] = dims[i]
		}
		if d[i] < 0 {
			return d, 0, fmt.Errorf("%w: negative extent %v", ErrShape, dims)
		}
		size *= d[i]
	}
	return d, size, nil
}

func (b *buffer[T]) alloc(d [4]int, size int) error {
	b.release()
	if b.backend == nil {
		return fmt.Errorf("%w: no backend", ErrShape)
	}
	if size == 0 {
		return fmt.Errorf("%w: extents %v", ErrZeroSize, d)
	}
	bytes := int64(size) * elemSize[T]()
	mem, err := b.backend.Malloc(bytes)
	if err != nil {
		return fmt.Errorf("array: allocating %d bytes: %w", bytes, err)
	}
	if hm, ok := mem.(device.HostMemory); ok {
		b.data = unsafe.Slice((*T)(hm.Ptr()), size)
		b.aliased = true
	} else {
		b.data = make([]T, size)
		mem.CopyFrom(unsafe.Pointer(&b.data[0]), bytes)
		b.aliased = false
	}
	b.mem = mem
	b.size = size
	b.dims = d
	return nil
}

func (b *buffer[T]) release() {
	if b.mem != nil {
		b.mem.Free()
	}
	b.mem = nil
	b.data = nil
	b.aliased = false
	b.size = 0
	b.dims = [4]int{}
}

// Free releases the storage; the array becomes empty
func (b *buffer[T]) Free() { b.release() }

func (b *buffer[T]) Backend() device.Backend { return b.backend }

func (b *buffer[T]) Size() int { return b.size }

func (b *buffer[T]) Bytes() int64 { return int64(b.size) * elemSize[T]() }

func (b *buffer[T]) Dims() [4]int { return b.dims }

func (b *buffer[T]) IsEmpty() bool { return b.size == 0 }

func (b *buffer[T]) Memory() device.Memory { return b.mem }

// Data returns the linear host view
func (b *buffer[T]) Data() []T { return b.data }

// At and Set use the linear index
func (b *buffer[T]) At(i int) T     { return b.data[i] }
func (b *buffer[T]) Set(i int, v T) { b.data[i] = v }

// Push copies the host view to device memory
func (b *buffer[T]) Push() {
	if b.aliased || b.size == 0 {
		return
	}
	b.mem.CopyFrom(unsafe.Pointer(&b.data[0]), b.Bytes())
}

// Pull refreshes the host view from device memory
func (b *buffer[T]) Pull() {
	if b.aliased || b.size == 0 {
		return
	}
	b.backend.Finish()
	b.mem.CopyTo(unsafe.Pointer(&b.data[0]), b.Bytes())
}

// AssignHost transfers exactly len(src) elements from host memory into the
// start of the device buffer.
func (b *buffer[T]) AssignHost(src []T) error {
	if len(src) > b.size {
		return fmt.Errorf("%w: %d host values into %d", ErrShape, len(src), b.size)
	}
	if len(src) == 0 {
		return nil
	}
	b.mem.CopyFrom(unsafe.Pointer(&src[0]), int64(len(src))*elemSize[T]())
	if !b.aliased {
		copy(b.data, src)
	}
	return nil
}

// copyFrom reallocates b with src's extents and duplicates src device to device
func (b *buffer[T]) copyFrom(src *buffer[T]) error {
	if b.backend == nil {
		b.backend = src.backend
	}
	if src.size == 0 {
		b.release()
		return nil
	}
	if err := b.alloc(src.dims, src.size); err != nil {
		return err
	}
	b.mem.CopyFromMemory(src.mem, src.Bytes())
	b.Pull()
	return nil
}

// Print stages the buffer to host memory after all device work finished and
// writes one (index, value) line per element.
func (b *buffer[T]) Print(w io.Writer) error {
	if b.size == 0 {
		return nil
	}
	b.backend.Finish()
	host := make([]T, b.size)
	b.mem.CopyTo(unsafe.Pointer(&host[0]), b.Bytes())
	format := "\n\t[%d] %d"
	if isFloat[T]() {
		format = "\n\t[%d] %.7e"
		if elemSize[T]() == 8 {
			format = "\n\t[%d] %.15e"
		}
	}
	for i, v := range host {
		if _, err := fmt.Fprintf(w, format, i, v); err != nil {
			return err
		}
	}
	return nil
}
