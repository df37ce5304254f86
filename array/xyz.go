package array

import "github.com/notargets/PAKernel/device"

// XYZ addresses its buffer with independent extents:
//
//	index(x, y, z) = x + d0*(y + d1*z)
type XYZ[T Scalar] struct {
	buffer[T]
}

// NewXYZ returns an empty array bound to backend
func NewXYZ[T Scalar](backend device.Backend) *XYZ[T] {
	return &XYZ[T]{buffer: buffer[T]{backend: backend}}
}

// AllocXYZ is NewXYZ followed by Allocate
func AllocXYZ[T Scalar](backend device.Backend, dims ...int) (*XYZ[T], error) {
	a := NewXYZ[T](backend)
	if err := a.Allocate(dims...); err != nil {
		return nil, err
	}
	return a, nil
}

// Allocate sets up to four extents (missing ones are 1), releases the prior
// storage and allocates zeroed storage for the new shape.
func (a *XYZ[T]) Allocate(dims ...int) error {
	d, size, err := extents(dims)
	if err != nil {
		a.release()
		return err
	}
	return a.alloc(d, size)
}

func (a *XYZ[T]) Index2(x, y int) int { return x + a.dims[0]*y }

func (a *XYZ[T]) Index3(x, y, z int) int { return x + a.dims[0]*(y+a.dims[1]*z) }

func (a *XYZ[T]) At2(x, y int) T { return a.data[a.Index2(x, y)] }

func (a *XYZ[T]) At3(x, y, z int) T { return a.data[a.Index3(x, y, z)] }

func (a *XYZ[T]) Set2(x, y int, v T) { a.data[a.Index2(x, y)] = v }

func (a *XYZ[T]) Set3(x, y, z int, v T) { a.data[a.Index3(x, y, z)] = v }

// Clone returns a deep copy with its own storage
func (a *XYZ[T]) Clone() (*XYZ[T], error) {
	c := NewXYZ[T](a.backend)
	if err := c.CopyFrom(a); err != nil {
		return nil, err
	}
	return c, nil
}

// CopyFrom replaces the contents and shape of a with a copy of src
func (a *XYZ[T]) CopyFrom(src *XYZ[T]) error {
	return a.copyFrom(&src.buffer)
}
