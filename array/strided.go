package array

import "github.com/notargets/PAKernel/device"

// Strided addresses its buffer through cumulative strides folded from the
// extents at allocation time:
//
//	index(x, y, z) = s0*x + s1*y + s2*z
//
// A transposed allocation swaps the first two strides so the same storage is
// walked with x and y exchanged, without moving data.
type Strided[T Scalar] struct {
	buffer[T]
	strides    [4]int
	transposed bool
}

// NewStrided returns an empty array bound to backend
func NewStrided[T Scalar](backend device.Backend) *Strided[T] {
	return &Strided[T]{buffer: buffer[T]{backend: backend}}
}

// AllocStrided is NewStrided followed by Allocate
func AllocStrided[T Scalar](backend device.Backend, dims ...int) (*Strided[T], error) {
	a := NewStrided[T](backend)
	if err := a.Allocate(dims...); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Strided[T]) Allocate(dims ...int) error {
	return a.allocate(false, dims)
}

func (a *Strided[T]) AllocateTransposed(dims ...int) error {
	return a.allocate(true, dims)
}

func (a *Strided[T]) allocate(transposed bool, dims []int) error {
	d, size, err := extents(dims)
	if err != nil {
		a.release()
		a.strides = [4]int{}
		return err
	}
	if err = a.alloc(d, size); err != nil {
		a.strides = [4]int{}
		return err
	}
	a.strides = foldStrides(d, transposed)
	a.transposed = transposed
	return nil
}

// foldStrides turns [d0,d1,d2,d3] into [1, d0, d0*d1, d0*d1*d2] in place,
// swapping the first two entries before and after when transposed.
func foldStrides(d [4]int, transposed bool) [4]int {
	s := d
	if transposed {
		s[0], s[1] = s[1], s[0]
	}
	prod := 1
	for i := range s {
		s[i], prod = prod, prod*s[i]
	}
	if transposed {
		s[0], s[1] = s[1], s[0]
	}
	return s
}

func (a *Strided[T]) Strides() [4]int { return a.strides }

func (a *Strided[T]) Transposed() bool { return a.transposed }

func (a *Strided[T]) Index2(x, y int) int { return a.strides[0]*x + a.strides[1]*y }

func (a *Strided[T]) Index3(x, y, z int) int {
	return a.strides[0]*x + a.strides[1]*y + a.strides[2]*z
}

func (a *Strided[T]) At2(x, y int) T { return a.data[a.Index2(x, y)] }

func (a *Strided[T]) At3(x, y, z int) T { return a.data[a.Index3(x, y, z)] }

func (a *Strided[T]) Set2(x, y int, v T) { a.data[a.Index2(x, y)] = v }

func (a *Strided[T]) Set3(x, y, z int, v T) { a.data[a.Index3(x, y, z)] = v }

// Fill sets every element to v
func (a *Strided[T]) Fill(v T) {
	for i := range a.data {
		a.data[i] = v
	}
}

func (a *Strided[T]) Clone() (*Strided[T], error) {
	c := NewStrided[T](a.backend)
	if err := c.CopyFrom(a); err != nil {
		return nil, err
	}
	return c, nil
}

// CopyFrom replaces the contents, shape and strides of a with those of src
func (a *Strided[T]) CopyFrom(src *Strided[T]) error {
	if err := a.copyFrom(&src.buffer); err != nil {
		return err
	}
	a.strides = src.strides
	a.transposed = src.transposed
	return nil
}
