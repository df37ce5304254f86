package mesh

import "fmt"

// CartesianConfig describes a structured box mesh
type CartesianConfig struct {
	Dim      int
	N        [3]int     // Elements per axis
	Length   [3]float64 // Box extent per axis, 0 means 1
	Periodic [3]bool    // Identify the two ends of an axis, see MinPeriodic
	// Twist returns an index into ProperRotations(Dim) per element, rotating
	// its local frame inside the cell. Nil keeps every element aligned.
	Twist func(e int) int
	// Warp moves the corner nodes; periodic axes need a periodic warp
	Warp func(x []float64) []float64
}

// Rotation maps element reference axes onto cell axes:
// cell_d = Flip[d] ? 1 - xi[Perm[d]] : xi[Perm[d]]
type Rotation struct {
	Perm [3]int
	Flip [3]bool
}

// ProperRotations lists the orientation preserving symmetries of the
// reference cell in dimension dim, identity first: 1, 4 and 24 entries.
func ProperRotations(dim int) []Rotation {
	var rots []Rotation
	for _, perm := range permutations(dim) {
		for flips := 0; flips < 1<<dim; flips++ {
			r := Rotation{}
			sign := parity(perm)
			for d := 0; d < dim; d++ {
				r.Perm[d] = perm[d]
				if (flips>>d)&1 == 1 {
					r.Flip[d] = true
					sign = -sign
				}
			}
			if sign > 0 {
				rots = append(rots, r)
			}
		}
	}
	return rots
}

func permutations(n int) [][]int {
	if n == 1 {
		return [][]int{{0}}
	}
	var out [][]int
	for _, p := range permutations(n - 1) {
		for pos := n - 1; pos >= 0; pos-- {
			q := make([]int, 0, n)
			q = append(q, p[:pos]...)
			q = append(q, n-1)
			q = append(q, p[pos:]...)
			out = append(out, q)
		}
	}
	return out
}

func parity(p []int) int {
	s := 1
	for i := range p {
		for j := i + 1; j < len(p); j++ {
			if p[i] > p[j] {
				s = -s
			}
		}
	}
	return s
}

// cellCorner returns the cell corner bits reached by element corner c
func (r Rotation) cellCorner(dim, c int) [3]int {
	var g [3]int
	for d := 0; d < dim; d++ {
		b := (c >> r.Perm[d]) & 1
		if r.Flip[d] {
			b = 1 - b
		}
		g[d] = b
	}
	return g
}

// MinPeriodic is the fewest elements a periodic axis may hold. Above 1D, two
// cells on a periodic axis span the same vertex pair, so their faces across
// the other axes would share a vertex key.
func MinPeriodic(dim int) int {
	if dim > 1 {
		return 3
	}
	return 2
}

// Cartesian builds a box mesh of tensor-product elements
func Cartesian(cfg CartesianConfig) (*Mesh, error) {
	dim := cfg.Dim
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("%w: dimension %d", ErrInvalidMesh, dim)
	}
	var nv [3]int
	length := cfg.Length
	nelem := 1
	for d := 0; d < dim; d++ {
		n := cfg.N[d]
		if n < 1 {
			return nil, fmt.Errorf("%w: %d elements along axis %d", ErrInvalidMesh, n, d)
		}
		nv[d] = n + 1
		if cfg.Periodic[d] {
			if need := MinPeriodic(dim); n < need {
				return nil, fmt.Errorf("%w: periodic axis %d needs %d elements, got %d", ErrInvalidMesh, d, need, n)
			}
			nv[d] = n
		}
		if length[d] == 0 {
			length[d] = 1
		}
		nelem *= n
	}
	for d := dim; d < 3; d++ {
		nv[d] = 1
	}
	rots := ProperRotations(dim)

	etov := make([][]int, nelem)
	nodes := make([][][]float64, nelem)
	for e := 0; e < nelem; e++ {
		cell := [3]int{e % cfg.N[0], 0, 0}
		if dim > 1 {
			cell[1] = (e / cfg.N[0]) % cfg.N[1]
		}
		if dim > 2 {
			cell[2] = e / (cfg.N[0] * cfg.N[1])
		}
		rot := rots[0]
		if cfg.Twist != nil {
			ri := cfg.Twist(e)
			if ri < 0 || ri >= len(rots) {
				return nil, fmt.Errorf("%w: twist %d of element %d", ErrInvalidMesh, ri, e)
			}
			rot = rots[ri]
		}
		etov[e] = make([]int, 1<<dim)
		nodes[e] = make([][]float64, 1<<dim)
		for c := 0; c < 1<<dim; c++ {
			g := rot.cellCorner(dim, c)
			id, stride := 0, 1
			x := make([]float64, dim)
			for d := 0; d < dim; d++ {
				raw := cell[d] + g[d]
				id += stride * (raw % nv[d])
				stride *= nv[d]
				x[d] = length[d] * float64(raw) / float64(cfg.N[d])
			}
			if cfg.Warp != nil {
				x = cfg.Warp(x)
			}
			etov[e][c] = id
			nodes[e][c] = x
		}
	}
	return NewMesh(dim, etov, nodes)
}
