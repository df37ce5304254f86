package mesh

// Orientation is one of the eight symmetries of the unit square acting on
// face-local coordinates. Bit 2 swaps the axes, then bit 0 reverses the first
// and bit 1 the second. Faces of 2D elements are segments and only use 0
// (identity) and 1 (reversed); faces of 1D elements are points and use 0.
type Orientation uint8

const (
	Identity Orientation = 0
	Reversed Orientation = 1
	nOrient              = 8
)

// Apply maps the lexicographic index k of a q1d x q1d face grid, or of a
// q1d point segment when k < q1d and o < 2.
func (o Orientation) Apply(q1d, k int) int {
	i, j := k%q1d, k/q1d
	if o&4 != 0 {
		i, j = j, i
	}
	if o&1 != 0 {
		i = q1d - 1 - i
	}
	if o&2 != 0 {
		j = q1d - 1 - j
	}
	return i + q1d*j
}

// ApplyCoords maps continuous face-local coordinates
func (o Orientation) ApplyCoords(s, t float64) (float64, float64) {
	if o&4 != 0 {
		s, t = t, s
	}
	if o&1 != 0 {
		s = 1 - s
	}
	if o&2 != 0 {
		t = 1 - t
	}
	return s, t
}

// Compose returns c with c.Apply(k) == o.Apply(p.Apply(k))
func (o Orientation) Compose(p Orientation) Orientation {
	for c := Orientation(0); c < nOrient; c++ {
		if c.sameCorners(func(k int) int { return o.Apply(2, p.Apply(2, k)) }) {
			return c
		}
	}
	panic("mesh: orientations do not form a group")
}

// Inverse returns the orientation undoing o
func (o Orientation) Inverse() Orientation {
	for c := Orientation(0); c < nOrient; c++ {
		if c.Compose(o) == Identity {
			return c
		}
	}
	panic("mesh: orientation without inverse")
}

// sameCorners compares the action on the four corners of the square, which
// determines a square symmetry uniquely.
func (o Orientation) sameCorners(f func(k int) int) bool {
	for k := 0; k < 4; k++ {
		if o.Apply(2, k) != f(k) {
			return false
		}
	}
	return true
}

// matchOrientation finds the orientation taking the corner ordering of the
// master face vertices onto the slave ordering.
func matchOrientation(master, slave []int) (Orientation, bool) {
	if len(master) == 1 {
		return Identity, master[0] == slave[0]
	}
	pos := make(map[int]int, len(slave))
	for m, v := range slave {
		pos[v] = m
	}
	limit := Orientation(2)
	if len(master) == 4 {
		limit = nOrient
	}
	for o := Orientation(0); o < limit; o++ {
		ok := true
		for m, v := range master {
			if p, found := pos[v]; !found || o.Apply(2, m) != p {
				ok = false
				break
			}
		}
		if ok {
			return o, true
		}
	}
	return 0, false
}
