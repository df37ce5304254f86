// Package mesh describes conforming meshes of segments, quadrilaterals and
// hexahedra: element vertices, multilinear geometry and the face pairing the
// face operators need.
//
// Element vertices are in lexicographic order of the reference corners, x
// fastest. Local faces follow the tensor ordering
//
//	1D: x=0, x=1
//	2D: y=0, x=1, y=1, x=0
//	3D: z=0, y=0, x=1, y=1, x=0, z=1
//
// and each face carries local coordinates along its tangential axes in
// ascending axis order, the first fastest.
package mesh

import (
	"errors"
	"fmt"
	"slices"
)

var ErrInvalidMesh = errors.New("mesh: invalid mesh")

// Mesh holds the topology (vertex ids) and the geometry (corner coordinates)
// of every element separately, so periodic meshes identify vertices whose
// coordinates differ.
type Mesh struct {
	Dim int
	// EToV lists the 2^Dim vertex ids of each element
	EToV [][]int
	// Nodes lists the 2^Dim corner coordinates of each element
	Nodes [][][]float64
	Faces []Face
	// EToF maps (element, local face) to an index into Faces
	EToF [][]int
}

// Face joins one or two elements. Elem1 is the master side: its outward
// normal orients the face and the face-local coordinates are its own.
// Elem2 is -1 on the boundary.
type Face struct {
	Elem1, Elem2 int
	Info1, Info2 int
}

// IsBoundary reports whether the face has a single element
func (f Face) IsBoundary() bool { return f.Elem2 < 0 }

// FaceInfo encodes a local face id and an orientation as 64*face + orientation
func FaceInfo(localFace int, o Orientation) int {
	return 64*localFace + int(o)
}

// DecodeFaceInfo splits a face info code
func DecodeFaceInfo(info int) (localFace int, o Orientation) {
	return info / 64, Orientation(info % 64)
}

type faceDesc struct {
	axis, end int
}

var localFaces = [4][]faceDesc{
	1: {{0, 0}, {0, 1}},
	2: {{1, 0}, {0, 1}, {1, 1}, {0, 0}},
	3: {{2, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 0}, {2, 1}},
}

// NumFaces is the number of local faces of an element in dimension dim
func NumFaces(dim int) int { return 2 * dim }

// FaceAxis returns the normal axis of a local face and whether the face sits
// at the far end of it.
func FaceAxis(dim, localFace int) (axis int, far bool) {
	d := localFaces[dim][localFace]
	return d.axis, d.end == 1
}

// TangentAxes returns the axes spanning a local face, ascending
func TangentAxes(dim, localFace int) []int {
	axis, _ := FaceAxis(dim, localFace)
	t := make([]int, 0, dim-1)
	for a := 0; a < dim; a++ {
		if a != axis {
			t = append(t, a)
		}
	}
	return t
}

// FaceCorners returns the element corner indices on a local face, in the
// face's own lexicographic order.
func FaceCorners(dim, localFace int) []int {
	d := localFaces[dim][localFace]
	c := make([]int, 0, 1<<(dim-1))
	for v := 0; v < 1<<dim; v++ {
		if (v>>d.axis)&1 == d.end {
			c = append(c, v)
		}
	}
	return c
}

// NewMesh validates the element lists and pairs faces by their vertex sets.
// A vertex set shared by exactly two element faces is an interior face; the
// element seen first is its master.
func NewMesh(dim int, etov [][]int, nodes [][][]float64) (*Mesh, error) {
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("%w: dimension %d", ErrInvalidMesh, dim)
	}
	if len(etov) == 0 || len(etov) != len(nodes) {
		return nil, fmt.Errorf("%w: %d vertex lists for %d node lists",
			ErrInvalidMesh, len(etov), len(nodes))
	}
	nv := 1 << dim
	for e := range etov {
		if len(etov[e]) != nv || len(nodes[e]) != nv {
			return nil, fmt.Errorf("%w: element %d has %d vertices and %d nodes, want %d",
				ErrInvalidMesh, e, len(etov[e]), len(nodes[e]), nv)
		}
		for _, x := range nodes[e] {
			if len(x) != dim {
				return nil, fmt.Errorf("%w: element %d node of dimension %d",
					ErrInvalidMesh, e, len(x))
			}
		}
	}
	m := &Mesh{Dim: dim, EToV: etov, Nodes: nodes}
	if err := m.buildFaces(); err != nil {
		return nil, err
	}
	return m, nil
}

// NumElements returns the element count
func (m *Mesh) NumElements() int { return len(m.EToV) }

// faceVertices returns the vertex ids of a local face in face order
func (m *Mesh) faceVertices(e, localFace int) []int {
	corners := FaceCorners(m.Dim, localFace)
	v := make([]int, len(corners))
	for i, c := range corners {
		v[i] = m.EToV[e][c]
	}
	return v
}

type faceKey [4]int

func keyOf(v []int) faceKey {
	k := faceKey{-1, -1, -1, -1}
	s := slices.Clone(v)
	slices.Sort(s)
	copy(k[:], s)
	return k
}

func (m *Mesh) buildFaces() error {
	nf := NumFaces(m.Dim)
	m.EToF = make([][]int, len(m.EToV))
	index := make(map[faceKey]int)
	for e := range m.EToV {
		m.EToF[e] = make([]int, nf)
		for lf := 0; lf < nf; lf++ {
			key := keyOf(m.faceVertices(e, lf))
			fi, seen := index[key]
			if !seen {
				index[key] = len(m.Faces)
				m.EToF[e][lf] = len(m.Faces)
				m.Faces = append(m.Faces, Face{
					Elem1: e, Info1: FaceInfo(lf, Identity),
					Elem2: -1, Info2: -1,
				})
				continue
			}
			f := &m.Faces[fi]
			if !f.IsBoundary() {
				return fmt.Errorf("%w: face %v shared by more than two elements",
					ErrInvalidMesh, key)
			}
			if f.Elem1 == e {
				return fmt.Errorf("%w: element %d meets itself across a face", ErrInvalidMesh, e)
			}
			mf, _ := DecodeFaceInfo(f.Info1)
			o, ok := matchOrientation(m.faceVertices(f.Elem1, mf), m.faceVertices(e, lf))
			if !ok {
				return fmt.Errorf("%w: faces of elements %d and %d do not match",
					ErrInvalidMesh, f.Elem1, e)
			}
			f.Elem2 = e
			f.Info2 = FaceInfo(lf, o)
			m.EToF[e][lf] = fi
		}
	}
	return nil
}

// NumBoundaryFaces counts faces with a single element
func (m *Mesh) NumBoundaryFaces() int {
	n := 0
	for _, f := range m.Faces {
		if f.IsBoundary() {
			n++
		}
	}
	return n
}

// ElementTransformation returns the multilinear map of element e
func (m *Mesh) ElementTransformation(e int) *ElementTransformation {
	return &ElementTransformation{Dim: m.Dim, Element: e, Nodes: m.Nodes[e]}
}

// FaceTransformation returns the geometry of face f seen from both sides
func (m *Mesh) FaceTransformation(f int) *FaceTransformation {
	face := m.Faces[f]
	ft := &FaceTransformation{
		Dim:   m.Dim,
		Face:  f,
		Elem1: face.Elem1,
		Elem2: face.Elem2,
		Tr1:   m.ElementTransformation(face.Elem1),
	}
	ft.Face1, ft.Orient1 = DecodeFaceInfo(face.Info1)
	if !face.IsBoundary() {
		ft.Face2, ft.Orient2 = DecodeFaceInfo(face.Info2)
		ft.Tr2 = m.ElementTransformation(face.Elem2)
	} else {
		ft.Face2 = -1
	}
	return ft
}
