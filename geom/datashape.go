package geom

import "github.com/csotherden/convcore/errs"

// DataShape is a resolved view of an input's layout: the positions of the
// N, C, and spatial axes within a concrete shape, plus the per-axis strides
// (in elements, standard row-major) that the Patcher needs.
type DataShape struct {
	Shape          []int
	HasN           bool
	CAxis          int
	Spatial        []int // axis indices, outer to inner
	CStride        int
	HStride        int // stride of the outermost spatial axis
	WStride        int // stride of the innermost spatial axis
	SpatialStrides []int // per-axis element strides, outer to inner
	HWDims         []int
	NDim           int
	CDim           int
}

// strides computes standard row-major element strides for shape.
func strides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

// ResolveDataShape projects format onto a concrete input shape.
func ResolveDataShape(format DataFormat, shape []int) (DataShape, error) {
	hasN := format.HasN()
	rank := len(shape)
	minRank := 2 // C + at least one spatial axis
	if hasN {
		minRank++
	}
	if rank < minRank {
		return DataShape{}, errs.NewShapeError("input rank too small for data format")
	}

	st := strides(shape)

	var cAxis int
	var spatial []int
	nStart := 0
	if hasN {
		nStart = 1
	}
	if format.ChannelFirst() {
		cAxis = nStart
		for a := nStart + 1; a < rank; a++ {
			spatial = append(spatial, a)
		}
	} else {
		cAxis = rank - 1
		for a := nStart; a < rank-1; a++ {
			spatial = append(spatial, a)
		}
	}

	hwDims := make([]int, len(spatial))
	spatialStrides := make([]int, len(spatial))
	for i, a := range spatial {
		hwDims[i] = shape[a]
		spatialStrides[i] = st[a]
	}

	ds := DataShape{
		Shape:          shape,
		HasN:           hasN,
		CAxis:          cAxis,
		Spatial:        spatial,
		CStride:        st[cAxis],
		HStride:        st[spatial[0]],
		WStride:        st[spatial[len(spatial)-1]],
		SpatialStrides: spatialStrides,
		HWDims:         hwDims,
		CDim:           shape[cAxis],
	}
	if hasN {
		ds.NDim = shape[0]
	} else {
		ds.NDim = 1
	}
	return ds, nil
}
