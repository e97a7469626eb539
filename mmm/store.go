// Package mmm implements the tiled MatMatMul driver (spec.md §4.5): given a
// packed A, a packed-or-indirect B, and a C-store descriptor, it iterates
// (mr × nr) tiles and calls a kernel.Kernel, handling M- and N-edges via a
// scratch tile buffer.
package mmm

import "github.com/csotherden/convcore/errs"

// rowOffsetLookahead is the number of trailing copies of the final row
// offset original_source/linalg/src/frame/mmm/mmm.rs's
// b_from_data_and_offsets appends, so a kernel's unrolled inner loop can
// always read a few elements past the last real one without a bounds check.
const rowOffsetLookahead = 4

// Operand is the common panel-accessor interface for the A and B sides of
// the matmul: the Packed variant (contiguous, pre-panelized) and the
// OffsetsAndPtrs variant (B only, gathered indirectly through an offset
// table) both satisfy it, so mmm.Run can drive either without knowing which
// concrete MatrixStoreSpec variant it was handed.
type Operand interface {
	// Panel returns the packed, column-block-contiguous data (spec.md
	// §4.4's layout: one output row/column's full k-depth contiguous) for
	// panel i. scratch is a caller-owned gather buffer of at least
	// panelWidth*k elements; Packed stores ignore it and return their own
	// backing slice, OffsetsAndPtrs stores gather into it and return it.
	Panel(i, k int, scratch []float32) []float32
}

// CStore is the common tile-accessor interface for the C operand: the
// Strides variant (explicit row/column item strides) and the View variant
// (a strided view annotated with mr/nr tiling metadata) both satisfy it.
type CStore interface {
	// At returns the flat offset of logical row i, column j.
	At(i, j int) int
	// Stride returns the row item-stride, passed through to the kernel as
	// its C tile's row stride.
	Stride() int
	// Backing returns the store's flat backing slice.
	Backing() []float32
}

// PackedStore is the Packed MatrixStoreSpec variant: contiguous panels,
// each PanelElems elements apart.
type PackedStore struct {
	Data       []float32
	PanelElems int
}

// Panel returns the i-th panel, ignoring k and scratch: a Packed store is
// already laid out exactly as the kernel expects.
func (s PackedStore) Panel(i, k int, scratch []float32) []float32 {
	return s.Data[i*s.PanelElems : (i+1)*s.PanelElems]
}

// StridesStore is the Strides MatrixStoreSpec variant: an explicit
// row/column item-stride view over a flat backing, used for the C operand
// (the output tensor is never itself panel-packed).
type StridesStore struct {
	Data      []float32
	RowStride int
	ColStride int
}

func (s StridesStore) At(i, j int) int    { return i*s.RowStride + j*s.ColStride }
func (s StridesStore) Stride() int        { return s.RowStride }
func (s StridesStore) Backing() []float32 { return s.Data }

// ViewStore is the View MatrixStoreSpec variant: a strided tensor view
// annotated with the tiling metadata (mr/nr) it was produced for. Addressing
// is identical to StridesStore; the MR/NR fields exist so a caller can
// verify the view was produced for the kernel it is about to drive, per
// original_source's c_view_with_axis.
type ViewStore struct {
	Data      []float32
	RowStride int
	ColStride int
	MR, NR    int
}

func (s ViewStore) At(i, j int) int    { return i*s.RowStride + j*s.ColStride }
func (s ViewStore) Stride() int        { return s.RowStride }
func (s ViewStore) Backing() []float32 { return s.Data }

// OffsetsAndPtrsStore is the OffsetsAndPtrs MatrixStoreSpec variant: B read
// indirectly through a stream of row/column element-offsets, used by the
// kernel-of-strides micro-convolution mode (original_source's
// b_from_data_and_offsets). Nr is the panel width each ColOffsets segment
// spans.
type OffsetsAndPtrsStore struct {
	Base       []float32
	RowOffsets []int
	ColOffsets []int
	Nr         int
}

// Panel gathers panel i's data into scratch: for each of the Nr columns in
// the panel, scratch[c*k : c*k+k] = Base[RowOffsets[kk] + ColOffsets[i*Nr+c]]
// for kk in [0,k) — the same column-block-contiguous layout packer.Pack
// produces, so a Packed and an OffsetsAndPtrs B operand are interchangeable
// from the kernel's point of view.
func (s OffsetsAndPtrsStore) Panel(i, k int, scratch []float32) []float32 {
	colBase := i * s.Nr
	for c := 0; c < s.Nr; c++ {
		col := s.ColOffsets[colBase+c]
		block := scratch[c*k : c*k+k]
		for kk := 0; kk < k; kk++ {
			block[kk] = s.Base[s.RowOffsets[kk]+col]
		}
	}
	return scratch[:s.Nr*k]
}

// BFromDataAndOffsets constructs an OffsetsAndPtrsStore from a dense,
// arbitrarily-strided B description: the column-offset table is padded to
// an nr boundary by repeating the last offset, and the row-offset table has
// its final entry repeated rowOffsetLookahead times so a kernel's unrolled
// loop can always read a few k-steps ahead, per
// original_source/linalg/src/frame/mmm/mmm.rs MatrixStoreSpec::
// b_from_data_and_offsets (SUPPLEMENTED: spec.md documents the variant's
// existence in §3 but not this construction).
func BFromDataAndOffsets(base []float32, rowOffsets, colOffsets []int, nr int) (OffsetsAndPtrsStore, error) {
	if nr <= 0 {
		return OffsetsAndPtrsStore{}, errs.NewShapeError("nr must be positive")
	}
	if len(rowOffsets) == 0 || len(colOffsets) == 0 {
		return OffsetsAndPtrsStore{}, errs.NewShapeError("rowOffsets and colOffsets must be non-empty")
	}

	paddedLen := ((len(colOffsets) + nr - 1) / nr) * nr
	paddedCols := make([]int, paddedLen)
	copy(paddedCols, colOffsets)
	lastCol := colOffsets[len(colOffsets)-1]
	for i := len(colOffsets); i < paddedLen; i++ {
		paddedCols[i] = lastCol
	}

	rowOffsetsPadded := make([]int, len(rowOffsets)+rowOffsetLookahead)
	copy(rowOffsetsPadded, rowOffsets)
	lastRow := rowOffsets[len(rowOffsets)-1]
	for i := len(rowOffsets); i < len(rowOffsetsPadded); i++ {
		rowOffsetsPadded[i] = lastRow
	}

	return OffsetsAndPtrsStore{
		Base:       base,
		RowOffsets: rowOffsetsPadded,
		ColOffsets: paddedCols,
		Nr:         nr,
	}, nil
}
