package mmm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBFromDataAndOffsets reproduces original_source's
// b_from_data_and_offsets exactly: column offsets pad to the nr boundary by
// repeating the last offset, and the row-offset table gets rowOffsetLookahead
// (4) trailing copies of its own last entry appended — not a per-element
// repetition.
func TestBFromDataAndOffsets(t *testing.T) {
	base := []float32{1, 2, 3, 4}
	rowOffsets := []int{0, 2}
	colOffsets := []int{0, 1, 2}

	store, err := BFromDataAndOffsets(base, rowOffsets, colOffsets, 4)
	require.NoError(t, err)

	// column offsets padded to nr=4 boundary by repeating the last offset
	require.Equal(t, []int{0, 1, 2, 2}, store.ColOffsets)
	// row offsets: original table untouched, plus 4 trailing copies of the
	// final entry (2)
	require.Equal(t, []int{0, 2, 2, 2, 2, 2}, store.RowOffsets)
}

func TestPackedStorePanel(t *testing.T) {
	s := PackedStore{Data: []float32{0, 1, 2, 3, 4, 5}, PanelElems: 3}
	require.Equal(t, []float32{0, 1, 2}, s.Panel(0, 0, nil))
	require.Equal(t, []float32{3, 4, 5}, s.Panel(1, 0, nil))
}

func TestStridesStoreAt(t *testing.T) {
	s := StridesStore{RowStride: 5, ColStride: 1}
	require.Equal(t, 12, s.At(2, 2))
}

// TestOffsetsAndPtrsStorePanel checks the gather: panel i's column c reads
// Base[RowOffsets[kk]+ColOffsets[i*Nr+c]] for kk in [0,k), written into a
// column-block-contiguous layout matching packer.Pack.
func TestOffsetsAndPtrsStorePanel(t *testing.T) {
	// base laid out as a 2x3 row-major matrix [[10,11,12],[20,21,22]]
	base := []float32{10, 11, 12, 20, 21, 22}
	rowOffsets := []int{0, 3} // row byte/element offsets for k=0,1
	colOffsets := []int{0, 1, 2}

	store, err := BFromDataAndOffsets(base, rowOffsets, colOffsets, 4)
	require.NoError(t, err)

	scratch := make([]float32, 4*2)
	panel := store.Panel(0, 2, scratch)

	// column 0: [10,20]; column1: [11,21]; column2: [12,22]; column3 (pad,
	// repeats column2): [12,22]
	require.Equal(t, []float32{10, 20, 11, 21, 12, 22, 12, 22}, panel)
}
