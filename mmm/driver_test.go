package mmm

import (
	"testing"

	"github.com/csotherden/convcore/kernel"
	"github.com/csotherden/convcore/packer"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func onesMatrix(rows, cols int) []float32 {
	m := make([]float32, rows*cols)
	for i := range m {
		m[i] = 1
	}
	return m
}

// TestMatMatMulEdgeTile reproduces spec.md §8 scenario 4: mr=4, nr=4,
// m=5, k=3, n=5, A = ones(5,3), B = ones(3,5). One (4×4) full tile written
// directly to C, one (4×1) tile via scratch, one (1×4) tile via scratch,
// one (1×1) tile via scratch. Final C = 3·ones(5,5).
func TestMatMatMulEdgeTile(t *testing.T) {
	const m, k, n = 5, 3, 5
	const mr, nr = 4, 4

	kern := kernel.NewReference(mr, nr)

	apk, err := packer.New(k, mr, 4, 0)
	require.NoError(t, err)
	bpk, err := packer.New(k, nr, 4, 0)
	require.NoError(t, err)

	a := PackA(onesMatrix(m, k), m, k, apk)
	b := PackB(onesMatrix(k, n), k, n, bpk)

	c := StridesStore{Data: make([]float32, m*n), RowStride: n, ColStride: 1}

	scratch := kern.NewScratch()
	err = Run(kern, a, b, c, k, m, n, scratch, nil)
	require.NoError(t, err)

	want := make([]float32, m*n)
	for i := range want {
		want[i] = float32(k) // 3
	}
	for i := range want {
		require.Truef(t, floats.EqualWithinAbs(float64(c.Data[i]), float64(want[i]), 1e-6),
			"c[%d] = %v, want %v within tolerance", i, c.Data[i], want[i])
	}
}

// TestMatMatMulSquareExact checks the divisible-tile case directly, with no
// edge handling involved.
func TestMatMatMulSquareExact(t *testing.T) {
	const m, k, n = 8, 3, 8
	const mr, nr = 4, 4

	kern := kernel.NewReference(mr, nr)
	apk, _ := packer.New(k, mr, 4, 0)
	bpk, _ := packer.New(k, nr, 4, 0)

	aDense := onesMatrix(m, k)
	bDense := onesMatrix(k, n)
	a := PackA(aDense, m, k, apk)
	b := PackB(bDense, k, n, bpk)

	c := StridesStore{Data: make([]float32, m*n), RowStride: n, ColStride: 1}
	scratch := kern.NewScratch()
	require.NoError(t, Run(kern, a, b, c, k, m, n, scratch, nil))

	for _, v := range c.Data {
		require.Equal(t, float32(k), v)
	}
}

// TestMatMatMulScratchTypeMismatch checks the typed-scratch invariant of
// spec.md §9.
func TestMatMatMulScratchTypeMismatch(t *testing.T) {
	const m, k, n = 4, 2, 4
	kern := kernel.NewReference(4, 4)
	apk, _ := packer.New(k, 4, 4, 0)
	bpk, _ := packer.New(k, 4, 4, 0)
	a := PackA(onesMatrix(m, k), m, k, apk)
	b := PackB(onesMatrix(k, n), k, n, bpk)
	c := StridesStore{Data: make([]float32, m*n), RowStride: n, ColStride: 1}

	err := Run(kern, a, b, c, k, m, n, &wrongScratch{}, nil)
	require.Error(t, err)
}

// TestMatMatMulOffsetsAndPtrsAndView drives Run with an indirect
// OffsetsAndPtrs B operand and a View C store (rather than the Packed/
// Strides pair every other test uses), proving the driver actually
// dispatches across all four MatrixStoreSpec variants rather than having
// the non-Packed/Strides ones sit unconsumed.
func TestMatMatMulOffsetsAndPtrsAndView(t *testing.T) {
	const m, k, n = 4, 2, 4
	const mr, nr = 4, 4

	kern := kernel.NewReference(mr, nr)
	apk, err := packer.New(k, mr, 4, 0)
	require.NoError(t, err)
	a := PackA(onesMatrix(m, k), m, k, apk)

	// B = [[1,2,3,4],[5,6,7,8]], row-major in a flat base buffer.
	base := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	rowOffsets := []int{0, 4}
	colOffsets := []int{0, 1, 2, 3}
	b, err := BFromDataAndOffsets(base, rowOffsets, colOffsets, nr)
	require.NoError(t, err)

	c := ViewStore{Data: make([]float32, m*n), RowStride: n, ColStride: 1, MR: mr, NR: nr}

	scratch := kern.NewScratch()
	require.NoError(t, Run(kern, a, b, c, k, m, n, scratch, nil))

	// A is all ones, so every output row equals B's column sums: [6,8,10,12].
	want := []float32{6, 8, 10, 12}
	for row := 0; row < m; row++ {
		for col := 0; col < n; col++ {
			got := c.Data[c.At(row, col)]
			require.Truef(t, floats.EqualWithinAbs(float64(got), float64(want[col]), 1e-6),
				"c[%d,%d] = %v, want %v", row, col, got, want[col])
		}
	}
}

type wrongScratch struct{}

func (*wrongScratch) Clear()                                            {}
func (*wrongScratch) ForTile(postOps []kernel.PostOp, ia, ib int, c []float32) {}
