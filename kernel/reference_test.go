package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type doubler struct{}

func (doubler) Apply(c []float32, cStride, rows, cols int) {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			c[i*cStride+j] *= 2
		}
	}
}

func TestReferenceRunAccumulates(t *testing.T) {
	k := NewReference(2, 2)
	// A panel: mr=2 rows, each row's k=2 depth contiguous -> [1,1, 1,1];
	// B panel same shape, same convention, all ones.
	a := []float32{1, 1, 1, 1}
	b := []float32{1, 1, 1, 1}
	c := make([]float32, 4)

	scratch := k.NewScratch()
	require.NoError(t, k.Run(a, b, 2, c, 2, 2, 2, scratch, nil))
	require.Equal(t, []float32{2, 2, 2, 2}, c)
}

func TestReferenceRunAppliesPostOp(t *testing.T) {
	k := NewReference(2, 2)
	a := []float32{1, 1, 1, 1}
	b := []float32{1, 1, 1, 1}
	c := make([]float32, 4)

	scratch := k.NewScratch()
	require.NoError(t, k.Run(a, b, 2, c, 2, 2, 2, scratch, []PostOp{doubler{}}))
	require.Equal(t, []float32{4, 4, 4, 4}, c)
}

func TestSelectReturnsReferenceKernel(t *testing.T) {
	k := Select(4, 4)
	require.Equal(t, 4, k.MR())
	require.Equal(t, 4, k.NR())
}
