package packer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestPackScenario1 reproduces spec.md §8 scenario 1: k=2, n=1, mr=nr=4,
// first column [1,2], remaining columns padded by last-column repetition.
func TestPackScenario1(t *testing.T) {
	pk, err := New(2, 4, 16, 0)
	require.NoError(t, err)
	require.Equal(t, 8, pk.Len(1))

	dense := []float32{1, 2} // k=2, n=1, row-major: row0=[1], row1=[2]
	dest := make([]float32, pk.Len(1))
	Pack(dest, dense, 2, 1, pk)

	require.Equal(t, []float32{1, 2, 1, 2, 1, 2, 1, 2}, dest)
}

func TestLenFormula(t *testing.T) {
	pk, err := New(3, 4, 16, 1)
	require.NoError(t, err)
	// len(n) = ceil(n/pw) * (k+end_padding) * pw
	require.Equal(t, 2*(3+1)*4, pk.Len(5))
}

func TestWriterMatchesPack(t *testing.T) {
	pk, err := New(3, 4, 16, 0)
	require.NoError(t, err)

	dense := []float32{
		1, 2, 3, 4, 5,
		6, 7, 8, 9, 10,
		11, 12, 13, 14, 15,
	}
	want := make([]float32, pk.Len(5))
	Pack(want, dense, 3, 5, pk)

	got := make([]float32, pk.Len(5))
	w := NewWriter(got, 3, 5, pk)
	for _, v := range dense {
		w.Write(v)
	}
	w.Finish()

	require.Equal(t, want, got)
}
