package mmm

import (
	"github.com/csotherden/convcore/packer"
)

// PackA packs a dense, row-major (m × k) A matrix into a PackedStore using
// the same panel discipline packer.Pack applies to B (spec.md's Packer
// tuple is defined once, for "one side of the matrix product", and both
// sides share it). A is transposed into k-outer order first since
// packer.Pack expects its dense input with k as the slow axis.
func PackA(a []float32, m, k int, pk packer.Packer) PackedStore {
	transposed := make([]float32, k*m)
	for i := 0; i < m; i++ {
		row := a[i*k : i*k+k]
		for kk := 0; kk < k; kk++ {
			transposed[kk*m+i] = row[kk]
		}
	}
	dest := make([]float32, pk.Len(m))
	packer.Pack(dest, transposed, k, m, pk)
	return PackedStore{Data: dest, PanelElems: (k + pk.EndPadding) * pk.PanelWidth}
}

// PackB packs a dense, row-major (k × n) B matrix into a PackedStore.
func PackB(b []float32, k, n int, pk packer.Packer) PackedStore {
	dest := make([]float32, pk.Len(n))
	packer.Pack(dest, b, k, n, pk)
	return PackedStore{Data: dest, PanelElems: (k + pk.EndPadding) * pk.PanelWidth}
}
