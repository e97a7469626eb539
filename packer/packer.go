// Package packer implements the (k, panel_width, alignment, end_padding)
// layout discipline for one side of a tiled matrix product (spec.md §3, §4.4).
package packer

import "github.com/csotherden/convcore/errs"

// Packer is immutable once constructed.
type Packer struct {
	K          int
	PanelWidth int
	Alignment  int
	EndPadding int
}

// New validates and constructs a Packer.
func New(k, panelWidth, alignment, endPadding int) (Packer, error) {
	if k < 0 || panelWidth <= 0 || alignment <= 0 || endPadding < 0 {
		return Packer{}, errs.NewShapeError("invalid packer parameters")
	}
	return Packer{K: k, PanelWidth: panelWidth, Alignment: alignment, EndPadding: endPadding}, nil
}

// Len returns the number of elements a packed buffer of width n occupies.
func (p Packer) Len(n int) int {
	panels := (n + p.PanelWidth - 1) / p.PanelWidth
	return panels * (p.K + p.EndPadding) * p.PanelWidth
}

// Pack performs the dense packing path: given a row-major k×n matrix
// (dense, row-major with row stride n), it writes the panel-packed form
// into dest. Within a panel, a column's full k-depth is contiguous and
// columns are concatenated in increasing order; short last-panel columns
// are filled by repeating the last valid column so the microkernel sees
// well-defined data. EndPadding entries (if any) are zero-filled at the
// tail of every column's block.
func Pack(dest []float32, dense []float32, k, n int, p Packer) {
	pw := p.PanelWidth
	numPanels := (n + pw - 1) / pw

	idx := 0
	for panel := 0; panel < numPanels; panel++ {
		colStart := panel * pw
		validCols := n - colStart
		if validCols > pw {
			validCols = pw
		}
		for c := 0; c < pw; c++ {
			col := colStart + c
			if c >= validCols {
				col = colStart + validCols - 1
			}
			for kk := 0; kk < k; kk++ {
				dest[idx] = dense[kk*n+col]
				idx++
			}
			for pad := 0; pad < p.EndPadding; pad++ {
				dest[idx] = 0
				idx++
			}
		}
	}
}

// Writer is the k-outer streaming writer: a client calls Write exactly
// k*n times, in k-outer, then-n order. Internally the writer buffers the
// dense k×n matrix and performs the identical panel scatter as Pack at
// Finish, so both authoring paths in spec.md §4.4 share one packing
// routine and are guaranteed to produce byte-identical layouts.
type Writer struct {
	dense []float32
	k, n  int
	pos   int
	p     Packer
	dest  []float32
}

// NewWriter constructs a streaming writer over dest, which must have at
// least Packer.Len(n) elements.
func NewWriter(dest []float32, k, n int, p Packer) *Writer {
	return &Writer{
		dense: make([]float32, k*n),
		k:     k,
		n:     n,
		p:     p,
		dest:  dest,
	}
}

// Write appends the next value in k-outer, then-n order.
func (w *Writer) Write(v float32) {
	w.dense[w.pos] = v
	w.pos++
}

// Finish packs the buffered dense matrix into dest. Panics if fewer than
// k*n values were written, since that is a programming error per spec.md
// §4.2 "Failure".
func (w *Writer) Finish() {
	if w.pos != w.k*w.n {
		panic("packer: Writer.Finish called before k*n values were written")
	}
	Pack(w.dest, w.dense, w.k, w.n, w.p)
}
