// Package kernel defines the microkernel abstraction the MatMatMul driver
// (package mmm) tiles against: a capability exposing {mr, nr, alignment,
// end_padding, run} plus a scratch-space type for fused post-op staging.
// Implementations are platform- or architecture-specific and are selected
// once at construction (spec.md §9), mirroring the teacher's pattern of an
// eagerly-selected, single exported backend (mps.NewMPSEng) rather than a
// dispatch-per-call abstraction.
package kernel

import "github.com/csotherden/convcore/internal/clog"

// PostOp is an opaque fused post-operation (bias, scale, activation). The
// core treats the list as data whose interpretation is delegated entirely
// to the kernel (spec.md §4.6).
type PostOp interface{}

// ScratchSpace is per-call working state a kernel uses to stage per-tile
// bias/scale slices or accumulator state. It is reset between tiles and
// owned exclusively by one driver call.
type ScratchSpace interface {
	Clear()
	ForTile(postOps []PostOp, ia, ib int, c []float32)
}

// Kernel is the abstract microkernel capability: given panel pointers for A
// and B, a C-tile, and a shared dimension k, it computes
// C_tile ← fuse(A_panel · B_panel; postOps) for exactly one (mr × nr) tile.
//
// a has mr*k elements, b has k*nr elements, both in packer.Pack's panel
// layout: within the panel, one output row/column's full k-depth is
// contiguous. c is a row-major view with row stride cStride; rows/cols may
// be less than mr/nr only when the caller is writing through its mr×nr
// scratch edge tile (row stride nr), of which only rows×cols is written.
type Kernel interface {
	MR() int
	NR() int
	Alignment() int
	EndPadding() int

	// NewScratch constructs a ScratchSpace of this kernel's expected
	// concrete accumulator type.
	NewScratch() ScratchSpace

	// Run executes one tile. Run itself returns a plain error on failure;
	// mmm logs that error and returns an errs.KernelError with a non-zero
	// status in its place.
	Run(a, b []float32, k int, c []float32, cStride, rows, cols int, scratch ScratchSpace, postOps []PostOp) error
}

// Select returns the reference scalar kernel. A real deployment would probe
// CPU features and return a register-blocked implementation; this module's
// scope is the driver and packing contract, not a library of microkernels
// (spec.md §1: microkernel implementations are an external collaborator).
func Select(mr, nr int) Kernel {
	clog.L.Debug().Int("mr", mr).Int("nr", nr).Msg("kernel: selected reference scalar kernel")
	return NewReference(mr, nr)
}
