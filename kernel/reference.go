package kernel

// Reference is a portable scalar microkernel: no SIMD, no alignment
// requirement beyond 4 bytes, no end-padding. It exists so the MatMatMul
// driver (package mmm) has a correctness oracle independent of any
// platform-specific implementation.
type Reference struct {
	mr, nr int
}

// NewReference constructs a scalar reference kernel with the given tile
// dimensions.
func NewReference(mr, nr int) *Reference {
	return &Reference{mr: mr, nr: nr}
}

func (r *Reference) MR() int         { return r.mr }
func (r *Reference) NR() int         { return r.nr }
func (r *Reference) Alignment() int  { return 4 }
func (r *Reference) EndPadding() int { return 0 }

func (r *Reference) NewScratch() ScratchSpace { return &refScratch{} }

// Run computes C[i,j] += sum_k A[i,k]*B[k,j] for the rows×cols sub-tile
// (rows<=mr, cols<=nr). A and B are panel-packed per packer.Pack: within a
// panel, one output row/column's full k-depth is contiguous, so each output
// element reduces to a dot product of its A-row block and B-column block.
func (r *Reference) Run(a, b []float32, k int, c []float32, cStride, rows, cols int, scratch ScratchSpace, postOps []PostOp) error {
	blockLen := k + r.EndPadding()
	for i := 0; i < rows; i++ {
		aVec := a[i*blockLen : i*blockLen+k]
		cRow := c[i*cStride : i*cStride+cols]
		for j := 0; j < cols; j++ {
			bVec := b[j*blockLen : j*blockLen+k]
			var sum float32
			for kk := 0; kk < k; kk++ {
				sum += aVec[kk] * bVec[kk]
			}
			cRow[j] += sum
		}
	}
	for _, op := range postOps {
		if a, ok := op.(applier); ok {
			a.Apply(c, cStride, rows, cols)
		}
	}
	return nil
}

// applier is the interface a PostOp may optionally implement. The kernel
// package does not define Bias/ReLU/etc. itself (spec.md §1: fused
// post-operations are specified only by interface, their implementations
// are an external collaborator) — it only knows how to invoke one if a
// caller-supplied PostOp happens to satisfy this shape.
type applier interface {
	Apply(c []float32, cStride, rows, cols int)
}

// refScratch is the Reference kernel's accumulator/staging type. The
// reference kernel needs no cross-tile state, but still participates in the
// driver's typed scratch-space contract (spec.md §9 "scratch-space typing").
type refScratch struct {
	tile []PostOp
}

func (s *refScratch) Clear() { s.tile = s.tile[:0] }
func (s *refScratch) ForTile(postOps []PostOp, ia, ib int, c []float32) {
	s.tile = append(s.tile[:0], postOps...)
}
