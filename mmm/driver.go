package mmm

import (
	"reflect"

	"github.com/csotherden/convcore/errs"
	"github.com/csotherden/convcore/internal/clog"
	"github.com/csotherden/convcore/kernel"
)

// prefetchWindow is the number of bytes ahead software prefetch hints cover
// (original_source/linalg/src/frame/mmm/mmm.rs fn prefetch), applied only to
// Packed panels.
const prefetchWindow = 512

// prefetchHint is a software prefetch hint for contiguous Packed panel data.
// Go has no portable prefetch intrinsic (see DESIGN.md for the
// stdlib-justification this forces); this is a documented no-op left as the
// extension point original_source's `prefetch` occupies.
func prefetchHint(panel []float32) {
	_ = panel
}

// Run executes the tiled MatMatMul driver algorithm of spec.md §4.5 for an
// (m, k, n) product: C ← A·B, fused with postOps per tile. a and b may be
// any Operand (Packed, panel-packed with the kernel's mr/nr via PackA/PackB,
// or OffsetsAndPtrs for B read indirectly via BFromDataAndOffsets); c may be
// any CStore (Strides or View). scratch must be of the kernel's own
// concrete ScratchSpace type (obtained via kern.NewScratch()), checked
// dynamically and surfaced as errs.ScratchTypeError otherwise (spec.md §9
// "scratch-space typing").
func Run(kern kernel.Kernel, a, b Operand, c CStore, k, m, n int, scratch kernel.ScratchSpace, postOps []kernel.PostOp) error {
	if reflect.TypeOf(scratch) != reflect.TypeOf(kern.NewScratch()) {
		return errs.NewScratchTypeError("scratch space type does not match kernel accumulator type")
	}

	mr, nr := kern.MR(), kern.NR()
	mFull := m / mr
	nFull := n / nr
	edge := make([]float32, mr*nr)
	aGather := make([]float32, mr*k)
	bGather := make([]float32, nr*k)
	cStride := c.Stride()
	cData := c.Backing()
	_, aPacked := a.(PackedStore)
	_, bPacked := b.(PackedStore)

	runTile := func(ia, ib, rows, cols int, direct bool) error {
		aPanel := a.Panel(ia, k, aGather)
		bPanel := b.Panel(ib, k, bGather)
		if aPacked {
			prefetchHint(aPanel)
		}
		if bPacked {
			prefetchHint(bPanel)
		}

		scratch.Clear()
		scratch.ForTile(postOps, ia, ib, nil)

		if direct {
			off := c.At(ia*mr, ib*nr)
			cView := cData[off:]
			if err := kern.Run(aPanel, bPanel, k, cView, cStride, rows, cols, scratch, postOps); err != nil {
				clog.L.Error().Err(err).Int("ia", ia).Int("ib", ib).Msg("mmm: kernel error")
				return errs.NewKernelError(1)
			}
			return nil
		}

		for i := range edge {
			edge[i] = 0
		}
		if err := kern.Run(aPanel, bPanel, k, edge, nr, rows, cols, scratch, postOps); err != nil {
			clog.L.Error().Err(err).Int("ia", ia).Int("ib", ib).Msg("mmm: kernel error")
			return errs.NewKernelError(1)
		}
		baseRow, baseCol := ia*mr, ib*nr
		for i := 0; i < rows; i++ {
			dstOff := c.At(baseRow+i, baseCol)
			copy(cData[dstOff:dstOff+cols], edge[i*nr:i*nr+cols])
		}
		return nil
	}

	for ia := 0; ia < mFull; ia++ {
		if nr == 1 && n == 1 {
			if err := runTile(ia, 0, mr, 1, true); err != nil {
				return err
			}
			continue
		}
		for ib := 0; ib < nFull; ib++ {
			if err := runTile(ia, ib, mr, nr, true); err != nil {
				return err
			}
		}
		if rem := n % nr; rem != 0 {
			if err := runTile(ia, nFull, mr, rem, false); err != nil {
				return err
			}
		}
	}

	if rem := m % mr; rem != 0 {
		ia := mFull
		for ib := 0; ib < nFull; ib++ {
			if err := runTile(ia, ib, rem, nr, false); err != nil {
				return err
			}
		}
		if remN := n % nr; remN != 0 {
			if err := runTile(ia, nFull, rem, remN, false); err != nil {
				return err
			}
		}
	}
	return nil
}
