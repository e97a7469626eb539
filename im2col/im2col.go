// Package im2col orchestrates patcher invocation over the batch (N) and
// group (G) dimensions of a PoolSpec, producing a packed output tensor
// (spec.md §4.3). It is the only package in this module that touches
// gorgonia.org/tensor directly, keeping the Patch/Packer/Patcher core free
// of any particular tensor representation.
package im2col

import (
	"github.com/chewxy/math32"
	"github.com/csotherden/convcore/errs"
	"github.com/csotherden/convcore/geom"
	"github.com/csotherden/convcore/internal/clog"
	"github.com/csotherden/convcore/packer"
	"github.com/csotherden/convcore/patcher"
	"gorgonia.org/tensor"
)

// zeroPadEpsilon is the tolerance ElidableZeroPad uses to treat a
// near-zero scalar pad value as elidable, matching itohio-EasyRobot's
// math32.Abs(x) < eps idiom for float32 near-zero comparisons.
const zeroPadEpsilon = 1e-7

// Op is the Im2Col operator: a symbolic PoolSpec plus group count and
// B-side packing parameters (published by the consuming microkernel),
// resolved against a concrete input shape at Eval time.
type Op struct {
	Spec       geom.PoolSpec
	Group      int
	PanelWidth int
	Alignment  int
	EndPadding int
}

// NewOp validates the static configuration eagerly (SPEC_FULL.md §4.8).
func NewOp(spec geom.PoolSpec, group, panelWidth, alignment, endPadding int) (*Op, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if group < 1 {
		return nil, errs.NewShapeError("group must be >= 1")
	}
	if panelWidth <= 0 || alignment <= 0 || endPadding < 0 {
		return nil, errs.NewShapeError("invalid packing parameters")
	}
	return &Op{Spec: spec, Group: group, PanelWidth: panelWidth, Alignment: alignment, EndPadding: endPadding}, nil
}

// resolve binds the op's symbolic geometry against a concrete input shape.
func (op *Op) resolve(inputShape []int) (*geom.ConcreteGeometry, packer.Packer, []int, error) {
	cg, err := geom.Resolve(op.Spec, inputShape, op.Group)
	if err != nil {
		return nil, packer.Packer{}, nil, err
	}
	pk, err := packer.New(cg.K, op.PanelWidth, op.Alignment, op.EndPadding)
	if err != nil {
		return nil, packer.Packer{}, nil, err
	}

	var shape []int
	if op.Spec.DataFormat.HasN() {
		shape = append(shape, cg.DataShape.NDim)
	}
	if op.Group > 1 {
		shape = append(shape, op.Group)
	}
	shape = append(shape, pk.Len(cg.N))
	return cg, pk, shape, nil
}

// OutputShape computes output_shape(input_shape): prefixed with N iff the
// data format carries N, prefixed with G iff group>1, and ending in
// Packer.Len(n).
func (op *Op) OutputShape(inputShape []int) ([]int, error) {
	_, _, shape, err := op.resolve(inputShape)
	return shape, err
}

// Eval resolves symbolic geometry against input's runtime shape, allocates
// an output tensor, and invokes the Patcher once per (batch, group) slice.
// padValue is consulted only when the resolved patch is padded; pass 0 when
// it is not required. If any resolved output spatial dimension is zero,
// the Patcher is never invoked (spec.md §8 scenario 5).
func (op *Op) Eval(input *tensor.Dense, padValue float32) (*tensor.Dense, error) {
	rawShape := input.Shape()
	inShape := make([]int, len(rawShape))
	copy(inShape, rawShape)
	cg, pk, outShape, err := op.resolve(inShape)
	if err != nil {
		return nil, errs.Wrap(err, "im2col: resolve")
	}

	total := 1
	for _, d := range outShape {
		total *= d
	}
	out := tensor.New(tensor.WithShape(outShape...), tensor.WithBacking(make([]float32, total)))

	for _, d := range cg.Patch.OutputShape {
		if d == 0 {
			clog.L.Debug().Ints("output_shape", outShape).Msg("im2col: zero-dim short-circuit")
			return out, nil
		}
	}

	inData, ok := input.Data().([]float32)
	if !ok {
		return nil, errs.NewShapeError("im2col: input tensor must have a []float32 backing")
	}
	outData, ok := out.Data().([]float32)
	if !ok {
		return nil, errs.NewAllocationError("im2col: failed to allocate []float32 output backing")
	}

	N := 1
	if op.Spec.DataFormat.HasN() {
		N = cg.DataShape.NDim
	}
	G := op.Group

	batchStride := len(inData)
	if op.Spec.DataFormat.HasN() && N > 0 {
		batchStride = len(inData) / N
	}
	perGroupLen := pk.Len(cg.N)

	for i := 0; i < N; i++ {
		inView := inData[i*batchStride : (i+1)*batchStride]
		for g := 0; g < G; g++ {
			destOff := (i*G + g) * perGroupLen
			dest := outData[destOff : destOff+perGroupLen]
			if err := patcher.Run(cg, pk, inView, cg.DataShape, g, padValue, dest); err != nil {
				return nil, errs.Wrap(err, "im2col: patcher")
			}
		}
	}
	return out, nil
}

// ElidableZeroPad is the predicate a host graph layer's declutter pass
// consults to decide whether a second (pad-value) input can be dropped:
// true iff padValuePresent is true and the scalar it carries is within
// zeroPadEpsilon of zero (|padValue| < zeroPadEpsilon). The core itself performs no graph rewriting
// (spec.md §1 Non-goals); this only exposes the decision rule, grounded in
// original_source's TypedOp::declutter.
func ElidableZeroPad(padValuePresent bool, padValue float32) bool {
	return padValuePresent && math32.Abs(padValue) < zeroPadEpsilon
}
