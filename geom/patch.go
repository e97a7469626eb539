package geom

import "github.com/csotherden/convcore/errs"

// PatcherStrategy tags which Patcher implementation a ConcreteGeometry must
// be driven through. The four variants are a closed set dispatched once per
// call (SPEC_FULL.md §9 "Strategy variants instead of virtual dispatch").
type PatcherStrategy int

const (
	StrategyValid2d PatcherStrategy = iota
	StrategyPadded2d
	StrategyValid1d
	StrategyGeneric
)

// Patch is the concrete, resolved geometry of a sliding-window operation: a
// flat table of intra-window offsets and the output spatial shape.
type Patch struct {
	OutputShape []int
	KernelShape []int
	Strides     []int
	Dilations   []int

	// StandardLayoutDataField[i] is the signed element offset of kernel
	// element i into an input assumed to have standard row-major spatial
	// strides (HWDims-derived).
	StandardLayoutDataField []int

	// DataField[i*Rank+r] is the signed displacement of kernel element i
	// along spatial axis r, relative to the window origin.
	DataField []int

	PadBefore []int
	PadAfter  []int

	Padded bool
}

// Rank is the number of spatial axes this patch covers.
func (p *Patch) Rank() int { return len(p.KernelShape) }

// KernelVolume is prod(KernelShape).
func (p *Patch) KernelVolume() int {
	v := 1
	for _, k := range p.KernelShape {
		v *= k
	}
	return v
}

// resolvePadding computes, per spatial axis, the (before, after) padding and
// the output spatial dimension, given input dims, kernel, stride, dilation.
func resolvePadding(pad Padding, inDims, kernel, stride, dilation []int) (before, after, out []int, err error) {
	rank := len(inDims)
	before = make([]int, rank)
	after = make([]int, rank)
	out = make([]int, rank)

	effKernel := func(r int) int { return (kernel[r]-1)*dilation[r] + 1 }

	switch pad.Kind {
	case Valid:
		for r := 0; r < rank; r++ {
			ek := effKernel(r)
			if inDims[r] < ek {
				out[r] = 0
			} else {
				out[r] = (inDims[r]-ek)/stride[r] + 1
			}
		}
	case SameUpper, SameLower:
		for r := 0; r < rank; r++ {
			ek := effKernel(r)
			o := (inDims[r] + stride[r] - 1) / stride[r]
			out[r] = o
			totalPad := (o-1)*stride[r] + ek - inDims[r]
			if totalPad < 0 {
				totalPad = 0
			}
			if pad.Kind == SameUpper {
				before[r] = totalPad / 2
				after[r] = totalPad - before[r]
			} else {
				after[r] = totalPad / 2
				before[r] = totalPad - after[r]
			}
		}
	case Explicit:
		if len(pad.ExplicitBefore) != rank || len(pad.ExplicitAfter) != rank {
			return nil, nil, nil, errs.NewShapeError("explicit padding rank mismatch")
		}
		for r := 0; r < rank; r++ {
			before[r] = pad.ExplicitBefore[r]
			after[r] = pad.ExplicitAfter[r]
			ek := effKernel(r)
			padded := inDims[r] + before[r] + after[r]
			if padded < ek {
				out[r] = 0
			} else {
				out[r] = (padded-ek)/stride[r] + 1
			}
		}
	default:
		return nil, nil, nil, errs.NewShapeError("unknown padding kind")
	}
	return before, after, out, nil
}

// ResolvePatch computes a Patch (and whether it is padded) from a PoolSpec
// and a concrete DataShape, per spec.md §4.1.
func ResolvePatch(spec PoolSpec, ds DataShape) (*Patch, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	rank := len(spec.KernelShape)
	if rank != len(ds.HWDims) {
		return nil, errs.NewShapeError("kernel_shape rank must match input spatial rank")
	}

	before, after, out, err := resolvePadding(spec.Padding, ds.HWDims, spec.KernelShape, spec.Strides, spec.Dilations)
	if err != nil {
		return nil, err
	}

	padded := false
	for r := 0; r < rank; r++ {
		if before[r] != 0 || after[r] != 0 {
			padded = true
		}
	}

	kvol := 1
	for _, k := range spec.KernelShape {
		kvol *= k
	}

	// standard-layout strides computed directly from HWDims (row-major),
	// for standard_layout_data_field — independent of the real input's
	// strides, which may differ (e.g. NHWC).
	spatialStrides := make([]int, rank)
	acc := 1
	for i := rank - 1; i >= 0; i-- {
		spatialStrides[i] = acc
		acc *= ds.HWDims[i]
	}

	dataField := make([]int, kvol*rank)
	stdField := make([]int, kvol)

	idx := make([]int, rank)
	for i := 0; i < kvol; i++ {
		rem := i
		for r := rank - 1; r >= 0; r-- {
			idx[r] = rem % spec.KernelShape[r]
			rem /= spec.KernelShape[r]
		}
		off := 0
		for r := 0; r < rank; r++ {
			disp := idx[r] * spec.Dilations[r]
			dataField[i*rank+r] = disp
			off += disp * spatialStrides[r]
		}
		stdField[i] = off
	}

	return &Patch{
		OutputShape:             out,
		KernelShape:             append([]int(nil), spec.KernelShape...),
		Strides:                 append([]int(nil), spec.Strides...),
		Dilations:               append([]int(nil), spec.Dilations...),
		StandardLayoutDataField: stdField,
		DataField:               dataField,
		PadBefore:               before,
		PadAfter:                after,
		Padded:                  padded,
	}, nil
}

// SelectStrategy applies the exclusive strategy selection rule of spec.md
// §4.1, evaluated in order.
func SelectStrategy(p *Patch) PatcherStrategy {
	rank := p.Rank()
	switch {
	case rank == 2 && !p.Padded:
		return StrategyValid2d
	case rank == 2 && p.Padded:
		return StrategyPadded2d
	case rank == 1 && !p.Padded:
		return StrategyValid1d
	default:
		return StrategyGeneric
	}
}

// ConcreteGeometry bundles the resolved Patch together with the shared
// matmul dimensions and the strategy to drive it with. Immutable once
// constructed (spec.md §3 "Lifecycles").
type ConcreteGeometry struct {
	Patch      *Patch
	K          int
	N          int
	CiPerGroup int
	Strategy   PatcherStrategy
	DataShape  DataShape
}

// Resolve derives a ConcreteGeometry from (PoolSpec, input shape, group).
func Resolve(spec PoolSpec, inputShape []int, group int) (*ConcreteGeometry, error) {
	if group < 1 {
		return nil, errs.NewShapeError("group must be >= 1")
	}
	ds, err := ResolveDataShape(spec.DataFormat, inputShape)
	if err != nil {
		return nil, err
	}
	if ds.CDim%group != 0 {
		return nil, errs.NewShapeError("channel count not divisible by group")
	}
	patch, err := ResolvePatch(spec, ds)
	if err != nil {
		return nil, err
	}

	ciPerGroup := ds.CDim / group
	k := patch.KernelVolume() * ciPerGroup
	n := 1
	for _, o := range patch.OutputShape {
		n *= o
	}

	return &ConcreteGeometry{
		Patch:      patch,
		K:          k,
		N:          n,
		CiPerGroup: ciPerGroup,
		Strategy:   SelectStrategy(patch),
		DataShape:  ds,
	}, nil
}
