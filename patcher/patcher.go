// Package patcher reads an input tensor through a resolved geom.Patch and
// writes directly into a packer-formatted destination (spec.md §4.2). Four
// strategy variants are selected once per call by geom.SelectStrategy;
// Generic is the semantic reference and the other three are optimizations
// whose output must be byte-identical to it on the inputs they handle.
package patcher

import (
	"github.com/csotherden/convcore/errs"
	"github.com/csotherden/convcore/geom"
	"github.com/csotherden/convcore/packer"
)

// Run dispatches to the strategy tagged on cg, filling dest (which must
// have at least pk.Len(cg.N) elements) with the packed (k × n) submatrix
// for group g. input is the per-batch input view (post-batch-prefix) as a
// flat, standard-layout element slice; ds describes its axis strides.
// padValue is required iff cg.Patch.Padded.
func Run(cg *geom.ConcreteGeometry, pk packer.Packer, input []float32, ds geom.DataShape, g int, padValue float32, dest []float32) error {
	if cg.Patch.Padded && cg.Strategy != geom.StrategyPadded2d && cg.Strategy != geom.StrategyGeneric {
		return errs.NewShapeError("padded patch requires Padded2d or Generic strategy")
	}
	channelBase := g * cg.CiPerGroup * ds.CStride

	switch cg.Strategy {
	case geom.StrategyValid1d:
		valid1d(cg, pk, input, ds, channelBase, dest)
	case geom.StrategyValid2d:
		valid2d(cg, pk, input, ds, channelBase, dest)
	case geom.StrategyPadded2d:
		padded2d(cg, pk, input, ds, channelBase, padValue, dest)
	default:
		generic(cg, pk, input, ds, channelBase, padValue, dest)
	}
	return nil
}

// valid1d: no bounds checks. For each ci, for each kernel offset, emit
// output_shape[0] values at stride x_stride*patch.Strides[0].
func valid1d(cg *geom.ConcreteGeometry, pk packer.Packer, input []float32, ds geom.DataShape, channelBase int, dest []float32) {
	p := cg.Patch
	outW := p.OutputShape[0]
	xStride := ds.SpatialStrides[0]
	stepX := xStride * p.Strides[0]

	w := packer.NewWriter(dest, cg.K, cg.N, pk)
	for ci := 0; ci < cg.CiPerGroup; ci++ {
		ciBase := channelBase + ci*ds.CStride
		for i := 0; i < p.KernelVolume(); i++ {
			base := ciBase + p.DataField[i]*xStride
			for xo := 0; xo < outW; xo++ {
				w.Write(input[base+xo*stepX])
			}
		}
	}
	w.Finish()
}

// valid2d: same as valid1d with a y-loop outside the x-loop; both axes are
// guaranteed in-bounds.
func valid2d(cg *geom.ConcreteGeometry, pk packer.Packer, input []float32, ds geom.DataShape, channelBase int, dest []float32) {
	p := cg.Patch
	outH, outW := p.OutputShape[0], p.OutputShape[1]
	yStride, xStride := ds.SpatialStrides[0], ds.SpatialStrides[1]
	stepY := yStride * p.Strides[0]
	stepX := xStride * p.Strides[1]

	w := packer.NewWriter(dest, cg.K, cg.N, pk)
	for ci := 0; ci < cg.CiPerGroup; ci++ {
		ciBase := channelBase + ci*ds.CStride
		for i := 0; i < p.KernelVolume(); i++ {
			base := ciBase + p.DataField[i*2+0]*yStride + p.DataField[i*2+1]*xStride
			for yo := 0; yo < outH; yo++ {
				rowBase := base + yo*stepY
				for xo := 0; xo < outW; xo++ {
					w.Write(input[rowBase+xo*stepX])
				}
			}
		}
	}
	w.Finish()
}

// padded2d: for each ci and kernel element (dy,dx), iterate (yo,xo). If the
// y coordinate is out of bounds the whole xo row is pad_value; otherwise
// per-xo bounds checks decide input value vs. pad_value. This preserves
// packing order bit-exactly versus valid2d when the pad region is empty.
func padded2d(cg *geom.ConcreteGeometry, pk packer.Packer, input []float32, ds geom.DataShape, channelBase int, padValue float32, dest []float32) {
	p := cg.Patch
	outH, outW := p.OutputShape[0], p.OutputShape[1]
	H, W := ds.HWDims[0], ds.HWDims[1]
	yStride, xStride := ds.SpatialStrides[0], ds.SpatialStrides[1]
	strideY, strideX := p.Strides[0], p.Strides[1]

	w := packer.NewWriter(dest, cg.K, cg.N, pk)
	for ci := 0; ci < cg.CiPerGroup; ci++ {
		ciBase := channelBase + ci*ds.CStride
		for i := 0; i < p.KernelVolume(); i++ {
			dy := p.DataField[i*2+0] - p.PadBefore[0]
			dx := p.DataField[i*2+1] - p.PadBefore[1]
			base := ciBase
			for yo := 0; yo < outH; yo++ {
				y := yo*strideY + dy
				if y < 0 || y >= H {
					for xo := 0; xo < outW; xo++ {
						w.Write(padValue)
					}
					continue
				}
				rowBase := base + y*yStride
				for xo := 0; xo < outW; xo++ {
					x := xo*strideX + dx
					if x < 0 || x >= W {
						w.Write(padValue)
						continue
					}
					w.Write(input[rowBase+x*xStride])
				}
			}
		}
	}
	w.Finish()
}

// generic builds a dense (k × n) mega-matrix by iterating the output
// spatial lattice, then delegates to packer.Pack. This is the fallback for
// arbitrary rank and handles any padding/dilation combination correctly, at
// the cost of a transient O(k·n) buffer (see SPEC_FULL.md §9 on the Open
// Question: this temporary is kept, not elided).
func generic(cg *geom.ConcreteGeometry, pk packer.Packer, input []float32, ds geom.DataShape, channelBase int, padValue float32, dest []float32) {
	p := cg.Patch
	rank := p.Rank()
	n := cg.N
	kvol := p.KernelVolume()

	dense := make([]float32, cg.K*n)

	outCoord := make([]int, rank)
	total := n
	for ci := 0; ci < cg.CiPerGroup; ci++ {
		ciBase := channelBase + ci*ds.CStride
		for i := 0; i < kvol; i++ {
			kRow := ci*kvol + i
			rowBase := kRow * n
			for col := 0; col < total; col++ {
				rem := col
				for r := rank - 1; r >= 0; r-- {
					outCoord[r] = rem % p.OutputShape[r]
					rem /= p.OutputShape[r]
				}
				off, ok := at(p, ds, i, outCoord)
				if !ok {
					dense[rowBase+col] = padValue
					continue
				}
				dense[rowBase+col] = input[ciBase+off]
			}
		}
	}
	packer.Pack(dest, dense, cg.K, n, pk)
}

// at resolves kernel element i at output coordinate outCoord to a signed
// element offset into the per-channel input view, or ok=false if the
// corresponding input position is out of bounds (pad region).
func at(p *geom.Patch, ds geom.DataShape, i int, outCoord []int) (off int, ok bool) {
	rank := p.Rank()
	for r := 0; r < rank; r++ {
		disp := p.DataField[i*rank+r] - p.PadBefore[r]
		coord := outCoord[r]*p.Strides[r] + disp
		if coord < 0 || coord >= ds.HWDims[r] {
			return 0, false
		}
		off += coord * ds.SpatialStrides[r]
	}
	return off, true
}
