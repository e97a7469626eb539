// Package geom resolves a PoolSpec and a concrete input shape into a Patch
// and the accompanying ConcreteGeometry: the flat kernel-offset tables, the
// shared matmul dimensions (k, n), and the Patcher strategy to use.
package geom

import (
	"strconv"

	"github.com/csotherden/convcore/errs"
)

// DataFormat identifies which axes of the input tensor are N (batch), C
// (channel) and spatial, and whether the channel axis precedes or follows
// the spatial axes.
type DataFormat int

const (
	NCHW DataFormat = iota
	NHWC
	CHW
	HWC
)

// HasN reports whether this format carries an explicit batch axis.
func (f DataFormat) HasN() bool {
	return f == NCHW || f == NHWC
}

// ChannelFirst reports whether the channel axis precedes the spatial axes
// (ignoring any N axis).
func (f DataFormat) ChannelFirst() bool {
	return f == NCHW || f == CHW
}

// PaddingKind selects how spatial padding is derived.
type PaddingKind int

const (
	Valid PaddingKind = iota
	SameUpper
	SameLower
	Explicit
)

// Padding describes the padding configuration for a PoolSpec. ExplicitBefore
// and ExplicitAfter are only consulted when Kind == Explicit, one entry per
// spatial axis.
type Padding struct {
	Kind           PaddingKind
	ExplicitBefore []int
	ExplicitAfter  []int
}

// PoolSpec is the symbolic description of a sliding-window operation,
// resolved against a concrete input shape to produce a ConcreteGeometry.
type PoolSpec struct {
	DataFormat  DataFormat
	KernelShape []int
	Padding     Padding
	Strides     []int
	Dilations   []int
}

// Validate checks the configuration knobs eagerly, before any resolution is
// attempted, per SPEC_FULL.md §4.8.
func (p PoolSpec) Validate() error {
	rank := len(p.KernelShape)
	if rank == 0 {
		return errs.NewShapeError("kernel_shape must have at least one spatial axis")
	}
	if len(p.Strides) != rank {
		return errs.NewShapeError("strides rank must match kernel_shape rank")
	}
	if len(p.Dilations) != rank {
		return errs.NewShapeError("dilations rank must match kernel_shape rank")
	}
	for i, s := range p.Strides {
		if s <= 0 {
			return errs.NewShapeError("stride must be positive at axis " + strconv.Itoa(i))
		}
	}
	for i, d := range p.Dilations {
		if d <= 0 {
			return errs.NewShapeError("dilation must be positive at axis " + strconv.Itoa(i))
		}
	}
	if p.Padding.Kind == Explicit {
		if len(p.Padding.ExplicitBefore) != rank || len(p.Padding.ExplicitAfter) != rank {
			return errs.NewShapeError("explicit padding rank must match kernel_shape rank")
		}
	}
	return nil
}
