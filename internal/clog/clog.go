// Package clog holds the package-level logger shared by convcore's core
// packages. It is silent by default: convcore is a library, not an
// application, and must not emit anything unless a host process opts in.
package clog

import (
	"io"

	"github.com/rs/zerolog"
)

// L is the logger used by kernel selection and error-surfacing call sites
// across the core. Defaults to a no-op sink.
var L zerolog.Logger = zerolog.New(io.Discard).With().Timestamp().Logger().Level(zerolog.Disabled)

// SetLogger lets a host process install its own logger, e.g. to route
// kernel-selection and error events into its own structured log stream.
func SetLogger(l zerolog.Logger) {
	L = l
}
