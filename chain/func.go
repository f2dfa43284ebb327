// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.0/internal/x/dslx/fxcore.go
//

// Package chain provides a generic, type-safe pipeline-composition DSL
// used to build the http Worker's preprocessor/match/postprocessor chains
// and the smtp Worker's per-verb dispatch table.
package chain

// Func is a generic operation that accepts an input and returns a result.
//
// Func instances can be composed using [Compose2], [Compose3], etc. to
// build type-safe pipelines where the output of one stage flows to the
// input of the next.
type Func[A, B any] interface {
	Call(input A) (B, error)
}

// FuncAdapter wraps a function as a [Func] implementation.
//
// Use this to create ad-hoc [Func] instances from closures when you need
// custom behavior that doesn't fit the existing primitives.
type FuncAdapter[A, B any] func(input A) (B, error)

// Call implements [Func].
func (f FuncAdapter[A, B]) Call(input A) (B, error) {
	return f(input)
}
