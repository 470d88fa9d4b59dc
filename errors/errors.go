// Package errors provides error handling for gridless.
//
// It re-exports github.com/cockroachdb/errors and declares the sentinel
// errors used across the imaging core. Wrap a sentinel with Wrapf to add
// context; callers match it with Is.
//
//	if len(data) != 2*nVis {
//	    return nil, errors.Wrapf(errors.ErrShapeMismatch, "data has %d rows, want %d", len(data), 2*nVis)
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel errors. Configuration and shape problems are reported with these
// and are never retried.
var (
	// ErrShapeMismatch indicates a malformed input array, e.g. measurement
	// data that is not laid out as [2*n_vis][n_freq][n_pol].
	ErrShapeMismatch = New("shape mismatch")

	// ErrDimensionMismatch indicates non-conformant matrix or vector sizes.
	ErrDimensionMismatch = New("dimension mismatch")

	// ErrMissingRepresentation indicates a Gaussian constructed with neither
	// a covariance nor a precision matrix.
	ErrMissingRepresentation = New("missing covariance and precision")

	// ErrNotPositiveDefinite indicates a matrix that could not be factorized
	// by Cholesky decomposition.
	ErrNotPositiveDefinite = New("matrix not positive definite")

	// ErrInvalidParameter indicates an out of range solver or geometry parameter.
	ErrInvalidParameter = New("invalid parameter")
)
