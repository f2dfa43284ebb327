// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/common/errclass/errclass.go
//

// Package errclass classifies network errors into short, stable labels
// suitable for structured logging and metrics.
package errclass

import (
	"context"
	"errors"
	"os"
	"syscall"
)

// Exported classification labels. Callers that need to compare against a
// specific class (rather than just logging it) should use these constants
// instead of string literals.
const (
	EADDRNOTAVAIL   = "EADDRNOTAVAIL"
	EADDRINUSE      = "EADDRINUSE"
	ECONNABORTED    = "ECONNABORTED"
	ECONNREFUSED    = "ECONNREFUSED"
	ECONNRESET      = "ECONNRESET"
	EHOSTUNREACH    = "EHOSTUNREACH"
	EINVAL          = "EINVAL"
	EINTR           = "EINTR"
	ENETDOWN        = "ENETDOWN"
	ENETUNREACH     = "ENETUNREACH"
	ENOBUFS         = "ENOBUFS"
	ENOTCONN        = "ENOTCONN"
	EPROTONOSUPPORT = "EPROTONOSUPPORT"
	ETIMEDOUT       = "ETIMEDOUT"
	EPIPE           = "EPIPE"
	EAGAIN          = "EAGAIN"
	EINPROGRESS     = "EINPROGRESS"
	ECANCELED       = "generic_canceled_error"
	EGENERIC        = "generic_error"
)

// New classifies err into a short label such as [ECONNRESET] or
// [ETIMEDOUT]. It returns an empty string for a nil error.
//
// The classification first checks for well known sentinel errors from the
// standard library (context cancellation/deadline, os.ErrDeadlineExceeded)
// and then falls back to the platform errno table built from
// golang.org/x/sys/{unix,windows}.
func New(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.Canceled):
		return ECANCELED
	case errors.Is(err, context.DeadlineExceeded):
		return ETIMEDOUT
	case errors.Is(err, os.ErrDeadlineExceeded):
		return ETIMEDOUT
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if label := classifyErrno(errno); label != "" {
			return label
		}
	}

	return EGENERIC
}

// classifyErrno maps a platform errno to a stable label, falling back to
// the empty string when the errno is not one of the tracked cases.
func classifyErrno(errno syscall.Errno) string {
	switch errno {
	case errEADDRNOTAVAIL:
		return EADDRNOTAVAIL
	case errEADDRINUSE:
		return EADDRINUSE
	case errECONNABORTED:
		return ECONNABORTED
	case errECONNREFUSED:
		return ECONNREFUSED
	case errECONNRESET:
		return ECONNRESET
	case errEHOSTUNREACH:
		return EHOSTUNREACH
	case errEINVAL:
		return EINVAL
	case errEINTR:
		return EINTR
	case errENETDOWN:
		return ENETDOWN
	case errENETUNREACH:
		return ENETUNREACH
	case errENOBUFS:
		return ENOBUFS
	case errENOTCONN:
		return ENOTCONN
	case errEPROTONOSUPPORT:
		return EPROTONOSUPPORT
	case errETIMEDOUT:
		return ETIMEDOUT
	case errEPIPE:
		return EPIPE
	case errEAGAIN:
		return EAGAIN
	case errEINPROGRESS:
		return EINPROGRESS
	default:
		return ""
	}
}
