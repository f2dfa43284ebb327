// SPDX-License-Identifier: GPL-3.0-or-later

// Package sock provides a thread-safe, RAII-flavored wrapper around a
// native kernel socket: poll-based timeouts, an interrupt mechanism built
// from a loopback socket pair, graceful and abortive teardown, and
// address resolution glue shared with the resolve package.
//
// A [*Socket] is always non-blocking at the kernel level; every blocking
// semantic (connect, accept, send, recv) is emulated with poll(2) (or
// WSAPoll on Windows) against a caller-supplied [timeout.Timeout]. All
// public operations either succeed or return a typed error wrapping the
// underlying system error; none silently return a partial result.
package sock
