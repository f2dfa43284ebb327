// SPDX-License-Identifier: GPL-3.0-or-later

// Package rain provides a layered, non-blocking, interruptable socket
// runtime that composes into concrete Server, Client, and Worker roles,
// specialized upward into HTTP and SMTP request/response protocols with
// streaming bodies.
//
// # Core Abstraction
//
// The runtime is built around a small set of composable layers:
//
//   - [github.com/rainsocket/rain/sock.Socket]: a non-blocking, pollable,
//     interruptable socket handle.
//   - [github.com/rainsocket/rain/executor.Executor]: a bounded worker pool.
//   - [github.com/rainsocket/rain/runtime.Server], [runtime.Worker],
//     [runtime.Client]: role composition over a Socket and an Executor.
//   - [github.com/rainsocket/rain/stream.Stream]: a duplex byte-stream
//     adapter with independent send/recv timeouts.
//   - [github.com/rainsocket/rain/rr.Loop]: a generic
//     recv-dispatch-send Request/Response loop.
//
// The http and smtp packages specialize this runtime into concrete wire
// protocols, each with their own Request/Response/Worker/Client types.
//
// # Available Primitives
//
// Address resolution:
//   - [github.com/rainsocket/rain/resolve.GetAddressInfo]: resolves a [resolve.Host]
//     into a list of [resolve.AddressInfo].
//   - [github.com/rainsocket/rain/resolve.LookupMX]: resolves MX records, sorted
//     ascending by preference.
//
// Timeouts:
//   - [github.com/rainsocket/rain/timeout.Timeout]: a monotonic deadline with an
//     explicit infinite sentinel.
//
// Composition:
//   - [github.com/rainsocket/rain/chain.Func], [chain.Compose2] through
//     [chain.Compose8]: chain request-handling stages into pipelines,
//     used by the http Worker's preprocessor/match/postprocessor chains
//     and the smtp Worker's verb dispatch table.
//
// # Connection Lifecycle
//
// A [sock.Socket] is always non-blocking at the kernel level. Sockets
// created by a Server share that Server's interrupt pair with every
// spawned Worker: calling Server.Close writes one byte on the interrupt
// pair's writer side, which makes every subsequent poll on any socket
// sharing that pair return immediately as not-ready, unwinding blocked
// Workers without needing to touch their individual sockets.
//
// Close performs a graceful shutdown (shutdown-write, drain until FIN or
// timeout, then close); Abort closes immediately without draining.
//
// # Observability
//
// All primitives support structured logging via [SLogger] (compatible
// with [log/slog]). By default, logging is disabled; set [Config.Logger]
// to a custom [*slog.Logger] to enable it. Error classification is
// configurable via [Config.ErrClassifier]; by default [NewConfig] sets
// [DefaultErrClassifier], which is backed by platform errno tables.
//
// The MX lookup emits an mxLookupStart/mxLookupDone pair at
// [slog.LevelInfo]; the Done event carries t0 (start time), t, and, on
// failure, err and errClass. Sockets log single Info events for listen,
// accept, interrupt, abort and close, and the runtime, rr and smtp
// packages log worker errors and panics at Info. The per-read and
// per-write events of [github.com/rainsocket/rain/stream.ObservedStream]
// are logged at [slog.LevelDebug]. There are no per-event common fields
// such as localAddr or remoteAddr.
//
// Use [NewSpanID] to generate a unique, time-ordered identifier (UUIDv7)
// for each Worker session or Client operation, then attach it to the
// logger with [*slog.Logger.With] so that every log entry from that
// session shares the same spanID.
//
// # Timeout Philosophy
//
// Unlike a context.Context-based design, every blocking operation in this
// module accepts an explicit [timeout.Timeout] value computed by the
// caller. This mirrors the underlying poll(2)/WSAPoll loop directly: a
// Timeout converts losslessly to the millisecond argument poll expects
// (-1 infinite, 0 expired, else remaining milliseconds), and composing
// multi-step operations (e.g. a multi-address Connect) is done by
// re-deriving a fresh Timeout against the same deadline at each step
// rather than by threading a cancelable context through the stack.
//
// # Design Boundaries
//
// This module intentionally does not provide TLS, HTTP/2 or HTTP/3
// framing, request routing DSLs, cookie storage policy, MIME multipart
// parsing, or persistent queueing. These concerns introduce orthogonal
// failure modes and are left to higher-level code built atop this
// runtime.
package rain
