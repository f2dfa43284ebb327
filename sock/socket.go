// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"sync"
	"sync/atomic"

	"github.com/bassosimone/runtimex"
	"github.com/rainsocket/rain"
	"github.com/rainsocket/rain/resolve"
)

// Socket is a thread-safe, RAII handle to a kernel socket.
//
// The zero value is not usable; construct one with [New] or [Accept].
//
// Two mutexes guard a Socket: stateMtx protects the mutable fields below
// and is released for the duration of any blocking poll; operationMtx
// serializes the kernel operations (connect/accept/send/recv/shutdown)
// issued against a single handle that
// at most one kernel operation is ever in flight per Socket.
type Socket struct {
	cfg *rain.Config

	stateMtx     sync.RWMutex
	operationMtx sync.Mutex

	handle platformHandle
	spec   resolve.Specification

	interrupt *interruptPair

	shutdownRead  atomic.Bool
	shutdownWrite atomic.Bool

	localAddr  resolve.AddressInfo
	remoteAddr resolve.AddressInfo

	dl *deadlines
}

// Options configure [New].
type Options struct {
	// Spec is the (family, socktype, protocol) triple used to create the
	// kernel socket.
	Spec resolve.Specification

	// Interruptable controls whether the Socket is constructed with a
	// shared interrupt pair. [New] reads only this field; it does not
	// consult cfg.Interruptable.
	Interruptable bool
}

// New creates a fresh [*Socket] from spec, applying the default options
// always applied: non-blocking, dual-stack for
// IPv6, SO_LINGER{1,0} so close without a prior graceful shutdown aborts
// the connection. If opts.Interruptable is true, an interrupt pair is
// established via a one-shot loopback listener and accept.
func New(cfg *rain.Config, opts Options) (*Socket, error) {
	runtimex.Assert(cfg != nil)

	h, err := sysSocket(opts.Spec)
	if err != nil {
		return nil, &OpError{Op: "socket", Err: err}
	}
	if err := sysSetNonblocking(h); err != nil {
		sysClose(h)
		return nil, &OpError{Op: "socket", Err: err}
	}
	if err := sysSetLingerAbortive(h); err != nil {
		sysClose(h)
		return nil, &OpError{Op: "socket", Err: err}
	}
	if isIPv6(opts.Spec) {
		_ = sysSetDualStack(h) // best-effort; not all platforms support V6ONLY=0
	}

	s := &Socket{
		cfg:    cfg,
		handle: h,
		spec:   opts.Spec,
	}
	if opts.Interruptable {
		pair, err := newInterruptPair()
		if err != nil {
			sysClose(h)
			return nil, &OpError{Op: "socket", Err: err}
		}
		s.interrupt = pair
	}
	cfg.Logger.Debug("socketNew", "spec", opts.Spec, "interruptable", opts.Interruptable)
	return s, nil
}

// newFromHandle wraps an already-accepted native handle, used
// internally by [Socket.Accept]. The returned
// Socket shares ip; it never owns the pair exclusively.
func newFromHandle(cfg *rain.Config, h platformHandle, spec resolve.Specification, ip *interruptPair) *Socket {
	return &Socket{cfg: cfg, handle: h, spec: spec, interrupt: ip}
}

// LocalAddressInfo returns the address this Socket is bound to, valid
// after [Socket.Bind]/[Socket.BindHost]; a connect does not set it.
func (s *Socket) LocalAddressInfo() resolve.AddressInfo {
	s.stateMtx.RLock()
	defer s.stateMtx.RUnlock()
	return s.localAddr
}

// RemoteAddressInfo returns the peer address, valid after a successful
// connect or accept.
func (s *Socket) RemoteAddressInfo() resolve.AddressInfo {
	s.stateMtx.RLock()
	defer s.stateMtx.RUnlock()
	return s.remoteAddr
}

// Spec returns the Specification this Socket was constructed with.
func (s *Socket) Spec() resolve.Specification {
	s.stateMtx.RLock()
	defer s.stateMtx.RUnlock()
	return s.spec
}

// Valid reports whether the underlying native handle has not yet been
// aborted.
func (s *Socket) Valid() bool {
	s.stateMtx.RLock()
	defer s.stateMtx.RUnlock()
	return s.handle != invalidHandle
}

// Interruptable reports whether this Socket shares an interrupt pair.
func (s *Socket) Interruptable() bool {
	s.stateMtx.RLock()
	defer s.stateMtx.RUnlock()
	return s.interrupt != nil
}

// Interrupt writes one byte into the interrupt pair's sender side,
// latching every subsequent poll on Sockets sharing this pair to return
// as not-ready. It does not read the
// byte back; the latch is never cleared.
//
// Interrupt on a Socket constructed without an interrupt pair returns
// [ErrInterruptOnUninterruptable].
func (s *Socket) Interrupt() error {
	s.stateMtx.RLock()
	ip := s.interrupt
	s.stateMtx.RUnlock()
	if ip == nil {
		return &OpError{Op: "interrupt", Err: ErrInterruptOnUninterruptable}
	}
	if err := ip.fire(); err != nil {
		return &OpError{Op: "interrupt", Err: err}
	}
	s.cfg.Logger.Info("socketInterrupt")
	return nil
}

// Abort closes the kernel handle immediately, marking it invalid. Idempotent.
func (s *Socket) Abort() {
	s.stateMtx.Lock()
	h := s.handle
	s.handle = invalidHandle
	s.stateMtx.Unlock()
	if h == invalidHandle {
		return
	}
	sysClose(h)
	s.cfg.Logger.Info("socketAbort")
}

func isIPv6(spec resolve.Specification) bool {
	return spec.Family == resolve.FamilyINET6
}
