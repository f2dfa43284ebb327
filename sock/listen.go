// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"github.com/rainsocket/rain/resolve"
	"github.com/rainsocket/rain/timeout"
)

// DefaultBacklog is the listen queue depth used when the caller
// passes a non-positive backlog.
const DefaultBacklog = 200

// Bind tries each address in order, binding to the first that succeeds;
// it also sets SO_REUSEADDR, matching a listening socket's typical
// needs. On total failure it returns the first error encountered.
func (s *Socket) Bind(addrs []resolve.AddressInfo) error {
	if len(addrs) == 0 {
		return ErrNoAddresses
	}
	s.operationMtx.Lock()
	defer s.operationMtx.Unlock()

	s.stateMtx.RLock()
	h := s.handle
	s.stateMtx.RUnlock()
	if h == invalidHandle {
		return &OpError{Op: "bind", Err: ErrClosed}
	}
	_ = sysSetReuseAddr(h)

	var firstErr error
	for _, ai := range addrs {
		if err := sysBind(h, ai); err != nil {
			if firstErr == nil {
				firstErr = &OpError{Op: "bind", Addr: resolve.GetNumericHost(ai).String(), Err: err}
			}
			continue
		}
		s.stateMtx.Lock()
		s.localAddr = ai
		// An ephemeral bind (port 0) only learns its real port here.
		if ip, port, gerr := sysGetsockname(h); gerr == nil {
			s.localAddr.IP = ip
			s.localAddr.Port = port
		}
		s.stateMtx.Unlock()
		return nil
	}
	return firstErr
}

// BindHost resolves host (with [resolve.FlagPassive] set, matching a
// server-side bind) under t and delegates to [Socket.Bind].
func (s *Socket) BindHost(host resolve.Host, t timeout.Timeout, flags resolve.Flag) error {
	ctx, cancel := timeoutContext(t)
	defer cancel()
	addrs, err := resolve.GetAddressInfo(ctx, host, s.Spec(), flags|resolve.FlagPassive)
	if err != nil {
		return &OpError{Op: "bind", Addr: host.String(), Err: err}
	}
	return s.Bind(addrs)
}

// Listen sets the listen backlog on a bound socket. backlog <= 0 uses
// [DefaultBacklog].
func (s *Socket) Listen(backlog int) error {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	s.operationMtx.Lock()
	defer s.operationMtx.Unlock()

	s.stateMtx.RLock()
	h := s.handle
	s.stateMtx.RUnlock()
	if h == invalidHandle {
		return &OpError{Op: "listen", Err: ErrClosed}
	}
	if err := sysListen(h, backlog); err != nil {
		return &OpError{Op: "listen", Err: err}
	}
	s.cfg.Logger.Info("socketListen", "backlog", backlog)
	return nil
}

// Accept polls for readability with t. On timeout it returns a nil
// Socket and a zero [resolve.AddressInfo] with no error; otherwise it accepts the connection,
// re-applies non-blocking and no-linger, and shares s's interrupt pair
// with the returned Socket.
func (s *Socket) Accept(t timeout.Timeout) (*Socket, resolve.AddressInfo, error) {
	s.operationMtx.Lock()
	defer s.operationMtx.Unlock()

	s.stateMtx.RLock()
	h := s.handle
	ip := s.interrupt
	spec := s.spec
	s.stateMtx.RUnlock()
	if h == invalidHandle {
		return nil, resolve.AddressInfo{}, &OpError{Op: "accept", Err: ErrClosed}
	}

	events, err := s.poll(PollReadable, t)
	if err != nil {
		return nil, resolve.AddressInfo{}, &OpError{Op: "accept", Err: err}
	}
	if events&PollReadable == 0 {
		return nil, resolve.AddressInfo{}, nil
	}

	nfd, ai, err := sysAccept(h)
	if err != nil {
		return nil, resolve.AddressInfo{}, &OpError{Op: "accept", Err: err}
	}
	if err := sysSetNonblocking(nfd); err != nil {
		sysClose(nfd)
		return nil, resolve.AddressInfo{}, &OpError{Op: "accept", Err: err}
	}
	if err := sysSetLingerAbortive(nfd); err != nil {
		sysClose(nfd)
		return nil, resolve.AddressInfo{}, &OpError{Op: "accept", Err: err}
	}

	child := newFromHandle(s.cfg, nfd, spec, ip)
	child.remoteAddr = ai
	s.cfg.Logger.Info("socketAccept", "peer", resolve.GetNumericHost(ai).String())
	return child, ai, nil
}
