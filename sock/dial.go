// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rainsocket/rain"
	"github.com/rainsocket/rain/resolve"
	"github.com/rainsocket/rain/timeout"
)

// ErrNoAddresses is returned by [Socket.ConnectAny] when given an empty
// address list.
var ErrNoAddresses = fmt.Errorf("sock: no addresses to connect to")

// ConnectOne connects to a single address: issue a non-blocking connect, accept IN_PROGRESS/WOULD_BLOCK
// as pending, then poll for writability under t.
func (s *Socket) ConnectOne(ai resolve.AddressInfo, t timeout.Timeout) error {
	s.operationMtx.Lock()
	defer s.operationMtx.Unlock()

	s.stateMtx.RLock()
	h := s.handle
	s.stateMtx.RUnlock()
	if h == invalidHandle {
		return &OpError{Op: "connect", Err: ErrClosed}
	}

	err := sysConnect(h, ai)
	if err != nil && !isConnectPending(err) {
		return &OpError{Op: "connect", Addr: resolve.GetNumericHost(ai).String(), Err: err}
	}

	events, err := s.poll(PollWritable, t)
	if err != nil {
		return &OpError{Op: "connect", Addr: resolve.GetNumericHost(ai).String(), Err: err}
	}
	if events&PollWritable == 0 {
		return &OpError{Op: "connect", Addr: resolve.GetNumericHost(ai).String(), Err: ErrTimeout}
	}
	if serr := sysSocketError(h); serr != nil {
		return &OpError{Op: "connect", Addr: resolve.GetNumericHost(ai).String(), Err: serr}
	}

	s.stateMtx.Lock()
	s.remoteAddr = ai
	s.stateMtx.Unlock()
	return nil
}

// ConnectSerial tries each address in order with t applied per attempt,
// remembering the first error and returning it only if every address
// fails.
func (s *Socket) ConnectSerial(addrs []resolve.AddressInfo, t timeout.Timeout) error {
	if len(addrs) == 0 {
		return ErrNoAddresses
	}
	var firstErr error
	for _, ai := range addrs {
		if err := s.ConnectOne(ai, t); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return nil
	}
	return firstErr
}

// ConnectParallel races one uninterruptable Socket per address, each
// dialing independently with t applied; the first to succeed has its
// native handle swapped into s, and the remaining racers are aborted.
func (s *Socket) ConnectParallel(cfg *rain.Config, addrs []resolve.AddressInfo, t timeout.Timeout) error {
	if len(addrs) == 0 {
		return ErrNoAddresses
	}

	var mu sync.Mutex
	var winner *Socket
	var winnerAddr resolve.AddressInfo
	var firstErr error

	var wg errgroup.Group
	for _, ai := range addrs {
		ai := ai
		wg.Go(func() error {
			racer, err := New(cfg, Options{Spec: s.Spec(), Interruptable: false})
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			if err := racer.ConnectOne(ai, t); err != nil {
				racer.Abort()
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			mu.Lock()
			if winner == nil {
				winner = racer
				winnerAddr = ai
			} else {
				racer.Abort() // lost the race
			}
			mu.Unlock()
			return nil
		})
	}
	_ = wg.Wait() // errors are carried via firstErr; wg.Go never itself returns an error

	if winner == nil {
		if firstErr == nil {
			firstErr = ErrNoAddresses
		}
		return firstErr
	}

	s.stateMtx.Lock()
	old := s.handle
	s.handle = winner.handle
	s.remoteAddr = winnerAddr
	s.stateMtx.Unlock()
	winner.handle = invalidHandle // ownership transferred to s; prevent double-close
	if old != invalidHandle {
		sysClose(old)
	}
	return nil
}

// ConnectHost resolves host via the resolve package and delegates to
// [Socket.ConnectSerial] or [Socket.ConnectParallel].
func (s *Socket) ConnectHost(
	cfg *rain.Config, host resolve.Host, t timeout.Timeout, parallel bool, flags resolve.Flag,
) error {
	ctx, cancel := timeoutContext(t)
	defer cancel()
	addrs, err := resolve.GetAddressInfo(ctx, host, s.Spec(), flags)
	if err != nil {
		return &OpError{Op: "connect", Addr: host.String(), Err: err}
	}
	if parallel {
		return s.ConnectParallel(cfg, addrs, t)
	}
	return s.ConnectSerial(addrs, t)
}
