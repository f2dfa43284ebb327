// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rainsocket/rain/resolve"
	"github.com/rainsocket/rain/timeout"
)

// interruptPair is a pair of mutually connected loopback sockets used as
// a one-way latch to break out of in-progress polls. It is shared,
// never exclusively owned, between a Server and every Worker it
// spawns: Workers hold a reference for [Socket.poll] to check but only
// the owning Server ever calls fire or closes the pair.
type interruptPair struct {
	sender   platformHandle
	receiver platformHandle

	fireOnce sync.Once
	fired    atomic.Bool
}

var loopbackSpec = resolve.Specification{Family: resolve.FamilyINET, SockType: resolve.SockTypeStream}

// newInterruptPair creates a connected loopback pair via a one-shot
// local listener plus accept.
func newInterruptPair() (*interruptPair, error) {
	listener, err := sysSocket(loopbackSpec)
	if err != nil {
		return nil, err
	}
	defer sysClose(listener)

	if err := sysSetNonblocking(listener); err != nil {
		return nil, err
	}
	loopback := resolve.AddressInfo{Family: resolve.FamilyINET, IP: net.IPv4(127, 0, 0, 1), Port: 0}
	if err := sysBind(listener, loopback); err != nil {
		return nil, err
	}
	if err := sysListen(listener, 1); err != nil {
		return nil, err
	}
	ip, port, err := sysGetsockname(listener)
	if err != nil {
		return nil, err
	}

	connector, err := sysSocket(loopbackSpec)
	if err != nil {
		return nil, err
	}
	if err := sysSetNonblocking(connector); err != nil {
		sysClose(connector)
		return nil, err
	}
	target := resolve.AddressInfo{Family: resolve.FamilyINET, IP: ip, Port: port}
	err = sysConnect(connector, target)
	if err != nil && !isConnectPending(err) {
		sysClose(connector)
		return nil, err
	}

	// Loopback connects complete almost immediately; poll briefly for
	// both the connect to finish and the listener to have a pending
	// accept, then accept it.
	deadline := timeout.FromDuration(2 * time.Second)
	var receiver platformHandle
	for {
		events, perr := sysPoll([]platformHandle{listener}, []PollEvent{PollReadable}, 50)
		if perr != nil {
			sysClose(connector)
			return nil, perr
		}
		if events[0]&PollReadable != 0 {
			nfd, _, aerr := sysAccept(listener)
			if aerr != nil {
				sysClose(connector)
				return nil, aerr
			}
			receiver = nfd
			break
		}
		if deadline.HasPassed() {
			sysClose(connector)
			return nil, fmt.Errorf("sock: timed out constructing interrupt pair")
		}
	}

	if serr := sysSocketError(connector); serr != nil {
		sysClose(connector)
		sysClose(receiver)
		return nil, serr
	}

	return &interruptPair{sender: connector, receiver: receiver}, nil
}

// fire writes one byte into the sender side exactly once. Subsequent
// calls are no-ops: an interrupted pair cannot be un-interrupted, so
// re-firing it is harmless but redundant.
func (p *interruptPair) fire() error {
	var fireErr error
	p.fireOnce.Do(func() {
		_, fireErr = sysSend(p.sender, []byte{0})
		if fireErr == nil {
			p.fired.Store(true)
		}
	})
	return fireErr
}

func (p *interruptPair) isLatched() bool {
	return p.fired.Load()
}

// close tears down both ends of the pair. Only the owning Server calls
// this, after every Worker sharing the pair has been torn down.
func (p *interruptPair) close() {
	sysClose(p.sender)
	sysClose(p.receiver)
}
