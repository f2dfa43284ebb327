// SPDX-License-Identifier: GPL-3.0-or-later

//go:build unix

package sock

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/rainsocket/rain/resolve"
)

// platformHandle is a POSIX file descriptor.
type platformHandle = int

// invalidHandle is the sentinel for a closed or never-opened handle.
const invalidHandle platformHandle = -1

func sysSocket(spec resolve.Specification) (platformHandle, error) {
	domain := unix.AF_INET
	if spec.Family == resolve.FamilyINET6 {
		domain = unix.AF_INET6
	}
	typ := unix.SOCK_STREAM
	if spec.SockType != resolve.SockTypeDefault {
		typ = int(spec.SockType)
	}
	proto := int(spec.Protocol)
	fd, err := unix.Socket(domain, typ, proto)
	if err != nil {
		return invalidHandle, err
	}
	return fd, nil
}

func sysSetNonblocking(h platformHandle) error {
	return unix.SetNonblock(h, true)
}

func sysSetLingerAbortive(h platformHandle) error {
	return unix.SetsockoptLinger(h, unix.SOL_SOCKET, unix.SO_LINGER, &unix.Linger{Onoff: 1, Linger: 0})
}

func sysSetDualStack(h platformHandle) error {
	return unix.SetsockoptInt(h, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0)
}

func sysSetReuseAddr(h platformHandle) error {
	return unix.SetsockoptInt(h, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
}

func sysBind(h platformHandle, ai resolve.AddressInfo) error {
	sa, err := addressInfoToSockaddr(ai)
	if err != nil {
		return err
	}
	return unix.Bind(h, sa)
}

func sysListen(h platformHandle, backlog int) error {
	return unix.Listen(h, backlog)
}

func sysConnect(h platformHandle, ai resolve.AddressInfo) error {
	sa, err := addressInfoToSockaddr(ai)
	if err != nil {
		return err
	}
	return unix.Connect(h, sa)
}

// isConnectPending reports whether err from a non-blocking connect(2)
// means the connect is still pending rather than failed.
func isConnectPending(err error) bool {
	return errors.Is(err, unix.EINPROGRESS) || errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EALREADY)
}

func sysSocketError(h platformHandle) error {
	errno, err := unix.GetsockoptInt(h, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}

func sysAccept(h platformHandle) (platformHandle, resolve.AddressInfo, error) {
	nfd, sa, err := unix.Accept(h)
	if err != nil {
		return invalidHandle, resolve.AddressInfo{}, err
	}
	ai, err := sockaddrToAddressInfo(sa)
	if err != nil {
		unix.Close(nfd)
		return invalidHandle, resolve.AddressInfo{}, err
	}
	return nfd, ai, nil
}

func sysSend(h platformHandle, buf []byte) (int, error) {
	n, err := unix.Write(h, buf)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func sysRecv(h platformHandle, buf []byte) (int, error) {
	n, err := unix.Read(h, buf)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func sysShutdown(h platformHandle, how int) error {
	err := unix.Shutdown(h, how)
	if errors.Is(err, unix.ENOTCONN) {
		return nil // not connected is equivalent to a successful local shutdown
	}
	return err
}

func sysClose(h platformHandle) error {
	return unix.Close(h)
}

func sysGetsockname(h platformHandle) (net.IP, int, error) {
	sa, err := unix.Getsockname(h)
	if err != nil {
		return nil, 0, err
	}
	ai, err := sockaddrToAddressInfo(sa)
	if err != nil {
		return nil, 0, err
	}
	return ai.IP, ai.Port, nil
}

const (
	shutRD   = unix.SHUT_RD
	shutWR   = unix.SHUT_WR
	shutRDWR = unix.SHUT_RDWR
)

func addressInfoToSockaddr(ai resolve.AddressInfo) (unix.Sockaddr, error) {
	if ip4 := ai.IP.To4(); ip4 != nil && ai.Family != resolve.FamilyINET6 {
		sa := &unix.SockaddrInet4{Port: ai.Port}
		copy(sa.Addr[:], ip4)
		return sa, nil
	}
	ip16 := ai.IP.To16()
	if ip16 == nil {
		return nil, fmt.Errorf("sock: invalid IP address %v", ai.IP)
	}
	sa := &unix.SockaddrInet6{Port: ai.Port}
	copy(sa.Addr[:], ip16)
	return sa, nil
}

func sockaddrToAddressInfo(sa unix.Sockaddr) (resolve.AddressInfo, error) {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, net.IPv4len)
		copy(ip, v.Addr[:])
		return resolve.AddressInfo{Family: resolve.FamilyINET, IP: ip, Port: v.Port}, nil
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, v.Addr[:])
		return resolve.AddressInfo{Family: resolve.FamilyINET6, IP: ip, Port: v.Port}, nil
	default:
		return resolve.AddressInfo{}, fmt.Errorf("sock: unsupported sockaddr type %T", sa)
	}
}

// pollEventsToUnix and unixToPollEvents translate between this package's
// platform-neutral PollEvent bitmask and POSIX poll(2) event bits.

func pollEventsToUnix(e PollEvent) int16 {
	var bits int16
	if e&PollReadable != 0 {
		bits |= unix.POLLIN
	}
	if e&PollWritable != 0 {
		bits |= unix.POLLOUT
	}
	return bits
}

func unixToPollEvents(bits int16) PollEvent {
	var e PollEvent
	if bits&unix.POLLIN != 0 {
		e |= PollReadable
	}
	if bits&unix.POLLOUT != 0 {
		e |= PollWritable
	}
	return e
}

// sysPoll polls the given handles for the requested events, returning a
// parallel slice of observed [PollEvent] bitmasks. An entry has
// [pollInvalid] set if the kernel reported POLLNVAL for that handle.
func sysPoll(handles []platformHandle, want []PollEvent, timeoutMs int) ([]PollEvent, error) {
	fds := make([]unix.PollFd, len(handles))
	for i, h := range handles {
		fds[i] = unix.PollFd{Fd: int32(h), Events: pollEventsToUnix(want[i])}
	}
	_, err := unix.Poll(fds, timeoutMs)
	if err != nil && !errors.Is(err, unix.EINTR) {
		return nil, err
	}
	out := make([]PollEvent, len(fds))
	for i, pfd := range fds {
		out[i] = unixToPollEvents(pfd.Revents)
		if pfd.Revents&unix.POLLNVAL != 0 {
			out[i] |= pollInvalid
		}
	}
	return out, nil
}
