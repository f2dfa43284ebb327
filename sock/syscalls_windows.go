// SPDX-License-Identifier: GPL-3.0-or-later

//go:build windows

package sock

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/rainsocket/rain/resolve"
)

// platformHandle is a Winsock SOCKET handle.
type platformHandle = windows.Handle

const invalidHandle platformHandle = windows.InvalidHandle

// ws2_32 entry points x/sys/windows does not export (its Accept is a
// stub, and plain send/recv/ioctlsocket/WSAPoll are absent entirely).
var (
	modws2_32       = windows.NewLazySystemDLL("ws2_32.dll")
	procaccept      = modws2_32.NewProc("accept")
	procioctlsocket = modws2_32.NewProc("ioctlsocket")
	procrecv        = modws2_32.NewProc("recv")
	procsend        = modws2_32.NewProc("send")
	procWSAPoll     = modws2_32.NewProc("WSAPoll")
)

// WSAPoll event bits, per winsock2.h.
const (
	wsaPollRdNorm = 0x0100
	wsaPollRdBand = 0x0200
	wsaPollWrNorm = 0x0010
	wsaPollNval   = 0x0004

	wsaPollIn  = wsaPollRdNorm | wsaPollRdBand
	wsaPollOut = wsaPollWrNorm

	fionbio = 0x8004667e
)

var wsaInitOnce sync.Once
var wsaInitErr error

// ensureWSAStartup performs the process-wide one-time Winsock
// initialization. On POSIX the equivalent hook is a no-op.
func ensureWSAStartup() error {
	wsaInitOnce.Do(func() {
		var data windows.WSAData
		wsaInitErr = windows.WSAStartup(uint32(0x0202), &data)
	})
	return wsaInitErr
}

func sysSocket(spec resolve.Specification) (platformHandle, error) {
	if err := ensureWSAStartup(); err != nil {
		return invalidHandle, err
	}
	domain := windows.AF_INET
	if spec.Family == resolve.FamilyINET6 {
		domain = windows.AF_INET6
	}
	typ := windows.SOCK_STREAM
	if spec.SockType != resolve.SockTypeDefault {
		typ = int(spec.SockType)
	}
	h, err := windows.WSASocket(int32(domain), int32(typ), int32(spec.Protocol), nil, 0, windows.WSA_FLAG_OVERLAPPED)
	if err != nil {
		return invalidHandle, err
	}
	return h, nil
}

func sysSetNonblocking(h platformHandle) error {
	mode := uint32(1)
	r, _, e := procioctlsocket.Call(uintptr(h), uintptr(fionbio), uintptr(unsafe.Pointer(&mode)))
	if int32(r) != 0 {
		return e
	}
	return nil
}

func sysSetLingerAbortive(h platformHandle) error {
	l := windows.Linger{Onoff: 1, Linger: 0}
	return windows.SetsockoptLinger(h, windows.SOL_SOCKET, windows.SO_LINGER, &l)
}

func sysSetDualStack(h platformHandle) error {
	return windows.SetsockoptInt(h, windows.IPPROTO_IPV6, windows.IPV6_V6ONLY, 0)
}

func sysSetReuseAddr(h platformHandle) error {
	return windows.SetsockoptInt(h, windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
}

func sysBind(h platformHandle, ai resolve.AddressInfo) error {
	sa, err := addressInfoToSockaddr(ai)
	if err != nil {
		return err
	}
	return windows.Bind(h, sa)
}

func sysListen(h platformHandle, backlog int) error {
	return windows.Listen(h, backlog)
}

func sysConnect(h platformHandle, ai resolve.AddressInfo) error {
	sa, err := addressInfoToSockaddr(ai)
	if err != nil {
		return err
	}
	return windows.Connect(h, sa)
}

func isConnectPending(err error) bool {
	return errors.Is(err, windows.WSAEINPROGRESS) || errors.Is(err, windows.WSAEWOULDBLOCK) || errors.Is(err, windows.WSAEALREADY)
}

func sysSocketError(h platformHandle) error {
	errno, err := windows.GetsockoptInt(h, windows.SOL_SOCKET, windows.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return windows.Errno(errno)
	}
	return nil
}

func sysAccept(h platformHandle) (platformHandle, resolve.AddressInfo, error) {
	var rsa windows.RawSockaddrAny
	rsaLen := int32(unsafe.Sizeof(rsa))
	r, _, e := procaccept.Call(uintptr(h), uintptr(unsafe.Pointer(&rsa)), uintptr(unsafe.Pointer(&rsaLen)))
	nfd := platformHandle(r)
	if nfd == invalidHandle {
		return invalidHandle, resolve.AddressInfo{}, e
	}
	sa, err := rsa.Sockaddr()
	if err != nil {
		windows.Closesocket(nfd)
		return invalidHandle, resolve.AddressInfo{}, err
	}
	ai, err := sockaddrToAddressInfo(sa)
	if err != nil {
		windows.Closesocket(nfd)
		return invalidHandle, resolve.AddressInfo{}, err
	}
	return nfd, ai, nil
}

func sysSend(h platformHandle, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	r, _, e := procsend.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)), 0)
	n := int(int32(r))
	if n < 0 {
		return 0, e
	}
	return n, nil
}

func sysRecv(h platformHandle, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	r, _, e := procrecv.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)), 0)
	n := int(int32(r))
	if n < 0 {
		return 0, e
	}
	return n, nil
}

func sysShutdown(h platformHandle, how int) error {
	err := windows.Shutdown(h, how)
	if errors.Is(err, windows.WSAENOTCONN) {
		return nil // not connected is equivalent to a successful local shutdown
	}
	return err
}

func sysClose(h platformHandle) error {
	return windows.Closesocket(h)
}

func sysGetsockname(h platformHandle) (net.IP, int, error) {
	sa, err := windows.Getsockname(h)
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
	shutRD   = windows.SHUT_RD
	shutWR   = windows.SHUT_WR
	shutRDWR = windows.SHUT_RDWR
)

func addressInfoToSockaddr(ai resolve.AddressInfo) (windows.Sockaddr, error) {
	if ip4 := ai.IP.To4(); ip4 != nil && ai.Family != resolve.FamilyINET6 {
		sa := &windows.SockaddrInet4{Port: ai.Port}
		copy(sa.Addr[:], ip4)
		return sa, nil
	}
	ip16 := ai.IP.To16()
	if ip16 == nil {
		return nil, fmt.Errorf("sock: invalid IP address %v", ai.IP)
	}
	sa := &windows.SockaddrInet6{Port: ai.Port}
	copy(sa.Addr[:], ip16)
	return sa, nil
}

func sockaddrToAddressInfo(sa windows.Sockaddr) (resolve.AddressInfo, error) {
	switch v := sa.(type) {
	case *windows.SockaddrInet4:
		ip := make(net.IP, net.IPv4len)
		copy(ip, v.Addr[:])
		return resolve.AddressInfo{Family: resolve.FamilyINET, IP: ip, Port: v.Port}, nil
	case *windows.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, v.Addr[:])
		return resolve.AddressInfo{Family: resolve.FamilyINET6, IP: ip, Port: v.Port}, nil
	default:
		return resolve.AddressInfo{}, fmt.Errorf("sock: unsupported sockaddr type %T", sa)
	}
}

// wsaPollFd mirrors the WSAPOLLFD layout expected by WSAPoll.
type wsaPollFd struct {
	fd      platformHandle
	events  int16
	revents int16
}

func pollEventsToWindows(e PollEvent) int16 {
	var bits int16
	if e&PollReadable != 0 {
		bits |= wsaPollIn
	}
	if e&PollWritable != 0 {
		bits |= wsaPollOut
	}
	return bits
}

func windowsToPollEvents(bits int16) PollEvent {
	var e PollEvent
	if bits&wsaPollIn != 0 {
		e |= PollReadable
	}
	if bits&wsaPollOut != 0 {
		e |= PollWritable
	}
	return e
}

// sysPoll polls the given handles via WSAPoll, mirroring the unix
// implementation's contract.
func sysPoll(handles []platformHandle, want []PollEvent, timeoutMs int) ([]PollEvent, error) {
	fds := make([]wsaPollFd, len(handles))
	for i, h := range handles {
		fds[i] = wsaPollFd{fd: h, events: pollEventsToWindows(want[i])}
	}
	r, _, e := procWSAPoll.Call(uintptr(unsafe.Pointer(&fds[0])), uintptr(len(fds)), uintptr(timeoutMs))
	if int32(r) < 0 {
		return nil, e
	}
	out := make([]PollEvent, len(fds))
	for i, pfd := range fds {
		out[i] = windowsToPollEvents(pfd.revents)
		if pfd.revents&wsaPollNval != 0 {
			out[i] |= pollInvalid
		}
	}
	return out, nil
}
