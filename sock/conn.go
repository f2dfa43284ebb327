// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/rainsocket/rain/timeout"
)

// deadlines holds the net.Conn-style read/write deadlines translated
// into [timeout.Timeout] values, purely so a [*Socket] can satisfy
// [net.Conn] and be passed to [github.com/bassosimone/safeconn]'s
// nil-safe address formatting helpers without reimplementing them.
type deadlines struct {
	mu    sync.Mutex
	read  timeout.Timeout
	write timeout.Timeout
}

var _ net.Conn = (*Socket)(nil)

func (s *Socket) ensureDeadlines() *deadlines {
	s.stateMtx.Lock()
	defer s.stateMtx.Unlock()
	if s.dl == nil {
		s.dl = &deadlines{read: timeout.Infinite(), write: timeout.Infinite()}
	}
	return s.dl
}

// Read implements [net.Conn] using the read deadline set by
// SetReadDeadline/SetDeadline (default: infinite).
func (s *Socket) Read(b []byte) (int, error) {
	dl := s.ensureDeadlines()
	dl.mu.Lock()
	t := dl.read
	dl.mu.Unlock()
	res, err := s.Recv(b, t)
	if err != nil {
		return 0, err
	}
	if res.TimedOut {
		return 0, &OpError{Op: "read", Err: ErrTimeout}
	}
	if res.N == 0 {
		return 0, io.EOF
	}
	return res.N, nil
}

// Write implements [net.Conn] using the write deadline set by
// SetWriteDeadline/SetDeadline (default: infinite).
func (s *Socket) Write(b []byte) (int, error) {
	dl := s.ensureDeadlines()
	dl.mu.Lock()
	t := dl.write
	dl.mu.Unlock()
	return s.Send(b, t)
}

// Close implements [net.Conn] as a graceful close with an infinite
// drain timeout. Use [Socket.CloseTimeout] directly for a bounded
// drain.
func (s *Socket) Close() error {
	s.CloseTimeout(timeout.Infinite())
	return nil
}

// LocalAddr implements [net.Conn].
func (s *Socket) LocalAddr() net.Addr {
	s.stateMtx.RLock()
	defer s.stateMtx.RUnlock()
	if s.localAddr.IP == nil {
		return nil
	}
	return &net.TCPAddr{IP: s.localAddr.IP, Port: s.localAddr.Port}
}

// RemoteAddr implements [net.Conn].
func (s *Socket) RemoteAddr() net.Addr {
	s.stateMtx.RLock()
	defer s.stateMtx.RUnlock()
	if s.remoteAddr.IP == nil {
		return nil
	}
	return &net.TCPAddr{IP: s.remoteAddr.IP, Port: s.remoteAddr.Port}
}

// SetDeadline implements [net.Conn].
func (s *Socket) SetDeadline(t time.Time) error {
	dl := s.ensureDeadlines()
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.read = timeout.At(t)
	dl.write = timeout.At(t)
	return nil
}

// SetReadDeadline implements [net.Conn].
func (s *Socket) SetReadDeadline(t time.Time) error {
	dl := s.ensureDeadlines()
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.read = timeout.At(t)
	return nil
}

// SetWriteDeadline implements [net.Conn].
func (s *Socket) SetWriteDeadline(t time.Time) error {
	dl := s.ensureDeadlines()
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.write = timeout.At(t)
	return nil
}
