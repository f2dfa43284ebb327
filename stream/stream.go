// SPDX-License-Identifier: GPL-3.0-or-later

// Package stream provides a duplex byte-stream adapter over a
// [Conn]-shaped handle (satisfied by [github.com/rainsocket/rain/sock.Socket]
// and, in tests, by a small in-memory fake),
// with independent send and recv timeout semantics and fixed-size
// user-space buffers.
package stream

import (
	"io"
	"sync"

	"github.com/rainsocket/rain"
	"github.com/rainsocket/rain/sock"
	"github.com/rainsocket/rain/timeout"
)

// Conn is the minimal duplex I/O surface a Stream needs. [*sock.Socket]
// satisfies this directly via its SendOnce/Recv methods, which take an
// explicit [timeout.Timeout] per call rather than net.Conn's deadline
// model.
type Conn interface {
	SendOnce(buf []byte, t timeout.Timeout) (int, error)
	Recv(buf []byte, t timeout.Timeout) (sock.RecvResult, error)
}

// Stream is a duplex byte stream over a [Conn] with independent
// recv-idle and send-per-progress timeouts and fixed-size user-space
// buffers (default 1KiB each).
//
// A Stream is not safe for concurrent reads, nor for concurrent writes,
// but one reader and one writer goroutine may operate concurrently (the
// send and recv paths touch disjoint state).
type Stream struct {
	cfg  *rain.Config
	conn Conn

	recvIdleTimeout timeout.Timeout
	sendTimeout     timeout.Timeout

	recvMu  sync.Mutex
	recvBuf []byte
	recvPos int
	recvLen int
	recvErr error

	sendMu  sync.Mutex
	sendBuf []byte // fixed-capacity backing array; sendBuf[:sendLen] holds pending bytes
	sendLen int
	sendErr error
}

// New constructs a [*Stream] over conn with the buffer sizes and
// timeouts configured on cfg (RecvBufferLen/SendBufferLen default
// 1024). recvIdleTimeout and sendTimeout are the initial per-message
// idle and per-progress timeouts; [Stream.ResetRecvIdle] re-arms the
// former after each complete Message.
func New(cfg *rain.Config, conn Conn, recvIdleTimeout, sendTimeout timeout.Timeout) *Stream {
	recvLen := cfg.RecvBufferLen
	if recvLen <= 0 {
		recvLen = 1024
	}
	sendLen := cfg.SendBufferLen
	if sendLen <= 0 {
		sendLen = 1024
	}
	return &Stream{
		cfg:             cfg,
		conn:            conn,
		recvIdleTimeout: recvIdleTimeout,
		sendTimeout:     sendTimeout,
		recvBuf:         make([]byte, recvLen),
		sendBuf:         make([]byte, sendLen),
	}
}

// ResetRecvIdle re-arms the recv-idle timeout.
func (s *Stream) ResetRecvIdle(t timeout.Timeout) {
	s.recvMu.Lock()
	defer s.recvMu.Unlock()
	s.recvIdleTimeout = t
}

// SetSendTimeout updates the per-progress send timeout.
func (s *Stream) SetSendTimeout(t timeout.Timeout) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	s.sendTimeout = t
}

// Read implements [io.Reader]. When the get area is empty it invokes
// conn.Recv once with the configured recv-idle timeout; a timeout or
// peer FIN is surfaced as [ErrRecvTimeout] or [io.EOF] and latched for
// subsequent calls.
func (s *Stream) Read(p []byte) (int, error) {
	s.recvMu.Lock()
	defer s.recvMu.Unlock()

	if s.recvPos < s.recvLen {
		n := copy(p, s.recvBuf[s.recvPos:s.recvLen])
		s.recvPos += n
		return n, nil
	}
	if s.recvErr != nil {
		return 0, s.recvErr
	}
	if len(p) == 0 {
		return 0, nil
	}

	res, err := s.conn.Recv(s.recvBuf, s.recvIdleTimeout)
	if err != nil {
		s.recvErr = err
		return 0, err
	}
	if res.TimedOut {
		s.recvErr = ErrRecvTimeout
		return 0, ErrRecvTimeout
	}
	if res.N == 0 {
		s.recvErr = io.EOF
		return 0, io.EOF
	}
	s.recvPos = 0
	s.recvLen = res.N
	n := copy(p, s.recvBuf[:s.recvLen])
	s.recvPos += n
	return n, nil
}

// ReadByte implements [io.ByteReader], used by line-oriented protocol
// parsers (HTTP start lines/headers, SMTP command/response lines).
func (s *Stream) ReadByte() (byte, error) {
	var b [1]byte
	for {
		n, err := s.Read(b[:])
		if n == 1 {
			return b[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// Write implements [io.Writer]: bytes accumulate in the fixed send
// buffer until full, at which point they are flushed.
func (s *Stream) Write(p []byte) (int, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.sendErr != nil {
		return 0, s.sendErr
	}

	written := 0
	for len(p) > 0 {
		room := len(s.sendBuf) - s.sendLen
		if room == 0 {
			if err := s.flushLocked(); err != nil {
				return written, err
			}
			room = len(s.sendBuf)
		}
		n := room
		if n > len(p) {
			n = len(p)
		}
		copy(s.sendBuf[s.sendLen:], p[:n])
		s.sendLen += n
		p = p[n:]
		written += n
	}
	return written, nil
}

// Flush sends any bytes accumulated in the send buffer, looping
// conn.SendOnce with the per-progress send timeout until the buffer is
// empty or a single SendOnce call times out (returns 0, nil), in which
// case the Stream is marked failed with [ErrSendTimeout].
func (s *Stream) Flush() error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.flushLocked()
}

func (s *Stream) flushLocked() error {
	if s.sendErr != nil {
		return s.sendErr
	}
	sent := 0
	for sent < s.sendLen {
		n, err := s.conn.SendOnce(s.sendBuf[sent:s.sendLen], s.sendTimeout)
		if err != nil {
			s.sendErr = err
			return err
		}
		if n == 0 {
			s.sendErr = ErrSendTimeout
			return ErrSendTimeout
		}
		sent += n
	}
	s.sendLen = 0
	return nil
}
