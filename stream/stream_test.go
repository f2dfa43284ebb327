// SPDX-License-Identifier: GPL-3.0-or-later

package stream

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainsocket/rain"
	"github.com/rainsocket/rain/sock"
	"github.com/rainsocket/rain/timeout"
)

// fakeConn is a minimal in-memory [Conn] for unit testing the Stream
// adapter without a real kernel socket.
type fakeConn struct {
	recvChunks [][]byte
	recvIdx    int
	recvErr    error
	recvTimed  bool

	sent [][]byte

	sendOnceN   []int // if set, overrides the per-call byte count sent
	sendOnceIdx int
}

func (f *fakeConn) Recv(buf []byte, t timeout.Timeout) (sock.RecvResult, error) {
	if f.recvErr != nil {
		return sock.RecvResult{}, f.recvErr
	}
	if f.recvTimed {
		return sock.RecvResult{TimedOut: true}, nil
	}
	if f.recvIdx >= len(f.recvChunks) {
		return sock.RecvResult{N: 0}, nil // simulated FIN
	}
	chunk := f.recvChunks[f.recvIdx]
	n := copy(buf, chunk)
	if n < len(chunk) {
		f.recvChunks[f.recvIdx] = chunk[n:] // rest stays for the next Recv
	} else {
		f.recvIdx++
	}
	return sock.RecvResult{N: n}, nil
}

func (f *fakeConn) SendOnce(buf []byte, t timeout.Timeout) (int, error) {
	n := len(buf)
	if f.sendOnceIdx < len(f.sendOnceN) {
		n = f.sendOnceN[f.sendOnceIdx]
		f.sendOnceIdx++
	}
	f.sent = append(f.sent, append([]byte(nil), buf[:n]...))
	return n, nil
}

func testConfig() *rain.Config {
	cfg := rain.NewConfig()
	cfg.RecvBufferLen = 4
	cfg.SendBufferLen = 4
	return cfg
}

func TestStreamReadSpansChunks(t *testing.T) {
	conn := &fakeConn{recvChunks: [][]byte{[]byte("hello"), []byte(" world")}}
	s := New(testConfig(), conn, timeout.Infinite(), timeout.Infinite())

	buf := make([]byte, 64)
	var got []byte
	for len(got) < len("hello world") {
		n, err := s.Read(buf)
		got = append(got, buf[:n]...)
		require.NoError(t, err)
	}
	assert.Equal(t, "hello world", string(got))
}

func TestStreamReadEOF(t *testing.T) {
	conn := &fakeConn{}
	s := New(testConfig(), conn, timeout.Infinite(), timeout.Infinite())
	buf := make([]byte, 4)
	n, err := s.Read(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamReadTimeout(t *testing.T) {
	conn := &fakeConn{recvTimed: true}
	s := New(testConfig(), conn, timeout.Infinite(), timeout.Infinite())
	buf := make([]byte, 4)
	_, err := s.Read(buf)
	assert.ErrorIs(t, err, ErrRecvTimeout)
}

func TestStreamWriteFlushesOnFullBuffer(t *testing.T) {
	conn := &fakeConn{}
	s := New(testConfig(), conn, timeout.Infinite(), timeout.Infinite()) // 4-byte send buffer
	n, err := s.Write([]byte("abcdefgh"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	// one full 4-byte buffer flushed automatically; the second half sits
	// buffered until an explicit Flush.
	require.Len(t, conn.sent, 1)
	assert.Equal(t, "abcd", string(conn.sent[0]))

	require.NoError(t, s.Flush())
	require.Len(t, conn.sent, 2)
	assert.Equal(t, "efgh", string(conn.sent[1]))
}

func TestStreamFlushLoopsOnShortSend(t *testing.T) {
	conn := &fakeConn{sendOnceN: []int{2, 2}}
	s := New(testConfig(), conn, timeout.Infinite(), timeout.Infinite())
	_, err := s.Write([]byte("abcd"))
	require.NoError(t, err)
	require.NoError(t, s.Flush())
	require.Len(t, conn.sent, 2)
	assert.Equal(t, "ab", string(conn.sent[0]))
	assert.Equal(t, "cd", string(conn.sent[1]))
}

func TestStreamFlushTimeout(t *testing.T) {
	conn := &fakeConn{sendOnceN: []int{0}}
	s := New(testConfig(), conn, timeout.Infinite(), timeout.Infinite())
	_, err := s.Write([]byte("ab"))
	require.NoError(t, err)
	err = s.Flush()
	assert.ErrorIs(t, err, ErrSendTimeout)
}

func TestStreamReadByte(t *testing.T) {
	conn := &fakeConn{recvChunks: [][]byte{[]byte("X")}}
	s := New(testConfig(), conn, timeout.Infinite(), timeout.Infinite())
	b, err := s.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('X'), b)
}
