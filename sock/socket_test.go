// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainsocket/rain"
	"github.com/rainsocket/rain/resolve"
	"github.com/rainsocket/rain/timeout"
)

var testSpec = resolve.Specification{Family: resolve.FamilyINET, SockType: resolve.SockTypeStream}

func loopbackAddr(port int) resolve.AddressInfo {
	return resolve.AddressInfo{Family: resolve.FamilyINET, IP: net.IPv4(127, 0, 0, 1), Port: port}
}

// newListener binds an ephemeral loopback listener and returns it along
// with its resolved bound address.
func newListener(t *testing.T, cfg *rain.Config, interruptable bool) (*Socket, resolve.AddressInfo) {
	t.Helper()
	s, err := New(cfg, Options{Spec: testSpec, Interruptable: interruptable})
	require.NoError(t, err)
	require.NoError(t, s.Bind([]resolve.AddressInfo{loopbackAddr(0)}))
	require.NoError(t, s.Listen(1))
	return s, s.LocalAddressInfo()
}

func TestNewAndAbortIdempotent(t *testing.T) {
	cfg := rain.NewConfig()
	s, err := New(cfg, Options{Spec: testSpec})
	require.NoError(t, err)
	assert.True(t, s.Valid())

	s.Abort()
	assert.False(t, s.Valid())
	s.Abort() // second abort is a no-op
	assert.False(t, s.Valid())
}

func TestInterruptOnUninterruptable(t *testing.T) {
	cfg := rain.NewConfig()
	s, err := New(cfg, Options{Spec: testSpec, Interruptable: false})
	require.NoError(t, err)
	defer s.Abort()

	err = s.Interrupt()
	assert.ErrorIs(t, err, ErrInterruptOnUninterruptable)
}

func TestAcceptTimeoutReturnsNilSocket(t *testing.T) {
	cfg := rain.NewConfig()
	listener, _ := newListener(t, cfg, false)
	defer listener.Abort()

	conn, peer, err := listener.Accept(timeout.FromDuration(20 * time.Millisecond))
	require.NoError(t, err)
	assert.Nil(t, conn)
	assert.Zero(t, peer)
}

func TestConnectSendRecvGracefulClose(t *testing.T) {
	cfg := rain.NewConfig()
	listener, addr := newListener(t, cfg, false)
	defer listener.Abort()

	client, err := New(cfg, Options{Spec: testSpec})
	require.NoError(t, err)
	require.NoError(t, client.ConnectOne(addr, timeout.FromDuration(2*time.Second)))

	accepted, _, err := listener.Accept(timeout.FromDuration(2 * time.Second))
	require.NoError(t, err)
	require.NotNil(t, accepted)

	_, err = client.Send([]byte("ping"), timeout.FromDuration(time.Second))
	require.NoError(t, err)

	buf := make([]byte, 16)
	res, err := accepted.Recv(buf, timeout.FromDuration(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:res.N]))

	// Graceful close on the client delivers a FIN the peer observes as
	// a zero-byte read. The drain times out because the peer has not
	// shut down its own write side yet.
	client.CloseTimeout(timeout.FromDuration(100 * time.Millisecond))
	assert.False(t, client.Valid())

	res, err = accepted.Recv(buf, timeout.FromDuration(2*time.Second))
	require.NoError(t, err)
	assert.Zero(t, res.N)
	assert.False(t, res.TimedOut)

	assert.False(t, accepted.CloseTimeout(timeout.FromDuration(time.Second)))
}

func TestCloseIdempotent(t *testing.T) {
	cfg := rain.NewConfig()
	s, err := New(cfg, Options{Spec: testSpec})
	require.NoError(t, err)

	s.CloseTimeout(timeout.FromDuration(50 * time.Millisecond))
	assert.False(t, s.Valid())
	assert.False(t, s.CloseTimeout(timeout.FromDuration(50*time.Millisecond)))
}

func TestInterruptLatchesPoll(t *testing.T) {
	cfg := rain.NewConfig()
	listener, addr := newListener(t, cfg, true)
	defer listener.Abort()

	client, err := New(cfg, Options{Spec: testSpec})
	require.NoError(t, err)
	defer client.Abort()
	require.NoError(t, client.ConnectOne(addr, timeout.FromDuration(2*time.Second)))

	accepted, _, err := listener.Accept(timeout.FromDuration(2 * time.Second))
	require.NoError(t, err)
	require.NotNil(t, accepted)
	require.True(t, accepted.Interruptable(), "accepted sockets inherit the pair")
	defer accepted.Abort()

	require.NoError(t, listener.Interrupt())

	// With the latch set, every poll-backed operation observes
	// "not ready" immediately, even though no timeout has passed and
	// no data will ever arrive.
	start := time.Now()
	res, err := accepted.Recv(make([]byte, 4), timeout.FromDuration(5*time.Second))
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Less(t, time.Since(start), time.Second)

	// The latch is one-way: a second recv behaves identically.
	res, err = accepted.Recv(make([]byte, 4), timeout.FromDuration(5*time.Second))
	require.NoError(t, err)
	assert.True(t, res.TimedOut)

	conn, peer, err := listener.Accept(timeout.FromDuration(5 * time.Second))
	require.NoError(t, err)
	assert.Nil(t, conn)
	assert.Zero(t, peer)
}

func TestConnectSerialFirstErrorSurfacesOnTotalFailure(t *testing.T) {
	cfg := rain.NewConfig()
	s, err := New(cfg, Options{Spec: testSpec})
	require.NoError(t, err)
	defer s.Abort()

	err = s.ConnectSerial(nil, timeout.FromDuration(time.Second))
	assert.ErrorIs(t, err, ErrNoAddresses)
}

func TestShutdownLatchesFlags(t *testing.T) {
	cfg := rain.NewConfig()
	listener, addr := newListener(t, cfg, false)
	defer listener.Abort()

	client, err := New(cfg, Options{Spec: testSpec})
	require.NoError(t, err)
	defer client.Abort()
	require.NoError(t, client.ConnectOne(addr, timeout.FromDuration(2*time.Second)))

	require.NoError(t, client.Shutdown(ShutdownWrite))
	assert.True(t, client.shutdownWrite.Load())
	assert.False(t, client.shutdownRead.Load())
}
