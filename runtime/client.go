// SPDX-License-Identifier: GPL-3.0-or-later

package runtime

import (
	"github.com/rainsocket/rain"
	"github.com/rainsocket/rain/resolve"
	"github.com/rainsocket/rain/sock"
	"github.com/rainsocket/rain/timeout"
)

// noCopy causes `go vet`'s copylocks check to flag an accidental
// struct copy of Client.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Client is a [*sock.Socket] with the listen/accept surface hidden by
// convention: nothing here exposes Bind/Listen/Accept, even though the
// underlying Socket supports them. Every operation takes an explicit
// [timeout.Timeout], so a Client used from a single thread never blocks
// indefinitely.
type Client struct {
	_    noCopy
	cfg  *rain.Config
	conn *sock.Socket
}

// NewClient constructs a Client around a fresh, not-yet-connected
// Socket built from spec.
func NewClient(cfg *rain.Config, spec resolve.Specification) (*Client, error) {
	conn, err := sock.New(cfg, sock.Options{Spec: spec, Interruptable: cfg.Interruptable})
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, conn: conn}, nil
}

// Connect resolves host and connects, serially or in parallel across
// the resolved addresses. Zero flags fall back to cfg.GAIFlags.
func (c *Client) Connect(host resolve.Host, parallel bool, t timeout.Timeout, flags resolve.Flag) error {
	if flags == 0 {
		flags = resolve.Flag(c.cfg.GAIFlags)
	}
	return c.conn.ConnectHost(c.cfg, host, t, parallel, flags)
}

// ConnectAddrs connects directly to a resolved address list, skipping
// name resolution.
func (c *Client) ConnectAddrs(addrs []resolve.AddressInfo, parallel bool, t timeout.Timeout) error {
	if parallel {
		return c.conn.ConnectParallel(c.cfg, addrs, t)
	}
	return c.conn.ConnectSerial(addrs, t)
}

// Socket exposes the underlying Socket for the stream/http/smtp layers
// to build a [github.com/rainsocket/rain/stream.Stream] on top of.
func (c *Client) Socket() *sock.Socket {
	return c.conn
}

// Close performs a graceful close bounded by t.
func (c *Client) Close(t timeout.Timeout) bool {
	return c.conn.CloseTimeout(t)
}

// Abort immediately discards the connection.
func (c *Client) Abort() {
	c.conn.Abort()
}
