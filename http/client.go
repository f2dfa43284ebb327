// SPDX-License-Identifier: GPL-3.0-or-later

package http

import (
	"bufio"

	"github.com/rainsocket/rain"
	"github.com/rainsocket/rain/resolve"
	"github.com/rainsocket/rain/runtime"
	"github.com/rainsocket/rain/stream"
	"github.com/rainsocket/rain/timeout"
)

// Client performs HTTP request/response round trips over a
// [*runtime.Client], building a [*stream.Stream] on top of its
// [*sock.Socket] once connected. br is a single long-lived
// [*bufio.Reader] over st, matching [rr.Message.RecvWith]'s contract.
type Client struct {
	cfg *rain.Config
	rc  *runtime.Client
	st  *stream.Stream
	br  *bufio.Reader
}

// NewClient constructs an unconnected [*Client].
func NewClient(cfg *rain.Config) (*Client, error) {
	rc, err := runtime.NewClient(cfg, resolve.Specification{SockType: resolve.SockTypeStream})
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, rc: rc}, nil
}

// Connect resolves and connects to host, then wires a [*stream.Stream]
// over the resulting socket using cfg's recv-idle/send-progress
// timeouts.
func (c *Client) Connect(host resolve.Host, t timeout.Timeout, flags resolve.Flag) error {
	if err := c.rc.Connect(host, false, t, flags); err != nil {
		return err
	}
	recvIdle := timeout.FromDuration(c.cfg.MaxRecvIdleDuration)
	sendOnce := timeout.FromDuration(c.cfg.SendOnceTimeoutDuration)
	c.st = stream.New(c.cfg, c.rc.Socket(), recvIdle, sendOnce)
	c.br = bufio.NewReader(c.st)
	return nil
}

// Do sends req and returns the parsed response.
func (c *Client) Do(req *Request) (*Response, error) {
	if err := req.SendWith(c.st); err != nil {
		return nil, err
	}
	res := &Response{}
	if err := res.RecvWith(c.br); err != nil {
		return nil, err
	}
	return res, nil
}

// Close performs a graceful close bounded by t.
func (c *Client) Close(t timeout.Timeout) bool {
	return c.rc.Close(t)
}
