// SPDX-License-Identifier: GPL-3.0-or-later

package smtp

import (
	"bufio"
	"context"
	"fmt"

	"github.com/rainsocket/rain"
	"github.com/rainsocket/rain/resolve"
	"github.com/rainsocket/rain/runtime"
	"github.com/rainsocket/rain/stream"
	"github.com/rainsocket/rain/timeout"
)

// Client performs outbound SMTP transactions over a [*runtime.Client]: Dial resolves the
// destination's mail exchangers (preferring [resolve.LookupMX] over
// connecting directly to the domain) and connects to the first that
// accepts, then Mail/Rcpt/Data/Quit drive one transaction.
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

// Dial resolves domain's MX records via resolverAddr (e.g. "8.8.8.8:53")
// and connects, in preference order, to the "smtp" service on each
// exchanger, falling back to connecting to domain directly if no MX
// records are found. It then reads and discards the server's 220
// greeting.
func (c *Client) Dial(ctx context.Context, domain string, resolverAddr string, t timeout.Timeout) error {
	lc := resolve.LogContext{ErrClassifier: c.cfg.ErrClassifier, Logger: c.cfg.Logger, TimeNow: c.cfg.TimeNow}
	records, err := resolve.LookupMX(ctx, resolve.Host{Node: domain}, resolverAddr, lc)
	if err != nil || len(records) == 0 {
		if connErr := c.connectHost(resolve.Host{Node: domain, Service: "smtp"}, t); connErr != nil {
			return connErr
		}
		return c.recvGreeting()
	}

	var lastErr error
	for _, rec := range records {
		host := resolve.Host{Node: rec.Exchanger, Service: "smtp"}
		if err := c.connectHost(host, t); err != nil {
			lastErr = err
			continue
		}
		return c.recvGreeting()
	}
	return fmt.Errorf("smtp: could not connect to any MX for %q: %w", domain, lastErr)
}

func (c *Client) connectHost(host resolve.Host, t timeout.Timeout) error {
	rc, err := runtime.NewClient(c.cfg, resolve.Specification{SockType: resolve.SockTypeStream})
	if err != nil {
		return err
	}
	if err := rc.Connect(host, false, t, 0); err != nil {
		return err
	}
	c.rc = rc
	recvIdle := timeout.FromDuration(c.cfg.MaxRecvIdleDuration)
	sendOnce := timeout.FromDuration(c.cfg.SendOnceTimeoutDuration)
	c.st = stream.New(c.cfg, rc.Socket(), recvIdle, sendOnce)
	c.br = bufio.NewReader(c.st)
	return nil
}

func (c *Client) recvGreeting() error {
	res := &Response{}
	return res.RecvWith(c.br)
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

// Mail issues "MAIL FROM:<from>".
func (c *Client) Mail(from Mailbox) (*Response, error) {
	return c.Do(&Request{Command: CommandMAIL, Parameter: "FROM:<" + from.String() + ">"})
}

// Rcpt issues "RCPT TO:<to>".
func (c *Client) Rcpt(to Mailbox) (*Response, error) {
	return c.Do(&Request{Command: CommandRCPT, Parameter: "TO:<" + to.String() + ">"})
}

// Data issues "DATA", expects a 354 intermediate response, writes body
// followed by the "\r\n.\r\n" terminator, and returns the final status.
func (c *Client) Data(body []byte) (*Response, error) {
	intermediate, err := c.Do(&Request{Command: CommandDATA})
	if err != nil {
		return nil, err
	}
	if intermediate.StatusCode != StatusStartMailInput {
		return intermediate, nil
	}
	if _, err := c.st.Write(body); err != nil {
		return nil, err
	}
	if _, err := c.st.Write([]byte(dataTerminator)); err != nil {
		return nil, err
	}
	if err := c.st.Flush(); err != nil {
		return nil, err
	}
	res := &Response{}
	if err := res.RecvWith(c.br); err != nil {
		return nil, err
	}
	return res, nil
}

// Quit issues "QUIT" and closes the connection.
func (c *Client) Quit(t timeout.Timeout) (*Response, error) {
	res, err := c.Do(&Request{Command: CommandQUIT})
	c.rc.Close(t)
	return res, err
}

// Close performs a graceful close bounded by t.
func (c *Client) Close(t timeout.Timeout) bool {
	return c.rc.Close(t)
}
