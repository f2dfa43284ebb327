// SPDX-License-Identifier: GPL-3.0-or-later

package rr

import (
	"bufio"
	"io"

	"github.com/rainsocket/rain"
)

// Handler processes one parsed request and produces the response to
// send back, plus whether the connection should close after sending it.
type Handler[Req, Res Message] func(req Req) (res Res, closeAfter bool, err error)

// RecvErrorMapper converts a recv-side error (malformed wire data) into
// a protocol error response, if one can be constructed; ok is false
// when no response can be sent (e.g. the stream itself is dead), in
// which case the loop ends without responding and the connection is
// closed through [LoopConfig.Close].
type RecvErrorMapper[Res Message] func(err error) (res Res, ok bool)

// LoopConfig bundles the dependencies [Loop] needs to drive one
// connection's recv/dispatch/send cycle.
type LoopConfig[Req, Res Message] struct {
	Logger rain.SLogger

	// NewRequest allocates a fresh, zeroed request to RecvWith into.
	NewRequest func() Req

	// Handle dispatches a successfully parsed request.
	Handle Handler[Req, Res]

	// OnRecvError maps a parse failure into a protocol error response.
	OnRecvError RecvErrorMapper[Res]

	// Close is invoked once, after the loop exits through a normal
	// path (clean EOF, protocol error response sent, or a close
	// request), to perform a graceful close of the underlying
	// connection.
	Close func()

	// Abort is invoked instead of Close when a Handle call returns an
	// error: the handler may have left the connection mid-message, so
	// the session is torn down immediately rather than drained.
	Abort func()
}

// Loop drives one connection: recv a request, dispatch
// it, send the response, repeat until the peer closes the connection,
// the protocol requires closing, or the handler requests close.
//
// Exceptions during recv (io.EOF aside, which ends the loop silently)
// are mapped via cfg.OnRecvError to a protocol error response, which is
// sent before closing; exceptions during Handle are logged and the
// session is aborted via cfg.Abort without attempting to send a
// response, since the handler may have left the connection in an
// inconsistent state.
func Loop[Req, Res Message](rw io.ReadWriter, cfg LoopConfig[Req, Res]) {
	aborted := false
	defer func() {
		if aborted {
			if cfg.Abort != nil {
				cfg.Abort()
			}
			return
		}
		if cfg.Close != nil {
			cfg.Close()
		}
	}()

	// A single long-lived *bufio.Reader spans every iteration so bytes
	// read ahead of one message's boundary (e.g. the start of the next
	// pipelined request) survive into the next RecvWith call instead of
	// being discarded with a throwaway reader.
	br := bufio.NewReader(rw)

	for {
		req := cfg.NewRequest()
		if err := req.RecvWith(br); err != nil {
			if err == io.EOF {
				return
			}
			res, ok := cfg.OnRecvError(err)
			if !ok {
				return
			}
			_ = res.SendWith(rw)
			return
		}

		res, closeAfter, err := cfg.Handle(req)
		if err != nil {
			cfg.Logger.Info("rrDispatchError", "err", err.Error())
			aborted = true
			return
		}
		if err := res.SendWith(rw); err != nil {
			cfg.Logger.Info("rrSendError", "err", err.Error())
			return
		}
		if closeAfter {
			return
		}
	}
}
