// SPDX-License-Identifier: GPL-3.0-or-later

package http

import (
	"errors"
	"io"
	"strings"

	"github.com/rainsocket/rain"
	"github.com/rainsocket/rain/chain"
	"github.com/rainsocket/rain/resolve"
	"github.com/rainsocket/rain/rr"
	"github.com/rainsocket/rain/sock"
	"github.com/rainsocket/rain/stream"
	"github.com/rainsocket/rain/timeout"
)

// PreResponse is a Handler's verdict for one [*Request]: either "no
// response, abort" ([PreResponse.Abort] true) or a [*Response] to
// send, optionally closing the connection afterward.
type PreResponse struct {
	Abort      bool
	Response   *Response
	CloseAfter bool
}

// Handler is the embedder-supplied match stage: given a parsed
// [*Request], it returns the [PreResponse] to act on.
type Handler = chain.Func[*Request, PreResponse]

// errAbort is the [rr.Loop] Handle error used to end the loop after a
// handler returns an aborting [PreResponse]; the loop tears the
// session down via its Abort callback.
var errAbort = errors.New("http: handler requested abort")

// exchange threads the parsed request alongside the in-progress
// [PreResponse] through the Worker's postprocessor stages, which need
// both (the close policy depends on the request's version and
// headers).
type exchange struct {
	req *Request
	pre PreResponse
}

// newPipeline composes the Worker's handler chain: the embedder match
// stage, then the response-defaulting postprocessor, then the
// close-after policy.
func newPipeline(handler Handler) chain.Func[*Request, exchange] {
	match := chain.FuncAdapter[*Request, exchange](func(req *Request) (exchange, error) {
		pre, err := handler.Call(req)
		if err != nil {
			return exchange{}, err
		}
		return exchange{req: req, pre: pre}, nil
	})
	return chain.Compose3(
		match,
		chain.FuncAdapter[exchange, exchange](defaultResponseStage),
		chain.FuncAdapter[exchange, exchange](closePolicyStage),
	)
}

// Worker drives one HTTP connection's recv-dispatch-send loop: the
// match [Handler] produces a [PreResponse], postprocessors default
// Content-Length and Content-Type, and the connection closes after
// responding on 0.9/1.0 or when requested on 1.1.
type Worker struct {
	cfg      *rain.Config
	pipeline chain.Func[*Request, exchange]
}

// NewWorker constructs a [*Worker] around handler. Use as (or adapt
// into) a [github.com/rainsocket/rain/runtime.WorkerFactory].
func NewWorker(cfg *rain.Config, handler Handler) *Worker {
	return &Worker{cfg: cfg, pipeline: newPipeline(handler)}
}

// OnWork implements [github.com/rainsocket/rain/runtime.Worker].
func (w *Worker) OnWork(conn *sock.Socket, peer resolve.AddressInfo) error {
	spanID := rain.NewSpanID()
	logger := w.cfg.Logger
	logger.Info("httpWorkerStart", "spanID", spanID, "peer", resolve.GetNumericHost(peer).String())

	recvIdle := timeout.FromDuration(w.cfg.MaxRecvIdleDuration)
	sendOnce := timeout.FromDuration(w.cfg.SendOnceTimeoutDuration)
	st := stream.Observe(w.cfg, stream.New(w.cfg, conn, recvIdle, sendOnce))

	rr.Loop[*Request, *Response](st, rr.LoopConfig[*Request, *Response]{
		Logger:     logger,
		NewRequest: func() *Request { return &Request{} },
		Handle: func(req *Request) (*Response, bool, error) {
			ex, err := w.pipeline.Call(req)
			if err != nil {
				return nil, false, err
			}
			if ex.pre.Abort {
				return nil, false, errAbort
			}
			// Drain whatever the handler left of the request body so the
			// next pipelined request starts at a message boundary.
			if req.Body != nil {
				_, _ = io.Copy(io.Discard, req.Body)
			}
			st.ResetRecvIdle(recvIdle)
			return ex.pre.Response, ex.pre.CloseAfter, nil
		},
		OnRecvError: func(err error) (*Response, bool) {
			res := NewResponse(statusForRecvError(err))
			preprocessResponse(res)
			return res, true
		},
		Close: func() {
			conn.CloseTimeout(timeout.FromDuration(w.cfg.AcceptIdleTimeout))
			logger.Info("httpWorkerDone", "spanID", spanID)
		},
		Abort: func() {
			conn.Abort()
			logger.Info("httpWorkerDone", "spanID", spanID, "aborted", true)
		},
	})
	return nil
}

// defaultResponseStage substitutes a 500 when the match stage produced
// no response and applies [preprocessResponse] to the one being sent.
func defaultResponseStage(ex exchange) (exchange, error) {
	if ex.pre.Abort {
		return ex, nil
	}
	if ex.pre.Response == nil {
		ex.pre.Response = NewResponse(StatusInternalServerError)
	}
	preprocessResponse(ex.pre.Response)
	return ex, nil
}

// closePolicyStage latches CloseAfter when the protocol requires
// closing, per [requestWantsClose].
func closePolicyStage(ex exchange) (exchange, error) {
	if ex.pre.Abort {
		return ex, nil
	}
	if requestWantsClose(ex.req, ex.pre.Response) {
		ex.pre.CloseAfter = true
	}
	return ex, nil
}

// requestWantsClose reports whether the connection must close after
// responding: always on 0.9 and 1.0, and on 1.1 only when a Connection
// header on either side asks for it.
func requestWantsClose(req *Request, res *Response) bool {
	if req.Version == Version0_9 || req.Version == Version1_0 {
		return true
	}
	if req.Headers != nil {
		if v, ok := req.Headers.Get("Connection"); ok && strings.EqualFold(strings.TrimSpace(v), "close") {
			return true
		}
	}
	if res.Headers != nil {
		if v, ok := res.Headers.Get("Connection"); ok && strings.EqualFold(strings.TrimSpace(v), "close") {
			return true
		}
	}
	return false
}

// preprocessResponse defaults Content-Length from the body's known
// length and Content-Type to [DefaultContentType] when the body is
// non-empty and Content-Type was not already set.
func preprocessResponse(res *Response) {
	if res.Headers == nil {
		res.Headers = NewHeaders()
	}
	if _, ok := res.Headers.Get("Content-Length"); !ok {
		if n, known := res.Body.Len(); known {
			res.Headers.SetContentLength(int64(n))
		}
	}
	if _, ok := res.Headers.ContentType(); !ok {
		if n, known := res.Body.Len(); !known || n > 0 {
			res.Headers.Set("Content-Type", DefaultContentType)
		}
	}
}
