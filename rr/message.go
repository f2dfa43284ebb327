// SPDX-License-Identifier: GPL-3.0-or-later

// Package rr provides the abstract Request/Response framework: a
// [Message] that knows how to serialize and parse
// itself on a duplex stream, and a generic recv-dispatch-send
// [Loop] built on top of it. The HTTP and SMTP packages each
// supply concrete Request/Response types implementing [Message].
package rr

import (
	"bufio"
	"io"
)

// Message is anything that can serialize itself onto a writer or parse
// itself from a reader, succeeding fully or returning a typed error.
// HTTP and SMTP Requests/Responses both implement this.
type Message interface {
	// SendWith serializes the Message onto w, flushing if w also
	// implements an interface with a Flush method (HTTP/SMTP callers
	// pass a [github.com/rainsocket/rain/stream.Stream], which does).
	SendWith(w io.Writer) error
	// RecvWith parses the Message from r. r is the connection's single
	// long-lived [*bufio.Reader]: implementations must not wrap it in a
	// fresh bufio.Reader of their own, or bytes buffered ahead of the
	// current message (e.g. the start of the next pipelined request)
	// would be silently discarded between calls.
	RecvWith(r *bufio.Reader) error
}

// flusher is implemented by [github.com/rainsocket/rain/stream.Stream];
// SendWith implementations call this after writing a Message so bytes
// actually leave the process.
type flusher interface {
	Flush() error
}

// Flush calls w.Flush() if w implements [flusher], otherwise it is a
// no-op. Message.SendWith implementations should call this as their
// final step.
func Flush(w io.Writer) error {
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
