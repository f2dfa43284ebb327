// SPDX-License-Identifier: GPL-3.0-or-later

package http

import (
	"bufio"
	"io"

	"github.com/rainsocket/rain/rr"
)

// rrFlush flushes w if it implements a Flush method (true of
// [github.com/rainsocket/rain/stream.Stream]), so a buffered
// Request/Response is actually pushed onto the wire after SendWith
// returns.
func rrFlush(w io.Writer) error {
	return rr.Flush(w)
}

// writeBody emits headers followed by body, wrapping body in a
// [chunkedWriter] if Transfer-Encoding names "chunked". Preprocessing Content-Length/Transfer-Encoding
// onto headers is the caller's responsibility (the Worker's
// preprocessor chain, or a Client constructing a request).
func writeBody(bw *bufio.Writer, headers *Headers, body *Body) error {
	if err := headers.WriteTo(bw); err != nil {
		return err
	}
	if body == nil {
		return nil
	}
	encodings, err := headers.TransferEncodings()
	if err != nil {
		return err
	}
	for _, e := range encodings {
		if e == "chunked" {
			cw := newChunkedWriter(bw)
			if _, err := io.Copy(cw, body); err != nil {
				return err
			}
			return cw.Close()
		}
	}
	_, err = io.Copy(bw, body)
	return err
}
