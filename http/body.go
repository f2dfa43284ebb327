// SPDX-License-Identifier: GPL-3.0-or-later

package http

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// Body wraps the input stream a Request/Response's payload is read
// from. It owns or merely references the underlying reader; on
// [Body.Close] an owned reader implementing [io.Closer] is closed
// exactly once, no matter how many times Close is called.
type Body struct {
	r        io.Reader
	owned    bool
	closed   bool
	knownLen int
	hasLen   bool
}

// NewBody wraps r as a non-owning [Body]: Close is a no-op.
func NewBody(r io.Reader) *Body {
	return &Body{r: r}
}

// NewOwnedBody wraps r as an owning [Body]: Close closes r if it
// implements [io.Closer].
func NewOwnedBody(r io.Reader) *Body {
	return &Body{r: r, owned: true}
}

// NewBodyFromBytes wraps data as a [Body] whose length is known ahead
// of time, so the Worker's preprocessor chain can default
// Content-Length without having to buffer the body to measure it.
func NewBodyFromBytes(data []byte) *Body {
	return &Body{r: bytes.NewReader(data), knownLen: len(data), hasLen: true}
}

// Len returns the body's length and true if it is known ahead of time
// (i.e. the Body was built with [NewBodyFromBytes]).
func (b *Body) Len() (int, bool) {
	if b == nil {
		return 0, true
	}
	return b.knownLen, b.hasLen
}

// Read implements [io.Reader].
func (b *Body) Read(p []byte) (int, error) {
	if b.r == nil {
		return 0, io.EOF
	}
	return b.r.Read(p)
}

// Close releases the owned underlying reader exactly once.
func (b *Body) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.owned {
		if c, ok := b.r.(io.Closer); ok {
			return c.Close()
		}
	}
	return nil
}

// ReadAll reads b to completion and returns the bytes read.
func ReadAll(b *Body) ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	return io.ReadAll(b)
}

// identityReader reads at most n bytes from the underlying source, or
// (if n < 0) until source EOF. Inner identities in an encoding chain
// read without a known length.
type identityReader struct {
	r         io.Reader
	remaining int64 // -1 means unbounded
}

// newIdentityReader constructs a reader bounded to n bytes, or
// unbounded if n < 0.
func newIdentityReader(r io.Reader, n int64) *identityReader {
	return &identityReader{r: r, remaining: n}
}

func (ir *identityReader) Read(p []byte) (int, error) {
	if ir.remaining == 0 {
		return 0, io.EOF
	}
	if ir.remaining > 0 && int64(len(p)) > ir.remaining {
		p = p[:ir.remaining]
	}
	n, err := ir.r.Read(p)
	if ir.remaining > 0 {
		ir.remaining -= int64(n)
	}
	return n, err
}

// chunkedReader decodes the chunked transfer encoding: a hex length
// line terminated by CRLF, then that many bytes, then CRLF; a zero
// length ends the stream.
type chunkedReader struct {
	r    *bufio.Reader
	left int64
	done bool
}

func newChunkedReader(r *bufio.Reader) *chunkedReader {
	return &chunkedReader{r: r}
}

func (cr *chunkedReader) Read(p []byte) (int, error) {
	if cr.done {
		return 0, io.EOF
	}
	if cr.left == 0 {
		size, err := cr.readChunkSize()
		if err != nil {
			return 0, err
		}
		if size == 0 {
			if err := cr.consumeTrailerCRLF(); err != nil {
				return 0, err
			}
			cr.done = true
			return 0, io.EOF
		}
		cr.left = size
	}
	if int64(len(p)) > cr.left {
		p = p[:cr.left]
	}
	n, err := io.ReadFull(cr.r, p)
	cr.left -= int64(n)
	if err != nil {
		return n, err
	}
	if cr.left == 0 {
		if err := cr.consumeTrailerCRLF(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (cr *chunkedReader) readChunkSize() (int64, error) {
	line, err := readCRLFLine(cr.r, MaxHeaderLineSize)
	if err != nil {
		return 0, err
	}
	// Strip chunk extensions (";ext=value"), which this implementation
	// does not interpret.
	if idx := bytesIndexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	size, err := strconv.ParseInt(line, 16, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedChunkSize, line)
	}
	return size, nil
}

func (cr *chunkedReader) consumeTrailerCRLF() error {
	line, err := readCRLFLine(cr.r, MaxHeaderLineSize)
	if err != nil {
		return err
	}
	if line != "" {
		return fmt.Errorf("%w: expected CRLF after chunk data", ErrMalformedChunkSize)
	}
	return nil
}

func bytesIndexByte(s string, c byte) int {
	return bytes.IndexByte([]byte(s), c)
}

// chunkedWriter encodes the chunked transfer encoding onto w.
type chunkedWriter struct {
	w io.Writer
}

func newChunkedWriter(w io.Writer) *chunkedWriter {
	return &chunkedWriter{w: w}
}

func (cw *chunkedWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if _, err := fmt.Fprintf(cw.w, "%x\r\n", len(p)); err != nil {
		return 0, err
	}
	n, err := cw.w.Write(p)
	if err != nil {
		return n, err
	}
	if _, err := cw.w.Write([]byte("\r\n")); err != nil {
		return n, err
	}
	return n, nil
}

// Close writes the terminating zero-length chunk.
func (cw *chunkedWriter) Close() error {
	_, err := cw.w.Write([]byte("0\r\n\r\n"))
	return err
}

// composeBodyReader builds the body reader for a parsed message: composing from outermost to innermost
// (reverse of the Transfer-Encoding list), falling back to
// Content-Length identity framing, and finally to an empty body.
func composeBodyReader(r *bufio.Reader, encodings []string, contentLength int64, hasContentLength bool) (io.Reader, error) {
	if len(encodings) > 0 {
		var reader io.Reader = r
		for i := len(encodings) - 1; i >= 0; i-- {
			switch encodings[i] {
			case "chunked":
				reader = newChunkedReader(bufio.NewReader(reader))
			case "identity":
				if i == len(encodings)-1 && hasContentLength {
					reader = newIdentityReader(reader, contentLength)
				} else {
					reader = newIdentityReader(reader, -1)
				}
			}
		}
		return reader, nil
	}
	if hasContentLength {
		return newIdentityReader(r, contentLength), nil
	}
	return bytes.NewReader(nil), nil
}
