// SPDX-License-Identifier: GPL-3.0-or-later

package http

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// MaxStartLineSize bounds the request/response start line, matching
// the per-line limit used for header lines.
const MaxStartLineSize = MaxHeaderLineSize

// Request is an HTTP request: method, target, version, headers, and
// body. HTTP/0.9 requests carry only Method and Target; Headers is nil
// and Body is empty.
type Request struct {
	Method  Method
	Target  string
	Version Version
	Headers *Headers
	Body    *Body
}

// NewRequest constructs a 1.1 [*Request] with empty headers and body.
func NewRequest(method Method, target string) *Request {
	return &Request{Method: method, Target: target, Version: Version1_1, Headers: NewHeaders(), Body: NewBody(nil)}
}

// RecvWith implements [github.com/rainsocket/rain/rr.Message]: parses
// "METHOD SP target [SP \"HTTP/\" version] CRLF", then, if a version
// was present, headers and a framed body. br is the connection's persistent reader; it is not
// replaced, so any bytes buffered past the start line remain available
// to the next call on the same connection.
func (req *Request) RecvWith(br *bufio.Reader) error {
	line, err := readCRLFLine(br, MaxStartLineSize)
	if err != nil {
		if err == errLineTooLong {
			return ErrMalformedStartLine
		}
		return err
	}

	method, target, version, has09 := parseRequestStartLine(line)
	m, err := ParseMethod(method)
	if err != nil {
		return err
	}
	req.Method = m
	req.Target = target

	if has09 {
		req.Version = Version0_9
		req.Headers = nil
		req.Body = NewBody(nil)
		return nil
	}

	v, err := ParseVersion(version)
	if err != nil {
		return err
	}
	req.Version = v

	headers, err := ReadHeaders(br)
	if err != nil {
		return err
	}
	req.Headers = headers

	encodings, err := headers.TransferEncodings()
	if err != nil {
		return err
	}
	contentLength, hasCL, err := headers.ContentLength()
	if err != nil {
		return err
	}
	bodyReader, err := composeBodyReader(br, encodings, contentLength, hasCL)
	if err != nil {
		return err
	}
	req.Body = NewBody(bodyReader)
	return nil
}

// parseRequestStartLine splits line into method, target, and version
// token. has09 is true when no "HTTP/x.y" trailing token is present.
func parseRequestStartLine(line string) (method, target, version string, has09 bool) {
	idx := strings.IndexByte(line, ' ')
	if idx < 0 {
		return line, "", "", true
	}
	method = line[:idx]
	rest := strings.TrimLeft(line[idx+1:], " ")

	lastSpace := strings.LastIndexByte(rest, ' ')
	if lastSpace >= 0 {
		maybe := rest[lastSpace+1:]
		if strings.HasPrefix(maybe, "HTTP/") {
			return method, strings.TrimRight(rest[:lastSpace], " "), strings.TrimPrefix(maybe, "HTTP/"), false
		}
	}
	return method, rest, "", true
}

// SendWith implements [github.com/rainsocket/rain/rr.Message]: emits
// the start line, and for 1.0/1.1, headers and the framed body.
func (req *Request) SendWith(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if req.Version == Version0_9 {
		if _, err := fmt.Fprintf(bw, "%s %s\r\n", req.Method, req.Target); err != nil {
			return err
		}
		if err := bw.Flush(); err != nil {
			return err
		}
		return rrFlush(w)
	}

	if _, err := fmt.Fprintf(bw, "%s %s HTTP/%s\r\n", req.Method, req.Target, req.Version); err != nil {
		return err
	}
	headers := req.Headers
	if headers == nil {
		headers = NewHeaders()
	}
	if err := writeBody(bw, headers, req.Body); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return rrFlush(w)
}
