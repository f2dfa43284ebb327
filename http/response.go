// SPDX-License-Identifier: GPL-3.0-or-later

package http

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Response is an HTTP response: status code, reason phrase, version,
// headers, and body. An empty ReasonPhrase on [Response.SendWith]
// yields the canonical phrase for StatusCode.
type Response struct {
	StatusCode   StatusCode
	ReasonPhrase string
	Version      Version
	Headers      *Headers
	Body         *Body
}

// NewResponse constructs a 1.1 [*Response] with the canonical reason
// phrase, empty headers, and empty body.
func NewResponse(code StatusCode) *Response {
	return &Response{StatusCode: code, Version: Version1_1, Headers: NewHeaders(), Body: NewBody(nil)}
}

// RecvWith implements [github.com/rainsocket/rain/rr.Message]. If the
// start line does not parse as "HTTP/x.y status reason" the response is interpreted as HTTP/0.9:
// the bytes already consumed (the would-be start line, plus its CRLF)
// are prepended to the remainder of the stream and the whole thing
// becomes the body, with no headers.
func (res *Response) RecvWith(br *bufio.Reader) error {
	line, err := readCRLFLine(br, MaxStartLineSize)
	if err != nil {
		if err == errLineTooLong {
			return ErrMalformedStartLine
		}
		return err
	}

	version, code, reason, ok := parseResponseStartLine(line)
	if !ok {
		res.Version = Version0_9
		res.StatusCode = StatusOK
		res.ReasonPhrase = ""
		res.Headers = nil
		res.Body = NewBody(newPrefixReader(line+"\r\n", br))
		return nil
	}

	v, err := ParseVersion(version)
	if err != nil {
		return err
	}
	res.Version = v
	res.StatusCode = StatusCode(code)
	res.ReasonPhrase = reason

	headers, err := ReadHeaders(br)
	if err != nil {
		return err
	}
	res.Headers = headers

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
	res.Body = NewBody(bodyReader)
	return nil
}

// parseResponseStartLine parses "HTTP/x.y SP status-code SP
// reason-phrase". ok is false if the first token is not a parseable
// "HTTP/x.y".
func parseResponseStartLine(line string) (version string, code int, reason string, ok bool) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "HTTP/") {
		return "", 0, "", false
	}
	version = strings.TrimPrefix(parts[0], "HTTP/")
	if _, known := versionValues[version]; !known {
		return "", 0, "", false
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &code); err != nil {
		return "", 0, "", false
	}
	if len(parts) == 3 {
		reason = parts[2]
	}
	return version, code, reason, true
}

// SendWith implements [github.com/rainsocket/rain/rr.Message]. For
// 0.9, only the body is written (no status line, no headers); for
// 1.0/1.1, the full status line, headers, and framed body are written.
func (res *Response) SendWith(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if res.Version == Version0_9 {
		if res.Body != nil {
			if _, err := io.Copy(bw, res.Body); err != nil {
				return err
			}
		}
		if err := bw.Flush(); err != nil {
			return err
		}
		return rrFlush(w)
	}

	reason := res.ReasonPhrase
	if reason == "" {
		reason = ReasonPhrase(res.StatusCode)
	}
	if _, err := fmt.Fprintf(bw, "HTTP/%s %d %s\r\n", res.Version, int(res.StatusCode), reason); err != nil {
		return err
	}
	headers := res.Headers
	if headers == nil {
		headers = NewHeaders()
	}
	if err := writeBody(bw, headers, res.Body); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return rrFlush(w)
}

// prefixReader prepends prefix to r's bytes, preserving the exact
// bytes consumed while probing for an HTTP/0.9 response.
type prefixReader struct {
	prefix []byte
	pos    int
	r      io.Reader
}

func newPrefixReader(prefix string, r io.Reader) *prefixReader {
	return &prefixReader{prefix: []byte(prefix), r: r}
}

func (p *prefixReader) Read(buf []byte) (int, error) {
	if p.pos < len(p.prefix) {
		n := copy(buf, p.prefix[p.pos:])
		p.pos += n
		return n, nil
	}
	return p.r.Read(buf)
}
