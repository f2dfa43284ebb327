// SPDX-License-Identifier: GPL-3.0-or-later

package smtp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/rainsocket/rain/rr"
)

// MaxResponseSize bounds a response's total multiline payload.
const MaxResponseSize = 4 * 1024

// Response is an SMTP response: a three-digit status code and one or
// more lines. Multiline framing
// uses "code-line" for every line but the last and "code line" for the
// last.
type Response struct {
	StatusCode StatusCode
	Lines      []string
}

// RecvWith implements [rr.Message]: parses one or more
// "NNN[-| ]text\r\n" lines until a line using the space delimiter
// (the final line), enforcing [MaxResponseSize] across the whole
// response.
func (res *Response) RecvWith(br *bufio.Reader) error {
	res.Lines = nil
	total := 0
	for {
		line, err := readCRLFLine(br, MaxParameterSize)
		if err != nil {
			if err == errLineTooLong {
				return ErrLinesLimitExceeded
			}
			return err
		}
		if len(line) < 4 {
			return fmt.Errorf("%w: %q", ErrInvalidStatusCode, line)
		}
		code, err := strconv.Atoi(line[:3])
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidStatusCode, line[:3])
		}
		res.StatusCode = StatusCode(code)

		delim := line[3]
		res.Lines = append(res.Lines, line[4:])
		total += len(line)
		if total > MaxResponseSize {
			return ErrLinesLimitExceeded
		}
		if delim == ' ' {
			return nil
		}
	}
}

// SendWith implements [rr.Message]. If Lines is empty, the canonical
// reason phrase for StatusCode is used as the single line.
func (res *Response) SendWith(w io.Writer) error {
	lines := res.Lines
	if len(lines) == 0 {
		lines = []string{res.StatusCode.ReasonPhrase()}
	}
	bw := bufio.NewWriter(w)
	for i := 0; i+1 < len(lines); i++ {
		if _, err := fmt.Fprintf(bw, "%03d-%s\r\n", int(res.StatusCode), lines[i]); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(bw, "%03d %s\r\n", int(res.StatusCode), lines[len(lines)-1]); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return rr.Flush(w)
}
