// SPDX-License-Identifier: GPL-3.0-or-later

package smtp

import (
	"bufio"
	"fmt"
	"io"

	"github.com/rainsocket/rain/rr"
)

// MaxParameterSize bounds a request's single-line parameter.
const MaxParameterSize = 1024

// maxRequestLineSize bounds the whole "COMMAND SP parameter" line.
const maxRequestLineSize = 4 + 1 + MaxParameterSize

// Request is an SMTP request: a four-character command token and a
// single-line parameter.
type Request struct {
	Command   Command
	Parameter string
}

// RecvWith implements [rr.Message]: parses "CMMD SP parameter CRLF",
// where CMMD is exactly four characters (every [Command] value is
// four letters).
func (req *Request) RecvWith(br *bufio.Reader) error {
	line, err := readCRLFLine(br, maxRequestLineSize)
	if err != nil {
		if err == errLineTooLong {
			return ErrParameterTooLarge
		}
		return err
	}
	if len(line) < 4 {
		return fmt.Errorf("%w: %q", ErrSyntaxErrorCommand, line)
	}
	cmd, err := ParseCommand(line[:4])
	if err != nil {
		return err
	}
	param := ""
	if len(line) > 4 {
		rest := line[4:]
		if len(rest) > 0 && rest[0] == ' ' {
			rest = rest[1:]
		}
		param = rest
	}
	if len(param) > MaxParameterSize {
		return ErrParameterTooLarge
	}
	req.Command = cmd
	req.Parameter = param
	return nil
}

// SendWith implements [rr.Message]: emits "COMMAND[ parameter]\r\n".
func (req *Request) SendWith(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if req.Parameter != "" {
		if _, err := fmt.Fprintf(bw, "%s %s\r\n", req.Command, req.Parameter); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(bw, "%s\r\n", req.Command); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return rr.Flush(w)
}
