// SPDX-License-Identifier: GPL-3.0-or-later

package smtp

import (
	"bufio"
	"errors"
	"strings"
)

// errLineTooLong is returned internally by [readCRLFLine] when a line
// exceeds maxLen; callers translate it into the appropriate protocol
// error for their context.
var errLineTooLong = errors.New("smtp: line exceeds limit")

// readCRLFLine reads one CRLF-terminated line from r, stripping the
// trailing "\r\n" (a bare "\n" is also accepted), and fails with
// [errLineTooLong] if more than maxLen bytes are read before the
// terminator.
func readCRLFLine(r *bufio.Reader, maxLen int) (string, error) {
	var sb strings.Builder
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			s := sb.String()
			s = strings.TrimSuffix(s, "\r")
			return s, nil
		}
		sb.WriteByte(b)
		if sb.Len() > maxLen {
			return "", errLineTooLong
		}
	}
}
