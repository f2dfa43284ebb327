// SPDX-License-Identifier: GPL-3.0-or-later

package smtp

import "errors"

// Protocol-level parse errors. A [*Worker] answers 500 to a request line
// that fails to parse, 501 to a malformed MAIL/RCPT mailbox, and 504 to
// an unknown AUTH mechanism; the response-side errors arise in a
// [*Client].
var (
	// ErrSyntaxErrorCommand is raised when a request's four-character
	// command token does not name a known [Command].
	ErrSyntaxErrorCommand = errors.New("smtp: syntax error, command unrecognized")

	// ErrParameterTooLarge is raised when a request parameter exceeds
	// [MaxParameterSize].
	ErrParameterTooLarge = errors.New("smtp: parameter exceeds 1KiB")

	// ErrInvalidStatusCode is raised when a response's three-digit
	// status-code prefix does not parse as a decimal integer.
	ErrInvalidStatusCode = errors.New("smtp: invalid status code")

	// ErrLinesLimitExceeded is raised when a multiline response exceeds
	// [MaxResponseSize] total bytes before its final line is seen.
	ErrLinesLimitExceeded = errors.New("smtp: too many lines in response")

	// ErrUnknownAuthMethod is raised when an AUTH command's mechanism
	// token does not name a known [AuthMethod].
	ErrUnknownAuthMethod = errors.New("smtp: unknown AUTH method")

	// ErrMalformedMailbox is raised when a MAIL FROM/RCPT TO parameter's
	// angle-bracket-delimited address cannot be parsed.
	ErrMalformedMailbox = errors.New("smtp: malformed mailbox parameter")
)

// statusForRecvError maps every recv-side parse failure to 500.
func statusForRecvError(err error) StatusCode {
	return StatusSyntaxErrorCommand
}
