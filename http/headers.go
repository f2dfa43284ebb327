// SPDX-License-Identifier: GPL-3.0-or-later

package http

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// MaxHeaderBlockSize is the maximum total encoded size of a header
// block.
const MaxHeaderBlockSize = 64 * 1024

// MaxHeaderLineSize is the maximum size of a single header line.
const MaxHeaderLineSize = 4 * 1024

// HeaderEntry is one name/value pair preserving the name's original
// case for re-emission.
type HeaderEntry struct {
	Name  string
	Value string
}

// Headers is a case-insensitive multimap from header name to value: duplicate headers are
// preserved as a multiset, not collapsed.
type Headers struct {
	entries []HeaderEntry
}

// NewHeaders returns an empty [Headers].
func NewHeaders() *Headers {
	return &Headers{}
}

// Add appends a name/value pair, preserving any existing values for the
// same (case-insensitive) name.
func (h *Headers) Add(name, value string) {
	h.entries = append(h.entries, HeaderEntry{Name: name, Value: value})
}

// Set removes every existing value for name and sets it to value.
func (h *Headers) Set(name, value string) {
	h.Del(name)
	h.Add(name, value)
}

// Del removes every value for name.
func (h *Headers) Del(name string) {
	lower := strings.ToLower(name)
	out := h.entries[:0]
	for _, e := range h.entries {
		if strings.ToLower(e.Name) != lower {
			out = append(out, e)
		}
	}
	h.entries = out
}

// Get returns the first value for name (case-insensitive), or "" with
// ok false if absent.
func (h *Headers) Get(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, e := range h.entries {
		if strings.ToLower(e.Name) == lower {
			return e.Value, true
		}
	}
	return "", false
}

// Values returns every value for name (case-insensitive), in insertion
// order.
func (h *Headers) Values(name string) []string {
	lower := strings.ToLower(name)
	var out []string
	for _, e := range h.entries {
		if strings.ToLower(e.Name) == lower {
			out = append(out, e.Value)
		}
	}
	return out
}

// Entries returns every (name, value) pair in insertion order, for
// iteration and re-emission.
func (h *Headers) Entries() []HeaderEntry {
	return h.entries
}

// Each calls fn with every (name, value) pair in insertion order.
func (h *Headers) Each(fn func(name, value string)) {
	for _, e := range h.entries {
		fn(e.Name, e.Value)
	}
}

// ContentLength returns the parsed Content-Length header; invalid
// values raise
// [ErrMalformedContentLen]; absence returns (0, false, nil).
func (h *Headers) ContentLength() (int64, bool, error) {
	v, ok := h.Get("Content-Length")
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return 0, false, fmt.Errorf("%w: %q", ErrMalformedContentLen, v)
	}
	return n, true, nil
}

// SetContentLength sets the Content-Length header to n.
func (h *Headers) SetContentLength(n int64) {
	h.Set("Content-Length", strconv.FormatInt(n, 10))
}

// TransferEncodings parses Transfer-Encoding as a comma-separated list
// of tokens. Unsupported
// tokens raise [ErrTransferEncoding]; more than 256 entries raises
// [ErrTooManyEncodings].
func (h *Headers) TransferEncodings() ([]string, error) {
	v, ok := h.Get("Transfer-Encoding")
	if !ok {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	if len(parts) > 256 {
		return nil, ErrTooManyEncodings
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		tok := strings.ToLower(strings.TrimSpace(p))
		if tok != "identity" && tok != "chunked" {
			return nil, fmt.Errorf("%w: %q", ErrTransferEncoding, tok)
		}
		out = append(out, tok)
	}
	return out, nil
}

// ContentType returns the Content-Type header value.
func (h *Headers) ContentType() (string, bool) {
	return h.Get("Content-Type")
}

// Host returns the Host header value.
func (h *Headers) Host() (string, bool) {
	return h.Get("Host")
}

// SetCookies returns every Set-Cookie header value, one per cookie.
func (h *Headers) SetCookies() []string {
	return h.Values("Set-Cookie")
}

// Cookie returns the Cookie header value (a single semicolon-delimited
// list, per RFC 6265).
func (h *Headers) Cookie() (string, bool) {
	return h.Get("Cookie")
}

// Size returns the total encoded size of the header block, including
// the trailing CRLFs and the final empty-line CRLF, as emitted by
// [Headers.WriteTo].
func (h *Headers) Size() int {
	total := 2 // final empty line
	for _, e := range h.entries {
		total += len(e.Name) + 2 /* ": " */ + len(e.Value) + 2 /* CRLF */
	}
	return total
}

// WriteTo emits the header block in "Name: value\r\n" lines terminated
// by an empty "\r\n" line, validating field names/values with
// [httpguts.ValidHeaderFieldName]/[httpguts.ValidHeaderFieldValue].
// Enforces the 64KiB total / 4KiB per-line limits.
func (h *Headers) WriteTo(w *bufio.Writer) error {
	if h.Size() > MaxHeaderBlockSize {
		return ErrHeaderBlockTooLarge
	}
	for _, e := range h.entries {
		if !httpguts.ValidHeaderFieldName(e.Name) {
			return fmt.Errorf("%w: invalid header name %q", ErrMalformedHeader, e.Name)
		}
		if !httpguts.ValidHeaderFieldValue(e.Value) {
			return fmt.Errorf("%w: invalid header value for %q", ErrMalformedHeader, e.Name)
		}
		line := e.Name + ": " + e.Value + "\r\n"
		if len(line) > MaxHeaderLineSize {
			return ErrHeaderLineTooLarge
		}
		if _, err := w.WriteString(line); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}

// ReadHeaders parses lines from r until an empty line, splitting each
// at the first ':' and trimming whitespace around name and value. Enforces the 64KiB total / 4KiB
// per-line limits.
func ReadHeaders(r *bufio.Reader) (*Headers, error) {
	h := NewHeaders()
	total := 0
	for {
		line, err := readCRLFLine(r, MaxHeaderLineSize)
		if err != nil {
			if err == errLineTooLong {
				return nil, ErrHeaderLineTooLarge
			}
			return nil, err
		}
		total += len(line) + 2
		if total > MaxHeaderBlockSize {
			return nil, ErrHeaderBlockTooLarge
		}
		if line == "" {
			break
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, fmt.Errorf("%w: missing ':' in %q", ErrMalformedHeader, line)
		}
		name := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if name == "" {
			return nil, fmt.Errorf("%w: empty header name", ErrMalformedHeader)
		}
		h.Add(name, value)
	}
	return h, nil
}

// sortedCopyForTest returns entries sorted by lowercased name then
// value, used only by tests asserting the multiset of headers
// independent of insertion order.
func sortedCopyForTest(h *Headers) []HeaderEntry {
	out := append([]HeaderEntry(nil), h.entries...)
	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if li != lj {
			return li < lj
		}
		return out[i].Value < out[j].Value
	})
	return out
}
