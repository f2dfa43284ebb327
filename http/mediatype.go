// SPDX-License-Identifier: GPL-3.0-or-later

package http

import "strings"

// MediaType is a parsed Content-Type value: a type/subtype plus
// parameters (charset, boundary, ...). Multipart boundary parsing is
// in scope here; multipart body parsing is not.
type MediaType struct {
	Type       string
	Subtype    string
	Parameters map[string]string
}

// ParseMediaType parses a Content-Type-shaped value:
// "type/subtype; key=value; key2=\"value2\"".
func ParseMediaType(s string) MediaType {
	parts := strings.Split(s, ";")
	typeSubtype := strings.TrimSpace(parts[0])
	mt := MediaType{Parameters: map[string]string{}}
	if idx := strings.IndexByte(typeSubtype, '/'); idx >= 0 {
		mt.Type = strings.ToLower(strings.TrimSpace(typeSubtype[:idx]))
		mt.Subtype = strings.ToLower(strings.TrimSpace(typeSubtype[idx+1:]))
	} else {
		mt.Type = strings.ToLower(typeSubtype)
	}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		idx := strings.IndexByte(p, '=')
		if idx < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(p[:idx]))
		value := strings.Trim(strings.TrimSpace(p[idx+1:]), `"`)
		mt.Parameters[key] = value
	}
	return mt
}

// String re-emits the MediaType in canonical "type/subtype;
// key=value" form.
func (mt MediaType) String() string {
	var sb strings.Builder
	sb.WriteString(mt.Type)
	sb.WriteByte('/')
	sb.WriteString(mt.Subtype)
	for k, v := range mt.Parameters {
		sb.WriteString("; ")
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(v)
	}
	return sb.String()
}

// Charset returns the "charset" parameter, or "" if absent.
func (mt MediaType) Charset() string {
	return mt.Parameters["charset"]
}

// Boundary returns the "boundary" parameter, or "" if absent.
func (mt MediaType) Boundary() string {
	return mt.Parameters["boundary"]
}

// DefaultContentType is the Content-Type the Worker's preprocessor
// chain defaults to when a non-empty body carries none.
const DefaultContentType = "application/octet-stream; charset=UTF-8"
