// SPDX-License-Identifier: GPL-3.0-or-later

// Package http implements the HTTP protocol: methods,
// versions, status codes, a case-insensitive Headers multimap with
// typed accessors, identity/chunked body streambufs, Request/Response
// parsing and emission, and a Worker handler chain built on the chain
// package.
package http

import "fmt"

// Method is an HTTP request method.
type Method int

const (
	MethodGET Method = iota
	MethodHEAD
	MethodPOST
	MethodPUT
	MethodDELETE
	MethodCONNECT
	MethodOPTIONS
	MethodTRACE
	MethodPATCH
)

var methodNames = map[Method]string{
	MethodGET:     "GET",
	MethodHEAD:    "HEAD",
	MethodPOST:    "POST",
	MethodPUT:     "PUT",
	MethodDELETE:  "DELETE",
	MethodCONNECT: "CONNECT",
	MethodOPTIONS: "OPTIONS",
	MethodTRACE:   "TRACE",
	MethodPATCH:   "PATCH",
}

var methodValues = func() map[string]Method {
	m := make(map[string]Method, len(methodNames))
	for v, s := range methodNames {
		m[s] = v
	}
	return m
}()

// String implements [fmt.Stringer].
func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return "PATCH"
}

// ParseMethod parses s into a [Method]. Unknown methods raise
// [ErrMethodNotAllowed], mapped to a 405 response by the Worker.
func ParseMethod(s string) (Method, error) {
	m, ok := methodValues[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMethodNotAllowed, s)
	}
	return m, nil
}
