// SPDX-License-Identifier: GPL-3.0-or-later

package smtp

import (
	"fmt"
	"strings"
)

// AuthMethod is an SMTP AUTH mechanism.
type AuthMethod int

const (
	AuthMethodPLAIN AuthMethod = iota
	AuthMethodLOGIN
	AuthMethodCRAMMD5
)

var authMethodNames = map[AuthMethod]string{
	AuthMethodPLAIN:   "PLAIN",
	AuthMethodLOGIN:   "LOGIN",
	AuthMethodCRAMMD5: "CRAM-MD5",
}

var authMethodValues = func() map[string]AuthMethod {
	m := make(map[string]AuthMethod, len(authMethodNames))
	for v, s := range authMethodNames {
		m[s] = v
	}
	return m
}()

// String implements [fmt.Stringer].
func (a AuthMethod) String() string {
	if s, ok := authMethodNames[a]; ok {
		return s
	}
	return "CRAM-MD5"
}

// ParseAuthMethod parses an AUTH mechanism token
// (case-agnostic).
func ParseAuthMethod(s string) (AuthMethod, error) {
	a, ok := authMethodValues[strings.ToUpper(s)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAuthMethod, s)
	}
	return a, nil
}
