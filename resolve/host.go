// SPDX-License-Identifier: GPL-3.0-or-later

// Package resolve provides address resolution: getaddrinfo-equivalent
// lookups, numeric-host formatting, and MX record lookup.
package resolve

import (
	"fmt"
	"strings"
)

// Host is a node/service pair, e.g. ("example.com", "https") or
// ("example.com", "443").
type Host struct {
	Node    string
	Service string
}

// String formats h as "node:service".
func (h Host) String() string {
	return fmt.Sprintf("%s:%s", h.Node, h.Service)
}

// ParseHost splits s at the last colon into a [Host]. This supports
// bracketed IPv6 literals ("[::1]:25") as well as plain "host:port"
// strings.
func ParseHost(s string) (Host, error) {
	idx := strings.LastIndexByte(s, ':')
	if idx < 0 {
		return Host{}, fmt.Errorf("resolve: %q is not a node:service pair", s)
	}
	node := strings.TrimSuffix(strings.TrimPrefix(s[:idx], "["), "]")
	return Host{Node: node, Service: s[idx+1:]}, nil
}
