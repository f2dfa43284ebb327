// SPDX-License-Identifier: GPL-3.0-or-later

package smtp

import (
	"strings"

	"github.com/rainsocket/rain/resolve"
)

// Mailbox represents an RFC 5322 §3.4.1 "local-part@domain" address. The domain is a [resolve.Host]
// with an unspecified (empty) service. Mailbox is comparable, so it
// can key a map or populate a set directly.
type Mailbox struct {
	Name   string
	Domain resolve.Host
}

// ParseMailbox splits s at the last '@' into a [Mailbox]: the domain
// is everything after the last '@', the name everything before it.
func ParseMailbox(s string) Mailbox {
	idx := strings.LastIndexByte(s, '@')
	if idx < 0 {
		return Mailbox{Name: s}
	}
	return Mailbox{Name: s[:idx], Domain: resolve.Host{Node: s[idx+1:]}}
}

// String implements [fmt.Stringer], formatting as "name@domain".
func (m Mailbox) String() string {
	return m.Name + "@" + m.Domain.Node
}
