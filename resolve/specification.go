// SPDX-License-Identifier: GPL-3.0-or-later

package resolve

// Family, Type, and Protocol are thin wrappers around the POSIX
// AF_*/SOCK_*/IPPROTO_* constants. DEFAULT (the zero value of each) lets [Specification.Merge]
// know that the field was left unspecified by the caller.
type (
	Family   int
	SockType int
	Protocol int
)

// DEFAULT sentinels: the zero value of each field means "unspecified",
// i.e. let the socket layer or getaddrinfo pick.
const (
	FamilyDefault   Family   = 0
	SockTypeDefault SockType = 0
	ProtocolDefault Protocol = 0
)

// Specification is the (family, socktype, protocol) triple passed to
// getaddrinfo-style resolution and to socket construction.
type Specification struct {
	Family   Family
	SockType SockType
	Protocol Protocol
}

// Merge returns a new [Specification] where every DEFAULT field in s is
// replaced by the corresponding field from original. This lets a Socket
// constructed with a partially specified Specification (e.g. only
// SockType set) inherit the remaining fields from a more concrete
// Specification discovered during resolution.
func (s Specification) Merge(original Specification) Specification {
	merged := s
	if merged.Family == FamilyDefault {
		merged.Family = original.Family
	}
	if merged.SockType == SockTypeDefault {
		merged.SockType = original.SockType
	}
	if merged.Protocol == ProtocolDefault {
		merged.Protocol = original.Protocol
	}
	return merged
}
