// SPDX-License-Identifier: GPL-3.0-or-later

package resolve

import (
	"context"
	"fmt"
	"net"
	"sort"

	"github.com/bassosimone/runtimex"
)

// Flag is a bitset of resolution hints, a thin wrapper around the
// POSIX AI_* getaddrinfo hint flags.
type Flag int

const (
	FlagPassive     Flag = 1 << iota // AI_PASSIVE
	FlagCanonName                    // AI_CANONNAME
	FlagNumericHost                  // AI_NUMERICHOST
	FlagNumericServ                  // AI_NUMERICSERV
	FlagAll                          // AI_ALL
	FlagAddrConfig                   // AI_ADDRCONFIG
	FlagV4Mapped                     // AI_V4MAPPED
)

// DefaultFlags is the hint set V4MAPPED | ADDRCONFIG | ALL. Nothing in
// this module substitutes it for zero flags; callers pass it explicitly.
const DefaultFlags = FlagV4Mapped | FlagAddrConfig | FlagAll

// AddressInfo is the Go equivalent of addrinfo, wide enough to represent
// both IPv4 and IPv6 endpoints.
//
// AddressInfo stores the resolved IP and port directly rather than as
// raw sockaddr bytes; the sock package's platform-specific files
// translate this into the kernel sockaddr
// representation at connect/bind time. The invariant that the raw
// address fits in a fixed-size buffer (28 bytes, enough for
// sockaddr_in6) becomes, here, an invariant that IP is a 4- or 16-byte
// address, asserted in [NewAddressInfo].
type AddressInfo struct {
	Flags         Flag
	Family        Family
	SockType      SockType
	Protocol      Protocol
	CanonicalName string
	IP            net.IP
	Port          int
}

// NewAddressInfo validates and constructs an [AddressInfo].
func NewAddressInfo(flags Flag, spec Specification, canonName string, ip net.IP, port int) AddressInfo {
	runtimex.Assert(len(ip) == net.IPv4len || len(ip) == net.IPv6len)
	return AddressInfo{
		Flags:         flags,
		Family:        spec.Family,
		SockType:      spec.SockType,
		Protocol:      spec.Protocol,
		CanonicalName: canonName,
		IP:            ip,
		Port:          port,
	}
}

// GetNumericHost formats ai's address and port without performing a
// reverse DNS lookup, mirroring getnameinfo with
// NI_NUMERICHOST|NI_NUMERICSERV.
func GetNumericHost(ai AddressInfo) Host {
	return Host{Node: ai.IP.String(), Service: fmt.Sprintf("%d", ai.Port)}
}

// GetAddressInfo resolves host using the given [Specification] and
// flags, mirroring a blocking getaddrinfo call. It returns one
// [AddressInfo] per resolved address; addresses are not deduplicated or
// reordered beyond whatever order the underlying resolver returns them
// in (matching getaddrinfo, which is not required to sort results).
func GetAddressInfo(ctx context.Context, host Host, spec Specification, flags Flag) ([]AddressInfo, error) {
	network := "ip"
	switch spec.Family {
	case FamilyINET:
		network = "ip4"
	case FamilyINET6:
		network = "ip6"
	}

	ipaddrs, err := net.DefaultResolver.LookupIPAddr(ctx, host.Node)
	if err != nil {
		return nil, err
	}

	port := 0
	if host.Service != "" {
		if p, err := net.DefaultResolver.LookupPort(ctx, "tcp", host.Service); err == nil {
			port = p
		} else if n, err := fmt.Sscanf(host.Service, "%d", &port); err != nil || n != 1 {
			return nil, fmt.Errorf("resolve: cannot resolve service %q: %w", host.Service, err)
		}
	}

	var results []AddressInfo
	for _, addr := range ipaddrs {
		ip := addr.IP
		is4 := ip.To4() != nil
		switch network {
		case "ip4":
			if !is4 {
				continue
			}
		case "ip6":
			if is4 {
				continue
			}
		}
		if is4 {
			ip = ip.To4()
		} else {
			ip = ip.To16()
		}
		results = append(results, NewAddressInfo(flags, spec, host.Node, ip, port))
	}
	return results, nil
}

// FamilyINET and FamilyINET6 are the conventional AF_INET/AF_INET6
// values. Specification.Family is otherwise resolver-agnostic; the
// numeric encoding only matters when filtering getaddrinfo results here
// and when the sock package builds a platform sockaddr from an
// AddressInfo.
const (
	FamilyINET  Family = 2
	FamilyINET6 Family = 10
)

// SockTypeStream and ProtocolTCP are the conventional SOCK_STREAM and
// IPPROTO_TCP values, the only combination this module's protocol
// layers use.
const (
	SockTypeStream SockType = 1
	ProtocolTCP    Protocol = 6
)

// sortMXRecords sorts records ascending by preference.
func sortMXRecords(records []MXRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Preference < records[j].Preference
	})
}
