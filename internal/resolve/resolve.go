// Package resolve turns the user-facing destination and interface strings
// into the concrete addresses internal/rawsock needs.
package resolve

import (
	"errors"
	"fmt"
	"net"
)

// Destination resolves host (a hostname or literal address) to its first
// IPv4 address, matching the original tool's assumption that it targets one
// IPv4 destination per run.
func Destination(host string) (net.IP, error) {
	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, fmt.Errorf("resolve: lookup %q: %w", host, err)
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, fmt.Errorf("resolve: %q has no IPv4 address", host)
}

// SourceAddr picks the IPv4 address this host would use to reach dst. When
// iface is non-empty, the answer is restricted to an address bound to that
// interface. It never sends a packet: it dials a UDP socket (which only
// performs route lookup and local binding) and reads back the address the
// kernel chose.
func SourceAddr(iface string, dst net.IP) (net.IP, error) {
	conn, err := net.Dial("udp4", net.JoinHostPort(dst.String(), "0"))
	if err != nil {
		return nil, fmt.Errorf("resolve: route lookup for %v: %w", dst, err)
	}
	defer conn.Close()

	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, errors.New("resolve: unexpected local address type")
	}

	if iface == "" {
		return local.IP, nil
	}

	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, fmt.Errorf("resolve: interface %q: %w", iface, err)
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return nil, fmt.Errorf("resolve: addresses for %q: %w", iface, err)
	}
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if v4 := ipn.IP.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, fmt.Errorf("resolve: interface %q has no IPv4 address", iface)
}

// Addr resolves an IP address back to a reverse-DNS name for reporting,
// falling back to the address itself when no name is found. Used by
// cmd/archtester's reporter for the optional detailed-progress output.
func Addr(ip net.IP) string {
	names, err := net.LookupAddr(ip.String())
	if err != nil || len(names) == 0 {
		return ip.String()
	}
	return names[0]
}
