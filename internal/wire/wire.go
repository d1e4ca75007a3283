// Package wire builds and parses the raw IPv4 packets the engine sends and
// receives. It owns the one piece of the system that can't be delegated to
// golang.org/x/net/icmp alone: constructing the IP header by hand so the
// transport can set IP_HDRINCL and pick the TTL per packet instead of per
// socket.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// payload fills the data of every outbound Echo Request, repeated or
// truncated to the requested length. It carries no information the engine
// needs back; it exists so probes have a configurable, recognizable length
// on the wire.
const payload = "archtester"

const ipHeaderLen = 20

var (
	// ErrTooShort is returned when an inbound packet is too small to contain
	// even an IP header.
	ErrTooShort = errors.New("wire: packet shorter than an IP header")

	// ErrNotIPv4 is returned when an inbound packet's IP version nibble
	// isn't 4.
	ErrNotIPv4 = errors.New("wire: not an IPv4 packet")
)

// Builder constructs Echo Request packets addressed to a fixed destination
// from a fixed source, with IP_HDRINCL-style headers the kernel will pass
// through unmodified.
type Builder struct {
	Src, Dst net.IP
}

// Build lays out a complete IPv4 packet: a hand-built 20-byte header (no
// options) followed by an ICMP Echo Request. The ICMP Identifier carries
// the probe table id so a response can be matched straight back to its
// probe; Sequence carries the run's monotonic probe counter for diagnostic
// value only.
func (b Builder) Build(id uint16, seq uint16, ttl int, dataLength int) ([]byte, error) {
	body := &icmp.Echo{
		ID:   int(id),
		Seq:  int(seq),
		Data: make([]byte, dataLength),
	}
	// The payload string is repeated, or truncated, to fill dataLength bytes.
	for i := range body.Data {
		body.Data[i] = payload[i%len(payload)]
	}

	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: body,
	}
	icmpBytes, err := msg.Marshal(nil)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal icmp echo: %w", err)
	}

	total := ipHeaderLen + len(icmpBytes)
	pkt := make([]byte, total)
	writeIPHeader(pkt[:ipHeaderLen], b.Src, b.Dst, ttl, total, ipv4.ICMPProto)
	copy(pkt[ipHeaderLen:], icmpBytes)
	return pkt, nil
}

// writeIPHeader fills in a minimal 20-byte IPv4 header: version/IHL, zero
// ToS, total length, a process-local identification, no fragmentation,
// caller-chosen TTL and protocol, source and destination, and a correct
// checksum. The kernel with IP_HDRINCL set will not touch any of these.
func writeIPHeader(h []byte, src, dst net.IP, ttl int, totalLen int, proto int) {
	h[0] = 0x45 // version 4, IHL 5 (20 bytes, no options)
	h[1] = 0    // ToS
	binary.BigEndian.PutUint16(h[2:4], uint16(totalLen))
	binary.BigEndian.PutUint16(h[4:6], 0) // identification; raw sockets don't need uniqueness here
	binary.BigEndian.PutUint16(h[6:8], 0) // flags/fragment offset
	h[8] = byte(ttl)
	h[9] = byte(proto)
	binary.BigEndian.PutUint16(h[10:12], 0) // checksum placeholder
	copy(h[12:16], src.To4())
	copy(h[16:20], dst.To4())

	binary.BigEndian.PutUint16(h[10:12], checksum(h))
}

// checksum computes the RFC 1071 one's complement checksum used by both the
// IP and ICMP headers.
func checksum(b []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(b); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(b[i : i+2]))
	}
	if len(b)%2 == 1 {
		sum += uint32(b[len(b)-1]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return ^uint16(sum)
}
