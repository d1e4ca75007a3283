package engine

import "context"

// PacketTransport is the capability the engine uses to move bytes on the
// wire. It knows nothing about ICMP, IP, or TTLs; it just sends and receives
// whole packets. The concrete implementation (internal/rawsock) owns the
// raw socket and its IP_HDRINCL setting; the header itself, TTL included,
// is written by internal/wire.
type PacketTransport interface {
	// Send writes a fully-formed IPv4 packet (header included) to the
	// wire.
	Send(b []byte) error

	// Recv waits for the next packet or for ctx to be done, whichever
	// comes first. A ctx deadline of zero duration must still attempt a
	// single non-blocking read.
	Recv(ctx context.Context) ([]byte, error)
}

// PacketBuilder constructs the wire bytes for an Echo Request with the given
// probe id, TTL, and payload length. It's the seam between the engine (which
// only knows about ids and TTLs) and internal/wire (which knows how to lay
// out an IPv4+ICMP packet and compute its checksum).
type PacketBuilder interface {
	Build(id uint16, seq uint16, ttl int, dataLength int) ([]byte, error)
}

// PacketParser classifies an inbound packet and, for packets addressed to
// this probe run, extracts the response kind, the probe id it answers, and
// (for Echo Replies) the TTL the reply itself carried.
type PacketParser interface {
	Parse(b []byte) (ParsedResponse, error)
}

// ParsedResponse is what internal/wire hands back after validating an
// inbound packet against the rules in spec.md §4.5. Ok is false for packets
// that fail validation or aren't addressed to us; the engine discards those,
// noting them only through Reporter.Debug and Reporter.ReceivedOther.
type ParsedResponse struct {
	Ok          bool
	Type        ResponseType
	ProbeID     uint16
	ReceivedTTL int // TTL field carried by an Echo Reply; meaningless otherwise.
	Length      int
}
