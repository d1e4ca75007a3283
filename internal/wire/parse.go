package wire

import (
	"encoding/binary"
	"fmt"
	"net"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"github.com/pcekm/archtester/internal/engine"
)

// Parser classifies inbound raw IPv4 packets and extracts the probe id and
// any reply-carried TTL the engine needs to update its interval. Src is
// this host's address and Dst is the probe destination, used for the
// our-packet test on both the outer and (for ICMP errors) quoted inner
// packet.
type Parser struct {
	Src, Dst net.IP
}

// Parse implements engine.PacketParser: it validates b against the ordered
// rule list for inbound packets and, for an accepted packet, identifies
// which probe it answers and what kind of response it was. Rejected packets
// come back with Ok == false and a non-nil error saying why; the engine
// discards them without treating that error as fatal.
func (p Parser) Parse(b []byte) (engine.ParsedResponse, error) {
	if len(b) < ipHeaderLen {
		return engine.ParsedResponse{}, ErrTooShort
	}
	if b[0]>>4 != 4 {
		return engine.ParsedResponse{}, ErrNotIPv4
	}

	ihl := int(b[0]&0x0f) * 4
	if ihl < ipHeaderLen || len(b) < ihl {
		return engine.ParsedResponse{}, fmt.Errorf("wire: bad IP header length %d", ihl)
	}
	totalLen := int(binary.BigEndian.Uint16(b[2:4]))
	if totalLen > len(b) {
		return engine.ParsedResponse{}, fmt.Errorf("wire: declared length %d exceeds %d received bytes", totalLen, len(b))
	}

	flagsFrag := binary.BigEndian.Uint16(b[6:8])
	fragOffset := flagsFrag &^ 0x4000 // mask off the Don't-Fragment bit only
	if fragOffset != 0 {
		return engine.ParsedResponse{}, fmt.Errorf("wire: fragmented packet")
	}

	proto := b[9]
	if proto != 1 { // ICMP
		return engine.ParsedResponse{}, fmt.Errorf("wire: protocol %d is not ICMP", proto)
	}

	dst := net.IP(b[16:20])
	if !dst.Equal(p.Src) {
		return engine.ParsedResponse{}, fmt.Errorf("wire: not addressed to us")
	}

	icmpBytes := b[ihl:totalLen]
	msg, err := icmp.ParseMessage(1, icmpBytes)
	if err != nil {
		return engine.ParsedResponse{}, fmt.Errorf("wire: parse icmp: %w", err)
	}

	switch msg.Type {
	case ipv4.ICMPTypeEchoReply:
		echo, ok := msg.Body.(*icmp.Echo)
		if !ok {
			return engine.ParsedResponse{}, fmt.Errorf("wire: echo reply with malformed body")
		}
		return engine.ParsedResponse{
			Ok:          true,
			Type:        engine.EchoResponse,
			ProbeID:     uint16(echo.ID),
			ReceivedTTL: int(b[8]),
			Length:      len(icmpBytes),
		}, nil

	case ipv4.ICMPTypeTimeExceeded, ipv4.ICMPTypeDestinationUnreachable:
		if msg.Type == ipv4.ICMPTypeTimeExceeded && msg.Code != 0 {
			return engine.ParsedResponse{}, fmt.Errorf("wire: time exceeded with unexpected code %d", msg.Code)
		}
		var quoted []byte
		switch body := msg.Body.(type) {
		case *icmp.TimeExceeded:
			quoted = body.Data
		case *icmp.DstUnreach:
			quoted = body.Data
		default:
			return engine.ParsedResponse{}, fmt.Errorf("wire: icmp error with malformed body")
		}
		id, err := p.parseQuotedEcho(quoted)
		if err != nil {
			return engine.ParsedResponse{}, err
		}
		rt := engine.TimeExceeded
		if msg.Type == ipv4.ICMPTypeDestinationUnreachable {
			rt = engine.DestinationUnreachable
		}
		return engine.ParsedResponse{Ok: true, Type: rt, ProbeID: id, Length: len(icmpBytes)}, nil

	default:
		return engine.ParsedResponse{}, fmt.Errorf("wire: unhandled icmp type %v", msg.Type)
	}
}

// parseQuotedEcho validates and extracts the probe id from the IP+ICMP
// header quoted inside a Time Exceeded or Destination Unreachable message:
// the quoted packet must be at least an IP header plus an ICMP header, its
// protocol must be ICMP, its type must be Echo, and its source/destination
// must match our probe's (source == us, destination == the probed target).
func (p Parser) parseQuotedEcho(quoted []byte) (uint16, error) {
	if len(quoted) < ipHeaderLen+8 {
		return 0, fmt.Errorf("wire: quoted packet too short")
	}
	qihl := int(quoted[0]&0x0f) * 4
	if qihl < ipHeaderLen || len(quoted) < qihl+8 {
		return 0, fmt.Errorf("wire: quoted packet ihl too short")
	}
	if quoted[9] != 1 {
		return 0, fmt.Errorf("wire: quoted packet is not ICMP")
	}

	qSrc := net.IP(quoted[12:16])
	qDst := net.IP(quoted[16:20])
	if !qSrc.Equal(p.Src) || !qDst.Equal(p.Dst) {
		return 0, fmt.Errorf("wire: quoted packet doesn't belong to this probe run")
	}

	if quoted[qihl] != 8 { // ICMP type 8 == Echo Request
		return 0, fmt.Errorf("wire: quoted packet is not an echo request")
	}
	id := binary.BigEndian.Uint16(quoted[qihl+4 : qihl+6])
	return id, nil
}
