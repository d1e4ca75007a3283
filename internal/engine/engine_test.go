package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// fakeNetwork is a minimal, fully synchronous stand-in for a real IPv4
// network: it answers every probe according to a single fixed hop count,
// with no packet loss or reordering. The engine only ever sees it through
// the PacketTransport/PacketBuilder/PacketParser capabilities, exactly as
// it would see a real socket and internal/wire.
type fakeNetwork struct {
	hops  int
	queue [][]byte
}

func (n *fakeNetwork) Build(id uint16, seq uint16, ttl int, dataLength int) ([]byte, error) {
	return []byte(fmt.Sprintf("PROBE:%d:%d", id, ttl)), nil
}

func (n *fakeNetwork) Send(b []byte) error {
	var id, ttl int
	if _, err := fmt.Sscanf(string(b), "PROBE:%d:%d", &id, &ttl); err != nil {
		return err
	}
	if ttl < n.hops {
		n.queue = append(n.queue, []byte(fmt.Sprintf("TE:%d", id)))
	} else {
		n.queue = append(n.queue, []byte(fmt.Sprintf("ER:%d:64", id)))
	}
	return nil
}

func (n *fakeNetwork) Recv(ctx context.Context) ([]byte, error) {
	if len(n.queue) == 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	b := n.queue[0]
	n.queue = n.queue[1:]
	return b, nil
}

func (n *fakeNetwork) Parse(b []byte) (ParsedResponse, error) {
	s := string(b)
	if strings.HasPrefix(s, "TE:") {
		var id int
		fmt.Sscanf(s, "TE:%d", &id)
		return ParsedResponse{Ok: true, Type: TimeExceeded, ProbeID: uint16(id)}, nil
	}
	var id, recvTTL int
	fmt.Sscanf(s, "ER:%d:%d", &id, &recvTTL)
	return ParsedResponse{Ok: true, Type: EchoResponse, ProbeID: uint16(id), ReceivedTTL: recvTTL}, nil
}

func TestRunConvergesBinarySearch(t *testing.T) {
	net := &fakeNetwork{hops: 6}
	e := New(&Config{MaxTTL: 64, MaxProbes: 40}, Deps{
		Transport: net,
		Builder:   net,
		Parser:    net,
	})

	out, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.Converged {
		t.Fatalf("outcome did not converge: min=%d max=%d", out.MinHops, out.MaxHops)
	}
	if out.MinHops != 6 {
		t.Errorf("MinHops = %d, want 6", out.MinHops)
	}
	if !out.Reachable() {
		t.Error("want reachable")
	}
}

func TestRunConvergesSequential(t *testing.T) {
	net := &fakeNetwork{hops: 4}
	e := New(&Config{MaxTTL: 20, MaxProbes: 30, Algorithm: Sequential}, Deps{
		Transport: net,
		Builder:   net,
		Parser:    net,
	})

	out, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.MinHops != 4 || out.MaxHops != 4 {
		t.Errorf("got [%d,%d], want exactly 4", out.MinHops, out.MaxHops)
	}
}

func TestRunRespectsMaxProbesBudget(t *testing.T) {
	net := &fakeNetwork{hops: 200}
	e := New(&Config{MaxTTL: 255, MaxProbes: 5, Algorithm: Sequential, NoLikelyCandidates: true}, Deps{
		Transport: net,
		Builder:   net,
		Parser:    net,
	})

	out, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Converged {
		t.Error("shouldn't have converged within the probe budget")
	}
	if out.ProbesSent > 5+2 { // a couple retransmissions may still be in flight when the budget trips
		t.Errorf("ProbesSent = %d, budget was 5", out.ProbesSent)
	}
}

func TestRunCancellation(t *testing.T) {
	net := &fakeNetwork{hops: 999} // never responds favorably within MaxTTL
	e := New(&Config{MaxTTL: 10, MaxProbes: 100}, Deps{
		Transport: net,
		Builder:   net,
		Parser:    net,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Run(ctx)
	if err != ErrInterrupted {
		t.Errorf("err = %v, want ErrInterrupted", err)
	}
}
