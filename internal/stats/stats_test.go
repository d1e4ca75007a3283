package stats

import (
	"strings"
	"testing"
	"time"

	"github.com/pcekm/archtester/internal/engine"
)

func TestSummarizeReachable(t *testing.T) {
	out := engine.Outcome{
		MinHops: 6, MaxHops: 6, Converged: true, ProbesSent: 3,
		Probes: []engine.ProbeRecord{
			{Hops: 4, Responded: true, ResponseType: engine.TimeExceeded, Delay: 10 * time.Millisecond, Retries: 1},
			{Hops: 5, Responded: true, ResponseType: engine.TimeExceeded, Delay: 15 * time.Millisecond, Retries: 1},
			{Hops: 6, Responded: true, ResponseType: engine.EchoResponse, Delay: 20 * time.Millisecond, Retries: 1},
		},
	}
	r := Summarize("example.com", "198.51.100.1", 255, out, "binarysearch", 1, true)

	if r.Reachability != ReachabilityReachable {
		t.Errorf("Reachability = %v, want Reachable", r.Reachability)
	}
	if got := r.MachineReadable(); got != "6:reachable" {
		t.Errorf("MachineReadable() = %q, want %q", got, "6:reachable")
	}
}

func TestSummarizeMaybeUnreachable(t *testing.T) {
	out := engine.Outcome{
		MinHops: 1, MaxHops: 64, ProbesSent: 1,
		Probes: []engine.ProbeRecord{
			{Hops: 64, Responded: true, ResponseType: engine.DestinationUnreachable, Retries: 1},
		},
	}
	r := Summarize("example.com", "198.51.100.1", 255, out, "binarysearch", 1, true)
	if r.Reachability != ReachabilityMaybeUnreachable {
		t.Errorf("Reachability = %v, want MaybeUnreachable", r.Reachability)
	}
}

func TestHumanReadableFullStatisticsIncludesCounts(t *testing.T) {
	out := engine.Outcome{
		MinHops: 3, MaxHops: 3, ProbesSent: 2,
		Probes: []engine.ProbeRecord{
			{Hops: 3, Responded: true, ResponseType: engine.EchoResponse, Delay: 5 * time.Millisecond, Retries: 1},
			{Hops: 3, Responded: true, ResponseType: engine.EchoResponse, Delay: 5 * time.Millisecond, Retries: 2},
		},
	}
	r := Summarize("h", "1.2.3.4", 255, out, "sequential", 1, false)
	got := r.HumanReadable("full")
	if !strings.Contains(got, "echo replies received") {
		t.Errorf("missing full statistics block: %q", got)
	}
	if !strings.Contains(got, "probes were retransmissions") {
		t.Errorf("missing retransmission count: %q", got)
	}
}
