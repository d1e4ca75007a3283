// Package stats turns an engine.Outcome into the conclusion line and
// optional brief/full statistics block described for the CLI's output.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pcekm/archtester/internal/engine"
)

// Reachability classifies what the run learned about whether the
// destination answered at all.
type Reachability int

// Values for Reachability.
const (
	ReachabilityUnknown Reachability = iota
	ReachabilityReachable
	ReachabilityMixed
	ReachabilityMaybeUnreachable
)

func (r Reachability) machineString() string {
	switch r {
	case ReachabilityReachable:
		return "reachable"
	case ReachabilityMixed:
		return "mixed"
	case ReachabilityMaybeUnreachable:
		return "unknown"
	default:
		return "unknown"
	}
}

// Report summarizes one completed run for presentation, independent of
// whether the caller wants the machine- or human-readable rendering.
type Report struct {
	Destination   string
	Address       string
	MinHops       int
	MaxHops       int
	MaxTTL        int
	Reachability  Reachability
	EchoReplies   int
	Unreachables  int
	TimeExceededs int
	NoResponses   int
	Duplicates    int
	Retransmits   int
	ProbesSent    int
	ProbeBytes    int
	ResponseBytes int
	HopsUsed      map[int]int
	ShortestDelay time.Duration
	LongestDelay  time.Duration
	Algorithm     string
	Parallel      int
	Readjust      bool
}

// Summarize builds a Report from an engine Outcome. dest/addr are the
// user-facing destination string and its resolved address, maxTTL is the
// configured ceiling (needed to detect the "learned nothing" case),
// algorithm/parallel/readjust echo the run's configuration for the full
// statistics block.
func Summarize(dest, addr string, maxTTL int, out engine.Outcome, algorithm string, parallel int, readjust bool) Report {
	r := Report{
		Destination: dest,
		Address:     addr,
		MinHops:     out.MinHops,
		MaxHops:     out.MaxHops,
		MaxTTL:      maxTTL,
		ProbesSent:  out.ProbesSent,
		HopsUsed:    map[int]int{},
		Algorithm:   algorithm,
		Parallel:    parallel,
		Readjust:    readjust,
	}

	var shortest time.Duration = -1
	for _, p := range out.Probes {
		r.HopsUsed[p.Hops]++
		r.ProbeBytes += 0 // probe length isn't tracked post-hoc; see DESIGN.md
		if p.Retries > 1 {
			r.Retransmits++
		}
		r.Duplicates += p.Duplicates

		if !p.Responded {
			r.NoResponses++
			continue
		}
		if shortest < 0 || p.Delay < shortest {
			shortest = p.Delay
		}
		if p.Delay > r.LongestDelay {
			r.LongestDelay = p.Delay
		}
		switch p.ResponseType {
		case engine.EchoResponse:
			r.EchoReplies++
		case engine.DestinationUnreachable:
			r.Unreachables++
		case engine.TimeExceeded:
			r.TimeExceededs++
		}
	}
	if shortest > 0 {
		r.ShortestDelay = shortest
	}

	switch {
	case r.EchoReplies == 0 && r.Unreachables > 0:
		r.Reachability = ReachabilityMaybeUnreachable
	case r.EchoReplies > 0 && r.Unreachables > 0:
		r.Reachability = ReachabilityMixed
	case r.EchoReplies > 0:
		r.Reachability = ReachabilityReachable
	default:
		r.Reachability = ReachabilityUnknown
	}

	return r
}

// hopsString renders the converged-or-ranged hop count, shared by both
// renderings.
func (r Report) hopsString(machineReadable bool) string {
	if r.MinHops == r.MaxHops {
		return fmt.Sprintf("%d", r.MinHops)
	}
	if r.MinHops <= 1 && r.MaxHops >= r.MaxTTL {
		return "unknown"
	}
	if machineReadable {
		return fmt.Sprintf("%d-%d", r.MinHops, r.MaxHops)
	}
	return fmt.Sprintf("between %d and %d", r.MinHops, r.MaxHops)
}

// MachineReadable renders the single-line `hops:reachability` conclusion
// meant for scripting.
func (r Report) MachineReadable() string {
	return fmt.Sprintf("%s:%s", r.hopsString(true), r.Reachability.machineString())
}

// HumanReadable renders the prose conclusion, optionally followed by a
// statistics block (brief or full, chosen by detail).
func (r Report) HumanReadable(detail string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) is %s hops away", r.Destination, r.Address, r.hopsString(false))

	switch r.Reachability {
	case ReachabilityMaybeUnreachable:
		if r.TimeExceededs > 0 {
			b.WriteString(", not sure if it is reachable")
		} else {
			b.WriteString(", but may not be reachable")
		}
	case ReachabilityMixed:
		b.WriteString(" and reachable, but also gives reachability errors")
	case ReachabilityReachable:
		b.WriteString(" and reachable")
	default:
		if r.TimeExceededs > 0 {
			b.WriteString(", not sure if it is reachable")
		} else {
			b.WriteString(", not sure if it is reachable as we got no ICMPs back at all")
		}
	}
	b.WriteString("\n")

	switch detail {
	case "brief":
		fmt.Fprintf(&b, "%d probes sent\n", r.ProbesSent)
	case "full":
		r.writeFull(&b)
	}
	return b.String()
}

func (r Report) writeFull(b *strings.Builder) {
	fmt.Fprintf(b, "\nStatistics:\n\n")
	fmt.Fprintf(b, "%12s    algorithm\n", r.Algorithm)
	fmt.Fprintf(b, "  %10d    allowed parallel probes\n", r.Parallel)
	fmt.Fprintf(b, "  %10s    readjust search space based on responses\n", yesNo(r.Readjust))
	fmt.Fprintf(b, "  %10d    probes sent out\n", r.ProbesSent)
	if r.ProbesSent > 0 {
		b.WriteString("                on TTLs: ")
		b.WriteString(r.ttlsUsedString())
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "  %10d    probes were retransmissions\n", r.Retransmits)
	fmt.Fprintf(b, "  %10d    responses received\n", r.EchoReplies+r.Unreachables+r.TimeExceededs)
	fmt.Fprintf(b, "  %10d    echo replies received\n", r.EchoReplies)
	fmt.Fprintf(b, "  %10d    destination unreachable errors received\n", r.Unreachables)
	fmt.Fprintf(b, "  %10d    time exceeded errors received\n", r.TimeExceededs)
	if r.ShortestDelay > 0 {
		fmt.Fprintf(b, "%12.4f    shortest response delay (ms)\n", float64(r.ShortestDelay.Microseconds())/1000.0)
		fmt.Fprintf(b, "%12.4f    longest response delay (ms)\n", float64(r.LongestDelay.Microseconds())/1000.0)
	}
	fmt.Fprintf(b, "  %10d    duplicate responses received\n", r.Duplicates)
}

func (r Report) ttlsUsedString() string {
	ttls := make([]int, 0, len(r.HopsUsed))
	for ttl := range r.HopsUsed {
		ttls = append(ttls, ttl)
	}
	sort.Ints(ttls)

	parts := make([]string, 0, len(ttls))
	for _, ttl := range ttls {
		n := r.HopsUsed[ttl]
		if n > 1 {
			parts = append(parts, fmt.Sprintf("%d (%d times)", ttl, n))
		} else {
			parts = append(parts, fmt.Sprintf("%d", ttl))
		}
	}
	return strings.Join(parts, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
