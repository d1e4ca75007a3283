package engine

import "time"

// ResponseType classifies what, if anything, has happened to a probe.
type ResponseType int

// Values for ResponseType.
const (
	// StillWaiting means no response has arrived yet and the probe hasn't
	// timed out.
	StillWaiting ResponseType = iota

	// EchoResponse means the destination itself answered.
	EchoResponse

	// DestinationUnreachable means a host or router reported the
	// destination unreachable.
	DestinationUnreachable

	// TimeExceeded means a router along the path reported TTL exceeded.
	TimeExceeded

	// RetransmissionConsidered marks a probe whose timer fired and whose
	// token was spent on a fresh TTL instead of a resend of this probe.
	RetransmissionConsidered

	// NoResponse means the probe chain exhausted its retries.
	NoResponse
)

func (r ResponseType) String() string {
	switch r {
	case StillWaiting:
		return "stillWaiting"
	case EchoResponse:
		return "echoResponse"
	case DestinationUnreachable:
		return "destinationUnreachable"
	case TimeExceeded:
		return "timeExceeded"
	case RetransmissionConsidered:
		return "retransmissionConsidered"
	case NoResponse:
		return "noResponse"
	default:
		return "unknown"
	}
}

// Positive reports whether this is one of the three response kinds that
// finalize a probe's responded state (Echo Reply, Destination Unreachable,
// or Time Exceeded).
func (r ResponseType) Positive() bool {
	switch r {
	case EchoResponse, DestinationUnreachable, TimeExceeded:
		return true
	default:
		return false
	}
}

// probe is one entry in the probe table. previousTransmission,
// nextRetransmission, and newProbeSentInsteadOfRetransmission are relations
// to other probes in the same table, represented as ids rather than
// pointers so the table can be copied, snapshotted, and traversed without
// fear of cycles.
type probe struct {
	used bool

	id          uint16
	hops        int
	probeLength int

	sentTime        time.Time
	initialTimeout  time.Time

	previousTransmission               int // -1 if none
	nextRetransmission                 int // -1 if none
	newProbeSentInsteadOfRetransmission int // -1 if none

	responded bool
	responseType ResponseType

	responseLength    int
	responseTime      time.Time
	delay             time.Duration
	duplicateResponses int
}

const noProbe = -1

// probeTable is the fixed-capacity, preallocated registry of probes keyed by
// a dense 16-bit id. Slots are never freed: the table only grows (within its
// fixed capacity) over the lifetime of one run.
type probeTable struct {
	slots  [MaxProbes]probe
	cursor int // next id to try allocating from, wraps mod MaxProbes
}

func newProbeTable() *probeTable {
	t := &probeTable{}
	for i := range t.slots {
		t.slots[i].previousTransmission = noProbe
		t.slots[i].nextRetransmission = noProbe
		t.slots[i].newProbeSentInsteadOfRetransmission = noProbe
	}
	return t
}

// allocate finds a free slot by linear scan from the cursor, fills it in,
// and links it to prior (the probe being retransmitted) if prior >= 0. It
// returns the new probe's id, or ErrProbeTableExhausted if the table is
// full.
func (t *probeTable) allocate(hops int, probeLength int, sentTime time.Time, prior int, clock Clock) (int, error) {
	for n := 0; n < MaxProbes; n++ {
		id := (t.cursor + n) % MaxProbes
		if t.slots[id].used {
			continue
		}
		t.cursor = (id + 1) % MaxProbes

		timeout := initialRetransmissionTimeout
		if prior >= 0 {
			prevTimeout := t.slots[prior].initialTimeout.Sub(t.slots[prior].sentTime)
			timeout = prevTimeout * retransmissionBackoffFactor
			if timeout > maxRetransmissionTimeout {
				timeout = maxRetransmissionTimeout
			}
		}

		t.slots[id] = probe{
			used:                                 true,
			id:                                    uint16(id),
			hops:                                  hops,
			probeLength:                           probeLength,
			sentTime:                              sentTime,
			initialTimeout:                        sentTime.Add(timeout),
			previousTransmission:                  prior,
			nextRetransmission:                    noProbe,
			newProbeSentInsteadOfRetransmission:    noProbe,
			responseType:                          StillWaiting,
		}
		if prior >= 0 {
			t.slots[prior].nextRetransmission = id
		}
		return id, nil
	}
	return 0, ErrProbeTableExhausted
}

// find returns the slot for id iff it's used and not yet responded.
// Responded-but-used slots and unused slots both return ok=false: a late
// duplicate is reported as such by the caller, not here.
func (t *probeTable) find(id uint16) (*probe, bool) {
	p := &t.slots[id]
	if !p.used || p.responded {
		return nil, false
	}
	return p, true
}

// findByTTL returns the first used probe sent at the given TTL, regardless
// of whether it has responded. Used by hasProbe.
func (t *probeTable) findByTTL(ttl int) (*probe, bool) {
	for i := range t.slots {
		if t.slots[i].used && t.slots[i].hops == ttl {
			return &t.slots[i], true
		}
	}
	return nil, false
}

// hasProbe reports whether any probe (responded or not) has been sent at
// ttl.
func (t *probeTable) hasProbe(ttl int) bool {
	_, ok := t.findByTTL(ttl)
	return ok
}

// untestedInRange returns the TTLs in [from, to] for which no probe has ever
// been sent.
func (t *probeTable) untestedInRange(from, to int) []int {
	used := make(map[int]bool, to-from+1)
	for i := range t.slots {
		if t.slots[i].used {
			used[t.slots[i].hops] = true
		}
	}
	var out []int
	for ttl := from; ttl <= to; ttl++ {
		if !used[ttl] {
			out = append(out, ttl)
		}
	}
	return out
}

// retries returns the length of the retransmission chain ending at id,
// counting the original transmission as 1.
func (t *probeTable) retries(id int) int {
	n := 0
	for id != noProbe {
		n++
		id = t.slots[id].previousTransmission
	}
	return n
}

// markChainTimedOut marks id and every probe in its previousTransmission
// chain as NoResponse.
func (t *probeTable) markChainTimedOut(id int) {
	for id != noProbe {
		t.slots[id].responseType = NoResponse
		id = t.slots[id].previousTransmission
	}
}
