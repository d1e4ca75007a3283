package engine

import "time"

// ProbeRecord is a read-only snapshot of one probe's lifecycle, returned as
// part of Outcome for statistics and detailed progress reporting.
type ProbeRecord struct {
	ID           uint16
	Hops         int
	Sent         time.Time
	Responded    bool
	ResponseType ResponseType
	Delay        time.Duration
	Retries      int
	Duplicates   int
}

// Outcome is the final result of a Run: the converged (or best-known)
// interval, plus enough per-probe detail to drive statistics reporting.
type Outcome struct {
	MinHops int
	MaxHops int

	// Converged is true when MinHops == MaxHops: the engine pinned down an
	// exact hop count rather than merely narrowing a range.
	Converged bool

	ProbesSent int
	Probes     []ProbeRecord
}

// Reachable reports whether at least one probe produced a positive
// response of any kind.
func (o Outcome) Reachable() bool {
	for _, p := range o.Probes {
		if p.Responded && p.ResponseType.Positive() {
			return true
		}
	}
	return false
}

func (e *Engine) outcome() Outcome {
	o := Outcome{
		MinHops:    e.iv.min,
		MaxHops:    e.iv.max,
		Converged:  e.iv.converged(),
		ProbesSent: e.probesSent,
	}
	for i := range e.table.slots {
		p := &e.table.slots[i]
		if !p.used {
			continue
		}
		o.Probes = append(o.Probes, ProbeRecord{
			ID:           p.id,
			Hops:         p.hops,
			Sent:         p.sentTime,
			Responded:    p.responded,
			ResponseType: p.responseType,
			Delay:        p.delay,
			Retries:      e.table.retries(int(p.id)),
			Duplicates:   p.duplicateResponses,
		})
	}
	return o
}
