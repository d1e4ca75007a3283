package engine

// Reporter receives progress and diagnostic notifications from the engine.
// It decouples the state machine from any concrete logging mechanism;
// cmd/archtester's implementation turns these into the progress/debug/quiet
// output described in spec.md §6. A zero Deps.Reporter is replaced by a
// Reporter that discards everything.
type Reporter interface {
	// Sent is called whenever a probe goes out, including retransmissions
	// (retransmit=true) and new probes sent instead of a retransmission.
	Sent(id uint16, ttl int, retransmit bool)

	// Received is called for the first response associated with a probe.
	// Duplicates are only counted and reported through Debug.
	Received(respType ResponseType, id uint16, ttl int)

	// ReceivedOther is called for inbound packets that failed validation
	// or weren't addressed to us.
	ReceivedOther()

	// RetransmissionConsidered is called when a probe's timer fires and
	// the scheduler is about to either retransmit it or spend the token
	// elsewhere.
	RetransmissionConsidered(id uint16, ttl int)

	// NoResponse is called when a probe chain exhausts MaxTries without a
	// reply.
	NoResponse(id uint16, ttl int)

	// Anomaly reports a non-fatal protocol anomaly (spec.md §7): an
	// inverted interval, or a response naming a probe id that was never
	// sent. Packets the parser rejects (an unexpected ICMP code, a
	// mismatched inner packet) go to Debug and ReceivedOther instead. The
	// run continues.
	Anomaly(format string, args ...any)

	// Debug reports internal state transitions, gated by -debug in the
	// CLI. Most Reporters no-op this in normal operation.
	Debug(format string, args ...any)
}

// discardReporter implements Reporter by ignoring everything. It's the
// default when Deps doesn't specify one.
type discardReporter struct{}

func (discardReporter) Sent(uint16, int, bool)            {}
func (discardReporter) Received(ResponseType, uint16, int) {}
func (discardReporter) ReceivedOther()                     {}
func (discardReporter) RetransmissionConsidered(uint16, int) {}
func (discardReporter) NoResponse(uint16, int)             {}
func (discardReporter) Anomaly(string, ...any)             {}
func (discardReporter) Debug(string, ...any)               {}
