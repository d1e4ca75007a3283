package engine

// Deps bundles the capabilities the engine is driven through. Transport,
// Builder, and Parser have no default, so callers (cmd/archtester in
// production, the sim-backed tests otherwise) decide what's real; a nil
// Clock or Reporter falls back to the system clock or a discarding
// reporter (see New).
type Deps struct {
	Transport PacketTransport
	Builder   PacketBuilder
	Parser    PacketParser
	Clock     Clock
	Reporter  Reporter
}

// Engine runs the adaptive hop-search algorithm against one destination.
// It holds all of the mutable state for a single run: the probe table, the
// learned interval, the bucket of outstanding probe slots, and the TTL
// selector's position. An Engine is single-use; call New for each run.
type Engine struct {
	cfg *Config

	transport PacketTransport
	builder   PacketBuilder
	parser    PacketParser
	clock     Clock
	reporter  Reporter

	table *probeTable
	iv    interval
	bkt   *bucket

	probesSent int
	currentTTL int
	seq        uint16
}

// New builds an Engine ready to Run. cfg may be nil to take every default;
// deps' zero-value fields fall back to the real clock and a discarding
// reporter, but Transport, Builder, and Parser have no usable default and
// must be supplied.
func New(cfg *Config, deps Deps) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = systemClock{}
	}
	reporter := deps.Reporter
	if reporter == nil {
		reporter = discardReporter{}
	}

	return &Engine{
		cfg:        cfg,
		transport:  deps.Transport,
		builder:    deps.Builder,
		parser:     deps.Parser,
		clock:      clock,
		reporter:   reporter,
		table:      newProbeTable(),
		iv:         newInterval(cfg.maxTTL()),
		bkt:        newBucket(cfg.parallel()),
		currentTTL: cfg.startTTL() - 1,
	}
}
