package engine

import "time"

// Algorithm selects the strategy used by the TTL selector to pick the next
// hop count to probe.
type Algorithm int

// Values for Algorithm.
const (
	// BinarySearch is the default: a hybrid of a prior-weighted binary
	// search and a short initial run biased toward the hop counts most real
	// Internet paths fall in.
	BinarySearch Algorithm = iota

	// Sequential starts at StartTTL and increments by one each probe.
	Sequential

	// ReverseSequential starts at MaxTTL and decrements by one each probe.
	ReverseSequential

	// Random draws a uniformly random untested TTL from [minHops, maxHops].
	Random
)

func (a Algorithm) String() string {
	switch a {
	case BinarySearch:
		return "binarysearch"
	case Sequential:
		return "sequential"
	case ReverseSequential:
		return "reversesequential"
	case Random:
		return "random"
	default:
		return "unknown"
	}
}

// Default configuration values, ported from HOPPING_* constants in the
// original tool.
const (
	DefaultStartTTL  = 1
	DefaultMaxTTL    = 255
	DefaultMaxProbes = 50
	DefaultMaxTries  = 3
	DefaultParallel  = 1

	// MaxProbes is the hard capacity of the probe table: a dense 16-bit id
	// space, capped well below 65536 so a linear scan for a free slot stays
	// cheap.
	MaxProbes = 256

	initialRetransmissionTimeout = 500 * time.Millisecond
	maxRetransmissionTimeout     = 20 * time.Second
	retransmissionBackoffFactor  = 2

	typicalInternetHopCount    = 5
	typicalInternetMinHopCount = 3
	typicalInternetMaxHopCount = 22
	typicalHopCountTries       = 4

	pollSleep = 10 * time.Millisecond
)

// Config holds the tunable parameters for a single Run. Zero values are
// replaced with the defaults documented on each field.
type Config struct {
	// StartTTL is the first TTL probed by the sequential algorithms.
	// Defaults to 1.
	StartTTL int

	// MaxTTL bounds the TTL range ever probed, and seeds the initial
	// interval's upper bound. Defaults to 255.
	MaxTTL int

	// MaxProbes is the total number of probes (including retransmissions)
	// that may be sent before giving up. Defaults to 50.
	MaxProbes int

	// MaxTries is the number of attempts (original + retransmissions) made
	// at a single TTL before it's marked unreachable. Defaults to 3.
	MaxTries int

	// Parallel is the number of probes allowed to be outstanding at once.
	// Defaults to 1.
	Parallel int

	// ProbePacing, when nonzero, is the minimum spacing between new probes.
	// It overrides the idle poll duration so new probes are paced apart.
	ProbePacing time.Duration

	// ICMPDataLength is the number of payload bytes appended after the
	// 8-byte ICMP Echo header. Defaults to 0.
	ICMPDataLength int

	// Algorithm selects the TTL selector strategy. Defaults to
	// BinarySearch.
	Algorithm Algorithm

	// LikelyCandidates enables the binary search algorithm's bias toward
	// typical Internet hop counts for its first few probes. Defaults to
	// true; set NoLikelyCandidates to disable.
	LikelyCandidates bool
	NoLikelyCandidates bool

	// ProbabilisticDistribution selects the prior-weighted candidate
	// picker over the plain index-based one for binary search. Defaults to
	// true; set PlainDistribution to disable.
	ProbabilisticDistribution bool
	PlainDistribution         bool

	// PreferRetransmissionsOverNewProbes, when true, always retransmits a
	// stalled probe rather than spending the token on a fresh TTL. Defaults
	// to false (new-probe priority).
	PreferRetransmissionsOverNewProbes bool

	// Readjust controls whether the sequential algorithms snap back into
	// [minHops, maxHops] once they learn it. Defaults to true; set
	// NoReadjust to disable.
	Readjust   bool
	NoReadjust bool

	// Rand supplies randomness for the random algorithm. The binary search
	// pickers, probabilistic or plain, are deterministic and never draw
	// from it. Defaults to a process-seeded source; inject a deterministic
	// one in tests.
	Rand Rand
}

// Rand is the minimal randomness capability the engine needs. *rand.Rand
// satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

func (c *Config) startTTL() int {
	if c == nil || c.StartTTL == 0 {
		return DefaultStartTTL
	}
	return c.StartTTL
}

func (c *Config) maxTTL() int {
	if c == nil || c.MaxTTL == 0 {
		return DefaultMaxTTL
	}
	return c.MaxTTL
}

func (c *Config) maxProbes() int {
	if c == nil || c.MaxProbes == 0 {
		return DefaultMaxProbes
	}
	return c.MaxProbes
}

func (c *Config) maxTries() int {
	if c == nil || c.MaxTries == 0 {
		return DefaultMaxTries
	}
	return c.MaxTries
}

func (c *Config) parallel() int {
	if c == nil || c.Parallel == 0 {
		return DefaultParallel
	}
	return c.Parallel
}

func (c *Config) likelyCandidates() bool {
	if c == nil {
		return true
	}
	if c.NoLikelyCandidates {
		return false
	}
	return true
}

func (c *Config) probabilisticDistribution() bool {
	if c == nil {
		return true
	}
	if c.PlainDistribution {
		return false
	}
	return true
}

func (c *Config) readjust() bool {
	if c == nil {
		return true
	}
	if c.NoReadjust {
		return false
	}
	return true
}

func (c *Config) rand() Rand {
	if c == nil || c.Rand == nil {
		return defaultRand
	}
	return c.Rand
}
