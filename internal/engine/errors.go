package engine

import "errors"

var (
	// ErrProbeTableExhausted is returned when a 257th probe would be needed
	// but the probe table (capacity MaxProbes) has no free slots left.
	ErrProbeTableExhausted = errors.New("engine: probe table exhausted")

	// ErrInterrupted is returned when the run context was cancelled before
	// the interval converged or the probe budget ran out. It is not treated
	// as a failure: the outcome up to the point of cancellation is still
	// returned alongside it.
	ErrInterrupted = errors.New("engine: interrupted")
)
