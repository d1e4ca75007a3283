package engine

// selectTTL picks the next TTL to probe, per the configured Algorithm.
// numberOfTests is how many parallel candidates the binary search picker
// should partition the remaining range into: the current bucket size when
// filling the bucket, or 1 when the scheduler is spending a retransmission
// slot on a fresh TTL instead (spec.md §4.3/§4.4).
func (e *Engine) selectTTL(numberOfTests int) int {
	switch e.cfg.Algorithm {
	case Sequential:
		return e.selectSequential()
	case ReverseSequential:
		return e.selectReverseSequential()
	case Random:
		return e.selectRandom()
	default:
		return e.selectBinarySearch(numberOfTests)
	}
}

func (e *Engine) selectSequential() int {
	if e.probesSent == 0 {
		e.currentTTL = e.cfg.startTTL()
	} else if e.currentTTL < 255 {
		e.currentTTL++
	}
	if e.currentTTL < e.iv.min || e.currentTTL > e.iv.max {
		e.currentTTL = e.readjustToLearnedRange(false)
	}
	return e.currentTTL
}

func (e *Engine) selectReverseSequential() int {
	if e.probesSent == 0 {
		e.currentTTL = e.cfg.maxTTL()
	} else if e.currentTTL > 1 {
		e.currentTTL--
	}
	if e.currentTTL < e.iv.min || e.currentTTL > e.iv.max {
		e.currentTTL = e.readjustToLearnedRange(true)
	}
	return e.currentTTL
}

// readjustToLearnedRange snaps currentTTL back into [min, max] when
// Readjust is enabled; otherwise it leaves currentTTL as computed, even
// though it now falls outside the learned interval.
func (e *Engine) readjustToLearnedRange(fromTop bool) int {
	if !e.cfg.readjust() {
		return e.currentTTL
	}
	if fromTop {
		return e.iv.max
	}
	return e.iv.min
}

func (e *Engine) selectRandom() int {
	span := e.iv.max - e.iv.min + 1
	for {
		candidate := e.iv.min + e.cfg.rand().Intn(span)
		if len(e.table.untestedInRange(e.iv.min, e.iv.max)) == 0 {
			// Every TTL in range has been probed; any draw is acceptable.
			return candidate
		}
		if !e.table.hasProbe(candidate) {
			return candidate
		}
	}
}

func (e *Engine) selectBinarySearch(numberOfTests int) int {
	if e.cfg.likelyCandidates() && e.probesSent == 0 {
		return bestInitialGuess(e.iv.min, e.iv.max)
	}
	if e.cfg.likelyCandidates() && e.respondedCount() == 0 && e.probesSent < typicalHopCountTries {
		return e.bestBinarySearchValue(typicalInternetMinHopCount, typicalInternetMaxHopCount, numberOfTests)
	}
	return e.bestBinarySearchValue(e.iv.min, e.iv.max, numberOfTests)
}

// bestInitialGuess returns a small constant biased toward where most real
// Internet paths sit, clamped into [from, to].
func bestInitialGuess(from, to int) int {
	selected := typicalInternetHopCount + 1
	if selected < from {
		selected = from
	}
	if selected > to {
		selected = to
	}
	return selected
}

// bestBinarySearchValue partitions the untested TTLs in [from, to] into
// numberOfTests+1 equal-probability (or equal-count) regions and returns the
// boundary nearest the first one.
func (e *Engine) bestBinarySearchValue(from, to, numberOfTests int) int {
	available := e.table.untestedInRange(from, to)
	if len(available) == 0 {
		// Nothing left untested in range; fall back to the midpoint so the
		// caller always gets a usable TTL rather than an empty pick.
		return (from + to) / 2
	}
	if numberOfTests < 1 {
		numberOfTests = 1
	}

	if e.cfg.probabilisticDistribution() {
		candidateProbabilityPosition := 1.0 / float64(numberOfTests+1)
		return selectFromDistribution(candidateProbabilityPosition, available)
	}

	idx := len(available) / (numberOfTests + 1)
	if idx >= len(available) {
		idx = len(available) - 1
	}
	return available[idx]
}

// respondedCount is the number of probes that have received a positive
// response so far, used by the binary search algorithm to decide whether
// it's still in its initial, response-free biasing phase.
func (e *Engine) respondedCount() int {
	n := 0
	for i := range e.table.slots {
		if e.table.slots[i].used && e.table.slots[i].responded {
			n++
		}
	}
	return n
}
