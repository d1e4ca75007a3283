package engine

import "context"

// shouldContinueSending reports whether the engine is still allowed to put
// a brand new TTL on the wire: the interval hasn't converged and the probe
// budget isn't spent.
func (e *Engine) shouldContinueSending() bool {
	if e.iv.converged() {
		return false
	}
	return e.probesSent < e.cfg.maxProbes()
}

// hasActiveProbes reports whether any probe is still waiting on a response
// (sent, not yet responded, and not yet given up on).
func (e *Engine) hasActiveProbes() bool {
	for i := range e.table.slots {
		p := &e.table.slots[i]
		if p.used && !p.responded && p.responseType != NoResponse {
			return true
		}
	}
	return false
}

// shouldContinueSendingOrWaiting reports whether the main loop has any more
// work to do: either it may still send, or something it already sent is
// still outstanding.
func (e *Engine) shouldContinueSendingOrWaiting() bool {
	return e.shouldContinueSending() || e.hasActiveProbes()
}

// fillBucket spends every available bucket token on a fresh TTL, as long as
// shouldContinueSending allows it.
func (e *Engine) fillBucket() error {
	for e.bkt.canTake() && e.shouldContinueSending() {
		ttl := e.selectTTL(e.bkt.n)
		if _, err := e.sendProbe(ttl, noProbe); err != nil {
			return err
		}
	}
	return nil
}

// sendProbe allocates a probe table entry for ttl, optionally chained off
// prior (the probe being retransmitted, or noProbe for a fresh send), builds
// the wire packet, and hands it to the transport. It returns the new
// probe's table id.
func (e *Engine) sendProbe(ttl int, prior int) (int, error) {
	now := e.clock.Now()
	id, err := e.table.allocate(ttl, e.cfg.ICMPDataLength, now, prior, e.clock)
	if err != nil {
		return noProbe, err
	}

	seq := e.nextSeq()
	pkt, err := e.builder.Build(uint16(id), seq, ttl, e.cfg.ICMPDataLength)
	if err != nil {
		return noProbe, err
	}
	if err := e.transport.Send(pkt); err != nil {
		return noProbe, err
	}

	e.bkt.take()
	e.probesSent++
	e.currentTTL = ttl
	e.reporter.Sent(uint16(id), ttl, prior != noProbe)
	return id, nil
}

func (e *Engine) nextSeq() uint16 {
	e.seq++
	return e.seq
}

// pollReceive makes one non-blocking-ish attempt to read a response from
// the transport, bounded by the poll interval (ProbePacing when set,
// otherwise pollSleep), and interprets it if one arrived. A context
// deadline/cancellation from the bounded sub-context is treated as "nothing
// arrived this tick", not an error.
func (e *Engine) pollReceive(ctx context.Context) error {
	wait := pollSleep
	if e.cfg.ProbePacing > 0 {
		wait = e.cfg.ProbePacing
	}
	pollCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	b, err := e.transport.Recv(pollCtx)
	if err != nil {
		if pollCtx.Err() != nil {
			return nil
		}
		return err
	}

	resp, err := e.parser.Parse(b)
	if err != nil {
		e.reporter.Debug("discarding packet: %v", err)
		e.reporter.ReceivedOther()
		return nil
	}
	e.interpretResponse(resp)
	return nil
}

// processTimeouts walks every active probe whose retransmission timer has
// fired and either retransmits it, diverts its slot to a fresh TTL instead,
// or gives up on its whole chain once maxTries has been exhausted. This is
// the scheduler arbitration at the heart of the adaptive search: every
// expired timer is a choice between resending a stalled probe and spending
// that same opportunity on new information.
func (e *Engine) processTimeouts() error {
	now := e.clock.Now()
	for i := range e.table.slots {
		p := &e.table.slots[i]
		if !p.used || p.responded || p.responseType == NoResponse {
			continue
		}
		if p.nextRetransmission != noProbe {
			continue
		}
		if now.Before(p.initialTimeout) {
			continue
		}

		id := int(p.id)
		if e.table.retries(id) >= e.cfg.maxTries() {
			e.table.markChainTimedOut(id)
			e.reporter.NoResponse(p.id, p.hops)
			e.bkt.release()
			continue
		}

		if e.preferNewProbeOver(id) {
			e.reporter.RetransmissionConsidered(p.id, p.hops)
			newTTL := e.selectTTL(1)
			newID, err := e.sendProbe(newTTL, noProbe)
			if err != nil {
				return err
			}

			// Back off this probe's own timer per the usual exponential
			// backoff rules, so it's reconsidered later instead of being
			// stuck waiting forever on a timeout that already fired.
			prevTimeout := p.initialTimeout.Sub(p.sentTime)
			newTimeout := prevTimeout * retransmissionBackoffFactor
			if newTimeout > maxRetransmissionTimeout {
				newTimeout = maxRetransmissionTimeout
			}
			e.table.slots[id].newProbeSentInsteadOfRetransmission = newID
			e.table.slots[id].initialTimeout = p.sentTime.Add(newTimeout)

			e.bkt.release()
			continue
		}

		// The expired send's token is being renewed, not spent twice:
		// release it before sendProbe takes a fresh one for the resend.
		e.bkt.release()
		if _, err := e.sendProbe(p.hops, id); err != nil {
			return err
		}
	}
	return nil
}

// preferNewProbeOver decides, for the probe at table index id whose timer
// just fired, whether its retransmission slot should instead be spent on an
// untested TTL. This only makes sense when there's still something useful
// left to send and the caller hasn't pinned priority to retransmissions.
func (e *Engine) preferNewProbeOver(id int) bool {
	// Only ever divert a probe's slot once; a probe that's already been
	// diverted falls through to an ordinary retransmit or a timeout on its
	// next reconsideration.
	if e.table.slots[id].newProbeSentInsteadOfRetransmission != noProbe {
		return false
	}
	if e.cfg.PreferRetransmissionsOverNewProbes {
		return false
	}
	if !e.shouldContinueSending() {
		return false
	}
	return len(e.table.untestedInRange(e.iv.min, e.iv.max)) > 0
}

// Run drives the engine to completion: it sends, receives, and retransmits
// until the interval converges, the probe budget is exhausted, or ctx is
// cancelled.
func (e *Engine) Run(ctx context.Context) (Outcome, error) {
	for e.shouldContinueSendingOrWaiting() {
		select {
		case <-ctx.Done():
			return e.outcome(), ErrInterrupted
		default:
		}

		if err := e.fillBucket(); err != nil {
			return e.outcome(), err
		}
		if err := e.pollReceive(ctx); err != nil {
			return e.outcome(), err
		}
		if err := e.processTimeouts(); err != nil {
			return e.outcome(), err
		}
	}
	return e.outcome(), nil
}
