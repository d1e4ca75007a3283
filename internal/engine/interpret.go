package engine

// interpretResponse applies one parsed transport response to the probe
// table and the learned interval, and reports it through the Reporter. It
// is the only place that mutates interval bounds outside of sendProbe's
// bookkeeping.
func (e *Engine) interpretResponse(resp ParsedResponse) {
	if !resp.Ok {
		e.reporter.Anomaly("discarding malformed response")
		return
	}
	if int(resp.ProbeID) >= len(e.table.slots) {
		e.reporter.Anomaly("response for out-of-range probe id %d", resp.ProbeID)
		return
	}

	p := &e.table.slots[resp.ProbeID]
	if !p.used {
		e.reporter.Anomaly("response for unknown probe id %d", resp.ProbeID)
		e.reporter.ReceivedOther()
		return
	}
	if p.responded {
		p.duplicateResponses++
		e.reporter.Debug("duplicate response for probe %d at ttl %d", p.id, p.hops)
		return
	}

	p.responded = true
	p.responseType = resp.Type
	p.responseLength = resp.Length
	p.responseTime = e.clock.Now()
	p.delay = p.responseTime.Sub(p.sentTime)

	e.bkt.release()
	e.reporter.Received(resp.Type, p.id, p.hops)

	switch resp.Type {
	case EchoResponse:
		if anomaly := e.iv.applyEchoReply(p.hops, resp.ReceivedTTL); anomaly {
			e.reporter.Anomaly("echo reply at ttl %d (received ttl %d) contradicts learned minimum %d", p.hops, resp.ReceivedTTL, e.iv.min)
		}
	case DestinationUnreachable:
		// Recorded only for reachability; it says nothing about the real
		// hop count, so [min,max] is left untouched.
	case TimeExceeded:
		e.iv.applyTimeExceeded(p.hops)
	}
}
