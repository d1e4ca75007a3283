package main

import (
	"log"
	"net"

	"github.com/pcekm/archtester/internal/engine"
	"github.com/pcekm/archtester/internal/resolve"
)

// cliReporter renders engine.Reporter notifications as progress/debug lines
// on the standard logger, following the -progress/-quiet/-detailed-progress/
// -debug flags.
type cliReporter struct {
	progress bool
	detailed bool
	debug    bool
	dest     net.IP
}

func newCLIReporter(f *flags, dest net.IP) *cliReporter {
	return &cliReporter{
		progress: f.progress && !f.quiet,
		detailed: f.detailedProgress && !f.quiet,
		debug:    f.debug,
		dest:     dest,
	}
}

func (r *cliReporter) peerName(ttl int) string {
	if !r.detailed {
		return ""
	}
	return " (" + resolve.Addr(r.dest) + ")"
}

func (r *cliReporter) Sent(id uint16, ttl int, retransmit bool) {
	if !r.progress {
		return
	}
	if retransmit {
		log.Printf("probe %d: retransmitting at ttl %d", id, ttl)
	} else {
		log.Printf("probe %d: sent at ttl %d", id, ttl)
	}
}

func (r *cliReporter) Received(respType engine.ResponseType, id uint16, ttl int) {
	if !r.progress {
		return
	}
	log.Printf("probe %d: %s at ttl %d%s", id, respType, ttl, r.peerName(ttl))
}

func (r *cliReporter) ReceivedOther() {
	if r.debug {
		log.Printf("received an unrelated or invalid packet")
	}
}

func (r *cliReporter) RetransmissionConsidered(id uint16, ttl int) {
	if r.debug {
		log.Printf("probe %d: timer fired at ttl %d, choosing whether to retransmit", id, ttl)
	}
}

func (r *cliReporter) NoResponse(id uint16, ttl int) {
	if r.progress {
		log.Printf("probe %d: no response at ttl %d, giving up on this chain", id, ttl)
	}
}

func (r *cliReporter) Anomaly(format string, args ...any) {
	log.Printf("anomaly: "+format, args...)
}

func (r *cliReporter) Debug(format string, args ...any) {
	if r.debug {
		log.Printf("debug: "+format, args...)
	}
}
