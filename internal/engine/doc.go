// Package engine implements the adaptive hop-search algorithm: the
// probe-scheduling state machine that narrows an inclusive [minHops, maxHops]
// interval by sending ICMPv4 Echo Requests at varying TTLs and interpreting
// the Echo Replies, Time Exceeded, and Destination Unreachable messages that
// come back.
//
// The engine never touches a socket directly. It's driven entirely through
// the PacketTransport and Clock capabilities, which makes it possible to run
// the whole state machine against a scripted network in tests.
package engine
