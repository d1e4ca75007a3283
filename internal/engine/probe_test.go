package engine

import (
	"testing"
	"time"
)

func TestProbeTableAllocate(t *testing.T) {
	table := newProbeTable()
	clock := systemClock{}
	now := time.Unix(0, 0)

	id, err := table.allocate(5, 0, now, noProbe, clock)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	p, ok := table.find(uint16(id))
	if !ok {
		t.Fatal("expected to find freshly allocated probe")
	}
	if p.hops != 5 {
		t.Errorf("hops = %d, want 5", p.hops)
	}
	if got, want := p.initialTimeout.Sub(p.sentTime), initialRetransmissionTimeout; got != want {
		t.Errorf("initial timeout = %v, want %v", got, want)
	}
}

func TestProbeTableAllocateChainBacksOff(t *testing.T) {
	table := newProbeTable()
	clock := systemClock{}
	now := time.Unix(0, 0)

	first, err := table.allocate(5, 0, now, noProbe, clock)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	second, err := table.allocate(5, 0, now, first, clock)
	if err != nil {
		t.Fatalf("allocate retransmission: %v", err)
	}

	firstTimeout := table.slots[first].initialTimeout.Sub(table.slots[first].sentTime)
	secondTimeout := table.slots[second].initialTimeout.Sub(table.slots[second].sentTime)
	if secondTimeout != firstTimeout*retransmissionBackoffFactor {
		t.Errorf("second timeout = %v, want %v", secondTimeout, firstTimeout*retransmissionBackoffFactor)
	}
	if table.slots[first].nextRetransmission != second {
		t.Errorf("nextRetransmission = %d, want %d", table.slots[first].nextRetransmission, second)
	}
	if table.retries(second) != 2 {
		t.Errorf("retries = %d, want 2", table.retries(second))
	}
}

func TestProbeTableExhausted(t *testing.T) {
	table := newProbeTable()
	clock := systemClock{}
	now := time.Unix(0, 0)

	for i := 0; i < MaxProbes; i++ {
		if _, err := table.allocate(1, 0, now, noProbe, clock); err != nil {
			t.Fatalf("allocate #%d: %v", i, err)
		}
	}
	if _, err := table.allocate(1, 0, now, noProbe, clock); err != ErrProbeTableExhausted {
		t.Errorf("err = %v, want ErrProbeTableExhausted", err)
	}
}

func TestProbeTableFindExcludesResponded(t *testing.T) {
	table := newProbeTable()
	id, _ := table.allocate(1, 0, time.Unix(0, 0), noProbe, systemClock{})
	table.slots[id].responded = true
	if _, ok := table.find(uint16(id)); ok {
		t.Error("find should exclude already-responded probes")
	}
}

func TestUntestedInRange(t *testing.T) {
	table := newProbeTable()
	table.allocate(3, 0, time.Unix(0, 0), noProbe, systemClock{})
	table.allocate(5, 0, time.Unix(0, 0), noProbe, systemClock{})

	got := table.untestedInRange(1, 6)
	want := []int{1, 2, 4, 6}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestMarkChainTimedOut(t *testing.T) {
	table := newProbeTable()
	first, _ := table.allocate(5, 0, time.Unix(0, 0), noProbe, systemClock{})
	second, _ := table.allocate(5, 0, time.Unix(0, 0), first, systemClock{})
	third, _ := table.allocate(5, 0, time.Unix(0, 0), second, systemClock{})

	table.markChainTimedOut(third)
	for _, id := range []int{first, second, third} {
		if table.slots[id].responseType != NoResponse {
			t.Errorf("slot %d responseType = %v, want NoResponse", id, table.slots[id].responseType)
		}
	}
}
