package engine

import "testing"

// fixedRand always returns the same Intn result, for deterministic tests of
// the random algorithm.
type fixedRand struct{ n int }

func (f fixedRand) Intn(int) int     { return f.n }
func (f fixedRand) Float64() float64 { return 0 }

func newTestEngine(cfg *Config) *Engine {
	return New(cfg, Deps{})
}

func TestSelectSequential(t *testing.T) {
	e := newTestEngine(&Config{Algorithm: Sequential, StartTTL: 1, MaxTTL: 10})
	got := e.selectTTL(1)
	if got != 1 {
		t.Fatalf("first ttl = %d, want 1", got)
	}
	e.probesSent++
	got = e.selectTTL(1)
	if got != 2 {
		t.Errorf("second ttl = %d, want 2", got)
	}
}

func TestSelectReverseSequential(t *testing.T) {
	e := newTestEngine(&Config{Algorithm: ReverseSequential, MaxTTL: 10})
	got := e.selectTTL(1)
	if got != 10 {
		t.Fatalf("first ttl = %d, want 10", got)
	}
	e.probesSent++
	got = e.selectTTL(1)
	if got != 9 {
		t.Errorf("second ttl = %d, want 9", got)
	}
}

func TestSelectSequentialReadjustsWhenOutOfRange(t *testing.T) {
	e := newTestEngine(&Config{Algorithm: Sequential, MaxTTL: 10})
	e.currentTTL = 20
	e.probesSent = 1
	got := e.selectTTL(1)
	if got != e.iv.min {
		t.Errorf("got %d, want readjusted to min %d", got, e.iv.min)
	}
}

func TestSelectRandomWithinRange(t *testing.T) {
	e := newTestEngine(&Config{Algorithm: Random, MaxTTL: 10, Rand: fixedRand{n: 3}})
	got := e.selectTTL(1)
	want := e.iv.min + 3
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestBestInitialGuessClamps(t *testing.T) {
	if got := bestInitialGuess(1, 255); got != typicalInternetHopCount+1 {
		t.Errorf("got %d, want %d", got, typicalInternetHopCount+1)
	}
	if got := bestInitialGuess(1, 3); got != 3 {
		t.Errorf("got %d, want clamped to 3", got)
	}
	if got := bestInitialGuess(10, 20); got != 10 {
		t.Errorf("got %d, want clamped to 10", got)
	}
}

func TestSelectBinarySearchFirstProbeUsesLikelyGuess(t *testing.T) {
	e := newTestEngine(&Config{Algorithm: BinarySearch, MaxTTL: 255})
	got := e.selectTTL(1)
	if got != typicalInternetHopCount+1 {
		t.Errorf("got %d, want %d", got, typicalInternetHopCount+1)
	}
}

func TestSelectBinarySearchPlainPartitioning(t *testing.T) {
	e := newTestEngine(&Config{Algorithm: BinarySearch, MaxTTL: 255, PlainDistribution: true})
	e.probesSent = 1 // skip the single first-probe guess
	got := e.bestBinarySearchValue(1, 10, 1)
	available := e.table.untestedInRange(1, 10)
	want := available[len(available)/2]
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}
