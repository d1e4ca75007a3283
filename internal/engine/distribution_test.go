package engine

import "testing"

func TestHopsProbabilityDistributionSumsToRoughly100(t *testing.T) {
	var sum float64
	for _, p := range hopsProbabilityDistribution {
		sum += p
	}
	if sum < 99 || sum > 101 {
		t.Errorf("distribution sums to %v, want ~100", sum)
	}
}

func TestSelectFromDistributionBoundaries(t *testing.T) {
	candidates := []int{3, 5, 6, 7, 22}
	if got := selectFromDistribution(0, candidates); got != candidates[0] {
		t.Errorf("position 0 = %d, want %d", got, candidates[0])
	}
	if got := selectFromDistribution(1, candidates); got != candidates[len(candidates)-1] {
		t.Errorf("position 1 = %d, want %d", got, candidates[len(candidates)-1])
	}
}

func TestSelectFromDistributionSingleCandidate(t *testing.T) {
	if got := selectFromDistribution(0.5, []int{42}); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}
