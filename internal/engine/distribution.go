package engine

// hopsProbabilityDistribution is the a-priori likelihood (in percent) that a
// real Internet path has exactly N hops, indexed by TTL. Ported verbatim
// from original_source/hopping.c's hopsprobabilitydistribution[256] table so
// the probabilistic selector's numeric behavior matches the original tool.
// The table sums to ~100.00 (tolerance accounted for by normalizing at use
// time); index 0 is unused since TTLs start at 1.
var hopsProbabilityDistribution = [256]float64{
	0.050000, 1.000000, 1.000000, 3.000000, 5.000000, 9.910000, 9.910000, 9.910000,
	9.910000, 5.000000, 5.000000, 5.000000, 3.000000, 3.000000, 3.000000, 1.000000,
	1.000000, 1.000000, 1.000000, 1.000000, 1.000000, 1.000000, 1.000000, 0.650000,
	0.650000, 0.650000, 0.650000, 0.650000, 0.650000, 0.650000, 0.650000, 0.650000,
	0.650000, 0.650000, 0.109308, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
	0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000, 0.050000,
}

// selectFromDistribution picks the element of candidates whose cumulative,
// normalized probability mass first reaches probabilityPosition. A
// probabilityPosition of 0 picks the first (lowest-TTL) candidate with
// nonzero probability; 1.0 picks the last.
//
// This mirrors hopping_selectfromdistribution: normalize so the candidates'
// probabilities sum to 1.0, then walk the cumulative sum until it reaches
// the requested position.
func selectFromDistribution(probabilityPosition float64, candidates []int) int {
	var sum float64
	for _, ttl := range candidates {
		sum += hopsProbabilityDistribution[ttl]
	}
	if sum <= 0 {
		return candidates[0]
	}

	var cum float64
	for i, ttl := range candidates {
		cum += hopsProbabilityDistribution[ttl] / sum
		if cum >= probabilityPosition || i == len(candidates)-1 {
			return ttl
		}
	}
	return candidates[len(candidates)-1]
}
