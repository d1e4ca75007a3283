package engine

import "testing"

func TestIntervalConverged(t *testing.T) {
	iv := interval{min: 5, max: 5}
	if !iv.converged() {
		t.Error("want converged")
	}
	iv.max = 6
	if iv.converged() {
		t.Error("want not converged")
	}
}

func TestApplyEchoReply(t *testing.T) {
	cases := []struct {
		name               string
		iv                 interval
		sentTTL, recvTTL   int
		wantMax            int
		wantAnomaly        bool
	}{
		{"tightens to sent ttl", interval{min: 1, max: 30}, 10, 64 - 10, 10, false},
		{"kivinen tighter than sent", interval{min: 1, max: 30}, 20, 250, 6, false},
		{"never loosens", interval{min: 1, max: 5}, 10, 250, 5, false},
		{"contradicts known minimum", interval{min: 10, max: 30}, 5, 60, 10, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			iv := c.iv
			anomaly := iv.applyEchoReply(c.sentTTL, c.recvTTL)
			if anomaly != c.wantAnomaly {
				t.Errorf("anomaly = %v, want %v", anomaly, c.wantAnomaly)
			}
			if iv.max != c.wantMax {
				t.Errorf("max = %d, want %d", iv.max, c.wantMax)
			}
		})
	}
}

func TestApplyTimeExceeded(t *testing.T) {
	iv := interval{min: 1, max: 30}
	iv.applyTimeExceeded(5)
	if iv.min != 6 {
		t.Errorf("min = %d, want 6", iv.min)
	}
	iv.applyTimeExceeded(3) // stale, lower than learned min; must not loosen
	if iv.min != 6 {
		t.Errorf("min regressed to %d after stale time exceeded", iv.min)
	}
	iv.applyTimeExceeded(255)
	if iv.min != 6 {
		t.Errorf("min changed at boundary ttl 255: got %d", iv.min)
	}
}
