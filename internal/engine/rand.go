package engine

import (
	"math/rand"
	"time"
)

// defaultRand backs Config.Rand when the caller doesn't inject one. Seeded
// once at process start, mirroring the original tool's srand(time(0)).
var defaultRand Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
