package schedule

import (
	"math/rand/v2"
	"time"
)

// Random is the randomness collaborator. *rand.Rand from math/rand/v2
// satisfies it; tests pass a seeded one.
type Random interface {
	IntN(n int) int
	Perm(n int) []int
}

// NewRandom returns a deterministic source for the given seed.
func NewRandom(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewTimeSeededRandom is used when no seed is configured.
func NewTimeSeededRandom() *rand.Rand {
	return NewRandom(uint64(time.Now().UnixNano()))
}

// sampleWeekdays picks k distinct weekdays uniformly at random.
func sampleWeekdays(r Random, k int) []Weekday {
	perm := r.Perm(DaysInWeek)
	out := make([]Weekday, k)
	for i := 0; i < k; i++ {
		out[i] = Weekdays[perm[i]]
	}
	return out
}

func chooseShift(r Random, labels []ShiftLabel) ShiftLabel {
	return labels[r.IntN(len(labels))]
}
