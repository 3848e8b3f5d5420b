package services

import (
	"math/rand/v2"
	"sync"

	"dispatch/internal/pkg/errs"
)

const (
	// MinSafetyMargin and MaxSafetyMargin bound the multiplier applied to raw travel time.
	MinSafetyMargin = 1.10
	MaxSafetyMargin = 1.30
)

// SafetyMargin supplies the multiplier that pads travel time to absorb
// pickup, parking and traffic.
type SafetyMargin interface {
	Next() float64
}

// FixedMargin always returns the same multiplier. It makes ETAs deterministic.
type FixedMargin struct {
	value float64
}

// NewFixedMargin validates that value lies within [MinSafetyMargin, MaxSafetyMargin].
func NewFixedMargin(value float64) (FixedMargin, error) {
	if value < MinSafetyMargin || value > MaxSafetyMargin {
		return FixedMargin{}, errs.NewValueIsOutOfRangeError("safety margin", value, MinSafetyMargin, MaxSafetyMargin)
	}
	return FixedMargin{value: value}, nil
}

func (m FixedMargin) Next() float64 {
	return m.value
}

// RandomMargin draws a uniform multiplier in [MinSafetyMargin, MaxSafetyMargin]
// from a seeded PCG source. It is safe for concurrent use.
type RandomMargin struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomMargin returns a margin source that replays the same sequence for the same seed.
func NewRandomMargin(seed uint64) *RandomMargin {
	return &RandomMargin{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), //nolint:gosec // not security sensitive
	}
}

func (m *RandomMargin) Next() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MinSafetyMargin + m.rnd.Float64()*(MaxSafetyMargin-MinSafetyMargin)
}
