package aggregate

import (
	"math"
	"math/rand/v2"
	"slices"
)

// BootstrapIterations is the number of resamples drawn per interval.
const BootstrapIterations = 2000

// IntervalLevel is the confidence level used for Table intervals.
const IntervalLevel = 0.95

// Interval is a percentile bootstrap confidence interval around a mean rating.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Mean  float64 `json:"mean"`
	Level float64 `json:"level"`
}

// Contains reports whether v falls inside the interval, bounds included.
func (iv Interval) Contains(v float64) bool {
	return iv.Lower <= v && v <= iv.Upper
}

// BootstrapInterval resamples values with replacement and returns the percentile
// interval of the resampled means. Fewer than two values give a degenerate interval.
// The same seed and values always yield the same interval.
func BootstrapInterval(values []float64, level float64, seed uint64) Interval {
	m := Mean(values)
	n := len(values)
	if n < 2 {
		return Interval{Lower: m, Upper: m, Mean: m, Level: level}
	}

	rng := rand.New(rand.NewPCG(seed, uint64(n)))

	means := make([]float64, BootstrapIterations)
	sample := make([]float64, n)
	for i := range means {
		for j := range sample {
			sample[j] = values[rng.IntN(n)]
		}
		means[i] = Mean(sample)
	}
	slices.Sort(means)

	alpha := 1 - level
	lo := int(math.Floor(alpha / 2 * BootstrapIterations))
	hi := int(math.Floor((1 - alpha/2) * BootstrapIterations))
	if hi >= BootstrapIterations {
		hi = BootstrapIterations - 1
	}

	return Interval{Lower: means[lo], Upper: means[hi], Mean: m, Level: level}
}
