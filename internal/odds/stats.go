package odds

import (
	"math"
	"sort"
)

// Stats summarizes a copy-count distribution or a set of simulated samples.
type Stats struct {
	Mean   float64 `json:"mean"`
	Var    float64 `json:"var"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
}

// Summarize computes moments and percentiles of d. Percentiles are the
// smallest copy count whose cumulative probability reaches the level.
func Summarize(d Distribution) Stats {
	if len(d) == 0 {
		return Stats{}
	}
	var mean float64
	for k, p := range d {
		mean += float64(k) * p
	}
	var variance float64
	for k, p := range d {
		diff := float64(k) - mean
		variance += diff * diff * p
	}
	if variance < 0 {
		variance = 0
	}
	return Stats{
		Mean:   mean,
		Var:    variance,
		StdDev: math.Sqrt(variance),
		P50:    float64(d.Quantile(0.50)),
		P90:    float64(d.Quantile(0.90)),
		P99:    float64(d.Quantile(0.99)),
	}
}

// Quantile is the smallest k with P(copies <= k) >= q.
func (d Distribution) Quantile(q float64) int {
	if len(d) == 0 {
		return 0
	}
	// absorb the rounding left over from summing many small terms
	const slack = 1e-12
	var cum float64
	for k, p := range d {
		cum += p
		if cum+slack >= q {
			return k
		}
	}
	return len(d) - 1
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	// mean
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Mean:   mean,
		Var:    variance,
		StdDev: math.Sqrt(variance),
		P50:    percentile(0.50),
		P90:    percentile(0.90),
		P99:    percentile(0.99),
	}
}
