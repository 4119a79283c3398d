package odds

// Distribution is a probability mass function over copies obtained:
// d[k] is the chance of ending with exactly k copies.
type Distribution []float64

// Outcome is one (copies, probability) pair.
type Outcome struct {
	Copies      int     `json:"copies"`
	Probability float64 `json:"probability"`
}

// Outcomes lists the distribution as ordered pairs.
func (d Distribution) Outcomes() []Outcome {
	out := make([]Outcome, len(d))
	for k, p := range d {
		out[k] = Outcome{Copies: k, Probability: p}
	}
	return out
}

// Slots is the highest reachable copy count.
func (d Distribution) Slots() int { return len(d) - 1 }

// Sum adds every probability; 1 within rounding for a complete distribution.
func (d Distribution) Sum() float64 {
	var s float64
	for _, p := range d {
		s += p
	}
	return s
}

// AtLeast is P(copies >= k).
func (d Distribution) AtLeast(k int) float64 {
	if k <= 0 {
		return d.Sum()
	}
	var s float64
	for i := k; i < len(d); i++ {
		s += d[i]
	}
	return s
}

// Prefix keeps copy counts 0..maxCopies. The full distribution is untouched.
func (d Distribution) Prefix(maxCopies int) Distribution {
	if maxCopies < 0 || maxCopies >= len(d) {
		return append(Distribution(nil), d...)
	}
	return append(Distribution(nil), d[:maxCopies+1]...)
}

// Mode is the most likely copy count; ties go to the smaller count.
func (d Distribution) Mode() int {
	best := 0
	for k, p := range d {
		if p > d[best] {
			best = k
		}
	}
	return best
}
