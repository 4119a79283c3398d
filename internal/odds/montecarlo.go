package odds

import "context"

// Simulation is the outcome of repeated independent shop sessions.
type Simulation struct {
	Trials int
	Stats  Stats
	// Empirical holds the observed frequency of each copy count.
	Empirical Distribution
}

// simulateOne plays one session of params.Slots independent slots and
// returns how many of them showed the target.
func simulateOne(params Params, rng RandomSource) (int, error) {
	if params.Exhausted {
		return 0, nil
	}
	count := 0
	for i := 0; i < params.Slots; i++ {
		hit, err := Draw(params.P, rng)
		if err != nil {
			return 0, err
		}
		if hit {
			count++
		}
	}
	return count, nil
}

// Simulate samples the same fixed-p slot model the analytic distribution
// describes. A nil rng uses the crypto source. It stops early with ctx's
// error once ctx is done.
func (e *Engine) Simulate(ctx context.Context, q Query, trials int, rng RandomSource) (Simulation, error) {
	params := e.Params(q)
	if trials <= 0 {
		return Simulation{Empirical: make(Distribution, params.Slots+1)}, nil
	}
	if rng == nil {
		rng = DefaultRNG()
	}

	samples := make([]int, trials)
	counts := make([]int, params.Slots+1)
	for i := 0; i < trials; i++ {
		if err := ctx.Err(); err != nil {
			return Simulation{}, err
		}
		v, err := simulateOne(params, rng)
		if err != nil {
			return Simulation{}, err
		}
		samples[i] = v
		counts[v]++
	}

	empirical := make(Distribution, len(counts))
	for k, c := range counts {
		empirical[k] = float64(c) / float64(trials)
	}
	return Simulation{
		Trials:    trials,
		Stats:     calcStats(samples),
		Empirical: empirical,
	}, nil
}
