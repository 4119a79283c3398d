package odds

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestSimulateTracksAnalyticDistribution(t *testing.T) {
	e := NewEngine(DefaultTables())
	q := Query{Level: 7, Cost: 3, Rerolls: 15}
	sim, err := e.Simulate(context.Background(), q, 20000, NewSeededRNG(7))
	if err != nil {
		t.Fatal(err)
	}
	want := e.Distribution(q)
	if len(sim.Empirical) != len(want) {
		t.Fatalf("empirical len=%d want %d", len(sim.Empirical), len(want))
	}
	if s := sim.Empirical.Sum(); math.Abs(s-1) > 1e-9 {
		t.Fatalf("empirical sum=%v", s)
	}
	for k := range want {
		if math.Abs(sim.Empirical[k]-want[k]) > 0.02 {
			t.Fatalf("P(%d): simulated %v, analytic %v", k, sim.Empirical[k], want[k])
		}
	}
	analytic := Summarize(want)
	if math.Abs(sim.Stats.Mean-analytic.Mean) > 0.05 {
		t.Fatalf("mean: simulated %v, analytic %v", sim.Stats.Mean, analytic.Mean)
	}
}

func TestSimulateExhaustedPool(t *testing.T) {
	e := NewEngine(DefaultTables())
	sim, err := e.Simulate(context.Background(), Query{Level: 9, Cost: 5, Rerolls: 4, PurchasedTarget: 9}, 100, NewSeededRNG(1))
	if err != nil {
		t.Fatal(err)
	}
	if sim.Empirical[0] != 1 || sim.Stats.Mean != 0 {
		t.Fatalf("got %+v", sim)
	}
}

func TestSimulateNoTrials(t *testing.T) {
	e := NewEngine(DefaultTables())
	sim, err := e.Simulate(context.Background(), Query{Level: 9, Cost: 5, Rerolls: 2}, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if sim.Trials != 0 || len(sim.Empirical) != 11 {
		t.Fatalf("got %+v", sim)
	}
}

func TestSimulateStopsWhenCancelled(t *testing.T) {
	e := NewEngine(DefaultTables())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Simulate(ctx, Query{Level: 9, Cost: 5, Rerolls: 10}, 1000, NewSeededRNG(1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
