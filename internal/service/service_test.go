package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/xtding233/reroll-odds/internal/cache"
	"github.com/xtding233/reroll-odds/internal/odds"
	"github.com/xtding233/reroll-odds/internal/tables"
)

func intp(v int) *int { return &v }

func newEvaluator(c cache.Cache) *Evaluator {
	return New(tables.NewRegistry(nil), Options{
		MaxTrials: 50000,
		MaxDraws:  10_000_000,
		Cache:     c,
		NewRNG:    func() odds.RandomSource { return odds.NewSeededRNG(3) },
	})
}

func TestEvaluateFullDistributionTruncatedForDisplay(t *testing.T) {
	ev := newEvaluator(nil)
	resp, err := ev.Evaluate(context.Background(), Request{
		Level: 9, Cost: 5, Rerolls: intp(20), MaxCopies: intp(3),
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(resp.Outcomes) != 4 || !resp.Truncated {
		t.Fatalf("outcomes=%d truncated=%v", len(resp.Outcomes), resp.Truncated)
	}
	if resp.Slots != 100 {
		t.Fatalf("slots=%d", resp.Slots)
	}
	if math.Abs(resp.Total-1) > 1e-6 {
		t.Fatalf("total=%v, full distribution must still sum to 1", resp.Total)
	}
	if math.Abs(resp.HitChance-0.0125) > 1e-15 || resp.TierRate != 0.1 {
		t.Fatalf("hit chance=%v tier rate=%v", resp.HitChance, resp.TierRate)
	}
	if math.Abs(resp.Expected-1.25) > 1e-12 {
		t.Fatalf("expected=%v want 1.25", resp.Expected)
	}
	if math.Abs(resp.AtLeastOne-(1-resp.Outcomes[0].Probability)) > 1e-9 {
		t.Fatalf("at least one=%v, P(0)=%v", resp.AtLeastOne, resp.Outcomes[0].Probability)
	}
	if resp.Gold != 40 || resp.Set != "default" || resp.Version != tables.BuiltinVersion {
		t.Fatalf("gold=%d set=%s version=%s", resp.Gold, resp.Set, resp.Version)
	}
}

func TestEvaluateGoldBudget(t *testing.T) {
	ev := newEvaluator(nil)
	resp, err := ev.Evaluate(context.Background(), Request{Level: 8, Cost: 4, Gold: intp(41)})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if resp.Query.Rerolls != 20 || resp.Gold != 40 {
		t.Fatalf("rerolls=%d gold=%d", resp.Query.Rerolls, resp.Gold)
	}
	if len(resp.Outcomes) != 101 || resp.Truncated {
		t.Fatalf("outcomes=%d truncated=%v", len(resp.Outcomes), resp.Truncated)
	}
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	ev := newEvaluator(nil)
	tests := []struct {
		name string
		req  Request
		frag string
	}{
		{"no budget", Request{Level: 9, Cost: 5}, "one of rerolls or gold"},
		{"both budgets", Request{Level: 9, Cost: 5, Rerolls: intp(1), Gold: intp(2)}, "mutually exclusive"},
		{"negative rerolls", Request{Level: 9, Cost: 5, Rerolls: intp(-1)}, "rerolls must be >= 0"},
		{"negative gold", Request{Level: 9, Cost: 5, Gold: intp(-1)}, "gold must be >= 0"},
		{"negative target", Request{Level: 9, Cost: 5, Rerolls: intp(1), PurchasedTarget: -1}, "purchased_target"},
		{"negative other", Request{Level: 9, Cost: 5, Rerolls: intp(1), PurchasedOther: -1}, "purchased_other"},
		{"level", Request{Level: 12, Cost: 5, Rerolls: intp(1)}, "level must be in"},
		{"too many rerolls", Request{Level: 9, Cost: 5, Rerolls: intp(MaxRerolls + 1)}, "rerolls must be <= 10000"},
		{"too much gold", Request{Level: 9, Cost: 5, Gold: intp(1 << 30)}, "gold must buy at most"},
		{"too many draws", Request{Level: 9, Cost: 5, Rerolls: intp(MaxRerolls), Trials: 50000}, "trials*slots must be <= 10000000"},
		{"too many draws for gold", Request{Level: 9, Cost: 5, Gold: intp(20000), Trials: 50000}, "trials*slots must be <= 10000000"},
		{"max copies", Request{Level: 9, Cost: 5, Rerolls: intp(1), MaxCopies: intp(-1)}, "max_copies"},
		{"too many trials", Request{Level: 9, Cost: 5, Rerolls: intp(1), Trials: 50001}, "trials must be <= 50000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ev.Evaluate(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("err=%v, want ErrInvalidRequest", err)
			}
			if !strings.Contains(err.Error(), tt.frag) {
				t.Fatalf("err=%q missing %q", err, tt.frag)
			}
		})
	}
}

func TestEvaluateUnknownSet(t *testing.T) {
	ev := newEvaluator(nil)
	_, err := ev.Evaluate(context.Background(), Request{Set: "nope", Level: 9, Cost: 5, Rerolls: intp(1)})
	if !errors.Is(err, tables.ErrUnknownSet) {
		t.Fatalf("err=%v, want ErrUnknownSet", err)
	}
}

func TestEvaluateUsesCache(t *testing.T) {
	mem := cache.NewMemory(16)
	ev := newEvaluator(mem)
	req := Request{Level: 7, Cost: 3, Rerolls: intp(10), PurchasedTarget: 2}

	first, err := ev.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached || mem.Len() != 1 {
		t.Fatalf("first call cached=%v len=%d", first.Cached, mem.Len())
	}
	second, err := ev.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Fatal("second call should be served from cache")
	}
	for k := range first.Outcomes {
		if first.Outcomes[k] != second.Outcomes[k] {
			t.Fatalf("outcome %d differs: %v vs %v", k, first.Outcomes[k], second.Outcomes[k])
		}
	}
}

func TestEvaluateWithSimulation(t *testing.T) {
	ev := newEvaluator(nil)
	resp, err := ev.Evaluate(context.Background(), Request{
		Level: 9, Cost: 4, Rerolls: intp(10), MaxCopies: intp(3), Trials: 20000,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Simulation == nil || resp.Simulation.Trials != 20000 {
		t.Fatalf("simulation=%+v", resp.Simulation)
	}
	if len(resp.Simulation.Outcomes) != 4 {
		t.Fatalf("simulated outcomes=%d", len(resp.Simulation.Outcomes))
	}
	if resp.Simulation.MaxAbsErr > 0.02 {
		t.Fatalf("simulation drifted from analytic result: %v", resp.Simulation.MaxAbsErr)
	}
}

func TestTablesView(t *testing.T) {
	ev := newEvaluator(nil)
	view, err := ev.Tables("")
	if err != nil {
		t.Fatal(err)
	}
	if view.AppearanceRates[9][5] != 10 || view.Pools[5].Total != 72 || view.RerollCost != 2 {
		t.Fatalf("view=%+v", view)
	}
	if len(view.Sets) != 1 || view.Sets[0] != "default" {
		t.Fatalf("sets=%v", view.Sets)
	}
}

func TestValidateCapsSimulationWork(t *testing.T) {
	ev := New(tables.NewRegistry(nil), Options{MaxTrials: 100000, MaxDraws: 50_000_000})
	err := ev.Validate(Request{Level: 9, Cost: 5, Rerolls: intp(MaxRerolls), Trials: 100000})
	if !errors.Is(err, ErrInvalidRequest) || !strings.Contains(err.Error(), "got 5000000000") {
		t.Fatalf("err=%v, want the draw cap to reject 5e9 draws", err)
	}
	if err := ev.Validate(Request{Level: 9, Cost: 5, Rerolls: intp(MaxRerolls)}); err != nil {
		t.Fatalf("analytic-only request rejected: %v", err)
	}
	if err := ev.Validate(Request{Level: 9, Cost: 5, Rerolls: intp(100), Trials: 100000}); err != nil {
		t.Fatalf("5e7 draws should pass: %v", err)
	}
}

func TestEvaluateSimulationHonoursCancel(t *testing.T) {
	ev := newEvaluator(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ev.Evaluate(ctx, Request{Level: 9, Cost: 5, Rerolls: intp(10), Trials: 1000})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}
