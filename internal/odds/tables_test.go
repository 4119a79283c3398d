package odds

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultTablesRowsSumToOne(t *testing.T) {
	tab := DefaultTables()
	if got := tab.Levels(); len(got) != 10 || got[0] != 1 || got[9] != 10 {
		t.Fatalf("levels=%v", got)
	}
	for _, level := range tab.Levels() {
		var sum float64
		for cost := MinCost; cost <= MaxCost; cost++ {
			sum += tab.TierRate(level, cost)
		}
		if sum < 1-1e-12 || sum > 1+1e-12 {
			t.Fatalf("level %d: rates sum to %v", level, sum)
		}
	}
}

func TestDefaultPoolTotals(t *testing.T) {
	tab := DefaultTables()
	want := map[int]int{1: 420, 2: 325, 3: 234, 4: 120, 5: 72}
	for cost, total := range want {
		if got := tab.TotalPool(cost); got != total {
			t.Errorf("cost %d: total=%d want %d", cost, got, total)
		}
	}
	if tab.TotalPool(6) != 0 {
		t.Errorf("unknown cost should have an empty pool")
	}
	if tab.RerollCost() != DefaultRerollCost {
		t.Errorf("reroll cost=%d", tab.RerollCost())
	}
}

func TestNewTablesCopiesInput(t *testing.T) {
	percents := map[int]map[int]int{1: {1: 60, 2: 40}}
	pools := map[int]Pool{1: {CopiesPerUnit: 3, UnitTypes: 2}, 2: {CopiesPerUnit: 2, UnitTypes: 2}}
	tab, err := NewTables(percents, pools, 1)
	if err != nil {
		t.Fatal(err)
	}
	percents[1][1] = 0
	pools[1] = Pool{CopiesPerUnit: 99, UnitTypes: 99}

	if tab.Percent(1, 1) != 60 || tab.TierRate(1, 1) != 0.6 {
		t.Fatalf("table changed with caller's map: %d", tab.Percent(1, 1))
	}
	if tab.TotalPool(1) != 6 {
		t.Fatalf("pool changed with caller's map: %d", tab.TotalPool(1))
	}

	out := tab.Percents()
	out[1][2] = 100
	if tab.Percent(1, 2) != 40 {
		t.Fatalf("Percents() leaked internal map")
	}
}

func TestNewTablesRejectsBadData(t *testing.T) {
	_, err := NewTables(
		map[int]map[int]int{1: {1: 90, 2: 20}, 2: {1: -5, 2: 105}},
		map[int]Pool{1: {CopiesPerUnit: 0, UnitTypes: 3}},
		0,
	)
	if !errors.Is(err, ErrInvalidTables) {
		t.Fatalf("err=%v, want ErrInvalidTables", err)
	}
	for _, frag := range []string{
		"level 1: rates sum to 110",
		"level 2 cost 1: rate -5",
		"level 2 cost 2: rate 105",
		"cost 1: pool values",
		"reroll cost",
	} {
		if !strings.Contains(err.Error(), frag) {
			t.Errorf("error %q missing %q", err, frag)
		}
	}
}
