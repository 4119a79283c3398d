package odds

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	MinLevel = 1
	MaxLevel = 10
	MinCost  = 1
	MaxCost  = 5

	// SlotsPerReroll is how many shop slots one reroll refreshes.
	SlotsPerReroll = 5

	// DefaultRerollCost is the gold price of one reroll.
	DefaultRerollCost = 2
)

var ErrInvalidTables = errors.New("invalid reference tables")

// Pool describes one cost tier's shared pool.
type Pool struct {
	CopiesPerUnit int // physical copies of each distinct unit
	UnitTypes     int // distinct units sharing the tier
}

// Total is the number of cards in the tier when nothing has been bought.
func (p Pool) Total() int { return p.CopiesPerUnit * p.UnitTypes }

// Tables holds the appearance-rate and pool-composition reference data.
// A Tables value is never mutated after NewTables returns; every accessor
// reads from private copies.
type Tables struct {
	rates      map[int]map[int]float64 // level -> cost -> fraction in [0,1]
	percents   map[int]map[int]int     // level -> cost -> percentage as configured
	pools      map[int]Pool
	totals     map[int]int
	rerollCost int
}

// NewTables copies and checks the given reference data. Appearance rates are
// percentages (0..100); each configured level must sum to 100.
func NewTables(percents map[int]map[int]int, pools map[int]Pool, rerollCost int) (Tables, error) {
	var errs []string

	t := Tables{
		rates:      make(map[int]map[int]float64, len(percents)),
		percents:   make(map[int]map[int]int, len(percents)),
		pools:      make(map[int]Pool, len(pools)),
		totals:     make(map[int]int, len(pools)),
		rerollCost: rerollCost,
	}

	for _, level := range sortedKeys(percents) {
		row := percents[level]
		sum := 0
		t.rates[level] = make(map[int]float64, len(row))
		t.percents[level] = make(map[int]int, len(row))
		for _, cost := range sortedKeys(row) {
			pct := row[cost]
			if pct < 0 || pct > 100 {
				errs = append(errs, fmt.Sprintf("level %d cost %d: rate %d outside 0..100", level, cost, pct))
			}
			sum += pct
			t.percents[level][cost] = pct
			t.rates[level][cost] = float64(pct) / 100.0
		}
		if sum != 100 {
			errs = append(errs, fmt.Sprintf("level %d: rates sum to %d, want 100", level, sum))
		}
	}

	for _, cost := range sortedKeys(pools) {
		p := pools[cost]
		if p.CopiesPerUnit < 1 || p.UnitTypes < 1 {
			errs = append(errs, fmt.Sprintf("cost %d: pool values must be >= 1", cost))
		}
		t.pools[cost] = p
		t.totals[cost] = p.Total()
	}

	if rerollCost < 1 {
		errs = append(errs, "reroll cost must be >= 1")
	}

	if len(errs) > 0 {
		return Tables{}, fmt.Errorf("%w: %s", ErrInvalidTables, strings.Join(errs, "; "))
	}
	return t, nil
}

// DefaultTables returns the built-in reference data.
func DefaultTables() Tables {
	t, err := NewTables(defaultPercents(), defaultPools(), DefaultRerollCost)
	if err != nil {
		panic(err)
	}
	return t
}

// TierRate is the chance (0..1) that one slot rolls the given cost at the
// given level. Unknown keys read as 0.
func (t Tables) TierRate(level, cost int) float64 {
	return t.rates[level][cost]
}

// Percent is the configured appearance percentage, 0 for unknown keys.
func (t Tables) Percent(level, cost int) int {
	return t.percents[level][cost]
}

// Pool returns the composition of a cost tier.
func (t Tables) Pool(cost int) (Pool, bool) {
	p, ok := t.pools[cost]
	return p, ok
}

// TotalPool is copiesPerUnit * unitTypes for cost, 0 if the tier is unknown.
func (t Tables) TotalPool(cost int) int {
	return t.totals[cost]
}

// RerollCost is the gold price of one reroll.
func (t Tables) RerollCost() int {
	if t.rerollCost < 1 {
		return DefaultRerollCost
	}
	return t.rerollCost
}

// Levels lists configured levels in ascending order.
func (t Tables) Levels() []int { return sortedKeys(t.percents) }

// Costs lists configured cost tiers in ascending order.
func (t Tables) Costs() []int { return sortedKeys(t.pools) }

// Percents returns a copy of the appearance table as percentages.
func (t Tables) Percents() map[int]map[int]int {
	out := make(map[int]map[int]int, len(t.percents))
	for level, row := range t.percents {
		cp := make(map[int]int, len(row))
		for cost, pct := range row {
			cp[cost] = pct
		}
		out[level] = cp
	}
	return out
}

// Pools returns a copy of the pool composition table.
func (t Tables) Pools() map[int]Pool {
	out := make(map[int]Pool, len(t.pools))
	for cost, p := range t.pools {
		out[cost] = p
	}
	return out
}

func defaultPercents() map[int]map[int]int {
	return map[int]map[int]int{
		1:  {1: 100, 2: 0, 3: 0, 4: 0, 5: 0},
		2:  {1: 100, 2: 0, 3: 0, 4: 0, 5: 0},
		3:  {1: 75, 2: 25, 3: 0, 4: 0, 5: 0},
		4:  {1: 55, 2: 30, 3: 15, 4: 0, 5: 0},
		5:  {1: 45, 2: 33, 3: 20, 4: 2, 5: 0},
		6:  {1: 35, 2: 35, 3: 25, 4: 5, 5: 0},
		7:  {1: 19, 2: 30, 3: 35, 4: 15, 5: 1},
		8:  {1: 15, 2: 25, 3: 35, 4: 20, 5: 5},
		9:  {1: 10, 2: 15, 3: 30, 4: 35, 5: 10},
		10: {1: 5, 2: 10, 3: 20, 4: 40, 5: 25},
	}
}

func defaultPools() map[int]Pool {
	return map[int]Pool{
		1: {CopiesPerUnit: 30, UnitTypes: 14},
		2: {CopiesPerUnit: 25, UnitTypes: 13},
		3: {CopiesPerUnit: 18, UnitTypes: 13},
		4: {CopiesPerUnit: 10, UnitTypes: 12},
		5: {CopiesPerUnit: 9, UnitTypes: 8},
	}
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
