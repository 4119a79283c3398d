package tables

import (
	"fmt"
	"strings"

	"github.com/xtding233/reroll-odds/internal/odds"
)

// ValidateRaw checks a merged table file before it is turned into odds.Tables.
func ValidateRaw(raw RawTables) error {
	var errs []string

	// appearance_rates
	for level := odds.MinLevel; level <= odds.MaxLevel; level++ {
		row, ok := raw.AppearanceRates[level]
		if !ok {
			errs = append(errs, fmt.Sprintf("appearance_rates.%d is missing", level))
			continue
		}
		sum := 0
		for cost := odds.MinCost; cost <= odds.MaxCost; cost++ {
			pct, ok := row[cost]
			if !ok || pct == nil {
				errs = append(errs, fmt.Sprintf("appearance_rates.%d.%d is missing", level, cost))
				continue
			}
			if *pct < 0 || *pct > 100 {
				errs = append(errs, fmt.Sprintf("appearance_rates.%d.%d must be in [0,100]", level, cost))
			}
			sum += *pct
		}
		if sum != 100 {
			errs = append(errs, fmt.Sprintf("appearance_rates.%d must sum to 100 (got %d)", level, sum))
		}
		for cost := range row {
			if cost < odds.MinCost || cost > odds.MaxCost {
				errs = append(errs, fmt.Sprintf("appearance_rates.%d.%d: cost must be in [%d,%d]", level, cost, odds.MinCost, odds.MaxCost))
			}
		}
	}
	for level := range raw.AppearanceRates {
		if level < odds.MinLevel || level > odds.MaxLevel {
			errs = append(errs, fmt.Sprintf("appearance_rates.%d: level must be in [%d,%d]", level, odds.MinLevel, odds.MaxLevel))
		}
	}

	// pools
	for cost := odds.MinCost; cost <= odds.MaxCost; cost++ {
		p, ok := raw.Pools[cost]
		if !ok {
			errs = append(errs, fmt.Sprintf("pools.%d is missing", cost))
			continue
		}
		if p.CopiesPerUnit == nil || *p.CopiesPerUnit < 1 {
			errs = append(errs, fmt.Sprintf("pools.%d.copies_per_unit must be >= 1", cost))
		}
		if p.UnitTypes == nil || *p.UnitTypes < 1 {
			errs = append(errs, fmt.Sprintf("pools.%d.unit_types must be >= 1", cost))
		}
	}
	for cost := range raw.Pools {
		if cost < odds.MinCost || cost > odds.MaxCost {
			errs = append(errs, fmt.Sprintf("pools.%d: cost must be in [%d,%d]", cost, odds.MinCost, odds.MaxCost))
		}
	}

	// shop (optional)
	if raw.Shop != nil && raw.Shop.RerollCost != nil && *raw.Shop.RerollCost < 1 {
		errs = append(errs, "shop.reroll_cost must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("table validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Build validates raw and converts it into immutable odds.Tables.
func Build(raw RawTables) (odds.Tables, error) {
	if err := ValidateRaw(raw); err != nil {
		return odds.Tables{}, err
	}

	percents := make(map[int]map[int]int, len(raw.AppearanceRates))
	for level, row := range raw.AppearanceRates {
		percents[level] = make(map[int]int, len(row))
		for cost, pct := range row {
			percents[level][cost] = *pct
		}
	}
	pools := make(map[int]odds.Pool, len(raw.Pools))
	for cost, p := range raw.Pools {
		pools[cost] = odds.Pool{CopiesPerUnit: *p.CopiesPerUnit, UnitTypes: *p.UnitTypes}
	}
	rerollCost := odds.DefaultRerollCost
	if raw.Shop != nil && raw.Shop.RerollCost != nil {
		rerollCost = *raw.Shop.RerollCost
	}
	return odds.NewTables(percents, pools, rerollCost)
}
