package service

import (
	"github.com/xtding233/reroll-odds/internal/tables"
)

// TablesView is the reference data behind one table set.
type TablesView struct {
	Set             string              `json:"set"`
	Version         string              `json:"version"`
	Sets            []string            `json:"sets"`
	AppearanceRates map[int]map[int]int `json:"appearance_rates"`
	Pools           map[int]PoolView    `json:"pools"`
	RerollCost      int                 `json:"reroll_cost"`
}

type PoolView struct {
	CopiesPerUnit int `json:"copies_per_unit"`
	UnitTypes     int `json:"unit_types"`
	Total         int `json:"total"`
}

// SetLister is implemented by resolvers that can enumerate their sets.
type SetLister interface {
	Sets() ([]string, error)
}

// Tables describes the named set ("" for the default).
func (e *Evaluator) Tables(set string) (TablesView, error) {
	if set == "" {
		set = e.opts.DefaultSet
	}
	snap, err := e.tables.Resolve(set)
	if err != nil {
		return TablesView{}, err
	}
	t := snap.Engine.Tables()

	view := TablesView{
		Set:             snap.Set,
		Version:         snap.Version,
		AppearanceRates: t.Percents(),
		Pools:           make(map[int]PoolView),
		RerollCost:      t.RerollCost(),
	}
	for cost, p := range t.Pools() {
		view.Pools[cost] = PoolView{CopiesPerUnit: p.CopiesPerUnit, UnitTypes: p.UnitTypes, Total: p.Total()}
	}
	if l, ok := e.tables.(SetLister); ok {
		sets, err := l.Sets()
		if err != nil {
			return TablesView{}, err
		}
		view.Sets = sets
	} else {
		view.Sets = []string{snap.Set}
	}
	return view, nil
}

var (
	_ tables.Resolver = (*tables.Registry)(nil)
	_ SetLister       = (*tables.Registry)(nil)
)
