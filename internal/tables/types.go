// types.go
package tables

// RawTables is one YAML reference-table file. Every section is optional in a
// set file; missing cells fall back to the default file.
type RawTables struct {
	Version         string               `yaml:"version"`
	AppearanceRates map[int]map[int]*int `yaml:"appearance_rates,omitempty"` // level -> cost -> percent
	Pools           map[int]PoolConfig   `yaml:"pools,omitempty"`            // cost -> composition
	Shop            *ShopConfig          `yaml:"shop,omitempty"`
	Notes           string               `yaml:"notes,omitempty"`
}

type PoolConfig struct {
	CopiesPerUnit *int `yaml:"copies_per_unit"`
	UnitTypes     *int `yaml:"unit_types"`
}

type ShopConfig struct {
	RerollCost *int `yaml:"reroll_cost"`
}
