package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/xtding233/reroll-odds/internal/odds"
)

// DefaultMemoryEntries bounds the in-process cache when no size is given.
// A single entry holds up to service.MaxRerolls*5+1 floats.
const DefaultMemoryEntries = 256

// Memory is a bounded in-process LRU cache, used when no Redis address is
// configured.
type Memory struct {
	lru *lru.Cache[string, odds.Distribution]
}

func NewMemory(entries int) *Memory {
	if entries <= 0 {
		entries = DefaultMemoryEntries
	}
	c, err := lru.New[string, odds.Distribution](entries)
	if err != nil {
		// only reachable with a non-positive size
		panic(err)
	}
	return &Memory{lru: c}
}

func (m *Memory) Get(_ context.Context, key string) (odds.Distribution, bool, error) {
	d, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append(odds.Distribution(nil), d...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, d odds.Distribution) error {
	m.lru.Add(key, append(odds.Distribution(nil), d...))
	return nil
}

// Len reports how many distributions are stored.
func (m *Memory) Len() int {
	return m.lru.Len()
}
