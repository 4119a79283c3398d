package tables

import (
	"fmt"
	"sync"

	"github.com/xtding233/reroll-odds/internal/logger"
	"github.com/xtding233/reroll-odds/internal/odds"
)

// BuiltinVersion tags snapshots built from the compiled-in tables.
const BuiltinVersion = "builtin"

// Snapshot is one immutable, ready-to-query table set.
type Snapshot struct {
	Set         string
	Version     string
	Fingerprint string
	Engine      *odds.Engine
}

// CacheTag identifies the exact table contents behind a snapshot.
func (s *Snapshot) CacheTag() string {
	return s.Set + "@" + s.Version + "#" + s.Fingerprint
}

// Resolver hands out engines by table-set name.
type Resolver interface {
	Resolve(set string) (*Snapshot, error)
}

// Registry resolves set names to snapshots. With a nil loader it serves only
// the built-in default set.
type Registry struct {
	loader *Loader

	mu    sync.RWMutex
	snaps map[string]*Snapshot
	gen   uint64 // bumped by every successful Reload

	testHookBuilt func() // runs between building a snapshot and storing it
}

func NewRegistry(loader *Loader) *Registry {
	return &Registry{
		loader: loader,
		snaps:  make(map[string]*Snapshot),
	}
}

// Resolve returns the snapshot for set ("" means the default set).
func (r *Registry) Resolve(set string) (*Snapshot, error) {
	if set == "" {
		set = DefaultSet
	}

	for {
		r.mu.RLock()
		s, ok := r.snaps[set]
		gen := r.gen
		r.mu.RUnlock()
		if ok {
			return s, nil
		}

		s, err := r.build(set)
		if err != nil {
			return nil, err
		}
		if r.testHookBuilt != nil {
			r.testHookBuilt()
		}

		r.mu.Lock()
		if r.gen != gen {
			// a reload swapped the tables while we read the files; s may be stale
			r.mu.Unlock()
			continue
		}
		// another caller may have built it first; keep theirs
		if existing, ok := r.snaps[set]; ok {
			s = existing
		} else {
			r.snaps[set] = s
		}
		r.mu.Unlock()
		return s, nil
	}
}

func (r *Registry) build(set string) (*Snapshot, error) {
	if r.loader == nil {
		if set != DefaultSet {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSet, set)
		}
		return &Snapshot{
			Set:         DefaultSet,
			Version:     BuiltinVersion,
			Fingerprint: BuiltinVersion,
			Engine:      odds.NewEngine(odds.DefaultTables()),
		}, nil
	}

	m, err := r.loader.LoadMerged(set)
	if err != nil {
		return nil, err
	}
	t, err := Build(m.Raw)
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", set, err)
	}
	version := m.Raw.Version
	if version == "" {
		version = "unversioned"
	}
	logger.Info("table set loaded", "set", set, "version", version, "fingerprint", m.Fingerprint)
	return &Snapshot{
		Set:         set,
		Version:     version,
		Fingerprint: m.Fingerprint,
		Engine:      odds.NewEngine(t),
	}, nil
}

// Sets lists the available table sets.
func (r *Registry) Sets() ([]string, error) {
	if r.loader == nil {
		return []string{DefaultSet}, nil
	}
	return r.loader.Sets()
}

// Reload rereads every set and swaps the new snapshots in only if all of them
// build. On error the previous snapshots keep serving. Snapshots already
// handed out stay valid either way.
func (r *Registry) Reload() error {
	if r.loader == nil {
		return nil
	}
	r.loader.Invalidate()

	sets, err := r.loader.Sets()
	if err != nil {
		logger.Error("table reload failed, keeping previous tables", "error", err)
		return err
	}
	fresh := make(map[string]*Snapshot, len(sets))
	for _, set := range sets {
		s, err := r.build(set)
		if err != nil {
			logger.Error("table reload failed, keeping previous tables", "set", set, "error", err)
			return err
		}
		fresh[set] = s
	}

	r.mu.Lock()
	r.snaps = fresh
	r.gen++
	r.mu.Unlock()
	logger.Info("table sets reloaded", "sets", len(fresh))
	return nil
}

// Warm resolves every known set so broken files surface at startup.
func (r *Registry) Warm() error {
	sets, err := r.Sets()
	if err != nil {
		return err
	}
	for _, s := range sets {
		if _, err := r.Resolve(s); err != nil {
			return err
		}
	}
	return nil
}
