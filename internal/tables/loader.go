package tables

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultSet names the base file every set is merged onto.
const DefaultSet = "default"

var ErrUnknownSet = errors.New("unknown table set")

// Paths helper for default/set files.
type Paths struct {
	BaseDir string // e.g., /etc/reroll-odds/tables
}

func (p Paths) DefaultPath() string {
	return filepath.Join(p.BaseDir, DefaultSet+".yaml")
}

func (p Paths) SetPath(set string) string {
	return filepath.Join(p.BaseDir, "sets", set+".yaml")
}

func (p Paths) SetsDir() string {
	return filepath.Join(p.BaseDir, "sets")
}

// Merged is a set file merged onto the default file.
type Merged struct {
	Raw         RawTables
	Fingerprint string // hash of the bytes both files contributed
}

// Loader reads YAML table files and merges default -> set.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]Merged // key: set name
	gen   uint64            // bumped by Invalidate

	testHookRead func() // runs between reading files and caching them
}

// NewLoader creates a table loader rooted at baseDir.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]Merged),
	}
}

func (l *Loader) Paths() Paths { return l.paths }

// LoadMerged loads the default file and, for any other set, merges the set
// file on top. A named set without a file is ErrUnknownSet.
func (l *Loader) LoadMerged(set string) (Merged, error) {
	if set == "" {
		set = DefaultSet
	}
	if strings.ContainsAny(set, `/\`) || strings.HasPrefix(set, ".") {
		return Merged{}, fmt.Errorf("%w: %q", ErrUnknownSet, set)
	}

	l.mu.RLock()
	if m, ok := l.cache[set]; ok {
		l.mu.RUnlock()
		return m, nil
	}
	gen := l.gen
	l.mu.RUnlock()

	h := sha256.New()
	defRaw, defBytes, found, err := readYAML(l.paths.DefaultPath())
	if err != nil {
		return Merged{}, fmt.Errorf("read default: %w", err)
	}
	if !found {
		return Merged{}, fmt.Errorf("read default: %s does not exist", l.paths.DefaultPath())
	}
	h.Write(defBytes)

	merged := defRaw
	if set != DefaultSet {
		setRaw, setBytes, found, err := readYAML(l.paths.SetPath(set))
		if err != nil {
			return Merged{}, fmt.Errorf("read set %s: %w", set, err)
		}
		if !found {
			return Merged{}, fmt.Errorf("%w: %q", ErrUnknownSet, set)
		}
		h.Write(setBytes)
		merged = mergeRaw(defRaw, setRaw)
	}

	m := Merged{Raw: merged, Fingerprint: hex.EncodeToString(h.Sum(nil))[:12]}
	if l.testHookRead != nil {
		l.testHookRead()
	}

	l.mu.Lock()
	// files read before an Invalidate must not repopulate the cache
	if l.gen == gen {
		l.cache[set] = m
	}
	l.mu.Unlock()
	return m, nil
}

// Sets lists the default set plus every file under sets/.
func (l *Loader) Sets() ([]string, error) {
	out := []string{DefaultSet}
	entries, err := os.ReadDir(l.paths.SetsDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".yaml" {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".yaml"))
	}
	sort.Strings(names)
	return append(out, names...), nil
}

// WatchPaths are the files whose changes should trigger a reload.
func (l *Loader) WatchPaths() []string {
	paths := []string{l.paths.DefaultPath()}
	sets, err := l.Sets()
	if err != nil {
		return paths
	}
	for _, s := range sets[1:] {
		paths = append(paths, l.paths.SetPath(s))
	}
	return paths
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]Merged)
	l.gen++
}

// readYAML loads a YAML file. A missing file reports found=false, no error.
func readYAML(path string) (RawTables, []byte, bool, error) {
	var raw RawTables
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawTables{}, nil, false, nil
		}
		return RawTables{}, nil, false, err
	}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return RawTables{}, nil, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return raw, b, true, nil
}

// mergeRaw overlays b onto a cell by cell: every value b sets wins.
func mergeRaw(a, b RawTables) RawTables {
	out := RawTables{
		Version: a.Version,
		Notes:   a.Notes,
	}
	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	// appearance rates
	out.AppearanceRates = make(map[int]map[int]*int, len(a.AppearanceRates))
	for _, src := range []map[int]map[int]*int{a.AppearanceRates, b.AppearanceRates} {
		for level, row := range src {
			if out.AppearanceRates[level] == nil {
				out.AppearanceRates[level] = make(map[int]*int, len(row))
			}
			for cost, pct := range row {
				if pct != nil {
					v := *pct
					out.AppearanceRates[level][cost] = &v
				}
			}
		}
	}

	// pools
	out.Pools = make(map[int]PoolConfig, len(a.Pools))
	for cost, p := range a.Pools {
		out.Pools[cost] = p
	}
	for cost, p := range b.Pools {
		cur := out.Pools[cost]
		if p.CopiesPerUnit != nil {
			cur.CopiesPerUnit = p.CopiesPerUnit
		}
		if p.UnitTypes != nil {
			cur.UnitTypes = p.UnitTypes
		}
		out.Pools[cost] = cur
	}

	// shop
	switch {
	case b.Shop != nil && b.Shop.RerollCost != nil:
		c := *b.Shop
		out.Shop = &c
	case a.Shop != nil:
		c := *a.Shop
		out.Shop = &c
	}

	return out
}
