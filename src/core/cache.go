// Target interning: at most one *Target exists per identity tuple within
// a context. The cache is keyed by a structural hash of the tuple with
// collision resolution by full-tuple compare (§4.2), implemented as a
// sharded concurrent map to keep MATCH-phase insertions lock-free across
// shards, following the same design as cmap.Map.

package core

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/thistledown/zymurgy/src/cmap"
)

// targetKey is the identity tuple a Target is keyed on.
type targetKey struct {
	tt     *TargetType
	outDir string
	srcDir string
	name   Name
	ext    string
}

func (k targetKey) hash() uint32 {
	h := xxhash.New()
	fmt.Fprintf(h, "%p|%s|%s|%s|%s|%s|%s|%s|%s",
		k.tt, k.outDir, k.srcDir, k.name.Subrepo, k.name.Dir, k.name.Type, k.name.Simple, k.name.Ext, k.ext)
	return uint32(h.Sum64())
}

// A TargetCache interns targets by identity key: inserting a tuple
// already present returns the existing target, atomically (§4.2
// invariant). It is the context's exclusive owner of every Target;
// external holders keep bare pointers.
type TargetCache struct {
	m *cmap.Map[targetKey, *Target]

	revMu   debugMutex
	revDeps map[*Target]map[*Target]bool // to -> set of targets that depend on it
}

// NewTargetCache constructs an empty target cache.
func NewTargetCache() *TargetCache {
	return &TargetCache{
		m:       cmap.New[targetKey, *Target](cmap.DefaultShardCount, targetKey.hash),
		revDeps: make(map[*Target]map[*Target]bool),
	}
}

// addReverseDependency records that from depends on to, so that to's
// ReverseDependencies includes from. Grounded on please's BuildGraph.
// revDeps map, simplified here because prerequisite resolution always
// has both live target pointers in hand (no pending/label-based
// bookkeeping is needed: targets are interned by the cache before any
// prerequisite can reference them).
func (c *TargetCache) addReverseDependency(from, to *Target) {
	if from == nil || to == nil || from == to {
		return
	}
	c.revMu.Lock()
	defer c.revMu.Unlock()
	set, ok := c.revDeps[to]
	if !ok {
		set = make(map[*Target]bool)
		c.revDeps[to] = set
	}
	set[from] = true
}

// ReverseDependencies returns every target currently known to depend on
// t, sorted by name for deterministic diagnostics output.
func (c *TargetCache) ReverseDependencies(t *Target) []*Target {
	c.revMu.Lock()
	defer c.revMu.Unlock()
	set := c.revDeps[t]
	out := make([]*Target, 0, len(set))
	for dep := range set {
		out = append(out, dep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name.String() < out[j].Name.String() })
	return out
}

// Find is a pure read: it returns the target for the tuple if present,
// or nil if not.
func (c *TargetCache) Find(tt *TargetType, outDir, srcDir string, name Name, ext string) *Target {
	key := targetKey{tt, outDir, srcDir, name, ext}
	t, wait := c.m.Get(key)
	if wait != nil {
		return nil
	}
	return t
}

// FindTyped is the type-narrowed find described in §4.2: it returns the
// target for the tuple only if its dynamic type is-a want.
func (c *TargetCache) FindTyped(tt *TargetType, outDir, srcDir string, name Name, ext string, want *TargetType) *Target {
	t := c.Find(tt, outDir, srcDir, name, ext)
	if t != nil && !t.Type.IsA(want) {
		return nil
	}
	return t
}

// Insert is the atomic get-or-create: it returns the existing target for
// the tuple if one is already present, otherwise constructs one via
// tt.Factory, inserts it, and returns it with isNew=true. Safe to call
// concurrently with the same tuple from multiple goroutines: exactly one
// caller observes isNew=true (§8 invariant 1).
func (c *TargetCache) Insert(tt *TargetType, outDir, srcDir string, name Name, ext string) (target *Target, isNew bool) {
	key := targetKey{tt, outDir, srcDir, name, ext}
	candidate := tt.Factory(tt, outDir, srcDir, name)
	candidate.Ext = ext
	if c.m.Set(key, candidate) {
		return candidate, true
	}
	existing, wait := c.m.Get(key)
	if wait != nil {
		// Another goroutine's Set is in flight; block until it lands.
		<-wait
		existing, _ = c.m.Get(key)
	}
	return existing, false
}

// All returns every target currently interned. No ordering guarantee;
// callers that need determinism (eg. diagnostics) sort by Name.
func (c *TargetCache) All() []*Target {
	return c.m.Values()
}
