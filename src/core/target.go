package core

import (
	"sync"
	"sync/atomic"
	"time"
)

// A Recipe is the callable a rule's Apply installs into a target's
// per-action slot; it performs one (action, target) and returns the
// resulting state, which must be one of Unchanged, Changed or Postponed
// (see §4.5; returning Failed is done by returning an error instead).
type Recipe func(action Action, target *Target) (TargetState, error)

// actionSlot is one of a target's two per-action state slots (inner and
// outer, see §3). It holds everything match/execute need to run a
// recipe at most once and let later observers see the cached result.
type actionSlot struct {
	state   atomic.Int32 // TargetState
	epoch   atomic.Uint64
	recipe  Recipe
	matched atomic.Bool

	mu               debugMutex // serializes match and execute for this slot
	resolvedPrereqs  []*Target
	postponedAlready bool
	executing        bool
	lastErr          error         // set alongside a Failed state
	chain            atomic.Value  // []*Target: the ancestor chain currently executing this slot
	done             chan struct{} // closed once execute has produced a terminal state
}

func newActionSlot() *actionSlot {
	return &actionSlot{done: make(chan struct{})}
}

func (s *actionSlot) State() TargetState {
	return TargetState(s.state.Load())
}

func (s *actionSlot) setState(st TargetState) {
	s.state.Store(int32(st))
}

// A Group is a target that other targets can be "members of" (the
// Target.Group back-pointer, §3). A see-through group lifts its
// prerequisites to its members during certain operations (eg. install);
// see TargetType.SeeThrough.
type Group struct {
	mu      sync.Mutex
	members []*Target
}

// AddMember records t as a member of g. LOAD-only.
func (g *Group) AddMember(t *Target) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members = append(g.members, t)
}

// Members returns the current member list.
func (g *Group) Members() []*Target {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Target, len(g.members))
	copy(out, g.members)
	return out
}

// A Target is a node in the match/execute graph, uniquely identified by
// the tuple (Type, OutDir, SrcDir, Name, Ext). At most one Target object
// exists per such tuple within a context; all references are by stable
// pointer (see TargetCache).
type Target struct {
	Type   *TargetType
	OutDir string
	SrcDir string
	Name   Name
	Ext    string

	// Group, if non-nil, is the group this target is a member of.
	Group *Target
	group *Group // populated lazily the first time this target is used as a group

	// Scope is the scope this target was declared in; prerequisites
	// whose Name.Dir has no leading "/" are interpreted relative to it.
	Scope *Scope

	// Visibility lists the directory patterns allowed to depend on this
	// target (see visibility.go); nil means visible only within its own
	// directory. TestOnly marks a target that only test targets may
	// depend on. Both are set during LOAD, before any prerequisite can
	// observe them.
	Visibility []string
	TestOnly   bool

	// prerequisites is immutable after LOAD (§3 invariant).
	prerequisitesMu sync.Mutex
	prerequisites   []*Prerequisite
	prereqsFrozen   bool

	// mtime is set for file-like targets once their backing file's
	// modification time is known (eg. by search_existing_file).
	mtimeSet atomic.Bool
	mtime    atomic.Int64 // unix nanos; only valid if mtimeSet

	slots [2]actionSlot // index 0 = inner, 1 = outer
}

// newTarget constructs a bare target for the given identity tuple. Used
// only by the target cache's insert path.
func newTarget(tt *TargetType, outDir, srcDir string, name Name, ext string) *Target {
	t := &Target{Type: tt, OutDir: outDir, SrcDir: srcDir, Name: name, Ext: ext}
	t.slots[0] = actionSlot{done: make(chan struct{})}
	t.slots[1] = actionSlot{done: make(chan struct{})}
	return t
}

func (t *Target) slot(a Action) *actionSlot {
	if a.HasOuter {
		return &t.slots[1]
	}
	return &t.slots[0]
}

// SetPrerequisites installs the prerequisite list for t. Must be called
// at most once, during LOAD; it panics on a second call since the spec
// requires the list be immutable thereafter.
func (t *Target) SetPrerequisites(keys []PrerequisiteKey) {
	t.prerequisitesMu.Lock()
	defer t.prerequisitesMu.Unlock()
	if t.prereqsFrozen {
		panic("prerequisites of " + t.Name.String() + " already observed; cannot reassign")
	}
	t.prerequisites = make([]*Prerequisite, len(keys))
	for i, k := range keys {
		t.prerequisites[i] = NewPrerequisite(k)
	}
	t.prereqsFrozen = true
}

// Prerequisites returns the (immutable, once frozen) prerequisite list.
// Freezes an empty list implicitly if none was ever set, since MATCH is
// entitled to observe the list as soon as it looks at it (§3 invariant:
// "once a target's prerequisites have been observed by MATCH, they do
// not change").
func (t *Target) Prerequisites() []*Prerequisite {
	t.prerequisitesMu.Lock()
	defer t.prerequisitesMu.Unlock()
	t.prereqsFrozen = true
	return t.prerequisites
}

// State returns the current state of t in the slot action selects: the
// outer slot if action has an outer operation, else the inner one.
func (t *Target) State(action Action) TargetState {
	return t.slot(action).State()
}

// SetMtime records the backing file's modification time for a file-like
// target.
func (t *Target) SetMtime(mt time.Time) {
	t.mtime.Store(mt.UnixNano())
	t.mtimeSet.Store(true)
}

// Mtime returns the recorded modification time and true, or the zero
// time and false if none has been recorded (the target is not file-like
// or hasn't been stamped yet).
func (t *Target) Mtime() (time.Time, bool) {
	if !t.mtimeSet.Load() {
		return time.Time{}, false
	}
	return time.Unix(0, t.mtime.Load()), true
}

// AsGroup returns the Group structure for t, creating it on first use.
// Any target can be used as a group; there's no separate "group type".
func (t *Target) AsGroup() *Group {
	if t.group == nil {
		t.group = &Group{}
	}
	return t.group
}
