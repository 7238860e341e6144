// The phase machine: LOAD -> MATCH -> EXECUTE, and the Context object
// that threads through all three (§5, §9 "global mutable state").

package core

import (
	"strconv"
	"sync/atomic"

	"github.com/thistledown/zymurgy/src/cli/logging"
)

var log = logging.Log

// A Phase identifies which of the three sequential phases a Context is
// currently in. Phases never run out of order and never repeat.
type Phase int32

// The three phases, in the order they must run.
const (
	PhaseLoad Phase = iota
	PhaseMatch
	PhaseExecute
)

func (p Phase) String() string {
	switch p {
	case PhaseLoad:
		return "load"
	case PhaseMatch:
		return "match"
	case PhaseExecute:
		return "execute"
	default:
		return "unknown"
	}
}

// A Context groups the process-wide state the source scattered across
// several global pools (variable pool, extension pool, target cache)
// into one explicit object passed to every operation, per §9's design
// note. It is initialized during LOAD; from EnterMatch on, scope variable
// maps and the rule registry must not be mutated (§5), though nothing
// enforces this.
type Context struct {
	Global *Scope
	Cache  *TargetCache

	// TypesByName is the set of target types registered by modules,
	// keyed by TargetType.Name, used by prerequisite search to resolve a
	// Name's Type tag to a concrete descriptor.
	TypesByName map[string]*TargetType
	// FileTargetType and NewTargetType are the built-in fall-back types
	// used by search_existing_file and create_new_target (§4.4 steps 3-4)
	// when a prerequisite's Name carries no explicit type tag.
	FileTargetType *TargetType
	NewTargetType  *TargetType
	// DirTargetType is the built-in see-through group type synthesized
	// by search_existing_file when a prerequisite names a directory
	// rather than a single file: its members are the files found inside.
	DirTargetType *TargetType

	Verbosity int
	DryRun    bool
	KeepGoing bool

	phase      atomic.Int32
	depCount   atomic.Int64 // §4.5 "global dependency count"
	cycles     *cycleDetector
	pool       Pool
	failures   *failureCollector
	failedOnly atomic.Bool
}

// NewContext constructs a Context in PhaseLoad with the built-in
// prereq_file / prereq_new target types registered.
func NewContext() *Context {
	ctx := &Context{
		Global:      NewGlobalScope(),
		Cache:       NewTargetCache(),
		TypesByName: map[string]*TargetType{},
		cycles:      newCycleDetector(),
		failures:    newFailureCollector(),
	}
	ctx.FileTargetType = &TargetType{Name: prereqFileTypeTag, Factory: defaultFactory}
	ctx.NewTargetType = &TargetType{Name: prereqNewTypeTag, Factory: defaultFactory}
	ctx.DirTargetType = &TargetType{Name: prereqDirTypeTag, Factory: defaultFactory, SeeThrough: true}
	ctx.RegisterType(ctx.FileTargetType)
	ctx.RegisterType(ctx.NewTargetType)
	ctx.RegisterType(ctx.DirTargetType)
	ctx.Global.ctx = ctx
	return ctx
}

func defaultFactory(tt *TargetType, outDir, srcDir string, name Name) *Target {
	return newTarget(tt, outDir, srcDir, name, name.Ext)
}

// DefaultFactory is the same plain Target construction the built-in
// fall-back types use, exported so a module registering its own
// TargetType doesn't have to reimplement it unless it needs a Target
// subtype of its own.
func DefaultFactory(tt *TargetType, outDir, srcDir string, name Name) *Target {
	return defaultFactory(tt, outDir, srcDir, name)
}

// RegisterType records tt so prerequisite search can find it by name.
// LOAD-only.
func (ctx *Context) RegisterType(tt *TargetType) {
	ctx.TypesByName[tt.Name] = tt
}

// Phase returns the phase the context currently thinks it's in.
func (ctx *Context) Phase() Phase { return Phase(ctx.phase.Load()) }

// EnterMatch transitions LOAD -> MATCH. Panics if called out of order.
func (ctx *Context) EnterMatch() {
	if !ctx.phase.CompareAndSwap(int32(PhaseLoad), int32(PhaseMatch)) {
		panic("EnterMatch called out of order")
	}
	log.Info("Entering match phase")
}

// EnterExecute transitions MATCH -> EXECUTE. Panics if called out of order.
func (ctx *Context) EnterExecute() {
	if !ctx.phase.CompareAndSwap(int32(PhaseMatch), int32(PhaseExecute)) {
		panic("EnterExecute called out of order")
	}
	log.Info("Entering execute phase")
}

// SetPool installs the worker pool EXECUTE-phase recipes use to free up
// a slot before blocking on a prerequisite (§4.5's "adjustable worker
// pool" note). Optional; callers that never call this just run each
// top-level Execute on their own goroutine.
func (ctx *Context) SetPool(p Pool) { ctx.pool = p }

// Pool returns the worker pool installed via SetPool, or nil.
func (ctx *Context) Pool() Pool { return ctx.pool }

// incDepCount / decDepCount implement the "global dependency count"
// consistency check from §4.5: ExecutePrerequisites/
// ReverseExecutePrerequisites increment once per prerequisite edge they
// traverse and decrement again once that edge's executeChain call
// returns, success or failure. The pairing is per call site, not per
// target, so a target reached by several parents is incremented and
// decremented once for each of them; the running total is zero
// whenever no recipe is currently in flight.
func (ctx *Context) incDepCount() { ctx.depCount.Add(1) }
func (ctx *Context) decDepCount() { ctx.depCount.Add(-1) }

// CheckDepCountZero is the consistency check itself; call it once
// EXECUTE has finished. It is a logic-error assertion, not a scheduling
// primitive, so it panics rather than returning an error.
func (ctx *Context) CheckDepCountZero() {
	if n := ctx.depCount.Load(); n != 0 {
		panic("dependency count did not return to zero at end of execute: " + strconv.FormatInt(n, 10))
	}
}
