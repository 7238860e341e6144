// The execute engine (§4.5): runs a target's recipe for an action at
// most once, memoizing terminal results and letting concurrent callers
// on the same (action, target) block on the first invocation.

package core

import "fmt"

// Execute runs action against target, honoring the per-action state
// machine:
//
//   - Unchanged/Changed (already done): returned directly, memoized.
//   - Unknown/Postponed: the state is pre-set to Failed so an abort
//     leaves it consistent, the recipe is invoked, and its result
//     (Unchanged/Changed/Postponed) is stored.
//   - Failed: the sentinel error is raised.
//
// Concurrent calls for the same (action, target) serialize: the first
// caller runs the recipe, the rest block until it completes and then
// observe its cached result (§5).
func Execute(ctx *Context, action Action, target *Target) (TargetState, error) {
	return executeChain(ctx, action, target, nil)
}

// executeChain is Execute plus the chain of ancestor targets whose
// recipes are currently on the call stack leading here, used to detect
// a cycle the instant it would be re-entered (§7 "observed as a target
// whose recipe is re-entered... Fatal") rather than deadlocking.
func executeChain(ctx *Context, action Action, target *Target, ancestors []*Target) (TargetState, error) {
	for _, a := range ancestors {
		if a == target {
			chain := append(append([]*Target{}, ancestors...), target)
			return StateFailed, &CycleError{Target: target, Chain: chain}
		}
	}

	slot := target.slot(action)

	slot.mu.Lock()
	switch {
	case slot.executing:
		done := slot.done
		slot.mu.Unlock()
		<-done
		return slot.State(), slot.lastErr
	case slot.State() == StateFailed:
		slot.mu.Unlock()
		return StateFailed, &RecipeFailedError{Target: target, Action: action, Cause: ErrBuildFailed}
	case slot.State().IsDone():
		err := slot.lastErr
		slot.mu.Unlock()
		return slot.State(), err
	}
	st := slot.State()
	if st != StateUnknown && st != StatePostponed {
		slot.mu.Unlock()
		panic(fmt.Sprintf("execute called on %s in state %s", target.Name, st))
	}
	if st == StatePostponed && slot.postponedAlready {
		panic(fmt.Sprintf("execute re-entered postponed target %s a second time in the main pass", target.Name))
	}
	slot.executing = true
	chain := append(append([]*Target{}, ancestors...), target)
	slot.chain.Store(chain)
	slot.mu.Unlock()

	// Pre-set to Failed so a panic or early return from the recipe
	// leaves the slot in a consistent terminal-looking state.
	slot.setState(StateFailed)

	result, err := slot.recipe(action, target)

	slot.mu.Lock()
	if err != nil {
		slot.setState(StateFailed)
		slot.lastErr = &RecipeFailedError{Target: target, Action: action, Cause: err}
		slot.executing = false
		close(slot.done)
		slot.mu.Unlock()
		ctx.RecordFailure(slot.lastErr)
		return StateFailed, slot.lastErr
	}
	switch result {
	case StatePostponed:
		slot.setState(StatePostponed)
		slot.postponedAlready = true
		slot.executing = false
		slot.mu.Unlock()
		// Not terminal: no done-channel close. The post-pass will call
		// Execute again.
		return StatePostponed, nil
	case StateUnchanged, StateChanged:
		slot.setState(result)
		slot.executing = false
		close(slot.done)
		slot.mu.Unlock()
		return result, nil
	default:
		slot.mu.Unlock()
		panic(fmt.Sprintf("recipe for %s returned invalid state %s", target.Name, result))
	}
}

// currentChain returns the ancestor chain executing action on target,
// as recorded by executeChain. Recipes read this indirectly through
// ExecutePrerequisites; it is nil if called outside of an active
// Execute call for (action, target).
func currentChain(action Action, target *Target) []*Target {
	if v := target.slot(action).chain.Load(); v != nil {
		return v.([]*Target)
	}
	return nil
}

// ExecutePrerequisites runs action against each of target's resolved
// prerequisites in order, returning Changed if any of them changed,
// else Unchanged. It is the helper most recipes call at their start.
func ExecutePrerequisites(ctx *Context, action Action, target *Target) (TargetState, error) {
	ancestors := currentChain(action, target)
	changed := false
	for _, prereq := range target.Prerequisites() {
		dep := prereq.Target()
		if dep == nil {
			continue
		}
		ctx.cycles.AddDependency(target, dep)
		ctx.incDepCount()
		st, err := executeChain(ctx, action, dep, ancestors)
		ctx.decDepCount()
		if err != nil {
			if _, isCycle := err.(*CycleError); isCycle {
				return StateFailed, err
			}
			return StateFailed, &FailedDependencyError{Target: target, Prerequisite: dep}
		}
		if st == StateChanged {
			changed = true
		}
	}
	if changed {
		return StateChanged, nil
	}
	return StateUnchanged, nil
}

// ReverseExecutePrerequisites is like ExecutePrerequisites but in
// reverse order, used by destructive operations to honor
// ExecutionMode.Last/Back (eg. removing out/a and out/b before out/,
// scenario S4).
func ReverseExecutePrerequisites(ctx *Context, action Action, target *Target) (TargetState, error) {
	ancestors := currentChain(action, target)
	prereqs := target.Prerequisites()
	changed := false
	for i := len(prereqs) - 1; i >= 0; i-- {
		dep := prereqs[i].Target()
		if dep == nil {
			continue
		}
		ctx.cycles.AddDependency(target, dep)
		ctx.incDepCount()
		st, err := executeChain(ctx, action, dep, ancestors)
		ctx.decDepCount()
		if err != nil {
			if _, isCycle := err.(*CycleError); isCycle {
				return StateFailed, err
			}
			return StateFailed, &FailedDependencyError{Target: target, Prerequisite: dep}
		}
		if st == StateChanged {
			changed = true
		}
	}
	if changed {
		return StateChanged, nil
	}
	return StateUnchanged, nil
}

// ExecutePrerequisitesMtime returns true iff targetMtimeKnown is false
// (the target doesn't exist yet) or some mtime-based prerequisite is
// newer than targetMtime. Equal mtimes count as "newer" only if that
// prerequisite's own state is Changed, which correctly handles
// filesystems with coarse mtime resolution (§4.5, §8 invariant 6).
func ExecutePrerequisitesMtime(action Action, target *Target, targetMtimeKnown bool, targetMtime int64) bool {
	if !targetMtimeKnown {
		return true
	}
	for _, prereq := range target.Prerequisites() {
		dep := prereq.Target()
		if dep == nil {
			continue
		}
		mt, ok := dep.Mtime()
		if !ok {
			continue
		}
		depNanos := mt.UnixNano()
		if depNanos > targetMtime {
			return true
		}
		if depNanos == targetMtime && dep.State(action) == StateChanged {
			return true
		}
	}
	return false
}
