package core

import "fmt"

// ErrBuildFailed is the sentinel of §7's propagation policy: unmatched,
// ambiguous, cycle, failed-dependency and visibility errors all unwrap to
// it, while a RecipeFailedError unwraps to the error its recipe returned
// (ErrBuildFailed itself when an already-failed target is executed
// again). It plays the role the source's build_failed exception played,
// but as an ordinary error value that is returned, never panicked (see
// SPEC_FULL's AMBIENT STACK / §9 design notes).
var ErrBuildFailed = fmt.Errorf("build failed")

// An UnmatchedTargetError reports that no rule was found for (action, target).
type UnmatchedTargetError struct {
	Action Action
	Target *Target
}

func (e *UnmatchedTargetError) Error() string {
	return fmt.Sprintf("no rule to %s target %s", e.Action, e.Target.Name)
}

func (e *UnmatchedTargetError) Unwrap() error { return ErrBuildFailed }

// An AmbiguousMatchError reports that two or more rules matched the same
// (action, target, hint).
type AmbiguousMatchError struct {
	Action  Action
	Target  *Target
	Matches []Match
}

func (e *AmbiguousMatchError) Error() string {
	names := make([]string, len(e.Matches))
	for i, m := range e.Matches {
		names[i] = m.MatchedBy()
	}
	return fmt.Sprintf("ambiguous match for %s building %s: %v", e.Action, e.Target.Name, names)
}

func (e *AmbiguousMatchError) Unwrap() error { return ErrBuildFailed }

// A CycleError reports a dependency cycle discovered by recipe re-entry:
// executeChain finds Target among the ancestors whose recipes are on the
// call stack leading to it.
type CycleError struct {
	Target *Target
	Chain  []*Target // those ancestors followed by Target; Error names only Target if empty
}

func (e *CycleError) Error() string {
	if len(e.Chain) == 0 {
		return fmt.Sprintf("dependency cycle detected at %s", e.Target.Name)
	}
	s := ""
	for i, t := range e.Chain {
		if i > 0 {
			s += " -> "
		}
		s += t.Name.String()
	}
	return fmt.Sprintf("dependency cycle: %s", s)
}

func (e *CycleError) Unwrap() error { return ErrBuildFailed }

// A RecipeFailedError wraps whatever error a recipe returned, attributing
// it to the target whose recipe produced it.
type RecipeFailedError struct {
	Target *Target
	Action Action
	Cause  error
}

func (e *RecipeFailedError) Error() string {
	return fmt.Sprintf("recipe failed for %s (%s): %s", e.Target.Name, e.Action, e.Cause)
}

func (e *RecipeFailedError) Unwrap() error { return e.Cause }

// A FailedDependencyError reports that a target failed because one of
// its prerequisites was already in the Failed state.
type FailedDependencyError struct {
	Target       *Target
	Prerequisite *Target
}

func (e *FailedDependencyError) Error() string {
	return fmt.Sprintf("%s failed because prerequisite %s failed", e.Target.Name, e.Prerequisite.Name)
}

func (e *FailedDependencyError) Unwrap() error { return ErrBuildFailed }

// A VisibilityError reports that Target depends on Dependency without
// being allowed to: either Dependency's Visibility doesn't name
// Target's directory, or Dependency is TestOnly and Target isn't a
// test.
type VisibilityError struct {
	Target            *Target
	Dependency        *Target
	TestOnlyViolation bool
}

func (e *VisibilityError) Error() string {
	if e.TestOnlyViolation {
		return fmt.Sprintf("%s can't depend on %s, it's marked test-only", e.Target.Name, e.Dependency.Name)
	}
	return fmt.Sprintf("%s isn't visible to %s", e.Dependency.Name, e.Target.Name)
}

func (e *VisibilityError) Unwrap() error { return ErrBuildFailed }
