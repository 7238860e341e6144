// Per-target visibility and test-only checks (§4.3's MATCH-time
// visibility gate). A target is always visible to others in the same
// directory; beyond that it must be named by one of its declared
// Visibility patterns.

package core

import "strings"

// visibilityAll is the pattern that makes a target visible everywhere,
// the equivalent of please's "//..." wildcard label.
const visibilityAll = "PUBLIC"

// dirIncludes reports whether pattern (a directory, optionally suffixed
// with "/..." to mean itself and every subdirectory) includes dir.
func dirIncludes(pattern, dir string) bool {
	if pattern == visibilityAll {
		return true
	}
	if strings.HasSuffix(pattern, "/...") {
		root := strings.TrimSuffix(pattern, "/...")
		return dir == root || strings.HasPrefix(dir, root+"/")
	}
	return pattern == dir
}

// CanSee reports whether target may depend on dep: true if they live in
// the same directory, or if dep declares a Visibility pattern that
// includes target's directory.
func CanSee(target, dep *Target) bool {
	if target.Name.Dir == dep.Name.Dir {
		return true
	}
	for _, vis := range dep.Visibility {
		if dirIncludes(vis, target.Name.Dir) {
			return true
		}
	}
	return false
}

// CheckVisibility verifies every resolved prerequisite of target is
// visible to it and, if TestOnly, only depended on by a test target.
// Intended to run right before Match installs a recipe (§4.3): a
// visibility violation should fail MATCH rather than surface later as
// a mysterious EXECUTE failure.
func CheckVisibility(target *Target) error {
	for _, p := range target.Prerequisites() {
		dep := p.Target()
		if dep == nil {
			continue // unresolved or excluded; nothing to check yet
		}
		if !CanSee(target, dep) {
			return &VisibilityError{Target: target, Dependency: dep}
		}
		if dep.TestOnly && !target.TestOnly {
			return &VisibilityError{Target: target, Dependency: dep, TestOnlyViolation: true}
		}
	}
	return nil
}
