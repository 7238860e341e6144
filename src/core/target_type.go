package core

// A TargetType is the external descriptor a module registers to extend
// the set of target kinds the engine understands (§6). It is consumed,
// never implemented, by this package: concrete language rules (cxx, cli
// codegen, install, dist, ...) each provide one of these and are
// themselves out of the core's scope.
type TargetType struct {
	// Name must be unique within a context.
	Name string
	// Base is the type this one falls through to when no rule matches
	// (§4.3 matching policy) and the root of the is_a chain used by
	// type-narrowed lookups.
	Base *TargetType
	// Factory constructs a new Target of this type.
	Factory func(tt *TargetType, outDir, srcDir string, name Name) *Target
	// FixedExt returns a fixed extension for this type's targets, if the
	// type only ever produces one extension.
	FixedExt func(key Name) (string, bool)
	// DefaultExt computes the extension for a target key given the scope
	// it's being resolved in; search is true when called from prerequisite
	// search (as opposed to target declaration), which some types use to
	// decide whether to probe the filesystem.
	DefaultExt func(key Name, scope *Scope, search bool) (string, bool)
	// Pattern rewrites name/ext according to this type's naming
	// convention; reverse asks for the inverse transform. Returns false
	// if the pattern doesn't apply.
	Pattern func(tt *TargetType, scope *Scope, name, ext *string, reverse bool) bool
	// Search provides a type-specific override of the default search
	// algorithm (§4.4 step 1).
	Search func(t *Target, key PrerequisiteKey) (*Target, bool)
	// SeeThrough marks a group target whose prerequisites should be
	// lifted to its members rather than built directly (a "see-through
	// group", see GLOSSARY).
	SeeThrough bool
}

// IsA reports whether tt is t or falls through to t via the Base chain.
func (tt *TargetType) IsA(t *TargetType) bool {
	for p := tt; p != nil; p = p.Base {
		if p == t {
			return true
		}
	}
	return false
}

// FallThroughChain returns tt and then each of its Base ancestors in
// order, used by the rule registry's fall-through lookup (§4.3 step 1 & 3).
func (tt *TargetType) FallThroughChain() []*TargetType {
	chain := []*TargetType{}
	for p := tt; p != nil; p = p.Base {
		chain = append(chain, p)
	}
	return chain
}
