package core

import "sync/atomic"

// A Prerequisite is a symbolic reference to another target: a Name plus
// the scope in which it was written, plus a lazily-resolved pointer to
// the Target it denotes. Resolution (by search, see §4.4) is monotone:
// once resolved, the pointer never changes and is safe to read from any
// goroutine without further synchronization.
type Prerequisite struct {
	Key        PrerequisiteKey
	resolved   atomic.Value // holds *Target once resolved; nil before that
	settled    atomic.Bool  // true once resolution has happened, even if excluded
	excludedBy string       // non-empty directory filter that excluded this prerequisite
}

// NewPrerequisite constructs an unresolved prerequisite for key.
func NewPrerequisite(key PrerequisiteKey) *Prerequisite {
	return &Prerequisite{Key: key}
}

// Target returns the resolved target, or nil if search has not yet run,
// or if the prerequisite was excluded by a scoped search_and_match.
func (p *Prerequisite) Target() *Target {
	if v := p.resolved.Load(); v != nil {
		return v.(*Target)
	}
	return nil
}

// resolve sets the resolved target. It is only ever called once per
// prerequisite, from search(); calling it twice with different targets
// is a logic error since resolution must be monotone.
func (p *Prerequisite) resolve(t *Target) {
	if !p.settled.CompareAndSwap(false, true) {
		if existing := p.Target(); existing != t {
			panic("prerequisite resolved twice to different targets: " + p.Key.Name.String())
		}
		return
	}
	p.resolved.Store(t)
}

// resolveExcluded permanently marks the prerequisite as resolved-to-
// nothing because a scoped search_and_match found it outside the
// requested directory filter. Monotone like resolve: once excluded it
// stays excluded.
func (p *Prerequisite) resolveExcluded(dir string) {
	if p.settled.CompareAndSwap(false, true) {
		p.excludedBy = dir
	}
}

// IsResolved reports whether search has already run for this
// prerequisite, whether or not it found a target.
func (p *Prerequisite) IsResolved() bool {
	return p.settled.Load()
}

// IsExcluded reports whether a scoped search_and_match excluded this
// prerequisite as outside its directory filter.
func (p *Prerequisite) IsExcluded() bool {
	return p.settled.Load() && p.Target() == nil && p.excludedBy != ""
}
