package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMatchScope(t *testing.T) *Scope {
	t.Helper()
	global := NewGlobalScope()
	root := global.InsertScope("proj")
	root.MarkProjectRoot(t.TempDir(), t.TempDir())
	return root
}

func TestMatchInstallsWinningRuleRecipe(t *testing.T) {
	root := newMatchScope(t)
	tt := &TargetType{Name: "demo"}
	target := newTarget(tt, "", "", Name{Simple: "x"}, "")
	target.Scope = root

	root.InsertRule(Perform, Update, tt, "only_rule", &stubRule{name: "only_rule", matches: true})
	action := NewAction(Perform, Update)

	require.NoError(t, Match(nil, action, target, ""))
	assert.True(t, target.slot(action).matched.Load())
	assert.Equal(t, StateUnknown, target.State(action))
}

func TestMatchUnmatchedTargetError(t *testing.T) {
	root := newMatchScope(t)
	tt := &TargetType{Name: "demo"}
	target := newTarget(tt, "", "", Name{Simple: "x"}, "")
	target.Scope = root
	action := NewAction(Perform, Update)

	err := Match(nil, action, target, "")
	var unmatched *UnmatchedTargetError
	require.ErrorAs(t, err, &unmatched)
	assert.Same(t, target, unmatched.Target)
}

func TestMatchFallsThroughToBaseType(t *testing.T) {
	root := newMatchScope(t)
	base := &TargetType{Name: "base"}
	derived := &TargetType{Name: "derived", Base: base}
	target := newTarget(derived, "", "", Name{Simple: "x"}, "")
	target.Scope = root

	root.InsertRule(Perform, Update, base, "base_rule", &stubRule{name: "base_rule", matches: true})
	action := NewAction(Perform, Update)

	require.NoError(t, Match(nil, action, target, ""))
	assert.True(t, target.slot(action).matched.Load())
}

func TestMatchHintFiltersCandidates(t *testing.T) {
	root := newMatchScope(t)
	tt := &TargetType{Name: "demo"}
	target := newTarget(tt, "", "", Name{Simple: "x"}, "")
	target.Scope = root

	root.InsertRule(Perform, Update, tt, "cc_binary", &stubRule{name: "cc_binary", matches: true})
	root.InsertRule(Perform, Update, tt, "go_binary", &stubRule{name: "go_binary", matches: true})
	action := NewAction(Perform, Update)

	require.NoError(t, Match(nil, action, target, "go_"))

	recipe := target.slot(action).recipe
	require.NotNil(t, recipe)
	st, err := recipe(action, target)
	assert.NoError(t, err)
	assert.Equal(t, StateUnchanged, st)
}

func TestMatchAmbiguousWhenHintDoesNotNarrow(t *testing.T) {
	root := newMatchScope(t)
	tt := &TargetType{Name: "demo"}
	target := newTarget(tt, "", "", Name{Simple: "x"}, "")
	target.Scope = root

	root.InsertRule(Perform, Update, tt, "rule_a", &stubRule{name: "rule_a", matches: true})
	root.InsertRule(Perform, Update, tt, "rule_b", &stubRule{name: "rule_b", matches: true})
	action := NewAction(Perform, Update)

	err := Match(nil, action, target, "")
	var ambiguous *AmbiguousMatchError
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Matches, 2)
}

func TestMatchIsIdempotent(t *testing.T) {
	root := newMatchScope(t)
	tt := &TargetType{Name: "demo"}
	target := newTarget(tt, "", "", Name{Simple: "x"}, "")
	target.Scope = root

	calls := 0
	rule := &countingMatchRule{stubRule: stubRule{name: "rule", matches: true}, calls: &calls}
	root.InsertRule(Perform, Update, tt, "rule", rule)
	action := NewAction(Perform, Update)

	require.NoError(t, Match(nil, action, target, ""))
	require.NoError(t, Match(nil, action, target, ""))
	assert.Equal(t, 1, calls, "a second Match call on an already-matched slot must not re-walk the registry")
}

func TestMatchFailsClosedOnInvisibleDependency(t *testing.T) {
	root := newMatchScope(t)
	tt := &TargetType{Name: "demo"}
	action := NewAction(Perform, Update)

	dep := newTarget(tt, "", "", Name{Dir: "other", Simple: "dep"}, "")
	dep.Scope = root
	target := newTarget(tt, "", "", Name{Dir: "here", Simple: "x"}, "")
	target.Scope = root
	target.SetPrerequisites([]PrerequisiteKey{{Name: dep.Name, Scope: root}})
	target.Prerequisites()[0].resolve(dep)

	root.InsertRule(Perform, Update, tt, "rule", &stubRule{name: "rule", matches: true})

	err := Match(nil, action, target, "")
	var visErr *VisibilityError
	require.ErrorAs(t, err, &visErr)
	assert.False(t, target.slot(action).matched.Load())
}

type countingMatchRule struct {
	stubRule
	calls *int
}

func (r *countingMatchRule) Match(action Action, target *Target, hint string) Match {
	*r.calls++
	return r.stubRule.Match(action, target, hint)
}
