package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubMatch struct{ name string }

func (m stubMatch) MatchedBy() string { return m.name }

type stubRule struct {
	name    string
	matches bool
}

func (r *stubRule) Match(action Action, target *Target, hint string) Match {
	if !r.matches {
		return nil
	}
	return stubMatch{name: r.name}
}

func (r *stubRule) Apply(action Action, target *Target, m Match) Recipe {
	return func(Action, *Target) (TargetState, error) { return StateUnchanged, nil }
}

func TestInsertRulePanicsOutsideProject(t *testing.T) {
	global := NewGlobalScope()
	sub := global.InsertScope("not/a/project")
	tt := &TargetType{Name: "demo"}
	assert.Panics(t, func() {
		sub.InsertRule(Perform, Update, tt, "demo_rule", &stubRule{name: "demo_rule", matches: true})
	})
}

func TestInsertRuleAndRulesFor(t *testing.T) {
	global := NewGlobalScope()
	root := global.InsertScope("proj")
	root.MarkProjectRoot("/src", "/out")
	tt := &TargetType{Name: "demo"}
	rule := &stubRule{name: "demo_rule", matches: true}
	root.InsertRule(Perform, Update, tt, "demo_rule", rule)

	reg := root.ruleRegistryFor()
	rules := reg.rulesFor(NewAction(Perform, Update), tt)
	assert.Len(t, rules, 1)
	assert.Equal(t, "demo_rule", rules[0].name)
	assert.Same(t, rule, rules[0].rule)
}

func TestRulesForUnregisteredActionIsEmpty(t *testing.T) {
	global := NewGlobalScope()
	root := global.InsertScope("proj")
	root.MarkProjectRoot("/src", "/out")
	tt := &TargetType{Name: "demo"}
	reg := root.ruleRegistryFor()
	assert.Empty(t, reg.rulesFor(NewAction(Perform, Clean), tt))
}

func TestRulesForIgnoresOuterOperationNesting(t *testing.T) {
	// InsertRule registers under NewAction(metaOp, op); rulesFor keys off
	// a.InnerAction(), so a nested action with the same inner operation
	// finds the same rules regardless of its outer operation.
	global := NewGlobalScope()
	root := global.InsertScope("proj")
	root.MarkProjectRoot("/src", "/out")
	tt := &TargetType{Name: "demo"}
	rule := &stubRule{name: "demo_rule", matches: true}
	root.InsertRule(Perform, Update, tt, "demo_rule", rule)

	reg := root.ruleRegistryFor()
	nested := NewNestedAction(Perform, Update, Install)
	rules := reg.rulesFor(nested, tt)
	assert.Len(t, rules, 1)
}
