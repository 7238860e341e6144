package core

// A Match is what Rule.Match returns to commit itself for the subsequent
// Apply call. It carries nothing the core cares about; rules typically
// embed whatever bookkeeping Apply will need (eg. the resolved recipe
// parameters) in their own type that implements this interface.
type Match interface {
	// MatchedBy names the rule that produced this match, for ambiguity
	// diagnostics.
	MatchedBy() string
}

// A Rule is a module-provided object that can match a (target, action)
// and produce a recipe (§4.3). Rule instances are singletons registered
// at module load via Scope.InsertRule.
type Rule interface {
	// Match decides whether this rule can build target for action. hint
	// is a caller-supplied string used to disambiguate among rules
	// registered under the same target type; implementations that don't
	// care about hints should ignore it. Returning a non-nil Match
	// commits the rule for the subsequent Apply call; returning nil
	// means "does not match".
	Match(action Action, target *Target, hint string) Match
	// Apply prepares the target (deriving its output path, resolving
	// members, scheduling prerequisites via search, etc.) and returns the
	// recipe that will later perform the action.
	Apply(action Action, target *Target, m Match) Recipe
}

// namedRule pairs a registered rule with the name it was registered
// under, used for ambiguity diagnostics and hint-prefix selection.
type namedRule struct {
	name string
	rule Rule
}

// ruleRegistry maps (meta_operation, operation) -> target_type -> list of
// named rules (§4.3). The only one in a scope tree is held on the global
// Scope (see Scope.ruleRegistryFor).
type ruleRegistry struct {
	byAction map[Action]map[*TargetType][]namedRule
}

func newRuleRegistry() *ruleRegistry {
	return &ruleRegistry{byAction: map[Action]map[*TargetType][]namedRule{}}
}

// InsertRule registers rule under name for (metaOp, op) and tt. LOAD-only.
func (s *Scope) InsertRule(metaOp MetaOperation, op Operation, tt *TargetType, name string, rule Rule) {
	reg := s.ruleRegistryFor()
	if reg == nil {
		panic("scope has no rule registry; it is not rooted under a project")
	}
	a := NewAction(metaOp, op)
	if reg.byAction[a] == nil {
		reg.byAction[a] = map[*TargetType][]namedRule{}
	}
	reg.byAction[a][tt] = append(reg.byAction[a][tt], namedRule{name: name, rule: rule})
}

func (reg *ruleRegistry) rulesFor(a Action, tt *TargetType) []namedRule {
	if reg == nil {
		return nil
	}
	byType := reg.byAction[a.InnerAction()]
	if byType == nil {
		return nil
	}
	return byType[tt]
}
