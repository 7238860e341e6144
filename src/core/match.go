// The match engine: resolves a (action, target) pair to a concrete
// recipe by walking the rule registry, per the matching policy in §4.3.

package core

import (
	"strings"

	"github.com/samber/lo"
)

// MatchHint is the hint a caller can supply to disambiguate among rules
// registered under the same target type (§4.3). The empty hint matches
// every rule registered for the type.
type MatchHint = string

// Match resolves action against target: it walks target.Type's fall-
// through chain, selecting candidate rules by hint prefix at each type
// and trying their Match functions, and installs the winning rule's
// recipe into the target's per-action slot.
//
// Match is idempotent per (action, target): a second call for an
// already-matched slot returns nil immediately without re-walking the
// registry (§4.3 "re-entrancy").
func Match(ctx *Context, action Action, target *Target, hint MatchHint) error {
	slot := target.slot(action)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.matched.Load() {
		return nil
	}

	reg := target.Scope.ruleRegistryFor()
	var winner namedRule
	var m Match
	found := false

	for _, tt := range target.Type.FallThroughChain() {
		rules := reg.rulesFor(action, tt)
		if len(rules) == 0 {
			continue // fall through to base type, §4.3 step 1/3
		}
		candidates := filterByHint(rules, hint)
		if len(candidates) == 0 {
			continue // hint eliminated every rule at this type; fall through
		}
		if len(candidates) == 1 {
			if match := candidates[0].rule.Match(action, target, hint); match != nil {
				winner, m, found = candidates[0], match, true
				break
			}
			continue
		}
		// Several candidates remain: try each; two or more matches is
		// ambiguous (§4.3 step 2).
		var matches []Match
		var matched []namedRule
		for _, c := range candidates {
			if match := c.rule.Match(action, target, hint); match != nil {
				matches = append(matches, match)
				matched = append(matched, c)
			}
		}
		if len(matches) >= 2 {
			return &AmbiguousMatchError{Action: action, Target: target, Matches: matches}
		}
		if len(matches) == 1 {
			winner, m, found = matched[0], matches[0], true
			break
		}
		// None of the candidates matched; fall through.
	}

	if !found {
		return &UnmatchedTargetError{Action: action, Target: target}
	}

	if err := CheckVisibility(target); err != nil {
		return err
	}

	log.Debug("%s matched %s for %s", target.Name, winner.name, action)
	recipe := winner.rule.Apply(action, target, m)
	slot.recipe = recipe
	slot.setState(StateUnknown)
	slot.epoch.Add(1)
	slot.matched.Store(true)
	return nil
}

// filterByHint returns the rules whose registered name has hint as a
// prefix. An empty hint matches everything.
func filterByHint(rules []namedRule, hint string) []namedRule {
	if hint == "" {
		return rules
	}
	return lo.Filter(rules, func(r namedRule, _ int) bool {
		return strings.HasPrefix(r.name, hint)
	})
}
