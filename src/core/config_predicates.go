// Configuration predicates (§4.7): the thin layer over scope variable
// lookup that rules use to decide "configured?", "specified?", "new?"
// Grounded on the teacher's config.go, which likewise distinguishes a
// variable's explicit value from its zero/default value and layers
// command-line overrides on top; narrowed here to the four named
// primitives instead of please's single big gcfg-tagged struct.

package core

import "strings"

// configuredSuffix marks the synthetic "this namespace was touched"
// variable that Specified ignores when scanning a namespace, so a
// namespace that's only ever been marked configured (no real variables
// set) still reads as unspecified.
const configuredSuffix = ".configured"

// Required returns the value of varName in scope, assigning def if it
// was previously unset. An override layered at an outer scope takes
// precedence over both the existing value and def. new is true iff this
// call is what gave the variable its value (a fresh default, or a
// command-line override replacing the default). If the current
// meta-operation is Configure, the variable is marked to be saved.
func Required(scope *Scope, varName string, def Value, meta MetaOperation) (value Value, isNew bool) {
	existing, had := scope.LookupLocal(varName)
	if !had {
		existing, had = scope.Lookup(varName)
	}
	if !had {
		existing = def
		isNew = true
	}
	value, overridden := scope.FindOverride(varName, existing)
	if overridden {
		isNew = true
	}
	scope.Assign(varName, value)
	markIfConfiguring(scope, varName, meta)
	return value, isNew
}

// Optional returns the value of varName in scope, or the Null sentinel
// assigned in its place if unset, so that "configured as unspecified"
// (an explicit Null) can be told apart from "never looked at" (no entry
// at all, Lookup still fails afterwards... except Optional always
// leaves an entry, by design, so a second call sees the same Null).
func Optional(scope *Scope, varName string, meta MetaOperation) Value {
	existing, had := scope.LookupLocal(varName)
	if !had {
		existing, had = scope.Lookup(varName)
	}
	if !had {
		existing = Null
	}
	value, _ := scope.FindOverride(varName, existing)
	scope.Assign(varName, value)
	markIfConfiguring(scope, varName, meta)
	return value
}

// Omitted is like Required but never assigns a default: an unset
// variable is left unset (Lookup on it still fails afterwards), only an
// override can give it a value. new is true iff an override applied.
func Omitted(scope *Scope, varName string, meta MetaOperation) (value Value, isNew bool) {
	existing, had := scope.LookupLocal(varName)
	if !had {
		existing, had = scope.Lookup(varName)
	}
	value, overridden := scope.FindOverride(varName, existing)
	if overridden {
		scope.Assign(varName, value)
		markIfConfiguring(scope, varName, meta)
		return value, true
	}
	if had {
		return existing, false
	}
	return Null, false
}

// Specified reports whether any variable under the config.<namespace>.*
// hierarchy, other than the namespace's own ".configured" marker, is set
// in scope or an outer scope.
func Specified(scope *Scope, namespace string) bool {
	prefix := "config." + namespace + "."
	for p := scope; p != nil; p = p.Parent() {
		for name := range p.snapshotVars() {
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			if strings.HasSuffix(name, configuredSuffix) {
				continue
			}
			return true
		}
	}
	return false
}

// markIfConfiguring records that varName was touched by a configuration
// predicate during a Configure meta-operation, by setting its
// namespace's ".configured" marker, so a later Specified call (or a
// config-file writer) can tell the namespace was visited even if every
// individual variable still holds its default.
func markIfConfiguring(scope *Scope, varName string, meta MetaOperation) {
	if meta != Configure {
		return
	}
	i := strings.LastIndex(varName, ".")
	if i < 0 {
		return
	}
	marker := varName[:i] + configuredSuffix
	scope.Assign(marker, NewBool(true))
}
