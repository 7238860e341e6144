package core

import (
	"strings"
)

// A Name is a structured identifier for a target or prerequisite.
//
// It carries an optional project qualifier (Subrepo), a directory, an
// optional target-type tag used to disambiguate otherwise-identical
// simple names (eg. a generated header vs. the object built from it),
// a simple name and an extension. Two Names are equal iff every
// component compares equal; there is deliberately no notion of a
// "canonical form" beyond that.
type Name struct {
	// Subrepo is the project this name is qualified into, or "" for the
	// current project.
	Subrepo string
	// Dir is the directory the name is rooted in, relative to the
	// project's source root.
	Dir string
	// Type optionally tags which target type produced/expects this name;
	// empty unless the rule registry needed it to disambiguate.
	Type string
	// Simple is the bare name, eg. "hello" in "hello.o".
	Simple string
	// Ext is the extension, without the leading dot, eg. "o".
	Ext string
}

// String renders the name in the canonical "//dir:simple.ext" form used
// in diagnostics; it is not parsed back by this package.
func (n Name) String() string {
	s := "//" + n.Dir
	if n.Subrepo != "" {
		s = "///" + n.Subrepo + s
	}
	s += ":" + n.Simple
	if n.Ext != "" {
		s += "." + n.Ext
	}
	return s
}

// WithExt returns a copy of n with its extension replaced.
func (n Name) WithExt(ext string) Name {
	n.Ext = ext
	return n
}

// IsRelative reports whether the name's Dir has no leading "/", meaning
// it must be interpreted relative to whatever scope wrote it.
func (n Name) IsRelative() bool {
	return !strings.HasPrefix(n.Dir, "/")
}

// PrerequisiteKey is a Name together with the scope it was written in.
// The scope is needed because a relative directory in Name is only
// meaningful relative to the scope that declared it.
type PrerequisiteKey struct {
	Name  Name
	Scope *Scope
}

// ResolvedDir returns the directory the key's Name should be interpreted
// in: the name's own directory if absolute, otherwise the writing
// scope's directory joined with it.
func (k PrerequisiteKey) ResolvedDir() string {
	if !k.Name.IsRelative() {
		return k.Name.Dir
	}
	if k.Scope == nil {
		return k.Name.Dir
	}
	return k.Scope.Dir(k.Name.Dir)
}
