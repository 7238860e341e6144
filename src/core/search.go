// Prerequisite resolution: search resolves a Prerequisite to a concrete
// Target (§4.4); search_and_match additionally recurses Match over
// whatever it finds.

package core

import (
	"os"
	"path/filepath"

	"github.com/thistledown/zymurgy/internal/fsutil"
)

// builtin target-type tags used by the generic fall-back search path
// when a prerequisite's Name carries no explicit type tag.
const (
	prereqFileTypeTag = "prereq_file"
	prereqNewTypeTag  = "prereq_new"
	prereqDirTypeTag  = "prereq_dir"
)

// Search resolves prereq to a concrete target, following the four-step
// algorithm in §4.4, and records the resolution on prereq (monotone:
// calling Search twice on an already-resolved prerequisite is a no-op).
func Search(ctx *Context, referencing *Target, prereq *Prerequisite) *Target {
	if prereq.IsResolved() {
		return prereq.Target()
	}
	key := prereq.Key

	// Step 1: a type-specific search function, if the referencing
	// target's type provides one.
	if referencing.Type.Search != nil {
		if t, ok := referencing.Type.Search(referencing, key); ok {
			return resolveAndLink(ctx, referencing, prereq, t)
		}
	}

	// Step 2: search_existing_target via the cache.
	if t := searchExistingTarget(ctx, key); t != nil {
		return resolveAndLink(ctx, referencing, prereq, t)
	}

	// Step 3: search_existing_file.
	if t := searchExistingFile(ctx, key); t != nil {
		return resolveAndLink(ctx, referencing, prereq, t)
	}

	// Step 4: create_new_target.
	return resolveAndLink(ctx, referencing, prereq, createNewTarget(ctx, key))
}

// resolveAndLink settles prereq on t and records the reverse dependency
// (referencing depends on t) in the target cache before returning t.
func resolveAndLink(ctx *Context, referencing *Target, prereq *Prerequisite, t *Target) *Target {
	prereq.resolve(t)
	ctx.Cache.addReverseDependency(referencing, t)
	return t
}

// resolveTypeTag looks up the target type a prerequisite key's name tag
// refers to, falling back to def if the key carries no tag or the tag is
// unregistered.
func resolveTypeTag(ctx *Context, name Name, def *TargetType) *TargetType {
	if name.Type == "" {
		return def
	}
	if tt, ok := ctx.TypesByName[name.Type]; ok {
		return tt
	}
	return def
}

func searchExistingTarget(ctx *Context, key PrerequisiteKey) *Target {
	tt := resolveTypeTag(ctx, key.Name, nil)
	if tt == nil {
		return nil
	}
	src, out := key.Scope.ProjectDirs()
	return ctx.Cache.Find(tt, out, src, key.Name, key.Name.Ext)
}

func searchExistingFile(ctx *Context, key PrerequisiteKey) *Target {
	tt := resolveTypeTag(ctx, key.Name, ctx.FileTargetType)
	ext := key.Name.Ext
	if ext == "" {
		if f := tt.FixedExt; f != nil {
			if e, ok := f(key.Name); ok {
				ext = e
			}
		}
		if ext == "" && tt.DefaultExt != nil {
			if e, ok := tt.DefaultExt(key.Name, key.Scope, true); ok {
				ext = e
			}
		}
	}
	dir := key.ResolvedDir()
	src, _ := key.Scope.ProjectDirs()
	simple := key.Name.Simple
	if ext != "" {
		simple += "." + ext
	}
	if fsutil.IsGlob(simple) {
		return searchExistingGlob(ctx, key, dir, simple, src)
	}
	abs := filepath.Join(src, dir, simple)
	info, err := os.Stat(abs)
	if err != nil {
		return nil
	}
	if info.IsDir() {
		return searchExistingDir(ctx, key, abs, dir, simple, src)
	}
	name := key.Name
	name.Dir = dir
	name.Ext = ext
	name.Type = prereqFileTypeTag
	t, _ := ctx.Cache.Insert(tt, "", src, name, ext)
	t.Scope = key.Scope
	t.SetMtime(info.ModTime())
	return t
}

// searchExistingDir handles the "prerequisite names a directory"
// case of search_existing_file: it synthesizes a see-through group
// target for subDir, with one member target per regular file found
// underneath it, so the directory-wildcard prerequisite builds exactly
// like a reference to each of those files would.
func searchExistingDir(ctx *Context, key PrerequisiteKey, abs, subDir, simple, src string) *Target {
	files, err := fsutil.ListFiles(abs)
	if err != nil {
		return nil
	}
	name := key.Name
	name.Dir = subDir
	name.Simple = simple
	name.Type = prereqDirTypeTag
	group, isNew := ctx.Cache.Insert(ctx.DirTargetType, "", src, name, "")
	group.Scope = key.Scope
	if !isNew {
		return group
	}
	for _, rel := range files {
		memberName := Name{Dir: filepath.Join(subDir, simple), Simple: filepath.Base(rel), Type: prereqFileTypeTag}
		if d := filepath.Dir(rel); d != "." {
			memberName.Dir = filepath.Join(memberName.Dir, d)
		}
		member, _ := ctx.Cache.Insert(ctx.FileTargetType, "", src, memberName, "")
		member.Scope = key.Scope
		if info, err := os.Stat(filepath.Join(abs, rel)); err == nil {
			member.SetMtime(info.ModTime())
		}
		group.AsGroup().AddMember(member)
	}
	return group
}

// searchExistingGlob handles a prerequisite whose simple name is a glob
// pattern (eg. "*.go", "**/*_test.go") rather than a literal file or
// directory name: it synthesizes a see-through group over whatever
// files under dir match the pattern, the same shape searchExistingDir
// produces for a bare directory reference.
func searchExistingGlob(ctx *Context, key PrerequisiteKey, dir, pattern, src string) *Target {
	root := filepath.Join(src, dir)
	matches := fsutil.ListGlob(root, []string{pattern})

	name := key.Name
	name.Dir = dir
	name.Simple = pattern
	name.Type = prereqDirTypeTag
	group, isNew := ctx.Cache.Insert(ctx.DirTargetType, "", src, name, "")
	group.Scope = key.Scope
	if !isNew {
		return group
	}
	for _, rel := range matches {
		memberName := Name{Dir: filepath.Join(dir, filepath.Dir(rel)), Simple: filepath.Base(rel), Type: prereqFileTypeTag}
		member, _ := ctx.Cache.Insert(ctx.FileTargetType, "", src, memberName, "")
		member.Scope = key.Scope
		if info, err := os.Stat(filepath.Join(root, rel)); err == nil {
			member.SetMtime(info.ModTime())
		}
		group.AsGroup().AddMember(member)
	}
	return group
}

func createNewTarget(ctx *Context, key PrerequisiteKey) *Target {
	tt := resolveTypeTag(ctx, key.Name, ctx.NewTargetType)
	dir := key.ResolvedDir()
	_, out := key.Scope.ProjectDirs()
	name := key.Name
	name.Dir = dir
	name.Type = prereqNewTypeTag
	t, _ := ctx.Cache.Insert(tt, out, "", name, name.Ext)
	t.Scope = key.Scope
	return t
}

// SearchAndMatch iterates target.Prerequisites(), resolving each with
// Search and then recursing Match on whatever it finds (§4.4).
func SearchAndMatch(ctx *Context, action Action, target *Target) error {
	return searchAndMatch(ctx, action, target, "")
}

// SearchAndMatchScoped is the scoped variant: prerequisites outside dir
// are excluded (their resolution is set to "nothing") rather than
// matched.
func SearchAndMatchScoped(ctx *Context, action Action, target *Target, dir string) error {
	return searchAndMatch(ctx, action, target, dir)
}

func searchAndMatch(ctx *Context, action Action, target *Target, dirFilter string) error {
	for _, prereq := range target.Prerequisites() {
		if dirFilter != "" && prereq.Key.ResolvedDir() != dirFilter {
			prereq.resolveExcluded(dirFilter)
			continue
		}
		resolved := Search(ctx, target, prereq)
		if resolved == nil {
			continue
		}
		if err := Match(ctx, action, resolved, ""); err != nil {
			return err
		}
	}
	return nil
}
