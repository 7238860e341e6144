// Package install copies a target's built output into a destination
// directory, the way build2's libbuild2/install rule does: a
// see-through group target (§3 TargetType.SeeThrough) is never copied
// itself, its members are installed individually instead ("group
// lifting"), matching group_rule's see_through handling in
// libbuild2/install/rule.hxx.
package install

import (
	"os"
	"path/filepath"

	"github.com/thistledown/zymurgy/src/core"
	"github.com/thistledown/zymurgy/src/fs"
)

// OutputPath returns the on-disk path a non-group target's recipe is
// expected to have produced: its out directory (falling back to src for
// in-source targets) joined with its name's dir/simple/ext, the same
// join search.go's searchExistingFile uses in reverse.
func OutputPath(t *core.Target) string {
	root := t.OutDir
	if root == "" {
		root = t.SrcDir
	}
	name := t.Name.Simple
	if t.Name.Ext != "" {
		name += "." + t.Name.Ext
	}
	return filepath.Join(root, t.Name.Dir, name)
}

// Install copies (or hardlinks, if link is true) target's output into
// destDir. A see-through group target is lifted: each of its members is
// installed in turn rather than the synthetic group itself, since the
// group has no output of its own.
func Install(target *core.Target, destDir string, link bool) error {
	if target.Type.SeeThrough {
		for _, member := range target.AsGroup().Members() {
			if err := Install(member, destDir, link); err != nil {
				return err
			}
		}
		return nil
	}

	src := OutputPath(target)
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	dest := filepath.Join(destDir, filepath.Base(src))
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}
	if info.IsDir() {
		if link {
			return fs.RecursiveLink(src, dest)
		}
		return fs.RecursiveCopy(src, dest, info.Mode())
	}
	return fs.CopyOrLinkFile(src, dest, info.Mode(), info.Mode(), link, true)
}
