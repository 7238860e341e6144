// Package fsutil adapts the generic src/fs helpers to the two things
// prerequisite search needs beyond a single os.Stat: walking a
// directory subtree to discover candidate files for a prerequisite
// whose Name names a directory rather than one file (a "//dir:..."
// wildcard prerequisite), and matching a glob pattern against that same
// subtree for a prerequisite whose simple name is itself a pattern
// ("*.go", "**/*_test.go"). Grounded on src/fs.Walk and src/fs.Glob, the
// teacher's own godirwalk-backed walker and Ant-style ** glob matcher.
package fsutil

import (
	"os"
	"path/filepath"

	"github.com/thistledown/zymurgy/src/fs"
)

// ListFiles returns every regular file under dir, relative to dir,
// sorted for deterministic iteration order (search_existing_file's
// directory-wildcard case needs a stable order since it may create new
// targets for each match during MATCH).
func ListFiles(dir string) ([]string, error) {
	var out []string
	err := fs.Walk(dir, func(name string, isDir bool) error {
		if isDir {
			return nil
		}
		rel, err := filepath.Rel(dir, name)
		if err != nil {
			return err
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	fs.SortPaths(out)
	return out, nil
}

// IsGlob reports whether pattern contains a glob metacharacter ("*",
// "?" or "["), ie. whether it should be matched with ListGlob rather
// than looked up as a literal path.
func IsGlob(pattern string) bool {
	return fs.IsGlob(pattern)
}

// ListGlob returns every file under dir matching any of patterns,
// relative to dir, sorted directory-then-leaf for the same determinism
// reason ListFiles sorts (glob prerequisites also synthesize one member
// target per match during MATCH). Supports the teacher's Ant-style "**"
// recursive wildcard in addition to ordinary shell globbing.
func ListGlob(dir string, patterns []string) []string {
	matches := fs.Glob(nil, dir, patterns, nil, false)
	return fs.SortPaths(matches)
}
