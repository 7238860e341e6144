// Package config reads the project-level ini-style config file that
// seeds a Context's global scope before LOAD begins. Grounded on the
// teacher's src/core/config.go (a gcfg-tagged struct read via
// gcfg.ReadFileInto, tolerant of a missing file) narrowed to the handful
// of settings this engine's core actually consults.
package config

import (
	"os"

	"github.com/please-build/gcfg"

	"github.com/thistledown/zymurgy/src/cli/logging"
	"github.com/thistledown/zymurgy/src/core"
	"github.com/thistledown/zymurgy/src/fs"
)

var log = logging.Log

// FileName is the config file looked for at a project root, matching
// the teacher's ".plzconfig" naming convention.
const FileName = ".zymurgyconfig"

// Configuration is the gcfg-tagged shape of a project's config file.
type Configuration struct {
	Build struct {
		Verbosity int    `gcfg:"verbosity"`
		KeepGoing bool   `gcfg:"keepgoing"`
		OutDir    string `gcfg:"outdir"`
	}
	Depdb struct {
		Path  string `gcfg:"path"`
		Touch bool   `gcfg:"touch"`
	}
}

// Default returns a Configuration with the engine's built-in defaults,
// matching the zero-value-is-sane convention the teacher's Configuration
// struct follows for most fields.
func Default() *Configuration {
	c := &Configuration{}
	c.Build.OutDir = "out"
	c.Depdb.Path = ".zymurgy_depdb"
	return c
}

// ReadFile reads and merges filename into a fresh default Configuration.
// A missing file is not an error (matches the teacher's
// "gcfg.FatalOnly" tolerance of ErrNotExist); a malformed file is.
func ReadFile(filename string) (*Configuration, error) {
	c := Default()
	filename = fs.ExpandHomePath(filename)
	if err := gcfg.ReadFileInto(c, filename); err != nil && !os.IsNotExist(err) {
		if gcfg.FatalOnly(err) != nil {
			return nil, err
		}
		log.Warning("non-fatal error reading %s: %s", filename, err)
	}
	c.Build.OutDir = fs.ExpandHomePath(c.Build.OutDir)
	c.Depdb.Path = fs.ExpandHomePath(c.Depdb.Path)
	return c, nil
}

// Apply seeds scope with this configuration's values as regular scope
// variables under the "config.build.*"/"config.depdb.*" namespaces, so
// rules can read them via the §4.7 configuration predicates rather than
// reaching into this struct directly.
func (c *Configuration) Apply(scope *core.Scope) {
	scope.Assign("config.build.verbosity", core.NewUint64(uint64(c.Build.Verbosity)))
	scope.Assign("config.build.keepgoing", core.NewBool(c.Build.KeepGoing))
	scope.Assign("config.build.outdir", core.NewDirPath(c.Build.OutDir))
	scope.Assign("config.depdb.path", core.NewPath(c.Depdb.Path))
	scope.Assign("config.depdb.touch", core.NewBool(c.Depdb.Touch))
}
