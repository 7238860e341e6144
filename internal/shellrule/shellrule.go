// Package shellrule provides the one built-in rule this module ships
// without a language front-end: a target type whose recipe is "run a
// shell command", wired up directly from Go rather than parsed out of a
// build file. It exists so cmd/zymurgy has something concrete to match
// and execute (§4.3/§4.5) without pulling in a BUILD-file parser, which
// is out of scope.
package shellrule

import (
	"context"
	"path/filepath"
	"time"

	"github.com/thistledown/zymurgy/internal/recipe"
	"github.com/thistledown/zymurgy/src/core"
	"github.com/thistledown/zymurgy/src/fs"
)

// outputHashAttr is the attribute name a target's recorded output hash
// is stored under when xattrs are in use. outputChanged passes
// xattrsEnabled=false, so the hash goes to the fallback sidecar file,
// whose name (see RecordAttrFile/ReadAttrFile) doesn't depend on it.
const outputHashAttr = "user.zymurgy_output_hash"

// A Command is the per-target recipe data a Rule instance stores: the
// shell command to run and the working directory to run it in. Output,
// if set, is the path (relative to Dir) of the file the command
// produces; when present it drives content-hash based change detection
// instead of the cruder "did the command print anything" heuristic.
type Command struct {
	Command string
	Dir     string
	Timeout time.Duration
	Output  string
}

// Rule implements core.Rule for the built-in shell-command target type.
// Every target of Type matches unconditionally; Commands supplies the
// per-target command text looked up by pointer identity.
type Rule struct {
	Type     *core.TargetType
	Executor *recipe.Executor
	Commands map[*core.Target]*Command
	Hasher   *fs.PathHasher
}

// New constructs the target type this rule matches against and
// registers the rule for Perform:Update, the constructive default (see
// core.ExecutionModeFor).
func New(ctx *core.Context, name string) *Rule {
	tt := &core.TargetType{Name: name, Factory: core.DefaultFactory}
	ctx.RegisterType(tt)
	r := &Rule{
		Type:     tt,
		Executor: recipe.New(),
		Commands: map[*core.Target]*Command{},
		Hasher:   fs.NewPathHasher(""),
	}
	ctx.Global.InsertRule(core.Perform, core.Update, tt, name, r)
	return r
}

// shellMatch is the trivial core.Match this rule always returns.
type shellMatch struct{ name string }

func (m shellMatch) MatchedBy() string { return m.name }

// Match always succeeds: every target of r.Type has a registered
// Command by the time MATCH reaches it (the demo harness installs one
// at target-creation time), so there's nothing left to decide.
func (r *Rule) Match(action core.Action, target *core.Target, hint string) core.Match {
	return shellMatch{name: r.Type.Name}
}

// Apply returns the recipe that runs the target's command after its
// prerequisites have run. If the Command names an Output file that can
// be hashed, it reports Changed or Unchanged by whether that file's
// content hash differs from the one recorded last time (see
// outputChanged); otherwise it reports Changed if the command produced
// any output and Unchanged if it printed nothing.
func (r *Rule) Apply(action core.Action, target *core.Target, m core.Match) core.Recipe {
	return func(action core.Action, target *core.Target) (core.TargetState, error) {
		ctx := target.Scope.Context()
		if pool := ctx.Pool(); pool != nil {
			// About to block waiting on prerequisites; free up our slot
			// for the duration so the pool doesn't starve.
			pool.AddWorker()
			defer pool.StopWorker()
		}
		if _, err := core.ExecutePrerequisites(ctx, action, target); err != nil {
			return core.StateFailed, err
		}
		cmd, ok := r.Commands[target]
		if !ok {
			return core.StateUnchanged, nil
		}
		timeout := cmd.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		out, err := r.Executor.Run(context.Background(), cmd.Dir, nil, timeout, cmd.Command)
		if err != nil {
			return core.StateFailed, err
		}
		if cmd.Output != "" {
			if state, ok := r.outputChanged(cmd); ok {
				return state, nil
			}
		}
		if len(out) == 0 {
			return core.StateUnchanged, nil
		}
		return core.StateChanged, nil
	}
}

// outputChanged hashes cmd's declared output file and compares it
// against the hash recorded the last time this recipe ran, reporting
// Changed/Unchanged based on content rather than whether the command
// printed anything. The second return is false if the output file
// can't be hashed (eg. the command didn't produce it), in which case
// the caller falls back to the output-based heuristic.
func (r *Rule) outputChanged(cmd *Command) (core.TargetState, bool) {
	path := filepath.Join(cmd.Dir, cmd.Output)
	newHash, err := r.Hasher.Hash(path, true, false)
	if err != nil {
		return core.StateUnchanged, false
	}
	oldHash := fs.ReadAttr(path, outputHashAttr, false)
	fs.RecordAttr(path, newHash, outputHashAttr, false)
	if oldHash != nil && string(oldHash) == string(newHash) {
		return core.StateUnchanged, true
	}
	return core.StateChanged, true
}
