// Command zymurgy drives the LOAD -> MATCH -> EXECUTE phase machine
// (src/core) over a small built-in target graph. There's no BUILD-file
// front end here (out of scope); this exists to exercise the engine
// end to end the way please.go exercises src/core for a real project.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/thistledown/zymurgy/internal/config"
	"github.com/thistledown/zymurgy/internal/diag"
	"github.com/thistledown/zymurgy/internal/install"
	"github.com/thistledown/zymurgy/internal/shellrule"
	"github.com/thistledown/zymurgy/src/cli"
	"github.com/thistledown/zymurgy/src/cli/logging"
	"github.com/thistledown/zymurgy/src/core"
	"github.com/thistledown/zymurgy/src/fs"
)

var log = logging.Log

var opts struct {
	Usage string `usage:"zymurgy runs a small built-in demonstration build graph through the match/execute engine."`

	OutputFlags struct {
		Verbosity  cli.Verbosity `short:"v" long:"verbosity" description:"Verbosity of output as a number (0=critical, 1=error, 2=warning, 3=notice, 4=info, 5=debug)" default:"1"`
		DiagFormat string        `long:"diag_format" description:"If 'yaml', dump accumulated diagnostics as YAML at exit" default:"text"`
	} `group:"Options controlling output & logging"`

	BehaviorFlags struct {
		KeepGoing  bool   `long:"keep_going" description:"Continue running other prerequisites after one target's recipe fails."`
		DryRun     bool   `long:"dry_run" description:"Match and resolve the graph but don't run any recipes."`
		NumThreads int    `short:"n" long:"num_threads" description:"Size of the EXECUTE-phase worker pool." default:"4"`
		DebugLocks bool   `long:"debug_locks" description:"Enable deadlock detection on the scope/target-cache locks."`
		ConfigFile string `short:"c" long:"config_file" description:"Project config file to read." default:".zymurgyconfig"`
		InstallDir string `long:"install_dir" description:"If set, copy the top target's output there after a successful build."`
	} `group:"Options controlling how the graph is run"`
}

func main() {
	cli.ParseFlagsFromArgsOrDie("zymurgy", "0.1.0", &opts, os.Args)
	logging.InitLogging(logging.Level(opts.OutputFlags.Verbosity))
	core.EnableLockDebugging(opts.BehaviorFlags.DebugLocks)

	cfg, err := config.ReadFile(opts.BehaviorFlags.ConfigFile)
	if err != nil {
		log.Fatalf("reading %s: %s", opts.BehaviorFlags.ConfigFile, err)
	}
	if opts.BehaviorFlags.KeepGoing {
		cfg.Build.KeepGoing = true
	}

	os.Exit(run(cfg))
}

func run(cfg *config.Configuration) int {
	ctx := core.NewContext()
	ctx.Verbosity = int(opts.OutputFlags.Verbosity)
	ctx.DryRun = opts.BehaviorFlags.DryRun
	ctx.KeepGoing = cfg.Build.KeepGoing
	cfg.Apply(ctx.Global)

	// Recipes that need to re-invoke this tool (eg. a recursive sub-build)
	// read it from config.build.self rather than guessing argv[0].
	if self, err := fs.Executable(); err != nil {
		log.Warning("could not determine own executable path: %s", err)
	} else {
		ctx.Global.Assign("config.build.self", core.NewPath(self))
	}

	pool := core.NewPool(opts.BehaviorFlags.NumThreads)
	ctx.SetPool(pool)

	diagStream := diag.Stderr(ctx.Verbosity)
	var records []*diag.Record

	srcDir, err := os.MkdirTemp("", "zymurgy-demo-src")
	if err != nil {
		log.Fatalf("%s", err)
	}
	defer os.RemoveAll(srcDir)
	outDir, err := os.MkdirTemp("", "zymurgy-demo-out")
	if err != nil {
		log.Fatalf("%s", err)
	}
	defer os.RemoveAll(outDir)

	root := ctx.Global.InsertScope("demo")
	root.MarkProjectRoot(srcDir, outDir)

	rule := shellrule.New(ctx, "shell")
	top := buildDemoGraph(ctx, rule, root, outDir, srcDir)

	action := core.NewAction(core.Perform, core.Update)

	ctx.EnterMatch()
	if err := core.Match(ctx, action, top, ""); err != nil {
		return reportFailure(diagStream, &records, err)
	}
	if err := core.SearchAndMatch(ctx, action, top); err != nil {
		return reportFailure(diagStream, &records, err)
	}

	ctx.EnterExecute()
	state, err := core.Execute(ctx, action, top)
	ctx.CheckDepCountZero()

	summary := diagStream.NewRecord(diag.LevelInfo)
	summary.Add("top target finished in state %s", state)
	summary.Flush(false)
	records = append(records, summary)

	if err != nil && !ctx.KeepGoing {
		return reportFailure(diagStream, &records, err)
	}
	if ctx.Failed() {
		return reportFailure(diagStream, &records, ctx.FailureReport())
	}

	if opts.BehaviorFlags.InstallDir != "" {
		if err := install.Install(top, opts.BehaviorFlags.InstallDir, false); err != nil {
			log.Warning("install failed: %s", err)
		}
	}

	depdbPath := cfg.Depdb.Path
	if depdbPath == "" {
		depdbPath = ".zymurgy_depdb"
	}
	if err := recordDepdb(depdbPath, state); err != nil {
		log.Warning("depdb update failed: %s", err)
	}

	if opts.OutputFlags.DiagFormat == "yaml" {
		out, err := diag.Dump(records)
		if err != nil {
			log.Warning("diag dump failed: %s", err)
		} else {
			fmt.Fprint(os.Stdout, string(out))
		}
	}
	return 0
}

// buildDemoGraph constructs a three-target graph (top depends on leafA
// and leafB) wholly in Go, standing in for what a BUILD-file parse
// would otherwise produce during LOAD.
func buildDemoGraph(ctx *core.Context, rule *shellrule.Rule, scope *core.Scope, outDir, srcDir string) *core.Target {
	const dir = "/demo"

	leafA := newDemoTarget(ctx, rule, scope, outDir, srcDir, dir, "leafA", "echo building leafA")
	leafB := newDemoTarget(ctx, rule, scope, outDir, srcDir, dir, "leafB", "echo building leafB")
	top := newDemoTarget(ctx, rule, scope, outDir, srcDir, dir, "top", "echo assembling top")

	// top writes its own output in place so --install_dir has a real file
	// to copy, the way a real recipe would leave its product under OutDir.
	outPath := install.OutputPath(top)
	outParent := filepath.Dir(outPath)
	output, _ := filepath.Rel(outDir, outPath)
	rule.Commands[top] = &shellrule.Command{
		Command: fmt.Sprintf("mkdir -p %q && printf assembling-top > %q", outParent, outPath),
		Dir:     outDir,
		Output:  output,
	}

	top.SetPrerequisites([]core.PrerequisiteKey{
		{Name: core.Name{Dir: dir, Simple: "leafA", Type: rule.Type.Name}, Scope: scope},
		{Name: core.Name{Dir: dir, Simple: "leafB", Type: rule.Type.Name}, Scope: scope},
	})
	_ = leafA
	_ = leafB
	return top
}

func newDemoTarget(ctx *core.Context, rule *shellrule.Rule, scope *core.Scope, outDir, srcDir, dir, simple, command string) *core.Target {
	name := core.Name{Dir: dir, Simple: simple, Type: rule.Type.Name}
	t, _ := ctx.Cache.Insert(rule.Type, outDir, srcDir, name, "")
	t.Scope = scope
	rule.Commands[t] = &shellrule.Command{Command: command, Dir: srcDir}
	return t
}

func reportFailure(stream *diag.Stream, records *[]*diag.Record, err error) int {
	mark := stream.NewFailMark()
	mark.Add("build failed: %s", err)
	*records = append(*records, mark.Record)
	_ = mark.Fail()
	return 1
}

func recordDepdb(path string, state core.TargetState) error {
	db, err := core.OpenDepDB(path)
	if err != nil {
		return err
	}
	db.Expect(fmt.Sprintf("top=%s", state))
	return db.Close()
}
