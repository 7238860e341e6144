package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProjectScope(t *testing.T) (*Context, *Scope, string) {
	t.Helper()
	ctx := NewContext()
	srcDir := t.TempDir()
	root := ctx.Global.InsertScope("proj")
	root.MarkProjectRoot(srcDir, t.TempDir())
	return ctx, root, srcDir
}

func TestSearchStep4CreatesNewTarget(t *testing.T) {
	ctx, root, _ := newProjectScope(t)
	referencing := newTarget(&TargetType{Name: "demo"}, "", "", Name{Simple: "top"}, "")
	referencing.Scope = root

	prereq := NewPrerequisite(PrerequisiteKey{Name: Name{Dir: "nope", Simple: "missing"}, Scope: root})
	got := Search(ctx, referencing, prereq)
	require.NotNil(t, got)
	assert.True(t, got.Type.IsA(ctx.NewTargetType))
	assert.Same(t, got, prereq.Target())
}

func TestSearchStep2FindsExistingTarget(t *testing.T) {
	ctx, root, _ := newProjectScope(t)
	tt := &TargetType{Name: "custom_tt", Factory: defaultFactory}
	ctx.RegisterType(tt)
	src, out := root.ProjectDirs()

	name := Name{Dir: "lib", Simple: "widget", Type: "custom_tt"}
	existing, _ := ctx.Cache.Insert(tt, out, src, name, "")
	existing.Scope = root

	referencing := newTarget(&TargetType{Name: "demo"}, "", "", Name{Simple: "top"}, "")
	referencing.Scope = root
	prereq := NewPrerequisite(PrerequisiteKey{Name: name, Scope: root})

	got := Search(ctx, referencing, prereq)
	assert.Same(t, existing, got)
}

func TestSearchStep3FindsExistingFile(t *testing.T) {
	ctx, root, srcDir := newProjectScope(t)
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "hello.txt"), []byte("hi"), 0644))

	referencing := newTarget(&TargetType{Name: "demo"}, "", "", Name{Simple: "top"}, "")
	referencing.Scope = root
	prereq := NewPrerequisite(PrerequisiteKey{Name: Name{Dir: "", Simple: "hello", Ext: "txt"}, Scope: root})

	got := Search(ctx, referencing, prereq)
	require.NotNil(t, got)
	assert.True(t, got.Type.IsA(ctx.FileTargetType))
	_, hasMtime := got.Mtime()
	assert.True(t, hasMtime)
}

func TestSearchStep3DirectoryBecomesSeeThroughGroup(t *testing.T) {
	ctx, root, srcDir := newProjectScope(t)
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "data", "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "data", "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "data", "sub", "b.txt"), []byte("b"), 0644))

	referencing := newTarget(&TargetType{Name: "demo"}, "", "", Name{Simple: "top"}, "")
	referencing.Scope = root
	prereq := NewPrerequisite(PrerequisiteKey{Name: Name{Dir: "", Simple: "data"}, Scope: root})

	got := Search(ctx, referencing, prereq)
	require.NotNil(t, got)
	assert.True(t, got.Type.IsA(ctx.DirTargetType))
	assert.True(t, got.Type.SeeThrough)
	assert.Len(t, got.AsGroup().Members(), 2)
}

func TestSearchStep3GlobPatternBecomesSeeThroughGroup(t *testing.T) {
	ctx, root, srcDir := newProjectScope(t)
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "pkg", "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "pkg", "a.go"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "pkg", "b.txt"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "pkg", "sub", "c.go"), []byte("c"), 0644))

	referencing := newTarget(&TargetType{Name: "demo"}, "", "", Name{Simple: "top"}, "")
	referencing.Scope = root
	prereq := NewPrerequisite(PrerequisiteKey{Name: Name{Dir: "pkg", Simple: "**/*.go"}, Scope: root})

	got := Search(ctx, referencing, prereq)
	require.NotNil(t, got)
	assert.True(t, got.Type.IsA(ctx.DirTargetType))
	assert.True(t, got.Type.SeeThrough)
	assert.Len(t, got.AsGroup().Members(), 2)
}

func TestSearchIsMonotone(t *testing.T) {
	ctx, root, _ := newProjectScope(t)
	referencing := newTarget(&TargetType{Name: "demo"}, "", "", Name{Simple: "top"}, "")
	referencing.Scope = root
	prereq := NewPrerequisite(PrerequisiteKey{Name: Name{Dir: "nope", Simple: "missing"}, Scope: root})

	first := Search(ctx, referencing, prereq)
	second := Search(ctx, referencing, prereq)
	assert.Same(t, first, second)
}

func TestSearchRecordsReverseDependency(t *testing.T) {
	ctx, root, _ := newProjectScope(t)
	referencing := newTarget(&TargetType{Name: "demo"}, "", "", Name{Simple: "top"}, "")
	referencing.Scope = root
	prereq := NewPrerequisite(PrerequisiteKey{Name: Name{Dir: "nope", Simple: "missing"}, Scope: root})

	got := Search(ctx, referencing, prereq)
	assert.Equal(t, []*Target{referencing}, ctx.Cache.ReverseDependencies(got))
}

func TestSearchAndMatchScopedExcludesOutsideDir(t *testing.T) {
	ctx, root, _ := newProjectScope(t)
	tt := &TargetType{Name: "demo", Factory: defaultFactory}
	ctx.RegisterType(tt)
	root.InsertRule(Perform, Update, ctx.NewTargetType, "always", &stubRule{name: "always", matches: true})
	top := newTarget(tt, "", "", Name{Dir: "here", Simple: "top"}, "")
	top.Scope = root
	top.SetPrerequisites([]PrerequisiteKey{
		{Name: Name{Dir: "here", Simple: "missing"}, Scope: root},
		{Name: Name{Dir: "elsewhere", Simple: "missing"}, Scope: root},
	})

	require.NoError(t, SearchAndMatchScoped(ctx, NewAction(Perform, Update), top, root.Dir("here")))

	prereqs := top.Prerequisites()
	assert.True(t, prereqs[0].IsResolved())
	assert.False(t, prereqs[0].IsExcluded())
	assert.True(t, prereqs[1].IsExcluded())
}
