package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredAssignsDefaultOnFirstCall(t *testing.T) {
	scope := NewGlobalScope()
	v, isNew := Required(scope, "config.build.outdir", NewDirPath("out"), Perform)
	assert.Equal(t, "out", v.Str())
	assert.True(t, isNew)

	v2, isNew2 := Required(scope, "config.build.outdir", NewDirPath("out"), Perform)
	assert.Equal(t, "out", v2.Str())
	assert.False(t, isNew2, "second call sees the already-assigned value, not a fresh default")
}

func TestRequiredOverrideWins(t *testing.T) {
	scope := NewGlobalScope()
	scope.SetOverride("config.build.outdir", NewDirPath("custom-out"))
	v, isNew := Required(scope, "config.build.outdir", NewDirPath("out"), Perform)
	assert.Equal(t, "custom-out", v.Str())
	assert.True(t, isNew)
}

func TestOptionalDefaultsToNull(t *testing.T) {
	scope := NewGlobalScope()
	v := Optional(scope, "config.build.extra", Perform)
	assert.True(t, v.IsNull())

	// a second call observes the same Null that was assigned, not a
	// fresh lookup miss.
	v2, had := scope.LookupLocal("config.build.extra")
	assert.True(t, had)
	assert.True(t, v2.IsNull())
	_ = v
}

func TestOmittedLeavesUnsetVariableUnset(t *testing.T) {
	scope := NewGlobalScope()
	v, isNew := Omitted(scope, "config.build.extra", Perform)
	assert.True(t, v.IsNull())
	assert.False(t, isNew)
	_, had := scope.LookupLocal("config.build.extra")
	assert.False(t, had, "Omitted must not assign a default")
}

func TestOmittedAppliesOverride(t *testing.T) {
	scope := NewGlobalScope()
	scope.SetOverride("config.build.extra", NewString("forced"))
	v, isNew := Omitted(scope, "config.build.extra", Perform)
	assert.Equal(t, "forced", v.Str())
	assert.True(t, isNew)
}

func TestSpecifiedFalseWhenOnlyConfiguredMarkerSet(t *testing.T) {
	scope := NewGlobalScope()
	scope.Assign("config.build.configured", NewBool(true))
	assert.False(t, Specified(scope, "build"))
}

func TestSpecifiedTrueWhenRealVariableSet(t *testing.T) {
	scope := NewGlobalScope()
	scope.Assign("config.build.verbosity", NewUint64(2))
	assert.True(t, Specified(scope, "build"))
}

func TestSpecifiedWalksAncestors(t *testing.T) {
	global := NewGlobalScope()
	global.Assign("config.build.verbosity", NewUint64(2))
	child := global.InsertScope("a/b")
	assert.True(t, Specified(child, "build"))
}

func TestMarkIfConfiguringOnlyUnderConfigure(t *testing.T) {
	scope := NewGlobalScope()
	Required(scope, "config.build.verbosity", NewUint64(1), Perform)
	_, had := scope.LookupLocal("config.build.configured")
	assert.False(t, had, "Perform must not mark the namespace configured")

	Required(scope, "config.build.verbosity", NewUint64(1), Configure)
	marker, had := scope.LookupLocal("config.build.configured")
	assert.True(t, had)
	assert.True(t, marker.Bool())
}
