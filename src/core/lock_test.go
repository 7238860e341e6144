package core

import (
	"testing"

	"github.com/sasha-s/go-deadlock"
	"github.com/stretchr/testify/assert"
)

func TestEnableLockDebuggingTogglesDeadlockOpts(t *testing.T) {
	defer func() { deadlock.Opts.Disable = true }()

	EnableLockDebugging(true)
	assert.False(t, deadlock.Opts.Disable)

	EnableLockDebugging(false)
	assert.True(t, deadlock.Opts.Disable)
}
