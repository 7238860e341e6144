package core

import (
	"os"
	"time"

	"github.com/sasha-s/go-deadlock"
)

// debugMutex and debugRWMutex are drop-in replacements for sync.Mutex
// and sync.RWMutex: same Lock/Unlock/RLock/RUnlock API, but they record
// lock acquisition order and report a cycle instead of hanging forever.
// Detection walks a global lock graph on every acquisition, so it
// defaults to disabled and is toggled at runtime rather than compiled
// out, the same way lazydocker gates it off gui.Config.Debug instead of
// a build tag.
type debugMutex = deadlock.Mutex
type debugRWMutex = deadlock.RWMutex

func init() {
	deadlock.Opts.Disable = os.Getenv("ZYMURGY_DEBUG_LOCKS") == ""
	deadlock.Opts.DeadlockTimeout = 10 * time.Second
}

// EnableLockDebugging turns deadlock detection on or off for the whole
// process. Enable it when a build is hanging and you need to know which
// two locks (scope parent chains, or an action slot re-entered from
// itself) are stuck on each other.
func EnableLockDebugging(enable bool) {
	deadlock.Opts.Disable = !enable
}
