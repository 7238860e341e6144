// Package recipe supplies the process-execution primitive most rules'
// Apply functions close over when building a core.Recipe: check a shell
// command (via shlex) and run it through sh -c with a timeout, capturing output and
// killing the whole process group on timeout or cancellation. Grounded
// on the teacher's src/process package (Executor, SIGTERM-then-SIGKILL
// group kill, safeBuffer for concurrent stdout/stderr capture), rewritten
// to drop please's linux-namespace sandboxing (out of this engine's
// scope per spec §1 "process spawning internals beyond what the core
// needs") and to take one shell command string, checked with shlex,
// instead of please's pre-tokenized argv.
package recipe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/google/shlex"

	"github.com/thistledown/zymurgy/src/cli/logging"
)

var log = logging.Log

// Executor runs recipe commands and tracks the subprocesses it started
// so it can terminate them all if asked to (eg. on a keep-going abort).
type Executor struct {
	mu    sync.Mutex
	procs map[*exec.Cmd]struct{}
}

// New constructs an Executor.
func New() *Executor {
	return &Executor{procs: map[*exec.Cmd]struct{}{}}
}

// Split tokenizes a shelled recipe command the way a rule's Apply
// function would write it in a BUILD-file-level string, eg.
// "cc -c $SRC -o $OUT".
func Split(command string) ([]string, error) {
	return shlex.Split(command)
}

// Run checks that command splits into a non-empty argv, then runs it
// through "sh -c" in dir with the given environment and timeout,
// returning combined stdout+stderr. A timeout is reported as
// ctx's DeadlineExceeded error; the whole process group is killed in
// that case so a hung child doesn't outlive the recipe.
func (e *Executor) Run(ctx context.Context, dir string, env []string, timeout time.Duration, command string) ([]byte, error) {
	argv, err := Split(command)
	if err != nil {
		return nil, fmt.Errorf("invalid recipe command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty recipe command")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	cmd.SysProcAttr = groupAttr()

	var out safeBuffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	e.register(cmd)
	defer e.unregister(cmd)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return out.Bytes(), err
	case <-ctx.Done():
		e.kill(cmd)
		<-done
		return out.Bytes(), ctx.Err()
	}
}

func (e *Executor) register(cmd *exec.Cmd) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.procs[cmd] = struct{}{}
}

func (e *Executor) unregister(cmd *exec.Cmd) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.procs, cmd)
}

// kill sends SIGTERM to cmd's process group, escalating to SIGKILL if it
// hasn't exited within a short grace period.
func (e *Executor) kill(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	groupKill(cmd.Process.Pid, syscall.SIGTERM)
	time.Sleep(30 * time.Millisecond)
	groupKill(cmd.Process.Pid, syscall.SIGKILL)
}

// KillAll terminates every subprocess this executor has started, used
// when a keep-going run is aborting early.
func (e *Executor) KillAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for cmd := range e.procs {
		e.kill(cmd)
	}
}

// safeBuffer lets stdout and stderr share one buffer without racing,
// matching the teacher's own safeBuffer in src/process (os/exec only
// guarantees that for a single shared writer).
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Bytes()
}
