// The keep-going failure report: when Context.KeepGoing is set, a
// recipe failure doesn't abort the run, it's recorded here and surfaced
// once EXECUTE drains (a supplemental feature beyond strict §4.5, grounded
// in the teacher's accumulation of per-target test/build failures into one
// end-of-run report rather than dying on the first one).

package core

import (
	"sync"

	"github.com/hashicorp/go-multierror"
)

// failureCollector accumulates RecipeFailedError/FailedDependencyError
// values from concurrent EXECUTE goroutines into a single report.
type failureCollector struct {
	mu   sync.Mutex
	errs *multierror.Error
}

func newFailureCollector() *failureCollector {
	return &failureCollector{}
}

// Record adds err to the report. Safe for concurrent use.
func (f *failureCollector) Record(err error) {
	if err == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = multierror.Append(f.errs, err)
}

// Err returns the aggregated error, or nil if nothing has been recorded.
func (f *failureCollector) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		return nil
	}
	return f.errs.ErrorOrNil()
}

// Count returns the number of failures recorded so far.
func (f *failureCollector) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		return 0
	}
	return len(f.errs.Errors)
}

// RecordFailure adds err to ctx's keep-going report and, when KeepGoing is
// off, latches failedOnly so callers can stop scheduling fresh work after
// the first failure instead of racing more of the graph to the bottom.
func (ctx *Context) RecordFailure(err error) {
	if err == nil {
		return
	}
	ctx.failures.Record(err)
	if !ctx.KeepGoing {
		ctx.failedOnly.Store(true)
	}
}

// Failed reports whether the run should stop launching new work: either
// a failure landed with KeepGoing off, or the caller is just checking
// whether anything has failed yet at all.
func (ctx *Context) Failed() bool {
	return ctx.failedOnly.Load() || ctx.failures.Count() > 0
}

// FailureReport returns the aggregated keep-going error report, or nil if
// the run completed without any recipe failures.
func (ctx *Context) FailureReport() error {
	return ctx.failures.Err()
}
