// Package logging contains the singleton logger that we use globally.
// It deliberately has little else since it's a dependency everywhere.
package logging

import (
	"os"

	"gopkg.in/op/go-logging.v1"
)

// Log is the singleton logger instance.
// We never alter individual levels and don't log the module name, so there
// is no need to have more than one, and it helps avoid race conditions.
var Log = logging.MustGetLogger("zymurgy")

// InitLogging sets up the package's single stderr backend at the given
// verbosity. Callers that need coloured or file-backed logging aren't
// served by this package on purpose (see the doc comment above); a CLI
// entry point that needs those should build its own backend with
// gopkg.in/op/go-logging.v1 directly and call logging.SetBackend.
func InitLogging(verbosity Level) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(
		"%{time:15:04:05.000} %{level:7s}: %{message}"))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(verbosity, "")
	logging.SetBackend(leveled)
}

// Level is a re-export of the library type.
type Level = logging.Level

// Re-exports of various log levels.
const (
	CRITICAL = logging.CRITICAL
	ERROR    = logging.ERROR
	WARNING  = logging.WARNING
	NOTICE   = logging.NOTICE
	INFO     = logging.INFO
	DEBUG    = logging.DEBUG
)
