// Package obslog is the process-wide structured logger for opt and
// cmd/unroll, replacing the debug channel spec.md §6 treats as external
// ("the pass reports only through the graph-engine's debug channel").
// It mirrors the package-level-global-logger-behind-a-mutex pattern from
// joeycumines-go-utilpkg/eventloop/logging.go, backed by
// github.com/rs/zerolog instead of that package's own hand-rolled
// Logger interface.
package obslog

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var global struct {
	sync.RWMutex
	logger zerolog.Logger
}

func init() {
	global.logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)
}

// SetLogger replaces the process-wide logger, for embedding loopunroll
// into a larger driver that already has its own zerolog.Logger.
func SetLogger(l zerolog.Logger) {
	global.Lock()
	defer global.Unlock()
	global.logger = l
}

// SetLevel adjusts the process-wide logger's minimum level.
func SetLevel(level zerolog.Level) {
	global.Lock()
	defer global.Unlock()
	global.logger = global.logger.Level(level)
}

// L returns the process-wide logger. opt logs loop-reject reasons at
// Debug and successful unrolls at Info, the same granularity libfirm's
// DB((dbg, LEVEL_n, ...)) calls use.
func L() *zerolog.Logger {
	global.RLock()
	defer global.RUnlock()
	l := global.logger
	return &l
}
