// Package idxlog provides the structured logger shared by the buffer
// manager, the relation layer, and the btreeidx CLI. The paged file
// store and the btreeidx engine do not log. It is a thin wrapper around
// zerolog so call sites log fields instead of formatting strings.
package idxlog

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	once sync.Once
	base zerolog.Logger
)

// Get returns the process-wide logger, initializing it on first use.
// Level defaults to info; set IDX_LOG_LEVEL=debug to see buffer-pool
// page allocations and new relation heap pages. Pins, unpins, splits
// and root promotions are not logged at any level.
func Get() zerolog.Logger {
	once.Do(func() {
		level := zerolog.InfoLevel
		if lvl, err := zerolog.ParseLevel(os.Getenv("IDX_LOG_LEVEL")); err == nil {
			level = lvl
		}
		base = zerolog.New(output(os.Stderr)).
			Level(level).
			With().
			Timestamp().
			Logger()
	})
	return base
}

// For tests that want to assert on log output without touching the
// process-wide logger.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(output(w)).With().Timestamp().Logger()
}

func output(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"}
}
