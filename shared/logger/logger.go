package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger writing to stdout. With console set the output
// is human readable, otherwise it is JSON.
func New(console bool, level string) *zerolog.Logger {
	return NewWithWriter(os.Stdout, console, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, console bool, level string) *zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	l := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return &l
}
