// Package logging configures the process-wide structured logger used
// for stage transitions, warnings, and request handling.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a console-friendly zerolog.Logger. Set CLIPFORGE_LOG_JSON=1
// to get raw JSON lines instead, the shape a supervising process would
// want to parse.
func New(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if os.Getenv("CLIPFORGE_LOG_JSON") == "1" {
		return zerolog.New(w).With().Timestamp().Logger()
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(console).With().Timestamp().Logger()
}
