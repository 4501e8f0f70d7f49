package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Log output formats understood by New.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New builds the process logger. FormatText renders human-readable lines through
// charmbracelet/log; anything else falls back to JSON. Unknown levels default to info.
func New(level, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}

	if strings.EqualFold(strings.TrimSpace(format), FormatText) {
		handler := charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			ReportCaller:    true,
			Level:           charmlog.Level(lvl),
		})
		return slog.New(handler)
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true, Level: lvl}))
}
