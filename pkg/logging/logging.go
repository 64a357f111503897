package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var output io.Writer = os.Stderr

// New returns a text logger prefixed with component. The level comes from
// LOG_LEVEL (debug, info, warn, error) and defaults to info.
func New(component string) *log.Logger {
	logger := log.NewWithOptions(output, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          component,
		Level:           levelFromEnv(),
	})
	return logger
}

func levelFromEnv() log.Level {
	raw := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if raw == "" {
		return log.InfoLevel
	}
	lvl, err := log.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
