package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger.
//   - level: trace, debug, info, warn, error, fatal or panic (falls back to info)
//   - format: "json" for production, anything else for coloured console output
func Setup(level, format string) zerolog.Logger {
	return setup(os.Stdout, level, format)
}

func setup(out io.Writer, level, format string) zerolog.Logger {
	writer := out
	if format != "json" {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	logger := zerolog.New(writer).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}
