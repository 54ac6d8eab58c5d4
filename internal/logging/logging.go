package logging

import (
	"io"
	"os"
	"strings"

	"debate-arena/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var output io.Writer = os.Stdout

// Init configures the global zerolog logger. Must run before any other
// component logs.
func Init(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	output = os.Stdout
	if cfg.File != "" {
		if w, werr := newCappedFileWriter(cfg.File, cfg.MaxMB); werr == nil {
			output = w
		}
	}
	sink := output
	if cfg.Pretty {
		sink = zerolog.ConsoleWriter{Out: output}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(sink).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
}

// Writer returns the sink Init selected, for handlers that log outside
// zerolog (request logging bridges).
func Writer() io.Writer {
	return output
}
