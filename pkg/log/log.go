package log

import (
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
)

type config struct {
	out     io.Writer
	json    bool
	verbose bool
}

type Option func(*config)

// WithOutput sets the destination. Defaults to stderr.
var WithOutput = func(w io.Writer) Option {
	return func(c *config) {
		c.out = w
	}
}

// WithJSON writes plain JSON lines instead of console output.
var WithJSON = func(json bool) Option {
	return func(c *config) {
		c.json = json
	}
}

// WithVerbose enables debug output, which carries logr V(1) messages.
var WithVerbose = func(verbose bool) Option {
	return func(c *config) {
		c.verbose = verbose
	}
}

func New(opts ...Option) *zerolog.Logger {
	c := config{out: os.Stderr}
	for _, opt := range opts {
		opt(&c)
	}

	output := c.out
	if !c.json {
		output = zerolog.ConsoleWriter{Out: c.out, TimeFormat: "2006-01-02T15:04:05.999Z07:00"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := zerolog.InfoLevel
	if c.verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &logger
}

// NewLogr returns New wrapped for libraries that take a logr.Logger.
func NewLogr(opts ...Option) logr.Logger {
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"
	return zerologr.New(New(opts...))
}
