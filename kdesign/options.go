package kdesign

import "github.com/go-logr/logr"

type config struct {
	log       logr.Logger
	generated LibKey
}

func newConfig(opts []Option) config {
	c := config{
		log:       logr.Discard(),
		generated: GeneratedLibrary,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Option configures builders and sessions.
type Option func(*config)

var WithLogger = func(log logr.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithGeneratedLibrary sets the library that sessions register generated
// streamlets into.
var WithGeneratedLibrary = func(key LibKey) Option {
	return func(c *config) {
		c.generated = key
	}
}
