package kparse

import (
	"github.com/birdayz/tydi/kdesign"
	"github.com/go-logr/logr"
)

type config struct {
	log       logr.Logger
	generated kdesign.LibKey
	filename  string
}

// Option configures an ImplParser.
type Option func(*config)

var WithLogger = func(log logr.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithGeneratedLibrary sets the library that pattern expansions register
// their streamlets into.
var WithGeneratedLibrary = func(key kdesign.LibKey) Option {
	return func(c *config) {
		c.generated = key
	}
}

// WithFilename names the input in parse errors and logs.
var WithFilename = func(name string) Option {
	return func(c *config) {
		c.filename = name
	}
}

func (c config) design() []kdesign.Option {
	return []kdesign.Option{
		kdesign.WithLogger(c.log),
		kdesign.WithGeneratedLibrary(c.generated),
	}
}
