package kdesign

import (
	"fmt"
	"strings"
)

// Name is a validated identifier.
// Names must be non-empty, start with a letter or underscore and contain only
// ASCII letters, digits and underscores.
type Name string

// Key aliases. All keys share the Name rules.
type (
	LibKey       = Name
	StreamletKey = Name
	IFKey        = Name
	NodeKey      = Name
)

// This is the node key reserved for the boundary node of a graph.
const This NodeKey = "this"

// GeneratedLibrary is the default key of the library holding pattern generated
// streamlets.
const GeneratedLibrary LibKey = "__generated__"

// NewName validates s and returns it as a Name.
func NewName(s string) (Name, error) {
	n := Name(s)
	if err := n.Validate(); err != nil {
		return "", err
	}
	return n, nil
}

// MustName is like NewName but panics on error.
func MustName(s string) Name {
	n, err := NewName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Validate checks the Name rules.
func (n Name) Validate() error {
	if n == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidArgument)
	}
	for i, r := range string(n) {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return fmt.Errorf("%w: name %q contains invalid character %q at %d", ErrInvalidArgument, string(n), r, i)
		}
	}
	return nil
}

func (n Name) String() string {
	return string(n)
}

// JoinNames concatenates parts with underscores into a single Name.
func JoinNames(parts ...string) (Name, error) {
	return NewName(strings.Join(parts, "_"))
}

// StreamletHandle addresses a streamlet inside a project.
type StreamletHandle struct {
	Lib       LibKey
	Streamlet StreamletKey
}

// NewStreamletHandle validates both keys.
func NewStreamletHandle(lib, streamlet string) (StreamletHandle, error) {
	l, err := NewName(lib)
	if err != nil {
		return StreamletHandle{}, err
	}
	s, err := NewName(streamlet)
	if err != nil {
		return StreamletHandle{}, err
	}
	return StreamletHandle{Lib: l, Streamlet: s}, nil
}

// MustStreamletHandle is like NewStreamletHandle but panics on error.
func MustStreamletHandle(lib, streamlet string) StreamletHandle {
	h, err := NewStreamletHandle(lib, streamlet)
	if err != nil {
		panic(err)
	}
	return h
}

func (h StreamletHandle) String() string {
	return string(h.Lib) + "." + string(h.Streamlet)
}
