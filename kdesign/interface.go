package kdesign

import (
	"fmt"
	"strings"

	"github.com/birdayz/tydi/ktype"
)

// Mode is the direction of an interface as declared on its streamlet.
type Mode int

const (
	In Mode = iota
	Out
)

func (m Mode) String() string {
	switch m {
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return "unknown"
	}
}

// Reversed returns the opposite mode.
func (m Mode) Reversed() Mode {
	if m == In {
		return Out
	}
	return In
}

// ParseMode parses "in" or "out".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "in":
		return In, nil
	case "out":
		return Out, nil
	default:
		return 0, fmt.Errorf("%w: %q is not a valid interface mode, expected \"in\" or \"out\"", ErrInvalidArgument, s)
	}
}

// InferenceRule resolves a pending interface type from the type proposed by a
// connected peer. Returning an error rejects the peer.
type InferenceRule func(proposed ktype.Type) (ktype.Type, error)

// Interface is one named, directional, typed port of a streamlet.
type Interface struct {
	key  IFKey
	mode Mode
	typ  ktype.Type
	rule InferenceRule
}

// NewInterface returns an interface with a fixed type. A nil type is treated
// as ktype.Unknown, which adopts whatever its first peer proposes.
func NewInterface(key string, mode Mode, typ ktype.Type) (Interface, error) {
	k, err := NewName(key)
	if err != nil {
		return Interface{}, fmt.Errorf("interface key: %w", err)
	}
	if typ == nil {
		typ = ktype.Unknown{}
	}
	return Interface{key: k, mode: mode, typ: typ}, nil
}

// NewInferredInterface returns an interface whose type is pending until rule
// accepts a peer type.
func NewInferredInterface(key string, mode Mode, rule InferenceRule) (Interface, error) {
	i, err := NewInterface(key, mode, ktype.Unknown{})
	if err != nil {
		return Interface{}, err
	}
	i.rule = rule
	return i, nil
}

// MustInterface is like NewInterface but panics on error.
func MustInterface(key string, mode Mode, typ ktype.Type) Interface {
	i, err := NewInterface(key, mode, typ)
	if err != nil {
		panic(err)
	}
	return i
}

// ParseInterface parses a declaration of the form "key: mode Type", e.g.
// "in: in Stream<Bits<32>, d=1>".
func ParseInterface(decl string) (Interface, error) {
	key, rest, ok := strings.Cut(decl, ":")
	if !ok {
		return Interface{}, fmt.Errorf("%w: interface declaration %q lacks ':'", ErrInvalidArgument, decl)
	}
	mode, typ, ok := strings.Cut(strings.TrimSpace(rest), " ")
	if !ok {
		return Interface{}, fmt.Errorf("%w: interface declaration %q lacks a type", ErrInvalidArgument, decl)
	}
	m, err := ParseMode(mode)
	if err != nil {
		return Interface{}, err
	}
	t, err := ktype.Parse(strings.TrimSpace(typ))
	if err != nil {
		return Interface{}, fmt.Errorf("%w: interface %q: %w", ErrInvalidArgument, strings.TrimSpace(key), err)
	}
	return NewInterface(strings.TrimSpace(key), m, t)
}

// MustParseInterface is like ParseInterface but panics on error.
func MustParseInterface(decl string) Interface {
	i, err := ParseInterface(decl)
	if err != nil {
		panic(err)
	}
	return i
}

func (i Interface) Key() IFKey       { return i.key }
func (i Interface) Mode() Mode       { return i.mode }
func (i Interface) Type() ktype.Type { return i.typ }

// Pending reports whether the type still awaits inference.
func (i Interface) Pending() bool {
	return ktype.IsPending(i.typ)
}

// Reversed returns a copy with the opposite mode.
func (i Interface) Reversed() Interface {
	r := i
	r.mode = i.mode.Reversed()
	return r
}

func (i Interface) String() string {
	return fmt.Sprintf("%s: %s %s", i.key, i.mode, i.typ)
}

// InferType offers a peer's type to the interface.
//
// A pending interface resolves through its inference rule, or adopts the
// proposed type when it has none. A concrete interface only accepts a
// structurally equal type. Proposing a pending type is a no-op.
func (i *Interface) InferType(proposed ktype.Type) error {
	if ktype.IsPending(proposed) {
		return nil
	}
	if !i.Pending() {
		if !i.typ.Equal(proposed) {
			return fmt.Errorf("%w: interface %s has type %s, peer proposes %s", ErrTypeMismatch, i.key, i.typ, proposed)
		}
		return nil
	}
	if i.rule == nil {
		i.typ = proposed
		return nil
	}
	resolved, err := i.rule(proposed)
	if err != nil {
		return fmt.Errorf("%w: interface %s rejects %s: %w", ErrTypeMismatch, i.key, proposed, err)
	}
	if ktype.IsPending(resolved) {
		return fmt.Errorf("%w: interface %s inferred no concrete type from %s", ErrTypeMismatch, i.key, proposed)
	}
	i.typ = resolved
	return nil
}
