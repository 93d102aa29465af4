package kdesign

import (
	"fmt"
	"iter"
	"slices"

	"github.com/birdayz/tydi/ktype"
)

// Streamlet is a component definition: a named, ordered set of uniquely keyed
// interfaces with an optional implementation.
type Streamlet struct {
	key            StreamletKey
	doc            string
	interfaces     []Interface
	implementation *Implementation
}

// NewStreamlet builds a streamlet. Interface keys must be unique.
func NewStreamlet(key string, interfaces ...Interface) (*Streamlet, error) {
	k, err := NewName(key)
	if err != nil {
		return nil, fmt.Errorf("streamlet key: %w", err)
	}
	seen := make(map[IFKey]struct{}, len(interfaces))
	for _, i := range interfaces {
		if _, dup := seen[i.key]; dup {
			return nil, fmt.Errorf("%w: interface %s declared twice on streamlet %s", ErrDuplicateKey, i.key, k)
		}
		seen[i.key] = struct{}{}
	}
	return &Streamlet{
		key:        k,
		interfaces: slices.Clone(interfaces),
	}, nil
}

// MustStreamlet is like NewStreamlet but panics on error.
func MustStreamlet(key string, interfaces ...Interface) *Streamlet {
	s, err := NewStreamlet(key, interfaces...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Streamlet) Key() Name { return s.key }

// Doc returns the documentation string, empty if none was set.
func (s *Streamlet) Doc() string { return s.doc }

func (s *Streamlet) SetDoc(doc string) { s.doc = doc }

// Interfaces yields the interfaces in declaration order.
func (s *Streamlet) Interfaces() iter.Seq[Interface] {
	return slices.Values(s.interfaces)
}

// Inputs yields the In interfaces in declaration order.
func (s *Streamlet) Inputs() iter.Seq[Interface] {
	return filterMode(s.Interfaces(), In)
}

// Outputs yields the Out interfaces in declaration order.
func (s *Streamlet) Outputs() iter.Seq[Interface] {
	return filterMode(s.Interfaces(), Out)
}

// Interface returns the interface with the given key.
func (s *Streamlet) Interface(key IFKey) (Interface, error) {
	idx := s.indexOf(key)
	if idx < 0 {
		return Interface{}, fmt.Errorf("%w: interface %s on streamlet %s", ErrNotFound, key, s.key)
	}
	return s.interfaces[idx], nil
}

func (s *Streamlet) indexOf(key IFKey) int {
	return slices.IndexFunc(s.interfaces, func(i Interface) bool { return i.key == key })
}

// Implementation returns the attached implementation, or nil.
func (s *Streamlet) Implementation() *Implementation {
	return s.implementation
}

// AttachImplementation attaches impl. A streamlet has at most one
// implementation.
func (s *Streamlet) AttachImplementation(impl *Implementation) error {
	if impl == nil {
		return fmt.Errorf("%w: nil implementation for streamlet %s", ErrInvalidArgument, s.key)
	}
	if s.implementation != nil {
		return fmt.Errorf("%w: streamlet %s", ErrImplementationAttached, s.key)
	}
	s.implementation = impl
	return nil
}

// Clone returns an independent copy with a new key. Interface types of the
// copy can be inferred without affecting s. The implementation is shared, it
// is read-only once attached.
func (s *Streamlet) Clone(key Name) *Streamlet {
	return &Streamlet{
		key:            key,
		doc:            s.doc,
		interfaces:     slices.Clone(s.interfaces),
		implementation: s.implementation,
	}
}

func (s *Streamlet) inferType(key IFKey, t ktype.Type) error {
	idx := s.indexOf(key)
	if idx < 0 {
		return fmt.Errorf("%w: interface %s on streamlet %s", ErrNotFound, key, s.key)
	}
	return s.interfaces[idx].InferType(t)
}

// replace overwrites the interface with the same key. Modes are kept as
// declared, so i may come from a reversed view.
func (s *Streamlet) replace(i Interface) {
	if idx := s.indexOf(i.key); idx >= 0 {
		s.interfaces[idx].typ = i.typ
	}
}

func filterMode(seq iter.Seq[Interface], mode Mode) iter.Seq[Interface] {
	return func(yield func(Interface) bool) {
		for i := range seq {
			if i.mode != mode {
				continue
			}
			if !yield(i) {
				return
			}
		}
	}
}

// sole returns the single interface of seq, or an error naming what if there
// is none or more than one.
func sole(seq iter.Seq[Interface], owner Name, what string) (Interface, error) {
	var found []Interface
	for i := range seq {
		found = append(found, i)
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return Interface{}, fmt.Errorf("%w: %s has no %s interface", ErrNotFound, owner, what)
	default:
		return Interface{}, fmt.Errorf("%w: %s has %d %s interfaces, expected exactly one", ErrInvalidArgument, owner, len(found), what)
	}
}
