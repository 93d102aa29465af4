package kdesign

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// Library is a namespace of streamlets.
type Library struct {
	key        LibKey
	streamlets map[StreamletKey]*Streamlet
}

// NewLibrary returns an empty library.
func NewLibrary(key string) (*Library, error) {
	k, err := NewName(key)
	if err != nil {
		return nil, fmt.Errorf("library key: %w", err)
	}
	return newLibrary(k), nil
}

// MustLibrary is like NewLibrary but panics on error.
func MustLibrary(key string) *Library {
	l, err := NewLibrary(key)
	if err != nil {
		panic(err)
	}
	return l
}

func newLibrary(key LibKey) *Library {
	return &Library{key: key, streamlets: make(map[StreamletKey]*Streamlet)}
}

func (l *Library) Key() LibKey { return l.key }

// AddStreamlet registers s and returns its handle.
func (l *Library) AddStreamlet(s *Streamlet) (StreamletHandle, error) {
	if s == nil {
		return StreamletHandle{}, fmt.Errorf("%w: nil streamlet for library %s", ErrInvalidArgument, l.key)
	}
	if _, exists := l.streamlets[s.key]; exists {
		return StreamletHandle{}, fmt.Errorf("%w: streamlet %s in library %s", ErrDuplicateKey, s.key, l.key)
	}
	l.streamlets[s.key] = s
	return StreamletHandle{Lib: l.key, Streamlet: s.key}, nil
}

// Streamlet returns the streamlet with the given key.
func (l *Library) Streamlet(key StreamletKey) (*Streamlet, error) {
	s, ok := l.streamlets[key]
	if !ok {
		return nil, fmt.Errorf("%w: streamlet %s in library %s", ErrNotFound, key, l.key)
	}
	return s, nil
}

// Streamlets returns all streamlets sorted by key.
func (l *Library) Streamlets() []*Streamlet {
	return slices.SortedFunc(maps.Values(l.streamlets), func(a, b *Streamlet) int {
		return cmp.Compare(a.key, b.key)
	})
}

// Len returns the number of streamlets.
func (l *Library) Len() int {
	return len(l.streamlets)
}
