package kdesign

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// Resolver looks up streamlets by handle.
type Resolver interface {
	Streamlet(handle StreamletHandle) (*Streamlet, error)
}

// Project is the root namespace of a design and the sole authority for
// resolving StreamletHandles.
type Project struct {
	name      Name
	libraries map[LibKey]*Library
}

// NewProject returns an empty project.
func NewProject(name string) (*Project, error) {
	n, err := NewName(name)
	if err != nil {
		return nil, fmt.Errorf("project name: %w", err)
	}
	return &Project{name: n, libraries: make(map[LibKey]*Library)}, nil
}

// MustProject is like NewProject but panics on error.
func MustProject(name string) *Project {
	p, err := NewProject(name)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Project) Name() Name { return p.name }

// AddLibrary registers lib.
func (p *Project) AddLibrary(lib *Library) (LibKey, error) {
	if lib == nil {
		return "", fmt.Errorf("%w: nil library for project %s", ErrInvalidArgument, p.name)
	}
	if _, exists := p.libraries[lib.key]; exists {
		return "", fmt.Errorf("%w: library %s in project %s", ErrDuplicateKey, lib.key, p.name)
	}
	p.libraries[lib.key] = lib
	return lib.key, nil
}

// Library returns the library with the given key.
func (p *Project) Library(key LibKey) (*Library, error) {
	lib, ok := p.libraries[key]
	if !ok {
		return nil, fmt.Errorf("%w: library %s in project %s", ErrNotFound, key, p.name)
	}
	return lib, nil
}

// Libraries returns all libraries sorted by key.
func (p *Project) Libraries() []*Library {
	return slices.SortedFunc(maps.Values(p.libraries), func(a, b *Library) int {
		return cmp.Compare(a.key, b.key)
	})
}

// UserLibraries is like Libraries but skips the generated library.
func (p *Project) UserLibraries() []*Library {
	return slices.DeleteFunc(p.Libraries(), func(l *Library) bool {
		return l.key == GeneratedLibrary
	})
}

// Streamlet resolves handle.
func (p *Project) Streamlet(handle StreamletHandle) (*Streamlet, error) {
	lib, err := p.Library(handle.Lib)
	if err != nil {
		return nil, err
	}
	return lib.Streamlet(handle.Streamlet)
}

// AddStreamletImpl attaches impl to the streamlet at handle.
func (p *Project) AddStreamletImpl(handle StreamletHandle, impl *Implementation) error {
	s, err := p.Streamlet(handle)
	if err != nil {
		return err
	}
	return s.AttachImplementation(impl)
}

// Implementation returns the implementation attached to the streamlet at
// handle, or ErrNotFound if it has none.
func (p *Project) Implementation(handle StreamletHandle) (*Implementation, error) {
	s, err := p.Streamlet(handle)
	if err != nil {
		return nil, err
	}
	if s.implementation == nil {
		return nil, fmt.Errorf("%w: implementation of %s", ErrNotFound, handle)
	}
	return s.implementation, nil
}
