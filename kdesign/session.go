package kdesign

import (
	"fmt"
	"strconv"

	"github.com/go-logr/logr"
)

// Session is a scoped, mutable handle on a Project used while building an
// implementation. Patterns register the streamlets they synthesize through it.
//
// Registered streamlets are staged: they resolve through the session but stay
// invisible to the project until Commit. Close discards whatever was not
// committed, so a failed build leaves the project as it was. A closed session
// rejects all further calls.
//
// Session is not safe for concurrent use, and no other code may mutate the
// project while a session is open.
type Session struct {
	project   *Project
	generated LibKey
	log       logr.Logger
	staged    []*Streamlet
	byKey     map[StreamletKey]*Streamlet
	closed    bool
}

// NewSession opens a session on p.
func (p *Project) NewSession(opts ...Option) *Session {
	c := newConfig(opts)
	return &Session{
		project:   p,
		generated: c.generated,
		log:       c.log,
		byKey:     make(map[StreamletKey]*Streamlet),
	}
}

func (s *Session) check() error {
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

// Streamlet resolves handle against the staged streamlets first, then the
// project.
func (s *Session) Streamlet(handle StreamletHandle) (*Streamlet, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if handle.Lib == s.generated {
		if st, ok := s.byKey[handle.Streamlet]; ok {
			return st, nil
		}
	}
	return s.project.Streamlet(handle)
}

// GeneratedLibrary returns the key generated streamlets are registered under.
func (s *Session) GeneratedLibrary() LibKey {
	return s.generated
}

// GeneratedName derives the name of a generated streamlet from the qualified
// path of the node requesting it, e.g. lib_top_node_map. If that name is
// already staged or in the generated library, the first free of name_1,
// name_2, ... is returned instead.
func (s *Session) GeneratedName(parts ...Name) (Name, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	strs := make([]string, 0, len(parts))
	for _, p := range parts {
		strs = append(strs, string(p))
	}
	base, err := JoinNames(strs...)
	if err != nil {
		return "", err
	}

	name := base
	for n := 1; s.taken(name); n++ {
		name = base + "_" + Name(strconv.Itoa(n))
	}
	return name, nil
}

func (s *Session) taken(key StreamletKey) bool {
	if _, ok := s.byKey[key]; ok {
		return true
	}
	lib, err := s.project.Library(s.generated)
	if err != nil {
		return false
	}
	_, err = lib.Streamlet(key)
	return err == nil
}

// Register stages st for the generated library.
func (s *Session) Register(st *Streamlet) (StreamletHandle, error) {
	if err := s.check(); err != nil {
		return StreamletHandle{}, err
	}
	if st == nil {
		return StreamletHandle{}, fmt.Errorf("%w: nil streamlet for library %s", ErrInvalidArgument, s.generated)
	}
	if s.taken(st.key) {
		return StreamletHandle{}, fmt.Errorf("register generated streamlet: %w: streamlet %s in library %s", ErrDuplicateKey, st.key, s.generated)
	}
	s.staged = append(s.staged, st)
	s.byKey[st.key] = st

	h := StreamletHandle{Lib: s.generated, Streamlet: st.key}
	s.log.V(1).Info("Registered generated streamlet", "streamlet", h.String())
	return h, nil
}

// AttachImplementation attaches impl to the streamlet at handle, which may be
// staged.
func (s *Session) AttachImplementation(handle StreamletHandle, impl *Implementation) error {
	st, err := s.Streamlet(handle)
	if err != nil {
		return err
	}
	return st.AttachImplementation(impl)
}

// Staged returns the number of registered streamlets not yet committed.
func (s *Session) Staged() int {
	return len(s.staged)
}

// Commit adds all staged streamlets to the project's generated library,
// creating the library on first use. Either all staged streamlets are added
// or none are.
func (s *Session) Commit() error {
	if err := s.check(); err != nil {
		return err
	}
	if len(s.staged) == 0 {
		return nil
	}

	lib, err := s.project.Library(s.generated)
	if err == nil {
		for _, st := range s.staged {
			if _, err := lib.Streamlet(st.key); err == nil {
				return fmt.Errorf("commit generated streamlet: %w: streamlet %s in library %s", ErrDuplicateKey, st.key, s.generated)
			}
		}
	} else {
		lib = newLibrary(s.generated)
		if _, err := s.project.AddLibrary(lib); err != nil {
			return err
		}
	}
	for _, st := range s.staged {
		if _, err := lib.AddStreamlet(st); err != nil {
			return err
		}
	}

	s.log.V(1).Info("Committed generated streamlets", "library", string(s.generated), "count", len(s.staged))
	s.staged = nil
	clear(s.byKey)
	return nil
}

// Close ends the session and discards uncommitted streamlets. It is safe to
// call more than once.
func (s *Session) Close() {
	if !s.closed && len(s.staged) > 0 {
		s.log.V(1).Info("Discarded generated streamlets", "library", string(s.generated), "count", len(s.staged))
	}
	s.staged = nil
	clear(s.byKey)
	s.closed = true
}
