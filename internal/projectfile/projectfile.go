// Package projectfile loads streamlet libraries from YAML project files.
//
// A project file declares libraries, their streamlets and the streamlets'
// interfaces, and may list implementation files to apply afterwards:
//
//	project: demo
//	libraries:
//	  - name: primitives
//	    streamlets:
//	      - name: pass
//	        interfaces:
//	          - "in: in Stream<Bits<32>>"
//	          - name: out
//	            mode: out
//	            type: Stream<Bits<32>>
//	implementations:
//	  - chain.impl
//
// Interfaces are written either as a one-line declaration or as a mapping.
// A type of "Unknown" leaves the interface to be inferred.
package projectfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/birdayz/tydi/kdesign"
	"github.com/birdayz/tydi/ktype"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// DefaultProject is the project name used when no file names one.
const DefaultProject = "tydi"

// File is the decoded content of one project file.
type File struct {
	Project         string        `yaml:"project,omitempty"`
	Libraries       []LibrarySpec `yaml:"libraries"`
	Implementations []string      `yaml:"implementations,omitempty"`

	// path is the file the content was loaded from, if any.
	path string
}

type LibrarySpec struct {
	Name       string          `yaml:"name"`
	Streamlets []StreamletSpec `yaml:"streamlets"`
}

type StreamletSpec struct {
	Name       string          `yaml:"name"`
	Doc        string          `yaml:"doc,omitempty"`
	Interfaces []InterfaceSpec `yaml:"interfaces"`
}

// InterfaceSpec declares one interface. In YAML it is either a scalar
// "key: mode Type" or a mapping with name, mode and type.
type InterfaceSpec struct {
	Name string `yaml:"name"`
	Mode string `yaml:"mode"`
	Type string `yaml:"type"`
}

func (s *InterfaceSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		i, err := kdesign.ParseInterface(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*s = InterfaceSpec{Name: i.Key().String(), Mode: i.Mode().String(), Type: i.Type().String()}
		return nil
	}

	type plain InterfaceSpec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = InterfaceSpec(p)
	return nil
}

// Interface converts the declaration. An empty type means Unknown.
func (s InterfaceSpec) Interface() (kdesign.Interface, error) {
	mode, err := kdesign.ParseMode(s.Mode)
	if err != nil {
		return kdesign.Interface{}, fmt.Errorf("interface %q: %w", s.Name, err)
	}
	var typ ktype.Type
	if s.Type != "" {
		if typ, err = ktype.Parse(s.Type); err != nil {
			return kdesign.Interface{}, fmt.Errorf("%w: interface %q: %w", kdesign.ErrInvalidArgument, s.Name, err)
		}
	}
	return kdesign.NewInterface(s.Name, mode, typ)
}

// Decode reads one project file from r. Unknown fields are rejected.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("%w: decode project file: %w", kdesign.ErrInvalidArgument, err)
	}
	return &f, nil
}

// Parse decodes a project file held in memory.
func Parse(data []byte) (*File, error) {
	return Decode(bytes.NewReader(data))
}

// Load reads and decodes the project file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.path = path
	return f, nil
}

// Path returns the file f was loaded from, or "" for parsed content.
func (f *File) Path() string {
	return f.path
}

// ImplementationPaths returns the listed implementation files. Relative paths
// are resolved against the directory of the project file.
func (f *File) ImplementationPaths() []string {
	paths := make([]string, 0, len(f.Implementations))
	for _, p := range f.Implementations {
		if f.path != "" && !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(f.path), p)
		}
		paths = append(paths, p)
	}
	return paths
}

// Libraries builds the declared libraries. All problems in the file are
// reported together.
func (f *File) Libraries() ([]*kdesign.Library, error) {
	var (
		errs error
		libs = make([]*kdesign.Library, 0, len(f.Libraries))
		seen = make(map[string]struct{}, len(f.Libraries))
	)

	for _, spec := range f.Libraries {
		if _, dup := seen[spec.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%w: library %s declared twice", kdesign.ErrDuplicateKey, spec.Name))
			continue
		}
		seen[spec.Name] = struct{}{}

		lib, err := spec.library()
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		libs = append(libs, lib)
	}

	if errs != nil {
		return nil, errs
	}
	return libs, nil
}

func (spec LibrarySpec) library() (*kdesign.Library, error) {
	lib, err := kdesign.NewLibrary(spec.Name)
	if err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}

	var errs error
	for _, s := range spec.Streamlets {
		st, err := s.streamlet()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("library %s: %w", spec.Name, err))
			continue
		}
		if _, err := lib.AddStreamlet(st); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("library %s: %w", spec.Name, err))
		}
	}
	return lib, errs
}

func (spec StreamletSpec) streamlet() (*kdesign.Streamlet, error) {
	var errs error
	ifaces := make([]kdesign.Interface, 0, len(spec.Interfaces))
	for _, is := range spec.Interfaces {
		i, err := is.Interface()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("streamlet %s: %w", spec.Name, err))
			continue
		}
		ifaces = append(ifaces, i)
	}
	if errs != nil {
		return nil, errs
	}

	st, err := kdesign.NewStreamlet(spec.Name, ifaces...)
	if err != nil {
		return nil, err
	}
	st.SetDoc(spec.Doc)
	return st, nil
}

// AddTo adds every library declared in f to p.
func (f *File) AddTo(p *kdesign.Project) error {
	libs, err := f.Libraries()
	if err != nil {
		return err
	}
	for _, lib := range libs {
		if _, err := p.AddLibrary(lib); err != nil {
			return err
		}
	}
	return nil
}

// NewProject creates a project from files in order. The project is named by
// the first file that names one.
func NewProject(files ...*File) (*kdesign.Project, error) {
	name := DefaultProject
	for _, f := range files {
		if f.Project != "" {
			name = f.Project
			break
		}
	}

	p, err := kdesign.NewProject(name)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := f.AddTo(p); err != nil {
			if f.path != "" {
				return nil, fmt.Errorf("%s: %w", f.path, err)
			}
			return nil, err
		}
	}
	return p, nil
}
