package projectfile

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/tydi/kdesign"
	"github.com/birdayz/tydi/ktype"
	"go.uber.org/multierr"
)

func TestLoad(t *testing.T) {
	f, err := Load(filepath.Join("testdata", "demo.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, "demo", f.Project)
	assert.Equal(t, 2, len(f.Libraries))
	assert.Equal(t, filepath.Join("testdata", "demo.yaml"), f.Path())
	assert.Equal(t, []string{
		filepath.Join("testdata", "top.impl"),
		filepath.Join("testdata", "nested_top.impl"),
	}, f.ImplementationPaths())

	p, err := NewProject(f)
	assert.NoError(t, err)
	assert.Equal(t, kdesign.Name("demo"), p.Name())

	pass, err := p.Streamlet(kdesign.MustStreamletHandle("primitives", "pass"))
	assert.NoError(t, err)
	assert.Equal(t, "Forwards its input unchanged.", pass.Doc())

	sqrt, err := p.Streamlet(kdesign.MustStreamletHandle("primitives", "sqrt"))
	assert.NoError(t, err)
	out, err := sqrt.Interface("out")
	assert.NoError(t, err)
	assert.Equal(t, kdesign.Out, out.Mode())
	assert.True(t, ktype.MustParse("Stream<Bits<16>>").Equal(out.Type()))

	anyS, err := p.Streamlet(kdesign.MustStreamletHandle("primitives", "any"))
	assert.NoError(t, err)
	for i := range anyS.Interfaces() {
		assert.True(t, i.Pending(), "%s should be pending", i.Key())
	}

	nested, err := p.Streamlet(kdesign.MustStreamletHandle("compositions", "nested_top"))
	assert.NoError(t, err)
	in, err := nested.Interface("in")
	assert.NoError(t, err)
	assert.True(t, ktype.MustParse("Stream<Bits<32>, d=1>").Equal(in.Type()))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:  "empty",
			input: "",
		},
		{
			name:  "library without streamlets",
			input: "libraries:\n  - name: empty\n",
		},
		{
			name:    "unknown field",
			input:   "libraries:\n  - name: lib\n    streamlet: []\n",
			wantErr: kdesign.ErrInvalidArgument,
		},
		{
			name:    "bad scalar mode",
			input:   "libraries:\n  - name: lib\n    streamlets:\n      - name: s\n        interfaces:\n          - \"in: inout Bits<1>\"\n",
			wantErr: kdesign.ErrInvalidArgument,
		},
		{
			name:    "bad scalar type",
			input:   "libraries:\n  - name: lib\n    streamlets:\n      - name: s\n        interfaces:\n          - \"in: in Bits<\"\n",
			wantErr: kdesign.ErrInvalidArgument,
		},
		{
			name:    "not yaml",
			input:   "libraries: [",
			wantErr: kdesign.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.input))
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			assert.NoError(t, err)
			_, err = f.Libraries()
			assert.NoError(t, err)
		})
	}
}

func TestLibrariesErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		count   int
	}{
		{
			name: "duplicate library",
			input: `
libraries:
  - name: lib
  - name: lib
`,
			wantErr: kdesign.ErrDuplicateKey,
			count:   1,
		},
		{
			name: "duplicate streamlet",
			input: `
libraries:
  - name: lib
    streamlets:
      - name: s
      - name: s
`,
			wantErr: kdesign.ErrDuplicateKey,
			count:   1,
		},
		{
			name: "duplicate interface",
			input: `
libraries:
  - name: lib
    streamlets:
      - name: s
        interfaces:
          - "a: in Bits<1>"
          - "a: out Bits<1>"
`,
			wantErr: kdesign.ErrDuplicateKey,
			count:   1,
		},
		{
			name: "invalid library name",
			input: `
libraries:
  - name: 9lib
`,
			wantErr: kdesign.ErrInvalidArgument,
			count:   1,
		},
		{
			name: "every bad interface reported",
			input: `
libraries:
  - name: lib
    streamlets:
      - name: s
        interfaces:
          - name: a
            mode: sideways
      - name: t
        interfaces:
          - name: b
            mode: in
            type: Bits<x>
`,
			wantErr: kdesign.ErrInvalidArgument,
			count:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.input))
			assert.NoError(t, err)

			libs, err := f.Libraries()
			assert.Zero(t, libs)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, tt.count, len(multierr.Errors(err)))

			_, err = NewProject(f)
			assert.True(t, errors.Is(err, tt.wantErr))
		})
	}
}

func TestNewProject(t *testing.T) {
	a, err := Parse([]byte("libraries:\n  - name: a\n"))
	assert.NoError(t, err)
	b, err := Parse([]byte("project: named\nlibraries:\n  - name: b\n"))
	assert.NoError(t, err)

	p, err := NewProject(a, b)
	assert.NoError(t, err)
	assert.Equal(t, kdesign.Name("named"), p.Name())
	assert.Equal(t, 2, len(p.Libraries()))

	p, err = NewProject(a)
	assert.NoError(t, err)
	assert.Equal(t, kdesign.Name(DefaultProject), p.Name())

	_, err = NewProject(a, a)
	assert.True(t, errors.Is(err, kdesign.ErrDuplicateKey))
}
