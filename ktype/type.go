package ktype

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for type construction and parsing.
var (
	ErrSyntax      = errors.New("invalid type expression")
	ErrInvalidType = errors.New("invalid logical type")
	ErrNotStream   = errors.New("not a stream type")
)

// Type is a logical stream type.
//
// Implementations are immutable values. The set of implementations is closed:
// Unknown, Null, Bits, Group, Union and Stream.
type Type interface {
	fmt.Stringer

	// Equal reports structural equality.
	Equal(other Type) bool

	// Reversed returns the type with every stream direction flipped.
	Reversed() Type

	isType()
}

// Unknown is the placeholder for a type that will be inferred from a peer.
type Unknown struct{}

func (Unknown) isType() {}
func (Unknown) String() string    { return "Unknown" }
func (Unknown) Reversed() Type    { return Unknown{} }
func (Unknown) Equal(o Type) bool { return IsPending(o) }

// IsPending reports whether t still has to be inferred.
func IsPending(t Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(Unknown)
	return ok
}

// Null is the empty type.
type Null struct{}

func (Null) isType() {}
func (Null) String() string { return "Null" }
func (Null) Reversed() Type { return Null{} }

func (Null) Equal(o Type) bool {
	_, ok := o.(Null)
	return ok
}

// Bits is a fixed-width bit vector.
type Bits struct {
	Width int
}

// NewBits returns a Bits type of the given width.
func NewBits(width int) (Bits, error) {
	if width <= 0 {
		return Bits{}, fmt.Errorf("%w: bit width must be positive, got %d", ErrInvalidType, width)
	}
	return Bits{Width: width}, nil
}

func (Bits) isType() {}
func (b Bits) String() string { return fmt.Sprintf("Bits<%d>", b.Width) }
func (b Bits) Reversed() Type { return b }

func (b Bits) Equal(o Type) bool {
	ob, ok := o.(Bits)
	return ok && ob.Width == b.Width
}

// Field is a named element of a Group or Union.
type Field struct {
	Name string
	Type Type
}

func fieldsEqual(a, b []Field) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !a[i].Type.Equal(b[i].Type) {
			return false
		}
	}
	return true
}

func fieldsString(kind string, fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Name + ": " + f.Type.String()
	}
	return kind + "<" + strings.Join(parts, ", ") + ">"
}

func fieldsReversed(fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = Field{Name: f.Name, Type: f.Type.Reversed()}
	}
	return out
}

func validateFields(kind string, fields []Field) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: %s requires at least one field", ErrInvalidType, kind)
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return fmt.Errorf("%w: %s field without name", ErrInvalidType, kind)
		}
		if f.Type == nil {
			return fmt.Errorf("%w: %s field %q without type", ErrInvalidType, kind, f.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate %s field %q", ErrInvalidType, kind, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Group is a product of named fields.
type Group struct {
	Fields []Field
}

// NewGroup returns a Group after checking that field names are unique.
func NewGroup(fields ...Field) (Group, error) {
	if err := validateFields("Group", fields); err != nil {
		return Group{}, err
	}
	return Group{Fields: fields}, nil
}

func (Group) isType() {}
func (g Group) String() string { return fieldsString("Group", g.Fields) }
func (g Group) Reversed() Type { return Group{Fields: fieldsReversed(g.Fields)} }

func (g Group) Equal(o Type) bool {
	og, ok := o.(Group)
	return ok && fieldsEqual(g.Fields, og.Fields)
}

// Union is a sum of named variants.
type Union struct {
	Fields []Field
}

// NewUnion returns a Union after checking that variant names are unique.
func NewUnion(fields ...Field) (Union, error) {
	if err := validateFields("Union", fields); err != nil {
		return Union{}, err
	}
	return Union{Fields: fields}, nil
}

func (Union) isType() {}
func (u Union) String() string { return fieldsString("Union", u.Fields) }
func (u Union) Reversed() Type { return Union{Fields: fieldsReversed(u.Fields)} }

func (u Union) Equal(o Type) bool {
	ou, ok := o.(Union)
	return ok && fieldsEqual(u.Fields, ou.Fields)
}
