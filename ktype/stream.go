package ktype

import (
	"fmt"
	"strings"
)

// Direction of a stream relative to its parent.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "Forward"
	case Reverse:
		return "Reverse"
	default:
		return "Unknown"
	}
}

// Complexity bounds.
const (
	DefaultComplexity = 1
	MaxComplexity     = 8
)

// Stream is a sequence of Data elements nested Dimensionality levels deep.
type Stream struct {
	Data           Type
	Dimensionality int
	Complexity     int
	Direction      Direction

	// User is an optional sideband type transferred once per transfer.
	User Type
}

// NewStream returns a forward stream of data with default complexity.
func NewStream(data Type, dimensionality int) (Stream, error) {
	s := Stream{
		Data:           data,
		Dimensionality: dimensionality,
		Complexity:     DefaultComplexity,
		Direction:      Forward,
	}
	return s, s.validate()
}

// MustStream is like NewStream but panics on error.
func MustStream(data Type, dimensionality int) Stream {
	s, err := NewStream(data, dimensionality)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Stream) validate() error {
	if s.Data == nil {
		return fmt.Errorf("%w: stream without data type", ErrInvalidType)
	}
	if IsPending(s.Data) {
		return fmt.Errorf("%w: stream data type must be concrete", ErrInvalidType)
	}
	if s.Dimensionality < 0 {
		return fmt.Errorf("%w: negative dimensionality %d", ErrInvalidType, s.Dimensionality)
	}
	if s.Complexity < 1 || s.Complexity > MaxComplexity {
		return fmt.Errorf("%w: complexity %d out of range [1, %d]", ErrInvalidType, s.Complexity, MaxComplexity)
	}
	return nil
}

func (Stream) isType() {}

func (s Stream) String() string {
	var b strings.Builder
	b.WriteString("Stream<")
	b.WriteString(describe(s.Data))
	if s.Dimensionality != 0 {
		fmt.Fprintf(&b, ", d=%d", s.Dimensionality)
	}
	if s.Complexity != DefaultComplexity {
		fmt.Fprintf(&b, ", c=%d", s.Complexity)
	}
	if s.Direction == Reverse {
		b.WriteString(", r")
	}
	if s.User != nil {
		b.WriteString(", u=")
		b.WriteString(s.User.String())
	}
	b.WriteString(">")
	return b.String()
}

func (s Stream) Equal(o Type) bool {
	os, ok := o.(Stream)
	if !ok {
		return false
	}
	if s.Dimensionality != os.Dimensionality || s.Complexity != os.Complexity || s.Direction != os.Direction {
		return false
	}
	if (s.User == nil) != (os.User == nil) {
		return false
	}
	if s.User != nil && !s.User.Equal(os.User) {
		return false
	}
	if s.Data == nil || os.Data == nil {
		return s.Data == nil && os.Data == nil
	}
	return s.Data.Equal(os.Data)
}

func (s Stream) Reversed() Type {
	r := s
	if s.Direction == Forward {
		r.Direction = Reverse
	} else {
		r.Direction = Forward
	}
	if s.Data != nil {
		r.Data = s.Data.Reversed()
	}
	return r
}

// WithDimensionality returns a copy of s nested d levels deep.
func (s Stream) WithDimensionality(d int) Stream {
	r := s
	r.Dimensionality = d
	return r
}

// AsStream returns t as a Stream, or ErrNotStream.
func AsStream(t Type) (Stream, error) {
	s, ok := t.(Stream)
	if !ok {
		return Stream{}, fmt.Errorf("%w: %s", ErrNotStream, describe(t))
	}
	return s, nil
}

func describe(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
