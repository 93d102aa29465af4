package ktype

import (
	"fmt"
	"slices"
	"strings"
)

// PathSeparator separates the segments of a PathName.
const PathSeparator = "::"

// PathName addresses a (possibly nested) field of a composite type.
type PathName []string

// ParsePathName parses "a::b::c".
func ParsePathName(s string) (PathName, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty path name", ErrInvalidType)
	}
	parts := strings.Split(s, PathSeparator)
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: path name %q has an empty segment", ErrInvalidType, s)
		}
	}
	return PathName(parts), nil
}

// MustPathName is like ParsePathName but panics on error.
func MustPathName(s string) PathName {
	p, err := ParsePathName(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p PathName) String() string {
	return strings.Join(p, PathSeparator)
}

// Last returns the final segment, or "" for an empty path.
func (p PathName) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Contains reports whether sub occurs as a contiguous run of segments in p.
func (p PathName) Contains(sub PathName) bool {
	if len(sub) == 0 || len(sub) > len(p) {
		return false
	}
	for i := 0; i+len(sub) <= len(p); i++ {
		if slices.Equal(p[i:i+len(sub)], sub) {
			return true
		}
	}
	return false
}

// SplitItem is one named sub-item of a composite type.
type SplitItem struct {
	Path PathName
	Type Type
}

// Split breaks t into its named sub-items in pre-order.
//
// Every Group or Union field yields an item whose path is the chain of field
// names leading to it. Streams are transparent: the fields of a stream's data
// type are reported under the stream's own path. Types without named fields
// yield no items.
func Split(t Type) []SplitItem {
	var items []SplitItem
	splitInto(t, nil, &items)
	return items
}

func splitInto(t Type, prefix PathName, items *[]SplitItem) {
	switch v := t.(type) {
	case Stream:
		splitInto(v.Data, prefix, items)
	case Group:
		splitFields(v.Fields, prefix, items)
	case Union:
		splitFields(v.Fields, prefix, items)
	}
}

func splitFields(fields []Field, prefix PathName, items *[]SplitItem) {
	for _, f := range fields {
		path := append(slices.Clone(prefix), f.Name)
		*items = append(*items, SplitItem{Path: path, Type: f.Type})
		splitInto(f.Type, path, items)
	}
}

// Locate returns the first sub-item of t whose path contains path.
func Locate(t Type, path PathName) (SplitItem, bool) {
	for _, item := range Split(t) {
		if item.Path.Contains(path) {
			return item, true
		}
	}
	return SplitItem{}, false
}
