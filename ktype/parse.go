package ktype

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var typeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[<>,:=]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type typeExpr struct {
	Pos lexer.Position

	Unknown bool        `  @"Unknown"`
	Null    bool        `| @"Null"`
	Bits    *int        `| "Bits" "<" @Int ">"`
	Group   *fieldsExpr `| "Group" "<" @@ ">"`
	Union   *fieldsExpr `| "Union" "<" @@ ">"`
	Stream  *streamExpr `| "Stream" "<" @@ ">"`
}

type fieldsExpr struct {
	Fields []*fieldExpr `@@ ( "," @@ )*`
}

type fieldExpr struct {
	Pos lexer.Position

	Name string    `@Ident ":"`
	Type *typeExpr `@@`
}

type streamExpr struct {
	Data   *typeExpr    `@@`
	Params []*paramExpr `( "," @@ )*`
}

type paramExpr struct {
	Pos lexer.Position

	Key   string      `@Ident`
	Value *paramValue `( "=" @@ )?`
}

type paramValue struct {
	Int  *int      `  @Int`
	Type *typeExpr `| @@`
}

var typeParser = participle.MustBuild[typeExpr](
	participle.Lexer(typeLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// Parse parses a type expression such as "Stream<Bits<32>, d=1>".
func Parse(s string) (Type, error) {
	expr, err := typeParser.ParseString("", s)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("%w: %q at column %d: %s", ErrSyntax, s, perr.Position().Column, perr.Message())
		}
		return nil, fmt.Errorf("%w: %q: %v", ErrSyntax, s, err)
	}
	return expr.toType()
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Type {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (e *typeExpr) toType() (Type, error) {
	switch {
	case e.Unknown:
		return Unknown{}, nil
	case e.Null:
		return Null{}, nil
	case e.Bits != nil:
		return NewBits(*e.Bits)
	case e.Group != nil:
		fields, err := e.Group.toFields()
		if err != nil {
			return nil, err
		}
		return NewGroup(fields...)
	case e.Union != nil:
		fields, err := e.Union.toFields()
		if err != nil {
			return nil, err
		}
		return NewUnion(fields...)
	case e.Stream != nil:
		return e.Stream.toStream()
	}
	return nil, fmt.Errorf("%w: empty type at column %d", ErrSyntax, e.Pos.Column)
}

func (f *fieldsExpr) toFields() ([]Field, error) {
	fields := make([]Field, 0, len(f.Fields))
	for _, fe := range f.Fields {
		t, err := fe.Type.toType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: fe.Name, Type: t})
	}
	return fields, nil
}

func (s *streamExpr) toStream() (Type, error) {
	data, err := s.Data.toType()
	if err != nil {
		return nil, err
	}
	stream := Stream{
		Data:       data,
		Complexity: DefaultComplexity,
		Direction:  Forward,
	}
	for _, p := range s.Params {
		switch p.Key {
		case "d":
			n, err := p.intValue()
			if err != nil {
				return nil, err
			}
			stream.Dimensionality = n
		case "c":
			n, err := p.intValue()
			if err != nil {
				return nil, err
			}
			stream.Complexity = n
		case "r":
			if p.Value != nil {
				return nil, fmt.Errorf("%w: parameter r takes no value at column %d", ErrSyntax, p.Pos.Column)
			}
			stream.Direction = Reverse
		case "u":
			if p.Value == nil || p.Value.Type == nil {
				return nil, fmt.Errorf("%w: parameter u requires a type at column %d", ErrSyntax, p.Pos.Column)
			}
			user, err := p.Value.Type.toType()
			if err != nil {
				return nil, err
			}
			stream.User = user
		default:
			return nil, fmt.Errorf("%w: unknown stream parameter %q at column %d", ErrSyntax, p.Key, p.Pos.Column)
		}
	}
	if err := stream.validate(); err != nil {
		return nil, err
	}
	return stream, nil
}

func (p *paramExpr) intValue() (int, error) {
	if p.Value == nil || p.Value.Int == nil {
		return 0, fmt.Errorf("%w: parameter %s requires an integer at column %d", ErrSyntax, p.Key, p.Pos.Column)
	}
	return *p.Value.Int, nil
}
