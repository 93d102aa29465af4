package kparse

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var implLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Bulk", Pattern: `<=>`},
	{Name: "Arrow", Pattern: `<=`},
	{Name: "Punct", Pattern: `[{}()\[\].,:;]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// implementationAST is the root production:
//
//	implementation := streamlet_handle ":"? "{" statement* "}"
type implementationAST struct {
	Pos lexer.Position

	Streamlet  *dottedAST      `@@ ":"?`
	Statements []*statementAST `"{" @@* "}"`
}

// dottedAST is either a streamlet handle (lib.streamlet) or a node interface
// handle (node.interface).
type dottedAST struct {
	Pos lexer.Position

	First  string `@Ident "."`
	Second string `@Ident`
}

type statementAST struct {
	Pos lexer.Position

	Node       *nodeAST       `(  @@`
	Connection *connectionAST ` | @@`
	Bulk       *bulkAST       ` | @@ ) ";"?`
}

// nodeAST is "key: lib.streamlet" or "key: pattern(node)".
type nodeAST struct {
	Pos lexer.Position

	Key      string      `@Ident ":"`
	Pattern  *patternAST `(  @@`
	Instance *dottedAST  ` | @@ )`
}

type patternAST struct {
	Pos lexer.Position

	Kind     string   `@("map" | "reduce") "("`
	Operator *nodeAST `@@ ")"`
}

// connectionAST is "sink <= source".
type connectionAST struct {
	Pos lexer.Position

	Sink   *dottedAST `@@ "<="`
	Source *dottedAST `@@`
}

type bulkAST struct {
	Pos lexer.Position

	Items []*bulkItemAST `@@ ( "<=>" @@ )+`
}

type bulkItemAST struct {
	Pos lexer.Position

	List   []*dottedAST `(  "[" @@ ( "," @@ )* "]"`
	Handle *dottedAST   ` | @@`
	Node   string       ` | @Ident )`
}

var implParser = participle.MustBuild[implementationAST](
	participle.Lexer(implLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(8),
)
