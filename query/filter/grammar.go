package filter

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// filterLexer tokenizes SQL-like filter expressions.
var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(AND|OR|NOT|IS|NULL|IN|LIKE|TRUE|FALSE)\b`},
	{Name: "String", Pattern: `'(?:''|\\.|[^'\\])*'`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Operator", Pattern: `<>|!=|>=|<=|=|>|<`},
	{Name: "Punct", Pattern: `[(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type orExpr struct {
	Pos   lexer.Position
	Left  *andExpr   `@@`
	Right []*andExpr `( "OR" @@ )*`
}

type andExpr struct {
	Left  *unaryExpr   `@@`
	Right []*unaryExpr `( "AND" @@ )*`
}

type unaryExpr struct {
	Not   bool        `@"NOT"?`
	Group *orExpr     `( "(" @@ ")"`
	Cmp   *comparison `| @@ )`
}

type comparison struct {
	Pos   lexer.Position
	Field string     `@Ident`
	Null  *nullCheck `( @@`
	Set   *setCheck  `| @@`
	Like  *likeCheck `| @@`
	Op    string     `| @Operator`
	Value *value     `@@ )`
}

type nullCheck struct {
	Not bool `"IS" @"NOT"? "NULL"`
}

type setCheck struct {
	Not    bool     `@"NOT"? "IN" "("`
	Values []*value `@@ ( "," @@ )* ")"`
}

type likeCheck struct {
	Not     bool   `@"NOT"? "LIKE"`
	Pattern *value `@@`
}

type value struct {
	Pos    lexer.Position
	String *string `  @String`
	Number *string `| @Number`
	Bool   *string `| @( "TRUE" | "FALSE" )`
	Field  *string `| @Ident`
}

var parser = participle.MustBuild[orExpr](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.Map(upper, "Keyword"),
	participle.Map(unquote, "String"),
	participle.UseLookahead(3),
)

func upper(t lexer.Token) (lexer.Token, error) {
	t.Value = strings.ToUpper(t.Value)
	return t, nil
}

// unquote strips the single quotes of a SQL string literal and resolves
// doubled quotes and backslash escapes.
func unquote(t lexer.Token) (lexer.Token, error) {
	s := t.Value[1 : len(t.Value)-1]
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\'' && i+1 < len(s) && s[i+1] == '\'':
			b.WriteByte('\'')
			i++
		case s[i] == '\\' && i+1 < len(s):
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
		default:
			b.WriteByte(s[i])
		}
	}
	t.Value = b.String()
	return t, nil
}
