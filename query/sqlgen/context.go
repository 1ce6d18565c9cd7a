package sqlgen

import (
	"fmt"

	"github.com/satishbabariya/relorm/query/ast"
)

// compileContext carries per-statement state. Nested sub-queries share the
// context of the statement they belong to, so aliases never collide.
type compileContext struct {
	aliases map[ast.Source]string
	next    int
}

func newContext() *compileContext {
	return &compileContext{aliases: make(map[ast.Source]string)}
}

func (c *compileContext) declare(src ast.Source) string {
	alias := fmt.Sprintf("t%d", c.next)
	c.next++
	c.aliases[src] = alias
	return alias
}

func (c *compileContext) alias(src ast.Source) (string, error) {
	alias, ok := c.aliases[src]
	if !ok {
		return "", fmt.Errorf("%w: source %s is not in scope", ErrUnsupported, describe(src))
	}
	return alias, nil
}

func describe(src ast.Source) string {
	switch s := src.(type) {
	case *ast.Table:
		return quoteIdentifier(s.Name)
	case *ast.Derived:
		return "(derived)"
	default:
		return fmt.Sprintf("%T", src)
	}
}
