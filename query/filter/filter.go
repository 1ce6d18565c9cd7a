// Package filter parses textual filter expressions such as
//
//	age > 5 AND (name LIKE 'a%' OR name IS NULL)
//
// into restriction trees.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/relorm/query/ast"
)

// ErrUnknownField is returned when an expression names a field the resolver
// does not know.
var ErrUnknownField = errors.New("unknown field")

// Resolver maps a field name of an expression to a field reference.
type Resolver func(name string) (ast.Field, error)

// TableResolver resolves names against t. When names is non-empty only those
// fields are accepted.
func TableResolver(t *ast.Table, names ...string) Resolver {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	return func(name string) (ast.Field, error) {
		if len(known) > 0 && !known[name] {
			return ast.Field{}, fmt.Errorf("%w %s on %s", ErrUnknownField, name, t.Name)
		}
		return t.Field(name), nil
	}
}

// Expression is a parsed filter.
type Expression struct {
	source string
	root   *orExpr
}

// Parse parses a filter expression.
func Parse(input string) (*Expression, error) {
	root, err := parser.ParseString("filter", input)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", input, err)
	}
	return &Expression{source: input, root: root}, nil
}

// String returns the source text.
func (e *Expression) String() string {
	return e.source
}

// Condition builds the restriction tree of the expression.
func (e *Expression) Condition(resolve Resolver) (ast.Condition, error) {
	return e.root.build(resolve)
}

// Apply adds the expression's condition to g. A top-level group sharing g's
// connective is merged into g.
func (e *Expression) Apply(g *ast.RestrictionGroup, resolve Resolver) error {
	c, err := e.Condition(resolve)
	if err != nil {
		return err
	}
	if sub, ok := c.(*ast.RestrictionGroup); ok && sub.Type == g.Type {
		g.Add(sub.Children...)
		return nil
	}
	g.Add(c)
	return nil
}

func (o *orExpr) build(resolve Resolver) (ast.Condition, error) {
	first, err := o.Left.build(resolve)
	if err != nil || len(o.Right) == 0 {
		return first, err
	}
	g := ast.NewGroup(ast.Or).Add(first)
	for _, a := range o.Right {
		c, err := a.build(resolve)
		if err != nil {
			return nil, err
		}
		g.Add(c)
	}
	return g, nil
}

func (a *andExpr) build(resolve Resolver) (ast.Condition, error) {
	first, err := a.Left.build(resolve)
	if err != nil || len(a.Right) == 0 {
		return first, err
	}
	g := ast.NewGroup(ast.And).Add(first)
	for _, u := range a.Right {
		c, err := u.build(resolve)
		if err != nil {
			return nil, err
		}
		g.Add(c)
	}
	return g, nil
}

func (u *unaryExpr) build(resolve Resolver) (ast.Condition, error) {
	var (
		c   ast.Condition
		err error
	)
	if u.Group != nil {
		c, err = u.Group.build(resolve)
	} else {
		c, err = u.Cmp.build(resolve)
	}
	if err != nil {
		return nil, err
	}
	if u.Not {
		c.Negate()
	}
	return c, nil
}

func (c *comparison) build(resolve Resolver) (ast.Condition, error) {
	field, err := resolve(c.Field)
	if err != nil {
		return nil, err
	}

	switch {
	case c.Null != nil:
		op := ast.Is
		if c.Null.Not {
			op = ast.IsNot
		}
		return ast.NewRestriction(field, op, nil), nil
	case c.Set != nil:
		values := make([]interface{}, len(c.Set.Values))
		for i, v := range c.Set.Values {
			if v.Field != nil {
				return nil, fmt.Errorf("filter at %s: IN takes literals only", v.Pos)
			}
			values[i] = v.literal()
		}
		op := ast.In
		if c.Set.Not {
			op = ast.NotIn
		}
		return ast.NewRestriction(field, op, values), nil
	case c.Like != nil:
		if c.Like.Pattern.Field != nil {
			return nil, fmt.Errorf("filter at %s: LIKE takes a literal pattern", c.Like.Pattern.Pos)
		}
		op := ast.Like
		if c.Like.Not {
			op = ast.NotLike
		}
		return ast.NewRestriction(field, op, c.Like.Pattern.literal()), nil
	default:
		op, ok := ast.ParseOperator(c.Op)
		if !ok {
			return nil, fmt.Errorf("filter at %s: unknown operator %q", c.Pos, c.Op)
		}
		if c.Value.Field != nil {
			other, err := resolve(*c.Value.Field)
			if err != nil {
				return nil, err
			}
			return ast.NewRestriction(field, op, other), nil
		}
		return ast.NewRestriction(field, op, c.Value.literal()), nil
	}
}

func (v *value) literal() interface{} {
	switch {
	case v.String != nil:
		return *v.String
	case v.Number != nil:
		if strings.Contains(*v.Number, ".") {
			f, _ := strconv.ParseFloat(*v.Number, 64)
			return f
		}
		n, err := strconv.ParseInt(*v.Number, 10, 64)
		if err != nil {
			return *v.Number
		}
		return n
	case v.Bool != nil:
		return *v.Bool == "TRUE"
	}
	return nil
}
