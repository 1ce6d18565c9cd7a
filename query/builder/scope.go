package builder

import (
	"fmt"

	"github.com/satishbabariya/relorm/internal/assert"
	"github.com/satishbabariya/relorm/model"
	"github.com/satishbabariya/relorm/query/ast"
	"github.com/satishbabariya/relorm/query/filter"
)

// Scope adds restrictions by field name to one restriction group
type Scope struct {
	reflection *model.Reflection
	table      *ast.Table
	group      *ast.RestrictionGroup
}

// NewScope creates a scope over a table occurrence of reflection
func NewScope(r *model.Reflection, table *ast.Table, g *ast.RestrictionGroup) *Scope {
	return &Scope{reflection: r, table: table, group: g}
}

// Reflection returns the model the scope resolves field names against
func (s *Scope) Reflection() *model.Reflection { return s.reflection }

// Table returns the table occurrence fields are bound to
func (s *Scope) Table() *ast.Table { return s.table }

// Restrictions returns the group restrictions are added to
func (s *Scope) Restrictions() *ast.RestrictionGroup { return s.group }

// Field binds a model field to the scope's table occurrence
func (s *Scope) Field(name string) ast.Field {
	return s.reflection.Field(name).On(s.table)
}

// Where adds a restriction. args is a value, or an operator and a value.
func (s *Scope) Where(field string, args ...interface{}) *Scope {
	s.group.Where(s.Field(field), args...)
	return s
}

// Equals adds an equality condition
func (s *Scope) Equals(field string, value interface{}) *Scope {
	return s.Where(field, ast.Eq, value)
}

// NotEquals adds a not-equals condition
func (s *Scope) NotEquals(field string, value interface{}) *Scope {
	return s.Where(field, ast.Neq, value)
}

// GreaterThan adds a greater-than condition
func (s *Scope) GreaterThan(field string, value interface{}) *Scope {
	return s.Where(field, ast.Gt, value)
}

// LessThan adds a less-than condition
func (s *Scope) LessThan(field string, value interface{}) *Scope {
	return s.Where(field, ast.Lt, value)
}

// GreaterOrEqual adds a greater-or-equal condition
func (s *Scope) GreaterOrEqual(field string, value interface{}) *Scope {
	return s.Where(field, ast.Gte, value)
}

// LessOrEqual adds a less-or-equal condition
func (s *Scope) LessOrEqual(field string, value interface{}) *Scope {
	return s.Where(field, ast.Lte, value)
}

// In adds an IN condition
func (s *Scope) In(field string, values ...interface{}) *Scope {
	return s.Where(field, ast.In, values)
}

// NotIn adds a NOT IN condition
func (s *Scope) NotIn(field string, values ...interface{}) *Scope {
	return s.Where(field, ast.NotIn, values)
}

// Like adds a LIKE condition
func (s *Scope) Like(field, pattern string) *Scope {
	return s.Where(field, ast.Like, pattern)
}

// NotLike adds a NOT LIKE condition
func (s *Scope) NotLike(field, pattern string) *Scope {
	return s.Where(field, ast.NotLike, pattern)
}

// IsNull adds an IS NULL condition
func (s *Scope) IsNull(field string) *Scope {
	return s.Where(field, nil)
}

// IsNotNull adds an IS NOT NULL condition
func (s *Scope) IsNotNull(field string) *Scope {
	return s.Where(field, ast.Neq, nil)
}

// Group opens a nested group. Restrictions added by fn stay inside it.
func (s *Scope) Group(t ast.GroupType, fn func(*Scope)) *Scope {
	s.group.Group(t, func(g *ast.RestrictionGroup) {
		fn(NewScope(s.reflection, s.table, g))
	})
	return s
}

// Or opens a nested OR group
func (s *Scope) Or(fn func(*Scope)) *Scope { return s.Group(ast.Or, fn) }

// And opens a nested AND group
func (s *Scope) And(fn func(*Scope)) *Scope { return s.Group(ast.And, fn) }

// Has keeps rows with at least one related row matching fn. fn may be nil.
func (s *Scope) Has(relationship string, fn func(*Scope)) *Scope {
	rel := s.relationship(relationship)
	s.group.Add(rel.Injector().Existence(s.table, constraint(rel, fn)))
	return s
}

// HasNot keeps rows without any related row matching fn. fn may be nil.
func (s *Scope) HasNot(relationship string, fn func(*Scope)) *Scope {
	rel := s.relationship(relationship)
	s.group.Add(rel.Injector().Absence(s.table, constraint(rel, fn)))
	return s
}

// Expr parses a filter expression over the model's field names and adds it.
func (s *Scope) Expr(expr string) error {
	e, err := filter.Parse(expr)
	if err != nil {
		return err
	}
	return e.Apply(s.group, s.resolve)
}

func (s *Scope) resolve(name string) (ast.Field, error) {
	if !s.reflection.HasField(name) {
		return ast.Field{}, fmt.Errorf("%w: %s has no field %q", filter.ErrUnknownField, s.reflection.Name(), name)
	}
	return s.Field(name), nil
}

func (s *Scope) relationship(name string) model.Relationship {
	rel, ok := s.reflection.Relationship(name)
	assert.That(ok, "model %s has no relationship %q", s.reflection.Name(), name)
	return rel
}

func constraint(rel model.Relationship, fn func(*Scope)) model.Constraint {
	if fn == nil {
		return nil
	}
	target := rel.Referenced().Reflection()
	return func(src *ast.Table, g *ast.RestrictionGroup) {
		fn(NewScope(target, src, g))
	}
}
