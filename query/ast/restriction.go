package ast

import (
	"database/sql/driver"
	"reflect"

	"github.com/satishbabariya/relorm/internal/assert"
)

// Operand is the left side of a restriction: a Field or a *Subquery.
type Operand interface {
	operand()
}

// Value is the right side of a restriction.
type Value interface {
	value()
}

// Scalar is a single literal value.
type Scalar struct {
	V interface{}
}

// List is an ordered list of literals, used with IN and NOT IN.
type List struct {
	Values []interface{}
}

// Null is the SQL NULL.
type Null struct{}

// FieldValue compares against another column.
type FieldValue struct {
	Field Field
}

// Subquery is a nested query used as an operand or value.
type Subquery struct {
	Query *Query
}

func (Field) operand()     {}
func (*Subquery) operand() {}

func (Scalar) value()     {}
func (List) value()       {}
func (Null) value()       {}
func (FieldValue) value() {}
func (*Subquery) value()  {}

// Condition is a node of the restriction tree: a *Restriction or a
// *RestrictionGroup.
type Condition interface {
	// Negate inverts the condition in place.
	Negate()
	// CloneCondition returns a deep copy of the condition.
	CloneCondition() Condition
	condition()
}

// Restriction is one predicate.
type Restriction struct {
	Left  Operand
	Op    Operator
	Value Value
}

func (*Restriction) condition() {}

// Negate flips the operator.
func (r *Restriction) Negate() {
	r.Op = r.Op.Negate()
}

// CloneCondition implements Condition.
func (r *Restriction) CloneCondition() Condition {
	c := &Restriction{Left: r.Left, Op: r.Op, Value: r.Value}
	switch left := r.Left.(type) {
	case *Subquery:
		c.Left = &Subquery{Query: left.Query.Clone()}
	}
	switch v := r.Value.(type) {
	case List:
		c.Value = List{Values: append([]interface{}(nil), v.Values...)}
	case *Subquery:
		c.Value = &Subquery{Query: v.Query.Clone()}
	}
	return c
}

// NewRestriction builds a restriction from loose arguments: (value) uses the
// default operator, (operator, value) an explicit one. A list value turns =
// into IN and <> into NOT IN; a nil value turns them into IS and IS NOT.
// Any other shape panics.
func NewRestriction(left Operand, args ...interface{}) *Restriction {
	assert.That(left != nil, "restriction without left operand")

	var (
		op  = Eq
		arg interface{}
	)
	switch len(args) {
	case 1:
		arg = args[0]
	case 2:
		op = operatorOf(args[0])
		arg = args[1]
	default:
		assert.Fail("restriction takes a value or an operator and a value, got %d arguments", len(args))
	}

	v := valueOf(arg)
	switch v.(type) {
	case List:
		switch op {
		case Eq, In:
			op = In
		case Neq, NotIn:
			op = NotIn
		default:
			assert.Fail("operator %s cannot take a list", op)
		}
	case Null:
		switch op {
		case Eq, Is:
			op = Is
		case Neq, IsNot:
			op = IsNot
		default:
			assert.Fail("operator %s cannot take NULL", op)
		}
	default:
		assert.That(op != In && op != NotIn, "operator %s needs a list", op)
		assert.That(op != Is && op != IsNot, "operator %s needs NULL", op)
	}
	return &Restriction{Left: left, Op: op, Value: v}
}

func operatorOf(arg interface{}) Operator {
	switch v := arg.(type) {
	case Operator:
		op, ok := ParseOperator(string(v))
		assert.That(ok, "unknown operator %q", string(v))
		return op
	case string:
		op, ok := ParseOperator(v)
		assert.That(ok, "unknown operator %q", v)
		return op
	}
	assert.Fail("operator must be a string, got %T", arg)
	return ""
}

func valueOf(arg interface{}) Value {
	switch v := arg.(type) {
	case nil:
		return Null{}
	case Value:
		return v
	case Field:
		return FieldValue{Field: v}
	case *Query:
		return &Subquery{Query: v}
	case []byte:
		return Scalar{V: string(v)}
	}

	rv := reflect.ValueOf(arg)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return Null{}
	}
	if valuer, ok := arg.(driver.Valuer); ok {
		if dv, err := valuer.Value(); err == nil {
			return valueOf(dv)
		}
	}
	if rv.Kind() == reflect.Ptr {
		return valueOf(rv.Elem().Interface())
	}
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		values := make([]interface{}, rv.Len())
		for i := range values {
			values[i] = rv.Index(i).Interface()
		}
		return List{Values: values}
	}
	return Scalar{V: arg}
}

// RestrictionGroup is an AND or OR over ordered child conditions. An empty
// group is always true.
type RestrictionGroup struct {
	Type     GroupType
	Children []Condition
}

func (*RestrictionGroup) condition() {}

// NewGroup creates an empty group.
func NewGroup(t GroupType) *RestrictionGroup {
	assert.That(t == And || t == Or, "unknown group type %q", string(t))
	return &RestrictionGroup{Type: t}
}

// Where appends a restriction built by NewRestriction.
func (g *RestrictionGroup) Where(left Operand, args ...interface{}) *RestrictionGroup {
	g.Children = append(g.Children, NewRestriction(left, args...))
	return g
}

// Group appends a nested group of type t populated by fn.
func (g *RestrictionGroup) Group(t GroupType, fn func(*RestrictionGroup)) *RestrictionGroup {
	sub := NewGroup(t)
	if fn != nil {
		fn(sub)
	}
	g.Children = append(g.Children, sub)
	return g
}

// Add appends existing conditions.
func (g *RestrictionGroup) Add(conds ...Condition) *RestrictionGroup {
	for _, c := range conds {
		assert.That(c != nil, "nil condition")
		g.Children = append(g.Children, c)
	}
	return g
}

// Exists appends EXISTS (q).
func (g *RestrictionGroup) Exists(q *Query) *RestrictionGroup {
	g.Children = append(g.Children, &Restriction{Left: &Subquery{Query: q}, Op: Is, Value: Null{}})
	return g
}

// NotExists appends NOT EXISTS (q).
func (g *RestrictionGroup) NotExists(q *Query) *RestrictionGroup {
	g.Children = append(g.Children, &Restriction{Left: &Subquery{Query: q}, Op: IsNot, Value: Null{}})
	return g
}

// IsEmpty reports whether the group has no children.
func (g *RestrictionGroup) IsEmpty() bool {
	return len(g.Children) == 0
}

// Negate applies De Morgan in place: the connective flips and every child is
// negated. Applying it twice restores the original tree. An empty group is
// always true and stays so after negation, so a tree holding one does not
// invert its truth value.
func (g *RestrictionGroup) Negate() {
	g.Type = g.Type.Flip()
	for _, c := range g.Children {
		c.Negate()
	}
}

// CloneCondition implements Condition.
func (g *RestrictionGroup) CloneCondition() Condition {
	return g.Clone()
}

// Clone deep-copies the group. Source occurrences are shared.
func (g *RestrictionGroup) Clone() *RestrictionGroup {
	c := &RestrictionGroup{Type: g.Type}
	if len(g.Children) > 0 {
		c.Children = make([]Condition, len(g.Children))
		for i, child := range g.Children {
			c.Children[i] = child.CloneCondition()
		}
	}
	return c
}
