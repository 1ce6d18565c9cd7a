package ast

import "github.com/satishbabariya/relorm/internal/assert"

// Join attaches another source to a query.
type Join struct {
	Direction JoinDirection
	Target    Source
	On        *RestrictionGroup
}

// Output is one selected expression.
type Output struct {
	// Field is the selected column when All is nil.
	Field Field
	// All selects every column of a source when non-nil.
	All       Source
	Aggregate Aggregate
	Alias     string
}

// Column selects a single column.
func Column(f Field) Output {
	return Output{Field: f}
}

// ColumnAs selects a column under alias.
func ColumnAs(f Field, alias string) Output {
	return Output{Field: f, Alias: alias}
}

// AllOf selects every column of src.
func AllOf(src Source) Output {
	return Output{All: src}
}

// Aggregated applies agg to f. The alias is required at compile time.
func Aggregated(agg Aggregate, f Field, alias string) Output {
	return Output{Field: f, Aggregate: agg, Alias: alias}
}

// Order is one ORDER BY term.
type Order struct {
	Field     Field
	Direction SortDirection
}

// Query is a SELECT statement.
type Query struct {
	Source       Source
	Joins        []*Join
	Restrictions *RestrictionGroup
	Outputs      []Output
	Orders       []Order
	Groups       []Field
	// Offset and Limit form the range; a zero Limit means unbounded.
	Offset int
	Limit  int
}

// NewQuery creates a query selecting from src with an empty AND group.
func NewQuery(src Source) *Query {
	assert.That(src != nil, "query without source")
	return &Query{Source: src, Restrictions: NewGroup(And)}
}

// Where adds a restriction to the root group. See NewRestriction.
func (q *Query) Where(left Operand, args ...interface{}) *Query {
	q.Restrictions.Where(left, args...)
	return q
}

// Group adds a nested restriction group populated by fn.
func (q *Query) Group(t GroupType, fn func(*RestrictionGroup)) *Query {
	q.Restrictions.Group(t, fn)
	return q
}

// JoinTable joins src and lets fn fill its ON group.
func (q *Query) JoinTable(dir JoinDirection, src Source, fn func(on *RestrictionGroup)) *Query {
	assert.That(src != nil, "join without target")
	j := &Join{Direction: dir, Target: src, On: NewGroup(And)}
	if fn != nil {
		fn(j.On)
	}
	q.Joins = append(q.Joins, j)
	return q
}

// OrderBy appends an ordering term.
func (q *Query) OrderBy(f Field, dir SortDirection) *Query {
	if dir == "" {
		dir = Asc
	}
	q.Orders = append(q.Orders, Order{Field: f, Direction: dir})
	return q
}

// Range sets the offset and limit. A zero limit removes the bound.
func (q *Query) Range(offset, limit int) *Query {
	assert.That(offset >= 0 && limit >= 0, "negative range %d, %d", offset, limit)
	q.Offset, q.Limit = offset, limit
	return q
}

// AggregateBy replaces the outputs with a single aggregate.
func (q *Query) AggregateBy(agg Aggregate, f Field, alias string) *Query {
	q.Outputs = []Output{Aggregated(agg, f, alias)}
	return q
}

// Select replaces the outputs. With no outputs every column of the source is
// selected.
func (q *Query) Select(outputs ...Output) *Query {
	q.Outputs = append([]Output(nil), outputs...)
	return q
}

// AddOutput appends an output.
func (q *Query) AddOutput(o Output) *Query {
	q.Outputs = append(q.Outputs, o)
	return q
}

// GroupBy appends group-by columns.
func (q *Query) GroupBy(fields ...Field) *Query {
	q.Groups = append(q.Groups, fields...)
	return q
}

// Clone deep-copies the query. Source occurrences are shared, so the copy
// must not be compiled as part of the same statement as the original.
func (q *Query) Clone() *Query {
	if q == nil {
		return nil
	}
	c := &Query{
		Source:       q.Source,
		Restrictions: q.Restrictions.Clone(),
		Offset:       q.Offset,
		Limit:        q.Limit,
	}
	if d, ok := q.Source.(*Derived); ok {
		c.Source = &Derived{Query: d.Query.Clone()}
	}
	for _, j := range q.Joins {
		c.Joins = append(c.Joins, &Join{Direction: j.Direction, Target: j.Target, On: j.On.Clone()})
	}
	c.Outputs = append([]Output(nil), q.Outputs...)
	c.Orders = append([]Order(nil), q.Orders...)
	c.Groups = append([]Field(nil), q.Groups...)
	return c
}
