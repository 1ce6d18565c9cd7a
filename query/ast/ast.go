// Package ast defines the query intermediate representation: a SELECT tree
// made of sources, joins, restriction groups, outputs and ordering.
//
// Nodes are plain mutable builders meant for a single construction flow.
// Fields reference the source occurrence they belong to; table aliases are
// assigned by the compiler, never stored in the tree.
package ast

import (
	"strings"

	"github.com/satishbabariya/relorm/internal/assert"
)

// Operator is a comparison operator of a restriction.
type Operator string

const (
	Eq      Operator = "="
	Neq     Operator = "<>"
	Gt      Operator = ">"
	Lt      Operator = "<"
	Gte     Operator = ">="
	Lte     Operator = "<="
	Like    Operator = "LIKE"
	NotLike Operator = "NOT LIKE"
	In      Operator = "IN"
	NotIn   Operator = "NOT IN"
	Is      Operator = "IS"
	IsNot   Operator = "IS NOT"
)

var negations = map[Operator]Operator{
	Eq:      Neq,
	Neq:     Eq,
	Gt:      Lte,
	Lte:     Gt,
	Lt:      Gte,
	Gte:     Lt,
	Like:    NotLike,
	NotLike: Like,
	In:      NotIn,
	NotIn:   In,
	Is:      IsNot,
	IsNot:   Is,
}

// ParseOperator resolves an operator from its SQL spelling. Matching is case
// insensitive and "!=" is accepted for "<>".
func ParseOperator(s string) (Operator, bool) {
	s = strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if s == "!=" {
		return Neq, true
	}
	op := Operator(s)
	_, ok := negations[op]
	return op, ok
}

// Negate returns the complementary operator.
func (o Operator) Negate() Operator {
	neg, ok := negations[o]
	assert.That(ok, "unknown operator %q", string(o))
	return neg
}

// Negated reports whether the operator is the negative form of its pair.
func (o Operator) Negated() bool {
	switch o {
	case Neq, NotLike, NotIn, IsNot:
		return true
	}
	return false
}

// GroupType is the boolean connective of a restriction group.
type GroupType string

const (
	And GroupType = "AND"
	Or  GroupType = "OR"
)

// Flip returns the De Morgan dual of the connective.
func (t GroupType) Flip() GroupType {
	if t == And {
		return Or
	}
	return And
}

// JoinDirection selects the join flavour.
type JoinDirection string

const (
	LeftJoin  JoinDirection = "LEFT JOIN"
	InnerJoin JoinDirection = "INNER JOIN"
)

// SortDirection is the direction of an ORDER BY term.
type SortDirection string

const (
	Asc  SortDirection = "ASC"
	Desc SortDirection = "DESC"
)

// Aggregate is an aggregate function applied to an output.
type Aggregate string

const (
	NoAggregate Aggregate = ""
	Count       Aggregate = "COUNT"
	Sum         Aggregate = "SUM"
	Avg         Aggregate = "AVG"
	Min         Aggregate = "MIN"
	Max         Aggregate = "MAX"
)
