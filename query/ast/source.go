package ast

// Source is something a query can select from: a table or a derived query.
type Source interface {
	source()
}

// Table is one occurrence of a named table in a query. Two occurrences of the
// same table (a self join) are distinct values and get distinct aliases.
type Table struct {
	Name string
}

// Derived is a nested query used as a source.
type Derived struct {
	Query *Query
}

func (*Table) source()   {}
func (*Derived) source() {}

// NewTable creates a new occurrence of table name.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// Field references column name of this occurrence.
func (t *Table) Field(name string) Field {
	return Field{Source: t, Name: name}
}

// All selects every column of this occurrence.
func (t *Table) All() Output {
	return AllOf(t)
}

// Derive wraps q so it can be selected from or joined.
func Derive(q *Query) *Derived {
	return &Derived{Query: q}
}

// Field references an output column of the derived query.
func (d *Derived) Field(name string) Field {
	return Field{Source: d, Name: name}
}

// Field is a column of a source occurrence.
type Field struct {
	Source Source
	Name   string
}
