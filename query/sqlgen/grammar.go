// Package sqlgen compiles query trees, layouts and records to SQL text.
package sqlgen

import (
	"errors"

	"github.com/satishbabariya/relorm/query/ast"
	"github.com/satishbabariya/relorm/record"
	"github.com/satishbabariya/relorm/schema"
)

var (
	// ErrAggregateAlias is returned when an aggregated output has no alias.
	ErrAggregateAlias = errors.New("aggregate output requires an alias")
	// ErrNoPrimaryKey is returned when a write needs a primary key the layout lacks.
	ErrNoPrimaryKey = errors.New("layout has no primary key")
	// ErrEmptyUpdate is returned when an update has no changed field.
	ErrEmptyUpdate = errors.New("record has no changes")
	// ErrUnsupported is returned for trees the grammar cannot express.
	ErrUnsupported = errors.New("unsupported construct")
)

// Grammar turns IR nodes into SQL statements of one dialect.
type Grammar interface {
	Query(q *ast.Query) (string, error)
	CreateTable(l *schema.Layout) (string, error)
	AlterTable(l *schema.Layout, a *Alteration) (string, error)
	DropTable(name string) string
	InsertRecord(l *schema.Layout, r *record.Record) (string, error)
	UpdateRecord(l *schema.Layout, r *record.Record) (string, error)
	DeleteRecord(l *schema.Layout, r *record.Record) (string, error)
	HasTable(name string) string
}

// Alteration lists the changes of one ALTER TABLE statement.
type Alteration struct {
	AddFields   []*schema.Field
	DropFields  []string
	AddIndexes  []*schema.Index
	DropIndexes []*schema.Index
}

// IsEmpty reports whether the alteration has no change.
func (a *Alteration) IsEmpty() bool {
	return a == nil || len(a.AddFields)+len(a.DropFields)+len(a.AddIndexes)+len(a.DropIndexes) == 0
}

// Quoter escapes a literal and wraps it in the dialect's string quotes.
type Quoter interface {
	Quote(s string) string
}

// QuoterFunc adapts a function to Quoter.
type QuoterFunc func(string) string

// Quote implements Quoter.
func (f QuoterFunc) Quote(s string) string { return f(s) }
