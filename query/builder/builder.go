// Package builder provides a fluent, model-aware query builder.
package builder

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cast"

	"github.com/satishbabariya/relorm/connection"
	"github.com/satishbabariya/relorm/internal/assert"
	"github.com/satishbabariya/relorm/model"
	"github.com/satishbabariya/relorm/query/ast"
)

// ErrNotFound is returned by First when no row matches.
var ErrNotFound = errors.New("no matching row")

// aggregateAlias names the single output of Count and Sum.
const aggregateAlias = "aggregate"

// Builder builds and runs a query over one model
type Builder struct {
	reflection *model.Reflection
	table      *ast.Table
	query      *ast.Query
	scope      *Scope
	eager      []string
	err        error
}

// Row is a fetched instance plus the selected columns outside its layout
type Row struct {
	Instance *model.Instance
	Extras   map[string]interface{}
}

// Page is one page of a paginated query
type Page struct {
	Items   []*model.Instance
	Total   int64
	Page    int
	PerPage int
	Pages   int
}

// New creates a builder over a fresh query of the model's table
func New(r *model.Reflection) *Builder {
	table := ast.NewTable(r.Table())
	q := ast.NewQuery(table)
	return &Builder{
		reflection: r,
		table:      table,
		query:      q,
		scope:      NewScope(r, table, q.Restrictions),
	}
}

// Reflection returns the queried model
func (b *Builder) Reflection() *model.Reflection { return b.reflection }

// Table returns the occurrence of the model's table in the query
func (b *Builder) Table() *ast.Table { return b.table }

// Query returns the underlying IR for direct manipulation
func (b *Builder) Query() *ast.Query { return b.query }

// Scope returns the scope over the root restriction group
func (b *Builder) Scope() *Scope { return b.scope }

// Where adds a restriction by field name
func (b *Builder) Where(field string, args ...interface{}) *Builder {
	b.scope.Where(field, args...)
	return b
}

// WhereExpr adds a parsed filter expression. Parse errors surface when the
// query runs.
func (b *Builder) WhereExpr(expr string) *Builder {
	if err := b.scope.Expr(expr); err != nil && b.err == nil {
		b.err = fmt.Errorf("where %q: %w", expr, err)
	}
	return b
}

// Group opens a nested restriction group
func (b *Builder) Group(t ast.GroupType, fn func(*Scope)) *Builder {
	b.scope.Group(t, fn)
	return b
}

// Has keeps rows with a related row matching fn
func (b *Builder) Has(relationship string, fn func(*Scope)) *Builder {
	b.scope.Has(relationship, fn)
	return b
}

// HasNot keeps rows without a related row matching fn
func (b *Builder) HasNot(relationship string, fn func(*Scope)) *Builder {
	b.scope.HasNot(relationship, fn)
	return b
}

// With eager loads relationships on every fetched instance. Dotted names
// load nested relationships.
func (b *Builder) With(relationships ...string) *Builder {
	b.eager = append(b.eager, relationships...)
	return b
}

// OrderBy sorts by a field
func (b *Builder) OrderBy(field string, dir ast.SortDirection) *Builder {
	b.query.OrderBy(b.scope.Field(field), dir)
	return b
}

// Range skips offset rows and returns at most limit rows. A zero limit means
// no limit.
func (b *Builder) Range(offset, limit int) *Builder {
	b.query.Range(offset, limit)
	return b
}

// Select restricts the fetched columns. The primary key is always selected.
func (b *Builder) Select(fields ...string) *Builder {
	hasKey := false
	pk := b.reflection.Layout().PrimaryKey()
	for _, f := range fields {
		b.query.AddOutput(ast.Column(b.scope.Field(f)))
		if pk != nil && f == pk.Name {
			hasKey = true
		}
	}
	if pk != nil && !hasKey {
		b.query.AddOutput(ast.Column(b.scope.Field(pk.Name)))
	}
	return b
}

// Clone returns an independent copy of the builder
func (b *Builder) Clone() *Builder {
	q := b.query.Clone()
	return &Builder{
		reflection: b.reflection,
		table:      b.table,
		query:      q,
		scope:      NewScope(b.reflection, b.table, q.Restrictions),
		eager:      append([]string(nil), b.eager...),
		err:        b.err,
	}
}

// SQL compiles the query without running it
func (b *Builder) SQL() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	return b.reflection.Connection().Grammar().Query(b.query)
}

// Fetch runs the query and splits each row into an instance and extras
func (b *Builder) Fetch(ctx context.Context) ([]Row, error) {
	raw, err := b.rows(ctx, b.query)
	if err != nil {
		return nil, err
	}

	layout := b.reflection.Layout()
	out := make([]Row, len(raw))
	for i, row := range raw {
		var extras map[string]interface{}
		for k, v := range row {
			if layout.HasField(k) {
				continue
			}
			if extras == nil {
				extras = make(map[string]interface{})
			}
			extras[k] = v
		}
		out[i] = Row{Instance: b.reflection.Load(row), Extras: extras}
	}
	return out, nil
}

// All runs the query and eager loads the requested relationships
func (b *Builder) All(ctx context.Context) ([]*model.Instance, error) {
	rows, err := b.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]*model.Instance, len(rows))
	for i, r := range rows {
		items[i] = r.Instance
	}
	if len(b.eager) > 0 {
		if err := b.reflection.Eager(ctx, items, b.eager...); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// First returns the first matching instance or ErrNotFound
func (b *Builder) First(ctx context.Context) (*model.Instance, error) {
	c := b.Clone()
	c.query.Range(b.query.Offset, 1)
	items, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}

// Count returns the number of matching rows, ignoring ordering and range
func (b *Builder) Count(ctx context.Context) (int64, error) {
	v, err := b.aggregate(ctx, ast.Count, b.countField())
	if err != nil {
		return 0, err
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", b.reflection.Name(), err)
	}
	return n, nil
}

// Sum adds up field over the matching rows. No rows sum to zero.
func (b *Builder) Sum(ctx context.Context, field string) (float64, error) {
	v, err := b.aggregate(ctx, ast.Sum, field)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	n, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("sum %s.%s: %w", b.reflection.Name(), field, err)
	}
	return n, nil
}

// Paginate returns page number page (1-based) of perPage items and the total
func (b *Builder) Paginate(ctx context.Context, page, perPage int) (*Page, error) {
	assert.That(page >= 1, "page must be at least 1, got %d", page)
	assert.That(perPage >= 1, "per page must be at least 1, got %d", perPage)

	total, err := b.Count(ctx)
	if err != nil {
		return nil, err
	}

	p := &Page{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   int(math.Ceil(float64(total) / float64(perPage))),
	}
	if int64((page-1)*perPage) >= total {
		return p, nil
	}

	c := b.Clone()
	c.query.Range((page-1)*perPage, perPage)
	if p.Items, err = c.All(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Create builds an unsaved instance from layout defaults and values
func (b *Builder) Create(values map[string]interface{}) *model.Instance {
	return b.reflection.New(values)
}

// Store inserts a new instance or updates a loaded one
func (b *Builder) Store(ctx context.Context, inst *model.Instance) (bool, error) {
	assert.That(inst.Reflection() == b.reflection, "cannot store %s through a %s builder", inst.Reflection().Name(), b.reflection.Name())

	conn := b.reflection.Connection()
	if inst.Loaded() {
		return conn.Update(ctx, b.reflection.Layout(), inst.Record())
	}
	ok, err := conn.Insert(ctx, b.reflection.Layout(), inst.Record())
	if err == nil && ok {
		inst.MarkLoaded()
	}
	return ok, err
}

// Destroy deletes a loaded instance
func (b *Builder) Destroy(ctx context.Context, inst *model.Instance) (bool, error) {
	assert.That(inst.Reflection() == b.reflection, "cannot destroy %s through a %s builder", inst.Reflection().Name(), b.reflection.Name())
	return b.reflection.Connection().Delete(ctx, b.reflection.Layout(), inst.Record())
}

func (b *Builder) countField() string {
	if pk := b.reflection.Layout().PrimaryKey(); pk != nil {
		return pk.Name
	}
	return b.reflection.Layout().FieldNames()[0]
}

func (b *Builder) aggregate(ctx context.Context, agg ast.Aggregate, field string) (interface{}, error) {
	q := b.query.Clone()
	q.Outputs = nil
	q.Orders = nil
	q.Offset, q.Limit = 0, 0
	q.AggregateBy(agg, b.scope.Field(field), aggregateAlias)

	rows, err := b.rows(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0][aggregateAlias], nil
}

func (b *Builder) rows(ctx context.Context, q *ast.Query) ([]map[string]interface{}, error) {
	if b.err != nil {
		return nil, b.err
	}
	rs, err := b.reflection.Connection().Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return connection.FetchAll(rs)
}
