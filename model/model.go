// Package model maps layouts onto typed reflections with explicit field and
// relationship maps.
package model

import (
	"context"
	"sort"

	"github.com/satishbabariya/relorm/connection"
	"github.com/satishbabariya/relorm/internal/assert"
	"github.com/satishbabariya/relorm/query/ast"
	"github.com/satishbabariya/relorm/schema"
)

// Field references one field of a model.
type Field struct {
	reflection *Reflection
	name       string
}

// Reflection returns the model owning the field.
func (f Field) Reflection() *Reflection { return f.reflection }

// Name returns the field name.
func (f Field) Name() string { return f.name }

// Schema returns the layout field behind f.
func (f Field) Schema() *schema.Field { return f.reflection.layout.Field(f.name) }

// On returns f as an IR field on the given source occurrence.
func (f Field) On(src ast.Source) ast.Field {
	return ast.Field{Source: src, Name: f.name}
}

func (f Field) String() string { return f.reflection.name + "." + f.name }

// Constraint adds caller restrictions to a relationship sub-query. src is the
// occurrence of the referenced model's table inside that sub-query.
type Constraint func(src *ast.Table, g *ast.RestrictionGroup)

// Injector builds correlated existence predicates for a relationship.
type Injector interface {
	// Existence returns an AND group holding EXISTS over the related rows of
	// outer.
	Existence(outer ast.Source, fn Constraint) *ast.RestrictionGroup
	// Absence is the negation of Existence.
	Absence(outer ast.Source, fn Constraint) *ast.RestrictionGroup
}

// Relationship links a local field to a field of another model.
type Relationship interface {
	Local() Field
	Referenced() Field
	Single() bool
	// Resolve loads the related instances of one parent.
	Resolve(ctx context.Context, inst *Instance) (*Content, error)
	// ResolveAll loads the related instances of many parents with one query.
	// The result is keyed by Key of each parent's local value.
	ResolveAll(ctx context.Context, insts []*Instance) (map[string]*Content, error)
	Injector() Injector
}

// Content is a resolved relationship.
type Content struct {
	Single  bool
	Payload []*Instance
}

// First returns the first instance or nil.
func (c *Content) First() *Instance {
	if c == nil || len(c.Payload) == 0 {
		return nil
	}
	return c.Payload[0]
}

// Reflection describes a model: its layout, connection, fields and
// relationships.
type Reflection struct {
	conn   *connection.Connection
	name   string
	layout *schema.Layout

	fields    map[string]Field
	relations map[string]Relationship
}

// NewReflection resolves the field map of layout once.
func NewReflection(conn *connection.Connection, name string, layout *schema.Layout) *Reflection {
	assert.That(layout != nil, "model %s: nil layout", name)

	r := &Reflection{
		conn:      conn,
		name:      name,
		layout:    layout,
		fields:    make(map[string]Field, len(layout.Fields())),
		relations: make(map[string]Relationship),
	}
	for _, f := range layout.FieldNames() {
		r.fields[f] = Field{reflection: r, name: f}
	}
	return r
}

// Name returns the model name.
func (r *Reflection) Name() string { return r.name }

// Table returns the table name.
func (r *Reflection) Table() string { return r.layout.Name() }

// Layout returns the table layout.
func (r *Reflection) Layout() *schema.Layout { return r.layout }

// Connection returns the connection the model reads and writes through.
func (r *Reflection) Connection() *connection.Connection { return r.conn }

// Field returns the named field. Unknown fields panic.
func (r *Reflection) Field(name string) Field {
	f, ok := r.fields[name]
	assert.That(ok, "model %s has no field %q", r.name, name)
	return f
}

// HasField reports whether the model has the named field.
func (r *Reflection) HasField(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// Fields returns the fields in layout order.
func (r *Reflection) Fields() []Field {
	names := r.layout.FieldNames()
	out := make([]Field, len(names))
	for i, n := range names {
		out[i] = r.fields[n]
	}
	return out
}

// PrimaryKey returns the primary key field. Models without one panic.
func (r *Reflection) PrimaryKey() Field {
	pk := r.layout.PrimaryKey()
	assert.That(pk != nil, "model %s has no primary key", r.name)
	return r.fields[pk.Name]
}

// Relate registers a relationship under name.
func (r *Reflection) Relate(name string, rel Relationship) *Reflection {
	assert.That(rel.Local().Reflection() == r, "relationship %s.%s: local field %s belongs to another model", r.name, name, rel.Local())
	_, dup := r.relations[name]
	assert.That(!dup, "model %s: relationship %q already declared", r.name, name)
	r.relations[name] = rel
	return r
}

// Relationship returns the named relationship.
func (r *Reflection) Relationship(name string) (Relationship, bool) {
	rel, ok := r.relations[name]
	return rel, ok
}

// Relationships returns the declared relationship names, sorted.
func (r *Reflection) Relationships() []string {
	names := make([]string, 0, len(r.relations))
	for n := range r.relations {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New creates an unsaved instance from the layout defaults overlaid by values.
func (r *Reflection) New(values map[string]interface{}) *Instance {
	raw := r.layout.Defaults()
	for k, v := range values {
		assert.That(r.HasField(k), "model %s has no field %q", r.name, k)
		raw[k] = v
	}
	return &Instance{reflection: r, record: r.layout.NewRecord(raw)}
}

// Load wraps a stored row.
func (r *Reflection) Load(raw map[string]interface{}) *Instance {
	return &Instance{reflection: r, record: r.layout.NewRecord(raw), loaded: true}
}
