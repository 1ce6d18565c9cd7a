package schema

import (
	"github.com/satishbabariya/relorm/internal/assert"
	"github.com/satishbabariya/relorm/record"
)

// Field is one column of a layout.
type Field struct {
	Name          string
	Type          Type
	Nullable      bool
	AutoIncrement bool
	// Default is used for new records and rendered in DDL. Nil means none.
	// An Expr default is left to the database.
	Default interface{}
}

// Expr is a default computed by the database, such as CURRENT_TIMESTAMP.
// DDL renders it verbatim and new records leave the field unset.
type Expr string

// DefaultExpression reports whether the field's default is an Expr.
func (f *Field) DefaultExpression() (Expr, bool) {
	e, ok := f.Default.(Expr)
	return e, ok
}

// FieldOption customizes a field added through Layout.AddField.
type FieldOption func(*Field)

// Nullable marks the field as accepting NULL.
func Nullable() FieldOption {
	return func(f *Field) { f.Nullable = true }
}

// AutoIncrement marks the field as generated by the database on insert.
func AutoIncrement() FieldOption {
	return func(f *Field) { f.AutoIncrement = true }
}

// Default sets the field's default value.
func Default(v interface{}) FieldOption {
	return func(f *Field) { f.Default = v }
}

// DefaultExpr sets a default computed by the database.
func DefaultExpr(expr string) FieldOption {
	return Default(Expr(expr))
}

// IndexKind distinguishes the index shapes a layout can declare.
type IndexKind string

const (
	PlainIndex   IndexKind = "index"
	UniqueIndex  IndexKind = "unique"
	PrimaryIndex IndexKind = "primary"
	ForeignIndex IndexKind = "foreign"
)

// Reference is the target of a foreign index.
type Reference struct {
	Table    string
	Field    string
	OnDelete string // e.g. CASCADE, SET NULL; empty means database default
	OnUpdate string
}

// Index is a named index over one or more fields of a layout.
type Index struct {
	Name       string
	Kind       IndexKind
	Fields     []string
	References *Reference // ForeignIndex only
}

// Layout is the physical description of one table.
//
// A layout has at most one primary index, and that index spans exactly one
// field. Compound primary keys are not supported.
type Layout struct {
	name    string
	fields  []*Field
	byName  map[string]*Field
	indexes []*Index
}

// NewLayout creates an empty layout for table name.
func NewLayout(name string) *Layout {
	assert.That(name != "", "layout name must not be empty")
	return &Layout{
		name:   name,
		byName: make(map[string]*Field),
	}
}

// Name returns the table name.
func (l *Layout) Name() string {
	return l.name
}

// AddField appends a field. Field names are unique within a layout.
func (l *Layout) AddField(name string, t Type, opts ...FieldOption) *Layout {
	assert.That(name != "", "field name must not be empty in layout %s", l.name)
	_, exists := l.byName[name]
	assert.That(!exists, "field %s already defined in layout %s", name, l.name)

	f := &Field{Name: name, Type: t}
	for _, opt := range opts {
		opt(f)
	}
	l.fields = append(l.fields, f)
	l.byName[name] = f
	return l
}

// Field returns the named field, or nil when the layout has no such field.
func (l *Layout) Field(name string) *Field {
	return l.byName[name]
}

// HasField reports whether the layout declares the named field.
func (l *Layout) HasField(name string) bool {
	_, ok := l.byName[name]
	return ok
}

// Fields returns the fields in declaration order.
func (l *Layout) Fields() []*Field {
	out := make([]*Field, len(l.fields))
	copy(out, l.fields)
	return out
}

// FieldNames returns the field names in declaration order.
func (l *Layout) FieldNames() []string {
	names := make([]string, len(l.fields))
	for i, f := range l.fields {
		names[i] = f.Name
	}
	return names
}

// AddIndex registers an index. All indexed fields must exist; a primary index
// must be the only one and span exactly one field; a foreign index needs a
// reference.
func (l *Layout) AddIndex(idx *Index) *Layout {
	assert.That(idx != nil && idx.Name != "", "index must have a name in layout %s", l.name)
	assert.That(len(idx.Fields) > 0, "index %s in layout %s has no fields", idx.Name, l.name)
	for _, name := range idx.Fields {
		assert.That(l.HasField(name), "index %s references unknown field %s in layout %s", idx.Name, name, l.name)
	}
	for _, existing := range l.indexes {
		assert.That(existing.Name != idx.Name, "index %s already defined in layout %s", idx.Name, l.name)
	}

	switch idx.Kind {
	case PrimaryIndex:
		assert.That(l.primaryIndex() == nil, "layout %s already has a primary index", l.name)
		assert.That(len(idx.Fields) == 1, "primary index of layout %s must span exactly one field", l.name)
	case ForeignIndex:
		assert.That(idx.References != nil, "foreign index %s in layout %s has no reference", idx.Name, l.name)
		assert.That(len(idx.Fields) == 1, "foreign index %s in layout %s must span exactly one field", idx.Name, l.name)
	case PlainIndex, UniqueIndex:
	default:
		assert.Fail("unknown index kind %q in layout %s", idx.Kind, l.name)
	}

	l.indexes = append(l.indexes, idx)
	return l
}

// Primary declares field as the primary key.
func (l *Layout) Primary(field string) *Layout {
	return l.AddIndex(&Index{Name: "PRIMARY", Kind: PrimaryIndex, Fields: []string{field}})
}

// Unique declares a unique index.
func (l *Layout) Unique(name string, fields ...string) *Layout {
	return l.AddIndex(&Index{Name: name, Kind: UniqueIndex, Fields: fields})
}

// Index declares a plain index.
func (l *Layout) Index(name string, fields ...string) *Layout {
	return l.AddIndex(&Index{Name: name, Kind: PlainIndex, Fields: fields})
}

// Foreign declares a foreign index from field to ref.
func (l *Layout) Foreign(name, field string, ref Reference) *Layout {
	return l.AddIndex(&Index{Name: name, Kind: ForeignIndex, Fields: []string{field}, References: &ref})
}

// DropIndex removes the named index. It reports whether one was removed.
func (l *Layout) DropIndex(name string) bool {
	for i, idx := range l.indexes {
		if idx.Name == name {
			l.indexes = append(l.indexes[:i], l.indexes[i+1:]...)
			return true
		}
	}
	return false
}

// DropField removes the named field and any index covering it.
func (l *Layout) DropField(name string) bool {
	if !l.HasField(name) {
		return false
	}
	delete(l.byName, name)
	for i, f := range l.fields {
		if f.Name == name {
			l.fields = append(l.fields[:i], l.fields[i+1:]...)
			break
		}
	}

	kept := l.indexes[:0]
	for _, idx := range l.indexes {
		if !contains(idx.Fields, name) {
			kept = append(kept, idx)
		}
	}
	l.indexes = kept
	return true
}

// Indexes returns the indexes in declaration order.
func (l *Layout) Indexes() []*Index {
	out := make([]*Index, len(l.indexes))
	copy(out, l.indexes)
	return out
}

// PrimaryKey returns the primary key field, or nil.
func (l *Layout) PrimaryKey() *Field {
	idx := l.primaryIndex()
	if idx == nil {
		return nil
	}
	return l.byName[idx.Fields[0]]
}

// AutoIncrement returns the auto-increment field, or nil.
func (l *Layout) AutoIncrement() *Field {
	for _, f := range l.fields {
		if f.AutoIncrement {
			return f
		}
	}
	return nil
}

// Defaults returns a raw value set populated from field defaults. Fields with
// an Expr default are nil.
func (l *Layout) Defaults() map[string]interface{} {
	raw := make(map[string]interface{}, len(l.fields))
	for _, f := range l.fields {
		if _, ok := f.DefaultExpression(); ok {
			raw[f.Name] = nil
			continue
		}
		raw[f.Name] = f.Default
	}
	return raw
}

// NewRecord builds a record over this layout's fields from raw values.
// Keys in raw that the layout does not know are ignored.
func (l *Layout) NewRecord(raw map[string]interface{}) *record.Record {
	return record.New(l.FieldNames(), raw)
}

func (l *Layout) primaryIndex() *Index {
	for _, idx := range l.indexes {
		if idx.Kind == PrimaryIndex {
			return idx
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
