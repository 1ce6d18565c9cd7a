package schema

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is the YAML form of a layout.
//
//	table: users
//	primary: _id
//	fields:
//	  - {name: _id, type: int, unsigned: true, auto_increment: true}
//	  - {name: email, type: string, length: 120}
//	indexes:
//	  - {name: email_unique, kind: unique, fields: [email]}
type Definition struct {
	Table   string            `yaml:"table"`
	Primary string            `yaml:"primary,omitempty"`
	Fields  []FieldDefinition `yaml:"fields"`
	Indexes []IndexDefinition `yaml:"indexes,omitempty"`
}

// FieldDefinition is the YAML form of a field.
type FieldDefinition struct {
	Name          string      `yaml:"name"`
	Type          string      `yaml:"type"`
	Length        int         `yaml:"length,omitempty"`
	Unsigned      bool        `yaml:"unsigned,omitempty"`
	Options       []string    `yaml:"options,omitempty"`
	Nullable      bool        `yaml:"nullable,omitempty"`
	AutoIncrement bool        `yaml:"auto_increment,omitempty"`
	Default       interface{} `yaml:"default,omitempty"`
	DefaultExpr   string      `yaml:"default_expr,omitempty"`
}

// IndexDefinition is the YAML form of an index.
type IndexDefinition struct {
	Name       string               `yaml:"name"`
	Kind       string               `yaml:"kind"`
	Fields     []string             `yaml:"fields"`
	References *ReferenceDefinition `yaml:"references,omitempty"`
}

// ReferenceDefinition is the YAML form of a foreign reference.
type ReferenceDefinition struct {
	Table    string `yaml:"table"`
	Field    string `yaml:"field"`
	OnDelete string `yaml:"on_delete,omitempty"`
	OnUpdate string `yaml:"on_update,omitempty"`
}

// ParseDefinition decodes one YAML layout definition.
func ParseDefinition(r io.Reader) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to decode layout definition: %w", err)
	}
	return &def, nil
}

// Layout validates the definition and builds the layout it describes.
func (d *Definition) Layout() (*Layout, error) {
	if d.Table == "" {
		return nil, fmt.Errorf("layout definition has no table name")
	}

	l := NewLayout(d.Table)
	seen := make(map[string]bool, len(d.Fields))
	for _, fd := range d.Fields {
		if fd.Name == "" {
			return nil, fmt.Errorf("table %s: field without name", d.Table)
		}
		if seen[fd.Name] {
			return nil, fmt.Errorf("table %s: duplicate field %s", d.Table, fd.Name)
		}
		seen[fd.Name] = true

		t, err := fd.typ()
		if err != nil {
			return nil, fmt.Errorf("table %s field %s: %w", d.Table, fd.Name, err)
		}
		var opts []FieldOption
		if fd.Nullable {
			opts = append(opts, Nullable())
		}
		if fd.AutoIncrement {
			opts = append(opts, AutoIncrement())
		}
		switch {
		case fd.Default != nil && fd.DefaultExpr != "":
			return nil, fmt.Errorf("table %s field %s: default and default_expr are exclusive", d.Table, fd.Name)
		case fd.DefaultExpr != "":
			opts = append(opts, DefaultExpr(fd.DefaultExpr))
		case fd.Default != nil:
			opts = append(opts, Default(fd.Default))
		}
		l.AddField(fd.Name, t, opts...)
	}

	if d.Primary != "" {
		if !seen[d.Primary] {
			return nil, fmt.Errorf("table %s: primary key %s is not a field", d.Table, d.Primary)
		}
		l.Primary(d.Primary)
	}

	for _, id := range d.Indexes {
		idx, err := d.index(id, seen)
		if err != nil {
			return nil, err
		}
		if idx.Kind == PrimaryIndex && l.PrimaryKey() != nil {
			return nil, fmt.Errorf("table %s: more than one primary index", d.Table)
		}
		l.AddIndex(idx)
	}
	return l, nil
}

func (d *Definition) index(id IndexDefinition, fields map[string]bool) (*Index, error) {
	if id.Name == "" {
		return nil, fmt.Errorf("table %s: index without name", d.Table)
	}
	if len(id.Fields) == 0 {
		return nil, fmt.Errorf("table %s index %s: no fields", d.Table, id.Name)
	}
	for _, f := range id.Fields {
		if !fields[f] {
			return nil, fmt.Errorf("table %s index %s: unknown field %s", d.Table, id.Name, f)
		}
	}

	idx := &Index{Name: id.Name, Fields: id.Fields}
	switch strings.ToLower(id.Kind) {
	case "", "index", "key":
		idx.Kind = PlainIndex
	case "unique":
		idx.Kind = UniqueIndex
	case "primary":
		if len(id.Fields) != 1 {
			return nil, fmt.Errorf("table %s: primary index must span exactly one field", d.Table)
		}
		idx.Kind = PrimaryIndex
	case "foreign":
		if id.References == nil || len(id.Fields) != 1 {
			return nil, fmt.Errorf("table %s index %s: foreign index needs one field and a reference", d.Table, id.Name)
		}
		idx.Kind = ForeignIndex
		idx.References = &Reference{
			Table:    id.References.Table,
			Field:    id.References.Field,
			OnDelete: id.References.OnDelete,
			OnUpdate: id.References.OnUpdate,
		}
	default:
		return nil, fmt.Errorf("table %s index %s: unknown kind %q", d.Table, id.Name, id.Kind)
	}
	return idx, nil
}

func (fd FieldDefinition) typ() (Type, error) {
	switch strings.ToLower(fd.Type) {
	case "int", "integer":
		return Integer(fd.Unsigned), nil
	case "bigint":
		return BigInteger(fd.Unsigned), nil
	case "string", "varchar":
		return String(fd.Length), nil
	case "text":
		return Text(), nil
	case "float", "double":
		return Float(), nil
	case "bool", "boolean":
		return Bool(), nil
	case "datetime", "timestamp":
		return DateTime(), nil
	case "enum":
		if len(fd.Options) == 0 {
			return Type{}, fmt.Errorf("enum needs options")
		}
		return Enum(fd.Options...), nil
	default:
		return Type{}, fmt.Errorf("unknown type %q", fd.Type)
	}
}

// DefinitionOf converts a layout back into its YAML form.
func DefinitionOf(l *Layout) *Definition {
	def := &Definition{Table: l.Name()}
	for _, f := range l.Fields() {
		fd := FieldDefinition{
			Name:          f.Name,
			Type:          string(f.Type.Kind),
			Length:        f.Type.Length,
			Unsigned:      f.Type.Unsigned,
			Options:       f.Type.Options,
			Nullable:      f.Nullable,
			AutoIncrement: f.AutoIncrement,
			Default:       f.Default,
		}
		if e, ok := f.DefaultExpression(); ok {
			fd.Default, fd.DefaultExpr = nil, string(e)
		}
		def.Fields = append(def.Fields, fd)
	}
	for _, idx := range l.Indexes() {
		if idx.Kind == PrimaryIndex {
			def.Primary = idx.Fields[0]
			continue
		}
		id := IndexDefinition{Name: idx.Name, Kind: string(idx.Kind), Fields: idx.Fields}
		if idx.References != nil {
			id.References = &ReferenceDefinition{
				Table:    idx.References.Table,
				Field:    idx.References.Field,
				OnDelete: idx.References.OnDelete,
				OnUpdate: idx.References.OnUpdate,
			}
		}
		def.Indexes = append(def.Indexes, id)
	}
	return def
}
