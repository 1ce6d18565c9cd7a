package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/relorm/record"
	"github.com/satishbabariya/relorm/schema"
)

// CreateTable compiles CREATE TABLE for l.
func (g *MySQL) CreateTable(l *schema.Layout) (string, error) {
	var defs []string
	for _, f := range l.Fields() {
		def, err := g.column(f)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", l.Name(), err)
		}
		defs = append(defs, def)
	}
	for _, idx := range l.Indexes() {
		def, err := g.index(idx)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", l.Name(), err)
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return "", fmt.Errorf("%w: table %s has no fields", ErrUnsupported, l.Name())
	}
	return fmt.Sprintf("CREATE TABLE %s (%s) ENGINE=InnoDB", quoteIdentifier(l.Name()), strings.Join(defs, ", ")), nil
}

// AlterTable compiles one ALTER TABLE statement applying a.
func (g *MySQL) AlterTable(l *schema.Layout, a *Alteration) (string, error) {
	if a.IsEmpty() {
		return "", fmt.Errorf("%w: empty alteration of table %s", ErrUnsupported, l.Name())
	}

	var specs []string
	for _, f := range a.AddFields {
		def, err := g.column(f)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", l.Name(), err)
		}
		specs = append(specs, "ADD COLUMN "+def)
	}
	for _, name := range a.DropFields {
		specs = append(specs, "DROP COLUMN "+quoteIdentifier(name))
	}
	for _, idx := range a.DropIndexes {
		switch idx.Kind {
		case schema.PrimaryIndex:
			specs = append(specs, "DROP PRIMARY KEY")
		case schema.ForeignIndex:
			specs = append(specs, "DROP FOREIGN KEY "+quoteIdentifier(idx.Name))
		default:
			specs = append(specs, "DROP INDEX "+quoteIdentifier(idx.Name))
		}
	}
	for _, idx := range a.AddIndexes {
		def, err := g.index(idx)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", l.Name(), err)
		}
		specs = append(specs, "ADD "+def)
	}
	return fmt.Sprintf("ALTER TABLE %s %s", quoteIdentifier(l.Name()), strings.Join(specs, ", ")), nil
}

// DropTable compiles DROP TABLE.
func (g *MySQL) DropTable(name string) string {
	return "DROP TABLE " + quoteIdentifier(name)
}

// HasTable compiles the table existence check. It compares the name exactly,
// unlike SHOW TABLES LIKE where _ and % are wildcards.
func (g *MySQL) HasTable(name string) string {
	return "SELECT table_name AS name FROM information_schema.tables " +
		"WHERE table_schema = DATABASE() AND table_name = " + g.quoter.Quote(name)
}

func (g *MySQL) column(f *schema.Field) (string, error) {
	typ, err := g.columnType(f.Type)
	if err != nil {
		return "", fmt.Errorf("field %s: %w", f.Name, err)
	}

	parts := []string{quoteIdentifier(f.Name), typ}
	if f.Nullable {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}
	if e, ok := f.DefaultExpression(); ok {
		parts = append(parts, "DEFAULT "+string(e))
	} else if f.Default != nil {
		lit, err := g.literal(f.Default)
		if err != nil {
			return "", fmt.Errorf("field %s default: %w", f.Name, err)
		}
		parts = append(parts, "DEFAULT "+lit)
	}
	if f.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}
	return strings.Join(parts, " "), nil
}

func (g *MySQL) columnType(t schema.Type) (string, error) {
	unsigned := ""
	if t.Unsigned {
		unsigned = " UNSIGNED"
	}
	switch t.Kind {
	case schema.KindInteger:
		return "INT" + unsigned, nil
	case schema.KindBigInteger:
		return "BIGINT" + unsigned, nil
	case schema.KindString:
		length := t.Length
		if length <= 0 {
			length = schema.DefaultStringLength
		}
		return fmt.Sprintf("VARCHAR(%d)", length), nil
	case schema.KindText:
		return "TEXT", nil
	case schema.KindFloat:
		return "DOUBLE", nil
	case schema.KindBool:
		return "TINYINT(1)", nil
	case schema.KindDateTime:
		return "DATETIME", nil
	case schema.KindEnum:
		if len(t.Options) == 0 {
			return "", fmt.Errorf("%w: enum without options", ErrUnsupported)
		}
		opts := make([]string, len(t.Options))
		for i, o := range t.Options {
			opts[i] = g.quoter.Quote(o)
		}
		return "ENUM(" + strings.Join(opts, ", ") + ")", nil
	default:
		return "", fmt.Errorf("%w: type %q", ErrUnsupported, t.Kind)
	}
}

func (g *MySQL) index(idx *schema.Index) (string, error) {
	cols := make([]string, len(idx.Fields))
	for i, f := range idx.Fields {
		cols[i] = quoteIdentifier(f)
	}
	list := "(" + strings.Join(cols, ", ") + ")"

	switch idx.Kind {
	case schema.PrimaryIndex:
		return "PRIMARY KEY " + list, nil
	case schema.UniqueIndex:
		return "UNIQUE KEY " + quoteIdentifier(idx.Name) + " " + list, nil
	case schema.PlainIndex:
		return "KEY " + quoteIdentifier(idx.Name) + " " + list, nil
	case schema.ForeignIndex:
		if idx.References == nil {
			return "", fmt.Errorf("%w: foreign index %s without reference", ErrUnsupported, idx.Name)
		}
		parts := []string{
			"CONSTRAINT " + quoteIdentifier(idx.Name),
			"FOREIGN KEY " + list,
			"REFERENCES " + quoteIdentifier(idx.References.Table) + " (" + quoteIdentifier(idx.References.Field) + ")",
		}
		if idx.References.OnDelete != "" {
			parts = append(parts, "ON DELETE "+strings.ToUpper(idx.References.OnDelete))
		}
		if idx.References.OnUpdate != "" {
			parts = append(parts, "ON UPDATE "+strings.ToUpper(idx.References.OnUpdate))
		}
		return strings.Join(parts, " "), nil
	default:
		return "", fmt.Errorf("%w: index kind %q", ErrUnsupported, idx.Kind)
	}
}

// InsertRecord compiles an INSERT of every field of r. A nil field with an
// expression default is left out so the database computes it.
func (g *MySQL) InsertRecord(l *schema.Layout, r *record.Record) (string, error) {
	fields := l.FieldNames()
	cols := make([]string, 0, len(fields))
	vals := make([]string, 0, len(fields))
	for _, name := range fields {
		if !r.Has(name) {
			continue
		}
		if _, ok := l.Field(name).DefaultExpression(); ok && r.Get(name) == nil {
			continue
		}
		lit, err := g.literal(r.Get(name))
		if err != nil {
			return "", fmt.Errorf("table %s field %s: %w", l.Name(), name, err)
		}
		cols = append(cols, quoteIdentifier(name))
		vals = append(vals, lit)
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("%w: insert into %s without fields", ErrUnsupported, l.Name())
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(l.Name()), strings.Join(cols, ", "), strings.Join(vals, ", ")), nil
}

// UpdateRecord compiles an UPDATE of the changed fields of r, locating the row
// by the primary key's original value.
func (g *MySQL) UpdateRecord(l *schema.Layout, r *record.Record) (string, error) {
	where, err := g.locate(l, r)
	if err != nil {
		return "", err
	}

	changed := r.DiffFields()
	if len(changed) == 0 {
		return "", fmt.Errorf("table %s: %w", l.Name(), ErrEmptyUpdate)
	}
	sets := make([]string, len(changed))
	for i, name := range changed {
		lit, err := g.literal(r.Get(name))
		if err != nil {
			return "", fmt.Errorf("table %s field %s: %w", l.Name(), name, err)
		}
		sets[i] = quoteIdentifier(name) + " = " + lit
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", quoteIdentifier(l.Name()), strings.Join(sets, ", "), where), nil
}

// DeleteRecord compiles a DELETE locating the row by the primary key's
// original value.
func (g *MySQL) DeleteRecord(l *schema.Layout, r *record.Record) (string, error) {
	where, err := g.locate(l, r)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", quoteIdentifier(l.Name()), where), nil
}

func (g *MySQL) locate(l *schema.Layout, r *record.Record) (string, error) {
	pk := l.PrimaryKey()
	if pk == nil {
		return "", fmt.Errorf("table %s: %w", l.Name(), ErrNoPrimaryKey)
	}
	original := r.Original(pk.Name)
	if original == nil {
		return "", fmt.Errorf("table %s: primary key %s is unset: %w", l.Name(), pk.Name, ErrNoPrimaryKey)
	}
	lit, err := g.literal(original)
	if err != nil {
		return "", fmt.Errorf("table %s field %s: %w", l.Name(), pk.Name, err)
	}
	return quoteIdentifier(pk.Name) + " = " + lit, nil
}
