// Package introspect loads layouts from a live MySQL information_schema.
package introspect

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/satishbabariya/relorm/connection"
	"github.com/satishbabariya/relorm/internal/debug"
	"github.com/satishbabariya/relorm/query/sqlgen"
	"github.com/satishbabariya/relorm/schema"
)

// MySQL reads layouts of the current database through a driver.
type MySQL struct {
	quoter sqlgen.Quoter
}

var _ connection.SchemaLoader = (*MySQL)(nil)

// NewMySQL creates an introspector. A nil quoter selects sqlgen.MySQLQuoter.
func NewMySQL(q sqlgen.Quoter) *MySQL {
	if q == nil {
		q = sqlgen.MySQLQuoter{}
	}
	return &MySQL{quoter: q}
}

// LoadSchema reads every base table of the current database.
func (i *MySQL) LoadSchema(ctx context.Context, d connection.Driver) (*schema.Schema, error) {
	tables, err := i.Tables(ctx, d)
	if err != nil {
		return nil, err
	}

	s := schema.New()
	for _, name := range tables {
		l, err := i.Layout(ctx, d, name)
		if err != nil {
			return nil, fmt.Errorf("failed to introspect table %s: %w", name, err)
		}
		s.Put(l)
	}
	return s, nil
}

// Tables lists the base tables of the current database.
func (i *MySQL) Tables(ctx context.Context, d connection.Driver) ([]string, error) {
	rows, err := read(ctx, d, `SELECT table_name AS name
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, cast.ToString(row["name"]))
	}
	return names, nil
}

// Layout reads the fields and indexes of one table.
func (i *MySQL) Layout(ctx context.Context, d connection.Driver, table string) (*schema.Layout, error) {
	l := schema.NewLayout(table)
	if err := i.columns(ctx, d, l); err != nil {
		return nil, err
	}

	foreign, err := i.foreignKeys(ctx, d, l)
	if err != nil {
		return nil, err
	}
	if err := i.indexes(ctx, d, l, foreign); err != nil {
		return nil, err
	}
	for _, idx := range foreign {
		l.AddIndex(idx)
	}
	return l, nil
}

func (i *MySQL) columns(ctx context.Context, d connection.Driver, l *schema.Layout) error {
	rows, err := read(ctx, d, `SELECT column_name AS name, column_type AS type,
			is_nullable AS nullable, column_default AS dflt, extra AS extra
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = `+i.quoter.Quote(l.Name())+`
		ORDER BY ordinal_position`)
	if err != nil {
		return fmt.Errorf("failed to query columns: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("table %s has no columns", l.Name())
	}

	for _, row := range rows {
		name := cast.ToString(row["name"])
		t, err := ParseColumnType(cast.ToString(row["type"]))
		if err != nil {
			debug.Warn("unknown column type, using text", "table", l.Name(), "column", name, "error", err)
			t = schema.Text()
		}

		var opts []schema.FieldOption
		if strings.EqualFold(cast.ToString(row["nullable"]), "YES") {
			opts = append(opts, schema.Nullable())
		}
		if strings.Contains(strings.ToLower(cast.ToString(row["extra"])), "auto_increment") {
			opts = append(opts, schema.AutoIncrement())
		}
		if row["dflt"] != nil {
			dflt := cast.ToString(row["dflt"])
			if isExpressionDefault(dflt, cast.ToString(row["extra"])) {
				opts = append(opts, schema.DefaultExpr(dflt))
			} else {
				opts = append(opts, schema.Default(dflt))
			}
		}
		l.AddField(name, t, opts...)
	}
	return nil
}

// isExpressionDefault reports whether column_default holds an expression.
// MySQL 8 marks those with DEFAULT_GENERATED; older servers report the
// timestamp functions bare.
func isExpressionDefault(dflt, extra string) bool {
	if strings.Contains(strings.ToUpper(extra), "DEFAULT_GENERATED") {
		return true
	}
	upper := strings.ToUpper(dflt)
	for _, fn := range []string{"CURRENT_TIMESTAMP", "NOW(", "LOCALTIME", "CURRENT_DATE", "CURRENT_TIME"} {
		if strings.HasPrefix(upper, fn) {
			return true
		}
	}
	return false
}

func (i *MySQL) indexes(ctx context.Context, d connection.Driver, l *schema.Layout, foreign []*schema.Index) error {
	rows, err := read(ctx, d, `SELECT index_name AS name,
			GROUP_CONCAT(column_name ORDER BY seq_in_index) AS columns,
			MAX(non_unique) AS non_unique
		FROM information_schema.statistics
		WHERE table_schema = DATABASE() AND table_name = `+i.quoter.Quote(l.Name())+`
		GROUP BY index_name
		ORDER BY index_name = 'PRIMARY' DESC, index_name`)
	if err != nil {
		return fmt.Errorf("failed to query indexes: %w", err)
	}

	backing := make(map[string]bool, len(foreign))
	for _, idx := range foreign {
		backing[idx.Name] = true
	}

	for _, row := range rows {
		name := cast.ToString(row["name"])
		if backing[name] {
			continue
		}
		cols := strings.Split(cast.ToString(row["columns"]), ",")
		idx := &schema.Index{Name: name, Fields: cols, Kind: schema.PlainIndex}
		switch {
		case name == "PRIMARY":
			if len(cols) != 1 {
				debug.Warn("skipping compound primary key", "table", l.Name(), "columns", cols)
				continue
			}
			idx.Kind = schema.PrimaryIndex
		case cast.ToInt(row["non_unique"]) == 0:
			idx.Kind = schema.UniqueIndex
		}
		l.AddIndex(idx)
	}
	return nil
}

func (i *MySQL) foreignKeys(ctx context.Context, d connection.Driver, l *schema.Layout) ([]*schema.Index, error) {
	rows, err := read(ctx, d, `SELECT kcu.constraint_name AS name,
			GROUP_CONCAT(kcu.column_name ORDER BY kcu.ordinal_position) AS columns,
			kcu.referenced_table_name AS ref_table,
			GROUP_CONCAT(kcu.referenced_column_name ORDER BY kcu.ordinal_position) AS ref_columns,
			rc.update_rule AS on_update, rc.delete_rule AS on_delete
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON kcu.constraint_name = rc.constraint_name
			AND kcu.constraint_schema = rc.constraint_schema
		WHERE kcu.table_schema = DATABASE() AND kcu.table_name = `+i.quoter.Quote(l.Name())+`
			AND kcu.referenced_table_name IS NOT NULL
		GROUP BY kcu.constraint_name, kcu.referenced_table_name, rc.update_rule, rc.delete_rule
		ORDER BY kcu.constraint_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}

	var out []*schema.Index
	for _, row := range rows {
		name := cast.ToString(row["name"])
		cols := strings.Split(cast.ToString(row["columns"]), ",")
		if len(cols) != 1 {
			debug.Warn("skipping compound foreign key", "table", l.Name(), "constraint", name)
			continue
		}
		out = append(out, &schema.Index{
			Name:   name,
			Kind:   schema.ForeignIndex,
			Fields: cols,
			References: &schema.Reference{
				Table:    cast.ToString(row["ref_table"]),
				Field:    cast.ToString(row["ref_columns"]),
				OnDelete: rule(cast.ToString(row["on_delete"])),
				OnUpdate: rule(cast.ToString(row["on_update"])),
			},
		})
	}
	return out, nil
}

// rule drops the actions MySQL applies when none is declared.
func rule(s string) string {
	switch strings.ToUpper(s) {
	case "", "RESTRICT", "NO ACTION":
		return ""
	}
	return strings.ToUpper(s)
}

// ParseColumnType maps a MySQL column_type such as "int(10) unsigned" or
// "enum('a','b')" to a field type.
func ParseColumnType(s string) (schema.Type, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	unsigned := strings.Contains(lower, " unsigned")

	base, args := lower, ""
	if open := strings.IndexByte(s, '('); open >= 0 {
		base = lower[:open]
		if end := strings.LastIndexByte(s, ')'); end > open {
			args = s[open+1 : end]
		}
	} else if sp := strings.IndexByte(lower, ' '); sp >= 0 {
		base = lower[:sp]
	}

	switch base {
	case "tinyint":
		if args == "1" {
			return schema.Bool(), nil
		}
		return schema.Integer(unsigned), nil
	case "smallint", "mediumint", "int", "integer":
		return schema.Integer(unsigned), nil
	case "bigint":
		return schema.BigInteger(unsigned), nil
	case "varchar", "char":
		n, err := strconv.Atoi(args)
		if err != nil {
			return schema.Type{}, fmt.Errorf("bad length in %q", s)
		}
		return schema.String(n), nil
	case "tinytext", "text", "mediumtext", "longtext":
		return schema.Text(), nil
	case "float", "double", "decimal", "real":
		return schema.Float(), nil
	case "bool", "boolean":
		return schema.Bool(), nil
	case "date", "datetime", "timestamp":
		return schema.DateTime(), nil
	case "enum":
		opts, err := enumOptions(args)
		if err == nil && len(opts) == 0 {
			err = fmt.Errorf("no options")
		}
		if err != nil {
			return schema.Type{}, fmt.Errorf("bad enum %q: %w", s, err)
		}
		return schema.Enum(opts...), nil
	}
	return schema.Type{}, fmt.Errorf("unsupported column type %q", s)
}

// enumOptions splits 'a','b''c' into its values.
func enumOptions(args string) ([]string, error) {
	var (
		opts []string
		cur  strings.Builder
		in   bool
	)
	for i := 0; i < len(args); i++ {
		c := args[i]
		switch {
		case !in && c == '\'':
			in = true
		case !in && (c == ',' || c == ' '):
		case !in:
			return nil, fmt.Errorf("unexpected %q", c)
		case c == '\'' && i+1 < len(args) && args[i+1] == '\'':
			cur.WriteByte('\'')
			i++
		case c == '\\' && i+1 < len(args):
			i++
			cur.WriteByte(args[i])
		case c == '\'':
			in = false
			opts = append(opts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if in {
		return nil, fmt.Errorf("unterminated option")
	}
	return opts, nil
}

func read(ctx context.Context, d connection.Driver, sql string) ([]map[string]interface{}, error) {
	rs, err := d.Read(ctx, sql)
	if err != nil {
		return nil, err
	}
	return connection.FetchAll(rs)
}
