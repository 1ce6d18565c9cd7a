package sqlgen

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/satishbabariya/relorm/query/ast"
)

// DateTimeFormat is the layout used to render time.Time literals.
const DateTimeFormat = "2006-01-02 15:04:05"

// unboundedLimit is the row count MySQL documents for an offset without limit.
const unboundedLimit = "18446744073709551615"

// MySQL is the MySQL grammar. It is stateless apart from its quoter and safe
// for concurrent use.
type MySQL struct {
	quoter Quoter
}

var _ Grammar = (*MySQL)(nil)

// NewMySQL creates a MySQL grammar. A nil quoter selects MySQLQuoter.
func NewMySQL(q Quoter) *MySQL {
	if q == nil {
		q = MySQLQuoter{}
	}
	return &MySQL{quoter: q}
}

// Query compiles a SELECT.
func (g *MySQL) Query(q *ast.Query) (string, error) {
	return g.query(newContext(), q)
}

func (g *MySQL) query(ctx *compileContext, q *ast.Query) (string, error) {
	var parts []string

	from, err := g.source(ctx, q.Source)
	if err != nil {
		return "", err
	}

	joins := make([]string, 0, len(q.Joins))
	for _, j := range q.Joins {
		sql, err := g.join(ctx, j)
		if err != nil {
			return "", err
		}
		joins = append(joins, sql)
	}

	outputs, err := g.outputs(ctx, q)
	if err != nil {
		return "", err
	}
	parts = append(parts, "SELECT "+outputs, "FROM "+from)
	parts = append(parts, joins...)

	where, err := g.group(ctx, q.Restrictions)
	if err != nil {
		return "", err
	}
	parts = append(parts, "WHERE "+where)

	if len(q.Groups) > 0 {
		cols := make([]string, len(q.Groups))
		for i, f := range q.Groups {
			if cols[i], err = g.field(ctx, f); err != nil {
				return "", err
			}
		}
		parts = append(parts, "GROUP BY "+strings.Join(cols, ", "))
	}

	if len(q.Orders) > 0 {
		orders := make([]string, len(q.Orders))
		for i, o := range q.Orders {
			col, err := g.field(ctx, o.Field)
			if err != nil {
				return "", err
			}
			dir := o.Direction
			if dir != ast.Desc {
				dir = ast.Asc
			}
			orders[i] = col + " " + string(dir)
		}
		parts = append(parts, "ORDER BY "+strings.Join(orders, ", "))
	}

	switch {
	case q.Limit > 0:
		parts = append(parts, fmt.Sprintf("LIMIT %d, %d", q.Offset, q.Limit))
	case q.Offset > 0:
		parts = append(parts, fmt.Sprintf("LIMIT %d, %s", q.Offset, unboundedLimit))
	}

	return strings.Join(parts, " "), nil
}

func (g *MySQL) source(ctx *compileContext, src ast.Source) (string, error) {
	switch s := src.(type) {
	case *ast.Table:
		alias := ctx.declare(s)
		return quoteIdentifier(s.Name) + " AS " + quoteIdentifier(alias), nil
	case *ast.Derived:
		alias := ctx.declare(s)
		inner, err := g.query(ctx, s.Query)
		if err != nil {
			return "", err
		}
		return "(" + inner + ") AS " + quoteIdentifier(alias), nil
	default:
		return "", fmt.Errorf("%w: source %T", ErrUnsupported, src)
	}
}

func (g *MySQL) join(ctx *compileContext, j *ast.Join) (string, error) {
	switch j.Direction {
	case ast.LeftJoin, ast.InnerJoin:
	default:
		return "", fmt.Errorf("%w: join direction %q", ErrUnsupported, j.Direction)
	}
	target, err := g.source(ctx, j.Target)
	if err != nil {
		return "", err
	}
	on, err := g.group(ctx, j.On)
	if err != nil {
		return "", err
	}
	return string(j.Direction) + " " + target + " ON " + on, nil
}

func (g *MySQL) outputs(ctx *compileContext, q *ast.Query) (string, error) {
	if len(q.Outputs) == 0 {
		alias, err := ctx.alias(q.Source)
		if err != nil {
			return "", err
		}
		return quoteIdentifier(alias) + ".*", nil
	}

	cols := make([]string, len(q.Outputs))
	for i, o := range q.Outputs {
		sql, err := g.output(ctx, o)
		if err != nil {
			return "", err
		}
		cols[i] = sql
	}
	return strings.Join(cols, ", "), nil
}

func (g *MySQL) output(ctx *compileContext, o ast.Output) (string, error) {
	if o.All != nil {
		if o.Aggregate != ast.NoAggregate {
			return "", fmt.Errorf("%w: %s over all columns", ErrUnsupported, o.Aggregate)
		}
		alias, err := ctx.alias(o.All)
		if err != nil {
			return "", err
		}
		return quoteIdentifier(alias) + ".*", nil
	}

	col, err := g.field(ctx, o.Field)
	if err != nil {
		return "", err
	}

	switch o.Aggregate {
	case ast.NoAggregate:
		if o.Alias != "" {
			col += " AS " + quoteIdentifier(o.Alias)
		}
		return col, nil
	case ast.Count, ast.Sum, ast.Avg, ast.Min, ast.Max:
		if o.Alias == "" {
			return "", fmt.Errorf("%w: %s(%s)", ErrAggregateAlias, o.Aggregate, o.Field.Name)
		}
		return string(o.Aggregate) + "(" + col + ") AS " + quoteIdentifier(o.Alias), nil
	default:
		return "", fmt.Errorf("%w: aggregate %q", ErrUnsupported, o.Aggregate)
	}
}

func (g *MySQL) field(ctx *compileContext, f ast.Field) (string, error) {
	alias, err := ctx.alias(f.Source)
	if err != nil {
		return "", fmt.Errorf("field %s: %w", f.Name, err)
	}
	return quoteIdentifier(alias) + "." + quoteIdentifier(f.Name), nil
}

// group compiles a restriction group. The empty group is the tautology 1.
func (g *MySQL) group(ctx *compileContext, rg *ast.RestrictionGroup) (string, error) {
	if rg == nil || rg.IsEmpty() {
		return "1", nil
	}
	switch rg.Type {
	case ast.And, ast.Or:
	default:
		return "", fmt.Errorf("%w: group type %q", ErrUnsupported, rg.Type)
	}

	parts := make([]string, len(rg.Children))
	for i, child := range rg.Children {
		var err error
		switch c := child.(type) {
		case *ast.Restriction:
			parts[i], err = g.restriction(ctx, c)
		case *ast.RestrictionGroup:
			var sub string
			sub, err = g.group(ctx, c)
			if len(c.Children) > 1 {
				sub = "(" + sub + ")"
			}
			parts[i] = sub
		default:
			err = fmt.Errorf("%w: condition %T", ErrUnsupported, child)
		}
		if err != nil {
			return "", err
		}
	}
	return strings.Join(parts, " "+string(rg.Type)+" "), nil
}

func (g *MySQL) restriction(ctx *compileContext, r *ast.Restriction) (string, error) {
	var left string
	switch l := r.Left.(type) {
	case ast.Field:
		col, err := g.field(ctx, l)
		if err != nil {
			return "", err
		}
		left = col
	case *ast.Subquery:
		sub, err := g.query(ctx, l.Query)
		if err != nil {
			return "", err
		}
		if _, ok := r.Value.(ast.Null); ok {
			switch r.Op {
			case ast.Is, ast.Eq:
				return "EXISTS (" + sub + ")", nil
			case ast.IsNot, ast.Neq:
				return "NOT EXISTS (" + sub + ")", nil
			default:
				return "", fmt.Errorf("%w: %s with a sub-query and NULL", ErrUnsupported, r.Op)
			}
		}
		left = "(" + sub + ")"
	default:
		return "", fmt.Errorf("%w: operand %T", ErrUnsupported, r.Left)
	}

	switch v := r.Value.(type) {
	case ast.Null:
		switch r.Op {
		case ast.Is, ast.Eq:
			return left + " IS NULL", nil
		case ast.IsNot, ast.Neq:
			return left + " IS NOT NULL", nil
		default:
			return "", fmt.Errorf("%w: %s NULL", ErrUnsupported, r.Op)
		}
	case ast.Scalar:
		if err := g.checkOperator(r.Op); err != nil {
			return "", err
		}
		lit, err := g.literal(v.V)
		if err != nil {
			return "", err
		}
		return left + " " + string(r.Op) + " " + lit, nil
	case ast.List:
		if r.Op != ast.In && r.Op != ast.NotIn {
			return "", fmt.Errorf("%w: %s with a list", ErrUnsupported, r.Op)
		}
		if len(v.Values) == 0 {
			if r.Op == ast.In {
				return "0", nil
			}
			return "1", nil
		}
		lits := make([]string, len(v.Values))
		for i, item := range v.Values {
			lit, err := g.literal(item)
			if err != nil {
				return "", err
			}
			lits[i] = lit
		}
		return left + " " + string(r.Op) + " (" + strings.Join(lits, ", ") + ")", nil
	case ast.FieldValue:
		if err := g.checkOperator(r.Op); err != nil {
			return "", err
		}
		col, err := g.field(ctx, v.Field)
		if err != nil {
			return "", err
		}
		return left + " " + string(r.Op) + " " + col, nil
	case *ast.Subquery:
		if r.Op == ast.Is || r.Op == ast.IsNot {
			return "", fmt.Errorf("%w: %s with a sub-query value", ErrUnsupported, r.Op)
		}
		sub, err := g.query(ctx, v.Query)
		if err != nil {
			return "", err
		}
		return left + " " + string(r.Op) + " (" + sub + ")", nil
	default:
		return "", fmt.Errorf("%w: value %T", ErrUnsupported, r.Value)
	}
}

func (g *MySQL) checkOperator(op ast.Operator) error {
	switch op {
	case ast.Eq, ast.Neq, ast.Gt, ast.Lt, ast.Gte, ast.Lte, ast.Like, ast.NotLike:
		return nil
	}
	return fmt.Errorf("%w: operator %q with a single value", ErrUnsupported, op)
}

// literal renders v as a SQL literal.
func (g *MySQL) literal(v interface{}) (string, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return "NULL", nil
	}
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case time.Time:
		return g.quoter.Quote(x.Format(DateTimeFormat)), nil
	case *time.Time:
		return g.quoter.Quote(x.Format(DateTimeFormat)), nil
	case []byte:
		return g.quoter.Quote(string(x)), nil
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return "", fmt.Errorf("%w: %T value: %v", ErrUnsupported, v, err)
		}
		return g.literal(dv)
	}
	if rv.Kind() == reflect.Ptr {
		return g.literal(rv.Elem().Interface())
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%w: cannot render %T as a literal", ErrUnsupported, v)
	}
	return g.quoter.Quote(s), nil
}
