package relation

import (
	"context"
	"sort"
	"strings"

	"github.com/satishbabariya/relorm/internal/assert"
	"github.com/satishbabariya/relorm/internal/debug"
	"github.com/satishbabariya/relorm/model"
	"github.com/satishbabariya/relorm/query/ast"
	"github.com/satishbabariya/relorm/query/builder"
)

// pivotKey aliases the pivot-local column in eager loading queries.
const pivotKey = "__pivot_local"

// ManyToMany relates two models through a pivot table holding one column
// for each side.
type ManyToMany struct {
	local      model.Field
	referenced model.Field

	pivot       string
	pivotLocal  string
	pivotRemote string
}

var _ model.Relationship = (*ManyToMany)(nil)

// Option configures a ManyToMany.
type Option func(*ManyToMany)

// WithPivot sets the pivot table name.
func WithPivot(table string) Option {
	return func(m *ManyToMany) { m.pivot = table }
}

// WithPivotColumns sets the pivot columns referencing the local and the
// referenced model.
func WithPivotColumns(local, remote string) Option {
	return func(m *ManyToMany) { m.pivotLocal, m.pivotRemote = local, remote }
}

// BelongsToMany links local to referenced through a pivot table. The pivot
// table defaults to both table names sorted and joined by "_", each pivot
// column to its table name followed by that table's primary key name.
func BelongsToMany(local, referenced model.Field, opts ...Option) *ManyToMany {
	lt := local.Reflection().Table()
	rt := referenced.Reflection().Table()

	tables := []string{lt, rt}
	sort.Strings(tables)

	m := &ManyToMany{
		local:       local,
		referenced:  referenced,
		pivot:       strings.Join(tables, "_"),
		pivotLocal:  lt + local.Reflection().PrimaryKey().Name(),
		pivotRemote: rt + referenced.Reflection().PrimaryKey().Name(),
	}
	for _, opt := range opts {
		opt(m)
	}

	assert.That(m.pivotLocal != m.pivotRemote, "pivot %s: local and remote columns are both %q", m.pivot, m.pivotLocal)
	return m
}

// Pivot returns the pivot table and its local and remote columns.
func (m *ManyToMany) Pivot() (table, local, remote string) {
	return m.pivot, m.pivotLocal, m.pivotRemote
}

// Local implements model.Relationship.
func (m *ManyToMany) Local() model.Field { return m.local }

// Referenced implements model.Relationship.
func (m *ManyToMany) Referenced() model.Field { return m.referenced }

// Single implements model.Relationship.
func (m *ManyToMany) Single() bool { return false }

// Injector implements model.Relationship.
func (m *ManyToMany) Injector() model.Injector { return pivotInjector{m} }

func (m *ManyToMany) String() string {
	return m.local.String() + " belongs-to-many " + m.referenced.String() + " via " + m.pivot
}

// Resolve loads the instances related to inst.
func (m *ManyToMany) Resolve(ctx context.Context, inst *model.Instance) (*model.Content, error) {
	all, err := m.ResolveAll(ctx, []*model.Instance{inst})
	if err != nil {
		return nil, err
	}
	if c, ok := all[model.Key(inst.Get(m.local.Name()))]; ok {
		return c, nil
	}
	return &model.Content{}, nil
}

// ResolveAll joins the referenced table to the pivot and restricts the
// pivot-local column to every parent value in one OR group. Rows are
// partitioned by the pivot-local column.
func (m *ManyToMany) ResolveAll(ctx context.Context, insts []*model.Instance) (map[string]*model.Content, error) {
	keys, values := localKeys(m, insts)
	out := make(map[string]*model.Content, len(keys))
	for _, k := range keys {
		out[k] = &model.Content{}
	}
	if len(values) == 0 {
		return out, nil
	}

	debug.Debug("resolving relationship", "relationship", m.String(), "parents", len(insts), "keys", len(keys))

	b := builder.New(m.referenced.Reflection())
	pivot := ast.NewTable(m.pivot)
	q := b.Query()
	q.JoinTable(ast.InnerJoin, pivot, func(on *ast.RestrictionGroup) {
		on.Where(pivot.Field(m.pivotRemote), m.referenced.On(b.Table()))
	})
	q.Select(ast.AllOf(b.Table()), ast.ColumnAs(pivot.Field(m.pivotLocal), pivotKey))
	q.Group(ast.Or, func(g *ast.RestrictionGroup) {
		for _, v := range values {
			g.Where(pivot.Field(m.pivotLocal), v)
		}
	})

	rows, err := b.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		checkPayload(m, []*model.Instance{row.Instance})
		if c, ok := out[model.Key(row.Extras[pivotKey])]; ok {
			c.Payload = append(c.Payload, row.Instance)
		}
	}
	return out, nil
}

type pivotInjector struct{ m *ManyToMany }

// Existence selects the pivot-local column from pivot rows joined to the
// referenced table and pointing at the outer local field.
func (i pivotInjector) Existence(outer ast.Source, fn model.Constraint) *ast.RestrictionGroup {
	m := i.m
	pivot := ast.NewTable(m.pivot)
	target := ast.NewTable(m.referenced.Reflection().Table())

	sub := ast.NewQuery(pivot).Select(ast.Column(pivot.Field(m.pivotLocal)))
	sub.JoinTable(ast.InnerJoin, target, func(on *ast.RestrictionGroup) {
		on.Where(m.referenced.On(target), pivot.Field(m.pivotRemote))
	})
	sub.Where(pivot.Field(m.pivotLocal), m.local.On(outer))
	if fn != nil {
		fn(target, sub.Restrictions)
	}
	return ast.NewGroup(ast.And).Exists(sub)
}

func (i pivotInjector) Absence(outer ast.Source, fn model.Constraint) *ast.RestrictionGroup {
	g := i.Existence(outer, fn)
	g.Negate()
	return g
}
