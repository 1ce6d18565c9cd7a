// Package relation implements model relationships: direct one-to-one and
// one-to-many links and many-to-many links through a pivot table.
package relation

import (
	"context"

	"github.com/satishbabariya/relorm/internal/assert"
	"github.com/satishbabariya/relorm/internal/debug"
	"github.com/satishbabariya/relorm/model"
	"github.com/satishbabariya/relorm/query/ast"
	"github.com/satishbabariya/relorm/query/builder"
)

// Kind names the shape of a direct relationship.
type Kind string

const (
	KindBelongsToOne Kind = "belongs-to-one"
	KindHasOne       Kind = "has-one"
	KindHasMany      Kind = "has-many"
)

// Direct relates rows whose referenced field equals the local field.
type Direct struct {
	kind       Kind
	local      model.Field
	referenced model.Field
}

var _ model.Relationship = (*Direct)(nil)

// BelongsToOne links a foreign key on the local model to the key of its
// parent.
func BelongsToOne(local, referenced model.Field) *Direct {
	return &Direct{kind: KindBelongsToOne, local: local, referenced: referenced}
}

// HasOne links a key to the single child row holding it as foreign key.
func HasOne(local, referenced model.Field) *Direct {
	return &Direct{kind: KindHasOne, local: local, referenced: referenced}
}

// HasMany links a key to every child row holding it as foreign key.
func HasMany(local, referenced model.Field) *Direct {
	return &Direct{kind: KindHasMany, local: local, referenced: referenced}
}

// Kind returns the relationship shape.
func (d *Direct) Kind() Kind { return d.kind }

// Local implements model.Relationship.
func (d *Direct) Local() model.Field { return d.local }

// Referenced implements model.Relationship.
func (d *Direct) Referenced() model.Field { return d.referenced }

// Single implements model.Relationship.
func (d *Direct) Single() bool { return d.kind != KindHasMany }

// Injector implements model.Relationship.
func (d *Direct) Injector() model.Injector { return directInjector{d} }

func (d *Direct) String() string {
	return d.local.String() + " " + string(d.kind) + " " + d.referenced.String()
}

// Resolve loads the instances related to inst with one query. A nil local
// value resolves to empty content without querying.
func (d *Direct) Resolve(ctx context.Context, inst *model.Instance) (*model.Content, error) {
	checkParent(d, inst)

	content := &model.Content{Single: d.Single()}
	v := inst.Get(d.local.Name())
	if v == nil {
		return content, nil
	}

	b := builder.New(d.referenced.Reflection()).Where(d.referenced.Name(), v)
	if d.Single() {
		b.Range(0, 1)
	}
	items, err := b.All(ctx)
	if err != nil {
		return nil, err
	}
	checkPayload(d, items)
	content.Payload = items
	return content, nil
}

// ResolveAll loads the instances related to every parent with one query: an
// OR group holding one restriction per distinct local value.
func (d *Direct) ResolveAll(ctx context.Context, insts []*model.Instance) (map[string]*model.Content, error) {
	keys, values := localKeys(d, insts)
	out := make(map[string]*model.Content, len(keys))
	for _, k := range keys {
		out[k] = &model.Content{Single: d.Single()}
	}
	if len(values) == 0 {
		return out, nil
	}

	debug.Debug("resolving relationship", "relationship", d.String(), "parents", len(insts), "keys", len(keys))

	b := builder.New(d.referenced.Reflection()).Group(ast.Or, func(s *builder.Scope) {
		for _, v := range values {
			s.Where(d.referenced.Name(), v)
		}
	})
	items, err := b.All(ctx)
	if err != nil {
		return nil, err
	}
	checkPayload(d, items)

	for _, item := range items {
		c, ok := out[model.Key(item.Get(d.referenced.Name()))]
		if !ok || (c.Single && len(c.Payload) > 0) {
			continue
		}
		c.Payload = append(c.Payload, item)
	}
	return out, nil
}

type directInjector struct{ d *Direct }

// Existence selects the referenced key from rows whose referenced field
// equals the outer local field.
func (i directInjector) Existence(outer ast.Source, fn model.Constraint) *ast.RestrictionGroup {
	ref := i.d.referenced
	table := ast.NewTable(ref.Reflection().Table())
	sub := ast.NewQuery(table).Select(ast.Column(ref.On(table)))
	sub.Where(ref.On(table), i.d.local.On(outer))
	if fn != nil {
		fn(table, sub.Restrictions)
	}
	return ast.NewGroup(ast.And).Exists(sub)
}

func (i directInjector) Absence(outer ast.Source, fn model.Constraint) *ast.RestrictionGroup {
	g := i.Existence(outer, fn)
	g.Negate()
	return g
}

// Eager resolves the named relationships over parents, which must share a
// model, and stores the content on each parent.
func Eager(ctx context.Context, parents []*model.Instance, names ...string) error {
	if len(parents) == 0 {
		return nil
	}
	return parents[0].Reflection().Eager(ctx, parents, names...)
}

// localKeys returns the distinct non-nil local values of insts, as partition
// keys and as raw values, in first-seen order.
func localKeys(rel model.Relationship, insts []*model.Instance) ([]string, []interface{}) {
	seen := make(map[string]struct{}, len(insts))
	var (
		keys   []string
		values []interface{}
	)
	for _, inst := range insts {
		checkParent(rel, inst)
		v := inst.Get(rel.Local().Name())
		if v == nil {
			continue
		}
		k := model.Key(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
		values = append(values, v)
	}
	return keys, values
}

func checkParent(rel model.Relationship, inst *model.Instance) {
	want := rel.Local().Reflection()
	assert.That(inst.Reflection() == want, "relationship on %s resolved for a %s instance", want.Name(), inst.Reflection().Name())
}

func checkPayload(rel model.Relationship, items []*model.Instance) {
	want := rel.Referenced().Reflection()
	for _, item := range items {
		assert.That(item.Reflection() == want, "relationship to %s produced a %s instance", want.Name(), item.Reflection().Name())
	}
}
