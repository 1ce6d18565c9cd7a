package connection

import (
	"context"
	"sync"

	"github.com/spf13/cast"

	"github.com/satishbabariya/relorm/query/ast"
	"github.com/satishbabariya/relorm/schema"
)

// TagsTable is the table holding connection tags.
const TagsTable = "_tags"

// TagsLayout returns the layout of the tags table.
func TagsLayout() *schema.Layout {
	return schema.NewLayout(TagsTable).
		AddField("_id", schema.Integer(true), schema.AutoIncrement()).
		AddField("name", schema.String(255)).
		Primary("_id").
		Unique("name_unique", "name")
}

// Tags is a set of string markers stored in the database. The backing table
// is created on first use.
type Tags struct {
	conn   *Connection
	layout *schema.Layout

	mu    sync.Mutex
	ready bool
}

func newTags(c *Connection) *Tags {
	return &Tags{conn: c, layout: TagsLayout()}
}

func (t *Tags) ensure(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ready {
		return nil
	}
	exists, err := t.conn.HasTable(ctx, TagsTable)
	if err != nil {
		return err
	}
	if !exists {
		if err := t.conn.CreateTable(ctx, t.layout); err != nil {
			return err
		}
	}
	t.ready = true
	return nil
}

func (t *Tags) rows(ctx context.Context, name string) ([]map[string]interface{}, error) {
	if err := t.ensure(ctx); err != nil {
		return nil, err
	}
	table := ast.NewTable(TagsTable)
	q := ast.NewQuery(table).OrderBy(table.Field("_id"), ast.Asc)
	if name != "" {
		q.Where(table.Field("name"), name)
	}
	rs, err := t.conn.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return FetchAll(rs)
}

// List returns every tag in insertion order.
func (t *Tags) List(ctx context.Context) ([]string, error) {
	rows, err := t.rows(ctx, "")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, cast.ToString(row["name"]))
	}
	return names, nil
}

// Contains reports whether tag is set.
func (t *Tags) Contains(ctx context.Context, tag string) (bool, error) {
	rows, err := t.rows(ctx, tag)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Tag sets tag. Setting a present tag is a no-op.
func (t *Tags) Tag(ctx context.Context, tag string) error {
	present, err := t.Contains(ctx, tag)
	if err != nil || present {
		return err
	}
	_, err = t.conn.Insert(ctx, t.layout, t.layout.NewRecord(map[string]interface{}{"name": tag}))
	return err
}

// Untag removes tag. Removing an absent tag is a no-op.
func (t *Tags) Untag(ctx context.Context, tag string) error {
	rows, err := t.rows(ctx, tag)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := t.conn.Delete(ctx, t.layout, t.layout.NewRecord(row)); err != nil {
			return err
		}
	}
	return nil
}
