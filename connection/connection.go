// Package connection binds a schema, a grammar and a driver, and executes
// compiled statements.
package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cast"

	"github.com/satishbabariya/relorm/internal/debug"
	"github.com/satishbabariya/relorm/query/ast"
	"github.com/satishbabariya/relorm/query/sqlgen"
	"github.com/satishbabariya/relorm/record"
	"github.com/satishbabariya/relorm/schema"
)

// SchemaLoader produces the schema of a connection on first use.
type SchemaLoader interface {
	LoadSchema(ctx context.Context, d Driver) (*schema.Schema, error)
}

// SchemaLoaderFunc adapts a function to SchemaLoader.
type SchemaLoaderFunc func(ctx context.Context, d Driver) (*schema.Schema, error)

// LoadSchema implements SchemaLoader.
func (f SchemaLoaderFunc) LoadSchema(ctx context.Context, d Driver) (*schema.Schema, error) {
	return f(ctx, d)
}

// Connection executes IR and records against one database.
type Connection struct {
	driver  Driver
	grammar sqlgen.Grammar
	events  *Events
	stats   *Stats
	tags    *Tags

	schemaMu sync.Mutex
	schema   *schema.Schema
	loader   SchemaLoader
}

// Option configures a Connection.
type Option func(*Connection)

// WithSchema sets a fixed schema.
func WithSchema(s *schema.Schema) Option {
	return func(c *Connection) { c.schema = s }
}

// WithSchemaLoader defers schema loading to l, called once on first use.
func WithSchemaLoader(l SchemaLoader) Option {
	return func(c *Connection) { c.loader = l }
}

// WithStats records statement statistics into s.
func WithStats(s *Stats) Option {
	return func(c *Connection) { c.stats = s }
}

// WithEvents shares a listener set between connections.
func WithEvents(e *Events) Option {
	return func(c *Connection) { c.events = e }
}

// New creates a connection. A nil grammar selects MySQL with its default
// quoter.
func New(d Driver, g sqlgen.Grammar, opts ...Option) *Connection {
	if g == nil {
		g = sqlgen.NewMySQL(nil)
	}
	c := &Connection{
		driver:  d,
		grammar: g,
		events:  NewEvents(),
		stats:   NewStats(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.tags = newTags(c)
	return c
}

// Driver returns the underlying driver.
func (c *Connection) Driver() Driver { return c.driver }

// Grammar returns the statement compiler.
func (c *Connection) Grammar() sqlgen.Grammar { return c.grammar }

// Events returns the before-write listener set.
func (c *Connection) Events() *Events { return c.events }

// Stats returns the statement statistics.
func (c *Connection) Stats() *Stats { return c.stats }

// Tags returns the tag store.
func (c *Connection) Tags() *Tags { return c.tags }

// On registers a before-write listener for layout.
func (c *Connection) On(layout string, kind EventKind, fn Listener) {
	c.events.On(layout, kind, fn)
}

// Schema returns the connection's schema, loading it on first use. A failed
// load is retried on the next call.
func (c *Connection) Schema(ctx context.Context) (*schema.Schema, error) {
	c.schemaMu.Lock()
	defer c.schemaMu.Unlock()

	if c.schema != nil {
		return c.schema, nil
	}
	if c.loader == nil {
		c.schema = schema.New()
		return c.schema, nil
	}
	s, err := c.loader.LoadSchema(ctx, c.driver)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	c.schema = s
	return s, nil
}

func (c *Connection) loaded() *schema.Schema {
	c.schemaMu.Lock()
	defer c.schemaMu.Unlock()
	return c.schema
}

// ErrUnknownLayout is returned by Layout for tables the schema lacks.
var ErrUnknownLayout = errors.New("unknown layout")

// Layout returns the named layout from the schema.
func (c *Connection) Layout(ctx context.Context, name string) (*schema.Layout, error) {
	s, err := c.Schema(ctx)
	if err != nil {
		return nil, err
	}
	l, ok := s.Layout(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLayout, name)
	}
	return l, nil
}

// Read runs raw SQL that returns rows.
func (c *Connection) Read(ctx context.Context, sql string) (ResultSet, error) {
	start := time.Now()
	rs, err := c.driver.Read(ctx, sql)
	elapsed := time.Since(start)

	debug.Statement("read", sql, elapsed, err)
	c.stats.record(statRead, elapsed, err)
	return rs, err
}

// Write runs raw SQL that modifies data or schema.
func (c *Connection) Write(ctx context.Context, sql string) (int64, error) {
	start := time.Now()
	n, err := c.driver.Write(ctx, sql)
	elapsed := time.Since(start)

	debug.Statement("write", sql, elapsed, err)
	c.stats.record(statWrite, elapsed, err)
	return n, err
}

// Query compiles and runs q.
func (c *Connection) Query(ctx context.Context, q *ast.Query) (ResultSet, error) {
	sql, err := c.grammar.Query(q)
	if err != nil {
		return nil, err
	}
	return c.Read(ctx, sql)
}

// Insert writes every field of r as a new row. After the write the driver's
// last insert id is stored into the layout's auto-increment field and the
// record is committed. A cancelled insert reports success without writing.
func (c *Connection) Insert(ctx context.Context, l *schema.Layout, r *record.Record) (bool, error) {
	if cancelled, err := c.before(ctx, BeforeInsert, l, r); cancelled || err != nil {
		return err == nil, err
	}

	sql, err := c.grammar.InsertRecord(l, r)
	if err != nil {
		return false, err
	}
	if _, err := c.Write(ctx, sql); err != nil {
		return false, err
	}

	if f := l.AutoIncrement(); f != nil {
		if id, ok := c.driver.LastInsertID(); ok {
			r.Set(f.Name, insertID(f, id))
		}
	}
	r.Commit()
	return true, nil
}

// insertID converts a driver id to the Go type rows of an integer field carry.
func insertID(f *schema.Field, id string) interface{} {
	if !f.Type.IsInteger() {
		return id
	}
	n, err := cast.ToInt64E(id)
	if err != nil {
		return id
	}
	return n
}

// Update writes the changed fields of r, locating the row by the primary
// key's original value, then commits. A clean record writes nothing.
func (c *Connection) Update(ctx context.Context, l *schema.Layout, r *record.Record) (bool, error) {
	if !r.IsDirty() {
		return true, nil
	}
	if cancelled, err := c.before(ctx, BeforeUpdate, l, r); cancelled || err != nil {
		return err == nil, err
	}

	sql, err := c.grammar.UpdateRecord(l, r)
	if err != nil {
		return false, err
	}
	if _, err := c.Write(ctx, sql); err != nil {
		return false, err
	}
	r.Commit()
	return true, nil
}

// Delete removes the row of r, located by the primary key's original value.
func (c *Connection) Delete(ctx context.Context, l *schema.Layout, r *record.Record) (bool, error) {
	if cancelled, err := c.before(ctx, BeforeDelete, l, r); cancelled || err != nil {
		return err == nil, err
	}

	sql, err := c.grammar.DeleteRecord(l, r)
	if err != nil {
		return false, err
	}
	if _, err := c.Write(ctx, sql); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Connection) before(ctx context.Context, kind EventKind, l *schema.Layout, r *record.Record) (bool, error) {
	ev := &WriteEvent{Kind: kind, Layout: l, Record: r, Connection: c}
	if c.events.Dispatch(ctx, ev) == Continue {
		return false, nil
	}
	c.stats.record(statCancelled, 0, nil)
	debug.Debug("write cancelled", "kind", string(kind), "table", l.Name(), "error", ev.Err)
	return true, ev.Err
}

// HasTable reports whether the named table exists.
func (c *Connection) HasTable(ctx context.Context, name string) (bool, error) {
	rs, err := c.Read(ctx, c.grammar.HasTable(name))
	if err != nil {
		return false, err
	}
	defer rs.Close()

	found := rs.Next()
	if err := rs.Err(); err != nil {
		return false, err
	}
	return found, nil
}

// CreateTable creates the table of l and adds l to a loaded schema.
func (c *Connection) CreateTable(ctx context.Context, l *schema.Layout) error {
	sql, err := c.grammar.CreateTable(l)
	if err != nil {
		return err
	}
	if _, err := c.Write(ctx, sql); err != nil {
		return err
	}
	if s := c.loaded(); s != nil {
		s.Put(l)
	}
	return nil
}

// AlterTable applies a to the table of l.
func (c *Connection) AlterTable(ctx context.Context, l *schema.Layout, a *sqlgen.Alteration) error {
	sql, err := c.grammar.AlterTable(l, a)
	if err != nil {
		return err
	}
	_, err = c.Write(ctx, sql)
	return err
}

// DropTable drops the named table and removes it from a loaded schema.
func (c *Connection) DropTable(ctx context.Context, name string) error {
	if _, err := c.Write(ctx, c.grammar.DropTable(name)); err != nil {
		return err
	}
	if s := c.loaded(); s != nil {
		s.Remove(name)
	}
	return nil
}

// Close closes the driver.
func (c *Connection) Close() error {
	return c.driver.Close()
}
