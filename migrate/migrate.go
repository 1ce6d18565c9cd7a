// Package migrate registers migrations and applies or rolls them back in
// order on a connection.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/satishbabariya/relorm/connection"
	"github.com/satishbabariya/relorm/internal/assert"
	"github.com/satishbabariya/relorm/internal/debug"
	"github.com/satishbabariya/relorm/schema"
)

// ErrUnknownMigration is returned for identifiers no registered migration has
var ErrUnknownMigration = errors.New("unknown migration")

// Func is a migration built from two functions
type Func struct {
	ID       string
	UpFunc   func(ctx context.Context, c *connection.Connection) error
	DownFunc func(ctx context.Context, c *connection.Connection) error
}

// New creates a migration from up and down functions. A nil down is a no-op.
func New(id string, up, down func(ctx context.Context, c *connection.Connection) error) *Func {
	assert.That(id != "", "migration without identifier")
	assert.That(up != nil, "migration %s without up", id)
	return &Func{ID: id, UpFunc: up, DownFunc: down}
}

// Identifier implements connection.Migration
func (f *Func) Identifier() string { return f.ID }

// Up implements connection.Migration
func (f *Func) Up(ctx context.Context, c *connection.Connection) error {
	return f.UpFunc(ctx, c)
}

// Down implements connection.Migration
func (f *Func) Down(ctx context.Context, c *connection.Connection) error {
	if f.DownFunc == nil {
		return nil
	}
	return f.DownFunc(ctx, c)
}

// CreateTable creates a table on up and drops it on down
func CreateTable(id string, l *schema.Layout) *Func {
	return New(id,
		func(ctx context.Context, c *connection.Connection) error { return c.CreateTable(ctx, l) },
		func(ctx context.Context, c *connection.Connection) error { return c.DropTable(ctx, l.Name()) },
	)
}

// Statements runs raw SQL statements in order on up and on down
func Statements(id string, up, down []string) *Func {
	run := func(stmts []string) func(ctx context.Context, c *connection.Connection) error {
		return func(ctx context.Context, c *connection.Connection) error {
			for _, s := range stmts {
				if _, err := c.Write(ctx, s); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return New(id, run(up), run(down))
}

// Status is the state of one registered migration
type Status struct {
	Identifier string
	Applied    bool
}

// Runner applies registered migrations in registration order
type Runner struct {
	conn       *connection.Connection
	migrations []connection.Migration
	index      map[string]int
}

// NewRunner creates a runner over conn
func NewRunner(conn *connection.Connection, migrations ...connection.Migration) *Runner {
	r := &Runner{conn: conn, index: make(map[string]int)}
	for _, m := range migrations {
		r.Register(m)
	}
	return r
}

// Register appends a migration. Identifiers must be unique.
func (r *Runner) Register(m connection.Migration) *Runner {
	_, dup := r.index[m.Identifier()]
	assert.That(!dup, "migration %s registered twice", m.Identifier())
	r.index[m.Identifier()] = len(r.migrations)
	r.migrations = append(r.migrations, m)
	return r
}

// Migrations returns the registered migrations in order
func (r *Runner) Migrations() []connection.Migration {
	return append([]connection.Migration(nil), r.migrations...)
}

// Status reports which registered migrations are applied
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	applied, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Status, len(r.migrations))
	for i, m := range r.migrations {
		out[i] = Status{Identifier: m.Identifier(), Applied: applied[m.Identifier()]}
	}
	return out, nil
}

// Applied returns the identifiers tagged as applied, including ones no
// registered migration has, in tag order.
func (r *Runner) Applied(ctx context.Context) ([]string, error) {
	tags, err := r.conn.Tags().List(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, t := range tags {
		if id, ok := strings.CutPrefix(t, connection.MigrationTagPrefix); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Pending returns the registered migrations not yet applied
func (r *Runner) Pending(ctx context.Context) ([]connection.Migration, error) {
	applied, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	var pending []connection.Migration
	for _, m := range r.migrations {
		if !applied[m.Identifier()] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// Up applies every pending migration and returns the applied identifiers.
// It stops at the first failure.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	pending, err := r.Pending(ctx)
	if err != nil {
		return nil, err
	}
	var done []string
	for _, m := range pending {
		debug.Info("applying migration", "migration", m.Identifier())
		if err := r.conn.Apply(ctx, m); err != nil {
			return done, err
		}
		done = append(done, m.Identifier())
	}
	return done, nil
}

// Down rolls back the last applied registered migration and returns its
// identifier, or "" when none is applied.
func (r *Runner) Down(ctx context.Context) (string, error) {
	applied, err := r.applied(ctx)
	if err != nil {
		return "", err
	}
	for i := len(r.migrations) - 1; i >= 0; i-- {
		m := r.migrations[i]
		if !applied[m.Identifier()] {
			continue
		}
		debug.Info("rolling back migration", "migration", m.Identifier())
		if err := r.conn.Rollback(ctx, m); err != nil {
			return "", err
		}
		return m.Identifier(), nil
	}
	return "", nil
}

// Forget removes the applied mark of id without running its down step
func (r *Runner) Forget(ctx context.Context, id string) error {
	tag := connection.MigrationTagPrefix + id
	ok, err := r.conn.Tags().Contains(ctx, tag)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s is not applied", ErrUnknownMigration, id)
	}
	return r.conn.Tags().Untag(ctx, tag)
}

func (r *Runner) applied(ctx context.Context) (map[string]bool, error) {
	ids, err := r.Applied(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
