package connection_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/relorm/connection"
	"github.com/satishbabariya/relorm/connection/connectiontest"
)

type migration struct {
	id        string
	up, down  int
	failUp    error
	statement string
}

func (m *migration) Identifier() string { return m.id }

func (m *migration) Up(ctx context.Context, c *connection.Connection) error {
	if m.failUp != nil {
		return m.failUp
	}
	m.up++
	if m.statement != "" {
		_, err := c.Write(ctx, m.statement)
		return err
	}
	return nil
}

func (m *migration) Down(context.Context, *connection.Connection) error {
	m.down++
	return nil
}

func tagged() (*connection.Connection, *connectiontest.Driver) {
	d := connectiontest.New()
	d.EmulateTags()
	return connection.New(d, nil), d
}

func TestTags(t *testing.T) {
	conn, d := tagged()
	ctx := context.Background()
	tags := conn.Tags()

	require.NoError(t, tags.Tag(ctx, "a"))
	require.NoError(t, tags.Tag(ctx, "b"))
	require.NoError(t, tags.Tag(ctx, "a"))

	list, err := tags.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, list)

	require.NoError(t, tags.Untag(ctx, "a"))
	require.NoError(t, tags.Untag(ctx, "missing"))

	ok, err := tags.Contains(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	creates := 0
	for _, w := range d.Writes() {
		if len(w) > 12 && w[:12] == "CREATE TABLE" {
			creates++
		}
	}
	assert.Equal(t, 1, creates)
}

func TestApplyIsIdempotent(t *testing.T) {
	conn, _ := tagged()
	ctx := context.Background()
	m := &migration{id: "2024_01_create_users"}

	require.NoError(t, conn.Apply(ctx, m))
	require.NoError(t, conn.Apply(ctx, m))
	assert.Equal(t, 1, m.up)

	ok, err := conn.Contains(ctx, m)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := conn.Tags().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"migration:2024_01_create_users"}, list)
}

func TestRollbackRemovesExactlyItsTag(t *testing.T) {
	conn, _ := tagged()
	ctx := context.Background()
	first := &migration{id: "one"}
	second := &migration{id: "two"}

	require.NoError(t, conn.Apply(ctx, first))
	require.NoError(t, conn.Apply(ctx, second))
	require.NoError(t, conn.Rollback(ctx, first))
	require.NoError(t, conn.Rollback(ctx, first))
	assert.Equal(t, 1, first.down)

	list, err := conn.Tags().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"migration:two"}, list)
}

func TestRollbackOfUnappliedMigrationIsNoop(t *testing.T) {
	conn, _ := tagged()
	m := &migration{id: "never"}
	require.NoError(t, conn.Rollback(context.Background(), m))
	assert.Zero(t, m.down)
}

func TestFailedUpLeavesNoTag(t *testing.T) {
	conn, _ := tagged()
	ctx := context.Background()
	boom := errors.New("boom")
	m := &migration{id: "bad", failUp: boom}

	err := conn.Apply(ctx, m)
	assert.ErrorIs(t, err, boom)

	ok, err := conn.Contains(ctx, m)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry(t *testing.T) {
	r := connection.NewRegistry()
	_, err := r.Default()
	assert.ErrorIs(t, err, connection.ErrNoConnection)

	d1, d2 := connectiontest.New(), connectiontest.New()
	r.Put("main", connection.New(d1, nil))
	r.Put("replica", connection.New(d2, nil))

	def, err := r.Default()
	require.NoError(t, err)
	assert.Same(t, d1, def.Driver())

	require.NoError(t, r.SetDefault("replica"))
	def, err = r.Default()
	require.NoError(t, err)
	assert.Same(t, d2, def.Driver())
	assert.ErrorIs(t, r.SetDefault("nope"), connection.ErrNoConnection)
	assert.Equal(t, []string{"main", "replica"}, r.Names())

	require.NoError(t, r.Close())
	assert.True(t, d1.Closed())
	assert.True(t, d2.Closed())
	assert.Empty(t, r.Names())
}
