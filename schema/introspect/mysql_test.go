package introspect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/relorm/connection"
	"github.com/satishbabariya/relorm/connection/connectiontest"
	"github.com/satishbabariya/relorm/schema"
)

type row = map[string]interface{}

func usersDriver() *connectiontest.Driver {
	d := connectiontest.New()
	d.Reply("information_schema.tables", row{"name": "users"})
	d.Reply("information_schema.columns",
		row{"name": "_id", "type": "int(10) unsigned", "nullable": "NO", "dflt": nil, "extra": "auto_increment"},
		row{"name": "email", "type": "varchar(120)", "nullable": "NO", "dflt": nil, "extra": ""},
		row{"name": "group_id", "type": "int unsigned", "nullable": "YES", "dflt": nil, "extra": ""},
		row{"name": "role", "type": "enum('Admin','member')", "nullable": "NO", "dflt": "member", "extra": ""},
		row{"name": "payload", "type": "json", "nullable": "YES", "dflt": nil, "extra": ""},
	)
	d.Reply("information_schema.statistics",
		row{"name": "PRIMARY", "columns": "_id", "non_unique": "0"},
		row{"name": "email_unique", "columns": "email", "non_unique": "0"},
		row{"name": "fk_users_group", "columns": "group_id", "non_unique": "1"},
	)
	d.Reply("information_schema.key_column_usage",
		row{"name": "fk_users_group", "columns": "group_id", "ref_table": "groups", "ref_columns": "_id",
			"on_update": "RESTRICT", "on_delete": "SET NULL"},
	)
	return d
}

func TestLoadSchema(t *testing.T) {
	d := usersDriver()
	s, err := NewMySQL(nil).LoadSchema(context.Background(), d)
	require.NoError(t, err)

	l, ok := s.Layout("users")
	require.True(t, ok)
	assert.Equal(t, []string{"_id", "email", "group_id", "role", "payload"}, l.FieldNames())

	id := l.Field("_id")
	assert.True(t, id.AutoIncrement)
	assert.Equal(t, schema.Integer(true), id.Type)
	assert.Equal(t, schema.String(120), l.Field("email").Type)
	assert.True(t, l.Field("group_id").Nullable)
	assert.Equal(t, schema.Enum("Admin", "member"), l.Field("role").Type)
	assert.Equal(t, "member", l.Field("role").Default)
	assert.Equal(t, schema.Text(), l.Field("payload").Type)

	assert.Equal(t, "_id", l.PrimaryKey().Name)
	idx := l.Indexes()
	require.Len(t, idx, 3)
	assert.Equal(t, schema.UniqueIndex, idx[1].Kind)
	assert.Equal(t, schema.ForeignIndex, idx[2].Kind)
	assert.Equal(t, &schema.Reference{Table: "groups", Field: "_id", OnDelete: "SET NULL"}, idx[2].References)

	for _, sql := range d.Reads() {
		assert.NotContains(t, sql, "?")
	}
}

func TestLoadSchemaAsConnectionLoader(t *testing.T) {
	conn := connection.New(usersDriver(), nil, connection.WithSchemaLoader(NewMySQL(nil)))
	l, err := conn.Layout(context.Background(), "users")
	require.NoError(t, err)
	assert.Equal(t, "users", l.Name())
}

func TestLoadSchemaPropagatesErrors(t *testing.T) {
	d := usersDriver()
	boom := errors.New("boom")
	d.Fail("information_schema.columns", boom)

	_, err := NewMySQL(nil).LoadSchema(context.Background(), d)
	assert.ErrorIs(t, err, boom)
}

func TestParseColumnType(t *testing.T) {
	cases := map[string]schema.Type{
		"tinyint(1)":          schema.Bool(),
		"tinyint(4)":          schema.Integer(false),
		"int":                 schema.Integer(false),
		"INT(11) UNSIGNED":    schema.Integer(true),
		"bigint(20) unsigned": schema.BigInteger(true),
		"char(2)":             schema.String(2),
		"longtext":            schema.Text(),
		"decimal(10,2)":       schema.Float(),
		"timestamp":           schema.DateTime(),
		"enum('a','it''s')":   schema.Enum("a", "it's"),
	}
	for in, want := range cases {
		got, err := ParseColumnType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"blob", "varchar(x)", "enum('a"} {
		_, err := ParseColumnType(bad)
		assert.Error(t, err, bad)
	}
}

func TestExpressionDefaults(t *testing.T) {
	d := connectiontest.New()
	d.Reply("information_schema.columns",
		row{"name": "_id", "type": "int unsigned", "nullable": "NO", "dflt": nil, "extra": "auto_increment"},
		row{"name": "created_at", "type": "datetime", "nullable": "NO", "dflt": "CURRENT_TIMESTAMP", "extra": "DEFAULT_GENERATED"},
		row{"name": "updated_at", "type": "timestamp", "nullable": "NO", "dflt": "current_timestamp()", "extra": "on update current_timestamp()"},
		row{"name": "uuid", "type": "varchar(36)", "nullable": "NO", "dflt": "(uuid())", "extra": "DEFAULT_GENERATED"},
		row{"name": "state", "type": "varchar(10)", "nullable": "NO", "dflt": "CURRENT", "extra": ""},
	)

	l, err := NewMySQL(nil).Layout(context.Background(), d, "events")
	require.NoError(t, err)

	assert.Equal(t, schema.Expr("CURRENT_TIMESTAMP"), l.Field("created_at").Default)
	assert.Equal(t, schema.Expr("current_timestamp()"), l.Field("updated_at").Default)
	assert.Equal(t, schema.Expr("(uuid())"), l.Field("uuid").Default)
	assert.Equal(t, "CURRENT", l.Field("state").Default)

	defaults := l.Defaults()
	assert.Nil(t, defaults["created_at"])
	assert.Nil(t, defaults["updated_at"])
	assert.Equal(t, "CURRENT", defaults["state"])
}
