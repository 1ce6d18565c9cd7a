package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/relorm/query/ast"
	"github.com/satishbabariya/relorm/query/sqlgen"
)

func where(t *testing.T, expr string) string {
	t.Helper()
	users := ast.NewTable("users")
	e, err := Parse(expr)
	require.NoError(t, err)

	q := ast.NewQuery(users)
	require.NoError(t, e.Apply(q.Restrictions, TableResolver(users)))

	sql, err := sqlgen.NewMySQL(nil).Query(q)
	require.NoError(t, err)
	return sql[len("SELECT `t0`.* FROM `users` AS `t0` WHERE "):]
}

func TestParseComparisons(t *testing.T) {
	cases := map[string]string{
		"age > 5":                 "`t0`.`age` > '5'",
		"age >= 1.5":              "`t0`.`age` >= '1.5'",
		"name = 'o''brien'":       "`t0`.`name` = 'o\\'brien'",
		"name != 'x'":             "`t0`.`name` <> 'x'",
		"active = true":           "`t0`.`active` = 1",
		"name like 'a%'":          "`t0`.`name` LIKE 'a%'",
		"name NOT LIKE 'a%'":      "`t0`.`name` NOT LIKE 'a%'",
		"deleted_at IS NULL":      "`t0`.`deleted_at` IS NULL",
		"deleted_at is not null":  "`t0`.`deleted_at` IS NOT NULL",
		"_id IN (1, 2, 3)":        "`t0`.`_id` IN ('1', '2', '3')",
		"_id NOT IN ('a')":        "`t0`.`_id` NOT IN ('a')",
		"updated_at > created_at": "`t0`.`updated_at` > `t0`.`created_at`",
		"in_stock = 1":            "`t0`.`in_stock` = '1'",
	}
	for expr, want := range cases {
		assert.Equal(t, want, where(t, expr), expr)
	}
}

func TestParsePrecedence(t *testing.T) {
	assert.Equal(t,
		"`t0`.`age` > '5' AND (`t0`.`name` LIKE 'a%' OR `t0`.`name` IS NULL)",
		where(t, "age > 5 AND (name LIKE 'a%' OR name IS NULL)"))

	assert.Equal(t,
		"(`t0`.`a` = '1' OR (`t0`.`b` = '2' AND `t0`.`c` = '3'))",
		where(t, "a = 1 OR b = 2 AND c = 3"))
}

func TestParseNot(t *testing.T) {
	assert.Equal(t, "`t0`.`age` <= '5'", where(t, "NOT age > 5"))
	assert.Equal(t,
		"`t0`.`a` <> '1' AND `t0`.`b` IS NOT NULL",
		where(t, "NOT (a = 1 OR b IS NULL)"))
}

func TestParseErrors(t *testing.T) {
	for _, expr := range []string{"", "age >", "age = NULL", "(a = 1", "a ~ 2", "AND a = 1"} {
		_, err := Parse(expr)
		assert.Error(t, err, expr)
	}
}

func TestResolverRejectsUnknownField(t *testing.T) {
	users := ast.NewTable("users")
	e, err := Parse("password = 'x'")
	require.NoError(t, err)

	_, err = e.Condition(TableResolver(users, "_id", "name"))
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestExpressionString(t *testing.T) {
	e, err := Parse("a = 1")
	require.NoError(t, err)
	assert.Equal(t, "a = 1", e.String())
}
