package relation_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/relorm/connection"
	"github.com/satishbabariya/relorm/connection/connectiontest"
	"github.com/satishbabariya/relorm/model"
	"github.com/satishbabariya/relorm/query/ast"
	"github.com/satishbabariya/relorm/query/builder"
	"github.com/satishbabariya/relorm/relation"
	"github.com/satishbabariya/relorm/schema"
)

type fixture struct {
	driver *connectiontest.Driver
	users  *model.Reflection
	posts  *model.Reflection
	roles  *model.Reflection
}

func setup() *fixture {
	d := connectiontest.New()
	conn := connection.New(d, nil)

	users := model.NewReflection(conn, "User", schema.NewLayout("users").
		AddField("_id", schema.Integer(true), schema.AutoIncrement()).
		AddField("name", schema.String(0)).
		Primary("_id"))
	posts := model.NewReflection(conn, "Post", schema.NewLayout("posts").
		AddField("_id", schema.Integer(true), schema.AutoIncrement()).
		AddField("user_id", schema.Integer(true), schema.Nullable()).
		AddField("title", schema.String(0)).
		Primary("_id"))
	roles := model.NewReflection(conn, "Role", schema.NewLayout("roles").
		AddField("_id", schema.Integer(true), schema.AutoIncrement()).
		AddField("name", schema.String(0)).
		Primary("_id"))

	users.Relate("posts", relation.HasMany(users.Field("_id"), posts.Field("user_id")))
	users.Relate("profile", relation.HasOne(users.Field("_id"), posts.Field("user_id")))
	users.Relate("roles", relation.BelongsToMany(users.Field("_id"), roles.Field("_id")))
	posts.Relate("author", relation.BelongsToOne(posts.Field("user_id"), users.Field("_id")))

	return &fixture{driver: d, users: users, posts: posts, roles: roles}
}

func (f *fixture) user(id int) *model.Instance {
	return f.users.Load(map[string]interface{}{"_id": id, "name": "u"})
}

func rel(r *model.Reflection, name string) model.Relationship {
	out, ok := r.Relationship(name)
	if !ok {
		panic("missing relationship " + name)
	}
	return out
}

func TestHasManyResolveAllIssuesOneQuery(t *testing.T) {
	f := setup()
	f.driver.Reply("FROM `posts`",
		map[string]interface{}{"_id": "10", "user_id": "1", "title": "a"},
		map[string]interface{}{"_id": "11", "user_id": "2", "title": "b"},
		map[string]interface{}{"_id": "12", "user_id": "1", "title": "c"},
	)

	parents := []*model.Instance{f.user(1), f.user(2), f.user(3), f.user(1)}
	contents, err := rel(f.users, "posts").ResolveAll(context.Background(), parents)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"SELECT `t0`.* FROM `posts` AS `t0` WHERE (`t0`.`user_id` = '1' OR `t0`.`user_id` = '2' OR `t0`.`user_id` = '3')",
	}, f.driver.Reads())

	require.Len(t, contents, 3)
	seen := map[string]string{}
	for key, c := range contents {
		assert.False(t, c.Single)
		for _, p := range c.Payload {
			assert.Equal(t, key, model.Key(p.Get("user_id")))
			_, dup := seen[p.Key()]
			assert.False(t, dup, "post %s assigned twice", p.Key())
			seen[p.Key()] = key
		}
	}
	assert.Len(t, contents["1"].Payload, 2)
	assert.Len(t, contents["2"].Payload, 1)
	assert.Empty(t, contents["3"].Payload)
	assert.Len(t, seen, 3)
}

func TestResolveAllWithoutKeysSkipsQuery(t *testing.T) {
	f := setup()
	post := f.posts.Load(map[string]interface{}{"_id": 1, "user_id": nil})

	contents, err := rel(f.posts, "author").ResolveAll(context.Background(), []*model.Instance{post})
	require.NoError(t, err)
	assert.Empty(t, contents)

	c, err := rel(f.posts, "author").Resolve(context.Background(), post)
	require.NoError(t, err)
	assert.True(t, c.Single)
	assert.Nil(t, c.First())
	assert.Empty(t, f.driver.Reads())
}

func TestBelongsToOneResolve(t *testing.T) {
	f := setup()
	f.driver.Reply("FROM `users`", map[string]interface{}{"_id": "7", "name": "ada"})
	post := f.posts.Load(map[string]interface{}{"_id": 1, "user_id": 7})

	c, err := rel(f.posts, "author").Resolve(context.Background(), post)
	require.NoError(t, err)
	assert.True(t, c.Single)
	require.NotNil(t, c.First())
	assert.Same(t, f.users, c.First().Reflection())
	assert.Equal(t, "ada", c.First().Get("name"))
	assert.Equal(t, []string{"SELECT `t0`.* FROM `users` AS `t0` WHERE `t0`.`_id` = '7' LIMIT 0, 1"}, f.driver.Reads())
}

func TestHasOneKeepsFirstPerParent(t *testing.T) {
	f := setup()
	f.driver.Reply("FROM `posts`",
		map[string]interface{}{"_id": "10", "user_id": "1"},
		map[string]interface{}{"_id": "11", "user_id": "1"},
	)

	contents, err := rel(f.users, "profile").ResolveAll(context.Background(), []*model.Instance{f.user(1)})
	require.NoError(t, err)
	require.Len(t, contents["1"].Payload, 1)
	assert.Equal(t, "10", contents["1"].First().Key())
}

func TestResolveRejectsForeignParent(t *testing.T) {
	f := setup()
	post := f.posts.Load(map[string]interface{}{"_id": 1})
	assert.Panics(t, func() {
		rel(f.users, "posts").Resolve(context.Background(), post)
	})
}

func TestBelongsToManyDefaults(t *testing.T) {
	f := setup()
	m := relation.BelongsToMany(f.users.Field("_id"), f.roles.Field("_id"))

	table, local, remote := m.Pivot()
	assert.Equal(t, "roles_users", table)
	assert.Equal(t, "users_id", local)
	assert.Equal(t, "roles_id", remote)
	assert.False(t, m.Single())

	m = relation.BelongsToMany(f.users.Field("_id"), f.roles.Field("_id"),
		relation.WithPivot("memberships"), relation.WithPivotColumns("member", "role"))
	table, local, remote = m.Pivot()
	assert.Equal(t, []string{"memberships", "member", "role"}, []string{table, local, remote})
}

func TestBelongsToManyIdenticalPivotColumnsPanics(t *testing.T) {
	f := setup()
	assert.Panics(t, func() {
		relation.BelongsToMany(f.users.Field("_id"), f.users.Field("_id"))
	})
	assert.Panics(t, func() {
		relation.BelongsToMany(f.users.Field("_id"), f.roles.Field("_id"), relation.WithPivotColumns("x", "x"))
	})
	assert.NotPanics(t, func() {
		relation.BelongsToMany(f.users.Field("_id"), f.users.Field("_id"), relation.WithPivotColumns("follower", "followee"))
	})
}

func TestBelongsToManyResolveAll(t *testing.T) {
	f := setup()
	f.driver.Reply("FROM `roles`",
		map[string]interface{}{"_id": "1", "name": "admin", "__pivot_local": "1"},
		map[string]interface{}{"_id": "2", "name": "editor", "__pivot_local": "1"},
		map[string]interface{}{"_id": "2", "name": "editor", "__pivot_local": "2"},
	)

	contents, err := rel(f.users, "roles").ResolveAll(context.Background(), []*model.Instance{f.user(1), f.user(2)})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"SELECT `t0`.*, `t1`.`users_id` AS `__pivot_local` FROM `roles` AS `t0` " +
			"INNER JOIN `roles_users` AS `t1` ON `t1`.`roles_id` = `t0`.`_id` " +
			"WHERE (`t1`.`users_id` = '1' OR `t1`.`users_id` = '2')",
	}, f.driver.Reads())

	require.Len(t, contents["1"].Payload, 2)
	require.Len(t, contents["2"].Payload, 1)
	assert.Equal(t, "editor", contents["2"].First().Get("name"))
	assert.Same(t, f.roles, contents["2"].First().Reflection())
}

func TestBelongsToManyResolve(t *testing.T) {
	f := setup()
	f.driver.Reply("FROM `roles`", map[string]interface{}{"_id": "1", "name": "admin", "__pivot_local": "5"})

	c, err := rel(f.users, "roles").Resolve(context.Background(), f.user(5))
	require.NoError(t, err)
	require.Len(t, c.Payload, 1)
	assert.Len(t, f.driver.Reads(), 1)
}

func TestExistenceAbsenceSymmetry(t *testing.T) {
	f := setup()
	titled := func(s *builder.Scope) { s.Where("title", "x") }

	has, err := builder.New(f.users).Has("posts", titled).SQL()
	require.NoError(t, err)
	hasNot, err := builder.New(f.users).HasNot("posts", titled).SQL()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT `t0`.* FROM `users` AS `t0` WHERE EXISTS (SELECT `t1`.`user_id` FROM `posts` AS `t1` WHERE `t1`.`user_id` = `t0`.`_id` AND `t1`.`title` = 'x')",
		has)
	assert.Equal(t, strings.Replace(has, "WHERE EXISTS", "WHERE NOT EXISTS", 1), hasNot)

	outer := ast.NewTable("users")
	inj := rel(f.users, "posts").Injector()
	exists := inj.Existence(outer, nil)
	absent := inj.Absence(outer, nil)
	assert.Equal(t, ast.And, exists.Type)
	assert.Equal(t, ast.Or, absent.Type)
	require.Len(t, exists.Children, 1)
	require.Len(t, absent.Children, 1)
	assert.Equal(t, ast.Is, exists.Children[0].(*ast.Restriction).Op)
	assert.Equal(t, ast.IsNot, absent.Children[0].(*ast.Restriction).Op)
}

func TestPivotExistence(t *testing.T) {
	f := setup()
	sql, err := builder.New(f.users).Has("roles", func(s *builder.Scope) {
		s.Where("name", "admin")
	}).SQL()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT `t0`.* FROM `users` AS `t0` WHERE EXISTS (SELECT `t1`.`users_id` FROM `roles_users` AS `t1` "+
			"INNER JOIN `roles` AS `t2` ON `t2`.`_id` = `t1`.`roles_id` "+
			"WHERE `t1`.`users_id` = `t0`.`_id` AND `t2`.`name` = 'admin')",
		sql)
}

func TestHasWithoutConstraint(t *testing.T) {
	f := setup()
	sql, err := builder.New(f.posts).HasNot("author", nil).Where("title", "x").SQL()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT `t0`.* FROM `posts` AS `t0` WHERE NOT EXISTS (SELECT `t1`.`_id` FROM `users` AS `t1` WHERE `t1`.`_id` = `t0`.`user_id`) AND `t0`.`title` = 'x'",
		sql)
}

func TestBuilderWithEagerLoads(t *testing.T) {
	f := setup()
	f.driver.Reply("FROM `users`",
		map[string]interface{}{"_id": "1", "name": "a"},
		map[string]interface{}{"_id": "2", "name": "b"},
	)
	f.driver.Reply("FROM `posts`", map[string]interface{}{"_id": "10", "user_id": "2", "title": "t"})

	users, err := builder.New(f.users).With("posts").All(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Len(t, f.driver.Reads(), 2)

	c, ok := users[0].Related("posts")
	require.True(t, ok)
	assert.Empty(t, c.Payload)
	c, ok = users[1].Related("posts")
	require.True(t, ok)
	assert.Equal(t, "t", c.First().Get("title"))
}

func TestEager(t *testing.T) {
	f := setup()
	f.driver.Reply("FROM `users`", map[string]interface{}{"_id": "1", "name": "a"})
	posts := []*model.Instance{
		f.posts.Load(map[string]interface{}{"_id": 10, "user_id": 1}),
		f.posts.Load(map[string]interface{}{"_id": 11, "user_id": 1}),
	}

	require.NoError(t, relation.Eager(context.Background(), posts, "author"))
	assert.Len(t, f.driver.Reads(), 1)
	for _, p := range posts {
		c, ok := p.Related("author")
		require.True(t, ok)
		assert.Equal(t, "a", c.First().Get("name"))
	}
	assert.NoError(t, relation.Eager(context.Background(), nil, "author"))
}
