package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invariant "github.com/satishbabariya/relorm/internal/assert"
	"github.com/satishbabariya/relorm/query/ast"
	"github.com/satishbabariya/relorm/schema"
)

func usersLayout() *schema.Layout {
	return schema.NewLayout("users").
		AddField("_id", schema.Integer(true), schema.AutoIncrement()).
		AddField("name", schema.String(0)).
		AddField("active", schema.Bool(), schema.Default(true)).
		AddField("created_at", schema.DateTime(), schema.Nullable()).
		Primary("_id")
}

func postsLayout() *schema.Layout {
	return schema.NewLayout("posts").
		AddField("_id", schema.Integer(true), schema.AutoIncrement()).
		AddField("user_id", schema.Integer(true)).
		Primary("_id")
}

// stubRelationship answers ResolveAll from a fixed table of children.
type stubRelationship struct {
	local, referenced Field
	children          map[string][]*Instance
	calls             [][]*Instance
	err               error
}

func (s *stubRelationship) Local() Field       { return s.local }
func (s *stubRelationship) Referenced() Field  { return s.referenced }
func (s *stubRelationship) Single() bool       { return false }
func (s *stubRelationship) Injector() Injector { return nil }

func (s *stubRelationship) Resolve(ctx context.Context, inst *Instance) (*Content, error) {
	all, err := s.ResolveAll(ctx, []*Instance{inst})
	return all[Key(inst.Get(s.local.Name()))], err
}

func (s *stubRelationship) ResolveAll(_ context.Context, insts []*Instance) (map[string]*Content, error) {
	s.calls = append(s.calls, insts)
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]*Content)
	for _, p := range insts {
		k := Key(p.Get(s.local.Name()))
		if c, ok := s.children[k]; ok {
			out[k] = &Content{Payload: c}
		}
	}
	return out, nil
}

func TestReflectionFields(t *testing.T) {
	users := NewReflection(nil, "User", usersLayout())

	assert.Equal(t, "users", users.Table())
	assert.Equal(t, "User", users.Name())
	assert.True(t, users.HasField("name"))
	assert.False(t, users.HasField("missing"))
	assert.Equal(t, "_id", users.PrimaryKey().Name())
	assert.Same(t, users, users.Field("name").Reflection())
	assert.Equal(t, "User.name", users.Field("name").String())

	var names []string
	for _, f := range users.Fields() {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"_id", "name", "active", "created_at"}, names)

	table := ast.NewTable("users")
	assert.Equal(t, ast.Field{Source: table, Name: "name"}, users.Field("name").On(table))
}

func TestUnknownFieldPanics(t *testing.T) {
	users := NewReflection(nil, "User", usersLayout())
	assert.PanicsWithError(t, `invariant violated: model User has no field "nope"`, func() {
		users.Field("nope")
	})
}

func TestPrimaryKeyRequired(t *testing.T) {
	keyless := NewReflection(nil, "Log", schema.NewLayout("logs").AddField("line", schema.Text()))
	defer func() {
		_, ok := recover().(*invariant.Violation)
		assert.True(t, ok)
	}()
	keyless.PrimaryKey()
}

func TestNewUsesDefaults(t *testing.T) {
	users := NewReflection(nil, "User", usersLayout())
	inst := users.New(map[string]interface{}{"name": "ada"})

	assert.False(t, inst.Loaded())
	assert.Equal(t, true, inst.Get("active"))
	assert.Equal(t, "ada", inst.Get("name"))
	assert.Nil(t, inst.Get("_id"))
	assert.False(t, inst.Record().IsDirty())

	assert.Panics(t, func() { users.New(map[string]interface{}{"nope": 1}) })
}

func TestLoadAndSet(t *testing.T) {
	users := NewReflection(nil, "User", usersLayout())
	inst := users.Load(map[string]interface{}{"_id": "3", "name": "ada"})

	assert.True(t, inst.Loaded())
	assert.Equal(t, "3", inst.Key())
	inst.Set("name", "grace")
	assert.Equal(t, map[string]interface{}{"name": "grace"}, inst.Record().Diff())
}

func TestDecode(t *testing.T) {
	type user struct {
		ID        int64     `db:"_id"`
		Name      string
		Active    bool
		CreatedAt time.Time `db:"created_at"`
	}

	users := NewReflection(nil, "User", usersLayout())
	inst := users.Load(map[string]interface{}{
		"_id":        "7",
		"name":       "ada",
		"active":     "1",
		"created_at": "2024-03-01 10:30:00",
	})

	var u user
	require.NoError(t, inst.Decode(&u))
	assert.Equal(t, user{
		ID:        7,
		Name:      "ada",
		Active:    true,
		CreatedAt: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
	}, u)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "", Key(nil))
	assert.Equal(t, "5", Key(5))
	assert.Equal(t, "5", Key(int64(5)))
	assert.Equal(t, "5", Key("5"))
	assert.Equal(t, "5", Key([]byte("5")))
}

func TestRelateRejectsForeignLocalField(t *testing.T) {
	users := NewReflection(nil, "User", usersLayout())
	posts := NewReflection(nil, "Post", postsLayout())
	rel := &stubRelationship{local: posts.Field("user_id"), referenced: users.Field("_id")}

	assert.Panics(t, func() { users.Relate("posts", rel) })

	posts.Relate("author", rel)
	got, ok := posts.Relationship("author")
	assert.True(t, ok)
	assert.Same(t, rel, got)
	assert.Equal(t, []string{"author"}, posts.Relationships())
	assert.Panics(t, func() { posts.Relate("author", rel) })
}

func TestEagerAssignsContentToEveryParent(t *testing.T) {
	users := NewReflection(nil, "User", usersLayout())
	posts := NewReflection(nil, "Post", postsLayout())

	p1 := posts.Load(map[string]interface{}{"_id": 10, "user_id": 1})
	p2 := posts.Load(map[string]interface{}{"_id": 11, "user_id": 1})
	rel := &stubRelationship{
		local:      users.Field("_id"),
		referenced: posts.Field("user_id"),
		children:   map[string][]*Instance{"1": {p1, p2}},
	}
	users.Relate("posts", rel)

	u1 := users.Load(map[string]interface{}{"_id": 1})
	u2 := users.Load(map[string]interface{}{"_id": 2})
	require.NoError(t, users.Eager(context.Background(), []*Instance{u1, u2}, "posts"))

	require.Len(t, rel.calls, 1)
	c1, ok := u1.Related("posts")
	require.True(t, ok)
	assert.Equal(t, []*Instance{p1, p2}, c1.Payload)
	c2, ok := u2.Related("posts")
	require.True(t, ok)
	assert.Empty(t, c2.Payload)
	assert.Nil(t, c2.First())
}

func TestEagerNested(t *testing.T) {
	users := NewReflection(nil, "User", usersLayout())
	posts := NewReflection(nil, "Post", postsLayout())
	comments := NewReflection(nil, "Comment", schema.NewLayout("comments").
		AddField("_id", schema.Integer(true)).
		AddField("post_id", schema.Integer(true)).
		Primary("_id"))

	p := posts.Load(map[string]interface{}{"_id": 10, "user_id": 1})
	c := comments.Load(map[string]interface{}{"_id": 100, "post_id": 10})

	users.Relate("posts", &stubRelationship{
		local:      users.Field("_id"),
		referenced: posts.Field("user_id"),
		children:   map[string][]*Instance{"1": {p}},
	})
	commentsRel := &stubRelationship{
		local:      posts.Field("_id"),
		referenced: comments.Field("post_id"),
		children:   map[string][]*Instance{"10": {c}},
	}
	posts.Relate("comments", commentsRel)

	u := users.Load(map[string]interface{}{"_id": 1})
	require.NoError(t, users.Eager(context.Background(), []*Instance{u}, "posts.comments", "posts"))

	require.Len(t, commentsRel.calls, 1)
	got, _ := u.Related("posts")
	nested, ok := got.First().Related("comments")
	require.True(t, ok)
	assert.Same(t, c, nested.First())
}

func TestEagerErrors(t *testing.T) {
	users := NewReflection(nil, "User", usersLayout())
	posts := NewReflection(nil, "Post", postsLayout())
	u := users.Load(map[string]interface{}{"_id": 1})

	err := users.Eager(context.Background(), []*Instance{u}, "posts")
	assert.ErrorIs(t, err, ErrUnknownRelationship)

	boom := errors.New("boom")
	users.Relate("posts", &stubRelationship{local: users.Field("_id"), referenced: posts.Field("user_id"), err: boom})
	err = users.Eager(context.Background(), []*Instance{u}, "posts")
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, users.Eager(context.Background(), nil, "missing"))
}
