package model

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"

	"github.com/satishbabariya/relorm/record"
)

// Instance is one row of a model with its loaded relationships.
type Instance struct {
	reflection *Reflection
	record     *record.Record
	loaded     bool
	related    map[string]*Content
}

// Reflection returns the instance's model.
func (i *Instance) Reflection() *Reflection { return i.reflection }

// Record returns the underlying record.
func (i *Instance) Record() *record.Record { return i.record }

// Loaded reports whether the instance exists in storage.
func (i *Instance) Loaded() bool { return i.loaded }

// MarkLoaded flags the instance as stored.
func (i *Instance) MarkLoaded() { i.loaded = true }

// Get returns the current value of a field.
func (i *Instance) Get(field string) interface{} {
	return i.record.Get(field)
}

// Set changes the current value of a field.
func (i *Instance) Set(field string, v interface{}) *Instance {
	i.record.Set(field, v)
	return i
}

// Key returns the primary key value as a partition key.
func (i *Instance) Key() string {
	return Key(i.record.Get(i.reflection.PrimaryKey().Name()))
}

// Related returns the content resolved for a relationship.
func (i *Instance) Related(name string) (*Content, bool) {
	c, ok := i.related[name]
	return c, ok
}

// SetRelated stores resolved content for a relationship.
func (i *Instance) SetRelated(name string, c *Content) {
	if i.related == nil {
		i.related = make(map[string]*Content)
	}
	i.related[name] = c
}

// Decode copies the current values into dst, a pointer to a struct or map.
// Struct fields match by their `db` tag, then by case-insensitive name.
func (i *Instance) Decode(dst interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "db",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc("2006-01-02 15:04:05"),
		Result:           dst,
	})
	if err != nil {
		return fmt.Errorf("decode %s: %w", i.reflection.name, err)
	}
	if err := dec.Decode(i.record.Raw()); err != nil {
		return fmt.Errorf("decode %s: %w", i.reflection.name, err)
	}
	return nil
}

// Key normalizes a field value for partitioning. Nil maps to "".
func Key(v interface{}) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}
