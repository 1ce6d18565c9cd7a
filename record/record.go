// Package record holds the raw field values of one row together with the
// values originally read from storage.
package record

import (
	"reflect"
	"sort"

	"github.com/satishbabariya/relorm/internal/assert"
)

// Record tracks the original and current values of a fixed set of fields.
//
// The zero value is not usable; construct records with New.
type Record struct {
	fields   []string
	known    map[string]struct{}
	original map[string]interface{}
	current  map[string]interface{}
}

// New creates a record over fields. Values in raw for fields outside the set
// are dropped; fields missing from raw start as nil.
func New(fields []string, raw map[string]interface{}) *Record {
	r := &Record{
		fields:   append([]string(nil), fields...),
		known:    make(map[string]struct{}, len(fields)),
		original: make(map[string]interface{}, len(fields)),
		current:  make(map[string]interface{}, len(fields)),
	}
	for _, f := range fields {
		r.known[f] = struct{}{}
		v := raw[f]
		r.original[f] = v
		r.current[f] = v
	}
	return r
}

// Fields returns the field names in construction order.
func (r *Record) Fields() []string {
	return append([]string(nil), r.fields...)
}

// Has reports whether field belongs to the record.
func (r *Record) Has(field string) bool {
	_, ok := r.known[field]
	return ok
}

// Get returns the current value of field.
func (r *Record) Get(field string) interface{} {
	assert.That(r.Has(field), "record has no field %q", field)
	return r.current[field]
}

// Original returns the value of field as last read or committed.
func (r *Record) Original(field string) interface{} {
	assert.That(r.Has(field), "record has no field %q", field)
	return r.original[field]
}

// Set replaces the current value of field.
func (r *Record) Set(field string, value interface{}) *Record {
	assert.That(r.Has(field), "record has no field %q", field)
	r.current[field] = value
	return r
}

// Diff returns the fields whose current value differs from the original.
func (r *Record) Diff() map[string]interface{} {
	diff := make(map[string]interface{})
	for _, f := range r.fields {
		if !equal(r.original[f], r.current[f]) {
			diff[f] = r.current[f]
		}
	}
	return diff
}

// DiffFields returns the changed field names in construction order.
func (r *Record) DiffFields() []string {
	var names []string
	for _, f := range r.fields {
		if !equal(r.original[f], r.current[f]) {
			names = append(names, f)
		}
	}
	return names
}

// IsDirty reports whether any field changed since the last commit.
func (r *Record) IsDirty() bool {
	for _, f := range r.fields {
		if !equal(r.original[f], r.current[f]) {
			return true
		}
	}
	return false
}

// Commit makes the current values the new original values.
func (r *Record) Commit() {
	for _, f := range r.fields {
		r.original[f] = r.current[f]
	}
}

// Rollback discards changes made since the last commit.
func (r *Record) Rollback() {
	for _, f := range r.fields {
		r.current[f] = r.original[f]
	}
}

// Raw returns a copy of the current values.
func (r *Record) Raw() map[string]interface{} {
	return copyMap(r.current)
}

// RawOriginal returns a copy of the original values.
func (r *Record) RawOriginal() map[string]interface{} {
	return copyMap(r.original)
}

// Keys returns the sorted field names; handy for deterministic output.
func (r *Record) Keys() []string {
	keys := r.Fields()
	sort.Strings(keys)
	return keys
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta.Comparable() && tb.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
