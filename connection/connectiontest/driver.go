// Package connectiontest provides an in-memory recording driver for tests.
package connectiontest

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/satishbabariya/relorm/connection"
)

// Statement is one statement seen by the driver.
type Statement struct {
	Kind string // "read" or "write"
	SQL  string
}

// ReadFunc answers a read. ok reports whether the function handled sql.
type ReadFunc func(sql string) (rows []map[string]interface{}, ok bool)

// WriteFunc observes a write. ok reports whether the function handled sql.
type WriteFunc func(sql string) (affected int64, ok bool)

// ErrClosed is returned by a closed driver.
var ErrClosed = errors.New("connectiontest: driver closed")

// Driver records every statement and answers reads from registered handlers.
// Unhandled reads return no rows and unhandled writes affect one row.
type Driver struct {
	mu         sync.Mutex
	statements []Statement
	readers    []ReadFunc
	writers    []WriteFunc
	failures   map[string]error
	nextID     int64
	lastID     string
	hasID      bool
	closed     bool
}

// New creates a driver whose inserts generate ids starting at 1.
func New() *Driver {
	return &Driver{failures: make(map[string]error), nextID: 1}
}

var _ connection.Driver = (*Driver)(nil)

// OnRead registers a read handler. Later handlers take precedence.
func (d *Driver) OnRead(fn ReadFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readers = append([]ReadFunc{fn}, d.readers...)
}

// OnWrite registers a write handler. Later handlers take precedence.
func (d *Driver) OnWrite(fn WriteFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writers = append([]WriteFunc{fn}, d.writers...)
}

// Reply answers reads containing substr with rows.
func (d *Driver) Reply(substr string, rows ...map[string]interface{}) {
	d.OnRead(func(sql string) ([]map[string]interface{}, bool) {
		if !strings.Contains(sql, substr) {
			return nil, false
		}
		return rows, true
	})
}

// Fail makes statements containing substr return err.
func (d *Driver) Fail(substr string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[substr] = err
}

// Read implements connection.Driver.
func (d *Driver) Read(_ context.Context, sql string) (connection.ResultSet, error) {
	d.mu.Lock()
	if err := d.record("read", sql); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	readers := append([]ReadFunc(nil), d.readers...)
	d.mu.Unlock()

	for _, fn := range readers {
		if rows, ok := fn(sql); ok {
			return connection.NewStaticResultSet(rows), nil
		}
	}
	return connection.NewStaticResultSet(nil), nil
}

// Write implements connection.Driver.
func (d *Driver) Write(_ context.Context, sql string) (int64, error) {
	d.mu.Lock()
	if err := d.record("write", sql); err != nil {
		d.mu.Unlock()
		return 0, err
	}
	if strings.HasPrefix(sql, "INSERT") {
		d.lastID = strconv.FormatInt(d.nextID, 10)
		d.hasID = true
		d.nextID++
	}
	writers := append([]WriteFunc(nil), d.writers...)
	d.mu.Unlock()

	for _, fn := range writers {
		if n, ok := fn(sql); ok {
			return n, nil
		}
	}
	return 1, nil
}

func (d *Driver) record(kind, sql string) error {
	if d.closed {
		return ErrClosed
	}
	d.statements = append(d.statements, Statement{Kind: kind, SQL: sql})
	for substr, err := range d.failures {
		if strings.Contains(sql, substr) {
			return err
		}
	}
	return nil
}

// LastInsertID implements connection.Driver.
func (d *Driver) LastInsertID() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastID, d.hasID
}

// Close implements connection.Driver.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether Close was called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Statements returns every statement seen so far.
func (d *Driver) Statements() []Statement {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Statement(nil), d.statements...)
}

// Reads returns the SQL of every read.
func (d *Driver) Reads() []string { return d.of("read") }

// Writes returns the SQL of every write.
func (d *Driver) Writes() []string { return d.of("write") }

func (d *Driver) of(kind string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, s := range d.statements {
		if s.Kind == kind {
			out = append(out, s.SQL)
		}
	}
	return out
}

// Reset forgets recorded statements. Handlers stay registered.
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statements = nil
}

var (
	tagInsert = regexp.MustCompile("^INSERT INTO `_tags` \\(`_id`, `name`\\) VALUES \\(NULL, '((?:[^'\\\\]|\\\\.)*)'\\)$")
	tagDelete = regexp.MustCompile("^DELETE FROM `_tags` WHERE `_id` = '(\\d+)'$")
	tagName   = regexp.MustCompile("`name` = '((?:[^'\\\\]|\\\\.)*)'")
	tagsExists = "SELECT table_name AS name FROM information_schema.tables " +
		"WHERE table_schema = DATABASE() AND table_name = '" + connection.TagsTable + "'"
)

// EmulateTags makes the driver keep the connection's tag table in memory.
// It understands the statements the MySQL grammar produces for it.
func (d *Driver) EmulateTags() {
	var (
		mu      sync.Mutex
		created bool
		ids     []int64
		names   = make(map[int64]string)
	)

	d.OnWrite(func(sql string) (int64, bool) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case strings.HasPrefix(sql, "CREATE TABLE `"+connection.TagsTable+"`"):
			created = true
			return 0, true
		case tagInsert.MatchString(sql):
			id, _ := strconv.ParseInt(d.lastInsertID(), 10, 64)
			ids = append(ids, id)
			names[id] = unescape(tagInsert.FindStringSubmatch(sql)[1])
			return 1, true
		case tagDelete.MatchString(sql):
			id, _ := strconv.ParseInt(tagDelete.FindStringSubmatch(sql)[1], 10, 64)
			if _, ok := names[id]; !ok {
				return 0, true
			}
			delete(names, id)
			for i, v := range ids {
				if v == id {
					ids = append(ids[:i], ids[i+1:]...)
					break
				}
			}
			return 1, true
		}
		return 0, false
	})

	d.OnRead(func(sql string) ([]map[string]interface{}, bool) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case sql == tagsExists:
			if !created {
				return nil, true
			}
			return []map[string]interface{}{{"name": connection.TagsTable}}, true
		case strings.Contains(sql, "FROM `"+connection.TagsTable+"`"):
			var filter *string
			if m := tagName.FindStringSubmatch(sql); m != nil {
				name := unescape(m[1])
				filter = &name
			}
			var rows []map[string]interface{}
			for _, id := range ids {
				if filter != nil && names[id] != *filter {
					continue
				}
				rows = append(rows, map[string]interface{}{
					"_id":  strconv.FormatInt(id, 10),
					"name": names[id],
				})
			}
			return rows, true
		}
		return nil, false
	})
}

func (d *Driver) lastInsertID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastID
}

func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
